package rlp

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/PigCharid/rlpnode/rlp/internal/rlpstruct"
	"github.com/holiman/uint256"
)

// 根据类型找到对应的编码器和解码器。
// A Go type is turned into a writer (value -> Encoder calls) and a decoder
// (Decoder calls -> value) once; both are cached for the process lifetime.

type writer func(reflect.Value, *Encoder) error

type decoder func(*Decoder, reflect.Value) error

// codec is the cached writer/decoder pair of one type. Generation errors are
// cached too and reported whenever the type is used.
type codec struct {
	writer     writer
	writerErr  error
	decoder    decoder
	decoderErr error
}

// codecKey includes the struct tags because they can change the codec.
type codecKey struct {
	reflect.Type
	rlpstruct.Tags
}

var (
	marshalerInterface   = reflect.TypeOf(new(Marshaler)).Elem()
	unmarshalerInterface = reflect.TypeOf(new(Unmarshaler)).Elem()
	bigInt               = reflect.TypeOf(big.Int{})
	u256Int              = reflect.TypeOf(uint256.Int{})
)

var codecs codecCache

// codecCache serves finished codecs lock-free from ready. New codecs are
// built under mu in pending and published together once the outermost
// build returns, so a recursive type can link to its own unfinished entry.
type codecCache struct {
	ready sync.Map // codecKey -> *codec

	mu      sync.Mutex
	pending map[codecKey]*codec
}

func cachedWriter(typ reflect.Type) (writer, error) {
	c := codecs.get(typ)
	return c.writer, c.writerErr
}

func cachedDecoder(typ reflect.Type) (decoder, error) {
	c := codecs.get(typ)
	return c.decoder, c.decoderErr
}

func (cc *codecCache) get(typ reflect.Type) *codec {
	key := codecKey{Type: typ}
	if c, ok := cc.ready.Load(key); ok {
		return c.(*codec)
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if c, ok := cc.ready.Load(key); ok {
		return c.(*codec)
	}
	cc.pending = make(map[codecKey]*codec)
	c := cc.building(typ, rlpstruct.Tags{})
	for k, v := range cc.pending {
		cc.ready.Store(k, v)
	}
	cc.pending = nil
	return c
}

// building returns the codec of typ from inside another codec's
// construction. It must be called with mu held.
func (cc *codecCache) building(typ reflect.Type, tags rlpstruct.Tags) *codec {
	key := codecKey{typ, tags}
	if c, ok := cc.ready.Load(key); ok {
		return c.(*codec)
	}
	if c := cc.pending[key]; c != nil {
		return c
	}
	c := new(codec)
	cc.pending[key] = c
	c.writer, c.writerErr = makeWriter(typ, tags)
	c.decoder, c.decoderErr = makeDecoder(typ, tags)
	return c
}

// field is an encoded struct field.
type field struct {
	index    int
	name     string
	codec    *codec
	optional bool
}

// structFields resolves the codecs of the encoded fields of a struct type.
func structFields(typ reflect.Type) ([]field, error) {
	all := make([]rlpstruct.Field, typ.NumField())
	for i := range all {
		rf := typ.Field(i)
		all[i] = rlpstruct.Field{
			Name:     rf.Name,
			Index:    i,
			Exported: rf.PkgPath == "",
			Tag:      string(rf.Tag),
			Type:     *structType(rf.Type, nil),
		}
	}
	selected, tags, err := rlpstruct.ProcessFields(all)
	if err != nil {
		if tagErr, ok := err.(rlpstruct.TagError); ok {
			tagErr.StructType = typ.String()
			return nil, tagErr
		}
		return nil, err
	}
	fields := make([]field, len(selected))
	for i, sf := range selected {
		fields[i] = field{
			index:    sf.Index,
			name:     sf.Name,
			codec:    codecs.building(typ.Field(sf.Index).Type, tags[i]),
			optional: tags[i].Optional,
		}
	}
	return fields, nil
}

// firstOptional returns the index of the first optional field, or
// len(fields) if there is none.
func firstOptional(fields []field) int {
	for i, f := range fields {
		if f.optional {
			return i
		}
	}
	return len(fields)
}

type structFieldError struct {
	typ   reflect.Type
	field int
	err   error
}

func (e structFieldError) Error() string {
	return fmt.Sprintf("%v (struct field %v.%s)", e.err, e.typ, e.typ.Field(e.field).Name)
}

func (e structFieldError) Unwrap() error { return e.err }

// structType mirrors typ into the reflection-free form used for tag
// validation. seen breaks cycles in recursive types.
func structType(typ reflect.Type, seen map[reflect.Type]*rlpstruct.Type) *rlpstruct.Type {
	if typ.Kind() == reflect.Invalid {
		panic("rlp: invalid type kind")
	}
	if t := seen[typ]; t != nil {
		return t
	}
	if seen == nil {
		seen = make(map[reflect.Type]*rlpstruct.Type)
	}
	t := &rlpstruct.Type{
		Name:      typ.String(),
		Kind:      typ.Kind(),
		IsEncoder: typ.Implements(marshalerInterface),
		IsDecoder: typ.Implements(unmarshalerInterface),
	}
	seen[typ] = t
	switch typ.Kind() {
	case reflect.Array, reflect.Slice, reflect.Ptr:
		t.Elem = structType(typ.Elem(), seen)
	}
	return t
}

// nilKind returns the value kind written for a nil pointer of type typ.
func nilKind(typ reflect.Type, tags rlpstruct.Tags) Kind {
	nk := tags.NilKind
	if !tags.NilOK {
		nk = structType(typ, nil).DefaultNilValue()
	}
	if nk == rlpstruct.NilKindList {
		return List
	}
	return String
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isByte(typ reflect.Type) bool {
	return typ.Kind() == reflect.Uint8 && !typ.Implements(marshalerInterface)
}
