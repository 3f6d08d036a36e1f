/*
Package rlp implements the RLP serialization format.
    rlp包实现了RLP序列化格式

The purpose of RLP (Recursive Linear Prefix) is to encode arbitrarily nested arrays of
binary data. RLP only encodes structure; the meaning of the bytes is left to higher-order
protocols. Integers are represented in big endian binary form with no leading zeroes,
which makes the integer zero equivalent to the empty string.
    RLP只对结构编码，字节的含义由上层协议决定。整数以无前导零的大端形式表示，因此整数零等同于空字符串。

Length Prefixes
    长度前缀

Every value starts with a header byte that tells its kind and size:

    [0x00, 0x7f]  a single byte, encoded as itself
    [0x80, 0xb7]  a string of 0-55 bytes, header 0x80+len
    [0xb8, 0xbf]  a longer string, header 0xb7+len(len) followed by len in big endian
    [0xc0, 0xf7]  a list with a 0-55 byte payload, header 0xc0+len
    [0xf8, 0xff]  a longer list, header 0xf7+len(len) followed by len in big endian

Classify, HeaderFor and AppendHeader expose these rules directly.
    Classify、HeaderFor和AppendHeader直接提供上述规则。

The Encoder
    编码器

An Encoder builds one encoded value through a sequence of write calls. Lists are opened
with StartList and closed with EndList; the encoder computes list headers when they are
closed, so callers never need to know payload sizes in advance:

    e := rlp.NewEncoder()
    e.StartList()
    e.WriteString("cat")
    e.WriteString("dog")
    e.EndList()
    b, err := e.Encoded() // c88363617483646f67

The first error is kept; later writes are ignored and Encoded returns it.
    只保留第一个错误，之后的写操作被忽略，Encoded返回该错误。

The Decoder
    解码器

A Decoder is a read cursor over a byte slice. Each read consumes one value. List returns
a new cursor limited to the list payload, and Finish checks that a cursor was consumed
completely. Decoding is strict: non-minimal length headers, single bytes wrapped in a
string header and scalars with leading zero bytes are rejected.
    解码是严格的：非最小长度头、被字符串头包装的单字节以及带前导零的标量都会被拒绝。

Reflection Rules
    反射规则

Encode, EncodeToBytes, Decode and DecodeBytes map Go values to RLP by type.

If a type implements the Marshaler interface, EncodeRLP is called with the encoder. A nil
pointer to such a type does not call EncodeRLP. Unmarshaler works the same way for
decoding.
    如果类型实现了Marshaler接口，编码时调用EncodeRLP。解码时Unmarshaler同理。

Unsigned integers, big.Int and uint256.Int encode as scalars. Signed integers, floating
point numbers, maps, channels and functions are not supported. Booleans encode as the
scalars 0 and 1. Strings, byte slices and byte arrays encode as RLP strings.
    无符号整数、big.Int和uint256.Int编码为标量。不支持有符号整数、浮点数、映射、通道和函数。

Struct values encode as a list of their exported fields. Slices and arrays of other element
types encode as lists. A nil pointer encodes as the empty value of its element type: an
empty list for structs, slices and arrays, and the empty string otherwise. An empty
interface value decodes into []interface{} for lists and []byte for strings.
    结构体编码为导出字段组成的列表。nil指针编码为元素类型的空值。

Struct Tags
    结构体标签

    rlp:"-"         ignores the field.
    rlp:"tail"      on the last field (a slice) swallows all remaining list elements.
    rlp:"optional"  allows the field to be missing from the input. Trailing zero-valued
                    optional fields are omitted when encoding. All fields after an
                    optional field must also be optional.
    rlp:"nil"       on a pointer field decodes an empty value as a nil pointer. The
                    variants "nilString" and "nilList" choose which empty value is nil.
*/
package rlp
