package core

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/PigCharid/rlpnode/core/rawdb"
	"github.com/PigCharid/rlpnode/core/types"
	"github.com/PigCharid/rlpnode/rlp"
	"github.com/PigCharid/rlpnode/trie"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
)

//go:generate go run github.com/fjl/gencodec -type Genesis -field-override genesisSpecMarshaling -out gen_genesis.go
//go:generate go run github.com/fjl/gencodec -type GenesisAccount -field-override genesisAccountMarshaling -out gen_genesis_account.go

var (
	// genesis没有链配置
	errGenesisNoConfig = errors.New("genesis has no chain configuration")

	// 数据库中没有创世区块, 也没有传入创世配置
	errNoGenesis = errors.New("no genesis block in database and none supplied")
)

// Genesis specifies the header fields, state of a genesis block. It also defines hard
// fork switch-over blocks through the chain configuration.
// Genesis指定创世区块的头字段和状态
type Genesis struct {
	Config     *params.ChainConfig `json:"config"`
	Nonce      uint64              `json:"nonce"`
	Timestamp  uint64              `json:"timestamp"`
	ExtraData  []byte              `json:"extraData"`
	GasLimit   uint64              `json:"gasLimit"   gencodec:"required"`
	Difficulty *big.Int            `json:"difficulty" gencodec:"required"`
	Mixhash    common.Hash         `json:"mixHash"`
	Coinbase   common.Address      `json:"coinbase"`
	Alloc      GenesisAlloc        `json:"alloc"      gencodec:"required"`

	// These fields are used for consensus tests. Please don't use them
	// in actual genesis blocks.
	Number     uint64      `json:"number"`
	GasUsed    uint64      `json:"gasUsed"`
	ParentHash common.Hash `json:"parentHash"`
	BaseFee    *big.Int    `json:"baseFeePerGas"`
}

// GenesisAlloc specifies the initial state that is part of the genesis block.
type GenesisAlloc map[common.Address]GenesisAccount

func (ga *GenesisAlloc) UnmarshalJSON(data []byte) error {
	m := make(map[common.UnprefixedAddress]GenesisAccount)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*ga = make(GenesisAlloc)
	for addr, a := range m {
		(*ga)[common.Address(addr)] = a
	}
	return nil
}

// flush adds allocated genesis accounts into a fresh state trie and commits
// every account, storage trie and contract code into the given database.
// 将创世账户写入新的状态树, 并提交到数据库
func (ga *GenesisAlloc) flush(db ethdb.KeyValueStore) (common.Hash, error) {
	triedb := trie.NewDatabase(db)
	state, err := trie.NewStateTrie(common.Hash{}, triedb)
	if err != nil {
		return common.Hash{}, err
	}
	var storageRoots []common.Hash
	for addr, account := range *ga {
		storageRoot, err := account.commitStorage(triedb)
		if err != nil {
			return common.Hash{}, fmt.Errorf("account %x storage: %w", addr, err)
		}
		if storageRoot != types.EmptyRootHash {
			storageRoots = append(storageRoots, storageRoot)
		}
		codeHash := types.EmptyCodeHash
		if len(account.Code) != 0 {
			codeHash = crypto.Keccak256Hash(account.Code)
			rawdb.WriteCode(db, codeHash, account.Code)
		}
		balance := account.Balance
		if balance == nil {
			balance = new(big.Int)
		}
		acc := &types.StateAccount{
			Nonce:    account.Nonce,
			Balance:  balance,
			Root:     storageRoot,
			CodeHash: codeHash.Bytes(),
		}
		if err := state.TryUpdateAccount(addr, acc); err != nil {
			return common.Hash{}, err
		}
	}
	root, _, err := state.Commit()
	if err != nil {
		return common.Hash{}, err
	}
	for _, storageRoot := range storageRoots {
		if err := triedb.Commit(storageRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	if err := triedb.Commit(root, true); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// commitStorage builds the storage trie of the account into triedb and returns
// its root. Zero values are not stored.
func (account *GenesisAccount) commitStorage(triedb *trie.Database) (common.Hash, error) {
	if len(account.Storage) == 0 {
		return types.EmptyRootHash, nil
	}
	storage, err := trie.NewStateTrie(common.Hash{}, triedb)
	if err != nil {
		return common.Hash{}, err
	}
	for key, value := range account.Storage {
		if value == (common.Hash{}) {
			continue
		}
		enc, err := rlp.EncodeToBytes(common.TrimLeftZeroes(value[:]))
		if err != nil {
			return common.Hash{}, err
		}
		if err := storage.TryUpdate(key[:], enc); err != nil {
			return common.Hash{}, err
		}
	}
	root, _, err := storage.Commit()
	return root, err
}

// write writes the json marshaled genesis state into database
// with the given block hash as the unique identifier.
func (ga *GenesisAlloc) write(db ethdb.KeyValueWriter, hash common.Hash) error {
	blob, err := json.Marshal(ga)
	if err != nil {
		return err
	}
	rawdb.WriteGenesisStateSpec(db, hash, blob)
	return nil
}

// CommitGenesisState loads the stored genesis state with the given block
// hash and commits them into the given database handler.
func CommitGenesisState(db ethdb.KeyValueStore, hash common.Hash) error {
	blob := rawdb.ReadGenesisStateSpec(db, hash)
	if len(blob) == 0 {
		// Without a stored allocation a private network can't be recovered.
		return errors.New("not found")
	}
	var alloc GenesisAlloc
	if err := alloc.UnmarshalJSON(blob); err != nil {
		return err
	}
	_, err := alloc.flush(db)
	return err
}

// GenesisAccount is an account in the state of the genesis block.
type GenesisAccount struct {
	Code       []byte                      `json:"code,omitempty"`
	Storage    map[common.Hash]common.Hash `json:"storage,omitempty"`
	Balance    *big.Int                    `json:"balance" gencodec:"required"`
	Nonce      uint64                      `json:"nonce,omitempty"`
	PrivateKey []byte                      `json:"secretKey,omitempty"` // for tests
}

// field type overrides for gencodec
type genesisSpecMarshaling struct {
	Nonce      math.HexOrDecimal64
	Timestamp  math.HexOrDecimal64
	ExtraData  hexutil.Bytes
	GasLimit   math.HexOrDecimal64
	GasUsed    math.HexOrDecimal64
	Number     math.HexOrDecimal64
	Difficulty *math.HexOrDecimal256
	BaseFee    *math.HexOrDecimal256
	Alloc      map[common.UnprefixedAddress]GenesisAccount
}

type genesisAccountMarshaling struct {
	Code       hexutil.Bytes
	Balance    *math.HexOrDecimal256
	Nonce      math.HexOrDecimal64
	Storage    map[storageJSON]storageJSON
	PrivateKey hexutil.Bytes
}

// storageJSON is a storage slot key or value. Hex input shorter than 32
// bytes is left-padded with zeros.
type storageJSON common.Hash

func (h *storageJSON) UnmarshalText(text []byte) error {
	text = bytes.TrimPrefix(text, []byte("0x"))
	if len(text) > 2*common.HashLength {
		return fmt.Errorf("too many hex characters in storage key/value %q", text)
	}
	if len(text)%2 == 1 {
		text = append([]byte{'0'}, text...)
	}
	b := make([]byte, len(text)/2)
	if _, err := hex.Decode(b, text); err != nil {
		return fmt.Errorf("invalid hex storage key/value %q", text)
	}
	*h = storageJSON(common.BytesToHash(b))
	return nil
}

func (h storageJSON) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h[:]).MarshalText()
}

// GenesisMismatchError is returned when the database holds a different
// genesis than the one supplied.
type GenesisMismatchError struct {
	Stored, New common.Hash
}

func (e *GenesisMismatchError) Error() string {
	return fmt.Sprintf("database contains incompatible genesis (have %x, new %x)", e.Stored, e.New)
}

// SetupGenesisBlock makes sure db holds a genesis and returns its hash and
// chain configuration.
//
//	                     genesis == nil       genesis != nil
//	                  +------------------------------------------
//	db has no genesis |  error             |  genesis
//	db has genesis    |  from DB           |  genesis (if compatible)
//
// A stored genesis whose state is missing gets its state rebuilt. The
// stored chain configuration is replaced when the new one is compatible
// with the local head; otherwise a *params.ConfigCompatError is returned
// along with the unwritten config.
// 初始化或校验数据库中的创世区块
func SetupGenesisBlock(db ethdb.KeyValueStore, genesis *Genesis) (*params.ChainConfig, common.Hash, error) {
	if genesis != nil && genesis.Config == nil {
		return params.AllEthashProtocolChanges, common.Hash{}, errGenesisNoConfig
	}
	stored := rawdb.ReadCanonicalHash(db, 0)
	if stored == (common.Hash{}) {
		if genesis == nil {
			return nil, common.Hash{}, errNoGenesis
		}
		log.Info("Writing custom genesis block")
		header, err := genesis.Commit(db)
		if err != nil {
			return genesis.Config, common.Hash{}, err
		}
		return genesis.Config, header.Hash(), nil
	}
	if genesis != nil {
		if hash := genesis.ToBlock(nil).Hash(); hash != stored {
			return genesis.Config, hash, &GenesisMismatchError{stored, hash}
		}
	}
	if err := ensureGenesisState(db, stored, genesis); err != nil {
		return nil, stored, err
	}
	return updateChainConfig(db, stored, genesis)
}

// ensureGenesisState rebuilds the state of the stored genesis if its root
// node is gone, from genesis or else from the stored allocation.
func ensureGenesisState(db ethdb.KeyValueStore, stored common.Hash, genesis *Genesis) error {
	header := rawdb.ReadHeader(db, stored, 0)
	if header == nil {
		return fmt.Errorf("missing genesis header %x", stored)
	}
	if _, err := trie.New(header.Root, trie.NewDatabase(db)); err == nil {
		return nil
	}
	if genesis != nil {
		_, err := genesis.Commit(db)
		return err
	}
	log.Warn("Recovering genesis state from stored allocation", "hash", stored)
	return CommitGenesisState(db, stored)
}

// updateChainConfig stores the configuration for the genesis at stored.
func updateChainConfig(db ethdb.KeyValueStore, stored common.Hash, genesis *Genesis) (*params.ChainConfig, common.Hash, error) {
	newcfg := genesis.configOrDefault(stored)
	if err := newcfg.CheckConfigForkOrder(); err != nil {
		return newcfg, common.Hash{}, err
	}
	storedcfg := rawdb.ReadChainConfig(db, stored)
	if storedcfg == nil {
		log.Warn("Found genesis block without chain config")
		rawdb.WriteChainConfig(db, stored, newcfg)
		return newcfg, stored, nil
	}
	// Without a genesis, a private network keeps its stored config instead
	// of the AllEthashProtocolChanges fallback.
	if genesis == nil && stored != params.MainnetGenesisHash {
		newcfg = storedcfg
	}
	height := rawdb.ReadHeaderNumber(db, rawdb.ReadHeadHeaderHash(db))
	if height == nil {
		return newcfg, stored, errors.New("missing block number for head header hash")
	}
	// Incompatible changes are refused unless the head is still the genesis.
	if err := storedcfg.CheckCompatible(newcfg, *height); err != nil && *height != 0 && err.RewindTo != 0 {
		return newcfg, stored, err
	}
	rawdb.WriteChainConfig(db, stored, newcfg)
	return newcfg, stored, nil
}

// knownConfigs maps the genesis hashes of public networks to their chain
// configurations.
var knownConfigs = map[common.Hash]*params.ChainConfig{
	params.MainnetGenesisHash: params.MainnetChainConfig,
	params.RopstenGenesisHash: params.RopstenChainConfig,
	params.SepoliaGenesisHash: params.SepoliaChainConfig,
	params.RinkebyGenesisHash: params.RinkebyChainConfig,
	params.GoerliGenesisHash:  params.GoerliChainConfig,
}

func (g *Genesis) configOrDefault(ghash common.Hash) *params.ChainConfig {
	if g != nil {
		return g.Config
	}
	if config, ok := knownConfigs[ghash]; ok {
		return config
	}
	return params.AllEthashProtocolChanges
}

// ToBlock creates the genesis header and writes state of a genesis specification
// to the given database (or discards it if nil).
// 创建创世区块头, 并将创世状态写入给定数据库
func (g *Genesis) ToBlock(db ethdb.KeyValueStore) *types.Header {
	if db == nil {
		db = rawdb.NewMemoryDatabase()
	}
	root, err := g.Alloc.flush(db)
	if err != nil {
		panic(err)
	}
	head := &types.Header{
		ParentHash:  g.ParentHash,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    g.Coinbase,
		Root:        root,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  g.Difficulty,
		Number:      new(big.Int).SetUint64(g.Number),
		GasLimit:    g.GasLimit,
		GasUsed:     g.GasUsed,
		Time:        g.Timestamp,
		Extra:       g.ExtraData,
		MixDigest:   g.Mixhash,
		Nonce:       types.EncodeNonce(g.Nonce),
		BaseFee:     g.BaseFee,
	}
	if g.GasLimit == 0 {
		head.GasLimit = params.GenesisGasLimit
	}
	if g.Difficulty == nil && g.Mixhash == (common.Hash{}) {
		head.Difficulty = params.GenesisDifficulty
	}
	if head.Difficulty == nil {
		head.Difficulty = new(big.Int)
	}
	if g.Config != nil && g.Config.IsLondon(common.Big0) {
		if g.BaseFee != nil {
			head.BaseFee = g.BaseFee
		} else {
			head.BaseFee = new(big.Int).SetUint64(params.InitialBaseFee)
		}
	}
	return head
}

// Commit writes the header and state of a genesis specification to the database.
// The header is committed as the canonical head.
// 将创世区块头和状态写入数据库, 并设为规范链头
func (g *Genesis) Commit(db ethdb.KeyValueStore) (*types.Header, error) {
	header := g.ToBlock(db)
	if header.Number.Sign() != 0 {
		return nil, errors.New("can't commit genesis block with number > 0")
	}
	config := g.Config
	if config == nil {
		config = params.AllEthashProtocolChanges
	}
	if err := config.CheckConfigForkOrder(); err != nil {
		return nil, err
	}
	if config.Clique != nil && len(header.Extra) < 32+crypto.SignatureLength {
		return nil, errors.New("can't start clique chain without signers")
	}
	hash := header.Hash()
	if err := g.Alloc.write(db, hash); err != nil {
		return nil, err
	}
	rawdb.WriteHeader(db, header)
	rawdb.WriteCanonicalHash(db, hash, header.NumberU64())
	rawdb.WriteHeadHeaderHash(db, hash)
	rawdb.WriteChainConfig(db, hash, config)
	log.Info("Committed genesis header", "hash", hash, "root", header.Root, "accounts", len(g.Alloc))
	return header, nil
}

// MustCommit writes the genesis header and state to db, panicking on error.
func (g *Genesis) MustCommit(db ethdb.KeyValueStore) *types.Header {
	header, err := g.Commit(db)
	if err != nil {
		panic(err)
	}
	return header
}

// GenesisBlockForTesting creates and writes a block in which addr has the given wei balance.
func GenesisBlockForTesting(db ethdb.KeyValueStore, addr common.Address, balance *big.Int) *types.Header {
	g := Genesis{
		Alloc:   GenesisAlloc{addr: {Balance: balance}},
		BaseFee: big.NewInt(params.InitialBaseFee),
	}
	return g.MustCommit(db)
}

// DeveloperGenesisBlock returns a clique genesis for local development
// with faucet as the only signer. The faucet holds almost all ether; the
// precompiles at addresses 1 to 9 get one wei each.
func DeveloperGenesisBlock(period uint64, gasLimit uint64, faucet common.Address) *Genesis {
	config := *params.AllCliqueProtocolChanges
	config.Clique = &params.CliqueConfig{Period: period, Epoch: config.Clique.Epoch}

	alloc := make(GenesisAlloc, 10)
	for i := byte(1); i <= 9; i++ {
		alloc[common.BytesToAddress([]byte{i})] = GenesisAccount{Balance: big.NewInt(1)}
	}
	// 2^256 - 9
	alloc[faucet] = GenesisAccount{Balance: new(big.Int).Sub(new(big.Int).Lsh(common.Big1, 256), big.NewInt(9))}

	extra := make([]byte, 32, 32+common.AddressLength+crypto.SignatureLength)
	extra = append(extra, faucet[:]...)
	extra = append(extra, make([]byte, crypto.SignatureLength)...)
	return &Genesis{
		Config:     &config,
		ExtraData:  extra,
		GasLimit:   gasLimit,
		BaseFee:    big.NewInt(params.InitialBaseFee),
		Difficulty: big.NewInt(1),
		Alloc:      alloc,
	}
}

// DecodePrealloc parses a compact allocation list, the RLP encoding of
// [[address, balance], ...] with both entries as big-endian integers.
// 解析RLP编码的预分配账户列表
func DecodePrealloc(data []byte) (GenesisAlloc, error) {
	d := rlp.NewDecoder(data)
	accounts, err := d.List()
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	ga := make(GenesisAlloc)
	for i := 0; accounts.More(); i++ {
		account, err := accounts.List()
		if err != nil {
			return nil, fmt.Errorf("prealloc entry %d: %w", i, err)
		}
		addr, err := account.BigInt()
		if err != nil {
			return nil, fmt.Errorf("prealloc entry %d address: %w", i, err)
		}
		if addr.BitLen() > 8*common.AddressLength {
			return nil, fmt.Errorf("prealloc entry %d: address %#x exceeds %d bytes", i, addr, common.AddressLength)
		}
		balance, err := account.BigInt()
		if err != nil {
			return nil, fmt.Errorf("prealloc entry %d balance: %w", i, err)
		}
		if err := account.Finish(); err != nil {
			return nil, fmt.Errorf("prealloc entry %d: %w", i, err)
		}
		ga[common.BigToAddress(addr)] = GenesisAccount{Balance: balance}
	}
	return ga, nil
}

// EncodePrealloc is the inverse of DecodePrealloc, ordered by address.
// Accounts carrying code, storage or a nonce cannot be expressed and are
// rejected.
func EncodePrealloc(ga GenesisAlloc) ([]byte, error) {
	addrs := make([]common.Address, 0, len(ga))
	for addr := range ga {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	e := rlp.NewEncoder()
	e.StartList()
	for _, addr := range addrs {
		account := ga[addr]
		if len(account.Code) != 0 || len(account.Storage) != 0 || account.Nonce != 0 {
			return nil, fmt.Errorf("account %x can't be expressed as prealloc", addr)
		}
		balance := account.Balance
		if balance == nil {
			balance = new(big.Int)
		}
		e.StartList()
		e.WriteBigInt(new(big.Int).SetBytes(addr[:]))
		e.WriteBigInt(balance)
		e.EndList()
	}
	e.EndList()
	return e.Encoded()
}
