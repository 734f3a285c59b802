package evm

import (
	"math/big"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
)

type testAccount struct {
	balance *uint256.Int
	nonce   uint64
	code    []byte
	storage map[common.Hash]common.Hash
}

// testWorld is a map backed WorldState and StateWriter.
type testWorld map[common.Address]*testAccount

func (w testWorld) account(addr common.Address) *testAccount {
	acc, ok := w[addr]
	if !ok {
		acc = &testAccount{balance: new(uint256.Int), storage: make(map[common.Hash]common.Hash)}
		w[addr] = acc
	}
	return acc
}

func (w testWorld) Exist(addr common.Address) bool {
	_, ok := w[addr]
	return ok
}

func (w testWorld) GetBalance(addr common.Address) *uint256.Int {
	if acc, ok := w[addr]; ok {
		return new(uint256.Int).Set(acc.balance)
	}
	return new(uint256.Int)
}

func (w testWorld) GetNonce(addr common.Address) uint64 {
	if acc, ok := w[addr]; ok {
		return acc.nonce
	}
	return 0
}

func (w testWorld) GetCode(addr common.Address) []byte {
	if acc, ok := w[addr]; ok {
		return acc.code
	}
	return nil
}

func (w testWorld) GetCodeHash(addr common.Address) common.Hash {
	acc, ok := w[addr]
	if !ok {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(acc.code)
}

func (w testWorld) GetState(addr common.Address, key common.Hash) common.Hash {
	if acc, ok := w[addr]; ok {
		return acc.storage[key]
	}
	return common.Hash{}
}

func (w testWorld) SetBalance(addr common.Address, v *uint256.Int) {
	w.account(addr).balance = new(uint256.Int).Set(v)
}

func (w testWorld) SetNonce(addr common.Address, n uint64) { w.account(addr).nonce = n }

func (w testWorld) SetCode(addr common.Address, code []byte) { w.account(addr).code = code }
func (w testWorld) SetState(addr common.Address, k, v common.Hash) { w.account(addr).storage[k] = v }
func (w testWorld) DeleteAccount(addr common.Address) { delete(w, addr) }
func (w testWorld) AddLog(*Log) {}

func testCanTransfer(db StateDB, addr common.Address, amount *uint256.Int) bool {
	return db.GetBalance(addr).Cmp(amount) >= 0
}

func testTransfer(db StateDB, sender, recipient common.Address, amount *uint256.Int) {
	db.SubBalance(sender, amount)
	db.AddBalance(recipient, amount)
}

var (
	testOrigin   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	testContract = common.HexToAddress("0x00000000000000000000000000000000c0ffee00")
	testOther    = common.HexToAddress("0x00000000000000000000000000000000000b0b00")
)

func newTestEVM(cc *config.ChainConfig, world WorldState, cfg Config) *EVM {
	blockCtx := BlockContext{
		CanTransfer: testCanTransfer,
		Transfer:    testTransfer,
		GetHash:     func(n uint64) common.Hash { return common.BigToHash(new(big.Int).SetUint64(n)) },
		Coinbase:    common.HexToAddress("0xc0"),
		GasLimit:    30_000_000,
		BlockNumber: big.NewInt(1),
		Time:        1_700_000_000,
		Difficulty:  big.NewInt(2),
		BaseFee:     big.NewInt(7),
	}
	txCtx := TxContext{Origin: testOrigin, GasPrice: big.NewInt(1)}
	return NewEVM(blockCtx, txCtx, NewOverlay(world), cc, cfg)
}

// callCode runs code installed at testContract with a plain call.
func callCode(cc *config.ChainConfig, code string, input []byte, gas uint64) (*ExecutionResult, testWorld) {
	world := testWorld{}
	world.SetCode(testContract, common.FromHex(code))
	world.SetBalance(testOrigin, uint256.NewInt(1_000_000))
	env := newTestEVM(cc, world, Config{})
	res := env.Execute(Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Input: input, Gas: gas})
	return res, world
}

// word returns v as a 32 byte big endian word.
func word(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}
