package evm

import (
	"fmt"
	"testing"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs msg against world under cc.
func execute(cc *config.ChainConfig, world testWorld, msg Message) *ExecutionResult {
	return newTestEVM(cc, world, Config{}).Execute(msg)
}

// initcodeFor returns init code deploying runtime, which must fit a word.
func initcodeFor(runtime []byte) string {
	n := len(runtime)
	return fmt.Sprintf("%02x%x60005260%02x60%02xf3", byte(PUSH0)+byte(n), runtime, n, 32-n)
}

func addrHex(a common.Address) string {
	return common.Bytes2Hex(a.Bytes())
}

func TestOutOfGasForfeitsGasAndWrites(t *testing.T) {
	res, _ := callCode(config.LegacyChainConfig, "6001600055", nil, 1000)
	assert.True(t, errors.Is(res.Err, ErrOutOfGas), "have %v", res.Err)
	assert.True(t, res.Failed())
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, uint64(1000), res.GasUsed)
	assert.Zero(t, res.GasLeft)
	assert.True(t, res.Changes.Empty())
}

func TestRevertKeepsGas(t *testing.T) {
	// SSTORE(0, 1) then REVERT with the word 1
	res, _ := callCode(config.LegacyChainConfig, "6001600055"+"600160005260206000fd", nil, 100_000)
	assert.True(t, errors.Is(res.Err, ErrExecutionReverted))
	assert.True(t, res.Failed())
	assert.Equal(t, StatusRevert, res.Status)
	assert.Equal(t, word(1), res.Revert())
	assert.Nil(t, res.Return())
	assert.NotZero(t, res.GasLeft)
	assert.Equal(t, uint64(100_000), res.GasUsed+res.GasLeft)
	assert.True(t, res.Changes.Empty())
}

func TestStorageChanges(t *testing.T) {
	res, world := callCode(config.LegacyChainConfig, "602a600755", nil, 100_000)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusStop, res.Status)

	ch := res.Changes.Account(testContract)
	require.NotNil(t, ch)
	assert.Equal(t, []StorageChange{{Key: common.HexToHash("0x07"), Value: common.HexToHash("0x2a")}}, ch.Storage)

	// the world is untouched until the changes are applied
	assert.Equal(t, common.Hash{}, world.GetState(testContract, common.HexToHash("0x07")))
	res.Changes.Apply(world)
	assert.Equal(t, common.HexToHash("0x2a"), world.GetState(testContract, common.HexToHash("0x07")))
}

func TestRefundIsCapped(t *testing.T) {
	world := testWorld{}
	world.SetCode(testContract, common.FromHex("600060005500"))
	world.SetState(testContract, common.Hash{}, common.HexToHash("0x01"))

	res := execute(config.LegacyChainConfig, world, Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Gas: 100_000})
	require.NoError(t, res.Err)
	assert.NotZero(t, res.RefundedGas)
	assert.Equal(t, res.GasUsed/config.RefundQuotientEIP3529, res.RefundedGas)
	assert.Less(t, res.RefundedGas, config.SstoreClearsScheduleRefundEIP3529)
}

func TestLogs(t *testing.T) {
	// LOG1 of one byte with topic 0x99
	res, _ := callCode(config.LegacyChainConfig, "60ff6000536099"+"60016000a1", nil, 100_000)
	require.NoError(t, res.Err)
	require.Len(t, res.Changes.Logs, 1)
	l := res.Changes.Logs[0]
	assert.Equal(t, testContract, l.Address)
	assert.Equal(t, []common.Hash{common.HexToHash("0x99")}, l.Topics)
	assert.Equal(t, []byte{0xff}, l.Data)
}

func TestValueTransfer(t *testing.T) {
	world := testWorld{}
	world.SetBalance(testOrigin, uint256.NewInt(1000))

	res := execute(config.LegacyChainConfig, world, Message{
		Type: CallTypeCall, Caller: testOrigin, To: testOther, Gas: 21_000, Value: uint256.NewInt(100),
	})
	require.NoError(t, res.Err)
	assert.Zero(t, res.GasUsed)

	res.Changes.Apply(world)
	assert.Equal(t, uint64(900), world.GetBalance(testOrigin).Uint64())
	assert.Equal(t, uint64(100), world.GetBalance(testOther).Uint64())
}

func TestInsufficientBalance(t *testing.T) {
	res := execute(config.LegacyChainConfig, testWorld{}, Message{
		Type: CallTypeCall, Caller: testOther, To: testContract, Gas: 5000, Value: uint256.NewInt(1),
	})
	assert.True(t, errors.Is(res.Err, ErrInsufficientBalance))
	assert.Equal(t, uint64(5000), res.GasLeft)
	assert.Zero(t, res.GasUsed)
}

func TestCallToEmptyAccount(t *testing.T) {
	res := execute(config.LegacyChainConfig, testWorld{}, Message{Type: CallTypeCall, Caller: testOrigin, To: testOther, Gas: 5000})
	require.NoError(t, res.Err)
	assert.Equal(t, StatusStop, res.Status)
	assert.Equal(t, uint64(5000), res.GasLeft)
	assert.Nil(t, res.Changes.Account(testOther))
}

func TestPrecompiles(t *testing.T) {
	for _, tc := range []struct {
		addr  byte
		input []byte
		want  string
		gas   uint64
	}{
		{2, nil, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", 60},
		{3, nil, "0000000000000000000000009c1185a5c5e9fc54612808977ee8f548b2258d31", 600},
		{4, []byte("hello"), "68656c6c6f", 18},
	} {
		res := execute(config.LegacyChainConfig, testWorld{}, Message{
			Type: CallTypeCall, Caller: testOrigin, To: common.BytesToAddress([]byte{tc.addr}), Input: tc.input, Gas: 10_000,
		})
		require.NoError(t, res.Err, "precompile %d", tc.addr)
		assert.Equal(t, tc.want, common.Bytes2Hex(res.ReturnData), "precompile %d", tc.addr)
		assert.Equal(t, tc.gas, res.GasUsed, "precompile %d", tc.addr)
	}

	res := execute(config.LegacyChainConfig, testWorld{}, Message{
		Type: CallTypeCall, Caller: testOrigin, To: common.BytesToAddress([]byte{2}), Gas: 10,
	})
	assert.True(t, errors.Is(res.Err, ErrOutOfGas))
	assert.Equal(t, uint64(10), res.GasUsed)
}

func TestNestedCall(t *testing.T) {
	world := testWorld{}
	world.SetCode(testOther, common.FromHex("602a600055"))
	// CALL(0xffff, other, 0, 0, 0, 0, 0) and return the success flag
	world.SetCode(testContract, common.FromHex("6000600060006000600073"+addrHex(testOther)+"61fffff1"+returnTop))

	res := execute(config.LegacyChainConfig, world, Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Gas: 200_000})
	require.NoError(t, res.Err)
	assert.Equal(t, word(1), res.ReturnData)

	ch := res.Changes.Account(testOther)
	require.NotNil(t, ch)
	assert.Equal(t, []StorageChange{{Key: common.Hash{}, Value: common.HexToHash("0x2a")}}, ch.Storage)
}

func TestNestedRevertIsContained(t *testing.T) {
	world := testWorld{}
	world.SetCode(testOther, common.FromHex("602a600055"+"60006000fd"))
	world.SetCode(testContract, common.FromHex("600160015560006000600060006000"+"73"+addrHex(testOther)+"61fffff1"+returnTop))

	res := execute(config.LegacyChainConfig, world, Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Gas: 200_000})
	require.NoError(t, res.Err)
	assert.Equal(t, word(0), res.ReturnData)
	assert.Nil(t, res.Changes.Account(testOther))

	// the caller's own write survives
	ch := res.Changes.Account(testContract)
	require.NotNil(t, ch)
	assert.Len(t, ch.Storage, 1)
}

func TestStaticCallWriteProtection(t *testing.T) {
	world := testWorld{}
	world.SetCode(testOther, common.FromHex("602a600055"))
	// STATICCALL(0xffff, other, 0, 0, 0, 0) and return the success flag
	world.SetCode(testContract, common.FromHex("6000600060006000"+"73"+addrHex(testOther)+"61fffffa"+returnTop))

	res := execute(config.LegacyChainConfig, world, Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Gas: 200_000})
	require.NoError(t, res.Err)
	assert.Equal(t, word(0), res.ReturnData)
	assert.Nil(t, res.Changes.Account(testOther))

	res = execute(config.LegacyChainConfig, world, Message{Type: CallTypeStaticCall, Caller: testOrigin, To: testOther, Gas: 100_000})
	assert.True(t, errors.Is(res.Err, ErrWriteProtection), "have %v", res.Err)
}

func TestNestedCreate(t *testing.T) {
	initcode := initcodeFor([]byte{byte(STOP)})
	require.Len(t, common.FromHex(initcode), 10)
	world := testWorld{}
	// PUSH10 initcode, MSTORE at 0, CREATE(0, 22, 10)
	world.SetCode(testContract, common.FromHex("69"+initcode+"600052600a60166000f0"+returnTop))

	res := execute(config.LegacyChainConfig, world, Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Gas: 200_000})
	require.NoError(t, res.Err)

	want := crypto.CreateAddress(testContract, 0)
	assert.Equal(t, want, common.BytesToAddress(res.ReturnData))

	created := res.Changes.Account(want)
	require.NotNil(t, created)
	assert.True(t, created.Created)
	assert.Equal(t, []byte{byte(STOP)}, created.Code)
	require.NotNil(t, created.Nonce)
	assert.Equal(t, uint64(1), *created.Nonce)

	caller := res.Changes.Account(testContract)
	require.NotNil(t, caller)
	require.NotNil(t, caller.Nonce)
	assert.Equal(t, uint64(1), *caller.Nonce)
}

func TestCreate(t *testing.T) {
	world := testWorld{}
	env := newTestEVM(config.LegacyChainConfig, world, Config{})
	ret, addr, _, err := env.Create(AccountRef(testOrigin), common.FromHex(initcodeFor([]byte{0x60, 0x01})), 100_000, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x01}, ret)
	assert.Equal(t, crypto.CreateAddress(testOrigin, 0), addr)

	env = newTestEVM(config.LegacyChainConfig, world, Config{})
	salt := uint256.NewInt(7)
	initcode := common.FromHex(initcodeFor([]byte{0x00}))
	_, addr, _, err = env.Create2(AccountRef(testOrigin), initcode, 100_000, nil, salt)
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress2(testOrigin, salt.Bytes32(), crypto.Keccak256(initcode)), addr)
}

func TestCodeStoreOutOfGas(t *testing.T) {
	initcode := common.FromHex(initcodeFor([]byte{0x00}))
	msg := Message{Type: CallTypeCreate, Caller: testOrigin, Input: initcode, Gas: 100}

	// Frontier keeps the account without code
	res := execute(config.FrontierChainConfig, testWorld{}, msg)
	require.NoError(t, res.Err)
	assert.Equal(t, uint64(18), res.GasUsed)
	created := res.Changes.Account(res.ContractAddress)
	require.NotNil(t, created)
	assert.False(t, created.CodeChanged)

	// Homestead fails the creation
	res = execute(config.LegacyChainConfig, testWorld{}, msg)
	assert.True(t, errors.Is(res.Err, ErrCodeStoreOutOfGas), "have %v", res.Err)
	assert.Equal(t, uint64(100), res.GasUsed)
}

func TestRejectCodeStartingWithEF(t *testing.T) {
	initcode := common.FromHex(initcodeFor([]byte{0xef}))
	for _, cc := range []*config.ChainConfig{config.LegacyChainConfig, config.AllForksChainConfig} {
		res := execute(cc, testWorld{}, Message{Type: CallTypeCreate, Caller: testOrigin, Input: initcode, Gas: 100_000})
		assert.True(t, errors.Is(res.Err, ErrInvalidCode), "have %v", res.Err)
		assert.Equal(t, uint64(100_000), res.GasUsed)
	}

	// before London the byte is ordinary code
	res := execute(config.FrontierChainConfig, testWorld{}, Message{Type: CallTypeCreate, Caller: testOrigin, Input: initcode, Gas: 100_000})
	require.NoError(t, res.Err)
}

func TestDeployContainer(t *testing.T) {
	valid := container(nil, 0, []byte{byte(STOP)}).MarshalBinary()
	res := execute(config.AllForksChainConfig, testWorld{}, Message{
		Type: CallTypeCreate, Caller: testOrigin, Input: common.FromHex(initcodeFor(valid)), Gas: 100_000,
	})
	require.NoError(t, res.Err)
	created := res.Changes.Account(res.ContractAddress)
	require.NotNil(t, created)
	assert.Equal(t, valid, created.Code)

	invalid := container(nil, 0, []byte{byte(PUSH0), byte(JUMP)}).MarshalBinary()
	res = execute(config.AllForksChainConfig, testWorld{}, Message{
		Type: CallTypeCreate, Caller: testOrigin, Input: common.FromHex(initcodeFor(invalid)), Gas: 100_000,
	})
	assert.True(t, errors.Is(res.Err, ErrInvalidCode), "have %v", res.Err)
}

func TestSelfdestruct(t *testing.T) {
	world := testWorld{}
	world.SetBalance(testContract, uint256.NewInt(50))
	world.SetCode(testContract, common.FromHex("73"+addrHex(testOther)+"ff"))

	res := execute(config.LegacyChainConfig, world, Message{Type: CallTypeCall, Caller: testOrigin, To: testContract, Gas: 100_000})
	require.NoError(t, res.Err)

	res.Changes.Apply(world)
	assert.False(t, world.Exist(testContract))
	assert.Equal(t, uint64(50), world.GetBalance(testOther).Uint64())
}

func TestInitCodeSizeLimit(t *testing.T) {
	initcode := make([]byte, config.MaxInitCodeSize+1)
	res := execute(config.LegacyChainConfig, testWorld{}, Message{Type: CallTypeCreate, Caller: testOrigin, Input: initcode, Gas: 100_000})
	assert.True(t, errors.Is(res.Err, ErrMaxInitCodeSizeExceeded))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, uint64(0), res.GasLeft)
	assert.Equal(t, uint64(100_000), res.GasUsed)
	assert.Empty(t, res.Changes.Accounts)
}

func TestEcrecoverPrecompile(t *testing.T) {
	key := common.LeftPadBytes([]byte{1}, 32)
	hash := crypto.Keccak256([]byte("evmcore"))
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)

	input := append(append(common.CopyBytes(hash), word(27+uint64(sig[64]))...), sig[:64]...)
	msg := Message{Type: CallTypeCall, Caller: testOrigin, To: common.BytesToAddress([]byte{1}), Input: input, Gas: 10_000}
	res := execute(config.LegacyChainConfig, testWorld{}, msg)
	require.NoError(t, res.Err)
	assert.Equal(t, config.EcrecoverGas, res.GasUsed)
	assert.Equal(t, common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"), common.BytesToAddress(res.ReturnData))

	// an invalid recovery id yields empty output, not an error
	input[63] = 30
	res = execute(config.LegacyChainConfig, testWorld{}, msg)
	require.NoError(t, res.Err)
	assert.Empty(t, res.ReturnData)
}
