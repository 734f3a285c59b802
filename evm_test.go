package evmcore

import (
	"math/big"
	"testing"

	"github.com/entropyio/evmcore/chain"
	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/evm"
	"github.com/entropyio/evmcore/runtime"
	"github.com/entropyio/evmcore/state"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multiply(uint256) returns its argument times seven.
const multiplyCode = "60606040526000357c0100000000000000000000000000000000000000000000000000000000900463ffffffff168063c6888fa114603d575b600080fd5b3415604757600080fd5b605b60048080359060200190919050506071565b6040518082815260200191505060405180910390f35b60006007820290505b9190505600a165627a7a7230582067d7c851e14e862886b6f53dad6825135557fb3a4b691350c94ea5b80605f6770029"

func TestEVM_Call(t *testing.T) {
	from := common.HexToAddress("0xf7fe84ec6d79bb7ae74ee5c301a551b0440b27e2")
	to := common.HexToAddress("0xaaf9025f1d9c2d2d36175011e7eca37c453174d0")
	data := common.Hex2Bytes("c6888fa1000000000000000000000000000000000000000000000000000000000000000c")
	gas := uint64(9223372036854754343)

	cfg := runtime.Config{
		ChainConfig: config.LegacyChainConfig,
		Coinbase:    from,
		BlockNumber: new(big.Int),
		Origin:      from,
		GasLimit:    gas,
		GasPrice:    big.NewInt(10000),
		Difficulty:  big.NewInt(21000),
		Time:        1536026016957,
	}

	st := state.NewMemoryState()
	st.SetState(from, common.HexToHash("0xf7fe84ec6d79bb7ae74ee5c301a551b0440b27e2"), common.HexToHash("0xf7fe84ec6d79bb7ae74ee5c301a551b0440b27e2"))
	st.SetBalance(from, uint256.NewInt(420000000000000000))
	st.SetState(to, common.HexToHash("0xaaf9025f1d9c2d2d36175011e7eca37c453174d0"), common.HexToHash("0xaaf9025f1d9c2d2d36175011e7eca37c453174d0"))
	st.SetCode(to, common.Hex2Bytes(multiplyCode))

	blockCtx := evm.BlockContext{
		CanTransfer: chain.CanTransfer,
		Transfer:    chain.Transfer,
		GetHash:     func(uint64) common.Hash { return common.Hash{} },

		Coinbase:    cfg.Coinbase,
		BlockNumber: cfg.BlockNumber,
		Time:        cfg.Time,
		Difficulty:  cfg.Difficulty,
		GasLimit:    cfg.GasLimit,
	}
	txCtx := evm.TxContext{Origin: cfg.Origin, GasPrice: cfg.GasPrice}
	env := evm.NewEVM(blockCtx, txCtx, evm.NewOverlay(st), cfg.ChainConfig, cfg.EVMConfig)

	ret, left, err := env.Call(evm.AccountRef(from), to, data, gas, new(uint256.Int))
	require.NoError(t, err)
	assert.Equal(t, common.LeftPadBytes([]byte{84}, 32), ret)
	assert.Less(t, left, gas)
}

func TestRuntimeCall(t *testing.T) {
	to := common.HexToAddress("0xaaf9025f1d9c2d2d36175011e7eca37c453174d0")
	st := state.NewMemoryState()
	st.SetCode(to, common.Hex2Bytes(multiplyCode))

	input := common.Hex2Bytes("c6888fa10000000000000000000000000000000000000000000000000000000000000006")
	ret, _, err := runtime.Call(to, input, &runtime.Config{State: st})
	require.NoError(t, err)
	assert.Equal(t, common.LeftPadBytes([]byte{42}, 32), ret)
}

func TestRuntimeCallWithValueReverts(t *testing.T) {
	from := common.HexToAddress("0xf7fe84ec6d79bb7ae74ee5c301a551b0440b27e2")
	to := common.HexToAddress("0xaaf9025f1d9c2d2d36175011e7eca37c453174d0")
	st := state.NewMemoryState()
	st.SetBalance(from, uint256.NewInt(100))
	st.SetCode(to, common.Hex2Bytes(multiplyCode))

	// the method is not payable
	input := common.Hex2Bytes("c6888fa10000000000000000000000000000000000000000000000000000000000000006")
	_, _, err := runtime.Call(to, input, &runtime.Config{State: st, Origin: from, Value: uint256.NewInt(1)})
	assert.ErrorIs(t, err, evm.ErrExecutionReverted)
	assert.Equal(t, uint64(100), st.GetBalance(from).Uint64())
}
