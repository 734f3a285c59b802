package runtime

import (
	"github.com/entropyio/evmcore/chain"
	"github.com/entropyio/evmcore/evm"
	"github.com/entropyio/evmcore/state"
)

// NewEnv returns an EVM executing over a fresh overlay of cfg.State.
func NewEnv(cfg *Config) *evm.EVM {
	if cfg.State == nil {
		cfg.State = state.NewMemoryState()
	}
	blockCtx := evm.BlockContext{
		CanTransfer: chain.CanTransfer,
		Transfer:    chain.Transfer,
		GetHash:     cfg.GetHashFn,

		Coinbase:    cfg.Coinbase,
		BlockNumber: cfg.BlockNumber,
		Time:        cfg.Time,
		Difficulty:  cfg.Difficulty,
		GasLimit:    cfg.GasLimit,
		BaseFee:     cfg.BaseFee,
		Random:      cfg.Random,
	}
	txCtx := evm.TxContext{
		Origin:   cfg.Origin,
		GasPrice: cfg.GasPrice,
	}
	return evm.NewEVM(blockCtx, txCtx, evm.NewOverlay(cfg.State), cfg.ChainConfig, cfg.EVMConfig)
}
