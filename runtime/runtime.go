// Package runtime runs code against an in-memory world state with a
// minimum of setup.
package runtime

import (
	"math"
	"math/big"
	"time"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/evm"
	"github.com/entropyio/evmcore/logger"
	"github.com/entropyio/evmcore/state"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var log = logger.NewLogger("[runtime]")

// ContractAddress is the account Execute installs its code at.
var ContractAddress = common.BytesToAddress([]byte("contract"))

// Config is a basic type specifying certain configuration flags for running
// the EVM.
type Config struct {
	ChainConfig *config.ChainConfig
	Difficulty  *big.Int
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber *big.Int
	Time        uint64
	GasLimit    uint64
	GasPrice    *big.Int
	Value       *uint256.Int
	EVMConfig   evm.Config
	BaseFee     *big.Int
	Random      *common.Hash

	State     *state.MemoryState
	GetHashFn func(n uint64) common.Hash
}

// sets defaults on the config
func setDefaults(cfg *Config) {
	if cfg.ChainConfig == nil {
		cfg.ChainConfig = config.AllForksChainConfig
	}
	if cfg.Difficulty == nil {
		cfg.Difficulty = new(big.Int)
	}
	if cfg.Time == 0 {
		cfg.Time = uint64(time.Now().Unix())
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = math.MaxUint64
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(big.Int)
	}
	if cfg.Value == nil {
		cfg.Value = new(uint256.Int)
	}
	if cfg.BlockNumber == nil {
		cfg.BlockNumber = new(big.Int)
	}
	if cfg.GetHashFn == nil {
		cfg.GetHashFn = func(n uint64) common.Hash {
			return common.BytesToHash(crypto.Keccak256([]byte(new(big.Int).SetUint64(n).String())))
		}
	}
	if cfg.BaseFee == nil {
		cfg.BaseFee = big.NewInt(config.InitialBaseFee)
	}
}

// Run executes msg and commits its changes to cfg.State when it halts
// successfully. A message without gas gets the configured gas limit.
func Run(msg evm.Message, cfg *Config) *evm.ExecutionResult {
	setDefaults(cfg)
	if msg.Gas == 0 {
		msg.Gas = cfg.GasLimit
	}
	res := NewEnv(cfg).Execute(msg)
	if !res.Failed() {
		cfg.State.Commit(res.Changes)
	}
	return res
}

// Execute executes the code using the input as call data during the execution.
// It returns the EVM's return value, the new state and an error if it failed.
//
// Execute sets up an in-memory, temporary, environment for the execution of
// the given code. The code is installed at ContractAddress.
func Execute(code, input []byte, cfg *Config) ([]byte, *state.MemoryState, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	if cfg.State == nil {
		cfg.State = state.NewMemoryState()
	}
	// set the receiver's (the executing contract) code for execution.
	cfg.State.SetCode(ContractAddress, code)
	log.Debugf("execute address:%x, code:%x, input:%x", ContractAddress, code, input)

	// Call the code with the given configuration.
	res := Run(evm.Message{
		Type:   evm.CallTypeCall,
		Caller: cfg.Origin,
		To:     ContractAddress,
		Input:  input,
		Gas:    cfg.GasLimit,
		Value:  cfg.Value,
	}, cfg)
	return res.ReturnData, cfg.State, res.Err
}

// Create executes the code using the EVM create method
func Create(input []byte, cfg *Config) ([]byte, common.Address, uint64, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	res := Run(evm.Message{
		Type:   evm.CallTypeCreate,
		Caller: cfg.Origin,
		Input:  input,
		Gas:    cfg.GasLimit,
		Value:  cfg.Value,
	}, cfg)
	return res.ReturnData, res.ContractAddress, res.GasLeft, res.Err
}

// Call executes the code given by the contract's address. It will return the
// EVM's return value or an error if it failed.
//
// Call, unlike Execute, requires a config and also requires the State field to
// be set.
func Call(address common.Address, input []byte, cfg *Config) ([]byte, uint64, error) {
	if cfg == nil || cfg.State == nil {
		return nil, 0, errors.New("runtime: call requires a state")
	}
	setDefaults(cfg)

	res := Run(evm.Message{
		Type:   evm.CallTypeCall,
		Caller: cfg.Origin,
		To:     address,
		Input:  input,
		Gas:    cfg.GasLimit,
		Value:  cfg.Value,
	}, cfg)
	return res.ReturnData, res.GasLeft, res.Err
}
