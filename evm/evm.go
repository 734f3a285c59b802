package evm

import (
	"math/big"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/logger"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var log = logger.NewLogger("[evm]")

type (
	// CanTransferFunc is the signature of a transfer guard function
	CanTransferFunc func(StateDB, common.Address, *uint256.Int) bool
	// TransferFunc is the signature of a transfer function
	TransferFunc func(StateDB, common.Address, common.Address, *uint256.Int)
	// GetHashFunc returns the n'th block hash in the blockchain
	// and is used by the BLOCKHASH EVM op code.
	GetHashFunc func(uint64) common.Hash
)

// BlockContext provides the EVM with auxiliary information. Once provided
// it shouldn't be modified.
type BlockContext struct {
	// CanTransfer returns whether the account contains
	// sufficient ether to transfer the value
	CanTransfer CanTransferFunc
	// Transfer transfers ether from one account to the other
	Transfer TransferFunc
	// GetHash returns the hash corresponding to n
	GetHash GetHashFunc

	// Block information
	Coinbase    common.Address // Provides information for COINBASE
	GasLimit    uint64         // Provides information for GASLIMIT
	BlockNumber *big.Int       // Provides information for NUMBER
	Time        uint64         // Provides information for TIME
	Difficulty  *big.Int       // Provides information for DIFFICULTY
	BaseFee     *big.Int       // Provides information for BASEFEE
	Random      *common.Hash   // Provides information for PREVRANDAO
}

// TxContext provides the EVM with information about a transaction.
// All fields can change between transactions.
type TxContext struct {
	// Message information
	Origin   common.Address // Provides information for ORIGIN
	GasPrice *big.Int       // Provides information for GASPRICE
}

// Config are the configuration options for the EVM
type Config struct {
	Debug  bool      // Enables debugging
	Tracer EVMLogger // Opcode logger
	// GasSchedule replaces the schedule derived from the chain rules.
	GasSchedule *config.GasSchedule
}

// Message is a top level call or contract creation.
type Message struct {
	Type   CallType
	Caller common.Address
	To     common.Address // ignored by creations
	Input  []byte         // call data, or init code of a creation
	Gas    uint64
	Value  *uint256.Int
	// Code, when set, runs instead of the code stored at To.
	Code *Code
	// Salt of a CREATE2 creation.
	Salt *uint256.Int
}

// ExecutionResult includes all output after executing given evm
// message no matter the execution itself is successful or not.
type ExecutionResult struct {
	Status          Status
	Err             error  // Any error encountered during the execution(listed in evm/errors.go)
	ReturnData      []byte // Returned data from evm(function result or data supplied with revert opcode)
	GasLeft         uint64
	GasUsed         uint64 // Total used gas but include the refunded gas
	RefundedGas     uint64 // Refund counter capped by the refund quotient
	ContractAddress common.Address
	Changes         *ChangeSet
}

// Failed returns the indicator whether the execution is successful or not
func (result *ExecutionResult) Failed() bool { return result.Err != nil }

// Unwrap returns the internal evm error which allows us for further
// analysis outside.
func (result *ExecutionResult) Unwrap() error {
	return result.Err
}

// Return is a helper function to help caller distinguish between revert reason
// and function return. Return returns the data after execution if no error occurs.
func (result *ExecutionResult) Return() []byte {
	if result.Err != nil {
		return nil
	}
	return common.CopyBytes(result.ReturnData)
}

// Revert returns the concrete revert reason if the execution is aborted by `REVERT`
// opcode. Note the reason can be nil if no data supplied with revert opcode.
func (result *ExecutionResult) Revert() []byte {
	if !errors.Is(result.Err, ErrExecutionReverted) {
		return nil
	}
	return common.CopyBytes(result.ReturnData)
}

// frameResult is what a halted frame, or a message that never opened one,
// hands back to its caller.
type frameResult struct {
	output  []byte
	gasLeft uint64
	err     error
	address common.Address
	status  Status
}

// EVM is the Ethereum Virtual Machine base object and provides
// the necessary tools to run a contract on the given state with
// the provided context. It should be noted that any error
// generated through any of the calls should be considered a
// revert-state-and-consume-all-gas operation, no checks on
// specific errors should ever be performed. The interpreter makes
// sure that any errors generated are to be considered faulty code.
//
// The EVM should never be reused and is not thread safe.
type EVM struct {
	// Context provides auxiliary blockchain related information
	Context BlockContext
	TxContext
	// StateDB gives access to the underlying state
	StateDB StateDB

	// chainConfig contains information about the current chain
	chainConfig *config.ChainConfig
	// chain rules contains the chain rules for the current epoch
	chainRules config.Rules
	// virtual machine configuration options used to initialise the
	// evm.
	Config Config

	gas         config.GasSchedule
	table       *JumpTable
	eofTable    *JumpTable
	precompiles map[common.Address]PrecompiledContract

	// frames is the call stack; frames[0] is the top level message.
	frames []*Frame
	// callGasTemp holds the gas available for the current call. This is needed because the
	// available gas is calculated in gasCall* according to the 63/64 rule and later
	// applied in opCall*.
	callGasTemp uint64
}

// NewEVM returns a new EVM. The returned EVM is not thread safe and should
// only ever be used *once*.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, chainConfig *config.ChainConfig, cfg Config) *EVM {
	if blockCtx.BlockNumber == nil {
		blockCtx.BlockNumber = new(big.Int)
	}
	evm := &EVM{
		Context:     blockCtx,
		TxContext:   txCtx,
		StateDB:     statedb,
		Config:      cfg,
		chainConfig: chainConfig,
		chainRules:  chainConfig.Rules(blockCtx.BlockNumber, blockCtx.Random != nil),
		precompiles: PrecompiledContractsFrontier,
	}
	if cfg.GasSchedule != nil {
		evm.gas = *cfg.GasSchedule
	} else {
		evm.gas = config.NewGasSchedule(evm.chainRules)
	}
	table := newInstructionSet(evm.chainRules, &evm.gas)
	evm.table = &table
	if evm.chainRules.IsEOF {
		eofTable := newEOFInstructionSet(&evm.gas)
		evm.eofTable = &eofTable
	}
	return evm
}

// ChainConfig returns the environment's chain configuration
func (evm *EVM) ChainConfig() *config.ChainConfig { return evm.chainConfig }

// Rules returns the rules the EVM executes under.
func (evm *EVM) Rules() config.Rules { return evm.chainRules }

// GasSchedule returns the prices the EVM charges.
func (evm *EVM) GasSchedule() config.GasSchedule { return evm.gas }

// EOFInstructionSet returns the instruction set of object format code, or
// nil when the object format is not active.
func (evm *EVM) EOFInstructionSet() *JumpTable { return evm.eofTable }

// Depth returns the number of active frames.
func (evm *EVM) Depth() int { return len(evm.frames) }

func (evm *EVM) precompile(addr common.Address) (PrecompiledContract, bool) {
	p, ok := evm.precompiles[addr]
	return p, ok
}

// Execute runs msg to completion and reports the outcome together with the
// state changes it made. Changes are only reported for successful halts.
func (evm *EVM) Execute(msg Message) *ExecutionResult {
	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if evm.chainRules.IsLondon {
		evm.prepareAccessList(msg)
	}
	if evm.Config.Tracer != nil {
		evm.Config.Tracer.CaptureStart(evm, msg.Caller, msg.To, msg.Type.IsCreate(), msg.Input, msg.Gas, value)
	}

	var (
		frame *Frame
		res   frameResult
	)
	switch msg.Type {
	case CallTypeCreate, CallTypeCreate2:
		initcode := msg.Input
		if msg.Code != nil {
			initcode = msg.Code.Bytes()
		}
		if evm.chainRules.IsShanghai && len(initcode) > config.MaxInitCodeSize {
			res = frameResult{err: ErrMaxInitCodeSizeExceeded, status: StatusFailed}
			break
		}
		frame, res = evm.prepareCreate(msg.Type, msg.Caller, initcode, msg.Gas, value, msg.Salt)
	case CallTypeCall, CallTypeStaticCall:
		frame, res = evm.prepareCall(nil, msg.Type, msg.Caller, msg.To, msg.To, msg.Input, msg.Gas, value, msg.Code)
	default:
		// CALLCODE and DELEGATECALL run the code of To in the context of
		// the caller.
		frame, res = evm.prepareCall(nil, msg.Type, msg.Caller, msg.Caller, msg.To, msg.Input, msg.Gas, value, msg.Code)
	}
	if frame != nil {
		res = evm.run(frame)
	}

	result := &ExecutionResult{
		Status:          res.status,
		Err:             res.err,
		ReturnData:      res.output,
		GasLeft:         res.gasLeft,
		GasUsed:         msg.Gas - res.gasLeft,
		ContractAddress: res.address,
		Changes:         &ChangeSet{},
	}
	if result.Status == StatusStop || result.Status == StatusReturn {
		refund := evm.StateDB.GetRefund()
		if limit := result.GasUsed / evm.gas.RefundQuotient; refund > limit {
			refund = limit
		}
		result.RefundedGas = refund
		if cs, ok := evm.StateDB.(interface{ Changes() *ChangeSet }); ok {
			result.Changes = cs.Changes()
		}
	}
	if evm.Config.Tracer != nil {
		evm.Config.Tracer.CaptureEnd(result.ReturnData, result.GasUsed, result.Err)
	}
	log.Debugf("message done type=%s status=%s gasUsed=%d err=%v", msg.Type, result.Status, result.GasUsed, result.Err)
	return result
}

// prepareAccessList warms the sender, the target, the precompiles and,
// from Shanghai on, the coinbase.
func (evm *EVM) prepareAccessList(msg Message) {
	evm.StateDB.AddAddressToAccessList(msg.Caller)
	if !msg.Type.IsCreate() {
		evm.StateDB.AddAddressToAccessList(msg.To)
	}
	for _, addr := range ActivePrecompiles(evm.chainRules) {
		evm.StateDB.AddAddressToAccessList(addr)
	}
	if evm.chainRules.IsShanghai {
		evm.StateDB.AddAddressToAccessList(evm.Context.Coinbase)
	}
}

// Call executes the contract associated with the addr with the given input as
// parameters. It also handles any necessary value transfer required and takes
// the necessary steps to create accounts and reverses the state in case of an
// execution error or failed value transfer.
func (evm *EVM) Call(caller ContractRef, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	res := evm.Execute(Message{Type: CallTypeCall, Caller: caller.Address(), To: addr, Input: input, Gas: gas, Value: value})
	return res.ReturnData, res.GasLeft, res.Err
}

// CallCode executes the contract associated with the addr with the given input
// as parameters. It also handles any necessary value transfer required and takes
// the necessary steps to create accounts and reverses the state in case of an
// execution error or failed value transfer.
//
// CallCode differs from Call in the sense that it executes the given address'
// code with the caller as context.
func (evm *EVM) CallCode(caller ContractRef, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	res := evm.Execute(Message{Type: CallTypeCallCode, Caller: caller.Address(), To: addr, Input: input, Gas: gas, Value: value})
	return res.ReturnData, res.GasLeft, res.Err
}

// DelegateCall executes the contract associated with the addr with the given input
// as parameters. It reverses the state in case of an execution error.
//
// DelegateCall differs from CallCode in the sense that it executes the given address'
// code with the caller as context and the caller is set to the caller of the caller.
func (evm *EVM) DelegateCall(caller ContractRef, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	res := evm.Execute(Message{Type: CallTypeDelegateCall, Caller: caller.Address(), To: addr, Input: input, Gas: gas})
	return res.ReturnData, res.GasLeft, res.Err
}

// StaticCall executes the contract associated with the addr with the given input
// as parameters while disallowing any modifications to the state during the call.
// Opcodes that attempt to perform such modifications will result in exceptions
// instead of performing the modifications.
func (evm *EVM) StaticCall(caller ContractRef, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	res := evm.Execute(Message{Type: CallTypeStaticCall, Caller: caller.Address(), To: addr, Input: input, Gas: gas})
	return res.ReturnData, res.GasLeft, res.Err
}

// Create creates a new contract using code as deployment code.
func (evm *EVM) Create(caller ContractRef, code []byte, gas uint64, value *uint256.Int) (ret []byte, contractAddr common.Address, leftOverGas uint64, err error) {
	res := evm.Execute(Message{Type: CallTypeCreate, Caller: caller.Address(), Input: code, Gas: gas, Value: value})
	return res.ReturnData, res.ContractAddress, res.GasLeft, res.Err
}

// Create2 creates a new contract using code as deployment code.
//
// The different between Create2 with Create is Create2 uses keccak256(0xff ++ msg.sender ++ salt ++ keccak256(init_code))[12:]
// instead of the usual sender-and-nonce-hash as the address where the contract is initialized at.
func (evm *EVM) Create2(caller ContractRef, code []byte, gas uint64, endowment *uint256.Int, salt *uint256.Int) (ret []byte, contractAddr common.Address, leftOverGas uint64, err error) {
	res := evm.Execute(Message{Type: CallTypeCreate2, Caller: caller.Address(), Input: code, Gas: gas, Value: endowment, Salt: salt})
	return res.ReturnData, res.ContractAddress, res.GasLeft, res.Err
}

// prepareCall opens the frame of a call, or settles messages that run no
// code right away. address is the account the frame acts on and codeAddr
// the account its code is loaded from.
func (evm *EVM) prepareCall(parent *Frame, typ CallType, caller, address, codeAddr common.Address, input []byte, gas uint64, value *uint256.Int, code *Code) (*Frame, frameResult) {
	// Fail if we're trying to execute above the call depth limit
	if uint64(len(evm.frames)) > config.CallCreateDepth {
		return nil, frameResult{gasLeft: gas, err: ErrDepth, status: StatusFailed}
	}
	// Fail if we're trying to transfer more than the available balance
	if (typ == CallTypeCall || typ == CallTypeCallCode) && !value.IsZero() && !evm.Context.CanTransfer(evm.StateDB, caller, value) {
		return nil, frameResult{gasLeft: gas, err: ErrInsufficientBalance, status: StatusFailed}
	}
	snapshot := evm.StateDB.Snapshot()
	p, isPrecompile := evm.precompile(codeAddr)

	if typ == CallTypeCall {
		if !evm.StateDB.Exist(address) {
			if !isPrecompile && evm.chainRules.IsEIP150 && value.IsZero() {
				// Calling a non existing account, don't do anything.
				return nil, frameResult{gasLeft: gas, status: StatusStop}
			}
			evm.StateDB.CreateAccount(address)
		}
		evm.Context.Transfer(evm.StateDB, caller, address, value)
	}

	if isPrecompile && code == nil {
		ret, gasLeft, err := RunPrecompiledContract(p, input, gas)
		return nil, evm.settle(snapshot, ret, gasLeft, err)
	}
	if code == nil {
		code = evm.loadCode(codeAddr)
	}
	if code == nil || len(code.Bytes()) == 0 {
		return nil, frameResult{gasLeft: gas, status: StatusStop}
	}

	frame := newFrame(typ, caller, address, value, gas)
	frame.codeAddr = codeAddr
	frame.Input = input
	frame.Code = code
	frame.table = evm.tableFor(code)
	frame.snapshot = snapshot
	frame.readOnly = typ == CallTypeStaticCall || (parent != nil && parent.readOnly)
	return frame, frameResult{}
}

// settle finishes a message that ran no frame.
func (evm *EVM) settle(snapshot int, ret []byte, gasLeft uint64, err error) frameResult {
	res := frameResult{output: ret, gasLeft: gasLeft, err: err, status: StatusReturn}
	switch {
	case err == nil:
	case errors.Is(err, ErrExecutionReverted):
		evm.StateDB.RevertToSnapshot(snapshot)
		res.status = StatusRevert
	default:
		evm.StateDB.RevertToSnapshot(snapshot)
		res.output, res.gasLeft, res.status = nil, 0, StatusFailed
	}
	return res
}

// prepareCreate derives the new contract address and opens the frame that
// runs its init code.
func (evm *EVM) prepareCreate(typ CallType, caller common.Address, initcode []byte, gas uint64, value *uint256.Int, salt *uint256.Int) (*Frame, frameResult) {
	// Depth check execution. Fail if we're trying to execute above the
	// limit.
	if uint64(len(evm.frames)) > config.CallCreateDepth {
		return nil, frameResult{gasLeft: gas, err: ErrDepth, status: StatusFailed}
	}
	if !evm.Context.CanTransfer(evm.StateDB, caller, value) {
		return nil, frameResult{gasLeft: gas, err: ErrInsufficientBalance, status: StatusFailed}
	}
	nonce := evm.StateDB.GetNonce(caller)
	if nonce+1 < nonce {
		return nil, frameResult{gasLeft: gas, err: ErrNonceUintOverflow, status: StatusFailed}
	}
	evm.StateDB.SetNonce(caller, nonce+1)

	var address common.Address
	if typ == CallTypeCreate2 {
		if salt == nil {
			salt = new(uint256.Int)
		}
		address = crypto.CreateAddress2(caller, salt.Bytes32(), crypto.Keccak256(initcode))
	} else {
		address = crypto.CreateAddress(caller, nonce)
	}
	// We add this to the access list _before_ taking a snapshot. Even if the creation fails,
	// the access-list change should not be rolled back
	if evm.chainRules.IsLondon {
		evm.StateDB.AddAddressToAccessList(address)
	}
	// Ensure there's no existing contract already at the designated address
	contractHash := evm.StateDB.GetCodeHash(address)
	if evm.StateDB.GetNonce(address) != 0 || (contractHash != (common.Hash{}) && contractHash != crypto.EmptyCodeHash) {
		return nil, frameResult{err: ErrContractAddressCollision, address: address, status: StatusFailed}
	}
	// Create a new account on the state
	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(address)
	if evm.chainRules.IsEIP150 {
		evm.StateDB.SetNonce(address, 1)
	}
	evm.Context.Transfer(evm.StateDB, caller, address, value)

	// Init code always runs as legacy code and is never cached.
	frame := newFrame(typ, caller, address, value, gas)
	frame.Code = NewLegacyCode(initcode)
	frame.table = evm.table
	frame.snapshot = snapshot
	return frame, frameResult{}
}

// loadCode returns the analysed code of addr, or nil for accounts without
// code.
func (evm *EVM) loadCode(addr common.Address) *Code {
	raw := evm.StateDB.GetCode(addr)
	if len(raw) == 0 {
		return nil
	}
	var (
		hash   = evm.StateDB.GetCodeHash(addr)
		eofOn  = evm.eofTable != nil
		cached bool
		code   *Code
	)
	if code, cached = analysedCode.get(hash, eofOn); cached {
		return code
	}
	code, err := ParseCode(raw, evm.eofTable)
	if err != nil {
		// Stored code that is not a valid container predates the object
		// format; it runs as legacy code and fails on the 0xEF byte.
		log.Warningf("invalid container at %x, running as legacy code: %v", addr, err)
		code = NewLegacyCode(raw)
	}
	code.hash = hash
	analysedCode.add(code, eofOn)
	return code
}

func (evm *EVM) tableFor(code *Code) *JumpTable {
	if code.IsEOF() {
		return evm.eofTable
	}
	return evm.table
}

// enterCall opens a nested call from parent. It returns errSuspend when a
// child frame was pushed; otherwise the result is already folded into
// parent.
func (evm *EVM) enterCall(parent *Frame, op OpCode, addr common.Address, input []byte, gas uint64, value *uint256.Int, retOffset, retSize uint64) error {
	typ := callTypeOf(op)
	caller, address := parent.address, addr
	switch typ {
	case CallTypeCallCode:
		address = parent.address
	case CallTypeDelegateCall:
		caller, address, value = parent.caller, parent.address, parent.Value
	}
	parent.childType, parent.retOffset, parent.retSize = typ, retOffset, retSize

	child, res := evm.prepareCall(parent, typ, caller, address, addr, input, gas, value, nil)
	return evm.enter(parent, child, res, caller, addr, input, gas, value)
}

// enterCreate opens a nested creation from parent.
func (evm *EVM) enterCreate(parent *Frame, op OpCode, initcode []byte, gas uint64, value *uint256.Int, salt *uint256.Int) error {
	typ := callTypeOf(op)
	parent.childType = typ

	child, res := evm.prepareCreate(typ, parent.address, initcode, gas, value, salt)
	return evm.enter(parent, child, res, parent.address, res.address, initcode, gas, value)
}

func (evm *EVM) enter(parent, child *Frame, res frameResult, from, to common.Address, input []byte, gas uint64, value *uint256.Int) error {
	if child != nil {
		evm.pushFrame(child)
		return errSuspend
	}
	if evm.Config.Tracer != nil {
		evm.Config.Tracer.CaptureEnter(parent.childType, from, to, input, gas, value)
		evm.Config.Tracer.CaptureExit(res.output, gas-res.gasLeft, res.err)
	}
	evm.resume(parent, res)
	return nil
}

func (evm *EVM) pushFrame(frame *Frame) {
	frame.Depth = len(evm.frames)
	frame.parent = len(evm.frames) - 1
	evm.frames = append(evm.frames, frame)
	frameCounter.WithLabelValues(frame.Type.String()).Inc()

	if evm.Config.Tracer != nil && frame.Depth > 0 {
		evm.Config.Tracer.CaptureEnter(frame.Type, frame.caller, frame.address, frame.Input, frame.Gas, frame.Value)
	}
	log.Debugf("enter frame depth=%d type=%s address=%x gas=%d", frame.Depth, frame.Type, frame.address, frame.Gas)
}

func (evm *EVM) popFrame() *Frame {
	frame := evm.frames[len(evm.frames)-1]
	evm.frames[len(evm.frames)-1] = nil
	evm.frames = evm.frames[:len(evm.frames)-1]
	return frame
}

// run drives the frame stack from root until root halts. Each iteration
// steps the top frame until it halts or suspends on a nested message.
func (evm *EVM) run(root *Frame) frameResult {
	base := len(evm.frames)
	evm.pushFrame(root)
	for {
		frame := evm.frames[len(evm.frames)-1]
		err := evm.interpret(frame)
		if err == errSuspend {
			continue
		}
		evm.finish(frame, err)
		evm.popFrame()

		res := frameResult{
			output:  frame.Output,
			gasLeft: frame.Gas,
			err:     frame.Err,
			address: frame.address,
			status:  frame.Status,
		}
		frame.release()
		if len(evm.frames) == base {
			return res
		}
		evm.resume(evm.frames[len(evm.frames)-1], res)
	}
}

// finish settles a halted frame: creations deploy their code, failures and
// reverts roll back the frame's state changes and failures burn the gas.
func (evm *EVM) finish(frame *Frame, err error) {
	if err == errStopToken {
		err = nil
	}
	if err == nil && frame.Type.IsCreate() {
		err = evm.deploy(frame)
	}
	switch {
	case err == nil:
		if frame.Status == StatusRunning {
			frame.Status = StatusStop
		}
	case errors.Is(err, ErrExecutionReverted):
		frame.Status = StatusRevert
		evm.StateDB.RevertToSnapshot(frame.snapshot)
	default:
		frame.Status = StatusFailed
		frame.Output = nil
		frame.Gas = 0
		evm.StateDB.RevertToSnapshot(frame.snapshot)
	}
	frame.Err = err
	frameHaltCounter.WithLabelValues(frame.Status.String()).Inc()

	if evm.Config.Tracer != nil && frame.Depth > 0 {
		evm.Config.Tracer.CaptureExit(frame.Output, frame.initialGas-frame.Gas, err)
	}
	log.Debugf("exit frame depth=%d status=%s gasLeft=%d err=%v", frame.Depth, frame.Status, frame.Gas, err)
}

// deploy stores the output of init code as the code of the new contract.
func (evm *EVM) deploy(frame *Frame) error {
	ret := frame.Output
	// Check whether the max code size has been exceeded, assign err if the case.
	if evm.chainRules.IsEIP150 && len(ret) > config.MaxCodeSize {
		return ErrMaxCodeSizeExceeded
	}
	if evm.eofTable != nil && HasEOFMagic(ret) {
		if _, err := NewEOFCode(ret, evm.eofTable); err != nil {
			return err
		}
	} else if evm.chainRules.IsLondon && len(ret) >= 1 && ret[0] == 0xEF {
		// Reject code starting with 0xEF if EIP-3541 is enabled.
		return errors.Wrap(ErrInvalidCode, "code starts with 0xef")
	}
	// if the contract creation ran successfully and no errors were returned
	// calculate the gas required to store the code. If the code could not
	// be stored due to not enough gas set an error and let it be handled
	// by the error checking condition below.
	createDataGas := uint64(len(ret)) * evm.gas.CreateData
	if frame.UseGas(createDataGas) {
		evm.StateDB.SetCode(frame.address, ret)
		return nil
	}
	if evm.chainRules.IsHomestead {
		return ErrCodeStoreOutOfGas
	}
	// Frontier keeps the account without code.
	return nil
}

// resume folds the result of a nested message into the suspended frame:
// the success flag or new address, the return data and the unspent gas.
func (evm *EVM) resume(frame *Frame, res frameResult) {
	var v uint256.Int
	if frame.childType.IsCreate() {
		if res.err == nil {
			v.SetBytes(res.address.Bytes())
		}
		frame.Stack.push(&v)
		if errors.Is(res.err, ErrExecutionReverted) {
			frame.returnData = res.output
		} else {
			frame.returnData = nil
		}
	} else {
		if res.err == nil {
			v.SetOne()
		}
		frame.Stack.push(&v)
		if res.err == nil || errors.Is(res.err, ErrExecutionReverted) {
			frame.Memory.Set(frame.retOffset, frame.retSize, res.output)
		}
		frame.returnData = res.output
	}
	frame.Gas += res.gasLeft
}
