package evm

import (
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
)

// EVMLogger is used to collect execution traces from an EVM transaction
// execution. CaptureState is called for each step of the VM with the
// current VM state.
// Note that reference types are actual VM data structures; make copies
// if you need to retain them beyond the current call.
type EVMLogger interface {
	// Top call frame
	CaptureStart(evm *EVM, from, to common.Address, create bool, input []byte, gas uint64, value *uint256.Int)
	CaptureEnd(output []byte, gasUsed uint64, err error)
	// Nested frames
	CaptureEnter(typ CallType, from, to common.Address, input []byte, gas uint64, value *uint256.Int)
	CaptureExit(output []byte, gasUsed uint64, err error)
	// Opcode level
	CaptureState(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error)
	CaptureFault(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error)
}

// LogConfig are the configuration options for structured logger the EVM
type LogConfig struct {
	EnableMemory     bool // enable memory capture
	DisableStack     bool // disable stack capture
	DisableStorage   bool // disable storage capture
	EnableReturnData bool // enable return data capture
	Limit            int  // maximum length of output, but zero means unlimited
}

// StructLog is emitted to the EVM each cycle and lists information about the current internal state
// prior to the execution of the statement.
type StructLog struct {
	Pc            uint64
	Section       int
	Op            OpCode
	Gas           uint64
	GasCost       uint64
	Memory        []byte
	MemorySize    int
	Stack         []uint256.Int
	ReturnData    []byte
	Storage       map[common.Hash]common.Hash
	Depth         int
	RefundCounter uint64
	Err           error
}

// OpName formats the operand name in a human-readable format.
func (s *StructLog) OpName() string {
	return s.Op.String()
}

// ErrorString formats the log's error as a string.
func (s *StructLog) ErrorString() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return ""
}

// MarshalJSON encodes words and bytes as hex strings.
func (s StructLog) MarshalJSON() ([]byte, error) {
	type structLogJSON struct {
		Pc            uint64            `json:"pc"`
		Section       int               `json:"section,omitempty"`
		Op            string            `json:"op"`
		Gas           uint64            `json:"gas"`
		GasCost       uint64            `json:"gasCost"`
		Memory        string            `json:"memory,omitempty"`
		MemorySize    int               `json:"memSize"`
		Stack         []string          `json:"stack"`
		ReturnData    string            `json:"returnData,omitempty"`
		Storage       map[string]string `json:"storage,omitempty"`
		Depth         int               `json:"depth"`
		RefundCounter uint64            `json:"refund"`
		Err           string            `json:"error,omitempty"`
	}
	enc := structLogJSON{
		Pc:            s.Pc,
		Section:       s.Section,
		Op:            s.OpName(),
		Gas:           s.Gas,
		GasCost:       s.GasCost,
		MemorySize:    s.MemorySize,
		Stack:         make([]string, len(s.Stack)),
		Depth:         s.Depth,
		RefundCounter: s.RefundCounter,
		Err:           s.ErrorString(),
	}
	if len(s.Memory) > 0 {
		enc.Memory = "0x" + hex.EncodeToString(s.Memory)
	}
	if len(s.ReturnData) > 0 {
		enc.ReturnData = "0x" + hex.EncodeToString(s.ReturnData)
	}
	for i := range s.Stack {
		enc.Stack[i] = s.Stack[i].Hex()
	}
	if len(s.Storage) > 0 {
		enc.Storage = make(map[string]string, len(s.Storage))
		for k, v := range s.Storage {
			enc.Storage[k.Hex()] = v.Hex()
		}
	}
	return json.Marshal(enc)
}

// StructLogger is an EVM state logger and implements EVMLogger.
//
// StructLogger can capture state based on the given Log configuration and also keeps
// a track record of modified storage which is used in reporting snapshots of the
// contract their storage.
type StructLogger struct {
	cfg LogConfig
	env *EVM

	storage map[common.Address]map[common.Hash]common.Hash
	logs    []StructLog
	output  []byte
	err     error
	gasUsed uint64
}

// NewStructLogger returns a new logger
func NewStructLogger(cfg *LogConfig) *StructLogger {
	logger := &StructLogger{
		storage: make(map[common.Address]map[common.Hash]common.Hash),
	}
	if cfg != nil {
		logger.cfg = *cfg
	}
	return logger
}

// Reset clears the data held by the logger.
func (l *StructLogger) Reset() {
	l.storage = make(map[common.Address]map[common.Hash]common.Hash)
	l.output = make([]byte, 0)
	l.logs = l.logs[:0]
	l.err = nil
	l.gasUsed = 0
}

// CaptureStart implements the EVMLogger interface to initialize the tracing operation.
func (l *StructLogger) CaptureStart(env *EVM, from, to common.Address, create bool, input []byte, gas uint64, value *uint256.Int) {
	l.env = env
}

// CaptureState logs a new structured log message and pushes it out to the environment
//
// CaptureState also tracks SLOAD/SSTORE ops to track storage change.
func (l *StructLogger) CaptureState(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	// check if already accumulated the specified number of logs
	if l.cfg.Limit != 0 && l.cfg.Limit <= len(l.logs) {
		return
	}
	var (
		stack    = frame.Stack
		stackLen = stack.Len()
		address  = frame.Address()
	)
	// Copy a snapshot of the current memory state to a new buffer
	var mem []byte
	if l.cfg.EnableMemory {
		mem = common.CopyBytes(frame.Memory.Data())
	}
	// Copy a snapshot of the current stack state to a new buffer
	var stck []uint256.Int
	if !l.cfg.DisableStack {
		stck = append(stck, stack.Data()...)
	}
	// Copy a snapshot of the current storage to a new container
	var storage map[common.Hash]common.Hash
	if !l.cfg.DisableStorage && (op == SLOAD || op == SSTORE) {
		if l.storage[address] == nil {
			l.storage[address] = make(map[common.Hash]common.Hash)
		}
		// capture SLOAD opcodes and record the read entry in the local storage
		if op == SLOAD && stackLen >= 1 {
			var (
				key   = common.Hash(stack.Back(0).Bytes32())
				value = l.env.StateDB.GetState(address, key)
			)
			l.storage[address][key] = value
			storage = copyStorage(l.storage[address])
		} else if op == SSTORE && stackLen >= 2 {
			// capture SSTORE opcodes and record the written entry in the local storage.
			var (
				value = common.Hash(stack.Back(1).Bytes32())
				key   = common.Hash(stack.Back(0).Bytes32())
			)
			l.storage[address][key] = value
			storage = copyStorage(l.storage[address])
		}
	}
	var rdata []byte
	if l.cfg.EnableReturnData {
		rdata = common.CopyBytes(frame.returnData)
	}
	// create a new snapshot of the EVM.
	log := StructLog{pc, frame.section, op, gas, cost, mem, frame.Memory.Len(), stck, rdata, storage, depth, l.env.StateDB.GetRefund(), err}
	l.logs = append(l.logs, log)
}

// CaptureFault implements the EVMLogger interface to trace an execution fault
// while running an opcode.
func (l *StructLogger) CaptureFault(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	if n := len(l.logs); n > 0 && l.logs[n-1].Pc == pc && l.logs[n-1].Depth == depth {
		l.logs[n-1].Err = err
		return
	}
	l.logs = append(l.logs, StructLog{Pc: pc, Section: frame.section, Op: op, Gas: gas, GasCost: cost, Depth: depth, Err: err})
}

// CaptureEnd is called after the call finishes to finalize the tracing.
func (l *StructLogger) CaptureEnd(output []byte, gasUsed uint64, err error) {
	l.output = output
	l.err = err
	l.gasUsed = gasUsed
}

func (l *StructLogger) CaptureEnter(typ CallType, from, to common.Address, input []byte, gas uint64, value *uint256.Int) {
}

func (l *StructLogger) CaptureExit(output []byte, gasUsed uint64, err error) {}

// StructLogs returns the captured log entries.
func (l *StructLogger) StructLogs() []StructLog { return l.logs }

// Error returns the VM error captured by the trace.
func (l *StructLogger) Error() error { return l.err }

// Output returns the VM return value captured by the trace.
func (l *StructLogger) Output() []byte { return l.output }

// GasUsed returns the gas used by the traced execution.
func (l *StructLogger) GasUsed() uint64 { return l.gasUsed }

func copyStorage(storage map[common.Hash]common.Hash) map[common.Hash]common.Hash {
	cpy := make(map[common.Hash]common.Hash, len(storage))
	for key, value := range storage {
		cpy[key] = value
	}
	return cpy
}

// JSONLogger streams one JSON object per executed instruction to a writer.
type JSONLogger struct {
	encoder *json.Encoder
	cfg     *LogConfig
	env     *EVM
}

// NewJSONLogger creates a new EVM tracer that prints execution steps as JSON objects
// into the provided stream.
func NewJSONLogger(cfg *LogConfig, writer io.Writer) *JSONLogger {
	l := &JSONLogger{encoder: json.NewEncoder(writer), cfg: cfg}
	if l.cfg == nil {
		l.cfg = &LogConfig{}
	}
	return l
}

func (l *JSONLogger) CaptureStart(env *EVM, from, to common.Address, create bool, input []byte, gas uint64, value *uint256.Int) {
	l.env = env
}

func (l *JSONLogger) CaptureFault(pc uint64, op OpCode, gas uint64, cost uint64, frame *Frame, depth int, err error) {
	l.CaptureState(pc, op, gas, cost, frame, depth, err)
}

// CaptureState outputs a new JSON object for the executed step.
func (l *JSONLogger) CaptureState(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	log := StructLog{
		Pc:            pc,
		Section:       frame.section,
		Op:            op,
		Gas:           gas,
		GasCost:       cost,
		MemorySize:    frame.Memory.Len(),
		Depth:         depth,
		RefundCounter: l.env.StateDB.GetRefund(),
		Err:           err,
	}
	if l.cfg.EnableMemory {
		log.Memory = frame.Memory.Data()
	}
	if !l.cfg.DisableStack {
		log.Stack = frame.Stack.Data()
	}
	if l.cfg.EnableReturnData {
		log.ReturnData = frame.returnData
	}
	l.encoder.Encode(log)
}

// CaptureEnd is triggered at end of execution.
func (l *JSONLogger) CaptureEnd(output []byte, gasUsed uint64, err error) {
	type endLog struct {
		Output  string `json:"output"`
		GasUsed uint64 `json:"gasUsed"`
		Err     string `json:"error,omitempty"`
	}
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	l.encoder.Encode(endLog{"0x" + hex.EncodeToString(output), gasUsed, errMsg})
}

func (l *JSONLogger) CaptureEnter(typ CallType, from, to common.Address, input []byte, gas uint64, value *uint256.Int) {
}

func (l *JSONLogger) CaptureExit(output []byte, gasUsed uint64, err error) {}
