package evm

import (
	"fmt"

	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
)

// CallType is the kind of message that opened a frame.
type CallType int

const (
	CallTypeCall CallType = iota
	CallTypeCallCode
	CallTypeDelegateCall
	CallTypeStaticCall
	CallTypeCreate
	CallTypeCreate2
)

var callTypeNames = map[CallType]string{
	CallTypeCall:         "CALL",
	CallTypeCallCode:     "CALLCODE",
	CallTypeDelegateCall: "DELEGATECALL",
	CallTypeStaticCall:   "STATICCALL",
	CallTypeCreate:       "CREATE",
	CallTypeCreate2:      "CREATE2",
}

func (t CallType) String() string {
	if name, ok := callTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CallType(%d)", int(t))
}

// IsCreate reports whether t deploys a contract.
func (t CallType) IsCreate() bool {
	return t == CallTypeCreate || t == CallTypeCreate2
}

// callTypeOf maps a call or create instruction to its message kind.
func callTypeOf(op OpCode) CallType {
	switch op {
	case CALLCODE:
		return CallTypeCallCode
	case DELEGATECALL:
		return CallTypeDelegateCall
	case STATICCALL:
		return CallTypeStaticCall
	case CREATE:
		return CallTypeCreate
	case CREATE2:
		return CallTypeCreate2
	default:
		return CallTypeCall
	}
}

// Status is the state of a frame.
type Status int

const (
	StatusRunning Status = iota
	StatusStop
	StatusReturn
	StatusRevert
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStop:
		return "stop"
	case StatusReturn:
		return "return"
	case StatusRevert:
		return "revert"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Frame is one activation of code: its message, machine state and gas. The
// frames of an execution live on the EVM's frame stack; a frame refers to
// its caller by index only.
type Frame struct {
	Type   CallType
	Depth  int
	parent int

	caller   common.Address
	address  common.Address
	codeAddr common.Address

	Value *uint256.Int
	Input []byte
	Code  *Code

	Gas        uint64
	initialGas uint64
	Stack      *Stack
	Memory     *Memory

	table       *JumpTable
	section     int
	pc          uint64
	returnStack ReturnStack

	readOnly   bool
	returnData []byte // last return data of a nested call

	// pending nested call or create
	childType CallType
	retOffset uint64
	retSize   uint64

	snapshot int

	Status Status
	Output []byte
	Err    error
}

func newFrame(typ CallType, caller, address common.Address, value *uint256.Int, gas uint64) *Frame {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Frame{
		Type:       typ,
		parent:     -1,
		caller:     caller,
		address:    address,
		codeAddr:   address,
		Value:      value,
		Gas:        gas,
		initialGas: gas,
		Stack:      newstack(),
		Memory:     NewMemory(),
	}
}

// Address returns the account whose storage and balance the frame acts on.
func (f *Frame) Address() common.Address { return f.address }

// Caller returns the sender of the frame's message.
func (f *Frame) Caller() common.Address { return f.caller }

// CodeAddress returns the account the running code was loaded from.
func (f *Frame) CodeAddress() common.Address { return f.codeAddr }

// Parent returns the frame stack index of the calling frame, -1 for the
// top level frame.
func (f *Frame) Parent() int { return f.parent }

// PC returns the program counter within the current code section.
func (f *Frame) PC() uint64 { return f.pc }

// Section returns the index of the executing code section.
func (f *Frame) Section() int { return f.section }

// ReadOnly reports whether state modification is forbidden.
func (f *Frame) ReadOnly() bool { return f.readOnly }

// ReturnData returns the output of the last nested call.
func (f *Frame) ReturnData() []byte { return f.returnData }

// UseGas attempts the use gas and subtracts it and returns true on success
func (f *Frame) UseGas(gas uint64) (ok bool) {
	if f.Gas < gas {
		return false
	}
	f.Gas -= gas
	return true
}

func (f *Frame) code() []byte {
	return f.Code.Section(f.section)
}

// release hands the frame's stack back to the pool.
func (f *Frame) release() {
	if f.Stack != nil {
		returnStack(f.Stack)
		f.Stack = nil
	}
}
