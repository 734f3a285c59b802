package evm

import (
	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
)

// relativeJump moves pc by the signed 16 bit offset encoded in the
// immediate, relative to the end of an instruction of width bytes.
func relativeJump(pc uint64, width uint64, offset uint16) uint64 {
	return uint64(int64(pc+width) + int64(int16(offset)))
}

func opRjump(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset := frame.Code.ReadU16(frame.section, *pc)
	*pc = relativeJump(*pc, 3, offset)
	return nil, nil
}

func opRjumpi(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	cond := frame.Stack.pop()
	if cond.IsZero() {
		*pc += 3
		return nil, nil
	}
	offset := frame.Code.ReadU16(frame.section, *pc)
	*pc = relativeJump(*pc, 3, offset)
	return nil, nil
}

// opRjumpv jumps through a table of relative offsets. An index beyond the
// table falls through to the next instruction.
func opRjumpv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		code  = frame.code()
		count = uint64(code[*pc+1])
		width = 2 + 2*count
		idx   = frame.Stack.pop()
	)
	if !idx.LtUint64(count) {
		*pc += width
		return nil, nil
	}
	offset := frame.Code.ReadU16(frame.section, *pc+1+2*idx.Uint64())
	*pc = relativeJump(*pc, width, offset)
	return nil, nil
}

func opCallf(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		idx    = int(frame.Code.ReadU16(frame.section, *pc))
		typ    = frame.Code.Type(idx)
		height = frame.Stack.Len()
	)
	if height < int(typ.Inputs) {
		return nil, ErrStackUnderflow
	}
	if uint64(height-int(typ.Inputs)+int(typ.MaxStackHeight)) > config.StackLimit {
		return nil, ErrStackOverflow
	}
	if uint64(frame.returnStack.Len()) >= config.ReturnStackLimit {
		return nil, ErrReturnStackExceeded
	}
	frame.returnStack.push(returnContext{
		section:     uint64(frame.section),
		pc:          *pc + 3,
		stackHeight: height - int(typ.Inputs),
	})
	frame.section = idx
	*pc = 0
	return nil, nil
}

// opRetf returns to the caller of the current function. Returning from the
// entry function halts the frame like STOP.
func opRetf(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	outputs := int(frame.Code.Type(frame.section).Outputs)
	rc, ok := frame.returnStack.pop()
	if !ok {
		return nil, errStopToken
	}
	if frame.Stack.Len() < rc.stackHeight+outputs {
		return nil, ErrStackUnderflow
	}
	frame.section = int(rc.section)
	*pc = rc.pc
	return nil, nil
}

// opDupN pushes a copy of the item at the depth given by the immediate.
func opDupN(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	n := int(frame.Code.ReadU16(frame.section, *pc))
	if n >= frame.Stack.Len() {
		return nil, ErrStackUnderflow
	}
	frame.Stack.push(frame.Stack.Back(n))
	return nil, nil
}

// opSwapN exchanges the top item with the item at the depth given by the
// immediate.
func opSwapN(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	n := int(frame.Code.ReadU16(frame.section, *pc))
	if n >= frame.Stack.Len() {
		return nil, ErrStackUnderflow
	}
	frame.Stack.Swap(n)
	return nil, nil
}

func opDataLoad(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.peek()
	offset, overflow := x.Uint64WithOverflow()
	if overflow {
		x.Clear()
		return nil, nil
	}
	x.SetBytes(frame.Code.GetData(offset, 32))
	return nil, nil
}

// opDataLoadN reads the word at the static offset given by the immediate.
// The word must lie within the declared data section.
func opDataLoadN(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset := uint64(frame.Code.ReadU16(frame.section, *pc))
	if offset+32 > uint64(frame.Code.DataSize()) {
		return nil, ErrInvalidCodeReference
	}
	frame.Stack.push(new(uint256.Int).SetBytes(frame.Code.GetData(offset, 32)))
	return nil, nil
}

func opDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(frame.Code.DataSize())))
	return nil, nil
}

func opDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.Stack.pop()
		dataOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		offset64 = maxUint64
	}
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), frame.Code.GetData(offset64, length.Uint64()))
	return nil, nil
}
