package evm

import (
	"math"
	"math/big"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

func opAdd(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	base, exponent := frame.Stack.pop(), frame.Stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	back, num := frame.Stack.pop(), frame.Stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	th, val := frame.Stack.pop(), frame.Stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y, z := frame.Stack.pop(), frame.Stack.pop(), frame.Stack.peek()
	if z.IsZero() {
		z.Clear()
	} else {
		z.AddMod(&x, &y, z)
	}
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y, z := frame.Stack.pop(), frame.Stack.pop(), frame.Stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := frame.Stack.pop(), frame.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSHR implements Logical Shift Right
// The SHR instruction (logical shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with zero fill.
func opSHR(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := frame.Stack.pop(), frame.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSAR implements Arithmetic Shift Right
// The SAR instruction (arithmetic shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with sign extension.
func opSAR(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	shift, value := frame.Stack.pop(), frame.Stack.peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			// Max negative shift: all bits set
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.Stack.pop(), frame.Stack.peek()
	data := frame.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))

	size.SetBytes(crypto.Keccak256(data))
	return nil, nil
}

func opAddress(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetBytes(frame.Address().Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.Stack.peek()
	address := common.Address(slot.Bytes20())
	slot.Set(evm.StateDB.GetBalance(address))
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetBytes(evm.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetBytes(frame.Caller().Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).Set(frame.Value))
	return nil, nil
}

func opCallDataLoad(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := common.GetData(frame.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(len(frame.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.Stack.pop()
		dataOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}
	// These values are checked for overflow during gas cost calculation
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	frame.Memory.Set(memOffset64, length64, common.GetData(frame.Input, dataOffset64, length64))

	return nil, nil
}

func opReturnDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(len(frame.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.Stack.pop()
		dataOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)

	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(frame.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), frame.returnData[offset64:end64])
	return nil, nil
}

func opExtCodeSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.Stack.peek()
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(slot.Bytes20())))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	l := new(uint256.Int)
	l.SetUint64(uint64(len(frame.Code.Bytes())))
	frame.Stack.push(l)
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.Stack.pop()
		codeOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := common.GetData(frame.Code.Bytes(), uint64CodeOffset, length.Uint64())
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)

	return nil, nil
}

func opExtCodeCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		stack      = frame.Stack
		a          = stack.pop()
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	addr := common.Address(a.Bytes20())
	codeCopy := common.GetData(evm.StateDB.GetCode(addr), uint64CodeOffset, length.Uint64())
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)

	return nil, nil
}

// opExtCodeHash returns the code hash of a specified account.
// There are several cases when the function is called, while we can relay everything
// to `state.GetCodeHash` function to ensure the correctness.
//
//  1. Caller tries to get the code hash of a normal contract account, state
//     should return the relative code hash and set it as the result.
//
//  2. Caller tries to get the code hash of a non-existent account, state should
//     return common.Hash{} and zero will be set as the result.
//
//  3. Caller tries to get the code hash for an account without contract code, state
//     should return emptyCodeHash(0xc5d246...) as the result.
//
//  4. Caller tries to get the code hash of a precompiled account, the result should be
//     zero or emptyCodeHash.
//
//  5. Caller tries to get the code hash for an account which is marked as self-destructed
//     in the current transaction, the code hash of this account should be returned.
func opExtCodeHash(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.Stack.peek()
	address := common.Address(slot.Bytes20())
	if evm.StateDB.Empty(address) {
		slot.Clear()
	} else {
		slot.SetBytes(evm.StateDB.GetCodeHash(address).Bytes())
	}
	return nil, nil
}

func opGasprice(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(bigToWord(evm.GasPrice))
	return nil, nil
}

func opBlockhash(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	num := frame.Stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	var upper, lower uint64
	upper = evm.Context.BlockNumber.Uint64()
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper && evm.Context.GetHash != nil {
		num.SetBytes(evm.Context.GetHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetBytes(evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(bigToWord(evm.Context.BlockNumber))
	return nil, nil
}

// opDifficulty pushes the block difficulty, or the beacon randomness once
// the chain has merged.
func opDifficulty(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if evm.Context.Random != nil {
		frame.Stack.push(new(uint256.Int).SetBytes(evm.Context.Random.Bytes()))
		return nil, nil
	}
	frame.Stack.push(bigToWord(evm.Context.Difficulty))
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(evm.Context.GasLimit))
	return nil, nil
}

func opPop(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	v := frame.Stack.peek()
	offset := int64(v.Uint64())
	v.SetBytes(frame.Memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	// pop value of the stack
	mStart, val := frame.Stack.pop(), frame.Stack.pop()
	frame.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	off, val := frame.Stack.pop(), frame.Stack.pop()
	frame.Memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	loc := frame.Stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := evm.StateDB.GetState(frame.Address(), hash)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	loc := frame.Stack.pop()
	val := frame.Stack.pop()
	evm.StateDB.SetState(frame.Address(), loc.Bytes32(), val.Bytes32())
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	pos := frame.Stack.pop()
	if !frame.Code.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	pos, cond := frame.Stack.pop(), frame.Stack.pop()
	if !cond.IsZero() {
		if !frame.Code.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(frame.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(frame.Gas))
	return nil, nil
}

func opCreate(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	var (
		value  = frame.Stack.pop()
		offset = frame.Stack.pop()
		size   = frame.Stack.pop()
		input  = frame.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
		gas    = frame.Gas
	)
	if evm.gas.CallGasForwarding {
		gas -= gas / 64
	}
	frame.UseGas(gas)

	return nil, evm.enterCreate(frame, CREATE, input, gas, &value, nil)
}

func opCreate2(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	var (
		endowment = frame.Stack.pop()
		offset    = frame.Stack.pop()
		size      = frame.Stack.pop()
		salt      = frame.Stack.pop()
		input     = frame.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
		gas       = frame.Gas
	)
	// Apply EIP150
	gas -= gas / 64
	frame.UseGas(gas)

	return nil, evm.enterCreate(frame, CREATE2, input, gas, &endowment, &salt)
}

func opCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.Stack
	// Pop gas. The actual gas in evm.callGasTemp.
	stack.pop()
	gas := evm.callGasTemp
	// Pop other call parameters.
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get the arguments from the memory.
	args := frame.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	if frame.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}
	if !value.IsZero() {
		gas += evm.gas.CallStipend
	}
	return nil, evm.enterCall(frame, CALL, toAddr, args, gas, &value, retOffset.Uint64(), retSize.Uint64())
}

func opCallCode(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.Stack
	// Pop gas. The actual gas is in evm.callGasTemp.
	stack.pop()
	gas := evm.callGasTemp
	// Pop other call parameters.
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get arguments from the memory.
	args := frame.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	if !value.IsZero() {
		gas += evm.gas.CallStipend
	}
	return nil, evm.enterCall(frame, CALLCODE, toAddr, args, gas, &value, retOffset.Uint64(), retSize.Uint64())
}

func opDelegateCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.Stack
	// Pop gas. The actual gas is in evm.callGasTemp.
	stack.pop()
	gas := evm.callGasTemp
	// Pop other call parameters.
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get arguments from the memory.
	args := frame.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	return nil, evm.enterCall(frame, DELEGATECALL, toAddr, args, gas, nil, retOffset.Uint64(), retSize.Uint64())
}

func opStaticCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.Stack
	// Pop gas. The actual gas is in evm.callGasTemp.
	stack.pop()
	gas := evm.callGasTemp
	// Pop other call parameters.
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get arguments from the memory.
	args := frame.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	return nil, evm.enterCall(frame, STATICCALL, toAddr, args, gas, new(uint256.Int), retOffset.Uint64(), retSize.Uint64())
}

func opReturn(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.Stack.pop(), frame.Stack.pop()
	ret := frame.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))

	frame.Status = StatusReturn
	return ret, errStopToken
}

func opRevert(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.Stack.pop(), frame.Stack.pop()
	ret := frame.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))

	return ret, ErrExecutionReverted
}

func opUndefined(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, errors.Wrapf(ErrInvalidOpCode, "opcode %#x", frame.code()[*pc])
}

func opInvalid(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, errors.Wrapf(ErrInvalidOpCode, "opcode %#x", byte(INVALID))
}

func opStop(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, errStopToken
}

func opSelfdestruct(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	beneficiary := frame.Stack.pop()
	balance := evm.StateDB.GetBalance(frame.Address())
	evm.StateDB.AddBalance(beneficiary.Bytes20(), balance)
	evm.StateDB.SelfDestruct(frame.Address())
	return nil, errStopToken
}

// following functions are used by the instruction jump table

// make log instruction function
func makeLog(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		if frame.readOnly {
			return nil, ErrWriteProtection
		}
		topics := make([]common.Hash, size)
		stack := frame.Stack
		mStart, mSize := stack.pop(), stack.pop()
		for i := 0; i < size; i++ {
			addr := stack.pop()
			topics[i] = addr.Bytes32()
		}

		d := frame.Memory.GetCopy(int64(mStart.Uint64()), int64(mSize.Uint64()))
		evm.StateDB.AddLog(&Log{
			Address: frame.Address(),
			Topics:  topics,
			Data:    d,
			// This is a non-consensus field, but assigned here because
			// the state doesn't know the current block number.
			BlockNumber: evm.Context.BlockNumber.Uint64(),
		})

		return nil, nil
	}
}

func opPush0(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int))
	return nil, nil
}

// make push instruction function. Immediates cut off by the end of the code
// are right padded with zeroes.
func makePush(size uint64) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		var (
			code    = frame.code()
			codeLen = uint64(len(code))
			start   = *pc + 1
			end     = start + size
			integer = new(uint256.Int)
		)
		if start > codeLen {
			start = codeLen
		}
		if end > codeLen {
			end = codeLen
		}
		frame.Stack.push(integer.SetBytes(common.RightPadBytes(code[start:end], int(size))))
		return nil, nil
	}
}

// make dup instruction function
func makeDup(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		frame.Stack.dup(size)
		return nil, nil
	}
}

// make swap instruction function
func makeSwap(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		frame.Stack.Swap(size)
		return nil, nil
	}
}

func opChainID(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(bigToWord(evm.chainRules.ChainID))
	return nil, nil
}

func opSelfBalance(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	balance := evm.StateDB.GetBalance(frame.Address())
	frame.Stack.push(balance)
	return nil, nil
}

// opBaseFee implements BASEFEE opcode
func opBaseFee(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(bigToWord(evm.Context.BaseFee))
	return nil, nil
}

// bigToWord converts a context value to a word; nil reads as zero.
func bigToWord(b *big.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	v, _ := uint256.FromBig(b)
	return v
}
