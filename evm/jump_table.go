package evm

import (
	"fmt"

	"github.com/entropyio/evmcore/config"
)

// executionFunc executes one instruction of the given frame. pc points at
// the instruction; functions of operations with jumps set position it
// themselves.
type executionFunc func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error)

type operation struct {
	// execute is the operation function
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	// minStack tells how many stack items are required
	minStack int
	// maxStack specifies the max length the stack can have for this operation
	// to not overflow the stack.
	maxStack int

	// memorySize returns the memory size required for the operation
	memorySize memorySizeFunc

	// immediate is the number of immediate bytes following the opcode.
	immediate int
	// jumps is set when the operation positions pc itself.
	jumps bool
	// undefined marks bytes that are not an instruction of the set.
	undefined bool
}

// JumpTable contains the EVM opcodes supported at a given fork. Every entry
// is non-nil.
type JumpTable [256]*operation

// validate panics on malformed tables. Tables are only built from the
// functions below, so a failure is a programming error.
func validate(jt JumpTable) JumpTable {
	for i, op := range jt {
		if op == nil {
			panic(fmt.Sprintf("op %#x is not set", i))
		}
		// The interpreter has an assumption that if the memorySize function is
		// set, then the dynamicGas function is also set. This is a somewhat
		// arbitrary assumption, and can be removed if we need to -- but it
		// allows us to avoid a condition check. As long as we have that assumption
		// in there, this little sanity check prevents us from merging in a
		// change which violates it.
		if op.memorySize != nil && op.dynamicGas == nil {
			panic(fmt.Sprintf("op %v has dynamic memory but not dynamic gas", OpCode(i).String()))
		}
	}
	return jt
}

// newInstructionSet returns the legacy instruction set in force under rules,
// priced by gs.
func newInstructionSet(rules config.Rules, gs *config.GasSchedule) JumpTable {
	switch {
	case rules.IsShanghai:
		return newShanghaiInstructionSet(gs)
	case rules.IsLondon:
		return newLondonInstructionSet(gs)
	case rules.IsHomestead:
		return newHomesteadInstructionSet(gs)
	default:
		return newFrontierInstructionSet(gs)
	}
}

// newEOFInstructionSet returns the instruction set of object format code:
// the Shanghai set without the instructions that observe code or gas, plus
// relative jumps, functions and data section access.
func newEOFInstructionSet(gs *config.GasSchedule) JumpTable {
	instructionSet := newShanghaiInstructionSet(gs)

	for _, op := range []OpCode{
		JUMP, JUMPI, PC, CALLCODE, SELFDESTRUCT,
		CODESIZE, CODECOPY, EXTCODESIZE, EXTCODECOPY, EXTCODEHASH, GAS,
	} {
		instructionSet[op] = undefinedOperation()
	}

	instructionSet[RJUMP] = &operation{
		execute:     opRjump,
		constantGas: gs.Base,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
		immediate:   2,
		jumps:       true,
	}
	instructionSet[RJUMPI] = &operation{
		execute:     opRjumpi,
		constantGas: gs.Rjumpi,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
		immediate:   2,
		jumps:       true,
	}
	instructionSet[RJUMPV] = &operation{
		execute:     opRjumpv,
		constantGas: gs.Rjumpv,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
		immediate:   3,
		jumps:       true,
	}
	instructionSet[CALLF] = &operation{
		execute:     opCallf,
		constantGas: gs.Callf,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
		immediate:   2,
		jumps:       true,
	}
	instructionSet[RETF] = &operation{
		execute:     opRetf,
		constantGas: gs.Retf,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
		jumps:       true,
	}
	instructionSet[DUPN] = &operation{
		execute:     opDupN,
		constantGas: gs.VeryLow,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
		immediate:   2,
	}
	instructionSet[SWAPN] = &operation{
		execute:     opSwapN,
		constantGas: gs.VeryLow,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
		immediate:   2,
	}
	instructionSet[DATALOAD] = &operation{
		execute:     opDataLoad,
		constantGas: gs.DataLoad,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	instructionSet[DATASIZE] = &operation{
		execute:     opDataSize,
		constantGas: gs.Base,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	instructionSet[DATACOPY] = &operation{
		execute:     opDataCopy,
		constantGas: gs.VeryLow,
		dynamicGas:  gasDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryDataCopy,
	}
	instructionSet[DATALOADN] = &operation{
		execute:     opDataLoadN,
		constantGas: gs.VeryLow,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
		immediate:   2,
	}
	return validate(instructionSet)
}

// newShanghaiInstructionSet returns the frontier, homestead, london and
// shanghai instructions.
func newShanghaiInstructionSet(gs *config.GasSchedule) JumpTable {
	instructionSet := newLondonInstructionSet(gs)
	instructionSet[PUSH0] = &operation{
		execute:     opPush0,
		constantGas: gs.Base,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	return validate(instructionSet)
}

// newLondonInstructionSet returns the frontier, homestead and the
// instructions added up to london: REVERT, return data, STATICCALL, shifts,
// EXTCODEHASH, CREATE2, CHAINID, SELFBALANCE and BASEFEE, with access list
// pricing.
func newLondonInstructionSet(gs *config.GasSchedule) JumpTable {
	instructionSet := newHomesteadInstructionSet(gs)
	instructionSet[STATICCALL] = &operation{
		execute:     opStaticCall,
		constantGas: gs.Call,
		dynamicGas:  gasStaticCall,
		minStack:    minStack(6, 1),
		maxStack:    maxStack(6, 1),
		memorySize:  memoryStaticCall,
	}
	instructionSet[RETURNDATASIZE] = &operation{
		execute:     opReturnDataSize,
		constantGas: gs.Base,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	instructionSet[RETURNDATACOPY] = &operation{
		execute:     opReturnDataCopy,
		constantGas: gs.VeryLow,
		dynamicGas:  gasReturnDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryReturnDataCopy,
	}
	instructionSet[REVERT] = &operation{
		execute:    opRevert,
		dynamicGas: gasRevert,
		minStack:   minStack(2, 0),
		maxStack:   maxStack(2, 0),
		memorySize: memoryRevert,
	}
	instructionSet[SHL] = &operation{
		execute:     opSHL,
		constantGas: gs.VeryLow,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	instructionSet[SHR] = &operation{
		execute:     opSHR,
		constantGas: gs.VeryLow,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	instructionSet[SAR] = &operation{
		execute:     opSAR,
		constantGas: gs.VeryLow,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	instructionSet[EXTCODEHASH] = &operation{
		execute:     opExtCodeHash,
		constantGas: gs.ExtcodeHash,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	instructionSet[CREATE2] = &operation{
		execute:     opCreate2,
		constantGas: gs.Create2,
		dynamicGas:  gasCreate2,
		minStack:    minStack(4, 1),
		maxStack:    maxStack(4, 1),
		memorySize:  memoryCreate2,
	}
	instructionSet[CHAINID] = &operation{
		execute:     opChainID,
		constantGas: gs.Base,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	instructionSet[SELFBALANCE] = &operation{
		execute:     opSelfBalance,
		constantGas: gs.Low,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	instructionSet[BASEFEE] = &operation{
		execute:     opBaseFee,
		constantGas: gs.Base,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	instructionSet[SSTORE].dynamicGas = gasSStoreNet
	enableAccessLists(&instructionSet)
	return validate(instructionSet)
}

// enableAccessLists switches account and slot reads to EIP-2929 pricing.
func enableAccessLists(jt *JumpTable) {
	jt[SLOAD].dynamicGas = gasSLoadEIP2929

	jt[EXTCODECOPY].dynamicGas = gasExtCodeCopyEIP2929

	jt[EXTCODESIZE].dynamicGas = gasEip2929AccountCheck
	jt[EXTCODEHASH].dynamicGas = gasEip2929AccountCheck
	jt[BALANCE].dynamicGas = gasEip2929AccountCheck

	jt[CALL].dynamicGas = gasCallEIP2929
	jt[CALLCODE].dynamicGas = gasCallCodeEIP2929
	jt[STATICCALL].dynamicGas = gasStaticCallEIP2929
	jt[DELEGATECALL].dynamicGas = gasDelegateCallEIP2929
}

// newHomesteadInstructionSet returns the frontier and homestead
// instructions that can be executed during the homestead phase.
func newHomesteadInstructionSet(gs *config.GasSchedule) JumpTable {
	instructionSet := newFrontierInstructionSet(gs)
	instructionSet[DELEGATECALL] = &operation{
		execute:     opDelegateCall,
		dynamicGas:  gasDelegateCall,
		constantGas: gs.Call,
		minStack:    minStack(6, 1),
		maxStack:    maxStack(6, 1),
		memorySize:  memoryDelegateCall,
	}
	return validate(instructionSet)
}

func undefinedOperation() *operation {
	return &operation{
		execute:   opUndefined,
		minStack:  minStack(0, 0),
		maxStack:  maxStack(0, 0),
		undefined: true,
	}
}

// newFrontierInstructionSet returns the frontier instructions
// that can be executed during the frontier phase.
func newFrontierInstructionSet(gs *config.GasSchedule) JumpTable {
	tbl := JumpTable{
		STOP: {
			execute:     opStop,
			constantGas: gs.Zero,
			minStack:    minStack(0, 0),
			maxStack:    maxStack(0, 0),
		},
		ADD: {
			execute:     opAdd,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		MUL: {
			execute:     opMul,
			constantGas: gs.Low,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SUB: {
			execute:     opSub,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		DIV: {
			execute:     opDiv,
			constantGas: gs.Low,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SDIV: {
			execute:     opSdiv,
			constantGas: gs.Low,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		MOD: {
			execute:     opMod,
			constantGas: gs.Low,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SMOD: {
			execute:     opSmod,
			constantGas: gs.Low,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ADDMOD: {
			execute:     opAddmod,
			constantGas: gs.Mid,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		MULMOD: {
			execute:     opMulmod,
			constantGas: gs.Mid,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		EXP: {
			execute:    opExp,
			dynamicGas: gasExp,
			minStack:   minStack(2, 1),
			maxStack:   maxStack(2, 1),
		},
		SIGNEXTEND: {
			execute:     opSignExtend,
			constantGas: gs.Low,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		LT: {
			execute:     opLt,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		GT: {
			execute:     opGt,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SLT: {
			execute:     opSlt,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SGT: {
			execute:     opSgt,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		EQ: {
			execute:     opEq,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ISZERO: {
			execute:     opIszero,
			constantGas: gs.VeryLow,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		AND: {
			execute:     opAnd,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		XOR: {
			execute:     opXor,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		OR: {
			execute:     opOr,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		NOT: {
			execute:     opNot,
			constantGas: gs.VeryLow,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		BYTE: {
			execute:     opByte,
			constantGas: gs.VeryLow,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		KECCAK256: {
			execute:     opKeccak256,
			constantGas: gs.Keccak256,
			dynamicGas:  gasKeccak256,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
			memorySize:  memoryKeccak256,
		},
		ADDRESS: {
			execute:     opAddress,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		BALANCE: {
			execute:     opBalance,
			constantGas: gs.Balance,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		ORIGIN: {
			execute:     opOrigin,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLER: {
			execute:     opCaller,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLVALUE: {
			execute:     opCallValue,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLDATALOAD: {
			execute:     opCallDataLoad,
			constantGas: gs.VeryLow,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		CALLDATASIZE: {
			execute:     opCallDataSize,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLDATACOPY: {
			execute:     opCallDataCopy,
			constantGas: gs.VeryLow,
			dynamicGas:  gasCallDataCopy,
			minStack:    minStack(3, 0),
			maxStack:    maxStack(3, 0),
			memorySize:  memoryCallDataCopy,
		},
		CODESIZE: {
			execute:     opCodeSize,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CODECOPY: {
			execute:     opCodeCopy,
			constantGas: gs.VeryLow,
			dynamicGas:  gasCodeCopy,
			minStack:    minStack(3, 0),
			maxStack:    maxStack(3, 0),
			memorySize:  memoryCodeCopy,
		},
		GASPRICE: {
			execute:     opGasprice,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		EXTCODESIZE: {
			execute:     opExtCodeSize,
			constantGas: gs.ExtcodeSize,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		EXTCODECOPY: {
			execute:     opExtCodeCopy,
			constantGas: gs.ExtcodeCopy,
			dynamicGas:  gasExtCodeCopy,
			minStack:    minStack(4, 0),
			maxStack:    maxStack(4, 0),
			memorySize:  memoryExtCodeCopy,
		},
		BLOCKHASH: {
			execute:     opBlockhash,
			constantGas: gs.Blockhash,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		COINBASE: {
			execute:     opCoinbase,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		TIMESTAMP: {
			execute:     opTimestamp,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		NUMBER: {
			execute:     opNumber,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		DIFFICULTY: {
			execute:     opDifficulty,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		GASLIMIT: {
			execute:     opGasLimit,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		POP: {
			execute:     opPop,
			constantGas: gs.Base,
			minStack:    minStack(1, 0),
			maxStack:    maxStack(1, 0),
		},
		MLOAD: {
			execute:     opMload,
			constantGas: gs.VeryLow,
			dynamicGas:  gasMLoad,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
			memorySize:  memoryMLoad,
		},
		MSTORE: {
			execute:     opMstore,
			constantGas: gs.VeryLow,
			dynamicGas:  gasMStore,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
			memorySize:  memoryMStore,
		},
		MSTORE8: {
			execute:     opMstore8,
			constantGas: gs.VeryLow,
			dynamicGas:  gasMStore8,
			memorySize:  memoryMStore8,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
		},
		SLOAD: {
			execute:     opSload,
			constantGas: gs.Sload,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		SSTORE: {
			execute:    opSstore,
			dynamicGas: gasSStore,
			minStack:   minStack(2, 0),
			maxStack:   maxStack(2, 0),
		},
		JUMP: {
			execute:     opJump,
			constantGas: gs.Mid,
			minStack:    minStack(1, 0),
			maxStack:    maxStack(1, 0),
			jumps:       true,
		},
		JUMPI: {
			execute:     opJumpi,
			constantGas: gs.High,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
			jumps:       true,
		},
		PC: {
			execute:     opPc,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		MSIZE: {
			execute:     opMsize,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		GAS: {
			execute:     opGas,
			constantGas: gs.Base,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		JUMPDEST: {
			execute:     opJumpdest,
			constantGas: gs.JumpDest,
			minStack:    minStack(0, 0),
			maxStack:    maxStack(0, 0),
		},
		LOG0: {
			execute:    makeLog(0),
			dynamicGas: makeGasLog(0),
			minStack:   minStack(2, 0),
			maxStack:   maxStack(2, 0),
			memorySize: memoryLog,
		},
		LOG1: {
			execute:    makeLog(1),
			dynamicGas: makeGasLog(1),
			minStack:   minStack(3, 0),
			maxStack:   maxStack(3, 0),
			memorySize: memoryLog,
		},
		LOG2: {
			execute:    makeLog(2),
			dynamicGas: makeGasLog(2),
			minStack:   minStack(4, 0),
			maxStack:   maxStack(4, 0),
			memorySize: memoryLog,
		},
		LOG3: {
			execute:    makeLog(3),
			dynamicGas: makeGasLog(3),
			minStack:   minStack(5, 0),
			maxStack:   maxStack(5, 0),
			memorySize: memoryLog,
		},
		LOG4: {
			execute:    makeLog(4),
			dynamicGas: makeGasLog(4),
			minStack:   minStack(6, 0),
			maxStack:   maxStack(6, 0),
			memorySize: memoryLog,
		},
		CREATE: {
			execute:     opCreate,
			constantGas: gs.Create,
			dynamicGas:  gasCreate,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
			memorySize:  memoryCreate,
		},
		CALL: {
			execute:     opCall,
			constantGas: gs.Call,
			dynamicGas:  gasCall,
			minStack:    minStack(7, 1),
			maxStack:    maxStack(7, 1),
			memorySize:  memoryCall,
		},
		CALLCODE: {
			execute:     opCallCode,
			constantGas: gs.Call,
			dynamicGas:  gasCallCode,
			minStack:    minStack(7, 1),
			maxStack:    maxStack(7, 1),
			memorySize:  memoryCall,
		},
		RETURN: {
			execute:    opReturn,
			dynamicGas: gasReturn,
			minStack:   minStack(2, 0),
			maxStack:   maxStack(2, 0),
			memorySize: memoryReturn,
		},
		INVALID: {
			execute:  opInvalid,
			minStack: minStack(0, 0),
			maxStack: maxStack(0, 0),
		},
		SELFDESTRUCT: {
			execute:    opSelfdestruct,
			dynamicGas: gasSelfdestruct,
			minStack:   minStack(1, 0),
			maxStack:   maxStack(1, 0),
		},
	}

	for i := 0; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = &operation{
			execute:     makePush(uint64(i + 1)),
			constantGas: gs.VeryLow,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
			immediate:   i + 1,
		}
	}
	for i := 1; i <= 16; i++ {
		tbl[DUP1+i-1] = &operation{
			execute:     makeDup(i),
			constantGas: gs.VeryLow,
			minStack:    minDupStack(i),
			maxStack:    maxDupStack(i),
		}
		tbl[SWAP1+i-1] = &operation{
			execute:     makeSwap(i),
			constantGas: gs.VeryLow,
			minStack:    minSwapStack(i + 1),
			maxStack:    maxSwapStack(i + 1),
		}
	}

	// Fill all unassigned slots with opUndefined.
	for i, entry := range tbl {
		if entry == nil {
			tbl[i] = undefinedOperation()
		}
	}

	return validate(tbl)
}
