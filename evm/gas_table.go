package evm

import (
	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/math"
	"github.com/entropyio/evmcore/config"
	"github.com/pkg/errors"
)

func memoryCopierGas(stackpos int) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		// Gas for expanding the memory
		gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		// And gas for copying data, charged per word at Copy
		words, overflow := frame.Stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}

		if words, overflow = math.SafeMul(toWordSize(words), evm.gas.Copy); overflow {
			return 0, ErrGasUintOverflow
		}

		if gas, overflow = math.SafeAdd(gas, words); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasDataCopy       = memoryCopierGas(2)
	gasExtCodeCopy    = memoryCopierGas(3)
	gasReturnDataCopy = memoryCopierGas(2)
)

// gasSStore meters SSTORE by the current value only.
func gasSStore(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	var (
		y, x    = frame.Stack.Back(1), frame.Stack.Back(0)
		current = evm.StateDB.GetState(frame.Address(), x.Bytes32())
	)
	// This checks for 3 scenarios and calculates gas accordingly:
	//
	// 1. From a zero-value address to a non-zero value         (NEW VALUE)
	// 2. From a non-zero value address to a zero-value address (DELETE)
	// 3. From a non-zero to a non-zero                         (CHANGE)
	switch {
	case current == (common.Hash{}) && y.Sign() != 0: // 0 => non 0
		return evm.gas.SstoreSet, nil
	case current != (common.Hash{}) && y.Sign() == 0: // non 0 => 0
		evm.StateDB.AddRefund(evm.gas.SstoreRefund)
		return evm.gas.SstoreReset, nil
	default: // non 0 => non 0 (or 0 => 0)
		return evm.gas.SstoreReset, nil
	}
}

// gasSStoreNet implements net gas metering of SSTORE with access lists
// (EIP-2200, EIP-2929) and the reduced clearing refund of EIP-3529.
//
//  1. If current value equals new value (this is a no-op), a warm read is charged.
//  2. If current value does not equal new value
//     2.1. If original value equals current value (this storage slot has not been changed by the current execution context)
//     2.1.1. If original value is 0, SstoreSet is charged.
//     2.1.2. Otherwise, SstoreReset is charged. If new value is 0, add SstoreRefund to refund counter.
//     2.2. If original value does not equal current value (this storage slot is dirty), a warm read is charged. Apply both of the following clauses.
//     2.2.1. If original value is not 0
//     2.2.1.1. If current value is 0 (also means that new value is not 0), remove SstoreRefund from refund counter.
//     2.2.1.2. If new value is 0 (also means that current value is not 0), add SstoreRefund to refund counter.
//     2.2.2. If original value equals new value (this storage slot is reset)
//     2.2.2.1. If original value is 0, refund SstoreSet minus a warm read.
//     2.2.2.2. Otherwise, refund SstoreReset minus a warm read.
func gasSStoreNet(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gs := &evm.gas
	// If we fail the minimum gas availability invariant, fail (0)
	if frame.Gas <= gs.SstoreSentry {
		return 0, errors.Wrap(ErrOutOfGas, "not enough gas for reentrancy sentry")
	}
	// Gas sentry honoured, do the actual gas calculation based on the stored value
	var (
		y, x    = frame.Stack.Back(1), frame.Stack.Back(0)
		slot    = common.Hash(x.Bytes32())
		addr    = frame.Address()
		current = evm.StateDB.GetState(addr, slot)
		cost    = uint64(0)
	)
	// Check slot presence in the access list
	if _, slotPresent := evm.StateDB.SlotInAccessList(addr, slot); !slotPresent {
		cost = gs.ColdSload
		// If the caller cannot afford the cost, this change will be rolled back
		evm.StateDB.AddSlotToAccessList(addr, slot)
	}
	value := common.Hash(y.Bytes32())

	if current == value { // noop (1)
		return cost + gs.WarmStorageRead, nil
	}
	original := evm.StateDB.GetCommittedState(addr, slot)
	if original == current {
		if original == (common.Hash{}) { // create slot (2.1.1)
			return cost + gs.SstoreSet, nil
		}
		if value == (common.Hash{}) { // delete slot (2.1.2b)
			evm.StateDB.AddRefund(gs.SstoreRefund)
		}
		return cost + gs.SstoreReset, nil // write existing slot (2.1.2)
	}
	if original != (common.Hash{}) {
		if current == (common.Hash{}) { // recreate slot (2.2.1.1)
			evm.StateDB.SubRefund(gs.SstoreRefund)
		} else if value == (common.Hash{}) { // delete slot (2.2.1.2)
			evm.StateDB.AddRefund(gs.SstoreRefund)
		}
	}
	if original == value {
		if original == (common.Hash{}) { // reset to original inexistent slot (2.2.2.1)
			evm.StateDB.AddRefund(gs.SstoreSet - gs.WarmStorageRead)
		} else { // reset to original existing slot (2.2.2.2)
			evm.StateDB.AddRefund(gs.SstoreReset - gs.WarmStorageRead)
		}
	}
	return cost + gs.WarmStorageRead, nil // dirty update (2.2)
}

// gasSLoadEIP2929 calculates dynamic gas for SLOAD according to EIP-2929
// For SLOAD, if the (address, storage_key) pair (where address is the address of the contract
// whose storage is being read) is not yet in accessed_storage_keys,
// charge the cold cost and add the pair to accessed_storage_keys.
// If the pair is already in accessed_storage_keys, charge the warm cost.
func gasSLoadEIP2929(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	loc := frame.Stack.peek()
	slot := common.Hash(loc.Bytes32())
	// Check slot presence in the access list
	if _, slotPresent := evm.StateDB.SlotInAccessList(frame.Address(), slot); !slotPresent {
		// If the caller cannot afford the cost, this change will be rolled back
		// If he does afford it, we can skip checking the same thing later on, during execution
		evm.StateDB.AddSlotToAccessList(frame.Address(), slot)
		return evm.gas.ColdSload, nil
	}
	return evm.gas.WarmStorageRead, nil
}

// gasExtCodeCopyEIP2929 implements extcodecopy according to EIP-2929
// EIP spec:
// > If the target is not in accessed_addresses,
// > charge COLD_ACCOUNT_ACCESS_COST gas, and add the address to accessed_addresses.
// > Otherwise, charge WARM_STORAGE_READ_COST gas.
func gasExtCodeCopyEIP2929(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	// memory expansion first (dynamic part of pre-2929 implementation)
	gas, err := gasExtCodeCopy(evm, frame, memorySize)
	if err != nil {
		return 0, err
	}
	addr := common.Address(frame.Stack.peek().Bytes20())
	// Check slot presence in the access list
	if !evm.StateDB.AddressInAccessList(addr) {
		evm.StateDB.AddAddressToAccessList(addr)
		var overflow bool
		// We charge (cold-warm), since 'warm' is already charged as constantGas
		if gas, overflow = math.SafeAdd(gas, evm.gas.ColdAccountAccess-evm.gas.WarmStorageRead); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
	return gas, nil
}

// gasEip2929AccountCheck checks whether the first stack item (as address) is present in the access list.
// If it is, this method returns '0', otherwise 'cold-warm' gas, presuming that the opcode using it
// is also using 'warm' as constant factor.
// This method is used by:
// - extcodehash,
// - extcodesize,
// - (ext) balance
func gasEip2929AccountCheck(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	addr := common.Address(frame.Stack.peek().Bytes20())
	// Check slot presence in the access list
	if !evm.StateDB.AddressInAccessList(addr) {
		// If the caller cannot afford the cost, this change will be rolled back
		evm.StateDB.AddAddressToAccessList(addr)
		// The warm storage read cost is already charged as constantGas
		return evm.gas.ColdAccountAccess - evm.gas.WarmStorageRead, nil
	}
	return 0, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		requestedSize, overflow := frame.Stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}

		gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
		if err != nil {
			return 0, err
		}

		if gas, overflow = math.SafeAdd(gas, evm.gas.Log); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, n*evm.gas.LogTopic); overflow {
			return 0, ErrGasUintOverflow
		}

		var memorySizeGas uint64
		if memorySizeGas, overflow = math.SafeMul(requestedSize, evm.gas.LogData); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func gasKeccak256(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := frame.Stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = math.SafeMul(toWordSize(wordGas), evm.gas.Keccak256Word); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// pureMemoryGascost is used by several operations, which aside from their
// static cost have a dynamic cost which is solely based on the memory
// expansion
func pureMemoryGascost(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return memoryGasCost(&evm.gas, frame.Memory, memorySize)
}

var (
	gasReturn  = pureMemoryGascost
	gasRevert  = pureMemoryGascost
	gasMLoad   = pureMemoryGascost
	gasMStore8 = pureMemoryGascost
	gasMStore  = pureMemoryGascost
)

// initCodeGas charges the per word init code price and enforces the init
// code size limit when the schedule prices init code.
func initCodeGas(gs *config.GasSchedule, gas, size uint64) (uint64, error) {
	if gs.InitCodeWord == 0 {
		return gas, nil
	}
	if size > config.MaxInitCodeSize {
		return 0, errors.Wrapf(ErrMaxInitCodeSizeExceeded, "size %d", size)
	}
	// Since size <= MaxInitCodeSize, this multiplication cannot overflow
	moreGas := gs.InitCodeWord * toWordSize(size)
	gas, overflow := math.SafeAdd(gas, moreGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := frame.Stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return initCodeGas(&evm.gas, gas, size)
}

func gasCreate2(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := frame.Stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	wordGas, overflow := math.SafeMul(toWordSize(size), evm.gas.Keccak256Word)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return initCodeGas(&evm.gas, gas, size)
}

func gasExp(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	expByteLen := uint64((frame.Stack.Back(1).BitLen() + 7) / 8)

	var (
		gas      = expByteLen * evm.gas.ExpByte // no overflow check required. Max is 256 * ExpByte gas
		overflow bool
	)
	if gas, overflow = math.SafeAdd(gas, evm.gas.Exp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	var (
		gas            uint64
		transfersValue = !frame.Stack.Back(2).IsZero()
		address        = common.Address(frame.Stack.Back(1).Bytes20())
	)
	if evm.gas.ValueTransferNewAccount {
		if transfersValue && evm.StateDB.Empty(address) {
			gas += evm.gas.CallNewAccount
		}
	} else if !evm.StateDB.Exist(address) {
		gas += evm.gas.CallNewAccount
	}
	if transfersValue {
		gas += evm.gas.CallValueTransfer
	}
	memoryGas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}

	evm.callGasTemp, err = callGas(evm.gas.CallGasForwarding, frame.Gas, gas, frame.Stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = math.SafeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCallCode(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	memoryGas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	var (
		gas      uint64
		overflow bool
	)
	if frame.Stack.Back(2).Sign() != 0 {
		gas += evm.gas.CallValueTransfer
	}
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}
	evm.callGasTemp, err = callGas(evm.gas.CallGasForwarding, frame.Gas, gas, frame.Stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = math.SafeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasDelegateCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	evm.callGasTemp, err = callGas(evm.gas.CallGasForwarding, frame.Gas, gas, frame.Stack.Back(0))
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasStaticCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(&evm.gas, frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	evm.callGasTemp, err = callGas(evm.gas.CallGasForwarding, frame.Gas, gas, frame.Stack.Back(0))
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// makeCallVariantGasCallEIP2929 wraps a call gas function with the cold
// account surcharge of EIP-2929.
func makeCallVariantGasCallEIP2929(oldCalculator gasFunc) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		addr := common.Address(frame.Stack.Back(1).Bytes20())
		// Check slot presence in the access list
		warmAccess := evm.StateDB.AddressInAccessList(addr)
		// The WarmStorageRead cost is already deducted as constant gas,
		// so we only need to charge the difference for a cold access.
		coldCost := evm.gas.ColdAccountAccess - evm.gas.WarmStorageRead
		if !warmAccess {
			evm.StateDB.AddAddressToAccessList(addr)
			// Charge the remaining difference here already, to correctly calculate available
			// gas for call
			if !frame.UseGas(coldCost) {
				return 0, ErrOutOfGas
			}
		}
		// Now call the old calculator, which takes into account
		// - create new account
		// - transfer value
		// - memory expansion
		// - 63/64ths rule
		gas, err := oldCalculator(evm, frame, memorySize)
		if warmAccess || err != nil {
			return gas, err
		}
		// In case of a cold access, we temporarily add the cold charge back, and also
		// add it to the returned gas. By adding it to the return, it will be charged
		// outside of this function, as part of the dynamic gas, and that will make it
		// also become correctly reported to tracers.
		frame.Gas += coldCost

		var overflow bool
		if gas, overflow = math.SafeAdd(gas, coldCost); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallEIP2929         = makeCallVariantGasCallEIP2929(gasCall)
	gasDelegateCallEIP2929 = makeCallVariantGasCallEIP2929(gasDelegateCall)
	gasStaticCallEIP2929   = makeCallVariantGasCallEIP2929(gasStaticCall)
	gasCallCodeEIP2929     = makeCallVariantGasCallEIP2929(gasCallCode)
)

func gasSelfdestruct(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	var (
		gas     = evm.gas.Selfdestruct
		address = common.Address(frame.Stack.Back(0).Bytes20())
	)
	if evm.gas.AccessLists && !evm.StateDB.AddressInAccessList(address) {
		// If the caller cannot afford the cost, this change will be rolled back
		evm.StateDB.AddAddressToAccessList(address)
		gas += evm.gas.ColdAccountAccess
	}
	if evm.gas.CreateBySelfdestruct > 0 {
		if evm.gas.ValueTransferNewAccount {
			// if empty and transfers value
			if evm.StateDB.Empty(address) && !evm.StateDB.GetBalance(frame.Address()).IsZero() {
				gas += evm.gas.CreateBySelfdestruct
			}
		} else if !evm.StateDB.Exist(address) {
			gas += evm.gas.CreateBySelfdestruct
		}
	}
	if evm.gas.SelfdestructRefund > 0 && !evm.StateDB.HasSelfDestructed(frame.Address()) {
		evm.StateDB.AddRefund(evm.gas.SelfdestructRefund)
	}
	return gas, nil
}
