package evm

import (
	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
)

// gasFunc computes the dynamic part of an operation's cost. It may read the
// stack but must not modify it.
type gasFunc func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error)

// toWordSize returns the ceiled word size required for memory expansion.
func toWordSize(size uint64) uint64 {
	if size > maxUint64-31 {
		return maxUint64/32 + 1
	}

	return (size + 31) / 32
}

const maxUint64 = 1<<64 - 1

// memoryGasCost calculates the quadratic gas for memory expansion. It does
// so only for the memory region that is expanded, not the total memory.
func memoryGasCost(gs *config.GasSchedule, mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		newTotalFee := gs.MemoryCost(newMemSizeWords)
		fee := newTotalFee - mem.lastGasCost
		mem.lastGasCost = newTotalFee

		return fee, nil
	}
	return 0, nil
}

// callGas returns the actual gas cost of the call.
//
// When the schedule caps forwarded gas the returned gas is
// gas - base * 63 / 64.
func callGas(capped bool, availableGas, base uint64, callCost *uint256.Int) (uint64, error) {
	if capped {
		availableGas = availableGas - base
		gas := availableGas - availableGas/64
		// If the bit length exceeds 64 bit we know that the newly calculated "gas" for EIP150
		// is smaller than the requested amount. Therefore we return the new gas instead
		// of returning an error.
		if !callCost.IsUint64() || gas < callCost.Uint64() {
			return gas, nil
		}
	}
	if !callCost.IsUint64() {
		return 0, ErrGasUintOverflow
	}

	return callCost.Uint64(), nil
}
