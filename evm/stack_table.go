package evm

import (
	"github.com/entropyio/evmcore/config"
)

func minSwapStack(n int) int {
	return minStack(n, n)
}
func maxSwapStack(n int) int {
	return maxStack(n, n)
}

func minDupStack(n int) int {
	return minStack(n, n+1)
}
func maxDupStack(n int) int {
	return maxStack(n, n+1)
}

func maxStack(pop, push int) int {
	return int(config.StackLimit) + pop - push
}
func minStack(pops, _ int) int {
	return pops
}

// stackBounds checks the current stack length against an operation's
// bounds before the operation is charged or executed.
func stackBounds(st *Stack, op *operation) error {
	if sLen := st.Len(); sLen < op.minStack {
		return ErrStackUnderflow
	} else if sLen > op.maxStack {
		return ErrStackOverflow
	}
	return nil
}
