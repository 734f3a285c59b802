package evm

import (
	"testing"

	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStackLIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.Uint64(), 0, 64).Draw(t, "values")
		st := NewStack()
		defer returnStack(st)

		for _, v := range values {
			if err := st.Push(uint256.NewInt(v)); err != nil {
				t.Fatalf("push: %v", err)
			}
		}
		for i := len(values) - 1; i >= 0; i-- {
			v, err := st.Pop()
			if err != nil {
				t.Fatalf("pop: %v", err)
			}
			if v.Uint64() != values[i] {
				t.Fatalf("popped %d, want %d", v.Uint64(), values[i])
			}
		}
		if _, err := st.Pop(); err != ErrStackUnderflow {
			t.Fatalf("pop of empty stack: %v", err)
		}
	})
}

func TestStackOverflowLeavesStackUnchanged(t *testing.T) {
	st := NewStack()
	defer returnStack(st)
	for i := uint64(0); i < config.StackLimit; i++ {
		require.NoError(t, st.Push(uint256.NewInt(i)))
	}
	assert.ErrorIs(t, st.Push(uint256.NewInt(9999)), ErrStackOverflow)
	assert.Equal(t, int(config.StackLimit), st.Len())

	top, err := st.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, config.StackLimit-1, top.Uint64())
}

func TestStackUnderflowLeavesStackUnchanged(t *testing.T) {
	st := NewStack()
	defer returnStack(st)

	_, err := st.Pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.Equal(t, 0, st.Len())

	require.NoError(t, st.Push(uint256.NewInt(1)))
	_, err = st.Peek(1)
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.ErrorIs(t, st.Set(1, uint256.NewInt(5)), ErrStackUnderflow)
	assert.ErrorIs(t, st.Set(-1, uint256.NewInt(5)), ErrStackUnderflow)
	assert.Equal(t, 1, st.Len())
}

func TestStackSwapPermutation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 32).Draw(t, "n")
		depth := rapid.IntRange(0, n-1).Draw(t, "depth")
		st := NewStack()
		defer returnStack(st)
		for i := 0; i < n; i++ {
			st.push(uint256.NewInt(uint64(i)))
		}
		st.Swap(depth)

		// the top and the item at depth are exchanged, the rest stays
		for d := 0; d < n; d++ {
			want := uint64(n - 1 - d)
			switch d {
			case 0:
				want = uint64(n - 1 - depth)
			case depth:
				want = uint64(n - 1)
			}
			if got := st.Back(d).Uint64(); got != want {
				t.Fatalf("depth %d: have %d, want %d", d, got, want)
			}
		}
	})
}

func TestStackSetAndDup(t *testing.T) {
	st := NewStack()
	defer returnStack(st)
	st.push(uint256.NewInt(1))
	st.push(uint256.NewInt(2))

	require.NoError(t, st.Set(1, uint256.NewInt(7)))
	st.dup(2)
	assert.Equal(t, []uint256.Int{*uint256.NewInt(7), *uint256.NewInt(2), *uint256.NewInt(7)}, st.Data())
}

func TestReturnStack(t *testing.T) {
	var rs ReturnStack
	_, ok := rs.pop()
	assert.False(t, ok)

	rs.push(returnContext{section: 1, pc: 5, stackHeight: 2})
	rs.push(returnContext{section: 2, pc: 9})
	assert.Equal(t, 2, rs.Len())

	rc, ok := rs.pop()
	require.True(t, ok)
	assert.Equal(t, uint64(2), rc.section)
	rc, _ = rs.pop()
	assert.Equal(t, returnContext{section: 1, pc: 5, stackHeight: 2}, rc)
}
