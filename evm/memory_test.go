package evm

import (
	"testing"

	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMemorySetAndGet(t *testing.T) {
	mem := NewMemory()
	mem.Resize(64)
	assert.Equal(t, 64, mem.Len())

	mem.Set(1, 3, []byte{1, 2, 3})
	mem.Set32(32, uint256.NewInt(0xff))
	assert.Equal(t, []byte{0, 1, 2, 3}, mem.GetCopy(0, 4))
	assert.Equal(t, byte(0xff), mem.Data()[63])
	assert.Nil(t, mem.GetCopy(0, 0))
	assert.Nil(t, mem.GetPtr(100, 4))

	// the copy does not alias the store
	cpy := mem.GetCopy(1, 1)
	cpy[0] = 9
	assert.Equal(t, byte(1), mem.Data()[1])

	// memory never shrinks
	mem.Resize(32)
	assert.Equal(t, 64, mem.Len())
	assert.Panics(t, func() { mem.Set(60, 8, make([]byte, 8)) })
}

func TestToWordSize(t *testing.T) {
	assert.Equal(t, uint64(0), toWordSize(0))
	assert.Equal(t, uint64(1), toWordSize(1))
	assert.Equal(t, uint64(1), toWordSize(32))
	assert.Equal(t, uint64(2), toWordSize(33))
	assert.Equal(t, uint64(maxUint64/32+1), toWordSize(maxUint64))
}

func TestMemoryGasCostOverflow(t *testing.T) {
	gs := config.NewGasSchedule(config.Rules{})
	_, err := memoryGasCost(&gs, NewMemory(), 0x1FFFFFFFE1)
	assert.ErrorIs(t, err, ErrGasUintOverflow)

	fee, err := memoryGasCost(&gs, NewMemory(), 0)
	require.NoError(t, err)
	assert.Zero(t, fee)
}

// The total charged for a growing memory equals the price of its final
// size, whatever the steps, and asking twice for a size costs nothing the
// second time.
func TestMemoryCostMonotonic(t *testing.T) {
	gs := config.NewGasSchedule(config.Rules{})
	rapid.Check(t, func(t *rapid.T) {
		sizes := rapid.SliceOfN(rapid.Uint64Range(1, 1<<20), 1, 16).Draw(t, "sizes")
		mem := NewMemory()

		var total, prev uint64
		for _, size := range sizes {
			fee, err := memoryGasCost(&gs, mem, size)
			if err != nil {
				t.Fatalf("size %d: %v", size, err)
			}
			words := toWordSize(size)
			if words*32 > uint64(mem.Len()) {
				mem.Resize(words * 32)
			}
			total += fee

			again, err := memoryGasCost(&gs, mem, size)
			if err != nil || again != 0 {
				t.Fatalf("repeated size %d charged %d (%v)", size, again, err)
			}
			if total < prev {
				t.Fatalf("total cost decreased from %d to %d", prev, total)
			}
			prev = total
		}
		if want := gs.MemoryCost(uint64(mem.Len()) / 32); total != want {
			t.Fatalf("total %d, want %d", total, want)
		}
	})
}
