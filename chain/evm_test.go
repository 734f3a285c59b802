package chain

import (
	"testing"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/evm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

type world map[common.Address]*uint256.Int

func (w world) Exist(a common.Address) bool {
	_, ok := w[a]
	return ok
}

func (w world) GetBalance(a common.Address) *uint256.Int {
	if b, ok := w[a]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}
func (w world) GetNonce(common.Address) uint64 { return 0 }
func (w world) GetCode(common.Address) []byte { return nil }
func (w world) GetCodeHash(common.Address) common.Hash { return common.Hash{} }
func (w world) GetState(common.Address, common.Hash) common.Hash { return common.Hash{} }

func TestTransfer(t *testing.T) {
	var (
		alice = common.HexToAddress("0xa1")
		bob   = common.HexToAddress("0xb0")
		db    = evm.NewOverlay(world{alice: uint256.NewInt(100)})
	)
	assert.True(t, CanTransfer(db, alice, uint256.NewInt(100)))
	assert.False(t, CanTransfer(db, alice, uint256.NewInt(101)))
	assert.False(t, CanTransfer(db, bob, uint256.NewInt(1)))
	assert.True(t, CanTransfer(db, bob, new(uint256.Int)))

	Transfer(db, alice, bob, uint256.NewInt(40))
	assert.Equal(t, uint64(60), db.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(40), db.GetBalance(bob).Uint64())
}
