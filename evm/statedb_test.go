package evm

import (
	"testing"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	slot1 = common.HexToHash("0x01")
	slot2 = common.HexToHash("0x02")
	one   = common.HexToHash("0x01")
	two   = common.HexToHash("0x02")
)

func TestOverlayReadsThroughWorld(t *testing.T) {
	world := testWorld{}
	world.SetBalance(testOther, uint256.NewInt(10))
	world.SetNonce(testOther, 3)
	world.SetCode(testOther, []byte{0x00})
	world.SetState(testOther, slot1, one)

	s := NewOverlay(world)
	assert.True(t, s.Exist(testOther))
	assert.False(t, s.Exist(testOrigin))
	assert.True(t, s.Empty(testOrigin))
	assert.Equal(t, uint64(10), s.GetBalance(testOther).Uint64())
	assert.Equal(t, uint64(3), s.GetNonce(testOther))
	assert.Equal(t, 1, s.GetCodeSize(testOther))
	assert.Equal(t, crypto.Keccak256Hash([]byte{0x00}), s.GetCodeHash(testOther))
	assert.Equal(t, one, s.GetState(testOther, slot1))
	assert.Equal(t, common.Hash{}, s.GetCodeHash(testOrigin))

	// nothing was written
	assert.True(t, s.Changes().Empty())
}

func TestOverlaySnapshotRevert(t *testing.T) {
	world := testWorld{}
	world.SetBalance(testOther, uint256.NewInt(10))
	world.SetState(testOther, slot1, one)
	s := NewOverlay(world)

	s.SetState(testOther, slot1, two)
	id := s.Snapshot()
	s.SetState(testOther, slot1, common.Hash{})
	s.SetState(testOther, slot2, two)
	s.AddBalance(testOther, uint256.NewInt(5))
	s.SetNonce(testOther, 9)
	s.SetCode(testOther, []byte{0x01})
	s.AddRefund(100)
	s.AddLog(&Log{Address: testOther})
	s.AddAddressToAccessList(testOrigin)
	s.AddSlotToAccessList(testOrigin, slot1)

	s.RevertToSnapshot(id)
	assert.Equal(t, two, s.GetState(testOther, slot1))
	assert.Equal(t, common.Hash{}, s.GetState(testOther, slot2))
	assert.Equal(t, uint64(10), s.GetBalance(testOther).Uint64())
	assert.Zero(t, s.GetNonce(testOther))
	assert.Zero(t, s.GetCodeSize(testOther))
	assert.Zero(t, s.GetRefund())
	assert.Empty(t, s.Logs())
	assert.False(t, s.AddressInAccessList(testOrigin))
	addrOk, slotOk := s.SlotInAccessList(testOrigin, slot1)
	assert.False(t, addrOk)
	assert.False(t, slotOk)

	// committed state still reads the world
	assert.Equal(t, one, s.GetCommittedState(testOther, slot1))
}

func TestOverlayRevertCreatedAccount(t *testing.T) {
	s := NewOverlay(testWorld{})
	id := s.Snapshot()
	s.CreateAccount(testOther)
	s.AddBalance(testOther, uint256.NewInt(1))
	assert.True(t, s.Exist(testOther))

	s.RevertToSnapshot(id)
	assert.False(t, s.Exist(testOther))
	assert.True(t, s.Changes().Empty())
}

func TestOverlayRefund(t *testing.T) {
	s := NewOverlay(nil)
	s.AddRefund(10)
	s.SubRefund(4)
	assert.Equal(t, uint64(6), s.GetRefund())
	assert.Panics(t, func() { s.SubRefund(7) })
}

func TestChangeSet(t *testing.T) {
	world := testWorld{}
	world.SetBalance(testOrigin, uint256.NewInt(100))
	world.SetState(testOrigin, slot1, one)
	world.SetState(testOrigin, slot2, two)
	world.SetBalance(testOther, uint256.NewInt(1))

	s := NewOverlay(world)
	s.SubBalance(testOrigin, uint256.NewInt(30))
	s.SetState(testOrigin, slot1, two)
	s.SetState(testOrigin, slot2, one)
	s.SetState(testOrigin, slot2, two) // back to the committed value
	s.CreateAccount(testContract)
	s.SetCode(testContract, []byte{0x00})
	s.SetNonce(testContract, 1)
	s.SelfDestruct(testOther)
	s.AddLog(&Log{Address: testContract, Data: []byte{1}})

	// reading an unknown account does not materialise it
	_ = s.GetBalance(common.HexToAddress("0x1234"))

	cs := s.Changes()
	require.Len(t, cs.Accounts, 3)
	require.Len(t, cs.Logs, 1)

	// sorted by address
	for i := 1; i < len(cs.Accounts); i++ {
		assert.Negative(t, compareAddress(cs.Accounts[i-1].Address, cs.Accounts[i].Address))
	}

	origin := cs.Account(testOrigin)
	require.NotNil(t, origin)
	assert.Equal(t, uint64(70), origin.Balance.Uint64())
	assert.Nil(t, origin.Nonce)
	assert.False(t, origin.CodeChanged)
	assert.Equal(t, []StorageChange{{Key: slot1, Value: two}}, origin.Storage)

	created := cs.Account(testContract)
	require.NotNil(t, created)
	assert.True(t, created.Created)
	assert.True(t, created.CodeChanged)
	assert.Equal(t, []byte{0x00}, created.Code)
	require.NotNil(t, created.Nonce)
	assert.Equal(t, uint64(1), *created.Nonce)

	deleted := cs.Account(testOther)
	require.NotNil(t, deleted)
	assert.True(t, deleted.Deleted)

	cs.Apply(world)
	assert.False(t, world.Exist(testOther))
	assert.Equal(t, uint64(70), world.GetBalance(testOrigin).Uint64())
	assert.Equal(t, two, world.GetState(testOrigin, slot1))
	assert.Equal(t, []byte{0x00}, world.GetCode(testContract))
	assert.Equal(t, uint64(1), world.GetNonce(testContract))
}

func TestChangeSetCreatedDropsStorage(t *testing.T) {
	world := testWorld{}
	world.SetState(testContract, slot1, one)
	world.SetBalance(testContract, uint256.NewInt(5))

	s := NewOverlay(world)
	s.CreateAccount(testContract)
	assert.Equal(t, common.Hash{}, s.GetState(testContract, slot1))
	assert.Equal(t, uint64(5), s.GetBalance(testContract).Uint64())

	cs := s.Changes()
	ch := cs.Account(testContract)
	require.NotNil(t, ch)
	assert.True(t, ch.Created)

	cs.Apply(world)
	assert.Equal(t, common.Hash{}, world.GetState(testContract, slot1))
	assert.Equal(t, uint64(5), world.GetBalance(testContract).Uint64())
}

func TestAccessList(t *testing.T) {
	al := NewAccessList()
	assert.True(t, al.AddAddress(testOrigin))
	assert.False(t, al.AddAddress(testOrigin))

	addrChange, slotChange := al.AddSlot(testOther, slot1)
	assert.True(t, addrChange)
	assert.True(t, slotChange)
	addrChange, slotChange = al.AddSlot(testOther, slot1)
	assert.False(t, addrChange)
	assert.False(t, slotChange)

	cpy := al.Copy()
	al.DeleteSlot(testOther, slot1)
	_, ok := al.Contains(testOther, slot1)
	assert.False(t, ok)
	addrOk, slotOk := cpy.Contains(testOther, slot1)
	assert.True(t, addrOk)
	assert.True(t, slotOk)

	al.DeleteAddress(testOrigin)
	assert.False(t, al.ContainsAddress(testOrigin))
	assert.True(t, cpy.ContainsAddress(testOrigin))
}

func compareAddress(a, b common.Address) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
