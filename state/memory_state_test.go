package state

import (
	"encoding/json"
	"testing"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/evm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	slot  = common.HexToHash("0x01")
)

func TestAccounts(t *testing.T) {
	s := NewMemoryState()
	assert.False(t, s.Exist(alice))
	assert.True(t, s.GetBalance(alice).IsZero())
	assert.Equal(t, common.Hash{}, s.GetCodeHash(alice))

	s.SetBalance(alice, uint256.NewInt(5))
	assert.True(t, s.Exist(alice))
	assert.Equal(t, crypto.EmptyCodeHash, s.GetCodeHash(alice))

	// the returned balance is a copy
	s.GetBalance(alice).SetUint64(100)
	assert.Equal(t, uint64(5), s.GetBalance(alice).Uint64())

	s.SetCode(alice, []byte{0x60, 0x00})
	assert.Equal(t, crypto.Keccak256Hash([]byte{0x60, 0x00}), s.GetCodeHash(alice))

	s.SetState(alice, slot, common.HexToHash("0x2a"))
	assert.Equal(t, common.HexToHash("0x2a"), s.GetState(alice, slot))
	s.SetState(alice, slot, common.Hash{})
	assert.Equal(t, common.Hash{}, s.GetState(alice, slot))

	s.DeleteAccount(alice)
	assert.False(t, s.Exist(alice))
}

func TestCopyIsIndependent(t *testing.T) {
	s := NewMemoryState()
	s.SetBalance(alice, uint256.NewInt(1))
	s.SetState(alice, slot, common.HexToHash("0x01"))

	cpy := s.Copy()
	cpy.SetBalance(alice, uint256.NewInt(2))
	cpy.SetState(alice, slot, common.HexToHash("0x02"))

	assert.Equal(t, uint64(1), s.GetBalance(alice).Uint64())
	assert.Equal(t, common.HexToHash("0x01"), s.GetState(alice, slot))
	assert.Equal(t, []common.Address{alice}, cpy.Addresses())
}

func TestCommitOverlay(t *testing.T) {
	s := NewMemoryState()
	s.SetBalance(alice, uint256.NewInt(10))

	db := evm.NewOverlay(s)
	db.SubBalance(alice, uint256.NewInt(4))
	db.AddBalance(bob, uint256.NewInt(4))
	db.SetState(bob, slot, common.HexToHash("0x07"))
	db.AddLog(&evm.Log{Address: bob, Data: []byte{1}})

	// nothing reaches the world state before commit
	assert.False(t, s.Exist(bob))

	s.Commit(db.Changes())
	assert.Equal(t, uint64(6), s.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(4), s.GetBalance(bob).Uint64())
	assert.Equal(t, common.HexToHash("0x07"), s.GetState(bob, slot))
	require.Len(t, s.Logs(), 1)
	assert.Equal(t, bob, s.Logs()[0].Address)

	s.Commit(nil)
	assert.Len(t, s.Logs(), 1)
}

func TestLoadAndDump(t *testing.T) {
	s := NewMemoryState()
	err := s.Load(map[string]config.AccountFile{
		alice.Hex(): {
			Balance: "0x10",
			Nonce:   3,
			Code:    "0x6000",
			Storage: map[string]string{"0x01": "0x2a"},
		},
		bob.Hex(): {Balance: "1000"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(16), s.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(3), s.GetNonce(alice))
	assert.Equal(t, []byte{0x60, 0x00}, s.GetCode(alice))
	assert.Equal(t, common.HexToHash("0x2a"), s.GetState(alice, slot))
	assert.Equal(t, uint64(1000), s.GetBalance(bob).Uint64())

	data, err := s.Dump()
	require.NoError(t, err)
	var dump map[string]DumpAccount
	require.NoError(t, json.Unmarshal(data, &dump))
	assert.Equal(t, "16", dump[alice.Hex()].Balance)
	assert.Equal(t, "0x6000", dump[alice.Hex()].Code)
	assert.Equal(t, common.HexToHash("0x2a").Hex(), dump[alice.Hex()].Storage[slot.Hex()])
	assert.Empty(t, dump[bob.Hex()].Code)
}

func TestLoadRejectsBadInput(t *testing.T) {
	s := NewMemoryState()
	assert.Error(t, s.Load(map[string]config.AccountFile{"nope": {}}))
	assert.Error(t, s.Load(map[string]config.AccountFile{alice.Hex(): {Balance: "-1"}}))
	assert.Error(t, s.Load(map[string]config.AccountFile{alice.Hex(): {Balance: "0x10000000000000000000000000000000000000000000000000000000000000000"}}))
}
