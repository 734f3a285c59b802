package evm

import (
	"bytes"
	"sort"

	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
)

// StorageChange is the new value of one storage slot.
type StorageChange struct {
	Key   common.Hash `json:"key"`
	Value common.Hash `json:"value"`
}

// AccountChange is the net change of one account. Nil fields are
// unchanged.
type AccountChange struct {
	Address common.Address  `json:"address"`
	Balance *uint256.Int    `json:"balance,omitempty"`
	Nonce   *uint64         `json:"nonce,omitempty"`
	Code    []byte          `json:"code,omitempty"`
	Storage []StorageChange `json:"storage,omitempty"`

	// CodeChanged distinguishes deploying empty code from no change.
	CodeChanged bool `json:"codeChanged,omitempty"`
	// Created accounts start from empty storage.
	Created bool `json:"created,omitempty"`
	// Deleted accounts self-destructed; every other field is ignored.
	Deleted bool `json:"deleted,omitempty"`
}

// ChangeSet is the state-change intent of an execution: the accounts it
// modified, sorted by address, and the logs it emitted in order.
type ChangeSet struct {
	Accounts []AccountChange `json:"accounts"`
	Logs     []*Log          `json:"logs"`
}

func newChangeSet(s *Overlay) *ChangeSet {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	cs := &ChangeSet{Logs: append([]*Log(nil), s.logs...)}
	for _, addr := range addrs {
		if ch, ok := accountChange(s, s.accounts[addr]); ok {
			cs.Accounts = append(cs.Accounts, ch)
		}
	}
	return cs
}

// accountChange diffs an overlay account against the world state.
func accountChange(s *Overlay, obj *overlayAccount) (AccountChange, bool) {
	ch := AccountChange{Address: obj.address}
	if obj.selfDestructed {
		ch.Deleted = true
		return ch, obj.existed || obj.created
	}
	// Untouched accounts that never existed are not materialised.
	if !obj.existed && !obj.created && obj.empty() && len(obj.dirtyStorage) == 0 {
		return ch, false
	}
	ch.Created = obj.created

	var (
		balance  = new(uint256.Int)
		nonce    uint64
		codeHash common.Hash
	)
	if obj.existed {
		if b := s.world.GetBalance(obj.address); b != nil {
			balance.Set(b)
		}
		nonce = s.world.GetNonce(obj.address)
		codeHash = s.world.GetCodeHash(obj.address)
	}
	if obj.created || !obj.existed || !obj.balance.Eq(balance) {
		ch.Balance = new(uint256.Int).Set(obj.balance)
	}
	if obj.created || !obj.existed || obj.nonce != nonce {
		n := obj.nonce
		ch.Nonce = &n
	}
	codeChanged := len(obj.code) > 0
	if obj.existed && !obj.created {
		codeChanged = obj.codeHash != codeHash && !(len(obj.code) == 0 && codeHash == (common.Hash{}))
	}
	if codeChanged {
		ch.Code = common.CopyBytes(obj.code)
		ch.CodeChanged = true
	}

	keys := make([]common.Hash, 0, len(obj.dirtyStorage))
	for key, value := range obj.dirtyStorage {
		if value != s.GetCommittedState(obj.address, key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	for _, key := range keys {
		ch.Storage = append(ch.Storage, StorageChange{Key: key, Value: obj.dirtyStorage[key]})
	}

	changed := ch.Created || ch.Balance != nil || ch.Nonce != nil || ch.CodeChanged || len(ch.Storage) > 0
	return ch, changed
}

// Account returns the change of addr, or nil if it was not modified.
func (cs *ChangeSet) Account(addr common.Address) *AccountChange {
	for i := range cs.Accounts {
		if cs.Accounts[i].Address == addr {
			return &cs.Accounts[i]
		}
	}
	return nil
}

// Empty reports whether the change set carries no change at all.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Accounts) == 0 && len(cs.Logs) == 0
}

// Apply commits the change set to w.
func (cs *ChangeSet) Apply(w StateWriter) {
	for _, ch := range cs.Accounts {
		if ch.Deleted {
			w.DeleteAccount(ch.Address)
			continue
		}
		if ch.Created {
			w.DeleteAccount(ch.Address)
		}
		if ch.Balance != nil {
			w.SetBalance(ch.Address, ch.Balance)
		}
		if ch.Nonce != nil {
			w.SetNonce(ch.Address, *ch.Nonce)
		}
		if ch.CodeChanged {
			w.SetCode(ch.Address, ch.Code)
		}
		for _, st := range ch.Storage {
			w.SetState(ch.Address, st.Key, st.Value)
		}
	}
	for _, l := range cs.Logs {
		w.AddLog(l)
	}
}
