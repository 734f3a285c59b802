package evm

import (
	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
)

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*Overlay)

	// dirtied returns the address modified by this journal entry.
	dirtied() *common.Address
}

// journal contains the list of state modifications applied since the last
// snapshot. Snapshots store indices into entries.
type journal struct {
	entries   []journalEntry
	snapshots []int
}

func newJournal() *journal {
	return &journal{
		entries:   make([]journalEntry, 0, 64),
		snapshots: make([]int, 0, 8),
	}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// snapshot records the current journal length and returns its id.
func (j *journal) snapshot() int {
	id := len(j.snapshots)
	j.snapshots = append(j.snapshots, len(j.entries))
	return id
}

// revertToSnapshot undoes, in reverse order, every change made after the
// snapshot id and forgets the snapshots taken after it.
func (j *journal) revertToSnapshot(s *Overlay, id int) bool {
	if id < 0 || id >= len(j.snapshots) {
		return false
	}
	idx := j.snapshots[id]
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:idx]
	j.snapshots = j.snapshots[:id]
	return true
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	// Changes to the account trie.
	createAccountChange struct {
		account *common.Address
		prev    *overlayAccount
	}
	selfDestructChange struct {
		account     *common.Address
		prev        bool // whether account had already self-destructed
		prevbalance *uint256.Int
	}

	// Changes to individual accounts.
	balanceChange struct {
		account *common.Address
		prev    *uint256.Int
	}
	nonceChange struct {
		account *common.Address
		prev    uint64
	}
	storageChange struct {
		account   *common.Address
		key       common.Hash
		prevalue  common.Hash
		prevDirty bool
	}
	codeChange struct {
		account  *common.Address
		prevcode []byte
		prevhash common.Hash
	}

	// Changes to other state values.
	refundChange struct {
		prev uint64
	}
	addLogChange struct{}

	// Changes to the access list
	accessListAddAccountChange struct {
		address *common.Address
	}
	accessListAddSlotChange struct {
		address *common.Address
		slot    *common.Hash
	}
)

func (ch createAccountChange) revert(s *Overlay) {
	if ch.prev == nil {
		delete(s.accounts, *ch.account)
	} else {
		s.accounts[*ch.account] = ch.prev
	}
}

func (ch createAccountChange) dirtied() *common.Address {
	return ch.account
}

func (ch selfDestructChange) revert(s *Overlay) {
	obj := s.accounts[*ch.account]
	if obj != nil {
		obj.selfDestructed = ch.prev
		obj.balance = ch.prevbalance
	}
}

func (ch selfDestructChange) dirtied() *common.Address {
	return ch.account
}

func (ch balanceChange) revert(s *Overlay) {
	s.accounts[*ch.account].balance = ch.prev
}

func (ch balanceChange) dirtied() *common.Address {
	return ch.account
}

func (ch nonceChange) revert(s *Overlay) {
	s.accounts[*ch.account].nonce = ch.prev
}

func (ch nonceChange) dirtied() *common.Address {
	return ch.account
}

func (ch codeChange) revert(s *Overlay) {
	obj := s.accounts[*ch.account]
	obj.code = ch.prevcode
	obj.codeHash = ch.prevhash
}

func (ch codeChange) dirtied() *common.Address {
	return ch.account
}

func (ch storageChange) revert(s *Overlay) {
	obj := s.accounts[*ch.account]
	if ch.prevDirty {
		obj.dirtyStorage[ch.key] = ch.prevalue
	} else {
		delete(obj.dirtyStorage, ch.key)
	}
}

func (ch storageChange) dirtied() *common.Address {
	return ch.account
}

func (ch refundChange) revert(s *Overlay) {
	s.refund = ch.prev
}

func (ch refundChange) dirtied() *common.Address {
	return nil
}

func (ch addLogChange) revert(s *Overlay) {
	s.logs = s.logs[:len(s.logs)-1]
}

func (ch addLogChange) dirtied() *common.Address {
	return nil
}

func (ch accessListAddAccountChange) revert(s *Overlay) {
	/*
		One important invariant here, is that whenever a (addr, slot) is added, if the
		addr is not already present, the add causes two journal entries:
		- one for the address,
		- one for the (address,slot)
		Therefore, when unrolling the change, we can always blindly delete the
		(addr) at this point, since no storage adds can remain when come upon
		a single (addr) change.
	*/
	s.accessList.DeleteAddress(*ch.address)
}

func (ch accessListAddAccountChange) dirtied() *common.Address {
	return nil
}

func (ch accessListAddSlotChange) revert(s *Overlay) {
	s.accessList.DeleteSlot(*ch.address, *ch.slot)
}

func (ch accessListAddSlotChange) dirtied() *common.Address {
	return nil
}
