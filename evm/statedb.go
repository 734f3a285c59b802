package evm

import (
	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/holiman/uint256"
)

// overlayAccount is the in-flight version of an account touched during an
// execution.
type overlayAccount struct {
	address  common.Address
	balance  *uint256.Int
	nonce    uint64
	code     []byte
	codeHash common.Hash

	originStorage map[common.Hash]common.Hash // committed values read so far
	dirtyStorage  map[common.Hash]common.Hash // values written in this execution

	existed        bool // present in the world state when loaded
	created        bool // created in this execution, committed storage is empty
	selfDestructed bool
}

func newOverlayAccount(addr common.Address) *overlayAccount {
	return &overlayAccount{
		address:       addr,
		balance:       new(uint256.Int),
		codeHash:      crypto.EmptyCodeHash,
		originStorage: make(map[common.Hash]common.Hash),
		dirtyStorage:  make(map[common.Hash]common.Hash),
	}
}

func (a *overlayAccount) empty() bool {
	return a.nonce == 0 && a.balance.IsZero() && (a.codeHash == crypto.EmptyCodeHash || a.codeHash == common.Hash{})
}

// Overlay is a journaled StateDB layered over a read-only WorldState. Reads
// fall through to the world state on first access; writes stay in the
// overlay until they are extracted with Changes.
type Overlay struct {
	world    WorldState
	accounts map[common.Address]*overlayAccount

	journal    *journal
	accessList *AccessList
	refund     uint64
	logs       []*Log
}

// NewOverlay returns an empty overlay over world.
func NewOverlay(world WorldState) *Overlay {
	return &Overlay{
		world:      world,
		accounts:   make(map[common.Address]*overlayAccount),
		journal:    newJournal(),
		accessList: NewAccessList(),
	}
}

// getAccount returns the overlay account, loading it from the world state
// on first access. It returns nil for accounts that do not exist.
func (s *Overlay) getAccount(addr common.Address) *overlayAccount {
	if obj, ok := s.accounts[addr]; ok {
		return obj
	}
	if s.world == nil || !s.world.Exist(addr) {
		return nil
	}
	obj := newOverlayAccount(addr)
	obj.existed = true
	if b := s.world.GetBalance(addr); b != nil {
		obj.balance.Set(b)
	}
	obj.nonce = s.world.GetNonce(addr)
	obj.code = s.world.GetCode(addr)
	if h := s.world.GetCodeHash(addr); h != (common.Hash{}) {
		obj.codeHash = h
	} else if len(obj.code) > 0 {
		obj.codeHash = crypto.Keccak256Hash(obj.code)
	}
	s.accounts[addr] = obj
	return obj
}

func (s *Overlay) getOrNewAccount(addr common.Address) *overlayAccount {
	obj := s.getAccount(addr)
	if obj == nil {
		obj = s.createAccount(addr)
	}
	return obj
}

func (s *Overlay) createAccount(addr common.Address) *overlayAccount {
	prev := s.getAccount(addr)
	obj := newOverlayAccount(addr)
	s.journal.append(createAccountChange{account: &obj.address, prev: prev})
	if prev != nil {
		obj.existed = prev.existed
	}
	s.accounts[addr] = obj
	return obj
}

// CreateAccount explicitly creates a state object. If a state object with
// the address already exists the balance is carried over to the new account
// and its storage is dropped.
func (s *Overlay) CreateAccount(addr common.Address) {
	prev := s.getAccount(addr)
	obj := s.createAccount(addr)
	obj.created = true
	if prev != nil {
		obj.balance.Set(prev.balance)
	}
}

func (s *Overlay) SubBalance(addr common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	obj := s.getOrNewAccount(addr)
	s.setBalance(obj, new(uint256.Int).Sub(obj.balance, amount))
}

func (s *Overlay) AddBalance(addr common.Address, amount *uint256.Int) {
	obj := s.getOrNewAccount(addr)
	if amount.IsZero() {
		return
	}
	s.setBalance(obj, new(uint256.Int).Add(obj.balance, amount))
}

func (s *Overlay) setBalance(obj *overlayAccount, amount *uint256.Int) {
	s.journal.append(balanceChange{account: &obj.address, prev: obj.balance})
	obj.balance = amount
}

// GetBalance retrieves the balance from the given address or 0 if object not found
func (s *Overlay) GetBalance(addr common.Address) *uint256.Int {
	if obj := s.getAccount(addr); obj != nil {
		return new(uint256.Int).Set(obj.balance)
	}
	return new(uint256.Int)
}

func (s *Overlay) GetNonce(addr common.Address) uint64 {
	if obj := s.getAccount(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

func (s *Overlay) SetNonce(addr common.Address, nonce uint64) {
	obj := s.getOrNewAccount(addr)
	s.journal.append(nonceChange{account: &obj.address, prev: obj.nonce})
	obj.nonce = nonce
}

func (s *Overlay) GetCode(addr common.Address) []byte {
	if obj := s.getAccount(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (s *Overlay) GetCodeSize(addr common.Address) int {
	return len(s.GetCode(addr))
}

func (s *Overlay) GetCodeHash(addr common.Address) common.Hash {
	if obj := s.getAccount(addr); obj != nil {
		return obj.codeHash
	}
	return common.Hash{}
}

func (s *Overlay) SetCode(addr common.Address, code []byte) {
	obj := s.getOrNewAccount(addr)
	s.journal.append(codeChange{account: &obj.address, prevcode: obj.code, prevhash: obj.codeHash})
	obj.code = code
	obj.codeHash = crypto.Keccak256Hash(code)
}

// AddRefund adds gas to the refund counter
func (s *Overlay) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

// SubRefund removes gas from the refund counter.
// This method will panic if the refund counter goes below zero
func (s *Overlay) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		panic("refund counter below zero")
	}
	s.refund -= gas
}

// GetRefund returns the current value of the refund counter.
func (s *Overlay) GetRefund() uint64 {
	return s.refund
}

// GetCommittedState retrieves the value of a slot as it was before this
// execution started.
func (s *Overlay) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	obj := s.getAccount(addr)
	if obj == nil || obj.created {
		return common.Hash{}
	}
	if v, ok := obj.originStorage[key]; ok {
		return v
	}
	v := s.world.GetState(addr, key)
	obj.originStorage[key] = v
	return v
}

// GetState retrieves the current value of a slot.
func (s *Overlay) GetState(addr common.Address, key common.Hash) common.Hash {
	if obj := s.getAccount(addr); obj != nil {
		if v, ok := obj.dirtyStorage[key]; ok {
			return v
		}
	}
	return s.GetCommittedState(addr, key)
}

func (s *Overlay) SetState(addr common.Address, key, value common.Hash) {
	obj := s.getOrNewAccount(addr)
	prev, dirty := obj.dirtyStorage[key]
	s.journal.append(storageChange{account: &obj.address, key: key, prevalue: prev, prevDirty: dirty})
	obj.dirtyStorage[key] = value
}

// SelfDestruct marks the given account as self-destructed and clears its
// balance. The account stays readable until the execution ends.
func (s *Overlay) SelfDestruct(addr common.Address) {
	obj := s.getAccount(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{
		account:     &obj.address,
		prev:        obj.selfDestructed,
		prevbalance: obj.balance,
	})
	obj.selfDestructed = true
	obj.balance = new(uint256.Int)
}

func (s *Overlay) HasSelfDestructed(addr common.Address) bool {
	if obj := s.getAccount(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// Exist reports whether the given account address exists in the state.
// Notably this also returns true for self-destructed accounts.
func (s *Overlay) Exist(addr common.Address) bool {
	return s.getAccount(addr) != nil
}

// Empty returns whether the state object is either non-existent
// or empty according to the EIP161 specification (balance = nonce = code = 0)
func (s *Overlay) Empty(addr common.Address) bool {
	obj := s.getAccount(addr)
	return obj == nil || obj.empty()
}

func (s *Overlay) AddressInAccessList(addr common.Address) bool {
	return s.accessList.ContainsAddress(addr)
}

func (s *Overlay) SlotInAccessList(addr common.Address, slot common.Hash) (addressPresent bool, slotPresent bool) {
	return s.accessList.Contains(addr, slot)
}

func (s *Overlay) AddAddressToAccessList(addr common.Address) {
	if s.accessList.AddAddress(addr) {
		s.journal.append(accessListAddAccountChange{&addr})
	}
}

func (s *Overlay) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	addrMod, slotMod := s.accessList.AddSlot(addr, slot)
	if addrMod {
		// In practice, this should not happen, since there is no way to enter the
		// scope of 'address' without having the 'address' become already added
		// to the access list (via call-variant, create, etc).
		// Better safe than sorry, though
		s.journal.append(accessListAddAccountChange{&addr})
	}
	if slotMod {
		s.journal.append(accessListAddSlotChange{
			address: &addr,
			slot:    &slot,
		})
	}
}

// Snapshot returns an identifier for the current revision of the state.
func (s *Overlay) Snapshot() int {
	return s.journal.snapshot()
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *Overlay) RevertToSnapshot(revid int) {
	if !s.journal.revertToSnapshot(s, revid) {
		log.Warningf("revert to unknown snapshot %d", revid)
	}
}

func (s *Overlay) AddLog(l *Log) {
	s.journal.append(addLogChange{})
	s.logs = append(s.logs, l)
}

// Logs returns the logs emitted so far.
func (s *Overlay) Logs() []*Log {
	return s.logs
}

// Changes extracts the net effect of the execution relative to the world
// state.
func (s *Overlay) Changes() *ChangeSet {
	return newChangeSet(s)
}
