// Package state provides an in-memory world state for the virtual machine.
package state

import (
	"bytes"
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/common/crypto"
	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/evm"
	"github.com/entropyio/evmcore/logger"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var log = logger.NewLogger("[state]")

type account struct {
	balance  *uint256.Int
	nonce    uint64
	code     []byte
	codeHash common.Hash
	storage  map[common.Hash]common.Hash
}

func newAccount() *account {
	return &account{
		balance:  new(uint256.Int),
		codeHash: crypto.EmptyCodeHash,
		storage:  make(map[common.Hash]common.Hash),
	}
}

// MemoryState is a map backed world state. It serves as evm.WorldState for
// executions and as evm.StateWriter to commit their change sets. It is safe
// for concurrent use.
type MemoryState struct {
	mu       sync.RWMutex
	accounts map[common.Address]*account
	logs     []*evm.Log
}

// NewMemoryState returns an empty world state.
func NewMemoryState() *MemoryState {
	return &MemoryState{accounts: make(map[common.Address]*account)}
}

func (s *MemoryState) get(addr common.Address) *account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[addr]
}

// getOrNew must be called with the write lock held.
func (s *MemoryState) getOrNew(addr common.Address) *account {
	acc := s.accounts[addr]
	if acc == nil {
		acc = newAccount()
		s.accounts[addr] = acc
	}
	return acc
}

func (s *MemoryState) Exist(addr common.Address) bool {
	return s.get(addr) != nil
}

func (s *MemoryState) GetBalance(addr common.Address) *uint256.Int {
	if acc := s.get(addr); acc != nil {
		return new(uint256.Int).Set(acc.balance)
	}
	return new(uint256.Int)
}

func (s *MemoryState) GetNonce(addr common.Address) uint64 {
	if acc := s.get(addr); acc != nil {
		return acc.nonce
	}
	return 0
}

func (s *MemoryState) GetCode(addr common.Address) []byte {
	if acc := s.get(addr); acc != nil {
		return acc.code
	}
	return nil
}

// GetCodeHash returns the zero hash for accounts that do not exist.
func (s *MemoryState) GetCodeHash(addr common.Address) common.Hash {
	if acc := s.get(addr); acc != nil {
		return acc.codeHash
	}
	return common.Hash{}
}

func (s *MemoryState) GetState(addr common.Address, key common.Hash) common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc := s.accounts[addr]; acc != nil {
		return acc.storage[key]
	}
	return common.Hash{}
}

func (s *MemoryState) SetBalance(addr common.Address, balance *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrNew(addr).balance = new(uint256.Int).Set(balance)
}

func (s *MemoryState) SetNonce(addr common.Address, nonce uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrNew(addr).nonce = nonce
}

func (s *MemoryState) SetCode(addr common.Address, code []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.getOrNew(addr)
	acc.code = common.CopyBytes(code)
	acc.codeHash = crypto.Keccak256Hash(code)
}

// SetState writes a storage slot. Writing the zero value deletes it.
func (s *MemoryState) SetState(addr common.Address, key, value common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.getOrNew(addr)
	if value == (common.Hash{}) {
		delete(acc.storage, key)
		return
	}
	acc.storage[key] = value
}

func (s *MemoryState) DeleteAccount(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, addr)
}

func (s *MemoryState) AddLog(l *evm.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
}

// Logs returns the logs committed so far.
func (s *MemoryState) Logs() []*evm.Log {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*evm.Log(nil), s.logs...)
}

// Addresses returns the existing accounts in ascending order.
func (s *MemoryState) Addresses() []common.Address {
	s.mu.RLock()
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	s.mu.RUnlock()

	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

// Copy returns an independent copy of the state.
func (s *MemoryState) Copy() *MemoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cpy := NewMemoryState()
	for addr, acc := range s.accounts {
		c := &account{
			balance:  new(uint256.Int).Set(acc.balance),
			nonce:    acc.nonce,
			code:     acc.code,
			codeHash: acc.codeHash,
			storage:  make(map[common.Hash]common.Hash, len(acc.storage)),
		}
		for k, v := range acc.storage {
			c.storage[k] = v
		}
		cpy.accounts[addr] = c
	}
	cpy.logs = append(cpy.logs, s.logs...)
	return cpy
}

// Commit applies the change set of a successful execution.
func (s *MemoryState) Commit(cs *evm.ChangeSet) {
	if cs == nil {
		return
	}
	log.Debugf("commit %d accounts, %d logs", len(cs.Accounts), len(cs.Logs))
	cs.Apply(s)
}

// DumpAccount is the JSON form of one account.
type DumpAccount struct {
	Balance string            `json:"balance"`
	Nonce   uint64            `json:"nonce"`
	Code    string            `json:"code,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
}

// Dump returns the state as JSON keyed by address.
func (s *MemoryState) Dump() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dump := make(map[string]DumpAccount, len(s.accounts))
	for addr, acc := range s.accounts {
		d := DumpAccount{Balance: acc.balance.ToBig().String(), Nonce: acc.nonce}
		if len(acc.code) > 0 {
			d.Code = "0x" + common.Bytes2Hex(acc.code)
		}
		if len(acc.storage) > 0 {
			d.Storage = make(map[string]string, len(acc.storage))
			for k, v := range acc.storage {
				d.Storage[k.Hex()] = v.Hex()
			}
		}
		dump[addr.Hex()] = d
	}
	return json.MarshalIndent(dump, "", "  ")
}

// Load seeds the state from a configuration allocation.
func (s *MemoryState) Load(alloc map[string]config.AccountFile) error {
	for hexAddr, a := range alloc {
		if !common.IsHexAddress(hexAddr) {
			return errors.Errorf("invalid address %q", hexAddr)
		}
		addr := common.HexToAddress(hexAddr)
		balance := new(uint256.Int)
		if a.Balance != "" {
			var err error
			if balance, err = parseWord(a.Balance); err != nil {
				return errors.Wrapf(err, "balance of %s", hexAddr)
			}
		}
		s.SetBalance(addr, balance)
		s.SetNonce(addr, a.Nonce)
		if a.Code != "" {
			s.SetCode(addr, common.FromHex(a.Code))
		}
		for k, v := range a.Storage {
			s.SetState(addr, common.HexToHash(k), common.HexToHash(v))
		}
	}
	return nil
}

// parseWord accepts 0x-prefixed hex or decimal.
func parseWord(v string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(strings.TrimSpace(v), 0)
	if !ok || b.Sign() < 0 {
		return nil, errors.Errorf("invalid number %q", v)
	}
	w, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Errorf("number %q exceeds 256 bits", v)
	}
	return w, nil
}
