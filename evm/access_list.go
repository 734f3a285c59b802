package evm

import (
	"github.com/entropyio/evmcore/common"
)

// AccessList is the set of warm accounts and storage slots of one
// execution (EIP-2929).
type AccessList map[common.Address]map[common.Hash]struct{}

func NewAccessList() *AccessList {
	al := make(AccessList)

	return &al
}

// ContainsAddress returns true if the address is in the access list.
func (al *AccessList) ContainsAddress(address common.Address) bool {
	_, ok := (*al)[address]

	return ok
}

// Contains checks if a slot is present in an account.
// Returns two boolean flags: `accountPresent` and `slotPresent`.
func (al *AccessList) Contains(address common.Address, slot common.Hash) (bool, bool) {
	slots, addrPresent := (*al)[address]
	if !addrPresent {
		return false, false
	}

	_, slotPresent := slots[slot]

	return true, slotPresent
}

// Copy creates a deep copy of the access list.
func (al *AccessList) Copy() *AccessList {
	cp := make(AccessList, len(*al))

	for addr, slots := range *al {
		slotsCopy := make(map[common.Hash]struct{}, len(slots))
		for slot := range slots {
			slotsCopy[slot] = struct{}{}
		}

		cp[addr] = slotsCopy
	}

	return &cp
}

// AddAddress adds an address to the access list. It reports whether the
// address was newly added.
func (al *AccessList) AddAddress(address common.Address) bool {
	if _, exists := (*al)[address]; exists {
		return false
	}

	(*al)[address] = make(map[common.Hash]struct{})

	return true
}

// AddSlot adds the specified (addr, slot) combo to the access list.
// Return values are:
// - address added
// - slot added
func (al *AccessList) AddSlot(address common.Address, slot common.Hash) (addrChange bool, slotChange bool) {
	slotMap, addressExists := (*al)[address]
	if !addressExists {
		slotMap = make(map[common.Hash]struct{})
		(*al)[address] = slotMap
	}

	if _, slotPresent := slotMap[slot]; slotPresent {
		return !addressExists, false
	}

	slotMap[slot] = struct{}{}

	return !addressExists, true
}

// DeleteAddress removes an address and its slots from the access list.
func (al *AccessList) DeleteAddress(address common.Address) {
	delete(*al, address)
}

// DeleteSlot removes one slot of an address from the access list.
func (al *AccessList) DeleteSlot(address common.Address, slot common.Hash) {
	if slotMap, ok := (*al)[address]; ok {
		delete(slotMap, slot)
	}
}
