package config

import (
	"fmt"
	"math/big"
)

var (
	// MainnetChainConfig is the chain parameters of the main network. The
	// object format is not scheduled there.
	MainnetChainConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big.NewInt(1_150_000),
		EIP150Block:    big.NewInt(2_463_000),
		LondonBlock:    big.NewInt(12_965_000),
		ShanghaiBlock:  big.NewInt(17_034_870),
	}

	// LegacyChainConfig enables every fork from genesis except the object
	// format.
	LegacyChainConfig = &ChainConfig{
		ChainID:        big.NewInt(1337),
		HomesteadBlock: big.NewInt(0),
		EIP150Block:    big.NewInt(0),
		LondonBlock:    big.NewInt(0),
		ShanghaiBlock:  big.NewInt(0),
	}

	// AllForksChainConfig enables every known fork, including the object
	// format, from genesis.
	AllForksChainConfig = &ChainConfig{
		ChainID:        big.NewInt(1337),
		HomesteadBlock: big.NewInt(0),
		EIP150Block:    big.NewInt(0),
		LondonBlock:    big.NewInt(0),
		ShanghaiBlock:  big.NewInt(0),
		EOFBlock:       big.NewInt(0),
	}

	// FrontierChainConfig enables no fork at all.
	FrontierChainConfig = &ChainConfig{
		ChainID: big.NewInt(1337),
	}

	TestChainConfig = AllForksChainConfig
)

// NetworkNames are user friendly names to use in the chain spec banner.
var NetworkNames = map[string]string{
	MainnetChainConfig.ChainID.String():  "mainNet",
	AllForksChainConfig.ChainID.String(): "devNet",
}

// ChainConfig is the core config which determines which instruction set and
// gas schedule the virtual machine runs with at a given block.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"` // chainId identifies the current chain and is used for replay protection

	HomesteadBlock *big.Int `json:"homesteadBlock,omitempty"` // Homestead switch block (nil = no fork, 0 = already homestead)
	EIP150Block    *big.Int `json:"eip150Block,omitempty"`    // EIP150 HF block (nil = no fork)
	LondonBlock    *big.Int `json:"londonBlock,omitempty"`    // London switch block (nil = no fork, 0 = already on london)
	ShanghaiBlock  *big.Int `json:"shanghaiBlock,omitempty"`  // Shanghai switch block (nil = no fork, 0 = already on shanghai)
	EOFBlock       *big.Int `json:"eofBlock,omitempty"`       // Object format switch block (nil = no fork)
}

// String implements the fmt.Stringer interface.
func (cc *ChainConfig) String() string {
	var banner string

	network := NetworkNames[cc.ChainID.String()]
	if network == "" {
		network = "unknown"
	}
	banner += fmt.Sprintf("Chain ID:  %v (%s)\n", cc.ChainID, network)
	banner += "\n"

	banner += "Hard forks:\n"
	banner += fmt.Sprintf(" - Homestead:                   %-8v\n", cc.HomesteadBlock)
	banner += fmt.Sprintf(" - Tangerine Whistle (EIP 150): %-8v\n", cc.EIP150Block)
	banner += fmt.Sprintf(" - London:                      %-8v\n", cc.LondonBlock)
	banner += fmt.Sprintf(" - Shanghai:                    %-8v\n", cc.ShanghaiBlock)
	banner += "\n"

	if cc.EOFBlock == nil {
		banner += "Object format not configured!\n"
	} else {
		banner += "Object format configured:\n"
		banner += fmt.Sprintf(" - EOF v1:                      %-8v\n", cc.EOFBlock)
	}
	return banner
}

// IsHomestead returns whether num is either equal to the homestead block or greater.
func (cc *ChainConfig) IsHomestead(num *big.Int) bool {
	return isForked(cc.HomesteadBlock, num)
}

// IsEIP150 returns whether num is either equal to the EIP150 fork block or greater.
func (cc *ChainConfig) IsEIP150(num *big.Int) bool {
	return isForked(cc.EIP150Block, num)
}

// IsLondon returns whether num is either equal to the London fork block or greater.
func (cc *ChainConfig) IsLondon(num *big.Int) bool {
	return isForked(cc.LondonBlock, num)
}

// IsShanghai returns whether num is either equal to the Shanghai fork block or greater.
func (cc *ChainConfig) IsShanghai(num *big.Int) bool {
	return isForked(cc.ShanghaiBlock, num)
}

// IsEOF returns whether object format containers are recognised at num.
func (cc *ChainConfig) IsEOF(num *big.Int) bool {
	return isForked(cc.EOFBlock, num)
}

// CheckCompatible checks whether scheduled fork transitions have been imported
// with a mismatching chain configuration.
func (cc *ChainConfig) CheckCompatible(newcfg *ChainConfig, height uint64) *CompatError {
	bhead := new(big.Int).SetUint64(height)

	// Iterate checkCompatible to find the lowest conflict.
	var lasterr *CompatError
	for {
		err := cc.checkCompatible(newcfg, bhead)
		if err == nil || (lasterr != nil && err.RewindTo == lasterr.RewindTo) {
			break
		}
		lasterr = err
		bhead.SetUint64(err.RewindTo)
	}
	return lasterr
}

// CheckConfigForkOrder checks that we don't "skip" any forks: the instruction
// sets are cumulative, so a later fork cannot be enabled without its
// predecessors.
func (cc *ChainConfig) CheckConfigForkOrder() error {
	type fork struct {
		name     string
		block    *big.Int
		optional bool // if true, the fork may be nil and next fork is still allowed
	}
	var lastFork fork
	for _, cur := range []fork{
		{name: "homesteadBlock", block: cc.HomesteadBlock},
		{name: "eip150Block", block: cc.EIP150Block},
		{name: "londonBlock", block: cc.LondonBlock},
		{name: "shanghaiBlock", block: cc.ShanghaiBlock},
		{name: "eofBlock", block: cc.EOFBlock, optional: true},
	} {
		if lastFork.name != "" {
			// Next one must be higher number
			if lastFork.block == nil && cur.block != nil {
				return fmt.Errorf("unsupported fork ordering: %v not enabled, but %v enabled at %v",
					lastFork.name, cur.name, cur.block)
			}
			if lastFork.block != nil && cur.block != nil {
				if lastFork.block.Cmp(cur.block) > 0 {
					return fmt.Errorf("unsupported fork ordering: %v enabled at %v, but %v enabled at %v",
						lastFork.name, lastFork.block, cur.name, cur.block)
				}
			}
		}
		// If it was optional and not set, then ignore it
		if !cur.optional || cur.block != nil {
			lastFork = cur
		}
	}
	return nil
}

func (cc *ChainConfig) checkCompatible(newcfg *ChainConfig, head *big.Int) *CompatError {
	if isForkIncompatible(cc.HomesteadBlock, newcfg.HomesteadBlock, head) {
		return newCompatError("Homestead fork block", cc.HomesteadBlock, newcfg.HomesteadBlock)
	}
	if isForkIncompatible(cc.EIP150Block, newcfg.EIP150Block, head) {
		return newCompatError("EIP150 fork block", cc.EIP150Block, newcfg.EIP150Block)
	}
	if isForkIncompatible(cc.LondonBlock, newcfg.LondonBlock, head) {
		return newCompatError("London fork block", cc.LondonBlock, newcfg.LondonBlock)
	}
	if isForkIncompatible(cc.ShanghaiBlock, newcfg.ShanghaiBlock, head) {
		return newCompatError("Shanghai fork block", cc.ShanghaiBlock, newcfg.ShanghaiBlock)
	}
	if isForkIncompatible(cc.EOFBlock, newcfg.EOFBlock, head) {
		return newCompatError("EOF fork block", cc.EOFBlock, newcfg.EOFBlock)
	}
	return nil
}

// isForkIncompatible returns true if a fork scheduled at s1 cannot be rescheduled to
// block s2 because head is already past the fork.
func isForkIncompatible(s1, s2, head *big.Int) bool {
	return (isForked(s1, head) || isForked(s2, head)) && !configNumEqual(s1, s2)
}

// isForked returns whether a fork scheduled at block s is active at the given head block.
func isForked(s, head *big.Int) bool {
	if s == nil || head == nil {
		return false
	}
	return s.Cmp(head) <= 0
}

func configNumEqual(x, y *big.Int) bool {
	if x == nil {
		return y == nil
	}
	if y == nil {
		return false
	}
	return x.Cmp(y) == 0
}

// CompatError is raised if a stored execution history was produced with a
// ChainConfig that would alter the past.
type CompatError struct {
	What string
	// block numbers of the stored and new configurations
	StoredConfig, NewConfig *big.Int
	// the block number to which the local chain must be rewound to correct the error
	RewindTo uint64
}

func newCompatError(what string, storedBlock, newBlock *big.Int) *CompatError {
	var rew *big.Int
	switch {
	case storedBlock == nil:
		rew = newBlock
	case newBlock == nil || storedBlock.Cmp(newBlock) < 0:
		rew = storedBlock
	default:
		rew = newBlock
	}
	err := &CompatError{what, storedBlock, newBlock, 0}
	if rew != nil && rew.Sign() > 0 {
		err.RewindTo = rew.Uint64() - 1
	}
	return err
}

func (err *CompatError) Error() string {
	return fmt.Sprintf("mismatching %s in database (have %d, want %d, rewindto %d)", err.What, err.StoredConfig, err.NewConfig, err.RewindTo)
}

// Rules wraps ChainConfig and is merely syntactic sugar or can be used for functions
// that do not have or require information about the block.
//
// Rules is a one time interface meaning that it shouldn't be used in between transition
// phases.
type Rules struct {
	ChainID                                     *big.Int
	IsHomestead, IsEIP150, IsLondon, IsShanghai bool
	IsEOF                                       bool
	IsMerge                                     bool
}

// Rules ensures c's ChainID is not nil.
func (cc *ChainConfig) Rules(num *big.Int, isMerge bool) Rules {
	chainID := cc.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	return Rules{
		ChainID:     new(big.Int).Set(chainID),
		IsHomestead: cc.IsHomestead(num),
		IsEIP150:    cc.IsEIP150(num),
		IsLondon:    cc.IsLondon(num),
		IsShanghai:  cc.IsShanghai(num),
		IsEOF:       cc.IsEOF(num),
		IsMerge:     isMerge,
	}
}
