package evm

import (
	"encoding/binary"

	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
)

// Code is an immutable, analysed program: legacy bytecode together with its
// jump destination bitmap, or a validated object format container.
type Code struct {
	raw  []byte
	hash common.Hash
	eof  bool

	sections [][]byte
	types    []*FunctionMetadata
	data     []byte // data bytes present in the container
	dataSize int    // data size declared in the container header

	jumpdests bitvec
}

// NewLegacyCode analyses legacy bytecode.
func NewLegacyCode(code []byte) *Code {
	return &Code{
		raw:       code,
		sections:  [][]byte{code},
		jumpdests: codeBitmap(code),
	}
}

// NewEOFCode decodes and validates an object format container against the
// instruction set jt.
func NewEOFCode(b []byte, jt *JumpTable) (*Code, error) {
	var c Container
	if err := c.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	if err := c.ValidateCode(jt); err != nil {
		return nil, err
	}
	return &Code{
		raw:      b,
		eof:      true,
		sections: c.Code,
		types:    c.Types,
		data:     c.Data,
		dataSize: c.DataSize,
	}, nil
}

// ParseCode analyses code once. When eofTable is nil the object format is
// not active and all code is legacy; otherwise code carrying the object
// format magic must be a valid container for eofTable.
func ParseCode(code []byte, eofTable *JumpTable) (*Code, error) {
	if eofTable != nil && HasEOFMagic(code) {
		return NewEOFCode(code, eofTable)
	}
	return NewLegacyCode(code), nil
}

// IsEOF reports whether the code is an object format container.
func (c *Code) IsEOF() bool { return c.eof }

// Bytes returns the code as stored in the account.
func (c *Code) Bytes() []byte { return c.raw }

// Hash returns the code hash if it is known.
func (c *Code) Hash() common.Hash { return c.hash }

// Section returns the instructions of code section i.
func (c *Code) Section(i int) []byte { return c.sections[i] }

// NumSections returns the number of code sections, 1 for legacy code.
func (c *Code) NumSections() int { return len(c.sections) }

// Type returns the stack shape of code section i, nil for legacy code.
func (c *Code) Type(i int) *FunctionMetadata {
	if !c.eof {
		return nil
	}
	return c.types[i]
}

// DataSize returns the declared size of the data section.
func (c *Code) DataSize() int { return c.dataSize }

// Data returns the data bytes present in the container.
func (c *Code) Data() []byte { return c.data }

// GetData returns size bytes of the data section at offset. Bytes beyond
// those present in the container read as zero.
func (c *Code) GetData(offset, size uint64) []byte {
	return common.GetData(c.data, offset, size)
}

// ReadU16 decodes the big-endian immediate following the instruction at pc
// of section i.
func (c *Code) ReadU16(section int, pc uint64) uint16 {
	return ReadBigEndianU16(c.sections[section][pc+1:])
}

// ReadBigEndianU16 decodes the two byte big-endian immediate at the start
// of b.
func ReadBigEndianU16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// validJumpdest reports whether dest is a JUMPDEST instruction of legacy
// code and not PUSH data.
func (c *Code) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	// PC cannot go beyond len(code) and certainly can't be bigger than 63bits.
	// Don't bother checking for JUMPDEST in that case.
	if overflow || udest >= uint64(len(c.raw)) {
		return false
	}
	// Only JUMPDESTs allowed for destinations
	if OpCode(c.raw[udest]) != JUMPDEST {
		return false
	}
	return c.jumpdests.codeSegment(udest)
}
