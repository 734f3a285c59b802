package evm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

const (
	offsetVersion   = 2
	offsetTypesKind = 3
	offsetCodeKind  = 6

	kindTypes = 1
	kindCode  = 2
	kindData  = 4

	eof1Version = 1

	maxInputItems   = 127
	maxOutputItems  = 127
	maxStackHeight  = 1023
	maxCodeSections = 1024
	typesEntrySize  = 4
)

var eofMagic = []byte{0xef, 0x00}

// Container errors wrap ErrInvalidCode; out of bounds immediates wrap
// ErrInvalidCodeReference and are reported inside a validationError.
var (
	errInvalidMagic             = errors.WithMessage(ErrInvalidCode, "invalid magic")
	errInvalidVersion           = errors.WithMessage(ErrInvalidCode, "invalid version")
	errMissingTypeHeader        = errors.WithMessage(ErrInvalidCode, "missing type header")
	errInvalidTypeSize          = errors.WithMessage(ErrInvalidCode, "invalid type section size")
	errMissingCodeHeader        = errors.WithMessage(ErrInvalidCode, "missing code header")
	errInvalidCodeHeader        = errors.WithMessage(ErrInvalidCode, "invalid code header")
	errInvalidCodeSize          = errors.WithMessage(ErrInvalidCode, "invalid code size")
	errMissingDataHeader        = errors.WithMessage(ErrInvalidCode, "missing data header")
	errMissingTerminator        = errors.WithMessage(ErrInvalidCode, "missing header terminator")
	errTooManyInputs            = errors.WithMessage(ErrInvalidCode, "invalid type content, too many inputs")
	errTooManyOutputs           = errors.WithMessage(ErrInvalidCode, "invalid type content, too many outputs")
	errInvalidSection0Type      = errors.WithMessage(ErrInvalidCode, "invalid section 0 type, input and output should be zero")
	errTooLargeMaxStackHeight   = errors.WithMessage(ErrInvalidCode, "invalid type content, max stack height exceeds limit")
	errInvalidContainerSize     = errors.WithMessage(ErrInvalidCode, "invalid container size")
	errUndefinedInstruction     = errors.WithMessage(ErrInvalidCode, "undefined instruction")
	errTruncatedImmediate       = errors.WithMessage(ErrInvalidCodeReference, "truncated immediate")
	errInvalidSectionArgument   = errors.WithMessage(ErrInvalidCodeReference, "invalid section argument")
	errInvalidJumpDest          = errors.WithMessage(ErrInvalidCodeReference, "invalid jump destination")
	errInvalidBranchCount       = errors.WithMessage(ErrInvalidCode, "invalid number of branches in jump table")
	errInvalidDataloadNArgument = errors.WithMessage(ErrInvalidCodeReference, "invalid dataloadN argument")
	errInvalidCodeTermination   = errors.WithMessage(ErrInvalidCode, "invalid code termination")
)

// immediates denotes how many immediate bytes an operation uses in object
// format code. RJUMPV is variable sized; its entry is the minimum.
var immediates [256]uint8

// terminals denotes whether instructions can be the final opcode in a code
// section.
var terminals [256]bool

func init() {
	for i := uint8(1); i < 33; i++ {
		immediates[int(PUSH0)+int(i)] = i
	}
	immediates[RJUMP] = 2
	immediates[RJUMPI] = 2
	immediates[RJUMPV] = 3
	immediates[CALLF] = 2
	immediates[DUPN] = 2
	immediates[SWAPN] = 2
	immediates[DATALOADN] = 2

	terminals[STOP] = true
	terminals[RETURN] = true
	terminals[REVERT] = true
	terminals[INVALID] = true
	terminals[RETF] = true
	terminals[RJUMP] = true
}

// FunctionMetadata is an entry of the types section: the stack shape of one
// code section.
type FunctionMetadata struct {
	Inputs         uint8
	Outputs        uint8
	MaxStackHeight uint16
}

// Container is an object format container after header decoding.
type Container struct {
	Types    []*FunctionMetadata
	Code     [][]byte
	Data     []byte // the data bytes present in the container
	DataSize int    // the data size declared in the header
}

// HasEOFMagic returns true if code starts with the object format magic.
func HasEOFMagic(code []byte) bool {
	return len(code) >= len(eofMagic) && bytes.Equal(eofMagic, code[:len(eofMagic)])
}

// isEOFVersion1 returns true if the code's format is version 1.
func isEOFVersion1(code []byte) bool {
	return HasEOFMagic(code) && len(code) > offsetVersion && code[offsetVersion] == eof1Version
}

// MarshalBinary encodes the container, declaring DataSize as the data
// section size even when fewer data bytes are present.
func (c *Container) MarshalBinary() []byte {
	b := make([]byte, 0, 64)
	b = append(b, eofMagic...)
	b = append(b, eof1Version)

	b = append(b, kindTypes)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Types)*typesEntrySize))

	b = append(b, kindCode)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Code)))
	for _, code := range c.Code {
		b = binary.BigEndian.AppendUint16(b, uint16(len(code)))
	}

	b = append(b, kindData)
	b = binary.BigEndian.AppendUint16(b, uint16(c.DataSize))
	b = append(b, 0) // terminator

	for _, ty := range c.Types {
		b = append(b, ty.Inputs, ty.Outputs)
		b = binary.BigEndian.AppendUint16(b, ty.MaxStackHeight)
	}
	for _, code := range c.Code {
		b = append(b, code...)
	}
	return append(b, c.Data...)
}

// UnmarshalBinary decodes the container header, types, code and data. The
// data section may hold fewer bytes than declared; never more.
func (c *Container) UnmarshalBinary(b []byte) error {
	if !HasEOFMagic(b) {
		return errors.Wrapf(errInvalidMagic, "have %#x, want %#x", b[:min(2, len(b))], eofMagic)
	}
	if len(b) < 14 {
		return errors.Wrap(errInvalidContainerSize, "container too short")
	}
	if !isEOFVersion1(b) {
		return errors.Wrapf(errInvalidVersion, "have %d, want %d", b[2], eof1Version)
	}

	var (
		kind, typesSize, dataSize int
		codeSizes                 []int
		err                       error
	)

	// Parse type section header.
	kind, typesSize, err = parseSection(b, offsetTypesKind)
	if err != nil {
		return err
	}
	if kind != kindTypes {
		return errors.Wrapf(errMissingTypeHeader, "found section kind %x instead", kind)
	}
	if typesSize < typesEntrySize || typesSize%typesEntrySize != 0 {
		return errors.Wrapf(errInvalidTypeSize, "type section size must be divisible by 4, have %d", typesSize)
	}
	if typesSize/typesEntrySize > maxCodeSections {
		return errors.Wrapf(errInvalidTypeSize, "type section must not exceed 4*1024, have %d", typesSize)
	}

	// Parse code section header.
	kind, codeSizes, err = parseSectionList(b, offsetCodeKind)
	if err != nil {
		return err
	}
	if kind != kindCode {
		return errors.Wrapf(errMissingCodeHeader, "found section kind %x instead", kind)
	}
	if len(codeSizes) != typesSize/typesEntrySize {
		return errors.Wrapf(errInvalidCodeSize, "mismatch of code sections count and type signatures, types %d, code %d", typesSize/typesEntrySize, len(codeSizes))
	}

	// Parse data section header.
	offsetDataKind := offsetCodeKind + 2 + 2*len(codeSizes) + 1
	kind, dataSize, err = parseSection(b, offsetDataKind)
	if err != nil {
		return err
	}
	if kind != kindData {
		return errors.Wrapf(errMissingDataHeader, "found section %x instead", kind)
	}

	// Check for terminator.
	offsetTerminator := offsetDataKind + 3
	if len(b) <= offsetTerminator {
		return errors.Wrap(errInvalidContainerSize, "invalid container size")
	}
	if b[offsetTerminator] != 0 {
		return errors.Wrapf(errMissingTerminator, "have %x", b[offsetTerminator])
	}

	// Verify overall container size.
	expectedSize := offsetTerminator + typesSize + sum(codeSizes) + dataSize + 1
	bodySize := expectedSize - dataSize
	if len(b) < bodySize {
		return errors.Wrapf(errInvalidContainerSize, "have %d, want at least %d", len(b), bodySize)
	}
	if len(b) > expectedSize {
		return errors.Wrapf(errInvalidContainerSize, "have %d, want %d", len(b), expectedSize)
	}

	// Parse types section.
	idx := offsetTerminator + 1
	var types = make([]*FunctionMetadata, 0, typesSize/typesEntrySize)
	for i := 0; i < typesSize/typesEntrySize; i++ {
		sig := &FunctionMetadata{
			Inputs:         b[idx+i*typesEntrySize],
			Outputs:        b[idx+i*typesEntrySize+1],
			MaxStackHeight: binary.BigEndian.Uint16(b[idx+i*typesEntrySize+2:]),
		}
		if sig.Inputs > maxInputItems {
			return errors.Wrapf(errTooManyInputs, "for section %d, have %d", i, sig.Inputs)
		}
		if sig.Outputs > maxOutputItems {
			return errors.Wrapf(errTooManyOutputs, "for section %d, have %d", i, sig.Outputs)
		}
		if sig.MaxStackHeight > maxStackHeight {
			return errors.Wrapf(errTooLargeMaxStackHeight, "for section %d, have %d", i, sig.MaxStackHeight)
		}
		types = append(types, sig)
	}
	if types[0].Inputs != 0 || types[0].Outputs != 0 {
		return errors.Wrapf(errInvalidSection0Type, "have %d, %d", types[0].Inputs, types[0].Outputs)
	}
	c.Types = types

	// Parse code sections.
	idx += typesSize
	code := make([][]byte, len(codeSizes))
	for i, size := range codeSizes {
		if size == 0 {
			return errors.Wrapf(errInvalidCodeSize, "invalid code size for section %d: size must not be 0", i)
		}
		code[i] = b[idx : idx+size]
		idx += size
	}
	c.Code = code

	// Parse data section.
	c.Data = b[idx:]
	c.DataSize = dataSize
	return nil
}

// ValidateCode checks every code section of the container against the
// object format rules of the given instruction set.
func (c *Container) ValidateCode(jt *JumpTable) error {
	for i, code := range c.Code {
		if err := validateCode(code, i, c.Types, c.DataSize, jt); err != nil {
			return err
		}
	}
	return nil
}

// parseSection decodes a (kind, size) pair from an EOF header.
func parseSection(b []byte, idx int) (kind, size int, err error) {
	if idx+3 > len(b) {
		return 0, 0, errors.Wrap(errInvalidContainerSize, "header truncated")
	}
	kind = int(b[idx])
	size = int(binary.BigEndian.Uint16(b[idx+1 : idx+3]))
	return kind, size, nil
}

// parseSectionList decodes a (kind, len, []codeSize) section list from an EOF
// header.
func parseSectionList(b []byte, idx int) (kind int, list []int, err error) {
	if idx >= len(b) {
		return 0, nil, errors.Wrap(errInvalidContainerSize, "header truncated")
	}
	kind = int(b[idx])
	list, err = parseList(b, idx+1)
	if err != nil {
		return 0, nil, err
	}
	return kind, list, nil
}

// parseList decodes a list of uint16..
func parseList(b []byte, idx int) ([]int, error) {
	if len(b) < idx+2 {
		return nil, errors.Wrap(errInvalidContainerSize, "header truncated")
	}
	count := binary.BigEndian.Uint16(b[idx:])
	if count == 0 || count > maxCodeSections {
		return nil, errors.Wrapf(errInvalidCodeHeader, "have %d sections", count)
	}
	if len(b) <= idx+2+int(count)*2 {
		return nil, errors.Wrap(errInvalidContainerSize, "header truncated")
	}
	list := make([]int, count)
	for i := 0; i < int(count); i++ {
		list[i] = int(binary.BigEndian.Uint16(b[idx+2+2*i:]))
	}
	return list, nil
}

func sum(list []int) (s int) {
	for _, n := range list {
		s += n
	}
	return
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (c *Container) String() string {
	var result = fmt.Sprintf("Header\n  - EOFMagic: %02x\n  - EOFVersion: %02x\n  - KindType: %02x\n  - TypesSize: %04x\n  - KindCode: %02x\n  - KindData: %02x\n  - DataSize: %04x\n  - Number of code sections: %d\n",
		eofMagic, eof1Version, kindTypes, len(c.Types)*typesEntrySize, kindCode, kindData, c.DataSize, len(c.Code))
	for i, code := range c.Code {
		result += fmt.Sprintf("    - Code section %d length: %04x\n", i, len(code))
	}
	result += "Body\n"
	for i, ty := range c.Types {
		result += fmt.Sprintf("  - Type %v: %x\n", i, []byte{ty.Inputs, ty.Outputs, byte(ty.MaxStackHeight >> 8), byte(ty.MaxStackHeight)})
	}
	for i, code := range c.Code {
		result += fmt.Sprintf("  - Code section %d: %#x\n", i, code)
	}
	result += fmt.Sprintf("  - Data section: %#x (%d of %d bytes present)\n", c.Data, len(c.Data), c.DataSize)
	return result
}
