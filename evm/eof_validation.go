package evm

import (
	"encoding/binary"
	"fmt"
)

// validationError locates a failed code check inside a container. It matches
// ErrInvalidCode in addition to the wrapped cause.
type validationError struct {
	section int
	pos     int
	op      OpCode
	err     error
}

func (e *validationError) Error() string {
	return fmt.Sprintf("section %d, pos %d (%v): %v", e.section, e.pos, e.op, e.err)
}

func (e *validationError) Unwrap() error {
	return e.err
}

func (e *validationError) Is(target error) bool {
	return target == ErrInvalidCode
}

// validateCode validates the code of one section of an object format
// container:
//
//   - every opcode is defined in the instruction set,
//   - no immediate is truncated by the end of the section,
//   - relative jumps land on an instruction of the same section,
//   - CALLF references an existing section,
//   - DATALOADN reads 32 bytes within the declared data size,
//   - the section ends with a terminating instruction.
//
// There is no static stack height pass. CALLF checks inputs and the stack
// limit at runtime and RETF checks that the outputs are present.
func validateCode(code []byte, section int, metadata []*FunctionMetadata, dataSize int, jt *JumpTable) error {
	var (
		i     = 0
		op    OpCode
		dests []int
	)
	fail := func(err error) error {
		return &validationError{section: section, pos: i, op: op, err: err}
	}
	for i < len(code) {
		op = OpCode(code[i])
		if jt[op].undefined {
			return fail(errUndefinedInstruction)
		}
		size := int(immediates[op])
		if op == RJUMPV {
			if i+1 >= len(code) {
				return fail(errTruncatedImmediate)
			}
			branches := int(code[i+1])
			if branches == 0 {
				return fail(errInvalidBranchCount)
			}
			size = 1 + 2*branches
		}
		if i+size >= len(code) && size > 0 {
			return fail(errTruncatedImmediate)
		}
		next := i + size + 1

		switch op {
		case RJUMP, RJUMPI:
			offset := int(int16(binary.BigEndian.Uint16(code[i+1:])))
			dests = append(dests, next+offset)
		case RJUMPV:
			for j := 0; j < int(code[i+1]); j++ {
				offset := int(int16(binary.BigEndian.Uint16(code[i+2+2*j:])))
				dests = append(dests, next+offset)
			}
		case CALLF:
			arg := int(binary.BigEndian.Uint16(code[i+1:]))
			if arg >= len(metadata) {
				return fail(errInvalidSectionArgument)
			}
		case DATALOADN:
			arg := int(binary.BigEndian.Uint16(code[i+1:]))
			if arg+32 > dataSize {
				return fail(errInvalidDataloadNArgument)
			}
		}
		if next >= len(code) && !terminals[op] {
			return fail(errInvalidCodeTermination)
		}
		i = next
	}

	analysis := eofCodeBitmap(code)
	for _, dest := range dests {
		if dest < 0 || dest >= len(code) || !analysis.codeSegment(uint64(dest)) {
			return &validationError{section: section, pos: dest, op: op, err: errInvalidJumpDest}
		}
	}
	return nil
}
