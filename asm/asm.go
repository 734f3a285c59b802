// Package asm provides support for dealing with EVM assembly instructions
// (e.g., disassembling them).
package asm

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/entropyio/evmcore/evm"
	"github.com/pkg/errors"
)

// InstructionIterator iterates over the instructions of a piece of legacy
// code or of one object format code section.
type InstructionIterator struct {
	code    []byte
	pc      uint64
	arg     []byte
	op      evm.OpCode
	error   error
	started bool
	eof     bool
}

// NewInstructionIterator creates a new instruction iterator over legacy code.
func NewInstructionIterator(code []byte) *InstructionIterator {
	it := new(InstructionIterator)
	it.code = code
	return it
}

// NewEOFInstructionIterator creates a new instruction iterator over one code
// section of an object format container.
func NewEOFInstructionIterator(section []byte) *InstructionIterator {
	it := NewInstructionIterator(section)
	it.eof = true
	return it
}

// Next returns true if there is a next instruction and moves on.
func (it *InstructionIterator) Next() bool {
	if it.error != nil || uint64(len(it.code)) <= it.pc {
		// We previously reached an error or the end.
		return false
	}

	if it.started {
		// Since the iteration has been already started we move to the next instruction.
		it.pc += uint64(len(it.arg)) + 1
	} else {
		// We start the iteration from the first instruction.
		it.started = true
	}

	if uint64(len(it.code)) <= it.pc {
		// We reached the end.
		return false
	}

	it.op = evm.OpCode(it.code[it.pc])
	size, err := it.immediateSize()
	if err != nil {
		it.error = err
		return false
	}
	if size == 0 {
		it.arg = nil
		return true
	}
	start := it.pc + 1
	end := start + size
	if end > uint64(len(it.code)) {
		it.error = errors.Errorf("incomplete %v instruction at %v", it.op, it.pc)
		return false
	}
	it.arg = it.code[start:end]
	return true
}

// immediateSize returns the number of immediate bytes following the current
// opcode.
func (it *InstructionIterator) immediateSize() (uint64, error) {
	if it.op.IsPush() {
		return uint64(it.op - evm.PUSH0), nil
	}
	if !it.eof {
		return 0, nil
	}
	switch it.op {
	case evm.RJUMP, evm.RJUMPI, evm.CALLF, evm.DUPN, evm.SWAPN, evm.DATALOADN:
		return 2, nil
	case evm.RJUMPV:
		if it.pc+1 >= uint64(len(it.code)) {
			return 0, errors.Errorf("incomplete RJUMPV instruction at %v", it.pc)
		}
		return 1 + 2*uint64(it.code[it.pc+1]), nil
	}
	return 0, nil
}

// Error returns any error that may have been encountered.
func (it *InstructionIterator) Error() error {
	return it.error
}

// PC returns the PC of the current instruction.
func (it *InstructionIterator) PC() uint64 {
	return it.pc
}

// Op returns the opcode of the current instruction.
func (it *InstructionIterator) Op() evm.OpCode {
	return it.op
}

// Arg returns the argument of the current instruction.
func (it *InstructionIterator) Arg() []byte {
	return it.arg
}

// PrintDisassembled pretty-print all disassembled EVM instructions to w.
// Object format containers are printed section by section.
func PrintDisassembled(w io.Writer, code string) error {
	script, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(code), "0x"))
	if err != nil {
		return errors.Wrap(err, "decode code")
	}
	if !evm.HasEOFMagic(script) {
		return printInstructions(w, NewInstructionIterator(script))
	}

	var c evm.Container
	if err := c.UnmarshalBinary(script); err != nil {
		return err
	}
	for i, section := range c.Code {
		ty := c.Types[i]
		fmt.Fprintf(w, "section %d: inputs=%d outputs=%d maxStackHeight=%d\n", i, ty.Inputs, ty.Outputs, ty.MaxStackHeight)
		if err := printInstructions(w, NewEOFInstructionIterator(section)); err != nil {
			return errors.Wrapf(err, "section %d", i)
		}
	}
	fmt.Fprintf(w, "data: %#x\n", c.Data)
	return nil
}

func printInstructions(w io.Writer, it *InstructionIterator) error {
	for it.Next() {
		if it.Arg() != nil && 0 < len(it.Arg()) {
			fmt.Fprintf(w, "%05x: %v %#x\n", it.PC(), it.Op(), it.Arg())
		} else {
			fmt.Fprintf(w, "%05x: %v\n", it.PC(), it.Op())
		}
	}
	return it.Error()
}

// Disassemble returns all disassembled EVM instructions in human-readable
// format.
func Disassemble(script []byte) ([]string, error) {
	instrs := make([]string, 0)

	it := NewInstructionIterator(script)
	for it.Next() {
		if it.Arg() != nil && 0 < len(it.Arg()) {
			instrs = append(instrs, fmt.Sprintf("%05x: %v %#x\n", it.PC(), it.Op(), it.Arg()))
		} else {
			instrs = append(instrs, fmt.Sprintf("%05x: %v\n", it.PC(), it.Op()))
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return instrs, nil
}
