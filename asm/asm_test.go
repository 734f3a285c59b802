package asm

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/entropyio/evmcore/evm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests disassembling instructions
func TestInstructionIterator(t *testing.T) {
	for i, tc := range []struct {
		want    int
		code    string
		wantErr string
	}{
		{2, "61000000", ""},                              // valid code
		{0, "6100", "incomplete PUSH2 instruction at 0"}, // invalid code
		{2, "5f00", ""},                                  // push0
		{0, "", ""},                                      // empty
	} {
		var (
			have    int
			code, _ = hex.DecodeString(tc.code)
			it      = NewInstructionIterator(code)
		)
		for it.Next() {
			have++
		}
		var haveErr = ""
		if it.Error() != nil {
			haveErr = it.Error().Error()
		}
		assert.Equal(t, tc.wantErr, haveErr, "test %d: encountered error", i)
		assert.Equal(t, tc.want, have, "test %d: wrong instruction count", i)
	}
}

func TestEOFInstructionIterator(t *testing.T) {
	// RJUMPV with two entries, CALLF 1, DATALOADN 0, RJUMP -3, STOP
	code, _ := hex.DecodeString("5e020000000300e3b00001ba00005cfffd00")

	var (
		ops  []evm.OpCode
		args [][]byte
		pcs  []uint64
		it   = NewEOFInstructionIterator(code)
	)
	for it.Next() {
		ops = append(ops, it.Op())
		args = append(args, it.Arg())
		pcs = append(pcs, it.PC())
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []evm.OpCode{evm.RJUMPV, evm.STOP, evm.OpCode(0xe3), evm.CALLF, evm.DATALOADN, evm.RJUMP, evm.STOP}, ops)
	assert.Equal(t, []uint64{0, 6, 7, 8, 11, 14, 17}, pcs)
	assert.Equal(t, []byte{0x02, 0x00, 0x00, 0x00, 0x03}, args[0])
	assert.Equal(t, []byte{0x00, 0x01}, args[3])

	// the same bytes read as legacy code have no multi-byte immediates
	legacy := NewInstructionIterator(code)
	legacy.Next()
	assert.Equal(t, evm.RJUMPV, legacy.Op())
	assert.Nil(t, legacy.Arg())
	legacy.Next()
	assert.Equal(t, uint64(1), legacy.PC())
}

func TestEOFInstructionIteratorTruncated(t *testing.T) {
	for _, code := range []string{"5c00", "5e", "5e0100", "b6"} {
		b, _ := hex.DecodeString(code)
		it := NewEOFInstructionIterator(b)
		for it.Next() {
		}
		assert.Error(t, it.Error(), code)
	}
}

func TestDisassemble(t *testing.T) {
	instrs, err := Disassemble([]byte{0x60, 0x2a, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []string{"00000: PUSH1 0x2a\n", "00002: STOP\n"}, instrs)

	_, err = Disassemble([]byte{0x61, 0x01})
	assert.Error(t, err)
}

func TestPrintDisassembledLegacy(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintDisassembled(&buf, "0x602a6000f3"))
	assert.Equal(t, "00000: PUSH1 0x2a\n00002: PUSH1 0x00\n00004: RETURN\n", buf.String())

	assert.Error(t, PrintDisassembled(&buf, "zz"))
}

func TestPrintDisassembledEOF(t *testing.T) {
	c := evm.Container{
		Types: []*evm.FunctionMetadata{
			{Inputs: 0, Outputs: 0, MaxStackHeight: 1},
		},
		Code:     [][]byte{{byte(evm.DATALOADN), 0x00, 0x00, byte(evm.STOP)}},
		Data:     []byte{0xaa},
		DataSize: 1,
	}
	var buf bytes.Buffer
	require.NoError(t, PrintDisassembled(&buf, hex.EncodeToString(c.MarshalBinary())))
	out := buf.String()
	assert.Contains(t, out, "section 0: inputs=0 outputs=0 maxStackHeight=1\n")
	assert.Contains(t, out, "00000: DATALOADN 0x0000\n")
	assert.Contains(t, out, "00003: STOP\n")
	assert.Contains(t, out, "data: 0xaa\n")

	assert.Error(t, PrintDisassembled(&buf, "ef0002"))
}
