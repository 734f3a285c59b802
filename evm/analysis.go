package evm

const (
	set2BitsMask = uint16(0b11)
	set3BitsMask = uint16(0b111)
	set4BitsMask = uint16(0b1111)
	set5BitsMask = uint16(0b1_1111)
	set6BitsMask = uint16(0b11_1111)
	set7BitsMask = uint16(0b111_1111)
)

// bitvec is a bit vector which maps bytes in a program.
// An unset bit means the byte is an opcode, a set bit means
// it's data (i.e. argument of PUSHxx).
type bitvec []byte

func (bits bitvec) set1(pos uint64) {
	bits[pos/8] |= 1 << (pos % 8)
}

func (bits bitvec) setN(flag uint16, pos uint64) {
	a := flag << (pos % 8)
	bits[pos/8] |= byte(a)
	if b := byte(a >> 8); b != 0 {
		bits[pos/8+1] = b
	}
}

func (bits bitvec) set8(pos uint64) {
	a := byte(0xFF << (pos % 8))
	bits[pos/8] |= a
	bits[pos/8+1] = ^a
}

func (bits bitvec) set16(pos uint64) {
	a := byte(0xFF << (pos % 8))
	bits[pos/8] |= a
	bits[pos/8+1] = 0xFF
	bits[pos/8+2] = ^a
}

// setRange marks n consecutive bytes starting at pos as data.
func (bits bitvec) setRange(pos uint64, n int) {
	for ; n >= 16; n -= 16 {
		bits.set16(pos)
		pos += 16
	}
	for ; n >= 8; n -= 8 {
		bits.set8(pos)
		pos += 8
	}
	switch n {
	case 1:
		bits.set1(pos)
	case 2:
		bits.setN(set2BitsMask, pos)
	case 3:
		bits.setN(set3BitsMask, pos)
	case 4:
		bits.setN(set4BitsMask, pos)
	case 5:
		bits.setN(set5BitsMask, pos)
	case 6:
		bits.setN(set6BitsMask, pos)
	case 7:
		bits.setN(set7BitsMask, pos)
	}
}

// codeSegment checks if the position is in a code segment.
func (bits *bitvec) codeSegment(pos uint64) bool {
	return (((*bits)[pos/8] >> (pos % 8)) & 1) == 0
}

// codeBitmap collects data locations in code.
func codeBitmap(code []byte) bitvec {
	// The bitmap is 4 bytes longer than necessary, in case the code
	// ends with a PUSH32, the algorithm will set bits on the
	// bitvector outside the bounds of the actual code.
	bits := make(bitvec, len(code)/8+1+4)
	return codeBitmapInternal(code, bits)
}

// codeBitmapInternal is the internal implementation of codeBitmap.
func codeBitmapInternal(code, bits bitvec) bitvec {
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		pc++
		if int8(op) < int8(PUSH1) { // If not PUSH (the int8(op) > int(PUSH32) is always false).
			continue
		}
		numbits := int(op - PUSH1 + 1)
		bits.setRange(pc, numbits)
		pc += uint64(numbits)
	}
	return bits
}

// eofCodeBitmap collects the locations of immediates in an object format
// code section. The section must already be known to hold no truncated
// immediate.
func eofCodeBitmap(code []byte) bitvec {
	// The bitmap is 4 bytes longer than necessary, in case the code
	// ends with a PUSH32.
	bits := make(bitvec, len(code)/8+1+4)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		pc++
		numbits := int(immediates[op])
		if op == RJUMPV && pc < uint64(len(code)) {
			numbits = 1 + 2*int(code[pc])
		}
		if numbits == 0 {
			continue
		}
		bits.setRange(pc, numbits)
		pc += uint64(numbits)
	}
	return bits
}
