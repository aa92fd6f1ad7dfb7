/*
   68000 CPU execution core: fetch/decode/dispatch, IPC block cache, and
   exception delivery.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package cpu

// This file holds the effective-address resolution and flag-setting
// helpers shared by every handler in ops_*.go. Addressing-mode side
// effects (postincrement/predecrement) are applied here, at *execute*
// time, from the (Kind, Reg) pair alone — never cached into the IPC —
// so a block replayed many times from the cache behaves correctly every
// time (DESIGN.md, cpu/decode.go, cpu/ops_*.go entry).
//
// Effective-address decoding shape and the decision to apply postinc/
// predec at execute time rather than decode time are grounded on
// user-none/go-chip-m68k's ea.go (enrichment from the retrieval pack;
// the teacher's own ISA has no comparable addressing modes).

// decodeEA reads whatever extension words a (mode, reg) effective-address
// pair needs starting at word address ext, and returns the resulting
// Operand plus the number of 16-bit extension words consumed.
func decodeEA(c *Cpu, ext uint32, mode, reg uint8, size Size) (Operand, uint8) {
	switch mode {
	case 0:
		return Operand{Kind: OpDataReg, Reg: reg}, 0
	case 1:
		return Operand{Kind: OpAddrReg, Reg: reg}, 0
	case 2:
		return Operand{Kind: OpIndirect, Reg: reg}, 0
	case 3:
		return Operand{Kind: OpPostInc, Reg: reg}, 0
	case 4:
		return Operand{Kind: OpPreDec, Reg: reg}, 0
	case 5:
		disp := int16(c.Mem.ReadWord(ext))
		return Operand{Kind: OpDisp, Reg: reg, Disp: int32(disp)}, 1
	case 7:
		switch reg {
		case 0: // abs.W, sign-extended
			addr := int16(c.Mem.ReadWord(ext))
			return Operand{Kind: OpAbsWord, Disp: int32(addr)}, 1
		case 1: // abs.L
			addr := c.Mem.ReadLong(ext)
			return Operand{Kind: OpAbsLong, Imm: addr}, 2
		case 4: // #imm
			if size == Long {
				return Operand{Kind: OpImmediate, Imm: c.Mem.ReadLong(ext)}, 2
			}
			return Operand{Kind: OpImmediate, Imm: uint32(c.Mem.ReadWord(ext))}, 1
		}
	}
	return Operand{Kind: OpNone}, 0
}

// eaAddress returns the resolved memory address of a memory-mode operand,
// applying postinc/predec side effects. Returns 0 for any other operand
// kind (register, immediate, or one decodeEA left as OpNone) — callers must
// route register and immediate operands through readOperand instead.
func (c *Cpu) eaAddress(op *Operand, size Size) uint32 {
	switch op.Kind {
	case OpIndirect:
		return c.Regs.A[op.Reg]
	case OpPostInc:
		addr := c.Regs.A[op.Reg]
		c.Regs.A[op.Reg] += postIncDecStep(op.Reg, size)
		return addr
	case OpPreDec:
		c.Regs.A[op.Reg] -= postIncDecStep(op.Reg, size)
		return c.Regs.A[op.Reg]
	case OpDisp:
		return uint32(int32(c.Regs.A[op.Reg]) + op.Disp)
	case OpAbsWord:
		return uint32(op.Disp) & 0x00FFFFFF
	case OpAbsLong:
		return op.Imm
	}
	return 0
}

func postIncDecStep(reg uint8, size Size) uint32 {
	if reg == 7 && size == Byte {
		return 2 // A7 always stays word-aligned
	}
	return uint32(size)
}

// readOperand returns an operand's value, applying addressing-mode side
// effects for memory operands.
func (c *Cpu) readOperand(op *Operand, size Size) uint32 {
	switch op.Kind {
	case OpDataReg:
		return c.Regs.D[op.Reg] & size.Mask()
	case OpAddrReg:
		return c.Regs.A[op.Reg] & size.Mask()
	case OpImmediate:
		return op.Imm & size.Mask()
	default:
		return c.readMem(c.eaAddress(op, size), size)
	}
}

// writeOperand stores a value to an operand, applying addressing-mode side
// effects for memory operands. Data-register writes preserve the untouched
// upper bits for byte/word sizes; address-register writes always replace
// the full 32 bits (sign-extended by the caller where that matters).
func (c *Cpu) writeOperand(op *Operand, size Size, val uint32) {
	switch op.Kind {
	case OpDataReg:
		mask := size.Mask()
		c.Regs.D[op.Reg] = (c.Regs.D[op.Reg] &^ mask) | (val & mask)
	case OpAddrReg:
		c.Regs.A[op.Reg] = val
	default:
		c.writeMem(c.eaAddress(op, size), size, val)
	}
}

func (c *Cpu) readMem(addr uint32, size Size) uint32 {
	addr &= 0x00FFFFFF
	switch size {
	case Byte:
		return uint32(c.Mem.ReadByte(addr))
	case Word:
		return uint32(c.Mem.ReadWord(addr))
	default:
		return c.Mem.ReadLong(addr)
	}
}

func (c *Cpu) writeMem(addr uint32, size Size, val uint32) {
	addr &= 0x00FFFFFF
	switch size {
	case Byte:
		c.Mem.WriteByte(addr, uint8(val))
	case Word:
		c.Mem.WriteWord(addr, uint16(val))
	default:
		c.Mem.WriteLong(addr, val)
	}
}

// setFlagsLogic sets NZ, clears VC, after a logical (AND/OR/EOR/move) result.
func (c *Cpu) setFlagsLogic(result uint32, size Size) {
	c.Regs.SR &^= srNegative | srZero | srOverflow | srCarry
	if result&size.Mask() == 0 {
		c.Regs.SR |= srZero
	}
	if result&size.MSB() != 0 {
		c.Regs.SR |= srNegative
	}
}

// setFlagsAdd sets XNZVC after result = dst + src.
func (c *Cpu) setFlagsAdd(src, dst, result uint32, size Size) {
	msb := size.MSB()
	mask := size.Mask()
	r := result & mask
	s := src & mask
	d := dst & mask

	c.Regs.SR &^= srExtend | srNegative | srZero | srOverflow | srCarry
	if r == 0 {
		c.Regs.SR |= srZero
	}
	if r&msb != 0 {
		c.Regs.SR |= srNegative
	}
	if (s^r)&(d^r)&msb != 0 {
		c.Regs.SR |= srOverflow
	}
	if (s&d | (s|d)&^r) & msb != 0 {
		c.Regs.SR |= srCarry | srExtend
	}
}

// setFlagsSub sets XNZVC after result = dst - src.
func (c *Cpu) setFlagsSub(src, dst, result uint32, size Size) {
	msb := size.MSB()
	mask := size.Mask()
	r := result & mask
	s := src & mask
	d := dst & mask

	c.Regs.SR &^= srExtend | srNegative | srZero | srOverflow | srCarry
	if r == 0 {
		c.Regs.SR |= srZero
	}
	if r&msb != 0 {
		c.Regs.SR |= srNegative
	}
	if (s^d)&(r^d)&msb != 0 {
		c.Regs.SR |= srOverflow
	}
	if (s&^d | r&^d | s&r) & msb != 0 {
		c.Regs.SR |= srCarry | srExtend
	}
}

// setFlagsCmp sets NZVC (not X) after a comparison result = dst - src.
func (c *Cpu) setFlagsCmp(src, dst, result uint32, size Size) {
	msb := size.MSB()
	mask := size.Mask()
	r := result & mask
	s := src & mask
	d := dst & mask

	c.Regs.SR &^= srNegative | srZero | srOverflow | srCarry
	if r == 0 {
		c.Regs.SR |= srZero
	}
	if r&msb != 0 {
		c.Regs.SR |= srNegative
	}
	if (s^d)&(r^d)&msb != 0 {
		c.Regs.SR |= srOverflow
	}
	if (s&^d | r&^d | s&r) & msb != 0 {
		c.Regs.SR |= srCarry
	}
}

// condTrue evaluates one of the 16 standard 68000 branch conditions
// against the current CCR bits.
func (c *Cpu) condTrue(cond uint8) bool {
	sr := c.Regs.SR
	n := sr&srNegative != 0
	z := sr&srZero != 0
	v := sr&srOverflow != 0
	cy := sr&srCarry != 0

	switch cond {
	case 0x0: // T
		return true
	case 0x1: // F
		return false
	case 0x2: // HI
		return !cy && !z
	case 0x3: // LS
		return cy || z
	case 0x4: // CC (HS)
		return !cy
	case 0x5: // CS (LO)
		return cy
	case 0x6: // NE
		return !z
	case 0x7: // EQ
		return z
	case 0x8: // VC
		return !v
	case 0x9: // VS
		return v
	case 0xA: // PL
		return !n
	case 0xB: // MI
		return n
	case 0xC: // GE
		return n == v
	case 0xD: // LT
		return n != v
	case 0xE: // GT
		return !z && n == v
	case 0xF: // LE
		return z || n != v
	}
	return false
}

// register installs decode into decodeTable for every opcode word whose
// top bits equal match once mask is applied (opcode&mask == match), and for
// every free bit combination in between. This is the "dense table built by
// a registration pass" construction spec.md §9 calls for: the table itself
// stays a plain [65536]func array with O(1) lookup; registration is only
// how it gets populated once at init.
func register(match, mask uint16, decode decodeFunc) {
	for op := 0; op <= 0xFFFF; op++ {
		word := uint16(op)
		if word&mask == match {
			decodeTable[word] = decode
		}
	}
}
