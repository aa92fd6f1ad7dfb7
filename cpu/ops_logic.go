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

// Status-register access (MOVE to/from SR, ANDI/ORI/EORI to CCR/SR), bit
// instructions (BTST/BCHG/BCLR/BSET, register-direct subset), shifts/
// rotates (ASx/LSx/ROx, immediate count, register-direct subset), and Scc
// (register-direct subset). Register-direct-only scoping for the bit and
// shift families mirrors how rcornwell-S370's op_*.go files each cover one
// closed instruction family rather than the full 370 addressing-mode
// cross-product; the memory-operand forms of these families are not
// decoded.

func init() {
	registerMoveFromSR()
	registerMoveToSR()
	register(0x023C, 0xFFFF, decodeAndiCCR)
	register(0x027C, 0xFFFF, decodeAndiSR)
	register(0x003C, 0xFFFF, decodeOriCCR)
	register(0x007C, 0xFFFF, decodeOriSR)
	register(0x0A3C, 0xFFFF, decodeEoriCCR)
	register(0x0A7C, 0xFFFF, decodeEoriSR)
	registerBitOpsDynamic()
	registerBitOpsImmediate()
	registerShifts()
	registerScc()
}

// registerMoveFromSR wires 0100 0000 11 mmm rrr (data-alterable ea, word).
func registerMoveFromSR() {
	for mode := uint16(0); mode < 8; mode++ {
		for reg := uint16(0); reg < 8; reg++ {
			if mode == 1 || (mode == 7 && reg > 1) {
				continue
			}
			opcode := 0x40C0 | (mode << 3) | reg
			m, r := uint8(mode), uint8(reg)
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				dst, words := decodeEA(c, pc+2, m, r, Word)
				return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Dst: dst, Handler: moveFromSRHandler, Clocks: 6, wordsConsumed: words}
			}
		}
	}
}

func moveFromSRHandler(c *Cpu, ipc *IPC) {
	c.writeOperand(&ipc.Dst, Word, uint32(c.Regs.SR))
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

// registerMoveToSR wires 0100 0110 11 mmm rrr (privileged).
func registerMoveToSR() {
	for mode := uint16(0); mode < 8; mode++ {
		for reg := uint16(0); reg < 8; reg++ {
			if mode == 7 && reg > 4 {
				continue
			}
			opcode := 0x46C0 | (mode << 3) | reg
			m, r := uint8(mode), uint8(reg)
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				src, words := decodeEA(c, pc+2, m, r, Word)
				return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Src: src, Handler: moveToSRHandler, Clocks: 12, wordsConsumed: words}
			}
		}
	}
}

func moveToSRHandler(c *Cpu, ipc *IPC) {
	val := uint16(c.readOperand(&ipc.Src, Word))
	c.Regs.setSupervisor(val&srSupervisor != 0)
	c.Regs.SR = val
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeAndiCCR(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Extra: int32(imm), Handler: andiCCRHandler, Clocks: 20, wordsConsumed: 1}
}
func andiCCRHandler(c *Cpu, ipc *IPC) {
	c.Regs.SR = (c.Regs.SR &^ 0xFF) | (c.Regs.SR & 0xFF & uint16(ipc.Extra))
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeAndiSR(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Extra: int32(imm), Handler: andiSRHandler, Clocks: 20, wordsConsumed: 1}
}
func andiSRHandler(c *Cpu, ipc *IPC) {
	val := c.Regs.SR & uint16(ipc.Extra)
	c.Regs.setSupervisor(val&srSupervisor != 0)
	c.Regs.SR = val
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeOriCCR(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Extra: int32(imm), Handler: oriCCRHandler, Clocks: 20, wordsConsumed: 1}
}
func oriCCRHandler(c *Cpu, ipc *IPC) {
	c.Regs.SR |= uint16(ipc.Extra) & 0xFF
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeOriSR(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Extra: int32(imm), Handler: oriSRHandler, Clocks: 20, wordsConsumed: 1}
}
func oriSRHandler(c *Cpu, ipc *IPC) {
	val := c.Regs.SR | uint16(ipc.Extra)
	c.Regs.setSupervisor(val&srSupervisor != 0)
	c.Regs.SR = val
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeEoriCCR(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Extra: int32(imm), Handler: eoriCCRHandler, Clocks: 20, wordsConsumed: 1}
}
func eoriCCRHandler(c *Cpu, ipc *IPC) {
	c.Regs.SR ^= uint16(ipc.Extra) & 0xFF
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeEoriSR(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Extra: int32(imm), Handler: eoriSRHandler, Clocks: 20, wordsConsumed: 1}
}
func eoriSRHandler(c *Cpu, ipc *IPC) {
	val := c.Regs.SR ^ uint16(ipc.Extra)
	c.Regs.setSupervisor(val&srSupervisor != 0)
	c.Regs.SR = val
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

type bitOp func(bit uint32, val uint32) (newVal uint32, testBit uint32)

func btstOp(bit, val uint32) (uint32, uint32)  { return val, val & (1 << bit) }
func bchgOp(bit, val uint32) (uint32, uint32)  { return val ^ (1 << bit), val & (1 << bit) }
func bclrOp(bit, val uint32) (uint32, uint32)  { return val &^ (1 << bit), val & (1 << bit) }
func bsetOp(bit, val uint32) (uint32, uint32)  { return val | (1 << bit), val & (1 << bit) }

// registerBitOpsDynamic wires 0000 ddd 1oo mmm rrr (Dn supplies the bit
// number), register-direct destination only (mode 0).
func registerBitOpsDynamic() {
	ops := map[uint16]bitOp{0x100: btstOp, 0x140: bchgOp, 0x180: bclrOp, 0x1C0: bsetOp}
	for base, op := range ops {
		for dn := uint16(0); dn < 8; dn++ {
			for reg := uint16(0); reg < 8; reg++ {
				opcode := base | (dn << 9) | reg
				d, r, o := uint8(dn), uint8(reg), op
				decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
					return IPC{
						PC:      pc,
						Opcode:  c.Mem.ReadWord(pc),
						Src:     Operand{Kind: OpDataReg, Reg: d},
						Dst:     Operand{Kind: OpDataReg, Reg: r},
						Handler: bitOpHandler(o, Long),
						Clocks:  6,
					}
				}
			}
		}
	}
}

// registerBitOpsImmediate wires 0000 1000 oo mmm rrr, extension word holds
// the bit number, register-direct destination only.
func registerBitOpsImmediate() {
	ops := map[uint16]bitOp{0x800: btstOp, 0x840: bchgOp, 0x880: bclrOp, 0x8C0: bsetOp}
	for base, op := range ops {
		for reg := uint16(0); reg < 8; reg++ {
			opcode := base | reg
			r, o := uint8(reg), op
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				bitNum := c.Mem.ReadWord(pc + 2)
				return IPC{
					PC:            pc,
					Opcode:        c.Mem.ReadWord(pc),
					Src:           Operand{Kind: OpImmediate, Imm: uint32(bitNum)},
					Dst:           Operand{Kind: OpDataReg, Reg: r},
					Handler:       bitOpHandler(o, Long),
					Clocks:        10,
					wordsConsumed: 1,
				}
			}
		}
	}
}

func bitOpHandler(op bitOp, size Size) func(c *Cpu, ipc *IPC) {
	return func(c *Cpu, ipc *IPC) {
		bit := c.readOperand(&ipc.Src, Long) & uint32(size*8-1)
		val := c.readOperand(&ipc.Dst, size)
		newVal, test := op(bit, val)
		c.writeOperand(&ipc.Dst, size, newVal)
		if test == 0 {
			c.Regs.SR |= srZero
		} else {
			c.Regs.SR &^= srZero
		}
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
	}
}

type shiftOp func(val uint32, count uint8, size Size) (result uint32, carry bool)

func aslOp(val uint32, count uint8, size Size) (uint32, bool) {
	msb := size.MSB()
	carry := false
	for i := uint8(0); i < count; i++ {
		carry = val&msb != 0
		val = (val << 1) & size.Mask()
	}
	return val, carry
}
func asrOp(val uint32, count uint8, size Size) (uint32, bool) {
	sign := val & size.MSB()
	carry := false
	for i := uint8(0); i < count; i++ {
		carry = val&1 != 0
		val = (val >> 1) | sign
	}
	return val & size.Mask(), carry
}
func lslOp(val uint32, count uint8, size Size) (uint32, bool) {
	return aslOp(val, count, size)
}
func lsrOp(val uint32, count uint8, size Size) (uint32, bool) {
	carry := false
	for i := uint8(0); i < count; i++ {
		carry = val&1 != 0
		val >>= 1
	}
	return val & size.Mask(), carry
}
func rolOp(val uint32, count uint8, size Size) (uint32, bool) {
	bits := uint8(size * 8)
	carry := false
	for i := uint8(0); i < count; i++ {
		msb := val & size.MSB()
		carry = msb != 0
		val = ((val << 1) | (msb >> (bits - 1))) & size.Mask()
	}
	return val, carry
}
func rorOp(val uint32, count uint8, size Size) (uint32, bool) {
	bits := uint8(size * 8)
	carry := false
	for i := uint8(0); i < count; i++ {
		lsb := val & 1
		carry = lsb != 0
		val = ((val >> 1) | (lsb << (bits - 1))) & size.Mask()
	}
	return val, carry
}

// registerShifts wires the immediate-count register-direct forms of
// ASL/ASR/LSL/LSR/ROL/ROR: 1110 ccc d ss 0 tt rrr.
func registerShifts() {
	type entry struct {
		typ uint16
		dir uint16
		op  shiftOp
	}
	entries := []entry{
		{0b00, 0, asrOp}, {0b00, 1, aslOp},
		{0b01, 0, lsrOp}, {0b01, 1, lslOp},
		{0b11, 0, rorOp}, {0b11, 1, rolOp},
	}
	sizes := []Size{Byte, Word, Long}
	for _, e := range entries {
		for count := uint16(0); count < 8; count++ {
			for sizeIdx, size := range sizes {
				for reg := uint16(0); reg < 8; reg++ {
					opcode := 0xE000 | (count << 9) | (e.dir << 8) | (uint16(sizeIdx) << 6) | (e.typ << 3) | reg
					n := uint8(count)
					if n == 0 {
						n = 8
					}
					r, sz, o := uint8(reg), size, e.op
					decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
						return IPC{
							PC:      pc,
							Opcode:  c.Mem.ReadWord(pc),
							Size:    sz,
							Extra:   int32(n),
							Dst:     Operand{Kind: OpDataReg, Reg: r},
							Handler: shiftHandler(o),
							Clocks:  6 + uint16(n)*2,
						}
					}
				}
			}
		}
	}
}

func shiftHandler(op shiftOp) func(c *Cpu, ipc *IPC) {
	return func(c *Cpu, ipc *IPC) {
		val := c.readOperand(&ipc.Dst, ipc.Size)
		result, carry := op(val, uint8(ipc.Extra), ipc.Size)
		c.writeOperand(&ipc.Dst, ipc.Size, result)
		c.Regs.SR &^= srNegative | srZero | srOverflow | srCarry | srExtend
		if result&ipc.Size.Mask() == 0 {
			c.Regs.SR |= srZero
		}
		if result&ipc.Size.MSB() != 0 {
			c.Regs.SR |= srNegative
		}
		if carry {
			c.Regs.SR |= srCarry | srExtend
		}
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
	}
}

// registerScc wires 0101 cccc 11 mmm rrr with mode forced to 0 (Dn direct),
// the one form that never collides with DBcc's reuse of the same opcode
// group.
func registerScc() {
	for cond := uint16(0); cond < 16; cond++ {
		for reg := uint16(0); reg < 8; reg++ {
			opcode := 0x50C0 | (cond << 8) | reg
			c8, r := uint8(cond), uint8(reg)
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				return IPC{
					PC:      pc,
					Opcode:  c.Mem.ReadWord(pc),
					Dst:     Operand{Kind: OpDataReg, Reg: r},
					Extra:   int32(c8),
					Handler: sccHandler,
					Clocks:  4,
				}
			}
		}
	}
}

func sccHandler(c *Cpu, ipc *IPC) {
	val := uint32(0)
	if c.condTrue(uint8(ipc.Extra)) {
		val = 0xFF
	}
	c.writeOperand(&ipc.Dst, Byte, val)
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}
