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

// ADD, SUB, AND, OR, EOR, CMP, CMPI, ADDQ, SUBQ: the "ea <op> Dn" / "Dn <op>
// ea" family that shares one bit layout across the five logical/
// arithmetic opcodes ADD, SUB, AND, OR and EOR (bits 15-12 select the op,
// opmode bits 8-6 select size and direction). One generic builder below
// produces all five families' decode table entries instead of five
// near-duplicate loops,
// matching rcornwell-S370's preference for table-driven construction over
// repeated handwritten cases (op_arith.go's opcode-group dispatch).

type aluOp func(src, dst uint32, size Size) uint32
type aluFlags func(c *Cpu, src, dst, result uint32, size Size)

func init() {
	registerAluFamily(0xD000, func(s, d uint32, sz Size) uint32 { return d + s }, (*Cpu).setFlagsAdd, true, true)  // ADD
	registerAluFamily(0x9000, func(s, d uint32, sz Size) uint32 { return d - s }, (*Cpu).setFlagsSub, true, true)  // SUB
	registerAluFamily(0xC000, func(s, d uint32, sz Size) uint32 { return d & s }, logicFlags, true, true)          // AND
	registerAluFamily(0x8000, func(s, d uint32, sz Size) uint32 { return d | s }, logicFlags, true, true)          // OR
	registerAluFamily(0xB000, func(s, d uint32, sz Size) uint32 { return d ^ s }, logicFlags, false, true)         // EOR (Dn->ea only)
	registerCmpFamily()
	registerCmpi()
	registerQuick(0x5000, func(s, d uint32, sz Size) uint32 { return d + s }, (*Cpu).setFlagsAdd) // ADDQ
	registerQuick(0x5100, func(s, d uint32, sz Size) uint32 { return d - s }, (*Cpu).setFlagsSub) // SUBQ
}

func logicFlags(c *Cpu, src, dst, result uint32, size Size) {
	c.setFlagsLogic(result, size)
}

// registerAluFamily wires the common "1zzz rrr ooo mmm rrr" layout: bits
// 15-12 = base, bits 11-9 = Dn register, bits 8-6 = opmode (size + direction),
// bits 5-0 = the other operand's effective address.
func registerAluFamily(base uint16, op aluOp, flags aluFlags, allowEaToDn, allowDnToEa bool) {
	sizes := []Size{Byte, Word, Long}
	for dn := uint16(0); dn < 8; dn++ {
		for sizeIdx, size := range sizes {
			if allowEaToDn {
				registerAluDirection(base, dn, uint16(sizeIdx), size, op, flags, true)
			}
			if allowDnToEa {
				registerAluDirection(base, dn, uint16(sizeIdx+4), size, op, flags, false)
			}
		}
	}
}

func registerAluDirection(base, dn, opmode uint16, size Size, op aluOp, flags aluFlags, eaToDn bool) {
	for mode := uint16(0); mode < 8; mode++ {
		for reg := uint16(0); reg < 8; reg++ {
			if mode == 7 && reg > 4 {
				continue
			}
			if !eaToDn && (mode == 0 || mode == 1) {
				continue // Dn->ea direction needs a memory destination
			}
			if !eaToDn && mode == 7 && reg >= 2 {
				continue // no PC-relative/immediate destination
			}
			opcode := base | (dn << 9) | (opmode << 6) | (mode << 3) | reg
			d, m, r, sz := uint8(dn), uint8(mode), uint8(reg), size
			o, f, e2d := op, flags, eaToDn
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				return decodeAluAt(c, pc, sz, m, r, d, o, f, e2d)
			}
		}
	}
}

func decodeAluAt(c *Cpu, pc uint32, size Size, mode, reg, dn uint8, op aluOp, flags aluFlags, eaToDn bool) IPC {
	ea, words := decodeEA(c, pc+2, mode, reg, size)
	dnOperand := Operand{Kind: OpDataReg, Reg: dn}
	ipc := IPC{
		PC:            pc,
		Opcode:        c.Mem.ReadWord(pc),
		Size:          size,
		Clocks:        4,
		wordsConsumed: words,
	}
	if eaToDn {
		ipc.Src, ipc.Dst = ea, dnOperand
	} else {
		ipc.Src, ipc.Dst = dnOperand, ea
	}
	ipc.Handler = func(c *Cpu, ipc *IPC) {
		src := c.readOperand(&ipc.Src, ipc.Size)
		dst := c.readOperand(&ipc.Dst, ipc.Size)
		result := op(src, dst, ipc.Size)
		c.writeOperand(&ipc.Dst, ipc.Size, result)
		flags(c, src, dst, result, ipc.Size)
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
	}
	return ipc
}

// registerCmpFamily wires CMP ea,Dn: bits 15-12 = 1011, opmode 000/001/010.
func registerCmpFamily() {
	sizes := []Size{Byte, Word, Long}
	for dn := uint16(0); dn < 8; dn++ {
		for sizeIdx, size := range sizes {
			for mode := uint16(0); mode < 8; mode++ {
				for reg := uint16(0); reg < 8; reg++ {
					if mode == 7 && reg > 4 {
						continue
					}
					opcode := 0xB000 | (dn << 9) | (uint16(sizeIdx) << 6) | (mode << 3) | reg
					d, m, r, sz := uint8(dn), uint8(mode), uint8(reg), size
					decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
						src, words := decodeEA(c, pc+2, m, r, sz)
						return IPC{
							PC:            pc,
							Opcode:        c.Mem.ReadWord(pc),
							Size:          sz,
							Src:           src,
							Dst:           Operand{Kind: OpDataReg, Reg: d},
							Handler:       cmpHandler,
							Clocks:        4,
							wordsConsumed: words,
						}
					}
				}
			}
		}
	}
}

func cmpHandler(c *Cpu, ipc *IPC) {
	src := c.readOperand(&ipc.Src, ipc.Size)
	dst := c.readOperand(&ipc.Dst, ipc.Size)
	c.setFlagsCmp(src, dst, dst-src, ipc.Size)
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

// registerCmpi wires CMPI #imm,ea: 0000 1100 SS MMM RRR.
func registerCmpi() {
	sizes := []Size{Byte, Word, Long}
	for sizeBits, size := range sizes {
		for mode := uint16(0); mode < 8; mode++ {
			for reg := uint16(0); reg < 8; reg++ {
				if mode == 1 || (mode == 7 && reg > 1) {
					continue // no An destination, data-alterable only
				}
				opcode := 0x0C00 | (uint16(sizeBits) << 6) | (mode << 3) | reg
				sz, m, r := size, uint8(mode), uint8(reg)
				decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
					imm, immWords := decodeEA(c, pc+2, 7, 4, sz)
					dst, dstWords := decodeEA(c, pc+2+uint32(immWords)*2, m, r, sz)
					return IPC{
						PC:            pc,
						Opcode:        c.Mem.ReadWord(pc),
						Size:          sz,
						Src:           imm,
						Dst:           dst,
						Handler:       cmpHandler,
						Clocks:        8,
						wordsConsumed: immWords + dstWords,
					}
				}
			}
		}
	}
}

// registerQuick wires ADDQ/SUBQ #data,ea: 0101 ddd 0 SS MMM RRR, data 1-8
// (0 encodes 8).
func registerQuick(base uint16, op aluOp, flags aluFlags) {
	sizes := []Size{Byte, Word, Long}
	for data := uint16(0); data < 8; data++ {
		for sizeIdx, size := range sizes {
			for mode := uint16(0); mode < 8; mode++ {
				for reg := uint16(0); reg < 8; reg++ {
					if mode == 7 && reg > 1 {
						continue
					}
					opcode := base | (data << 9) | (uint16(sizeIdx) << 6) | (mode << 3) | reg
					imm := data
					if imm == 0 {
						imm = 8
					}
					m, r, sz := uint8(mode), uint8(reg), size
					o, f := op, flags
					decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
						dst, words := decodeEA(c, pc+2, m, r, sz)
						return IPC{
							PC:            pc,
							Opcode:        c.Mem.ReadWord(pc),
							Size:          sz,
							Src:           Operand{Kind: OpImmediate, Imm: uint32(imm)},
							Dst:           dst,
							Handler:       quickHandler(o, f),
							Clocks:        4,
							wordsConsumed: words,
						}
					}
				}
			}
		}
	}
}

func quickHandler(op aluOp, flags aluFlags) func(c *Cpu, ipc *IPC) {
	return func(c *Cpu, ipc *IPC) {
		src := c.readOperand(&ipc.Src, ipc.Size)
		dst := c.readOperand(&ipc.Dst, ipc.Size)
		result := op(src, dst, ipc.Size)
		c.writeOperand(&ipc.Dst, ipc.Size, result)
		if ipc.Dst.Kind != OpAddrReg {
			flags(c, src, dst, result, ipc.Size)
		}
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
	}
}
