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

// Data-movement instructions: MOVE, MOVEQ, LEA, CLR, NOP. Encodings follow
// the real 68000 instruction set; decode/execute split and clock costs are
// grounded on how the teacher's opcode handlers (rcornwell-S370's op_*.go)
// separate "figure out the operands" from "do the thing" into two
// functions joined by a table entry.

func init() {
	registerMove()
	registerMoveq()
	registerLea()
	registerClr()
	register(0x4E71, 0xFFFF, decodeNop)
}

var moveSizeFromBits = map[uint16]Size{0b01: Byte, 0b11: Word, 0b10: Long}

func registerMove() {
	for sizeBits, size := range moveSizeFromBits {
		sizeBits, size := sizeBits, size
		for dstMode := uint16(0); dstMode < 8; dstMode++ {
			for dstReg := uint16(0); dstReg < 8; dstReg++ {
				if dstMode == 7 && dstReg > 1 {
					continue // only abs.W/abs.L are valid destination mode-7 forms
				}
				if dstMode == 1 && size == Byte {
					continue // MOVEA.B does not exist
				}
				for srcMode := uint16(0); srcMode < 8; srcMode++ {
					for srcReg := uint16(0); srcReg < 8; srcReg++ {
						if srcMode == 7 && srcReg > 4 {
							continue
						}
						opcode := (sizeBits << 12) | (dstReg << 9) | (dstMode << 6) | (srcMode << 3) | srcReg
						dm, dr, sm, sr := uint8(dstMode), uint8(dstReg), uint8(srcMode), uint8(srcReg)
						sz := size
						decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
							return decodeMoveAt(c, pc, sz, sm, sr, dm, dr)
						}
					}
				}
			}
		}
	}
}

func decodeMoveAt(c *Cpu, pc uint32, size Size, srcMode, srcReg, dstMode, dstReg uint8) IPC {
	ext := pc + 2
	src, srcWords := decodeEA(c, ext, srcMode, srcReg, size)
	ext += uint32(srcWords) * 2
	dst, dstWords := decodeEA(c, ext, dstMode, dstReg, size)

	return IPC{
		PC:            pc,
		Opcode:        c.Mem.ReadWord(pc),
		Size:          size,
		Src:           src,
		Dst:           dst,
		Handler:       moveHandler,
		Clocks:        4,
		wordsConsumed: srcWords + dstWords,
	}
}

func moveHandler(c *Cpu, ipc *IPC) {
	val := c.readOperand(&ipc.Src, ipc.Size)
	if ipc.Dst.Kind == OpAddrReg {
		val = signExtend(val, ipc.Size)
		c.writeOperand(&ipc.Dst, Long, val)
	} else {
		c.writeOperand(&ipc.Dst, ipc.Size, val)
		c.setFlagsLogic(val, ipc.Size)
	}
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func signExtend(val uint32, size Size) uint32 {
	switch size {
	case Byte:
		return uint32(int32(int8(val)))
	case Word:
		return uint32(int32(int16(val)))
	default:
		return val
	}
}

func registerMoveq() {
	for reg := uint16(0); reg < 8; reg++ {
		for data := uint16(0); data < 256; data++ {
			opcode := 0x7000 | (reg << 9) | data
			r, d := uint8(reg), uint8(data)
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				return IPC{
					PC:      pc,
					Opcode:  c.Mem.ReadWord(pc),
					Dst:     Operand{Kind: OpDataReg, Reg: r},
					Extra:   int32(int8(d)),
					Handler: moveqHandler,
					Clocks:  4,
				}
			}
		}
	}
}

func moveqHandler(c *Cpu, ipc *IPC) {
	val := uint32(ipc.Extra)
	c.writeOperand(&ipc.Dst, Long, val)
	c.setFlagsLogic(val, Long)
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

// registerLea wires 0100 AAA 111 MMM RRR for the control addressing modes
// LEA can legally take: (An), d16(An), abs.W, abs.L.
func registerLea() {
	controlModes := []uint8{2, 5, 7}
	for an := uint16(0); an < 8; an++ {
		for _, mode := range controlModes {
			regs := []uint8{0, 1, 2, 3, 4, 5, 6, 7}
			if mode == 7 {
				regs = []uint8{0, 1}
			}
			for _, reg := range regs {
				opcode := 0x41C0 | (an << 9) | (uint16(mode) << 3) | uint16(reg)
				a, m, r := uint8(an), mode, reg
				decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
					return decodeLeaAt(c, pc, a, m, r)
				}
			}
		}
	}
}

func decodeLeaAt(c *Cpu, pc uint32, an, mode, reg uint8) IPC {
	src, words := decodeEA(c, pc+2, mode, reg, Long)
	return IPC{
		PC:            pc,
		Opcode:        c.Mem.ReadWord(pc),
		Src:           src,
		Dst:           Operand{Kind: OpAddrReg, Reg: an},
		Handler:       leaHandler,
		Clocks:        4,
		wordsConsumed: words,
	}
}

func leaHandler(c *Cpu, ipc *IPC) {
	addr := c.eaAddress(&ipc.Src, Long)
	c.writeOperand(&ipc.Dst, Long, addr)
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func registerClr() {
	sizes := []Size{Byte, Word, Long}
	for sizeBits, size := range sizes {
		for mode := uint16(0); mode < 8; mode++ {
			for reg := uint16(0); reg < 8; reg++ {
				if mode == 1 || (mode == 7 && reg > 1) {
					continue // no An destination, no PC-relative/immediate destination
				}
				opcode := 0x4200 | (uint16(sizeBits) << 6) | (mode << 3) | reg
				sz, m, r := size, uint8(mode), uint8(reg)
				decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
					dst, words := decodeEA(c, pc+2, m, r, sz)
					return IPC{
						PC:            pc,
						Opcode:        c.Mem.ReadWord(pc),
						Size:          sz,
						Dst:           dst,
						Handler:       clrHandler,
						Clocks:        4,
						wordsConsumed: words,
					}
				}
			}
		}
	}
}

func clrHandler(c *Cpu, ipc *IPC) {
	c.writeOperand(&ipc.Dst, ipc.Size, 0)
	c.setFlagsLogic(0, ipc.Size)
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}

func decodeNop(c *Cpu, pc uint32) IPC {
	return IPC{
		PC:      pc,
		Opcode:  c.Mem.ReadWord(pc),
		Handler: nopHandler,
		Clocks:  4,
	}
}

func nopHandler(c *Cpu, ipc *IPC) {
	c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
}
