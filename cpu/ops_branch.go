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

// Control-flow instructions: Bcc/BRA/BSR, DBcc, JMP, JSR, RTS, RTE, TRAP,
// STOP. Every handler in this file sets EndBlk (DESIGN.md Open Question 3):
// each one can redirect, suspend, or otherwise break the straight-line PC
// sequence a compiled block assumes, so none of them may appear anywhere
// but last in an IPC list.

func init() {
	registerBcc()
	registerDbcc()
	registerJmp()
	registerJsr()
	register(0x4E75, 0xFFFF, decodeRts)
	register(0x4E73, 0xFFFF, decodeRte)
	registerTrap()
	register(0x4E72, 0xFFFF, decodeStop)
}

// registerBcc wires 0110 cccc dddddddd: condition 0x0 is BRA, 0x1 is BSR,
// 0x2-0xF are the 14 true conditional branches (0110 0000/0001 are reserved
// out of the usual Scc/DBcc condition space for BRA/BSR instead).
func registerBcc() {
	for cond := uint16(0); cond < 16; cond++ {
		for disp := uint16(0); disp < 256; disp++ {
			opcode := 0x6000 | (cond << 8) | disp
			c8, d8 := uint8(cond), uint8(disp)
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				return decodeBccAt(c, pc, c8, d8)
			}
		}
	}
}

func decodeBccAt(c *Cpu, pc uint32, cond, disp8 uint8) IPC {
	var extra int32
	var words uint8
	if disp8 == 0 {
		extra = int32(int16(c.Mem.ReadWord(pc + 2)))
		words = 1
	} else {
		extra = int32(int8(disp8))
	}

	ipc := IPC{
		PC:            pc,
		Opcode:        c.Mem.ReadWord(pc),
		Extra:         extra,
		EndBlk:        true,
		Clocks:        10,
		wordsConsumed: words,
	}
	switch cond {
	case 0x0:
		ipc.Handler = braHandler
	case 0x1:
		ipc.Handler = bsrHandler
		ipc.Clocks = 18
	default:
		ipc.Dst = Operand{Reg: cond}
		ipc.Handler = bccHandler
	}
	return ipc
}

func branchTarget(ipc *IPC) uint32 {
	return uint32(int32(ipc.PC+2) + ipc.Extra)
}

func braHandler(c *Cpu, ipc *IPC) {
	c.Regs.PC = branchTarget(ipc)
}

func bsrHandler(c *Cpu, ipc *IPC) {
	ret := nextInstructionPC(ipc.PC, ipc)
	c.Regs.A[7] -= 4
	c.writeMem(c.Regs.A[7], Long, ret)
	c.Regs.PC = branchTarget(ipc)
}

func bccHandler(c *Cpu, ipc *IPC) {
	if c.condTrue(ipc.Dst.Reg) {
		c.Regs.PC = branchTarget(ipc)
	} else {
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
	}
}

// registerDbcc wires 0101 cccc 11001 rrr, a word displacement extension.
func registerDbcc() {
	for cond := uint16(0); cond < 16; cond++ {
		for dn := uint16(0); dn < 8; dn++ {
			opcode := 0x50C8 | (cond << 8) | dn
			c8, d8 := uint8(cond), uint8(dn)
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				disp := int32(int16(c.Mem.ReadWord(pc + 2)))
				return IPC{
					PC:            pc,
					Opcode:        c.Mem.ReadWord(pc),
					Dst:           Operand{Kind: OpDataReg, Reg: d8},
					Extra:         disp,
					Src:           Operand{Reg: c8},
					Handler:       dbccHandler,
					Clocks:        10,
					EndBlk:        true,
					wordsConsumed: 1,
				}
			}
		}
	}
}

func dbccHandler(c *Cpu, ipc *IPC) {
	if c.condTrue(ipc.Src.Reg) {
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
		return
	}
	count := int16(c.Regs.D[ipc.Dst.Reg])
	count--
	c.Regs.D[ipc.Dst.Reg] = (c.Regs.D[ipc.Dst.Reg] &^ 0xFFFF) | uint32(uint16(count))
	if count == -1 {
		c.Regs.PC = nextInstructionPC(ipc.PC, ipc)
		return
	}
	c.Regs.PC = branchTarget(ipc)
}

// registerJmp/registerJsr wire 0100 1110 1(1|0) mmm rrr, control addressing
// modes only.
func registerJmp() { registerControlTransfer(0x4EC0, jmpHandler) }
func registerJsr() { registerControlTransfer(0x4E80, jsrHandler) }

func registerControlTransfer(base uint16, handler func(c *Cpu, ipc *IPC)) {
	controlModes := []uint8{2, 5, 7}
	for _, mode := range controlModes {
		regs := []uint8{0, 1, 2, 3, 4, 5, 6, 7}
		if mode == 7 {
			regs = []uint8{0, 1}
		}
		for _, reg := range regs {
			opcode := base | (uint16(mode) << 3) | uint16(reg)
			m, r := mode, reg
			decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
				ea, words := decodeEA(c, pc+2, m, r, Long)
				return IPC{
					PC:            pc,
					Opcode:        c.Mem.ReadWord(pc),
					Src:           ea,
					Handler:       handler,
					Clocks:        12,
					EndBlk:        true,
					wordsConsumed: words,
				}
			}
		}
	}
}

func jmpHandler(c *Cpu, ipc *IPC) {
	c.Regs.PC = c.eaAddress(&ipc.Src, Long)
}

func jsrHandler(c *Cpu, ipc *IPC) {
	ret := nextInstructionPC(ipc.PC, ipc)
	target := c.eaAddress(&ipc.Src, Long)
	c.Regs.A[7] -= 4
	c.writeMem(c.Regs.A[7], Long, ret)
	c.Regs.PC = target
}

func decodeRts(c *Cpu, pc uint32) IPC {
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Handler: rtsHandler, Clocks: 16, EndBlk: true}
}

func rtsHandler(c *Cpu, ipc *IPC) {
	c.Regs.PC = c.readMem(c.Regs.A[7], Long)
	c.Regs.A[7] += 4
}

func decodeRte(c *Cpu, pc uint32) IPC {
	return IPC{PC: pc, Opcode: c.Mem.ReadWord(pc), Handler: rteHandler, Clocks: 20, EndBlk: true}
}

// rteHandler pops SR then PC, mirroring the push order Autovector/
// VectorInternal use (interrupt.go).
func rteHandler(c *Cpu, ipc *IPC) {
	sr := uint16(c.readMem(c.Regs.A[7], Word))
	c.Regs.A[7] += 2
	pc := c.readMem(c.Regs.A[7], Long)
	c.Regs.A[7] += 4
	c.Regs.setSupervisor(sr&srSupervisor != 0)
	c.Regs.SR = sr
	c.Regs.PC = pc
}

// registerTrap wires 0100 1110 0100 vvvv: software traps, vector = 32+v.
func registerTrap() {
	for v := uint16(0); v < 16; v++ {
		opcode := 0x4E40 | v
		vec := uint8(v)
		decodeTable[opcode] = func(c *Cpu, pc uint32) IPC {
			return IPC{
				PC:      pc,
				Opcode:  c.Mem.ReadWord(pc),
				Extra:   int32(vec),
				Handler: trapHandler,
				Clocks:  34,
				EndBlk:  true,
			}
		}
	}
}

func trapHandler(c *Cpu, ipc *IPC) {
	vector := 32 + uint8(ipc.Extra)
	returnPC := nextInstructionPC(ipc.PC, ipc)
	c.VectorInternal(vector, returnPC)
}

func decodeStop(c *Cpu, pc uint32) IPC {
	imm := c.Mem.ReadWord(pc + 2)
	return IPC{
		PC:            pc,
		Opcode:        c.Mem.ReadWord(pc),
		Extra:         int32(imm),
		Handler:       stopHandler,
		Clocks:        4,
		EndBlk:        true,
		wordsConsumed: 1,
	}
}

func stopHandler(c *Cpu, ipc *IPC) {
	c.Regs.SR = uint16(ipc.Extra)
	c.Regs.stop = true
	// The 68000 halts after STOP without advancing past it; PC stays
	// rewound to the instruction's own start so that Autovector's lone
	// +4 on wake lands on the correct resume address (DESIGN.md).
	c.Regs.PC = ipc.PC
}
