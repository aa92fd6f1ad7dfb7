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

// compile pre-decodes instructions starting at pc24 up to and including the
// first one whose descriptor has EndBlk set, producing an IPC list tagged
// with the bank under which it was compiled. compile is a pure function of
// ROM content at the moment it runs: it only ever reads through c.Mem and
// never mutates guest-visible state (spec.md §4.4).
func (c *Cpu) compile(pc24 uint32, bank uint32) *ipcList {
	list := &ipcList{pc: pc24, bank: bank, pass: 1}

	pc := pc24
	for {
		opcode := c.Mem.ReadWord(pc)
		decode := decodeTable[opcode]
		if decode == nil {
			// An invalid opcode still terminates the block: there is
			// nothing correct to keep compiling past it. The runtime
			// reportInvalid path handles the diagnostic when this
			// instruction actually executes.
			ipc := IPC{
				PC:      pc,
				Opcode:  opcode,
				Handler: illegalHandler,
				Clocks:  4,
				EndBlk:  true,
			}
			list.insts = append(list.insts, ipc)
			list.totalClocks += uint32(ipc.Clocks)
			break
		}

		ipc := decode(c, pc)
		list.insts = append(list.insts, ipc)
		list.totalClocks += uint32(ipc.Clocks)

		if ipc.EndBlk {
			break
		}
		pc = nextInstructionPC(pc, &ipc)
	}

	return list
}

// illegalHandler advances past an opcode word the decode table has no
// descriptor for (spec.md §7: best-effort NOP-equivalent advance, core must
// not crash).
func illegalHandler(c *Cpu, ipc *IPC) {
	c.reportInvalid(ipc.PC, ipc.Opcode)
	c.Regs.PC = ipc.PC + 2
}

// nextInstructionPC derives where the next instruction in a block starts.
// Every handler advances Regs.PC itself as part of executing, so during
// compilation (where handlers never run) we derive the same address from
// how many extension words the decode step consumed, recorded in
// ipc.wordsConsumed.
func nextInstructionPC(pc uint32, ipc *IPC) uint32 {
	return pc + 2 + uint32(ipc.wordsConsumed)*2
}
