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

// Autovector attempts to deliver interrupt level (1-7). If the current mask
// doesn't yet permit it (or frozen suppresses delivery), the level is
// latched into Regs.pending instead and delivered at a later block
// boundary. Ported in semantics from
// original_source/reg68k.c:reg68k_internal_autovector (DESIGN.md).
func (c *Cpu) Autovector(level uint8) {
	cur := c.Regs.IMask()

	if (cur < level || level == 7) && !c.Regs.frozen {
		if c.Regs.stop {
			// stopHandler rewinds PC to the STOP #imm's own start (real
			// hardware behavior) instead of advancing past it, so this is
			// the only +4: it steps over the 2-word instruction whose
			// suspension this interrupt now ends.
			c.Regs.PC += 4
			c.Regs.stop = false
		}

		c.Regs.setSupervisor(true)

		c.Regs.A[7] -= 4
		c.Mem.WriteLong(c.Regs.A[7], c.Regs.PC)
		c.Regs.A[7] -= 2
		c.Mem.WriteWord(c.Regs.A[7], c.Regs.SR)

		c.Regs.SR &^= srTrace
		c.Regs.setIMask(level)

		c.Regs.PC = c.Mem.ReadLong(uint32(V_AUTO+int(level)-1) * 4)
		c.Regs.pending = 0
		return
	}

	c.Regs.pending = level
}

// VectorInternal delivers a non-autovector exception at vectorNo, pushing
// savedPC (not the live Regs.PC) as the return address. Used for
// synchronous exceptions — traps, illegal instructions, address errors —
// where the caller already knows the exact PC to resume at. Does not touch
// pending, stop, trace or the interrupt mask: synchronous exceptions have
// their own mask rules, handled by the traps that raise them. Ported in
// semantics from original_source/reg68k.c:reg68k_internal_vector.
func (c *Cpu) VectorInternal(vectorNo uint8, savedPC uint32) {
	c.Regs.setSupervisor(true)

	c.Regs.A[7] -= 4
	c.Mem.WriteLong(c.Regs.A[7], savedPC)
	c.Regs.A[7] -= 2
	c.Mem.WriteWord(c.Regs.A[7], c.Regs.SR)

	c.Regs.PC = c.Mem.ReadLong(uint32(vectorNo) * 4)
}
