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

import (
	"fmt"
	"io"

	"github.com/Tmesys/GnGeoX-sub002/mem"
)

// Diagnostics receives non-fatal core diagnostics (spec.md §7). A nil
// Diagnostics is valid; diagnostics are then dropped on the floor, which is
// a legitimate choice for a host that doesn't care to log them.
type Diagnostics interface {
	InvalidOpcode(pc uint32, opcode uint16)
}

// Cpu owns one 68000's entire mutable state: the register file, the cycle
// accumulator, and the block cache. Collaborator tables (the opcode
// descriptor/decode table) stay process-wide and read-only, as spec.md §9
// directs; everything that was a process-wide global in the original is
// folded into this value so more than one Cpu can coexist.
type Cpu struct {
	Regs Regs

	Mem  *mem.Map
	diag Diagnostics

	// Clocks is the monotonically increasing cycle accumulator
	// (cpu68k_clocks in the original).
	Clocks uint64

	cache [lenIPCListTable]*ipcList
}

// New returns a freshly reset Cpu wired to the given memory map.
func New(m *mem.Map, diag Diagnostics) *Cpu {
	c := &Cpu{Mem: m, diag: diag}
	c.Reset()
	return c
}

// Reset loads the initial SSP/PC from addresses 0 and 4 (the 68000 reset
// exception) and clears all other state.
func (c *Cpu) Reset() {
	c.Regs = Regs{}
	c.Regs.SR = srSupervisor | srIMask // supervisor mode, interrupts masked
	c.Regs.A[7] = c.Mem.ReadLong(0)
	c.Regs.PC = c.Mem.ReadLong(4)
	c.Clocks = 0
	for i := range c.cache {
		c.cache[i] = nil
	}
}

func (c *Cpu) reportInvalid(pc uint32, opcode uint16) {
	if c.diag != nil {
		c.diag.InvalidOpcode(pc, opcode)
	}
}

// maybeDeliverPending delivers a latched autovector if the current mask now
// permits it. Called once before Step's fetch and once before Execute's
// first iteration, mirroring reg68k_external_step/reg68k_external_execute
// both checking regs.pending up front.
func (c *Cpu) maybeDeliverPending() {
	p := c.Regs.pending
	if p != 0 && c.Regs.IMask() < p {
		c.Autovector(p)
	}
}

// Step executes exactly one guest instruction (or, if STOP is in effect and
// no interrupt is deliverable, idles four clocks) and returns the number of
// clocks it cost.
func (c *Cpu) Step() uint16 {
	c.maybeDeliverPending()

	if c.Regs.stop {
		c.Clocks += 4
		return 4
	}

	opcode := c.Mem.ReadWord(c.Regs.PC)
	decode := decodeTable[opcode]
	if decode == nil {
		c.reportInvalid(c.Regs.PC, opcode)
		c.Regs.PC += 2
		c.Clocks += 4
		return 4
	}

	ipc := decode(c, c.Regs.PC)
	ipc.Handler(c, &ipc)
	c.Clocks += uint64(ipc.Clocks)
	return ipc.Clocks
}

// Execute runs until at least clocks cycles have been accounted for and
// returns the non-negative overrun: how many cycles past the budget the
// last unit of work (one uncached RAM run up to EndBlk, or one cached
// block) consumed.
func (c *Cpu) Execute(clocks int) int {
	c.maybeDeliverPending()

	remaining := clocks
	for remaining > 0 {
		if c.Regs.stop && !c.stopInterruptDeliverable() {
			// Open Question #2 (DESIGN.md): idle the whole remaining
			// budget at once instead of spinning RAM-style fetches.
			c.Clocks += uint64(remaining)
			remaining = 0
			break
		}

		pc24 := c.Regs.PC & 0x00FFFFFF

		if mem.InRAMWindow(pc24) {
			remaining -= c.runRAMInstruction()
			continue
		}

		list := c.lookupOrBuild(pc24)
		for i := range list.insts {
			ipc := &list.insts[i]
			ipc.Handler(c, ipc)
		}
		remaining -= int(list.totalClocks)
		c.Clocks += uint64(list.totalClocks)
	}
	if remaining < 0 {
		return -remaining
	}
	return 0
}

// stopInterruptDeliverable reports whether a currently-pending interrupt
// would actually be delivered right now (mask check only; frozen and
// pending==0 both make this false).
func (c *Cpu) stopInterruptDeliverable() bool {
	p := c.Regs.pending
	return p != 0 && !c.Regs.frozen && (c.Regs.IMask() < p || p == 7)
}

// runRAMInstruction decode-executes instructions out of the writable RAM
// window one at a time without touching the block cache (spec.md §4.1,
// RAM branch), until one whose descriptor has EndBlk set has run or an
// undecodable opcode is skipped, and returns their total clock cost.
func (c *Cpu) runRAMInstruction() int {
	opcode := c.Mem.ReadWord(c.Regs.PC)
	decode := decodeTable[opcode]
	if decode == nil {
		c.reportInvalid(c.Regs.PC, opcode)
		c.Regs.PC += 2
		c.Clocks += 4
		return 4
	}
	ipc := decode(c, c.Regs.PC)
	cost := 0
	for {
		ipc.Handler(c, &ipc)
		c.Clocks += uint64(ipc.Clocks)
		cost += int(ipc.Clocks)
		if ipc.EndBlk {
			return cost
		}
		// Open Question #1 (DESIGN.md): the original never re-samples
		// pending between RAM-mode instructions; we match that.
		opcode = c.Mem.ReadWord(c.Regs.PC)
		decode = decodeTable[opcode]
		if decode == nil {
			c.reportInvalid(c.Regs.PC, opcode)
			c.Regs.PC += 2
			c.Clocks += 4
			return cost + 4
		}
		ipc = decode(c, c.Regs.PC)
	}
}

// AutovectorExternal requests delivery of interrupt level (1-7), for use by
// a host device raising an interrupt line.
func (c *Cpu) AutovectorExternal(level uint8) {
	c.Autovector(level)
}

// PrintStats dumps every non-empty cache chain, mirroring reg68k_printstat,
// extended with each list's compiled-pass counter (SPEC_FULL.md §
// SUPPLEMENTED FEATURES item 1).
func (c *Cpu) PrintStats(w io.Writer) {
	for _, list := range c.cache {
		for list != nil {
			fmt.Fprintf(w, "%08X bank=%08X pass=%d insts=%d clocks=%d\n",
				list.pc, list.bank, list.pass, len(list.insts), list.totalClocks)
			list = list.next
		}
	}
}
