/*
 * GnGeoX-sub002
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package cpu

import (
	"testing"

	"github.com/Tmesys/GnGeoX-sub002/mem"
)

// newVectoredCpu is like newTestCpu but also plants an autovector/exception
// vector table entry, since the table lives in ROM and ROM content has to be
// baked into the backing array before MapROM installs it.
func newVectoredCpu(t *testing.T, ssp, resetPC uint32, vectors map[uint8]uint32) (*Cpu, *mem.Map) {
	t.Helper()
	return newVectoredCpuWithROM(t, ssp, resetPC, vectors, nil)
}

// newVectoredCpuWithROM is newVectoredCpu plus an arbitrary setup callback
// for planting opcodes in ROM before it's mapped.
func newVectoredCpuWithROM(t *testing.T, ssp, resetPC uint32, vectors map[uint8]uint32, setup func(rom []byte)) (*Cpu, *mem.Map) {
	t.Helper()
	rom := make([]byte, testROMSize)
	putLong(rom, 0, ssp)
	putLong(rom, 4, resetPC)
	for vec, target := range vectors {
		putLong(rom, uint32(vec)*4, target)
	}
	if setup != nil {
		setup(rom)
	}
	m := mem.New(nil)
	m.MapROM(0, testROMSize, rom)
	m.MapRAM(mem.RAMBase, testRAMSize, make([]byte, testRAMSize))
	return New(m, nil), m
}

func TestAutovectorDeliversWhenUnmasked(t *testing.T) {
	const level3Target = 0x003000
	c, _ := newVectoredCpu(t, mem.RAMBase+0x0FF0, 0x001000, map[uint8]uint32{
		V_AUTO + 3 - 1: level3Target,
	})
	c.Regs.setIMask(0)
	savedPC, savedSR := c.Regs.PC, c.Regs.SR

	c.Autovector(3)

	if c.Regs.PC != level3Target {
		t.Fatalf("PC = %06X, want %06X", c.Regs.PC, level3Target)
	}
	if c.Regs.IMask() != 3 {
		t.Fatalf("IMask = %d, want 3", c.Regs.IMask())
	}
	if !c.Regs.S() {
		t.Fatal("autovector delivery must force supervisor mode")
	}
	if c.Regs.pending != 0 {
		t.Fatalf("pending = %d, want 0 (delivered, not latched)", c.Regs.pending)
	}
	if got := c.Mem.ReadWord(c.Regs.A[7]); got != savedSR {
		t.Fatalf("pushed SR = %04X, want %04X", got, savedSR)
	}
	if got := c.Mem.ReadLong(c.Regs.A[7] + 2); got != savedPC {
		t.Fatalf("pushed PC = %06X, want %06X", got, savedPC)
	}
}

func TestAutovectorLatchesWhenMasked(t *testing.T) {
	c, _ := newVectoredCpu(t, mem.RAMBase+0x0FF0, 0x001000, nil)
	c.Regs.setIMask(7)
	pc := c.Regs.PC

	c.Autovector(3)

	if c.Regs.PC != pc {
		t.Fatalf("PC moved on a masked autovector: %06X, want %06X", c.Regs.PC, pc)
	}
	if c.Regs.pending != 3 {
		t.Fatalf("pending = %d, want 3", c.Regs.pending)
	}
}

func TestAutovectorLevel7AlwaysDelivers(t *testing.T) {
	const nmiTarget = 0x004000
	c, _ := newVectoredCpu(t, mem.RAMBase+0x0FF0, 0x001000, map[uint8]uint32{
		V_AUTO + 7 - 1: nmiTarget,
	})
	c.Regs.setIMask(7) // fully masked

	c.Autovector(7)

	if c.Regs.PC != nmiTarget {
		t.Fatalf("level 7 must always deliver even when fully masked; PC = %06X", c.Regs.PC)
	}
	if c.Regs.pending != 0 {
		t.Fatalf("pending = %d, want 0", c.Regs.pending)
	}
}

func TestFrozenSuppressesDelivery(t *testing.T) {
	c, _ := newVectoredCpu(t, mem.RAMBase+0x0FF0, 0x001000, map[uint8]uint32{
		V_AUTO + 7 - 1: 0x004000,
	})
	c.Regs.setIMask(0)
	c.Regs.frozen = true
	pc := c.Regs.PC

	c.Autovector(7)

	if c.Regs.PC != pc {
		t.Fatalf("frozen must suppress even a level-7 autovector; PC = %06X, want %06X", c.Regs.PC, pc)
	}
	if c.Regs.pending != 7 {
		t.Fatalf("pending = %d, want 7 (latched while frozen)", c.Regs.pending)
	}
}

// TestAutovectorWakesStoppedCoreWithSingleAdvance covers the STOP/autovector
// interaction directly against Autovector: stopHandler leaves PC rewound to
// the STOP #imm's own start (real hardware behavior, not advanced past it),
// so Autovector's own unconditional "+4" is the *only* advance applied on
// wake, and the pushed return address is StopPC+4 — spec.md §8 scenario S6,
// verbatim.
func TestAutovectorWakesStoppedCoreWithSingleAdvance(t *testing.T) {
	const stopAt = 0x001000
	const wakeTarget = 0x005000
	c, _ := newVectoredCpu(t, mem.RAMBase+0x0FF0, 0x001000, map[uint8]uint32{
		V_AUTO + 2 - 1: wakeTarget,
	})
	c.Regs.setIMask(0)
	c.Regs.stop = true
	c.Regs.PC = stopAt

	c.Autovector(2)

	if c.Regs.stop {
		t.Fatal("autovector wakeup must clear stop")
	}
	if c.Regs.PC != wakeTarget {
		t.Fatalf("PC = %06X, want %06X", c.Regs.PC, wakeTarget)
	}
	wantPushed := uint32(stopAt + 4)
	if got := c.Mem.ReadLong(c.Regs.A[7] + 2); got != wantPushed {
		t.Fatalf("pushed PC = %06X, want %06X (StopPC + 4)", got, wantPushed)
	}
}

// TestStopOpcodeThenAutovectorWakesWithSingleAdvance drives the real
// STOP opcode through the decode table and Execute, then wakes it with
// Autovector, rather than hand-setting Regs.stop/Regs.PC: this is the
// pipeline scenario S6 actually describes, and the one the hand-set
// version above cannot catch a pre-advance/double-advance bug in.
func TestStopOpcodeThenAutovectorWakesWithSingleAdvance(t *testing.T) {
	const stopAt = 0x001000
	const wakeTarget = 0x005000
	c, _ := newVectoredCpuWithROM(t, mem.RAMBase+0x0FF0, stopAt, map[uint8]uint32{
		V_AUTO + 2 - 1: wakeTarget,
	}, func(rom []byte) {
		putWord(rom, stopAt, 0x4E72)   // STOP #imm
		putWord(rom, stopAt+2, 0x2000) // imm: supervisor, mask 0
	})

	overrun := c.Execute(100)
	if !c.Regs.stop {
		t.Fatal("STOP must leave the core stopped")
	}
	if c.Regs.PC != stopAt {
		t.Fatalf("PC after STOP = %06X, want %06X (rewound to the instruction start)", c.Regs.PC, stopAt)
	}
	if overrun != 0 {
		t.Fatalf("overrun = %d, want 0 (STOP idles the rest of the budget)", overrun)
	}

	c.Autovector(2)

	if c.Regs.stop {
		t.Fatal("autovector wakeup must clear stop")
	}
	if c.Regs.PC != wakeTarget {
		t.Fatalf("PC = %06X, want %06X", c.Regs.PC, wakeTarget)
	}
	wantPushed := uint32(stopAt + 4)
	if got := c.Mem.ReadLong(c.Regs.A[7] + 2); got != wantPushed {
		t.Fatalf("pushed PC = %06X, want %06X (StopPC + 4)", got, wantPushed)
	}
}

func TestVectorInternalPushesSavedPCNotLivePC(t *testing.T) {
	c, _ := newVectoredCpu(t, mem.RAMBase+0x0FF0, 0x001000, map[uint8]uint32{
		37: 0x006000, // TRAP #5 -> vector 32+5
	})
	c.Regs.PC = 0x009999 // live PC must be ignored in favor of savedPC
	c.Regs.pending = 4   // VectorInternal must not touch pending
	c.Regs.setIMask(1)   // or the interrupt mask

	c.VectorInternal(37, 0x001234)

	if c.Regs.PC != 0x006000 {
		t.Fatalf("PC = %06X, want 006000", c.Regs.PC)
	}
	if got := c.Mem.ReadLong(c.Regs.A[7] + 2); got != 0x001234 {
		t.Fatalf("pushed PC = %06X, want 001234 (savedPC, not live PC)", got)
	}
	if c.Regs.pending != 4 {
		t.Fatalf("pending = %d, want 4 (untouched)", c.Regs.pending)
	}
	if c.Regs.IMask() != 1 {
		t.Fatalf("IMask = %d, want 1 (untouched)", c.Regs.IMask())
	}
}
