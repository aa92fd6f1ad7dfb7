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

func TestLookupOrBuildCachesOnFirstLookup(t *testing.T) {
	c, _ := newTestCpu(t, 0x10FF00, 0x001000, func(rom []byte) {
		putWord(rom, 0x1000, 0x4E71) // NOP
		putWord(rom, 0x1002, 0x4E75) // RTS
	})

	if c.chainLength(0x001000) != 0 {
		t.Fatal("cache must start empty for an address never looked up")
	}

	first := c.lookupOrBuild(0x001000)
	if c.chainLength(0x001000) != 1 {
		t.Fatalf("chain length after first build = %d, want 1", c.chainLength(0x001000))
	}

	second := c.lookupOrBuild(0x001000)
	if second != first {
		t.Fatal("second lookup of the same (pc, bank) must return the cached list, not rebuild")
	}
	if second.pass != 1 {
		t.Fatalf("pass = %d, want 1 (compiled exactly once)", second.pass)
	}
}

func TestLookupOrBuildKeepsDistinctBanksAsSeparateChainEntries(t *testing.T) {
	c, m := newTestCpu(t, 0x10FF00, 0x001000, nil)

	bank0 := make([]byte, 0x10000)
	putWord(bank0, 0, 0x4E71) // NOP
	putWord(bank0, 2, 0x4E75) // RTS
	bank1 := make([]byte, 0x10000)
	putWord(bank1, 0, 0x4E71) // NOP
	putWord(bank1, 2, 0x4E71) // NOP
	putWord(bank1, 4, 0x4E75) // RTS
	m.MapBankedROM([][]byte{bank0, bank1}, 0x10000)

	m.BankAddress = 0
	listBank0 := c.lookupOrBuild(mem.BankBase)
	m.BankAddress = 1
	listBank1 := c.lookupOrBuild(mem.BankBase)

	if c.chainLength(mem.BankBase) != 2 {
		t.Fatalf("chain length = %d, want 2 (one entry per bank)", c.chainLength(mem.BankBase))
	}
	if len(listBank0.insts) != 2 {
		t.Fatalf("bank 0 block has %d instructions, want 2", len(listBank0.insts))
	}
	if len(listBank1.insts) != 3 {
		t.Fatalf("bank 1 block has %d instructions, want 3", len(listBank1.insts))
	}
}

func TestResetClearsTheWholeCache(t *testing.T) {
	c, _ := newTestCpu(t, 0x10FF00, 0x001000, func(rom []byte) {
		putWord(rom, 0x1000, 0x4E71) // NOP
		putWord(rom, 0x1002, 0x4E75) // RTS
	})
	c.lookupOrBuild(0x001000)
	if c.chainLength(0x001000) == 0 {
		t.Fatal("expected a cached entry before Reset")
	}

	c.Reset()

	if c.chainLength(0x001000) != 0 {
		t.Fatal("Reset must clear every cache chain")
	}
}

func TestChainContainsPCIgnoresBank(t *testing.T) {
	c, _ := newTestCpu(t, 0x10FF00, 0x001000, func(rom []byte) {
		putWord(rom, 0x1000, 0x4E71)
		putWord(rom, 0x1002, 0x4E75)
	})
	c.lookupOrBuild(0x001000)

	if !c.chainContainsPC(0x001000) {
		t.Fatal("chainContainsPC must find an entry regardless of which bank compiled it")
	}
	if c.chainContainsPC(0x001004) {
		t.Fatal("chainContainsPC must not match an address that was never compiled")
	}
}
