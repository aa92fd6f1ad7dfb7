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

import "testing"

func TestCompileStopsAtFirstEndBlkInstruction(t *testing.T) {
	c, _ := newTestCpu(t, 0x10FF00, 0x001000, func(rom []byte) {
		putWord(rom, 0x1000, 0x4E71) // NOP, not EndBlk
		putWord(rom, 0x1002, 0x4E75) // RTS, EndBlk
		putWord(rom, 0x1004, 0x4E71) // trailing NOP must not be compiled in
	})

	list := c.compile(0x001000, 0)

	if len(list.insts) != 2 {
		t.Fatalf("compiled %d instructions, want 2 (stop at RTS)", len(list.insts))
	}
	if !list.insts[1].EndBlk {
		t.Fatal("last compiled instruction must have EndBlk set")
	}
	if list.totalClocks != 4+16 {
		t.Fatalf("totalClocks = %d, want 20", list.totalClocks)
	}
}

func TestCompileTerminatesOnUndecodableOpcode(t *testing.T) {
	c, _ := newTestCpu(t, 0x10FF00, 0x001000, func(rom []byte) {
		putWord(rom, 0x1000, 0xFFFF) // no decodeTable entry
	})

	list := c.compile(0x001000, 0)

	if len(list.insts) != 1 {
		t.Fatalf("compiled %d instructions, want 1 (terminate immediately)", len(list.insts))
	}
	ipc := list.insts[0]
	if !ipc.EndBlk || ipc.Clocks != 4 || ipc.Opcode != 0xFFFF {
		t.Fatalf("unexpected descriptor for undecodable opcode: %+v", ipc)
	}

	var reportedPC uint32
	var reportedOp uint16
	c.diag = reportFunc(func(pc uint32, opcode uint16) {
		reportedPC, reportedOp = pc, opcode
	})
	ipc.Handler(c, &ipc)
	if reportedPC != 0x001000 || reportedOp != 0xFFFF {
		t.Fatalf("illegalHandler reported (%06X, %04X), want (001000, FFFF)", reportedPC, reportedOp)
	}
	if c.Regs.PC != 0x001002 {
		t.Fatalf("PC after illegal handler = %06X, want 001002", c.Regs.PC)
	}
}

func TestNextInstructionPCAccountsForExtensionWords(t *testing.T) {
	c, _ := newTestCpu(t, 0x10FF00, 0x001000, func(rom []byte) {
		putWord(rom, 0x1000, 0x6000) // Bcc word-displacement placeholder
		putWord(rom, 0x1002, 0x0010) // displacement extension word
		putWord(rom, 0x2000, 0x6002) // Bcc byte-displacement (disp8=2, no extension word)
	})

	wordForm := decodeBccAt(c, 0x001000, 0x2, 0x00)
	if next := nextInstructionPC(0x001000, &wordForm); next != 0x001004 {
		t.Fatalf("word-displacement next PC = %06X, want 001004", next)
	}

	byteForm := decodeBccAt(c, 0x002000, 0x2, 0x02)
	if next := nextInstructionPC(0x002000, &byteForm); next != 0x002002 {
		t.Fatalf("byte-displacement next PC = %06X, want 002002", next)
	}
}
