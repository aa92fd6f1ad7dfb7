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

// Package cpu implements the 68000 execution core: fetch/decode/dispatch,
// the IPC block cache, and autovector/exception delivery, per the Neo-Geo
// emulator's reg68k/cpu68k/compile collaborators.
package cpu

// V_AUTO is the base exception-vector number for autovectored interrupts.
const V_AUTO = 24

// lenIPCListTable is the number of hash chains in the block cache. Must be
// a power of two; the hash is (pc24>>1) & (lenIPCListTable-1).
const lenIPCListTable = 2048

// Status register bit positions, matching real 68000 hardware.
const (
	srCarry     uint16 = 1 << 0
	srOverflow  uint16 = 1 << 1
	srZero      uint16 = 1 << 2
	srNegative  uint16 = 1 << 3
	srExtend    uint16 = 1 << 4
	srIMaskBit0 uint16 = 1 << 8 // bits 8-10: interrupt priority mask
	srSupervisor uint16 = 1 << 13
	srTrace     uint16 = 1 << 15

	srIMask uint16 = 7 << 8
)

// Regs is the 68000 programmer-visible register file (spec.md §3).
type Regs struct {
	D [8]uint32 // Data registers D0-D7
	A [8]uint32 // Address registers A0-A7; A[7] is the *active* stack pointer
	PC uint32   // Program counter

	SR uint16 // Raw status register

	// sp shadows the *inactive* stack pointer: when SR.S==1, A[7] is SSP
	// and sp holds USP; when SR.S==0, A[7] is USP and sp holds SSP. A
	// transition of S swaps the two.
	sp uint32

	pending uint8 // Pending interrupt level, 0 = none, 1-7 otherwise
	stop    bool  // Set by STOP, cleared on autovector wakeup
	frozen  bool  // Suppresses interrupt delivery while true (DMA catch-up)
}

// S reports the supervisor bit.
func (r *Regs) S() bool { return r.SR&srSupervisor != 0 }

// T reports the trace bit.
func (r *Regs) T() bool { return r.SR&srTrace != 0 }

// IMask returns the 3-bit interrupt priority mask (0-7).
func (r *Regs) IMask() uint8 { return uint8((r.SR & srIMask) >> 8) }

// setIMask overwrites the 3-bit interrupt priority mask.
func (r *Regs) setIMask(level uint8) {
	r.SR = (r.SR &^ srIMask) | (uint16(level&7) << 8)
}

// setSupervisor sets or clears S, swapping A7 with the shadow stack pointer
// whenever the mode actually changes. A plain temporary-variable swap;
// spec.md §9 flags the original's XOR-swap as an archaic, aliasing-unsafe
// micro-optimization to retire.
func (r *Regs) setSupervisor(on bool) {
	if r.S() == on {
		return
	}
	r.A[7], r.sp = r.sp, r.A[7]
	if on {
		r.SR |= srSupervisor
	} else {
		r.SR &^= srSupervisor
	}
}

// OperandKind enumerates how an IPC's operand descriptor should be
// interpreted. Addressing-mode side effects (postincrement/predecrement)
// are resolved at *execute* time from (Mode, Reg) — never cached — so a
// compiled IPC behaves correctly however many times the cache replays it.
type OperandKind uint8

const (
	OpNone       OperandKind = iota
	OpDataReg                // Dn: Reg selects D[Reg]
	OpAddrReg                // An: Reg selects A[Reg]
	OpIndirect               // (An)
	OpPostInc                // (An)+
	OpPreDec                 // -(An)
	OpDisp                   // d16(An): Disp is the sign-extended displacement
	OpAbsWord                // abs.W: Disp holds the sign-extended address
	OpAbsLong                // abs.L: Imm holds the address
	OpImmediate              // #imm: Imm holds the value
	OpPCRel                  // d16(PC): Disp is relative to the extension word's own PC
)

// Size is an operand width in bytes.
type Size uint8

const (
	Byte Size = 1
	Word Size = 2
	Long Size = 4
)

// Mask returns the bitmask covering the valid bits of this size.
func (s Size) Mask() uint32 {
	switch s {
	case Byte:
		return 0xFF
	case Word:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// MSB returns the sign bit for this size.
func (s Size) MSB() uint32 {
	switch s {
	case Byte:
		return 0x80
	case Word:
		return 0x8000
	default:
		return 0x80000000
	}
}

// Operand is the decode-time-resolved operand descriptor stored in an IPC.
type Operand struct {
	Kind OperandKind
	Reg  uint8
	Disp int32
	Imm  uint32
}

// IPC is a single pre-decoded instruction: everything its handler needs to
// execute without re-reading the opcode word (spec.md §3).
type IPC struct {
	PC      uint32  // Guest PC at which this instruction lives
	Opcode  uint16  // Raw opcode word, kept for diagnostics/disassembly
	Size    Size    // Operand size, when the opcode encodes one
	Src     Operand // Source operand descriptor
	Dst     Operand // Destination operand descriptor
	Extra   int32   // Free-form immediate/displacement slot (branch targets, shift counts, trap numbers...)
	Handler func(c *Cpu, ipc *IPC)
	Clocks  uint16
	EndBlk  bool

	// wordsConsumed counts the 16-bit extension words read after the
	// opcode word itself during decode (addressing-mode displacements,
	// immediates). The compiler uses it to find where the next
	// instruction starts without re-decoding.
	wordsConsumed uint8
}

// ipcList is a compiled basic block: a header plus a contiguous, explicitly
// sized array of IPC records (spec.md §9: explicit length, not a sentinel).
type ipcList struct {
	pc          uint32
	bank        uint32
	next        *ipcList
	totalClocks uint32
	pass        uint32 // number of times this list has been (re)compiled; always 1 in steady state
	insts       []IPC
}
