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

// Package mem implements the 68000 guest memory map: a 24-bit address space
// translated, page by page, to host-resident backing storage.
//
// Guest addresses are split into a 12-bit page number (addr>>12) and a
// 12-bit page offset. Each of the 4096 possible pages is bound to a pageFunc
// that knows how to read and write its own backing store; unmapped pages
// fall back to a default access function that returns a fixed value and
// reports a diagnostic. All accesses are big-endian, matching the 68000 bus,
// regardless of host byte order.
package mem

import (
	"fmt"
	"os"
)

// Diagnostics receives reports of memory accesses the map cannot satisfy.
// A nil Diagnostics is valid; unmapped accesses are then silently defaulted.
type Diagnostics interface {
	Unmapped(addr uint32, write bool)
}

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
	numPages  = 1 << (24 - pageShift) // 4096 pages cover the 24-bit bus

	// RAM window, per spec: Neo-Geo work RAM lives here.
	RAMBase = 0x100000
	RAMLast = 0x10FFFF

	// Bank-switched ROM window.
	BankBase = 0x200000
	BankLast = 0x2FFFFF
)

// page is one 4KB backing store plus the read/write primitives for it.
type page struct {
	readByte  func(off uint32) uint8
	writeByte func(off uint32, v uint8)
}

// Map is the guest's 24-bit address space. A zero-value Map has every page
// unmapped; call MapRAM/MapROM to install real backing stores before use.
type Map struct {
	pages [numPages]page
	diag  Diagnostics

	// BankAddress is the live ROM-bankswitch register. The CPU core reads
	// it to compute a cache bank tag; mem itself uses it to translate
	// addresses inside the bank window to offsets in the ROM backing
	// array.
	BankAddress uint32
}

// New returns a Map with every page bound to the unmapped default.
func New(diag Diagnostics) *Map {
	m := &Map{diag: diag}
	for i := range m.pages {
		m.pages[i] = m.unmappedPage(uint32(i) << pageShift)
	}
	return m
}

func (m *Map) unmappedPage(base uint32) page {
	return page{
		readByte: func(o uint32) uint8 {
			if m.diag != nil {
				m.diag.Unmapped(base+o, false)
			}
			return 0xFF
		},
		writeByte: func(o uint32, _ uint8) {
			if m.diag != nil {
				m.diag.Unmapped(base+o, true)
			}
		},
	}
}

// MapRAM installs a flat, writable backing array covering [base, base+len)
// byte-for-byte. base and len must be page-aligned; MapRAM panics otherwise,
// since a misaligned map is a programming error in the host, not a runtime
// condition the guest can trigger.
func (m *Map) MapRAM(base, length uint32, backing []byte) {
	if base&pageMask != 0 || length&pageMask != 0 {
		panic("mem: MapRAM requires page-aligned base and length")
	}
	pages := length / pageSize
	for i := uint32(0); i < pages; i++ {
		off := i * pageSize
		buf := backing[off : off+pageSize]
		m.pages[(base>>pageShift)+i] = page{
			readByte:  func(o uint32) uint8 { return buf[o] },
			writeByte: func(o uint32, v uint8) { buf[o] = v },
		}
	}
}

// MapROM installs a read-only backing array. Writes are discarded and
// reported as unmapped, matching hardware (ROM cannot be written).
func (m *Map) MapROM(base, length uint32, backing []byte) {
	if base&pageMask != 0 || length&pageMask != 0 {
		panic("mem: MapROM requires page-aligned base and length")
	}
	pages := length / pageSize
	for i := uint32(0); i < pages; i++ {
		off := i * pageSize
		buf := backing[off : off+pageSize]
		m.pages[(base>>pageShift)+i] = page{
			readByte: func(o uint32) uint8 { return buf[o] },
			writeByte: func(o uint32, _ uint8) {
				if m.diag != nil {
					m.diag.Unmapped(base+o, true)
				}
			},
		}
	}
}

// MapBankedROM installs num banks of ROM, each bankSize bytes, into the
// bank window [BankBase, BankLast]. The page resolved for a given access is
// chosen by m.BankAddress at access time, so a single page table entry
// serves every bank without being rebuilt on a bankswitch.
func (m *Map) MapBankedROM(banks [][]byte, bankSize uint32) {
	if bankSize&pageMask != 0 {
		panic("mem: MapBankedROM requires a page-aligned bank size")
	}
	pagesPerBank := bankSize / pageSize
	basePage := uint32(BankBase >> pageShift)
	for i := uint32(0); i < pagesPerBank; i++ {
		pageOff := i * pageSize
		m.pages[basePage+i] = page{
			readByte: func(o uint32) uint8 {
				bank := int(m.BankAddress)
				if bank < 0 || bank >= len(banks) {
					if m.diag != nil {
						m.diag.Unmapped(BankBase+pageOff+o, false)
					}
					return 0xFF
				}
				return banks[bank][pageOff+o]
			},
			writeByte: func(o uint32, _ uint8) {
				if m.diag != nil {
					m.diag.Unmapped(BankBase+pageOff+o, true)
				}
			},
		}
	}
}

func (m *Map) pageFor(addr uint32) page {
	return m.pages[(addr>>pageShift)&(numPages-1)]
}

// ReadByte reads one byte at addr.
func (m *Map) ReadByte(addr uint32) uint8 {
	p := m.pageFor(addr)
	return p.readByte(addr & pageMask)
}

// WriteByte writes one byte at addr.
func (m *Map) WriteByte(addr uint32, v uint8) {
	p := m.pageFor(addr)
	p.writeByte(addr&pageMask, v)
}

// ReadWord reads a big-endian 16-bit word at addr.
func (m *Map) ReadWord(addr uint32) uint16 {
	hi := m.ReadByte(addr)
	lo := m.ReadByte(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// WriteWord writes a big-endian 16-bit word at addr.
func (m *Map) WriteWord(addr uint32, v uint16) {
	m.WriteByte(addr, uint8(v>>8))
	m.WriteByte(addr+1, uint8(v))
}

// ReadLong reads a big-endian 32-bit long at addr.
func (m *Map) ReadLong(addr uint32) uint32 {
	hi := m.ReadWord(addr)
	lo := m.ReadWord(addr + 2)
	return uint32(hi)<<16 | uint32(lo)
}

// WriteLong writes a big-endian 32-bit long at addr.
func (m *Map) WriteLong(addr uint32, v uint32) {
	m.WriteWord(addr, uint16(v>>16))
	m.WriteWord(addr+2, uint16(v))
}

// InRAMWindow reports whether a 24-bit address falls in the work-RAM range.
func InRAMWindow(pc24 uint32) bool {
	return pc24 >= RAMBase && pc24 <= RAMLast
}

// InBankWindow reports whether a 24-bit address falls in the bank-switched
// ROM window.
func InBankWindow(pc24 uint32) bool {
	return pc24 >= BankBase && pc24 <= BankLast
}

// BankTag returns the cache discriminator for pc24: the live bank register
// inside the bank window, zero everywhere else.
func (m *Map) BankTag(pc24 uint32) uint32 {
	if InBankWindow(pc24) {
		return m.BankAddress
	}
	return 0
}

func (d *stderrDiag) Unmapped(addr uint32, write bool) {
	op := "read"
	if write {
		op = "write"
	}
	fmt.Fprintf(os.Stderr, "mem: unmapped %s @ %06X\n", op, addr)
}

// stderrDiag is a trivial Diagnostics that prints to stderr; production
// hosts should wire util/debug through their own adapter.
type stderrDiag struct{}

// StderrDiagnostics returns a Diagnostics that prints unmapped accesses.
func StderrDiagnostics() Diagnostics { return &stderrDiag{} }
