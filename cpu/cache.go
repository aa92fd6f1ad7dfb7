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

// lookupOrBuild returns the compiled IPC list for pc24 under the current
// bank tag, building and splicing in a new one on a cache miss. Ported from
// original_source/reg68k.c:reg68k_external_execute's chain-walk
// (index = (pc24>>1) & (lenIPCListTable-1)), moved from a package-level
// table into a field of Cpu per spec.md §9.
func (c *Cpu) lookupOrBuild(pc24 uint32) *ipcList {
	bank := c.Mem.BankTag(pc24)
	index := (pc24 >> 1) & (lenIPCListTable - 1)

	for list := c.cache[index]; list != nil; list = list.next {
		if list.pc == pc24 && list.bank == bank {
			return list
		}
	}

	list := c.compile(pc24, bank)
	list.next = c.cache[index]
	c.cache[index] = list
	return list
}

// chainLength returns the number of entries in the hash chain that pc24
// hashes to, for cache-discipline tests (spec.md §8 property 8, scenario
// S4).
func (c *Cpu) chainLength(pc24 uint32) int {
	index := (pc24 >> 1) & (lenIPCListTable - 1)
	n := 0
	for list := c.cache[index]; list != nil; list = list.next {
		n++
	}
	return n
}

// chainContainsPC reports whether any entry in pc24's hash chain names pc24
// itself, regardless of bank (spec.md §8 property 7, scenario S5: RAM
// addresses must never appear in the cache).
func (c *Cpu) chainContainsPC(pc24 uint32) bool {
	index := (pc24 >> 1) & (lenIPCListTable - 1)
	for list := c.cache[index]; list != nil; list = list.next {
		if list.pc == pc24 {
			return true
		}
	}
	return false
}
