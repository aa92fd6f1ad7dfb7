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

// decodeFunc turns a raw opcode word at guest address pc into a fully
// resolved IPC descriptor, consuming whatever extension words it needs via
// c.Mem as it goes. It never touches c.Regs: decode is a pure read of ROM
// content, by design (spec.md §4.4) — only a handler, running later at
// execute time, is allowed to mutate register state.
type decodeFunc func(c *Cpu, pc uint32) IPC

// decodeTable is indexed directly by the 16-bit opcode word. A nil entry
// means "no instruction implemented here" — runtime and compile-time
// callers both treat that the same way illegalHandler does. It is filled in
// once, by each ops_*.go file's init(), either directly or via the
// register() helper in ops_common.go. This plain array plus per-opcode
// closures replaces the original's stride-2 packed decode/handler table
// (reg68k.c's cpu68k_functable) with one lookup per opcode and no virtual
// calls, per spec.md §9's redesign note.
var decodeTable [65536]decodeFunc
