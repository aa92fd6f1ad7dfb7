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

// Package debug provides masked diagnostic logging and the two small
// adapters (cpu.Diagnostics, mem.Diagnostics) that let the core report
// invalid opcodes and unmapped accesses without importing log/slog itself.
package debug

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Tmesys/GnGeoX-sub002/config"
)

var logFile *os.File = os.Stderr

// Debug option bits, in the teacher's per-module bitmask style (compare
// emu/model2540R's debugCmd/debugData/debugDetail): which diagnostic
// classes DEBUGMASK has turned on for this run.
const (
	DebugOpcode = 1 << iota // invalid-opcode reports
	DebugMem                // unmapped memory access reports
)

// debugMsk is the live DEBUGMASK value; zero (the default) means every
// Debugf call below is a no-op, matching the teacher's "no debug file, no
// output" default.
var debugMsk int

// Debugf writes a masked diagnostic message: nothing is printed unless
// mask&level is non-zero, mirroring the teacher's module-scoped gate.
func Debugf(module string, mask, level int, format string, a ...any) {
	if mask&level != 0 {
		fmt.Fprintf(logFile, module+": "+format+"\n", a...)
	}
}

func init() {
	config.Register("DEBUGFILE", createDebugFile)
	config.Register("DEBUGMASK", setDebugMask)
}

func createDebugFile(fileName string) error {
	if fileName == "" {
		return fmt.Errorf("DEBUGFILE requires a path")
	}
	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("unable to create debug file %q: %w", fileName, err)
	}
	logFile = f
	return nil
}

func setDebugMask(arg string) error {
	v, err := config.ParseHex(arg)
	if err != nil {
		return fmt.Errorf("DEBUGMASK: %w", err)
	}
	debugMsk = int(v)
	return nil
}

// CoreDiagnostics adapts the core's two diagnostic callbacks
// (cpu.Diagnostics.InvalidOpcode, mem.Diagnostics.Unmapped) onto a
// slog.Logger for always-on warnings, plus Debugf for the opt-in,
// DEBUGMASK-gated trace a host can enable without raising the slog level.
// This keeps cpu and mem free of any logging import.
type CoreDiagnostics struct {
	Log *slog.Logger
}

// InvalidOpcode implements cpu.Diagnostics.
func (d CoreDiagnostics) InvalidOpcode(pc uint32, opcode uint16) {
	d.Log.Warn("invalid opcode", "pc", fmt.Sprintf("%06X", pc), "opcode", fmt.Sprintf("%04X", opcode))
	Debugf("cpu", debugMsk, DebugOpcode, "invalid opcode pc=%06X opcode=%04X", pc, opcode)
}

// Unmapped implements mem.Diagnostics.
func (d CoreDiagnostics) Unmapped(addr uint32, write bool) {
	op := "read"
	if write {
		op = "write"
	}
	d.Log.Warn("unmapped memory access", "op", op, "addr", fmt.Sprintf("%06X", addr))
	Debugf("mem", debugMsk, DebugMem, "unmapped %s addr=%06X", op, addr)
}
