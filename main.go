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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/Tmesys/GnGeoX-sub002/config"
	"github.com/Tmesys/GnGeoX-sub002/cpu"
	"github.com/Tmesys/GnGeoX-sub002/mem"
	"github.com/Tmesys/GnGeoX-sub002/util/debug"
	"github.com/Tmesys/GnGeoX-sub002/util/logger"
)

var Logger *slog.Logger

var memSize uint32 = 0x10000 // work RAM size, MEMSIZE directive may override

func init() {
	config.Register("MEMSIZE", func(arg string) error {
		size, err := config.ParseSize(arg)
		if err != nil {
			return fmt.Errorf("MEMSIZE: %w", err)
		}
		if size&0xFFF != 0 {
			return fmt.Errorf("MEMSIZE must be a multiple of 4096, got %d", size)
		}
		memSize = size
		return nil
	})
	config.Register("BANK", func(arg string) error {
		Logger.Info("BANK directive noted; bank ROM loading is done via --rom for a single image", "arg", arg)
		return nil
	})
}

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optROM := getopt.StringLong("rom", 'r', "", "ROM image to load at 0x000000")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	} else {
		file = os.Stderr
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel}, false))
	slog.SetDefault(Logger)

	Logger.Info("GnGeoX-sub002 started")

	if *optConfig != "" {
		if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
			Logger.Error("configuration file not found", "path", *optConfig)
			os.Exit(1)
		}
		if err := config.LoadFile(*optConfig); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}

	diag := debug.CoreDiagnostics{Log: Logger}
	m := mem.New(diag)
	m.MapRAM(mem.RAMBase, memSize, make([]byte, memSize))

	if *optROM != "" {
		rom, err := os.ReadFile(*optROM)
		if err != nil {
			Logger.Error("unable to read ROM", "path", *optROM, "error", err)
			os.Exit(1)
		}
		romLen := uint32(len(rom)+0xFFF) &^ 0xFFF
		padded := make([]byte, romLen)
		copy(padded, rom)
		m.MapROM(0, romLen, padded)
	}

	c := cpu.New(m, diag)

	runMonitor(c)
}

// runMonitor is an interactive step/go/regs/stats/quit console over the
// core, built on peterh/liner for history-aware line editing — the same
// readline-family library a liner-based REPL in the retrieval pack uses
// for an equivalent purpose, replacing the teacher's raw bufio.Reader loop
// with something a real operator console benefits from.
func runMonitor(c *cpu.Cpu) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("GnGeoX-sub002 monitor. Commands: step [n], go <clocks>, regs, stats, quit")
	for {
		input, err := line.Prompt("68k> ")
		if err != nil {
			break
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "step", "s":
			n := 1
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					n = v
				}
			}
			for i := 0; i < n; i++ {
				c.Step()
			}
		case "go", "g":
			clocks := 1000
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					clocks = v
				}
			}
			overrun := c.Execute(clocks)
			fmt.Printf("overrun=%d\n", overrun)
		case "regs", "r":
			printRegs(c)
		case "stats":
			c.PrintStats(os.Stdout)
		case "quit", "q", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func printRegs(c *cpu.Cpu) {
	for i := 0; i < 8; i++ {
		fmt.Printf("D%d=%08X ", i, c.Regs.D[i])
	}
	fmt.Println()
	for i := 0; i < 8; i++ {
		fmt.Printf("A%d=%08X ", i, c.Regs.A[i])
	}
	fmt.Println()
	fmt.Printf("PC=%06X SR=%04X\n", c.Regs.PC, c.Regs.SR)
}
