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

// Package config implements the line-oriented configuration file format
// used to set up a machine before it starts running: one directive per
// line, '#' starts a comment, blank lines are ignored. Grounded on
// rcornwell-S370/config/configparser's register-at-init() pattern
// (RegisterOption), trimmed down to the four directives this core's host
// actually needs instead of S370's full device-model grammar.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Handler is invoked once per matching directive line with whatever
// trailing text followed the keyword, already trimmed of leading space.
type Handler func(arg string) error

var directives = map[string]Handler{}

// Register installs a directive handler, keyed case-insensitively. Meant to
// be called from an init() function, mirroring configparser.RegisterOption.
func Register(keyword string, fn Handler) {
	directives[strings.ToUpper(keyword)] = fn
}

// LoadFile reads name line by line and dispatches each non-comment,
// non-blank line to its registered directive.
func LoadFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return Load(f, name)
}

// Load reads directives from r, reporting errors against sourceName for
// diagnostics.
func Load(r io.Reader, sourceName string) error {
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := parseLine(scanner.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", sourceName, lineNumber, err)
		}
	}
	return scanner.Err()
}

func parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	keyword, arg, _ := strings.Cut(line, " ")
	keyword = strings.ToUpper(keyword)
	arg = strings.TrimSpace(arg)

	handler, ok := directives[keyword]
	if !ok {
		return fmt.Errorf("unknown directive %q", keyword)
	}
	return handler(arg)
}

// ParseSize parses a byte count written as a plain decimal, or suffixed
// with K or M for the usual binary multipliers (e.g. "64K", "2M").
func ParseSize(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}
	mult := uint64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n * mult), nil
}

// ParseHex parses a 0x-prefixed or bare hexadecimal integer.
func ParseHex(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 32)
	return uint32(n), err
}
