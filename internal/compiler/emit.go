// Copyright 2025 cci1 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compiler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"unicode"
)

// registerNames maps register index 0..15 to its assembly mnemonic, per
// §6's closed register set.
var registerNames = [16]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9",
	"ra", "rb", "rsp", "rfp", "rpp", "rip",
}

// labelSigil distinguishes the four roles a label token can play, per §6.
type labelSigil byte

const (
	SigilDefinition labelSigil = '@' // global definition (public or static)
	SigilAddress    labelSigil = '^' // reference to an address
	SigilJump       labelSigil = '&' // forward/backward jump target
	SigilLocal      labelSigil = ':' // local label definition
)

// Emitter is the buffered writer over the output assembly file. Tokens are
// written trailing-space style: each term ends with a space, and the first
// term of a line is preceded by a two-space indent. Label tokens are written
// without the indent so that label definitions start at column zero.
//
// The inhibit counter silences all normal emission while nonzero; this is
// how sizeof parses its operand without generating code. Line directives
// always pass through regardless.
type Emitter struct {
	w          *bufio.Writer
	atLineHead bool
	inhibit    int
	lineEnable bool // whether #line directives should be written at all
}

func NewEmitter(w io.Writer, lineDirectives bool) *Emitter {
	return &Emitter{
		w:          bufio.NewWriter(w),
		atLineHead: true,
		lineEnable: lineDirectives,
	}
}

// Init writes the mandatory first output line, putting the downstream
// assembler's debug info in manual line control mode.
func (e *Emitter) Init() error {
	_, err := e.w.WriteString("#line manual\n")
	return err
}

func (e *Emitter) Flush() error {
	return e.w.Flush()
}

// InhibitPush/InhibitPop implement the sizeof dry-run toggle from §4.1.
// They nest, so a sizeof inside a sizeof operand stays silenced.
func (e *Emitter) InhibitPush() { e.inhibit++ }
func (e *Emitter) InhibitPop()  { e.inhibit-- }

func (e *Emitter) enabled() bool {
	return e.inhibit == 0
}

func (e *Emitter) rawString(s string) {
	_, _ = e.w.WriteString(s)
}

func (e *Emitter) rawByte(b byte) {
	_ = e.w.WriteByte(b)
}

// Term writes a bare token followed by a space, with the two-space indent
// inserted before the first term of each line.
func (e *Emitter) Term(token string) {
	if !e.enabled() {
		return
	}
	if e.atLineHead {
		e.rawString("  ")
		e.atLineHead = false
	}
	e.rawString(token)
	e.rawByte(' ')
}

// Register writes register index 0..15 by its mnemonic.
func (e *Emitter) Register(index int) {
	e.Term(registerNames[index])
}

// Label writes a sigil-prefixed label token, e.g. "@main", "^main",
// "&_Lx3". No indent is applied, so a label definition that starts a line
// sits at column zero.
func (e *Emitter) Label(sigil labelSigil, name string) {
	if !e.enabled() {
		return
	}
	e.rawByte(byte(sigil))
	e.rawString(name)
	e.rawByte(' ')
}

// Immediate writes a signed integer followed by a space. Small magnitudes
// use decimal because it's shorter than hex and easier to read; everything
// else is emitted as full hexadecimal, which works regardless of sign.
func (e *Emitter) Immediate(v int32) {
	if !e.enabled() {
		return
	}
	if e.atLineHead {
		e.rawString("  ")
		e.atLineHead = false
	}
	if v > -100000000 && v < 1000000 {
		e.rawString(strconv.FormatInt(int64(v), 10))
	} else {
		_, _ = fmt.Fprintf(e.w, "0x%X", uint32(v))
	}
	e.rawByte(' ')
}

// QuotedByte writes a single quoted byte, `'HH`. Quoted bytes are
// self-delimiting so no trailing space is emitted; adjacent bytes and
// string runs may touch.
func (e *Emitter) QuotedByte(b byte) {
	if !e.enabled() {
		return
	}
	_, _ = fmt.Fprintf(e.w, "'%02X", b)
}

// isStringCharValidAssembly rejects backslash and double-quote (which would
// need escaping this format doesn't support) and anything non-printable.
func isStringCharValidAssembly(b byte) bool {
	if b == '\\' || b == '"' {
		return false
	}
	return b < 0x80 && unicode.IsPrint(rune(b))
}

// StringLiteral writes s (already decoded: no C escapes remain) as an
// assembly string literal, toggling in and out of `"..."` runs around
// characters that must be emitted as `'HH` quoted bytes. The caller is
// responsible for the trailing null byte.
func (e *Emitter) StringLiteral(s string) {
	if !e.enabled() {
		return
	}
	open := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		valid := isStringCharValidAssembly(c)
		if valid != open {
			e.rawByte('"')
			open = !open
		}
		if valid {
			e.rawByte(c)
		} else {
			_, _ = fmt.Fprintf(e.w, "'%02X", c)
		}
	}
	if open {
		e.rawByte('"')
	}
}

// CharacterLiteral writes a single character operand: a one-character
// string if printable, a quoted byte otherwise.
func (e *Emitter) CharacterLiteral(b byte) {
	if !e.enabled() {
		return
	}
	if isStringCharValidAssembly(b) {
		e.rawByte('"')
		e.rawByte(b)
		e.rawByte('"')
	} else {
		_, _ = fmt.Fprintf(e.w, "'%02X", b)
	}
}

// ZeroedData writes size `'00` bytes, spaced every four and wrapped every
// sixteen for readability, as the body of a zero-initialized global.
func (e *Emitter) ZeroedData(size int) {
	if !e.enabled() {
		return
	}
	for i := 0; i < size; i++ {
		if i > 0 {
			if i&3 == 0 {
				e.rawByte(' ')
			}
			if i&15 == 0 {
				e.Newline()
			}
		}
		e.QuotedByte(0)
	}
	e.Newline()
}

// Newline ends the current instruction/definition line.
func (e *Emitter) Newline() {
	if !e.enabled() {
		return
	}
	e.rawByte('\n')
	e.atLineHead = true
}

// GlobalDivider writes three blank lines to space out top-level definitions.
func (e *Emitter) GlobalDivider() {
	if !e.enabled() {
		return
	}
	e.rawString("\n\n\n")
	e.atLineHead = true
}

// LineDirective and LineIncrementDirective propagate #line tracking
// regardless of the inhibit counter, per §4.1's explicit exception. Each
// finishes any partially-written line first so the directive starts at
// column zero.
func (e *Emitter) LineDirective(line int, filename string) {
	if !e.lineEnable {
		return
	}
	if !e.atLineHead {
		e.rawByte('\n')
	}
	_, _ = fmt.Fprintf(e.w, "#line %d \"%s\"\n", line, filename)
	e.atLineHead = true
}

// LineIncrementDirective writes the lone-`#` form that advances the
// downstream line counter by one. The lexer emits one per input newline.
func (e *Emitter) LineIncrementDirective() {
	if !e.lineEnable {
		return
	}
	if !e.atLineHead {
		e.rawByte('\n')
	}
	e.rawString("#\n")
	e.atLineHead = true
}
