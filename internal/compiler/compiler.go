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

// Package compiler implements cci1, a single-pass compiler for the opC
// subset of C that emits Onramp virtual-machine textual assembly. There is
// no intermediate representation: every parse function both consumes
// tokens and writes assembly as a side effect, returning the Type of the
// value it produced.
package compiler

import (
	"fmt"
	"io"
	"log/slog"
)

// Options configures a single compilation, bound directly from CLI flags in
// cmd/cci1 (no config file; see SPEC_FULL.md's ambient-stack section).
type Options struct {
	InputName      string
	LineDirectives bool
	Logger         *slog.Logger
}

// Synthetic label prefixes, per §6. Jump labels are `_Lx<hex>`, string
// literals `_Sx<hex>`, user goto labels `_Ux<hexlen>_<func>_<name>`, and
// function bodies `_F_<name>`.
const (
	jumpLabelPrefix   = "_Lx"
	stringLabelPrefix = "_Sx"
	userLabelPrefix   = "_Ux"
)

// Compiler bundles all of the compilation state that the original
// implementation keeps as file-scope C statics (the emitter, lexer, symbol
// tables, label counters, and "inside function" flags) into a single
// context value, per the "Global mutable state" design note in SPEC_FULL.md
// §9. This also makes the parser testable on small string inputs.
type Compiler struct {
	opts Options
	log  *slog.Logger

	emit  *Emitter
	lex   *Lexer
	types *typeNameTable
	globs *globalTable
	locs  *localStack

	labelCounter int
	nextString   int

	// per-function state, reset at each function boundary
	inFunction        bool
	functionName      string
	functionFrame     int // running max frame size across block scopes
	functionReturn    Type
	currentParamTypes []Type // fixed parameter types, for __builtin_va_start
	loopBreakLabel    []int
	loopContinueLabel []int
	switchLabels      []switchContext
	stringQueue       []string

	// stashedName holds an identifier the statement parser has already
	// taken off the lexer while checking for a label definition (`name:`);
	// when it turns out not to be one, the expression parser consumes the
	// stash instead of calling Take again.
	stashedName    string
	hasStashedName bool
}

// switchContext is the per-switch state: the frame slot holding the
// controlling value, the label of the next dispatch chain node, and the
// default label once one has been seen.
type switchContext struct {
	ValueOffset  int
	ChainLabel   int
	HasDefault   bool
	DefaultLabel int
}

// NewCompiler constructs a Compiler reading source from r and writing
// assembly to w.
func NewCompiler(r io.Reader, w io.Writer, opts Options) (*Compiler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	emitter := NewEmitter(w, opts.LineDirectives)
	if err := emitter.Init(); err != nil {
		return nil, err
	}

	lex, err := NewLexer(r, opts.InputName, emitter)
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		opts:  opts,
		log:   logger,
		emit:  emitter,
		lex:   lex,
		types: newTypeNameTable(),
		globs: newGlobalTable(),
		locs:  newLocalStack(),
	}
	return c, nil
}

// Run drives the top-level parse loop: repeatedly invoke parseGlobal until
// the lexer signals end-of-input. Construction of the Compiler plays the
// role of the original's globals_init/emit_init/lexer_init/types_init/
// locals_init sequence.
func (c *Compiler) Run() error {
	c.log.Debug("starting compilation", "input", c.opts.InputName)
	for !c.lex.AtEnd() {
		if err := c.parseGlobal(); err != nil {
			return err
		}
	}
	if err := c.emit.Flush(); err != nil {
		return err
	}
	c.log.Debug("compilation complete")
	return nil
}

// Compile is the package-level entry point cmd/cci1 calls: read source from
// r, write assembly to w.
func Compile(r io.Reader, w io.Writer, opts Options) error {
	c, err := NewCompiler(r, w, opts)
	if err != nil {
		return err
	}
	return c.Run()
}

func (c *Compiler) nextLabel() int {
	label := c.labelCounter
	c.labelCounter++
	return label
}

func (c *Compiler) syntheticLabelName(prefix string, id int) string {
	return fmt.Sprintf("%s%X", prefix, id)
}
