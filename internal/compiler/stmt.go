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

import "fmt"

func (c *Compiler) emit1(op string, reg int) {
	c.emit.Term(op)
	c.emit.Register(reg)
	c.emit.Newline()
}

// compileFunctionBody implements §4.8's two-label scheme. The body is
// emitted first under `@_F_<name>`: the parameter-copy prologue, the
// compiled statements, and a fall-off-the-end `zero r0 ; leave ; ret`. The
// public `@<name>` label follows, containing only `enter`, the stack-frame
// subtraction, and a jump into the body; deferring it until the body has
// been parsed is what lets a single-pass compiler know the frame size.
// Queued string literals are then drained as labelled data.
func (c *Compiler) compileFunctionBody(name string, returnType Type, paramNames []string, paramTypes []Type) error {
	c.locs = newLocalStack()
	c.functionName = name
	c.functionReturn = returnType
	c.currentParamTypes = paramTypes
	c.functionFrame = 0
	c.loopBreakLabel = nil
	c.loopContinueLabel = nil
	c.switchLabels = nil

	bodyLabel := "_F_" + name
	c.emit.Label(SigilDefinition, bodyLabel)
	c.emit.Newline()

	// The first four arguments arrive in r0-r3; the rest come on the stack
	// at (i-3)*4 above the frame pointer. Every argument is copied into its
	// own slot at -(i+1)*4 so it can be addressed, shadowed, and have its
	// address taken exactly like any other local.
	for i, typ := range paramTypes {
		offset := -(i + 1) * 4
		c.locs.AddAt(paramNames[i], typ, offset)
		if i < 4 {
			c.emitRegRegImm("stw", i, regFP, int32(offset))
		} else {
			c.emitRegRegImm("ldw", regScratch, regFP, int32((i-3)*4))
			c.emitRegRegImm("stw", regScratch, regFP, int32(offset))
		}
	}
	if fs := c.locs.FrameSize(); fs > c.functionFrame {
		c.functionFrame = fs
	}

	for !c.lex.Is("}") {
		if c.lex.AtEnd() {
			return c.lex.fatalf("unexpected end of input in function body")
		}
		if err := c.parseStatement(true); err != nil {
			return err
		}
	}
	if _, err := c.lex.Take(); err != nil { // consume "}"
		return err
	}
	if fs := c.locs.FrameSize(); fs > c.functionFrame {
		c.functionFrame = fs
	}

	// Add a return in case the body didn't return on its own. main() must
	// return 0 when execution falls off the end; doing it for every
	// function keeps the behaviour consistent.
	c.emit1("zero", regResult)
	c.emit.Term("leave")
	c.emit.Newline()
	c.emit.Term("ret")
	c.emit.Newline()

	// Now that the frame size is known, emit the prologue.
	c.emit.Newline()
	c.emit.Label(SigilDefinition, name)
	c.emit.Newline()
	c.emit.Term("enter")
	c.emit.Newline()
	frame := c.functionFrame
	if frame > 0 && frame < 0x80 {
		c.emitRegRegImm("sub", regSP, regSP, int32(frame))
	} else if frame >= 0x80 {
		c.emitImm("imw", regScratch, int32(frame))
		c.emit3("sub", regSP, regSP, regScratch)
	}
	c.emit.Term("jmp")
	c.emit.Label(SigilAddress, bodyLabel)
	c.emit.GlobalDivider()

	c.drainStringLiterals()
	c.emit.GlobalDivider()

	c.functionName = ""
	c.locs = newLocalStack()
	return nil
}

// drainStringLiterals emits the definitions of every string literal used
// in the function just compiled, consuming their reserved ids.
func (c *Compiler) drainStringLiterals() {
	for _, s := range c.stringQueue {
		c.emit.Newline()
		c.emit.Label(SigilDefinition, c.syntheticLabelName(stringLabelPrefix, c.nextString))
		c.emit.Newline()
		c.emit.StringLiteral(s)
		c.emit.QuotedByte(0)
		c.emit.Newline()
		c.nextString++
	}
	c.stringQueue = nil
}

// userLabelName encodes a goto label as `_Ux<hexlen>_<func>_<name>`, where
// the hex length of the function name makes the scheme collision-free
// across functions without a separate label table.
func (c *Compiler) userLabelName(name string) string {
	return fmt.Sprintf("%s%X_%s_%s", userLabelPrefix, len(c.functionName), c.functionName, name)
}

func (c *Compiler) startsLocalDeclaration() bool {
	if c.lex.Is("static") || c.lex.Is("extern") || c.lex.Is("typedef") {
		return true
	}
	return c.startsTypeName()
}

// parseStatement implements §4.8's statement grammar. declAllowed controls
// whether a declaration may begin here (true at block scope, false directly
// after `if`/`while`/`for`/etc, where only a statement is permitted).
func (c *Compiler) parseStatement(declAllowed bool) error {
	if declAllowed && c.startsLocalDeclaration() {
		return c.parseLocalDeclaration()
	}

	switch {
	case c.lex.Is(";"):
		_, err := c.lex.Take() // empty statement
		return err
	case c.lex.Is("{"):
		return c.parseBlock()
	case c.lex.Is("if"):
		return c.parseIf()
	case c.lex.Is("while"):
		return c.parseWhile()
	case c.lex.Is("do"):
		return c.parseDoWhile()
	case c.lex.Is("for"):
		return c.parseFor()
	case c.lex.Is("switch"):
		return c.parseSwitch()
	case c.lex.Is("case"):
		return c.parseCase(declAllowed)
	case c.lex.Is("default"):
		return c.parseDefault(declAllowed)
	case c.lex.Is("break"):
		return c.parseBreak()
	case c.lex.Is("continue"):
		return c.parseContinue()
	case c.lex.Is("return"):
		return c.parseReturn()
	case c.lex.Is("goto"):
		return c.parseGoto()
	}

	if c.lex.IsIdentifier() {
		name, err := c.lex.Take()
		if err != nil {
			return err
		}
		if ok, err := c.lex.Accept(":"); err != nil {
			return err
		} else if ok {
			// A label and the statement after it together form one
			// statement, which matters in unbraced ifs and switches. A
			// label at the end of a block is also allowed, hence the
			// closing-brace check.
			c.emit.Label(SigilLocal, c.userLabelName(name))
			c.emit.Newline()
			if c.lex.Is("}") {
				return nil
			}
			return c.parseStatement(declAllowed)
		}
		// Not a keyword or label: an expression statement that begins with
		// an identifier. Stash it so the expression parser can re-take it.
		c.stashedName = name
		c.hasStashedName = true
	}

	return c.parseExpressionStatement()
}

func (c *Compiler) parseExpressionStatement() error {
	if _, err := c.parseExpression(); err != nil {
		return err
	}
	return c.lex.Expect(";", "expected `;` at end of expression statement")
}

// parseBlock implements a `{ ... }` compound statement: a fresh local scope
// that is truncated away (but whose peak frame usage is preserved) when the
// closing brace is reached.
func (c *Compiler) parseBlock() error {
	if _, err := c.lex.Take(); err != nil { // "{"
		return err
	}
	depth := c.locs.Depth()
	for !c.lex.Is("}") {
		if c.lex.AtEnd() {
			return c.lex.fatalf("unexpected end of input in block")
		}
		if err := c.parseStatement(true); err != nil {
			return err
		}
	}
	if _, err := c.lex.Take(); err != nil { // "}"
		return err
	}
	if fs := c.locs.FrameSize(); fs > c.functionFrame {
		c.functionFrame = fs
	}
	c.locs.Pop(depth)
	return nil
}

// parseLocalDeclaration implements a block-scope variable declaration with
// optional scalar initializers. Struct/union/enum/typedef definitions are
// file-scope only; storage classes are not permitted on locals.
func (c *Compiler) parseLocalDeclaration() error {
	st, err := c.parseDeclarationSpecifiers(true)
	if err != nil {
		return err
	}
	if st.storage != storageNone {
		return c.lex.fatalf("storage class specifiers are not supported on local declarations")
	}

	if ok, err := c.lex.Accept(";"); err != nil {
		return err
	} else if ok {
		return nil
	}

	base, err := st.baseType()
	if err != nil {
		return err
	}

	for {
		name, typ, err := c.parseDeclarator(base, true)
		if err != nil {
			return err
		}
		offset, err := c.locs.Add(name, typ)
		if err != nil {
			return err
		}
		if fs := c.locs.FrameSize(); fs > c.functionFrame {
			c.functionFrame = fs
		}

		if ok, err := c.lex.Accept("="); err != nil {
			return err
		} else if ok {
			if typ.IsArray() {
				return c.lex.fatalf("array initializers are not supported")
			}
			// Push the variable's address while the initializer runs, then
			// assign exactly as `name = expr` would.
			c.compileLoadFrameOffset(offset, regResult)
			c.compilePush(regResult)
			value, err := c.parseAssignmentExpression()
			if err != nil {
				return err
			}
			c.compilePop(regLeft)
			if _, err := c.compileAssign(typ.WithLValue(true), value); err != nil {
				return err
			}
		}

		again, err := c.lex.Accept(",")
		if err != nil {
			return err
		}
		if !again {
			break
		}
	}
	return c.lex.Expect(";", "expected `;` after local variable declaration")
}

// parseCondition compiles a parenthesized controlling expression and jumps
// to falseLabel if it is zero.
func (c *Compiler) parseCondition(falseLabel int) error {
	if err := c.lex.Expect("(", "expected `(` to start condition of branch or loop"); err != nil {
		return err
	}
	cond, err := c.parseExpression()
	if err != nil {
		return err
	}
	if err := c.lex.Expect(")", "expected `)` to end condition of branch or loop"); err != nil {
		return err
	}
	if _, err := c.compileLValueToRValue(cond, regResult); err != nil {
		return err
	}
	c.compileJumpIfZero(falseLabel)
	return nil
}

func (c *Compiler) parseIf() error {
	if _, err := c.lex.Take(); err != nil { // "if"
		return err
	}

	skipIfLabel := c.nextLabel()
	if err := c.parseCondition(skipIfLabel); err != nil {
		return err
	}
	if err := c.parseStatement(false); err != nil {
		return err
	}

	if ok, err := c.lex.Accept("else"); err != nil {
		return err
	} else if ok {
		// still in the if branch: skip the else branch
		skipElseLabel := c.nextLabel()
		c.compileJump(skipElseLabel)
		c.compileLabel(skipIfLabel)
		if err := c.parseStatement(false); err != nil {
			return err
		}
		c.compileLabel(skipElseLabel)
		return nil
	}

	c.compileLabel(skipIfLabel)
	return nil
}

// pushLoopLabels/popLoopLabels bracket a loop body so break and continue
// target the innermost enclosing loop.
func (c *Compiler) pushLoopLabels(continueLabel, breakLabel int) {
	c.loopContinueLabel = append(c.loopContinueLabel, continueLabel)
	c.loopBreakLabel = append(c.loopBreakLabel, breakLabel)
}

func (c *Compiler) popLoopLabels() {
	c.loopContinueLabel = c.loopContinueLabel[:len(c.loopContinueLabel)-1]
	c.loopBreakLabel = c.loopBreakLabel[:len(c.loopBreakLabel)-1]
}

func (c *Compiler) parseWhile() error {
	if _, err := c.lex.Take(); err != nil { // "while"
		return err
	}

	continueLabel := c.nextLabel()
	breakLabel := c.nextLabel()

	c.compileLabel(continueLabel)
	if err := c.parseCondition(breakLabel); err != nil {
		return err
	}

	c.pushLoopLabels(continueLabel, breakLabel)
	err := c.parseStatement(false)
	c.popLoopLabels()
	if err != nil {
		return err
	}

	c.compileJump(continueLabel)
	c.compileLabel(breakLabel)
	return nil
}

func (c *Compiler) parseDoWhile() error {
	if _, err := c.lex.Take(); err != nil { // "do"
		return err
	}

	continueLabel := c.nextLabel()
	breakLabel := c.nextLabel()
	c.compileLabel(continueLabel)

	c.pushLoopLabels(continueLabel, breakLabel)
	err := c.parseStatement(false)
	c.popLoopLabels()
	if err != nil {
		return err
	}

	if err := c.lex.Expect("while", "expected `while` after `do` statement"); err != nil {
		return err
	}
	if err := c.parseCondition(breakLabel); err != nil {
		return err
	}
	if err := c.lex.Expect(";", "expected `;` after do-while condition"); err != nil {
		return err
	}
	c.compileJump(continueLabel)
	c.compileLabel(breakLabel)
	return nil
}

// parseFor emits the increment clause where it appears in the source —
// before the body — and threads circuitous jumps around it so it actually
// runs after the body and before the re-test. `continue` targets the
// increment, so the four labels are condition, continue/increment,
// contents, and break.
func (c *Compiler) parseFor() error {
	if _, err := c.lex.Take(); err != nil { // "for"
		return err
	}
	if err := c.lex.Expect("(", "expected `(` after `for`"); err != nil {
		return err
	}

	depth := c.locs.Depth()
	continueLabel := c.nextLabel()
	breakLabel := c.nextLabel()
	conditionLabel := c.nextLabel()
	contentsLabel := c.nextLabel()

	// initialization clause
	if ok, err := c.lex.Accept(";"); err != nil {
		return err
	} else if !ok {
		if c.startsLocalDeclaration() {
			if err := c.parseLocalDeclaration(); err != nil { // consumes the `;`
				return err
			}
		} else {
			if _, err := c.parseExpression(); err != nil {
				return err
			}
			if err := c.lex.Expect(";", "expected `;` after initialization clause of `for`"); err != nil {
				return err
			}
		}
	}

	// condition clause
	c.compileLabel(conditionLabel)
	if ok, err := c.lex.Accept(";"); err != nil {
		return err
	} else if !ok {
		cond, err := c.parseExpression()
		if err != nil {
			return err
		}
		if _, err := c.compileLValueToRValue(cond, regResult); err != nil {
			return err
		}
		c.compileJumpIfZero(breakLabel)
		if err := c.lex.Expect(";", "expected `;` after condition clause of `for`"); err != nil {
			return err
		}
	}
	c.compileJump(contentsLabel)

	// increment clause
	c.compileLabel(continueLabel)
	if ok, err := c.lex.Accept(")"); err != nil {
		return err
	} else if !ok {
		if _, err := c.parseExpression(); err != nil {
			return err
		}
		if err := c.lex.Expect(")", "expected `)` after increment clause of `for`"); err != nil {
			return err
		}
	}
	c.compileJump(conditionLabel)

	// contents
	c.compileLabel(contentsLabel)
	c.pushLoopLabels(continueLabel, breakLabel)
	err := c.parseStatement(false)
	c.popLoopLabels()
	if err != nil {
		return err
	}
	c.compileJump(continueLabel)
	c.compileLabel(breakLabel)

	if fs := c.locs.FrameSize(); fs > c.functionFrame {
		c.functionFrame = fs
	}
	c.locs.Pop(depth)
	return nil
}

// parseSwitch implements §4.8's case-chain dispatch. The controlling value
// is evaluated once and stashed in an anonymous int local so every `case`
// can re-read it; a forward jump hands control to the first chain node, and
// the chain's final miss target becomes the `default` label if the body
// declared one, or the end of the switch otherwise.
func (c *Compiler) parseSwitch() error {
	if _, err := c.lex.Take(); err != nil { // "switch"
		return err
	}
	if err := c.lex.Expect("(", "expected `(` after `switch`"); err != nil {
		return err
	}
	val, err := c.parseExpression()
	if err != nil {
		return err
	}
	if err := c.lex.Expect(")", "expected `)` after expression of `switch`"); err != nil {
		return err
	}
	val, err = c.compilePromote(val, regResult)
	if err != nil {
		return err
	}

	depth := c.locs.Depth()
	intType := NewBaseType(BaseSignedInt)
	offset, err := c.locs.Add("", intType)
	if err != nil {
		return err
	}
	if fs := c.locs.FrameSize(); fs > c.functionFrame {
		c.functionFrame = fs
	}
	c.compileLoadFrameOffset(offset, regLeft)
	if _, err := c.compileAssign(intType.WithLValue(true), val); err != nil {
		return err
	}

	chainLabel := c.nextLabel()
	breakLabel := c.nextLabel()
	c.compileJump(chainLabel)

	c.switchLabels = append(c.switchLabels, switchContext{
		ValueOffset: offset,
		ChainLabel:  chainLabel,
	})
	c.loopBreakLabel = append(c.loopBreakLabel, breakLabel)

	err = c.parseStatement(false)

	ctx := c.switchLabels[len(c.switchLabels)-1]
	c.switchLabels = c.switchLabels[:len(c.switchLabels)-1]
	c.loopBreakLabel = c.loopBreakLabel[:len(c.loopBreakLabel)-1]
	if err != nil {
		return err
	}

	// Falling off the last case body leaves the switch; only a dispatch
	// miss reaches the chain tail, which runs `default` if there is one.
	c.compileJump(breakLabel)
	c.compileLabel(ctx.ChainLabel)
	if ctx.HasDefault {
		c.compileJump(ctx.DefaultLabel)
	}
	c.compileLabel(breakLabel)

	if fs := c.locs.FrameSize(); fs > c.functionFrame {
		c.functionFrame = fs
	}
	c.locs.Pop(depth)
	return nil
}

// parseCase compiles one dispatch arc: code flowing in from above jumps
// over the check (fall-through), while the chain node re-reads the stored
// switch value, compares it with the case constant, and either runs the
// body or moves on to the next node.
func (c *Compiler) parseCase(declAllowed bool) error {
	if len(c.switchLabels) == 0 {
		return c.lex.fatalf("cannot use `case` outside of a switch")
	}
	if _, err := c.lex.Take(); err != nil { // "case"
		return err
	}

	idx := len(c.switchLabels) - 1
	ctx := c.switchLabels[idx]

	runLabel := c.nextLabel()
	c.compileJump(runLabel)
	c.compileLabel(ctx.ChainLabel)
	ctx.ChainLabel = c.nextLabel()

	constVal, err := c.parseConstantExpression()
	if err != nil {
		return err
	}
	if err := c.lex.Expect(":", "expected `:` after `case` expression"); err != nil {
		return err
	}

	// case constant in r0, switch value in r1
	c.emitImm("imw", regResult, constVal.Value)
	c.compileLoadFrameOffset(ctx.ValueOffset, regLeft)
	c.compileLoadAt("ldw", regLeft)
	if _, err := c.compileComparison("!=", NewBaseType(BaseSignedInt), NewBaseType(constVal.Base)); err != nil {
		return err
	}
	c.compileJumpIfZero(runLabel)
	c.compileJump(ctx.ChainLabel)
	c.compileLabel(runLabel)

	c.switchLabels[idx] = ctx

	if c.lex.Is("}") {
		return nil
	}
	return c.parseStatement(declAllowed)
}

func (c *Compiler) parseDefault(declAllowed bool) error {
	if len(c.switchLabels) == 0 {
		return c.lex.fatalf("cannot use `default` outside of a switch")
	}
	if _, err := c.lex.Take(); err != nil { // "default"
		return err
	}
	if err := c.lex.Expect(":", "expected `:` after `default`"); err != nil {
		return err
	}

	idx := len(c.switchLabels) - 1
	if c.switchLabels[idx].HasDefault {
		return c.lex.fatalf("`default` has already been used in this switch")
	}

	label := c.nextLabel()
	c.compileLabel(label)
	c.switchLabels[idx].HasDefault = true
	c.switchLabels[idx].DefaultLabel = label

	if c.lex.Is("}") {
		return nil
	}
	return c.parseStatement(declAllowed)
}

func (c *Compiler) parseBreak() error {
	if _, err := c.lex.Take(); err != nil { // "break"
		return err
	}
	if len(c.loopBreakLabel) == 0 {
		return c.lex.fatalf("cannot `break` outside of loop or switch")
	}
	c.compileJump(c.loopBreakLabel[len(c.loopBreakLabel)-1])
	return c.lex.Expect(";", "expected `;` after `break`")
}

func (c *Compiler) parseContinue() error {
	if _, err := c.lex.Take(); err != nil { // "continue"
		return err
	}
	if len(c.loopContinueLabel) == 0 {
		return c.lex.fatalf("cannot `continue` outside of loop")
	}
	c.compileJump(c.loopContinueLabel[len(c.loopContinueLabel)-1])
	return c.lex.Expect(";", "expected `;` after `continue`")
}

// parseReturn evaluates the return value (if any) into r0, cast to the
// function's return type. A bare `return;` in main zeroes r0 first so the
// process exit code is well-defined.
func (c *Compiler) parseReturn() error {
	if _, err := c.lex.Take(); err != nil { // "return"
		return err
	}

	if !c.lex.Is(";") {
		val, err := c.parseExpression()
		if err != nil {
			return err
		}
		val, err = c.compileLValueToRValue(val, regResult)
		if err != nil {
			return err
		}
		if _, err := c.compileCast(val, c.functionReturn, regResult); err != nil {
			return err
		}
	} else if c.functionName == "main" {
		c.emit1("zero", regResult)
	}

	c.emit.Term("leave")
	c.emit.Newline()
	c.emit.Term("ret")
	c.emit.Newline()
	return c.lex.Expect(";", "expected `;` at end of `return` statement")
}

func (c *Compiler) parseGoto() error {
	if _, err := c.lex.Take(); err != nil { // "goto"
		return err
	}
	if !c.lex.IsIdentifier() {
		return c.lex.fatalf("expected an identifier after `goto`")
	}
	name, err := c.lex.Take()
	if err != nil {
		return err
	}
	c.emit.Term("jmp")
	c.emit.Label(SigilJump, c.userLabelName(name))
	c.emit.Newline()
	return c.lex.Expect(";", "expected `;` after `goto` label")
}
