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

// Jump and label helpers shared by expression codegen (&&, ||, ?:) and
// statement codegen (if/while/do/for/switch). Every synthetic label is a
// small monotonic integer rendered in the `_Lx<hex>` form from §6.

func (c *Compiler) labelName(id int) string {
	return c.syntheticLabelName(jumpLabelPrefix, id)
}

func (c *Compiler) compileLabel(id int) {
	c.emit.Label(SigilLocal, c.labelName(id))
	c.emit.Newline()
}

func (c *Compiler) compileJump(id int) {
	c.emit.Term("jmp")
	c.emit.Label(SigilJump, c.labelName(id))
	c.emit.Newline()
}

func (c *Compiler) compileJumpIfZero(id int) {
	c.emit.Term("jz")
	c.emit.Register(regResult)
	c.emit.Label(SigilJump, c.labelName(id))
	c.emit.Newline()
}

func (c *Compiler) compileJumpIfNotZero(id int) {
	c.emit.Term("jnz")
	c.emit.Register(regResult)
	c.emit.Label(SigilJump, c.labelName(id))
	c.emit.Newline()
}
