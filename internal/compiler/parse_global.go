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

// parseGlobal implements §4.6's top-level driver: one declaration-specifier
// list, then a loop over comma-separated declarators, dispatching to
// typedef registration, function declaration/definition, or global variable
// emission.
func (c *Compiler) parseGlobal() error {
	st, err := c.parseDeclarationSpecifiers(true)
	if err != nil {
		return err
	}
	if !st.found() {
		return c.lex.fatalf("expected a global declaration")
	}

	// A bare `struct S { ... };` or `enum E { ... };` with no declarator is
	// legal and emits nothing further.
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

		if st.storage == storageTypedef {
			c.types.defineTypedef(name, typ)
		} else if ok, err := c.lex.Accept("("); err != nil {
			return err
		} else if ok {
			// A function body ends the declaration, so no `,` loop here.
			return c.parseFunctionDeclOrDef(name, typ, st.storage)
		} else {
			if err := c.declareGlobalVariable(name, typ, st.storage); err != nil {
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

	return c.lex.Expect(";", "expected `;` at end of global declaration")
}

// declareGlobalVariable registers the variable and, unless it is extern,
// emits its storage: zeroed bytes, or a single initialized word when a
// constant initializer is present. Both external and static linkage use the
// same `@` sigil in this compiler.
func (c *Compiler) declareGlobalVariable(name string, typ Type, storage storageClass) error {
	if _, err := c.globs.Add(&Global{Name: name, Type: typ}); err != nil {
		return err
	}

	hasInit, err := c.lex.Accept("=")
	if err != nil {
		return err
	}
	if hasInit {
		// Only a constant expression initializing a word-sized scalar is
		// supported; everything a full compiler would allow here (string
		// and brace initializers, narrow scalars) is not.
		size, err := typ.Size()
		if err != nil {
			return err
		}
		if typ.IsArray() || typ.Base == BaseRecord || size != 4 {
			return c.lex.fatalf("only word-sized scalars may have a global initializer")
		}
		v, err := c.parseConstantExpression()
		if err != nil {
			return err
		}
		if storage == storageExtern {
			return c.lex.fatalf("an extern declaration cannot have an initializer")
		}
		c.emit.Label(SigilDefinition, name)
		c.emit.Newline()
		c.emit.Immediate(v.Value)
		c.emit.Newline()
		c.emit.GlobalDivider()
		return nil
	}

	if storage == storageExtern {
		return nil
	}
	size, err := typ.Size()
	if err != nil {
		return err
	}
	c.emit.Label(SigilDefinition, name)
	c.emit.Newline()
	c.emit.ZeroedData(size)
	c.emit.GlobalDivider()
	return nil
}

// parseFunctionDeclOrDef parses the parameter list that follows `name(`,
// registers the function global, and compiles the body if one follows.
func (c *Compiler) parseFunctionDeclOrDef(name string, returnType Type, storage storageClass) error {
	c.inFunction = true
	defer func() { c.inFunction = false }()

	paramNames, paramTypes, variadic, err := c.parseParameterList()
	if err != nil {
		return err
	}

	g := &Global{
		Name:       name,
		Type:       returnType,
		IsFunction: true,
		ParamTypes: paramTypes,
		Variadic:   variadic,
	}
	if _, err := c.globs.Add(g); err != nil {
		return err
	}

	ok, err := c.lex.Accept("{")
	if err != nil {
		return err
	}
	if !ok {
		return c.lex.Expect(";", "expected `;` after function declaration")
	}

	return c.compileFunctionBody(name, returnType, paramNames, paramTypes)
}

// parseParameterList implements §4.6's parameter-list grammar: zero or more
// comma-separated declarations, optionally terminated by `, ...`. A single
// unnamed `void` parameter denotes a zero-parameter function. Array
// parameter types decay to pointers; unnamed parameters still get a stack
// slot under an empty name, which is simpler than optimizing them away.
func (c *Compiler) parseParameterList() ([]string, []Type, bool, error) {
	var names []string
	var types []Type
	variadic := false

	for {
		if ok, err := c.lex.Accept(")"); err != nil {
			return nil, nil, false, err
		} else if ok {
			return names, types, variadic, nil
		}
		if len(types) > 0 {
			if err := c.lex.Expect(",", "expected `,` or `)` after parameter"); err != nil {
				return nil, nil, false, err
			}
		}

		if ok, err := c.lex.Accept("..."); err != nil {
			return nil, nil, false, err
		} else if ok {
			if len(types) == 0 {
				return nil, nil, false, c.lex.fatalf("at least one named parameter is required before `...`")
			}
			if err := c.lex.Expect(")", "expected `)` after `...`"); err != nil {
				return nil, nil, false, err
			}
			return names, types, true, nil
		}

		st, err := c.parseDeclarationSpecifiers(false)
		if err != nil {
			return nil, nil, false, err
		}
		if !st.found() {
			return nil, nil, false, c.lex.fatalf("expected a function parameter declaration")
		}
		base, err := st.baseType()
		if err != nil {
			return nil, nil, false, err
		}
		name, typ, err := c.parseDeclarator(base, false)
		if err != nil {
			return nil, nil, false, err
		}

		// (void) denotes an empty parameter list
		if name == "" && typ.Base == BaseVoid && typ.Indirections() == 0 && len(types) == 0 {
			if ok, err := c.lex.Accept(")"); err != nil {
				return nil, nil, false, err
			} else if ok {
				return nil, nil, false, nil
			}
		}

		names = append(names, name)
		types = append(types, typ.DecayArray())
	}
}
