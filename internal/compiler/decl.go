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

// storageClass is the at-most-one-of {typedef, extern, static} slot from
// §4.6's specifier list.
type storageClass int

const (
	storageNone storageClass = iota
	storageTypedef
	storageExtern
	storageStatic
)

// Type-specifier bits, combined and validated per C11 6.7.2.2 (minus the
// long long combinations, which opC rejects).
const (
	specVoid = 1 << iota
	specChar
	specShort
	specInt
	specLong
	specSigned
	specUnsigned
)

// ignoredQualifierKeywords are consumed and discarded but still count as "a
// specifier was found", so a declaration made of them alone is not reported
// as missing:
// qualifiers, function specifiers, and storage-class keywords with no
// effect on the type opC tracks.
var ignoredQualifierKeywords = map[string]bool{
	"const": true, "volatile": true, "restrict": true,
	"inline": true, "_Noreturn": true, "_Atomic": true,
	"auto": true, "register": true, "_Thread_local": true, "constexpr": true,
}

type specifierState struct {
	specifiers  int
	record      *Record
	typedefType *Type
	storage     storageClass
	any         bool
}

func (st specifierState) found() bool {
	return st.any || st.specifiers != 0 || st.record != nil || st.typedefType != nil || st.storage != storageNone
}

// parseDeclarationSpecifiers implements §4.6's specifier-list parsing:
// any-order primitive keywords, at most one record-or-typedef reference,
// and at most one storage class. allowStorage is false inside struct/union
// member declarations, where storage classes are not permitted.
func (c *Compiler) parseDeclarationSpecifiers(allowStorage bool) (specifierState, error) {
	var st specifierState

	for c.lex.IsIdentifier() {
		if ignoredQualifierKeywords[c.lex.Token] {
			if _, err := c.lex.Take(); err != nil {
				return st, err
			}
			st.any = true
			continue
		}

		if kw := c.lex.Token; kw == "typedef" || kw == "extern" || kw == "static" {
			if !allowStorage {
				return st, c.lex.fatalf("storage class specifiers are not allowed here")
			}
			if st.storage != storageNone {
				return st, c.lex.fatalf("multiple storage classes are not supported")
			}
			switch kw {
			case "typedef":
				st.storage = storageTypedef
			case "extern":
				st.storage = storageExtern
			case "static":
				st.storage = storageStatic
			}
			if _, err := c.lex.Take(); err != nil {
				return st, err
			}
			continue
		}

		var bit int
		switch c.lex.Token {
		case "void":
			bit = specVoid
		case "char":
			bit = specChar
		case "short":
			bit = specShort
		case "int":
			bit = specInt
		case "signed":
			bit = specSigned
		case "unsigned":
			bit = specUnsigned
		case "long":
			if st.specifiers&specLong != 0 {
				return st, c.lex.fatalf("`long long` is not supported")
			}
			bit = specLong
		case "enum":
			if _, err := c.lex.Take(); err != nil {
				return st, err
			}
			if err := c.parseEnumSpecifier(); err != nil {
				return st, err
			}
			// all enums are just aliases of int
			if st.specifiers&specInt != 0 {
				return st, c.lex.fatalf("redundant enum specifier")
			}
			st.specifiers |= specInt
			continue
		case "struct", "union":
			isStruct := c.lex.Token == "struct"
			if _, err := c.lex.Take(); err != nil {
				return st, err
			}
			if st.record != nil {
				return st, c.lex.fatalf("redundant struct/union specifier")
			}
			rec, err := c.parseRecordSpecifier(isStruct)
			if err != nil {
				return st, err
			}
			st.record = rec
			continue
		default:
			// A bare identifier can only be a typedef name, and only if no
			// other type specifier has been seen yet.
			if st.specifiers == 0 && st.record == nil && st.typedefType == nil {
				if typ, ok := c.types.lookupTypedef(c.lex.Token); ok {
					if _, err := c.lex.Take(); err != nil {
						return st, err
					}
					t := typ
					st.typedefType = &t
					continue
				}
			}
			return st, nil
		}

		st.specifiers |= bit
		if _, err := c.lex.Take(); err != nil {
			return st, err
		}
	}
	return st, nil
}

// baseType resolves the accumulated specifiers into a concrete Type,
// after the two normalizations from §4.6: `int` is redundant next to a
// width keyword, and `long` rewrites to `int`.
func (st specifierState) baseType() (Type, error) {
	if st.typedefType != nil {
		if st.record != nil || st.specifiers != 0 {
			return Type{}, fatalf("redundant type name in declaration specifier list")
		}
		return *st.typedefType, nil
	}
	if st.record != nil {
		if st.specifiers != 0 {
			return Type{}, fatalf("redundant struct/union and type specifiers in declaration specifier list")
		}
		return NewRecordType(st.record), nil
	}

	spec := st.specifiers
	if spec&specInt != 0 && spec&(specShort|specLong) != 0 {
		spec &^= specInt
	}
	if spec&specLong != 0 {
		spec &^= specLong
		spec |= specInt
	}

	switch spec {
	case specVoid:
		return NewBaseType(BaseVoid), nil
	case specUnsigned | specChar:
		return NewBaseType(BaseUnsignedChar), nil
	case specUnsigned | specShort:
		return NewBaseType(BaseUnsignedShort), nil
	case specUnsigned | specInt, specUnsigned:
		return NewBaseType(BaseUnsignedInt), nil
	case specChar, specSigned | specChar:
		return NewBaseType(BaseSignedChar), nil
	case specShort, specSigned | specShort:
		return NewBaseType(BaseSignedShort), nil
	case specInt, specSigned, specSigned | specInt:
		return NewBaseType(BaseSignedInt), nil
	}
	return Type{}, fatalf("unsupported combination of type specifiers")
}

// parseDeclarator implements §4.6's declarator grammar: an optional
// `*`-chain, a direct-declarator (parenthesized, named, or abstract), and
// zero or more `[...]` array suffixes. Multi-dimensional arrays,
// pointer-to-array, and function-pointer declarators are rejected; the
// pointer count is applied after the direct-declarator so the rejections
// can fire.
func (c *Compiler) parseDeclarator(base Type, requireName bool) (string, Type, error) {
	ptrCount := 0
	for {
		ok, err := c.lex.Accept("*")
		if err != nil {
			return "", Type{}, err
		}
		if !ok {
			break
		}
		ptrCount++
		for c.lex.Is("const") || c.lex.Is("volatile") || c.lex.Is("restrict") {
			if _, err := c.lex.Take(); err != nil {
				return "", Type{}, err
			}
		}
	}

	name := ""
	nested := false
	nestedPointerDepth := 0
	if ok, err := c.lex.Accept("("); err != nil {
		return "", Type{}, err
	} else if ok {
		nested = true
		n, nt, err := c.parseDeclarator(Type{ArrayLength: ArrayNone}, requireName)
		if err != nil {
			return "", Type{}, err
		}
		name = n
		nestedPointerDepth = nt.PointerDepth
		if err := c.lex.Expect(")", "expected `)` in declarator"); err != nil {
			return "", Type{}, err
		}
	} else if c.lex.IsIdentifier() {
		n, err := c.lex.Take()
		if err != nil {
			return "", Type{}, err
		}
		name = n
	} else if requireName {
		return "", Type{}, c.lex.fatalf("expected an identifier in declarator")
	}

	if nested && c.lex.Is("(") {
		return "", Type{}, c.lex.fatalf("function pointers are not supported")
	}

	arrayLen := ArrayNone
	sawArray := false
	for {
		ok, err := c.lex.Accept("[")
		if err != nil {
			return "", Type{}, err
		}
		if !ok {
			break
		}
		if sawArray {
			return "", Type{}, c.lex.fatalf("multi-dimensional arrays are not supported")
		}
		if c.lex.Is("]") {
			arrayLen = ArrayIndeterminate
		} else {
			v, err := c.parseConstantExpression()
			if err != nil {
				return "", Type{}, err
			}
			arrayLen = int(v.Value)
		}
		if err := c.lex.Expect("]", "expected `]` in array declarator"); err != nil {
			return "", Type{}, err
		}
		sawArray = true
	}

	if sawArray && (ptrCount > 0 || (nested && nestedPointerDepth > 0)) {
		return "", Type{}, c.lex.fatalf("pointer-to-array types are not supported")
	}

	typ := base
	typ.PointerDepth += ptrCount + nestedPointerDepth
	if sawArray {
		typ.ArrayLength = arrayLen
	}
	return name, typ, nil
}

// tryParseTypeName attempts to parse an abstract declaration, used by
// casts, sizeof(type), and va_arg. Whether the upcoming tokens start a type
// at all is decided by a cheap non-backtracking check: a specifier keyword
// or a known typedef name must be present.
func (c *Compiler) tryParseTypeName() (Type, bool, error) {
	if !c.startsTypeName() {
		return Type{}, false, nil
	}
	st, err := c.parseDeclarationSpecifiers(false)
	if err != nil {
		return Type{}, false, err
	}
	base, err := st.baseType()
	if err != nil {
		return Type{}, false, err
	}
	_, typ, err := c.parseDeclarator(base, false)
	if err != nil {
		return Type{}, false, err
	}
	return typ, true, nil
}

func (c *Compiler) startsTypeName() bool {
	switch c.lex.Token {
	case "void", "char", "short", "int", "long", "signed", "unsigned",
		"struct", "union", "enum",
		"const", "volatile", "restrict", "_Atomic":
		return c.lex.IsIdentifier()
	}
	if c.lex.IsIdentifier() {
		_, ok := c.types.lookupTypedef(c.lex.Token)
		return ok
	}
	return false
}

// parseRecordSpecifier implements §4.4's parse_record: look up or create
// the tagged record, and if a `{` follows, parse and install its members.
// Struct and union declarations are file-scope only.
func (c *Compiler) parseRecordSpecifier(isStruct bool) (*Record, error) {
	var rec *Record
	name := ""
	if c.lex.IsIdentifier() {
		name = c.lex.Token
		rec = c.types.lookupRecord(name, isStruct)
		if rec == nil {
			if c.inFunction {
				return nil, c.lex.fatalf("structs and unions cannot be declared inside functions")
			}
			rec = &Record{Name: name, IsStruct: isStruct}
			c.types.defineRecord(name, rec)
		}
		if _, err := c.lex.Take(); err != nil {
			return nil, err
		}
	} else {
		rec = &Record{IsStruct: isStruct}
	}

	ok, err := c.lex.Accept("{")
	if err != nil {
		return nil, err
	}
	if !ok {
		if rec.Name == "" {
			return nil, c.lex.fatalf("expected `{` or a name after `struct` or `union`")
		}
		return rec, nil
	}

	if c.inFunction {
		return nil, c.lex.fatalf("structs and unions cannot be defined inside functions")
	}
	if rec.Members != nil {
		return nil, c.lex.fatalf("%s %q is already defined", recordKindWord(isStruct), rec.Name)
	}

	var members []*Member
	for !c.lex.Is("}") {
		if c.lex.AtEnd() {
			return nil, c.lex.fatalf("unexpected end of input in %s body", recordKindWord(isStruct))
		}
		memberSt, err := c.parseDeclarationSpecifiers(false)
		if err != nil {
			return nil, err
		}
		if !memberSt.found() {
			return nil, c.lex.fatalf("expected a struct or union member declaration")
		}
		memberBase, err := memberSt.baseType()
		if err != nil {
			return nil, err
		}

		mname, mtype, err := c.parseDeclarator(memberBase, false)
		if err != nil {
			return nil, err
		}

		if ok, err := c.lex.Accept(":"); err != nil {
			return nil, err
		} else if ok {
			// A bitfield width is parsed and ignored; the member takes the
			// underlying type's full size. An unnamed bitfield declares
			// padding and produces no member at all.
			if _, err := c.parseConstantExpression(); err != nil {
				return nil, err
			}
			if mname == "" {
				if err := c.lex.Expect(";", "expected `;` after unnamed bitfield declaration"); err != nil {
					return nil, err
				}
				continue
			}
		}

		// C11 anonymous struct and union members are allowed; any other
		// member must be named.
		if mname == "" && (mtype.Base != BaseRecord || mtype.IsPointer()) {
			return nil, c.lex.fatalf("this struct or union member must have a name")
		}

		members = append(members, &Member{Name: mname, Type: mtype})
		if err := c.lex.Expect(";", "expected `;` after struct or union member declaration"); err != nil {
			return nil, err
		}
	}
	if _, err := c.lex.Take(); err != nil { // "}"
		return nil, err
	}
	if len(members) == 0 {
		return nil, c.lex.fatalf("structs and unions must have at least one member")
	}

	if err := rec.InstallMembers(members); err != nil {
		return nil, err
	}
	return rec, nil
}

func recordKindWord(isStruct bool) string {
	if isStruct {
		return "struct"
	}
	return "union"
}

// parseEnumSpecifier parses `enum name { a, b = 2, c }`. Each enumerator
// becomes a global int constant: it is emitted as a word of initialized
// data and registered in the global symbol table, so references load it
// like any other global variable. The tag name is mandatory and otherwise
// ignored. Enums are file-scope only.
func (c *Compiler) parseEnumSpecifier() error {
	if !c.lex.IsIdentifier() {
		return c.lex.fatalf("`enum` must be followed by a name")
	}
	if _, err := c.lex.Take(); err != nil {
		return err
	}

	ok, err := c.lex.Accept("{")
	if err != nil {
		return err
	}
	if !ok {
		return nil // reference to a previously-declared enum
	}
	if c.inFunction {
		return c.lex.fatalf("enums cannot be defined inside functions")
	}

	value := int32(0)
	for {
		if !c.lex.IsIdentifier() {
			return c.lex.fatalf("expected an enum value")
		}
		name, err := c.lex.Take()
		if err != nil {
			return err
		}

		if ok, err := c.lex.Accept("="); err != nil {
			return err
		} else if ok {
			v, err := c.parseConstantExpression()
			if err != nil {
				return err
			}
			value = v.Value
		}

		c.compileEnumValue(name, value)
		if _, err := c.globs.Add(&Global{Name: name, Type: NewBaseType(BaseSignedInt)}); err != nil {
			return err
		}
		value++

		if ok, err := c.lex.Accept(","); err != nil {
			return err
		} else if !ok {
			break
		}
		if c.lex.Is("}") {
			break
		}
	}
	return c.lex.Expect("}", "expected `,` or `}` after enum value")
}

// compileEnumValue emits the enumerator's value as a labelled word of data.
func (c *Compiler) compileEnumValue(name string, value int32) {
	c.emit.Label(SigilDefinition, name)
	c.emit.Newline()
	c.emit.Immediate(value)
	c.emit.Newline()
	c.emit.GlobalDivider()
}
