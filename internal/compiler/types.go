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

// Base is the closed set of primitive type categories opC recognizes, plus
// the BaseRecord sentinel for struct/union values. long is not its own base:
// it normalizes to BaseSignedInt/BaseUnsignedInt during specifier parsing.
// long long is tracked only long enough to be rejected; no Base represents
// a usable 64-bit operand.
type Base int

const (
	BaseVoid Base = iota
	BaseSignedChar
	BaseUnsignedChar
	BaseSignedShort
	BaseUnsignedShort
	BaseSignedInt
	BaseUnsignedInt
	BaseRecord
)

// Sentinels for Type.ArrayLength.
const (
	ArrayNone          = -1 // not an array
	ArrayIndeterminate = -2 // `[]`; rewritten to 0 as a record's last member
)

// baseSize returns the storage size in bytes of a non-pointer, non-record
// base. sizeof(void) is 1, reproducing GCC's extension deliberately (see
// Open Question (a) in the original design notes).
func baseSize(b Base) int {
	switch b {
	case BaseVoid, BaseSignedChar, BaseUnsignedChar:
		return 1
	case BaseSignedShort, BaseUnsignedShort:
		return 2
	case BaseSignedInt, BaseUnsignedInt:
		return 4
	case BaseRecord:
		return 0 // callers must use Record.Size instead
	}
	return 4
}

// Type is the five-field value descriptor at the center of this compiler:
// base kind, pointer depth, array length, an optional record reference, and
// the l-value flag ("the register holds an address, not a value"). Types are
// plain Go values and are copied by assignment; Clone exists only so call
// sites that mirror the original's ownership-transfer shape keep reading the
// same way.
type Type struct {
	Base          Base
	PointerDepth  int
	ArrayLength   int
	Record        *Record
	LValue        bool
}

func NewBaseType(b Base) Type {
	return Type{Base: b, ArrayLength: ArrayNone}
}

func NewRecordType(r *Record) Type {
	return Type{Base: BaseRecord, Record: r, ArrayLength: ArrayNone}
}

func (t Type) Clone() Type {
	return t
}

// Indirections is pointer depth plus one if the type is an array.
func (t Type) Indirections() int {
	n := t.PointerDepth
	if t.ArrayLength != ArrayNone {
		n++
	}
	return n
}

func (t Type) IsPointer() bool {
	return t.PointerDepth > 0 && t.ArrayLength == ArrayNone
}

func (t Type) IsArray() bool {
	return t.ArrayLength != ArrayNone
}

func (t Type) IsVoidPointer() bool {
	return t.Base == BaseVoid && t.Indirections() == 1
}

func (t Type) IsInteger() bool {
	return t.Indirections() == 0 && t.Base != BaseRecord && t.Base != BaseVoid
}

func (t Type) IsSigned() bool {
	if !t.IsInteger() {
		return false
	}
	switch t.Base {
	case BaseSignedChar, BaseSignedShort, BaseSignedInt:
		return true
	}
	return false
}

func (t Type) IsUnsigned() bool {
	return t.IsInteger() && !t.IsSigned()
}

// Size implements §4.3 `size(t)`: 4 for any pointer or array-of-pointers
// (i.e. any type whose first indirection level is a pointer rather than the
// array's own element), the record's cached size if complete, otherwise
// base size times element count (1 for non-arrays).
func (t Type) Size() (int, error) {
	if t.PointerDepth > 0 {
		return 4, nil
	}
	if t.IsArray() {
		if t.ArrayLength == ArrayIndeterminate {
			return 0, fatalf("sizeof of incomplete array type")
		}
		elemSize, err := t.decayedElementSize()
		if err != nil {
			return 0, err
		}
		n := t.ArrayLength
		if n < 1 {
			n = 1
		}
		return elemSize * n, nil
	}
	if t.Base == BaseRecord {
		if t.Record == nil || t.Record.Members == nil {
			return 0, fatalf("sizeof of incomplete struct or union")
		}
		return t.Record.Size, nil
	}
	return baseSize(t.Base), nil
}

// decayedElementSize computes the size of one array element (the type with
// the array dimension stripped off, treated as a scalar).
func (t Type) decayedElementSize() (int, error) {
	elem := t
	elem.ArrayLength = ArrayNone
	return elem.Size()
}

// Alignment implements §4.3 `alignment(t)`: 4 for any pointer or int-width
// base, otherwise the base's own size. Per design note (b), record alignment
// is conservatively 4 rather than the maximum member alignment.
func (t Type) Alignment() int {
	if t.PointerDepth > 0 {
		return 4
	}
	if t.Base == BaseRecord {
		return 4
	}
	switch t.Base {
	case BaseSignedInt, BaseUnsignedInt:
		return 4
	}
	return baseSize(t.Base)
}

// DecayArray converts an array type to a pointer to its element type. It is
// idempotent on non-arrays.
func (t Type) DecayArray() Type {
	if !t.IsArray() {
		return t
	}
	t.ArrayLength = ArrayNone
	t.PointerDepth++
	return t
}

// DecrementIndirection strips one level of pointer/array-ness, as `*` does.
func (t Type) DecrementIndirection() (Type, error) {
	if t.IsArray() {
		t.ArrayLength = ArrayNone
		return t, nil
	}
	if t.PointerDepth == 0 {
		return t, fatalf("type is not a pointer")
	}
	t.PointerDepth--
	return t, nil
}

func (t Type) WithLValue(b bool) Type {
	t.LValue = b
	return t
}

func (t Type) IsLValue() bool {
	return t.LValue
}

// Equal is structural equality on base, pointer depth, array length, and
// record reference. LValue is a transient flag about usage, not part of the
// declared type, so it does not participate. Record identity is compared by
// pointer: two distinct struct tags are never equal even with identical
// layout.
func (t Type) Equal(o Type) bool {
	return t.Base == o.Base &&
		t.PointerDepth == o.PointerDepth &&
		t.ArrayLength == o.ArrayLength &&
		t.Record == o.Record
}

// IsCompatible implements §4.3's deliberately permissive compatibility
// check used for assignment/call/comparison type checking.
func (t Type) IsCompatible(o Type) bool {
	if t.Equal(o) {
		return true
	}
	lt, ro := t.DecayArray(), o.DecayArray()
	if lt.Base == ro.Base && lt.Indirections() == ro.Indirections() {
		return true
	}
	if lt.Indirections() > 0 && ro.Indirections() > 0 {
		if lt.IsVoidPointer() || ro.IsVoidPointer() {
			return true
		}
	}
	// Deliberate under-check: at least one operand being any integer is
	// accepted, so literal zero compares against any pointer without the
	// compiler tracking constantness. See Open Question (c).
	if lt.IsInteger() || ro.IsInteger() {
		return true
	}
	return false
}

