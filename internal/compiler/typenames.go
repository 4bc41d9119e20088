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

// typeNameKind distinguishes the three namespaces a name can be registered
// in: a typedef alias, or a struct/union tag. C keeps tags and typedefs in
// separate namespaces, so `(name, kind)` is the key, not `name` alone.
type typeNameKind int

const (
	typeNameTypedef typeNameKind = iota
	typeNameStruct
	typeNameUnion
)

type typeNameKey struct {
	name string
	kind typeNameKind
}

type typeNameEntry struct {
	typ    *Type
	record *Record
}

// typeNameTable is the registry of typedefs and tagged struct/union
// declarations. The original implements this as a hand-rolled hash table;
// per the design note that hand-rolled hashtables are a bootstrapping
// artefact, this repo uses a plain Go map.
type typeNameTable struct {
	entries map[typeNameKey]*typeNameEntry
}

func newTypeNameTable() *typeNameTable {
	t := &typeNameTable{entries: make(map[typeNameKey]*typeNameEntry)}
	// __builtin_va_list is a pre-installed typedef for int*, supporting
	// <stdarg.h> without a dedicated va_list base kind.
	vaList := NewBaseType(BaseSignedInt)
	vaList.PointerDepth = 1
	t.entries[typeNameKey{"__builtin_va_list", typeNameTypedef}] = &typeNameEntry{typ: &vaList}
	return t
}

func (t *typeNameTable) lookupTypedef(name string) (Type, bool) {
	e, ok := t.entries[typeNameKey{name, typeNameTypedef}]
	if !ok {
		return Type{}, false
	}
	return *e.typ, true
}

func (t *typeNameTable) defineTypedef(name string, typ Type) {
	t.entries[typeNameKey{name, typeNameTypedef}] = &typeNameEntry{typ: &typ}
}

func recordKind(isStruct bool) typeNameKind {
	if isStruct {
		return typeNameStruct
	}
	return typeNameUnion
}

// lookupRecord finds an existing struct/union tag, or nil if none exists yet.
func (t *typeNameTable) lookupRecord(name string, isStruct bool) *Record {
	e, ok := t.entries[typeNameKey{name, recordKind(isStruct)}]
	if !ok {
		return nil
	}
	return e.record
}

// defineRecord registers a new (possibly incomplete) tagged record.
func (t *typeNameTable) defineRecord(name string, r *Record) {
	if name == "" {
		return // anonymous records are not keyed by name
	}
	t.entries[typeNameKey{name, recordKind(r.IsStruct)}] = &typeNameEntry{record: r}
}
