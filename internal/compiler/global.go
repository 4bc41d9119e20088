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

import "github.com/samber/lo"

// globalsMaxCount mirrors the original's bootstrapping-era
// "too many globals" ceiling (512 buckets, fatal at half full). A Go map has
// no such limit, but the check is kept as a sanity ceiling matching the
// behavior described in §4.5 and §8's resource-exhaustion error kind, since
// nothing in SPEC_FULL.md calls for unbounded globals in a single
// translation unit.
const globalsMaxCount = 256

// Global is a file-scope symbol: either a variable (IsFunction false) or a
// function (return type in Type, ParamTypes/Variadic populated).
type Global struct {
	Name       string
	Type       Type
	IsFunction bool
	ParamTypes []Type
	Variadic   bool
}

// globalTable is the fixed-capacity, name-keyed symbol table described in
// §4.5. It is backed by a Go map (the original's FNV-1a open-addressed
// table is a bootstrapping artefact per the design notes) but preserves the
// redeclaration-matching semantics exactly.
type globalTable struct {
	byName map[string]*Global
}

func newGlobalTable() *globalTable {
	return &globalTable{byName: make(map[string]*Global)}
}

func (t *globalTable) Find(name string) (*Global, bool) {
	g, ok := t.byName[name]
	return g, ok
}

// Add inserts g, or, if name is already present, validates that the
// redeclaration matches exactly and returns the existing entry. A mismatch
// is fatal.
func (t *globalTable) Add(g *Global) (*Global, error) {
	if existing, ok := t.byName[g.Name]; ok {
		if err := checkGlobalMatch(existing, g); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if len(t.byName) >= globalsMaxCount {
		return nil, fatalf("too many globals")
	}

	t.byName[g.Name] = g
	return g, nil
}

func checkGlobalMatch(left, right *Global) error {
	if left.IsFunction != right.IsFunction {
		return fatalf("global symbol %q re-declared as a different kind", left.Name)
	}
	if !left.Type.Equal(right.Type) {
		if !left.IsFunction {
			return fatalf("global variable %q re-declared with a different type", left.Name)
		}
		return fatalf("function %q re-declared with a different return type", left.Name)
	}
	if !left.IsFunction {
		return nil
	}
	if len(left.ParamTypes) != len(right.ParamTypes) {
		return fatalf("function %q re-declared with a different number of arguments", left.Name)
	}
	mismatch := lo.ContainsBy(lo.Zip2(left.ParamTypes, right.ParamTypes), func(pair lo.Tuple2[Type, Type]) bool {
		return !pair.A.Equal(pair.B)
	})
	if mismatch {
		return fatalf("function %q re-declared with different argument types", left.Name)
	}
	if left.Variadic != right.Variadic {
		return fatalf("function %q re-declared with a different variadic argument", left.Name)
	}
	return nil
}
