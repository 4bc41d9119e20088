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

// Member is a named slot inside a Record: an owned type and its byte offset
// from the record's start. Grounded on the *live* field-offset/lookup
// algorithm in the original parse-decl.c/parse-expr.c (field_* naming), not
// on the superseded member.c/record.c struct-as-void-pointer encoding — see
// DESIGN.md.
type Member struct {
	Name   string
	Type   Type
	Offset int
}

// Record is a named (or anonymous) struct or union. Members is nil until
// installed, meaning the record is incomplete: sizeof and field access on it
// are fatal.
type Record struct {
	Name     string
	IsStruct bool
	Members  []*Member
	Size     int
}

func alignUp(offset, align int) int {
	return (offset + align - 1) &^ (align - 1)
}

// InstallMembers lays members out per §3's invariants: struct members in
// declaration order with per-member alignment padding; union members all at
// offset 0; a trailing array of length 0 or INDETERMINATE is rewritten to 0;
// total size rounded up to a 4-byte multiple.
func (r *Record) InstallMembers(members []*Member) error {
	if r.Members != nil {
		return fatalf("struct or union %q is already defined", r.Name)
	}

	offset := 0
	maxEnd := 0
	for i, m := range members {
		isLast := i == len(members)-1
		if m.Type.IsArray() && (m.Type.ArrayLength == ArrayIndeterminate || m.Type.ArrayLength == 0) {
			if !isLast {
				return fatalf("flexible array member %q must be the last member", m.Name)
			}
			m.Type.ArrayLength = 0
		}

		if r.IsStruct {
			align := m.Type.Alignment()
			offset = alignUp(offset, align)
			m.Offset = offset
			size, err := m.Type.Size()
			if err != nil {
				return err
			}
			offset += size
			if offset > maxEnd {
				maxEnd = offset
			}
		} else {
			m.Offset = 0
			size, err := m.Type.Size()
			if err != nil {
				return err
			}
			if size > maxEnd {
				maxEnd = size
			}
		}
	}

	r.Size = alignUp(maxEnd, 4)
	r.Members = members
	return nil
}

// FindMember implements §4.4 field lookup: a direct name match at this
// level, else a recursive descent into each anonymous (empty-name) member,
// summing offsets.
func (r *Record) FindMember(name string) (*Member, error) {
	member, ok := lo.Find(r.Members, func(m *Member) bool { return m.Name == name })
	if ok {
		return member, nil
	}

	for _, m := range r.Members {
		if m.Name != "" || m.Type.Base != BaseRecord || m.Type.Record == nil {
			continue
		}
		if nested, err := m.Type.Record.FindMember(name); err == nil {
			nested = &Member{Name: nested.Name, Type: nested.Type, Offset: nested.Offset + m.Offset}
			return nested, nil
		}
	}

	return nil, fatalf("no member named %q in %s", name, r.describe())
}

func (r *Record) describe() string {
	kind := "union"
	if r.IsStruct {
		kind = "struct"
	}
	if r.Name == "" {
		return "anonymous " + kind
	}
	return kind + " " + r.Name
}
