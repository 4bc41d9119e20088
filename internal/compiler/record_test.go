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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLayoutStruct(t *testing.T) {
	// struct S{int a;char b;short c[];} -> a@0 (4), b@4 (1), c@6 (flex, len 0)
	// total rounded up to 8.
	r := &Record{Name: "S", IsStruct: true}
	members := []*Member{
		{Name: "a", Type: NewBaseType(BaseSignedInt)},
		{Name: "b", Type: NewBaseType(BaseSignedChar)},
		{Name: "c", Type: func() Type { t := NewBaseType(BaseSignedShort); t.ArrayLength = ArrayIndeterminate; return t }()},
	}
	require.NoError(t, r.InstallMembers(members))

	assert.Equal(t, 0, members[0].Offset)
	assert.Equal(t, 4, members[1].Offset)
	assert.Equal(t, 6, members[2].Offset)
	assert.Equal(t, 0, members[2].Type.ArrayLength)
	assert.Equal(t, 8, r.Size)
}

func TestRecordLayoutUnion(t *testing.T) {
	r := &Record{Name: "U", IsStruct: false}
	members := []*Member{
		{Name: "i", Type: NewBaseType(BaseSignedInt)},
		{Name: "c", Type: NewBaseType(BaseSignedChar)},
	}
	require.NoError(t, r.InstallMembers(members))
	assert.Equal(t, 0, members[0].Offset)
	assert.Equal(t, 0, members[1].Offset)
	assert.Equal(t, 4, r.Size)
}

func TestRecordCannotBeInstalledTwice(t *testing.T) {
	r := &Record{Name: "S", IsStruct: true}
	require.NoError(t, r.InstallMembers([]*Member{{Name: "a", Type: NewBaseType(BaseSignedInt)}}))
	err := r.InstallMembers([]*Member{{Name: "b", Type: NewBaseType(BaseSignedInt)}})
	require.Error(t, err)
}

func TestFlexibleArrayMustBeLast(t *testing.T) {
	r := &Record{Name: "S", IsStruct: true}
	flex := NewBaseType(BaseSignedInt)
	flex.ArrayLength = 0
	members := []*Member{
		{Name: "a", Type: flex},
		{Name: "b", Type: NewBaseType(BaseSignedInt)},
	}
	err := r.InstallMembers(members)
	require.Error(t, err)
}

func TestFindMemberDescendsAnonymousMembers(t *testing.T) {
	inner := &Record{Name: "", IsStruct: true}
	require.NoError(t, inner.InstallMembers([]*Member{
		{Name: "x", Type: NewBaseType(BaseSignedInt)},
	}))

	outer := &Record{Name: "Outer", IsStruct: true}
	require.NoError(t, outer.InstallMembers([]*Member{
		{Name: "y", Type: NewBaseType(BaseSignedChar)},
		{Name: "", Type: NewRecordType(inner)},
	}))

	m, err := outer.FindMember("x")
	require.NoError(t, err)
	// "x" lives inside the anonymous member, which (due to 4-byte struct
	// alignment) starts at offset 4; its own offset within inner is 0.
	assert.Equal(t, 4, m.Offset)

	_, err = outer.FindMember("nonexistent")
	require.Error(t, err)
}
