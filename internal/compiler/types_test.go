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

func TestTypeSizeAndAlignment(t *testing.T) {
	t.Run("sizeof void is one", func(t *testing.T) {
		size, err := NewBaseType(BaseVoid).Size()
		require.NoError(t, err)
		assert.Equal(t, 1, size)
	})

	t.Run("pointer size is always four", func(t *testing.T) {
		p := NewBaseType(BaseSignedChar)
		p.PointerDepth = 1
		size, err := p.Size()
		require.NoError(t, err)
		assert.Equal(t, 4, size)
	})

	t.Run("array size is element size times length", func(t *testing.T) {
		arr := NewBaseType(BaseSignedInt)
		arr.ArrayLength = 5
		size, err := arr.Size()
		require.NoError(t, err)
		assert.Equal(t, 20, size)
	})

	t.Run("sizeof incomplete record is fatal", func(t *testing.T) {
		r := &Record{Name: "S", IsStruct: true}
		_, err := NewRecordType(r).Size()
		require.Error(t, err)
	})

	t.Run("sizeof indeterminate array is fatal", func(t *testing.T) {
		arr := NewBaseType(BaseSignedInt)
		arr.ArrayLength = ArrayIndeterminate
		_, err := arr.Size()
		require.Error(t, err)
	})

	t.Run("narrow bases align to their own size", func(t *testing.T) {
		assert.Equal(t, 1, NewBaseType(BaseSignedChar).Alignment())
		assert.Equal(t, 2, NewBaseType(BaseUnsignedShort).Alignment())
		assert.Equal(t, 4, NewBaseType(BaseSignedInt).Alignment())
	})

	t.Run("pointers and records align to four", func(t *testing.T) {
		p := NewBaseType(BaseSignedChar)
		p.PointerDepth = 1
		assert.Equal(t, 4, p.Alignment())

		r := &Record{Name: "S", IsStruct: true}
		assert.Equal(t, 4, NewRecordType(r).Alignment())
	})
}

func TestTypeDecayAndIndirection(t *testing.T) {
	arr := NewBaseType(BaseSignedInt)
	arr.ArrayLength = 3

	assert.Equal(t, 1, arr.Indirections())

	decayed := arr.DecayArray()
	assert.False(t, decayed.IsArray())
	assert.Equal(t, 1, decayed.PointerDepth)

	// idempotent on non-arrays
	assert.Equal(t, decayed, decayed.DecayArray())

	dec, err := decayed.DecrementIndirection()
	require.NoError(t, err)
	assert.Equal(t, 0, dec.PointerDepth)

	_, err = dec.DecrementIndirection()
	require.Error(t, err)
}

func TestTypeEquality(t *testing.T) {
	a := NewBaseType(BaseSignedInt)
	b := NewBaseType(BaseSignedInt)
	assert.True(t, a.Equal(b))

	// the l-value flag does not participate in equality
	assert.True(t, a.Equal(b.WithLValue(true)))

	// distinct record tags are never equal, even with identical layout
	r1 := &Record{Name: "S", IsStruct: true}
	r2 := &Record{Name: "S", IsStruct: true}
	assert.False(t, NewRecordType(r1).Equal(NewRecordType(r2)))
}

func TestTypeCompatibility(t *testing.T) {
	intT := NewBaseType(BaseSignedInt)
	charPtr := NewBaseType(BaseSignedChar)
	charPtr.PointerDepth = 1
	voidPtr := NewBaseType(BaseVoid)
	voidPtr.PointerDepth = 1

	t.Run("equal types are compatible", func(t *testing.T) {
		assert.True(t, intT.IsCompatible(intT))
	})

	t.Run("integer literal zero compatible with any pointer", func(t *testing.T) {
		assert.True(t, intT.IsCompatible(charPtr))
	})

	t.Run("void pointer compatible with any other pointer", func(t *testing.T) {
		assert.True(t, voidPtr.IsCompatible(charPtr))
	})

	t.Run("array decays for compatibility comparison", func(t *testing.T) {
		arr := NewBaseType(BaseSignedChar)
		arr.ArrayLength = 4
		assert.True(t, arr.IsCompatible(charPtr))
	})

	t.Run("mismatched pointee bases are incompatible", func(t *testing.T) {
		intPtr := NewBaseType(BaseSignedInt)
		intPtr.PointerDepth = 1
		assert.False(t, intPtr.IsCompatible(charPtr))
	})
}

func TestTypePredicates(t *testing.T) {
	u := NewBaseType(BaseUnsignedShort)
	assert.True(t, u.IsInteger())
	assert.True(t, u.IsUnsigned())
	assert.False(t, u.IsSigned())

	p := NewBaseType(BaseUnsignedShort)
	p.PointerDepth = 1
	assert.False(t, p.IsInteger())

	v := NewBaseType(BaseVoid)
	v.PointerDepth = 1
	assert.True(t, v.IsVoidPointer())
	assert.False(t, NewBaseType(BaseVoid).IsVoidPointer())
}
