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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConstExprCompiler builds a Compiler whose lexer is positioned over expr,
// letting tests exercise the constant-expression sub-evaluator directly
// without going through a full translation unit.
func newConstExprCompiler(t *testing.T, expr string) *Compiler {
	t.Helper()
	c, err := NewCompiler(strings.NewReader(expr), &strings.Builder{}, Options{InputName: "test.i"})
	require.NoError(t, err)
	return c
}

func TestConstantArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want int32
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"7/3", 2},
		{"-600/-20", 30},
		{"1<<4", 16},
		{"~0", -1},
		{"5&3", 1},
		{"5|2", 7},
		{"5^1", 4},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			c := newConstExprCompiler(t, tc.expr)
			v, err := c.parseConstantExpression()
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Value)
		})
	}
}

func TestConstantLogicalNot(t *testing.T) {
	t.Run("!0 is 1", func(t *testing.T) {
		c := newConstExprCompiler(t, "!0")
		v, err := c.parseConstantExpression()
		require.NoError(t, err)
		assert.Equal(t, int32(1), v.Value)
	})

	t.Run("!5 is 0, not a bitwise complement", func(t *testing.T) {
		c := newConstExprCompiler(t, "!5")
		v, err := c.parseConstantExpression()
		require.NoError(t, err)
		assert.Equal(t, int32(0), v.Value)
	})
}

func TestConstantSizeof(t *testing.T) {
	cases := []struct {
		expr string
		want int32
	}{
		{"sizeof(int)", 4},
		{"sizeof(char)", 1},
		{"sizeof(short)", 2},
		{"sizeof(void)", 1},
		{"sizeof(int*)", 4},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			c := newConstExprCompiler(t, tc.expr)
			v, err := c.parseConstantExpression()
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Value)
		})
	}
}

func TestConstantConditional(t *testing.T) {
	c := newConstExprCompiler(t, "1 ? 10 : 20")
	v, err := c.parseConstantExpression()
	require.NoError(t, err)
	assert.Equal(t, int32(10), v.Value)
}

func TestConstantFloatingLiteralRejected(t *testing.T) {
	c := newConstExprCompiler(t, "1.5")
	_, err := c.parseConstantExpression()
	require.Error(t, err)
}
