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

func newTestLexer(t *testing.T, src string) *Lexer {
	t.Helper()
	l, err := NewLexer(strings.NewReader(src), "test.i", nil)
	require.NoError(t, err)
	return l
}

func TestLexerTokenClassification(t *testing.T) {
	t.Run("identifier", func(t *testing.T) {
		l := newTestLexer(t, "foo_bar $baz")
		assert.Equal(t, TokenAlphanumeric, l.TokenType)
		assert.Equal(t, "foo_bar", l.Token)
		require.NoError(t, l.Consume())
		assert.Equal(t, "$baz", l.Token)
	})

	t.Run("number", func(t *testing.T) {
		l := newTestLexer(t, "0x1F")
		assert.Equal(t, TokenNumber, l.TokenType)
		assert.Equal(t, "0x1F", l.Token)
	})

	t.Run("character literal decodes escapes", func(t *testing.T) {
		l := newTestLexer(t, `'\n'`)
		assert.Equal(t, TokenCharacter, l.TokenType)
		assert.Equal(t, "\n", l.Token)
	})

	t.Run("string literal is null terminated", func(t *testing.T) {
		l := newTestLexer(t, `"hi"`)
		assert.Equal(t, TokenString, l.TokenType)
		assert.Equal(t, "hi\x00", l.Token)
	})

	t.Run("two and three char punctuation", func(t *testing.T) {
		l := newTestLexer(t, "<<= <<")
		assert.Equal(t, "<<=", l.Token)
		require.NoError(t, l.Consume())
		assert.Equal(t, "<<", l.Token)
	})

	t.Run("end of input", func(t *testing.T) {
		l := newTestLexer(t, "")
		assert.True(t, l.AtEnd())
	})
}

func TestLexerLineDirective(t *testing.T) {
	l := newTestLexer(t, "#line 42 \"foo.c\"\nx")
	assert.Equal(t, "x", l.Token)
	assert.Equal(t, 42, l.Line)
	assert.Equal(t, "foo.c", l.Filename)
}

func TestLexerRejectsOtherDirectives(t *testing.T) {
	_, err := NewLexer(strings.NewReader("#define FOO 1\n"), "test.i", nil)
	require.Error(t, err)
}

func TestLexerRejectsUnsupportedEscapes(t *testing.T) {
	_, err := NewLexer(strings.NewReader(`'\x41'`), "test.i", nil)
	require.Error(t, err)
}

func TestLexerRejectsUnexpectedCharacter(t *testing.T) {
	_, err := NewLexer(strings.NewReader("`"), "test.i", nil)
	require.Error(t, err)
}

func TestLexerEmitsLineTracking(t *testing.T) {
	t.Run("initial directive only before the first newline is crossed", func(t *testing.T) {
		var out strings.Builder
		e := NewEmitter(&out, true)
		_, err := NewLexer(strings.NewReader("a\nb\n"), "test.i", e)
		require.NoError(t, err)
		require.NoError(t, e.Flush())
		assert.Equal(t, "#line 1 \"test.i\"\n", out.String())
	})

	t.Run("newlines between tokens become increment directives", func(t *testing.T) {
		var out strings.Builder
		e := NewEmitter(&out, true)
		l, err := NewLexer(strings.NewReader("a\n\nb"), "test.i", e)
		require.NoError(t, err)
		require.NoError(t, l.Consume()) // a -> b, crossing two newlines
		require.NoError(t, e.Flush())
		assert.Equal(t, "#line 1 \"test.i\"\n#\n#\n", out.String())
		assert.Equal(t, 3, l.Line)
	})

	t.Run("carriage return pairs count as one line", func(t *testing.T) {
		l := newTestLexer(t, "a\r\nb")
		require.NoError(t, l.Consume())
		assert.Equal(t, "b", l.Token)
		assert.Equal(t, 2, l.Line)
	})
}

func TestLexerStringTokenNeverMatchesKeyword(t *testing.T) {
	l := newTestLexer(t, `"if"`)
	assert.Equal(t, TokenString, l.TokenType)
	assert.False(t, l.Is("if"))
}

func TestLexerEmptyCharLiteralIsFatal(t *testing.T) {
	_, err := NewLexer(strings.NewReader("''"), "test.i", nil)
	require.Error(t, err)
}

func TestLexerEllipsis(t *testing.T) {
	l := newTestLexer(t, "... .")
	assert.Equal(t, "...", l.Token)
	require.NoError(t, l.Consume())
	assert.Equal(t, ".", l.Token)

	_, err := NewLexer(strings.NewReader(".."), "test.i", nil)
	require.Error(t, err)
}
