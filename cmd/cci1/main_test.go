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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandCompilesTranslationUnit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "main.i")
	output := filepath.Join(dir, "main.os")
	require.NoError(t, os.WriteFile(input, []byte("int main(void) { return 0; }\n"), 0o644))

	command.SetArgs([]string{input, "-o", output})
	require.NoError(t, command.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	asm := string(data)
	assert.Contains(t, asm, "#line manual")
	assert.Contains(t, asm, "@_F_main")
	assert.Contains(t, asm, "@main")
	assert.Contains(t, asm, "enter")
	assert.Contains(t, asm, "ret")
}
