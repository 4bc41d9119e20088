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

// localVar is one entry of the local-variable stack: a name, its declared
// type, and its frame offset (always negative: distance below the frame
// pointer to the variable's first byte).
type localVar struct {
	Name   string
	Type   Type
	Offset int
}

// localStack is the ordered stack of block-scoped locals described in §4.5.
// Entries are pushed by Add and released in bulk by Pop when a block scope
// closes. Lookups walk backward so later declarations shadow earlier ones.
type localStack struct {
	vars []localVar
}

func newLocalStack() *localStack {
	return &localStack{}
}

func roundUp4(n int) int {
	return (n + 3) &^ 3
}

// Add computes the new variable's frame offset as the next word-aligned
// slot below the current lowest offset, pushes it, and returns the offset.
func (s *localStack) Add(name string, typ Type) (int, error) {
	size, err := typ.Size()
	if err != nil {
		return 0, err
	}
	prev := 0
	if len(s.vars) > 0 {
		prev = s.vars[len(s.vars)-1].Offset
	}
	offset := prev - roundUp4(size)
	s.vars = append(s.vars, localVar{Name: name, Type: typ, Offset: offset})
	return offset, nil
}

// AddAt pushes a local at an explicit, caller-computed frame offset. Used
// for parameter slots, whose offsets follow the fixed conventions in §4.8
// rather than the auto-packed scheme Add implements for block locals.
func (s *localStack) AddAt(name string, typ Type, offset int) {
	s.vars = append(s.vars, localVar{Name: name, Type: typ, Offset: offset})
}

// Find walks the stack in reverse so the most recently declared shadowing
// name wins.
func (s *localStack) Find(name string) (localVar, bool) {
	for i := len(s.vars) - 1; i >= 0; i-- {
		if s.vars[i].Name == name {
			return s.vars[i], true
		}
	}
	return localVar{}, false
}

// Depth returns the current stack height, used to save/restore scope extents.
func (s *localStack) Depth() int {
	return len(s.vars)
}

// Pop truncates the stack back to depth, discarding everything declared
// since the matching Depth() call.
func (s *localStack) Pop(depth int) {
	s.vars = s.vars[:depth]
}

// FrameSize is the absolute value of the deepest-assigned offset currently
// on the stack, i.e. how many bytes of frame this extent has used so far.
func (s *localStack) FrameSize() int {
	if len(s.vars) == 0 {
		return 0
	}
	off := s.vars[len(s.vars)-1].Offset
	if off < 0 {
		return -off
	}
	return off
}
