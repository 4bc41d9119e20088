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

import "fmt"

// FatalError is the only error type this package constructs. opC has no
// error recovery: any diagnostic ends the compile, so there is exactly one
// error shape instead of a taxonomy of recoverable/unrecoverable kinds.
type FatalError struct {
	Filename string
	Line     int
	Message  string
}

func (e *FatalError) Error() string {
	if e.Filename == "" {
		return e.Message
	}
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
}

// fatalf builds a FatalError carrying the lexer's current position, mirroring
// the original compiler's fatal()/fatal_2()/fatal_3() helpers collapsed into
// one variadic formatter.
func (l *Lexer) fatalf(format string, args ...any) error {
	return &FatalError{
		Filename: l.Filename,
		Line:     l.Line,
		Message:  fmt.Sprintf(format, args...),
	}
}

func fatalf(format string, args ...any) error {
	return &FatalError{Message: fmt.Sprintf(format, args...)}
}
