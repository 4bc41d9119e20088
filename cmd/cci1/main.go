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

// Command cci1 compiles one preprocessed opC translation unit to Onramp
// virtual-machine textual assembly. It is the second stage of the Onramp
// bootstrapping chain: a strict subset of C compiled by a single-pass,
// hand-written recursive-descent compiler with no intermediate
// representation (see internal/compiler).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fraserheavy/cci1/internal/compiler"
)

var verbose bool

var command = &cobra.Command{
	Use:  "cci1 source -o output",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.PersistentFlags().GetString("output")
		lineDirectives, _ := cmd.PersistentFlags().GetBool("line-directives")

		in, err := os.Open(args[0])
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer in.Close()

		out, err := os.Create(output)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer out.Close()

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		opts := compiler.Options{
			InputName:      args[0],
			LineDirectives: lineDirectives,
			Logger:         logger,
		}
		if err := compiler.Compile(in, out, opts); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	command.PersistentFlags().StringP("output", "o", "", "output assembly file (required)")
	command.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "if set, increase verbosity level")
	command.PersistentFlags().Bool("line-directives", true, "propagate #line directives to the output")
	if err := command.MarkPersistentFlagRequired("output"); err != nil {
		panic(err)
	}
}

func main() {
	if err := command.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
