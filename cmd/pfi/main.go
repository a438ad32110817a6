// Copyright 2020 U.S. Naval Research Laboratory
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command pfi builds a static hash index over a file of path lines,
// mapping each line's endpoint pair to its byte offset.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/pfi"
)

func main() {
	cmd := newCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}

func newCommand() *cobra.Command {
	var flags struct {
		logLevel string
	}
	cmd := &cobra.Command{
		Use:   "pfi <path_file> <index_file>",
		Short: "Build a static hash index over a path file",
		Long: `pfi reads the path file sequentially and writes an on-disk hash index
keyed by the (source, destination) pair of each line. Lines without an
interior space are skipped with a warning.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.Setup(log.Config{Level: flags.logLevel}); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			_, err := pfi.Build(args[0], args[1], pfi.BuilderMetrics{})
			return err
		},
	}
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")
	return cmd
}
