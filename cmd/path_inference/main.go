// Copyright 2019 U.S. Naval Research Laboratory
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

// Command path_inference computes the Gao-Rexford route from every AS to
// every other AS of a CAIDA topology and prints one path per line.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/bgpsim"
	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/private/serrors"
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
		Use:   "path_inference <asrel_file> <num_threads>",
		Short: "Infer all-pairs Gao-Rexford paths on a CAIDA AS topology",
		Long: `path_inference announces one prefix from every AS of the topology in turn
and computes the route each other AS selects under Gao-Rexford policy.

Every selected path is printed to stdout on its own line, space-separated,
with the announcing AS last. Single-hop paths are omitted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			numThreads, err := strconv.Atoi(args[1])
			if err != nil || numThreads < 1 {
				return serrors.New("invalid thread count", "arg", args[1])
			}
			if err := log.Setup(log.Config{Level: flags.logLevel}); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(args[0], numThreads)
		},
	}
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")
	return cmd
}

func run(asrelFilename string, numThreads int) error {
	ir, err := asrel.ParseFile(asrelFilename)
	if err != nil {
		return err
	}
	adj := ir.AdjList()
	asns := ir.UniqueASes()
	log.Info("Topology loaded", "ases", len(asns), "records", len(ir))

	pathsTo := bgpsim.ComputeAllVanillaPaths(asns, adj, numThreads,
		bgpsim.VanillaMetrics{})
	log.Info("Inference complete", "origins", len(pathsTo))

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var outMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(numThreads)
	for _, paths := range pathsTo {
		g.Go(func() error {
			defer log.HandlePanic()
			lines := preparePathLines(paths)
			outMu.Lock()
			defer outMu.Unlock()
			for _, line := range lines {
				if _, err := fmt.Fprintln(out, line); err != nil {
					return serrors.Wrap("writing path", err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// preparePathLines renders the installed paths of one origin, reversing
// the incoming-view representation so the announcing AS comes last.
// Single-hop paths carry no space and are dropped.
func preparePathLines(paths bgpsim.IndexedPaths) []string {
	keys := make([]asrel.ASNumber, 0, len(paths))
	for asn := range paths {
		keys = append(keys, asn)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(paths))
	for _, asn := range keys {
		path := paths[asn]
		if len(path) < 2 {
			continue
		}
		hops := make([]string, len(path))
		for i, hop := range path {
			hops[len(path)-1-i] = hop
		}
		lines = append(lines, strings.Join(hops, " "))
	}
	return lines
}
