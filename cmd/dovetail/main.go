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

// Command dovetail runs the Dovetail sampling experiments over a CAIDA AS
// topology. Both experiments run until the process is killed.
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/dovetail"
	"github.com/rwails/tempest/pkg/graph"
	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/metrics"
	"github.com/rwails/tempest/pkg/private/serrors"
)

func main() {
	cmd := newCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}

type flags struct {
	adversary   string
	diameter    int
	threads     int
	matchmakers int
	numConn     int
	verbose     bool
	configFile  string
	metricsAddr string
}

func newCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "dovetail [flags] <asrel_file> <frq|conn>",
		Short: "Sample Dovetail paths on a CAIDA AS topology",
		Long: `dovetail draws randomized source-to-matchmaker paths through the pathlet
transformation of the AS graph.

The frq command emits the dovetail AS of each sampled path to stdout, one
per line, forever. The conn command emits CSV rows

    adversary,sample,conn,|possible sources|

for each step of each repeated-connection trial, forever.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if f.verbose {
				level = "debug"
			}
			if err := log.Setup(log.Config{Level: level}); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(f, args[0], args[1])
		},
	}
	cmd.Flags().StringVarP(&f.adversary, "adversary", "a", "3549",
		"ASN used as the adversary")
	cmd.Flags().IntVarP(&f.diameter, "diameter", "d", int(graph.Diameter),
		"Graph diameter limiting the depth of the DFS")
	cmd.Flags().IntVarP(&f.threads, "threads", "j", 1,
		"Worker count for sample generation")
	cmd.Flags().IntVarP(&f.matchmakers, "matchmakers", "m", 5,
		"Number of matchmaker ASes per sample")
	cmd.Flags().IntVarP(&f.numConn, "num-conn", "n", 100,
		"Maximum repeated connections per trial")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false,
		"Enable verbose logging")
	cmd.Flags().StringVar(&f.configFile, "config", "",
		"Experiment config file (TOML)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "",
		"Serve prometheus metrics on this address")
	return cmd
}

func run(f flags, asrelFilename, command string) error {
	runtime.GOMAXPROCS(f.threads)

	cfg := dovetail.DefaultExperimentConfig()
	if f.configFile != "" {
		var err error
		if cfg, err = dovetail.LoadExperimentConfig(f.configFile); err != nil {
			return err
		}
	}

	log.Info("Experiment configured",
		"adversary", f.adversary,
		"graph_diameter", f.diameter,
		"num_threads", f.threads,
		"num_matchmakers", f.matchmakers,
		"num_connections", f.numConn,
		"asrel_file", asrelFilename,
		"command", command,
	)

	samplerMetrics := dovetail.SamplerMetrics{}
	if f.metricsAddr != "" {
		samplerMetrics = dovetail.SamplerMetrics{
			PathsSampled: metrics.NewPromCounter(prometheus.CounterOpts{
				Name: "dovetail_paths_sampled_total",
				Help: "Successful path draws.",
			}),
			EmptySamples: metrics.NewPromCounter(prometheus.CounterOpts{
				Name: "dovetail_empty_samples_total",
				Help: "Draws that found no path.",
			}),
			MatchmakersBlacklisted: metrics.NewPromCounter(prometheus.CounterOpts{
				Name: "dovetail_matchmakers_blacklisted_total",
				Help: "Matchmaker/source pairs found unreachable.",
			}),
		}
		go func() {
			defer log.HandlePanic()
			if err := http.ListenAndServe(f.metricsAddr, promhttp.Handler()); err != nil {
				log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	ir, err := asrel.ParseFile(asrelFilename)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	diameter := graph.Weight(f.diameter)

	switch command {
	case "frq":
		for {
			dovetailASN := dovetail.RandomDovetailPathNoTail(ir, cfg,
				f.matchmakers, diameter, rng, samplerMetrics)
			fmt.Println(dovetailASN)
		}
	case "conn":
		for sampleNum := 0; ; sampleNum++ {
			dovetail.MultipleConnectionsSampleNoTail(ir, cfg, f.matchmakers,
				f.numConn, diameter, f.adversary, sampleNum, rng, os.Stdout,
				samplerMetrics)
		}
	default:
		return serrors.New("unknown command", "command", command)
	}
}
