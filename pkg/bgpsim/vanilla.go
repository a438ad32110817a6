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

package bgpsim

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/metrics"
)

// VanillaPrefix is the placeholder prefix used for all-pairs vanilla
// inference. Multi-prefix simulation is not implemented.
const VanillaPrefix = "NIL"

// VanillaMetrics counts fan-out progress. The zero value disables
// reporting.
type VanillaMetrics struct {
	// OriginsSolved counts completed per-origin computations.
	OriginsSolved metrics.Counter
}

// ComputeAllVanillaPaths runs ComputePaths with a single true origin for
// every AS in asns under the default policy, fanning the work out over at
// most maxWorkers goroutines. Each worker computes its contiguous chunk
// into a local buffer and merges it under a single lock acquisition.
func ComputeAllVanillaPaths(asns []asrel.ASNumber, adj asrel.AdjList,
	maxWorkers int, m VanillaMetrics) IndexedPathsTo {

	out := make(IndexedPathsTo, len(asns))
	n := maxWorkers
	if len(asns) < n {
		n = len(asns)
	}
	if n < 1 {
		return out
	}

	type result struct {
		asn   asrel.ASNumber
		paths IndexedPaths
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, jobs := range chunk(asns, n) {
		g.Go(func() error {
			defer log.HandlePanic()
			local := make([]result, 0, len(jobs))
			for _, asn := range jobs {
				origins := []Origin{{ASN: asn, Type: True}}
				paths := ComputePaths(adj, VanillaPrefix, origins, DefaultPolicy{})
				local = append(local, result{asn: asn, paths: paths})
				metrics.CounterInc(m.OriginsSolved)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range local {
				out[r.asn] = r.paths
			}
			return nil
		})
	}
	// Workers never return an error; Wait only synchronizes.
	_ = g.Wait()
	return out
}

// chunk partitions jobs into n roughly equal contiguous slices.
func chunk(jobs []asrel.ASNumber, n int) [][]asrel.ASNumber {
	chunks := make([][]asrel.ASNumber, 0, n)
	size := len(jobs) / n
	rem := len(jobs) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, jobs[start:end])
		start = end
	}
	return chunks
}
