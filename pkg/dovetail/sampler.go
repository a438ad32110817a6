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

package dovetail

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/graph"
	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/metrics"
)

// SamplerMetrics counts sampling outcomes. The zero value disables
// reporting.
type SamplerMetrics struct {
	// PathsSampled counts successful path draws.
	PathsSampled metrics.Counter
	// EmptySamples counts draws that found no path.
	EmptySamples metrics.Counter
	// MatchmakersBlacklisted counts (matchmaker, source) pairs found
	// unreachable.
	MatchmakersBlacklisted metrics.Counter
}

// mmBlacklist records, per matchmaker, the sources known to be unable to
// reach it. It is process-wide: matchmaker sets are resampled per
// experiment round, but AS identities persist, so negative results carry
// across rounds.
var mmBlacklist sync.Map // asrel.ASNumber -> *asnSet

type asnSet struct {
	mu   sync.RWMutex
	asns map[asrel.ASNumber]struct{}
}

func blacklistSet(mm asrel.ASNumber) *asnSet {
	if set, ok := mmBlacklist.Load(mm); ok {
		return set.(*asnSet)
	}
	set, _ := mmBlacklist.LoadOrStore(mm, &asnSet{asns: make(map[asrel.ASNumber]struct{})})
	return set.(*asnSet)
}

func blacklistAdd(mm, source asrel.ASNumber) {
	set := blacklistSet(mm)
	set.mu.Lock()
	defer set.mu.Unlock()
	set.asns[source] = struct{}{}
}

func blacklisted(mm, source asrel.ASNumber) bool {
	set := blacklistSet(mm)
	set.mu.RLock()
	defer set.mu.RUnlock()
	_, ok := set.asns[source]
	return ok
}

// Sampler draws source-to-matchmaker paths over a pathlet graph. The
// graph, transpose and properties are shared read-only; a Sampler itself
// is not safe for concurrent use because of its rng.
type Sampler struct {
	graph      *graph.Graph
	transpose  *graph.Graph
	diameter   graph.Weight
	props      *Properties
	maxPaths   int
	maxPathLen int
	minCostK   graph.Weight
	rng        *rand.Rand
	metrics    SamplerMetrics
}

// NewSampler returns a sampler over g and its transpose. Both graphs must
// have sorted edge lists.
func NewSampler(g, transpose *graph.Graph, diameter graph.Weight,
	props *Properties, cfg ExperimentConfig, rng *rand.Rand,
	m SamplerMetrics) *Sampler {

	return &Sampler{
		graph:      g,
		transpose:  transpose,
		diameter:   diameter,
		props:      props,
		maxPaths:   cfg.MaxPaths,
		maxPathLen: int(diameter) * cfg.MaxPathScale,
		minCostK:   graph.Weight(cfg.MinDovetailCost),
		rng:        rng,
		metrics:    m,
	}
}

// SamplePath draws one path from sourceASN's host vertex to the host
// vertex of a randomly chosen reachable matchmaker. It returns an empty
// path if every matchmaker is blacklisted for this source or the DFS
// finds no path; unreachable matchmakers are blacklisted as a side
// effect.
func (s *Sampler) SamplePath(sourceASN asrel.ASNumber) graph.Path {
	// A source never dovetails through itself.
	blacklistAdd(sourceASN, sourceASN)

	sourceVertex, ok := s.props.HostOut[sourceASN]
	if !ok {
		panic(fmt.Sprintf("dovetail: no host vertex for source AS %s", sourceASN))
	}

	mmASes := sortedASes(s.props.MatchmakerASes)
	s.rng.Shuffle(len(mmASes), func(i, j int) {
		mmASes[i], mmASes[j] = mmASes[j], mmASes[i]
	})

	var costMap graph.CostMap
	var costWeights CostWeights
	var chosenMM asrel.ASNumber
	found := false

	for _, mmASN := range mmASes {
		if blacklisted(mmASN, sourceASN) {
			continue
		}
		mmVertex := s.hostIn(mmASN)
		costMap = graph.ComputeAvailableCosts(s.transpose, mmVertex, s.diameter)

		costWeights = ExpKCostWeights(sourceVertex, costMap, s.minCostK)
		if len(costWeights) == 0 {
			blacklistAdd(mmASN, sourceASN)
			metrics.CounterInc(s.metrics.MatchmakersBlacklisted)
			continue
		}
		chosenMM = mmASN
		found = true
		break
	}
	if !found {
		metrics.CounterInc(s.metrics.EmptySamples)
		return nil
	}

	cost := sampleByWeights(costWeights, s.rng)
	paths := limitedDFSParallel(s.graph, sourceVertex, s.hostIn(chosenMM),
		cost, s.maxPaths, s.maxPathLen, costMap)
	if len(paths) == 0 {
		log.Debug("DFS found no paths", "source", sourceASN,
			"matchmaker", chosenMM, "cost", cost)
		metrics.CounterInc(s.metrics.EmptySamples)
		return nil
	}
	metrics.CounterInc(s.metrics.PathsSampled)
	return paths[s.rng.Intn(len(paths))]
}

func (s *Sampler) hostIn(asn asrel.ASNumber) graph.Vertex {
	u, ok := s.props.HostIn[asn]
	if !ok {
		panic(fmt.Sprintf("dovetail: no host vertex for matchmaker AS %s", asn))
	}
	return u
}

// sampleByWeights draws a cost proportionally to its weight. Iteration is
// over sorted costs so the draw depends only on the rng stream.
func sampleByWeights(weights CostWeights, rng *rand.Rand) graph.Weight {
	costs := make([]graph.Weight, 0, len(weights))
	total := 0.0
	for w, weight := range weights {
		costs = append(costs, w)
		total += weight
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i] < costs[j] })

	x := rng.Float64() * total
	for _, w := range costs {
		x -= weights[w]
		if x < 0 {
			return w
		}
	}
	return costs[len(costs)-1]
}

// limitedDFSParallel enumerates up to maxPaths paths from source to
// target of exactly the given total cost, pruning with the target's
// back-reachability cost map: a vertex visited with remaining cost r must
// be reachable from the target at cost r on the transpose. Branches fan
// out onto spare worker slots; the collected set is truncated to
// maxPaths.
func limitedDFSParallel(g *graph.Graph, source, target graph.Vertex,
	cost graph.Weight, maxPaths, maxPathLen int,
	costMap graph.CostMap) []graph.Path {

	collector := &pathCollector{maxPaths: int64(maxPaths)}
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	var visit func(path graph.Path, cumul graph.Weight)
	visit = func(path graph.Path, cumul graph.Weight) {
		if collector.full() {
			return
		}
		if len(path) > maxPathLen {
			return
		}
		u := path[len(path)-1]
		if u == target && cumul == cost {
			collector.add(path)
			return
		}
		for _, k := range []graph.Weight{0, 1} {
			remaining := cost - (cumul + k)
			for _, v := range g.AdjVertices(u, k) {
				if !costMap.Has(remaining, v) {
					continue
				}
				next := make(graph.Path, len(path)+1)
				copy(next, path)
				next[len(path)] = v

				select {
				case sem <- struct{}{}:
					wg.Add(1)
					go func(k graph.Weight) {
						defer wg.Done()
						defer func() { <-sem }()
						defer log.HandlePanic()
						visit(next, cumul+k)
					}(k)
				default:
					visit(next, cumul+k)
				}
			}
		}
	}

	visit(graph.Path{source}, 0)
	wg.Wait()

	if int64(len(collector.paths)) > collector.maxPaths {
		collector.paths = collector.paths[:collector.maxPaths]
	}
	return collector.paths
}

type pathCollector struct {
	count    atomic.Int64
	maxPaths int64

	mu    sync.Mutex
	paths []graph.Path
}

func (c *pathCollector) full() bool {
	return c.count.Load() >= c.maxPaths
}

func (c *pathCollector) add(path graph.Path) {
	c.count.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}
