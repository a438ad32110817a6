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
	"io"
	"math/rand"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/graph"
)

// experimentRound holds the per-round state shared by the experiments: a
// freshly built pathlet graph with resampled matchmakers, its transpose,
// and a sampler over both.
type experimentRound struct {
	graph     *graph.Graph
	transpose *graph.Graph
	props     *Properties
	sampler   *Sampler
}

func newExperimentRound(ir asrel.IR, cfg ExperimentConfig, numMatchmakers int,
	diameter graph.Weight, rng *rand.Rand, m SamplerMetrics) *experimentRound {

	g, props := BuildGraph(ir, numMatchmakers, cfg.looseVFSet(), rng)
	g.SortEdgeLists()
	transpose := g.Transpose()
	transpose.SortEdgeLists()

	return &experimentRound{
		graph:     g,
		transpose: transpose,
		props:     props,
		sampler:   NewSampler(g, transpose, diameter, props, cfg, rng, m),
	}
}

// randomEndhost draws a source AS uniformly from the endhost set.
func (r *experimentRound) randomEndhost(rng *rand.Rand) asrel.ASNumber {
	endhosts := sortedASes(r.props.EndhostASes)
	return endhosts[rng.Intn(len(endhosts))]
}

// dovetailAS extracts the third-from-last AS of a source-to-matchmaker
// AS path. Eligible paths have at least 6 AS hops; a shorter path is a
// program-logic bug because the cost floor forbids it.
func dovetailAS(asPath []asrel.ASNumber) asrel.ASNumber {
	if len(asPath) < 6 {
		panic(fmt.Sprintf("dovetail: AS path too short for dovetail extraction: %v", asPath))
	}
	return asPath[len(asPath)-3]
}

// RandomDovetailPathNoTail samples one source-to-matchmaker path over a
// fresh pathlet graph with resampled matchmakers and returns its dovetail
// AS, or "" if the drawn source has no usable matchmaker.
func RandomDovetailPathNoTail(ir asrel.IR, cfg ExperimentConfig,
	numMatchmakers int, diameter graph.Weight, rng *rand.Rand,
	m SamplerMetrics) asrel.ASNumber {

	round := newExperimentRound(ir, cfg, numMatchmakers, diameter, rng, m)
	sourceASN := round.randomEndhost(rng)

	chosenPath := round.sampler.SamplePath(sourceASN)
	if len(chosenPath) == 0 {
		return ""
	}
	return dovetailAS(GraphPathToASPath(chosenPath, round.props))
}

// MultipleConnectionsSampleNoTail simulates an adversary at the dovetail
// position observing up to maxConn successive connections from one
// source. Whenever the sampled dovetail AS equals the adversary, the
// adversary's view (back-reachability at the distance of the hop
// preceding it) yields the set of ASes that could have originated the
// connection; intersecting across connections monotonically shrinks the
// candidate set. One CSV row
//
//	adversary,sample,conn,|possible sources|
//
// is written per connection, including before the first draw. The return
// is false if a draw comes back empty, i.e. the chosen source has no
// general Internet connectivity.
func MultipleConnectionsSampleNoTail(ir asrel.IR, cfg ExperimentConfig,
	numMatchmakers, maxConn int, diameter graph.Weight,
	adversaryASN asrel.ASNumber, sampleNum int, rng *rand.Rand,
	w io.Writer, m SamplerMetrics) bool {

	round := newExperimentRound(ir, cfg, numMatchmakers, diameter, rng, m)
	sourceASN := round.randomEndhost(rng)

	possibleASes := make(map[asrel.ASNumber]struct{}, len(round.props.EndhostASes))
	for asn := range round.props.EndhostASes {
		possibleASes[asn] = struct{}{}
	}

	for conn := 0; conn <= maxConn; conn++ {
		fmt.Fprintf(w, "%s,%d,%d,%d\n", adversaryASN, sampleNum, conn, len(possibleASes))

		chosenPath := round.sampler.SamplePath(sourceASN)
		if len(chosenPath) == 0 {
			return false
		}

		asPath := GraphPathToASPath(chosenPath, round.props)
		mmASN := asPath[len(asPath)-1]
		if dovetailAS(asPath) != adversaryASN {
			continue
		}

		possibleASes = intersect(possibleASes,
			round.possibleSources(chosenPath, asPath, mmASN))
		if _, ok := possibleASes[sourceASN]; !ok {
			panic(fmt.Sprintf("dovetail: true source %s escaped the possible set", sourceASN))
		}
	}
	return true
}

// possibleSources determines which ASes the adversary cannot distinguish
// from the true source: the owners of every vertex that reaches the hop
// preceding the dovetail at the same cost the source did.
func (r *experimentRound) possibleSources(chosenPath graph.Path,
	asPath []asrel.ASNumber, mmASN asrel.ASNumber) map[asrel.ASNumber]struct{} {

	dovetailASN := dovetailAS(asPath)

	// Cost to the dovetail is its AS-hop index; every inter-AS hop
	// costs 1.
	costToDovetail := graph.Weight(-1)
	for i, asn := range asPath {
		if asn == dovetailASN {
			costToDovetail = graph.Weight(i)
			break
		}
	}
	costToPrevHop := costToDovetail - 1

	var prevHopVertex graph.Vertex
	for i, u := range chosenPath {
		if r.props.Owner(u) == dovetailASN {
			prevHopVertex = chosenPath[i-1]
			break
		}
	}

	costMap := graph.ComputeAvailableCosts(r.transpose, prevHopVertex, costToPrevHop)
	if !costMap.Has(costToPrevHop, chosenPath[0]) {
		panic("dovetail: true source not back-reachable from its own path")
	}

	possible := make(map[asrel.ASNumber]struct{}, len(costMap[costToPrevHop]))
	for u := range costMap[costToPrevHop] {
		possible[r.props.Owner(u)] = struct{}{}
	}
	// The source never chooses a matchmaker colocated in its own AS.
	delete(possible, mmASN)
	return possible
}

func intersect(a, b map[asrel.ASNumber]struct{}) map[asrel.ASNumber]struct{} {
	out := make(map[asrel.ASNumber]struct{})
	for asn := range a {
		if _, ok := b[asn]; ok {
			out[asn] = struct{}{}
		}
	}
	return out
}
