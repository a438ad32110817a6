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

// Package dovetail samples randomized two-segment paths through a pathlet
// transformation of the AS graph, for privacy-routing analysis.
//
// Each AS is split into a small vertex gadget that encodes its permitted
// transit roles; valley-free forwarding in the original topology then
// corresponds exactly to reachability in the transformed graph, with every
// inter-AS hop costing 1 and intra-AS moves costing 0.
package dovetail

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/graph"
)

// Properties carries the vertex role maps produced alongside a pathlet
// graph. Every vertex is owned by exactly one AS; host vertices exist iff
// the AS is an endhost or a matchmaker.
type Properties struct {
	CustomerIn  map[asrel.ASNumber]graph.Vertex
	CustomerOut map[asrel.ASNumber]graph.Vertex
	HostIn      map[asrel.ASNumber]graph.Vertex
	HostOut     map[asrel.ASNumber]graph.Vertex
	PeerIn      map[asrel.ASNumber]graph.Vertex
	PeerOut     map[asrel.ASNumber]graph.Vertex
	ProviderIn  map[asrel.ASNumber]graph.Vertex
	ProviderOut map[asrel.ASNumber]graph.Vertex

	EndhostASes    map[asrel.ASNumber]struct{}
	LooseVFASes    map[asrel.ASNumber]struct{}
	MatchmakerASes map[asrel.ASNumber]struct{}

	VertexOwner map[graph.Vertex]asrel.ASNumber
}

func newProperties() *Properties {
	return &Properties{
		CustomerIn:     make(map[asrel.ASNumber]graph.Vertex),
		CustomerOut:    make(map[asrel.ASNumber]graph.Vertex),
		HostIn:         make(map[asrel.ASNumber]graph.Vertex),
		HostOut:        make(map[asrel.ASNumber]graph.Vertex),
		PeerIn:         make(map[asrel.ASNumber]graph.Vertex),
		PeerOut:        make(map[asrel.ASNumber]graph.Vertex),
		ProviderIn:     make(map[asrel.ASNumber]graph.Vertex),
		ProviderOut:    make(map[asrel.ASNumber]graph.Vertex),
		EndhostASes:    make(map[asrel.ASNumber]struct{}),
		LooseVFASes:    make(map[asrel.ASNumber]struct{}),
		MatchmakerASes: make(map[asrel.ASNumber]struct{}),
		VertexOwner:    make(map[graph.Vertex]asrel.ASNumber),
	}
}

// Owner returns the AS owning vertex u. A missing owner is a
// program-logic bug.
func (p *Properties) Owner(u graph.Vertex) asrel.ASNumber {
	asn, ok := p.VertexOwner[u]
	if !ok {
		panic(fmt.Sprintf("dovetail: vertex %d has no owner", u))
	}
	return asn
}

// FindEndhostASes returns the ASes with no customers below them in any
// provider/customer record: the leaves of the customer-provider DAG. Peer
// records do not contribute.
func FindEndhostASes(ir asrel.IR) map[asrel.ASNumber]struct{} {
	providers := make(map[asrel.ASNumber]struct{})
	customers := make(map[asrel.ASNumber]struct{})
	for _, line := range ir {
		if line.Type == asrel.P2C {
			providers[line.X] = struct{}{}
			customers[line.Y] = struct{}{}
		}
	}
	endhosts := make(map[asrel.ASNumber]struct{})
	for asn := range customers {
		if _, ok := providers[asn]; !ok {
			endhosts[asn] = struct{}{}
		}
	}
	return endhosts
}

// BuildGraph constructs the pathlet graph and its properties from the
// parsed relationship records. numMatchmakers ASes are sampled uniformly
// as matchmakers. ASes in looseVF get the relaxed three-vertex gadget;
// all others are strict valley-free.
//
// The caller must SortEdgeLists before sharing the graph with concurrent
// readers.
func BuildGraph(ir asrel.IR, numMatchmakers int,
	looseVF map[asrel.ASNumber]struct{}, rng *rand.Rand) (*graph.Graph, *Properties) {

	g := graph.New()
	props := newProperties()

	uniqueASes := ir.UniqueASes()
	props.EndhostASes = FindEndhostASes(ir)
	for asn := range looseVF {
		props.LooseVFASes[asn] = struct{}{}
	}
	for _, asn := range sampleASes(uniqueASes, numMatchmakers, rng) {
		props.MatchmakerASes[asn] = struct{}{}
	}

	// Vertices and internal pathlets. "Top", "middle" and "bottom"
	// follow the position references of Figure 1 in the Dovetail paper.
	var ctr graph.Vertex
	addVertex := func(asn asrel.ASNumber) graph.Vertex {
		u := ctr
		ctr++
		g.AddVertex(u)
		props.VertexOwner[u] = asn
		return u
	}

	for _, asn := range uniqueASes {
		top := addVertex(asn)
		bottom := addVertex(asn)

		if _, loose := props.LooseVFASes[asn]; loose {
			middle := addVertex(asn)

			props.ProviderIn[asn] = bottom
			props.ProviderOut[asn] = top
			props.CustomerIn[asn] = top
			props.CustomerOut[asn] = bottom
			props.PeerIn[asn] = middle
			props.PeerOut[asn] = middle

			g.AddEdge(top, middle, 0)
			g.AddEdge(top, bottom, 0)
			g.AddEdge(middle, bottom, 0)
		} else {
			props.ProviderIn[asn] = top
			props.ProviderOut[asn] = bottom
			props.CustomerIn[asn] = bottom
			props.CustomerOut[asn] = top
			props.PeerIn[asn] = top
			props.PeerOut[asn] = bottom

			g.AddEdge(bottom, top, 0)
		}

		_, endhost := props.EndhostASes[asn]
		_, matchmaker := props.MatchmakerASes[asn]
		if endhost || matchmaker {
			// Host vertices are split so no path may transit through a
			// host AS.
			hostIn := addVertex(asn)
			hostOut := addVertex(asn)

			props.HostIn[asn] = hostIn
			props.HostOut[asn] = hostOut

			g.AddEdge(hostOut, props.CustomerIn[asn], 0)
			g.AddEdge(props.CustomerOut[asn], hostIn, 0)
		}
	}

	// External pathlets: every inter-AS hop costs 1.
	for _, line := range ir {
		if line.Type == asrel.P2C {
			provider, customer := line.X, line.Y
			g.AddEdge(props.ProviderOut[customer], props.CustomerIn[provider], 1)
			g.AddEdge(props.CustomerOut[provider], props.ProviderIn[customer], 1)
		} else {
			g.AddEdge(props.PeerOut[line.X], props.PeerIn[line.Y], 1)
			g.AddEdge(props.PeerOut[line.Y], props.PeerIn[line.X], 1)
		}
	}

	return g, props
}

// GraphPathToASPath collapses a vertex path to the sequence of owning
// ASes, merging consecutive vertices of the same AS.
func GraphPathToASPath(path graph.Path, props *Properties) []asrel.ASNumber {
	var asPath []asrel.ASNumber
	for _, u := range path {
		asn := props.Owner(u)
		if len(asPath) == 0 || asPath[len(asPath)-1] != asn {
			asPath = append(asPath, asn)
		}
	}
	return asPath
}

// sampleASes returns n ASes drawn uniformly without replacement, or all
// of them if fewer than n exist.
func sampleASes(ases []asrel.ASNumber, n int, rng *rand.Rand) []asrel.ASNumber {
	shuffled := make([]asrel.ASNumber, len(ases))
	copy(shuffled, ases)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// sortedASes returns the set's members in ascending order.
func sortedASes(set map[asrel.ASNumber]struct{}) []asrel.ASNumber {
	ases := make([]asrel.ASNumber, 0, len(set))
	for asn := range set {
		ases = append(ases, asn)
	}
	sort.Strings(ases)
	return ases
}
