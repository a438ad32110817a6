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

// Package graph provides the weighted directed multigraph underlying the
// pathlet construction, with edge weights restricted to {0, 1}, and the
// cost-indexed reachability primitives built on it.
package graph

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rwails/tempest/pkg/log"
)

// Vertex identifies a graph vertex.
type Vertex uint32

// Weight is an edge weight or a cumulative path cost.
type Weight int32

// Path is an ordered vertex sequence.
type Path []Vertex

// VertexSet is an unordered vertex collection.
type VertexSet map[Vertex]struct{}

// Has reports whether u is in the set.
func (s VertexSet) Has(u Vertex) bool {
	_, ok := s[u]
	return ok
}

// Sorted returns the set's vertices in ascending order.
func (s VertexSet) Sorted() []Vertex {
	vs := make([]Vertex, 0, len(s))
	for u := range s {
		vs = append(vs, u)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

// Graph is a directed multigraph whose edges all have weight 0 or 1,
// stored as two separate adjacency lists. After construction, call
// SortEdgeLists before sharing the graph with concurrent readers.
type Graph struct {
	vertices  []Vertex
	zeroEdges map[Vertex][]Vertex
	oneEdges  map[Vertex][]Vertex
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		zeroEdges: make(map[Vertex][]Vertex),
		oneEdges:  make(map[Vertex][]Vertex),
	}
}

// Vertices returns the vertex list in insertion order. The returned slice
// must not be modified.
func (g *Graph) Vertices() []Vertex {
	return g.vertices
}

// AddVertex appends u to the vertex list.
func (g *Graph) AddVertex(u Vertex) {
	g.vertices = append(g.vertices, u)
}

// AddEdge adds the edge u -> v with weight w. Weights other than 0 and 1
// are a programming error.
func (g *Graph) AddEdge(u, v Vertex, w Weight) {
	adj := g.adjList(w)
	adj[u] = append(adj[u], v)
}

// AdjVertices returns the neighbors of u over edges of weight w, or nil
// if there are none. The returned slice must not be modified.
func (g *Graph) AdjVertices(u Vertex, w Weight) []Vertex {
	return g.adjList(w)[u]
}

// Reset empties the graph, invalidating all current vertex and edge
// references.
func (g *Graph) Reset() {
	g.vertices = nil
	g.zeroEdges = make(map[Vertex][]Vertex)
	g.oneEdges = make(map[Vertex][]Vertex)
}

// SortEdgeLists sorts every adjacency list in parallel. Readers observe
// deterministic neighbor order afterwards.
func (g *Graph) SortEdgeLists() {
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, adj := range []map[Vertex][]Vertex{g.zeroEdges, g.oneEdges} {
		for _, nbrs := range adj {
			eg.Go(func() error {
				defer log.HandlePanic()
				sort.Slice(nbrs, func(i, j int) bool { return nbrs[i] < nbrs[j] })
				return nil
			})
		}
	}
	_ = eg.Wait()
}

// Transpose returns a new graph with every edge reversed, weights
// preserved.
func (g *Graph) Transpose() *Graph {
	t := New()
	t.vertices = append(t.vertices, g.vertices...)
	for _, w := range []Weight{0, 1} {
		for u, nbrs := range g.adjList(w) {
			for _, v := range nbrs {
				t.AddEdge(v, u, w)
			}
		}
	}
	return t
}

func (g *Graph) adjList(w Weight) map[Vertex][]Vertex {
	switch w {
	case 0:
		return g.zeroEdges
	case 1:
		return g.oneEdges
	default:
		panic(fmt.Sprintf("graph: weight out of range: %d", w))
	}
}
