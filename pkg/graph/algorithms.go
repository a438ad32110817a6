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

package graph

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rwails/tempest/pkg/log"
)

// Diameter is the assumed diameter of the pathlet graph, bounding the
// depth of cost maps and DFS sampling. Gao-Rexford all-pairs inference on
// CAIDA's 2016-10 dataset measured 22 as the longest shortest-path length
// (10091 -> 264924).
const Diameter Weight = 22

// ZeroNbhd returns the set of vertices reachable from sources using only
// weight-0 edges, including the sources themselves.
func ZeroNbhd(g *Graph, sources VertexSet) VertexSet {
	nbhd := make(VertexSet, len(sources))
	queue := make([]Vertex, 0, len(sources))
	for u := range sources {
		queue = append(queue, u)
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		nbhd[u] = struct{}{}
		for _, v := range g.AdjVertices(u, 0) {
			if !nbhd.Has(v) {
				queue = append(queue, v)
			}
		}
	}
	return nbhd
}

// ZeroNbhdParallel computes the same closure as ZeroNbhd, expanding each
// BFS frontier concurrently. Membership is tracked in a concurrent set;
// the result is independent of traversal order.
func ZeroNbhdParallel(g *Graph, sources VertexSet) VertexSet {
	var seen sync.Map
	frontier := make([]Vertex, 0, len(sources))
	for u := range sources {
		if _, loaded := seen.LoadOrStore(u, struct{}{}); !loaded {
			frontier = append(frontier, u)
		}
	}

	workers := runtime.GOMAXPROCS(0)
	for len(frontier) > 0 {
		var mu sync.Mutex
		var next []Vertex

		var eg errgroup.Group
		eg.SetLimit(workers)
		for _, chunk := range chunkVertices(frontier, workers) {
			eg.Go(func() error {
				defer log.HandlePanic()
				var local []Vertex
				for _, u := range chunk {
					for _, v := range g.AdjVertices(u, 0) {
						if _, loaded := seen.LoadOrStore(v, struct{}{}); !loaded {
							local = append(local, v)
						}
					}
				}
				if len(local) > 0 {
					mu.Lock()
					next = append(next, local...)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = eg.Wait()
		frontier = next
	}

	nbhd := make(VertexSet)
	seen.Range(func(key, _ any) bool {
		nbhd[key.(Vertex)] = struct{}{}
		return true
	})
	return nbhd
}

// KStep returns the immediate weight-k successors of sources. No closure
// is taken; this is a single hop.
func KStep(g *Graph, sources VertexSet, k Weight) VertexSet {
	step := make(VertexSet)
	for u := range sources {
		for _, v := range g.AdjVertices(u, k) {
			step[v] = struct{}{}
		}
	}
	return step
}

func chunkVertices(vs []Vertex, n int) [][]Vertex {
	if n > len(vs) {
		n = len(vs)
	}
	chunks := make([][]Vertex, 0, n)
	size := len(vs) / n
	rem := len(vs) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, vs[start:end])
		start = end
	}
	return chunks
}
