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

// CostMap indexes, per total weight, the set of vertices reachable at
// that cost from a fixed source. Sets at different costs may overlap: a
// vertex reachable by several total weights appears at each of them. The
// map serves as a multi-level reachability oracle.
type CostMap map[Weight]VertexSet

// MaxCost returns the highest cost level present, or -1 for an empty map.
func (m CostMap) MaxCost() Weight {
	maxCost := Weight(-1)
	for w := range m {
		if w > maxCost {
			maxCost = w
		}
	}
	return maxCost
}

// Has reports whether u is reachable at exactly cost w.
func (m CostMap) Has(w Weight, u Vertex) bool {
	set, ok := m[w]
	return ok && set.Has(u)
}

// ComputeAvailableCosts builds the cost map from source up to maxCost.
// Level 0 is the zero-weight closure of the source; level w is the
// zero-weight closure of the one-step successors of level w-1.
func ComputeAvailableCosts(g *Graph, source Vertex, maxCost Weight) CostMap {
	costMap := make(CostMap, maxCost+1)

	zero := ZeroNbhdParallel(g, VertexSet{source: {}})
	costMap[0] = zero

	for w := Weight(1); w <= maxCost; w++ {
		one := KStep(g, zero, 1)
		zero = ZeroNbhdParallel(g, one)
		costMap[w] = zero
	}
	return costMap
}
