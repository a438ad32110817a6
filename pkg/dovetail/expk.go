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
	"math"

	"github.com/rwails/tempest/pkg/graph"
	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/poly"
)

// CostWeights maps a path cost to its sampling weight. Sampling a cost
// proportionally to these weights, then a path of that cost uniformly,
// approximates uniform sampling over all eligible paths.
type CostWeights map[graph.Weight]float64

// ExpKCostWeights computes per-cost sampling weights for reaching u, given
// the cost map of a fixed target. Costs below minCostK are ineligible.
//
// The weights derive from the polynomial sum_w c[w] x^w - 1, with c[w] = 1
// exactly at the eligible cost levels containing u: its structure (one
// negative constant term, nonnegative others) admits a unique positive
// real root r, and weight r^w at each eligible level equalizes the
// expected number of paths per level. An empty map is returned when u is
// unreachable at every eligible cost.
func ExpKCostWeights(u graph.Vertex, costMap graph.CostMap,
	minCostK graph.Weight) CostWeights {

	if minCostK <= 0 {
		panic(fmt.Sprintf("dovetail: min cost must be positive, got %d", minCostK))
	}

	maxCost := costMap.MaxCost()
	if maxCost < 0 {
		return nil
	}
	coeffs := make([]float64, maxCost+1)
	coeffs[0] = -1

	numEligible := 0
	for w := graph.Weight(1); w <= maxCost; w++ {
		if w >= minCostK && costMap.Has(w, u) {
			coeffs[w] = 1
			numEligible++
		}
	}
	if numEligible == 0 {
		log.Debug("No paths for vertex", "vertex", u)
		return nil
	}

	// Trim trailing zeros so the leading coefficient is nonzero.
	effective := len(coeffs)
	for coeffs[effective-1] == 0 {
		effective--
	}

	roots, err := poly.Roots(coeffs[:effective])
	if err != nil {
		panic(fmt.Sprintf("dovetail: root solver failed: %v", err))
	}
	realRoot := math.NaN()
	for _, r := range roots {
		if real(r) > 0 && imag(r) == 0 {
			realRoot = real(r)
			break
		}
	}
	if math.IsNaN(realRoot) {
		panic(fmt.Sprintf("dovetail: no positive real root for vertex %d", u))
	}

	weights := make(CostWeights, maxCost+1)
	weights[0] = 0
	for w := graph.Weight(1); w <= maxCost; w++ {
		if coeffs[w] == 0 {
			weights[w] = 0
		} else {
			weights[w] = math.Pow(realRoot, float64(w))
		}
	}
	return weights
}
