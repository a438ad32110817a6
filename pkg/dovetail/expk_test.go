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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwails/tempest/pkg/graph"
)

func TestExpKCostWeights(t *testing.T) {
	const u = graph.Vertex(9)
	costMap := graph.CostMap{
		0: {u: {}},
		1: {u: {}},
		2: {u: {}},
		3: {u: {}},
		4: {1: {}},
	}

	weights := ExpKCostWeights(u, costMap, 2)
	require.NotEmpty(t, weights)

	// Eligible levels are 2 and 3; the polynomial is -1 + x^2 + x^3 and
	// its positive real root r satisfies r^2 + r^3 = 1.
	assert.Zero(t, weights[0])
	assert.Zero(t, weights[1])
	assert.Zero(t, weights[4])
	assert.Greater(t, weights[2], 0.0)
	assert.Greater(t, weights[3], 0.0)
	assert.InDelta(t, 1.0, weights[2]+weights[3], 1e-9)

	r := math.Sqrt(weights[2])
	assert.InDelta(t, weights[3], math.Pow(r, 3), 1e-9)
}

func TestExpKCostWeightsSingleLevel(t *testing.T) {
	const u = graph.Vertex(3)
	costMap := graph.CostMap{
		0: {u: {}},
		6: {u: {}},
		7: {1: {}},
	}

	weights := ExpKCostWeights(u, costMap, 6)
	require.NotEmpty(t, weights)
	// -1 + x^6 has the unique positive real root 1.
	assert.InDelta(t, 1.0, weights[6], 1e-9)
	for w, weight := range weights {
		if w != 6 {
			assert.Zero(t, weight, "unexpected weight at cost %d", w)
		}
	}
}

func TestExpKCostWeightsUnreachable(t *testing.T) {
	const u = graph.Vertex(3)
	costMap := graph.CostMap{
		0: {u: {}},
		1: {u: {}}, // below the cost floor
		2: {1: {}}, // u not present
	}
	assert.Empty(t, ExpKCostWeights(u, costMap, 2))
}

func TestExpKCostWeightsRequiresPositiveFloor(t *testing.T) {
	assert.Panics(t, func() {
		ExpKCostWeights(0, graph.CostMap{0: {0: {}}}, 0)
	})
}
