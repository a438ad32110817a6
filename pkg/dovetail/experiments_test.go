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
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwails/tempest/pkg/graph"
)

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

// The experiment tests run over a seven-AS provider chain
// e7 -> e6 -> ... -> e1, where e1 is the only endhost and the source of
// every draw. Paths climb the chain and may fold back down, so with
// every AS a matchmaker the default cost floor of 6 is satisfiable for
// each matchmaker above e1 and every draw succeeds.
var chainASes = []string{"e7", "e6", "e5", "e4", "e3", "e2", "e1"}

func TestRandomDovetailPathNoTail(t *testing.T) {
	ases := chainASes
	ir := chainIR(t, ases...)
	cfg := DefaultExperimentConfig()
	rng := rand.New(rand.NewSource(21))

	for i := 0; i < 3; i++ {
		dovetailASN := RandomDovetailPathNoTail(ir, cfg, len(ases), graph.Diameter,
			rng, SamplerMetrics{})
		// The dovetail AS is drawn from an eligible path of at least 6
		// inter-AS hops; the source cannot be its own dovetail here.
		assert.Contains(t, ases[:len(ases)-1], dovetailASN)
	}
}

func TestRandomDovetailPathNoTailUnreachable(t *testing.T) {
	// A three-AS chain cannot host any path of cost 6; every matchmaker
	// is blacklisted and the draw comes back empty.
	ir := chainIR(t, "u3", "u2", "u1")
	cfg := DefaultExperimentConfig()
	rng := rand.New(rand.NewSource(2))

	dovetailASN := RandomDovetailPathNoTail(ir, cfg, 3, graph.Diameter,
		rng, SamplerMetrics{})
	assert.Empty(t, dovetailASN)
}

func TestMultipleConnectionsSampleNoTail(t *testing.T) {
	ases := chainASes
	ir := chainIR(t, ases...)
	cfg := DefaultExperimentConfig()
	rng := rand.New(rand.NewSource(22))

	var sb strings.Builder
	ok := MultipleConnectionsSampleNoTail(ir, cfg, len(ases), 3, graph.Diameter,
		"e5", 5, rng, &sb, SamplerMetrics{})
	require.True(t, ok)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	// e1 is the only endhost, so the possible-source set is {e1} from
	// the start and stays there.
	assert.Equal(t, "e5,5,0,1", lines[0])
	for conn, line := range lines {
		fields := strings.Split(line, ",")
		require.Len(t, fields, 4)
		assert.Equal(t, "e5", fields[0])
		assert.Equal(t, "5", fields[1])
		assert.EqualValues(t, conn, mustAtoi(t, fields[2]))
		assert.Equal(t, "1", fields[3])
	}
}

func TestMultipleConnectionsAdversaryOffPath(t *testing.T) {
	ases := chainASes
	ir := chainIR(t, ases...)
	cfg := DefaultExperimentConfig()
	rng := rand.New(rand.NewSource(23))

	var sb strings.Builder
	// e2 is never the dovetail AS, so no intersection happens and the
	// candidate set never shrinks below the full endhost set.
	ok := MultipleConnectionsSampleNoTail(ir, cfg, len(ases), 2, graph.Diameter,
		"e2", 0, rng, &sb, SamplerMetrics{})
	require.True(t, ok)
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		assert.True(t, strings.HasSuffix(line, ",1"))
	}
}

func TestDovetailASRequiresSixHops(t *testing.T) {
	assert.Panics(t, func() {
		dovetailAS([]string{"1", "2", "3", "4", "5"})
	})
	assert.Equal(t, "4", dovetailAS([]string{"1", "2", "3", "4", "5", "6"}))
}
