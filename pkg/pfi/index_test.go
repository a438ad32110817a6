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

package pfi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwails/tempest/pkg/metrics"
)

func buildIndex(t *testing.T, pathContent string) (Stats, string, BuilderMetrics) {
	t.Helper()
	dir := t.TempDir()
	pathFile := filepath.Join(dir, "paths.txt")
	indexFile := filepath.Join(dir, "paths.idx")
	require.NoError(t, os.WriteFile(pathFile, []byte(pathContent), 0o644))

	m := BuilderMetrics{
		LinesIndexed: &metrics.TestCounter{},
		LinesSkipped: &metrics.TestCounter{},
	}
	stats, err := Build(pathFile, indexFile, m)
	require.NoError(t, err)
	return stats, indexFile, m
}

func TestBuildSmallIndex(t *testing.T) {
	// Two indexable lines and one single-hop line. The single-hop line
	// is skipped; num_bins is the next prime above 2*2 and one byte
	// addresses the whole path file.
	stats, indexFile, m := buildIndex(t, "1 2\n3 4 5\n9\n")

	assert.Equal(t, Stats{Lines: 3, Indexed: 2, Skipped: 1}, stats)
	assert.EqualValues(t, 2, m.LinesIndexed.(*metrics.TestCounter).Value())
	assert.EqualValues(t, 1, m.LinesSkipped.(*metrics.TestCounter).Value())

	raw, err := os.ReadFile(indexFile)
	require.NoError(t, err)

	reader, err := OpenReader(indexFile)
	require.NoError(t, err)
	defer reader.Close()

	meta := reader.Meta()
	assert.Equal(t, uint64(5), meta.NumBins)
	assert.Equal(t, uint64(1), meta.BytesPerBin)
	assert.Equal(t, meta.FileSize(), uint64(len(raw)))

	// Exactly two slots in the bin region are occupied.
	occupied := 0
	for _, b := range raw[meta.HeaderSize:] {
		if b != 0xFF {
			occupied++
		}
	}
	assert.Equal(t, 2, occupied)
}

func TestIndexRoundTrip(t *testing.T) {
	lines := []string{"1 7 2", "10 20", "300 5 400 500", "6 6 6 6"}
	content := strings.Join(lines, "\n") + "\n"
	_, indexFile, _ := buildIndex(t, content)

	reader, err := OpenReader(indexFile)
	require.NoError(t, err)
	defer reader.Close()

	offset := uint64(0)
	for _, line := range lines {
		hops := strings.Split(line, " ")
		src, dst := hops[0], hops[len(hops)-1]

		candidates := reader.Lookup(src, dst)
		assert.Contains(t, candidates, offset,
			"no candidate offset for line %q", line)
		offset += uint64(len(line)) + 1
	}

	assert.Empty(t, reader.Lookup("no", "where"))
}

func TestIndexDuplicateKeys(t *testing.T) {
	// Both lines share the endpoint pair (1, 2); each consumes a slot
	// and both offsets surface as candidates.
	_, indexFile, _ := buildIndex(t, "1 2\n1 3 2\n")

	reader, err := OpenReader(indexFile)
	require.NoError(t, err)
	defer reader.Close()

	candidates := reader.Lookup("1", "2")
	assert.ElementsMatch(t, []uint64{0, 4}, candidates)
}

func TestLineKey(t *testing.T) {
	testCases := map[string]struct {
		line string
		key  string
		ok   bool
	}{
		"two hops":    {line: "1 2\n", key: "12", ok: true},
		"three hops":  {line: "1 2 3\n", key: "13", ok: true},
		"single hop":  {line: "9\n", ok: false},
		"no newline":  {line: "4 5", key: "45", ok: true},
		"empty":       {line: "", ok: false},
		"long asns":   {line: "7018 3356 1299\n", key: "70181299", ok: true},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			key, ok := lineKey(tc.line)
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.key, key)
			}
		})
	}
}

func TestNumBins(t *testing.T) {
	assert.EqualValues(t, 5, numBins(2))
	assert.EqualValues(t, 7, numBins(3))
	assert.EqualValues(t, 2, numBins(0))
	// Always strictly greater than twice the line count.
	assert.EqualValues(t, 11, numBins(5))
}

func TestBytesPerBin(t *testing.T) {
	assert.EqualValues(t, 1, bytesPerBin(10))
	assert.EqualValues(t, 1, bytesPerBin(127))
	assert.EqualValues(t, 2, bytesPerBin(256))
	assert.EqualValues(t, 1, bytesPerBin(0))
}

func TestProbeSequenceFindsSlotBeforeEmpty(t *testing.T) {
	// With many lines hashing into 2N prime bins, every key's probe
	// sequence must reach its slot before any empty slot.
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString(strings.Repeat("x", i%3+1))
		sb.WriteString(" mid ")
		sb.WriteString(strings.Repeat("y", i/3+1))
		sb.WriteString("\n")
	}
	_, indexFile, _ := buildIndex(t, sb.String())

	reader, err := OpenReader(indexFile)
	require.NoError(t, err)
	defer reader.Close()

	offset := uint64(0)
	for _, line := range strings.SplitAfter(sb.String(), "\n") {
		if line == "" {
			continue
		}
		hops := strings.Fields(line)
		candidates := reader.Lookup(hops[0], hops[len(hops)-1])
		assert.Contains(t, candidates, offset, "line %q", line)
		offset += uint64(len(line))
	}
}
