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

package poly_test

import (
	"math/cmplx"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwails/tempest/pkg/poly"
)

const tol = 1e-9

func sortedReal(roots []complex128) []float64 {
	rs := make([]float64, len(roots))
	for i, r := range roots {
		rs[i] = real(r)
	}
	sort.Float64s(rs)
	return rs
}

func TestRoots(t *testing.T) {
	testCases := map[string]struct {
		coeffs   []float64
		expected []float64 // sorted real parts; all roots real
	}{
		"linear": {
			coeffs:   []float64{-6, 2}, // 2x - 6
			expected: []float64{3},
		},
		"quadratic": {
			coeffs:   []float64{-1, 0, 1}, // x^2 - 1
			expected: []float64{-1, 1},
		},
		"cubic": {
			// (x-1)(x-2)(x-3) = x^3 - 6x^2 + 11x - 6
			coeffs:   []float64{-6, 11, -6, 1},
			expected: []float64{1, 2, 3},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			roots, err := poly.Roots(tc.coeffs)
			require.NoError(t, err)
			require.Len(t, roots, len(tc.expected))
			got := sortedReal(roots)
			for i, expected := range tc.expected {
				assert.InDelta(t, expected, got[i], tol)
				assert.InDelta(t, 0, imag(roots[i]), tol)
			}
		})
	}
}

func TestRootsComplexPair(t *testing.T) {
	// x^2 + 1 has roots +-i.
	roots, err := poly.Roots([]float64{1, 0, 1})
	require.NoError(t, err)
	require.Len(t, roots, 2)
	for _, r := range roots {
		assert.InDelta(t, 1, cmplx.Abs(r), tol)
		assert.InDelta(t, 0, real(r), tol)
	}
}

func TestRootsSatisfyPolynomial(t *testing.T) {
	// The exp-k shape: -1 + x^2 + x^3.
	coeffs := []float64{-1, 0, 1, 1}
	roots, err := poly.Roots(coeffs)
	require.NoError(t, err)
	require.Len(t, roots, 3)
	for _, r := range roots {
		var val complex128
		for i := len(coeffs) - 1; i >= 0; i-- {
			val = val*r + complex(coeffs[i], 0)
		}
		assert.InDelta(t, 0, cmplx.Abs(val), 1e-8)
	}
}

func TestRootsErrors(t *testing.T) {
	_, err := poly.Roots(nil)
	assert.Error(t, err)

	_, err = poly.Roots([]float64{1, 2, 0})
	assert.Error(t, err)

	roots, err := poly.Roots([]float64{-1})
	assert.NoError(t, err)
	assert.Empty(t, roots)
}
