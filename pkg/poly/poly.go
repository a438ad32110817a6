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

// Package poly finds the complex roots of real polynomials via the
// eigenvalues of the companion matrix.
package poly

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rwails/tempest/pkg/private/serrors"
)

// Roots returns all complex roots of the polynomial
//
//	c[0] + c[1]*x + ... + c[n-1]*x^(n-1)
//
// where coeffs[0] is the constant term and coeffs[n-1] the leading
// coefficient. A polynomial of degree d yields d roots, in no particular
// order. The leading coefficient must be nonzero; callers trim trailing
// zeros first.
func Roots(coeffs []float64) ([]complex128, error) {
	if len(coeffs) == 0 {
		return nil, serrors.New("no coefficients")
	}
	degree := len(coeffs) - 1
	if degree == 0 {
		return nil, nil
	}
	leading := coeffs[degree]
	if leading == 0 {
		return nil, serrors.New("leading coefficient is zero", "degree", degree)
	}

	// Companion matrix of the monic normalization: ones on the
	// subdiagonal, -c[i]/c[n-1] down the last column. Its eigenvalues
	// are exactly the polynomial's roots.
	companion := mat.NewDense(degree, degree, nil)
	for i := 0; i < degree; i++ {
		if i > 0 {
			companion.Set(i, i-1, 1)
		}
		companion.Set(i, degree-1, -coeffs[i]/leading)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, serrors.New("eigendecomposition failed", "degree", degree)
	}
	return eig.Values(nil), nil
}
