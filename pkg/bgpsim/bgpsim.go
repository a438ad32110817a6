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

// Package bgpsim infers the AS-level routes selected under Gao-Rexford
// policy on a CAIDA relationship topology.
//
// The solver runs three BFS phases over the adjacency list: up the
// provider chain from the origins, across at most one peer edge, and down
// to customers. The phases realize valley-free routing; the import and
// preference predicates of a Policy steer path selection during the
// traversal.
package bgpsim

import (
	"github.com/rwails/tempest/pkg/asrel"
)

// OriginType distinguishes how an origin announces the simulated prefix.
type OriginType int

const (
	// True marks the legitimate origin. At most one per computation.
	True OriginType = iota
	// False marks an AS originating the prefix it does not own.
	False
	// OneHop marks an AS that prepends the true origin, claiming
	// adjacency to it.
	OneHop
)

// Origin is one AS announcing the prefix.
type Origin struct {
	ASN  asrel.ASNumber
	Type OriginType
}

// Path is an AS-level route in incoming view: the first element is the
// origin, successive elements the advertising chain, and the last element
// the AS that installed the route.
type Path []asrel.ASNumber

// Last returns the final hop of the path.
func (p Path) Last() asrel.ASNumber {
	return p[len(p)-1]
}

// clone returns a copy of p with room for one extra hop.
func (p Path) clone() Path {
	cp := make(Path, len(p), len(p)+1)
	copy(cp, p)
	return cp
}

// IndexedPaths maps every reached AS to the path it installed toward the
// prefix. For each entry (k, p), p.Last() == k.
type IndexedPaths map[asrel.ASNumber]Path

// IndexedPathsTo maps an origin AS to the paths every other AS selects
// toward a prefix originated there.
type IndexedPathsTo map[asrel.ASNumber]IndexedPaths

// Policy controls import filtering and path preference during simulation.
// Implementations must be total: both methods are consulted on every
// candidate and cannot fail.
type Policy interface {
	// Import reports whether asn will consider path for the prefix.
	Import(asn asrel.ASNumber, prefix string, path Path) bool
	// Prefer reports whether p1 is strictly preferred over p2 at asn.
	Prefer(asn asrel.ASNumber, prefix string, p1, p2 Path) bool
}

// DefaultPolicy imports everything and prefers shorter paths, breaking
// ties by lexicographic comparison of the last hop. The tiebreak is not
// BGP-standard; it is kept for reproducibility with prior results.
type DefaultPolicy struct{}

// Import implements Policy.
func (DefaultPolicy) Import(asrel.ASNumber, string, Path) bool {
	return true
}

// Prefer implements Policy.
func (DefaultPolicy) Prefer(_ asrel.ASNumber, _ string, p1, p2 Path) bool {
	if len(p1) != len(p2) {
		return len(p1) < len(p2)
	}
	return p1.Last() < p2.Last()
}
