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

package bgpsim

import (
	"sort"

	"github.com/rwails/tempest/pkg/asrel"
)

// ComputePaths computes the path every AS selects toward prefix under the
// given policy, with the prefix announced by origins. The adjacency list
// is never mutated; a private copy is made when a OneHop origin requires a
// synthetic edge. ASes unreachable under the policy have no entry in the
// result.
func ComputePaths(adj asrel.AdjList, prefix string, origins []Origin,
	policy Policy) IndexedPaths {

	out := make(IndexedPaths)
	adj = seedOrigins(adj, origins, out)

	visited := make(asnSet)
	phaseCustomerTree(adj, prefix, policy, out, visited)
	phasePeerLayer(adj, prefix, policy, out, visited)
	phaseProviderTree(adj, prefix, policy, out, visited)
	return out
}

type asnSet map[asrel.ASNumber]struct{}

func (s asnSet) has(asn asrel.ASNumber) bool {
	_, ok := s[asn]
	return ok
}

func (s asnSet) sorted() []asrel.ASNumber {
	asns := make([]asrel.ASNumber, 0, len(s))
	for asn := range s {
		asns = append(asns, asn)
	}
	sort.Strings(asns)
	return asns
}

// seedOrigins installs the one-element origin paths and, for OneHop
// origins, the two-element path through the true origin. A OneHop origin
// also gets a synthetic provider edge toward the true origin spliced into
// a private copy of the adjacency list, so the customer-tree phase can
// traverse through it.
func seedOrigins(adj asrel.AdjList, origins []Origin, out IndexedPaths) asrel.AdjList {
	var trueOrigin asrel.ASNumber
	for _, origin := range origins {
		if origin.Type == True {
			trueOrigin = origin.ASN
		}
	}

	cloned := false
	for _, origin := range origins {
		switch origin.Type {
		case True, False:
			out[origin.ASN] = Path{origin.ASN}
		case OneHop:
			out[origin.ASN] = Path{trueOrigin, origin.ASN}
			if !cloned {
				adj = adj.Clone()
				cloned = true
			}
			adj[origin.ASN] = append(adj[origin.ASN],
				asrel.AdjListElem{ASN: trueOrigin, Rel: asrel.Provider})
		}
	}
	return adj
}

// update considers the path installed at via as a candidate for asn,
// replacing asn's entry unless its current path (in incoming form, with
// the trailing asn stripped) is strictly preferred.
func update(asn, via asrel.ASNumber, prefix string, policy Policy,
	out IndexedPaths) {

	newPath := out[via]
	if current, ok := out[asn]; ok {
		incoming := current[:len(current)-1]
		if policy.Prefer(asn, prefix, incoming, newPath) {
			return
		}
	}
	installed := newPath.clone()
	out[asn] = append(installed, asn)
}

type queueElem struct {
	asn, visitedBy asrel.ASNumber
}

// phaseCustomerTree walks the provider cone above each origin: routes
// propagate from customers up to their providers.
func phaseCustomerTree(adj asrel.AdjList, prefix string, policy Policy,
	out IndexedPaths, visited asnSet) {

	var queue []queueElem
	origins := make(asnSet, len(out))
	for asn := range out {
		origins[asn] = struct{}{}
	}
	for _, asn := range origins.sorted() {
		queue = append(queue, queueElem{asn: asn, visitedBy: asn})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if !policy.Import(current.asn, prefix, out[current.visitedBy]) {
			continue
		}
		if !visited.has(current.asn) {
			for _, elem := range adj[current.asn] {
				if elem.Rel == asrel.Provider {
					queue = append(queue, queueElem{asn: elem.ASN, visitedBy: current.asn})
				}
			}
		}
		visited[current.asn] = struct{}{}
		if current.asn != current.visitedBy {
			update(current.asn, current.visitedBy, prefix, policy, out)
		}
	}
}

// phasePeerLayer advertises over a single peer hop from every AS reached
// so far. Peers are never re-traversed.
func phasePeerLayer(adj asrel.AdjList, prefix string, policy Policy,
	out IndexedPaths, visited asnSet) {

	newVisited := make(asnSet)
	for _, asn := range visited.sorted() {
		for _, elem := range adj[asn] {
			if elem.Rel != asrel.Peer || visited.has(elem.ASN) {
				continue
			}
			update(elem.ASN, asn, prefix, policy, out)
			newVisited[elem.ASN] = struct{}{}
		}
	}
	for asn := range newVisited {
		visited[asn] = struct{}{}
	}
}

// phaseProviderTree propagates routes down the customer tree. Placements
// from the earlier phases are authoritative: only ASes that were not
// visited at phase entry get a path installed.
func phaseProviderTree(adj asrel.AdjList, prefix string, policy Policy,
	out IndexedPaths, visited asnSet) {

	newVisited := make(asnSet, len(visited))
	for asn := range visited {
		newVisited[asn] = struct{}{}
	}

	var queue []queueElem
	for _, asn := range visited.sorted() {
		for _, elem := range adj[asn] {
			if elem.Rel == asrel.Customer {
				queue = append(queue, queueElem{asn: elem.ASN, visitedBy: asn})
			}
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if !policy.Import(current.asn, prefix, out[current.visitedBy]) {
			continue
		}
		if !newVisited.has(current.asn) {
			for _, elem := range adj[current.asn] {
				if elem.Rel == asrel.Customer {
					queue = append(queue, queueElem{asn: elem.ASN, visitedBy: current.asn})
				}
			}
			newVisited[current.asn] = struct{}{}
		}
		if !visited.has(current.asn) {
			update(current.asn, current.visitedBy, prefix, policy, out)
		}
	}
}
