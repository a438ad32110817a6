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

// Package asrel ingests CAIDA AS-relationship files into the adjacency
// structures used by the path solvers.
//
// The file format is one record per line, pipe-delimited:
//
//	asnA|asnB|relIndicator
//
// where the indicator "-1" means A is a provider of B, and "0" means A and
// B are peers. Lines starting with '#' are comments.
package asrel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rwails/tempest/pkg/private/serrors"
)

// ASNumber identifies an autonomous system. It is kept as the string of
// digits from the input file; equality is string equality.
type ASNumber = string

// Relationship tags a directed adjacency edge with the role the neighbor
// plays for the edge owner.
type Relationship int

const (
	// Customer marks the neighbor as a customer of the owner.
	Customer Relationship = iota
	// Provider marks the neighbor as a provider of the owner.
	Provider
	// Peer marks a settlement-free peer.
	Peer
	// Sibling is reserved. The parser never produces it and the solvers
	// never consume it.
	Sibling
)

func (r Relationship) String() string {
	switch r {
	case Customer:
		return "customer"
	case Provider:
		return "provider"
	case Peer:
		return "peer"
	case Sibling:
		return "sibling"
	default:
		return fmt.Sprintf("relationship(%d)", int(r))
	}
}

// RelType is the relationship indicator of one input record.
type RelType int

const (
	// P2C indicates the record's first AS is a provider of the second.
	P2C RelType = -1
	// P2P indicates a peer-to-peer record.
	P2P RelType = 0
)

// RelLine is one parsed relationship record.
type RelLine struct {
	X, Y ASNumber
	Type RelType
}

// IR is the parsed intermediate representation of a relationship file, in
// file order.
type IR []RelLine

// AdjListElem is one directed adjacency entry.
type AdjListElem struct {
	ASN ASNumber
	Rel Relationship
}

// AdjList maps each AS to its adjacency entries. A provider/customer record
// is stored as two reciprocal directed edges with opposite tags; a peer
// record as two symmetric peer edges.
type AdjList map[ASNumber][]AdjListElem

// ParseFile parses the named CAIDA AS-relationship file.
func ParseFile(filename string) (IR, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, serrors.Wrap("opening asrel file", err, "file", filename)
	}
	defer f.Close()
	ir, err := Parse(f)
	if err != nil {
		return nil, serrors.Wrap("parsing asrel file", err, "file", filename)
	}
	return ir, nil
}

// Parse parses relationship records from r.
func Parse(r io.Reader) (IR, error) {
	var ir IR
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			return nil, serrors.New("malformed relationship line",
				"line", lineNo, "text", line)
		}
		var relType RelType
		switch fields[2] {
		case "-1":
			relType = P2C
		case "0":
			relType = P2P
		default:
			return nil, serrors.New("unrecognized relationship indicator",
				"line", lineNo, "indicator", fields[2])
		}
		ir = append(ir, RelLine{X: fields[0], Y: fields[1], Type: relType})
	}
	if err := scanner.Err(); err != nil {
		return nil, serrors.Wrap("reading input", err)
	}
	return ir, nil
}

// AdjList builds the adjacency list for the parsed records.
func (ir IR) AdjList() AdjList {
	adj := make(AdjList)
	for _, line := range ir {
		if line.Type == P2P {
			adj[line.X] = append(adj[line.X], AdjListElem{ASN: line.Y, Rel: Peer})
			adj[line.Y] = append(adj[line.Y], AdjListElem{ASN: line.X, Rel: Peer})
		} else {
			// X is the provider of Y.
			adj[line.X] = append(adj[line.X], AdjListElem{ASN: line.Y, Rel: Customer})
			adj[line.Y] = append(adj[line.Y], AdjListElem{ASN: line.X, Rel: Provider})
		}
	}
	return adj
}

// UniqueASes returns every AS appearing in the records, sorted.
func (ir IR) UniqueASes() []ASNumber {
	seen := make(map[ASNumber]struct{}, 2*len(ir))
	for _, line := range ir {
		seen[line.X] = struct{}{}
		seen[line.Y] = struct{}{}
	}
	ases := make([]ASNumber, 0, len(seen))
	for asn := range seen {
		ases = append(ases, asn)
	}
	sort.Strings(ases)
	return ases
}

// WriteTo serializes the records back into the CAIDA format.
func (ir IR) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range ir {
		n, err := fmt.Fprintf(w, "%s|%s|%d\n", line.X, line.Y, line.Type)
		total += int64(n)
		if err != nil {
			return total, serrors.Wrap("writing relationship line", err)
		}
	}
	return total, nil
}

// Clone returns a deep copy of the adjacency list. Solvers clone before
// splicing in synthetic edges so the shared topology stays untouched.
func (a AdjList) Clone() AdjList {
	clone := make(AdjList, len(a))
	for asn, elems := range a {
		cp := make([]AdjListElem, len(elems))
		copy(cp, elems)
		clone[asn] = cp
	}
	return clone
}
