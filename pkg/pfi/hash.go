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

import "github.com/cespare/xxhash/v2"

// HashString is the 64-bit key hash shared by the index builder and
// reader. Any stable non-cryptographic hash works, as long as both sides
// agree.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
