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

package metrics

import "sync/atomic"

// TestCounter implements Counter for use in tests. The zero value is ready
// for use; it is safe for concurrent use.
type TestCounter struct {
	v atomic.Int64
}

// Add implements Counter. Fractional deltas are not supported.
func (c *TestCounter) Add(delta float64) {
	c.v.Add(int64(delta))
}

// Value returns the accumulated count.
func (c *TestCounter) Value() int64 {
	return c.v.Load()
}
