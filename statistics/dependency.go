// Copyright 2024 Maplebase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statistics

import (
	"encoding/json"

	"github.com/pingcap/errors"
)

// Dependency is one functional dependency measured over the sampled
// data: the values of FromAttrs determine the value of ToAttr with
// validity Degree in [0, 1]. Computation happens in the analyze
// collaborator; this package only applies the result.
type Dependency struct {
	FromAttrs []int16 `json:"cols"`
	ToAttr    int16   `json:"implied"`
	Degree    float64 `json:"degree"`
}

// nattrs is the total width of the dependency, determining columns plus
// the implied one.
func (d *Dependency) nattrs() int {
	return len(d.FromAttrs) + 1
}

// isFullyMatched reports whether every attribute of the dependency,
// implied one included, is in the given set.
func (d *Dependency) isFullyMatched(attrs AttrSet) bool {
	if !attrs.Contains(d.ToAttr) {
		return false
	}
	for _, a := range d.FromAttrs {
		if !attrs.Contains(a) {
			return false
		}
	}
	return true
}

// Dependencies is the functional-dependency payload of one statistics
// object.
type Dependencies struct {
	Deps []*Dependency `json:"deps"`
}

// EncodeDependencies serializes the dependency set for catalog storage.
func EncodeDependencies(deps *Dependencies) ([]byte, error) {
	data, err := json.Marshal(deps)
	return data, errors.Trace(err)
}

// DecodeDependencies deserializes a stored dependency set. A nil blob
// decodes to (nil, nil), the "no object stored" case.
func DecodeDependencies(data []byte) (*Dependencies, error) {
	if data == nil {
		return nil, nil
	}
	deps := &Dependencies{}
	if err := json.Unmarshal(data, deps); err != nil {
		return nil, errors.Errorf("invalid dependencies payload: %v", err)
	}
	return deps, nil
}

// findStrongestDependency returns the dependency whose attributes are
// all inside the given set and which covers the most attributes,
// breaking ties by the highest degree. Wider dependencies capture more
// of the correlation, so they are applied first; nil means none is
// fully matched.
func findStrongestDependency(deps *Dependencies, attrs AttrSet) *Dependency {
	var strongest *Dependency
	for _, dep := range deps.Deps {
		if dep.nattrs() > attrs.Len() {
			continue
		}
		if !dep.isFullyMatched(attrs) {
			continue
		}
		if strongest == nil || strongest.nattrs() < dep.nattrs() ||
			(strongest.nattrs() == dep.nattrs() && strongest.Degree < dep.Degree) {
			strongest = dep
		}
	}
	return strongest
}
