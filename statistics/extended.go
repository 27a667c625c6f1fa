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
	"fmt"
	"sort"
)

// MaxDimensions caps the number of columns one extended statistics
// object may cover.
const MaxDimensions = 8

// StatsKind tags the variants of extended statistics a definition can
// request. The set is open to future kinds (MCV lists etc.) without
// touching the consumers that switch on it.
type StatsKind byte

const (
	// StatsNDistinct is the multi-column distinct-count coefficient set.
	StatsNDistinct StatsKind = 1
	// StatsDependencies is the functional-dependency set.
	StatsDependencies StatsKind = 2
)

// String implements fmt.Stringer.
func (k StatsKind) String() string {
	switch k {
	case StatsNDistinct:
		return "ndistinct"
	case StatsDependencies:
		return "dependencies"
	}
	return fmt.Sprintf("unknown(%d)", byte(k))
}

// AttrSet is a small ordered set of attribute numbers. Membership order
// never matters semantically, but Slice always returns a sorted copy so
// anything serialized from it is deterministic.
type AttrSet struct {
	attrs []int16
}

// NewAttrSet builds a set from the given attribute numbers.
func NewAttrSet(attrs ...int16) AttrSet {
	var s AttrSet
	for _, a := range attrs {
		s.Add(a)
	}
	return s
}

// Add inserts an attribute number, keeping the set sorted and
// duplicate-free.
func (s *AttrSet) Add(a int16) {
	i := sort.Search(len(s.attrs), func(i int) bool { return s.attrs[i] >= a })
	if i < len(s.attrs) && s.attrs[i] == a {
		return
	}
	s.attrs = append(s.attrs, 0)
	copy(s.attrs[i+1:], s.attrs[i:])
	s.attrs[i] = a
}

// Remove deletes an attribute number if present.
func (s *AttrSet) Remove(a int16) {
	i := sort.Search(len(s.attrs), func(i int) bool { return s.attrs[i] >= a })
	if i < len(s.attrs) && s.attrs[i] == a {
		s.attrs = append(s.attrs[:i], s.attrs[i+1:]...)
	}
}

// Contains checks membership.
func (s AttrSet) Contains(a int16) bool {
	i := sort.Search(len(s.attrs), func(i int) bool { return s.attrs[i] >= a })
	return i < len(s.attrs) && s.attrs[i] == a
}

// Len returns the number of members.
func (s AttrSet) Len() int {
	return len(s.attrs)
}

// Slice returns the members in ascending order. The caller must not
// mutate the result.
func (s AttrSet) Slice() []int16 {
	return s.attrs
}

// IsSubsetOf reports whether every member of s is also in o.
func (s AttrSet) IsSubsetOf(o AttrSet) bool {
	for _, a := range s.attrs {
		if !o.Contains(a) {
			return false
		}
	}
	return true
}

// IntersectionLen counts the members shared with o.
func (s AttrSet) IntersectionLen(o AttrSet) int {
	n := 0
	for _, a := range s.attrs {
		if o.Contains(a) {
			n++
		}
	}
	return n
}

// StatsDefinition describes one extended statistics object as created
// by DDL: the columns it covers and the kinds requested for it. The
// schema layer owns definitions; this package only consumes them.
type StatsDefinition struct {
	ID    int64  `json:"id"`
	RelID int64  `json:"rel_id"`
	Name  string `json:"name"`
	// ColAttrNums is sorted and duplicate-free, 2..MaxDimensions entries.
	ColAttrNums []int16     `json:"col_attr_nums"`
	Kinds       []StatsKind `json:"kinds"`
}

// HasKind reports whether the definition requests the given kind.
func (d *StatsDefinition) HasKind(kind StatsKind) bool {
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ColumnSet returns the covered attribute numbers as a set.
func (d *StatsDefinition) ColumnSet() AttrSet {
	return NewAttrSet(d.ColAttrNums...)
}

// StatsObject is one loaded extended statistics object: the definition
// plus whichever payloads were built for it. An unbuilt kind leaves the
// corresponding field nil.
type StatsObject struct {
	Def          *StatsDefinition
	NDistinct    *NDistinct
	Dependencies *Dependencies
}

// IsKindBuilt reports whether the payload of the given kind is present
// on the object. A definition can request a kind long before analyze
// first builds it.
func (o *StatsObject) IsKindBuilt(kind StatsKind) bool {
	switch kind {
	case StatsNDistinct:
		return o.NDistinct != nil
	case StatsDependencies:
		return o.Dependencies != nil
	}
	return false
}

// ChooseExtStatistics picks, among the objects carrying the required
// kind, the one whose columns intersect the reference attribute set the
// most, breaking ties by the fewest total columns. A candidate needs
// more than one matched attribute to be considered at all; nil means no
// candidate qualified.
//
// This is a greedy heuristic: it never weighs estimate quality and
// never combines several objects. Known limitation, kept deliberately.
func ChooseExtStatistics(objects []*StatsObject, kind StatsKind, ref AttrSet) *StatsObject {
	var best *StatsObject
	// requiring two matches up front lets a two-match candidate in only
	// through the fewer-columns arm below
	bestMatches := 2
	bestDims := MaxDimensions + 1
	for _, obj := range objects {
		if !obj.IsKindBuilt(kind) {
			continue
		}
		cols := obj.Def.ColumnSet()
		matches := cols.IntersectionLen(ref)
		if matches > bestMatches || (matches == bestMatches && cols.Len() < bestDims) {
			best = obj
			bestMatches = matches
			bestDims = cols.Len()
		}
	}
	return best
}
