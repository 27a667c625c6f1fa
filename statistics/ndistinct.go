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
	"math"
	"sort"
	"strings"

	"github.com/maplebase/maple/types"
)

// NDistinctItem is the estimated number of distinct value-combinations
// for one specific set of columns. AttrNums is sorted and has at least
// two members.
type NDistinctItem struct {
	NDistinct float64
	AttrNums  []int16
}

// NDistinct is the multi-column distinct-count coefficient set of one
// statistics object: one item per column subset of size two or more.
type NDistinct struct {
	Items []NDistinctItem
}

// Match returns the coefficient for the exact attribute set, if the
// object carries one.
func (nd *NDistinct) Match(attrs AttrSet) (float64, bool) {
	if nd == nil {
		return 0, false
	}
	for i := range nd.Items {
		item := &nd.Items[i]
		if len(item.AttrNums) != attrs.Len() {
			continue
		}
		matched := true
		for _, a := range item.AttrNums {
			if !attrs.Contains(a) {
				matched = false
				break
			}
		}
		if matched {
			return item.NDistinct, true
		}
	}
	return 0, false
}

// String renders the coefficient set for EXPLAIN-style output, e.g.
// {"1, 2": 100, "1, 2, 3": 100}.
func (nd *NDistinct) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i := range nd.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		item := &nd.Items[i]
		attrs := make([]string, 0, len(item.AttrNums))
		for _, a := range item.AttrNums {
			attrs = append(attrs, fmt.Sprintf("%d", a))
		}
		fmt.Fprintf(&sb, "\"%s\": %d", strings.Join(attrs, ", "), int64(item.NDistinct))
	}
	sb.WriteByte('}')
	return sb.String()
}

// BuildNDistinct computes the complete coefficient set for the sample
// columns at the given positions: one item for every subset of size
// 2..len(colIdxs). The positions index sample.Columns and must have
// been resolved against a statistics definition already, so a bad
// position or column count is a bug, not a runtime condition.
func BuildNDistinct(sample *Sample, colIdxs []int) *NDistinct {
	numattrs := len(colIdxs)
	if numattrs < 2 || numattrs > MaxDimensions {
		panic(fmt.Sprintf("ndistinct build over %d columns, want 2..%d", numattrs, MaxDimensions))
	}
	for _, idx := range colIdxs {
		if idx < 0 || idx >= len(sample.Columns) {
			panic(fmt.Sprintf("ndistinct build column position %d out of range [0, %d)", idx, len(sample.Columns)))
		}
	}

	result := &NDistinct{Items: make([]NDistinctItem, 0, numCombinations(numattrs))}
	for k := 2; k <= numattrs; k++ {
		gen := newCombinationGenerator(numattrs, k)
		for combination := gen.next(); combination != nil; combination = gen.next() {
			item := NDistinctItem{
				NDistinct: ndistinctForCombination(sample, colIdxs, combination),
				AttrNums:  make([]int16, 0, k),
			}
			for _, pos := range combination {
				item.AttrNums = append(item.AttrNums, sample.Columns[colIdxs[pos]].AttrNum)
			}
			sort.Slice(item.AttrNums, func(i, j int) bool { return item.AttrNums[i] < item.AttrNums[j] })
			result.Items = append(result.Items, item)
		}
	}

	if len(result.Items) != numCombinations(numattrs) {
		panic(fmt.Sprintf("built %d ndistinct items over %d columns, expected %d",
			len(result.Items), numattrs, numCombinations(numattrs)))
	}
	return result
}

// ndistinctForCombination estimates the distinct count of one column
// combination: project the sample onto the combination, sort, count the
// groups and the singleton groups, then extrapolate.
func ndistinctForCombination(sample *Sample, colIdxs []int, combination []int) float64 {
	k := len(combination)
	if len(sample.Rows) == 0 {
		return 0
	}
	items := make([]sortRowItem, len(sample.Rows))
	for i := range sample.Rows {
		row := &sample.Rows[i]
		items[i].values = make([]types.Datum, 0, k)
		for _, pos := range combination {
			items[i].values = append(items[i].values, row.Values[colIdxs[pos]])
		}
	}

	ms := newMultiSorter(k)
	sort.Slice(items, func(i, j int) bool {
		return ms.compare(&items[i], &items[j]) < 0
	})

	// one pass over the sorted run, counting groups (d) and groups of
	// size one (f1)
	d, f1, groupSize := 1, 0, 1
	for i := 1; i < len(items); i++ {
		if ms.compare(&items[i-1], &items[i]) != 0 {
			if groupSize == 1 {
				f1++
			}
			d++
			groupSize = 0
		}
		groupSize++
	}
	if groupSize == 1 {
		f1++
	}

	return estimateNDistinct(sample.TotalRows, len(sample.Rows), d, f1)
}

// estimateNDistinct extrapolates the distinct count seen in a sample of
// numRows rows to a relation of totalRows rows, using the Duj1
// estimator
//
//	n * d / (n - f1 + f1 * n/N)
//
// where d is the number of distinct groups in the sample and f1 the
// number of values sampled exactly once. The result is clamped to
// [d, totalRows] and rounded to the nearest integer.
func estimateNDistinct(totalRows float64, numRows, d, f1 int) float64 {
	n := float64(numRows)
	numer := n * float64(d)
	denom := n - float64(f1) + float64(f1)*n/totalRows
	ndistinct := numer / denom

	if ndistinct < float64(d) {
		ndistinct = float64(d)
	}
	if ndistinct > totalRows {
		ndistinct = totalRows
	}
	return math.Floor(ndistinct + 0.5)
}
