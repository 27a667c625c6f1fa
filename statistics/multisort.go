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

	"github.com/maplebase/maple/types"
)

// sortRowItem is one sample row projected onto the columns of a single
// combination. Values holds exactly one datum per dimension.
type sortRowItem struct {
	values []types.Datum
}

// multiSorter compares projected rows dimension by dimension with each
// dimension's natural less-than ordering. Nulls sort last within a
// dimension so that the groups of a sorted run are contiguous.
type multiSorter struct {
	ndims int
}

func newMultiSorter(ndims int) *multiSorter {
	if ndims <= 0 {
		panic(fmt.Sprintf("invalid multi-sort dimension count %d", ndims))
	}
	return &multiSorter{ndims: ndims}
}

// compare orders two projected rows over all dimensions, returning the
// first non-zero per-dimension result.
func (ms *multiSorter) compare(a, b *sortRowItem) int {
	return ms.compareDims(a, b, 0, ms.ndims-1)
}

// compareDims orders two projected rows over the dimension subrange
// [start, end], both inclusive. Counting loops use it to re-check only
// the leading dimensions of adjacent rows.
func (ms *multiSorter) compareDims(a, b *sortRowItem, start, end int) int {
	if start < 0 || end >= ms.ndims || start > end {
		panic(fmt.Sprintf("invalid multi-sort dimension range [%d, %d] of %d", start, end, ms.ndims))
	}
	for dim := start; dim <= end; dim++ {
		if cmp := compareNullsLast(&a.values[dim], &b.values[dim]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// compareNullsLast orders two datums with nulls after every non-null
// value. A comparison error means the column's values are not orderable
// with each other, which the schema layer is supposed to have ruled
// out, so it is a fatal internal error here.
func compareNullsLast(a, b *types.Datum) int {
	an, bn := a.IsNull(), b.IsNull()
	if an || bn {
		if an && bn {
			return 0
		}
		if an {
			return 1
		}
		return -1
	}
	cmp, err := a.Compare(b)
	if err != nil {
		panic(fmt.Sprintf("no ordering between sampled values: %v", err))
	}
	return cmp
}
