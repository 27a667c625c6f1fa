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
	"github.com/maplebase/maple/types"
)

// ColumnStats is the per-column statistics entry produced by the
// sampling collaborator. NullFrac and NDV come from the single-column
// analyze pass; Min and Max are only set for orderable columns and may
// be null datums otherwise.
type ColumnStats struct {
	AttrNum  int16
	Name     string
	NullFrac float64
	// NDV is the estimated number of distinct non-null values.
	NDV float64
	Min types.Datum
	Max types.Datum
}

// SampleRow is one sampled tuple. Values is aligned with the Columns
// slice of the owning Sample; a null cell is a null datum.
type SampleRow struct {
	Values []types.Datum
}

// Sample is a fixed-size uniform row sample of one relation, handed
// over by the analyze collaborator together with the per-column
// statistics. The rows are in arbitrary order and must not be mutated
// by the statistics code.
type Sample struct {
	// TotalRows is the estimated live row count of the full relation,
	// of which len(Rows) rows were sampled.
	TotalRows float64
	Columns   []*ColumnStats
	Rows      []SampleRow
}

// ColumnIndex returns the position of the column with the given
// attribute number inside Columns (and inside every row's Values), or
// -1 when the sample does not carry that column.
func (s *Sample) ColumnIndex(attnum int16) int {
	for i, col := range s.Columns {
		if col.AttrNum == attnum {
			return i
		}
	}
	return -1
}

// Collection is the planner-side statistics of one relation: the
// current row count estimate plus the per-column entries, keyed by
// attribute number.
type Collection struct {
	RelID int64
	// Count is the estimated row count the planner currently assumes.
	Count   float64
	Columns map[int16]*ColumnStats
}

// GetColumn returns the column entry for attnum, or nil.
func (c *Collection) GetColumn(attnum int16) *ColumnStats {
	if c == nil {
		return nil
	}
	return c.Columns[attnum]
}

// PseudoCollection returns default statistics for a relation that was
// never analyzed. Estimates over it use the pseudo rates.
func PseudoCollection(relID int64) *Collection {
	return &Collection{
		RelID:   relID,
		Count:   pseudoRowCount,
		Columns: make(map[int16]*ColumnStats),
	}
}
