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

package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatumCompare(t *testing.T) {
	mustCompare := func(a, b Datum) int {
		cmp, err := a.Compare(&b)
		require.NoError(t, err)
		return cmp
	}

	// null orders before any value, equal to itself
	require.Equal(t, 0, mustCompare(NewDatum(), NewDatum()))
	require.Equal(t, -1, mustCompare(NewDatum(), NewIntDatum(math.MinInt64)))
	require.Equal(t, 1, mustCompare(NewIntDatum(0), NewDatum()))

	// same kind
	require.Equal(t, -1, mustCompare(NewIntDatum(1), NewIntDatum(2)))
	require.Equal(t, 0, mustCompare(NewFloat64Datum(1.5), NewFloat64Datum(1.5)))
	require.Equal(t, 1, mustCompare(NewStringDatum("b"), NewStringDatum("a")))

	// numeric cross-kind
	require.Equal(t, -1, mustCompare(NewIntDatum(1), NewFloat64Datum(1.5)))
	require.Equal(t, 0, mustCompare(NewUintDatum(7), NewIntDatum(7)))
	require.Equal(t, 1, mustCompare(NewUintDatum(math.MaxUint64), NewIntDatum(math.MaxInt64)))
	require.Equal(t, -1, mustCompare(NewIntDatum(-1), NewUintDatum(0)))

	// string and bytes are interchangeable
	require.Equal(t, 0, mustCompare(NewStringDatum("ab"), NewBytesDatum([]byte("ab"))))

	// anything else is a type mixup
	a, b := NewIntDatum(1), NewStringDatum("x")
	_, err := a.Compare(&b)
	require.Error(t, err)
}

func TestDatumToFloat64(t *testing.T) {
	// reads straight off constructor results, no binding needed
	f, ok := NewIntDatum(-3).ToFloat64()
	require.True(t, ok)
	require.Equal(t, -3.0, f)
	f, ok = NewUintDatum(8).ToFloat64()
	require.True(t, ok)
	require.Equal(t, 8.0, f)
	f, ok = NewFloat64Datum(2.25).ToFloat64()
	require.True(t, ok)
	require.Equal(t, 2.25, f)
	_, ok = NewStringDatum("x").ToFloat64()
	require.False(t, ok)
	_, ok = NewDatum().ToFloat64()
	require.False(t, ok)
}

func TestDatumString(t *testing.T) {
	require.Equal(t, "NULL", NewDatum().String())
	require.Equal(t, "42", NewIntDatum(42).String())
	require.Equal(t, "1.5", NewFloat64Datum(1.5).String())
	require.Equal(t, "abc", NewStringDatum("abc").String())
}
