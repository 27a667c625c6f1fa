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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombinationGeneratorSmall(t *testing.T) {
	gen := newCombinationGenerator(3, 2)
	var got [][]int
	for c := gen.next(); c != nil; c = gen.next() {
		cc := make([]int, len(c))
		copy(cc, c)
		got = append(got, cc)
	}
	require.Equal(t, [][]int{{0, 1}, {0, 2}, {1, 2}}, got)
	// exhausted generators stay exhausted
	require.Nil(t, gen.next())
}

func TestCombinationGeneratorProperties(t *testing.T) {
	for n := 1; n <= MaxDimensions; n++ {
		for k := 1; k <= n; k++ {
			gen := newCombinationGenerator(n, k)
			count := 0
			var prev []int
			for c := gen.next(); c != nil; c = gen.next() {
				require.Len(t, c, k)
				for i, v := range c {
					require.GreaterOrEqual(t, v, 0)
					require.Less(t, v, n)
					if i > 0 {
						require.Greater(t, v, c[i-1], "elements must be strictly increasing")
					}
				}
				if prev != nil {
					require.Equal(t, -1, compareIntSlices(prev, c), "combinations must be emitted in lexicographic order")
				}
				prev = append(prev[:0], c...)
				count++
			}
			require.Equal(t, nChooseK(n, k), count, "n=%d k=%d", n, k)
		}
	}
}

func compareIntSlices(a, b []int) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

func TestCombinationGeneratorInvalidArgs(t *testing.T) {
	require.Panics(t, func() { newCombinationGenerator(2, 3) })
	require.Panics(t, func() { newCombinationGenerator(3, 0) })
	require.Panics(t, func() { newCombinationGenerator(0, 0) })
	require.Panics(t, func() { nChooseK(1, -1) })
	require.Panics(t, func() { nChooseK(2, 4) })
}

func TestNChooseK(t *testing.T) {
	tests := []struct {
		n, k, want int
	}{
		{1, 1, 1},
		{4, 2, 6},
		{5, 3, 10},
		{8, 4, 70},
		{8, 8, 1},
		{8, 1, 8},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, nChooseK(tt.n, tt.k), "C(%d, %d)", tt.n, tt.k)
	}
}

func TestNumCombinations(t *testing.T) {
	require.Equal(t, 1, numCombinations(2))
	require.Equal(t, 4, numCombinations(3))
	require.Equal(t, 11, numCombinations(4))
	require.Equal(t, 247, numCombinations(8))
}
