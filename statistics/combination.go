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

	"modernc.org/mathutil"
)

// combinationGenerator enumerates all the k-sized subsets of the index
// interval [0, n) in lexicographic order. All combinations are
// pre-built at init time, which is simpler than generating them on the
// fly and cheap given the MaxDimensions cap (at most 2^8 combinations
// in total).
type combinationGenerator struct {
	k             int
	n             int
	current       int
	ncombinations int
	// combinations holds the pre-built combinations, k ints each.
	combinations []int
}

// newCombinationGenerator initializes the generator of k-combinations
// of n elements. Violating n >= k > 0 is a bug in the caller.
func newCombinationGenerator(n, k int) *combinationGenerator {
	if k <= 0 || n < k {
		panic(fmt.Sprintf("invalid combination generator arguments n=%d k=%d", n, k))
	}
	g := &combinationGenerator{
		k:             k,
		n:             n,
		ncombinations: nChooseK(n, k),
	}
	g.combinations = make([]int, 0, g.k*g.ncombinations)
	g.generateRecurse(0, 0, make([]int, k))
	// must have produced exactly the expected number of combinations
	if len(g.combinations) != g.k*g.ncombinations {
		panic(fmt.Sprintf("generated %d combination elements, expected %d",
			len(g.combinations), g.k*g.ncombinations))
	}
	return g
}

// generateRecurse extends the prefix current[:index] with every element
// not smaller than start, emitting the combination once it has k
// elements. Requiring ascending elements eliminates permutations of the
// same combination.
func (g *combinationGenerator) generateRecurse(index, start int, current []int) {
	if index < g.k {
		for i := start; i < g.n; i++ {
			current[index] = i
			g.generateRecurse(index+1, i+1, current)
		}
		return
	}
	g.combinations = append(g.combinations, current...)
}

// next returns the next combination from the prebuilt list, or nil when
// the generator is exhausted. The returned slice is only valid until
// the generator is released.
func (g *combinationGenerator) next() []int {
	if g.current == g.ncombinations {
		return nil
	}
	c := g.combinations[g.k*g.current : g.k*(g.current+1)]
	g.current++
	return c
}

// nChooseK computes the binomial coefficient using the multiplicative
// method, exploiting the symmetry of the coefficients to keep the
// intermediate values small.
func nChooseK(n, k int) int {
	if k <= 0 || n < k {
		panic(fmt.Sprintf("invalid binomial coefficient arguments n=%d k=%d", n, k))
	}
	k = mathutil.Min(k, n-k)
	r := 1
	for d := 1; d <= k; d++ {
		r *= n
		n--
		r /= d
	}
	return r
}

// numCombinations is the number of non-trivial subsets of n columns,
// i.e. all the subsets except the empty set and the singletons.
func numCombinations(n int) int {
	return (1 << uint(n)) - (n + 1)
}
