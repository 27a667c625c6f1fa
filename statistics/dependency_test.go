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

func TestFindStrongestDependency(t *testing.T) {
	narrow := &Dependency{FromAttrs: []int16{1}, ToAttr: 2, Degree: 1.0}
	wide := &Dependency{FromAttrs: []int16{1, 2}, ToAttr: 3, Degree: 0.5}
	deps := &Dependencies{Deps: []*Dependency{narrow, wide}}

	// the wider dependency wins even with the lower degree
	require.Same(t, wide, findStrongestDependency(deps, NewAttrSet(1, 2, 3)))
	// once its attributes are not all covered, the narrow one remains
	require.Same(t, narrow, findStrongestDependency(deps, NewAttrSet(1, 2)))
	require.Nil(t, findStrongestDependency(deps, NewAttrSet(1, 3)))
	require.Nil(t, findStrongestDependency(deps, NewAttrSet(4)))
}

func TestFindStrongestDependencyDegreeTieBreak(t *testing.T) {
	weak := &Dependency{FromAttrs: []int16{1}, ToAttr: 2, Degree: 0.3}
	strong := &Dependency{FromAttrs: []int16{2}, ToAttr: 1, Degree: 0.9}
	deps := &Dependencies{Deps: []*Dependency{weak, strong}}
	require.Same(t, strong, findStrongestDependency(deps, NewAttrSet(1, 2)))
}

func TestDependenciesCodec(t *testing.T) {
	deps := &Dependencies{Deps: []*Dependency{
		{FromAttrs: []int16{1, 2}, ToAttr: 3, Degree: 0.875},
	}}
	blob, err := EncodeDependencies(deps)
	require.NoError(t, err)
	decoded, err := DecodeDependencies(blob)
	require.NoError(t, err)
	require.Equal(t, deps, decoded)

	decoded, err = DecodeDependencies(nil)
	require.NoError(t, err)
	require.Nil(t, decoded)

	_, err = DecodeDependencies([]byte("{broken"))
	require.ErrorContains(t, err, "invalid dependencies payload")
}
