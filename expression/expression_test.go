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

package expression

import (
	"testing"

	"github.com/pingcap/parser/ast"
	"github.com/stretchr/testify/require"
)

func TestColumnAndConstant(t *testing.T) {
	col := &Column{RelID: 1, AttrNum: 1, Name: "a"}
	con := NewIntConstant(5)

	sf := NewFunction(ast.EQ, col, con)
	gotCol, gotCon, varOnLeft, ok := ColumnAndConstant(sf)
	require.True(t, ok)
	require.Same(t, col, gotCol)
	require.Same(t, con, gotCon)
	require.True(t, varOnLeft)

	sf = NewFunction(ast.LT, con, col)
	gotCol, gotCon, varOnLeft, ok = ColumnAndConstant(sf)
	require.True(t, ok)
	require.Same(t, col, gotCol)
	require.Same(t, con, gotCon)
	require.False(t, varOnLeft)

	_, _, _, ok = ColumnAndConstant(NewFunction(ast.EQ, col, col))
	require.False(t, ok)
	_, _, _, ok = ColumnAndConstant(NewFunction(ast.EQ, con, con))
	require.False(t, ok)
	_, _, _, ok = ColumnAndConstant(NewFunction(ast.If, col, con, con))
	require.False(t, ok)
}

func TestExtractColumns(t *testing.T) {
	a := &Column{RelID: 1, AttrNum: 1, Name: "a"}
	b := &Column{RelID: 1, AttrNum: 2, Name: "b"}
	clause := NewFunction(ast.LogicAnd,
		NewFunction(ast.EQ, a, NewIntConstant(1)),
		NewFunction(ast.LT, b, NewIntConstant(2)))
	cols := ExtractColumns(nil, clause)
	require.Equal(t, []*Column{a, b}, cols)
	require.Empty(t, ExtractColumns(nil, NewIntConstant(1)))
}

func TestSingletonRelID(t *testing.T) {
	a := &Column{RelID: 1, AttrNum: 1}
	b := &Column{RelID: 1, AttrNum: 2}
	other := &Column{RelID: 2, AttrNum: 1}

	relID, ok := SingletonRelID([]Expression{
		NewFunction(ast.EQ, a, NewIntConstant(1)),
		NewFunction(ast.EQ, b, NewIntConstant(2)),
	})
	require.True(t, ok)
	require.Equal(t, int64(1), relID)

	_, ok = SingletonRelID([]Expression{
		NewFunction(ast.EQ, a, NewIntConstant(1)),
		NewFunction(ast.EQ, other, NewIntConstant(2)),
	})
	require.False(t, ok)

	// clauses without any column reference resolve to no relation
	_, ok = SingletonRelID([]Expression{NewIntConstant(1)})
	require.False(t, ok)
	_, ok = SingletonRelID(nil)
	require.False(t, ok)
}

func TestExpressionString(t *testing.T) {
	a := &Column{RelID: 1, AttrNum: 1, Name: "a"}
	require.Equal(t, "eq(a, 5)", NewFunction(ast.EQ, a, NewIntConstant(5)).String())
	require.Equal(t, "col#1.2", (&Column{RelID: 1, AttrNum: 2}).String())
}
