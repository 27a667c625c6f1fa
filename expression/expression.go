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
	"fmt"
	"strings"

	"github.com/pingcap/parser/model"

	"github.com/maplebase/maple/types"
)

// Expression is a node in the predicate model the optimizer hands to
// the selectivity code. The conjunction passed to the estimator must be
// in CNF: `exprs[0] and exprs[1] and ... and exprs[len-1]`.
type Expression interface {
	fmt.Stringer
}

// Column refers to one column of a relation.
type Column struct {
	// RelID is the relation the column belongs to.
	RelID int64
	// AttrNum is the stable positional identifier of the column within
	// its relation.
	AttrNum int16
	Name    string
}

// String implements fmt.Stringer.
func (col *Column) String() string {
	if col.Name != "" {
		return col.Name
	}
	return fmt.Sprintf("col#%d.%d", col.RelID, col.AttrNum)
}

// Constant is a pseudo-constant operand: its value does not change
// during the evaluation of one query.
type Constant struct {
	Value types.Datum
}

// String implements fmt.Stringer.
func (c *Constant) String() string {
	return c.Value.String()
}

// NewIntConstant is a shortcut building an int64 constant.
func NewIntConstant(i int64) *Constant {
	return &Constant{Value: types.NewIntDatum(i)}
}

// ScalarFunction is a function call with two or more arguments, such as
// a comparison or a logical connective.
type ScalarFunction struct {
	FuncName model.CIStr
	args     []Expression
}

// NewFunction builds a ScalarFunction from a function name and args.
func NewFunction(funcName string, args ...Expression) *ScalarFunction {
	return &ScalarFunction{FuncName: model.NewCIStr(funcName), args: args}
}

// GetArgs gets the arguments of the function.
func (sf *ScalarFunction) GetArgs() []Expression {
	return sf.args
}

// String implements fmt.Stringer.
func (sf *ScalarFunction) String() string {
	strs := make([]string, 0, len(sf.args))
	for _, arg := range sf.args {
		strs = append(strs, arg.String())
	}
	return fmt.Sprintf("%s(%s)", sf.FuncName.L, strings.Join(strs, ", "))
}

// ColumnAndConstant checks if the function has exactly one Column and
// one Constant argument, in either order, and returns them. The third
// return value reports whether the column was the left operand.
func ColumnAndConstant(sf *ScalarFunction) (*Column, *Constant, bool, bool) {
	args := sf.GetArgs()
	if len(args) != 2 {
		return nil, nil, false, false
	}
	if col, ok := args[0].(*Column); ok {
		if con, ok := args[1].(*Constant); ok {
			return col, con, true, true
		}
	}
	if col, ok := args[1].(*Column); ok {
		if con, ok := args[0].(*Constant); ok {
			return col, con, false, true
		}
	}
	return nil, nil, false, false
}

// ExtractColumns appends all the columns referenced by the expression
// to result, recursing into scalar functions.
func ExtractColumns(result []*Column, expr Expression) []*Column {
	switch x := expr.(type) {
	case *Column:
		result = append(result, x)
	case *ScalarFunction:
		for _, arg := range x.GetArgs() {
			result = ExtractColumns(result, arg)
		}
	}
	return result
}

// SingletonRelID reports whether the clauses reference exactly one
// relation, and which. An empty clause list, or clauses referencing no
// column at all, yield false.
func SingletonRelID(clauses []Expression) (int64, bool) {
	var cols []*Column
	for _, clause := range clauses {
		cols = ExtractColumns(cols, clause)
	}
	if len(cols) == 0 {
		return 0, false
	}
	relID := cols[0].RelID
	for _, col := range cols[1:] {
		if col.RelID != relID {
			return 0, false
		}
	}
	return relID, true
}
