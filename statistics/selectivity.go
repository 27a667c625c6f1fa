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
	"github.com/pingcap/parser/ast"
	"go.uber.org/zap"

	"github.com/maplebase/maple/config"
	"github.com/maplebase/maple/expression"
	"github.com/maplebase/maple/util/logutil"
)

const (
	// selectionFactor is the fallback for clause shapes the estimator
	// does not recognize.
	selectionFactor = 0.8

	pseudoRowCount  = 10000
	pseudoEqualRate = 1000
	pseudoLessRate  = 3

	// defaultIneqSel is the punted estimate for an inequality whose
	// bound cannot be interpolated against the column's range.
	defaultIneqSel = 1.0 / pseudoLessRate
	// defaultRangeIneqSel replaces a paired-range result when either
	// bound was punted or the arithmetic collapsed.
	defaultRangeIneqSel = 0.005
	// selEpsilon absorbs round-off in paired-range arithmetic.
	selEpsilon = 1.0e-10
)

// ExtStatsReader loads the extended statistics objects of a relation.
// The estimator treats a load failure as "no extended statistics" after
// logging it; a relation without objects returns an empty slice.
type ExtStatsReader interface {
	ExtendedStats(relID int64) ([]*StatsObject, error)
}

// Estimator computes the selectivity of predicate conjunctions. It is
// stateless apart from the reader and safe for concurrent use across
// planning calls.
type Estimator struct {
	reader ExtStatsReader
}

// NewEstimator builds an estimator on top of the given reader. A nil
// reader disables extended statistics entirely.
func NewEstimator(reader ExtStatsReader) *Estimator {
	return &Estimator{reader: reader}
}

// ClauseListSelectivity estimates the fraction of rows of coll's
// relation satisfying the conjunction of the given clauses.
//
// A single clause can carry no cross-column correlation, so it skips
// the extended statistics machinery entirely, catalog fetch included.
// Multi-clause conjunctions on exactly one relation first apply
// functional-dependency reduction over the clauses a chosen statistics
// object covers, then fall back to independent per-clause estimates,
// with paired range clauses on one column combined instead of
// multiplied.
func (e *Estimator) ClauseListSelectivity(coll *Collection, clauses []expression.Expression) float64 {
	if len(clauses) == 1 {
		return clampSelectivity(e.selectivitySimple(coll, clauses, nil))
	}

	s1 := 1.0
	estimated := make([]bool, len(clauses))
	if e.reader != nil && config.GetGlobalConfig().Stats.EnableExtended {
		if relID, ok := expression.SingletonRelID(clauses); ok {
			sel, err := e.dependenciesSelectivity(relID, coll, clauses, estimated)
			if err != nil {
				logutil.BgLogger().Warn("failed to load extended statistics, falling back to independent clause estimates",
					zap.Int64("relID", relID), zap.Error(err))
			} else {
				s1 = sel
			}
		}
	}
	return clampSelectivity(s1 * e.selectivitySimple(coll, clauses, estimated))
}

// clampSelectivity keeps the final result inside [0, 1]; the range
// pairing arithmetic can drift slightly past either end.
func clampSelectivity(sel float64) float64 {
	if sel < 0 {
		return 0
	}
	if sel > 1 {
		return 1
	}
	return sel
}

// dependenciesSelectivity estimates the covered part of the conjunction
// through functional dependencies, marking the clauses it consumed in
// estimated. It returns 1.0 untouched whenever no object applies.
func (e *Estimator) dependenciesSelectivity(relID int64, coll *Collection, clauses []expression.Expression, estimated []bool) (float64, error) {
	// cheap gate before any catalog access: the clauses must reference
	// at least two distinct attributes in compatible comparisons
	var refSet AttrSet
	for _, clause := range clauses {
		if col, op, _, ok := decomposeComparison(clause); ok && isExtCompatibleOp(op) {
			refSet.Add(col.AttrNum)
		}
	}
	if refSet.Len() < 2 {
		return 1.0, nil
	}

	objects, err := e.reader.ExtendedStats(relID)
	if err != nil {
		return 1.0, err
	}
	obj := ChooseExtStatistics(objects, StatsDependencies, refSet)
	if obj == nil || len(obj.Dependencies.Deps) == 0 {
		return 1.0, nil
	}

	// the reduction below only applies to equality clauses on the
	// chosen object's columns
	objSet := obj.Def.ColumnSet()
	var covered AttrSet
	for _, clause := range clauses {
		if col, op, _, ok := decomposeComparison(clause); ok && isDependencyCompatibleOp(op) && objSet.Contains(col.AttrNum) {
			covered.Add(col.AttrNum)
		}
	}

	s1 := 1.0
	for {
		dep := findStrongestDependency(obj.Dependencies, covered)
		if dep == nil {
			return s1, nil
		}
		// selectivity of the clause(s) on the implied attribute; the
		// determining attributes stay for the remaining dependencies
		// and the independent pass
		s2 := 1.0
		for i, clause := range clauses {
			col, op, _, ok := decomposeComparison(clause)
			if !ok || !isDependencyCompatibleOp(op) || col.AttrNum != dep.ToAttr || estimated[i] {
				continue
			}
			sel, _ := e.clauseSelectivity(coll, clause)
			s2 *= sel
			estimated[i] = true
		}
		covered.Remove(dep.ToAttr)
		s1 *= dep.Degree + (1-dep.Degree)*s2
	}
}

// rangeQueryClause accumulates the paired inequality bounds on one
// column: lo from `col > const` style clauses, hi from `col < const`.
type rangeQueryClause struct {
	col       *expression.Column
	haveLo    bool
	haveHi    bool
	lo        float64
	hi        float64
	loDefault bool
	hiDefault bool
}

// selectivitySimple multiplies per-clause estimates under the
// independence assumption, except that an upper and a lower bound on
// the same column describe overlapping regions of one ordered domain
// and combine as hi + lo - 1 (plus the null fraction neither bound
// counts) instead.
func (e *Estimator) selectivitySimple(coll *Collection, clauses []expression.Expression, estimated []bool) float64 {
	s1 := 1.0
	var rqlist []*rangeQueryClause
	for i, clause := range clauses {
		if estimated != nil && estimated[i] {
			continue
		}
		s2, isDefault := e.clauseSelectivity(coll, clause)
		if col, op, _, ok := decomposeComparison(clause); ok {
			switch op {
			case ast.LT, ast.LE:
				rqlist = addRangeClause(rqlist, col, false, s2, isDefault)
				continue
			case ast.GT, ast.GE:
				rqlist = addRangeClause(rqlist, col, true, s2, isDefault)
				continue
			}
		}
		s1 *= s2
	}

	for _, rq := range rqlist {
		if rq.haveLo && rq.haveHi {
			s2 := rq.hi + rq.lo - 1.0
			s2 += nullFrac(coll, rq.col.AttrNum)
			if rq.loDefault || rq.hiDefault {
				// a punted bound makes hi + lo - 1 meaningless
				s2 = defaultRangeIneqSel
			} else if s2 <= 0 {
				if s2 < -0.01 {
					// the two bounds look contradictory; assume a
					// narrow range rather than an empty one
					s2 = defaultRangeIneqSel
				} else {
					s2 = selEpsilon
				}
			}
			s1 *= s2
			continue
		}
		if rq.haveLo {
			s1 *= rq.lo
		} else {
			s1 *= rq.hi
		}
	}
	return s1
}

// addRangeClause folds one inequality bound into the accumulator list.
// A duplicate bound on the same side keeps the more restrictive
// (smaller) selectivity, except that a real estimate always beats a
// punted default.
func addRangeClause(rqlist []*rangeQueryClause, col *expression.Column, isLo bool, sel float64, isDefault bool) []*rangeQueryClause {
	var rq *rangeQueryClause
	for _, cand := range rqlist {
		if cand.col.RelID == col.RelID && cand.col.AttrNum == col.AttrNum {
			rq = cand
			break
		}
	}
	if rq == nil {
		rq = &rangeQueryClause{col: col}
		rqlist = append(rqlist, rq)
	}
	if isLo {
		switch {
		case !rq.haveLo:
			rq.haveLo, rq.lo, rq.loDefault = true, sel, isDefault
		case rq.loDefault && !isDefault:
			rq.lo, rq.loDefault = sel, false
		case !rq.loDefault && isDefault:
		case sel < rq.lo:
			rq.lo = sel
		}
		return rqlist
	}
	switch {
	case !rq.haveHi:
		rq.haveHi, rq.hi, rq.hiDefault = true, sel, isDefault
	case rq.hiDefault && !isDefault:
		rq.hi, rq.hiDefault = sel, false
	case !rq.hiDefault && isDefault:
	case sel < rq.hi:
		rq.hi = sel
	}
	return rqlist
}

// clauseSelectivity estimates a single clause. The second result
// reports whether the estimate is a punted default, which the range
// pairing above must not trust as a real bound.
func (e *Estimator) clauseSelectivity(coll *Collection, clause expression.Expression) (float64, bool) {
	switch x := clause.(type) {
	case *expression.Constant:
		// a constant predicate is degenerate but legal
		if f, ok := x.Value.ToFloat64(); ok && f == 0 {
			return 0, false
		}
		if x.Value.IsNull() {
			return 0, false
		}
		return 1, false
	case *expression.ScalarFunction:
		switch x.FuncName.L {
		case ast.LogicAnd:
			s := 1.0
			for _, arg := range x.GetArgs() {
				argSel, _ := e.clauseSelectivity(coll, arg)
				s *= argSel
			}
			return s, false
		case ast.LogicOr:
			s := 0.0
			for _, arg := range x.GetArgs() {
				argSel, _ := e.clauseSelectivity(coll, arg)
				s = s + argSel - s*argSel
			}
			return s, false
		case ast.UnaryNot:
			args := x.GetArgs()
			if len(args) == 1 {
				argSel, _ := e.clauseSelectivity(coll, args[0])
				return 1 - argSel, false
			}
		}
		if col, op, con, ok := decomposeComparison(clause); ok {
			switch op {
			case ast.EQ, ast.NullEQ:
				return e.eqSelectivity(coll, col), false
			case ast.LT, ast.LE, ast.GT, ast.GE:
				return e.ineqSelectivity(coll, col, con, op)
			}
		}
	}
	return selectionFactor, false
}

// eqSelectivity estimates `col = const` as an even share of the
// non-null values across the column's distinct values.
func (e *Estimator) eqSelectivity(coll *Collection, col *expression.Column) float64 {
	cs := coll.GetColumn(col.AttrNum)
	if cs == nil || cs.NDV <= 0 {
		return 1.0 / pseudoEqualRate
	}
	sel := (1 - cs.NullFrac) / cs.NDV
	if sel > 1 {
		sel = 1
	}
	return sel
}

// ineqSelectivity estimates `col OP const` by linear interpolation of
// the constant inside the column's [min, max] range when both are
// numeric, scaled by the non-null fraction. Anything it cannot
// interpolate gets the punted default.
func (e *Estimator) ineqSelectivity(coll *Collection, col *expression.Column, con *expression.Constant, op string) (float64, bool) {
	cs := coll.GetColumn(col.AttrNum)
	if cs == nil {
		return defaultIneqSel, true
	}
	v, ok := con.Value.ToFloat64()
	if !ok {
		return defaultIneqSel, true
	}
	lo, okLo := cs.Min.ToFloat64()
	hi, okHi := cs.Max.ToFloat64()
	if !okLo || !okHi || hi <= lo {
		return defaultIneqSel, true
	}

	frac := (v - lo) / (hi - lo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if op == ast.GT || op == ast.GE {
		frac = 1 - frac
	}
	return frac * (1 - cs.NullFrac), false
}

// decomposeComparison recognizes a binary comparison between one column
// and one constant in either operand order, returning the operator as
// if the column were the left operand.
func decomposeComparison(clause expression.Expression) (*expression.Column, string, *expression.Constant, bool) {
	sf, ok := clause.(*expression.ScalarFunction)
	if !ok {
		return nil, "", nil, false
	}
	op := sf.FuncName.L
	switch op {
	case ast.EQ, ast.NullEQ, ast.LT, ast.LE, ast.GT, ast.GE:
	default:
		return nil, "", nil, false
	}
	col, con, varOnLeft, ok := expression.ColumnAndConstant(sf)
	if !ok {
		return nil, "", nil, false
	}
	if !varOnLeft {
		switch op {
		case ast.LT:
			op = ast.GT
		case ast.GT:
			op = ast.LT
		case ast.LE:
			op = ast.GE
		case ast.GE:
			op = ast.LE
		}
	}
	return col, op, con, true
}

// isExtCompatibleOp admits the operators extended statistics can help
// with at all: equality plus the ordered comparisons.
func isExtCompatibleOp(op string) bool {
	switch op {
	case ast.EQ, ast.NullEQ, ast.LT, ast.LE, ast.GT, ast.GE:
		return true
	}
	return false
}

// isDependencyCompatibleOp admits only the operators a functional
// dependency is valid for. A dependency says equal determinants imply
// equal dependents, which tells us nothing about range predicates, so
// this set is deliberately narrower than isExtCompatibleOp.
func isDependencyCompatibleOp(op string) bool {
	return op == ast.EQ || op == ast.NullEQ
}

// nullFrac returns the column's null fraction, zero when unknown.
func nullFrac(coll *Collection, attnum int16) float64 {
	if cs := coll.GetColumn(attnum); cs != nil {
		return cs.NullFrac
	}
	return 0
}
