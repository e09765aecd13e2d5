package operators

// EqualityJoin implements an equijoin as a sort-merge join: both inputs
// are fully materialized, sorted by their join field, then merged in a
// single pass -- generalizing the teacher's join_op.go (sortTupleList /
// mergeAndJoinTuples / findEqualRange) to run over this package's Expr and
// Operator types instead of the teacher's in-package ones. A future
// optional exercise, same as the teacher's, would cap memory with an
// external sort instead of materializing both sides.

import (
	"sort"

	"github.com/coursedb/txnstore/storage"
)

type EqualityJoin struct {
	left, right           Operator
	leftField, rightField Expr
}

// NewEqualityJoin constructs a join of left and right matching leftField
// against rightField. Both fields must be of the same DBType.
func NewEqualityJoin(left Operator, leftField Expr, right Operator, rightField Expr) (*EqualityJoin, error) {
	if leftField.GetExprType().Ftype != rightField.GetExprType().Ftype {
		return nil, storage.NewDbError(storage.ErrTypeMismatch, "join fields have mismatched types")
	}
	return &EqualityJoin{left: left, right: right, leftField: leftField, rightField: rightField}, nil
}

func (j *EqualityJoin) Descriptor() *storage.Schema {
	return j.left.Descriptor().Merge(j.right.Descriptor())
}

func (j *EqualityJoin) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	leftIter, err := j.left.Iterator(tid)
	if err != nil {
		return nil, err
	}
	leftTuples, err := fetchAll(leftIter)
	if err != nil {
		return nil, err
	}

	rightIter, err := j.right.Iterator(tid)
	if err != nil {
		return nil, err
	}
	rightTuples, err := fetchAll(rightIter)
	if err != nil {
		return nil, err
	}

	sortByExpr(leftTuples, j.leftField)
	sortByExpr(rightTuples, j.rightField)

	joined := mergeAndJoin(leftTuples, rightTuples, j.leftField, j.rightField)
	i := 0
	return func() (*storage.Tuple, error) {
		if i >= len(joined) {
			return nil, nil
		}
		t := joined[i]
		i++
		return t, nil
	}, nil
}

func fetchAll(iter func() (*storage.Tuple, error)) ([]*storage.Tuple, error) {
	var out []*storage.Tuple
	for {
		t, err := iter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return out, nil
		}
		out = append(out, t)
	}
}

func sortByExpr(tuples []*storage.Tuple, field Expr) {
	sort.SliceStable(tuples, func(i, j int) bool {
		return compareExpr(tuples[i], tuples[j], field, field) < 0
	})
}

// compareExpr returns -1, 0, or 1 comparing field evaluated over a against
// field evaluated over b (leftField/rightField may name the same field on
// differently-schemaed tuples, hence the two expressions).
func compareExpr(a, b *storage.Tuple, leftField, rightField Expr) int {
	lv, errL := leftField.EvalExpr(a)
	rv, errR := rightField.EvalExpr(b)
	if errL != nil || errR != nil {
		return 0
	}
	switch l := lv.(type) {
	case storage.IntField:
		r := rv.(storage.IntField)
		switch {
		case l.Value < r.Value:
			return -1
		case l.Value > r.Value:
			return 1
		default:
			return 0
		}
	case storage.StringField:
		r := rv.(storage.StringField)
		switch {
		case l.Value < r.Value:
			return -1
		case l.Value > r.Value:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func mergeAndJoin(left, right []*storage.Tuple, leftField, rightField Expr) []*storage.Tuple {
	var out []*storage.Tuple
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch c := compareExpr(left[i], right[j], leftField, rightField); {
		case c == 0:
			iEnd := equalRangeEnd(left, i, leftField)
			jEnd := equalRangeEnd(right, j, rightField)
			for li := i; li < iEnd; li++ {
				for rj := j; rj < jEnd; rj++ {
					out = append(out, storage.Join(left[li], right[rj]))
				}
			}
			i, j = iEnd, jEnd
		case c < 0:
			i++
		default:
			j++
		}
	}
	return out
}

func equalRangeEnd(tuples []*storage.Tuple, start int, field Expr) int {
	end := start + 1
	for end < len(tuples) && compareExpr(tuples[end], tuples[start], field, field) == 0 {
		end++
	}
	return end
}
