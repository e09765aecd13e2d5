package operators

import (
	"sort"

	"github.com/coursedb/txnstore/storage"
)

// OrderBy materializes its child's output and sorts it by a list of
// expressions, each independently ascending or descending -- a blocking
// operator, same as the teacher's OrderBy, generalized to this package's
// Expr/Operator and backed by sort.SliceStable instead of a standalone
// sort.Interface type.
type OrderBy struct {
	orderBy   []Expr
	ascending []bool
	child     Operator
}

func NewOrderBy(orderBy []Expr, child Operator, ascending []bool) *OrderBy {
	return &OrderBy{orderBy: orderBy, ascending: ascending, child: child}
}

func (o *OrderBy) Descriptor() *storage.Schema {
	return o.child.Descriptor()
}

func (o *OrderBy) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := o.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	var all []*storage.Tuple
	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		all = append(all, t)
	}

	sort.SliceStable(all, func(i, j int) bool {
		for k, expr := range o.orderBy {
			va, errA := expr.EvalExpr(all[i])
			vb, errB := expr.EvalExpr(all[j])
			if errA != nil || errB != nil {
				continue
			}
			if va.EvalPred(vb, storage.OpEq) {
				continue
			}
			if o.ascending[k] {
				return va.EvalPred(vb, storage.OpLt)
			}
			return !va.EvalPred(vb, storage.OpLt)
		}
		return false
	})

	i := 0
	return func() (*storage.Tuple, error) {
		if i >= len(all) {
			return nil, nil
		}
		t := all[i]
		i++
		return t, nil
	}, nil
}
