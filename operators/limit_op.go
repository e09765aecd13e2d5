package operators

import "github.com/coursedb/txnstore/storage"

// LimitOp passes through at most a fixed number of its child's tuples,
// the limit itself given as an Expr (evaluated once, against a nil tuple,
// at iterator construction) the same way the teacher's LimitOp takes it.
type LimitOp struct {
	child Operator
	limit Expr
}

func NewLimitOp(limit Expr, child Operator) *LimitOp {
	return &LimitOp{child: child, limit: limit}
}

func (l *LimitOp) Descriptor() *storage.Schema {
	return l.child.Descriptor()
}

func (l *LimitOp) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := l.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	v, err := l.limit.EvalExpr(nil)
	if err != nil {
		return nil, err
	}
	max := int(v.(storage.IntField).Value)
	count := 0

	return func() (*storage.Tuple, error) {
		if count >= max {
			return nil, nil
		}
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, nil
		}
		count++
		return t, nil
	}, nil
}
