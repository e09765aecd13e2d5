package operators

import "github.com/coursedb/txnstore/storage"

// Filter passes through only the tuples of its child for which left op
// right evaluates true, the same shape as the teacher's Filter.
type Filter struct {
	op    storage.BoolOp
	left  Expr
	right Expr
	child Operator
}

// NewFilter constructs a filter evaluating left op right over each tuple
// of child.
func NewFilter(left Expr, op storage.BoolOp, right Expr, child Operator) *Filter {
	return &Filter{op: op, left: left, right: right, child: child}
}

func (f *Filter) Descriptor() *storage.Schema {
	return f.child.Descriptor()
}

func (f *Filter) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := f.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	return func() (*storage.Tuple, error) {
		for {
			t, err := childIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, nil
			}

			leftVal, err := f.left.EvalExpr(t)
			if err != nil {
				return nil, err
			}
			rightVal, err := f.right.EvalExpr(t)
			if err != nil {
				return nil, err
			}

			if leftVal.EvalPred(rightVal, f.op) {
				return t, nil
			}
		}
	}, nil
}
