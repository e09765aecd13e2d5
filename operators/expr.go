package operators

import "github.com/coursedb/txnstore/storage"

// Expr evaluates to a DBValue given an input tuple -- a field reference or
// a constant, the same two-case expression language the teacher's
// filter_op.go and join_op.go are written against.
type Expr interface {
	EvalExpr(t *storage.Tuple) (storage.DBValue, error)
	GetExprType() storage.FieldType
}

// FieldExpr evaluates to the value of a named field of the input tuple.
type FieldExpr struct {
	Field storage.FieldType
}

func (e *FieldExpr) GetExprType() storage.FieldType { return e.Field }

func (e *FieldExpr) EvalExpr(t *storage.Tuple) (storage.DBValue, error) {
	idx, err := t.Desc.FindField(e.Field)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

// ConstExpr evaluates to a fixed value regardless of the input tuple.
type ConstExpr struct {
	Value storage.DBValue
	Ftype storage.FieldType
}

func (e *ConstExpr) GetExprType() storage.FieldType { return e.Ftype }

func (e *ConstExpr) EvalExpr(t *storage.Tuple) (storage.DBValue, error) {
	return e.Value, nil
}
