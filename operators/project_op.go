package operators

import "github.com/coursedb/txnstore/storage"

// Project evaluates a list of expressions over its child's tuples and
// renames the results, optionally deduplicating, the same shape as the
// teacher's Project -- generalized to this package's Expr and to
// Tuple.Key() in place of the teacher's tupleKey method.
type Project struct {
	selectFields []Expr
	outputNames  []string
	child        Operator
	distinct     bool
}

func NewProjectOp(selectFields []Expr, outputNames []string, distinct bool, child Operator) (*Project, error) {
	if len(selectFields) != len(outputNames) {
		return nil, storage.NewDbError(storage.ErrUnknown, "selectFields and outputNames must be the same length")
	}
	return &Project{selectFields: selectFields, outputNames: outputNames, distinct: distinct, child: child}, nil
}

func (p *Project) Descriptor() *storage.Schema {
	fields := make([]storage.FieldType, len(p.selectFields))
	for i, e := range p.selectFields {
		ft := e.GetExprType()
		ft.Fname = p.outputNames[i]
		fields[i] = ft
	}
	return &storage.Schema{Fields: fields}
}

func (p *Project) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := p.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	desc := *p.Descriptor()
	var seen map[any]struct{}
	if p.distinct {
		seen = make(map[any]struct{})
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

			out := &storage.Tuple{Desc: desc, Fields: make([]storage.DBValue, len(p.selectFields))}
			for i, e := range p.selectFields {
				v, err := e.EvalExpr(t)
				if err != nil {
					return nil, err
				}
				out.Fields[i] = v
			}

			if p.distinct {
				key := out.Key()
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
			}
			return out, nil
		}
	}, nil
}
