package operators

// AggState accumulates one aggregate's running value over a stream of
// tuples, the same five-method contract (Init/Copy/AddTuple/Finalize/
// GetTupleDesc) the teacher's agg_state.go defines. Aggregate gives every
// group its own independent accumulator by calling the AggBuilder's New
// constructor and then Init; it does not use Copy.
import "github.com/coursedb/txnstore/storage"

type AggState interface {
	Init(alias string, expr Expr) error
	Copy() AggState
	AddTuple(t *storage.Tuple)
	Finalize() *storage.Tuple
	GetTupleDesc() *storage.Schema
}

type CountAggState struct {
	alias string
	expr  Expr
	count int64
}

func (a *CountAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.count = alias, expr, 0
	return nil
}
func (a *CountAggState) Copy() AggState           { cp := *a; return &cp }
func (a *CountAggState) AddTuple(t *storage.Tuple) { a.count++ }
func (a *CountAggState) GetTupleDesc() *storage.Schema {
	return &storage.Schema{Fields: []storage.FieldType{{Fname: a.alias, Ftype: storage.IntType}}}
}
func (a *CountAggState) Finalize() *storage.Tuple {
	return &storage.Tuple{Desc: *a.GetTupleDesc(), Fields: []storage.DBValue{storage.IntField{Value: int32(a.count)}}}
}

type SumAggState struct {
	alias string
	expr  Expr
	sum   int64
}

func (a *SumAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.sum = alias, expr, 0
	return nil
}
func (a *SumAggState) Copy() AggState { cp := *a; return &cp }
func (a *SumAggState) AddTuple(t *storage.Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if iv, ok := v.(storage.IntField); ok {
		a.sum += int64(iv.Value)
	}
}
func (a *SumAggState) GetTupleDesc() *storage.Schema {
	return &storage.Schema{Fields: []storage.FieldType{{Fname: a.alias, Ftype: storage.IntType}}}
}
func (a *SumAggState) Finalize() *storage.Tuple {
	return &storage.Tuple{Desc: *a.GetTupleDesc(), Fields: []storage.DBValue{storage.IntField{Value: int32(a.sum)}}}
}

// AvgAggState keeps a running sum and count instead of a running average,
// so Finalize's division happens exactly once, at the end -- the teacher's
// own AvgAggState instead mutated a running float on every AddTuple, which
// both divides by the pre-increment count (an off-by-one against its own
// comment) and accumulates floating point error across many tuples.
type AvgAggState struct {
	alias string
	expr  Expr
	sum   int64
	count int64
}

func (a *AvgAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.sum, a.count = alias, expr, 0, 0
	return nil
}
func (a *AvgAggState) Copy() AggState { cp := *a; return &cp }
func (a *AvgAggState) AddTuple(t *storage.Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if iv, ok := v.(storage.IntField); ok {
		a.sum += int64(iv.Value)
		a.count++
	}
}
func (a *AvgAggState) GetTupleDesc() *storage.Schema {
	return &storage.Schema{Fields: []storage.FieldType{{Fname: a.alias, Ftype: storage.IntType}}}
}
func (a *AvgAggState) Finalize() *storage.Tuple {
	var avg int32
	if a.count > 0 {
		avg = int32(a.sum / a.count)
	}
	return &storage.Tuple{Desc: *a.GetTupleDesc(), Fields: []storage.DBValue{storage.IntField{Value: avg}}}
}

type MaxAggState struct {
	alias string
	expr  Expr
	max   storage.DBValue
}

func (a *MaxAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.max = alias, expr, nil
	return nil
}
func (a *MaxAggState) Copy() AggState { cp := *a; return &cp }
func (a *MaxAggState) AddTuple(t *storage.Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if a.max == nil || v.EvalPred(a.max, storage.OpGt) {
		a.max = v
	}
}
func (a *MaxAggState) GetTupleDesc() *storage.Schema {
	return &storage.Schema{Fields: []storage.FieldType{{Fname: a.alias, Ftype: a.expr.GetExprType().Ftype}}}
}
func (a *MaxAggState) Finalize() *storage.Tuple {
	return &storage.Tuple{Desc: *a.GetTupleDesc(), Fields: []storage.DBValue{a.max}}
}

type MinAggState struct {
	alias string
	expr  Expr
	min   storage.DBValue
}

func (a *MinAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.min = alias, expr, nil
	return nil
}
func (a *MinAggState) Copy() AggState { cp := *a; return &cp }
func (a *MinAggState) AddTuple(t *storage.Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if a.min == nil || v.EvalPred(a.min, storage.OpLt) {
		a.min = v
	}
}
func (a *MinAggState) GetTupleDesc() *storage.Schema {
	return &storage.Schema{Fields: []storage.FieldType{{Fname: a.alias, Ftype: a.expr.GetExprType().Ftype}}}
}
func (a *MinAggState) Finalize() *storage.Tuple {
	return &storage.Tuple{Desc: *a.GetTupleDesc(), Fields: []storage.DBValue{a.min}}
}
