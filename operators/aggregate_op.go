package operators

// Aggregate generalizes the teacher's lab1_query.go computeFieldSum
// one-off into a proper operator: an optional group-by field plus a list
// of AggStates evaluated per group, supplementing the aggregate support
// the distilled specification otherwise left as a single running total.
import "github.com/coursedb/txnstore/storage"

type aggSpec struct {
	alias string
	expr  Expr
	ctor  func() AggState
}

// NewCountAgg, NewSumAgg, etc. would ordinarily live alongside this, but
// callers instead pass AggBuilder values (below) to NewAggregate, which
// turns each into an aggSpec, to keep the operator's own constructor simple.
type Aggregate struct {
	child     Operator
	groupExpr Expr // nil for a single, ungrouped aggregate
	specs     []aggSpec
	desc      *storage.Schema
}

// AggBuilder names one aggregate to compute: an alias for its output
// column, the expression it aggregates over, and which AggState
// implementation to use.
type AggBuilder struct {
	Alias string
	Expr  Expr
	New   func() AggState
}

// NewAggregate constructs an aggregate over child, optionally grouped by
// groupExpr (nil means a single aggregate over the whole input).
func NewAggregate(child Operator, groupExpr Expr, builders []AggBuilder) *Aggregate {
	specs := make([]aggSpec, len(builders))
	fields := make([]storage.FieldType, 0, len(builders)+1)
	if groupExpr != nil {
		fields = append(fields, groupExpr.GetExprType())
	}
	for i, b := range builders {
		specs[i] = aggSpec{alias: b.Alias, expr: b.Expr, ctor: b.New}
		probe := b.New()
		_ = probe.Init(b.Alias, b.Expr)
		fields = append(fields, probe.GetTupleDesc().Fields...)
	}
	return &Aggregate{
		child:     child,
		groupExpr: groupExpr,
		specs:     specs,
		desc:      &storage.Schema{Fields: fields},
	}
}

func (a *Aggregate) Descriptor() *storage.Schema { return a.desc }

func (a *Aggregate) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := a.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	type group struct {
		keyVal storage.DBValue
		states []AggState
	}
	order := []any{}
	groups := map[any]*group{}

	newStates := func() []AggState {
		states := make([]AggState, len(a.specs))
		for i, s := range a.specs {
			states[i] = s.ctor()
			_ = states[i].Init(s.alias, s.expr)
		}
		return states
	}

	if a.groupExpr == nil {
		groups[0] = &group{states: newStates()}
		order = append(order, 0)
	}

	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}

		var key any
		var keyVal storage.DBValue
		if a.groupExpr != nil {
			keyVal, err = a.groupExpr.EvalExpr(t)
			if err != nil {
				return nil, err
			}
			key = keyVal
		} else {
			key = 0
		}

		g, ok := groups[key]
		if !ok {
			g = &group{keyVal: keyVal, states: newStates()}
			groups[key] = g
			order = append(order, key)
		}
		for _, st := range g.states {
			st.AddTuple(t)
		}
	}

	i := 0
	return func() (*storage.Tuple, error) {
		if i >= len(order) {
			return nil, nil
		}
		g := groups[order[i]]
		i++

		var fields []storage.DBValue
		if a.groupExpr != nil {
			fields = append(fields, g.keyVal)
		}
		for _, st := range g.states {
			fields = append(fields, st.Finalize().Fields...)
		}
		return &storage.Tuple{Desc: *a.desc, Fields: fields}, nil
	}, nil
}
