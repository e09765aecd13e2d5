package operators

import "github.com/coursedb/txnstore/storage"

// DeleteOp drains its child and deletes every tuple it names (by RecordID)
// through the buffer pool, returning a single "count" tuple. Same shape as
// the teacher's DeleteOp, generalized to storage.BufferPool.DeleteTuple.
type DeleteOp struct {
	bp    *storage.BufferPool
	child Operator
	desc  *storage.Schema
}

func NewDeleteOp(bp *storage.BufferPool, child Operator) *DeleteOp {
	return &DeleteOp{
		bp:    bp,
		child: child,
		desc:  &storage.Schema{Fields: []storage.FieldType{{Fname: "count", Ftype: storage.IntType}}},
	}
}

func (dop *DeleteOp) Descriptor() *storage.Schema { return dop.desc }

func (dop *DeleteOp) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := dop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	done := false
	return func() (*storage.Tuple, error) {
		if done {
			return nil, nil
		}
		done = true

		var count int32
		for {
			t, err := childIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := dop.bp.DeleteTuple(tid, t); err != nil {
				return nil, err
			}
			count++
		}
		return &storage.Tuple{Desc: *dop.desc, Fields: []storage.DBValue{storage.IntField{Value: count}}}, nil
	}, nil
}
