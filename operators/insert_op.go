package operators

import "github.com/coursedb/txnstore/storage"

// InsertOp drains its child and inserts every tuple into a table through
// the buffer pool, same shape as the teacher's InsertOp, returning a
// single "count" tuple -- generalized to call storage.BufferPool.InsertTuple
// instead of the teacher's direct DBFile.insertTuple, since all page
// access in this system is required to flow through the pool.
type InsertOp struct {
	bp    *storage.BufferPool
	table *storage.HeapFile
	child Operator
	desc  *storage.Schema
}

func NewInsertOp(bp *storage.BufferPool, table *storage.HeapFile, child Operator) *InsertOp {
	return &InsertOp{
		bp:    bp,
		table: table,
		child: child,
		desc:  &storage.Schema{Fields: []storage.FieldType{{Fname: "count", Ftype: storage.IntType}}},
	}
}

func (iop *InsertOp) Descriptor() *storage.Schema { return iop.desc }

func (iop *InsertOp) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	childIter, err := iop.child.Iterator(tid)
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
			if _, err := iop.bp.InsertTuple(tid, iop.table, t); err != nil {
				return nil, err
			}
			count++
		}
		return &storage.Tuple{Desc: *iop.desc, Fields: []storage.DBValue{storage.IntField{Value: count}}}, nil
	}, nil
}
