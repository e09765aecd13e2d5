// Package operators implements the pull-based query operator tree: each
// Operator exposes a Descriptor (its output Schema) and an Iterator
// (a pull-one-tuple-at-a-time closure over a transaction), mirroring the
// teacher's own Operator contract and Iterator(tid) idiom throughout
// filter_op.go / join_op.go / agg_state.go, generalized to run against
// storage.BufferPool instead of the teacher's in-package DBFile calls.
package operators

import "github.com/coursedb/txnstore/storage"

// Operator is any node in a query plan: a source of tuples conforming to
// a fixed Schema.
type Operator interface {
	Descriptor() *storage.Schema
	Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error)
}
