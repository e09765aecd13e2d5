package operators

import "github.com/coursedb/txnstore/storage"

// SeqScan pulls every tuple out of a table, page by page, Shared-locking
// each page through the buffer pool as it goes -- the base access method
// every other operator in this package ultimately reads from.
type SeqScan struct {
	bp    *storage.BufferPool
	hf    *storage.HeapFile
	alias string
}

// NewSeqScan constructs a scan over hf, aliasing its fields' TableQualifier
// to alias (an unqualified alias leaves the file's own schema unchanged).
func NewSeqScan(bp *storage.BufferPool, hf *storage.HeapFile, alias string) *SeqScan {
	return &SeqScan{bp: bp, hf: hf, alias: alias}
}

func (s *SeqScan) Descriptor() *storage.Schema {
	desc := s.hf.Schema().Copy()
	if s.alias != "" {
		desc.SetTableAlias(s.alias)
	}
	return desc
}

// Iterator delegates to HeapFile's own Iterator, which owns page-walking and
// per-page locking; this operator's only job is to apply the scan's alias to
// each tuple's schema as it comes through.
func (s *SeqScan) Iterator(tid storage.TransactionID) (func() (*storage.Tuple, error), error) {
	desc := s.Descriptor()
	hfIter := s.hf.Iterator(tid, s.bp)
	return func() (*storage.Tuple, error) {
		t, err := hfIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, nil
		}
		t.Desc = *desc
		return t, nil
	}, nil
}
