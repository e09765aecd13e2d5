package storage

import (
	"hash/fnv"
	"path/filepath"
	"sync/atomic"
)

// PageID identifies a single on-disk page: the table it belongs to and its
// page number within that table's heap file. Two PageIDs are equal iff both
// components match, which makes the bare struct usable directly as a map
// key -- no auxiliary hash-key type is needed the way the teacher's
// heapHash was, since TableID is already a plain int.
type PageID struct {
	TableID int
	PageNo  int
}

// RecordID identifies a single tuple slot within a page.
type RecordID struct {
	Page PageID
	Slot int
}

// TransactionID is an opaque, orderable, hashable token identifying one
// transaction. It is implemented as a monotonically increasing counter,
// exactly as the teacher's NewTID does, which gives it both total ordering
// and O(1) use as a map key for free.
type TransactionID int64

var tidCounter int64

// NewTID allocates a fresh, never-repeating TransactionID.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&tidCounter, 1))
}

// TableIDForPath derives a table's identity from the hash of its absolute
// path, per the data model: "A heap file's identity is the hash of its
// absolute path." FNV-1a is used for the same reason the teacher reaches
// for simple, allocation-free hashing elsewhere (pageKey, tupleKey): it's
// the standard library's cheapest non-cryptographic hash.
func TableIDForPath(path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(abs))
	// Mask to keep the id a small, friendly non-negative int regardless of
	// platform int width, per PageID's "non-negative" requirement.
	return int(h.Sum32() & 0x7fffffff), nil
}
