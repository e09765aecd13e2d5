package storage

import (
	"github.com/dsnet/golib/memfile"
)

// MemPageStore is a PageStore backed entirely by process memory, via
// dsnet/golib/memfile -- the same no-filesystem harness
// ryogrid-bltree-go-for-embedding uses to test its pager without touching
// disk. Tests that want a HeapFile without a tempdir use this instead of
// FilePageStore.
type MemPageStore struct {
	buf []byte
	mf  *memfile.File
}

// NewMemPageStore returns an empty, zero-length backing store.
func NewMemPageStore() *MemPageStore {
	s := &MemPageStore{}
	s.mf = memfile.New(&s.buf)
	return s
}

func (s *MemPageStore) ReadAt(pageNo int, buf []byte) error {
	n, err := s.mf.ReadAt(buf, int64(pageNo)*int64(PageSize))
	if err != nil && n == 0 {
		return newIoErr("read", err)
	}
	return nil
}

func (s *MemPageStore) WriteAt(pageNo int, buf []byte) error {
	if _, err := s.mf.WriteAt(buf, int64(pageNo)*int64(PageSize)); err != nil {
		return newIoErr("write", err)
	}
	return nil
}

func (s *MemPageStore) NumPages() int {
	return len(s.buf) / PageSize
}

// Sync is a no-op: there is nothing durable to flush to.
func (s *MemPageStore) Sync() error { return nil }

func (s *MemPageStore) Close() error {
	return s.mf.Close()
}
