package storage

// A PageStore is the raw, page-granularity backing store a HeapFile reads
// and writes through. Splitting this out of HeapFile (where the teacher's
// os.File-based readPage/flushPage lived inline) lets production code route
// page I/O through direct, page-aligned I/O while tests use an in-memory
// backing store with no filesystem dependency at all -- the same seam
// ryogrid-bltree-go-for-embedding's storage layer draws between its
// directio-backed pager and its memfile-backed test harness.
type PageStore interface {
	ReadAt(pageNo int, buf []byte) error
	WriteAt(pageNo int, buf []byte) error
	NumPages() int
	Sync() error
	Close() error
}
