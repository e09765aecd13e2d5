package storage

// HeapFile is the on-disk representation of one table: a sequence of
// fixed-size HeapPages in a PageStore. It implements DBFile, the contract
// the buffer pool uses for all page-level I/O, generalizing the teacher's
// os.File-based HeapFile to read and write through the pluggable PageStore
// abstraction instead.

import (
	"sync"
)

type HeapFile struct {
	mu      sync.Mutex
	tableID int
	desc    *Schema
	store   PageStore
}

// NewHeapFile constructs a HeapFile for tableID, reading/writing pages
// through store.
func NewHeapFile(tableID int, desc *Schema, store PageStore) *HeapFile {
	return &HeapFile{tableID: tableID, desc: desc, store: store}
}

func (hf *HeapFile) TableID() int { return hf.tableID }

func (hf *HeapFile) Schema() *Schema { return hf.desc }

func (hf *HeapFile) NumPages() int {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.store.NumPages()
}

// ReadPage reads and parses page pageNo. Fails with PageDoesNotExist if
// pageNo names a page beyond the file's current extent, per §4.4's
// "requires that offset < file-length".
func (hf *HeapFile) ReadPage(pageNo int) (Page, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.readPageLocked(pageNo)
}

func (hf *HeapFile) readPageLocked(pageNo int) (Page, error) {
	if pageNo < 0 || pageNo >= hf.store.NumPages() {
		return nil, newDbErr(ErrPageDoesNotExist, "page %d does not exist in table %d (numPages=%d)", pageNo, hf.tableID, hf.store.NumPages())
	}
	buf := make([]byte, PageSize)
	if err := hf.store.ReadAt(pageNo, buf); err != nil {
		return nil, err
	}
	pid := PageID{TableID: hf.tableID, PageNo: pageNo}
	return HeapPageFromBytes(pid, hf.desc, buf)
}

// WritePage serializes p and writes it back to its slot in the backing
// store. The caller (the buffer pool, at commit or on an explicit flush) is
// responsible for ensuring p belongs to this file.
func (hf *HeapFile) WritePage(p Page) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	data, err := p.ToBytes()
	if err != nil {
		return err
	}
	return hf.store.WriteAt(p.ID().PageNo, data)
}

// Sync forces all writes made so far to stable storage.
func (hf *HeapFile) Sync() error {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.store.Sync()
}

// Iterator returns a lazy, restartable, not-thread-safe sequence over every
// tuple in the file, in page order then slot order, per §4.4. Each page is
// fetched through bp with a Shared lock -- the same access discipline every
// other reader of this file goes through -- rather than reading pages
// directly, mirroring the teacher's own HeapFile.Iterator(tid), which reads
// through f.bufPool.GetPage for exactly this reason ("the BufferPool caches
// pages and manages page-level locking state for transactions"). Calling
// Iterator again starts a fresh pass; the returned closure itself doesn't
// support rewinding in place.
func (hf *HeapFile) Iterator(tid TransactionID, bp *BufferPool) func() (*Tuple, error) {
	pageNo := 0
	var pageIter func() (*Tuple, error)

	advance := func() error {
		for {
			if pageNo >= hf.NumPages() {
				pageIter = nil
				return nil
			}
			pid := PageID{TableID: hf.tableID, PageNo: pageNo}
			p, err := bp.GetPage(tid, pid, Shared)
			if err != nil {
				return err
			}
			hp := p.(*HeapPage)
			pageNo++
			pageIter = hp.Iterator()
			return nil
		}
	}

	return func() (*Tuple, error) {
		for {
			if pageIter == nil {
				if err := advance(); err != nil {
					return nil, err
				}
				if pageIter == nil {
					return nil, nil
				}
			}
			t, err := pageIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				pageIter = nil
				continue
			}
			t.Desc = *hf.desc
			return t, nil
		}
	}
}

// allocateNewPage appends a fresh, empty page to the file and returns it
// along with its page number. Called by BufferPool.InsertTuple once every
// existing page has been found full.
func (hf *HeapFile) allocateNewPage() (*HeapPage, int, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	pageNo := hf.store.NumPages()
	pid := PageID{TableID: hf.tableID, PageNo: pageNo}
	p := NewHeapPage(pid, hf.desc)
	data, err := p.ToBytes()
	if err != nil {
		return nil, 0, err
	}
	if err := hf.store.WriteAt(pageNo, data); err != nil {
		return nil, 0, err
	}
	return p, pageNo, nil
}
