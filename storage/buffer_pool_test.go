package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// failingPageStore wraps a MemPageStore so a test can force WriteAt to fail
// on demand, simulating a disk I/O error partway through a commit.
type failingPageStore struct {
	*MemPageStore
	failWrite bool
}

func (s *failingPageStore) WriteAt(pageNo int, buf []byte) error {
	if s.failWrite {
		return errors.New("simulated disk failure")
	}
	return s.MemPageStore.WriteAt(pageNo, buf)
}

func newTestTable(t *testing.T, tableID int) (*Catalog, *HeapFile) {
	desc := smallSchema()
	store := NewMemPageStore()
	hf := NewHeapFile(tableID, desc, store)
	cat := NewCatalog()
	cat.AddTable("t", hf)
	return cat, hf
}

func insertN(t *testing.T, bp *BufferPool, hf *HeapFile, tid TransactionID, n int) {
	desc := smallSchema()
	for i := 0; i < n; i++ {
		_, err := bp.InsertTuple(tid, hf, &Tuple{
			Desc:   *desc,
			Fields: []DBValue{IntField{Value: int32(i)}, StringField{Value: "x"}},
		})
		require.NoError(t, err)
	}
}

func TestBufferPoolInsertCommitReadBack(t *testing.T) {
	cat, hf := newTestTable(t, 1)
	bp := NewBufferPool(10, cat)

	tid := bp.BeginTransaction()
	insertN(t, bp, hf, tid, 3)
	require.NoError(t, bp.CommitTransaction(tid))

	tid2 := bp.BeginTransaction()
	p, err := bp.GetPage(tid2, PageID{TableID: 1, PageNo: 0}, Shared)
	require.NoError(t, err)
	hp := p.(*HeapPage)
	require.Equal(t, hp.NumSlots()-3, hp.EmptySlots())
	require.NoError(t, bp.CommitTransaction(tid2))
}

func TestBufferPoolAbortDiscardsDirtyPages(t *testing.T) {
	cat, hf := newTestTable(t, 1)
	bp := NewBufferPool(10, cat)

	tid := bp.BeginTransaction()
	insertN(t, bp, hf, tid, 2)
	bp.AbortTransaction(tid)

	tid2 := bp.BeginTransaction()
	p, err := bp.GetPage(tid2, PageID{TableID: 1, PageNo: 0}, Shared)
	require.NoError(t, err)
	hp := p.(*HeapPage)
	require.Equal(t, hp.NumSlots(), hp.EmptySlots(), "aborted inserts must not be visible")
	require.NoError(t, bp.CommitTransaction(tid2))
}

// TestBufferPoolNoStealRefusesToEvictDirtyPages verifies the true
// no-steal invariant: once every cached page is dirty, eviction must fail
// outright rather than silently writing an uncommitted transaction's
// changes to disk to make room.
func TestBufferPoolNoStealRefusesToEvictDirtyPages(t *testing.T) {
	cat, hf := newTestTable(t, 1)
	bp := NewBufferPool(2, cat)

	tid := bp.BeginTransaction()
	desc := smallSchema()

	// Put one tuple on each of two fresh pages, dirtying both of the buffer
	// pool's two slots, then try to force a third page into the cache.
	for i := 0; i < 2; i++ {
		hp, pageNo, err := hf.allocateNewPage()
		require.NoError(t, err)
		pid := PageID{TableID: 1, PageNo: pageNo}
		p, err := bp.GetPage(tid, pid, Exclusive)
		require.NoError(t, err)
		_ = p
		_, err = hp.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int32(i)}, StringField{Value: "d"}}})
		require.NoError(t, err)
		hp.MarkDirty(tid)
		bp.mu.Lock()
		bp.pages[pid] = hp
		bp.markTouchedByLocked(tid, pid)
		bp.mu.Unlock()
	}

	_, _, err := hf.allocateNewPage()
	require.NoError(t, err)
	thirdPid := PageID{TableID: 1, PageNo: 2}
	_, err = bp.GetPage(tid, thirdPid, Shared)
	require.Error(t, err)
	dbErr, ok := err.(*DbError)
	require.True(t, ok)
	require.Equal(t, ErrNoEvictionCandidate, dbErr.Code)
}

// TestBufferPoolClockEvictsLeastRecentlyTouchedCleanPage exercises the
// move-to-tail-on-touch clock policy: A, B, C are installed in order
// (ring = A,B,C, all ref bits set); touching A moves it to the tail and
// re-sets its bit (ref bits: B=1,C=1,A=1 again since a hit always
// re-marks referenced); a fourth page D forces an eviction, and since
// every bit is set the first sweep only clears bits, and the second
// sweep evicts B -- the least recently touched of the three.
func TestBufferPoolClockEvictsLeastRecentlyTouchedCleanPage(t *testing.T) {
	cat, hf := newTestTable(t, 1)
	bp := NewBufferPool(3, cat)
	tid := bp.BeginTransaction()

	for i := 0; i < 3; i++ {
		_, _, err := hf.allocateNewPage()
		require.NoError(t, err)
	}
	pidA := PageID{TableID: 1, PageNo: 0}
	pidB := PageID{TableID: 1, PageNo: 1}
	pidC := PageID{TableID: 1, PageNo: 2}

	_, err := bp.GetPage(tid, pidA, Shared)
	require.NoError(t, err)
	_, err = bp.GetPage(tid, pidB, Shared)
	require.NoError(t, err)
	_, err = bp.GetPage(tid, pidC, Shared)
	require.NoError(t, err)

	bp.UnsafeReleasePage(tid, pidA)
	bp.UnsafeReleasePage(tid, pidB)
	bp.UnsafeReleasePage(tid, pidC)

	_, err = bp.GetPage(tid, pidA, Shared)
	require.NoError(t, err)
	bp.UnsafeReleasePage(tid, pidA)

	_, _, err = hf.allocateNewPage()
	require.NoError(t, err)
	pidD := PageID{TableID: 1, PageNo: 3}
	_, err = bp.GetPage(tid, pidD, Shared)
	require.NoError(t, err)

	require.Equal(t, 3, bp.NumCachedPages())
	_, stillB := bp.pages[pidB]
	require.False(t, stillB, "B should have been evicted")
	for _, pid := range []PageID{pidA, pidC, pidD} {
		_, ok := bp.pages[pid]
		require.True(t, ok, "%v should still be cached", pid)
	}
}

// TestBufferPoolCommitReleasesLocksDespiteIOError guards against a flush
// failure stranding a transaction's locks: per §4.3/§7, lock release at
// commit is unconditional, so a disk I/O error must still be reported but
// must never leave another transaction deadlocked waiting on tid's pages.
func TestBufferPoolCommitReleasesLocksDespiteIOError(t *testing.T) {
	desc := smallSchema()
	store := &failingPageStore{MemPageStore: NewMemPageStore()}
	hf := NewHeapFile(1, desc, store)
	cat := NewCatalog()
	cat.AddTable("t", hf)
	bp := NewBufferPool(10, cat)

	tid := bp.BeginTransaction()
	insertN(t, bp, hf, tid, 2)

	store.failWrite = true
	err := bp.CommitTransaction(tid)
	require.Error(t, err)

	require.Empty(t, bp.lockMgr.PagesLockedBy(tid))
	_, held := bp.HoldsLock(tid, PageID{TableID: 1, PageNo: 0})
	require.False(t, held, "commit must release every lock even when the flush fails")

	store.failWrite = false
	tid2 := bp.BeginTransaction()
	_, err = bp.GetPage(tid2, PageID{TableID: 1, PageNo: 0}, Exclusive)
	require.NoError(t, err, "page lock must not be stranded after a failed commit")
}

func TestHeapFileReadPageRejectsOutOfRangePageNo(t *testing.T) {
	_, hf := newTestTable(t, 1)
	_, err := hf.ReadPage(0)
	require.Error(t, err)
	dbErr, ok := err.(*DbError)
	require.True(t, ok)
	require.Equal(t, ErrPageDoesNotExist, dbErr.Code)
}
