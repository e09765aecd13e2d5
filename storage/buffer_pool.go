package storage

// BufferPool is the single cache of on-disk pages every table's I/O flows
// through: clock (second-chance) eviction, strict two-phase locking via
// LockManager, and a no-steal/force discipline -- a dirty page is never
// written to disk except when its owning transaction commits or a caller
// explicitly flushes it (FlushPages, FlushAllPages), and every
// dirty page a committing transaction owns is flushed, synchronously,
// before that transaction's locks are released. This replaces the
// teacher's polling BufferPool (time.Sleep retry loops around a
// Pages map[any]Page) with blocking acquisition through LockManager and an
// explicit clock ring in place of the teacher's ad hoc eviction scan.

import (
	"sync"
)

type BufferPool struct {
	mu       sync.Mutex
	capacity int
	catalog  *Catalog
	lockMgr  *LockManager

	pages  map[PageID]Page
	ring   []PageID
	refBit map[PageID]bool
	hand   int

	// txnPages[tid] is the set of pages tid has dirtied, so commit/abort
	// can flush or discard exactly those pages without a full cache scan.
	txnPages map[TransactionID]map[PageID]bool
}

// NewBufferPool returns an empty BufferPool of the given page capacity,
// serving pages for the tables registered in catalog.
func NewBufferPool(capacity int, catalog *Catalog) *BufferPool {
	return &BufferPool{
		capacity: capacity,
		catalog:  catalog,
		lockMgr:  NewLockManager(),
		pages:    make(map[PageID]Page),
		refBit:   make(map[PageID]bool),
		txnPages: make(map[TransactionID]map[PageID]bool),
	}
}

// BeginTransaction allocates a fresh TransactionID for a new transaction.
func (bp *BufferPool) BeginTransaction() TransactionID {
	return NewTID()
}

// GetPage returns the page identified by pid, acquiring it in perm mode on
// tid's behalf first. Shared readers may run concurrently; an Exclusive
// caller blocks out every other transaction's access to the page.
func (bp *BufferPool) GetPage(tid TransactionID, pid PageID, perm LockMode) (Page, error) {
	if err := bp.lockMgr.AcquireLock(tid, pid, perm); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	if p, ok := bp.pages[pid]; ok {
		bp.touchLocked(pid)
		bp.mu.Unlock()
		return p, nil
	}
	bp.mu.Unlock()

	// The disk read itself runs with the buffer pool mutex released -- per
	// §5, the mutex guards cache lookup, eviction, and installation, never
	// I/O. The page's own lock (held above) keeps two transactions from
	// racing to mutate it; two readers can still both miss the cache and
	// both read the same page from disk, so the second one to reach
	// installLocked below just finds it already resident.
	hf, err := bp.catalog.GetFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	p, err := hf.ReadPage(pid.PageNo)
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if existing, ok := bp.pages[pid]; ok {
		bp.touchLocked(pid)
		return existing, nil
	}
	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}
	bp.insertLocked(p)
	return p, nil
}

func (bp *BufferPool) touchLocked(pid PageID) {
	bp.removeFromRingLocked(pid)
	bp.ring = append(bp.ring, pid)
	bp.refBit[pid] = true
}

func (bp *BufferPool) insertLocked(p Page) {
	pid := p.ID()
	bp.pages[pid] = p
	bp.ring = append(bp.ring, pid)
	bp.refBit[pid] = true
}

func (bp *BufferPool) removeFromRingLocked(pid PageID) {
	for i, id := range bp.ring {
		if id == pid {
			bp.ring = append(bp.ring[:i], bp.ring[i+1:]...)
			return
		}
	}
}

// evictLocked runs the clock algorithm over the current ring: a page with
// its reference bit set gets a second chance (bit cleared, hand advances);
// a dirty page can never be the victim, since no-steal forbids writing
// another transaction's uncommitted changes to disk. The search is bounded
// to two full sweeps of the ring; the first sweep clears every reference
// bit, so if nothing is evictable by the end of the second, every cached
// page is dirty and eviction fails outright rather than spin forever.
func (bp *BufferPool) evictLocked() error {
	n := len(bp.ring)
	if n == 0 {
		return newDbErr(ErrNoEvictionCandidate, "buffer pool is empty but over capacity")
	}
	for advances := 0; advances < 2*n; advances++ {
		idx := bp.hand % len(bp.ring)
		pid := bp.ring[idx]
		p := bp.pages[pid]

		if bp.refBit[pid] {
			bp.refBit[pid] = false
			bp.hand++
			continue
		}
		if p.IsDirty() {
			bp.hand++
			continue
		}

		bp.ring = append(bp.ring[:idx], bp.ring[idx+1:]...)
		delete(bp.pages, pid)
		delete(bp.refBit, pid)
		log.Debug().Int("table", pid.TableID).Int("page", pid.PageNo).Msg("evicted page")
		return nil
	}
	log.Warn().Msg("no eviction candidate: every cached page is pinned or dirty")
	return newDbErr(ErrNoEvictionCandidate, "no clean, unreferenced page available for eviction")
}

func (bp *BufferPool) markTouchedByLocked(tid TransactionID, pid PageID) {
	if bp.txnPages[tid] == nil {
		bp.txnPages[tid] = make(map[PageID]bool)
	}
	bp.txnPages[tid][pid] = true
}

// InsertTuple finds or allocates a page of hf with room for t, inserts it,
// and marks the page dirty on tid's behalf. Candidate pages are probed with
// a read-lock first and only upgraded to a write-lock once one with room is
// found, rather than write-locking every page along the way just to check
// occupancy -- an upgrade can itself deadlock, in which case the lock
// manager aborts one of the colliding transactions, same as any other X
// request.
func (bp *BufferPool) InsertTuple(tid TransactionID, hf *HeapFile, t *Tuple) (RecordID, error) {
	numPages := hf.NumPages()
	for pageNo := 0; pageNo < numPages; pageNo++ {
		pid := PageID{TableID: hf.TableID(), PageNo: pageNo}
		p, err := bp.GetPage(tid, pid, Shared)
		if err != nil {
			return RecordID{}, err
		}
		hp := p.(*HeapPage)
		if hp.EmptySlots() == 0 {
			continue
		}
		if _, err := bp.GetPage(tid, pid, Exclusive); err != nil {
			return RecordID{}, err
		}
		if hp.EmptySlots() == 0 {
			continue
		}
		rid, err := hp.Insert(t)
		if err != nil {
			continue
		}
		hp.MarkDirty(tid)
		bp.mu.Lock()
		bp.markTouchedByLocked(tid, pid)
		bp.mu.Unlock()
		return rid, nil
	}

	hp, pageNo, err := hf.allocateNewPage()
	if err != nil {
		return RecordID{}, err
	}
	pid := PageID{TableID: hf.TableID(), PageNo: pageNo}
	if err := bp.lockMgr.AcquireLock(tid, pid, Exclusive); err != nil {
		return RecordID{}, err
	}
	bp.mu.Lock()
	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			bp.mu.Unlock()
			return RecordID{}, err
		}
	}
	bp.insertLocked(hp)
	bp.mu.Unlock()
	rid, err := hp.Insert(t)
	if err != nil {
		return RecordID{}, err
	}
	hp.MarkDirty(tid)
	bp.mu.Lock()
	bp.markTouchedByLocked(tid, pid)
	bp.mu.Unlock()
	return rid, nil
}

// DeleteTuple removes the tuple identified by t.Rid, marking its page
// dirty on tid's behalf. t must have been read through this buffer pool
// (so t.Rid is populated).
func (bp *BufferPool) DeleteTuple(tid TransactionID, t *Tuple) error {
	if t.Rid == nil {
		return newDbErr(ErrNoRecordID, "cannot delete a tuple with no RecordID")
	}
	pid := t.Rid.Page
	p, err := bp.GetPage(tid, pid, Exclusive)
	if err != nil {
		return err
	}
	hp := p.(*HeapPage)
	if err := hp.Delete(*t.Rid); err != nil {
		return err
	}
	hp.MarkDirty(tid)
	bp.mu.Lock()
	bp.markTouchedByLocked(tid, pid)
	bp.mu.Unlock()
	return nil
}

// FlushPages writes every page tid has dirtied back to its backing
// HeapFile, synchronously, and marks each clean -- without touching tid's
// locks. CommitTransaction is exactly this followed by a lock release;
// it's also exposed standalone since spec.md's external interface names
// flushPages(tid) as its own operation for tests and recovery helpers.
//
// A disk I/O failure partway through does not stop the sweep: per §7,
// "errors from disk I/O during commit are recorded" rather than aborting
// the rest of the flush, so every remaining page still gets a chance to
// reach disk and tid's dirtied-page set is cleared unconditionally. Only
// the first error encountered is returned, since that's the one a caller
// deciding whether the commit was fully durable needs to see.
func (bp *BufferPool) FlushPages(tid TransactionID) error {
	bp.mu.Lock()
	pids := make([]PageID, 0, len(bp.txnPages[tid]))
	for pid := range bp.txnPages[tid] {
		pids = append(pids, pid)
	}
	bp.mu.Unlock()

	var firstErr error
	recordErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	synced := make(map[int]bool)
	for _, pid := range pids {
		bp.mu.Lock()
		p, ok := bp.pages[pid]
		bp.mu.Unlock()
		if !ok || !p.IsDirty() {
			continue
		}
		hf, err := bp.catalog.GetFile(pid.TableID)
		if err != nil {
			recordErr(err)
			continue
		}
		if err := hf.WritePage(p); err != nil {
			recordErr(err)
			continue
		}
		if !synced[pid.TableID] {
			if err := hf.Sync(); err != nil {
				recordErr(err)
				continue
			}
			synced[pid.TableID] = true
		}
		p.MarkClean()
	}

	bp.mu.Lock()
	delete(bp.txnPages, tid)
	bp.mu.Unlock()
	return firstErr
}

// CommitTransaction flushes every page tid has dirtied to its backing
// HeapFile, synchronously, then releases every lock tid holds. Flush is
// attempted strictly before release, so no other transaction can ever
// observe tid's writes in memory without them also being durable -- but
// lock release is unconditional (§4.3: "Release every lock held by tid"),
// so a flush error never stands a transaction's locks forever and blocks
// every other transaction waiting on those pages.
func (bp *BufferPool) CommitTransaction(tid TransactionID) error {
	err := bp.FlushPages(tid)
	bp.lockMgr.ReleaseAll(tid)
	return err
}

// DiscardPage drops pid from the cache unconditionally, without writing it
// back -- the recovery-helper operation spec.md's external interface names
// discardPage(pid) for. A page that isn't cached is a no-op.
func (bp *BufferPool) DiscardPage(pid PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	delete(bp.pages, pid)
	delete(bp.refBit, pid)
	bp.removeFromRingLocked(pid)
}

// AbortTransaction undoes every page tid has dirtied by re-reading its last
// durable, committed image from disk back into the cache -- rather than
// simply discarding it, so a page tid abandons mid-write stays resident and
// clean for the next reader instead of forcing a cold re-fetch -- then
// releases every lock tid holds.
func (bp *BufferPool) AbortTransaction(tid TransactionID) {
	bp.mu.Lock()
	pids := make([]PageID, 0, len(bp.txnPages[tid]))
	for pid := range bp.txnPages[tid] {
		pids = append(pids, pid)
	}
	delete(bp.txnPages, tid)
	bp.mu.Unlock()

	for _, pid := range pids {
		hf, err := bp.catalog.GetFile(pid.TableID)
		if err != nil {
			continue
		}
		p, err := hf.ReadPage(pid.PageNo)
		if err != nil {
			continue
		}
		bp.mu.Lock()
		bp.pages[pid] = p
		if _, inRing := bp.refBit[pid]; !inRing {
			bp.ring = append(bp.ring, pid)
		}
		bp.refBit[pid] = true
		bp.mu.Unlock()
	}
	bp.lockMgr.ReleaseAll(tid)
}

// TransactionComplete ends tid, committing its writes if commit is true or
// rolling them back otherwise -- the single entry point spec.md's external
// interface names transactionComplete(tid, commit) for; CommitTransaction
// and AbortTransaction remain exposed separately under the teacher's own
// naming, since callers that already know which outcome they want have no
// reason to route through a boolean flag.
func (bp *BufferPool) TransactionComplete(tid TransactionID, commit bool) error {
	if commit {
		return bp.CommitTransaction(tid)
	}
	bp.AbortTransaction(tid)
	return nil
}

// HoldsLock reports whether tid currently holds a lock on pid, and in what
// mode -- exposed standalone since spec.md's external interface names
// holdsLock(tid, pid) as its own query, independent of GetPage.
func (bp *BufferPool) HoldsLock(tid TransactionID, pid PageID) (LockMode, bool) {
	return bp.lockMgr.HoldsLock(tid, pid)
}

// FlushAllPages writes every dirty cached page back to its file and syncs
// every touched file, irrespective of which transaction dirtied it. This
// is an administrative operation (shutdown, checkpoint) -- it bypasses
// the lock manager entirely and must not be called while transactions are
// still active.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	synced := make(map[int]bool)
	for pid, p := range bp.pages {
		if !p.IsDirty() {
			continue
		}
		hf, err := bp.catalog.GetFile(pid.TableID)
		if err != nil {
			return err
		}
		if err := hf.WritePage(p); err != nil {
			return err
		}
		if !synced[pid.TableID] {
			if err := hf.Sync(); err != nil {
				return err
			}
			synced[pid.TableID] = true
		}
		p.MarkClean()
	}
	return nil
}

// UnsafeReleasePage releases tid's lock on a single page before the
// transaction ends. Named for the same reason the teacher's own escape
// hatch was: releasing a lock early breaks strict two-phase locking's
// guarantees, and should only be used where the caller has independently
// established it's safe (e.g. a read-only scan that will never revisit
// the page).
func (bp *BufferPool) UnsafeReleasePage(tid TransactionID, pid PageID) {
	bp.lockMgr.ReleaseLock(tid, pid)
}

// NumCachedPages reports how many pages are currently resident, for tests
// asserting on eviction behavior.
func (bp *BufferPool) NumCachedPages() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}
