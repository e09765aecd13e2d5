package storage

// HeapPage is the in-memory image of a single slotted disk page: a bitmap
// header recording slot occupancy followed by a back-to-back array of
// fixed-width tuple slots. This generalizes the teacher's heapPage (which
// used a two-int32 "numSlots/numUsedSlots" header) to the bitmap-header
// wire format spec.md §3/§6 specify, since that's what lets readers
// determine occupancy without also trusting a redundant used-count.

import (
	"bytes"
)

type HeapPage struct {
	pid      PageID
	desc     *Schema
	numSlots int
	header   int // header size in bytes
	tuples   []*Tuple
	occupied []bool
	dirtyBy  *TransactionID
}

// numSlotsFor returns S = floor((pageSize*8) / (tupleWidth*8 + 1)), the
// number of slots that fit on a page of tupleWidth-byte tuples, per
// spec.md §3.
func numSlotsFor(tupleWidth int) int {
	if tupleWidth <= 0 {
		return 0
	}
	return (PageSize * 8) / (tupleWidth*8 + 1)
}

func headerSizeFor(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewHeapPage constructs an empty page for the given PageID and Schema.
func NewHeapPage(pid PageID, desc *Schema) *HeapPage {
	n := numSlotsFor(desc.TupleWidth())
	return &HeapPage{
		pid:      pid,
		desc:     desc,
		numSlots: n,
		header:   headerSizeFor(n),
		tuples:   make([]*Tuple, n),
		occupied: make([]bool, n),
	}
}

// HeapPageFromBytes parses a page image read from disk.
func HeapPageFromBytes(pid PageID, desc *Schema, data []byte) (*HeapPage, error) {
	p := NewHeapPage(pid, desc)
	if len(data) < PageSize {
		return nil, newDbErr(ErrPageDoesNotExist, "short page image for %v: got %d bytes", pid, len(data))
	}
	for i := 0; i < p.numSlots; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if data[byteIdx]&(1<<bitIdx) != 0 {
			p.occupied[i] = true
		}
	}
	buf := bytes.NewBuffer(data[p.header:])
	tupleWidth := desc.TupleWidth()
	for i := 0; i < p.numSlots; i++ {
		if !p.occupied[i] {
			buf.Next(tupleWidth)
			continue
		}
		slotBytes := buf.Next(tupleWidth)
		t, err := readTupleFrom(bytes.NewBuffer(slotBytes), desc)
		if err != nil {
			return nil, err
		}
		slot := i
		t.Rid = &RecordID{Page: pid, Slot: slot}
		p.tuples[i] = t
	}
	return p, nil
}

func (p *HeapPage) ID() PageID { return p.pid }

func (p *HeapPage) IsDirty() bool { return p.dirtyBy != nil }

func (p *HeapPage) DirtyBy() (TransactionID, bool) {
	if p.dirtyBy == nil {
		return 0, false
	}
	return *p.dirtyBy, true
}

func (p *HeapPage) MarkDirty(tid TransactionID) {
	t := tid
	p.dirtyBy = &t
}

func (p *HeapPage) MarkClean() {
	p.dirtyBy = nil
}

// NumSlots is the total number of tuple slots on the page.
func (p *HeapPage) NumSlots() int { return p.numSlots }

// EmptySlots returns the number of unoccupied slots.
func (p *HeapPage) EmptySlots() int {
	n := 0
	for _, occ := range p.occupied {
		if !occ {
			n++
		}
	}
	return n
}

// SlotOccupied reports whether slot i currently holds a tuple.
func (p *HeapPage) SlotOccupied(i int) bool {
	if i < 0 || i >= p.numSlots {
		return false
	}
	return p.occupied[i]
}

// Insert places t into the lowest-indexed empty slot, stamps t's RecordID,
// and returns it. Fails with NotEnoughSpace if no slot is free, or
// SchemaMismatch if t's field count doesn't match the page's schema.
func (p *HeapPage) Insert(t *Tuple) (RecordID, error) {
	if len(t.Fields) != len(p.desc.Fields) {
		return RecordID{}, newDbErr(ErrSchemaMismatch, "tuple has %d fields, page schema has %d", len(t.Fields), len(p.desc.Fields))
	}
	for i := 0; i < p.numSlots; i++ {
		if p.occupied[i] {
			continue
		}
		rid := RecordID{Page: p.pid, Slot: i}
		stored := &Tuple{Desc: *p.desc, Fields: t.Fields, Rid: &rid}
		p.tuples[i] = stored
		p.occupied[i] = true
		t.Rid = &rid
		return rid, nil
	}
	return RecordID{}, newDbErr(ErrNotEnoughSpace, "page %v has no free slot", p.pid)
}

// Delete clears the slot named by rid. Fails with NotOnThisPage if rid
// names a different page, or SlotEmpty if the slot is already unoccupied.
func (p *HeapPage) Delete(rid RecordID) error {
	if rid.Page != p.pid {
		return newDbErr(ErrNotOnThisPage, "record %v is not on page %v", rid, p.pid)
	}
	if rid.Slot < 0 || rid.Slot >= p.numSlots || !p.occupied[rid.Slot] {
		return newDbErr(ErrSlotEmpty, "slot %d on page %v is already empty", rid.Slot, p.pid)
	}
	p.occupied[rid.Slot] = false
	p.tuples[rid.Slot] = nil
	return nil
}

// Iterator returns a function yielding the page's tuples in slot-index
// order, one per call, nil once exhausted. Each call to Iterator starts a
// fresh, independent pass -- the returned closure is not restartable, but
// nothing prevents calling Iterator again.
func (p *HeapPage) Iterator() func() (*Tuple, error) {
	i := 0
	return func() (*Tuple, error) {
		for i < p.numSlots {
			idx := i
			i++
			if p.occupied[idx] {
				return p.tuples[idx], nil
			}
		}
		return nil, nil
	}
}

// ToBytes serializes the page to exactly PageSize bytes: the bitmap
// header (bit i of the header is 1 iff slot i is occupied, LSB-first
// within each byte), followed by the fixed-width slot array, zero-filled
// in empty slots.
func (p *HeapPage) ToBytes() ([]byte, error) {
	out := make([]byte, PageSize)
	for i := 0; i < p.numSlots; i++ {
		if !p.occupied[i] {
			continue
		}
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		out[byteIdx] |= 1 << bitIdx
	}
	tupleWidth := p.desc.TupleWidth()
	var buf bytes.Buffer
	for i := 0; i < p.numSlots; i++ {
		if !p.occupied[i] {
			buf.Write(make([]byte, tupleWidth))
			continue
		}
		before := buf.Len()
		if err := p.tuples[i].writeTo(&buf); err != nil {
			return nil, err
		}
		if written := buf.Len() - before; written != tupleWidth {
			return nil, newDbErr(ErrSchemaMismatch, "tuple in slot %d serialized to %d bytes, want %d", i, written, tupleWidth)
		}
	}
	copy(out[p.header:], buf.Bytes())
	return out, nil
}
