package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func smallSchema() *Schema {
	return &Schema{Fields: []FieldType{
		{Fname: "id", Ftype: IntType},
		{Fname: "name", Ftype: StringType, Length: 8},
	}}
}

func TestHeapPageInsertDeleteIterate(t *testing.T) {
	desc := smallSchema()
	pid := PageID{TableID: 1, PageNo: 0}
	p := NewHeapPage(pid, desc)
	require.Greater(t, p.NumSlots(), 0)

	rid1, err := p.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}, StringField{Value: "a"}}})
	require.NoError(t, err)
	require.Equal(t, pid, rid1.Page)

	_, err = p.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 2}, StringField{Value: "b"}}})
	require.NoError(t, err)

	var seen []int32
	iter := p.Iterator()
	for {
		tup, err := iter()
		require.NoError(t, err)
		if tup == nil {
			break
		}
		seen = append(seen, tup.Fields[0].(IntField).Value)
	}
	require.ElementsMatch(t, []int32{1, 2}, seen)

	require.NoError(t, p.Delete(rid1))
	require.Error(t, p.Delete(rid1))
}

func TestHeapPageDeleteWrongPage(t *testing.T) {
	desc := smallSchema()
	p := NewHeapPage(PageID{TableID: 1, PageNo: 0}, desc)
	err := p.Delete(RecordID{Page: PageID{TableID: 1, PageNo: 1}, Slot: 0})
	dbErr, ok := err.(*DbError)
	require.True(t, ok)
	require.Equal(t, ErrNotOnThisPage, dbErr.Code)
}

func TestHeapPageFillsUpAndRejects(t *testing.T) {
	desc := smallSchema()
	pid := PageID{TableID: 1, PageNo: 0}
	p := NewHeapPage(pid, desc)
	n := p.NumSlots()
	for i := 0; i < n; i++ {
		_, err := p.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int32(i)}, StringField{Value: "x"}}})
		require.NoError(t, err)
	}
	_, err := p.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 999}, StringField{Value: "y"}}})
	dbErr, ok := err.(*DbError)
	require.True(t, ok)
	require.Equal(t, ErrNotEnoughSpace, dbErr.Code)
}

func TestHeapPageSerializeRoundTrip(t *testing.T) {
	desc := smallSchema()
	pid := PageID{TableID: 2, PageNo: 3}
	p := NewHeapPage(pid, desc)
	rid, err := p.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 10}, StringField{Value: "hello"}}})
	require.NoError(t, err)
	_, err = p.Insert(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 20}, StringField{Value: "world"}}})
	require.NoError(t, err)

	data, err := p.ToBytes()
	require.NoError(t, err)
	require.Len(t, data, PageSize)

	p2, err := HeapPageFromBytes(pid, desc, data)
	require.NoError(t, err)
	require.True(t, p2.SlotOccupied(rid.Slot))
	require.Equal(t, p.EmptySlots(), p2.EmptySlots())

	iter := p2.Iterator()
	var got []int32
	for {
		tup, err := iter()
		require.NoError(t, err)
		if tup == nil {
			break
		}
		got = append(got, tup.Fields[0].(IntField).Value)
	}
	require.ElementsMatch(t, []int32{10, 20}, got)
}

func TestNumSlotsForMatchesBitmapFormula(t *testing.T) {
	desc := smallSchema()
	width := desc.TupleWidth()
	want := (PageSize * 8) / (width*8 + 1)
	require.Equal(t, want, numSlotsFor(width))
}
