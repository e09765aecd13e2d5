package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{Fields: []FieldType{
		{Fname: "id", Ftype: IntType},
		{Fname: "name", Ftype: StringType, Length: 8},
	}}
}

func TestTupleWireRoundTrip(t *testing.T) {
	desc := testSchema()
	tup := &Tuple{
		Desc:   *desc,
		Fields: []DBValue{IntField{Value: 42}, StringField{Value: "alice"}},
	}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))
	require.Equal(t, desc.TupleWidth(), buf.Len())

	got, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.True(t, tup.Equals(got))
}

func TestTupleWireRoundTripEmptyString(t *testing.T) {
	desc := testSchema()
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}, StringField{Value: ""}}}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))

	got, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.Equal(t, "", got.Fields[1].(StringField).Value)
}

func TestTupleWireTruncatesOverlongString(t *testing.T) {
	desc := testSchema()
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}, StringField{Value: "waytoolongforeight"}}}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))
	require.Equal(t, desc.TupleWidth(), buf.Len())

	got, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.Equal(t, "waytoolo", got.Fields[1].(StringField).Value, "value must be clipped to the field's declared byte length")
}

// TestTupleWireDistinguishesPaddingFromContent guards against using
// zero-trimming to recover a string's length: a value that legitimately
// ends with the same byte padding uses to fill unused space must still
// round-trip exactly, which only works if the wire format's length prefix
// records the true content length rather than relying on trailing NULs.
func TestTupleWireDistinguishesPaddingFromContent(t *testing.T) {
	desc := testSchema()
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}, StringField{Value: "ab\x00\x00"}}}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))

	got, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.Equal(t, "ab\x00\x00", got.Fields[1].(StringField).Value)
}

func TestTupleJoinAndProject(t *testing.T) {
	left := &Tuple{
		Desc:   Schema{Fields: []FieldType{{Fname: "a", Ftype: IntType}}},
		Fields: []DBValue{IntField{Value: 1}},
	}
	right := &Tuple{
		Desc:   Schema{Fields: []FieldType{{Fname: "b", Ftype: IntType}}},
		Fields: []DBValue{IntField{Value: 2}},
	}

	joined := Join(left, right)
	require.Len(t, joined.Fields, 2)

	proj, err := joined.Project([]FieldType{{Fname: "b", Ftype: IntType}})
	require.NoError(t, err)
	require.Equal(t, IntField{Value: 2}, proj.Fields[0])
}

func TestEvalPred(t *testing.T) {
	a := IntField{Value: 5}
	b := IntField{Value: 7}
	require.True(t, a.EvalPred(b, OpLt))
	require.False(t, a.EvalPred(b, OpGt))
	require.True(t, a.EvalPred(a, OpEq))
}

func TestSchemaFindFieldAmbiguous(t *testing.T) {
	s := &Schema{Fields: []FieldType{
		{Fname: "id", TableQualifier: "t1", Ftype: IntType},
		{Fname: "id", TableQualifier: "t2", Ftype: IntType},
	}}
	_, err := s.FindField(FieldType{Fname: "id", Ftype: IntType})
	require.Error(t, err)

	idx, err := s.FindField(FieldType{Fname: "id", TableQualifier: "t2", Ftype: IntType})
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}
