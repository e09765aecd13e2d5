package storage

// This file defines the tuple/schema value objects that the rest of the
// core treats as data: Schema (the teacher's TupleDesc), FieldType, DBType,
// DBValue, and Tuple. These are "external, by the degree needed" per
// spec.md's scope -- the catalog and operators are the real owners of
// schema semantics -- but the heap page's wire format is defined in terms
// of them, so they live in storage rather than operators.

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
)

// DBType is the type of a tuple field.
type DBType int

const (
	IntType DBType = iota
	StringType
	UnknownType // a type not yet known; FindField treats it as matching any type
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// FieldType names one field of a Schema: its name, the table it came from
// (may be empty), its type, and -- for STRING fields -- the fixed byte
// length of the string payload (the spec's "fixed-length string of N
// bytes"). Length is ignored for IntType fields.
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
	Length         int
}

// Width returns the on-disk byte width of one instance of this field:
// INT = 4-byte big-endian signed; STRING(N) = 4-byte big-endian length
// prefix followed by N bytes.
func (f FieldType) Width() int {
	switch f.Ftype {
	case StringType:
		return 4 + f.Length
	default:
		return 4
	}
}

// Schema is the ordered sequence of fields making up a tuple's type.
type Schema struct {
	Fields []FieldType
}

// TupleWidth is the fixed on-disk size of a tuple of this Schema: the sum
// of its fields' widths.
func (s *Schema) TupleWidth() int {
	w := 0
	for _, f := range s.Fields {
		w += f.Width()
	}
	return w
}

// Equals reports whether two schemas have the same fields, in order, with
// the same names and types.
func (s *Schema) Equals(o *Schema) bool {
	if len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i].Fname != o.Fields[i].Fname || s.Fields[i].Ftype != o.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// Copy returns a schema with its own backing field slice.
func (s *Schema) Copy() *Schema {
	fields := make([]FieldType, len(s.Fields))
	copy(fields, s.Fields)
	return &Schema{Fields: fields}
}

// SetTableAlias assigns every field's TableQualifier to alias.
func (s *Schema) SetTableAlias(alias string) {
	fields := make([]FieldType, len(s.Fields))
	copy(fields, s.Fields)
	for i := range fields {
		fields[i].TableQualifier = alias
	}
	s.Fields = fields
}

// Merge returns a new Schema consisting of s's fields followed by o's.
func (s *Schema) Merge(o *Schema) *Schema {
	fields := make([]FieldType, 0, len(s.Fields)+len(o.Fields))
	fields = append(fields, s.Fields...)
	fields = append(fields, o.Fields...)
	return &Schema{Fields: fields}
}

// FindField locates the best match for field within s: an exact name+type
// match, preferring one whose TableQualifier also matches when field names
// one. Mirrors the teacher's findFieldInTd, which the parser relies on to
// resolve unqualified column references.
func (s *Schema) FindField(field FieldType) (int, error) {
	best := -1
	for i, f := range s.Fields {
		if f.Fname != field.Fname {
			continue
		}
		if f.Ftype != field.Ftype && field.Ftype != UnknownType {
			continue
		}
		if field.TableQualifier == "" && best != -1 {
			return 0, newDbErr(ErrUnknown, "ambiguous field name %s", f.Fname)
		}
		if f.TableQualifier == field.TableQualifier || best == -1 {
			best = i
		}
	}
	if best == -1 {
		return -1, newDbErr(ErrUnknown, "field %s.%s not found", field.TableQualifier, field.Fname)
	}
	return best, nil
}

// DBValue is a tuple field's value: IntField or StringField.
type DBValue interface {
	EvalPred(v DBValue, op BoolOp) bool
}

// BoolOp is a comparison operator usable in a predicate.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// IntField holds a 32-bit integer field value.
type IntField struct {
	Value int32
}

// StringField holds a string field value (already trimmed of padding).
type StringField struct {
	Value string
}

func (f IntField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(IntField)
	if !ok {
		return false
	}
	return evalCompare(int64(f.Value), int64(other.Value), op)
}

func (f StringField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(StringField)
	if !ok {
		return false
	}
	return evalCompare(strings.Compare(f.Value, other.Value), 0, op)
}

func evalCompare[T int64 | int](a, b T, op BoolOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}

// Tuple is the in-memory contents of one record, plus -- when it was read
// from a page, rather than freshly constructed -- the RecordID identifying
// its on-disk home.
type Tuple struct {
	Desc   Schema
	Fields []DBValue
	Rid    *RecordID
}

// writeTo serializes t's fields into buf using the wire format of spec.md
// §6: INT = 4-byte big-endian signed; STRING(N) = 4-byte big-endian length
// followed by N bytes, zero-padded. The length prefix is the actual content
// length (clipped to N when the value overruns its field), not N itself --
// that's what lets a reader tell real trailing NUL bytes in the content
// apart from zero padding, per "bytes beyond the declared length are
// ignored on read".
func (t *Tuple) writeTo(buf *bytes.Buffer) error {
	for i, field := range t.Fields {
		ft := t.Desc.Fields[i]
		switch v := field.(type) {
		case IntField:
			if err := binary.Write(buf, binary.BigEndian, v.Value); err != nil {
				return err
			}
		case StringField:
			raw := []byte(v.Value)
			n := len(raw)
			if n > ft.Length {
				n = ft.Length
			}
			payload := make([]byte, ft.Length)
			copy(payload, raw[:n])
			if err := binary.Write(buf, binary.BigEndian, int32(n)); err != nil {
				return err
			}
			if _, err := buf.Write(payload); err != nil {
				return err
			}
		default:
			return newDbErr(ErrTypeMismatch, "unsupported field type %T", field)
		}
	}
	return nil
}

// readTupleFrom deserializes one tuple of the given Schema from buf.
func readTupleFrom(buf *bytes.Buffer, desc *Schema) (*Tuple, error) {
	t := &Tuple{Desc: *desc}
	for _, ft := range desc.Fields {
		switch ft.Ftype {
		case StringType:
			var declared int32
			if err := binary.Read(buf, binary.BigEndian, &declared); err != nil {
				return nil, err
			}
			raw := make([]byte, ft.Length)
			if _, err := io.ReadFull(buf, raw); err != nil {
				return nil, err
			}
			n := int(declared)
			if n < 0 || n > len(raw) {
				n = len(raw)
			}
			s := string(raw[:n])
			t.Fields = append(t.Fields, StringField{Value: s})
		default:
			var v int32
			if err := binary.Read(buf, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, IntField{Value: v})
		}
	}
	return t, nil
}

// Equals compares two tuples for equality of schema and field values.
func (t *Tuple) Equals(o *Tuple) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Fields) != len(o.Fields) || !t.Desc.Equals(&o.Desc) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// Join merges two tuples into one whose schema and fields are t1's
// followed by t2's.
func Join(t1, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	return &Tuple{
		Desc:   *t1.Desc.Merge(&t2.Desc),
		Fields: append(append([]DBValue{}, t1.Fields...), t2.Fields...),
	}
}

// Project returns a new tuple containing just the named fields, preferring
// a TableQualifier match when the requested field specifies one.
func (t *Tuple) Project(fields []FieldType) (*Tuple, error) {
	out := &Tuple{Desc: Schema{}, Fields: make([]DBValue, 0, len(fields))}
	for _, want := range fields {
		idx := -1
		for i, f := range t.Desc.Fields {
			if f.Fname == want.Fname && f.TableQualifier == want.TableQualifier {
				idx = i
				break
			}
		}
		if idx == -1 {
			for i, f := range t.Desc.Fields {
				if f.Fname == want.Fname {
					idx = i
					break
				}
			}
		}
		if idx == -1 {
			return nil, newDbErr(ErrUnknown, "field %s.%s not found", want.TableQualifier, want.Fname)
		}
		out.Fields = append(out.Fields, t.Fields[idx])
		out.Desc.Fields = append(out.Desc.Fields, t.Desc.Fields[idx])
	}
	return out, nil
}

// Key returns a value usable as a map key identifying t's field values
// (not its RecordID), used by distinct projection to dedup.
func (t *Tuple) Key() any {
	var buf bytes.Buffer
	_ = t.writeTo(&buf)
	return buf.String()
}

// PrettyPrint renders t as a comma-separated string, or " | "-separated
// when aligned is true; fields are not padded to a common width.
func (t *Tuple) PrettyPrint(aligned bool) string {
	var parts []string
	for _, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			parts = append(parts, strconv.FormatInt(int64(v.Value), 10))
		case StringField:
			parts = append(parts, v.Value)
		}
	}
	if aligned {
		return strings.Join(parts, " | ")
	}
	return strings.Join(parts, ",")
}
