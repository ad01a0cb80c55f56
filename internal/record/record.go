// Package record models one unit of batch work: an immutable mapping from
// column name to a typed scalar value. Cell types are resolved once at the
// data-source boundary so downstream components never re-infer type from a
// raw runtime value.
package record

import (
	"strconv"
	"time"
)

// Kind discriminates the value variant.
type Kind int

const (
	Absent Kind = iota
	String
	Number
	Date
)

// Value is a tagged scalar cell value.
type Value struct {
	kind Kind
	str  string
	num  float64
	ts   time.Time
}

// AbsentValue represents a missing or empty cell.
func AbsentValue() Value { return Value{kind: Absent} }

// StringValue wraps a text cell.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue wraps a numeric cell.
func NumberValue(n float64) Value { return Value{kind: Number, num: n} }

// DateValue wraps a date/timestamp cell.
func DateValue(t time.Time) Value { return Value{kind: Date, ts: t} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the cell held no value.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// Number returns the numeric payload; zero unless Kind is Number.
func (v Value) Number() float64 { return v.num }

// Date returns the timestamp payload; zero unless Kind is Date.
func (v Value) Date() time.Time { return v.ts }

// String returns the canonical text representation of the value. Numbers
// render without trailing zeros; dates render RFC 3339; absent renders "".
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Date:
		return v.ts.Format(time.RFC3339)
	default:
		return ""
	}
}

// Record is one row of source data. RowID is an opaque identifier used only
// for reporting; the engine never writes back to the source.
type Record struct {
	RowID  string
	Fields map[string]Value
}

// Get returns the value for a column, or an absent value when the column is
// not part of this record's key set.
func (r Record) Get(field string) Value {
	v, ok := r.Fields[field]
	if !ok {
		return AbsentValue()
	}
	return v
}

// Has reports whether the column exists in this record's key set.
func (r Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}
