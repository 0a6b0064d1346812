package model

import (
	"encoding/json"
	"strconv"
)

// ValueKind distinguishes a field missing from a record from a field that is
// present but null.
type ValueKind uint8

const (
	ValueAbsent ValueKind = iota // field not in the record at all
	ValueNull                    // field present, JSON null
	ValueScalar                  // field present with a value
)

// Value is one cell of an Ours/PROD record or a diff row. Raw holds the
// textual form as received (strings unquoted, numbers verbatim) so that
// display never reformats a backend value.
type Value struct {
	Kind ValueKind
	Raw  string
}

// Absent is the zero Value.
func Absent() Value { return Value{} }

// Null returns a present-but-null value.
func Null() Value { return Value{Kind: ValueNull} }

// Scalar returns a present value with the given text.
func Scalar(raw string) Value { return Value{Kind: ValueScalar, Raw: raw} }

// Present reports whether the field exists in its record.
func (v Value) Present() bool { return v.Kind != ValueAbsent }

// Display renders the value for a table cell: "-" when absent, "Null" when
// null, otherwise the raw text.
func (v Value) Display() string {
	switch v.Kind {
	case ValueAbsent:
		return "-"
	case ValueNull:
		return "Null"
	default:
		return v.Raw
	}
}

// Float parses the raw text as a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != ValueScalar {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MarshalJSON renders the display form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Display())
}
