package voice

import (
	"strconv"
	"strings"
)

// Value is a dynamically typed event parameter: either a number or text.
// Numeric strings coerce to numbers on demand.
type Value struct {
	num    float64
	text   string
	isText bool
}

// Number makes a numeric Value.
func Number(v float64) Value { return Value{num: v} }

// Text makes a textual Value.
func Text(s string) Value { return Value{text: s, isText: true} }

// IsText reports whether the value carries text rather than a number.
func (v Value) IsText() bool { return v.isText }

// ParseAsDouble returns the numeric reading of the value. Textual values
// parse as floats; unparseable text yields (0, false).
func (v Value) ParseAsDouble() (float64, bool) {
	if !v.isText {
		return v.num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String returns the textual reading of the value.
func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// Truthy reports whether the value counts as true. The empty string,
// "false", and strings that parse to zero are falsy; so is numeric zero.
func (v Value) Truthy() bool {
	if !v.isText {
		return v.num != 0
	}
	s := strings.TrimSpace(v.text)
	if s == "" || strings.EqualFold(s, "false") {
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0
	}
	return true
}
