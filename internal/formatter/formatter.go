// Package formatter converts raw typed cell values into the exact text a
// mapping renders. Format is total: every input produces a plain string and
// no input produces an error.
package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/record"
)

// DefaultDatePattern is used when neither the mapping nor the configuration
// names a date format.
const DefaultDatePattern = "MM/DD/YYYY"

// Formatter renders cell values according to a mapping's format rules.
// The reference time zone and fallback date pattern are configuration, not
// per-call inputs, so date output is deterministic for a fixed instant.
type Formatter struct {
	location    *time.Location
	datePattern string
}

// New creates a formatter rendering dates in the given zone, falling back
// to datePattern for mappings without one. A nil location means UTC; an
// empty pattern means DefaultDatePattern.
func New(loc *time.Location, datePattern string) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	if datePattern == "" {
		datePattern = DefaultDatePattern
	}
	return &Formatter{location: loc, datePattern: datePattern}
}

// Format renders a value per the mapping's rules. It never fails:
// absent values yield the mapping's default, dates honor the mapping's
// pattern (or the configured fallback), numbers with numberFormat render
// fixed-point with exactly decimalPlaces fractional digits, everything else
// renders its canonical string form. The output carries no markup or
// control sequences.
func (f *Formatter) Format(v record.Value, m mapping.FieldMapping) string {
	switch {
	case v.IsAbsent():
		return m.DefaultValue
	case v.Kind() == record.Date:
		pattern := m.DateFormat
		if pattern == "" {
			pattern = f.datePattern
		}
		return v.Date().In(f.location).Format(translatePattern(pattern))
	case v.Kind() == record.Number && m.NumberFormat:
		return strconv.FormatFloat(v.Number(), 'f', m.DecimalPlaces, 64)
	default:
		return v.String()
	}
}

// patternTokens maps authoring-tool date tokens to Go reference-time layout
// fragments. Longest tokens first so MM is not consumed as two Ms.
var patternTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"hh", "03"},
	{"mm", "04"},
	{"ss", "05"},
	{"A", "PM"},
	{"a", "pm"},
}

// translatePattern converts a token-style date pattern (MM/DD/YYYY) into a
// Go time layout. Unrecognized runs pass through literally.
func translatePattern(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, t := range patternTokens {
			if strings.HasPrefix(pattern[i:], t.token) {
				b.WriteString(t.layout)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}
