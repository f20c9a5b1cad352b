// Package results normalizes the event/field structure returned by the
// DataWave query service into flat records, and projects those records
// onto a caller-supplied field list.
package results

import (
	"sort"
	"strings"
)

// Value is a field value within a flattened record. A field name that
// appears once in an event yields a Single; a name that repeats within
// the same event yields a Multi holding every occurrence in encounter
// order.
type Value interface {
	String() string

	// merge folds another occurrence of the same field name into this
	// value, preserving encounter order.
	merge(s string) Value
}

// Single is a field value that occurred exactly once in its event.
type Single string

func (v Single) String() string { return string(v) }

func (v Single) merge(s string) Value { return Multi{string(v), s} }

// Multi is a field value for a name that occurred more than once in its
// event, first occurrence first.
type Multi []string

func (v Multi) String() string { return strings.Join(v, ", ") }

func (v Multi) merge(s string) Value { return append(v, s) }

// Record is one flattened event: field name to value. Keys are the
// distinct field names of the source event.
type Record map[string]Value

// Keys returns the record's field names in lexical order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
