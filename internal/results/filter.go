package results

import (
	"fmt"
	"strings"
)

// NotFound is the placeholder substituted when a requested field is
// absent from a particular record.
const NotFound = Single("Not Found")

// FieldsNotFoundError reports that no requested field occurs anywhere
// in the result set. A field missing from only some records is not an
// error; records carry heterogeneous schemas and get the NotFound
// placeholder instead.
type FieldsNotFoundError struct {
	Fields []string
}

func (e *FieldsNotFoundError) Error() string {
	return fmt.Sprintf("none of the requested fields %v found in any result", e.Fields)
}

// SplitFields parses the comma-separated field list accepted by the
// --filter flag. An empty or all-whitespace input yields nil, meaning
// no filtering.
func SplitFields(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Filter projects each record onto exactly the requested fields,
// copying the value when present and substituting NotFound when not.
// A nil or empty field list returns the input unchanged. When none of
// the requested fields occurs in any record the whole call fails with
// a FieldsNotFoundError; that usually means a typo in the field list.
func Filter(records []Record, fields []string) ([]Record, error) {
	if len(fields) == 0 {
		return records, nil
	}

	found := false
	for _, record := range records {
		for _, f := range fields {
			if _, ok := record[f]; ok {
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		return nil, &FieldsNotFoundError{Fields: fields}
	}

	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		projected := make(Record, len(fields))
		for _, f := range fields {
			if v, ok := record[f]; ok {
				projected[f] = v
			} else {
				projected[f] = NotFound
			}
		}
		filtered = append(filtered, projected)
	}
	return filtered, nil
}
