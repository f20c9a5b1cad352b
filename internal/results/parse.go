package results

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response is the top-level shape returned by the EventQuery endpoints.
// Pointer fields distinguish a missing element from an empty one so that
// structural problems surface instead of decaying into zero values.
type Response struct {
	Events         *[]Event `json:"Events"`
	ReturnedEvents int      `json:"ReturnedEvents"`
}

// Event is one unit of query result, holding zero or more fields.
type Event struct {
	Fields *[]Field `json:"Fields"`
}

// Field is a single name/value pair within an event. Names may repeat
// within one event.
type Field struct {
	Name  *string     `json:"name"`
	Value *FieldValue `json:"Value"`
}

// FieldValue is the nesting the service wraps every literal value in.
type FieldValue struct {
	Value *string `json:"value"`
}

// StructuralError reports a response that does not conform to the
// expected Events/Fields/name/Value shape. It is not recoverable for
// the call that produced it.
type StructuralError struct {
	Path string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed query response: missing %s", e.Path)
}

// Decode reads one JSON response body from r.
func Decode(r io.Reader) (*Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return &resp, nil
}

// Parse flattens a raw response into one Record per event, in event
// order. Within an event, the first occurrence of a field name sets a
// Single value; later occurrences of the same name merge into a Multi
// in encounter order, whether the duplicates are adjacent or separated
// by other fields. Events are never merged with each other.
func Parse(resp *Response) ([]Record, error) {
	if resp == nil || resp.Events == nil {
		return nil, &StructuralError{Path: "Events"}
	}

	records := make([]Record, 0, len(*resp.Events))
	for i, event := range *resp.Events {
		if event.Fields == nil {
			return nil, &StructuralError{Path: fmt.Sprintf("Events[%d].Fields", i)}
		}

		record := make(Record, len(*event.Fields))
		for j, field := range *event.Fields {
			switch {
			case field.Name == nil:
				return nil, &StructuralError{Path: fmt.Sprintf("Events[%d].Fields[%d].name", i, j)}
			case field.Value == nil:
				return nil, &StructuralError{Path: fmt.Sprintf("Events[%d].Fields[%d].Value", i, j)}
			case field.Value.Value == nil:
				return nil, &StructuralError{Path: fmt.Sprintf("Events[%d].Fields[%d].Value.value", i, j)}
			}

			name, value := *field.Name, *field.Value.Value
			if existing, ok := record[name]; ok {
				record[name] = existing.merge(value)
			} else {
				record[name] = Single(value)
			}
		}
		records = append(records, record)
	}

	return records, nil
}
