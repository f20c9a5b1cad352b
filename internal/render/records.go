package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dwvctl/dwv/internal/results"
)

const recordSeparator = "----------"

// rawDataPlaceholder stands in for raw binary fields in terminal
// output. The base64 payload is still carried through to file output.
const rawDataPlaceholder = "Contains raw data"

// Records prints flattened records as name: value lines, one block per
// record, separated by a dashed line. Keys print in lexical order so
// repeated runs are comparable. Fields carrying raw parquet payloads
// are elided behind a placeholder.
func Records(w io.Writer, records []results.Record) error {
	for _, record := range records {
		for _, name := range record.Keys() {
			value := record[name].String()
			if strings.Contains(name, "RAWDATA") {
				value = rawDataPlaceholder
			}
			if _, err := fmt.Fprintf(w, "%s: %s\n", name, value); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, recordSeparator); err != nil {
			return err
		}
	}
	return nil
}
