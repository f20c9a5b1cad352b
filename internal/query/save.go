package query

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dwvctl/dwv/internal/results"
)

// Metadata describes the query a saved result file came from. Field
// names match the layout long-standing tooling reads back.
type Metadata struct {
	Query           string `json:"Query"`
	ReturnedEvents  int    `json:"Returned Events"`
	Auths           string `json:"Auths"`
	Cert            string `json:"Cert"`
	TimestampMillis int64  `json:"Unix Timestamp(ms)"`
}

// NewMetadata builds the metadata block for a finished query. The cert
// path is reduced to its base name; the full path is a local detail.
func NewMetadata(params Params, returned int, certFile string) Metadata {
	cert := filepath.Base(certFile)
	cert = strings.TrimSuffix(cert, filepath.Ext(cert))
	return Metadata{
		Query:           params.Query,
		ReturnedEvents:  returned,
		Auths:           params.Auths,
		Cert:            cert,
		TimestampMillis: time.Now().UnixMilli(),
	}
}

type savedResults struct {
	Metadata Metadata         `json:"metadata"`
	Events   []results.Record `json:"events"`
}

// Save writes the records and their metadata to path as indented JSON.
// An existing file at path is renamed with an _old suffix rather than
// overwritten.
func Save(path string, meta Metadata, records []results.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(path)
		renamed := strings.TrimSuffix(path, ext) + "_old" + ext
		if err := os.Rename(path, renamed); err != nil {
			return fmt.Errorf("renaming existing output file: %w", err)
		}
	}

	out, err := json.MarshalIndent(savedResults{Metadata: meta, Events: records}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
