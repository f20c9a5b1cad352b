// Package dictionary fetches and renders the DataWave data dictionary.
package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dwvctl/dwv/internal/client"
	"github.com/dwvctl/dwv/internal/render"
	"github.com/dwvctl/dwv/internal/results"
)

const dataEndpoint = "/dictionary/data/v1/"

// Field is one dictionary entry describing an indexed field.
type Field struct {
	Name           string
	DataType       string
	ForwardIndexed bool
	ReverseIndexed bool
	Types          []string
	Tokenized      bool
	Normalized     bool
	IndexOnly      bool
	Descriptions   json.RawMessage
	LastUpdated    string
}

// Wire shape of the dictionary response. Pointer fields distinguish
// missing elements from empty ones, as in the query results decoder.
type response struct {
	MetadataFields *[]metadataField `json:"MetadataFields"`
}

type metadataField struct {
	FieldName      *string         `json:"fieldName"`
	DataType       *string         `json:"dataType"`
	ForwardIndexed bool            `json:"forwardIndexed"`
	ReverseIndexed bool            `json:"reverseIndexed"`
	Types          []string        `json:"Types"`
	Tokenized      bool            `json:"tokenized"`
	Normalized     bool            `json:"normalized"`
	IndexOnly      bool            `json:"indexOnly"`
	Descriptions   json.RawMessage `json:"Descriptions"`
	LastUpdated    string          `json:"lastUpdated"`
}

// Service wraps the dictionary interactions.
type Service struct {
	client *client.Client
	logger *zap.Logger
}

func New(c *client.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, logger: logger.Named("dictionary")}
}

// Fetch retrieves the dictionary entries visible under auths,
// optionally restricted to a comma-separated list of data types.
func (s *Service) Fetch(ctx context.Context, auths, dataTypes string) ([]Field, error) {
	s.logger.Info("fetching the field dictionary",
		zap.String("auths", auths),
		zap.String("data_types", dataTypes))

	resp, err := s.client.GetForm(ctx, dataEndpoint, url.Values{
		"auths":           {auths},
		"dataTypeFilters": {dataTypes},
	})
	if err != nil {
		return nil, err
	}
	if err := s.client.ExpectOK(resp); err != nil {
		return nil, fmt.Errorf("fetching dictionary: %w", err)
	}
	defer resp.Body.Close()

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding dictionary response: %w", err)
	}
	return parseFields(&decoded)
}

func parseFields(decoded *response) ([]Field, error) {
	if decoded.MetadataFields == nil {
		return nil, &results.StructuralError{Path: "MetadataFields"}
	}

	fields := make([]Field, 0, len(*decoded.MetadataFields))
	for i, mf := range *decoded.MetadataFields {
		switch {
		case mf.FieldName == nil:
			return nil, &results.StructuralError{Path: fmt.Sprintf("MetadataFields[%d].fieldName", i)}
		case mf.DataType == nil:
			return nil, &results.StructuralError{Path: fmt.Sprintf("MetadataFields[%d].dataType", i)}
		}
		fields = append(fields, Field{
			Name:           *mf.FieldName,
			DataType:       *mf.DataType,
			ForwardIndexed: mf.ForwardIndexed,
			ReverseIndexed: mf.ReverseIndexed,
			Types:          mf.Types,
			Tokenized:      mf.Tokenized,
			Normalized:     mf.Normalized,
			IndexOnly:      mf.IndexOnly,
			Descriptions:   mf.Descriptions,
			LastUpdated:    mf.LastUpdated,
		})
	}
	return fields, nil
}

// Table lays the fields out in the column order operators are used to
// reading.
func Table(fields []Field) *render.Table {
	table := &render.Table{
		Columns: []string{
			"name", "Data Type", "Forward Indexed", "Reversed Indexed",
			"Types", "Tokenized", "Normalized", "Index Only",
			"Descriptions", "Last Updated",
		},
	}
	for _, f := range fields {
		table.AddRow(
			f.Name,
			f.DataType,
			strconv.FormatBool(f.ForwardIndexed),
			strconv.FormatBool(f.ReverseIndexed),
			strings.Join(f.Types, ", "),
			strconv.FormatBool(f.Tokenized),
			strconv.FormatBool(f.Normalized),
			strconv.FormatBool(f.IndexOnly),
			descriptionText(f.Descriptions),
			f.LastUpdated,
		)
	}
	return table
}

func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	return string(raw)
}
