package dictionary

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dwvctl/dwv/internal/client"
	"github.com/dwvctl/dwv/internal/results"
)

const sampleResponse = `{"MetadataFields":[
	{"fieldName":"FIELD_ONE","dataType":"mydata","forwardIndexed":true,"reverseIndexed":false,
	 "Types":["LcNoDiacriticsType"],"tokenized":true,"normalized":false,"indexOnly":false,
	 "Descriptions":[],"lastUpdated":"20240101"},
	{"fieldName":"FIELD_TWO","dataType":"mydata","forwardIndexed":false,"reverseIndexed":true,
	 "Types":[],"tokenized":false,"normalized":true,"indexOnly":true,
	 "Descriptions":[],"lastUpdated":"20240102"}
]}`

func newService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	ts := httptest.NewTLSServer(handler)
	t.Cleanup(ts.Close)

	opts := client.DefaultOptions()
	opts.BaseURL = ts.URL
	c, err := client.New("dwv-dictionary", opts)
	require.NoError(t, err)
	return New(c, zaptest.NewLogger(t))
}

func TestFetch(t *testing.T) {
	var gotBody string
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dictionary/data/v1/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, sampleResponse)
	}))

	fields, err := svc.Fetch(context.Background(), "PUBLIC,PRIVATE", "mydata")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "FIELD_ONE", fields[0].Name)
	assert.Equal(t, "mydata", fields[0].DataType)
	assert.True(t, fields[0].ForwardIndexed)
	assert.Equal(t, []string{"LcNoDiacriticsType"}, fields[0].Types)
	assert.Equal(t, "20240102", fields[1].LastUpdated)

	assert.Contains(t, gotBody, "auths=PUBLIC%2CPRIVATE")
	assert.Contains(t, gotBody, "dataTypeFilters=mydata")
}

func TestFetchStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing metadata fields", `{}`},
		{"missing field name", `{"MetadataFields":[{"dataType":"d"}]}`},
		{"missing data type", `{"MetadataFields":[{"fieldName":"F"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			_, err := svc.Fetch(context.Background(), "PUBLIC", "")
			var serr *results.StructuralError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

func TestTableLayout(t *testing.T) {
	fields := []Field{
		{Name: "FIELD_ONE", DataType: "mydata", ForwardIndexed: true, Types: []string{"a", "b"}, LastUpdated: "20240101"},
	}

	var buf bytes.Buffer
	require.NoError(t, Table(fields).Write(&buf))
	out := buf.String()

	assert.Contains(t, out, "name     |Data Type|")
	assert.Contains(t, out, "FIELD_ONE|mydata   |")
	assert.Contains(t, out, "a, b")
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(nil).Write(&buf))
	// Header and divider only.
	assert.Contains(t, buf.String(), "name|")
}
