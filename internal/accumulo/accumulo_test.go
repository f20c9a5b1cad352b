package accumulo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dwvctl/dwv/internal/client"
)

func newService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	ts := httptest.NewTLSServer(handler)
	t.Cleanup(ts.Close)

	opts := client.DefaultOptions()
	opts.BaseURL = ts.URL
	c, err := client.New("datawave", opts)
	require.NoError(t, err)
	return New(c, zaptest.NewLogger(t))
}

func TestReload(t *testing.T) {
	var gotPath string
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))

	require.NoError(t, svc.Reload(context.Background()))
	assert.Equal(t, "/DataWave/Common/AccumuloTableCache/reload/datawave.metadata", gotPath)
}

func TestReloadFailure(t *testing.T) {
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
	}))

	assert.Error(t, svc.Reload(context.Background()))
}

func TestStatus(t *testing.T) {
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DataWave/Common/AccumuloTableCache/", r.URL.Path)
		io.WriteString(w, "<cache>ok</cache>")
	}))

	body, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<cache>ok</cache>", body)
}
