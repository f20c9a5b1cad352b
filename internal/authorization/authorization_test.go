package authorization

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
	c, err := client.New("dwv-authorization", opts)
	require.NoError(t, err)
	return New(c, zaptest.NewLogger(t))
}

func TestWhoAmIIndentsJSON(t *testing.T) {
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/authorization/v1/whoami", r.URL.Path)
		io.WriteString(w, `{"dn":"cn=test","auths":["PUBLIC"]}`)
	}))

	out, err := svc.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{\n \"dn\": \"cn=test\",\n \"auths\": [\n  \"PUBLIC\"\n ]\n}", out)
}

func TestWhoAmIPassesThroughPlainText(t *testing.T) {
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "cn=test")
	}))

	out, err := svc.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cn=test", out)
}

func TestWhoAmIFailure(t *testing.T) {
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no certificate presented", http.StatusUnauthorized)
	}))

	_, err := svc.WhoAmI(context.Background())
	assert.Error(t, err)
}
