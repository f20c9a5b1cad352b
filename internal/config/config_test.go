package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwvctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: example.com
namespace: dev-datawave
cert: /certs/user.pem
headers:
  X-Proxied-Entities: cn=test
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.URL)
	assert.Equal(t, "dev-datawave", cfg.Namespace)
	assert.Equal(t, "/certs/user.pem", cfg.Cert)
	assert.Equal(t, "cn=test", cfg.Headers["X-Proxied-Entities"])
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwvctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nonsense: true\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvURL, "env.example.com")
	t.Setenv(EnvNamespace, "env-ns")

	cfg := FromEnv()
	assert.Equal(t, "env.example.com", cfg.URL)
	assert.Equal(t, "env-ns", cfg.Namespace)
}

func TestMergePrecedence(t *testing.T) {
	base := Config{URL: "file.example.com", Namespace: "file-ns", Cert: "/certs/a.pem"}
	override := Config{URL: "flag.example.com"}

	merged := base.Merge(override)
	assert.Equal(t, "flag.example.com", merged.URL)
	assert.Equal(t, "file-ns", merged.Namespace)
	assert.Equal(t, "/certs/a.pem", merged.Cert)
}

func TestMergeHeaders(t *testing.T) {
	base := Config{Headers: map[string]string{"A": "1", "B": "2"}}
	merged := base.Merge(Config{Headers: map[string]string{"B": "3"}})

	assert.Equal(t, "1", merged.Headers["A"])
	assert.Equal(t, "3", merged.Headers["B"])
}

func TestParseHeaders(t *testing.T) {
	headers, err := ParseHeaders([]string{"X-One: a", "X-Two:b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-One": "a", "X-Two": "b"}, headers)

	_, err = ParseHeaders([]string{"malformed"})
	assert.Error(t, err)

	headers, err = ParseHeaders(nil)
	require.NoError(t, err)
	assert.Nil(t, headers)
}
