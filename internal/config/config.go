// Package config resolves the settings shared by every subcommand.
// Precedence: command-line flag, then environment, then config file,
// then defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// Environment variables honored when the corresponding flag is unset.
const (
	EnvURL       = "DWV_URL"
	EnvNamespace = "DWV_NAMESPACE"
)

// Config holds the connection settings for a DataWave deployment.
type Config struct {
	// URL is the DNS name of the DataWave ingress.
	URL string `json:"url,omitempty"`

	// Namespace is the Kubernetes namespace holding the deployment.
	Namespace string `json:"namespace,omitempty"`

	// Cert and Key are the PEM pair presented to the service.
	Cert string `json:"cert,omitempty"`
	Key  string `json:"key,omitempty"`

	// Headers are added to every request.
	Headers map[string]string `json:"headers,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{Namespace: "default"}
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv returns the settings present in the environment.
func FromEnv() Config {
	return Config{
		URL:       os.Getenv(EnvURL),
		Namespace: os.Getenv(EnvNamespace),
	}
}

// Merge overlays other on top of c, field by field. Set fields in
// other win; unset fields keep c's value.
func (c Config) Merge(other Config) Config {
	if other.URL != "" {
		c.URL = other.URL
	}
	if other.Namespace != "" {
		c.Namespace = other.Namespace
	}
	if other.Cert != "" {
		c.Cert = other.Cert
	}
	if other.Key != "" {
		c.Key = other.Key
	}
	if len(other.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(other.Headers))
		}
		for k, v := range other.Headers {
			c.Headers[k] = v
		}
	}
	return c
}

// ParseHeaders turns repeated "Name: value" flag values into a header
// map.
func ParseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("header %q must be in \"Name: value\" form", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}
