// Package client provides the authenticated HTTPS client shared by every
// DataWave interaction. It owns base URL resolution (virtual host, pod IP,
// or localhost), the mutual-TLS certificate pair, and custom header
// injection. Retry and backoff policy belong to callers, not here.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures a Client.
type Options struct {
	// Host is the DNS name of the DataWave ingress. The per-service
	// virtual host is prepended to it, e.g. "dwv-dictionary.<Host>".
	// Ignored when PodIP or Localhost is set.
	Host string

	// PodIP targets a pod directly by IP, bypassing DNS.
	PodIP string

	// Localhost targets a port-forwarded local deployment.
	Localhost bool

	// Port used with PodIP and Localhost addressing.
	Port int

	// CertFile and KeyFile are the PEM pair presented to the service.
	// A combined cert+key PEM may be passed as CertFile alone.
	CertFile string
	KeyFile  string

	// Headers are added to every request.
	Headers map[string]string

	// Timeout bounds each individual request.
	Timeout time.Duration

	// BaseURL overrides address resolution entirely. Used by tests.
	BaseURL string

	// Logger for the client.
	Logger *zap.Logger
}

// DefaultOptions returns default options for the client.
func DefaultOptions() Options {
	return Options{
		Port:    8443,
		Timeout: 30 * time.Second,
		Logger:  zap.NewNop(),
	}
}

// Client issues requests against one DataWave service.
type Client struct {
	base    string
	headers map[string]string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the named service ("datawave",
// "dwv-dictionary", "dwv-authorization"). The service name becomes the
// virtual-host prefix under DNS addressing and is ignored for the other
// addressing modes.
func New(service string, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Port == 0 {
		opts.Port = DefaultOptions().Port
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	base, err := resolveBase(service, opts)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		// Deployments terminate TLS with self-signed certificates; the
		// service is authenticated by possession of the client cert,
		// not by verifying the server chain.
		InsecureSkipVerify: true,
	}
	if opts.CertFile != "" {
		keyFile := opts.KeyFile
		if keyFile == "" {
			keyFile = opts.CertFile
		}
		cert, err := tls.LoadX509KeyPair(opts.CertFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return &Client{
		base:    base,
		headers: opts.Headers,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
		logger: opts.Logger.Named("client").With(zap.String("service", service)),
	}, nil
}

func resolveBase(service string, opts Options) (string, error) {
	switch {
	case opts.BaseURL != "":
		return strings.TrimSuffix(opts.BaseURL, "/"), nil
	case opts.Localhost:
		return fmt.Sprintf("https://localhost:%d", opts.Port), nil
	case opts.PodIP != "":
		return fmt.Sprintf("https://%s:%d", opts.PodIP, opts.Port), nil
	case opts.Host != "":
		return fmt.Sprintf("https://%s.%s", service, opts.Host), nil
	}
	return "", fmt.Errorf("no DataWave host configured: set --url, --ip, or --localhost")
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// Get issues a GET against the given path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// GetForm issues a GET carrying form-encoded parameters in the body.
// The dictionary endpoint reads its auths and data type filters this
// way rather than from the query string.
func (c *Client) GetForm(ctx context.Context, path string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// PostForm issues a form-encoded POST against the given path.
func (c *Client) PostForm(ctx context.Context, path string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	c.logger.Debug("response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode))
	return resp, nil
}

// ReadBody drains and closes a response body, returning it as a string.
func ReadBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(body), nil
}

// StatusError reports an unexpected HTTP status from the service.
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Path, e.Status)
}

// ExpectOK returns a StatusError unless the response is 200 or 204. The
// body is drained at debug level so failures stay diagnosable.
func (c *Client) ExpectOK(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	body, _ := ReadBody(resp)
	c.logger.Debug("unexpected status body", zap.String("body", body))
	return &StatusError{Status: resp.StatusCode, Path: resp.Request.URL.Path}
}
