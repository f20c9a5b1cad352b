// Package accumulo drives the Accumulo table cache endpoints on the
// DataWave web service.
package accumulo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dwvctl/dwv/internal/client"
)

const (
	cacheEndpoint  = "/DataWave/Common/AccumuloTableCache/"
	reloadEndpoint = cacheEndpoint + "reload/datawave.metadata"
)

// Service wraps the cache interactions.
type Service struct {
	client *client.Client
	logger *zap.Logger
}

func New(c *client.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, logger: logger.Named("accumulo")}
}

// Reload asks the service to refresh the metadata table cache.
func (s *Service) Reload(ctx context.Context) error {
	s.logger.Info("reloading the accumulo cache")
	resp, err := s.client.Get(ctx, reloadEndpoint)
	if err != nil {
		return err
	}
	if err := s.client.ExpectOK(resp); err != nil {
		return fmt.Errorf("requesting cache reload: %w", err)
	}
	resp.Body.Close()
	s.logger.Info("reload requested")
	return nil
}

// Status returns the cache state as reported by the service.
func (s *Service) Status(ctx context.Context) (string, error) {
	s.logger.Info("viewing the accumulo cache")
	resp, err := s.client.Get(ctx, cacheEndpoint)
	if err != nil {
		return "", err
	}
	if err := s.client.ExpectOK(resp); err != nil {
		return "", fmt.Errorf("fetching cache status: %w", err)
	}
	return client.ReadBody(resp)
}
