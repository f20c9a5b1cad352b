// Package authorization calls the DataWave authorization service.
package authorization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dwvctl/dwv/internal/client"
)

const whoamiEndpoint = "/authorization/v1/whoami"

// Service wraps the authorization interactions.
type Service struct {
	client *client.Client
	logger *zap.Logger
}

func New(c *client.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, logger: logger.Named("authorization")}
}

// WhoAmI returns the identity the service derives from the presented
// certificate, indented when the body is JSON and verbatim otherwise.
func (s *Service) WhoAmI(ctx context.Context) (string, error) {
	s.logger.Info("fetching authorization details for the presented cert")

	resp, err := s.client.Get(ctx, whoamiEndpoint)
	if err != nil {
		return "", err
	}
	if err := s.client.ExpectOK(resp); err != nil {
		return "", fmt.Errorf("calling whoami: %w", err)
	}

	body, err := client.ReadBody(resp)
	if err != nil {
		return "", err
	}
	return prettyJSON(body), nil
}

// prettyJSON indents a JSON body for display. Non-JSON bodies come
// back untouched; some deployments answer whoami with plain text.
func prettyJSON(body string) string {
	var indented bytes.Buffer
	if err := json.Indent(&indented, []byte(body), "", " "); err != nil {
		return body
	}
	return indented.String()
}
