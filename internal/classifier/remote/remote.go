// Package remote implements the classification gateway against a separately
// deployed inference service over HTTP, protected by a circuit breaker.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/snapcook/backend/internal/classifier"
	"github.com/snapcook/backend/pkg/httpclient"
)

// Classifier posts the stored image path to an inference endpoint and decodes
// the JSON result body. The inference service reads the shared uploads
// volume, so only the path crosses the wire.
type Classifier struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// New creates a remote classifier. baseURL is the inference service root,
// e.g. "http://classifier:5001".
func New(client *httpclient.CircuitBreakerClient, baseURL string, logger *slog.Logger) *Classifier {
	return &Classifier{client: client, baseURL: baseURL, logger: logger}
}

type classifyRequest struct {
	ImagePath string `json:"image_path"`
}

// Classify asks the inference service to label the image.
func (c *Classifier) Classify(ctx context.Context, imagePath string) (*classifier.Result, error) {
	payload, err := json.Marshal(classifyRequest{ImagePath: imagePath})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	resp, err := c.client.Post(ctx, c.baseURL+"/classify", "application/json", bytes.NewReader(payload))
	if err != nil {
		c.logger.ErrorContext(ctx, "classifier request failed",
			slog.String("image", imagePath),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", classifier.ErrProcess, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		downstream := httpclient.ParseResponseError(resp, "classifier")
		if httpclient.IsClientError(resp.StatusCode) {
			c.logger.WarnContext(ctx, "classifier rejected request",
				slog.String("image", imagePath),
				slog.Int("status", resp.StatusCode),
			)
		}
		return nil, fmt.Errorf("%w: %w", classifier.ErrProcess, downstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", classifier.ErrProcess, err)
	}

	return classifier.ParseResult(bytes.TrimSpace(body))
}
