// Package classifier defines the ingredient classification gateway and its
// result contract, shared by the subprocess and remote implementations.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/snapcook/backend/internal/domain"
)

var (
	// ErrProcess means the classifier backend failed to produce a result
	// (process exit, transport failure, timeout).
	ErrProcess = errors.New("classifier process failed")

	// ErrMalformedResult means the backend ran but its output could not be
	// decoded into a result.
	ErrMalformedResult = errors.New("malformed classifier result")
)

// Result is a single classification outcome. Label is normalized lowercase.
type Result struct {
	Label      string  `json:"ingredient"`
	Confidence float64 `json:"confidence"`
}

// Classifier turns a stored image into an ingredient label.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (*Result, error)
}

// ParseResult decodes one JSON result line as emitted by a classifier
// backend: {"ingredient": "...", "confidence": 0.93}. The label is
// normalized; an empty label is malformed.
func ParseResult(line []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(line, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	res.Label = domain.NormalizeLabel(res.Label)
	if res.Label == "" {
		return nil, fmt.Errorf("%w: empty ingredient label", ErrMalformedResult)
	}
	return &res, nil
}
