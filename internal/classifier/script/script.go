// Package script runs the ingredient classification model as a local
// subprocess: an interpreter invoking a script with the image path as its
// single argument, printing exactly one JSON result line on stdout.
package script

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/snapcook/backend/internal/classifier"
)

// Config holds subprocess classifier settings.
type Config struct {
	// Interpreter is the executable that runs the script, e.g. "python3".
	Interpreter string
	// ScriptPath is the classification script handed to the interpreter.
	ScriptPath string
	// Timeout bounds a single classification run.
	Timeout time.Duration
}

// DefaultConfig returns subprocess classifier defaults.
func DefaultConfig() Config {
	return Config{
		Interpreter: "python3",
		ScriptPath:  "scripts/classify.py",
		Timeout:     10 * time.Second,
	}
}

// Classifier invokes the classification script once per image.
type Classifier struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a subprocess classifier.
func New(cfg Config, logger *slog.Logger) *Classifier {
	return &Classifier{cfg: cfg, logger: logger}
}

// Classify runs the script against the stored image and decodes its result
// line. The subprocess is killed when the deadline passes; WaitDelay bounds
// the wait for grandchildren still holding the stdout pipe, so a forked model
// runner cannot keep the request hung past the deadline.
func (c *Classifier) Classify(ctx context.Context, imagePath string) (*classifier.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.Interpreter, c.cfg.ScriptPath, imagePath)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		c.logger.ErrorContext(ctx, "classifier subprocess failed",
			slog.String("image", imagePath),
			slog.String("stderr", stderr.String()),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", classifier.ErrProcess, err)
	}

	res, err := resultLine(stdout.Bytes())
	if err != nil {
		c.logger.ErrorContext(ctx, "classifier output unreadable",
			slog.String("image", imagePath),
			slog.String("stdout", stdout.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	c.logger.DebugContext(ctx, "image classified",
		slog.String("image", imagePath),
		slog.String("label", res.Label),
		slog.Float64("confidence", res.Confidence),
		slog.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// resultLine scans subprocess stdout for the structured result line, skipping
// any chatter the model runner prints around it (load messages, progress
// bars). The last parse error is returned when no line decodes.
func resultLine(output []byte) (*classifier.Result, error) {
	err := classifier.ErrMalformedResult
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		res, parseErr := classifier.ParseResult(line)
		if parseErr == nil {
			return res, nil
		}
		err = parseErr
	}
	return nil, fmt.Errorf("no result line in classifier output: %w", err)
}
