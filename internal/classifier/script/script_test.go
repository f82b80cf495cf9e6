package script

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcook/backend/internal/classifier"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeScript drops a shell script into a temp dir so the classifier can be
// exercised without a real model. The subprocess contract only cares about
// the interpreter, the script path, and one JSON line on stdout.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classify.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newShellClassifier(t *testing.T, body string, timeout time.Duration) *Classifier {
	t.Helper()
	return New(Config{
		Interpreter: "/bin/sh",
		ScriptPath:  writeScript(t, body),
		Timeout:     timeout,
	}, newTestLogger())
}

func TestClassifier_Classify(t *testing.T) {
	c := newShellClassifier(t, `echo '{"ingredient": "Tomato", "confidence": 0.92}'`, 5*time.Second)

	res, err := c.Classify(context.Background(), "/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "tomato", res.Label)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
}

func TestClassifier_ReceivesImagePath(t *testing.T) {
	c := newShellClassifier(t, `printf '{"ingredient": "%s", "confidence": 1}' "$(basename "$1" .jpg)"`, 5*time.Second)

	res, err := c.Classify(context.Background(), "/uploads/onion.jpg")
	require.NoError(t, err)
	assert.Equal(t, "onion", res.Label)
}

func TestClassifier_ProcessFailure(t *testing.T) {
	c := newShellClassifier(t, `echo "model not found" >&2; exit 3`, 5*time.Second)

	_, err := c.Classify(context.Background(), "/uploads/a.jpg")
	assert.ErrorIs(t, err, classifier.ErrProcess)
}

func TestClassifier_MalformedOutput(t *testing.T) {
	c := newShellClassifier(t, `echo "Loaded model in 2.3s"`, 5*time.Second)

	_, err := c.Classify(context.Background(), "/uploads/a.jpg")
	assert.ErrorIs(t, err, classifier.ErrMalformedResult)
}

func TestClassifier_SkipsChatterAroundResult(t *testing.T) {
	c := newShellClassifier(t, `echo "Loading model weights..."
echo '{"ingredient": "Leek", "confidence": 0.71}'
echo "done in 1.2s"`, 5*time.Second)

	res, err := c.Classify(context.Background(), "/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "leek", res.Label)
	assert.InDelta(t, 0.71, res.Confidence, 1e-9)
}

func TestClassifier_Timeout(t *testing.T) {
	c := newShellClassifier(t, `sleep 5`, 100*time.Millisecond)

	start := time.Now()
	_, err := c.Classify(context.Background(), "/uploads/a.jpg")
	assert.ErrorIs(t, err, classifier.ErrProcess)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestClassifier_TimeoutWithForkedWorker(t *testing.T) {
	// A runner that forks leaves the stdout pipe held by the worker after the
	// direct child dies; the deadline must still bound the call.
	c := newShellClassifier(t, `sleep 5 &
wait`, 100*time.Millisecond)

	start := time.Now()
	_, err := c.Classify(context.Background(), "/uploads/a.jpg")
	assert.ErrorIs(t, err, classifier.ErrProcess)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestClassifier_CancelledContext(t *testing.T) {
	c := newShellClassifier(t, `sleep 5`, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Classify(ctx, "/uploads/a.jpg")
	assert.ErrorIs(t, err, classifier.ErrProcess)
}
