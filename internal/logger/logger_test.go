package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpdf/pkg/logging"
)

func TestNewWithOptions_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pdf-mailer.log")

	log, err := NewWithOptions(Options{
		Level:       "debug",
		ServiceName: "pdf-mailer",
		File:        path,
		MaxSizeMB:   1,
	})
	require.NoError(t, err)

	ctx := logging.WithRequestID(context.Background(), "req-7")
	log.InfowCtx(ctx, "Document sent", "provider", "sendgrid")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Document sent", entry["message"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "pdf-mailer", entry["service_name"])
	assert.Equal(t, "sendgrid", entry["provider"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "warn", parseLevel("warn").String())
	assert.Equal(t, "info", parseLevel("verbose").String())
}
