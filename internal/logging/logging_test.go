package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/errors"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "info", Format: "json"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("stage completed", zap.String("stage", "ManifestsPatched"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "stage completed", rec["msg"])
	assert.Equal(t, "ManifestsPatched", rec["stage"])
	assert.Equal(t, "info", rec["level"])
}

func TestNew_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn", Verbose: true})
	require.NoError(t, err)

	logger.Debug("running generator", zap.String("project", "widget"))
	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "running generator")
	assert.Contains(t, out, `"project": "widget"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "error"})
	require.NoError(t, err)

	logger.Warn("ignored")
	assert.Empty(t, buf.String())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	assert.Equal(t, errors.EConfigInvalid, errors.GetCode(err))

	_, err = New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Equal(t, errors.EUsage, errors.GetCode(err))
}
