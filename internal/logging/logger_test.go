package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFanout_WritesToAllHandlers(t *testing.T) {
	var text, js bytes.Buffer
	logger := NewFanout(
		NewTextHandler(&text, slog.LevelInfo),
		NewJSONHandler(&js, slog.LevelDebug),
	)

	logger.Debug("only json", "n", 1)
	logger.Info("both", "error", "boom")

	assert.NotContains(t, text.String(), "only json")
	assert.Contains(t, text.String(), "err=boom")

	lines := bytes.Split(bytes.TrimSpace(js.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &rec))
	assert.Equal(t, "boom", rec["err"])
	assert.NotContains(t, rec, "error")
}

func TestNewFanout_Degenerate(t *testing.T) {
	assert.NotNil(t, NewFanout())

	var buf bytes.Buffer
	NewFanout(NewTextHandler(&buf, slog.LevelInfo)).Info("single")
	assert.Contains(t, buf.String(), "single")
}
