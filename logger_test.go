package fatfs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fsys, _ := newTestFS(t, 8, WithLogger(logger))
	ctx := t.Context()

	require.NoError(t, fsys.Create(ctx, "a", "x"))
	_, err := fsys.Cat(ctx, "missing")
	require.Error(t, err)

	records := decodeRecords(t, &buf)
	require.NotEmpty(t, records)

	byMsg := make(map[string]map[string]any)
	for _, r := range records {
		byMsg[r["msg"].(string)] = r
	}

	created := byMsg["create completed"]
	require.NotNil(t, created)
	assert.Equal(t, "DEBUG", created["level"])
	assert.Equal(t, "a", created["path"])
	assert.EqualValues(t, 8, created["blocks"])

	changed := byMsg["blocks changed"]
	require.NotNil(t, changed)
	assert.EqualValues(t, 1, changed["allocated"])
	assert.EqualValues(t, 5, changed["free"])

	rejected := byMsg["cat rejected"]
	require.NotNil(t, rejected)
	assert.Equal(t, "WARN", rejected["level"])
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, nil))

	fsys, _ := newTestFS(t, 8, WithLogger(logger))
	require.NoError(t, fsys.Format(t.Context()))

	records := decodeRecords(t, &buf)
	require.Len(t, records, 1, "debug records are filtered at INFO")
	assert.Equal(t, "device formatted", records[0]["msg"])
	assert.EqualValues(t, 6, records[0]["free"])
}

func TestNoopLogger(t *testing.T) {
	fsys, _ := newTestFS(t, 8, WithLogger(nil))
	require.NoError(t, fsys.Create(t.Context(), "a", "x"))
}
