package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	Setup(&buf, jakarta)
	t.Cleanup(func() { Setup(os.Stdout, time.UTC) })
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestInfoAndError(t *testing.T) {
	buf := capture(t)

	Info("space_created", map[string]any{"space_id": "0x01"})
	Error("space_update_failed", map[string]any{"space_id": "0x02", "error": errors.New("boom")})

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "space_created", lines[0]["msg"])
	assert.Equal(t, "0x01", lines[0]["space_id"])
	assert.Contains(t, lines[0]["ts"], "+07:00")

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestJSON_LevelFromStatus(t *testing.T) {
	buf := capture(t)

	JSON(map[string]any{"event": "db_migration_step", "status": "success"})
	JSON(map[string]any{"event": "db_migration_failed", "status": "error"})
	JSON(map[string]any{"event": "custom", "level": "warn"})

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "warn", lines[2]["level"])
}

func TestWarn_DoesNotMutateFields(t *testing.T) {
	buf := capture(t)
	fields := map[string]any{"key": "v"}

	Warn("slow_rpc", fields)

	assert.Len(t, fields, 1)
	lines := decodeLines(t, buf)
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestNew_IndependentOfDefault(t *testing.T) {
	def := capture(t)
	var buf bytes.Buffer
	l := New(&buf, nil)

	l.Info("own_writer", map[string]any{"k": 1})

	assert.Empty(t, def.String())
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "own_writer", lines[0]["msg"])
	assert.True(t, strings.HasSuffix(lines[0]["ts"].(string), "Z"))
}

func TestCtxVariants_AttachRequestID(t *testing.T) {
	buf := capture(t)
	ctx := WithRequestID(context.Background(), "req-42")
	fields := map[string]any{"space_id": "0x01"}

	ErrorCtx(ctx, "space_update_failed", fields)
	InfoCtx(context.Background(), "space_updated", fields)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "req-42", lines[0]["request_id"])
	assert.Equal(t, "error", lines[0]["level"])
	assert.NotContains(t, lines[1], "request_id")
	assert.NotContains(t, fields, "request_id")
	assert.Equal(t, "req-42", RequestID(ctx))
}
