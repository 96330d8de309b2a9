package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.log")
	l := NewFileLogger(path)

	l.Debug("viewer", "dropped below file level", nil)
	l.Info("viewer", "tour started", map[string]interface{}{"archetype": "office"})
	l.Error("server", "session failed", map[string]interface{}{"error": "surface"})
	require.NoError(t, l.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "tour started", entries[0]["message"])
	assert.Equal(t, "viewer", entries[0]["module"])
	assert.Equal(t, map[string]interface{}{"archetype": "office"}, entries[0]["details"])
	assert.Contains(t, entries[0], "timestamp")
	assert.Contains(t, entries[0]["caller"], "zap_logger_test.go")

	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "surface", entries[1]["error_ref"])
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("viewer", "ignored", nil)
	assert.NotNil(t, l.Zap())
	assert.NoError(t, l.Sync())

	assert.IsType(t, &ZapLogger{}, NewFileLogger(""))
}
