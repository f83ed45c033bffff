package logger_adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"listing-service/internal/core/port"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAdapter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, IsJSON: true, Level: slog.LevelDebug})

	logger.WithFields(port.Fields{"use_case": "CreateProperty"}).
		Error("Create transaction aborted", errors.New("boom"), port.Fields{"owner_id": 7})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Create transaction aborted", entry["msg"])
	assert.Equal(t, "CreateProperty", entry["use_case"])
	assert.EqualValues(t, 7, entry["owner_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestSlogAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelWarn})

	logger.Info("hidden", nil)
	logger.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	logger.Warn("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

type fakeFluent struct {
	mu     sync.Mutex
	tags   []string
	posts  []map[string]interface{}
	closed bool
}

func (f *fakeFluent) Post(tag string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, tag)
	f.posts = append(f.posts, map[string]interface{}(message.(port.Fields)))
	return nil
}

func (f *fakeFluent) Close() error {
	f.closed = true
	return nil
}

func TestFluentLoggerAdapter(t *testing.T) {
	client := &fakeFluent{}
	adapter, err := NewFluentLoggerAdapter(client, slog.LevelInfo)
	require.NoError(t, err)

	scoped := adapter.WithFields(port.Fields{"component": "PropertyEventPublisher"})
	scoped.Debug("dropped", nil)
	scoped.Error("Failed to publish", errors.New("channel closed"), port.Fields{"property_id": int64(3)})

	require.Len(t, client.posts, 1)
	assert.Equal(t, "error", client.tags[0])
	post := client.posts[0]
	assert.Equal(t, "PropertyEventPublisher", post["component"])
	assert.Equal(t, "channel closed", post["error"])
	assert.Equal(t, "Failed to publish", post["message"])
	assert.Equal(t, int64(3), post["property_id"])

	_, err = NewFluentLoggerAdapter(nil, nil)
	assert.Error(t, err)
}

func TestMultiLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	client := &fakeFluent{}
	fluentAdapter, err := NewFluentLoggerAdapter(client, slog.LevelInfo)
	require.NoError(t, err)

	multi, err := NewMultiloggerAdapter(NewSlogAdapter(SlogConfig{Writer: &buf}), nil, fluentAdapter)
	require.NoError(t, err)

	multi.WithFields(port.Fields{"trace_id": "abc"}).Info("Use case started", nil)
	assert.Contains(t, buf.String(), "trace_id=abc")
	require.Len(t, client.posts, 1)
	assert.Equal(t, "abc", client.posts[0]["trace_id"])

	require.NoError(t, multi.Close())
	assert.True(t, client.closed)

	_, err = NewMultiloggerAdapter()
	assert.Error(t, err)
}
