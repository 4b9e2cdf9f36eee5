package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crontick/crontick/internal/logger"
)

const validTask = `
[[tasks]]
name = "noop"
schedule = "* * * * *"
command = "true"
`

func TestWatchDeliversValidUpdates(t *testing.T) {
	path := writeConfig(t, "crontick.toml", validTask)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	updates, err := Watch(ctx, path, log)
	require.NoError(t, err)

	// An invalid revision must be skipped without closing the channel.
	require.NoError(t, os.WriteFile(path, []byte(`[[tasks]]`+"\n"+`name = "broken"`), 0o644))
	time.Sleep(2 * debounceDelay)

	require.NoError(t, os.WriteFile(path, []byte(validTask+`
[logging]
level = "debug"
`), 0o644))

	select {
	case cfg := <-updates:
		require.NotNil(t, cfg)
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no config update received")
	}

	cancel()
	select {
	case _, open := <-updates:
		assert.False(t, open, "channel should close after cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}
