package app

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/npezzotti/go-chatroom-client/internal/config"
	"github.com/npezzotti/go-chatroom-client/internal/stats"
	"github.com/npezzotti/go-chatroom-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://file.example.com
ws_url: ws://file.example.com/ws
log_level: warn
`), 0o600))

	env := map[string]string{config.EnvAPIURL: "http://env.example.com"}
	lookupEnv := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{
		"-config", path,
		"-ws-url", "ws://flag.example.com/ws",
		"-max-retries", "2",
	}))

	cfg, err := f.Config(lookupEnv)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com", cfg.APIURL, "expected env to override file")
	assert.Equal(t, "ws://flag.example.com/ws", cfg.WSURL, "expected flag to override file")
	assert.Equal(t, "warn", cfg.LogLevel, "expected file value without overrides")
	assert.Equal(t, 2, cfg.Reconnect.MaxRetries)
}

func TestFlagsConfigInvalid(t *testing.T) {
	f := Flags{APIURL: "ftp://example.com", MaxRetries: -1}

	_, err := f.Config(func(string) (string, bool) { return "", false })
	assert.Error(t, err, "expected unsupported scheme to be rejected")
}

func TestRunShutsDownAfterClientReturns(t *testing.T) {
	a := &App{
		Config:  config.Default(),
		Logger:  testutil.TestLogger(t),
		Stats:   stats.NewStatsUpdater(http.NewServeMux()),
		closers: make(map[string]gfshutdown.Operation),
	}
	a.Stats.Run()

	var closed []string
	a.OnShutdown("store", func(context.Context) error {
		closed = append(closed, "store")
		return nil
	})

	code := a.Run(func(ctx context.Context) error { return nil })
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"store"}, closed, "expected shutdown operations to run")
}

func TestShutdownReportsFailures(t *testing.T) {
	a := &App{
		Logger:  testutil.TestLogger(t),
		closers: make(map[string]gfshutdown.Operation),
	}
	boom := errors.New("boom")
	a.OnShutdown("store", func(context.Context) error { return boom })
	a.OnShutdown("debug-server", func(context.Context) error { return nil })

	assert.ErrorIs(t, a.shutdown(), boom)
}
