// Package app wires the pieces both chat clients share: flags and config,
// logging, stats and process shutdown.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"slices"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/npezzotti/go-chatroom-client/internal/config"
	"github.com/npezzotti/go-chatroom-client/internal/logger"
	"github.com/npezzotti/go-chatroom-client/internal/stats"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Flags are the command-line overrides. Empty strings and a negative
// MaxRetries leave the configured value alone.
type Flags struct {
	ConfigPath string
	APIURL     string
	WSURL      string
	LogLevel   string
	LogFile    string
	DebugAddr  string
	MaxRetries int
}

func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.APIURL, "api-url", "", "REST API base URL (overrides "+config.EnvAPIURL+")")
	fs.StringVar(&f.WSURL, "ws-url", "", "WebSocket URL for the simple client (overrides "+config.EnvWSURL+")")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.LogFile, "log-file", "", "write logs to this file instead of stderr")
	fs.StringVar(&f.DebugAddr, "debug-addr", "", "serve /debug/vars on this address")
	fs.IntVar(&f.MaxRetries, "max-retries", -1, "websocket dial retries")
}

// Config loads the file, then the environment, then the flags, and
// validates the result.
func (f *Flags) Config(lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath, lookupEnv)
	if err != nil {
		return nil, err
	}

	if f.APIURL != "" {
		cfg.APIURL = f.APIURL
	}
	if f.WSURL != "" {
		cfg.WSURL = f.WSURL
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if f.DebugAddr != "" {
		cfg.DebugAddr = f.DebugAddr
	}
	if f.MaxRetries >= 0 {
		cfg.Reconnect.MaxRetries = f.MaxRetries
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Stats  *stats.StatsUpdater

	debug   *http.Server
	closers map[string]gfshutdown.Operation
}

func New(cfg *config.Config) (*App, error) {
	l, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	mux := http.NewServeMux()
	a := &App{
		Config:  cfg,
		Logger:  l,
		Stats:   stats.NewStatsUpdater(mux),
		closers: make(map[string]gfshutdown.Operation),
	}
	a.Stats.Run()

	if cfg.DebugAddr != "" {
		a.debug = stats.NewDebugServer(cfg.DebugAddr, mux, l)
		go func() {
			l.Info("serving debug vars", zap.String("addr", cfg.DebugAddr))
			if err := a.debug.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("debug server", zap.Error(err))
			}
		}()
		a.OnShutdown("debug-server", a.debug.Shutdown)
	}

	return a, nil
}

// OnShutdown registers op to run when the process stops.
func (a *App) OnShutdown(name string, op gfshutdown.Operation) {
	a.closers[name] = op
}

// Run runs the client until it returns or the process is signalled, then
// runs the shutdown operations. It returns the exit code.
func (a *App) Run(client func(ctx context.Context) error) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var clientErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		clientErr = client(ctx)
	}()

	ops := map[string]gfshutdown.Operation{
		"client": func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	for name, op := range a.closers {
		ops[name] = op
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, ops)

	select {
	case code := <-wait:
		a.Logger.Info("shutdown complete", zap.Int("exit_code", code))
		a.Logger.Sync()
		return code
	case <-done:
	}

	code := 0
	if clientErr != nil {
		a.Logger.Error("client exited", zap.Error(clientErr))
		code = 1
	}
	if err := a.shutdown(); err != nil {
		code = 1
	}
	a.Stats.Stop()
	a.Logger.Sync()

	return code
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	names := make([]string, 0, len(a.closers))
	for name := range a.closers {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		if err := a.closers[name](ctx); err != nil {
			a.Logger.Error("shutdown", zap.String("operation", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
