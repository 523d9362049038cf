package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/npezzotti/go-chatroom-client/internal/app"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"github.com/npezzotti/go-chatroom-client/internal/store"
	"github.com/npezzotti/go-chatroom-client/internal/ui"
	"go.uber.org/zap"
)

func main() {
	var flags app.Flags
	flags.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Config(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := a.Logger.Named("simplechat")

	usernames, err := store.Open(context.Background(), cfg.Store, logger)
	if err != nil {
		logger.Fatal("username store", zap.Error(err))
	}
	a.OnShutdown("username-store", func(context.Context) error {
		return usernames.Close()
	})

	term := ui.NewPrompter(os.Stdin, os.Stdout)
	router := ui.NewSimpleRouter(&ui.SimpleClient{
		Store:  usernames,
		Dialer: chat.NewDialer(logger, a.Stats, cfg.Reconnect.MaxRetries, cfg.Reconnect.MaxBackoff),
		WSURL:  cfg.WSURL,
		Term:   term,
		Notify: ui.NewTerminalNotifier(term),
		Log:    logger,
		Now:    time.Now,
	})

	logger.Info("starting simple client", zap.String("ws_url", cfg.WSURL))
	os.Exit(a.Run(func(ctx context.Context) error {
		return router.Run(ctx, "/")
	}))
}
