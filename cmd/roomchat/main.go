package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/npezzotti/go-chatroom-client/internal/api"
	"github.com/npezzotti/go-chatroom-client/internal/app"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"github.com/npezzotti/go-chatroom-client/internal/session"
	"github.com/npezzotti/go-chatroom-client/internal/ui"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

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
	logger := a.Logger.Named("roomchat")

	sess := session.NewStore()
	client, err := api.NewClient(cfg.APIURL, &http.Client{Timeout: requestTimeout}, sess, logger, a.Stats)
	if err != nil {
		logger.Fatal("api client", zap.Error(err))
	}

	term := ui.NewPrompter(os.Stdin, os.Stdout)
	router := ui.NewRoomRouter(&ui.RoomClient{
		API:     client,
		Session: sess,
		Dialer:  chat.NewDialer(logger, a.Stats, cfg.Reconnect.MaxRetries, cfg.Reconnect.MaxBackoff),
		APIURL:  cfg.APIURL,
		Term:    term,
		Notify:  ui.NewTerminalNotifier(term),
		Log:     logger,
		Now:     time.Now,
	})

	logger.Info("starting room client", zap.String("api_url", cfg.APIURL))
	os.Exit(a.Run(func(ctx context.Context) error {
		return router.Run(ctx, "/")
	}))
}
