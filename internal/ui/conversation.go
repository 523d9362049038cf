package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/npezzotti/go-chatroom-client/internal/api"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type exitReason int

const (
	exitDisconnected exitReason = iota
	exitBack
	exitQuit
)

// conversation drives one open socket: frames are read on one goroutine
// and typed lines are sent from another. Either side ending tears down
// both.
type conversation struct {
	term     *Prompter
	notify   Notifier
	log      *zap.Logger
	nav      Navigator
	now      func() time.Time
	username string
	backPath string
	receive  func(chat.Message)

	input     string
	exit      exitReason
	connected bool
}

func (cv *conversation) run(ctx context.Context, c *chat.Conn) error {
	cv.connected = true

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return c.Run(gctx, cv.receive)
	})
	g.Go(func() error {
		defer cancel()
		return cv.readInput(gctx, c)
	})

	return g.Wait()
}

func (cv *conversation) readInput(ctx context.Context, c *chat.Conn) error {
	for {
		line, err := cv.term.Ask(ctx, "")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrInputFailed) {
				cv.exit = exitQuit
			}
			return endOfInput(err)
		}

		switch strings.TrimSpace(line) {
		case "/back":
			cv.exit = exitBack
			cv.nav.Navigate(cv.backPath)
			return nil
		case "/quit":
			cv.exit = exitQuit
			return nil
		}

		cv.input = line
		if err := cv.submit(ctx, c); err != nil {
			cv.notify.Error(sendErrorMessage(err))
		}
	}
}

// submit sends the pending input as a CHAT frame and clears it. Blank
// input is ignored. The frame shows up in the transcript when the server
// broadcasts it back.
func (cv *conversation) submit(ctx context.Context, c *chat.Conn) error {
	text := cv.input
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := chat.ValidateInput(text); err != nil {
		return err
	}

	username := cv.username
	if username == "" {
		username = "Anonymous"
	}

	if err := c.Send(ctx, chat.NewChatMessage(username, text, cv.now())); err != nil {
		cv.log.Error("send chat message", zap.Error(err))
		return err
	}

	cv.input = ""
	return nil
}

// finish reports how the conversation ended once run has returned. Input
// failures are passed back so the page can stop the client.
func (cv *conversation) finish(ctx context.Context, err error) error {
	if errors.Is(err, ErrInputFailed) {
		cv.log.Error("terminal input", zap.Error(err))
		return err
	}
	if ctx.Err() != nil || cv.exit == exitQuit || cv.exit == exitBack {
		return nil
	}

	if err != nil {
		cv.log.Error("chat connection", zap.Error(err))
	}
	if cv.connected {
		cv.notify.Error("Disconnected from the chat server.")
	} else {
		cv.notify.Error("Could not connect to the chat server.")
	}
	cv.nav.Navigate(cv.backPath)
	return nil
}

func sendErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrMessageTooLong):
		return "Message is too long (max 200 characters)."
	case errors.Is(err, chat.ErrEmptyMessage):
		return "Message cannot be empty."
	default:
		return api.UnexpectedErrorMessage
	}
}

func formatTime(m chat.Message) string {
	if m.Timestamp == 0 {
		return ""
	}
	return "[" + m.Time().Local().Format("15:04:05") + "] "
}

func presenceText(m chat.Message) string {
	if m.Content != "" {
		return m.Content
	}
	if m.Type == chat.TypeLeave {
		return m.Username + " left the room"
	}
	return m.Username + " joined the room"
}
