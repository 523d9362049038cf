package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/npezzotti/go-chatroom-client/internal/api"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"github.com/npezzotti/go-chatroom-client/internal/store"
	"go.uber.org/zap"
)

// SimpleClient holds what the pages of the username-only client share.
type SimpleClient struct {
	Store  store.UsernameStore
	Dialer *chat.Dialer
	WSURL  string
	Term   *Prompter
	Notify Notifier
	Log    *zap.Logger
	Now    func() time.Time
}

func (sc *SimpleClient) now() time.Time {
	if sc.Now == nil {
		return time.Now()
	}
	return sc.Now()
}

func NewSimpleRouter(sc *SimpleClient) *Router {
	r := NewRouter(sc.Log)

	r.Handle("/", &SimpleHomePage{sc: sc, nav: r})
	r.Handle("/chat", &SimpleChatPage{sc: sc, nav: r})
	r.NotFound(&NotFoundPage{term: sc.Term, nav: r})

	return r
}

type SimpleHomePage struct {
	sc  *SimpleClient
	nav Navigator
}

func (p *SimpleHomePage) Show(ctx context.Context, _ *Request) error {
	current, err := p.sc.Store.GetUsername(ctx)
	if err != nil {
		p.sc.Log.Error("load username", zap.Error(err))
		p.sc.Notify.Error(api.UnexpectedErrorMessage)
	}

	p.sc.Term.Println("Welcome to Distributed Chat Room App")
	label := "Your Username: "
	if current != "" {
		p.sc.Term.Printf("Current username: %s\n", current)
		label = "Change Username (enter to keep): "
	}

	for {
		line, err := p.sc.Term.Ask(ctx, label)
		if err != nil {
			return endOfInput(err)
		}

		username := strings.TrimSpace(line)
		if username == "/quit" {
			return nil
		}
		if username == "" {
			username = current
		}
		if username == "" {
			p.sc.Notify.Error("Username is required.")
			continue
		}

		if err := p.sc.Store.SetUsername(ctx, username); err != nil {
			p.sc.Log.Error("save username", zap.Error(err))
			p.sc.Notify.Error(api.UnexpectedErrorMessage)
			continue
		}

		p.nav.Navigate("/chat")
		return nil
	}
}

type SimpleChatPage struct {
	sc      *SimpleClient
	nav     Navigator
	streams *chat.Streams
	conv    *conversation
}

func (p *SimpleChatPage) Streams() *chat.Streams {
	return p.streams
}

func (p *SimpleChatPage) Show(ctx context.Context, _ *Request) error {
	username, err := p.sc.Store.GetUsername(ctx)
	if err != nil {
		p.sc.Log.Error("load username", zap.Error(err))
	}
	if username == "" {
		p.nav.Navigate("/")
		return nil
	}

	wsURL, err := chat.UsernameURL(p.sc.WSURL, username)
	if err != nil {
		return err
	}

	p.streams = chat.NewStreams()
	p.conv = &conversation{
		term:     p.sc.Term,
		notify:   p.sc.Notify,
		log:      p.sc.Log.With(zap.String("username", username)),
		nav:      p.nav,
		now:      p.sc.now,
		username: username,
		backPath: "/",
		receive:  p.receive,
	}

	p.sc.Term.Println("Chat Room")
	p.sc.Term.Printf("Chatting as %s. /back returns home.\n", username)

	err = chat.WithConn(ctx, p.sc.Dialer, wsURL, func(c *chat.Conn) error {
		return p.conv.run(ctx, c)
	})
	return p.conv.finish(ctx, err)
}

func (p *SimpleChatPage) receive(m chat.Message) {
	p.streams.Route(m)
	if m.Type.IsPresence() {
		p.sc.Term.Printf("%s*%s*\n", formatTime(m), presenceText(m))
		return
	}
	p.sc.Term.Println(fmt.Sprintf("%s%s: %s", formatTime(m), m.Username, m.Content))
}
