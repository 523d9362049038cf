package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"github.com/npezzotti/go-chatroom-client/internal/stats"
	"github.com/npezzotti/go-chatroom-client/internal/testutil"
)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

func (n *recordingNotifier) Successes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...)
}

type recordingNavigator struct {
	mu   sync.Mutex
	path string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
}

func (n *recordingNavigator) Path() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewPrompter(strings.NewReader(input), out), out
}

func newTestDialer(t *testing.T) *chat.Dialer {
	return chat.NewDialer(testutil.TestLogger(t), stats.NewLenientMock(), 0, time.Second)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// chatBackend is a fake chat server. It records the query of every
// connection and every frame it receives, and echoes frames back.
type chatBackend struct {
	*httptest.Server

	mu      sync.Mutex
	queries []string
	frames  []chat.Message
}

func newChatBackend(t *testing.T) *chatBackend {
	t.Helper()

	b := &chatBackend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		b.mu.Lock()
		b.queries = append(b.queries, r.URL.Path+"?"+r.URL.RawQuery)
		b.mu.Unlock()

		for {
			mt, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var m chat.Message
			if err := json.Unmarshal(raw, &m); err == nil {
				b.mu.Lock()
				b.frames = append(b.frames, m)
				b.mu.Unlock()
			}

			if err := conn.WriteMessage(mt, raw); err != nil {
				return
			}
		}
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *chatBackend) Frames() []chat.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]chat.Message(nil), b.frames...)
}

func (b *chatBackend) Queries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

func (b *chatBackend) WSURL() string {
	return "ws" + strings.TrimPrefix(b.URL, "http")
}
