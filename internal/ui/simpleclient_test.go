package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/npezzotti/go-chatroom-client/internal/api"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"github.com/npezzotti/go-chatroom-client/internal/store"
	"github.com/npezzotti/go-chatroom-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSimpleClient(t *testing.T, input string) (*SimpleClient, *store.MockUsernameStore, *recordingNotifier) {
	t.Helper()

	st := &store.MockUsernameStore{}
	notifier := &recordingNotifier{}
	term, _ := newTestPrompter(input)

	return &SimpleClient{
		Store:  st,
		Dialer: newTestDialer(t),
		WSURL:  "ws://localhost:8080/ws",
		Term:   term,
		Notify: notifier,
		Log:    testutil.TestLogger(t),
		Now:    time.Now,
	}, st, notifier
}

func TestSimpleHomePage(t *testing.T) {
	tcases := []struct {
		name     string
		current  string
		input    string
		expected string
	}{
		{
			name:     "first username",
			input:    "carol\n",
			expected: "carol",
		},
		{
			name:     "keep current username",
			current:  "carol",
			input:    "\n",
			expected: "carol",
		},
		{
			name:     "change username",
			current:  "carol",
			input:    "  dave \n",
			expected: "dave",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			sc, st, _ := newTestSimpleClient(t, tc.input)
			st.On("GetUsername", mock.Anything).Return(tc.current, nil).Once()
			st.On("SetUsername", mock.Anything, tc.expected).Return(nil).Once()
			nav := &recordingNavigator{}

			require.NoError(t, (&SimpleHomePage{sc: sc, nav: nav}).Show(context.Background(), &Request{}))
			st.AssertExpectations(t)
			assert.Equal(t, "/chat", nav.Path())
		})
	}
}

func TestSimpleHomePageRequiresUsername(t *testing.T) {
	sc, st, notifier := newTestSimpleClient(t, "\n")
	st.On("GetUsername", mock.Anything).Return("", nil).Once()
	nav := &recordingNavigator{}

	require.NoError(t, (&SimpleHomePage{sc: sc, nav: nav}).Show(context.Background(), &Request{}))
	assert.Empty(t, nav.Path())
	assert.Equal(t, []string{"Username is required."}, notifier.Errors())
	st.AssertNotCalled(t, "SetUsername", mock.Anything, mock.Anything)
}

func TestSimpleHomePageSaveFailure(t *testing.T) {
	sc, st, notifier := newTestSimpleClient(t, "carol\n")
	st.On("GetUsername", mock.Anything).Return("", nil).Once()
	st.On("SetUsername", mock.Anything, "carol").Return(errors.New("disk full")).Once()
	nav := &recordingNavigator{}

	require.NoError(t, (&SimpleHomePage{sc: sc, nav: nav}).Show(context.Background(), &Request{}))
	assert.Empty(t, nav.Path())
	assert.Equal(t, []string{api.UnexpectedErrorMessage}, notifier.Errors())
}

func TestSimpleChatWithoutUsername(t *testing.T) {
	sc, st, _ := newTestSimpleClient(t, "")
	st.On("GetUsername", mock.Anything).Return("", nil).Once()
	nav := &recordingNavigator{}

	require.NoError(t, (&SimpleChatPage{sc: sc, nav: nav}).Show(context.Background(), &Request{}))
	assert.Equal(t, "/", nav.Path(), "expected redirect home without a username")
}

func TestSimpleChatSendsChat(t *testing.T) {
	backend := newChatBackend(t)
	sc, st, notifier := newTestSimpleClient(t, "hi all\n/back\n")
	sc.WSURL = backend.WSURL() + "/ws"
	st.On("GetUsername", mock.Anything).Return("carol", nil).Once()
	nav := &recordingNavigator{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, (&SimpleChatPage{sc: sc, nav: nav}).Show(ctx, &Request{}))
	assert.Equal(t, "/", nav.Path())
	assert.Empty(t, notifier.Errors())

	assert.Eventually(t, func() bool { return len(backend.Frames()) == 1 }, 2*time.Second, 10*time.Millisecond)
	frame := backend.Frames()[0]
	assert.Equal(t, chat.TypeChat, frame.Type)
	assert.Equal(t, "carol", frame.Username)
	assert.Equal(t, "hi all", frame.Content)
	assert.NotZero(t, frame.Timestamp, "expected a client timestamp")
	assert.Equal(t, []string{"/ws?username=carol"}, backend.Queries())
}

func TestSimpleChatConnectFailure(t *testing.T) {
	sc, st, notifier := newTestSimpleClient(t, "")
	sc.WSURL = "ws://127.0.0.1:1/ws"
	st.On("GetUsername", mock.Anything).Return("carol", nil).Once()
	nav := &recordingNavigator{}

	require.NoError(t, (&SimpleChatPage{sc: sc, nav: nav}).Show(context.Background(), &Request{}))
	assert.Equal(t, "/", nav.Path())
	assert.Equal(t, []string{"Could not connect to the chat server."}, notifier.Errors())
}

func TestSimpleChatRoutesFrames(t *testing.T) {
	sc, _, _ := newTestSimpleClient(t, "")
	p := &SimpleChatPage{sc: sc, streams: chat.NewStreams()}

	p.receive(chat.Message{Username: "bob", Type: chat.TypeJoin, Content: "bob joined the room"})
	p.receive(chat.Message{Username: "bob", Type: chat.TypeChat, Content: "hello"})
	p.receive(chat.Message{Username: "bob", Type: chat.TypeLeave, Content: "bob left the room"})

	streams := p.Streams()
	require.Equal(t, 1, streams.Chat.Len(), "expected one chat entry")
	assert.Equal(t, "hello", streams.Chat.Messages()[0].Content)

	require.Equal(t, 2, streams.Presence.Len(), "expected join and leave in the presence list")
	assert.Equal(t, chat.TypeJoin, streams.Presence.Messages()[0].Type)
	assert.Equal(t, chat.TypeLeave, streams.Presence.Messages()[1].Type)
}
