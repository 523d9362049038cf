package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/npezzotti/go-chatroom-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPage struct {
	name string
	next string
	nav  Navigator
	seen *[]string
	reqs []*Request
	err  error
}

func (p *stubPage) Show(_ context.Context, req *Request) error {
	*p.seen = append(*p.seen, p.name)
	p.reqs = append(p.reqs, req)
	if p.next != "" {
		p.nav.Navigate(p.next)
	}
	return p.err
}

func TestRouterResolve(t *testing.T) {
	r := NewRouter(testutil.TestLogger(t))
	var seen []string
	home := &stubPage{name: "home", seen: &seen}
	room := &stubPage{name: "room", seen: &seen}
	missing := &stubPage{name: "missing", seen: &seen}
	r.Handle("/", home)
	r.Handle("/rooms/{roomId}", room)
	r.NotFound(missing)

	tcases := []struct {
		name   string
		path   string
		page   Page
		params map[string]string
	}{
		{
			name: "root",
			path: "/",
			page: home,
		},
		{
			name:   "room with id",
			path:   "/rooms/42",
			page:   room,
			params: map[string]string{"roomId": "42"},
		},
		{
			name:   "escaped room id",
			path:   "/rooms/a%20b",
			page:   room,
			params: map[string]string{"roomId": "a b"},
		},
		{
			name: "unknown path",
			path: "/nope",
			page: missing,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			page, req := r.resolve(context.Background(), tc.path)
			assert.Same(t, tc.page, page, "expected page for %s", tc.path)
			assert.Equal(t, tc.path, req.Path)
			for k, v := range tc.params {
				assert.Equal(t, v, req.Param(k), "expected param %s", k)
			}
		})
	}
}

func TestRouterRun(t *testing.T) {
	r := NewRouter(testutil.TestLogger(t))
	var seen []string
	r.Handle("/", &stubPage{name: "home", next: "/rooms", nav: r, seen: &seen})
	r.Handle("/rooms", &stubPage{name: "rooms", next: "/rooms/7", nav: r, seen: &seen})
	room := &stubPage{name: "room", seen: &seen}
	r.Handle("/rooms/{roomId}", room)

	err := r.Run(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "rooms", "room"}, seen, "expected pages in navigation order")
	assert.Equal(t, "/rooms/7", r.Current())
	require.Len(t, room.reqs, 1)
	assert.Equal(t, "7", room.reqs[0].Param("roomId"))
}

func TestRouterRunReturnsPageError(t *testing.T) {
	r := NewRouter(testutil.TestLogger(t))
	var seen []string
	boom := errors.New("boom")
	r.Handle("/", &stubPage{name: "home", seen: &seen, err: boom})

	err := r.Run(context.Background(), "/")
	assert.ErrorIs(t, err, boom)
}

func TestRouterRunStopsWhenContextDone(t *testing.T) {
	r := NewRouter(testutil.TestLogger(t))
	var seen []string
	r.Handle("/", &stubPage{name: "home", seen: &seen})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, r.Run(ctx, "/"))
	assert.Empty(t, seen, "expected no page to be shown")
}
