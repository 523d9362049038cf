package ui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Navigator interface {
	Navigate(path string)
}

// Page is one screen. Show returns once the user leaves the page; it
// calls Navigate first if there is somewhere to go next.
type Page interface {
	Show(ctx context.Context, req *Request) error
}

type PageFunc func(ctx context.Context, req *Request) error

func (f PageFunc) Show(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

type Request struct {
	Path   string
	params map[string]string
}

func (r *Request) Param(name string) string {
	return r.params[name]
}

type matchKey struct{}

type match struct {
	page   Page
	params map[string]string
}

// Router maps paths to pages using chi route patterns, so "/rooms/{roomId}"
// style parameters work the same as they do on the server.
type Router struct {
	mux      *chi.Mux
	notFound Page
	log      *zap.Logger

	mu      sync.Mutex
	next    string
	current string
}

func NewRouter(l *zap.Logger) *Router {
	r := &Router{
		mux: chi.NewRouter(),
		log: l,
	}
	r.NotFound(PageFunc(func(ctx context.Context, req *Request) error { return nil }))
	return r
}

func (r *Router) Handle(pattern string, p Page) {
	r.mux.Get(pattern, func(w http.ResponseWriter, req *http.Request) {
		m, ok := req.Context().Value(matchKey{}).(*match)
		if !ok {
			return
		}

		m.page = p
		rctx := chi.RouteContext(req.Context())
		for i, key := range rctx.URLParams.Keys {
			value := rctx.URLParams.Values[i]
			if unescaped, err := url.PathUnescape(value); err == nil {
				value = unescaped
			}
			m.params[key] = value
		}
	})
}

func (r *Router) NotFound(p Page) {
	r.notFound = p
	r.mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if m, ok := req.Context().Value(matchKey{}).(*match); ok {
			m.page = p
		}
	})
}

func (r *Router) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next = path
}

func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

func (r *Router) resolve(ctx context.Context, path string) (Page, *Request) {
	m := &match{params: make(map[string]string)}
	req, err := http.NewRequestWithContext(context.WithValue(ctx, matchKey{}, m), http.MethodGet, path, nil)
	if err != nil {
		r.log.Warn("invalid path", zap.String("path", path), zap.Error(err))
		return r.notFound, &Request{Path: path, params: m.params}
	}

	r.mux.ServeHTTP(discardWriter{}, req)
	if m.page == nil {
		m.page = r.notFound
	}

	return m.page, &Request{Path: path, params: m.params}
}

// Run shows pages starting at start until a page returns without
// navigating or ctx ends.
func (r *Router) Run(ctx context.Context, start string) error {
	path := start
	for {
		if ctx.Err() != nil {
			return nil
		}

		page, req := r.resolve(ctx, path)

		r.mu.Lock()
		r.current = path
		r.next = ""
		r.mu.Unlock()

		r.log.Debug("showing page", zap.String("path", path))
		if err := page.Show(ctx, req); err != nil {
			return fmt.Errorf("page %s: %w", path, err)
		}

		r.mu.Lock()
		path = r.next
		r.mu.Unlock()

		if path == "" {
			return nil
		}
	}
}

type discardWriter struct{}

func (discardWriter) Header() http.Header         { return http.Header{} }
func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (discardWriter) WriteHeader(int)             {}
