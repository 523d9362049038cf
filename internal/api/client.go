package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/npezzotti/go-chatroom-client/internal/session"
	"github.com/npezzotti/go-chatroom-client/internal/stats"
	"github.com/npezzotti/go-chatroom-client/internal/types"
	"go.uber.org/zap"
)

const requestIdHeader = "X-Request-Id"

// Client talks to the chat backend's REST API. Room calls authenticate
// with the token held by the session store.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	log     *zap.Logger
	stats   stats.StatsProvider
}

func NewClient(baseURL string, httpClient *http.Client, s *session.Store, l *zap.Logger, sp stats.StatsProvider) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	sp.RegisterMetric(stats.RequestsSent)
	sp.RegisterMetric(stats.RequestErrors)

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		session: s,
		log:     l,
		stats:   sp,
	}, nil
}

func (c *Client) Login(ctx context.Context, creds types.Credentials) (types.AuthResponse, error) {
	var resp types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", creds, false, &resp)
	return resp, err
}

func (c *Client) Signup(ctx context.Context, creds types.Credentials) (types.AuthResponse, error) {
	var resp types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", creds, false, &resp)
	return resp, err
}

func (c *Client) ListRooms(ctx context.Context) ([]types.Room, error) {
	var env types.Envelope[[]types.Room]
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, true, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []types.Room{}, nil
	}
	return env.Data, nil
}

func (c *Client) CreateRoom(ctx context.Context, name string) (types.Room, error) {
	var env types.Envelope[types.Room]
	err := c.do(ctx, http.MethodPost, "/rooms", types.CreateRoomRequest{RoomName: name}, true, &env)
	return env.Data, err
}

func (c *Client) DeleteRoom(ctx context.Context, id types.RoomID) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(id.String()), nil, true, nil)
}

func (c *Client) GetRoom(ctx context.Context, id types.RoomID) (types.RoomDetail, error) {
	var env types.Envelope[types.RoomDetail]
	err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(id.String()), nil, true, &env)
	return env.Data, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var token string
	if auth {
		token = c.session.Token()
		if token == "" {
			return ErrNoSession
		}
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	reqId := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIdHeader, reqId)
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqId),
	)

	c.stats.Incr(stats.RequestsSent)
	resp, err := c.http.Do(req)
	if err != nil {
		c.stats.Incr(stats.RequestErrors)
		log.Error("request failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug("response received", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode <= http.StatusInternalServerError {
		c.stats.Incr(stats.RequestErrors)
		var errBody struct {
			Message string `json:"message"`
		}
		apiErr := newApiError(resp.StatusCode, "")
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil && !errors.Is(err, io.EOF) {
			log.Warn("undecodable error body", zap.Error(err))
			apiErr.Err = fmt.Errorf("decode error body: %w", err)
		}
		if errBody.Message != "" {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.stats.Incr(stats.RequestErrors)
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.stats.Incr(stats.RequestErrors)
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}
