package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatroom-client/internal/stats"
	"github.com/teris-io/shortid"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096

	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 8 * time.Second
)

// Dialer opens chat connections. With MaxRetries at zero a failed dial is
// reported immediately; otherwise it is retried with a doubling backoff
// capped at MaxBackoff. Handshake rejections (4xx) are never retried.
type Dialer struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	ws    *websocket.Dialer
	log   *zap.Logger
	stats stats.StatsProvider
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDialer(l *zap.Logger, sp stats.StatsProvider, maxRetries int, maxBackoff time.Duration) *Dialer {
	sp.RegisterMetric(stats.FramesSent)
	sp.RegisterMetric(stats.FramesReceived)
	sp.RegisterMetric(stats.FramesDropped)
	sp.RegisterMetric(stats.OpenSockets)

	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}

	return &Dialer{
		MaxRetries:     maxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     maxBackoff,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		log:   l,
		stats: sp,
		sleep: sleepCtx,
	}
}

func (d *Dialer) Dial(ctx context.Context, url string) (*Conn, error) {
	backoff := d.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= d.MaxRetries; attempt++ {
		if attempt > 0 {
			d.log.Info("retrying websocket dial",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			if err := d.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, d.MaxBackoff)
		}

		ws, resp, err := d.ws.DialContext(ctx, url, nil)
		if err == nil {
			c := newConn(ws, d.log, d.stats)
			c.log.Info("connected to websocket server")
			return c, nil
		}

		lastErr = fmt.Errorf("dial websocket: %w", err)
		if resp != nil {
			resp.Body.Close()
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, fmt.Errorf("%w: handshake rejected with status %d", lastErr, resp.StatusCode)
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// WithConn dials url, hands the connection to fn and closes it on every
// exit path of fn, panics included.
func WithConn(ctx context.Context, d *Dialer, url string, fn func(*Conn) error) error {
	c, err := d.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c)
}

// Conn is one client connection. Send may be called concurrently with
// Run; Close may be called from anywhere, any number of times.
type Conn struct {
	id        string
	conn      *websocket.Conn
	log       *zap.Logger
	stats     stats.StatsProvider
	writeLock sync.Mutex
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

func newConn(ws *websocket.Conn, l *zap.Logger, sp stats.StatsProvider) *Conn {
	id, err := shortid.Generate()
	if err != nil {
		id = ws.LocalAddr().String()
	}

	sp.Incr(stats.OpenSockets)

	return &Conn{
		id:    id,
		conn:  ws,
		log:   l.With(zap.String("conn_id", id)),
		stats: sp,
		done:  make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Done is closed once the connection has been closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Run reads frames until the connection closes, calling handle for each
// valid frame in arrival order. Frames that fail to decode are logged and
// dropped. It returns nil when the connection was closed locally or the
// server closed it normally.
func (c *Conn) Run(ctx context.Context, handle func(Message)) error {
	go c.keepAlive(ctx)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	c.conn.SetPingHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		err := c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("disconnected from websocket server")
				return nil
			}

			c.log.Error("websocket read", zap.Error(err))
			return fmt.Errorf("read: %w", err)
		}

		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := Decode(raw)
		if err != nil {
			c.log.Warn("dropping frame", zap.Error(err), zap.ByteString("frame", raw))
			c.stats.Incr(stats.FramesDropped)
			continue
		}

		c.stats.Incr(stats.FramesReceived)
		c.log.Debug("received message", zap.String("type", string(msg.Type)), zap.String("username", msg.Username))
		handle(msg)
	}
}

// keepAlive pings the server and closes the connection when ctx ends.
func (c *Conn) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Warn("ping failed", zap.Error(err))
			}
		}
	}
}

// Send writes one frame. There is no acknowledgement and no retry.
func (c *Conn) Send(ctx context.Context, msg Message) error {
	bytes, err := Encode(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)

	if err := c.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
		c.log.Error("write message", zap.Error(err))
		return fmt.Errorf("write message: %w", err)
	}

	c.stats.Incr(stats.FramesSent)
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		c.closeErr = c.conn.Close()
		c.stats.Decr(stats.OpenSockets)
		c.log.Info("websocket connection closed")
	})

	return c.closeErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
