package wsclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"example.com/timeclock/internal/util/config"
	"nhooyr.io/websocket"
)

type OnMessage func(raw []byte)

// Client keeps one websocket connection open, reconnecting with backoff
// until its context is cancelled.
type Client struct {
	cfg   config.Config
	onMsg OnMessage
	log   *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(cfg config.Config, log *slog.Logger, onMsg OnMessage) *Client {
	return &Client{cfg: cfg, onMsg: onMsg, log: log}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	opts := &websocket.DialOptions{Subprotocols: []string{"json"}}
	if c.cfg.WS.Token != "" {
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + c.cfg.WS.Token}}
	}
	conn, _, err := websocket.Dial(ctx, c.cfg.WS.URL, opts)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Run blocks until ctx is done, or until the connection is lost and
// reconnecting is disabled or out of retries.
func (c *Client) Run(ctx context.Context) error {
	retries := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		dctx, dcancel := context.WithTimeout(ctx, 10*time.Second)
		conn, err := c.dial(dctx)
		dcancel()
		if err != nil {
			c.log.Warn("dial failed", "url", c.cfg.WS.URL, "error", err)
			if !c.cfg.WS.Reconnect.Enabled {
				return fmt.Errorf("dial %s: %w", c.cfg.WS.URL, err)
			}
			retries++
			if limit := c.cfg.WS.Reconnect.MaxRetries; limit > 0 && retries > limit {
				return fmt.Errorf("dial %s: giving up after %d retries: %w", c.cfg.WS.URL, limit, err)
			}
			backoff := backoffTime(c.cfg, retries)
			c.log.Info("retrying", "in", backoff, "attempt", retries)
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
			continue
		}

		c.log.Info("ws connected", "url", c.cfg.WS.URL)
		retries = 0

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		hbCtx, hbCancel := context.WithCancel(ctx)
		go c.heartbeat(hbCtx, conn)

		err = c.readLoop(ctx, conn)
		hbCancel()

		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusNormalClosure, "reconnect")
			c.conn = nil
		}
		c.mu.Unlock()

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil
		}
		c.log.Warn("read loop ended", "error", err)
		if !c.cfg.WS.Reconnect.Enabled {
			return fmt.Errorf("connection lost: %w", err)
		}
	}
}

// heartbeat pings every interval. On failure it only returns; the read
// loop sees the broken connection and triggers the reconnect.
func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn) {
	interval := c.cfg.Heartbeat()
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				c.log.Warn("heartbeat ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(4 << 20)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// An expired read context closes the connection, so a read
		// timeout ends the loop and Run reconnects.
		readCtx := ctx
		var cancel context.CancelFunc
		if d := c.cfg.ReadTimeout(); d > 0 {
			readCtx, cancel = context.WithTimeout(ctx, d)
		}

		msgType, data, err := conn.Read(readCtx)

		if cancel != nil {
			cancel()
		}
		if err != nil {
			return err
		}
		if msgType == websocket.MessageText || msgType == websocket.MessageBinary {
			if c.onMsg != nil {
				c.onMsg(data)
			}
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close(websocket.StatusNormalClosure, "app closed")
		c.conn = nil
		return err
	}
	return nil
}

func backoffTime(cfg config.Config, retries int) time.Duration {
	b := float64(cfg.WS.Reconnect.BaseSeconds)
	m := float64(cfg.WS.Reconnect.MaxSeconds)
	d := time.Duration(math.Min(m, b*math.Pow(2, float64(retries-1)))) * time.Second
	if d <= 0 {
		d = 1 * time.Second
	}
	return d
}
