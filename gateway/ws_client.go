// Package gateway is the thin websocket transport in front of the feed core.
// It deserializes bridge frames and hands them to the dispatcher; it holds no
// market state of its own.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ibfeed-go/contract"
	"ibfeed-go/dispatch"
	"ibfeed-go/status"
)

// ErrNoSession 当前没有存活的网关会话。
var ErrNoSession = errors.New("no live gateway session")

// Subscription 一条对桥接器的行情订阅请求。
type Subscription struct {
	ID       int                 `json:"tickerId"`
	Contract contract.Descriptor `json:"contract"`
}

// FeedClient 连接网关桥接器并把事件串行送入 Dispatcher。
type FeedClient struct {
	Endpoint string
	Dialer   *websocket.Dialer
	Log      *zap.Logger

	readTimeout time.Duration

	mu   sync.Mutex // serializes writes on conn
	conn *websocket.Conn
}

// NewFeedClient creates a client for the bridge endpoint (ws:// or wss://).
func NewFeedClient(endpoint string, logger *zap.Logger) *FeedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedClient{
		Endpoint:    endpoint,
		Dialer:      websocket.DefaultDialer,
		Log:         logger,
		readTimeout: 60 * time.Second,
	}
}

// Run dials the bridge, sends one subscribe request per contract, then reads
// frames until the context is canceled, the socket fails, or a Disconnect-class
// status arrives. The caller owns reconnection; it passes the current live
// subscription set on every call so a reconnect re-subscribes everything.
func (c *FeedClient) Run(ctx context.Context, d *dispatch.Dispatcher, subs []Subscription) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := c.Dialer.DialContext(runCtx, c.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Endpoint, err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	for _, sub := range subs {
		if err := c.Subscribe(sub); err != nil {
			return fmt.Errorf("subscribe %d: %w", sub.ID, err)
		}
	}

	go func() {
		// unblocks the read loop on cancellation; exits with Run via runCtx
		<-runCtx.Done()
		_ = conn.Close()
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		ev, err := ParseFrame(raw)
		if err != nil {
			// 不可解析的帧不终止会话
			c.Log.Warn("gateway frame dropped", zap.Error(err))
			continue
		}
		d.HandleEvent(ev)
		if disconnected(ev) {
			return fmt.Errorf("gateway session lost")
		}
	}
}

// Subscribe sends a subscribe request on the live session. Configuration
// changes arriving between sessions return ErrNoSession; the next Run call
// re-subscribes the full set, so the caller may treat that as a no-op.
func (c *FeedClient) Subscribe(sub Subscription) error {
	req := struct {
		Op string `json:"op"`
		Subscription
	}{Op: "subscribe", Subscription: sub}
	return c.writeJSON(req)
}

// Unsubscribe tells the bridge to stop streaming id on the live session.
func (c *FeedClient) Unsubscribe(id int) error {
	req := struct {
		Op string `json:"op"`
		ID int    `json:"tickerId"`
	}{Op: "unsubscribe", ID: id}
	return c.writeJSON(req)
}

func (c *FeedClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNoSession
	}
	return c.conn.WriteJSON(v)
}

// disconnected reports whether ev ends the session: an explicit close or a
// status the classifier marks Disconnect.
func disconnected(ev dispatch.Event) bool {
	switch e := ev.(type) {
	case dispatch.ConnectionClosed:
		return true
	case dispatch.StatusMessage:
		return status.Classify(e.Code) == status.Disconnect
	}
	return false
}
