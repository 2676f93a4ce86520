// Package bridge talks to the capture/input helper that sits next to the
// game over a websocket. The helper does the screen grabbing and key
// presses; this side only asks for snapshots and sends moves.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tonobo/autopilot"
)

const (
	TypeCapture  = "CAPTURE"
	TypeSnapshot = "SNAPSHOT"
	TypeMove     = "MOVE"
	TypeAck      = "ACK"
)

// Message is the single envelope used in both directions.
type Message struct {
	Type      string          `json:"type"`
	Direction string          `json:"direction,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	OK        bool            `json:"ok,omitempty"`
	Error     string          `json:"error,omitempty"`
}

var ErrUnexpectedMessage = errors.New("unexpected message")

// Client implements autopilot.Perception and autopilot.Actuator.
type Client struct {
	conn    *websocket.Conn
	log     *log.Logger
	timeout time.Duration

	mu sync.Mutex
}

// Dial connects to the helper. timeout bounds each request/response pair
// when the caller's context has no deadline.
func Dial(ctx context.Context, url string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{conn: conn, log: logger, timeout: timeout}, nil
}

// Capture asks for one snapshot. A SNAPSHOT reply without a body is a
// failed capture and yields a nil snapshot.
func (c *Client) Capture(ctx context.Context) (*autopilot.PerceptionSnapshot, error) {
	resp, err := c.exchange(ctx, Message{Type: TypeCapture})
	if err != nil {
		return nil, err
	}
	if resp.Type != TypeSnapshot {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedMessage, resp.Type, TypeCapture)
	}
	if len(resp.Snapshot) == 0 || string(resp.Snapshot) == "null" {
		return nil, nil
	}
	s, err := autopilot.DecodeSnapshot(resp.Snapshot)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Send(ctx context.Context, d autopilot.Direction) error {
	resp, err := c.exchange(ctx, Message{Type: TypeMove, Direction: d.String()})
	if err != nil {
		return err
	}
	if resp.Type != TypeAck {
		return fmt.Errorf("%w: %s for %s", ErrUnexpectedMessage, resp.Type, TypeMove)
	}
	if !resp.OK {
		return fmt.Errorf("move %s rejected: %s", d, resp.Error)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, req Message) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return Message{}, fmt.Errorf("write %s: %w", req.Type, err)
	}
	_ = c.conn.SetReadDeadline(deadline)
	var resp Message
	if err := c.conn.ReadJSON(&resp); err != nil {
		return Message{}, fmt.Errorf("read reply to %s: %w", req.Type, err)
	}
	return resp, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.log.Printf("close: %v", err)
	}
	return c.conn.Close()
}
