package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/driftboard/driftboard/backend-go/internal/board"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	board    *board.Board
	BoardID  string
	ClientID string
	log      *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, b *board.Board, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		board:    b,
		BoardID:  b.ID,
		ClientID: clientID,
		log:      hub.log.With("board", b.ID, "client", clientID),
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.release(c.BoardID)
		close(c.send)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			c.log.Debug("read error", "error", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("invalid message", "error", err)
			c.sendError(0, "invalid message")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues a message. Only the read pump may call it once the
// connection is running.
func (c *Client) Send(msgType string, seq int64, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("marshal payload", "error", err, "type", msgType)
		return
	}
	data, err := json.Marshal(Message{Type: msgType, Seq: seq, Payload: raw})
	if err != nil {
		c.log.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("client send buffer full, dropping message", "type", msgType)
	}
}

func (c *Client) welcome() {
	payload := WelcomePayload{
		ClientID: c.ClientID,
		BoardID:  c.BoardID,
		PageID:   c.board.Active().ID,
	}
	err := c.board.ReadPage(payload.PageID, func(e *engine.Engine) error {
		payload.Status = e.Status()
		return nil
	})
	if err != nil {
		c.log.Warn("read active page", "error", err)
	}
	c.Send(TypeWelcome, 0, payload)
}

func (c *Client) handleMessage(msg *Message) {
	var run func(e *engine.Engine) (StatusPayload, error)

	switch msg.Type {
	case TypeInput:
		var ev engine.InputEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			c.sendError(msg.Seq, "invalid input event")
			return
		}
		run = func(e *engine.Engine) (StatusPayload, error) {
			consumed, err := e.Dispatch(ev)
			return StatusPayload{Consumed: consumed}, err
		}

	case TypeCommand:
		cmd, err := engine.ParseCommand(msg.Payload)
		if err != nil {
			c.sendError(msg.Seq, err.Error())
			return
		}
		run = func(e *engine.Engine) (StatusPayload, error) {
			res, err := e.Apply(cmd)
			return StatusPayload{Changed: res.Changed}, err
		}

	default:
		c.sendError(msg.Seq, fmt.Sprintf("unknown message type %q", msg.Type))
		return
	}

	var (
		reply     StatusPayload
		before    engine.Status
		requested []Message
	)
	err := c.board.Update(func(pageID string, e *engine.Engine) error {
		before = e.Status()
		var err error
		if reply, err = run(e); err != nil {
			return err
		}
		reply.PageID = pageID
		reply.Status = e.Status()
		requested = newRequests(pageID, before, reply.Status)
		return nil
	})
	if err != nil {
		c.sendError(msg.Seq, err.Error())
		return
	}

	c.Send(TypeStatus, msg.Seq, reply)
	for _, req := range requested {
		c.Send(req.Type, msg.Seq, req.Payload)
	}
}

// newRequests reports text or sticky requests that appeared between two
// status snapshots.
func newRequests(pageID string, before, after engine.Status) []Message {
	var out []Message
	if t := after.PendingText; t != nil && (before.PendingText == nil || *before.PendingText != *t) {
		raw, _ := json.Marshal(TextRequestPayload{PageID: pageID, TextRequest: *t})
		out = append(out, Message{Type: TypeTextRequest, Payload: raw})
	}
	if s := after.PendingSticky; s != nil && (before.PendingSticky == nil || *before.PendingSticky != *s) {
		raw, _ := json.Marshal(StickyRequestPayload{PageID: pageID, StickyRequest: *s})
		out = append(out, Message{Type: TypeStickyRequest, Payload: raw})
	}
	return out
}

func (c *Client) sendError(seq int64, message string) {
	c.Send(TypeError, seq, ErrorPayload{Message: message})
}
