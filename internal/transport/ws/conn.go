package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/registry"
	"github.com/mcoot/connectaword/internal/services/session"
	"github.com/mcoot/connectaword/internal/transport/wire"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

var _ session.Channel = (*Conn)(nil)

// Conn adapts a websocket to a session channel. Outbound messages are queued
// on a bounded buffer and written by a single writer goroutine.
type Conn struct {
	id     string
	ws     *websocket.Conn
	cfg    Config
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func newConn(ws *websocket.Conn, cfg Config, logger *slog.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:     id,
		ws:     ws,
		cfg:    cfg,
		logger: logger.With(slog.String("conn_id", id)),
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Send queues a message without blocking
func (c *Conn) Send(msg model.Outbound) error {
	data, err := wire.EncodeOutbound(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close asks the writer to flush queued messages, send a close frame with the
// reason and drop the socket. Only the first call has any effect.
func (c *Conn) Close(reason string) {
	c.CloseWithCode(closeCodeFor(reason), reason)
}

// CloseWithCode is Close with an explicit close code
func (c *Conn) CloseWithCode(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

func closeCodeFor(reason string) int {
	switch reason {
	case "":
		return websocket.CloseNormalClosure
	case registry.ReasonShutdown:
		return websocket.CloseGoingAway
	default:
		return websocket.ClosePolicyViolation
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				c.CloseWithCode(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.CloseWithCode(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued, then the close frame
func (c *Conn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			if c.closeCode == websocket.CloseAbnormalClosure {
				return
			}
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			_ = c.write(websocket.CloseMessage, msg)
			return
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}
