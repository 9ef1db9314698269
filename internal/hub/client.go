package hub

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/weiawesome/jobboard-chat/internal/config"
	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// Connection is the hub's view of one live client.
type Connection interface {
	ID() string
	UserID() string
	// Send queues an encoded frame. It returns false when the connection
	// is closed or its buffer is full.
	Send(data []byte) bool
	// Close ends the connection with a websocket close code. Safe to call
	// more than once; only the first call counts.
	Close(code int, reason string)
}

type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	session *domain.Session
	config  config.WebSocketConfig
	logger  zerolog.Logger

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func NewClient(conn *websocket.Conn, session *domain.Session, cfg config.WebSocketConfig, logger zerolog.Logger) *Client {
	buf := cfg.SendBuffer
	if buf <= 0 {
		buf = 256
	}
	return &Client{
		id:      session.ID,
		conn:    conn,
		send:    make(chan []byte, buf),
		done:    make(chan struct{}),
		session: session,
		config:  cfg,
		logger:  logger,
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.session.UserID }

// Session returns the state established by the handshake.
func (c *Client) Session() *domain.Session { return c.session }

// Context returns ctx carrying the connection's logger.
func (c *Client) Context(ctx context.Context) context.Context {
	return log.WithLogger(ctx, c.logger)
}

func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

// Done is closed once Close has been called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump reads frames until the peer goes away or the connection is
// closed, then calls onClose exactly once.
func (c *Client) ReadPump(handler func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		c.Close(websocket.CloseNormalClosure, "")
		onClose(c)
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		c.session.UpdateActivity()
		handler(c, message)
	}
}

// WritePump is the only writer on the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-c.done:
			c.flush()
			deadline := time.Now().Add(c.config.WriteWait)
			c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason), deadline)
			return
		}
	}
}

// flush writes whatever is already queued so a final error event still
// reaches the client ahead of the close frame.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
