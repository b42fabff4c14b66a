package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Socket timing. Pings go out well inside the pong deadline.
const (
	writeTimeout    = 10 * time.Second
	idleTimeout     = 60 * time.Second
	keepAlivePeriod = idleTimeout * 9 / 10
	maxFrameSize    = 64 * 1024
	clientQueueSize = 256
)

// CheckOrigin accepts any origin: browsers authenticate with the token
// query parameter and REST origins are enforced by CORS.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is one open socket of an authenticated user.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  int64
	handler *MessageHandler // nil for push-only sockets
	logger  zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, handler *MessageHandler, logger zerolog.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, clientQueueSize),
		userID:  userID,
		handler: handler,
		logger:  logger.With().Int64("userID", userID).Logger(),
	}
}

// serve starts both pumps. The hub owns the send channel from here on.
func (c *Client) serve() {
	go c.writeLoop()
	go c.readLoop()
}

func (c *Client) extendReadDeadline(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.extendReadDeadline("")
	c.conn.SetPongHandler(c.extendReadDeadline)

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logClose(err)
			return
		}
		if c.handler == nil {
			continue
		}
		if err := c.handler.checkAccount(c.userID); err != nil {
			c.logger.Info().Err(err).Msg("Closing WebSocket of inactive account")
			c.closeWith(websocket.ClosePolicyViolation, "account is not active")
			return
		}
		if reply := c.handler.Handle(c.userID, frame); reply != nil {
			c.hub.reply(c, reply)
		}
	}
}

func (c *Client) logClose(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		c.logger.Warn().Err(err).Msg("Unexpected WebSocket close")
		return
	}
	c.logger.Debug().Err(err).Msg("WebSocket closed")
}

// closeWith sends a close frame; WriteControl may run alongside writeLoop.
func (c *Client) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// writeLoop sends one JSON event per text frame and keeps the peer alive.
func (c *Client) writeLoop() {
	keepAlive := time.NewTicker(keepAlivePeriod)
	defer func() {
		keepAlive.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, open := <-c.send:
			if !open {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
