package events

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 12
)

// Client pumps hub messages for one subscriber to a websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	sub    *Subscriber
	logger *logging.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, topic string, logger *logging.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		sub:    hub.Subscribe(topic),
		logger: logger.Component("ws-client"),
	}
}

// Run starts both pumps and returns when the read side ends.
func (c *Client) Run() {
	go c.WritePump()
	c.ReadPump()
}

func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sub.Queue():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Warn("Websocket write error", logging.Fields{"error": err.Error()})
				c.hub.Unsubscribe(c.sub)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("Websocket ping error", logging.Fields{"error": err.Error()})
				c.hub.Unsubscribe(c.sub)
				return
			}
		}
	}
}

// ReadPump discards client frames; it exists to process pongs and notice
// disconnects.
func (c *Client) ReadPump() {
	defer c.hub.Unsubscribe(c.sub)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Websocket closed unexpectedly", logging.Fields{"error": err.Error()})
			}
			return
		}
	}
}
