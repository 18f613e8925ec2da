package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
)

// Client wraps a websocket connection with a serialized write path. The
// underlying connection supports only one concurrent writer, and both the
// connection's own replies and cross-user fan-out target it; every write
// goes through the client's lock.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// Send marshals and writes one event to this connection.
func (c *Client) Send(event models.ServerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.write(payload)
}

// ReadMessage reads the next message from the connection. Reads are only
// ever issued by the connection's own read loop.
func (c *Client) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}
