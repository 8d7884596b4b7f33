package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConn is the client side of a relay session. The relay writes from
// multiple goroutines; implementations must serialize writes.
type ClientConn interface {
	// ReadMessage blocks for the next client frame.
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v any) error
	// Close sends a close frame with the given status code and closes the
	// socket. Safe to call more than once.
	Close(code int, reason string) error
}

// WSConn adapts a gorilla websocket connection to ClientConn.
type WSConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps conn. writeTimeout bounds each outgoing write; zero means
// a 5 second default.
func NewWSConn(conn *websocket.Conn, writeTimeout time.Duration) *WSConn {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &WSConn{conn: conn, writeTimeout: writeTimeout}
}

func (c *WSConn) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

func (c *WSConn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *WSConn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.writeTimeout)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
