package bot

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jordanwry/showdown/protocol"
)

// Client is one websocket connection to a simulator server.
type Client struct {
	conn *websocket.Conn
	log  logrus.FieldLogger
}

// Dial connects to the simulator websocket endpoint.
func Dial(ctx context.Context, serverURL string, log logrus.FieldLogger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bot: dialing %s: %w", serverURL, err)
	}
	// Battle logs can exceed the default read limit.
	conn.SetReadLimit(1 << 20)
	log.WithField("server", serverURL).Info("connected")
	return &Client{conn: conn, log: log}, nil
}

// ReadBlock reads and decodes the next message block. A block carries
// one room's worth of newline-separated protocol lines.
func (c *Client) ReadBlock(ctx context.Context) (string, []protocol.Event, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("bot: reading from server: %w", err)
	}
	room, events, err := protocol.Decode(string(data))
	if err != nil {
		return room, nil, err
	}
	return room, events, nil
}

// Send writes one room-scoped message ("roomid|text"; empty room for
// global commands).
func (c *Client) Send(ctx context.Context, room, text string) error {
	msg := room + "|" + text
	if err := c.conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
		return fmt.Errorf("bot: sending %q: %w", text, err)
	}
	c.log.WithFields(logrus.Fields{"room": room, "text": text}).Debug("sent")
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "done")
}
