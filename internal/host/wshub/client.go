package wshub

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zinc-sig/packhost/internal/host"
)

// Client is one websocket session
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	name string

	writeMu sync.Mutex
	gone    bool
}

var (
	_ host.Client = (*Client)(nil)
	_ host.Kicker = (*Client)(nil)
)

func (c *Client) ID() string   { return c.id }
func (c *Client) Name() string { return c.name }

// SendMessage implements host.Client
func (c *Client) SendMessage(text string) error {
	return c.write(frame{Type: "message", Text: text})
}

// SetResourcePack implements host.Client
func (c *Client) SetResourcePack(url, sha1 string) error {
	return c.write(frame{Type: "resource_pack", URL: url, SHA1: sha1})
}

// Kick tells the client why and closes the connection
func (c *Client) Kick(reason string) error {
	err := c.write(frame{Type: "kick", Reason: reason})

	c.writeMu.Lock()
	c.gone = true
	c.writeMu.Unlock()

	c.hub.remove(c)
	_ = c.conn.Close()
	return err
}

func (c *Client) write(v frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.gone {
		return errNotConnected
	}
	return c.conn.WriteJSON(v)
}
