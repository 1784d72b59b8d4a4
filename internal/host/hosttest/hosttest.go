// Package hosttest provides in-memory host runtime fakes for tests.
package hosttest

import (
	"sync"

	"github.com/zinc-sig/packhost/internal/host"
)

// Push is a recorded SetResourcePack call
type Push struct {
	URL  string
	SHA1 string
}

// Client records everything sent to it
type Client struct {
	id string

	mu       sync.Mutex
	pushes   []Push
	messages []string
	packets  []host.ResourcePackPacket
	kicked   string
	err      error
}

// NewClient creates a client named id
func NewClient(id string) *Client {
	return &Client{id: id}
}

func (c *Client) ID() string   { return c.id }
func (c *Client) Name() string { return c.id }

// FailWith makes every delivery and kick of the client return err
func (c *Client) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Client) SendMessage(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, text)
	return nil
}

func (c *Client) SetResourcePack(url, sha1 string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.pushes = append(c.pushes, Push{URL: url, SHA1: sha1})
	return nil
}

// Kick records a disconnect with reason
func (c *Client) Kick(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.kicked = reason
	return nil
}

// Pushes returns the recorded pack pushes
func (c *Client) Pushes() []Push {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Push(nil), c.pushes...)
}

// Messages returns the recorded text messages
func (c *Client) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

// Packets returns packets written to the client through the runtime
func (c *Client) Packets() []host.ResourcePackPacket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]host.ResourcePackPacket(nil), c.packets...)
}

// Kicked returns the kick reason, empty if still connected
func (c *Client) Kicked() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kicked
}

// Runtime is a fake host runtime
type Runtime struct {
	*host.Bus

	mu           sync.Mutex
	clients      []host.Client
	capabilities map[string]bool
}

// NewRuntime creates a runtime with the given connected clients
func NewRuntime(clients ...host.Client) *Runtime {
	return &Runtime{
		Bus:          host.NewBus(),
		clients:      clients,
		capabilities: make(map[string]bool),
	}
}

// Connected returns the connected clients
func (r *Runtime) Connected() []host.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]host.Client(nil), r.clients...)
}

// Join connects client and publishes the join event
func (r *Runtime) Join(client host.Client) {
	r.mu.Lock()
	r.clients = append(r.clients, client)
	r.mu.Unlock()
	r.Publish(host.EventJoin, host.JoinEvent{Client: client})
}

// SetCapability toggles a named capability
func (r *Runtime) SetCapability(name string, present bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[name] = present
}

// HasCapability reports whether name was enabled
func (r *Runtime) HasCapability(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capabilities[name]
}

// WritePacket records packet on a hosttest client
func (r *Runtime) WritePacket(client host.Client, packet host.ResourcePackPacket) error {
	c, ok := client.(*Client)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.packets = append(c.packets, packet)
	return nil
}

// SyncScheduler runs tasks inline
type SyncScheduler struct{}

func (SyncScheduler) RunAsync(fn func()) { fn() }
