// Package wshub is a websocket implementation of the host runtime. Each
// websocket connection is one client session.
//
// Protocol, one JSON object per text frame:
//
//	client -> hub  {"type":"hello","name":"steve"}
//	hub -> client  {"type":"welcome","id":"..."}
//	client -> hub  {"type":"status","status":"accepted|declined|loaded|failed"}
//	hub -> client  {"type":"message","text":"..."}
//	hub -> client  {"type":"resource_pack","url":"...","sha1":"..."}
//	hub -> client  {"type":"packet","packet":{...}}
//	hub -> client  {"type":"kick","reason":"..."}
package wshub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zinc-sig/packhost/internal/host"
)

const helloTimeout = 10 * time.Second

var (
	errClosed        = errors.New("wshub: hub closed")
	errNotConnected  = errors.New("wshub: client not connected")
	errForeignClient = errors.New("wshub: client does not belong to this hub")
)

// Config configures a Hub
type Config struct {
	// Capabilities advertised to the orchestrator, e.g. host.CapabilityPacketWriter
	Capabilities []string
	// Logger may be nil
	Logger *log.Logger
}

// Hub accepts websocket clients and implements host.Runtime and host.PacketWriter
type Hub struct {
	*host.Bus

	capabilities []string
	logger       *log.Logger
	upgrader     websocket.Upgrader

	mu      sync.RWMutex
	clients []*Client
	closed  bool
}

var (
	_ host.Runtime      = (*Hub)(nil)
	_ host.PacketWriter = (*Hub)(nil)
	_ http.Handler      = (*Hub)(nil)
)

// New creates a hub
func New(cfg Config) *Hub {
	return &Hub{
		Bus:          host.NewBus(),
		capabilities: slices.Clone(cfg.Capabilities),
		logger:       cfg.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connected returns the connected clients in join order
func (h *Hub) Connected() []host.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]host.Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// HasCapability implements host.Capabilities
func (h *Hub) HasCapability(name string) bool {
	return slices.Contains(h.capabilities, name)
}

// WritePacket implements host.PacketWriter
func (h *Hub) WritePacket(client host.Client, packet host.ResourcePackPacket) error {
	c, ok := client.(*Client)
	if !ok || c.hub != h {
		return errForeignClient
	}
	return c.write(frame{Type: "packet", Packet: &packet})
}

// ServeHTTP upgrades the request and registers the connection as a client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client, err := h.accept(conn)
	if err != nil {
		h.debug("client rejected", "remote", r.RemoteAddr, "err", err)
		_ = conn.Close()
		return
	}

	h.debug("client joined", "id", client.id, "name", client.name)
	h.Publish(host.EventJoin, host.JoinEvent{Client: client})

	go h.readLoop(client)
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = nil
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
	return nil
}

type frame struct {
	Type   string                   `json:"type"`
	ID     string                   `json:"id,omitempty"`
	Name   string                   `json:"name,omitempty"`
	Text   string                   `json:"text,omitempty"`
	URL    string                   `json:"url,omitempty"`
	SHA1   string                   `json:"sha1,omitempty"`
	Status string                   `json:"status,omitempty"`
	Reason string                   `json:"reason,omitempty"`
	Packet *host.ResourcePackPacket `json:"packet,omitempty"`
}

func (h *Hub) accept(conn *websocket.Conn) (*Client, error) {
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var hello frame
	if err := json.Unmarshal(data, &hello); err != nil {
		return nil, fmt.Errorf("parse hello: %w", err)
	}
	if strings.ToLower(strings.TrimSpace(hello.Type)) != "hello" {
		return nil, fmt.Errorf("expected hello, got %q", hello.Type)
	}
	_ = conn.SetReadDeadline(time.Time{})

	client := &Client{
		hub:  h,
		conn: conn,
		id:   uuid.NewString(),
		name: strings.TrimSpace(hello.Name),
	}
	if client.name == "" {
		client.name = client.id
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errClosed
	}
	h.clients = append(h.clients, client)
	h.mu.Unlock()

	if err := client.write(frame{Type: "welcome", ID: client.id}); err != nil {
		h.remove(client)
		return nil, err
	}
	return client, nil
}

func (h *Hub) readLoop(c *Client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		h.handleMessage(c, data)
	}

	h.remove(c)
	_ = c.conn.Close()
	h.debug("client left", "id", c.id, "name", c.name)
}

func (h *Hub) handleMessage(c *Client, data []byte) {
	var msg frame
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Type != "status" {
		return
	}

	status := host.PackStatus(strings.ToLower(strings.TrimSpace(msg.Status)))
	switch status {
	case host.PackAccepted, host.PackDeclined, host.PackLoaded, host.PackFailed:
		h.Publish(host.EventPackStatus, host.PackStatusEvent{Client: c, Status: status})
	default:
		h.debug("unknown pack status", "id", c.id, "status", msg.Status)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients = slices.DeleteFunc(h.clients, func(other *Client) bool { return other == c })
}

func (h *Hub) debug(msg string, keyvals ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, keyvals...)
	}
}
