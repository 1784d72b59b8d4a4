// Package host describes the runtime that packhost publishes into: connected
// clients, the events they raise, optional delivery capabilities and the
// async task scheduler.
package host

// Client is a connected client session
type Client interface {
	ID() string
	Name() string

	// SendMessage shows a text message to the client
	SendMessage(text string) error

	// SetResourcePack asks the client to download the pack at url
	SetResourcePack(url, sha1 string) error
}

// Kicker is implemented by clients that can be disconnected
type Kicker interface {
	Kick(reason string) error
}

// ClientLister enumerates currently connected clients
type ClientLister interface {
	Connected() []Client
}

// Scheduler runs work off the caller's goroutine
type Scheduler interface {
	RunAsync(fn func())
}

// Event names a client event stream
type Event string

const (
	// EventJoin fires with a JoinEvent when a client connects
	EventJoin Event = "join"
	// EventPackStatus fires with a PackStatusEvent when a client reports pack progress
	EventPackStatus Event = "pack_status"
)

// JoinEvent is published when a client connects
type JoinEvent struct {
	Client Client
}

// PackStatus is the client's answer to a pack request
type PackStatus string

const (
	PackAccepted PackStatus = "accepted"
	PackDeclined PackStatus = "declined"
	PackLoaded   PackStatus = "loaded"
	PackFailed   PackStatus = "failed"
)

// PackStatusEvent is published when a client reports pack progress
type PackStatusEvent struct {
	Client Client
	Status PackStatus
}

// Listener receives event payloads
type Listener func(payload any)

// EventBus registers listeners for client events
type EventBus interface {
	// Subscribe registers l and returns a function that removes it
	Subscribe(event Event, l Listener) (unsubscribe func())
}

// CapabilityPacketWriter is the companion capability used by the advanced sender
const CapabilityPacketWriter = "packet-writer"

// Capabilities reports optional runtime capabilities by name
type Capabilities interface {
	HasCapability(name string) bool
}

// ResourcePackPacket is the low-level pack request written by PacketWriter
type ResourcePackPacket struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Hash     string `json:"hash,omitempty"`
	Required bool   `json:"required"`
	Prompt   string `json:"prompt,omitempty"`
}

// PacketWriter writes low-level packets to a client
type PacketWriter interface {
	WritePacket(client Client, packet ResourcePackPacket) error
}

// Runtime bundles what the orchestrator consumes from the host
type Runtime interface {
	ClientLister
	EventBus
	Capabilities
}
