// Package receiver reacts to clients reporting the state of a pack download.
package receiver

import (
	"sync"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/messages"
)

// Config controls how declined or failed downloads are handled
type Config struct {
	KickOnDecline bool
	KickOnFail    bool
}

// Receiver listens for pack status events
type Receiver struct {
	events   host.EventBus
	messages messages.Sink
	config   Config

	mu          sync.Mutex
	unsubscribe func()
}

// New creates an unregistered receiver
func New(events host.EventBus, sink messages.Sink, config Config) *Receiver {
	return &Receiver{events: events, messages: sink, config: config}
}

// Register subscribes to pack status events once
func (r *Receiver) Register() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe == nil {
		r.unsubscribe = r.events.Subscribe(host.EventPackStatus, r.onStatus)
	}
}

// Unregister removes the subscription
func (r *Receiver) Unregister() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

func (r *Receiver) onStatus(payload any) {
	event, ok := payload.(host.PackStatusEvent)
	if !ok || event.Client == nil {
		return
	}
	name := event.Client.Name()

	switch event.Status {
	case host.PackAccepted:
		r.messages.Log(messages.PackAccepted, "client", name)
	case host.PackLoaded:
		r.messages.Log(messages.PackLoaded, "client", name)
	case host.PackDeclined:
		r.messages.Log(messages.PackDeclined, "client", name)
		if r.config.KickOnDecline {
			r.kick(event.Client, name, messages.Render(messages.KickDeclined))
		}
	case host.PackFailed:
		r.messages.Log(messages.PackFailed, "client", name)
		if r.config.KickOnFail {
			r.kick(event.Client, name, messages.Render(messages.KickFailed))
		}
	}
}

func (r *Receiver) kick(client host.Client, name, reason string) {
	k, ok := client.(host.Kicker)
	if !ok {
		return
	}
	if err := k.Kick(reason); err != nil {
		r.messages.Log(messages.PackSendFailed, "client", name, "error", err)
	}
}
