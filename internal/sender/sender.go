// Package sender pushes the hosted pack location to connected clients.
package sender

import (
	"context"
	"sync"
	"time"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/messages"
)

// Sender delivers the current pack URL to clients
type Sender interface {
	// Register starts listening for client joins
	Register()

	// Unregister stops listening; safe to call when never registered
	Unregister()

	// SendPack pushes the provider's current pack URL to one client
	SendPack(ctx context.Context, client host.Client)
}

// Strategy selects a Sender implementation
type Strategy int

const (
	// Baseline delivers through the client session only
	Baseline Strategy = iota
	// Advanced writes low-level pack packets through the companion capability
	Advanced
)

func (s Strategy) String() string {
	if s == Advanced {
		return "advanced"
	}
	return "baseline"
}

// SelectStrategy picks Advanced only when the companion capability is
// present and preferred
func SelectStrategy(capabilityPresent, preferAdvanced bool) Strategy {
	if capabilityPresent && preferAdvanced {
		return Advanced
	}
	return Baseline
}

// Config controls what a sender does when a client joins
type Config struct {
	SendOnJoin       bool
	SendDelay        time.Duration
	JoinMessage      bool
	JoinMessageDelay time.Duration
	Mandatory        bool
	Prompt           string
}

// Deps are the collaborators a sender works with
type Deps struct {
	Provider hosting.Provider
	Events   host.EventBus
	Packets  host.PacketWriter
	Messages messages.Sink
	Config   Config
}

// New builds the sender for strategy.
// Advanced falls back to Baseline when no packet writer is available.
func New(strategy Strategy, deps Deps) Sender {
	b := &base{deps: deps, timers: make(map[*time.Timer]struct{})}
	if strategy == Advanced && deps.Packets != nil {
		s := &AdvancedSender{base: b}
		b.send = s.SendPack
		return s
	}
	s := &BaselineSender{base: b}
	b.send = s.SendPack
	return s
}

// base holds the join-listener lifecycle shared by both strategies
type base struct {
	deps Deps
	send func(ctx context.Context, client host.Client)

	mu          sync.Mutex
	unsubscribe func()
	timers      map[*time.Timer]struct{}
}

// Register subscribes to join events once
func (b *base) Register() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		return
	}
	b.unsubscribe = b.deps.Events.Subscribe(host.EventJoin, b.onJoin)
}

// Unregister drops the join subscription and any pending delayed sends
func (b *base) Unregister() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	for t := range b.timers {
		t.Stop()
	}
	clear(b.timers)
}

func (b *base) onJoin(payload any) {
	event, ok := payload.(host.JoinEvent)
	if !ok || event.Client == nil {
		return
	}
	cfg := b.deps.Config

	if cfg.JoinMessage {
		b.after(cfg.JoinMessageDelay, func() { b.sendWelcome(event.Client) })
	}
	if cfg.SendOnJoin {
		b.after(cfg.SendDelay, func() { b.send(context.Background(), event.Client) })
	}
}

// after runs fn after delay unless the sender is unregistered first
func (b *base) after(delay time.Duration, fn func()) {
	if delay <= 0 {
		fn()
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe == nil {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		b.mu.Lock()
		_, pending := b.timers[t]
		delete(b.timers, t)
		b.mu.Unlock()
		if pending {
			fn()
		}
	})
	b.timers[t] = struct{}{}
}

func (b *base) sendWelcome(client host.Client) {
	url := b.deps.Provider.PackURL()
	if url == "" {
		return
	}
	if err := client.SendMessage(messages.Render(messages.JoinWelcome, "url", url)); err != nil {
		b.reportFailure(client, err)
	}
}

func (b *base) reportFailure(client host.Client, err error) {
	if b.deps.Messages != nil {
		b.deps.Messages.Log(messages.PackSendFailed, "client", client.Name(), "error", err)
	}
}
