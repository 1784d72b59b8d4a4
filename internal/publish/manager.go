// Package publish uploads freshly generated packs and broadcasts their
// location to connected clients.
package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/messages"
	"github.com/zinc-sig/packhost/internal/receiver"
	"github.com/zinc-sig/packhost/internal/sender"
)

// Config is read once when the manager is built
type Config struct {
	Enabled        bool
	Hosting        hosting.Settings
	UploadTimeout  time.Duration
	PreferAdvanced bool
	ReceiveEnabled bool
	Sender         sender.Config
	Receiver       receiver.Config
}

// notifies reports whether any client notification is configured
func (c Config) notifies() bool {
	return c.Sender.SendOnJoin || c.Sender.JoinMessage
}

// Deps are the host collaborators
type Deps struct {
	Runtime   host.Runtime
	Scheduler host.Scheduler
	Messages  messages.Sink
	// Packets is used by the advanced sender, when available
	Packets  host.PacketWriter
	Observer Observer
}

// Outcome is how an upload cycle ended
type Outcome string

const (
	OutcomeFailed       Outcome = "upload_failed"
	OutcomeNotified     Outcome = "notified"
	OutcomeSuppressed   Outcome = "suppressed"
	OutcomeUnregistered Outcome = "unregistered"
)

// CycleResult describes one finished upload cycle
type CycleResult struct {
	Outcome  Outcome
	Provider string
	Artifact string
	URL      string
	SHA1     string
	Duration time.Duration
	Pushed   int
	Strategy sender.Strategy
	Err      error
}

// Observer is notified after every upload cycle
type Observer interface {
	ObserveCycle(result CycleResult)
}

// Observers fans a cycle result out to each observer in order
type Observers []Observer

func (o Observers) ObserveCycle(result CycleResult) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveCycle(result)
		}
	}
}

// Manager owns the hosting provider, the active pack sender and the last
// URL broadcast to clients.
//
// Upload cycles run on the scheduler and are serialized: the upload, the
// sender replacement and the URL update of one cycle never interleave with
// another's.
type Manager struct {
	config   Config
	deps     Deps
	provider hosting.Provider

	receiverOnce sync.Once
	receiver     *receiver.Receiver

	cycleMu sync.Mutex
	pending sync.WaitGroup

	stateMu sync.RWMutex
	sender  sender.Sender
	lastURL string
}

// New builds a manager and resolves its hosting provider.
// A resolution failure is returned as a hosting.ProviderNotFoundError and
// leaves no usable manager.
func New(config Config, deps Deps) (*Manager, error) {
	if deps.Runtime == nil {
		return nil, fmt.Errorf("publish: host runtime is required")
	}
	if deps.Scheduler == nil {
		deps.Scheduler = host.NewAsyncScheduler()
	}
	if deps.Messages == nil {
		deps.Messages = messages.Discard
	}

	provider, err := hosting.Resolve(config.Hosting)
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:   config,
		deps:     deps,
		provider: provider,
	}, nil
}

// HostingProvider returns the resolved provider
func (m *Manager) HostingProvider() hosting.Provider {
	return m.provider
}

// Sender returns the current pack sender, nil before the first successful upload
func (m *Manager) Sender() sender.Sender {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.sender
}

// LastURL returns the URL last broadcast to clients
func (m *Manager) LastURL() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastURL
}

// Enabled reports whether uploads are enabled
func (m *Manager) Enabled() bool {
	return m.config.Enabled
}

// UploadAndNotify uploads artifact in the background and then notifies
// clients. forceSenderRefresh replaces an existing sender, picking the
// strategy again. It never blocks and does nothing when uploads are disabled.
func (m *Manager) UploadAndNotify(artifact hosting.Artifact, forceSenderRefresh bool) {
	if !m.config.Enabled {
		return
	}

	if m.config.ReceiveEnabled {
		m.receiverOnce.Do(m.startReceiver)
	}

	start := time.Now()
	m.log(messages.PackUploading)

	m.pending.Add(1)
	m.deps.Scheduler.RunAsync(func() {
		defer m.pending.Done()
		m.runCycle(artifact, forceSenderRefresh, start)
	})
}

// Wait blocks until every scheduled cycle has finished
func (m *Manager) Wait() {
	m.pending.Wait()
}

func (m *Manager) startReceiver() {
	m.receiver = receiver.New(m.deps.Runtime, m.deps.Messages, m.config.Receiver)
	m.receiver.Register()
	m.log(messages.ReceiverEnabled)
}

func (m *Manager) runCycle(artifact hosting.Artifact, forceSenderRefresh bool, start time.Time) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	ctx := context.Background()
	if m.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.UploadTimeout)
		defer cancel()
	}

	provider := hosting.NameOf(m.provider)
	if !m.provider.Upload(ctx, artifact) {
		err := hosting.LastErrorOf(m.provider)
		if err != nil {
			m.log(messages.PackNotUploaded, "provider", provider, "error", err)
		} else {
			m.log(messages.PackNotUploaded, "provider", provider)
		}
		m.observe(CycleResult{
			Outcome:  OutcomeFailed,
			Provider: provider,
			Artifact: artifact.Path(),
			Duration: time.Since(start),
			Err:      err,
		})
		return
	}

	url := m.provider.PackURL()
	elapsed := time.Since(start)
	m.log(messages.PackUploaded, "url", url, "delay", elapsed.Milliseconds())

	strategy := m.resolveSender(forceSenderRefresh)
	result := m.notify(ctx, url)
	result.Provider = provider
	result.Artifact = artifact.Path()
	result.SHA1 = hosting.SHA1Of(m.provider)
	result.Duration = elapsed
	result.Strategy = strategy
	m.observe(result)
}

// resolveSender creates the sender on first use and replaces it on a forced refresh
func (m *Manager) resolveSender(forceRefresh bool) sender.Strategy {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	strategy := sender.SelectStrategy(
		m.deps.Runtime.HasCapability(host.CapabilityPacketWriter) && m.deps.Packets != nil,
		m.config.PreferAdvanced,
	)

	switch {
	case m.sender == nil:
	case forceRefresh:
		m.sender.Unregister()
	default:
		return strategyOf(m.sender)
	}

	m.sender = sender.New(strategy, sender.Deps{
		Provider: m.provider,
		Events:   m.deps.Runtime,
		Packets:  m.deps.Packets,
		Messages: m.deps.Messages,
		Config:   m.config.Sender,
	})
	m.log(messages.SenderSelected, "strategy", strategyOf(m.sender))
	return strategyOf(m.sender)
}

func (m *Manager) notify(ctx context.Context, url string) CycleResult {
	m.stateMu.Lock()
	current := m.sender
	m.stateMu.Unlock()

	if !m.config.notifies() {
		if current != nil {
			current.Unregister()
		}
		m.log(messages.SenderDisabled)
		return CycleResult{Outcome: OutcomeUnregistered, URL: url}
	}

	current.Register()

	if url == m.LastURL() {
		m.log(messages.PackUnchanged, "url", url)
		return CycleResult{Outcome: OutcomeSuppressed, URL: url}
	}

	clients := m.deps.Runtime.Connected()
	for _, client := range clients {
		current.SendPack(ctx, client)
	}

	m.stateMu.Lock()
	m.lastURL = url
	m.stateMu.Unlock()

	m.log(messages.PackBroadcast, "url", url, "clients", len(clients))
	return CycleResult{Outcome: OutcomeNotified, URL: url, Pushed: len(clients)}
}

func (m *Manager) log(msg messages.Message, keyvals ...any) {
	m.deps.Messages.Log(msg, keyvals...)
}

func (m *Manager) observe(result CycleResult) {
	if m.deps.Observer != nil {
		m.deps.Observer.ObserveCycle(result)
	}
}

func strategyOf(s sender.Sender) sender.Strategy {
	if _, ok := s.(*sender.AdvancedSender); ok {
		return sender.Advanced
	}
	return sender.Baseline
}
