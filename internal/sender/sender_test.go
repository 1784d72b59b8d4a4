package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/host/hosttest"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/messages"
)

type staticProvider struct {
	url  string
	sha1 string
}

func (p *staticProvider) Upload(ctx context.Context, artifact hosting.Artifact) bool { return true }
func (p *staticProvider) PackURL() string                                            { return p.url }
func (p *staticProvider) PackSHA1() string                                           { return p.sha1 }

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		capability bool
		prefer     bool
		want       Strategy
	}{
		{false, false, Baseline},
		{false, true, Baseline},
		{true, false, Baseline},
		{true, true, Advanced},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectStrategy(tt.capability, tt.prefer),
			"capability=%v prefer=%v", tt.capability, tt.prefer)
	}
	assert.Equal(t, "advanced", Advanced.String())
	assert.Equal(t, "baseline", Baseline.String())
}

func TestNewAdvancedFallsBackWithoutPacketWriter(t *testing.T) {
	s := New(Advanced, Deps{Provider: &staticProvider{}, Events: host.NewBus()})
	_, ok := s.(*BaselineSender)
	assert.True(t, ok, "got %T", s)
}

func TestBaselineSendPack(t *testing.T) {
	runtime := hosttest.NewRuntime()
	client := hosttest.NewClient("steve")
	s := New(Baseline, Deps{
		Provider: &staticProvider{url: "https://cdn/x.zip", sha1: "ab"},
		Events:   runtime,
	})

	s.SendPack(context.Background(), client)
	assert.Equal(t, []hosttest.Push{{URL: "https://cdn/x.zip", SHA1: "ab"}}, client.Pushes())
}

func TestSendPackSkipsWithoutURL(t *testing.T) {
	runtime := hosttest.NewRuntime()
	client := hosttest.NewClient("steve")

	New(Baseline, Deps{Provider: &staticProvider{}, Events: runtime}).SendPack(context.Background(), client)
	New(Advanced, Deps{Provider: &staticProvider{}, Events: runtime, Packets: runtime}).SendPack(context.Background(), client)

	assert.Empty(t, client.Pushes())
	assert.Empty(t, client.Packets())
}

func TestAdvancedSendPack(t *testing.T) {
	runtime := hosttest.NewRuntime()
	client := hosttest.NewClient("alex")
	s := New(Advanced, Deps{
		Provider: &staticProvider{url: "https://cdn/x.zip", sha1: "ab"},
		Events:   runtime,
		Packets:  runtime,
		Config:   Config{Mandatory: true, Prompt: "Please accept"},
	})
	_, ok := s.(*AdvancedSender)
	require.True(t, ok)

	s.SendPack(context.Background(), client)

	packets := client.Packets()
	require.Len(t, packets, 1)
	assert.Equal(t, "https://cdn/x.zip", packets[0].URL)
	assert.Equal(t, "ab", packets[0].Hash)
	assert.True(t, packets[0].Required)
	assert.Equal(t, "Please accept", packets[0].Prompt)
	assert.Equal(t, PackID("https://cdn/x.zip").String(), packets[0].ID)
	assert.Empty(t, client.Pushes())
}

func TestPackIDIsStable(t *testing.T) {
	assert.Equal(t, PackID("https://cdn/a.zip"), PackID("https://cdn/a.zip"))
	assert.NotEqual(t, PackID("https://cdn/a.zip"), PackID("https://cdn/b.zip"))
}

func TestRegisterSendsOnJoin(t *testing.T) {
	runtime := hosttest.NewRuntime()
	s := New(Baseline, Deps{
		Provider: &staticProvider{url: "https://cdn/x.zip"},
		Events:   runtime,
		Config:   Config{SendOnJoin: true, JoinMessage: true},
	})

	s.Register()
	s.Register()
	assert.Equal(t, 1, runtime.Count(host.EventJoin), "register must not subscribe twice")

	client := hosttest.NewClient("steve")
	runtime.Join(client)

	assert.Len(t, client.Pushes(), 1)
	require.Len(t, client.Messages(), 1)
	assert.Contains(t, client.Messages()[0], "https://cdn/x.zip")

	s.Unregister()
	assert.Equal(t, 0, runtime.Count(host.EventJoin))

	late := hosttest.NewClient("late")
	runtime.Join(late)
	assert.Empty(t, late.Pushes())
}

func TestUnregisterWithoutRegister(t *testing.T) {
	s := New(Baseline, Deps{Provider: &staticProvider{}, Events: host.NewBus()})
	assert.NotPanics(t, s.Unregister)
}

func TestDelayedSendOnJoin(t *testing.T) {
	runtime := hosttest.NewRuntime()
	s := New(Baseline, Deps{
		Provider: &staticProvider{url: "https://cdn/x.zip"},
		Events:   runtime,
		Config:   Config{SendOnJoin: true, SendDelay: 10 * time.Millisecond},
	})
	s.Register()
	defer s.Unregister()

	client := hosttest.NewClient("steve")
	runtime.Join(client)
	assert.Empty(t, client.Pushes())

	assert.Eventually(t, func() bool { return len(client.Pushes()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestUnregisterCancelsPendingSends(t *testing.T) {
	runtime := hosttest.NewRuntime()
	s := New(Baseline, Deps{
		Provider: &staticProvider{url: "https://cdn/x.zip"},
		Events:   runtime,
		Config:   Config{SendOnJoin: true, SendDelay: 30 * time.Millisecond},
	})
	s.Register()

	client := hosttest.NewClient("steve")
	runtime.Join(client)
	s.Unregister()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, client.Pushes())
}

func TestSendFailureIsReported(t *testing.T) {
	var rec messages.Recorder
	client := hosttest.NewClient("steve")
	client.FailWith(errors.New("connection reset"))

	New(Baseline, Deps{
		Provider: &staticProvider{url: "https://cdn/x.zip"},
		Events:   host.NewBus(),
		Messages: &rec,
	}).SendPack(context.Background(), client)

	entry, ok := rec.Last(messages.PackSendFailed)
	require.True(t, ok)
	assert.Equal(t, "steve", entry.Fields["client"])
}
