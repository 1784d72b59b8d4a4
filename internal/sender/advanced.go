package sender

import (
	"context"

	"github.com/google/uuid"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/hosting"
)

// AdvancedSender writes resource pack packets directly, which lets it mark
// the pack mandatory and attach a prompt
type AdvancedSender struct {
	*base
}

// SendPack writes a pack packet for the current URL to client
func (s *AdvancedSender) SendPack(ctx context.Context, client host.Client) {
	url := s.deps.Provider.PackURL()
	if url == "" {
		return
	}

	packet := host.ResourcePackPacket{
		ID:       PackID(url).String(),
		URL:      url,
		Hash:     hosting.SHA1Of(s.deps.Provider),
		Required: s.deps.Config.Mandatory,
		Prompt:   s.deps.Config.Prompt,
	}
	if err := s.deps.Packets.WritePacket(client, packet); err != nil {
		s.reportFailure(client, err)
	}
}

// PackID derives a stable pack id from its URL
func PackID(url string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url))
}
