package sender

import (
	"context"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/hosting"
)

// BaselineSender asks clients to load the pack through their session
type BaselineSender struct {
	*base
}

// SendPack sends the current pack URL and hash to client
func (s *BaselineSender) SendPack(ctx context.Context, client host.Client) {
	url := s.deps.Provider.PackURL()
	if url == "" {
		return
	}
	if err := client.SetResourcePack(url, hosting.SHA1Of(s.deps.Provider)); err != nil {
		s.reportFailure(client, err)
	}
}
