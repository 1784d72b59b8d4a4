package helpers

import (
	"fmt"

	"github.com/zinc-sig/packhost/cmd/config"
	settings "github.com/zinc-sig/packhost/internal/config"
	"github.com/zinc-sig/packhost/internal/options"
)

// BuildUploadOptions merges the option bag from all sources.
// Precedence: config file < env < file < json < kv
func BuildUploadOptions(s *settings.Settings, cfg *config.UploadOptionFlags) (map[string]any, error) {
	if cfg.Type != "" {
		s.Upload.Type = cfg.Type
	}

	result, err := options.Build(options.Sources{
		Base:      s.Upload.Options,
		File:      cfg.File,
		JSON:      cfg.JSON,
		KV:        cfg.KV,
		EnvPrefix: options.EnvPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build upload options: %w", err)
	}
	return result, nil
}
