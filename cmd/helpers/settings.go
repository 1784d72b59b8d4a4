package helpers

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/zinc-sig/packhost/cmd/config"
	settings "github.com/zinc-sig/packhost/internal/config"
	"github.com/zinc-sig/packhost/internal/messages"
)

// LoadSettings reads the config file and builds the process logger.
// Log flags override the file.
func LoadSettings(flags *config.GlobalFlags) (*settings.Settings, *log.Logger, error) {
	s, used, err := settings.Load(settings.LoadOptions{ConfigFile: flags.ConfigFile})
	if err != nil {
		return nil, nil, err
	}

	if flags.LogLevel != "" {
		s.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		s.Log.Format = flags.LogFormat
	}

	logger, err := messages.NewLogger(os.Stderr, s.Log.Level, s.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	if used != "" {
		logger.Debug("loaded config", "file", used)
	}

	return s, logger, nil
}
