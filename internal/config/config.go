// Package config loads packhost settings from a config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zinc-sig/packhost/internal/host"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/publish"
	"github.com/zinc-sig/packhost/internal/receiver"
	"github.com/zinc-sig/packhost/internal/sender"
)

const (
	// AppName is used for the config file name and directory
	AppName = "packhost"
	// EnvPrefix prefixes every environment override, e.g. PACKHOST_UPLOAD_TYPE
	EnvPrefix = "PACKHOST"
)

// Settings is the full packhost configuration, read once at startup
type Settings struct {
	Artifact string           `mapstructure:"artifact"`
	Upload   UploadSettings   `mapstructure:"upload"`
	SendPack SendPackSettings `mapstructure:"send_pack"`
	Receive  ReceiveSettings  `mapstructure:"receive"`
	Server   ServerSettings   `mapstructure:"server"`
	Watch    WatchSettings    `mapstructure:"watch"`
	Log      LogSettings      `mapstructure:"log"`
	Webhook  map[string]any   `mapstructure:"webhook"`
}

type UploadSettings struct {
	Enabled  bool             `mapstructure:"enabled"`
	Type     string           `mapstructure:"type"`
	Polymath PolymathSettings `mapstructure:"polymath"`
	// Options keys are lowercased by viper, so publicURL arrives as publicurl
	Options map[string]any `mapstructure:"options"`
	Timeout time.Duration  `mapstructure:"timeout"`
}

type PolymathSettings struct {
	Server string `mapstructure:"server"`
	Secret string `mapstructure:"secret"`
}

type SendPackSettings struct {
	Enabled     bool                `mapstructure:"enabled"`
	Delay       time.Duration       `mapstructure:"delay"`
	JoinMessage JoinMessageSettings `mapstructure:"join_message"`
	Advanced    bool                `mapstructure:"advanced"`
	Mandatory   bool                `mapstructure:"mandatory"`
	Prompt      string              `mapstructure:"prompt"`
}

type JoinMessageSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	Delay   time.Duration `mapstructure:"delay"`
}

type ReceiveSettings struct {
	Enabled       bool `mapstructure:"enabled"`
	KickOnDecline bool `mapstructure:"kick_on_decline"`
	KickOnFail    bool `mapstructure:"kick_on_fail"`
}

type ServerSettings struct {
	Listen       string   `mapstructure:"listen"`
	Capabilities []string `mapstructure:"capabilities"`
}

type WatchSettings struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadOptions controls where Load looks for a config file
type LoadOptions struct {
	// ConfigFile is used exclusively when set and must exist
	ConfigFile string
	// SearchPaths are scanned for packhost.{yaml,yml,json,toml} when
	// ConfigFile is empty. Defaults to the working directory and the user
	// config directory.
	SearchPaths []string
}

// Load reads settings from defaults, the config file and PACKHOST_* env vars,
// in increasing precedence. It returns the settings and the config file used,
// which is empty when none was found.
func Load(opts LoadOptions) (*Settings, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(AppName)
		for _, path := range searchPaths(opts.SearchPaths) {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if settings.Upload.Options == nil {
		settings.Upload.Options = make(map[string]any)
	}

	return &settings, v.ConfigFileUsed(), nil
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		Upload: UploadSettings{
			Enabled: true,
			Type:    hosting.TypePolymath,
			Options: map[string]any{},
		},
		SendPack: SendPackSettings{
			Enabled: true,
			JoinMessage: JoinMessageSettings{
				Delay: 2 * time.Second,
			},
		},
		Receive: ReceiveSettings{
			KickOnDecline: false,
			KickOnFail:    false,
		},
		Server: ServerSettings{
			Listen:       ":8080",
			Capabilities: []string{host.CapabilityPacketWriter},
		},
		Watch: WatchSettings{Debounce: 500 * time.Millisecond},
		Log:   LogSettings{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()

	v.SetDefault("artifact", d.Artifact)
	v.SetDefault("upload.enabled", d.Upload.Enabled)
	v.SetDefault("upload.type", d.Upload.Type)
	v.SetDefault("upload.polymath.server", d.Upload.Polymath.Server)
	v.SetDefault("upload.polymath.secret", d.Upload.Polymath.Secret)
	v.SetDefault("upload.options", d.Upload.Options)
	v.SetDefault("upload.timeout", d.Upload.Timeout)
	v.SetDefault("send_pack.enabled", d.SendPack.Enabled)
	v.SetDefault("send_pack.delay", d.SendPack.Delay)
	v.SetDefault("send_pack.join_message.enabled", d.SendPack.JoinMessage.Enabled)
	v.SetDefault("send_pack.join_message.delay", d.SendPack.JoinMessage.Delay)
	v.SetDefault("send_pack.advanced", d.SendPack.Advanced)
	v.SetDefault("send_pack.mandatory", d.SendPack.Mandatory)
	v.SetDefault("send_pack.prompt", d.SendPack.Prompt)
	v.SetDefault("receive.enabled", d.Receive.Enabled)
	v.SetDefault("receive.kick_on_decline", d.Receive.KickOnDecline)
	v.SetDefault("receive.kick_on_fail", d.Receive.KickOnFail)
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.capabilities", d.Server.Capabilities)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.method", "POST")
	v.SetDefault("webhook.auth_type", "none")
	v.SetDefault("webhook.auth_token", "")
	v.SetDefault("webhook.timeout", "30s")
	v.SetDefault("webhook.retries", 3)
	v.SetDefault("webhook.retry_delay", "1s")
}

func searchPaths(paths []string) []string {
	if len(paths) > 0 {
		return paths
	}
	paths = []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, AppName))
	}
	return paths
}

// Hosting returns the provider settings with options as the merged option bag
func (s *Settings) Hosting(options map[string]any) hosting.Settings {
	if options == nil {
		options = s.Upload.Options
	}
	return hosting.Settings{
		Type:           s.Upload.Type,
		PolymathServer: s.Upload.Polymath.Server,
		PolymathSecret: s.Upload.Polymath.Secret,
		Options:        options,
	}
}

// Publish converts settings into the orchestrator configuration
func (s *Settings) Publish(options map[string]any) publish.Config {
	return publish.Config{
		Enabled:        s.Upload.Enabled,
		Hosting:        s.Hosting(options),
		UploadTimeout:  s.Upload.Timeout,
		PreferAdvanced: s.SendPack.Advanced,
		ReceiveEnabled: s.Receive.Enabled,
		Sender: sender.Config{
			SendOnJoin:       s.SendPack.Enabled,
			SendDelay:        s.SendPack.Delay,
			JoinMessage:      s.SendPack.JoinMessage.Enabled,
			JoinMessageDelay: s.SendPack.JoinMessage.Delay,
			Mandatory:        s.SendPack.Mandatory,
			Prompt:           s.SendPack.Prompt,
		},
		Receiver: receiver.Config{
			KickOnDecline: s.Receive.KickOnDecline,
			KickOnFail:    s.Receive.KickOnFail,
		},
	}
}
