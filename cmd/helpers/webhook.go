package helpers

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/zinc-sig/packhost/cmd/config"
	"github.com/zinc-sig/packhost/internal/options"
	"github.com/zinc-sig/packhost/internal/webhook"
)

// WebhookEnvPrefix is the environment prefix for webhook settings given as a
// JSON object or PACKHOST_WEBHOOK_CONFIG_* variables
const WebhookEnvPrefix = "PACKHOST_WEBHOOK_CONFIG"

// BuildWebhookConfig builds webhook configuration from all sources.
// Precedence: config file < env < file < json < kv < direct flags
func BuildWebhookConfig(base map[string]any, cfg *config.WebhookConfig) (map[string]any, error) {
	webhookConf, err := options.Build(options.Sources{
		Base:      base,
		File:      cfg.ConfigFile,
		JSON:      cfg.Config,
		KV:        cfg.ConfigKV,
		EnvPrefix: WebhookEnvPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}

	// Explicit flag values win when they differ from the flag defaults
	if cfg.URL != "" {
		webhookConf["url"] = cfg.URL
	}
	if cfg.Method != "" && cfg.Method != "POST" {
		webhookConf["method"] = cfg.Method
	}
	if cfg.AuthType != "" && cfg.AuthType != "none" {
		webhookConf["auth_type"] = cfg.AuthType
	}
	if cfg.AuthToken != "" {
		webhookConf["auth_token"] = cfg.AuthToken
	}
	if cfg.Timeout != "" && cfg.Timeout != "30s" {
		webhookConf["timeout"] = cfg.Timeout
	}
	if cfg.Retries != 3 {
		webhookConf["retries"] = cfg.Retries
	}
	if cfg.RetryDelay != "" && cfg.RetryDelay != "1s" {
		webhookConf["retry_delay"] = cfg.RetryDelay
	}

	return webhookConf, nil
}

// SetupWebhook builds a webhook client, or returns nil when no URL is configured
func SetupWebhook(base map[string]any, cfg *config.WebhookConfig, logger *log.Logger) (*webhook.Client, *webhook.Config, error) {
	configMap, err := BuildWebhookConfig(base, cfg)
	if err != nil {
		return nil, nil, err
	}

	webhookConfig, retryConfig, err := webhook.FromMap(configMap)
	if err != nil || webhookConfig == nil {
		return nil, nil, err
	}

	return webhook.NewClient(webhookConfig, retryConfig, logger), webhookConfig, nil
}
