package helpers

import (
	"github.com/spf13/cobra"

	"github.com/zinc-sig/packhost/cmd/config"
)

// SetupGlobalFlags adds persistent flags to the root command
func SetupGlobalFlags(cmd *cobra.Command, flags *config.GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file (default: ./packhost.yaml or the user config dir)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format: text, json, logfmt (overrides log.format)")
}

// SetupUploadOptionFlags adds option-bag flags to a command
func SetupUploadOptionFlags(cmd *cobra.Command, cfg *config.UploadOptionFlags) {
	cmd.Flags().StringVar(&cfg.Type, "upload-type", "", "Hosting provider: polymath, minio or external (overrides upload.type)")
	cmd.Flags().StringVar(&cfg.JSON, "upload-options", "", "Upload options as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "upload-option", nil, "Upload option key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "upload-options-file", "", "Path to JSON or YAML file containing upload options")
}

// SetupWebhookFlags adds webhook-related flags to a command
func SetupWebhookFlags(cmd *cobra.Command, cfg *config.WebhookConfig) {
	cmd.Flags().StringVar(&cfg.URL, "webhook-url", "", "Webhook URL to send results to")
	cmd.Flags().StringVar(&cfg.Method, "webhook-method", "POST", "HTTP method to use: GET, POST, PUT, PATCH, DELETE")
	cmd.Flags().StringVar(&cfg.AuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	cmd.Flags().StringVar(&cfg.AuthToken, "webhook-auth-token", "", "Authentication token (use with --webhook-auth-type)")
	cmd.Flags().IntVar(&cfg.Retries, "webhook-retries", 3, "Maximum webhook retry attempts (0 = no retries)")
	cmd.Flags().StringVar(&cfg.RetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	cmd.Flags().StringVar(&cfg.Timeout, "webhook-timeout", "30s", "Total timeout for webhook including retries")

	cmd.Flags().StringVar(&cfg.Config, "webhook-config", "", "Webhook configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "webhook-config-kv", nil, "Webhook config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "webhook-config-file", "", "Path to JSON or YAML file containing webhook configuration")
}
