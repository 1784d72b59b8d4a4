package config

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

// UploadOptionFlags holds option-bag flags
type UploadOptionFlags struct {
	Type string
	JSON string
	KV   []string
	File string
}

// WebhookConfig holds webhook-related flags
type WebhookConfig struct {
	// Direct configuration flags
	URL        string
	Method     string // HTTP method (GET, POST, PUT, PATCH, DELETE)
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string

	// Alternative configuration methods
	Config     string   // JSON string configuration
	ConfigKV   []string // Key-value pairs
	ConfigFile string   // Path to JSON or YAML config file
}
