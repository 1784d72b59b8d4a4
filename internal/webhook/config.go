package webhook

import (
	"fmt"
	"strings"
	"time"

	"github.com/zinc-sig/packhost/internal/retry"
)

// Config holds webhook endpoint configuration
type Config struct {
	URL       string            // Webhook endpoint URL
	Method    string            // HTTP method (default: POST)
	Headers   map[string]string // Custom headers
	Timeout   time.Duration     // Overall timeout for all retries
	AuthType  string            // Authentication type: none, bearer, api-key
	AuthToken string            // Authentication token
	Events    []string          // Cycle outcomes that trigger a delivery
}

// DefaultEvents are the outcomes delivered when Config.Events is empty
var DefaultEvents = []string{"notified", "upload_failed"}

// FromMap converts a merged settings map (keys url, method, headers,
// timeout, auth_type, auth_token, retries, retry_delay, events) into client
// configuration. A nil Config means no webhook is configured.
func FromMap(configMap map[string]any) (*Config, *retry.Config, error) {
	url, _ := configMap["url"].(string)
	if url == "" {
		return nil, nil, nil
	}

	timeout, err := durationValue(configMap, "timeout", 30*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook timeout duration: %w", err)
	}
	retryDelay, err := durationValue(configMap, "retry_delay", time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook retry delay: %w", err)
	}

	method, _ := configMap["method"].(string)
	if method == "" {
		method = "POST"
	}

	authType, _ := configMap["auth_type"].(string)
	if authType == "" {
		authType = "none"
	}
	authToken, _ := configMap["auth_token"].(string)

	// Get retries (handle both int and float64 from JSON)
	maxRetries := 3
	switch r := configMap["retries"].(type) {
	case int:
		maxRetries = r
	case int64:
		maxRetries = int(r)
	case float64:
		maxRetries = int(r)
	}

	headers := make(map[string]string)
	switch h := configMap["headers"].(type) {
	case map[string]string:
		for k, v := range h {
			headers[k] = v
		}
	case map[string]any:
		for k, v := range h {
			headers[k] = fmt.Sprint(v)
		}
	}

	config := &Config{
		URL:       url,
		Method:    strings.ToUpper(method),
		Headers:   headers,
		Timeout:   timeout,
		AuthType:  authType,
		AuthToken: authToken,
		Events:    stringList(configMap["events"]),
	}

	retryConfig := &retry.Config{
		MaxRetries:   maxRetries,
		InitialDelay: retryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	return config, retryConfig, nil
}

func durationValue(configMap map[string]any, key string, def time.Duration) (time.Duration, error) {
	switch v := configMap[key].(type) {
	case time.Duration:
		return v, nil
	case string:
		if v == "" {
			return def, nil
		}
		return time.ParseDuration(v)
	default:
		return def, nil
	}
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if list == "" {
			return nil
		}
		return strings.Split(list, ",")
	default:
		return nil
	}
}
