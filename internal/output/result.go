package output

import (
	"encoding/json"
	"io"
	"time"
)

// Status of a publication
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusFailed     Status = "failed"
	StatusNotified   Status = "notified"
	StatusSuppressed Status = "suppressed"
)

type Result struct {
	Status     Status `json:"status"`
	Provider   string `json:"provider"`
	Artifact   string `json:"artifact"`
	URL        string `json:"url,omitempty"`
	SHA1       string `json:"sha1,omitempty"`
	UploadTime int64  `json:"upload_time"` // in milliseconds
	Clients    *int   `json:"clients,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`

	// Webhook status (only in local output, not sent to webhook)
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

// NewResult stamps a result with the current time
func NewResult(status Status, provider, artifact string, elapsed time.Duration) *Result {
	return &Result{
		Status:     status,
		Provider:   provider,
		Artifact:   artifact,
		UploadTime: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Write prints r as indented JSON
func Write(w io.Writer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
