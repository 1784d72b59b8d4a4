package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zinc-sig/packhost/internal/retry"
)

// PolymathConfig holds the transport policy of the polymath client
type PolymathConfig struct {
	Retry   *retry.Config
	Timeout time.Duration // Overall timeout for all attempts (default: 2m)
}

// DefaultPolymathConfig returns the default transport policy
func DefaultPolymathConfig() *PolymathConfig {
	return &PolymathConfig{
		Retry:   retry.DefaultConfig(),
		Timeout: 2 * time.Minute,
	}
}

// Polymath uploads packs to a polymath server, which answers with the
// public URL and SHA-1 of the stored pack
type Polymath struct {
	server     string
	secret     string
	httpClient *http.Client
	config     *PolymathConfig

	mu      sync.RWMutex
	url     string
	sha1    string
	lastErr error
}

// polymathResponse is the JSON body returned by the upload endpoint
type polymathResponse struct {
	URL   string `json:"url"`
	SHA1  string `json:"sha1"`
	Error string `json:"error"`
}

// errUploadRejected marks responses that will not succeed on retry
var errUploadRejected = errors.New("upload rejected")

// NewPolymath creates a polymath provider for the given server address
func NewPolymath(server, secret string, config *PolymathConfig) *Polymath {
	if config == nil {
		config = DefaultPolymathConfig()
	}
	if config.Retry == nil {
		config.Retry = retry.DefaultConfig()
	}
	server = strings.TrimSpace(server)
	if server != "" && !strings.Contains(server, "://") {
		server = "https://" + server
	}
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}

	return &Polymath{
		server: server,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // Per-request timeout
		},
		config: config,
	}
}

// Name returns the provider name
func (p *Polymath) Name() string {
	return TypePolymath
}

// PackURL returns the URL of the last uploaded pack
func (p *Polymath) PackURL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// PackSHA1 returns the hex SHA-1 reported for the last uploaded pack
func (p *Polymath) PackSHA1() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sha1
}

// Upload posts the artifact to the server, retrying transient failures
func (p *Polymath) Upload(ctx context.Context, artifact Artifact) bool {
	resp, err := p.upload(ctx, artifact)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		return false
	}
	p.url = resp.URL
	p.sha1 = resp.SHA1
	return true
}

// LastError returns the error of the last failed upload, nil after a success
func (p *Polymath) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Polymath) upload(ctx context.Context, artifact Artifact) (*polymathResponse, error) {
	if p.server == "/" {
		return nil, fmt.Errorf("polymath: server address is not configured")
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	var resp *polymathResponse
	attempts, err := retry.Do(ctx, p.config.Retry, func() error {
		var err error
		resp, err = p.sendRequest(ctx, artifact)
		if errors.Is(err, errUploadRejected) {
			return retry.Permanent(err)
		}
		return err
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("polymath: failed after %d attempts: %w", attempts, err)
	}
	return resp, nil
}

func (p *Polymath) sendRequest(ctx context.Context, artifact Artifact) (*polymathResponse, error) {
	body, contentType, err := p.buildForm(artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUploadRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.server+"upload", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUploadRejected, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := retry.CheckStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var parsed polymathResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", errUploadRejected, err)
	}
	if parsed.URL == "" {
		reason := parsed.Error
		if reason == "" {
			reason = "response has no url"
		}
		return nil, fmt.Errorf("%w: %s", errUploadRejected, reason)
	}

	return &parsed, nil
}

// buildForm encodes the multipart body: the shared id and the pack file
func (p *Polymath) buildForm(artifact Artifact) (io.Reader, string, error) {
	reader, err := artifact.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", artifact.Path(), err)
	}
	defer func() { _ = reader.Close() }()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("id", p.secret); err != nil {
		return nil, "", err
	}

	part, err := form.CreateFormFile("pack", filepath.Base(artifact.Path()))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, reader); err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", artifact.Path(), err)
	}

	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}
