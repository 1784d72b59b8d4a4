package hosting

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioProvider hosts packs in a MinIO/S3 bucket.
// Objects are keyed by content hash so an unchanged pack keeps its URL.
type MinioProvider struct {
	client    *minio.Client
	bucket    string
	prefix    string
	publicURL string

	mu      sync.RWMutex
	url     string
	sha1    string
	lastErr error
}

// NewMinioProvider creates a new MinioProvider
func NewMinioProvider() *MinioProvider {
	return &MinioProvider{}
}

// Name returns the provider name
func (m *MinioProvider) Name() string {
	return TypeMinio
}

// Configure sets up the MinIO client from the option bag
func (m *MinioProvider) Configure(config Options) error {
	endpoint, ok := getStringValue(config, "endpoint")
	if !ok {
		return fmt.Errorf("minio: endpoint is required")
	}

	accessKey, ok := getStringValue(config, "access_key")
	if !ok {
		return fmt.Errorf("minio: access_key is required")
	}

	secretKey, ok := getStringValue(config, "secret_key")
	if !ok {
		return fmt.Errorf("minio: secret_key is required")
	}

	bucket, ok := getStringValue(config, "bucket")
	if !ok {
		return fmt.Errorf("minio: bucket is required")
	}

	secure := getBoolValue(config, "secure", true)
	region := getStringValueWithDefault(config, "region", "us-east-1")
	prefix := getStringValueWithDefault(config, "prefix", "")
	publicURL := getStringValueWithDefault(config, "public_url", "")

	// An explicit scheme on the endpoint wins over the secure option
	host, secure, err := splitEndpoint(endpoint, secure)
	if err != nil {
		return err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return fmt.Errorf("minio: failed to create client: %w", err)
	}

	m.client = client
	m.bucket = bucket
	m.prefix = prefix
	m.publicURL = strings.TrimSuffix(publicURL, "/")

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return fmt.Errorf("minio: failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %s does not exist", bucket)
	}

	return nil
}

func splitEndpoint(endpoint string, secure bool) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, secure, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, fmt.Errorf("minio: invalid endpoint URL %q", endpoint)
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("minio: invalid endpoint URL %q: unsupported scheme %s", endpoint, u.Scheme)
	}
}

// PackURL returns the URL of the last uploaded pack
func (m *MinioProvider) PackURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.url
}

// PackSHA1 returns the hex SHA-1 of the last uploaded pack
func (m *MinioProvider) PackSHA1() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sha1
}

// LastError returns the error of the last failed upload
func (m *MinioProvider) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Upload stores the artifact in the bucket
func (m *MinioProvider) Upload(ctx context.Context, artifact Artifact) bool {
	objectURL, sum, err := m.upload(ctx, artifact)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
	if err != nil {
		return false
	}
	m.url = objectURL
	m.sha1 = sum
	return true
}

func (m *MinioProvider) upload(ctx context.Context, artifact Artifact) (string, string, error) {
	if m.client == nil {
		return "", "", fmt.Errorf("minio: provider not configured")
	}

	sum, err := hashArtifact(artifact)
	if err != nil {
		return "", "", err
	}

	objectName := sum + ".zip"
	if m.prefix != "" {
		objectName = path.Join(m.prefix, objectName)
	}

	reader, err := artifact.Open()
	if err != nil {
		return "", "", fmt.Errorf("minio: failed to open %s: %w", artifact.Path(), err)
	}
	defer func() { _ = reader.Close() }()

	// -1 means unknown size, MinIO will handle streaming
	_, err = m.client.PutObject(ctx, m.bucket, objectName, reader, -1, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", "", fmt.Errorf("minio: failed to upload to %s: %w", objectName, err)
	}

	return m.objectURL(objectName), sum, nil
}

func (m *MinioProvider) objectURL(objectName string) string {
	if m.publicURL != "" {
		return m.publicURL + "/" + objectName
	}
	base := m.client.EndpointURL()
	return base.Scheme + "://" + base.Host + "/" + path.Join(m.bucket, objectName)
}

func hashArtifact(artifact Artifact) (string, error) {
	reader, err := artifact.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", artifact.Path(), err)
	}
	defer func() { _ = reader.Close() }()

	h := sha1.New()
	if _, err := io.Copy(h, reader); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", artifact.Path(), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Helper functions to extract values from the option bag.
// Scalars decoded as numbers or booleans are read back in their plain
// string form, so secret_key=12345678 is still a secret key.
func getStringValue(config Options, key string) (string, bool) {
	val, ok := config[key]
	if !ok {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(v), true
	}
	return "", false
}

func getStringValueWithDefault(config Options, key, defaultValue string) string {
	if val, ok := getStringValue(config, key); ok {
		return val
	}
	return defaultValue
}

func getBoolValue(config Options, key string, defaultValue bool) bool {
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	}
	return defaultValue
}
