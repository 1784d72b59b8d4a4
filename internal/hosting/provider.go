package hosting

import (
	"context"
	"io"
)

// Artifact is a finalized pack file ready for publishing
type Artifact interface {
	// Path returns the local path of the artifact
	Path() string

	// Open returns a fresh reader over the artifact content
	Open() (io.ReadCloser, error)
}

// Options is the provider-specific option bag
type Options = map[string]any

// Provider defines the interface for pack hosting backends
type Provider interface {
	// Upload transfers the artifact to the remote host.
	// Transfer failures are reported as false, never as a panic.
	Upload(ctx context.Context, artifact Artifact) bool

	// PackURL returns the location of the last successful upload,
	// or an empty string before any upload succeeded
	PackURL() string
}

// Hasher is implemented by providers that know the SHA-1 of the last uploaded pack
type Hasher interface {
	PackSHA1() string
}

// Namer is implemented by providers that report a display name
type Namer interface {
	Name() string
}

// Diagnoser is implemented by providers that keep the error behind their
// last failed upload
type Diagnoser interface {
	LastError() error
}

// LastErrorOf returns the provider's last upload error when it exposes one
func LastErrorOf(p Provider) error {
	if d, ok := p.(Diagnoser); ok {
		return d.LastError()
	}
	return nil
}

// NameOf returns the provider's display name, or its Go type when it has none
func NameOf(p Provider) string {
	if n, ok := p.(Namer); ok {
		return n.Name()
	}
	return typeName(p)
}

// SHA1Of returns the provider's last pack hash when it exposes one
func SHA1Of(p Provider) string {
	if h, ok := p.(Hasher); ok {
		return h.PackSHA1()
	}
	return ""
}
