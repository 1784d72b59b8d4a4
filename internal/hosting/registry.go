package hosting

import (
	"fmt"
	"sort"
)

const (
	// TypePolymath selects the network-hosted built-in
	TypePolymath = "polymath"
	// TypeMinio selects the S3-compatible built-in
	TypeMinio = "minio"
	// TypeExternal selects a class named by the "class" option
	TypeExternal = "external"
)

// Settings holds everything a built-in provider may be configured with
type Settings struct {
	Type           string
	PolymathServer string
	PolymathSecret string
	Options        Options
}

// ProviderFactory creates a built-in provider from settings
type ProviderFactory func(s Settings) (Provider, error)

// Registry holds all built-in hosting providers
var Registry = make(map[string]ProviderFactory)

// RegisterProvider registers a built-in hosting provider
func RegisterProvider(name string, factory ProviderFactory) {
	Registry[name] = factory
}

// NewProvider creates a built-in provider by name
func NewProvider(name string, s Settings) (Provider, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown hosting provider: %s", name)
	}
	return factory(s)
}

// BuiltinNames returns the registered built-in provider names
func BuiltinNames() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterProvider(TypePolymath, func(s Settings) (Provider, error) {
		if s.PolymathServer == "" {
			return nil, fmt.Errorf("polymath: server address is required")
		}
		return NewPolymath(s.PolymathServer, s.PolymathSecret, nil), nil
	})
	RegisterProvider(TypeMinio, func(s Settings) (Provider, error) {
		m := NewMinioProvider()
		if err := m.Configure(s.Options); err != nil {
			return nil, err
		}
		return m, nil
	})
}
