package hosting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHost struct {
	options Options
	via     string
	url     string
}

func newStubHost() *stubHost {
	return &stubHost{via: "zero-arg"}
}

func newStubHostWithOptions(options Options) *stubHost {
	return &stubHost{via: "options", options: options}
}

func (h *stubHost) Upload(ctx context.Context, artifact Artifact) bool {
	h.url = "https://cdn/x.zip"
	return true
}

func (h *stubHost) PackURL() string {
	return h.url
}

type notAHost struct{}

func externalSettings(class string) Settings {
	return Settings{
		Type:    "external",
		Options: Options{"class": class, "token": "abc"},
	}
}

func TestResolveUnknownType(t *testing.T) {
	_, err := Resolve(Settings{Type: "ftp"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Contains(t, err.Error(), "unknown provider type: ftp")
	assert.Contains(t, err.Error(), "expected one of minio, polymath, external")
}

func TestResolvePolymathRequiresServer(t *testing.T) {
	_, err := Resolve(Settings{Type: "polymath"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestResolvePolymathCaseInsensitive(t *testing.T) {
	provider, err := Resolve(Settings{Type: "PolyMath", PolymathServer: "atlas.example.com"})
	require.NoError(t, err)

	polymath, ok := provider.(*Polymath)
	require.True(t, ok, "expected *Polymath, got %T", provider)
	assert.Equal(t, "https://atlas.example.com/", polymath.server)
	assert.Equal(t, "polymath", NameOf(provider))
}

func TestResolveExternalMissingClass(t *testing.T) {
	_, err := Resolve(Settings{Type: "external", Options: Options{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Contains(t, err.Error(), "no provider set")

	_, err = Resolve(Settings{Type: "external"})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestResolveExternalNumericClass(t *testing.T) {
	RegisterClass(NewClass("2024", (*stubHost)(nil), newStubHost))

	provider, err := Resolve(Settings{Type: "external", Options: Options{"class": 2024}})
	require.NoError(t, err)
	assert.Equal(t, "zero-arg", provider.(*stubHost).via)
}

func TestResolveExternalUnknownClass(t *testing.T) {
	_, err := Resolve(externalSettings("does.not.Exist"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.ErrorIs(t, err, errClassNotRegistered)
}

func TestResolveExternalUnknownClassListsRegistered(t *testing.T) {
	RegisterClass(NewClass("test.Known", (*stubHost)(nil), newStubHost))

	_, err := Resolve(externalSettings("test.Unknown"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errClassNotRegistered)
	assert.Contains(t, err.Error(), "registered: ")
	assert.Contains(t, err.Error(), "test.Known")
}

func TestResolveExternalMissingPlugin(t *testing.T) {
	_, err := Resolve(externalSettings("/nonexistent/host.so:Host"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)

	var notFoundErr *ProviderNotFoundError
	require.True(t, errors.As(err, &notFoundErr))
	assert.NotNil(t, notFoundErr.Cause)
}

func TestResolveExternalNotAProvider(t *testing.T) {
	RegisterClass(NewClass("test.NotAHost", (*notAHost)(nil), func() *notAHost { return &notAHost{} }))

	_, err := Resolve(externalSettings("test.NotAHost"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Contains(t, err.Error(), "is not a valid hosting provider")
}

func TestResolveExternalOptionsConstructor(t *testing.T) {
	RegisterClass(NewClass("test.OptionsHost", (*stubHost)(nil), newStubHostWithOptions))

	provider, err := Resolve(externalSettings("test.OptionsHost"))
	require.NoError(t, err)

	host := provider.(*stubHost)
	assert.Equal(t, "options", host.via)
	assert.Equal(t, "abc", host.options["token"])
}

func TestResolveExternalPrefersZeroArgConstructor(t *testing.T) {
	// Declaration order must not matter
	RegisterClass(NewClass("test.BothHost", (*stubHost)(nil), newStubHostWithOptions, newStubHost))

	for range 5 {
		provider, err := Resolve(externalSettings("test.BothHost"))
		require.NoError(t, err)
		assert.Equal(t, "zero-arg", provider.(*stubHost).via)
	}
}

func TestResolveExternalAcceptsErrorReturningConstructors(t *testing.T) {
	RegisterClass(NewClass("test.ErrShape", (*stubHost)(nil), func(o Options) (*stubHost, error) {
		return newStubHostWithOptions(o), nil
	}))

	provider, err := Resolve(externalSettings("test.ErrShape"))
	require.NoError(t, err)
	assert.Equal(t, "options", provider.(*stubHost).via)
}

func TestResolveExternalNoMatchingConstructor(t *testing.T) {
	RegisterClass(NewClass("test.BadCtor", (*stubHost)(nil),
		func(name string) *stubHost { return newStubHost() },
		func(o Options, extra int) *stubHost { return newStubHost() },
		"not a function",
	))

	_, err := Resolve(externalSettings("test.BadCtor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Contains(t, err.Error(), "no usable constructor")
}

func TestResolveExternalConstructorErrorIsCause(t *testing.T) {
	boom := errors.New("missing api token")
	RegisterClass(NewClass("test.FailingCtor", (*stubHost)(nil), func(o Options) (*stubHost, error) {
		return nil, boom
	}))

	_, err := Resolve(externalSettings("test.FailingCtor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Same(t, boom, errors.Unwrap(err))
}

func TestResolveExternalConstructorPanic(t *testing.T) {
	RegisterClass(NewClass("test.PanickingCtor", (*stubHost)(nil), func() *stubHost {
		panic("cannot dial upstream")
	}))

	_, err := Resolve(externalSettings("test.PanickingCtor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Contains(t, err.Error(), "cannot dial upstream")
}

func TestResolveExternalNilInstance(t *testing.T) {
	RegisterClass(NewClass("test.NilCtor", (*stubHost)(nil), func() *stubHost { return nil }))

	_, err := Resolve(externalSettings("test.NilCtor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Contains(t, err.Error(), "cannot alloc instance")
}

func TestRegisteredClasses(t *testing.T) {
	RegisterClass(NewClass("test.Listed", (*stubHost)(nil), newStubHost))
	assert.Contains(t, RegisteredClasses(), "test.Listed")
}

func TestSplitPluginRef(t *testing.T) {
	tests := []struct {
		identifier string
		wantPath   string
		wantSymbol string
		isPlugin   bool
	}{
		{"hosts/cdn.so:CDN", "hosts/cdn.so", "CDN", true},
		{"hosts/cdn.so", "hosts/cdn.so", defaultPluginSymbol, true},
		{"com.example.Host", "com.example.Host", defaultPluginSymbol, false},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			path, symbol := splitPluginRef(tt.identifier)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantSymbol, symbol)
			assert.Equal(t, tt.isPlugin, isPluginRef(tt.identifier))
		})
	}
}
