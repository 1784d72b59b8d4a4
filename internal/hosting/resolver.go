package hosting

import (
	"strings"
)

// ClassOption is the option-bag field naming an external provider class.
// Option keys loaded from a config file go through viper, which lowercases
// map keys: providers should expect snake_case or lowercase keys only.
const ClassOption = "class"

// Resolve turns settings into a hosting provider.
//
// Every failure is a *ProviderNotFoundError; callers are expected to treat
// it as a fatal configuration error.
func Resolve(s Settings) (Provider, error) {
	kind := strings.ToLower(strings.TrimSpace(s.Type))

	if kind == TypeExternal {
		return resolveExternal(s.Options)
	}

	if _, ok := Registry[kind]; !ok {
		return nil, notFound(nil, "unknown provider type: %s (expected one of %s, %s)",
			s.Type, strings.Join(BuiltinNames(), ", "), TypeExternal)
	}

	provider, err := NewProvider(kind, s)
	if err != nil {
		return nil, notFound(err, "failed to create %s provider", kind)
	}
	return provider, nil
}

func resolveExternal(options Options) (Provider, error) {
	identifier, ok := getStringValue(options, ClassOption)
	if !ok || identifier == "" {
		return nil, notFound(nil, "no provider set")
	}

	class, err := lookupClass(identifier)
	if err != nil {
		return nil, notFound(err, "provider not found: %s", identifier)
	}

	if !class.implementsProvider() {
		return nil, notFound(nil, "%s is not a valid hosting provider", class.Type)
	}

	return construct(class, options)
}

func construct(class *Class, options Options) (Provider, error) {
	fn, ok := class.constructor()
	if !ok {
		return nil, notFound(nil, "invalid provider: %s has no usable constructor", class.Name)
	}

	provider, err := class.instantiate(fn, options)
	if err != nil {
		return nil, notFound(err, "exception in allocating instance of %s", class.Name)
	}
	if provider == nil {
		return nil, notFound(nil, "cannot alloc instance for %s", class.Name)
	}
	return provider, nil
}
