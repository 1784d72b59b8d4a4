package hosting

import (
	"fmt"
	"plugin"
	"reflect"
	"strings"
)

// defaultPluginSymbol is looked up when a plugin reference names no symbol
const defaultPluginSymbol = "HostingProvider"

// isPluginRef reports whether identifier has the form path/to/lib.so[:Symbol]
func isPluginRef(identifier string) bool {
	path, _ := splitPluginRef(identifier)
	return strings.HasSuffix(path, ".so")
}

func splitPluginRef(identifier string) (path, symbol string) {
	path, symbol, found := strings.Cut(identifier, ".so:")
	if found {
		return path + ".so", symbol
	}
	return identifier, defaultPluginSymbol
}

// loadPluginClass opens a Go plugin and reads a class from one of its symbols.
//
// The symbol may be a hosting.Class variable, a *hosting.Class variable, or
// a constructor function, in which case the class type is the function's
// first result.
func loadPluginClass(identifier string) (*Class, error) {
	path, symbol := splitPluginRef(identifier)

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin %s: %w", path, err)
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s in %s: %w", symbol, path, err)
	}

	switch v := sym.(type) {
	case *Class:
		return withDefaultName(v, identifier), nil
	case **Class:
		if *v == nil {
			return nil, fmt.Errorf("symbol %s in %s is a nil class", symbol, path)
		}
		return withDefaultName(*v, identifier), nil
	}

	fn := reflect.ValueOf(sym)
	if fn.Kind() != reflect.Func || fn.Type().NumOut() == 0 {
		return nil, fmt.Errorf("symbol %s in %s is %T, not a provider class or constructor", symbol, path, sym)
	}
	return &Class{
		Name:         identifier,
		Type:         fn.Type().Out(0),
		Constructors: []any{sym},
	}, nil
}

func withDefaultName(c *Class, identifier string) *Class {
	if c.Name != "" {
		return c
	}
	named := *c
	named.Name = identifier
	return &named
}
