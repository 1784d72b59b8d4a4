package hosting

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var (
	providerType = reflect.TypeOf((*Provider)(nil)).Elem()
	optionsType  = reflect.TypeOf(Options(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// Class describes an externally supplied provider type.
//
// Constructors lists candidate constructor functions in declaration order.
// Accepted shapes are func() T, func() (T, error), func(Options) T and
// func(Options) (T, error); anything else is skipped during selection.
type Class struct {
	Name         string
	Type         reflect.Type
	Constructors []any
}

// NewClass describes a provider class. sample is any value of the concrete
// type, typically a typed nil pointer such as (*MyHost)(nil).
func NewClass(name string, sample any, constructors ...any) *Class {
	return &Class{
		Name:         name,
		Type:         reflect.TypeOf(sample),
		Constructors: constructors,
	}
}

var (
	classesMu sync.RWMutex
	classes   = make(map[string]*Class)
)

// RegisterClass makes a class resolvable by name from the "class" option
func RegisterClass(c *Class) {
	classesMu.Lock()
	defer classesMu.Unlock()
	classes[c.Name] = c
}

// RegisteredClasses returns the names of all registered classes
func RegisteredClasses() []string {
	classesMu.RLock()
	defer classesMu.RUnlock()

	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// errClassNotRegistered is returned when an identifier is neither a
// registered class nor a plugin reference
var errClassNotRegistered = errors.New("class not registered")

// lookupClass resolves a class identifier to a class description
func lookupClass(identifier string) (*Class, error) {
	classesMu.RLock()
	c, ok := classes[identifier]
	classesMu.RUnlock()
	if ok {
		return c, nil
	}

	if isPluginRef(identifier) {
		return loadPluginClass(identifier)
	}

	if known := RegisteredClasses(); len(known) > 0 {
		return nil, fmt.Errorf("%w: %s (registered: %s)", errClassNotRegistered, identifier, strings.Join(known, ", "))
	}
	return nil, fmt.Errorf("%w: %s", errClassNotRegistered, identifier)
}

// implementsProvider reports whether the class type satisfies Provider
func (c *Class) implementsProvider() bool {
	return c.Type != nil && c.Type.Implements(providerType)
}

// constructor picks the constructor to invoke.
// A zero-argument constructor always wins; otherwise the first
// option-bag constructor in declaration order is used.
func (c *Class) constructor() (reflect.Value, bool) {
	for _, wantArgs := range []int{0, 1} {
		for _, candidate := range c.Constructors {
			fn := reflect.ValueOf(candidate)
			if isConstructor(fn, wantArgs) {
				return fn, true
			}
		}
	}
	return reflect.Value{}, false
}

func isConstructor(fn reflect.Value, numArgs int) bool {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return false
	}
	t := fn.Type()
	if t.IsVariadic() || t.NumIn() != numArgs {
		return false
	}
	if numArgs == 1 && t.In(0) != optionsType {
		return false
	}

	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return false
		}
	default:
		return false
	}
	return t.Out(0).Implements(providerType)
}

// instantiate invokes a constructor chosen by constructor.
// Errors returned or panics raised by the constructor body come back as
// the inner cause, unwrapped.
func (c *Class) instantiate(fn reflect.Value, options Options) (p Provider, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()

	var args []reflect.Value
	if fn.Type().NumIn() == 1 {
		if options == nil {
			options = Options{}
		}
		args = []reflect.Value{reflect.ValueOf(options)}
	}

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	result := out[0]
	if isNilValue(result) {
		return nil, nil
	}
	return result.Interface().(Provider), nil
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
