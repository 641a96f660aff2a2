// Package memory provides the namespace a container shares with its handlers.
//
// A Namespace is a free-form, ordered bag of named values owned by exactly one
// container. Values may themselves be namespaces. Names starting with an
// underscore are private: they are stored like any other value but are left
// out of the rendering and of the public count.
//
// A Namespace is not safe for concurrent use. The container that owns it
// drives all handlers from a single goroutine.
package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrNotFound is returned when a named value is absent.
var ErrNotFound = errors.New("memory: name not found")

// Namespace is a mutable, growable set of named values.
type Namespace struct {
	keys     []string
	values   map[string]any
	populate func(*Namespace)
}

// Option configures a Namespace.
type Option func(*Namespace)

// WithDefaults registers the population logic run on construction and on every Reset.
func WithDefaults(fn func(*Namespace)) Option {
	return func(n *Namespace) {
		n.populate = fn
	}
}

// New creates a namespace and runs its default population.
func New(opts ...Option) *Namespace {
	n := &Namespace{}
	for _, opt := range opts {
		opt(n)
	}
	n.Reset()
	return n
}

// Reset discards every value and restores the just-constructed default set.
func (n *Namespace) Reset() {
	n.keys = nil
	n.values = make(map[string]any)
	if n.populate != nil {
		n.populate(n)
	}
}

// Set stores v under name. A new name is appended to the rendering order.
func (n *Namespace) Set(name string, v any) {
	if n.values == nil {
		n.values = make(map[string]any)
	}
	if _, ok := n.values[name]; !ok {
		n.keys = append(n.keys, name)
	}
	n.values[name] = v
}

// Get returns the value stored under name.
func (n *Namespace) Get(name string) (any, bool) {
	v, ok := n.values[name]
	return v, ok
}

// Has reports whether name is set.
func (n *Namespace) Has(name string) bool {
	_, ok := n.values[name]
	return ok
}

// Delete removes name. Deleting a missing name is a no-op.
func (n *Namespace) Delete(name string) {
	if _, ok := n.values[name]; !ok {
		return
	}
	delete(n.values, name)
	for i, k := range n.keys {
		if k == name {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Keys returns every name, private ones included, in insertion order.
func (n *Namespace) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Public returns the names that do not start with an underscore, in insertion order.
func (n *Namespace) Public() []string {
	out := make([]string, 0, len(n.keys))
	for _, k := range n.keys {
		if !IsPrivate(k) {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of values, private ones included.
func (n *Namespace) Len() int {
	return len(n.keys)
}

// Child returns the nested namespace stored under name, creating it when absent.
// It fails if name holds a value that is not a namespace.
func (n *Namespace) Child(name string) (*Namespace, error) {
	v, ok := n.values[name]
	if !ok {
		child := New()
		n.Set(name, child)
		return child, nil
	}
	child, ok := v.(*Namespace)
	if !ok {
		return nil, fmt.Errorf("memory: %q holds %T, not a namespace", name, v)
	}
	return child, nil
}

// Decode copies the value stored under name into out, which must be a pointer.
// Maps are decoded into structs using mapstructure tags.
func (n *Namespace) Decode(name string, out any) error {
	v, ok := n.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := mapstructure.Decode(v, out); err != nil {
		return fmt.Errorf("memory: decode %q: %w", name, err)
	}
	return nil
}

// Lookup returns the value stored under name if it has type T.
func Lookup[T any](n *Namespace, name string) (T, bool) {
	var zero T
	v, ok := n.values[name]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// IsPrivate reports whether name is excluded from rendering.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}
