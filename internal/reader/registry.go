// Package reader holds the page readers that turn a loaded careers page into
// job postings, and the registry sources select them from by name.
package reader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jo-room/job-scrape/internal/model"
)

// Options is the free-form reader_options block of a source.
type Options map[string]any

// String returns the string option key, or def when unset.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return def
}

// Strings returns the list option key. A single string is treated as a
// one-element list.
func (o Options) Strings(key string) []string {
	switch v := o[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

// Int returns the integer option key, or def when unset or not a number.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns the boolean option key, or def when unset.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// Factory builds a reader from its options.
type Factory func(opts Options) (model.Reader, error)

// Registry maps reader names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Build resolves name and constructs the reader. Unknown names wrap
// model.ErrUnknownReader.
func (r *Registry) Build(name string, opts Options) (model.Reader, error) {
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownReader, name)
	}
	rd, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("reader %q: %w", name, err)
	}
	return rd, nil
}

// Names returns the registered reader names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewDefaultRegistry returns a registry with every built-in reader.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("selector", func(opts Options) (model.Reader, error) {
		return NewSelectorReaderFromOptions(opts)
	})
	for name, preset := range presets {
		r.Register(name, func(opts Options) (model.Reader, error) {
			return preset.withOverrides(opts)
		})
	}
	r.Register("rippling", func(Options) (model.Reader, error) {
		return RipplingReader{}, nil
	})
	r.Register("workday", func(opts Options) (model.Reader, error) {
		return NewWorkdayReader(opts), nil
	})
	r.Register("json", func(opts Options) (model.Reader, error) {
		return NewJSONReader(opts)
	})
	r.Register("feed", func(opts Options) (model.Reader, error) {
		return NewFeedReader(opts), nil
	})
	return r
}
