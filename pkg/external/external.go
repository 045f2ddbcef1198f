// Package external holds values merged into transformed output next to the
// transformer's own data, and default include lists.
package external

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidKey = errors.New("external key must be a non-empty, non-numeric string")

// Value is either a constant or a resolver evaluated against the subject being transformed.
type Value struct {
	constant any
	resolve  func(subject any) any
}

func Const(v any) Value { return Value{constant: v} }

func Resolver(fn func(subject any) any) Value { return Value{resolve: fn} }

func (v Value) IsResolver() bool { return v.resolve != nil }

func (v Value) Resolve(subject any) any {
	if v.resolve != nil {
		return v.resolve(subject)
	}
	return v.constant
}

// Set is an ordered collection of named external values.
type Set struct {
	keys   []string
	values map[string]Value
}

func NewSet() *Set {
	return &Set{values: map[string]Value{}}
}

// Add sets key to v, replacing an earlier value with the same key.
func (s *Set) Add(key string, v Value) error {
	k := strings.TrimSpace(key)
	if k == "" || isNumeric(k) {
		return fmt.Errorf("add external %q: %w", key, ErrInvalidKey)
	}
	if _, ok := s.values[k]; !ok {
		s.keys = append(s.keys, k)
	}
	s.values[k] = v
	return nil
}

func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Resolve evaluates every value for subject.
func (s *Set) Resolve(subject any) map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for _, k := range s.keys {
		out[k] = s.values[k].Resolve(subject)
	}
	return out
}

// Apply returns the resolved externals overlaid with data. Keys in data win.
func (s *Set) Apply(subject any, data map[string]any) map[string]any {
	out := s.Resolve(subject)
	for k, v := range data {
		out[k] = v
	}
	return out
}

// Merge returns a new set with other's values added after s's, replacing shared keys.
func (s *Set) Merge(other *Set) *Set {
	out := NewSet()
	for _, src := range []*Set{s, other} {
		if src == nil {
			continue
		}
		for _, k := range src.keys {
			_ = out.Add(k, src.values[k])
		}
	}
	return out
}

var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func isNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// Defaults is an ordered, duplicate free list of default include directives.
type Defaults struct {
	items []string
}

func NewDefaults(items ...string) Defaults {
	var d Defaults
	d = d.Add(items...)
	return d
}

// Add returns a copy of d with items appended. Blank and repeated items are skipped.
func (d Defaults) Add(items ...string) Defaults {
	out := Defaults{items: make([]string, len(d.items), len(d.items)+len(items))}
	copy(out.items, d.items)
	seen := make(map[string]struct{}, len(out.items))
	for _, it := range out.items {
		seen[it] = struct{}{}
	}
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out.items = append(out.items, it)
	}
	return out
}

func (d Defaults) Items() []string {
	out := make([]string, len(d.items))
	copy(out, d.items)
	return out
}

// Directive joins the defaults into a directive string.
func (d Defaults) Directive() string {
	return strings.Join(d.items, ",")
}
