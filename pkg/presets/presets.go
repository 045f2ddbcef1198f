// Package presets loads named default directives (include, exclude and externals)
// from a YAML file:
//
//	presets:
//	  posts:
//	    include: "author,comments:limit[5]"
//	    exclude: "author.email"
//	    externals:
//	      api_version: "v1"
package presets

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/r9s-ai/fractal/pkg/directive"
	"github.com/r9s-ai/fractal/pkg/external"
	"gopkg.in/yaml.v3"
)

type Preset struct {
	Name      string            `yaml:"-"`
	Include   string            `yaml:"include"`
	Exclude   string            `yaml:"exclude"`
	Externals map[string]string `yaml:"externals"`
}

// Defaults returns the preset's include string as default includes.
func (p Preset) Defaults() external.Defaults {
	return external.NewDefaults(strings.Split(p.Include, ",")...)
}

// Set parses the preset's include and exclude directives.
func (p Preset) Set() directive.Set {
	return directive.ParseSet(p.Defaults().Directive(), p.Exclude)
}

// ExternalSet returns the preset externals as constants, ordered by key.
// Invalid keys are skipped; Validate reports them.
func (p Preset) ExternalSet() *external.Set {
	s := external.NewSet()
	for _, k := range sortedKeys(p.Externals) {
		_ = s.Add(k, external.Const(p.Externals[k]))
	}
	return s
}

type fileDoc struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Registry holds the presets of one file. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	path    string
	presets map[string]Preset
}

func NewRegistry() *Registry {
	return &Registry{presets: map[string]Preset{}}
}

// Load reads path into a new Registry. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	r := NewRegistry()
	if _, err := r.ReloadFrom(path); err != nil {
		return nil, err
	}
	return r, nil
}

// ReloadFrom replaces the registry contents with path and returns the names of
// added, removed or modified presets.
func (r *Registry) ReloadFrom(path string) ([]string, error) {
	next, err := readFile(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := diffPresets(r.presets, next)
	r.path = strings.TrimSpace(path)
	r.presets = next
	return changed, nil
}

// Reload re-reads the file the registry was last loaded from.
func (r *Registry) Reload() ([]string, error) {
	return r.ReloadFrom(r.Path())
}

func (r *Registry) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

func (r *Registry) Get(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[strings.TrimSpace(name)]
	return p, ok
}

// Names returns the preset names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.presets))
	for k := range r.presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func readFile(path string) (map[string]Preset, error) {
	out := map[string]Preset{}
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}
	// #nosec G304 -- presets path comes from trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("read presets file %q: %w", path, err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse presets file %q: %w", path, err)
	}
	for name, p := range doc.Presets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p.Name = name
		out[name] = p
	}
	return out, nil
}

func diffPresets(prev, next map[string]Preset) []string {
	var changed []string
	for name, p := range next {
		old, ok := prev[name]
		if !ok || !samePreset(old, p) {
			changed = append(changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

func samePreset(a, b Preset) bool {
	if a.Include != b.Include || a.Exclude != b.Exclude || len(a.Externals) != len(b.Externals) {
		return false
	}
	for k, v := range a.Externals {
		if bv, ok := b.Externals[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

var presetNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
