package directive

import "strings"

// PathOptions maps option names to the argument lists recorded for them, in order.
type PathOptions struct {
	names []string
	args  map[string][][]string
}

func newPathOptions() *PathOptions {
	return &PathOptions{args: map[string][][]string{}}
}

// Names returns option names in first-occurrence order.
func (p *PathOptions) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func (p *PathOptions) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Get returns every argument list recorded for name.
// "limit[5]:limit[10]" yields [[5] [10]].
func (p *PathOptions) Get(name string) ([][]string, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.args[name]
	return v, ok
}

// String renders the options back into clause form, one clause per recorded
// argument list: "limit[5]:order[created_at|desc]". Empty argument lists render
// as the bare name.
func (p *PathOptions) String() string {
	if p == nil {
		return ""
	}
	var clauses []string
	for _, name := range p.names {
		for _, a := range p.args[name] {
			if len(a) == 0 {
				clauses = append(clauses, name)
				continue
			}
			clauses = append(clauses, name+"["+strings.Join(a, "|")+"]")
		}
	}
	return strings.Join(clauses, ":")
}

func (p *PathOptions) add(name string, args []string) {
	if _, ok := p.args[name]; !ok {
		p.names = append(p.names, name)
	}
	p.args[name] = append(p.args[name], args)
}

func (p *PathOptions) clone() *PathOptions {
	out := newPathOptions()
	if p == nil {
		return out
	}
	for _, name := range p.names {
		for _, a := range p.args[name] {
			cp := make([]string, len(a))
			copy(cp, a)
			out.add(name, cp)
		}
	}
	return out
}

// Options maps a dotted path to the options attached to it.
type Options struct {
	paths  []string
	byPath map[string]*PathOptions
}

func NewOptions() *Options {
	return &Options{byPath: map[string]*PathOptions{}}
}

func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.paths)
}

// Paths returns the paths carrying options in first-occurrence order.
func (o *Options) Paths() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.paths))
	copy(out, o.paths)
	return out
}

// Has reports whether any option was recorded for path.
func (o *Options) Has(path string) bool {
	if o == nil {
		return false
	}
	_, ok := o.byPath[path]
	return ok
}

func (o *Options) HasOption(path, name string) bool {
	_, ok := o.Get(path, nil).Get(name)
	return ok
}

// Get returns the options of path, or def when none were recorded.
func (o *Options) Get(path string, def *PathOptions) *PathOptions {
	if o == nil {
		return def
	}
	if p, ok := o.byPath[path]; ok {
		return p
	}
	return def
}

// GetOption returns the argument lists of option name on path, or def.
func (o *Options) GetOption(path, name string, def [][]string) [][]string {
	if v, ok := o.Get(path, nil).Get(name); ok {
		return v
	}
	return def
}

// Merge returns a new table with other's entries appended after o's.
func (o *Options) Merge(other *Options) *Options {
	out := o.clone()
	if other == nil {
		return out
	}
	for _, path := range other.paths {
		src := other.byPath[path]
		for _, name := range src.names {
			for _, a := range src.args[name] {
				cp := make([]string, len(a))
				copy(cp, a)
				out.add(path, name, cp)
			}
		}
	}
	return out
}

func (o *Options) add(path, name string, args []string) {
	p, ok := o.byPath[path]
	if !ok {
		p = newPathOptions()
		o.byPath[path] = p
		o.paths = append(o.paths, path)
	}
	p.add(name, args)
}

func (o *Options) clone() *Options {
	out := NewOptions()
	if o == nil {
		return out
	}
	for _, path := range o.paths {
		out.paths = append(out.paths, path)
		out.byPath[path] = o.byPath[path].clone()
	}
	return out
}

// HasOption reports whether option name was recorded on path.
func HasOption(options *Options, path, name string) bool {
	return options.HasOption(path, name)
}

// GetOptions returns the options recorded on path, or def.
func GetOptions(options *Options, path string, def *PathOptions) *PathOptions {
	return options.Get(path, def)
}

// GetOption returns the argument lists of option name on path, or def.
func GetOption(options *Options, path, name string, def [][]string) [][]string {
	return options.GetOption(path, name, def)
}
