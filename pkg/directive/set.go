package directive

import "context"

// Set is the parsed include and exclude directives of one request.
// Options from both strings share a single table.
type Set struct {
	Includes *Tree
	Excludes *Tree
	Options  *Options
}

// ParseSet parses an include and an exclude string together.
func ParseSet(include, exclude string) Set {
	inc, incOpts := Parse(include)
	exc, excOpts := Parse(exclude)
	return Set{
		Includes: inc,
		Excludes: exc,
		Options:  incOpts.Merge(excOpts),
	}
}

// Empty reports whether neither includes nor excludes were requested.
func (s Set) Empty() bool {
	return s.Includes.Len() == 0 && s.Excludes.Len() == 0
}

func (s Set) IncludesHas(path string) bool { return s.Includes.Has(path) }

func (s Set) ExcludesHas(path string) bool { return s.Excludes.Has(path) }

func (s Set) OptionsHas(path string) bool { return s.Options.Has(path) }

func (s Set) OptionsHasOption(path, name string) bool { return s.Options.HasOption(path, name) }

func (s Set) GetOptions(path string, def *PathOptions) *PathOptions {
	return s.Options.Get(path, def)
}

func (s Set) GetOption(path, name string, def [][]string) [][]string {
	return s.Options.GetOption(path, name, def)
}

// WithDefaults returns a new Set whose includes and excludes are the union of s and d.
func (s Set) WithDefaults(d Set) Set {
	return Set{
		Includes: d.Includes.Merge(s.Includes),
		Excludes: d.Excludes.Merge(s.Excludes),
		Options:  d.Options.Merge(s.Options),
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Set) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Set stored by NewContext.
func FromContext(ctx context.Context) (Set, bool) {
	if ctx == nil {
		return Set{}, false
	}
	s, ok := ctx.Value(ctxKey{}).(Set)
	return s, ok
}
