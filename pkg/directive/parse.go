package directive

import "strings"

const (
	directiveSep = ","
	pathSep      = '.'
	clauseSep    = ":"
	argsOpen     = "["
	argsSep      = "|"

	space = " \t\r\n"
)

// Parse converts a raw directive string into its tree and options table.
//
// Each call allocates fresh results; Parse keeps no state between calls and is
// safe for concurrent use.
func Parse(raw string) (*Tree, *Options) {
	p := parser{opts: NewOptions()}
	tree := NewTree()
	for _, item := range splitDirectives(raw) {
		tree.absorb(p.item(item, ""))
	}
	return tree, p.opts
}

type parser struct {
	opts *Options
}

func splitDirectives(raw string) []string {
	s := strings.Trim(raw, directiveSep+space)
	if s == "" {
		return nil
	}
	return strings.Split(s, directiveSep)
}

// item returns the single-path tree of one directive, or nil when it is empty.
// parent is the dotted path of the enclosing keys.
func (p *parser) item(item, parent string) *Tree {
	item = strings.Trim(item, string(pathSep)+space)
	if item == "" {
		return nil
	}

	t := NewTree()
	// The first dot always splits, even one inside an option clause:
	// "a:sort[x.y]" is {"a:sort[x": {"y]": true}}.
	if dot := strings.IndexByte(item, pathSep); dot >= 0 {
		key := strings.TrimSpace(item[:dot])
		t.set(key, Branch(p.item(item[dot+1:], joinPath(parent, key))))
		return t
	}

	key := item
	colon := strings.Index(item, clauseSep)
	if colon >= 0 {
		key = item[:colon]
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if colon >= 0 {
		p.clause(joinPath(parent, key), item[colon+1:])
	}
	t.set(key, Leaf())
	return t
}

// clause records "name[a|b]:other" under path. Names and arguments are kept
// verbatim; a bare "a:" records the empty option name.
func (p *parser) clause(path, clause string) {
	for _, token := range strings.Split(strings.Trim(clause, clauseSep), clauseSep) {
		name, args := splitOption(strings.Trim(token, "]"))
		p.opts.add(path, name, args)
	}
}

func splitOption(token string) (string, []string) {
	parts := strings.Split(token, argsOpen)
	if len(parts) < 2 {
		return parts[0], []string{}
	}
	// "limit[]" has an argument part, so it yields one empty argument.
	return parts[0], strings.Split(parts[1], argsSep)
}
