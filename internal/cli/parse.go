package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/r9s-ai/fractal/pkg/directive"
	"github.com/r9s-ai/fractal/pkg/presets"
)

type parseOptions struct {
	exclude     string
	format      string
	noColor     bool
	preset      string
	presetsFile string
}

func newParseCmd() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse [directive]",
		Short: "Parse an include directive (and optional exclude) and print the result",
		Example: `  fractal-admin parse 'author,comments.likes:limit[5]'
  fractal-admin parse 'posts' --exclude 'posts.author' --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			include := ""
			if len(args) == 1 {
				include = args[0]
			}
			return runParse(cmd.OutOrStdout(), include, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.exclude, "exclude", "e", "", "exclude directive")
	fs.StringVar(&opts.format, "format", "tree", "output format: tree|json|yaml")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored tree output")
	fs.StringVarP(&opts.preset, "preset", "p", "", "merge the defaults of this preset")
	fs.StringVarP(&opts.presetsFile, "file", "f", "presets.yaml", "presets yaml path (used with --preset)")
	return cmd
}

func runParse(w io.Writer, include string, opts parseOptions) error {
	set := directive.ParseSet(include, opts.exclude)
	if name := strings.TrimSpace(opts.preset); name != "" {
		reg, err := presets.Load(opts.presetsFile)
		if err != nil {
			return err
		}
		p, ok := reg.Get(name)
		if !ok {
			return fmt.Errorf("preset %q not found in %s", name, opts.presetsFile)
		}
		set = set.WithDefaults(p.Set())
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "tree":
		renderSet(w, set, newPalette(opts.noColor))
		return nil
	case "json":
		b, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown --format %q (supported: tree, json, yaml)", opts.format)
	}
}

type palette struct {
	title  *color.Color
	branch *color.Color
	leaf   *color.Color
	option *color.Color
	muted  *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		title:  color.New(color.Bold),
		branch: color.New(color.FgBlue, color.Bold),
		leaf:   color.New(color.FgGreen),
		option: color.New(color.FgYellow),
		muted:  color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.title, p.branch, p.leaf, p.option, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

func renderSet(w io.Writer, set directive.Set, p palette) {
	renderTree(w, "includes", set.Includes, set.Options, p)
	renderTree(w, "excludes", set.Excludes, set.Options, p)
}

// renderTree draws t with box-drawing guides. Options are printed next to the
// node whose full path they belong to.
func renderTree(w io.Writer, title string, t *directive.Tree, opts *directive.Options, p palette) {
	_, _ = p.title.Fprintln(w, title)
	if t.Len() == 0 {
		_, _ = p.muted.Fprintln(w, "  (none)")
		return
	}
	var walk func(t *directive.Tree, parent, indent string)
	walk = func(t *directive.Tree, parent, indent string) {
		keys := t.Keys()
		for i, key := range keys {
			n, _ := t.Get(key)
			path := key
			if parent != "" {
				path = parent + "." + key
			}
			guide, next := "├── ", "│   "
			if i == len(keys)-1 {
				guide, next = "└── ", "    "
			}
			_, _ = fmt.Fprint(w, indent+guide)
			if n.IsLeaf() {
				_, _ = p.leaf.Fprint(w, key)
			} else {
				_, _ = p.branch.Fprint(w, key)
			}
			if o := opts.Get(path, nil); o.Len() > 0 {
				_, _ = fmt.Fprint(w, "  ")
				_, _ = p.option.Fprint(w, o.String())
			}
			_, _ = fmt.Fprintln(w)
			if !n.IsLeaf() {
				walk(n.Children(), path, indent+next)
			}
		}
	}
	walk(t, "", "")
}
