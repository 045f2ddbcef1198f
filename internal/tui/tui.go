// Package tui is an interactive directive explorer: type include and exclude
// directives and watch the parsed trees and options update live.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/r9s-ai/fractal/pkg/directive"
	"github.com/r9s-ai/fractal/pkg/presets"
)

type Options struct {
	// Presets, when set, can be cycled with ctrl+p and are merged as defaults.
	Presets *presets.Registry
	Include string
	Exclude string
}

func Run(opts Options, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(newModel(opts), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}

const (
	fieldInclude = iota
	fieldExclude
)

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	branch lipgloss.Style
	leaf   lipgloss.Style
	option lipgloss.Style
	muted  lipgloss.Style
	box    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		label:  lipgloss.NewStyle().Bold(true),
		branch: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		leaf:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		option: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		muted:  lipgloss.NewStyle().Faint(true),
		box:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

type model struct {
	inputs  []textinput.Model
	focus   int
	presets *presets.Registry
	names   []string
	// preset indexes names; -1 means no preset.
	preset int
	width  int
	st     styles
}

func newModel(opts Options) model {
	inc := textinput.New()
	inc.Prompt = "include> "
	inc.Placeholder = "author,comments.likes:limit[5]"
	inc.SetValue(opts.Include)
	inc.Focus()

	exc := textinput.New()
	exc.Prompt = "exclude> "
	exc.Placeholder = "author.email"
	exc.SetValue(opts.Exclude)

	m := model{
		inputs:  []textinput.Model{inc, exc},
		presets: opts.Presets,
		preset:  -1,
		st:      defaultStyles(),
	}
	if opts.Presets != nil {
		m.names = opts.Presets.Names()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			return m.setFocus((m.focus + 1) % len(m.inputs)), nil
		case "ctrl+p":
			if len(m.names) > 0 {
				m.preset++
				if m.preset >= len(m.names) {
					m.preset = -1
				}
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m model) setFocus(i int) model {
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
			continue
		}
		m.inputs[j].Blur()
	}
	m.focus = i
	return m
}

// set parses the current inputs, merging the selected preset's defaults.
func (m model) set() directive.Set {
	set := directive.ParseSet(m.inputs[fieldInclude].Value(), m.inputs[fieldExclude].Value())
	if name := m.presetName(); name != "" {
		if p, ok := m.presets.Get(name); ok {
			set = set.WithDefaults(p.Set())
		}
	}
	return set
}

func (m model) presetName() string {
	if m.preset < 0 || m.preset >= len(m.names) {
		return ""
	}
	return m.names[m.preset]
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.st.title.Render("fractal directive explorer"))
	b.WriteString("\n\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteByte('\n')
	}
	if len(m.names) > 0 {
		name := m.presetName()
		if name == "" {
			name = "(none)"
		}
		b.WriteString(m.st.label.Render("preset: ") + name + "\n")
	}
	b.WriteByte('\n')

	set := m.set()
	left := m.st.box.Render(m.st.label.Render("includes") + "\n" + renderTree(set.Includes, set.Options, m.st))
	right := m.st.box.Render(m.st.label.Render("excludes") + "\n" + renderTree(set.Excludes, set.Options, m.st))
	if m.width > 0 && lipgloss.Width(left)+lipgloss.Width(right) > m.width {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, left, right))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	}
	b.WriteString("\n")
	if paths := set.Includes.Paths(); len(paths) > 0 {
		b.WriteString(m.st.muted.Render("leaf paths: " + strings.Join(paths, ", ")))
		b.WriteByte('\n')
	}
	help := "tab switch field • esc quit"
	if len(m.names) > 0 {
		help = "tab switch field • ctrl+p next preset • esc quit"
	}
	b.WriteString(m.st.muted.Render(help))
	return b.String()
}

func renderTree(t *directive.Tree, opts *directive.Options, st styles) string {
	if t.Len() == 0 {
		return st.muted.Render("(none)")
	}
	var lines []string
	var walk func(t *directive.Tree, parent, indent string)
	walk = func(t *directive.Tree, parent, indent string) {
		keys := t.Keys()
		for i, key := range keys {
			n, _ := t.Get(key)
			path := key
			if parent != "" {
				path = parent + "." + key
			}
			guide, next := "├─ ", "│  "
			if i == len(keys)-1 {
				guide, next = "└─ ", "   "
			}
			label := st.leaf.Render(key)
			if !n.IsLeaf() {
				label = st.branch.Render(key)
			}
			if o := opts.Get(path, nil); o.Len() > 0 {
				label += " " + st.option.Render(o.String())
			}
			lines = append(lines, indent+guide+label)
			if !n.IsLeaf() {
				walk(n.Children(), path, indent+next)
			}
		}
	}
	walk(t, "", "")
	return strings.Join(lines, "\n")
}
