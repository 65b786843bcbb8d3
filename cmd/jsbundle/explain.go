package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/jsbundle/compilation"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/manifest"
	"github.com/wippyai/jsbundle/runtime"
)

func newExplainCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <manifest>",
		Short: "Browse modules, exports, usage and used names interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newExplainModel(cmd.Context(), args[0], a.cfg.CompilationOptions())
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}

type explainModel struct {
	ctx      context.Context
	err      error
	opts     compilation.Options
	filename string
	runtimes []string
	modules  []moduleInfo
	visible  []int
	filter   textinput.Model
	selected int
	state    explainState
}

type moduleInfo struct {
	id       string
	typ      string
	included []string
	exports  []exportInfo
}

type exportInfo struct {
	name     string
	provided string
	usage    []string // per runtime, in runtime order
	usedName []string // per runtime; empty when unused
}

type explainState int

const (
	stateSelectModule explainState = iota
	stateFilter
	stateShowModule
)

type describedMsg struct {
	err      error
	runtimes []string
	modules  []moduleInfo
}

func newExplainModel(ctx context.Context, filename string, opts compilation.Options) *explainModel {
	ti := textinput.New()
	ti.Placeholder = "module id"
	ti.Prompt = "/ "
	ti.Width = 40
	return &explainModel{
		ctx:      ctx,
		opts:     opts,
		filename: filename,
		filter:   ti,
		state:    stateSelectModule,
	}
}

func (m *explainModel) Init() tea.Cmd {
	return m.load
}

func (m *explainModel) load() tea.Msg {
	g, err := manifest.Load(m.ctx, m.filename)
	if err != nil {
		return describedMsg{err: err}
	}
	c, err := compilation.New(g, m.opts)
	if err != nil {
		return describedMsg{err: err}
	}
	if err := c.Seal(m.ctx); err != nil {
		return describedMsg{err: err}
	}
	return describedMsg{runtimes: c.Runtimes(), modules: describe(c)}
}

// describe collects the resolved usage of every module of a sealed
// compilation.
func describe(c *compilation.Compilation) []moduleInfo {
	g := c.Graph()
	runtimes := c.Runtimes()
	var out []moduleInfo
	for _, mod := range g.Modules() {
		info := g.ExportsInfo(mod.Identifier())
		mi := moduleInfo{id: mod.Identifier(), typ: mod.Type().String()}
		for _, rt := range runtimes {
			if info.IsIncluded(runtime.Single(rt)) {
				mi.included = append(mi.included, rt)
			}
		}
		for _, e := range info.Exports() {
			ei := exportInfo{name: e.Name(), provided: e.Provided().String()}
			for _, rt := range runtimes {
				spec := runtime.Single(rt)
				ei.usage = append(ei.usage, e.Usage(spec).String())
				ei.usedName = append(ei.usedName, info.UsedName(spec, exports.Str(e.Name())).String())
			}
			mi.exports = append(mi.exports, ei)
		}
		out = append(out, mi)
	}
	return out
}

func (m *explainModel) applyFilter() {
	q := strings.TrimSpace(m.filter.Value())
	m.visible = m.visible[:0]
	for i, mod := range m.modules {
		if q == "" || strings.Contains(mod.id, q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *explainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectModule && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectModule && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateSelectModule {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			if m.state == stateSelectModule && len(m.visible) > 0 {
				m.state = stateShowModule
			}

		case "esc":
			if m.state == stateShowModule {
				m.state = stateSelectModule
			}
		}

	case describedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.runtimes = msg.runtimes
		m.modules = msg.modules
		m.applyFilter()
	}
	return m, nil
}

func (m *explainModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filter.Blur()
		m.state = stateSelectModule
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *explainModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.modules == nil {
		return "Resolving " + m.filename + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("jsbundle explain"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(" ")
	b.WriteString(runtimeStyle.Render(strings.Join(m.runtimes, ", ")))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectModule, stateFilter:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, idx := range m.visible {
			mod := m.modules[idx]
			line := fmt.Sprintf("%s (%s, %d exports)", mod.id, mod.typ, len(mod.exports))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + moduleStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("type to filter • enter/esc done"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • / filter • enter show • q quit"))
		}

	case stateShowModule:
		b.WriteString(m.moduleView(m.modules[m.visible[m.selected]]))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}
	return b.String()
}

func (m *explainModel) moduleView(mod moduleInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", moduleStyle.Render(mod.id), mod.typ)
	fmt.Fprintf(&b, "included in: %s\n\n", strings.Join(mod.included, ", "))
	if len(mod.exports) == 0 {
		b.WriteString("no named exports\n")
		return b.String()
	}
	for _, e := range mod.exports {
		fmt.Fprintf(&b, "%s (%s)\n", e.name, e.provided)
		for i, rt := range m.runtimes {
			usage := e.usage[i]
			if usage == exports.UsageUnused.String() {
				fmt.Fprintf(&b, "  %s %s\n", runtimeStyle.Render(rt), unusedStyle.Render(usage))
				continue
			}
			fmt.Fprintf(&b, "  %s %s as %s\n", runtimeStyle.Render(rt), usedStyle.Render(usage), e.usedName[i])
		}
	}
	return b.String()
}
