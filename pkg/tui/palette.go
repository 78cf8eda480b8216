// Package tui is the terminal rendition of the dashboard's search modal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikeboe/lab-dashboard/pkg/search"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	typeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
	frameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	noResultsText = "No results found"
)

// section is a titled group of rows in the list.
type section struct {
	title   string
	entries []search.Entry
}

// Palette is a bubbletea model over a search.Modal. With an empty query it
// lists recent searches and quick links; otherwise the matching entries.
type Palette struct {
	ctx   context.Context
	modal *search.Modal
	keys  KeyMap
	input textinput.Model

	sections []section
	cursor   int
	selected *search.Entry
	err      error
	width    int
}

// NewPalette opens modal and returns a model ready to run.
func NewPalette(ctx context.Context, modal *search.Modal) *Palette {
	input := textinput.New()
	input.Placeholder = "Search pages, features and help..."
	input.Prompt = "> "
	input.Focus()

	modal.Open(ctx)
	p := &Palette{
		ctx:   ctx,
		modal: modal,
		keys:  DefaultKeyMap,
		input: input,
	}
	p.refresh()
	return p
}

func (p *Palette) Init() tea.Cmd {
	return textinput.Blink
}

func (p *Palette) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if p.modal.Surface().HandleKey(msg.String()) {
		return p, tea.Quit
	}

	switch {
	case key.Matches(msg, p.keys.Quit):
		p.modal.Surface().Close()
		return p, tea.Quit
	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return p, nil
	case key.Matches(msg, p.keys.Down):
		if p.cursor < p.count()-1 {
			p.cursor++
		}
		return p, nil
	case key.Matches(msg, p.keys.Select):
		entry, ok := p.current()
		if !ok {
			return p, nil
		}
		p.selected = &entry
		// The modal navigates even when the recent list failed to save.
		p.err = p.modal.Select(p.ctx, entry)
		return p, tea.Quit
	case key.Matches(msg, p.keys.ClearRecent):
		p.err = p.modal.ClearRecent(p.ctx)
		p.refresh()
		return p, nil
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != before {
		p.modal.SetQuery(p.input.Value())
		p.cursor = 0
		p.refresh()
	}
	return p, cmd
}

func (p *Palette) refresh() {
	results := p.modal.Results()
	if results != nil {
		p.sections = []section{{title: "Results", entries: results}}
	} else {
		p.sections = nil
		if recent := p.modal.Recent(); len(recent) > 0 {
			entries := make([]search.Entry, len(recent))
			for i, r := range recent {
				entries[i] = search.Entry{Type: r.Type, Title: r.Title, Path: r.Path}
			}
			p.sections = append(p.sections, section{title: "Recent Searches", entries: entries})
		}
		p.sections = append(p.sections, section{title: "Quick Links", entries: p.modal.Index().QuickLinks()})
	}

	if n := p.count(); p.cursor >= n {
		p.cursor = max(n-1, 0)
	}
}

func (p *Palette) count() int {
	n := 0
	for _, s := range p.sections {
		n += len(s.entries)
	}
	return n
}

func (p *Palette) current() (search.Entry, bool) {
	i := p.cursor
	for _, s := range p.sections {
		if i < len(s.entries) {
			return s.entries[i], true
		}
		i -= len(s.entries)
	}
	return search.Entry{}, false
}

// Selected returns the entry chosen with Enter, if any.
func (p *Palette) Selected() (search.Entry, bool) {
	if p.selected == nil {
		return search.Entry{}, false
	}
	return *p.selected, true
}

// Err is the last error from saving or clearing the recent list.
func (p *Palette) Err() error { return p.err }

func (p *Palette) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Search"))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n")

	row := 0
	for _, s := range p.sections {
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		if len(s.entries) == 0 {
			b.WriteString(emptyStyle.Render("  " + noResultsText))
			b.WriteString("\n")
		}
		for _, e := range s.entries {
			marker := "  "
			title := e.Title
			if row == p.cursor {
				marker = cursorStyle.Render("› ")
				title = cursorStyle.Render(title)
			}
			fmt.Fprintf(&b, "%s%s %s %s\n", marker, title, typeStyle.Render(string(e.Type)), pathStyle.Render(e.Path))
			row++
		}
	}

	if p.err != nil {
		b.WriteString(errorStyle.Render(p.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter open • ctrl+l clear recent • esc close"))

	style := frameStyle
	if p.width > 4 {
		style = style.Width(p.width - 4)
	}
	return style.Render(b.String())
}
