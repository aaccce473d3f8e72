package netlist

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Page identifies a screen page.
type Page int

const (
	// ListPage shows all networks.
	ListPage Page = iota + 1
	// DetailsPage shows the selected network.
	DetailsPage
)

const (
	listTitle    = "List Networks"
	detailsTitle = "Network Interface Details"
)

type keyMap struct {
	Next key.Binding
	Back key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(key.WithKeys("enter", "right", "n"), key.WithHelp("enter", "details")),
		Back: key.NewBinding(key.WithKeys("esc", "left", "b"), key.WithHelp("esc", "back")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle  = lipgloss.NewStyle().Width(20)
	helpStyle   = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// Model is the bubbletea model for the network list screen.
type Model struct {
	networks []Network
	page     Page
	table    table.Model
	keys     keyMap
}

// NewModel returns a model positioned on the list page.
func NewModel(networks []Network) Model {
	columns := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "State", Width: 10},
		{Title: "Autostart", Width: 10},
		{Title: "Device", Width: 12},
	}

	rows := make([]table.Row, 0, len(networks))
	for _, n := range networks {
		rows = append(rows, table.Row{
			n.Name,
			choose(n.Active, "Active", "Inactive"),
			choose(n.Autostart, "Yes", "No"),
			n.Bridge,
		})
	}

	height := len(rows) + 1
	if height > 15 {
		height = 15
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	return Model{
		networks: networks,
		page:     ListPage,
		table:    t,
		keys:     defaultKeyMap(),
	}
}

// Page returns the current page.
func (m Model) Page() Page {
	return m.page
}

// HasSelectableNetworks reports whether the list has anything to open.
func (m Model) HasSelectableNetworks() bool {
	return len(m.networks) > 0
}

// PageHasNext reports whether page offers forward navigation.
func (m Model) PageHasNext(page Page) bool {
	return page == ListPage && m.HasSelectableNetworks()
}

// PageHasBack reports whether page offers backward navigation.
func (m Model) PageHasBack(page Page) bool {
	return page == DetailsPage
}

// Selected returns the highlighted network.
func (m Model) Selected() (Network, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.networks) {
		return Network{}, false
	}
	return m.networks[i], true
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			if m.PageHasNext(m.page) {
				m.page = DetailsPage
			}
			return m, nil
		case key.Matches(msg, m.keys.Back):
			if m.PageHasBack(m.page) {
				m.page = ListPage
			}
			return m, nil
		}
	}

	if m.page != ListPage {
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.page {
	case DetailsPage:
		b.WriteString(titleStyle.Render(detailsTitle))
		b.WriteString("\n")
		if n, ok := m.Selected(); ok {
			b.WriteString(RenderFields(n.Fields()))
		}
	default:
		b.WriteString(titleStyle.Render(listTitle))
		b.WriteString("\n")
		if !m.HasSelectableNetworks() {
			b.WriteString("No networks defined.\n")
		} else {
			b.WriteString(m.table.View())
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) helpLine() string {
	var parts []string
	if m.PageHasNext(m.page) {
		parts = append(parts, helpText(m.keys.Next))
	}
	if m.PageHasBack(m.page) {
		parts = append(parts, helpText(m.keys.Back))
	}
	parts = append(parts, helpText(m.keys.Quit))
	return strings.Join(parts, " • ")
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}

// RenderFields lays out detail rows as a two column grid.
func RenderFields(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		if f.Header {
			b.WriteString(headerStyle.Render(f.Label))
			b.WriteString("\n")
			continue
		}
		b.WriteString(labelStyle.Render(f.Label + ":"))
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// Run shows the screen for networks on out until the user quits.
func Run(ctx context.Context, networks []Network, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewModel(networks),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run network list: %w", err)
	}
	return nil
}
