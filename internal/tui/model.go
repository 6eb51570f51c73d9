package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexivanou/cityweather/internal/detail"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/route"
	"github.com/alexivanou/cityweather/internal/rowsource"
	"github.com/alexivanou/cityweather/internal/view"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screenState int

const (
	screenSearch screenState = iota
	screenWeather
)

// homeEventMsg and weatherEventMsg wake the program when a container changed
type homeEventMsg view.Event
type weatherEventMsg view.Event

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the Bubble Tea application model. It never fetches anything
// itself: it forwards user actions to the containers and redraws when they
// publish a change.
type Model struct {
	ctx    context.Context
	home   *view.Home
	loader *detail.Loader

	homeEvents    <-chan view.Event
	weatherEvents <-chan view.Event
	unsubscribe   []func()

	screen      screenState
	input       textinput.Model
	suggestIdx  int
	page        int
	rowCursor   int
	width       int
	height      int
	currentPath string
}

// New creates a new Model over the two containers
func New(ctx context.Context, home *view.Home, loader *detail.Loader) Model {
	ti := textinput.New()
	ti.Placeholder = "search a city..."
	ti.Prompt = "> "
	ti.Width = 40
	ti.Focus()

	homeEvents, unsubHome := home.Subscribe(64)
	weatherEvents, unsubWeather := loader.Subscribe(16)

	return Model{
		ctx:           ctx,
		home:          home,
		loader:        loader,
		homeEvents:    homeEvents,
		weatherEvents: weatherEvents,
		unsubscribe:   []func(){unsubHome, unsubWeather},
		screen:        screenSearch,
		input:         ti,
	}
}

// Close releases the container subscriptions
func (m Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
}

func waitHome(ch <-chan view.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return homeEventMsg(e)
	}
}

func waitWeather(ch <-chan view.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return weatherEventMsg(e)
	}
}

func (m Model) Init() tea.Cmd {
	m.requestPage(0)
	return tea.Batch(textinput.Blink, waitHome(m.homeEvents), waitWeather(m.weatherEvents))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case homeEventMsg:
		return m, waitHome(m.homeEvents)

	case weatherEventMsg:
		return m, waitWeather(m.weatherEvents)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenWeather {
			return m.updateWeather(msg)
		}
		return m.updateSearch(msg)
	}
	return m, nil
}

func (m Model) updateWeather(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.screen = screenSearch
		m.input.Focus()
	case "r", "ctrl+r":
		m.loader.Reload(m.ctx)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.home.Snapshot()
	suggesting := snap.ShowSuggestions && len(snap.Suggestions) > 0

	switch msg.Type {
	case tea.KeyEsc:
		if suggesting {
			m.home.SelectSuggestion(m.input.Value())
			m.resetGrid()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyTab:
		if suggesting {
			name := snap.Suggestions[clamp(m.suggestIdx, len(snap.Suggestions))]
			m.input.SetValue(name)
			m.input.CursorEnd()
			m.home.SelectSuggestion(name)
			m.resetGrid()
		}
		return m, nil

	case tea.KeyUp:
		if suggesting {
			m.suggestIdx = clamp(m.suggestIdx-1, len(snap.Suggestions))
		} else if m.rowCursor > 0 {
			m.rowCursor--
		}
		return m, nil

	case tea.KeyDown:
		if suggesting {
			m.suggestIdx = clamp(m.suggestIdx+1, len(snap.Suggestions))
		} else if m.rowCursor < len(m.pageRows(snap))-1 {
			m.rowCursor++
		}
		return m, nil

	case tea.KeyPgDown, tea.KeyCtrlN:
		if m.hasNextPage(snap) {
			m.page++
			m.rowCursor = 0
			m.requestPage(m.page)
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyCtrlP:
		if m.page > 0 {
			m.page--
			m.rowCursor = 0
		}
		return m, nil

	case tea.KeyCtrlR:
		// plain r belongs to the search input
		if b, ok := m.pageBlock(snap); ok && b.Failed {
			m.requestPage(m.page)
		}
		return m, nil

	case tea.KeyEnter:
		rows := m.pageRows(snap)
		if len(rows) == 0 {
			return m, nil
		}
		m.openCity(rows[clamp(m.rowCursor, len(rows))].Name)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.home.TypeQuery(m.ctx, after)
		m.suggestIdx = 0
		m.resetGrid()
	}
	return m, cmd
}

func (m *Model) resetGrid() {
	m.page = 0
	m.rowCursor = 0
	m.requestPage(0)
}

func (m Model) requestPage(page int) {
	start := page * rowsource.PageSize
	for _, b := range m.home.Snapshot().Blocks {
		if b.Window.StartRow == start && !b.Failed {
			return
		}
	}
	_, _ = m.home.RequestWindow(m.ctx, model.RowWindow{StartRow: start, EndRow: start + rowsource.PageSize})
}

func (m *Model) openCity(name string) {
	m.currentPath = m.home.OpenCity(name)
	// the loader takes the still-encoded parameter, as a router would hand it over
	param, ok := strings.CutPrefix(m.currentPath, route.WeatherPrefix)
	if !ok {
		return
	}
	m.loader.Navigate(m.ctx, param)
	m.screen = screenWeather
	m.input.Blur()
}

func (m Model) pageBlock(snap view.HomeSnapshot) (view.Block, bool) {
	start := m.page * rowsource.PageSize
	for _, b := range snap.Blocks {
		if b.Window.StartRow == start {
			return b, true
		}
	}
	return view.Block{}, false
}

func (m Model) pageRows(snap view.HomeSnapshot) []model.CityRecord {
	b, ok := m.pageBlock(snap)
	if !ok {
		return nil
	}
	return b.Rows
}

func (m Model) hasNextPage(snap view.HomeSnapshot) bool {
	b, ok := m.pageBlock(snap)
	return ok && !b.Pending && !b.Failed && b.HasMore
}

func (m Model) View() string {
	if m.screen == screenWeather {
		return m.weatherView()
	}
	return m.searchView()
}

func (m Model) searchView() string {
	snap := m.home.Snapshot()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("City Weather"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")

	if snap.ShowSuggestions && len(snap.Suggestions) > 0 {
		var lines []string
		for i, s := range snap.Suggestions {
			if i == clamp(m.suggestIdx, len(snap.Suggestions)) {
				lines = append(lines, selectedStyle.Render(s))
			} else {
				lines = append(lines, s)
			}
		}
		sb.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.gridView(snap))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("tab select • ↑/↓ move • pgdn/pgup page • ctrl+r retry • enter weather • esc quit"))
	return sb.String()
}

func (m Model) gridView(snap view.HomeSnapshot) string {
	b, ok := m.pageBlock(snap)
	switch {
	case !ok || b.Pending:
		return dimStyle.Render("Loading rows...")
	case b.Failed:
		return errorStyle.Render("Failed to load rows: "+b.Error) + "\n" + dimStyle.Render("ctrl+r retry")
	case len(b.Rows) == 0:
		return dimStyle.Render("No cities found")
	}

	header := fmt.Sprintf("%-28s %-22s %12s", "Name", "Country", "Population")
	lines := []string{titleStyle.Render(header)}
	for i, row := range b.Rows {
		line := fmt.Sprintf("%-28s %-22s %12d", truncate(row.Name, 28), truncate(row.CountryName, 22), row.Population)
		if i == m.rowCursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	footer := fmt.Sprintf("page %d", m.page+1)
	if snap.TotalKnown {
		pages := (snap.Total + rowsource.PageSize - 1) / rowsource.PageSize
		footer = fmt.Sprintf("page %d of %d • %d cities", m.page+1, pages, snap.Total)
	}
	lines = append(lines, dimStyle.Render(footer))
	return strings.Join(lines, "\n")
}

func (m Model) weatherView() string {
	v := m.loader.View()
	lines := v.Render()

	var body string
	switch v.State {
	case detail.StateError:
		body = errorStyle.Render(strings.Join(lines, "\n"))
	case detail.StateLoading:
		body = dimStyle.Render(strings.Join(lines, "\n"))
	default:
		lines[0] = titleStyle.Render(lines[0])
		body = strings.Join(lines, "\n")
	}

	return fmt.Sprintf("%s\n%s\n\n%s",
		dimStyle.Render(m.currentPath),
		boxStyle.Render(body),
		dimStyle.Render("r reload • esc back • q quit"))
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
