package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// defaultVisibleRows is used until the first WindowSizeMsg arrives.
const defaultVisibleRows = 10

// chromeRows is the vertical space taken by everything except result rows.
const chromeRows = 9

// Session is the pipeline surface the search screen needs.
type Session interface {
	Submit(text string)
	Subscribe() (<-chan pipeline.State[types.Movie], func())
}

// StateMsg carries a pipeline snapshot into the update loop.
type StateMsg pipeline.State[types.Movie]

// FailureMsg carries a fetch failure into the update loop.
type FailureMsg pipeline.Failure

// closedMsg signals that the pipeline closed the subscription.
type closedMsg struct{}

// SearchModel is a Bubble Tea model for interactive search.
type SearchModel struct {
	session     Session
	states      <-chan pipeline.State[types.Movie]
	unsubscribe func()
	failures    <-chan pipeline.Failure

	input   textinput.Model
	spinner spinner.Model

	state   pipeline.State[types.Movie]
	failure *pipeline.Failure
	cursor  int
	offset  int
	chosen  *types.Movie

	width    int
	height   int
	quitting bool
}

// NewSearchModel subscribes to session and returns a focused search screen.
// failures may be nil.
func NewSearchModel(session Session, failures <-chan pipeline.Failure) SearchModel {
	input := textinput.New()
	input.Placeholder = "Search movies"
	input.Prompt = "› "
	input.CharLimit = 500
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusStyle.UnsetMargins()

	states, unsubscribe := session.Subscribe()

	return SearchModel{
		session:     session,
		states:      states,
		unsubscribe: unsubscribe,
		failures:    failures,
		input:       input,
		spinner:     sp,
	}
}

// Init implements tea.Model.
func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForState(m.states),
		waitForFailure(m.failures),
	)
}

// Update implements tea.Model.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = pipeline.State[types.Movie](msg)
		if m.failure != nil && m.failure.Sequence != m.state.Sequence {
			m.failure = nil
		}
		m.clampCursor()
		return m, waitForState(m.states)

	case FailureMsg:
		if msg.Sequence == m.state.Sequence {
			f := pipeline.Failure(msg)
			m.failure = &f
		}
		return m, waitForFailure(m.failures)

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.unsubscribe()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampCursor()
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Results)-1 {
			m.cursor++
		}
		m.clampCursor()
		return m, nil

	case key.Matches(msg, keys.Choose):
		if m.state.Ready && m.cursor < len(m.state.Results) {
			movie := m.state.Results[m.cursor]
			m.chosen = &movie
			m.quitting = true
			m.unsubscribe()
			return m, tea.Quit
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.session.Submit(after)
		m.cursor = 0
		m.offset = 0
	}
	return m, cmd
}

// Chosen returns the movie picked with enter, or nil.
func (m SearchModel) Chosen() *types.Movie {
	return m.chosen
}

// View implements tea.Model.
func (m SearchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("lookahead"))
	b.WriteString("\n")
	b.WriteString(InputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderResults())
	b.WriteString(HelpStyle.Render(renderHelp()))
	return b.String()
}

func (m SearchModel) renderStatus() string {
	blank := strings.TrimSpace(m.input.Value()) == ""

	switch {
	case m.failure != nil:
		return StatusStyle.Render(ErrorStyle.Render(
			fmt.Sprintf("search failed (%s): %v", m.failure.Kind(), m.failure.Err)))
	case blank && (m.state.Ready || m.state.Sequence == 0):
		return StatusStyle.Render("Type to search")
	case !m.state.Ready:
		return StatusStyle.Render(m.spinner.View() + " searching…")
	case len(m.state.Results) == 1:
		return StatusStyle.Render("1 result")
	default:
		return StatusStyle.Render(fmt.Sprintf("%d results", len(m.state.Results)))
	}
}

func (m SearchModel) renderResults() string {
	results := m.state.Results
	if len(results) == 0 {
		if m.state.Ready && strings.TrimSpace(m.state.Query) != "" {
			return ResultStyle.Render(YearStyle.Render("no matches")) + "\n"
		}
		return ""
	}

	end := min(m.offset+m.visibleRows(), len(results))

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, results[i]))
		b.WriteString("\n")
	}
	if end < len(results) {
		b.WriteString(ResultStyle.Render(YearStyle.Render(fmt.Sprintf("… %d more", len(results)-end))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m SearchModel) renderRow(i int, movie types.Movie) string {
	line := movie.Title
	if year := movie.Year(); year != "" {
		line += " " + YearStyle.Render("("+year+")")
	}
	if movie.VoteAverage > 0 {
		line += "  " + RatingStyle(movie.VoteAverage).Render(fmt.Sprintf("★ %.1f", movie.VoteAverage))
	}

	if i == m.cursor {
		return SelectedStyle.Render("▸ ") + SelectedStyle.Render(line)
	}
	return ResultStyle.Render(line)
}

func (m SearchModel) visibleRows() int {
	if m.height == 0 {
		return defaultVisibleRows
	}
	return max(m.height-chromeRows, 1)
}

// clampCursor keeps the cursor within results and scrolls to keep it visible.
func (m *SearchModel) clampCursor() {
	n := len(m.state.Results)
	if n == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	m.cursor = min(max(m.cursor, 0), n-1)

	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = min(m.offset, max(n-rows, 0))
}

func renderHelp() string {
	bindings := keys.help()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

func waitForState(ch <-chan pipeline.State[types.Movie]) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return StateMsg(s)
	}
}

func waitForFailure(ch <-chan pipeline.Failure) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return FailureMsg(f)
	}
}
