package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// Run starts the interactive search screen on the alternate screen and blocks
// until the user quits or chooses a result. It returns the chosen movie, or
// nil when the user quit without choosing.
//
// opts are appended after tea.WithAltScreen and may override input and output.
func Run(session Session, failures <-chan pipeline.Failure, opts ...tea.ProgramOption) (*types.Movie, error) {
	model := NewSearchModel(session, failures)
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)

	final, err := p.Run()
	model.unsubscribe()
	if err != nil {
		return nil, fmt.Errorf("search screen: %w", err)
	}

	m, ok := final.(SearchModel)
	if !ok {
		return nil, fmt.Errorf("search screen: unexpected model %T", final)
	}
	return m.Chosen(), nil
}
