package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/lookahead/metrics"
)

// RenderSessionStats renders the counters of a finished search session as
// rows of stat boxes.
func RenderSessionStats(s metrics.Snapshot) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session Statistics"))
	b.WriteString("\n")

	if s.SessionID != "" {
		b.WriteString(YearStyle.Render("session " + s.SessionID))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	input := []string{
		renderStatBox("Keystrokes", s.Submissions, highlightColor),
		renderStatBox("Fetches", s.Dispatches, primaryColor),
		renderStatBox("Coalesced", s.Coalesced(), mutedColor),
		renderStatBox("Cleared", s.EmptyShortcuts, mutedColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, input...))
	b.WriteString("\n")

	outcomes := []string{
		renderStatBox("Succeeded", s.FetchSuccesses, successColor),
		renderStatBox("Failed", s.FetchFailures, errorColor),
		renderStatBox("Canceled", s.FetchCanceled, warningColor),
		renderStatBox("Stale", s.StaleDiscarded, warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, outcomes...))

	if len(s.FailuresByKind) > 0 {
		kinds := make([]string, 0, len(s.FailuresByKind))
		for k := range s.FailuresByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		b.WriteString("\n")
		for _, k := range kinds {
			b.WriteString(fmt.Sprintf("%s %s\n",
				ErrorStyle.Render(k+":"),
				YearStyle.Render(fmt.Sprintf("%d", s.FailuresByKind[k]))))
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}
