package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

type fakeSession struct {
	mu        sync.Mutex
	submitted []string
	ch        chan pipeline.State[types.Movie]
	once      sync.Once
}

func newFakeSession() *fakeSession {
	return &fakeSession{ch: make(chan pipeline.State[types.Movie], 1)}
}

func (f *fakeSession) Submit(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
}

func (f *fakeSession) Subscribe() (<-chan pipeline.State[types.Movie], func()) {
	return f.ch, func() { f.once.Do(func() { close(f.ch) }) }
}

func (f *fakeSession) Submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

func batmanState(seq uint64) StateMsg {
	return StateMsg{
		Query:    "batman",
		Sequence: seq,
		Ready:    true,
		Results: []types.Movie{
			{ID: 272, Title: "Batman Begins", ReleaseDate: "2005-06-10", VoteAverage: 7.7},
			{ID: 364, Title: "Batman Returns", ReleaseDate: "1992-06-19", VoteAverage: 6.9},
			{ID: 268, Title: "Batman", ReleaseDate: "1989-06-23", VoteAverage: 7.2},
		},
	}
}

func typeRunes(t *testing.T, m SearchModel, text string) SearchModel {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(SearchModel)
	}
	return m
}

func press(t *testing.T, m SearchModel, k tea.KeyType) (SearchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(SearchModel), cmd
}

func update(t *testing.T, m SearchModel, msg tea.Msg) SearchModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(SearchModel)
}

func TestSearchModel_EveryEditIsSubmitted(t *testing.T) {
	s := newFakeSession()
	m := NewSearchModel(s, nil)

	m = typeRunes(t, m, "bat")
	m, _ = press(t, m, tea.KeyBackspace)

	got := s.Submitted()
	want := []string{"b", "ba", "bat", "ba"}
	if len(got) != len(want) {
		t.Fatalf("submitted = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("submitted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearchModel_NavigationDoesNotSubmit(t *testing.T) {
	s := newFakeSession()
	m := NewSearchModel(s, nil)
	m = update(t, m, batmanState(1))

	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyUp)

	if n := len(s.Submitted()); n != 0 {
		t.Errorf("navigation submitted %d queries", n)
	}
}

func TestSearchModel_StatusLine(t *testing.T) {
	s := newFakeSession()
	m := NewSearchModel(s, nil)

	if !strings.Contains(m.View(), "Type to search") {
		t.Errorf("initial view should prompt for input:\n%s", m.View())
	}

	m = typeRunes(t, m, "batman")
	m = update(t, m, StateMsg{Query: "batman", Sequence: 6})
	if !strings.Contains(m.View(), "searching") {
		t.Errorf("pending view should show searching:\n%s", m.View())
	}

	m = update(t, m, batmanState(6))
	view := m.View()
	if !strings.Contains(view, "3 results") {
		t.Errorf("ready view should count results:\n%s", view)
	}
	for _, title := range []string{"Batman Begins", "Batman Returns", "1989"} {
		if !strings.Contains(view, title) {
			t.Errorf("view missing %q:\n%s", title, view)
		}
	}
}

func TestSearchModel_NoMatches(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	m = typeRunes(t, m, "zzzz")
	m = update(t, m, StateMsg{Query: "zzzz", Sequence: 4, Ready: true})

	if !strings.Contains(m.View(), "no matches") {
		t.Errorf("expected no matches:\n%s", m.View())
	}
}

func TestSearchModel_CursorClamps(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	m = update(t, m, batmanState(1))

	for range 5 {
		m, _ = press(t, m, tea.KeyDown)
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}

	m = update(t, m, StateMsg{Query: "batman b", Sequence: 2, Ready: true, Results: batmanState(2).Results[:1]})
	if m.cursor != 0 {
		t.Errorf("cursor after shrink = %d, want 0", m.cursor)
	}
}

func TestSearchModel_ChooseReturnsSelection(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	m = update(t, m, batmanState(1))
	m, _ = press(t, m, tea.KeyDown)

	m, cmd := press(t, m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("enter should quit")
	}
	if got := m.Chosen(); got == nil || got.ID != 364 {
		t.Errorf("Chosen() = %+v, want Batman Returns", got)
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestSearchModel_ChooseIgnoredWhilePending(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	pending := batmanState(2)
	pending.Ready = false
	m = update(t, m, pending)

	m, cmd := press(t, m, tea.KeyEnter)
	if cmd != nil || m.Chosen() != nil {
		t.Error("enter should do nothing until results are ready")
	}
}

func TestSearchModel_QuitUnsubscribes(t *testing.T) {
	s := newFakeSession()
	m := NewSearchModel(s, nil)

	_, cmd := press(t, m, tea.KeyEsc)
	if cmd == nil {
		t.Fatal("esc should quit")
	}
	if _, ok := <-s.ch; ok {
		t.Error("subscription should be closed after quit")
	}
}

func TestSearchModel_FailureShownForCurrentSequence(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	m = update(t, m, batmanState(3))

	err := &fetcher.Error{Kind: fetcher.ErrTransport, Query: "batman", Err: errors.New("connection refused")}
	m = update(t, m, FailureMsg{Sequence: 3, Query: "batman", Err: err})

	view := m.View()
	if !strings.Contains(view, "search failed") || !strings.Contains(view, "transport") {
		t.Errorf("expected failure in status line:\n%s", view)
	}
	if !strings.Contains(view, "Batman Begins") {
		t.Errorf("last good results should stay visible:\n%s", view)
	}

	m = update(t, m, batmanState(4))
	if strings.Contains(m.View(), "search failed") {
		t.Error("failure should clear once a newer state arrives")
	}
}

func TestSearchModel_StaleFailureIgnored(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	m = update(t, m, batmanState(5))
	m = update(t, m, FailureMsg{Sequence: 4, Query: "batma", Err: errors.New("boom")})

	if strings.Contains(m.View(), "search failed") {
		t.Error("failure for an older sequence should not be shown")
	}
}

func TestSearchModel_ClosedSubscriptionQuits(t *testing.T) {
	m := NewSearchModel(newFakeSession(), nil)
	_, cmd := m.Update(closedMsg{})
	if cmd == nil {
		t.Fatal("closed subscription should quit")
	}
}

func TestWaitForState(t *testing.T) {
	ch := make(chan pipeline.State[types.Movie], 1)
	ch <- pipeline.State[types.Movie]{Sequence: 9, Ready: true}

	msg := waitForState(ch)()
	if s, ok := msg.(StateMsg); !ok || s.Sequence != 9 {
		t.Errorf("waitForState() = %#v", msg)
	}

	close(ch)
	if _, ok := waitForState(ch)().(closedMsg); !ok {
		t.Error("closed channel should yield closedMsg")
	}
}

func TestWaitForFailure_NilChannel(t *testing.T) {
	if cmd := waitForFailure(nil); cmd != nil {
		t.Error("nil failure channel should yield no command")
	}
}

func TestRenderSessionStats(t *testing.T) {
	c := metrics.NewCollector("sess-1", "")
	for range 6 {
		c.IncSubmission()
	}
	c.IncDispatch()
	c.IncFetchSuccess()
	c.IncFetchFailure("transport")

	out := RenderSessionStats(c.Snapshot())
	for _, want := range []string{"Session Statistics", "sess-1", "Keystrokes", "Coalesced", "transport:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
