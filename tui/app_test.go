package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"movielist-cli/store"
)

func openGenrePicker(t *testing.T) appModel {
	t.Helper()
	m := started(t, &fakeAPI{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	if m.screen != screenGenres {
		t.Fatalf("expected genre picker, got screen %d", m.screen)
	}
	return m
}

func typeFilter(t *testing.T, m appModel, text string) appModel {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, keyRunes(string(r)))
	}
	return m
}

func visibleGenres(m appModel) []genreItem {
	var out []genreItem
	for _, item := range m.genreList.VisibleItems() {
		if genre, ok := item.(genreItem); ok {
			out = append(out, genre)
		}
	}
	return out
}

func TestGenrePicker_FilterThenToggle(t *testing.T) {
	m := openGenrePicker(t)

	m = typeFilter(t, m, "com")
	if got := m.genreList.FilterValue(); got != "com" {
		t.Fatalf("expected filter value to be %q, got %q", "com", got)
	}
	visible := visibleGenres(m)
	if len(visible) != 1 || visible[0].genre.ID != 35 {
		t.Fatalf("expected only Comedy to match, got %+v", visible)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a fetch for the reset window")
	}
	if got := m.genres.Selected(); len(got) != 1 || got[0] != 35 {
		t.Fatalf("expected Comedy selected, got %v", got)
	}
	if got := m.browser.Window(); len(got) != 1 || got[0] != 2012 {
		t.Fatalf("expected window reset to 2012, got %v", got)
	}
	if len(m.movies.State().ByYear) != 0 {
		t.Fatalf("expected fetched years to be cleared, got %v", m.movies.State().ByYear)
	}

	visible = visibleGenres(m)
	if len(visible) != 1 || visible[0].Title() != "[x] Comedy" {
		t.Fatalf("expected filtered row to show the selection, got %+v", visible)
	}
	if header := m.headerView(); !strings.Contains(header, "discover --genre 35") {
		t.Fatalf("expected selected ids in header, got %q", header)
	}
}

func TestGenrePicker_BackspaceWidensFilter(t *testing.T) {
	m := openGenrePicker(t)

	m = typeFilter(t, m, "ax")
	if visible := visibleGenres(m); len(visible) != 0 {
		t.Fatalf("expected no genre to match %q, got %+v", "ax", visible)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.genreList.FilterValue(); got != "a" {
		t.Fatalf("expected filter value to be %q, got %q", "a", got)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.genres.Selected(); len(got) != 1 || got[0] != 28 {
		t.Fatalf("expected Action selected, got %v", got)
	}
}

func TestGenrePicker_EscClearsFilterBeforeLeaving(t *testing.T) {
	m := openGenrePicker(t)
	m = typeFilter(t, m, "act")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.screen != screenGenres {
		t.Fatalf("expected first esc to stay on the picker, got screen %d", m.screen)
	}
	if got := m.genreList.FilterValue(); got != "" {
		t.Fatalf("expected filter to be cleared, got %q", got)
	}
	if len(m.genres.Selected()) != 0 {
		t.Fatalf("expected no selection, got %v", m.genres.Selected())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.screen != screenBrowser {
		t.Fatalf("expected second esc to return to the browser, got screen %d", m.screen)
	}
}

func TestHandleFilterInput_IgnoredOnBrowser(t *testing.T) {
	model := New(&fakeAPI{}, Options{}).(appModel)

	if model.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}) {
		t.Fatal("expected browser keys to bypass the filter")
	}
}

func TestHeader_CountsLoadedYears(t *testing.T) {
	m := started(t, &fakeAPI{})
	if header := m.headerView(); !strings.Contains(header, "1/1 loaded") {
		t.Fatalf("expected one loaded year, got %q", header)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	header := m.headerView()
	if !strings.Contains(header, "Years: 2012-2013") || !strings.Contains(header, "1/2 loaded") {
		t.Fatalf("expected 2013 to be pending, got %q", header)
	}

	m, _ = update(t, m, moviesMsg{action: store.YearLoaded{Year: 2013}})
	if header := m.headerView(); !strings.Contains(header, "2/2 loaded") {
		t.Fatalf("expected both years loaded, got %q", header)
	}
}

func TestNew_LogsSearchPolicy(t *testing.T) {
	var logs bytes.Buffer
	New(&fakeAPI{}, Options{
		StalePolicy: store.DropStale,
		Logger:      hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Debug}),
	})

	if !strings.Contains(logs.String(), "policy=drop-stale") {
		t.Fatalf("expected stale policy in logs, got %q", logs.String())
	}
}
