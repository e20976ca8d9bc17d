package screen

import (
	"strings"
	"time"

	"movielist-cli/store"
)

const DefaultDebounce = 300 * time.Millisecond

type SearchOptions struct {
	Debounce time.Duration
}

// Search drives the search screen. Raw input only becomes the deferred query
// once it settles: every Input call returns a ticket, and only the latest
// ticket passed to Settle is applied.
type Search struct {
	search   *store.Search
	debounce time.Duration

	input    string
	deferred string
	ticket   uint64
}

func NewSearch(search *store.Search, opts SearchOptions) *Search {
	debounce := opts.Debounce
	if debounce < 0 {
		debounce = DefaultDebounce
	}
	return &Search{
		search:   search,
		debounce: debounce,
	}
}

func (s *Search) Debounce() time.Duration {
	return s.debounce
}

// Input records the raw text and returns the ticket to settle it with.
func (s *Search) Input(text string) uint64 {
	s.input = text
	s.ticket++
	return s.ticket
}

// Settle promotes the input to the deferred query if ticket is still the
// latest. A changed non-blank query starts a page-1 search; a blank one
// clears the results.
func (s *Search) Settle(ticket uint64) store.Effect[store.SearchAction] {
	if ticket != s.ticket {
		return nil
	}
	return s.commit(s.input)
}

// Flush settles the current input right away.
func (s *Search) Flush() store.Effect[store.SearchAction] {
	s.ticket++
	return s.commit(s.input)
}

func (s *Search) commit(query string) store.Effect[store.SearchAction] {
	if query == s.deferred {
		return nil
	}
	s.deferred = query
	if strings.TrimSpace(query) == "" {
		s.search.Clear()
		return nil
	}
	return s.search.Search(query, 1)
}

// LoadMore requests the next page when one exists and nothing is loading.
func (s *Search) LoadMore() store.Effect[store.SearchAction] {
	state := s.search.State()
	if state.Loading || strings.TrimSpace(s.deferred) == "" || !state.HasMore() {
		return nil
	}
	return s.search.Search(s.deferred, state.CurrentPage+1)
}

// Retry re-runs the first page of the deferred query.
func (s *Search) Retry() store.Effect[store.SearchAction] {
	if strings.TrimSpace(s.deferred) == "" {
		return nil
	}
	return s.search.Search(s.deferred, 1)
}

// Enter prepares a fresh visit to the screen.
func (s *Search) Enter() {
	s.reset()
	s.search.Clear()
}

// Leave clears the store unconditionally; nothing survives across visits.
func (s *Search) Leave() {
	s.reset()
	s.search.Clear()
}

func (s *Search) reset() {
	s.input = ""
	s.deferred = ""
	s.ticket++
}

func (s *Search) Text() string {
	return s.input
}

func (s *Search) Query() string {
	return s.deferred
}

// Stale reports whether the input has not settled yet.
func (s *Search) Stale() bool {
	return s.input != s.deferred
}

func (s *Search) State() store.SearchState {
	return s.search.State()
}

// EmptyResult reports a finished search for a real query that found nothing.
func (s *Search) EmptyResult() bool {
	state := s.search.State()
	return !state.Loading && state.Err == "" && len(state.Results) == 0 && strings.TrimSpace(s.deferred) != ""
}
