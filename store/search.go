package store

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"movielist-cli/model"
	"movielist-cli/service"
)

const searchFailedMessage = "Failed to fetch movies"

// StalePolicy decides what happens to a search response that arrives after a
// newer search (or a clear) was issued.
type StalePolicy int

const (
	// ApplyInCompletionOrder applies every response as it arrives; the last
	// one to arrive wins even when it was issued first.
	ApplyInCompletionOrder StalePolicy = iota
	// DropStale discards responses whose generation is no longer the latest.
	DropStale
)

func (p StalePolicy) String() string {
	if p == DropStale {
		return "drop-stale"
	}
	return "completion-order"
}

type SearchState struct {
	Results     []model.Movie
	Loading     bool
	Err         string
	CurrentPage int
	TotalPages  int
}

func InitialSearchState() SearchState {
	return SearchState{CurrentPage: 1, TotalPages: 1}
}

// HasMore reports whether another page can be requested.
func (s SearchState) HasMore() bool {
	return s.CurrentPage < s.TotalPages
}

type SearchAction interface {
	searchAction()
	generation() uint64
}

type SearchRequested struct {
	Generation uint64
	Query      string
	Page       int
}

type SearchSucceeded struct {
	Generation uint64
	Page       int
	Result     model.SearchPage
}

type SearchFailed struct {
	Generation uint64
	Err        string
}

type SearchCleared struct {
	Generation uint64
}

func (SearchRequested) searchAction() {}
func (SearchSucceeded) searchAction() {}
func (SearchFailed) searchAction()    {}
func (SearchCleared) searchAction()   {}

func (a SearchRequested) generation() uint64 { return a.Generation }
func (a SearchSucceeded) generation() uint64 { return a.Generation }
func (a SearchFailed) generation() uint64    { return a.Generation }
func (a SearchCleared) generation() uint64   { return a.Generation }

// ReduceSearch replaces the results for page 1 and appends them for later
// pages. Page counters always come from the response.
func ReduceSearch(state SearchState, action SearchAction) SearchState {
	switch a := action.(type) {
	case SearchRequested:
		state.Loading = true
		state.Err = ""
	case SearchSucceeded:
		page := a.Result.Page
		if page <= 0 {
			page = a.Page
		}
		if a.Page <= 1 {
			state.Results = append([]model.Movie{}, a.Result.Results...)
		} else {
			results := make([]model.Movie, 0, len(state.Results)+len(a.Result.Results))
			results = append(results, state.Results...)
			state.Results = append(results, a.Result.Results...)
		}
		total := a.Result.TotalPages
		if total < page {
			total = page
		}
		state.CurrentPage = page
		state.TotalPages = total
		state.Loading = false
	case SearchFailed:
		state.Loading = false
		state.Err = a.Err
	case SearchCleared:
		return InitialSearchState()
	}
	return state
}

// SearchSource runs a paginated movie search.
type SearchSource interface {
	Search(ctx context.Context, query string, page int) (model.SearchPage, error)
}

// Search holds paginated search results. Unlike Movies it has no fetch
// guard: a search may be issued while another one is outstanding.
type Search struct {
	container[SearchState, SearchAction]
	source SearchSource
	policy StalePolicy
	latest uint64
}

func NewSearch(source SearchSource, policy StalePolicy, logger hclog.Logger) *Search {
	return &Search{
		container: newContainer[SearchState, SearchAction](InitialSearchState(), ReduceSearch, logger, "search"),
		source:    source,
		policy:    policy,
	}
}

func (s *Search) State() SearchState {
	return s.state
}

func (s *Search) Policy() StalePolicy {
	return s.policy
}

// Dispatch applies action unless the policy drops it as stale.
func (s *Search) Dispatch(action SearchAction) {
	if s.isStale(action) {
		s.logger.Debug("dropping stale search response", "generation", action.generation(), "latest", s.latest)
		return
	}
	s.dispatch(action)
}

func (s *Search) isStale(action SearchAction) bool {
	if s.policy != DropStale {
		return false
	}
	switch action.(type) {
	case SearchSucceeded, SearchFailed:
		return action.generation() != s.latest
	default:
		return false
	}
}

// Search issues a request for page of query.
func (s *Search) Search(query string, page int) Effect[SearchAction] {
	if page < 1 {
		page = 1
	}
	s.latest++
	gen := s.latest
	s.dispatch(SearchRequested{Generation: gen, Query: query, Page: page})

	source := s.source
	return func(ctx context.Context) SearchAction {
		result, err := source.Search(ctx, query, page)
		if err != nil {
			return SearchFailed{Generation: gen, Err: service.MessageOr(err, searchFailedMessage)}
		}
		return SearchSucceeded{Generation: gen, Page: page, Result: result}
	}
}

// Clear restores the initial state. Under DropStale it also invalidates
// every outstanding request.
func (s *Search) Clear() {
	s.latest++
	s.dispatch(SearchCleared{Generation: s.latest})
}

func (s *Search) HasMore() bool {
	return s.state.HasMore()
}
