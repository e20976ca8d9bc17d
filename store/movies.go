package store

import (
	"context"
	"sort"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/exp/maps"
	"movielist-cli/model"
	"movielist-cli/service"
)

type MoviesState struct {
	ByYear  map[int][]model.Movie
	Loading bool
	Err     string
}

func InitialMoviesState() MoviesState {
	return MoviesState{ByYear: map[int][]model.Movie{}}
}

type MoviesAction interface {
	moviesAction()
}

type YearRequested struct {
	Year int
}

type YearLoaded struct {
	Year   int
	Movies []model.Movie
}

type YearFailed struct {
	Year int
	Err  string
}

type MoviesCleared struct{}

func (YearRequested) moviesAction() {}
func (YearLoaded) moviesAction()    {}
func (YearFailed) moviesAction()    {}
func (MoviesCleared) moviesAction() {}

func ReduceMovies(state MoviesState, action MoviesAction) MoviesState {
	switch a := action.(type) {
	case YearRequested:
		state.Loading = true
		state.Err = ""
	case YearLoaded:
		byYear := make(map[int][]model.Movie, len(state.ByYear)+1)
		for year, movies := range state.ByYear {
			byYear[year] = movies
		}
		byYear[a.Year] = append([]model.Movie{}, a.Movies...)
		state.ByYear = byYear
		state.Loading = false
	case YearFailed:
		state.Loading = false
		state.Err = a.Err
	case MoviesCleared:
		return InitialMoviesState()
	}
	return state
}

// MovieSource discovers popular movies for a release year.
type MovieSource interface {
	Discover(ctx context.Context, q service.DiscoverQuery) ([]model.Movie, error)
}

// Movies maps release years to the movies fetched for them. A single loading
// flag covers every year, so at most one year fetch is in flight.
type Movies struct {
	container[MoviesState, MoviesAction]
	source MovieSource
}

func NewMovies(source MovieSource, logger hclog.Logger) *Movies {
	return &Movies{
		container: newContainer[MoviesState, MoviesAction](InitialMoviesState(), ReduceMovies, logger, "movies"),
		source:    source,
	}
}

func (m *Movies) State() MoviesState {
	return m.state
}

func (m *Movies) Dispatch(action MoviesAction) {
	m.dispatch(action)
}

func (m *Movies) Loading() bool {
	return m.state.Loading
}

// FetchYear requests the first page of movies for year. It returns nil and
// leaves the state untouched while another year fetch is in flight.
func (m *Movies) FetchYear(year int, genreIDs []int) Effect[MoviesAction] {
	if m.state.Loading {
		m.logger.Debug("fetch skipped, already loading", "year", year)
		return nil
	}
	m.dispatch(YearRequested{Year: year})

	source := m.source
	query := service.DiscoverQuery{
		Year:   year,
		Page:   1,
		Genres: append([]int(nil), genreIDs...),
	}
	return func(ctx context.Context) MoviesAction {
		movies, err := source.Discover(ctx, query)
		if err != nil {
			return YearFailed{Year: year, Err: service.Message(err)}
		}
		return YearLoaded{Year: year, Movies: movies}
	}
}

// Clear drops every fetched year. Fetches already in flight still complete
// and are applied when they arrive.
func (m *Movies) Clear() {
	m.dispatch(MoviesCleared{})
}

// Years returns the fetched years in ascending order.
func (m *Movies) Years() []int {
	years := maps.Keys(m.state.ByYear)
	sort.Ints(years)
	return years
}

func (m *Movies) ForYear(year int) ([]model.Movie, bool) {
	movies, ok := m.state.ByYear[year]
	return movies, ok
}
