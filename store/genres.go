package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"movielist-cli/model"
	"movielist-cli/service"
)

type GenreStatus int

const (
	GenresIdle GenreStatus = iota
	GenresLoading
	GenresReady
	GenresErrored
)

func (s GenreStatus) String() string {
	switch s {
	case GenresLoading:
		return "loading"
	case GenresReady:
		return "loaded"
	case GenresErrored:
		return "errored"
	default:
		return "idle"
	}
}

type GenreState struct {
	Status   GenreStatus
	List     []model.Genre
	Selected []int
	Err      string
}

func InitialGenreState() GenreState {
	return GenreState{Status: GenresIdle}
}

type GenreAction interface {
	genreAction()
}

type GenresRequested struct{}

type GenresLoaded struct {
	List []model.Genre
}

type GenresFailed struct {
	Err string
}

type GenreToggled struct {
	ID int
}

func (GenresRequested) genreAction() {}
func (GenresLoaded) genreAction()    {}
func (GenresFailed) genreAction()    {}
func (GenreToggled) genreAction()    {}

func ReduceGenres(state GenreState, action GenreAction) GenreState {
	switch a := action.(type) {
	case GenresRequested:
		state.Status = GenresLoading
		state.Err = ""
	case GenresLoaded:
		state.Status = GenresReady
		state.List = append([]model.Genre(nil), a.List...)
	case GenresFailed:
		state.Status = GenresErrored
		state.Err = a.Err
	case GenreToggled:
		state.Selected = toggleID(state.Selected, a.ID)
	}
	return state
}

func toggleID(ids []int, id int) []int {
	out := make([]int, 0, len(ids)+1)
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// GenreSource lists the available movie genres.
type GenreSource interface {
	Genres(ctx context.Context) ([]model.Genre, error)
}

// Genres holds the genre list and the user's genre selection.
type Genres struct {
	container[GenreState, GenreAction]
	source GenreSource
}

func NewGenres(source GenreSource, logger hclog.Logger) *Genres {
	return &Genres{
		container: newContainer[GenreState, GenreAction](InitialGenreState(), ReduceGenres, logger, "genres"),
		source:    source,
	}
}

func (g *Genres) State() GenreState {
	return g.state
}

func (g *Genres) Dispatch(action GenreAction) {
	g.dispatch(action)
}

// Fetch issues a genre list request. Concurrent calls are not deduplicated.
func (g *Genres) Fetch() Effect[GenreAction] {
	g.dispatch(GenresRequested{})
	source := g.source
	return func(ctx context.Context) GenreAction {
		list, err := source.Genres(ctx)
		if err != nil {
			return GenresFailed{Err: service.Message(err)}
		}
		return GenresLoaded{List: list}
	}
}

// Toggle flips the selection of id. It never touches the network.
func (g *Genres) Toggle(id int) {
	g.dispatch(GenreToggled{ID: id})
}

func (g *Genres) IsSelected(id int) bool {
	for _, selected := range g.state.Selected {
		if selected == id {
			return true
		}
	}
	return false
}

// Selected returns a copy of the selected genre ids in selection order.
func (g *Genres) Selected() []int {
	return append([]int(nil), g.state.Selected...)
}

// SelectedNames resolves the selected ids against the fetched list.
func (g *Genres) SelectedNames() []string {
	names := make([]string, 0, len(g.state.Selected))
	for _, id := range g.state.Selected {
		name := strconv.Itoa(id)
		for _, genre := range g.state.List {
			if genre.ID == id {
				name = genre.Name
				break
			}
		}
		names = append(names, name)
	}
	return names
}

// SelectedCSV is the comma-joined selection, empty when nothing is selected.
func (g *Genres) SelectedCSV() string {
	parts := make([]string, len(g.state.Selected))
	for i, id := range g.state.Selected {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
