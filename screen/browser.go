// Package screen holds the controllers behind the two screens: the year
// browser and the search screen. Controllers own no rendering; they turn
// triggers (scroll edges, key presses, settled input) into store effects.
package screen

import (
	"time"

	"movielist-cli/model"
	"movielist-cli/store"
)

const (
	DefaultInitialYear = 2012
	// DefaultMinYear is the lowest first window year that may still grow
	// backwards, so the window can reach DefaultMinYear-1.
	DefaultMinYear = 2000
	DefaultPerYear = 20
)

type BrowserOptions struct {
	InitialYear int
	MinYear     int
	PerYear     int
	Now         func() time.Time
}

// YearSection is one year of the browser list.
type YearSection struct {
	Year   int
	Movies []model.Movie
	Loaded bool
}

// Browser keeps the year window of the movie browser. The window starts at
// the initial year and grows one year at a time at either end.
type Browser struct {
	movies *store.Movies
	genres *store.Genres
	opts   BrowserOptions
	window []int
}

func NewBrowser(movies *store.Movies, genres *store.Genres, opts BrowserOptions) *Browser {
	if opts.InitialYear == 0 {
		opts.InitialYear = DefaultInitialYear
	}
	if opts.MinYear == 0 {
		opts.MinYear = DefaultMinYear
	}
	if opts.PerYear <= 0 {
		opts.PerYear = DefaultPerYear
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Browser{
		movies: movies,
		genres: genres,
		opts:   opts,
		window: []int{opts.InitialYear},
	}
}

// Start issues the mount-time fetches: the genre list and the initial year.
func (b *Browser) Start() (store.Effect[store.GenreAction], store.Effect[store.MoviesAction]) {
	return b.genres.Fetch(), b.movies.FetchYear(b.opts.InitialYear, b.genres.Selected())
}

// EndReached grows the window by the following year, up to the current
// calendar year.
func (b *Browser) EndReached() store.Effect[store.MoviesAction] {
	if b.movies.Loading() {
		return nil
	}
	last := b.window[len(b.window)-1]
	if last >= b.opts.Now().Year() {
		return nil
	}
	next := last + 1
	eff := b.movies.FetchYear(next, b.genres.Selected())
	b.window = append(append([]int(nil), b.window...), next)
	return eff
}

// StartReached grows the window by the preceding year.
func (b *Browser) StartReached() store.Effect[store.MoviesAction] {
	if b.movies.Loading() {
		return nil
	}
	first := b.window[0]
	if first < b.opts.MinYear {
		return nil
	}
	prev := first - 1
	eff := b.movies.FetchYear(prev, b.genres.Selected())
	b.window = append([]int{prev}, b.window...)
	return eff
}

// ToggleGenre flips a genre and resets the browser, since every year
// fetched under the old selection is stale.
func (b *Browser) ToggleGenre(id int) store.Effect[store.MoviesAction] {
	b.genres.Toggle(id)
	return b.Reset()
}

// Reset drops all fetched years, shrinks the window back to the initial
// year and refetches it.
func (b *Browser) Reset() store.Effect[store.MoviesAction] {
	b.movies.Clear()
	b.window = []int{b.opts.InitialYear}
	return b.movies.FetchYear(b.opts.InitialYear, b.genres.Selected())
}

func (b *Browser) Window() []int {
	return append([]int(nil), b.window...)
}

func (b *Browser) Loading() bool {
	return b.movies.Loading()
}

func (b *Browser) Err() string {
	return b.movies.State().Err
}

func (b *Browser) AtLatestYear() bool {
	return b.window[len(b.window)-1] >= b.opts.Now().Year()
}

// Sections returns the window in order, each year capped at PerYear movies.
func (b *Browser) Sections() []YearSection {
	sections := make([]YearSection, 0, len(b.window))
	for _, year := range b.window {
		movies, ok := b.movies.ForYear(year)
		if len(movies) > b.opts.PerYear {
			movies = movies[:b.opts.PerYear]
		}
		sections = append(sections, YearSection{Year: year, Movies: movies, Loaded: ok})
	}
	return sections
}
