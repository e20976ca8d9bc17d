package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"movielist-cli/model"
	"movielist-cli/screen"
)

type keyedItem interface {
	list.Item
	key() string
}

type yearItem struct {
	section screen.YearSection
	loading bool
}

func (y yearItem) Title() string {
	return fmt.Sprintf("── %d ──", y.section.Year)
}

func (y yearItem) Description() string {
	switch {
	case !y.section.Loaded && y.loading:
		return "Loading..."
	case !y.section.Loaded:
		return "Not loaded"
	case len(y.section.Movies) == 0:
		return "No movies"
	case len(y.section.Movies) == 1:
		return "1 movie"
	default:
		return fmt.Sprintf("%d movies", len(y.section.Movies))
	}
}

func (y yearItem) FilterValue() string {
	return strconv.Itoa(y.section.Year)
}

func (y yearItem) key() string {
	return "y" + strconv.Itoa(y.section.Year)
}

type movieItem struct {
	movie model.Movie
	year  int
}

func (m movieItem) Title() string {
	return m.movie.Title
}

func (m movieItem) Description() string {
	parts := []string{"Rating: " + m.movie.Rating()}
	if year := m.movie.Year(); year != 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(m.movie.Title)
}

func (m movieItem) key() string {
	return fmt.Sprintf("m%d-%d", m.year, m.movie.ID)
}

type genreItem struct {
	genre    model.Genre
	selected bool
}

func (g genreItem) Title() string {
	if g.selected {
		return fmt.Sprintf("[x] %s", g.genre.Name)
	}
	return fmt.Sprintf("[ ] %s", g.genre.Name)
}

func (g genreItem) Description() string {
	if g.selected {
		return "selected"
	}
	return ""
}

func (g genreItem) FilterValue() string {
	return strings.ToLower(g.genre.Name)
}

// buildBrowserItems flattens the year sections into one list: a header row
// per year followed by that year's movies.
func buildBrowserItems(sections []screen.YearSection, loading bool) []list.Item {
	items := []list.Item{}
	for _, section := range sections {
		items = append(items, yearItem{section: section, loading: loading})
		for _, movie := range section.Movies {
			items = append(items, movieItem{movie: movie, year: section.Year})
		}
	}
	return items
}

func buildResultItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, movie := range movies {
		items = append(items, movieItem{movie: movie})
	}
	return items
}

func buildGenreItems(genres []model.Genre, isSelected func(int) bool) []list.Item {
	items := make([]list.Item, 0, len(genres))
	for _, genre := range genres {
		items = append(items, genreItem{genre: genre, selected: isSelected(genre.ID)})
	}
	return items
}
