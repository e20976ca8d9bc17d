package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"movielist-cli/model"
)

const (
	genreListPath = "/genre/movie/list"
	discoverPath  = "/discover/movie"
	searchPath    = "/search/movie"

	discoverSortBy       = "popularity.desc"
	discoverMinVoteCount = 100
)

// DiscoverQuery selects one page of popular movies released in Year.
type DiscoverQuery struct {
	Year   int
	Page   int
	Genres []int
}

// Genres fetches the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]model.Genre, error) {
	raw, err := c.Request(ctx, genreListPath, Params{
		"language": c.language,
	})
	if err != nil {
		return nil, err
	}
	var list model.GenreList
	if err := decode(raw, genreListPath, &list); err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// Discover fetches the most popular movies released in q.Year.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) ([]model.Movie, error) {
	if q.Year <= 0 {
		return nil, errors.New("year is required")
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	params := Params{
		"sort_by":              discoverSortBy,
		"primary_release_year": q.Year,
		"include_adult":        false,
		"page":                 page,
		"vote_count.gte":       discoverMinVoteCount,
		"with_genres":          genreFilter(q.Genres),
	}

	raw, err := c.Request(ctx, discoverPath, params)
	if err != nil {
		return nil, err
	}
	var list model.MovieList
	if err := decode(raw, discoverPath, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Search fetches one page of movies matching query. The query is sent as is.
func (c *Client) Search(ctx context.Context, query string, page int) (model.SearchPage, error) {
	if strings.TrimSpace(query) == "" {
		return model.SearchPage{}, errors.New("query is required")
	}
	if page < 1 {
		page = 1
	}
	raw, err := c.Request(ctx, searchPath, Params{
		"query":         query,
		"include_adult": false,
		"language":      c.language,
		"page":          page,
	})
	if err != nil {
		return model.SearchPage{}, err
	}
	var result model.SearchPage
	if err := decode(raw, searchPath, &result); err != nil {
		return model.SearchPage{}, err
	}
	return result, nil
}

// genreFilter joins ids with commas; nil means the parameter is left out.
func genreFilter(ids []int) any {
	if len(ids) == 0 {
		return nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func decode(raw json.RawMessage, path string, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkError{
			Endpoint: path,
			Message:  fmt.Sprintf("invalid response from %s", path),
			Err:      err,
		}
	}
	return nil
}
