package model

import (
	"fmt"
	"strconv"
	"strings"
)

const moviePageBaseURL = "https://www.themoviedb.org/movie"

type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	VoteAverage  float64 `json:"vote_average"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	Overview     string  `json:"overview"`
}

// Rating formats the vote average the way the movie cards show it.
func (m Movie) Rating() string {
	return fmt.Sprintf("%.1f", m.VoteAverage)
}

// Year returns the release year, or 0 when the release date is unknown.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

func (m Movie) PosterURL(imageBaseURL string) string {
	if m.PosterPath == "" || imageBaseURL == "" {
		return ""
	}
	return strings.TrimRight(imageBaseURL, "/") + "/" + strings.TrimLeft(m.PosterPath, "/")
}

func (m Movie) PageURL() string {
	return fmt.Sprintf("%s/%d", moviePageBaseURL, m.ID)
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GenreList struct {
	Genres []Genre `json:"genres"`
}

type MovieList struct {
	Results []Movie `json:"results"`
}

type SearchPage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}
