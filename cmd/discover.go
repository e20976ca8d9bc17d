package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"movielist-cli/model"
	"movielist-cli/screen"
	"movielist-cli/store"
)

func newDiscoverCmd(opts *rootOptions) *cobra.Command {
	var (
		year   int
		genres []int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Show the most popular movies of a year",
		Long:  `Show the most popular movies released in a year, optionally restricted to genres (see "genres" for ids)`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if year == 0 {
				year = s.cfg.InitialYear
			}
			movies := store.NewMovies(s.client, s.logger)
			store.Run(cmd.Context(), movies.FetchYear(year, genres), movies.Dispatch)
			if msg := movies.State().Err; msg != "" {
				return errors.New(msg)
			}
			found, _ := movies.ForYear(year)
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}
			if len(found) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No movies found for %d\n", year)
				return nil
			}
			renderMovies(cmd.OutOrStdout(), strconv.Itoa(year), 0, found)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "release year (defaults to the configured initial year)")
	cmd.Flags().IntSliceVar(&genres, "genre", nil, "genre id to require, repeatable or comma separated")
	cmd.Flags().IntVar(&limit, "limit", screen.DefaultPerYear, "maximum number of movies to show, 0 for all")
	return cmd
}

// renderMovies prints movies numbered from offset+1 under a title row.
func renderMovies(out io.Writer, title string, offset int, movies []model.Movie) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "Title", "Rating", "Released"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 48},
	})
	for i, movie := range movies {
		t.AppendRow(table.Row{offset + i + 1, movie.Title, movie.Rating(), movie.ReleaseDate})
	}
	t.Render()
}
