package cmd

import (
	"errors"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"movielist-cli/model"
	"movielist-cli/store"
)

func newGenresCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Long:  `List the movie genres the discover command can filter by`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			genres := store.NewGenres(s.client, s.logger)
			store.Run(cmd.Context(), genres.Fetch(), genres.Dispatch)
			state := genres.State()
			if state.Status == store.GenresErrored {
				return errors.New(state.Err)
			}
			renderGenres(cmd.OutOrStdout(), state.List)
			return nil
		},
	}
}

func renderGenres(out io.Writer, genres []model.Genre) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Genre"})
	for _, genre := range genres {
		t.AppendRow(table.Row{genre.ID, genre.Name})
	}
	t.Render()
}
