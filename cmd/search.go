package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"movielist-cli/store"
)

const (
	choiceLoadMore = "Load more"
	choiceQuit     = "Quit"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search movies by title",
		Long:  `Search movies by title. Without a query you are prompted for one`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				if !isInteractive() {
					return errors.New("a search query is required")
				}
				var err error
				if query, err = promptQuery(); err != nil {
					return err
				}
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			results := store.NewSearch(s.client, s.stalePolicy(), s.logger)
			return runSearch(cmd.Context(), cmd.OutOrStdout(), results, query, page, isInteractive(), promptLoadMore)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "first page to show")
	return cmd
}

// runSearch prints page of query and keeps printing following pages while
// more exist and next says so.
func runSearch(ctx context.Context, out io.Writer, results *store.Search, query string, page int, interactive bool, next func(current, total int) (bool, error)) error {
	store.Run(ctx, results.Search(query, page), results.Dispatch)
	printed := 0
	for {
		state := results.State()
		if state.Err != "" {
			return errors.New(state.Err)
		}
		if len(state.Results) == 0 {
			fmt.Fprintln(out, "No movies found")
			return nil
		}
		title := fmt.Sprintf("%q • page %d of %d", query, state.CurrentPage, state.TotalPages)
		renderMovies(out, title, printed, state.Results[printed:])
		printed = len(state.Results)

		if !interactive || !results.HasMore() {
			return nil
		}
		more, err := next(state.CurrentPage, state.TotalPages)
		if err != nil || !more {
			return err
		}
		store.Run(ctx, results.Search(query, state.CurrentPage+1), results.Dispatch)
	}
}

func promptQuery() (string, error) {
	validate := func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New("empty query")
		}
		return nil
	}

	prompt := promptui.Prompt{
		Label:    "Movie title",
		Validate: validate,
	}
	return prompt.Run()
}

func promptLoadMore(current, total int) (bool, error) {
	selectNext := promptui.Select{
		Label: fmt.Sprintf("Page %d of %d", current, total),
		Items: []string{choiceLoadMore, choiceQuit},
		Size:  2,
	}
	_, choice, err := selectNext.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return choice == choiceLoadMore, nil
}
