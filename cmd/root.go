package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"movielist-cli/config"
	"movielist-cli/logging"
	"movielist-cli/service"
	"movielist-cli/store"
	"movielist-cli/tui"
)

var (
	version = "dev"
	commit  = "none"
)

// isInteractive reports whether both ends of the terminal are attached.
var isInteractive = func() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type rootOptions struct {
	apiKey      string
	baseURL     string
	language    string
	debug       bool
	logLevel    string
	dropStale   bool
	initialYear int
}

// session is everything a command needs to talk to the API.
type session struct {
	cfg    config.Config
	logger *logging.Logger
	client *service.Client
}

func (s *session) Close() error {
	return s.logger.Close()
}

func (s *session) stalePolicy() store.StalePolicy {
	if s.cfg.DropStaleSearch {
		return store.DropStale
	}
	return store.ApplyInCompletionOrder
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "movielist",
		Short: "Browse and search movies from the terminal",
		Long: `Browse popular movies year by year, filter them by genre and
search the whole catalog, all from the terminal :)`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return cmd.Help()
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			model := tui.New(s.client, tui.Options{
				InitialYear:  s.cfg.InitialYear,
				ImageBaseURL: s.cfg.ImageBaseURL,
				Debounce:     s.cfg.Debounce,
				StalePolicy:  s.stalePolicy(),
				Logger:       s.logger,
			})
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiKey, "api-key", "", "movie database API key (overrides MOVIELIST_API_KEY)")
	flags.StringVar(&opts.baseURL, "base-url", "", "movie database API base URL")
	flags.StringVar(&opts.language, "language", "", "response language, e.g. en-US or pt-BR")
	flags.BoolVar(&opts.debug, "debug", false, "write debug logs to the log file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log file level: trace, debug, info, warn or error")
	flags.BoolVar(&opts.dropStale, "drop-stale", false, "ignore search responses that are no longer the latest")
	rootCmd.Flags().IntVar(&opts.initialYear, "year", 0, "first year shown by the browser")

	rootCmd.AddCommand(
		newGenresCmd(opts),
		newDiscoverCmd(opts),
		newSearchCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// open loads the configuration with the command line on top and builds the
// logger and API client from it.
func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	overrides := config.Overrides{
		APIKey:      o.apiKey,
		BaseURL:     o.baseURL,
		Language:    o.language,
		InitialYear: o.initialYear,
		LogLevel:    o.logLevel,
	}
	if cmd.Flags().Changed("debug") {
		debug := o.debug
		overrides.Debug = &debug
	}
	if cmd.Flags().Changed("drop-stale") {
		dropStale := o.dropStale
		overrides.DropStaleSearch = &dropStale
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Debug: cfg.Debug, File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.Debug("config loaded", "path", cfg.Path, "language", cfg.Language, "drop_stale", cfg.DropStaleSearch)

	client := service.NewClient(service.Options{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Language:  cfg.Language,
		UserAgent: config.AppName + "/" + version,
		Logger:    logger,
	})
	return &session{cfg: cfg, logger: logger, client: client}, nil
}

// Execute runs the command line with the build's version stamp.
func Execute(buildVersion, buildCommit string) {
	if buildVersion != "" {
		version = buildVersion
	}
	if buildCommit != "" {
		commit = buildCommit
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
