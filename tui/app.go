package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"
	"movielist-cli/screen"
	"movielist-cli/store"
)

type appScreen int

const (
	screenBrowser appScreen = iota
	screenGenres
	screenSearch
)

// API is everything the screens fetch from.
type API interface {
	store.GenreSource
	store.MovieSource
	store.SearchSource
}

type Options struct {
	InitialYear  int
	ImageBaseURL string
	Debounce     time.Duration
	StalePolicy  store.StalePolicy
	Now          func() time.Time
	Logger       hclog.Logger
}

type appModel struct {
	genres  *store.Genres
	movies  *store.Movies
	results *store.Search

	browser *screen.Browser
	search  *screen.Search

	imageBaseURL string

	screen appScreen
	err    error

	width  int
	height int

	movieList  list.Model
	genreList  list.Model
	resultList list.Model
	input      textinput.Model

	spinner spinner.Model
}

type errMsg struct {
	err error
}

type genresMsg struct {
	action store.GenreAction
}

type moviesMsg struct {
	action store.MoviesAction
}

type searchMsg struct {
	action store.SearchAction
}

type debounceMsg struct {
	ticket uint64
}

func New(api API, opts Options) tea.Model {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	debounce := opts.Debounce
	if debounce < 0 {
		debounce = screen.DefaultDebounce
	}

	m := appModel{
		genres:  store.NewGenres(api, logger),
		movies:  store.NewMovies(api, logger),
		results: store.NewSearch(api, opts.StalePolicy, logger),
		screen:  screenBrowser,

		imageBaseURL: opts.ImageBaseURL,
	}
	m.browser = screen.NewBrowser(m.movies, m.genres, screen.BrowserOptions{
		InitialYear: opts.InitialYear,
		Now:         opts.Now,
	})
	m.search = screen.NewSearch(m.results, screen.SearchOptions{Debounce: debounce})
	logger.Debug("search ready", "policy", m.results.Policy(), "debounce", m.search.Debounce())

	m.movieList = newList("Movies")
	m.movieList.SetFilteringEnabled(false)
	m.genreList = newList("Genres")
	m.resultList = newList("Results")
	m.resultList.SetFilteringEnabled(false)

	in := textinput.New()
	in.Placeholder = "Search movies"
	in.Prompt = "> "
	in.CharLimit = 120
	m.input = in

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	genresEff, moviesEff := m.browser.Start()
	return tea.Batch(genresCmd(genresEff), moviesCmd(moviesEff), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.screen == screenSearch {
			return m.handleSearchKey(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		model, cmd, handled := m.handleKey(msg)
		if handled {
			return model, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoading() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case genresMsg:
		m.genres.Dispatch(msg.action)
		m.refreshGenreList()
		return m, nil

	case moviesMsg:
		m.movies.Dispatch(msg.action)
		m.refreshMovieList()
		if _, loaded := msg.action.(store.YearLoaded); loaded && m.screen == screenBrowser && m.atLastRow(&m.movieList) {
			return m, m.withSpinner(moviesCmd(m.browser.EndReached()))
		}
		return m, nil

	case searchMsg:
		m.results.Dispatch(msg.action)
		m.refreshResultList()
		return m, nil

	case debounceMsg:
		cmd := searchCmd(m.search.Settle(msg.ticket))
		m.refreshResultList()
		return m, m.withSpinner(cmd)
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenBrowser:
		m.movieList, cmd = m.movieList.Update(msg)
		if m.atLastRow(&m.movieList) {
			return m, tea.Batch(cmd, m.withSpinner(moviesCmd(m.browser.EndReached())))
		}
	case screenGenres:
		m.genreList, cmd = m.genreList.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	status := ""
	if m.err != nil {
		status = "\n" + errorText(m.err.Error())
	}
	switch m.screen {
	case screenBrowser:
		return header + "\n\n" + m.genreBarView() + status + "\n\n" + m.browserView()
	case screenGenres:
		return header + status + "\n\n" + m.genrePickerView()
	case screenSearch:
		return header + status + "\n\n" + m.searchView()
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Movie List")
	sub := []string{}
	switch m.screen {
	case screenBrowser, screenGenres:
		window := m.browser.Window()
		if len(window) == 1 {
			sub = append(sub, fmt.Sprintf("Year: %d", window[0]))
		} else {
			sub = append(sub, fmt.Sprintf("Years: %d-%d", window[0], window[len(window)-1]))
		}
		sub = append(sub, fmt.Sprintf("%d/%d loaded", len(m.movies.Years()), len(window)))
		if names := m.genres.SelectedNames(); len(names) > 0 {
			sub = append(sub, "Genres: "+strings.Join(names, ", "))
		}
		if ids := m.genres.SelectedCSV(); ids != "" && m.screen == screenGenres {
			sub = append(sub, "discover --genre "+ids)
		}
	case screenSearch:
		if query := strings.TrimSpace(m.search.Query()); query != "" {
			sub = append(sub, fmt.Sprintf("Query: %s", query))
			state := m.search.State()
			sub = append(sub, fmt.Sprintf("Page %d of %d", state.CurrentPage, state.TotalPages))
		}
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}
	hints := "ctrl+c/q quit • / search • ctrl+g genres • enter open movie page • ctrl+o poster"
	if m.screen == screenGenres {
		hints = "ctrl+c quit • esc back • type to filter • enter toggle genre"
	}
	if m.screen == screenSearch {
		hints = "ctrl+c quit • esc back • ↑/↓ results • enter open movie page • ctrl+o poster"
		if m.search.State().Err != "" {
			hints += " • ctrl+r retry"
		}
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) genreBarView() string {
	state := m.genres.State()
	switch state.Status {
	case store.GenresIdle, store.GenresLoading:
		return hint("Loading genres...")
	case store.GenresErrored:
		return errorText("Error: " + state.Err)
	}
	if len(state.List) == 0 {
		return hint("No genres available")
	}
	names := m.genres.SelectedNames()
	if len(names) == 0 {
		return hint("Genres: all • ctrl+g to filter")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Render("Genres: " + strings.Join(names, ", "))
}

func (m appModel) browserView() string {
	view := m.movieList.View()
	if msg := m.browser.Err(); msg != "" {
		view += "\n" + errorText(msg)
	}
	if m.browser.Loading() {
		view += "\n" + m.spinner.View() + " Loading movies"
	} else if m.browser.AtLatestYear() {
		view += "\n" + hint("You are all caught up.")
	}
	return view
}

func (m appModel) genrePickerView() string {
	state := m.genres.State()
	switch state.Status {
	case store.GenresIdle, store.GenresLoading:
		return fmt.Sprintf("%s Loading genres\n\n%s", m.spinner.View(), hint("Fetching data..."))
	case store.GenresErrored:
		return errorText("Error: "+state.Err) + "\n\n" + hint("Press esc to go back.")
	}
	if len(state.List) == 0 {
		return hint("No genres available")
	}
	return m.genreList.View()
}

func (m appModel) searchView() string {
	input := m.input.View()
	if m.search.Stale() {
		input += " " + hint("…")
	}
	state := m.search.State()
	var body string
	switch {
	case state.Err != "":
		body = errorText(state.Err) + "\n\n" + hint("Press ctrl+r to retry.")
	case state.Loading && len(state.Results) == 0:
		body = fmt.Sprintf("%s Searching", m.spinner.View())
	case m.search.EmptyResult():
		body = hint("No movies found")
	case len(state.Results) == 0:
		body = hint("Type to search for movies.")
	default:
		body = m.resultList.View()
		if state.Loading {
			body += "\n" + m.spinner.View() + " Loading more"
		}
	}
	return input + "\n\n" + body
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "q":
		if m.screen == screenBrowser {
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		model, cmd := m.goBack()
		return model, cmd, true
	case "/":
		if m.screen == screenBrowser {
			return m.openSearch()
		}
	case "ctrl+o":
		if m.screen == screenBrowser {
			return m, openPosterCmd(m.movieList.SelectedItem(), m.imageBaseURL), true
		}
	case "ctrl+g":
		if m.screen == screenBrowser {
			m.screen = screenGenres
			m.refreshGenreList()
			return m, nil, true
		}
	case "up", "k":
		if m.screen == screenBrowser && len(m.movieList.Items()) > 0 && m.movieList.Index() == 0 {
			return m, m.withSpinner(moviesCmd(m.browser.StartReached())), true
		}
	}

	if msg.Type == tea.KeyEnter {
		switch m.screen {
		case screenBrowser:
			return m, openMovieCmd(m.movieList.SelectedItem()), true
		case screenGenres:
			return m.toggleGenre()
		}
	}
	return m, nil, false
}

func (m appModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		model, cmd := m.goBack()
		return model, cmd
	case "ctrl+o":
		return m, openPosterCmd(m.resultList.SelectedItem(), m.imageBaseURL)
	case "ctrl+r":
		if m.search.State().Err == "" {
			return m, nil
		}
		cmd := searchCmd(m.search.Retry())
		m.refreshResultList()
		return m, m.withSpinner(cmd)
	case "enter":
		if m.search.Stale() {
			cmd := searchCmd(m.search.Flush())
			m.refreshResultList()
			return m, m.withSpinner(cmd)
		}
		return m, openMovieCmd(m.resultList.SelectedItem())
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		if m.atLastRow(&m.resultList) {
			more := searchCmd(m.search.LoadMore())
			return m, tea.Batch(cmd, m.withSpinner(more))
		}
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		cmd = tea.Batch(cmd, m.debounceCmd(m.search.Input(value)))
	}
	return m, cmd
}

func (m appModel) openSearch() (appModel, tea.Cmd, bool) {
	m.screen = screenSearch
	m.err = nil
	m.search.Enter()
	m.input.SetValue(m.search.Text())
	m.refreshResultList()
	m.resultList.Select(0)
	return m, m.input.Focus(), true
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.screen {
	case screenGenres:
		m.screen = screenBrowser
	case screenSearch:
		m.search.Leave()
		m.input.SetValue(m.search.Text())
		m.input.Blur()
		m.refreshResultList()
		m.screen = screenBrowser
	default:
		return m, nil
	}
	m.err = nil
	return m, nil
}

func (m appModel) toggleGenre() (appModel, tea.Cmd, bool) {
	item, ok := m.genreList.SelectedItem().(genreItem)
	if !ok {
		return m, nil, true
	}
	cmd := moviesCmd(m.browser.ToggleGenre(item.genre.ID))

	index := m.genreList.Index()
	m.refreshGenreList()
	if count := len(m.genreList.Items()); count > 0 {
		if index >= count {
			index = count - 1
		}
		m.genreList.Select(index)
	}
	m.refreshMovieList()
	m.movieList.Select(0)
	return m, m.withSpinner(cmd), true
}

func (m appModel) debounceCmd(ticket uint64) tea.Cmd {
	if m.search.Debounce() <= 0 {
		return func() tea.Msg { return debounceMsg{ticket: ticket} }
	}
	return tea.Tick(m.search.Debounce(), func(time.Time) tea.Msg {
		return debounceMsg{ticket: ticket}
	})
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.screen {
	case screenBrowser:
		return &m.movieList
	case screenGenres:
		return &m.genreList
	case screenSearch:
		return &m.resultList
	default:
		return nil
	}
}

// refreshMovieList rebuilds the browser rows and keeps the cursor on the
// same row when years are added above it.
func (m *appModel) refreshMovieList() {
	selected := ""
	if item, ok := m.movieList.SelectedItem().(keyedItem); ok {
		selected = item.key()
	}
	items := buildBrowserItems(m.browser.Sections(), m.browser.Loading())
	m.movieList.SetItems(items)
	if selected == "" {
		return
	}
	for i, item := range items {
		if keyed, ok := item.(keyedItem); ok && keyed.key() == selected {
			m.movieList.Select(i)
			return
		}
	}
}

// refreshGenreList rebuilds the picker rows. SetItems defers re-filtering to
// a command, so an active filter is applied again in place.
func (m *appModel) refreshGenreList() {
	m.genreList.SetItems(buildGenreItems(m.genres.State().List, m.genres.IsSelected))
	if filter := m.genreList.FilterValue(); filter != "" && m.genreList.IsFiltered() {
		m.genreList.SetFilterText(filter)
	}
}

func (m *appModel) refreshResultList() {
	m.resultList.SetItems(buildResultItems(m.search.State().Results))
}

func (m appModel) atLastRow(listPtr *list.Model) bool {
	count := len(listPtr.Items())
	return count > 0 && listPtr.Index() == count-1
}

func (m appModel) isLoading() bool {
	return m.browser.Loading() ||
		m.genres.State().Status == store.GenresLoading ||
		m.search.State().Loading
}

func (m appModel) withSpinner(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 8
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h)
	m.genreList.SetSize(m.width, h)
	m.resultList.SetSize(m.width, h-2)
	m.input.Width = m.width - 4
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errorText(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(text)
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

// effectCmd runs eff off the main loop and hands its completion action back
// as a message, so every dispatch happens inside Update.
func effectCmd[A any](eff store.Effect[A], wrap func(A) tea.Msg) tea.Cmd {
	if eff == nil {
		return nil
	}
	return func() tea.Msg {
		return wrap(eff(context.Background()))
	}
}

func genresCmd(eff store.Effect[store.GenreAction]) tea.Cmd {
	return effectCmd(eff, func(a store.GenreAction) tea.Msg { return genresMsg{action: a} })
}

func moviesCmd(eff store.Effect[store.MoviesAction]) tea.Cmd {
	return effectCmd(eff, func(a store.MoviesAction) tea.Msg { return moviesMsg{action: a} })
}

func searchCmd(eff store.Effect[store.SearchAction]) tea.Cmd {
	return effectCmd(eff, func(a store.SearchAction) tea.Msg { return searchMsg{action: a} })
}

func openMovieCmd(item list.Item) tea.Cmd {
	movie, ok := item.(movieItem)
	if !ok {
		return nil
	}
	return openURLCmd(movie.movie.PageURL())
}

func openPosterCmd(item list.Item, imageBaseURL string) tea.Cmd {
	movie, ok := item.(movieItem)
	if !ok {
		return nil
	}
	url := movie.movie.PosterURL(imageBaseURL)
	if url == "" {
		return errCmd(fmt.Errorf("no poster for %s", movie.movie.Title))
	}
	return openURLCmd(url)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS for opening browser: %s", runtime.GOOS)
	}
}
