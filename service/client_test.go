package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:    server.URL,
		APIKey:     "secret",
		HTTPClient: server.Client(),
	})
}

func TestRequest_Non2xxUsesStatusMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key.","success":false}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Request(context.Background(), "/genre/movie/list", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T", err)
	}
	if netErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", netErr.StatusCode)
	}
	if got := Message(err); got != "Invalid API key: You must be granted a valid key." {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestRequest_Non2xxWithoutBodyUsesGenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := newTestClient(server).Request(context.Background(), "/fail", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequest_DoesNotRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestClient(server).Request(context.Background(), "/busy", nil); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRequest_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.Request(context.Background(), "/genre/movie/list", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Message(err); got != "network request failed" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestRequest_OmitsNilParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if _, ok := query["with_genres"]; ok {
			t.Fatalf("expected with_genres to be omitted: %s", r.URL.RawQuery)
		}
		if _, ok := query["region"]; ok {
			t.Fatalf("expected region to be omitted: %s", r.URL.RawQuery)
		}
		if query.Get("page") != "2" || query.Get("include_adult") != "false" || query.Get("api_key") != "secret" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	var region *string
	raw, err := newTestClient(server).Request(context.Background(), "/discover/movie", Params{
		"with_genres":   nil,
		"region":        region,
		"page":          2,
		"include_adult": false,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if string(raw) != `{"ok": true}` {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestRequest_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Request(context.Background(), "/search/movie", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Message(err); got != "invalid response from /search/movie" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestGenres_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.RawQuery != "api_key=secret&language=en-US" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":12,"name":"Adventure"}]}`))
	}))
	defer server.Close()

	genres, err := newTestClient(server).Genres(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Action" {
		t.Fatalf("unexpected genres: %+v", genres)
	}
}

func TestDiscover_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		want := "api_key=secret&include_adult=false&page=1&primary_release_year=2012&sort_by=popularity.desc&vote_count.gte=100&with_genres=28%2C12"
		if r.URL.RawQuery != want {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "page": 1,
  "results": [
    {"id": 24428, "title": "The Avengers", "vote_average": 7.7, "poster_path": "/avengers.jpg", "backdrop_path": "/bd.jpg", "release_date": "2012-04-25"}
  ]
}`))
	}))
	defer server.Close()

	movies, err := newTestClient(server).Discover(context.Background(), DiscoverQuery{Year: 2012, Genres: []int{28, 12}})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(movies))
	}
	if movies[0].Rating() != "7.7" || movies[0].Year() != 2012 {
		t.Fatalf("unexpected movie: %+v", movies[0])
	}
}

func TestDiscover_WithoutGenres(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "with_genres") {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	movies, err := newTestClient(server).Discover(context.Background(), DiscoverQuery{Year: 2013})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(movies) != 0 {
		t.Fatalf("expected no movies, got %d", len(movies))
	}
}

func TestSearch_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "star wars " {
			t.Fatalf("unexpected query param: %q", got)
		}
		if r.URL.Query().Get("page") != "3" || r.URL.Query().Get("language") != "en-US" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Fatalf("unexpected accept header: %s", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":3,"total_pages":7,"total_results":140,"results":[{"id":11,"title":"Star Wars"}]}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).Search(context.Background(), "star wars ", 3)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if page.Page != 3 || page.TotalPages != 7 {
		t.Fatalf("unexpected page counters: %+v", page)
	}
	if len(page.Results) != 1 || page.Results[0].ID != 11 {
		t.Fatalf("unexpected results: %+v", page.Results)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Search(context.Background(), "   ", 1); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_message":"The resource you requested could not be found."}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	client := NewClient(Options{
		BaseURL:    server.URL,
		APIKey:     "secret",
		HTTPClient: server.Client(),
		Logger:     hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Warn}),
	})

	_, err := client.Request(context.Background(), "/missing", nil)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(logs.String(), "endpoint not found, check base_url") {
		t.Fatalf("expected base_url warning, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), server.URL) {
		t.Fatalf("expected base_url in warning, got %q", logs.String())
	}
}

func TestMessage_Fallback(t *testing.T) {
	if got := Message(errors.New("something odd")); got != "An error occurred" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := Message(nil); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
}
