package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	DefaultBaseURL   = "https://api.themoviedb.org/3"
	DefaultLanguage  = "en-US"
	defaultUserAgent = "movielist-cli"
	defaultTimeout   = 12 * time.Second
	errorSnippetN    = 8 << 10
	genericMessage   = "An error occurred"
)

// Params holds query parameters for Request. Nil values are omitted.
type Params map[string]any

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL    string
	APIKey     string
	Language   string
	UserAgent  string
	HTTPClient *http.Client
	Logger     hclog.Logger
}

// Client wraps HTTP access to the movie metadata API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	userAgent  string
	logger     hclog.Logger
}

// NetworkError is returned for transport failures, non-2xx responses and
// undecodable bodies. Message is meant to be shown to the user as is.
type NetworkError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "movie api error"
	}
	if e.Message == "" {
		return "movie api error"
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode == http.StatusNotFound
	}
	return false
}

// Message returns a human-readable message for err.
func Message(err error) string {
	return MessageOr(err, genericMessage)
}

// MessageOr is Message with a caller-chosen fallback for errors that carry no
// message of their own.
func MessageOr(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) && strings.TrimSpace(netErr.Message) != "" {
		return netErr.Message
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err.Error()
	}
	return fallback
}

// NewClient creates a new API client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	language := strings.TrimSpace(opts.Language)
	if language == "" {
		language = DefaultLanguage
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		language:   language,
		userAgent:  userAgent,
		logger:     logger.Named("api"),
	}
}

// Request issues a GET for path with the given query parameters and returns
// the raw JSON body.
func (c *Client) Request(ctx context.Context, path string, params Params) (json.RawMessage, error) {
	endpoint, err := c.endpoint(path, params)
	if err != nil {
		return nil, &NetworkError{Endpoint: path, Message: "invalid request", Err: err}
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, path, endpoint, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) endpoint(path string, params Params) (string, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	for key, value := range params {
		encoded, ok, err := encodeParam(value)
		if err != nil {
			return "", fmt.Errorf("param %s: %w", key, err)
		}
		if ok {
			query.Set(key, encoded)
		}
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + encodeSorted(query), nil
}

func encodeSorted(query url.Values) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, value := range query[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
		}
	}
	return b.String()
}

func encodeParam(value any) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("unsupported type %T", value)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &NetworkError{Endpoint: path, Message: "invalid request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "path", path, "error", err)
		message := "network request failed"
		if ctxErr := ctx.Err(); ctxErr != nil {
			message = ctxErr.Error()
		}
		return &NetworkError{Endpoint: path, Message: message, Err: err}
	}
	defer res.Body.Close()
	c.logger.Debug("request", "path", path, "status", res.StatusCode, "duration", time.Since(start))

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, errorSnippetN))
		err := &NetworkError{
			StatusCode: res.StatusCode,
			Endpoint:   path,
			Message:    statusMessage(snippet, res.Status),
		}
		if IsNotFound(err) {
			c.logger.Warn("endpoint not found, check base_url", "path", path, "base_url", c.baseURL)
		}
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &NetworkError{
			StatusCode: res.StatusCode,
			Endpoint:   path,
			Message:    fmt.Sprintf("invalid response from %s", path),
			Err:        err,
		}
	}
	return nil
}

// statusMessage extracts status_message from an API error body.
func statusMessage(body []byte, status string) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.StatusMessage); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed with status %s", status)
}
