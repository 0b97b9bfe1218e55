package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultUserAgent    = "Mozilla/5.0"
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 5 * 1024 * 1024
)

// ErrStatus is wrapped by GetPage for non-2xx responses.
var ErrStatus = errors.New("unexpected status code")

type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Logger       *slog.Logger
}

// Page is a fetched response body with the metadata needed to decode it.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher issues a single GET per call. There are no retries.
type Fetcher struct {
	client  *resty.Client
	maxBody int64
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	instrument(client, opts.Logger)

	return &Fetcher{
		client:  client,
		maxBody: opts.MaxBodyBytes,
	}
}

// GetPage fetches rawURL. Bodies larger than the configured cap are truncated.
func (f *Fetcher) GetPage(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch HTML: %w: %d", ErrStatus, resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        data,
	}, nil
}
