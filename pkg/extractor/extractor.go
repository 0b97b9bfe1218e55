package extractor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"github.com/RCarmona53/amazon-word-cloud/pkg/fetcher"
)

// DefaultSelector is the product description node on the pages we read.
const DefaultSelector = "#productDescription"

// Reasons a description is absent. These double as error_type values.
const (
	ReasonFetch   = "fetch_error"
	ReasonParse   = "parse_error"
	ReasonMissing = "missing_field"
	ReasonEmpty   = "empty_field"
)

// Description is either present (Reason empty) or absent with a reason.
type Description struct {
	Text   string
	Reason string
	Err    error
}

func (d Description) OK() bool {
	return d.Reason == ""
}

func present(text string) Description {
	return Description{Text: text}
}

func absent(reason string, err error) Description {
	return Description{Reason: reason, Err: err}
}

// PageFetcher is the outbound side of Describe. *fetcher.Fetcher satisfies it.
type PageFetcher interface {
	GetPage(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

type Options struct {
	Selector string
	// ReadabilityFallback uses the readability article text when the
	// selector matches nothing.
	ReadabilityFallback bool
	Logger              *slog.Logger
}

type Extractor struct {
	fetcher  PageFetcher
	selector string
	fallback bool
	logger   *slog.Logger
}

func New(f PageFetcher, opts Options) *Extractor {
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Extractor{
		fetcher:  f,
		selector: opts.Selector,
		fallback: opts.ReadabilityFallback,
		logger:   opts.Logger,
	}
}

// Describe fetches rawURL and extracts its description. It never returns an
// error or panics: every failure becomes an absent Description.
func (e *Extractor) Describe(ctx context.Context, rawURL string) (desc Description) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered while extracting description", "url", rawURL, "panic", r)
			desc = absent(ReasonParse, fmt.Errorf("panic: %v", r))
		}
	}()

	page, err := e.fetcher.GetPage(ctx, rawURL)
	if err != nil {
		e.logger.Warn("Error fetching product page", "url", rawURL, "error", err, "error_type", ReasonFetch)
		return absent(ReasonFetch, err)
	}

	desc = e.Extract(rawURL, page.Body, page.ContentType)
	if !desc.OK() {
		e.logger.Warn("No description extracted", "url", rawURL, "error", desc.Err, "error_type", desc.Reason)
	}
	return desc
}

// Extract parses raw markup and returns the trimmed text of the selector node.
func (e *Extractor) Extract(rawURL string, body []byte, contentType string) Description {
	data, err := toUTF8(body, contentType)
	if err != nil {
		return absent(ReasonParse, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return absent(ReasonParse, fmt.Errorf("failed to parse HTML: %w", err))
	}

	sel := doc.Find(e.selector).First()
	if sel.Length() == 0 {
		if e.fallback {
			return e.extractReadable(rawURL, data)
		}
		return absent(ReasonMissing, fmt.Errorf("selector %s not found", e.selector))
	}

	sel.Find("script,noscript,style").Remove()
	text := normalizeText(sel.Text())
	if text == "" {
		return absent(ReasonEmpty, fmt.Errorf("selector %s is empty", e.selector))
	}
	return present(text)
}

// extractReadable lets go-readability find the main content, then reads its text.
func (e *Extractor) extractReadable(rawURL string, data []byte) Description {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return absent(ReasonParse, err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(data), parsedURL)
	if err != nil {
		return absent(ReasonMissing, fmt.Errorf("readability fallback failed: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return absent(ReasonParse, fmt.Errorf("failed to parse readability content: %w", err))
	}

	text := normalizeText(doc.Text())
	if text == "" {
		return absent(ReasonMissing, fmt.Errorf("selector %s not found", e.selector))
	}
	e.logger.Info("Used readability fallback", "url", rawURL)
	return present(text)
}

// toUTF8 decodes body using the declared or sniffed charset.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if !utf8.Valid(body) {
			return nil, fmt.Errorf("failed to decode body: %w", err)
		}
		decoded = body
	}
	return decoded, nil
}

// normalizeText trims every line and joins the non-empty ones with a space.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), len(input)+1)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
