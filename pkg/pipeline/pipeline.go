// Package pipeline turns a product URL into a ranked word frequency list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RCarmona53/amazon-word-cloud/internal/common"
	"github.com/RCarmona53/amazon-word-cloud/models"
	"github.com/RCarmona53/amazon-word-cloud/pkg/analytics"
	"github.com/RCarmona53/amazon-word-cloud/pkg/caching"
	"github.com/RCarmona53/amazon-word-cloud/pkg/extractor"
	"github.com/RCarmona53/amazon-word-cloud/pkg/mapreduce"
)

var (
	ErrInvalidInput     = errors.New("invalid or empty URL")
	ErrDuplicateRequest = errors.New("request for this URL is already being processed")
	ErrNoDescription    = errors.New("no description for this product")
)

// NoDescriptionError carries why the description could not be read.
// It matches ErrNoDescription with errors.Is.
type NoDescriptionError struct {
	Reason string
	Err    error
}

func (e *NoDescriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", ErrNoDescription, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrNoDescription, e.Reason)
}

func (e *NoDescriptionError) Is(target error) bool { return target == ErrNoDescription }
func (e *NoDescriptionError) Unwrap() error        { return e.Err }

type Describer interface {
	Describe(ctx context.Context, rawURL string) extractor.Description
}

type Cache interface {
	Lookup(ctx context.Context, url string) caching.Lookup
	Store(ctx context.Context, url string, list models.RankedList)
	Release(ctx context.Context, url string)
}

type Recorder interface {
	RecordAccess(ctx context.Context, access models.Access) error
}

type Sink interface {
	Write(list models.RankedList) error
}

type Detector interface {
	Detect(text string) (string, bool)
}

// Options wires the collaborators. Describer and Analytics are required;
// a nil Cache behaves as a disabled cache, the others are skipped when nil.
type Options struct {
	Describer Describer
	Analytics *analytics.Analytics
	Cache     Cache
	Recorder  Recorder
	Sink      Sink
	Detector  Detector
	// Limit caps the returned list; 0 returns every word.
	Limit  int
	Logger *slog.Logger
}

type Service struct {
	describer Describer
	analytics *analytics.Analytics
	cache     Cache
	recorder  Recorder
	sink      Sink
	detector  Detector
	limit     int
	logger    *slog.Logger
}

func New(opts Options) *Service {
	s := &Service{
		describer: opts.Describer,
		analytics: opts.Analytics,
		cache:     opts.Cache,
		recorder:  opts.Recorder,
		sink:      opts.Sink,
		detector:  opts.Detector,
		limit:     opts.Limit,
		logger:    opts.Logger,
	}
	if s.analytics == nil {
		s.analytics = analytics.New(nil)
	}
	if s.cache == nil {
		s.cache = caching.NewManager(caching.Options{Policy: caching.PolicyDisabled, Logger: opts.Logger})
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// WordFrequency validates rawURL, serves it from the cache when possible and
// otherwise fetches the product description and ranks its words.
// Nothing is cached when any step fails, and a dedup marker taken for the
// request is released so the URL can be retried.
func (s *Service) WordFrequency(ctx context.Context, rawURL string) (*models.Result, error) {
	start := time.Now()

	url, err := common.ValidateURL(rawURL)
	if err != nil {
		s.logger.Warn("Rejected request", "url", rawURL, "error_type", "invalid_input")
		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, rawURL)
	}

	lookup := s.cache.Lookup(ctx, url)
	switch lookup.State {
	case caching.Hit:
		list := s.truncate(lookup.Value)
		s.record(ctx, models.Access{URL: url, Outcome: models.OutcomeCached, WordCount: len(list)})
		s.logger.Info("Served from cache", "url", url, "words", len(list))
		return &models.Result{URL: url, WordFrequency: list, Cached: true}, nil
	case caching.InProgressConflict:
		s.record(ctx, models.Access{URL: url, Outcome: models.OutcomeDuplicate, ErrorType: "duplicate"})
		s.logger.Warn("Rejected duplicate request", "url", url, "error_type", "duplicate")
		return nil, ErrDuplicateRequest
	}

	if err := ctx.Err(); err != nil {
		s.cache.Release(context.WithoutCancel(ctx), url)
		s.record(context.WithoutCancel(ctx), models.Access{URL: url, Outcome: models.OutcomeFailed, ErrorType: "timeout"})
		s.logger.Warn("Request expired before fetching", "url", url, "error", err)
		return nil, fmt.Errorf("word frequency for %s: %w", url, err)
	}

	desc := s.describer.Describe(ctx, url)
	if !desc.OK() {
		s.cache.Release(context.WithoutCancel(ctx), url)
		s.record(ctx, models.Access{URL: url, Outcome: models.OutcomeFailed, ErrorType: desc.Reason})
		s.logger.Warn("No product description", "url", url, "error_type", desc.Reason, "error", desc.Err)
		return nil, &NoDescriptionError{Reason: desc.Reason, Err: desc.Err}
	}

	ranked := mapreduce.Rank(mapreduce.Map(s.analytics.Words(desc.Text)))
	lang := s.detectLanguage(url, desc.Text)

	s.cache.Store(ctx, url, ranked)

	list := s.truncate(ranked)
	s.record(ctx, models.Access{URL: url, Outcome: models.OutcomeComputed, WordCount: len(ranked), Language: lang})
	if s.sink != nil {
		if err := s.sink.Write(list); err != nil {
			s.logger.Warn("Failed to write result sink", "url", url, "error", err)
		}
	}

	s.logger.Info("Computed word frequency",
		"url", url,
		"words", len(ranked),
		"language", lang,
		"duration", time.Since(start).String(),
	)
	return &models.Result{URL: url, WordFrequency: list, Language: lang}, nil
}

func (s *Service) truncate(list models.RankedList) models.RankedList {
	if s.limit <= 0 {
		return list
	}
	return mapreduce.TopN(list, s.limit)
}

func (s *Service) detectLanguage(url, text string) string {
	if s.detector == nil {
		return ""
	}
	lang, ok := s.detector.Detect(text)
	if !ok {
		return ""
	}
	if want := s.analytics.Language(); want != "" && lang != want {
		s.logger.Warn("Description language differs from stopword language",
			"url", url, "language", lang, "stopwords", want)
	}
	return lang
}

func (s *Service) record(ctx context.Context, access models.Access) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordAccess(ctx, access); err != nil {
		s.logger.Warn("Failed to record history", "url", access.URL, "error", err)
	}
}
