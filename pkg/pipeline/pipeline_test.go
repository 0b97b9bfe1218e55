package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RCarmona53/amazon-word-cloud/models"
	"github.com/RCarmona53/amazon-word-cloud/pkg/analytics"
	"github.com/RCarmona53/amazon-word-cloud/pkg/caching"
	"github.com/RCarmona53/amazon-word-cloud/pkg/extractor"
	"github.com/RCarmona53/amazon-word-cloud/pkg/fetcher"
	"github.com/RCarmona53/amazon-word-cloud/pkg/storage"
	"github.com/RCarmona53/amazon-word-cloud/pkg/stopwords"
)

const productURL = "https://www.amazon.com/dp/B0TEST"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubDescriber struct {
	mu    sync.Mutex
	desc  extractor.Description
	calls int
}

func (s *stubDescriber) Describe(context.Context, string) extractor.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.desc
}

func (s *stubDescriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memoryRecorder struct {
	mu       sync.Mutex
	accesses []models.Access
	err      error
}

func (r *memoryRecorder) RecordAccess(_ context.Context, a models.Access) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accesses = append(r.accesses, a)
	return r.err
}

type memorySink struct {
	lists []models.RankedList
	err   error
}

func (s *memorySink) Write(list models.RankedList) error {
	s.lists = append(s.lists, list)
	return s.err
}

type fixedDetector string

func (d fixedDetector) Detect(string) (string, bool) { return string(d), d != "" }

func described(text string) *stubDescriber {
	return &stubDescriber{desc: extractor.Description{Text: text}}
}

func newService(d Describer, policy caching.Policy, opts Options) *Service {
	opts.Describer = d
	if opts.Analytics == nil {
		opts.Analytics = analytics.New(stopwords.New("is", "a"))
	}
	if opts.Cache == nil {
		opts.Cache = caching.NewManager(caching.Options{
			Policy: policy,
			Store:  caching.NewMemoryStore(100, 0),
			Logger: quiet,
		})
	}
	opts.Logger = quiet
	return New(opts)
}

func TestWordFrequency_Computes(t *testing.T) {
	d := described("This is a test description.")
	svc := newService(d, caching.PolicyValue, Options{})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)

	assert.Equal(t, productURL, res.URL)
	assert.False(t, res.Cached)
	assert.Equal(t, models.RankedList{
		{Word: "description", Count: 1},
		{Word: "test", Count: 1},
		{Word: "this", Count: 1},
	}, res.WordFrequency)
}

func TestWordFrequency_RankingOrder(t *testing.T) {
	d := described("Soft soft SOFT cotton, cotton sheets!")
	svc := newService(d, caching.PolicyValue, Options{})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
	assert.Equal(t, models.RankedList{
		{Word: "soft", Count: 3},
		{Word: "cotton", Count: 2},
		{Word: "sheets", Count: 1},
	}, res.WordFrequency)
}

func TestWordFrequency_OnlyStopwords(t *testing.T) {
	d := described("is a is a")
	svc := newService(d, caching.PolicyValue, Options{})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
	assert.NotNil(t, res.WordFrequency)
	assert.Empty(t, res.WordFrequency)
}

func TestWordFrequency_InvalidInput(t *testing.T) {
	d := described("unused")
	rec := &memoryRecorder{}
	svc := newService(d, caching.PolicyValue, Options{Recorder: rec})

	for _, raw := range []string{"", "   ", "not a url", "ftp://example.com/x"} {
		_, err := svc.WordFrequency(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
	assert.Zero(t, d.Calls(), "no fetch for invalid input")
	assert.Empty(t, rec.accesses)
}

func TestWordFrequency_NoDescriptionIsNotCached(t *testing.T) {
	d := &stubDescriber{desc: extractor.Description{Reason: extractor.ReasonMissing}}
	store := caching.NewMemoryStore(100, 0)
	cache := caching.NewManager(caching.Options{Store: store, Logger: quiet})
	rec := &memoryRecorder{}
	sink := &memorySink{}
	svc := newService(d, caching.PolicyValue, Options{Cache: cache, Recorder: rec, Sink: sink})

	_, err := svc.WordFrequency(context.Background(), productURL)
	require.ErrorIs(t, err, ErrNoDescription)

	var nd *NoDescriptionError
	require.True(t, errors.As(err, &nd))
	assert.Equal(t, extractor.ReasonMissing, nd.Reason)

	exists, err := store.Exists(context.Background(), productURL)
	require.NoError(t, err)
	assert.False(t, exists, "failure must not be cached")
	assert.Empty(t, sink.lists)

	require.Len(t, rec.accesses, 1)
	assert.Equal(t, models.OutcomeFailed, rec.accesses[0].Outcome)
	assert.Equal(t, extractor.ReasonMissing, rec.accesses[0].ErrorType)

	// the next request tries again
	_, err = svc.WordFrequency(context.Background(), productURL)
	assert.ErrorIs(t, err, ErrNoDescription)
	assert.Equal(t, 2, d.Calls())
}

func TestWordFrequency_FetchErrorWrapped(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	d := &stubDescriber{desc: extractor.Description{Reason: extractor.ReasonFetch, Err: cause}}
	svc := newService(d, caching.PolicyValue, Options{})

	_, err := svc.WordFrequency(context.Background(), productURL)
	assert.ErrorIs(t, err, ErrNoDescription)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch_error")
}

func TestWordFrequency_ValueCacheHit(t *testing.T) {
	d := described("This is a test description.")
	rec := &memoryRecorder{}
	svc := newService(d, caching.PolicyValue, Options{Recorder: rec})

	first, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)

	second, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Calls(), "hit must not fetch")
	assert.True(t, second.Cached)
	assert.Equal(t, first.WordFrequency, second.WordFrequency)

	require.Len(t, rec.accesses, 2)
	assert.Equal(t, models.OutcomeComputed, rec.accesses[0].Outcome)
	assert.Equal(t, models.OutcomeCached, rec.accesses[1].Outcome)
}

func TestWordFrequency_PreSeededCache(t *testing.T) {
	ctx := context.Background()
	cache := caching.NewManager(caching.Options{Store: caching.NewMemoryStore(100, 0), Logger: quiet})
	seeded := models.RankedList{{Word: "cached", Count: 7}}
	cache.Store(ctx, productURL, seeded)

	d := described("fresh words here")
	svc := newService(d, caching.PolicyValue, Options{Cache: cache})

	res, err := svc.WordFrequency(ctx, productURL)
	require.NoError(t, err)
	assert.Equal(t, seeded, res.WordFrequency)
	assert.Zero(t, d.Calls())
}

func TestWordFrequency_DedupConflict(t *testing.T) {
	d := described("This is a test description.")
	rec := &memoryRecorder{}
	svc := newService(d, caching.PolicyDedup, Options{Recorder: rec})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
	assert.Len(t, res.WordFrequency, 3)

	_, err = svc.WordFrequency(context.Background(), productURL)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Equal(t, 1, d.Calls())

	require.Len(t, rec.accesses, 2)
	assert.Equal(t, models.OutcomeDuplicate, rec.accesses[1].Outcome)
}

func TestWordFrequency_DedupRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	d := &stubDescriber{desc: extractor.Description{Reason: extractor.ReasonFetch, Err: errors.New("connection reset")}}
	svc := newService(d, caching.PolicyDedup, Options{})

	_, err := svc.WordFrequency(ctx, productURL)
	require.ErrorIs(t, err, ErrNoDescription)

	d.mu.Lock()
	d.desc = extractor.Description{Text: "This is a test description."}
	d.mu.Unlock()

	res, err := svc.WordFrequency(ctx, productURL)
	require.NoError(t, err, "failed request must not block the retry")
	assert.Len(t, res.WordFrequency, 3)
	assert.Equal(t, 2, d.Calls())

	_, err = svc.WordFrequency(ctx, productURL)
	assert.ErrorIs(t, err, ErrDuplicateRequest, "successful request keeps its marker")
}

func TestWordFrequency_ExpiredContext(t *testing.T) {
	d := described("This is a test description.")
	rec := &memoryRecorder{}
	svc := newService(d, caching.PolicyDedup, Options{Recorder: rec})

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	_, err := svc.WordFrequency(ctx, productURL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrNoDescription)
	assert.Zero(t, d.Calls())

	require.Len(t, rec.accesses, 1)
	assert.Equal(t, models.OutcomeFailed, rec.accesses[0].Outcome)
	assert.Equal(t, "timeout", rec.accesses[0].ErrorType)

	// marker was released
	_, err = svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
}

func TestWordFrequency_DedupConcurrent(t *testing.T) {
	d := described("This is a test description.")
	svc := newService(d, caching.PolicyDedup, Options{})

	const requests = 16
	errs := make([]error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.WordFrequency(context.Background(), productURL)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, d.Calls())
}

func TestWordFrequency_Disabled(t *testing.T) {
	d := described("This is a test description.")
	svc := newService(d, caching.PolicyDisabled, Options{})

	for i := 0; i < 3; i++ {
		res, err := svc.WordFrequency(context.Background(), productURL)
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}
	assert.Equal(t, 3, d.Calls())
}

func TestWordFrequency_LimitAndSink(t *testing.T) {
	d := described("alpha alpha alpha beta beta gamma")
	sink := &memorySink{}
	cache := caching.NewManager(caching.Options{Store: caching.NewMemoryStore(100, 0), Logger: quiet})
	svc := newService(d, caching.PolicyValue, Options{Cache: cache, Sink: sink, Limit: 2})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
	want := models.RankedList{{Word: "alpha", Count: 3}, {Word: "beta", Count: 2}}
	assert.Equal(t, want, res.WordFrequency)
	require.Len(t, sink.lists, 1)
	assert.Equal(t, want, sink.lists[0])

	// the cache keeps the full list
	hit := cache.Lookup(context.Background(), productURL)
	require.Equal(t, caching.Hit, hit.State)
	assert.Len(t, hit.Value, 3)
}

func TestWordFrequency_SideEffectFailuresAreSoft(t *testing.T) {
	d := described("This is a test description.")
	rec := &memoryRecorder{err: errors.New("database is locked")}
	sink := &memorySink{err: errors.New("disk full")}
	svc := newService(d, caching.PolicyValue, Options{Recorder: rec, Sink: sink})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
	assert.Len(t, res.WordFrequency, 3)
}

func TestWordFrequency_Language(t *testing.T) {
	d := described("Esta tetera hierve el agua")
	rec := &memoryRecorder{}
	svc := newService(d, caching.PolicyValue, Options{
		Analytics: analytics.New(stopwords.English()),
		Detector:  fixedDetector("es"),
		Recorder:  rec,
	})

	res, err := svc.WordFrequency(context.Background(), productURL)
	require.NoError(t, err)
	assert.Equal(t, "es", res.Language)
	assert.Equal(t, "es", rec.accesses[0].Language)
}

func TestWordFrequency_EndToEnd(t *testing.T) {
	var hits int
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body><div id="productDescription"><p>This is a test description.</p></div></body></html>`)
	}))
	defer ts.Close()

	sinkPath := filepath.Join(t.TempDir(), "word_frequency.txt")
	f := fetcher.NewFetcher(fetcher.Options{UserAgent: "Mozilla/5.0", Logger: quiet})
	svc := newService(extractor.New(f, extractor.Options{Logger: quiet}), caching.PolicyValue, Options{
		Sink: storage.NewSink(sinkPath),
	})

	res, err := svc.WordFrequency(context.Background(), ts.URL+"/dp/B0TEST")
	require.NoError(t, err)
	assert.Equal(t, models.RankedList{
		{Word: "description", Count: 1},
		{Word: "test", Count: 1},
		{Word: "this", Count: 1},
	}, res.WordFrequency)

	data, err := os.ReadFile(sinkPath)
	require.NoError(t, err)
	assert.Equal(t, "description:1\ntest:1\nthis:1\n", string(data))

	_, err = svc.WordFrequency(context.Background(), ts.URL+"/dp/B0TEST")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
}
