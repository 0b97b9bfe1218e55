package caching

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/purell"
	jsoniter "github.com/json-iterator/go"

	"github.com/RCarmona53/amazon-word-cloud/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Policy selects how the Manager treats a key that is already present.
type Policy string

const (
	// PolicyValue serves the stored RankedList on a hit.
	PolicyValue Policy = "value"
	// PolicyDedup rejects a request while its key is marked.
	PolicyDedup Policy = "dedup"
	// PolicyDisabled recomputes every request.
	PolicyDisabled Policy = "disabled"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyValue, PolicyDedup, PolicyDisabled:
		return p, nil
	}
	return "", fmt.Errorf("unknown cache policy %q", s)
}

type State int

const (
	Miss State = iota
	Hit
	InProgressConflict
)

func (s State) String() string {
	switch s {
	case Hit:
		return "hit"
	case InProgressConflict:
		return "conflict"
	default:
		return "miss"
	}
}

// Lookup is the outcome of Manager.Lookup. Value is set only on Hit.
type Lookup struct {
	State State
	Value models.RankedList
}

const (
	DefaultTTL       = time.Hour
	DefaultMarkerTTL = 5 * time.Minute
	DefaultOpTimeout = 2 * time.Second
	DefaultKeyPrefix = "wordfreq:"
)

var doneMarker = []byte("1")

type Options struct {
	Policy    Policy
	Store     Store
	TTL       time.Duration
	MarkerTTL time.Duration
	OpTimeout time.Duration
	KeyPrefix string
	Logger    *slog.Logger
}

// Manager decides per URL whether to serve, reject or compute. Store
// failures are logged and treated as a miss, so an unreachable store
// degrades to PolicyDisabled behaviour.
type Manager struct {
	policy    Policy
	store     Store
	ttl       time.Duration
	markerTTL time.Duration
	opTimeout time.Duration
	prefix    string
	logger    *slog.Logger
}

func NewManager(opts Options) *Manager {
	if opts.Policy == "" {
		opts.Policy = PolicyValue
	}
	if opts.Store == nil {
		opts.Policy = PolicyDisabled
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MarkerTTL <= 0 {
		opts.MarkerTTL = DefaultMarkerTTL
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = DefaultOpTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Manager{
		policy:    opts.Policy,
		store:     opts.Store,
		ttl:       opts.TTL,
		markerTTL: opts.MarkerTTL,
		opTimeout: opts.OpTimeout,
		prefix:    opts.KeyPrefix,
		logger:    opts.Logger,
	}
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// keyFlags collapse spellings of the same page onto one key.
const keyFlags = purell.FlagsSafe | purell.FlagRemoveFragment | purell.FlagSortQuery

func (m *Manager) key(url string) string {
	normalized, err := purell.NormalizeURLString(url, keyFlags)
	if err != nil {
		normalized = url
	}
	return m.prefix + normalized
}

// Lookup checks url against the store.
//
// Under PolicyDedup the check and the mark are one SetNX: a successful mark
// returns Miss and the caller owns the computation until the marker expires.
func (m *Manager) Lookup(ctx context.Context, url string) Lookup {
	switch m.policy {
	case PolicyValue:
		return m.lookupValue(ctx, url)
	case PolicyDedup:
		return m.mark(ctx, url)
	default:
		return Lookup{State: Miss}
	}
}

func (m *Manager) lookupValue(ctx context.Context, url string) Lookup {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	data, found, err := m.store.Get(ctx, m.key(url))
	if err != nil {
		m.logger.Warn("Cache store unavailable, computing fresh", "url", url, "error", err)
		return Lookup{State: Miss}
	}
	if !found {
		return Lookup{State: Miss}
	}

	var list models.RankedList
	if err := json.Unmarshal(data, &list); err != nil {
		m.logger.Warn("Discarding unreadable cache entry", "url", url, "error", err)
		return Lookup{State: Miss}
	}
	return Lookup{State: Hit, Value: list}
}

func (m *Manager) mark(ctx context.Context, url string) Lookup {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	marked, err := m.store.SetNX(ctx, m.key(url), doneMarker, m.markerTTL)
	if err != nil {
		m.logger.Warn("Cache store unavailable, skipping dedup", "url", url, "error", err)
		return Lookup{State: Miss}
	}
	if !marked {
		return Lookup{State: InProgressConflict}
	}
	return Lookup{State: Miss}
}

// Release drops the PolicyDedup marker for url so a failed computation can
// be retried at once. Other policies have nothing to release.
func (m *Manager) Release(ctx context.Context, url string) {
	if m.policy != PolicyDedup {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	if err := m.store.Delete(ctx, m.key(url)); err != nil {
		m.logger.Warn("Failed to release dedup marker", "url", url, "error", err)
	}
}

// Store records list for url under PolicyValue. Entries are write-once
// within their TTL: an unexpired entry is never overwritten. Other
// policies store nothing.
func (m *Manager) Store(ctx context.Context, url string, list models.RankedList) {
	if m.policy != PolicyValue {
		return
	}

	data, err := json.Marshal(list)
	if err != nil {
		m.logger.Error("Failed to encode ranked list", "url", url, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	written, err := m.store.SetNX(ctx, m.key(url), data, m.ttl)
	if err != nil {
		m.logger.Warn("Failed to write cache entry", "url", url, "error", err)
		return
	}
	if !written {
		m.logger.Debug("Cache entry already present", "url", url)
	}
}
