// Package pipeline keeps classified market snapshots current. Stored reports
// flow through aggregate, classify and rebalance; results are cached per
// request until the next change supersedes them.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agrimap/server/config"
	"agrimap/server/internal/cache"
	"agrimap/server/internal/market"
	"agrimap/server/internal/metrics"
	"agrimap/server/internal/models"
)

// ReportSource provides stored reports. *database.Database satisfies it.
type ReportSource interface {
	ListReports(ctx context.Context, filter models.ReportFilter) ([]models.PriceReport, error)
}

type Options struct {
	Debounce      time.Duration
	CacheTTL      time.Duration
	MaxDistanceKm float64
	SnapshotLimit int
	Location      *time.Location
	DefaultRange  TimeRange
}

// OptionsFromConfig maps the pipeline settings onto hub options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}
	rng, err := ParseTimeRange(cfg.Pipeline.DefaultRange)
	if err != nil {
		return Options{}, fmt.Errorf("invalid PIPELINE_DEFAULT_RANGE: %w", err)
	}
	return Options{
		Debounce:      cfg.Pipeline.Debounce,
		CacheTTL:      cfg.Pipeline.CacheTTL,
		MaxDistanceKm: cfg.Pipeline.MaxDistanceKm,
		SnapshotLimit: cfg.Pipeline.SnapshotLimit,
		Location:      loc,
		DefaultRange:  rng,
	}, nil
}

type Request struct {
	ProductID     string
	Range         TimeRange
	MaxDistanceKm float64
}

func (r Request) key() string {
	return fmt.Sprintf("%s|%s|%g", r.ProductID, r.Range, r.MaxDistanceKm)
}

// Snapshot is one computed view of the market
type Snapshot struct {
	ProductID     string                      `json:"product_id,omitempty"`
	Range         TimeRange                   `json:"range"`
	MaxDistanceKm float64                     `json:"max_distance_km"`
	Since         time.Time                   `json:"since"`
	ComputedAt    time.Time                   `json:"computed_at"`
	ReportCount   int                         `json:"report_count"`
	Clusters      []models.Cluster            `json:"clusters"`
	Pairs         []models.RecommendationPair `json:"pairs"`
	Stats         models.MarketStats          `json:"stats"`
}

type Hub struct {
	source  ReportSource
	opts    Options
	cache   *cache.Store[*Snapshot]
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	events  chan struct{}

	mu          sync.Mutex
	generation  uint64
	subscribers map[chan *Snapshot]struct{}
}

func NewHub(source ReportSource, opts Options, logger *logrus.Logger, m *metrics.Metrics) *Hub {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultRange == "" {
		opts.DefaultRange = RangeToday
	}
	if opts.MaxDistanceKm <= 0 || math.IsNaN(opts.MaxDistanceKm) {
		opts.MaxDistanceKm = market.DefaultMaxDistanceKm
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		source:      source,
		opts:        opts,
		cache:       cache.New[*Snapshot](opts.CacheTTL),
		logger:      logger,
		metrics:     m,
		now:         time.Now,
		events:      make(chan struct{}, 1),
		subscribers: make(map[chan *Snapshot]struct{}),
	}
}

// Notify signals that stored reports changed. It never blocks; events
// arriving while one is pending are coalesced.
func (h *Hub) Notify() {
	select {
	case h.events <- struct{}{}:
	default:
	}
}

// Run recomputes after each quiet period following Notify until ctx ends
func (h *Hub) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-h.events:
			if h.opts.Debounce <= 0 {
				h.recompute(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(h.opts.Debounce)
				fire = timer.C
			} else {
				timer.Reset(h.opts.Debounce)
			}
		case <-fire:
			h.recompute(ctx)
		}
	}
}

// recompute drops every cached snapshot and rebuilds the default one
func (h *Hub) recompute(ctx context.Context) {
	h.invalidate()

	start := time.Now()
	snap, err := h.Snapshot(ctx, Request{})
	if err != nil {
		h.logger.WithError(err).Error("Failed to recompute market snapshot")
		return
	}
	elapsed := time.Since(start)
	h.metrics.Recomputed(elapsed, len(snap.Clusters), len(snap.Pairs))

	h.logger.WithFields(logrus.Fields{
		"reports":  snap.ReportCount,
		"clusters": len(snap.Clusters),
		"pairs":    len(snap.Pairs),
		"duration": elapsed.String(),
	}).Info("Recomputed market snapshot")

	h.publish(snap)
}

func (h *Hub) invalidate() {
	h.mu.Lock()
	h.generation++
	h.mu.Unlock()
	h.cache.Clear()
}

// normalize fills defaults so equivalent requests share a cache entry
func (h *Hub) normalize(req Request) Request {
	if req.Range == "" {
		req.Range = h.opts.DefaultRange
	}
	if req.MaxDistanceKm <= 0 || math.IsNaN(req.MaxDistanceKm) {
		req.MaxDistanceKm = h.opts.MaxDistanceKm
	}
	return req
}

// Snapshot returns the cached view for req, computing it on a miss
func (h *Hub) Snapshot(ctx context.Context, req Request) (*Snapshot, error) {
	req = h.normalize(req)
	if _, err := ParseTimeRange(string(req.Range)); err != nil {
		return nil, err
	}

	now := h.now()
	since := req.Range.Since(now, h.opts.Location)

	// Entries are only valid while the window start they were built for holds
	key := req.key()
	if snap, ok := h.cache.Get(key); ok && snap.Since.Equal(since) {
		h.metrics.SnapshotLookup(true)
		return snap, nil
	}
	h.metrics.SnapshotLookup(false)

	h.mu.Lock()
	gen := h.generation
	h.mu.Unlock()

	// Stats count products across every report in the window, so the
	// product filter is left to Aggregate and Stats.
	reports, err := h.load(ctx, "", since)
	if err != nil {
		return nil, err
	}

	clusters, err := market.Aggregate(reports, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reports: %w", err)
	}
	clusters = market.Classify(clusters)
	stats := market.Stats(reports, req.ProductID)

	snap := &Snapshot{
		ProductID:     req.ProductID,
		Range:         req.Range,
		MaxDistanceKm: req.MaxDistanceKm,
		Since:         since,
		ComputedAt:    now,
		ReportCount:   stats.TotalEntries,
		Clusters:      clusters,
		Pairs:         market.Rebalance(clusters, req.MaxDistanceKm),
		Stats:         stats,
	}

	// A change that landed while computing makes this result stale
	h.mu.Lock()
	if gen == h.generation {
		h.cache.Set(key, snap)
	}
	h.mu.Unlock()

	return snap, nil
}

// Recommend returns personal suggestions for a user at a location
func (h *Hub) Recommend(ctx context.Context, role models.Role, at models.Location, productID string, rng TimeRange) ([]models.Recommendation, error) {
	reports, err := h.reportsFor(ctx, productID, rng)
	if err != nil {
		return nil, err
	}
	return market.Recommend(role, at, reports, productID)
}

// Heatmap returns intensity points for the reports in range
func (h *Hub) Heatmap(ctx context.Context, kind models.HeatmapKind, productID string, rng TimeRange) ([]models.HeatmapPoint, error) {
	reports, err := h.reportsFor(ctx, productID, rng)
	if err != nil {
		return nil, err
	}
	return market.Heatmap(reports, kind)
}

func (h *Hub) reportsFor(ctx context.Context, productID string, rng TimeRange) ([]models.PriceReport, error) {
	if rng == "" {
		rng = h.opts.DefaultRange
	}
	if _, err := ParseTimeRange(string(rng)); err != nil {
		return nil, err
	}
	return h.load(ctx, productID, rng.Since(h.now(), h.opts.Location))
}

func (h *Hub) load(ctx context.Context, productID string, since time.Time) ([]models.PriceReport, error) {
	reports, err := h.source.ListReports(ctx, models.ReportFilter{
		ProductID: productID,
		Since:     since,
		Limit:     h.opts.SnapshotLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	return reports, nil
}

// PurgeExpired drops cached snapshots past their TTL
func (h *Hub) PurgeExpired() int {
	return h.cache.Purge()
}

// Subscribe returns a channel receiving each recomputed default snapshot.
// Slow readers only see the latest one. Call cancel to unsubscribe.
func (h *Hub) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

func (h *Hub) publish(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
