package deduplication

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"leadpdf/internal/config"
	"leadpdf/internal/constants"
	"leadpdf/internal/logger"
	"leadpdf/pkg/metrics"
	"leadpdf/pkg/tracing"
)

type sweeper interface {
	Sweep() int
}

// Admission names the key a request was admitted under. The zero value is
// returned when nothing was stored and releases nothing.
type Admission struct {
	key   string
	token string
}

// Admitted reports whether a key was stored for the request.
func (a Admission) Admitted() bool {
	return a.key != ""
}

// Guard suppresses repeat sends for the same email inside one time bucket.
// A key is derived from the email and the current bucket start, so the same
// address in the next bucket always proceeds.
type Guard struct {
	repo        Repository
	hasher      *Hasher
	clock       Clock
	bucketWidth time.Duration
	ttl         time.Duration
	logger      logger.Logger
}

func NewGuard(repo Repository, clock Clock, cfg config.DeduplicationConfig, log logger.Logger) *Guard {
	if clock == nil {
		clock = SystemClock()
	}

	bucketWidth := cfg.BucketWidth
	if bucketWidth <= 0 {
		bucketWidth = constants.DefaultDedupBucketWidth
	}
	multiplier := cfg.TTLMultiplier
	if multiplier <= 0 {
		multiplier = constants.DefaultDedupTTLMultiplier
	}

	return &Guard{
		repo:        repo,
		hasher:      NewHasher(cfg.HashAlgorithm),
		clock:       clock,
		bucketWidth: bucketWidth,
		ttl:         time.Duration(multiplier) * bucketWidth,
		logger:      log,
	}
}

// ShouldSuppress reports whether email was already admitted in the current
// bucket. On a miss the key is recorded and the returned Admission identifies
// it. Repository failures fail open with a zero Admission.
func (g *Guard) ShouldSuppress(ctx context.Context, email string) (Admission, bool) {
	ctx, span := tracing.StartSpan(ctx, "deduplication.should_suppress")
	defer span.End()

	key, err := g.key(email, g.clock.Now())
	if err != nil {
		tracing.RecordError(span, err)
		g.logger.WarnwCtx(ctx, "Failed to derive dedupe key, allowing request", "error", err)
		metrics.IncDedupCheck("error")
		return Admission{}, false
	}

	token := uuid.NewString()
	stored, err := g.repo.SetNX(ctx, key, token, g.ttl)
	if err != nil {
		tracing.RecordError(span, err)
		g.logger.WarnwCtx(ctx, "Dedupe store error, allowing request", "error", err)
		metrics.IncDedupCheck("error")
		return Admission{}, false
	}

	if !stored {
		metrics.IncDedupCheck("duplicate")
		return Admission{}, true
	}

	metrics.IncDedupCheck("unique")
	return Admission{key: key, token: token}, false
}

// Release forgets the key recorded by adm, provided it still belongs to that
// admission. Callers release only when nothing was sent.
func (g *Guard) Release(ctx context.Context, adm Admission) {
	if !adm.Admitted() {
		return
	}
	if _, err := g.repo.DeleteIfValue(ctx, adm.key, adm.token); err != nil {
		g.logger.WarnwCtx(ctx, "Failed to release dedupe key", "error", err)
	}
}

// RunJanitor sweeps expired keys every interval and refreshes the cache size
// gauge until ctx is cancelled.
func (g *Guard) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = constants.DefaultDedupSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.sweep(ctx)
		}
	}
}

func (g *Guard) sweep(ctx context.Context) {
	if s, ok := g.repo.(sweeper); ok {
		if removed := s.Sweep(); removed > 0 {
			g.logger.Debugw("Swept expired dedupe keys", "removed", removed)
		}
	}

	size, err := g.repo.GetCacheSize(ctx, constants.CacheKeyPrefixDedup)
	if err != nil {
		g.logger.Warnw("Failed to read dedupe cache size", "error", err)
		return
	}
	metrics.SetDedupCacheSize(size)
}

func (g *Guard) key(email string, now time.Time) (string, error) {
	bucket := now.UTC().Truncate(g.bucketWidth)
	hash, err := g.hasher.ComputeHash(email, strconv.FormatInt(bucket.UnixNano(), 10))
	if err != nil {
		return "", err
	}
	return constants.CacheKeyPrefixDedup + hash, nil
}
