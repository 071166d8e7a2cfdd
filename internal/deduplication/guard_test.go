package deduplication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpdf/internal/config"
	"leadpdf/internal/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingRepository struct{}

func (failingRepository) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingRepository) DeleteIfValue(context.Context, string, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingRepository) GetCacheSize(context.Context, string) (int, error) {
	return 0, errors.New("store unavailable")
}

func createTestDeduplicationConfig() config.DeduplicationConfig {
	return config.DeduplicationConfig{
		HashAlgorithm: "sha256",
		BucketWidth:   time.Minute,
		TTLMultiplier: 2,
		SweepInterval: time.Second,
	}
}

func newTestGuard(clock Clock) (*Guard, *MemoryRepository) {
	repo := NewMemoryRepository(clock)
	return NewGuard(repo, clock, createTestDeduplicationConfig(), logger.NopLogger()), repo
}

func suppressed(g *Guard, email string) bool {
	_, s := g.ShouldSuppress(context.Background(), email)
	return s
}

func TestGuard_ShouldSuppress_SameBucket(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 5, 0, time.UTC))
	guard, _ := newTestGuard(clock)

	assert.False(t, suppressed(guard, "a@b.c"))

	clock.Advance(20 * time.Second)
	assert.True(t, suppressed(guard, "a@b.c"))
}

func TestGuard_ShouldSuppress_DifferentEmails(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 5, 0, time.UTC))
	guard, _ := newTestGuard(clock)

	assert.False(t, suppressed(guard, "a@b.c"))
	assert.False(t, suppressed(guard, "x@y.z"))
}

func TestGuard_ShouldSuppress_NextBucketProceeds(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 59, 999_000_000, time.UTC))
	guard, _ := newTestGuard(clock)

	assert.False(t, suppressed(guard, "a@b.c"))

	clock.Advance(time.Millisecond)
	assert.False(t, suppressed(guard, "a@b.c"), "adjacent bucket is not deduplicated")
	assert.True(t, suppressed(guard, "a@b.c"))
}

func TestGuard_ShouldSuppress_AfterWindow(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC))
	guard, repo := newTestGuard(clock)
	ctx := context.Background()

	assert.False(t, suppressed(guard, "a@b.c"))

	clock.Advance(3 * time.Minute)
	assert.False(t, suppressed(guard, "a@b.c"))

	size, err := repo.GetCacheSize(ctx, "dedup:")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestGuard_Release(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC))
	guard, _ := newTestGuard(clock)
	ctx := context.Background()

	adm, dup := guard.ShouldSuppress(ctx, "a@b.c")
	require.False(t, dup)
	require.True(t, adm.Admitted())

	guard.Release(ctx, adm)
	assert.False(t, suppressed(guard, "a@b.c"))
	assert.True(t, suppressed(guard, "a@b.c"))
}

func TestGuard_Release_AcrossBucketBoundary(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 55, 0, time.UTC))
	guard, _ := newTestGuard(clock)
	ctx := context.Background()

	first, dup := guard.ShouldSuppress(ctx, "a@b.c")
	require.False(t, dup)

	clock.Advance(7 * time.Second)
	second, dup := guard.ShouldSuppress(ctx, "a@b.c")
	require.False(t, dup, "next bucket is admitted")

	clock.Advance(3 * time.Second)
	guard.Release(ctx, first)

	assert.True(t, suppressed(guard, "a@b.c"), "releasing an earlier bucket keeps the current key")
	assert.True(t, second.Admitted())
}

func TestGuard_Release_Twice(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC))
	guard, _ := newTestGuard(clock)
	ctx := context.Background()

	first, _ := guard.ShouldSuppress(ctx, "a@b.c")
	guard.Release(ctx, first)

	second, dup := guard.ShouldSuppress(ctx, "a@b.c")
	require.False(t, dup)
	require.True(t, second.Admitted())

	guard.Release(ctx, first)
	assert.True(t, suppressed(guard, "a@b.c"), "an earlier admission cannot remove a newer entry")
}

func TestGuard_Release_ZeroAdmission(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC))
	guard, _ := newTestGuard(clock)
	ctx := context.Background()

	require.False(t, suppressed(guard, "a@b.c"))

	adm, dup := guard.ShouldSuppress(ctx, "a@b.c")
	require.True(t, dup)
	assert.False(t, adm.Admitted())

	guard.Release(ctx, adm)
	assert.True(t, suppressed(guard, "a@b.c"))
}

func TestGuard_ShouldSuppress_FailsOpen(t *testing.T) {
	guard := NewGuard(failingRepository{}, SystemClock(), createTestDeduplicationConfig(), logger.NopLogger())

	assert.False(t, suppressed(guard, "a@b.c"))
	assert.False(t, suppressed(guard, "a@b.c"))
}

func TestGuard_ShouldSuppress_Concurrent(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC))
	guard, _ := newTestGuard(clock)

	const n = 50
	var proceeded atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if !suppressed(guard, "same@b.c") {
				proceeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), proceeded.Load())
}

func TestGuard_RunJanitor_StopsOnCancel(t *testing.T) {
	guard, _ := newTestGuard(SystemClock())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- guard.RunJanitor(ctx, 10*time.Millisecond)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
