package expiry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

func TestRegistry_ForUser(t *testing.T) {
	reg := NewRegistry(NewMemoryStore())

	a := reg.ForUser(1)
	assert.Same(t, a, reg.ForUser(1))
	assert.Same(t, a, reg.For("expiry_learning:1"))
	assert.NotSame(t, a, reg.ForUser(2))
	assert.Equal(t, "expiry_learning:2", reg.ForUser(2).Key())
}

func TestRegistry_Forget(t *testing.T) {
	reg := NewRegistry(NewMemoryStore())

	a := reg.ForUser(1)
	reg.Forget(1)
	assert.NotSame(t, a, reg.ForUser(1))
}

func TestRegistry_IsolatesUsers(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore())
	d0 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	reg.ForUser(1).RecordAdjustment(ctx, "mjölk", d0, d0.AddDate(0, 0, 3), "mejeri", "")

	assert.Equal(t, 1, reg.ForUser(1).Statistics(ctx).TotalAdjustments)
	assert.Equal(t, 0, reg.ForUser(2).Statistics(ctx).TotalAdjustments)
}

func TestRegistry_ConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore())
	d0 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.ForUser(3).RecordAdjustment(ctx, "bröd", d0, d0.AddDate(0, 0, 1), "bröd", "")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, reg.ForUser(3).Statistics(ctx).TotalAdjustments)
}

func TestRegistry_CleanupAll(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	mem := NewMemoryStore()
	reg := NewRegistry(mem, WithClock(clock.Now))
	d0 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	reg.ForUser(1).RecordAdjustment(ctx, "ost", d0, d0.AddDate(0, 0, 3), "mejeri", "")
	reg.ForUser(2).RecordAdjustment(ctx, "lax", d0, d0.AddDate(0, 0, 3), "fisk", "")
	clock.Advance(120 * 24 * time.Hour)
	reg.ForUser(2).RecordAdjustment(ctx, "torsk", d0, d0.AddDate(0, 0, 1), "fisk", "")

	visited, err := reg.CleanupAll(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 2, visited)

	assert.Equal(t, 0, reg.ForUser(1).Statistics(ctx).TotalAdjustments)
	assert.Equal(t, 1, reg.ForUser(2).Statistics(ctx).TotalAdjustments)
}

func TestRegistry_CleanupAllWithoutLister(t *testing.T) {
	reg := NewRegistry(&failingStore{})

	visited, err := reg.CleanupAll(context.Background(), 90)
	require.NoError(t, err)
	assert.Zero(t, visited)
}

// cancelOnLoad cancels the sweep as soon as the first store is read
type cancelOnLoad struct {
	*MemoryStore
	cancel context.CancelFunc
}

func (s *cancelOnLoad) Load(ctx context.Context, key string) (*models.LearningStore, error) {
	s.cancel()
	return s.MemoryStore.Load(ctx, key)
}

func TestRegistry_CleanupAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := NewMemoryStore()
	seed := NewRegistry(mem)
	d0 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	for _, id := range []int{1, 2, 3} {
		seed.ForUser(id).RecordAdjustment(context.Background(), "ost", d0, d0.AddDate(0, 0, 1), "mejeri", "")
	}

	reg := NewRegistry(&cancelOnLoad{MemoryStore: mem, cancel: cancel})
	visited, err := reg.CleanupAll(ctx, 90)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, visited)
}
