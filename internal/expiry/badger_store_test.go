package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()
	bs := openTestBadger(t)

	_, err := bs.Load(ctx, "expiry_learning:1")
	assert.ErrorIs(t, err, ErrStoreNotFound)

	ls := models.NewLearningStore()
	ls.Version = models.LearningStoreVersion
	ls.ProductAdjustments["smör"] = []models.ProductAdjustment{{
		DaysDifference: 4,
		Date:           time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}}

	require.NoError(t, bs.Save(ctx, "expiry_learning:1", ls))
	require.NoError(t, bs.Save(ctx, "expiry_learning:2", models.NewLearningStore()))

	loaded, err := bs.Load(ctx, "expiry_learning:1")
	require.NoError(t, err)
	assert.Equal(t, ls, loaded)

	keys, err := bs.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"expiry_learning:1", "expiry_learning:2"}, keys)

	require.NoError(t, bs.Delete(ctx, "expiry_learning:1"))
	require.NoError(t, bs.Delete(ctx, "expiry_learning:1"))
	_, err = bs.Load(ctx, "expiry_learning:1")
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestBadgerStore_BacksService(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	bs := openTestBadger(t)
	d0 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	svc := New(bs, "expiry_learning:7", WithClock(clock.Now))
	svc.RecordAdjustment(ctx, "Grädde", d0, d0.AddDate(0, 0, 2), "mejeri", "")

	reopened := New(bs, "expiry_learning:7", WithClock(clock.Now))
	got := reopened.CalculateSmartExpiryDate(ctx, "grädde", nil, &d0)
	assert.Equal(t, models.MethodLearned, got.Method)
	assert.Equal(t, 1, got.Adjustments)
}
