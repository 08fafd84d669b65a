package draft_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/shift/draft"
	"github.com/fuelshift/fuelshift-backend/pkg/cache"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

func newStore(t *testing.T, ttl time.Duration) (*draft.Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return draft.NewStore(cache.NewFromClient(rdb, logger.Nop()), ttl, logger.Nop()), mr
}

func TestStore_SaveLoadDelete(t *testing.T) {
	store, mr := newStore(t, 72*time.Hour)
	ctx := context.Background()

	_, found, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)

	d := &draft.Draft{
		PumpID:         "pump-1",
		ShiftType:      "night",
		OpeningReading: "12045.5",
		Payments:       map[string]string{"cash": "1,200.00", "mobile_money": "300"},
		OwnUse:         []draft.OwnUseLine{{Category: "genset", FuelType: "diesel", Volume: "4"}},
	}
	require.NoError(t, store.Save(ctx, "user-1", d))
	assert.True(t, mr.Exists("fuelshift:draft:user-1"))
	assert.Equal(t, 72*time.Hour, mr.TTL("fuelshift:draft:user-1"))

	got, found, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "night", got.ShiftType)
	assert.Equal(t, "1,200.00", got.Payments["cash"])
	assert.Len(t, got.OwnUse, 1)
	assert.False(t, got.SavedAt.IsZero())

	require.NoError(t, store.Delete(ctx, "user-1"))
	_, found, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_DraftsArePerUser(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "user-1", &draft.Draft{PumpID: "pump-1"}))
	require.NoError(t, store.Save(ctx, "user-2", &draft.Draft{PumpID: "pump-2"}))

	got, _, err := store.Load(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "pump-2", got.PumpID)
}

func TestStore_Expires(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "user-1", &draft.Draft{PumpID: "pump-1"}))
	mr.FastForward(61 * time.Minute)

	_, found, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_RejectsUnknownChannel(t *testing.T) {
	store, mr := newStore(t, time.Hour)

	err := store.Save(context.Background(), "user-1", &draft.Draft{Payments: map[string]string{"bitcoin": "1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.False(t, mr.Exists("fuelshift:draft:user-1"))
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	mr.Close()

	err := store.Save(context.Background(), "user-1", &draft.Draft{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}
