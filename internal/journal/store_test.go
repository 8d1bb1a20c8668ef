package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/moodjournal/moodjournal/internal/platform/httpx"
	"github.com/moodjournal/moodjournal/internal/platform/kv"
	"github.com/moodjournal/moodjournal/internal/weather"
)

var testNow = time.Date(2024, 4, 5, 9, 0, 0, 0, time.Local)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type flakyKV struct {
	kv.Store
	failSet bool
	sets    int
}

func (f *flakyKV) Set(ctx context.Context, key string, value any) error {
	f.sets++
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func persisted(t *testing.T, backend kv.Store) []Entry {
	t.Helper()
	var out []Entry
	_, err := backend.Get(context.Background(), EntriesKey, &out)
	require.NoError(t, err)
	return out
}

func newRedisBackend(t *testing.T) kv.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return kv.NewRedis(client, "journal")
}

func TestStoreStartsEmptyWhenKeyAbsent(t *testing.T) {
	store, err := NewStore(context.Background(), kv.NewMemory())
	require.NoError(t, err)
	require.Empty(t, store.List())
	require.Zero(t, store.Len())
}

func TestStoreAddAssignsIncreasingIDsWithinOneMillisecond(t *testing.T) {
	backend := newRedisBackend(t)
	store, err := NewStore(context.Background(), backend, WithClock(fixedClock(testNow)))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := store.Add(ctx, Draft{Date: "2024-04-05", Mood: MoodHappy})
	require.NoError(t, err)
	second, err := store.Add(ctx, Draft{Date: "2024-04-05", Mood: MoodSad})
	require.NoError(t, err)
	third, err := store.Add(ctx, Draft{Date: "2024-04-01", Mood: MoodAngry})
	require.NoError(t, err)

	require.Equal(t, testNow.UnixMilli(), first.ID)
	require.Greater(t, second.ID, first.ID)
	require.Greater(t, third.ID, second.ID)

	list := store.List()
	require.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})
	require.Equal(t, list, persisted(t, backend))
}

func TestStoreIDsStayAboveLoadedMaximum(t *testing.T) {
	backend := kv.NewMemory()
	future := testNow.Add(time.Hour).UnixMilli()
	require.NoError(t, backend.Set(context.Background(), EntriesKey, []Entry{
		{ID: 10, Date: "2024-04-01", Mood: MoodNeutral},
		{ID: future, Date: "2024-04-02", Mood: MoodHappy},
	}))

	store, err := NewStore(context.Background(), backend, WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	require.Equal(t, future, store.List()[0].ID)

	entry, err := store.Add(context.Background(), Draft{Date: "2024-04-05", Mood: MoodContent})
	require.NoError(t, err)
	require.Equal(t, future+1, entry.ID)
}

func TestStoreDelete(t *testing.T) {
	backend := &flakyKV{Store: kv.NewMemory()}
	store, err := NewStore(context.Background(), backend, WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	ctx := context.Background()

	a, err := store.Add(ctx, Draft{Date: "2024-04-05", Mood: MoodHappy})
	require.NoError(t, err)
	b, err := store.Add(ctx, Draft{Date: "2024-04-04", Mood: MoodSad})
	require.NoError(t, err)

	setsBefore := backend.sets
	removed, err := store.Delete(ctx, 42)
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, setsBefore, backend.sets, "deleting an absent id must not write")
	require.Len(t, store.List(), 2)

	removed, err = store.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, removed)
	list := store.List()
	require.Len(t, list, 1)
	require.Equal(t, b.ID, list[0].ID)
	require.Equal(t, list, persisted(t, backend))
}

func TestStoreRollsBackWhenPersistFails(t *testing.T) {
	backend := &flakyKV{Store: kv.NewMemory()}
	store, err := NewStore(context.Background(), backend, WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	ctx := context.Background()

	kept, err := store.Add(ctx, Draft{Date: "2024-04-05", Mood: MoodHappy})
	require.NoError(t, err)

	backend.failSet = true
	_, err = store.Add(ctx, Draft{Date: "2024-04-05", Mood: MoodSad})
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, httpx.ErrUnavailable)
	require.Len(t, store.List(), 1)

	removed, err := store.Delete(ctx, kept.ID)
	require.ErrorIs(t, err, ErrStorage)
	require.False(t, removed)
	require.Len(t, store.List(), 1)

	require.Equal(t, store.List(), persisted(t, backend))
}

func TestStoreFailsFastOnCorruptPayload(t *testing.T) {
	backend := kv.NewMemory()
	backend.Raw(EntriesKey, []byte(`{"broken":`))

	_, err := NewStore(context.Background(), backend)
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, kv.ErrCodec)
}

func TestStoreDropsWeatherOnBackdatedEntries(t *testing.T) {
	store, err := NewStore(context.Background(), kv.NewMemory(), WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	snap := &weather.Snapshot{Temp: 20, Description: "clear sky", LocationName: "Hyderabad"}

	backdated, err := store.Add(context.Background(), Draft{Date: "2024-04-01", Mood: MoodHappy, Weather: snap})
	require.NoError(t, err)
	require.Nil(t, backdated.Weather)

	today, err := store.Add(context.Background(), Draft{Date: "2024-04-05", Mood: MoodHappy, Weather: snap})
	require.NoError(t, err)
	require.NotNil(t, today.Weather)
	require.Equal(t, "Hyderabad", today.Weather.LocationName)

	got, ok := store.SnapshotFor("2024-04-05")
	require.True(t, ok)
	require.Equal(t, 20.0, got.Temp)
	_, ok = store.SnapshotFor("2024-04-01")
	require.False(t, ok)
}

func TestStoreFilterPreservesOrder(t *testing.T) {
	store, err := NewStore(context.Background(), kv.NewMemory(), WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	ctx := context.Background()
	for _, m := range []Mood{MoodHappy, MoodSad, MoodHappy, MoodAngry, MoodHappy} {
		_, err := store.Add(ctx, Draft{Date: "2024-04-05", Mood: m})
		require.NoError(t, err)
	}

	all := store.List()
	happy := store.ByMood(MoodHappy)
	require.Len(t, happy, 3)
	for i := 1; i < len(happy); i++ {
		require.Greater(t, happy[i-1].ID, happy[i].ID)
	}
	for _, e := range happy {
		require.Contains(t, all, e)
	}
	require.Len(t, store.ByMood(""), 5)
	require.Empty(t, store.ByMood(MoodContent))

	negative := store.Filter(func(m Mood) bool { return m.Rank() <= 2 })
	require.Len(t, negative, 2)
}

func TestStoreListReturnsCopies(t *testing.T) {
	store, err := NewStore(context.Background(), kv.NewMemory(), WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	_, err = store.Add(context.Background(), Draft{Date: "2024-04-05", Mood: MoodHappy, Weather: &weather.Snapshot{Temp: 1}})
	require.NoError(t, err)

	list := store.List()
	list[0].Mood = MoodAngry
	list[0].Weather.Temp = 99

	again := store.List()
	require.Equal(t, MoodHappy, again[0].Mood)
	require.Equal(t, 1.0, again[0].Weather.Temp)
}

func TestStorePersistsAcrossReload(t *testing.T) {
	backend := newRedisBackend(t)
	ctx := context.Background()
	store, err := NewStore(ctx, backend, WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	_, err = store.Add(ctx, Draft{Date: "2024-04-05", Mood: MoodContent, Note: "walk, then tea"})
	require.NoError(t, err)

	reloaded, err := NewStore(ctx, backend)
	require.NoError(t, err)
	require.Equal(t, store.List(), reloaded.List())
}
