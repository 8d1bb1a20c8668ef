package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/internal/platform/kv"
	"github.com/moodjournal/moodjournal/internal/weather"
)

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used for ids and the current day.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the canonical entry collection and the only writer of EntriesKey.
// Every mutation rewrites the whole collection; memory changes only after the
// write succeeds.
type Store struct {
	mu      sync.Mutex
	kv      kv.Store
	entries []Entry
	lastID  int64
	now     func() time.Time
}

// NewStore loads the persisted collection. An undecodable payload fails with ErrStorage.
func NewStore(ctx context.Context, backend kv.Store, opts ...StoreOption) (*Store, error) {
	s := &Store{kv: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	var entries []Entry
	if _, err := s.kv.Get(ctx, EntriesKey, &entries); err != nil {
		return fmt.Errorf("%w: load entries: %w", ErrStorage, err)
	}
	sortByID(entries)
	s.entries = entries
	if len(entries) > 0 {
		s.lastID = entries[0].ID
	}
	return nil
}

// Today returns the current day key on the store clock.
func (s *Store) Today() string {
	return dates.TodayKey(s.now())
}

// Add assigns an id, inserts the entry and persists the collection. Weather is
// kept only when the draft is dated today.
func (s *Store) Add(ctx context.Context, draft Draft) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:   s.nextID(),
		Date: draft.Date,
		Mood: draft.Mood,
		Note: draft.Note,
	}
	if draft.Weather != nil && draft.Date == dates.TodayKey(s.now()) {
		entry.Weather = cloneSnapshot(draft.Weather)
	}

	next := make([]Entry, 0, len(s.entries)+1)
	next = append(next, s.entries...)
	next = append(next, entry)
	sortByID(next)

	if err := s.persist(ctx, next); err != nil {
		return Entry{}, err
	}
	s.entries = next
	return entry.clone(), nil
}

// Delete removes the entry with id. It reports false, without touching storage,
// when no entry matches.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := make([]Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	next = append(next, s.entries[idx+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.entries = next
	return true, nil
}

// List returns all entries, newest id first.
func (s *Store) List() []Entry {
	return s.Filter(nil)
}

// Filter returns entries whose mood satisfies pred, preserving id order. A nil
// predicate matches everything.
func (s *Store) Filter(pred func(Mood) bool) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if pred == nil || pred(e.Mood) {
			out = append(out, e.clone())
		}
	}
	return out
}

// ByMood filters on a single mood. An empty mood returns every entry.
func (s *Store) ByMood(m Mood) []Entry {
	if m == "" {
		return s.List()
	}
	return s.Filter(func(candidate Mood) bool { return candidate == m })
}

// SnapshotFor returns the weather of the most recent entry on date that has one.
func (s *Store) SnapshotFor(date string) (*weather.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Date == date && e.Weather != nil {
			return cloneSnapshot(e.Weather), true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// nextID returns a millisecond timestamp, bumped past the last issued id when
// the clock has not advanced.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) persist(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	if err := s.kv.Set(ctx, EntriesKey, entries); err != nil {
		return fmt.Errorf("%w: save entries: %w", ErrStorage, err)
	}
	return nil
}

func sortByID(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ID > entries[j].ID
	})
}
