package journal

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/moodjournal/moodjournal/internal/weather"
)

// Weather lookup outcomes reported to the Observer.
const (
	WeatherReused   = "reused"
	WeatherFetched  = "fetched"
	WeatherFailed   = "failed"
	WeatherFallback = "fallback"
)

// WeatherFetcher retrieves current conditions for coordinates.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (weather.Snapshot, error)
}

// Observer receives domain events, typically for metrics.
type Observer interface {
	EntryRecorded(mood string)
	WeatherLookup(outcome string)
}

type noopObserver struct{}

func (noopObserver) EntryRecorded(string) {}
func (noopObserver) WeatherLookup(string) {}

// ServiceConfig tunes weather resolution.
type ServiceConfig struct {
	Fallback       weather.Location
	WeatherTimeout time.Duration
}

// Service records entries and resolves the weather attached to them.
type Service struct {
	store    *Store
	fetcher  WeatherFetcher
	cfg      ServiceConfig
	logger   *slog.Logger
	observer Observer
	lookups  singleflight.Group
}

// NewService wires the journal service. fetcher and observer may be nil.
func NewService(store *Store, fetcher WeatherFetcher, cfg ServiceConfig, logger *slog.Logger, observer Observer) *Service {
	if cfg.Fallback.Name == "" && cfg.Fallback.Latitude == 0 && cfg.Fallback.Longitude == 0 {
		cfg.Fallback = weather.Hyderabad
	}
	if cfg.WeatherTimeout <= 0 {
		cfg.WeatherTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{store: store, fetcher: fetcher, cfg: cfg, logger: logger, observer: observer}
}

// Store exposes the underlying entry store.
func (s *Service) Store() *Store {
	return s.store
}

// LocateRequest carries what the browser knows about its position.
type LocateRequest struct {
	Coordinates *weather.Coordinates
	GeoError    string
}

// WeatherResult is the weather for today plus any notice for the user.
type WeatherResult struct {
	Snapshot *weather.Snapshot `json:"weather,omitempty"`
	Notice   string            `json:"notice,omitempty"`
	Reused   bool              `json:"reused"`
}

// TodayWeather returns the snapshot to attach to an entry made today. A snapshot
// already saved today is reused without a fetch. Failures are reported as a notice.
func (s *Service) TodayWeather(ctx context.Context, req LocateRequest) WeatherResult {
	today := s.store.Today()
	if snap, ok := s.store.SnapshotFor(today); ok {
		s.observer.WeatherLookup(WeatherReused)
		return WeatherResult{Snapshot: snap, Reused: true}
	}

	coords, locNotice := weather.Locate(req.Coordinates, req.GeoError, s.cfg.Fallback)
	if locNotice != "" {
		s.observer.WeatherLookup(WeatherFallback)
	}
	if s.fetcher == nil {
		return WeatherResult{Notice: joinNotices(locNotice, weather.Notice(weather.ErrMissingCredential))}
	}

	key := today + "|" + coords.Key()
	ch := s.lookups.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WeatherTimeout)
		defer cancel()
		return s.fetcher.Fetch(fetchCtx, coords.Latitude, coords.Longitude)
	})

	select {
	case <-ctx.Done():
		s.observer.WeatherLookup(WeatherFailed)
		return WeatherResult{Notice: joinNotices(locNotice, weather.Notice(weather.ErrNetwork))}
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn("weather lookup failed", slog.Any("error", res.Err), slog.String("coords", coords.Key()))
			s.observer.WeatherLookup(WeatherFailed)
			return WeatherResult{Notice: joinNotices(locNotice, weather.Notice(res.Err))}
		}
		snap := res.Val.(weather.Snapshot)
		s.observer.WeatherLookup(WeatherFetched)
		return WeatherResult{Snapshot: &snap, Notice: locNotice}
	}
}

// RecordInput is a validated submission from the entry form.
type RecordInput struct {
	Date   string
	Mood   Mood
	Note   string
	Locate LocateRequest
}

// RecordResult is the saved entry and any weather notice.
type RecordResult struct {
	Entry  Entry  `json:"entry"`
	Notice string `json:"notice,omitempty"`
}

// Record saves a new entry. Entries dated today get weather; backdated entries never do.
// Weather problems never block the save.
func (s *Service) Record(ctx context.Context, in RecordInput) (RecordResult, error) {
	draft := Draft{Date: in.Date, Mood: in.Mood, Note: in.Note}

	var notice string
	if in.Date == s.store.Today() {
		res := s.TodayWeather(ctx, in.Locate)
		draft.Weather = res.Snapshot
		notice = res.Notice
	}

	entry, err := s.store.Add(ctx, draft)
	if err != nil {
		s.logger.Error("save entry", slog.Any("error", err))
		return RecordResult{}, err
	}
	s.observer.EntryRecorded(string(entry.Mood))
	return RecordResult{Entry: entry, Notice: notice}, nil
}

// Delete removes an entry by id.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("delete entry", slog.Any("error", err), slog.Int64("id", id))
	}
	return removed, err
}

// Chart builds the mood series over every entry.
func (s *Service) Chart() (MoodSeries, error) {
	return BuildMoodSeries(s.store.List())
}

func joinNotices(notices ...string) string {
	out := ""
	for _, n := range notices {
		if n == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += n
	}
	return out
}
