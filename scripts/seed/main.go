package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/moodjournal/moodjournal/internal/app"
	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/weather"
)

var demoNotes = []string{
	"Long walk before work, felt light all day.",
	"Deadline moved up, stayed late.",
	"Quiet day, nothing much happened.",
	"Dinner with friends, lots of laughing.",
	"Slept badly, argued about the dishes.",
	"Finished the book I started last month.",
	"Rainy commute, \"fine\" overall.",
}

func main() {
	days := flag.Int("days", 14, "number of past days to seed")
	reset := flag.Bool("reset", false, "delete existing entries first")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StorageBackend == app.BackendMemory {
		log.Fatalf("seed: STORAGE_BACKEND=memory would discard the seeded entries")
	}

	ctx := context.Background()
	backend, closeStorage, err := app.OpenStorage(ctx, cfg, app.NewLogger(cfg))
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeStorage()

	store, err := journal.NewStore(ctx, backend)
	if err != nil {
		log.Fatalf("load journal: %v", err)
	}

	if *reset {
		fmt.Printf("→ Removing %d existing entries...\n", store.Len())
		for _, e := range store.List() {
			if _, err := store.Delete(ctx, e.ID); err != nil {
				log.Fatalf("delete entry %d: %v", e.ID, err)
			}
		}
	}

	fmt.Println("→ Seeding entries...")
	n, err := seedEntries(ctx, store, *days, time.Now())
	if err != nil {
		log.Fatalf("seed entries: %v", err)
	}
	fmt.Printf("✓ Seeded %d entries into %q (%s)\n", n, cfg.StorageNamespace, cfg.StorageBackend)
}

func seedEntries(ctx context.Context, store *journal.Store, days int, now time.Time) (int, error) {
	moods := journal.Moods()
	seeded := 0
	for i := days; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		draft := journal.Draft{
			Date: dates.TodayKey(day),
			Mood: moods[(i*3)%len(moods)].Mood,
			Note: demoNotes[i%len(demoNotes)],
		}
		if i == 0 {
			wind := 3.1
			draft.Weather = &weather.Snapshot{
				Temp:         29.4,
				FeelsLike:    31.0,
				Description:  "few clouds",
				Icon:         "02d",
				LocationName: weather.Hyderabad.Name,
				Humidity:     54,
				WindSpeed:    &wind,
			}
		}
		if _, err := store.Add(ctx, draft); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
