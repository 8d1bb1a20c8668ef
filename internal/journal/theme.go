package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moodjournal/moodjournal/internal/platform/httpx"
	"github.com/moodjournal/moodjournal/internal/platform/kv"
)

// Theme is the colour scheme preference.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// DefaultTheme follows the system colour scheme preference.
func DefaultTheme(prefersDark bool) Theme {
	if prefersDark {
		return ThemeDark
	}
	return ThemeLight
}

// ThemeStore persists the theme under ThemeKey.
type ThemeStore struct {
	mu sync.Mutex
	kv kv.Store
}

// NewThemeStore wraps the key-value store.
func NewThemeStore(backend kv.Store) *ThemeStore {
	return &ThemeStore{kv: backend}
}

// Get returns the stored theme, or the system default when none or an unknown value is stored.
func (s *ThemeStore) Get(ctx context.Context, prefersDark bool) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, prefersDark)
}

func (s *ThemeStore) get(ctx context.Context, prefersDark bool) (Theme, error) {
	var stored Theme
	found, err := s.kv.Get(ctx, ThemeKey, &stored)
	switch {
	case errors.Is(err, kv.ErrCodec):
		return DefaultTheme(prefersDark), nil
	case err != nil:
		return "", fmt.Errorf("%w: load theme: %w", ErrStorage, err)
	case !found || !stored.Valid():
		return DefaultTheme(prefersDark), nil
	}
	return stored, nil
}

// Set stores theme.
func (s *ThemeStore) Set(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("journal: unknown theme %q: %w", theme, httpx.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, theme)
}

func (s *ThemeStore) set(ctx context.Context, theme Theme) error {
	if err := s.kv.Set(ctx, ThemeKey, theme); err != nil {
		return fmt.Errorf("%w: save theme: %w", ErrStorage, err)
	}
	return nil
}

// Toggle flips the current theme and returns the new value.
func (s *ThemeStore) Toggle(ctx context.Context, prefersDark bool) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, prefersDark)
	if err != nil {
		return "", err
	}
	next := current.Opposite()
	if err := s.set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
