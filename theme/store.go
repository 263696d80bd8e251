package theme

import (
	"fmt"
	"sync"
)

// Storage persists string preferences.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Flusher is implemented by storage that batches writes. Store calls Flush
// once after saving both keys.
type Flusher interface {
	Flush() error
}

// Store is the preference state for one reader. Load it once, feed it the
// system preference, and mutate it through Toggle and SetTeam, which save.
type Store struct {
	storage Storage
	mode    Mode
	team    string
	system  Mode
}

// NewStore returns a Store with defaults; call Load to read saved values.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage, mode: System, team: DefaultTeam, system: Light}
}

// Load reads saved preferences. Missing or invalid values keep the defaults.
func (s *Store) Load() error {
	raw, ok, err := s.storage.Get(KeyMode)
	if err != nil {
		return fmt.Errorf("theme: load mode: %w", err)
	}
	if m, valid := ParseMode(raw); ok && valid {
		s.mode = m
	}
	team, ok, err := s.storage.Get(KeyTeam)
	if err != nil {
		return fmt.Errorf("theme: load team: %w", err)
	}
	if _, known := Palettes[team]; ok && known {
		s.team = team
	}
	return nil
}

// SetSystem records the operating system preference.
func (s *Store) SetSystem(m Mode) {
	if m != Dark {
		m = Light
	}
	s.system = m
}

// Toggle flips between light and dark. From System it picks the opposite of
// the current system preference.
func (s *Store) Toggle() error {
	switch s.mode {
	case System:
		if s.system == Light {
			s.mode = Dark
		} else {
			s.mode = Light
		}
	case Light:
		s.mode = Dark
	default:
		s.mode = Light
	}
	return s.save()
}

// SetMode sets an explicit mode.
func (s *Store) SetMode(m Mode) error {
	if _, ok := ParseMode(string(m)); !ok {
		return fmt.Errorf("theme: unknown mode %q", m)
	}
	s.mode = m
	return s.save()
}

// SetTeam selects a palette.
func (s *Store) SetTeam(team string) error {
	if _, ok := Palettes[team]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	s.team = team
	return s.save()
}

func (s *Store) save() error {
	if err := s.storage.Set(KeyMode, string(s.mode)); err != nil {
		return fmt.Errorf("theme: save mode: %w", err)
	}
	if err := s.storage.Set(KeyTeam, s.team); err != nil {
		return fmt.Errorf("theme: save team: %w", err)
	}
	if f, ok := s.storage.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("theme: flush: %w", err)
		}
	}
	return nil
}

func (s *Store) Mode() Mode       { return s.mode }
func (s *Store) Team() string     { return s.team }
func (s *Store) SystemMode() Mode { return s.system }

// Variables derives the current colours.
func (s *Store) Variables() Variables {
	return Derive(s.mode, s.team, s.system)
}

// MemoryStorage is a Storage backed by a map.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
