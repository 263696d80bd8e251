package theme

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSystemFollowsPreference(t *testing.T) {
	assert.Equal(t, Dark, Derive(System, DefaultTeam, Dark).Applied)
	assert.Equal(t, Light, Derive(System, DefaultTeam, Light).Applied)
	assert.Equal(t, Light, Derive(System, DefaultTeam, "").Applied, "unknown system preference is light")
	assert.Equal(t, Light, Derive(Light, DefaultTeam, Dark).Applied)
	assert.Equal(t, Dark, Derive(Dark, DefaultTeam, Light).Applied)
}

func TestDeriveNeverReturnsSystem(t *testing.T) {
	for _, mode := range []Mode{Light, Dark, System, "bogus"} {
		for _, sys := range []Mode{Light, Dark, System} {
			applied := Derive(mode, DefaultTeam, sys).Applied
			assert.Contains(t, []Mode{Light, Dark}, applied, "mode=%s system=%s", mode, sys)
		}
	}
}

func TestDeriveBackground(t *testing.T) {
	assert.Equal(t, "#1f1f1f", Derive(Dark, "ktm", Light).Background)
	assert.Equal(t, "#ffffff", Derive(Light, "ktm", Dark).Background)
}

func TestDeriveDarkOverrides(t *testing.T) {
	light := Derive(Light, "husqvarna", Light)
	assert.Equal(t, "#273A60", light.Link)
	assert.Equal(t, "#FFED00", light.Accent)

	dark := Derive(Dark, "husqvarna", Light)
	assert.Equal(t, "#FFED00", dark.Link)
	assert.Equal(t, "#273A60", dark.Accent)
	assert.Equal(t, "Rockstar Energy Husqvarna", dark.TeamName)

	// no overrides
	assert.Equal(t, "#CC0000", Derive(Dark, "honda", Light).Link)
}

func TestDeriveUnknownTeam(t *testing.T) {
	assert.Equal(t, Derive(Light, DefaultTeam, Light), Derive(Light, "suzuki", Light))
}

func TestVariablesCSS(t *testing.T) {
	css := Derive(Dark, "yamaha", Light).CSS()
	assert.Equal(t, "--link: #4185F4; --accent: #95D600; --background: #1f1f1f; --bubble: #0b39a0;", css)
}

func TestTeams(t *testing.T) {
	teams := Teams()
	require.Len(t, teams, len(Palettes))
	assert.Equal(t, DefaultTeam, teams[0])
	assert.Equal(t, "gasgas", teams[1])
	assert.Equal(t, "yamaha", teams[len(teams)-1])
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" Dark ")
	assert.True(t, ok)
	assert.Equal(t, Dark, m)

	_, ok = ParseMode("sepia")
	assert.False(t, ok)
}

func TestSystemPreference(t *testing.T) {
	assert.Equal(t, Dark, SystemPreference("dark"))
	assert.Equal(t, Dark, SystemPreference(`"dark"`))
	assert.Equal(t, Light, SystemPreference("light"))
	assert.Equal(t, Light, SystemPreference(""))
}

func TestStoreDefaults(t *testing.T) {
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.Load())
	assert.Equal(t, System, s.Mode())
	assert.Equal(t, DefaultTeam, s.Team())
	assert.Equal(t, Light, s.Variables().Applied)
}

func TestStoreLoadIgnoresInvalidValues(t *testing.T) {
	mem := NewMemoryStorage()
	require.NoError(t, mem.Set(KeyMode, "sepia"))
	require.NoError(t, mem.Set(KeyTeam, "suzuki"))

	s := NewStore(mem)
	require.NoError(t, s.Load())
	assert.Equal(t, System, s.Mode())
	assert.Equal(t, DefaultTeam, s.Team())
}

func TestToggle(t *testing.T) {
	cases := []struct {
		start  Mode
		system Mode
		want   Mode
	}{
		{System, Light, Dark},
		{System, Dark, Light},
		{Light, Dark, Dark},
		{Dark, Light, Light},
	}
	for _, tc := range cases {
		mem := NewMemoryStorage()
		require.NoError(t, mem.Set(KeyMode, string(tc.start)))
		s := NewStore(mem)
		require.NoError(t, s.Load())
		s.SetSystem(tc.system)

		require.NoError(t, s.Toggle())
		assert.Equal(t, tc.want, s.Mode(), "start=%s system=%s", tc.start, tc.system)

		saved, ok, _ := mem.Get(KeyMode)
		assert.True(t, ok)
		assert.Equal(t, string(tc.want), saved)
	}
}

func TestTogglePersistsAcrossStores(t *testing.T) {
	mem := NewMemoryStorage()
	first := NewStore(mem)
	require.NoError(t, first.Load())
	first.SetSystem(Dark)
	require.NoError(t, first.Toggle())
	require.NoError(t, first.SetTeam("kawasaki"))

	second := NewStore(mem)
	require.NoError(t, second.Load())
	assert.Equal(t, Light, second.Mode())
	assert.Equal(t, "kawasaki", second.Team())
}

func TestSetTeamUnknown(t *testing.T) {
	mem := NewMemoryStorage()
	s := NewStore(mem)
	require.NoError(t, s.SetTeam("ktm"))

	err := s.SetTeam("suzuki")
	assert.True(t, errors.Is(err, ErrUnknownTeam))
	assert.Equal(t, "ktm", s.Team())

	saved, _, _ := mem.Get(KeyTeam)
	assert.Equal(t, "ktm", saved)
}

func TestSetMode(t *testing.T) {
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.SetMode(Dark))
	assert.Equal(t, Dark, s.Mode())
	assert.Error(t, s.SetMode("sepia"))
}

type failingStorage struct{}

func (failingStorage) Get(string) (string, bool, error) { return "", false, errors.New("boom") }
func (failingStorage) Set(string, string) error         { return errors.New("boom") }

func TestStoreStorageErrors(t *testing.T) {
	s := NewStore(failingStorage{})
	assert.Error(t, s.Load())
	assert.Error(t, s.Toggle())
	assert.Error(t, s.SetTeam("ktm"))
}

func TestContext(t *testing.T) {
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.SetTeam("triumph"))
	ctx := WithStore(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, DefaultTeam, fallback.Team())
}

type batchingStorage struct {
	*MemoryStorage
	flushes int
	err     error
}

func (b *batchingStorage) Flush() error {
	b.flushes++
	return b.err
}

func TestSaveFlushesOnce(t *testing.T) {
	storage := &batchingStorage{MemoryStorage: NewMemoryStorage()}
	s := NewStore(storage)

	require.NoError(t, s.SetTeam("ktm"))
	assert.Equal(t, 1, storage.flushes)
	require.NoError(t, s.Toggle())
	assert.Equal(t, 2, storage.flushes)

	storage.err = errors.New("cookie too large")
	assert.ErrorContains(t, s.SetMode(Dark), "flush")
}
