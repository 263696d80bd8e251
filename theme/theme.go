// Package theme holds the reader's light/dark and team colour preferences.
//
// State lives in a Store that is created per request and passed through the
// request context. Values are persisted through a Storage so the same Store
// works over a cookie session, a database, or memory in tests. The colours a
// page uses come from Derive, a pure function of mode, team and the system
// preference.
package theme

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode is a colour scheme preference.
type Mode string

const (
	Light  Mode = "light"
	Dark   Mode = "dark"
	System Mode = "system"
)

// DefaultTeam is the neutral palette.
const DefaultTeam = "default"

// Storage keys.
const (
	KeyMode = "theme"
	KeyTeam = "team"
)

// ErrUnknownTeam is returned by SetTeam for names missing from Palettes.
var ErrUnknownTeam = errors.New("theme: unknown team")

// ParseMode returns the Mode for s and whether it is valid.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Light, Dark, System:
		return m, true
	}
	return "", false
}

// Overrides replaces colours when the applied mode is dark.
type Overrides struct {
	Link   string
	Accent string
}

// Palette is one team's colour set.
type Palette struct {
	Accent   string
	Link     string
	Bubble   string
	TeamName string
	Dark     Overrides
}

// Palettes is the fixed team table.
var Palettes = map[string]Palette{
	DefaultTeam: {Accent: "#cccccc", Link: "#1e73e8", Bubble: "#cccccc", Dark: Overrides{Link: "#3a8dff"}},
	"yamaha":    {Accent: "#95D600", Link: "#0D47F7", Bubble: "#0b39a0", TeamName: "Star Racing Yamaha", Dark: Overrides{Link: "#4185F4"}},
	"honda":     {Accent: "#0033A0", Link: "#CC0000", Bubble: "#CC0000", TeamName: "Honda HRC Progressive"},
	"kawasaki":  {Accent: "#95D600", Link: "#6B9900", Bubble: "#95D600", TeamName: "Monster Energy Kawasaki", Dark: Overrides{Link: "#95D600"}},
	"ktm":       {Accent: "#FF6600", Link: "#FF6600", Bubble: "#FF6600", TeamName: "Red Bull KTM"},
	"gasgas":    {Accent: "#CF9C43", Link: "#CB0D25", Bubble: "#CB0D25", TeamName: "Rockstar Energy GasGas", Dark: Overrides{Link: "#CB0D25", Accent: "#CF9C43"}},
	"husqvarna": {Accent: "#FFED00", Link: "#273A60", Bubble: "#273A60", TeamName: "Rockstar Energy Husqvarna", Dark: Overrides{Link: "#FFED00", Accent: "#273A60"}},
	"triumph":   {Accent: "#D4D700", Link: "#000000", Bubble: "#F0FF00", TeamName: "Triumph Factory Racing", Dark: Overrides{Link: "#F0FF00"}},
}

// Teams returns the palette keys with the default first and the rest sorted.
func Teams() []string {
	out := make([]string, 0, len(Palettes))
	for k := range Palettes {
		if k != DefaultTeam {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return append([]string{DefaultTeam}, out...)
}

const (
	backgroundLight = "#ffffff"
	backgroundDark  = "#1f1f1f"
)

// Variables are the derived colours for one page render.
type Variables struct {
	Applied    Mode // Light or Dark, never System
	Link       string
	Accent     string
	Bubble     string
	Background string
	TeamName   string
}

// CSS renders the custom property declarations for :root.
func (v Variables) CSS() string {
	return fmt.Sprintf("--link: %s; --accent: %s; --background: %s; --bubble: %s;",
		v.Link, v.Accent, v.Background, v.Bubble)
}

// Derive computes colours. A System mode follows system, which itself falls
// back to Light when unknown. Unknown teams use the default palette.
func Derive(mode Mode, team string, system Mode) Variables {
	applied := mode
	if applied != Light && applied != Dark {
		applied = system
	}
	if applied != Dark {
		applied = Light
	}
	p, ok := Palettes[team]
	if !ok {
		p = Palettes[DefaultTeam]
	}
	v := Variables{
		Applied:    applied,
		Link:       p.Link,
		Accent:     p.Accent,
		Bubble:     p.Bubble,
		Background: backgroundLight,
		TeamName:   p.TeamName,
	}
	if applied == Dark {
		v.Background = backgroundDark
		if p.Dark.Link != "" {
			v.Link = p.Dark.Link
		}
		if p.Dark.Accent != "" {
			v.Accent = p.Dark.Accent
		}
	}
	return v
}

// SystemPreference reads the Sec-CH-Prefers-Color-Scheme client hint.
func SystemPreference(hint string) Mode {
	if strings.EqualFold(strings.Trim(strings.TrimSpace(hint), `"`), "dark") {
		return Dark
	}
	return Light
}

type ctxKey struct{}

// WithStore returns a context carrying s.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Store in ctx, or a default in-memory Store.
func FromContext(ctx context.Context) *Store {
	if s, ok := ctx.Value(ctxKey{}).(*Store); ok && s != nil {
		return s
	}
	return NewStore(NewMemoryStorage())
}
