// Package prefs keeps what trawl remembers between runs: the theme and the
// filters the user applied.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/trawl/internal/config"
)

const (
	// DefaultTheme is used when no theme was saved.
	DefaultTheme = "Nightfox"
	// MaxRecentFilters bounds the filter history.
	MaxRecentFilters = 10

	defaultPath = "~/.config/trawl/prefs.toml"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastFilter is the filter in effect when trawl last exited. Empty is a
	// valid choice and means no filter.
	LastFilter string `toml:"last_filter"`
	// Recent lists non-empty filters, most recent first.
	Recent []string `toml:"recent_filters"`
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPath
}

// RememberFilter records filter as the last one applied and moves it to the
// front of the history.
func (p *Prefs) RememberFilter(filter string) {
	filter = strings.TrimSpace(filter)
	p.LastFilter = filter
	if filter == "" {
		return
	}
	recent := slices.DeleteFunc(p.Recent, func(f string) bool { return f == filter })
	p.Recent = append([]string{filter}, recent...)
	if len(p.Recent) > MaxRecentFilters {
		p.Recent = p.Recent[:MaxRecentFilters]
	}
}

func (p *Prefs) normalize() {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	p.LastFilter = strings.TrimSpace(p.LastFilter)

	var recent []string
	for _, f := range p.Recent {
		f = strings.TrimSpace(f)
		if f != "" && !slices.Contains(recent, f) {
			recent = append(recent, f)
		}
	}
	if len(recent) > MaxRecentFilters {
		recent = recent[:MaxRecentFilters]
	}
	p.Recent = recent
}

// Load reads preferences from path, or the default path when empty. A
// missing file yields defaults. An unreadable or invalid file yields
// defaults together with the error, so callers can log and carry on.
func Load(path string) (Prefs, error) {
	p := Prefs{Theme: DefaultTheme}

	resolved, err := resolve(path)
	if err != nil {
		return p, err
	}
	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read prefs: %w", err)
	}

	var loaded Prefs
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return p, fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	loaded.normalize()
	return loaded, nil
}

// Save writes preferences to path, creating parent directories.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Update applies mutate to the stored preferences and saves them. A corrupt
// file is replaced rather than blocking the save.
func Update(path string, mutate func(*Prefs)) error {
	p, _ := Load(path)
	mutate(&p)
	return Save(path, p)
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return resolved, nil
}
