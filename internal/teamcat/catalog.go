// Package teamcat loads the team catalog: packed teams per format from
// embedded defaults plus an optional override directory.
package teamcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed teams.yaml
var defaultFiles embed.FS

// ErrNoTeam is returned when a format has no catalog entry. Random formats
// never have one; the simulator picks the team.
var ErrNoTeam = errors.New("teamcat: no team for format")

// Team is one packed team under a format.
type Team struct {
	Name   string `yaml:"name"`
	Packed string `yaml:"packed"`
}

type catalogFile struct {
	Formats map[string][]Team `yaml:"formats"`
}

// Catalog holds the loaded team lists keyed by format id.
type Catalog struct {
	mu      sync.RWMutex
	formats map[string][]Team
}

// New loads the embedded default catalog and then applies overrides from
// dir if provided. Override files replace whole formats, not single teams.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{formats: make(map[string][]Team)}
	if err := c.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, "teams.yaml")
	if err != nil {
		return fmt.Errorf("teamcat: read embedded teams: %w", err)
	}
	return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("teamcat: read team dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("teamcat: read %s: %w", name, err)
		}
		if err := c.applyYAML(b); err != nil {
			return fmt.Errorf("teamcat: parse %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) applyYAML(b []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for format, teams := range f.Formats {
		for i, t := range teams {
			if strings.TrimSpace(t.Packed) == "" {
				return fmt.Errorf("teamcat: format %s team %d has no packed team", format, i)
			}
		}
		c.formats[format] = teams
	}
	return nil
}

// Teams returns all teams of a format.
func (c *Catalog) Teams(format string) []Team {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.formats[format]
}

// Pick returns a random team of the format, or ErrNoTeam when the catalog
// has none.
func (c *Catalog) Pick(format string) (Team, error) {
	c.mu.RLock()
	teams := c.formats[format]
	c.mu.RUnlock()
	if len(teams) == 0 {
		return Team{}, fmt.Errorf("%w: %s", ErrNoTeam, format)
	}
	return teams[rand.Intn(len(teams))], nil
}

// Formats lists the formats with at least one team, sorted.
func (c *Catalog) Formats() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.formats))
	for f := range c.formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
