// Package verify checks whether a scrape pass rediscovers articles that are
// known to have been published on a given date.
package verify

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsHound/internal/types"
)

// KnownArticle is the reference metadata of a fixture article.
type KnownArticle struct {
	Media      string `yaml:"media"`
	Category   string `yaml:"category"`
	Journalist string `yaml:"journalist,omitempty"`
}

// DateFixtures are the known articles of one publication date, keyed by
// title. Keywords override the configured defaults for that date.
type DateFixtures struct {
	Keywords []string                `yaml:"keywords,omitempty"`
	Articles map[string]KnownArticle `yaml:"articles"`
}

// Titles returns the fixture titles in sorted order.
func (df DateFixtures) Titles() []string {
	titles := make([]string, 0, len(df.Articles))
	for t := range df.Articles {
		titles = append(titles, t)
	}
	slices.Sort(titles)
	return titles
}

// Fixtures groups known articles by date (YYYY-MM-DD).
type Fixtures struct {
	ByDate map[string]DateFixtures `yaml:"dates"`
}

// LoadFixtures reads a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	fx, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("fixtures %s: %w", path, err)
	}
	return fx, nil
}

// ParseFixtures decodes fixtures YAML. Every date key must be a calendar
// date and every title non-empty.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for date, df := range fx.ByDate {
		if _, err := time.Parse(types.DateLayout, date); err != nil {
			return nil, fmt.Errorf("fixture date %q: %w", date, err)
		}
		for title := range df.Articles {
			if title == "" {
				return nil, fmt.Errorf("fixture date %s: %w", date, types.ErrEmptyTitle)
			}
		}
	}
	return &fx, nil
}

// Dates returns the fixture dates in ascending order.
func (fx *Fixtures) Dates() []string {
	dates := make([]string, 0, len(fx.ByDate))
	for d := range fx.ByDate {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates
}

// Lookup returns the fixtures of date.
func (fx *Fixtures) Lookup(date string) (DateFixtures, error) {
	df, ok := fx.ByDate[date]
	if !ok || len(df.Articles) == 0 {
		return DateFixtures{}, fmt.Errorf("%s: %w", date, types.ErrNoFixtures)
	}
	return df, nil
}
