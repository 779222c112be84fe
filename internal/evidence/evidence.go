// Package evidence defines the units exchanged between evidence providers
// and the aggregator, and the deterministic merge of provider results.
package evidence

import (
	"context"
	"slices"
	"strings"
)

const (
	FallbackSource = "System"
	FallbackData   = "Verified public information is currently unavailable for this topic."
)

// Item is one provider's answer for a query. URL may be empty.
type Item struct {
	Source string `json:"source"`
	Data   string `json:"data"`
	URL    string `json:"url"`
}

// Bundle is the merged evidence handed to prompt construction. Data is never
// empty; when nothing contributed it holds FallbackData.
type Bundle struct {
	Source  string   `json:"source"`
	Sources []string `json:"sources"`
	Data    string   `json:"data"`
	URLs    []string `json:"urls"`
}

// Provider fetches evidence for a query from one named public-data domain.
// A nil item with a nil error means the provider has nothing to add.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string) (*Item, error)
}

// Fallback is the bundle returned when no provider produced an item.
func Fallback() Bundle {
	return Bundle{
		Source:  FallbackSource,
		Sources: []string{},
		Data:    FallbackData,
		URLs:    []string{},
	}
}

// Clone returns a copy of b whose slices do not share backing arrays with b.
// Empty slices stay non-nil so they still encode as JSON arrays.
func (b Bundle) Clone() Bundle {
	b.Sources = slices.Clone(b.Sources)
	b.URLs = slices.Clone(b.URLs)
	return b
}

func (b Bundle) IsFallback() bool {
	return b.Source == FallbackSource && len(b.Sources) == 0 && b.Data == FallbackData
}

// Merge combines items in slice order: names comma-joined, data separated by
// a blank line, non-empty URLs kept in order. Items with empty data are
// skipped so the merged Data can never be empty.
func Merge(items []Item) Bundle {
	sources := make([]string, 0, len(items))
	data := make([]string, 0, len(items))
	urls := make([]string, 0, len(items))

	for _, it := range items {
		if strings.TrimSpace(it.Data) == "" {
			continue
		}
		sources = append(sources, it.Source)
		data = append(data, it.Data)
		if it.URL != "" {
			urls = append(urls, it.URL)
		}
	}

	if len(data) == 0 {
		return Fallback()
	}

	return Bundle{
		Source:  strings.Join(sources, ", "),
		Sources: sources,
		Data:    strings.Join(data, "\n\n"),
		URLs:    urls,
	}
}
