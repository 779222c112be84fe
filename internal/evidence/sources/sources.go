// Package sources holds the named public-data evidence providers. Each one
// currently answers from a fixed description template; swapping a template
// for a live client does not change the evidence.Provider contract.
package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/pkg/logger"
)

// Provider IDs used in routing tables and config.
const (
	PRS       = "prs"
	IndiaCode = "indiacode"
	MyNeta    = "myneta"
	ECI       = "eci"
	PIB       = "pib"
	DataGov   = "datagov"
)

type templateSource struct {
	id       string
	name     string
	url      string
	template string
}

func (s *templateSource) Name() string {
	return s.name
}

func (s *templateSource) Fetch(ctx context.Context, query string) (*evidence.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.id, err)
	}

	logger.Debug("Fetching evidence",
		zap.String("provider", s.id),
		zap.String("query", query),
	)

	return &evidence.Item{
		Source: s.name,
		Data:   fmt.Sprintf(s.template, query),
		URL:    s.url,
	}, nil
}

func NewPRS() evidence.Provider {
	return &templateSource{
		id:       PRS,
		name:     "PRS Legislative Research",
		url:      "https://prsindia.org",
		template: "Legislative analysis and bill information for: %s",
	}
}

func NewIndiaCode() evidence.Provider {
	return &templateSource{
		id:       IndiaCode,
		name:     "India Code",
		url:      "https://indiacode.nic.in",
		template: "Legal acts, sections, and amendments related to: %s",
	}
}

func NewMyNeta() evidence.Provider {
	return &templateSource{
		id:       MyNeta,
		name:     "MyNeta (ADR)",
		url:      "https://myneta.info",
		template: "Representative profiles, criminal cases, and asset information for: %s",
	}
}

func NewECI() evidence.Provider {
	return &templateSource{
		id:       ECI,
		name:     "Election Commission of India",
		url:      "https://eci.gov.in",
		template: "Electoral data and constituency information for: %s",
	}
}

func NewPIB() evidence.Provider {
	return &templateSource{
		id:       PIB,
		name:     "PIB Fact Check",
		url:      "https://pib.gov.in",
		template: "Official government fact-check and verification for: %s",
	}
}

func NewDataGov() evidence.Provider {
	return &templateSource{
		id:       DataGov,
		name:     "Data.gov.in",
		url:      "https://data.gov.in",
		template: "Government schemes, statistics, and public data for: %s",
	}
}

// Registry maps provider IDs to providers.
type Registry map[string]evidence.Provider

// Default returns every built-in provider.
func Default() Registry {
	return Registry{
		PRS:       NewPRS(),
		IndiaCode: NewIndiaCode(),
		MyNeta:    NewMyNeta(),
		ECI:       NewECI(),
		PIB:       NewPIB(),
		DataGov:   NewDataGov(),
	}
}

// Without returns a copy of r with the given IDs removed. Unknown IDs are an
// error so that a typo in config does not silently keep a provider enabled.
func (r Registry) Without(ids ...string) (Registry, error) {
	out := make(Registry, len(r))
	for id, p := range r {
		out[id] = p
	}
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("unknown evidence provider %q (known: %s)", id, strings.Join(r.IDs(), ", "))
		}
		delete(out, id)
	}
	return out, nil
}

// IDs returns the registered IDs sorted.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
