// Package aggregator gathers evidence for a classified query from the
// providers routed to its intent, concurrently, and merges what comes back
// into one bundle.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/civic-india/backend/internal/cache"
	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/internal/intent"
	"github.com/civic-india/backend/internal/metrics"
	"github.com/civic-india/backend/pkg/circuitbreaker"
	"github.com/civic-india/backend/pkg/logger"
)

const DefaultProviderTimeout = 5 * time.Second

var (
	ErrUnroutedIntent = errors.New("intent has no evidence providers")
	ErrProviderPanic  = errors.New("evidence provider panicked")
)

type Config struct {
	// ProviderTimeout bounds each provider call independently.
	ProviderTimeout time.Duration
	// SingleFlight makes concurrent misses for the same key share one
	// fan-out instead of each querying every provider.
	SingleFlight bool
	// BreakerFailureThreshold consecutive failures open a provider's circuit
	// for BreakerOpenTimeout.
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

type boundProvider struct {
	id       string
	provider evidence.Provider
	breaker  *circuitbreaker.CircuitBreaker
}

type Aggregator struct {
	store        cache.Store
	routes       map[intent.Intent][]*boundProvider
	timeout      time.Duration
	singleFlight bool
	group        singleflight.Group
	log          *zap.Logger
}

// New binds the routing table to concrete providers. Route entries whose
// provider is not registered (for example disabled in config) are dropped;
// every intent must still end up with at least one provider.
func New(store cache.Store, providers map[string]evidence.Provider, routes Routes, cfg Config) (*Aggregator, error) {
	if store == nil {
		return nil, errors.New("aggregator: cache store is required")
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	log := logger.Named("aggregator")

	breakers := make(map[string]*boundProvider, len(providers))
	bind := func(id string) *boundProvider {
		if bp, ok := breakers[id]; ok {
			return bp
		}
		bp := &boundProvider{
			id:       id,
			provider: providers[id],
			breaker: circuitbreaker.NewCircuitBreaker("evidence."+id, circuitbreaker.Config{
				MaxRequests:      1,
				Timeout:          cfg.BreakerOpenTimeout,
				FailureThreshold: cfg.BreakerFailureThreshold,
				SuccessThreshold: 1,
				OnStateChange:    recordBreakerState,
				Logger:           log,
			}),
		}
		breakers[id] = bp
		return bp
	}

	bound := make(map[intent.Intent][]*boundProvider, len(routes))
	for _, in := range intent.All() {
		for _, id := range routes[in] {
			if providers[id] == nil {
				log.Warn("Routed evidence provider not registered, skipping",
					zap.String("intent", string(in)),
					zap.String("provider", id),
				)
				continue
			}
			bound[in] = append(bound[in], bind(id))
		}
		if len(bound[in]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnroutedIntent, in)
		}
	}

	return &Aggregator{
		store:        store,
		routes:       bound,
		timeout:      cfg.ProviderTimeout,
		singleFlight: cfg.SingleFlight,
		log:          log,
	}, nil
}

// FetchRelevantData returns the evidence bundle for query under in. It never
// fails: provider errors drop that provider's contribution, and when nothing
// contributes the fallback bundle is returned. Both outcomes are cached.
//
// Cancelling ctx does not cancel provider calls; an aggregation that has
// started always completes and is cached.
func (a *Aggregator) FetchRelevantData(ctx context.Context, query string, in intent.Intent) evidence.Bundle {
	key := cache.Key{Intent: in, Query: query}

	if bundle, ok := a.store.Get(ctx, key); ok {
		metrics.CacheHits.WithLabelValues(a.store.Name()).Inc()
		return bundle
	}
	metrics.CacheMisses.WithLabelValues(a.store.Name()).Inc()

	if !a.singleFlight {
		return a.aggregate(ctx, key)
	}

	v, _, shared := a.group.Do(flightKey(key), func() (interface{}, error) {
		return a.aggregate(ctx, key), nil
	})
	if shared {
		metrics.SingleFlightShared.Inc()
	}
	// every waiter on a shared flight gets its own slices
	return v.(evidence.Bundle).Clone()
}

// Providers lists the provider names consulted for in, in merge order.
func (a *Aggregator) Providers(in intent.Intent) []string {
	bound := a.route(in)
	names := make([]string, len(bound))
	for i, bp := range bound {
		names[i] = bp.provider.Name()
	}
	return names
}

// route falls back to the general providers for intents outside the
// enumerated set.
func (a *Aggregator) route(in intent.Intent) []*boundProvider {
	if bound, ok := a.routes[in]; ok {
		return bound
	}
	return a.routes[intent.General]
}

func (a *Aggregator) aggregate(ctx context.Context, key cache.Key) evidence.Bundle {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	bound := a.route(key.Intent)
	results := make([]evidence.Result, len(bound))

	var g errgroup.Group
	for i, bp := range bound {
		g.Go(func() error {
			results[i] = a.invoke(ctx, bp, key)
			return nil
		})
	}
	_ = g.Wait()

	bundle := evidence.Merge(evidence.Items(results))
	elapsed := time.Since(start)

	metrics.AggregationDuration.WithLabelValues(string(key.Intent)).Observe(elapsed.Seconds())
	if bundle.IsFallback() {
		metrics.FallbackTotal.WithLabelValues(string(key.Intent)).Inc()
		a.log.Warn("No provider returned evidence, using fallback",
			zap.String("intent", string(key.Intent)),
			zap.Int("providers", len(bound)),
		)
	}

	a.store.Set(ctx, key, bundle)

	a.log.Debug("Evidence aggregated",
		zap.String("intent", string(key.Intent)),
		zap.String("source", bundle.Source),
		zap.Duration("elapsed", elapsed),
	)

	return bundle
}

func (a *Aggregator) invoke(ctx context.Context, bp *boundProvider, key cache.Key) evidence.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	var item *evidence.Item
	err := bp.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		item, err = fetchWithDeadline(ctx, bp.provider, key.Query)
		return err
	})

	var res evidence.Result
	switch {
	case err != nil:
		res = evidence.Err(bp.id, err)
		a.log.Warn("Evidence provider failed",
			zap.String("provider", bp.id),
			zap.String("intent", string(key.Intent)),
			zap.Error(err),
		)
	case item == nil:
		res = evidence.Empty(bp.id)
	default:
		res = evidence.Ok(bp.id, *item)
	}
	res.Duration = time.Since(start)

	metrics.ProviderCalls.WithLabelValues(bp.id, string(res.Status)).Inc()
	metrics.ProviderDuration.WithLabelValues(bp.id).Observe(res.Duration.Seconds())

	return res
}

// fetchWithDeadline runs the provider on its own goroutine so that a
// provider ignoring ctx still cannot hold the aggregation past the deadline.
// The abandoned goroutine finishes on its own; its result is discarded.
func fetchWithDeadline(ctx context.Context, p evidence.Provider, query string) (*evidence.Item, error) {
	type outcome struct {
		item *evidence.Item
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrProviderPanic, r)}
			}
		}()
		item, err := p.Fetch(ctx, query)
		done <- outcome{item: item, err: err}
	}()

	select {
	case o := <-done:
		return o.item, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("evidence provider %q: %w", p.Name(), ctx.Err())
	}
}

// flightKey cannot collide across intents: intents never contain NUL, so the
// first NUL always ends the intent.
func flightKey(key cache.Key) string {
	return string(key.Intent) + "\x00" + key.Query
}

func recordBreakerState(name string, _ circuitbreaker.State, to circuitbreaker.State) {
	metrics.CircuitState.WithLabelValues(name).Set(float64(to))
}
