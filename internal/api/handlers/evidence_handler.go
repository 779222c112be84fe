package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/internal/intent"
)

// EvidenceAggregator is satisfied by *aggregator.Aggregator.
type EvidenceAggregator interface {
	FetchRelevantData(ctx context.Context, query string, in intent.Intent) evidence.Bundle
	Providers(in intent.Intent) []string
}

// EvidenceHandler exposes the raw merged evidence for a query, without
// generation. Useful for checking routing and cache behaviour.
type EvidenceHandler struct {
	aggregator EvidenceAggregator
}

func NewEvidenceHandler(aggregator EvidenceAggregator) *EvidenceHandler {
	return &EvidenceHandler{aggregator: aggregator}
}

func (h *EvidenceHandler) GetEvidence(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	in := intent.Classify(query)
	if raw := c.Query("intent"); raw != "" {
		parsed, ok := intent.Parse(raw)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "unknown intent",
				"intents": intent.All(),
			})
		}
		in = parsed
	}

	start := time.Now()
	bundle := h.aggregator.FetchRelevantData(c.UserContext(), query, in)

	return c.JSON(fiber.Map{
		"query":      query,
		"intent":     in,
		"providers":  h.aggregator.Providers(in),
		"bundle":     bundle,
		"fallback":   bundle.IsFallback(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}
