// Package civic runs the citizen-facing request pipeline: classify, gather
// evidence, prompt the model and record a transcript.
package civic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/internal/intent"
	"github.com/civic-india/backend/internal/language"
	"github.com/civic-india/backend/internal/llm"
	"github.com/civic-india/backend/internal/metrics"
	"github.com/civic-india/backend/internal/prompt"
	"github.com/civic-india/backend/internal/storage/models"
	"github.com/civic-india/backend/pkg/logger"
)

const Disclaimer = "This is an AI-generated civic explanation based on public information. Not political advice."

const DefaultHistoryLimit = 20

var ErrEmptyInput = errors.New("input is required")

// EvidenceSource is satisfied by *aggregator.Aggregator.
type EvidenceSource interface {
	FetchRelevantData(ctx context.Context, query string, in intent.Intent) evidence.Bundle
}

// TranscriptStore is satisfied by *sqlite.Client.
type TranscriptStore interface {
	InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error
	GetQueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error)
	InsertFactCheck(ctx context.Context, record *models.FactCheckRecord) error
	InsertGrievance(ctx context.Context, record *models.GrievanceRecord) error
}

type Service struct {
	evidence  EvidenceSource
	generator llm.Generator
	store     TranscriptStore
	now       func() time.Time
	log       *zap.Logger
}

// NewService wires the pipeline. store may be nil, in which case nothing is
// persisted and History returns an empty list.
func NewService(ev EvidenceSource, generator llm.Generator, store TranscriptStore) *Service {
	return &Service{
		evidence:  ev,
		generator: generator,
		store:     store,
		now:       time.Now,
		log:       logger.Named("civic"),
	}
}

type AskRequest struct {
	Query    string
	Language string
	UserID   string
}

type Answer struct {
	ID         string            `json:"id"`
	Query      string            `json:"query"`
	Response   string            `json:"response"`
	Intent     intent.Intent     `json:"intent"`
	Language   language.Language `json:"language"`
	Source     string            `json:"source"`
	Sources    []string          `json:"sources"`
	URLs       []string          `json:"urls"`
	Disclaimer string            `json:"disclaimer"`
	LatencyMS  int               `json:"latency_ms"`
}

// Ask answers a citizen query. The query is classified, cached and recorded
// exactly as received; only a blank query is rejected.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	query := req.Query
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query: %w", ErrEmptyInput)
	}

	start := s.now()
	id := uuid.New().String()

	in := intent.Classify(query)
	lang := language.Resolve(req.Language, query)
	metrics.IntentTotal.WithLabelValues(string(in)).Inc()
	metrics.LanguageTotal.WithLabelValues(string(lang)).Inc()

	s.log.Info("Processing civic query",
		zap.String("query_id", id),
		zap.String("intent", string(in)),
		zap.String("language", string(lang)),
	)
	s.warnIfBiased(id, "query", query)

	bundle := s.evidence.FetchRelevantData(ctx, query, in)
	p := prompt.ForQuery(in, query, prompt.BuildContext(in, bundle), lang)

	raw, err := s.generator.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	response := prompt.PostProcess(raw)
	s.warnIfBiased(id, "response", response)

	latency := int(s.now().Sub(start).Milliseconds())

	s.recordQuery(ctx, &models.QueryRecord{
		ID:        id,
		UserID:    req.UserID,
		QueryText: query,
		Intent:    string(in),
		Language:  string(lang),
		Response:  response,
		Source:    bundle.Source,
		LatencyMS: latency,
		Sources:   querySources(bundle),
		CreatedAt: s.now(),
	})

	s.log.Info("Civic query answered",
		zap.String("query_id", id),
		zap.String("source", bundle.Source),
		zap.Int("latency_ms", latency),
	)

	return &Answer{
		ID:         id,
		Query:      query,
		Response:   response,
		Intent:     in,
		Language:   lang,
		Source:     bundle.Source,
		Sources:    bundle.Sources,
		URLs:       bundle.URLs,
		Disclaimer: Disclaimer,
		LatencyMS:  latency,
	}, nil
}

type FactCheckRequest struct {
	Claim    string
	Language string
}

type FactCheckResult struct {
	ID         string            `json:"id"`
	Result     string            `json:"result"`
	Language   language.Language `json:"language"`
	Source     string            `json:"source"`
	URLs       []string          `json:"urls"`
	Disclaimer string            `json:"disclaimer"`
}

// FactCheck always uses the fact-check route regardless of how the claim
// would classify.
func (s *Service) FactCheck(ctx context.Context, req FactCheckRequest) (*FactCheckResult, error) {
	claim := req.Claim
	if strings.TrimSpace(claim) == "" {
		return nil, fmt.Errorf("claim: %w", ErrEmptyInput)
	}

	id := uuid.New().String()
	lang := language.Resolve(req.Language, claim)
	metrics.IntentTotal.WithLabelValues(string(intent.FactCheck)).Inc()
	metrics.LanguageTotal.WithLabelValues(string(lang)).Inc()

	bundle := s.evidence.FetchRelevantData(ctx, claim, intent.FactCheck)
	p := prompt.ForFactCheck(claim, prompt.BuildContext(intent.FactCheck, bundle), lang)

	raw, err := s.generator.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate fact check: %w", err)
	}
	result := prompt.PostProcess(raw)

	if s.store != nil {
		err := s.store.InsertFactCheck(ctx, &models.FactCheckRecord{
			ID:        id,
			Claim:     claim,
			Language:  string(lang),
			Result:    result,
			Source:    bundle.Source,
			CreatedAt: s.now(),
		})
		if err != nil {
			s.transcriptFailed("fact_check", id, err)
		}
	}

	return &FactCheckResult{
		ID:         id,
		Result:     result,
		Language:   lang,
		Source:     bundle.Source,
		URLs:       bundle.URLs,
		Disclaimer: Disclaimer,
	}, nil
}

type GrievanceRequest struct {
	Issue      string
	Department string
	Language   string
}

type GrievanceDraft struct {
	ID         string            `json:"id"`
	Letter     string            `json:"letter"`
	Language   language.Language `json:"language"`
	Disclaimer string            `json:"disclaimer"`
}

// DraftGrievance writes a complaint letter. No evidence is gathered.
func (s *Service) DraftGrievance(ctx context.Context, req GrievanceRequest) (*GrievanceDraft, error) {
	issue := strings.TrimSpace(req.Issue)
	department := strings.TrimSpace(req.Department)
	if issue == "" {
		return nil, fmt.Errorf("issue: %w", ErrEmptyInput)
	}
	if department == "" {
		return nil, fmt.Errorf("department: %w", ErrEmptyInput)
	}

	id := uuid.New().String()
	lang := language.Resolve(req.Language, issue)
	metrics.IntentTotal.WithLabelValues(string(intent.Grievance)).Inc()
	metrics.LanguageTotal.WithLabelValues(string(lang)).Inc()

	raw, err := s.generator.Generate(ctx, prompt.ForGrievance(issue, department, lang))
	if err != nil {
		return nil, fmt.Errorf("failed to draft grievance: %w", err)
	}
	letter := prompt.PostProcess(raw)

	if s.store != nil {
		err := s.store.InsertGrievance(ctx, &models.GrievanceRecord{
			ID:         id,
			Issue:      issue,
			Department: department,
			Language:   string(lang),
			Letter:     letter,
			CreatedAt:  s.now(),
		})
		if err != nil {
			s.transcriptFailed("grievance", id, err)
		}
	}

	return &GrievanceDraft{
		ID:         id,
		Letter:     letter,
		Language:   lang,
		Disclaimer: Disclaimer,
	}, nil
}

// History returns a user's recent answered queries, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if s.store == nil {
		return []models.QueryRecord{}, nil
	}

	records, err := s.store.GetQueryHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}

func (s *Service) recordQuery(ctx context.Context, record *models.QueryRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.InsertQueryRecord(ctx, record); err != nil {
		s.transcriptFailed("query", record.ID, err)
	}
}

func (s *Service) transcriptFailed(kind, id string, err error) {
	metrics.TranscriptWriteErrors.WithLabelValues(kind).Inc()
	s.log.Error("Failed to record transcript",
		zap.String("kind", kind),
		zap.String("id", id),
		zap.Error(err),
	)
}

func (s *Service) warnIfBiased(id, field, text string) {
	if found := prompt.CheckNeutrality(text); len(found) > 0 {
		s.log.Warn("Potentially partisan phrasing detected",
			zap.String("query_id", id),
			zap.String("field", field),
			zap.Strings("phrases", found),
		)
	}
}

func querySources(b evidence.Bundle) []models.QuerySource {
	if b.IsFallback() {
		return nil
	}

	// URLs only line up with names when every provider supplied one.
	withURLs := len(b.URLs) == len(b.Sources)

	out := make([]models.QuerySource, len(b.Sources))
	for i, name := range b.Sources {
		out[i] = models.QuerySource{Position: i, SourceName: name}
		if withURLs {
			out[i].SourceURL = b.URLs[i]
		}
	}
	return out
}
