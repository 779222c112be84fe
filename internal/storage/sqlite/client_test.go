package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-india/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })

	return c
}

func TestQueryHistory(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, c.InsertQueryRecord(ctx, &models.QueryRecord{
		ID:        "q1",
		UserID:    "citizen-1",
		QueryText: "What is the RTI Act?",
		Intent:    "law",
		Language:  "english",
		Response:  "The RTI Act...",
		Source:    "India Code, PRS Legislative Research",
		LatencyMS: 840,
		Sources: []models.QuerySource{
			{SourceName: "India Code", SourceURL: "https://indiacode.nic.in"},
			{SourceName: "PRS Legislative Research", SourceURL: "https://prsindia.org"},
		},
		CreatedAt: base,
	}))
	require.NoError(t, c.InsertQueryRecord(ctx, &models.QueryRecord{
		ID:        "q2",
		UserID:    "citizen-1",
		QueryText: "मेरे सांसद कौन हैं?",
		Intent:    "representative",
		Language:  "hindi",
		Source:    "System",
		CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, c.InsertQueryRecord(ctx, &models.QueryRecord{
		ID:        "q3",
		UserID:    "citizen-2",
		QueryText: "pension status",
		Intent:    "general",
		Language:  "english",
		CreatedAt: base.Add(2 * time.Minute),
	}))

	history, err := c.GetQueryHistory(ctx, "citizen-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "q2", history[0].ID, "newest first")
	assert.Equal(t, "hindi", history[0].Language)
	assert.Empty(t, history[0].Sources)

	first := history[1]
	assert.Equal(t, "law", first.Intent)
	assert.Equal(t, 840, first.LatencyMS)
	assert.True(t, base.Equal(first.CreatedAt))
	require.Len(t, first.Sources, 2)
	assert.Equal(t, "India Code", first.Sources[0].SourceName)
	assert.Equal(t, 0, first.Sources[0].Position)
	assert.Equal(t, "https://prsindia.org", first.Sources[1].SourceURL)
	assert.Equal(t, 1, first.Sources[1].Position)

	limited, err := c.GetQueryHistory(ctx, "citizen-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := c.GetQueryHistory(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestInsertQueryRecordIsAtomic(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	rec := &models.QueryRecord{ID: "dup", QueryText: "q", Intent: "general", Language: "english", CreatedAt: time.Now()}
	require.NoError(t, c.InsertQueryRecord(ctx, rec))

	rec.Sources = []models.QuerySource{{SourceName: "Data.gov.in"}}
	require.Error(t, c.InsertQueryRecord(ctx, rec))

	history, err := c.GetQueryHistory(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].Sources, "sources of the failed insert must be rolled back")
}

func TestFactChecks(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, c.InsertFactCheck(ctx, &models.FactCheckRecord{
		ID: "f1", Claim: "old claim", Language: "english", Result: "FALSE", Source: "PIB Fact Check", CreatedAt: now,
	}))
	require.NoError(t, c.InsertFactCheck(ctx, &models.FactCheckRecord{
		ID: "f2", Claim: "new claim", Language: "tamil", Result: "UNVERIFIABLE", Source: "System", CreatedAt: now.Add(time.Second),
	}))

	checks, err := c.ListFactChecks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Equal(t, "f2", checks[0].ID)
	assert.Equal(t, "tamil", checks[0].Language)
	assert.Equal(t, "PIB Fact Check", checks[1].Source)
}

func TestGrievances(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.InsertGrievance(ctx, &models.GrievanceRecord{
		ID:         "g1",
		Issue:      "Water supply irregular",
		Department: "Jal Board",
		Language:   "english",
		Letter:     "To the Executive Engineer...",
		CreatedAt:  time.Now(),
	}))

	grievances, err := c.ListGrievances(ctx, 5)
	require.NoError(t, err)
	require.Len(t, grievances, 1)
	assert.Equal(t, "Jal Board", grievances[0].Department)
	assert.Equal(t, "To the Executive Engineer...", grievances[0].Letter)
}

func TestNewClientCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "civic.db")

	c, err := NewClient(path)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.InitSchema())
	assert.NoError(t, c.Ping(context.Background()))
	assert.FileExists(t, path)
}
