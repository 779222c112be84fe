package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/storage/models"
	"github.com/civic-india/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	inMemory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// every new connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		query_text TEXT NOT NULL,
		intent TEXT NOT NULL,
		language TEXT NOT NULL,
		response TEXT,
		source TEXT,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_user ON query_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_query_intent ON query_history(intent);

	CREATE TABLE IF NOT EXISTS query_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		source_name TEXT NOT NULL,
		source_url TEXT,
		FOREIGN KEY (query_id) REFERENCES query_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sources_query ON query_sources(query_id);

	CREATE TABLE IF NOT EXISTS fact_checks (
		id TEXT PRIMARY KEY,
		claim TEXT NOT NULL,
		language TEXT NOT NULL,
		result TEXT,
		source TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_factchecks_created ON fact_checks(created_at);

	CREATE TABLE IF NOT EXISTS grievances (
		id TEXT PRIMARY KEY,
		issue TEXT NOT NULL,
		department TEXT NOT NULL,
		language TEXT NOT NULL,
		letter TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_grievances_department ON grievances(department);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertQueryRecord stores the transcript and its sources atomically.
func (c *Client) InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO query_history (id, user_id, query_text, intent, language, response, source, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.QueryText,
		record.Intent,
		record.Language,
		record.Response,
		record.Source,
		record.LatencyMS,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	for i, source := range record.Sources {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO query_sources (query_id, position, source_name, source_url) VALUES (?, ?, ?, ?)`,
			record.ID,
			i,
			source.SourceName,
			source.SourceURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert query source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit query record: %w", err)
	}

	logger.Debug("Query recorded",
		zap.String("query_id", record.ID),
		zap.String("intent", record.Intent),
		zap.Int("sources", len(record.Sources)),
	)

	return nil
}

// GetQueryHistory returns the newest records first. An empty userID lists
// anonymous queries.
func (c *Client) GetQueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, user_id, query_text, intent, language, response, source, latency_ms, created_at
		FROM query_history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	records := make([]models.QueryRecord, 0)
	for rows.Next() {
		var r models.QueryRecord
		var createdAt int64

		err := rows.Scan(&r.ID, &r.UserID, &r.QueryText, &r.Intent, &r.Language, &r.Response, &r.Source, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query history: %w", err)
	}

	for i := range records {
		sources, err := c.getQuerySources(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Sources = sources
	}

	return records, nil
}

func (c *Client) getQuerySources(ctx context.Context, queryID string) ([]models.QuerySource, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, query_id, position, source_name, source_url FROM query_sources WHERE query_id = ? ORDER BY position`,
		queryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get query sources: %w", err)
	}
	defer rows.Close()

	var sources []models.QuerySource
	for rows.Next() {
		var s models.QuerySource
		if err := rows.Scan(&s.ID, &s.QueryID, &s.Position, &s.SourceName, &s.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sources = append(sources, s)
	}

	return sources, rows.Err()
}

func (c *Client) InsertFactCheck(ctx context.Context, record *models.FactCheckRecord) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO fact_checks (id, claim, language, result, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Claim,
		record.Language,
		record.Result,
		record.Source,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fact check: %w", err)
	}

	logger.Debug("Fact check recorded", zap.String("id", record.ID))
	return nil
}

func (c *Client) ListFactChecks(ctx context.Context, limit int) ([]models.FactCheckRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, claim, language, result, source, created_at
		FROM fact_checks
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fact checks: %w", err)
	}
	defer rows.Close()

	records := make([]models.FactCheckRecord, 0)
	for rows.Next() {
		var r models.FactCheckRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Claim, &r.Language, &r.Result, &r.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (c *Client) InsertGrievance(ctx context.Context, record *models.GrievanceRecord) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO grievances (id, issue, department, language, letter, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Issue,
		record.Department,
		record.Language,
		record.Letter,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert grievance: %w", err)
	}

	logger.Debug("Grievance recorded",
		zap.String("id", record.ID),
		zap.String("department", record.Department),
	)
	return nil
}

func (c *Client) ListGrievances(ctx context.Context, limit int) ([]models.GrievanceRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, issue, department, language, letter, created_at
		FROM grievances
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list grievances: %w", err)
	}
	defer rows.Close()

	records := make([]models.GrievanceRecord, 0)
	for rows.Next() {
		var r models.GrievanceRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Issue, &r.Department, &r.Language, &r.Letter, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}

	return records, rows.Err()
}
