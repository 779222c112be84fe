package models

import "time"

type QueryRecord struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id,omitempty"`
	QueryText string        `json:"query"`
	Intent    string        `json:"intent"`
	Language  string        `json:"language"`
	Response  string        `json:"response"`
	Source    string        `json:"source"`
	LatencyMS int           `json:"latency_ms"`
	Sources   []QuerySource `json:"sources,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// QuerySource is one evidence provider that contributed to an answer, kept
// in merge order.
type QuerySource struct {
	ID         int    `json:"-"`
	QueryID    string `json:"-"`
	Position   int    `json:"position"`
	SourceName string `json:"name"`
	SourceURL  string `json:"url,omitempty"`
}

type FactCheckRecord struct {
	ID        string    `json:"id"`
	Claim     string    `json:"claim"`
	Language  string    `json:"language"`
	Result    string    `json:"result"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type GrievanceRecord struct {
	ID         string    `json:"id"`
	Issue      string    `json:"issue"`
	Department string    `json:"department"`
	Language   string    `json:"language"`
	Letter     string    `json:"letter"`
	CreatedAt  time.Time `json:"created_at"`
}
