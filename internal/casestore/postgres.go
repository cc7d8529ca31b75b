package casestore

import (
	"context"
	"fmt"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// PostgresStore is the durable Store backed by Postgres + pgvector, one
// table (`cycle_cases`) rather than the teacher's general-purpose
// `semantic_memory` table — this domain only ever records and queries one
// kind of case.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgresStoreFromDB builds a PostgresStore from the shared DB wrapper.
func NewPostgresStoreFromDB(database *db.DB) *PostgresStore {
	return &PostgresStore{pool: database.Pool()}
}

// Record inserts a case, embedding QueryText if not already set.
func (s *PostgresStore) Record(ctx context.Context, c Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if len(c.Embedding) == 0 {
		c.Embedding = embed(c.QueryText)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO cycle_cases (id, query_text, outcome, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.QueryText, c.Outcome, pgvector.NewVector(c.Embedding), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("record case: %w", err)
	}

	metrics.RecordCaseStoreWrite()
	log.Debug().Str("id", c.ID.String()).Msg("casestore: recorded case")
	return nil
}

// QueryNearest embeds queryText and returns the k nearest cases by pgvector
// cosine distance (`<=>`), ascending.
func (s *PostgresStore) QueryNearest(ctx context.Context, queryText string, k int) ([]NearestCase, error) {
	start := time.Now()
	defer func() { metrics.RecordCaseStoreQuery(float64(time.Since(start).Milliseconds())) }()

	query := pgvector.NewVector(embed(queryText))

	rows, err := s.pool.Query(ctx, `
		SELECT id, query_text, outcome, embedding, created_at, embedding <=> $1 AS distance
		FROM cycle_cases
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, query, k)
	if err != nil {
		return nil, fmt.Errorf("query nearest cases: %w", err)
	}
	defer rows.Close()

	var out []NearestCase
	for rows.Next() {
		var (
			c        Case
			vec      pgvector.Vector
			distance float64
		)
		if err := rows.Scan(&c.ID, &c.QueryText, &c.Outcome, &vec, &c.CreatedAt, &distance); err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		c.Embedding = vec.Slice()
		out = append(out, NearestCase{Case: c, Distance: distance})
	}
	return out, rows.Err()
}
