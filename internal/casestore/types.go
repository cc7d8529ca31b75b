// Package casestore records cycle outcomes and serves nearest-neighbor
// lookups to the strategy oracle, per spec.md §4.H.
package casestore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Case is one recorded cycle outcome: the context the oracle reasoned
// over, and what happened as a result.
type Case struct {
	ID        uuid.UUID
	QueryText string    // the same summarized text the oracle embeds to query
	Outcome   string    // short human-readable outcome summary
	Embedding []float32 // fixed-dimension embedding of QueryText
	CreatedAt time.Time
}

// NearestCase pairs a Case with its distance from a query embedding.
type NearestCase struct {
	Case
	Distance float64
}

// Store is the full case-store contract from spec.md §4.H — append-only
// Record, distance-ordered QueryNearest. internal/oracle only needs the
// narrower NearestSummaries view (see oracle.CaseStore).
type Store interface {
	Record(ctx context.Context, c Case) error
	QueryNearest(ctx context.Context, queryText string, k int) ([]NearestCase, error)
}

// OracleAdapter narrows a Store down to internal/oracle.CaseStore's single
// method, so either PostgresStore or MemoryStore can be handed to the
// strategy oracle without that package importing this one's full Store
// interface.
type OracleAdapter struct {
	Store Store
}

// NearestSummaries queries the k nearest cases and flattens them to outcome
// strings.
func (a OracleAdapter) NearestSummaries(ctx context.Context, queryText string, k int) ([]string, error) {
	nearest, err := a.Store.QueryNearest(ctx, queryText, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(nearest))
	for i, n := range nearest {
		out[i] = n.Outcome
	}
	return out, nil
}
