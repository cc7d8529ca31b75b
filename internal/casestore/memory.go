package casestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Store, used when Postgres/pgvector is
// unavailable or for tests. It holds cases unbounded — callers running it
// in production should prefer PostgresStore.
type MemoryStore struct {
	mu    sync.Mutex
	cases []Case
	now   func() time.Time
}

// NewMemoryStore builds an empty in-memory case store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Record appends a case, embedding its query text if not already set.
func (m *MemoryStore) Record(ctx context.Context, c Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if len(c.Embedding) == 0 {
		c.Embedding = embed(c.QueryText)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = append(m.cases, c)
	metrics.RecordCaseStoreWrite()
	return nil
}

// QueryNearest returns the k cases with the smallest cosine distance to
// queryText's embedding, ascending.
func (m *MemoryStore) QueryNearest(ctx context.Context, queryText string, k int) ([]NearestCase, error) {
	start := time.Now()
	defer func() { metrics.RecordCaseStoreQuery(float64(time.Since(start).Milliseconds())) }()

	query := embed(queryText)

	m.mu.Lock()
	snapshot := make([]Case, len(m.cases))
	copy(snapshot, m.cases)
	m.mu.Unlock()

	ranked := make([]NearestCase, len(snapshot))
	for i, c := range snapshot {
		ranked[i] = NearestCase{Case: c, Distance: cosineDistance(query, c.Embedding)}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })

	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}
