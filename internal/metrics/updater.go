package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pool"
)

// LedgerSource is the narrow view of the pool ledger the updater needs.
type LedgerSource interface {
	PoolMetrics() pool.PoolMetrics
}

// Updater periodically pushes pool and database metrics into the
// Prometheus collectors defined in this package.
type Updater struct {
	ledger   LedgerSource
	db       *pgxpool.Pool
	interval time.Duration
	stopCh   chan struct{}
}

// NewUpdater creates a new metrics updater. db may be nil when running
// without a durable store (e.g. MemoryStore-backed deployments); pool
// connection metrics are simply skipped in that case.
func NewUpdater(ledger LedgerSource, db *pgxpool.Pool, interval time.Duration) *Updater {
	return &Updater{
		ledger:   ledger,
		db:       db,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the metrics update loop, blocking until Stop is called or
// ctx is cancelled.
func (u *Updater) Start(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.update()

	for {
		select {
		case <-ticker.C:
			u.update()
		case <-u.stopCh:
			log.Info().Msg("metrics updater stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("metrics updater context cancelled")
			return
		}
	}
}

// Stop stops the metrics updater.
func (u *Updater) Stop() {
	close(u.stopCh)
}

func (u *Updater) update() {
	u.updatePoolMetrics()
	if u.db != nil {
		u.updateDatabaseMetrics()
	}
}

func (u *Updater) updatePoolMetrics() {
	m := u.ledger.PoolMetrics()

	valueUSD, _ := m.TotalPoolValue.Float64()
	PoolValueUSD.Set(valueUSD)

	roi, _ := m.ROI.Float64()
	PoolROI.Set(roi)

	PoolParticipants.Set(float64(m.ParticipantCount))

	initial, _ := m.InitialPoolValue.Float64()
	if initial > 0 {
		drawdown := (initial - valueUSD) / initial
		if drawdown < 0 {
			drawdown = 0
		}
		PoolDrawdownPct.Set(drawdown)
	}
}

func (u *Updater) updateDatabaseMetrics() {
	stat := u.db.Stat()
	UpdateDatabaseConnections(stat.AcquiredConns(), stat.IdleConns())
}
