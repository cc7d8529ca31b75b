package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// LiveVenue fetches real quotes for a set of symbols. A venue that cannot
// serve a symbol simply omits it from the returned map.
type LiveVenue interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// VenueConfig describes one venue's wiring: live venues carry credentials,
// synthetic venues carry a basis-point offset from a base live venue.
type VenueConfig struct {
	Name      string
	APIKey    string
	SecretKey string
	Sandbox   bool
	// OffsetBps is the basis-point offset of a synthetic venue. A venue is
	// synthetic (derived from BaseVenue rather than fetched live) whenever
	// Name differs from BaseVenue, empty BaseVenue meaning "binance";
	// OffsetBps does not decide it.
	OffsetBps float64
	BaseVenue string
}

// Source produces Snapshots by fanning out to every configured live venue
// and deriving every configured synthetic venue from a base venue's result.
type Source struct {
	symbols         []string
	liveVenues      map[string]LiveVenue
	syntheticVenues map[string]*SyntheticVenue
	baseOf          map[string]string // synthetic venue name -> base venue name
	perVenueTimeout time.Duration
	cache           *snapshotCache
}

// NewSource builds a quote source for the given symbols. redisClient may be
// nil, in which case every call rebuilds the snapshot.
func NewSource(symbols []string, venues []VenueConfig, redisClient *redis.Client, cacheTTL time.Duration) *Source {
	s := &Source{
		symbols:         symbols,
		liveVenues:      make(map[string]LiveVenue),
		syntheticVenues: make(map[string]*SyntheticVenue),
		baseOf:          make(map[string]string),
		perVenueTimeout: 3 * time.Second,
		cache:           newSnapshotCache(redisClient, cacheTTL),
	}

	for _, vc := range venues {
		base := vc.BaseVenue
		if base == "" {
			base = "binance"
		}
		if vc.Name == base {
			s.liveVenues[vc.Name] = NewBinanceVenue(vc.Name, vc.APIKey, vc.SecretKey, vc.Sandbox)
			continue
		}
		s.syntheticVenues[vc.Name] = NewSyntheticVenue(vc.Name, vc.OffsetBps, 2.0)
		s.baseOf[vc.Name] = base
	}

	return s
}

// GetSnapshot returns the freshest snapshot, rebuilding on a cache miss.
// The snapshot fails only when zero venues returned data for zero symbols.
func (s *Source) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	if cached, ok := s.cache.get(ctx); ok {
		return cached, nil
	}

	snap, err := s.rebuild(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.set(snap)
	return snap, nil
}

func (s *Source) rebuild(ctx context.Context) (*Snapshot, error) {
	snap := newSnapshot(s.symbols)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for name, venue := range s.liveVenues {
		name, venue := name, venue
		g.Go(func() error {
			venueCtx, cancel := context.WithTimeout(gctx, s.perVenueTimeout)
			defer cancel()

			quotes, err := venue.FetchQuotes(venueCtx, s.symbols)
			if err != nil {
				log.Warn().Err(err).Str("venue", name).Msg("venue fetch failed, omitting")
				return nil // a failed venue is omitted, not fatal
			}

			mu.Lock()
			for symbol, q := range quotes {
				if _, ok := snap.Venues[symbol]; !ok {
					snap.Venues[symbol] = make(map[string]Quote)
				}
				snap.Venues[symbol][name] = q
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for name, synth := range s.syntheticVenues {
		base := s.baseOf[name]
		for _, symbol := range s.symbols {
			baseQuote, ok := snap.Venues[symbol][base]
			if !ok {
				continue
			}
			snap.Venues[symbol][name] = synth.Derive(baseQuote)
		}
	}

	if snap.Empty() {
		return nil, fmt.Errorf("quote: no venue returned data for any symbol")
	}

	return snap, nil
}
