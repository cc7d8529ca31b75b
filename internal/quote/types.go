// Package quote builds cross-venue order book snapshots for the detector.
package quote

import "time"

// Quote is one venue's top-of-book for one symbol.
type Quote struct {
	Venue     string
	Symbol    string
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

// Snapshot is a single logical view across every configured venue and
// symbol. A (symbol, venue) pair absent from Venues means that venue had no
// data for that symbol this round, not a zero quote.
type Snapshot struct {
	Timestamp time.Time
	// Venues maps symbol -> venue name -> quote.
	Venues map[string]map[string]Quote
}

// VenueQuotes returns the quotes for one symbol across every venue that
// reported one, or nil if the symbol has no venue data.
func (s *Snapshot) VenueQuotes(symbol string) map[string]Quote {
	return s.Venues[symbol]
}

// Empty reports whether the snapshot carries no data for any symbol.
func (s *Snapshot) Empty() bool {
	for _, venues := range s.Venues {
		if len(venues) > 0 {
			return false
		}
	}
	return true
}

func newSnapshot(symbols []string) *Snapshot {
	venues := make(map[string]map[string]Quote, len(symbols))
	for _, sym := range symbols {
		venues[sym] = make(map[string]Quote)
	}
	return &Snapshot{Timestamp: time.Now(), Venues: venues}
}
