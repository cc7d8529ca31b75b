package quote

import "math/rand/v2"

// SyntheticVenue derives a quote from another venue's quote by applying a
// fixed basis-point offset plus bounded jitter, mirroring the way venues
// without wired credentials are modeled: a perturbation of a real venue
// rather than an absent entry.
type SyntheticVenue struct {
	name      string
	offsetBps float64
	jitterBps float64
	rand      func() float64 // returns a value in [-1, 1); overridable for tests
}

// NewSyntheticVenue builds a synthetic venue. offsetBps shifts the mid price
// (positive widens the venue above the base, negative below); jitterBps
// bounds the additional random wobble applied per call.
func NewSyntheticVenue(name string, offsetBps, jitterBps float64) *SyntheticVenue {
	return &SyntheticVenue{
		name:      name,
		offsetBps: offsetBps,
		jitterBps: jitterBps,
		rand:      func() float64 { return rand.Float64()*2 - 1 },
	}
}

// Derive produces this venue's quote for one symbol from a base venue's
// quote. The spread is preserved; bid and ask both shift by the same
// offset+jitter factor so spread_pct stays stable around the base.
func (v *SyntheticVenue) Derive(base Quote) Quote {
	factor := 1 + (v.offsetBps+v.jitterBps*v.rand())/10000

	return Quote{
		Venue:     v.name,
		Symbol:    base.Symbol,
		Bid:       base.Bid * factor,
		Ask:       base.Ask * factor,
		BidVolume: base.BidVolume,
		AskVolume: base.AskVolume,
	}
}
