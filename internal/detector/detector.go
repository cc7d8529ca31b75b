// Package detector scans a quote snapshot for cross-venue arbitrage
// opportunities.
package detector

import (
	"sort"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/quote"
)

// Opportunity is one buy-low-sell-high pairing found in a single snapshot.
type Opportunity struct {
	Symbol       string
	BuyVenue     string
	SellVenue    string
	BuyPrice     float64
	SellPrice    float64
	SpreadPct    float64
	ProfitPct    float64
	MaxVolumeUSD float64
	Timestamp    time.Time
}

// FeeModel converts a raw spread percentage into a net profit percentage.
type FeeModel func(spreadPct float64) (profitPct float64)

// DefaultFeeModel subtracts a flat 0.2% from the spread, the wired default.
func DefaultFeeModel(spreadPct float64) float64 {
	return spreadPct - 0.2
}

// FlatGasFeeModel returns a FeeModel that subtracts a flat USD gas cost,
// expressed back as a percentage of the trade size. This mirrors the
// monolith's flat $50-per-trade gas estimate; kept as an injectable
// alternative to DefaultFeeModel, not used by default.
func FlatGasFeeModel(gasUSD, tradeSizeUSD float64) FeeModel {
	return func(spreadPct float64) float64 {
		if tradeSizeUSD <= 0 {
			return spreadPct
		}
		return spreadPct - (gasUSD/tradeSizeUSD)*100
	}
}

type bookEntry struct {
	venue  string
	price  float64
	volume float64
}

// Scan finds every cross-venue pairing whose spread exceeds minSpreadPct,
// across every symbol present in the snapshot.
func Scan(snap *quote.Snapshot, minSpreadPct float64, fees FeeModel) []Opportunity {
	if fees == nil {
		fees = DefaultFeeModel
	}

	var out []Opportunity

	for symbol, venues := range snap.Venues {
		asks := make([]bookEntry, 0, len(venues))
		bids := make([]bookEntry, 0, len(venues))
		for venue, q := range venues {
			asks = append(asks, bookEntry{venue: venue, price: q.Ask, volume: q.AskVolume})
			bids = append(bids, bookEntry{venue: venue, price: q.Bid, volume: q.BidVolume})
		}

		sort.Slice(asks, func(i, j int) bool { return asks[i].price < asks[j].price })
		sort.Slice(bids, func(i, j int) bool { return bids[i].price > bids[j].price })

		for _, buy := range asks {
			for _, sell := range bids {
				if buy.venue == sell.venue {
					continue
				}
				if sell.price <= buy.price {
					continue
				}

				spread := sell.price - buy.price
				spreadPct := 100 * spread / buy.price
				if spreadPct <= minSpreadPct {
					continue
				}

				volume := buy.volume
				if sell.volume < volume {
					volume = sell.volume
				}

				out = append(out, Opportunity{
					Symbol:       symbol,
					BuyVenue:     buy.venue,
					SellVenue:    sell.venue,
					BuyPrice:     buy.price,
					SellPrice:    sell.price,
					SpreadPct:    spreadPct,
					ProfitPct:    fees(spreadPct),
					MaxVolumeUSD: volume * buy.price,
					Timestamp:    snap.Timestamp,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProfitPct != out[j].ProfitPct {
			return out[i].ProfitPct > out[j].ProfitPct
		}
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].BuyVenue < out[j].BuyVenue
	})

	return out
}

// Filter drops opportunities below either floor, preserving order.
func Filter(opps []Opportunity, minProfitPct, minVolumeUSD float64) []Opportunity {
	out := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.ProfitPct < minProfitPct || o.MaxVolumeUSD < minVolumeUSD {
			continue
		}
		out = append(out, o)
	}
	return out
}
