// Package executor simulates fills for selected arbitrage opportunities.
package executor

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/detector"
	"github.com/ajitpratap0/cryptofunk/internal/exchange"
)

// maxSlippage bounds the uniform draw applied to each leg of a fill, per
// spec.md §4.F (0-0.2%).
const maxSlippage = 0.002

// ExecutionRecord is the outcome of simulating one opportunity's execution.
type ExecutionRecord struct {
	Symbol         string
	BuyVenue       string
	SellVenue      string
	SizeUSD        float64
	AssetAmount    float64
	BuySlippage    float64
	SellSlippage   float64
	ActualBuyPrice float64
	ActualSellPrice float64
	Cost           float64
	Revenue        float64
	Profit         float64
	Success        bool
	Timestamp      time.Time
}

// Executor simulates order fills. It accepts a map of live venue clients so
// a real implementation is a drop-in replacement; the simulator itself
// never calls them.
type Executor struct {
	rand func() float64 // returns a value in [0, 1); overridable for tests
	now  func() time.Time
}

// New builds an Executor with the default, non-deterministic slippage draw.
func New() *Executor {
	return &Executor{rand: rand.Float64, now: time.Now}
}

// Execute simulates filling opp with sizeUSD notional. venueClients is
// currently unused by the simulator — it exists so a live implementation
// can place real orders against the same signature.
func (e *Executor) Execute(ctx context.Context, opp detector.Opportunity, sizeUSD float64, venueClients map[string]exchange.Exchange) ExecutionRecord {
	assetAmount := sizeUSD / opp.BuyPrice

	buySlip := e.rand() * maxSlippage
	sellSlip := e.rand() * maxSlippage

	actualBuy := opp.BuyPrice * (1 + buySlip)
	actualSell := opp.SellPrice * (1 - sellSlip)

	cost := assetAmount * actualBuy
	revenue := assetAmount * actualSell
	profit := revenue - cost

	return ExecutionRecord{
		Symbol:          opp.Symbol,
		BuyVenue:        opp.BuyVenue,
		SellVenue:       opp.SellVenue,
		SizeUSD:         sizeUSD,
		AssetAmount:     assetAmount,
		BuySlippage:     buySlip,
		SellSlippage:    sellSlip,
		ActualBuyPrice:  actualBuy,
		ActualSellPrice: actualSell,
		Cost:            cost,
		Revenue:         revenue,
		Profit:          profit,
		Success:         profit > 0,
		Timestamp:       e.now(),
	}
}
