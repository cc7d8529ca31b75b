package quote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/rs/zerolog/log"
)

// BinanceVenue fetches top-of-book quotes from Binance's public book-ticker
// endpoint. No signed endpoint is ever called — the arbitrage engine never
// places real orders, so an API key is optional.
type BinanceVenue struct {
	name   string
	client *binance.Client
}

// NewBinanceVenue creates a Binance-backed venue. apiKey/secretKey may be
// empty; book-ticker is a public endpoint.
func NewBinanceVenue(name, apiKey, secretKey string, sandbox bool) *BinanceVenue {
	client := binance.NewClient(apiKey, secretKey)
	if sandbox {
		binance.UseTestnet = true
	}
	return &BinanceVenue{name: name, client: client}
}

// FetchQuotes retrieves a book ticker per symbol and converts it into a
// Quote. Symbols use the "BASE/QUOTE" convention; Binance wants them
// concatenated ("BTCUSDT").
func (v *BinanceVenue) FetchQuotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))

	for _, symbol := range symbols {
		wireSymbol := toBinanceSymbol(symbol)

		start := time.Now()
		tickers, err := v.client.NewListBookTickersService().Symbol(wireSymbol).Do(ctx)
		metrics.RecordVenueAPICall(v.name, "book_ticker", float64(time.Since(start).Milliseconds()), err)
		if err != nil {
			log.Debug().Err(err).Str("venue", v.name).Str("symbol", symbol).Msg("book ticker fetch failed, omitting")
			continue
		}
		if len(tickers) == 0 {
			continue
		}

		q, err := quoteFromTicker(v.name, symbol, tickers[0])
		if err != nil {
			log.Warn().Err(err).Str("venue", v.name).Str("symbol", symbol).Msg("malformed book ticker, omitting")
			continue
		}
		out[symbol] = q
	}

	return out, nil
}

func quoteFromTicker(venue, symbol string, t *binance.BookTicker) (Quote, error) {
	bid, err := strconv.ParseFloat(t.BidPrice, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parse bid price: %w", err)
	}
	ask, err := strconv.ParseFloat(t.AskPrice, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parse ask price: %w", err)
	}
	bidVol, err := strconv.ParseFloat(t.BidQuantity, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parse bid qty: %w", err)
	}
	askVol, err := strconv.ParseFloat(t.AskQuantity, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parse ask qty: %w", err)
	}

	return Quote{
		Venue:     venue,
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		BidVolume: bidVol,
		AskVolume: askVol,
	}, nil
}

func toBinanceSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}
