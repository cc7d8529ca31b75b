package main

import (
	"fmt"
	"strings"
)

// selection mirrors the per-opportunity fields internal/risk.buildAssessArgs
// sends for each entry in a proposal.
type selection struct {
	Symbol       string  `json:"symbol"`
	BuyVenue     string  `json:"buy_venue"`
	SellVenue    string  `json:"sell_venue"`
	ProfitPct    float64 `json:"profit_pct"`
	SizeUSD      float64 `json:"size_usd"`
	MaxVolumeUSD float64 `json:"max_volume_usd"`
}

// assessProposal scores a proposal's risk on a 1 (safe) - 10 (reckless)
// scale from exposure ratio, thin margins, and oversized selections
// relative to the opportunity's max volume. It has no market data of its
// own — it only judges the shape of the proposal it is handed.
func (s *MCPServer) assessProposal(args map[string]interface{}) (interface{}, error) {
	poolValue, err := extractFloat(args, "pool_value_usd")
	if err != nil {
		return nil, err
	}
	if poolValue <= 0 {
		return nil, fmt.Errorf("pool_value_usd must be positive")
	}

	selections, err := extractSelections(args)
	if err != nil {
		return nil, err
	}

	fallback, _ := args["fallback_proposal"].(bool)

	score := 1
	var reasons []string

	if len(selections) == 0 {
		return map[string]interface{}{
			"score":     1,
			"reasoning": "no selections proposed",
		}, nil
	}

	var totalSize float64
	var oversized int
	var thinMargin int
	for _, sel := range selections {
		totalSize += sel.SizeUSD
		if sel.MaxVolumeUSD > 0 && sel.SizeUSD > sel.MaxVolumeUSD {
			oversized++
		}
		if sel.ProfitPct < 0.1 {
			thinMargin++
		}
	}

	exposureRatio := totalSize / poolValue
	switch {
	case exposureRatio > 0.20:
		score += 3
		reasons = append(reasons, fmt.Sprintf("exposure %.1f%% of pool value is high", exposureRatio*100))
	case exposureRatio > 0.10:
		score += 2
		reasons = append(reasons, fmt.Sprintf("exposure %.1f%% of pool value is elevated", exposureRatio*100))
	case exposureRatio > 0.05:
		score++
		reasons = append(reasons, fmt.Sprintf("exposure %.1f%% of pool value is moderate", exposureRatio*100))
	}

	if oversized > 0 {
		score += 2
		reasons = append(reasons, fmt.Sprintf("%d selection(s) exceed max_volume_usd", oversized))
	}

	if thinMargin == len(selections) {
		score++
		reasons = append(reasons, "all selected spreads are thin")
	}

	if fallback {
		reasons = append(reasons, "deterministic fallback proposal")
	}

	if score > 10 {
		score = 10
	}

	reasoning := "proposal within normal risk tolerance"
	if len(reasons) > 0 {
		reasoning = strings.Join(reasons, "; ")
	}

	return map[string]interface{}{
		"score":     score,
		"reasoning": reasoning,
	}, nil
}

func extractFloat(args map[string]interface{}, key string) (float64, error) {
	value, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func extractSelections(args map[string]interface{}) ([]selection, error) {
	raw, ok := args["selections"]
	if !ok {
		return nil, fmt.Errorf("selections is required")
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("selections must be an array")
	}

	out := make([]selection, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("selections entries must be objects")
		}
		sel := selection{}
		if v, ok := m["symbol"].(string); ok {
			sel.Symbol = v
		}
		if v, ok := m["buy_venue"].(string); ok {
			sel.BuyVenue = v
		}
		if v, ok := m["sell_venue"].(string); ok {
			sel.SellVenue = v
		}
		sel.ProfitPct = toFloat(m["profit_pct"])
		sel.SizeUSD = toFloat(m["size_usd"])
		sel.MaxVolumeUSD = toFloat(m["max_volume_usd"])
		out = append(out, sel)
	}
	return out, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
