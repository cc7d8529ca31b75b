package config

import "testing"

func TestPortConstantsAreDistinctWithinRange(t *testing.T) {
	byRange := map[string][]int{
		"api":     {APIServerPort, OrchestratorMetricsPort},
		"infra":   {VaultPort, PostgresPort, RedisPort, NATSPort},
		"monitor": {PrometheusPort, GrafanaPort, NATSExporterPort},
	}

	for name, ports := range byRange {
		seen := make(map[int]bool)
		for _, p := range ports {
			if p < 1 || p > 65535 {
				t.Errorf("%s: port %d out of valid range", name, p)
			}
			if seen[p] {
				t.Errorf("%s: duplicate port %d", name, p)
			}
			seen[p] = true
		}
	}
}
