package registry

// Benchmark is an elite/good threshold pair for one session metric.
type Benchmark struct {
	Metric         string  `json:"metric"`
	Elite          float64 `json:"elite"`
	Good           float64 `json:"good"`
	HigherIsBetter bool    `json:"higher_is_better"`
}

// Benchmarks are DORA-style reference thresholds for the session ratios.
var Benchmarks = map[string]Benchmark{
	"error_rate":         {Metric: "error_rate", Elite: 0.05, Good: 0.15, HigherIsBetter: false},
	"rework_rate":        {Metric: "rework_rate", Elite: 0.10, Good: 0.30, HigherIsBetter: false},
	"test_pass_rate":     {Metric: "test_pass_rate", Elite: 0.95, Good: 0.80, HigherIsBetter: true},
	"agent_success_rate": {Metric: "agent_success_rate", Elite: 0.90, Good: 0.70, HigherIsBetter: true},
}

// BenchmarkMetrics lists the benchmarked metrics in display order.
var BenchmarkMetrics = []string{"error_rate", "rework_rate", "test_pass_rate", "agent_success_rate"}
