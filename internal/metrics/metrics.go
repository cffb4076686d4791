package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestOutcome is the recorded result of one dispatched call. It is
// created by the load generator and handed to the Collector by value;
// it is never mutated afterwards.
type RequestOutcome struct {
	SequenceID     int
	Endpoint       string
	Method         string
	StatusCode     int // 0 indicates a transport-level failure
	ElapsedSeconds float64
	IssuedAt       time.Time
	Succeeded      bool
	Err            string
}

// NewOutcome builds an outcome from a completed call. Success is any
// status in [200, 400).
func NewOutcome(seq int, endpoint, method string, status int, elapsed time.Duration, issuedAt time.Time, err error) RequestOutcome {
	o := RequestOutcome{
		SequenceID:     seq,
		Endpoint:       endpoint,
		Method:         method,
		StatusCode:     status,
		ElapsedSeconds: elapsed.Seconds(),
		IssuedAt:       issuedAt,
		Succeeded:      err == nil && status >= 200 && status < 400,
	}
	if err != nil {
		o.StatusCode = 0
		o.Err = err.Error()
	}
	return o
}

// LatencyStats holds response-time statistics in seconds, computed over
// successful outcomes only.
type LatencyStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// RunSummary is the immutable statistical summary of one measurement run.
type RunSummary struct {
	Endpoint           string       `json:"endpoint"`
	TargetRPS          int          `json:"target_rps"`
	ActualRPS          float64      `json:"actual_rps"`
	DurationSeconds    float64      `json:"duration_seconds"`
	TotalRequests      int          `json:"total_requests"`
	SuccessfulRequests int          `json:"successful_requests"`
	FailedRequests     int          `json:"failed_requests"`
	Latency            LatencyStats `json:"latency"`
	SuccessRate        float64      `json:"success_rate"`
	ErrorRate          float64      `json:"error_rate"`
	Timestamp          time.Time    `json:"timestamp"`
}

// EndpointAnalysis extends a summary with throughput and distribution
// breakdowns for one endpoint.
type EndpointAnalysis struct {
	Summary       RunSummary     `json:"summary"`
	ThroughputRPS float64        `json:"throughput_rps"`
	StatusCodes   map[int]int    `json:"status_code_distribution"`
	Errors        map[string]int `json:"error_distribution"`
}

// Report is the combined view over a whole collection window.
type Report struct {
	Summary      RunSummary                  `json:"summary"`
	Endpoints    map[string]EndpointAnalysis `json:"endpoint_analysis"`
	WindowStart  time.Time                   `json:"window_start"`
	WindowEnd    time.Time                   `json:"window_end"`
	OutcomeCount int                         `json:"outcome_count"`
}

// Collector accumulates request outcomes inside an explicit collection
// window and derives statistical summaries from them. All statistics are
// deterministic functions of the recorded outcomes.
type Collector struct {
	mu        sync.Mutex
	outcomes  []RequestOutcome
	startedAt time.Time
	stoppedAt time.Time
	running   bool

	log *logrus.Entry
}

// NewCollector creates an empty collector. Start must be called before
// outcomes are recorded.
func NewCollector() *Collector {
	return &Collector{
		outcomes: make([]RequestOutcome, 0, 1000),
		log:      logrus.WithField("component", "metrics"),
	}
}

// Start opens the collection window, discarding anything recorded before.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = c.outcomes[:0]
	c.startedAt = time.Now()
	c.stoppedAt = time.Time{}
	c.running = true
}

// Stop closes the collection window.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stoppedAt = time.Now()
	c.running = false
}

// Record appends one outcome. Outcomes recorded outside an open window
// are dropped with a warning.
func (c *Collector) Record(o RequestOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.log.WithFields(logrus.Fields{
			"endpoint": o.Endpoint,
			"sequence": o.SequenceID,
		}).Warn("outcome recorded outside collection window, dropping")
		return
	}
	c.outcomes = append(c.outcomes, o)
}

// Count returns the number of recorded outcomes.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

// Outcomes returns a copy of the outcomes for one endpoint, or all
// outcomes when endpoint is empty.
func (c *Collector) Outcomes(endpoint string) []RequestOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filtered(endpoint)
}

func (c *Collector) filtered(endpoint string) []RequestOutcome {
	out := make([]RequestOutcome, 0, len(c.outcomes))
	for _, o := range c.outcomes {
		if endpoint == "" || o.Endpoint == endpoint {
			out = append(out, o)
		}
	}
	return out
}

// windowSeconds returns the wall-clock length of the collection window.
// For a still-open window the current time is used as the end.
func (c *Collector) windowSeconds() float64 {
	if c.startedAt.IsZero() {
		return 0
	}
	end := c.stoppedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(c.startedAt).Seconds()
}

// Summarize computes the run summary for one endpoint (empty string for
// all endpoints combined). The target rate is carried through verbatim.
func (c *Collector) Summarize(endpoint string, targetRPS int) RunSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summarize(c.filtered(endpoint), endpoint, targetRPS, c.windowSeconds())
}

// Analyze computes the summary plus throughput and distribution
// breakdowns for one endpoint.
func (c *Collector) Analyze(endpoint string, targetRPS int) EndpointAnalysis {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcomes := c.filtered(endpoint)
	analysis := EndpointAnalysis{
		Summary:       summarize(outcomes, endpoint, targetRPS, c.windowSeconds()),
		ThroughputRPS: throughput(outcomes),
		StatusCodes:   make(map[int]int),
		Errors:        make(map[string]int),
	}
	for _, o := range outcomes {
		analysis.StatusCodes[o.StatusCode]++
		if !o.Succeeded && o.Err != "" {
			analysis.Errors[o.Err]++
		}
	}
	return analysis
}

// Report produces the overall summary together with a per-endpoint
// breakdown map.
func (c *Collector) Report() Report {
	c.mu.Lock()
	startedAt, stoppedAt := c.startedAt, c.stoppedAt
	count := len(c.outcomes)
	endpoints := make(map[string]bool)
	for _, o := range c.outcomes {
		endpoints[o.Endpoint] = true
	}
	c.mu.Unlock()

	report := Report{
		Summary:      c.Summarize("", 0),
		Endpoints:    make(map[string]EndpointAnalysis, len(endpoints)),
		WindowStart:  startedAt,
		WindowEnd:    stoppedAt,
		OutcomeCount: count,
	}
	for endpoint := range endpoints {
		report.Endpoints[endpoint] = c.Analyze(endpoint, 0)
	}
	return report
}

// FailedSummary builds the summary reported for a run that produced no
// outcomes: 0% success, 100% error, with the planned call count recorded
// as failures.
func FailedSummary(endpoint string, targetRPS, plannedCalls int) RunSummary {
	return RunSummary{
		Endpoint:       endpoint,
		TargetRPS:      targetRPS,
		FailedRequests: plannedCalls,
		SuccessRate:    0,
		ErrorRate:      100,
		Timestamp:      time.Now(),
	}
}

func summarize(outcomes []RequestOutcome, endpoint string, targetRPS int, windowSeconds float64) RunSummary {
	summary := RunSummary{
		Endpoint:        endpoint,
		TargetRPS:       targetRPS,
		DurationSeconds: windowSeconds,
		TotalRequests:   len(outcomes),
		Timestamp:       time.Now(),
	}

	successLatencies := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Succeeded {
			summary.SuccessfulRequests++
			successLatencies = append(successLatencies, o.ElapsedSeconds)
		} else {
			summary.FailedRequests++
		}
	}

	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.SuccessfulRequests) / float64(summary.TotalRequests) * 100
		summary.ErrorRate = float64(summary.FailedRequests) / float64(summary.TotalRequests) * 100
	}
	if windowSeconds > 0 {
		summary.ActualRPS = float64(summary.TotalRequests) / windowSeconds
	}

	summary.Latency = computeLatencyStats(successLatencies)
	return summary
}

// computeLatencyStats derives the full latency statistics from a sample
// of successful response times.
func computeLatencyStats(samples []float64) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	stats := LatencyStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: mean(sorted),
		P50:  nearestRank(sorted, 50),
		P90:  nearestRank(sorted, 90),
		P95:  nearestRank(sorted, 95),
		P99:  nearestRank(sorted, 99),
	}
	stats.StdDev = stdDev(sorted, stats.Mean)
	return stats
}

// nearestRank computes the percentile by indexing into the sorted sample
// with index floor(p/100 * (n-1)). No interpolation: changing this would
// shift expectations at small sample sizes.
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := int(p / 100.0 * float64(n-1))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// stdDev is the sample standard deviation; it requires more than one
// sample and is 0 otherwise.
func stdDev(samples []float64, mean float64) float64 {
	n := len(samples)
	if n <= 1 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// throughput is count / (max(IssuedAt) - min(IssuedAt)), or 0 for empty
// sets and zero time spans.
func throughput(outcomes []RequestOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	minT, maxT := outcomes[0].IssuedAt, outcomes[0].IssuedAt
	for _, o := range outcomes[1:] {
		if o.IssuedAt.Before(minT) {
			minT = o.IssuedAt
		}
		if o.IssuedAt.After(maxT) {
			maxT = o.IssuedAt
		}
	}
	span := maxT.Sub(minT).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(outcomes)) / span
}
