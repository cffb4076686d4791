package breakingpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/metrics"
)

// oracleProber passes any rate at or below its threshold and fails
// everything above it.
type oracleProber struct {
	passUpTo int
	rates    []int
}

func (o *oracleProber) Probe(_ context.Context, endpoint string, rateRPS int, _ time.Duration) (metrics.RunSummary, error) {
	o.rates = append(o.rates, rateRPS)
	if rateRPS <= o.passUpTo {
		return metrics.RunSummary{
			Endpoint:    endpoint,
			TargetRPS:   rateRPS,
			SuccessRate: 100,
			Latency:     metrics.LatencyStats{P95: 0.120},
		}, nil
	}
	return metrics.RunSummary{
		Endpoint:    endpoint,
		TargetRPS:   rateRPS,
		SuccessRate: 60,
		Latency:     metrics.LatencyStats{P95: 4.5},
	}, nil
}

func testConfig(floor, ceiling, target int) config.EndpointConfig {
	return config.EndpointConfig{
		ID:         "posts",
		TargetRPS:  target,
		FloorRPS:   floor,
		CeilingRPS: ceiling,
		UseCase:    "Main feed",
		Priority:   "HIGH",
	}
}

func quickOptions() Options {
	return Options{ProbeDuration: time.Millisecond}
}

func TestFind_ConvergesToOracleThreshold(t *testing.T) {
	for _, threshold := range []int{20, 77, 150, 299, 300} {
		finder := NewFinder(&oracleProber{passUpTo: threshold}, quickOptions())

		result, err := finder.Find(context.Background(), testConfig(20, 300, 100))
		if err != nil {
			t.Fatalf("threshold %d: unexpected error: %v", threshold, err)
		}
		if result.BreakingPointRPS != threshold {
			t.Errorf("threshold %d: expected breaking point %d, got %d",
				threshold, threshold, result.BreakingPointRPS)
		}
	}
}

func TestFind_ConcreteScenario(t *testing.T) {
	finder := NewFinder(&oracleProber{passUpTo: 150}, quickOptions())

	result, err := finder.Find(context.Background(), testConfig(20, 300, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.BreakingPointRPS != 150 {
		t.Errorf("expected breaking point 150, got %d", result.BreakingPointRPS)
	}
	if !result.TargetMet {
		t.Errorf("expected target 100 to be met at breaking point 150")
	}
	if result.SafetyMarginPercent != 50.0 {
		t.Errorf("expected safety margin 50.0%%, got %f", result.SafetyMarginPercent)
	}
}

func TestFind_NeverPassesReportsFloor(t *testing.T) {
	// An oracle that fails even the floor rate.
	finder := NewFinder(&oracleProber{passUpTo: 0}, quickOptions())

	result, err := finder.Find(context.Background(), testConfig(20, 300, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.BreakingPointRPS != 20 {
		t.Errorf("expected floor rate 20 as breaking point, got %d", result.BreakingPointRPS)
	}
	if result.TargetMet {
		t.Errorf("expected target unmet when nothing passed")
	}
	if result.SafetyMarginPercent != -80.0 {
		t.Errorf("expected safety margin -80.0%%, got %f", result.SafetyMarginPercent)
	}
}

func TestFind_FloorEqualsCeilingSingleProbe(t *testing.T) {
	oracle := &oracleProber{passUpTo: 50}
	finder := NewFinder(oracle, quickOptions())

	result, err := finder.Find(context.Background(), testConfig(50, 50, 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(oracle.rates) != 1 {
		t.Fatalf("expected exactly one probe, got %d", len(oracle.rates))
	}
	if oracle.rates[0] != 50 {
		t.Errorf("expected the single probe at rate 50, got %d", oracle.rates[0])
	}
	if result.BreakingPointRPS != 50 {
		t.Errorf("expected breaking point 50, got %d", result.BreakingPointRPS)
	}
}

func TestFind_RetainsProbeSummariesInOrder(t *testing.T) {
	oracle := &oracleProber{passUpTo: 150}
	finder := NewFinder(oracle, quickOptions())

	result, err := finder.Find(context.Background(), testConfig(20, 300, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Probes) != len(oracle.rates) {
		t.Fatalf("expected %d retained probe summaries, got %d",
			len(oracle.rates), len(result.Probes))
	}
	for i, summary := range result.Probes {
		if summary.TargetRPS != oracle.rates[i] {
			t.Errorf("probe %d: expected rate %d, got %d", i, oracle.rates[i], summary.TargetRPS)
		}
	}
}

func TestFind_InvalidConfig(t *testing.T) {
	finder := NewFinder(&oracleProber{passUpTo: 100}, quickOptions())

	// Floor above ceiling cannot be searched.
	if _, err := finder.Find(context.Background(), testConfig(200, 100, 50)); err == nil {
		t.Errorf("expected error for floor > ceiling")
	}
	if _, err := finder.Find(context.Background(), testConfig(0, 100, 50)); err == nil {
		t.Errorf("expected error for zero floor rate")
	}
}

func TestFind_ProberErrorAbortsSearch(t *testing.T) {
	probeErr := errors.New("probe blew up")
	finder := NewFinder(failingProber{err: probeErr}, quickOptions())

	_, err := finder.Find(context.Background(), testConfig(20, 300, 100))
	if !errors.Is(err, probeErr) {
		t.Errorf("expected the probe error to surface, got %v", err)
	}
}

func TestFind_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finder := NewFinder(&oracleProber{passUpTo: 100}, quickOptions())
	if _, err := finder.Find(ctx, testConfig(20, 300, 100)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type failingProber struct {
	err error
}

func (f failingProber) Probe(context.Context, string, int, time.Duration) (metrics.RunSummary, error) {
	return metrics.RunSummary{}, f.err
}
