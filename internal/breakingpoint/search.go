// Package breakingpoint finds the maximum sustainable request rate for an
// endpoint by binary-searching the rate axis with fixed-duration probes.
//
// A probe passes when its success rate stays above a floor and its p95
// latency stays below a ceiling; the breaking point is the highest tested
// rate for which both held.
package breakingpoint

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/metrics"
)

const (
	// DefaultSuccessThreshold is the minimum success rate (percent) for
	// a probe to pass.
	DefaultSuccessThreshold = 95.0

	// DefaultP95Ceiling is the maximum acceptable p95 latency in seconds.
	DefaultP95Ceiling = 2.0

	// DefaultProbeDuration is how long each probe runs.
	DefaultProbeDuration = 15 * time.Second
)

// Prober runs one fixed-duration load probe at a candidate rate and
// summarizes it. Probe must not fail for anything that happens inside the
// run; an error aborts the whole search.
type Prober interface {
	Probe(ctx context.Context, endpoint string, rateRPS int, duration time.Duration) (metrics.RunSummary, error)
}

// Options tunes the pass criteria and probe length. Zero fields fall back
// to the defaults.
type Options struct {
	SuccessThreshold float64
	P95Ceiling       float64
	ProbeDuration    time.Duration
}

func (o Options) withDefaults() Options {
	if o.SuccessThreshold == 0 {
		o.SuccessThreshold = DefaultSuccessThreshold
	}
	if o.P95Ceiling == 0 {
		o.P95Ceiling = DefaultP95Ceiling
	}
	if o.ProbeDuration == 0 {
		o.ProbeDuration = DefaultProbeDuration
	}
	return o
}

// Result is the outcome of one endpoint's breaking-point search.
type Result struct {
	Endpoint            string               `json:"endpoint"`
	BreakingPointRPS    int                  `json:"breaking_point_rps"`
	TargetRPS           int                  `json:"target_rps"`
	TargetMet           bool                 `json:"target_met"`
	SafetyMarginPercent float64              `json:"safety_margin_percent"`
	UseCase             string               `json:"use_case"`
	Priority            string               `json:"priority"`
	Probes              []metrics.RunSummary `json:"probes"`
}

// Finder binary-searches the sustainable-rate axis using a Prober as its
// oracle.
type Finder struct {
	prober Prober
	opts   Options
	log    *logrus.Entry
}

// NewFinder creates a Finder with the given probe oracle and options.
func NewFinder(prober Prober, opts Options) *Finder {
	return &Finder{
		prober: prober,
		opts:   opts.withDefaults(),
		log:    logrus.WithField("component", "breakingpoint"),
	}
}

// Find runs the binary search over [cfg.FloorRPS, cfg.CeilingRPS]. The
// breaking point starts at the floor rate, so a search in which no rate
// ever passes still reports the floor rather than zero. The search checks
// the context between probes only; it never interrupts a probe in flight.
func (f *Finder) Find(ctx context.Context, cfg config.EndpointConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	low, high := cfg.FloorRPS, cfg.CeilingRPS
	breakingPoint := cfg.FloorRPS
	probes := make([]metrics.RunSummary, 0, 8)

	f.log.WithFields(logrus.Fields{
		"endpoint":   cfg.ID,
		"target_rps": cfg.TargetRPS,
		"floor":      low,
		"ceiling":    high,
		"use_case":   cfg.UseCase,
	}).Info("finding breaking point")

	for low <= high {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mid := (low + high) / 2
		summary, err := f.prober.Probe(ctx, cfg.ID, mid, f.opts.ProbeDuration)
		if err != nil {
			return nil, err
		}
		probes = append(probes, summary)

		passed := summary.SuccessRate >= f.opts.SuccessThreshold &&
			summary.Latency.P95 <= f.opts.P95Ceiling

		f.log.WithFields(logrus.Fields{
			"endpoint":     cfg.ID,
			"rate_rps":     mid,
			"success_rate": summary.SuccessRate,
			"p95":          summary.Latency.P95,
			"passed":       passed,
		}).Info("probe complete")

		if passed {
			breakingPoint = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	result := &Result{
		Endpoint:         cfg.ID,
		BreakingPointRPS: breakingPoint,
		TargetRPS:        cfg.TargetRPS,
		TargetMet:        breakingPoint >= cfg.TargetRPS,
		UseCase:          cfg.UseCase,
		Priority:         cfg.Priority,
		Probes:           probes,
	}
	if cfg.TargetRPS > 0 {
		result.SafetyMarginPercent = (float64(breakingPoint)/float64(cfg.TargetRPS) - 1) * 100
	}

	f.log.WithFields(logrus.Fields{
		"endpoint":       cfg.ID,
		"breaking_point": result.BreakingPointRPS,
		"target_rps":     result.TargetRPS,
		"target_met":     result.TargetMet,
		"safety_margin":  result.SafetyMarginPercent,
	}).Info("breaking point analysis complete")

	return result, nil
}
