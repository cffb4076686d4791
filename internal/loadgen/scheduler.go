// Package loadgen implements a rate-controlled concurrent load generator.
//
// The scheduler issues one unit of work per computed time slot at a fixed
// target rate. Pacing is computed from the run's start time, never from the
// completion of prior calls, so slow responses cannot accumulate drift. An
// admission gate bounds the number of units in flight, and completed units
// are drained in batches so that long runs do not grow memory without bound.
package loadgen

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/studiowebux/apiprobe/internal/metrics"
)

const (
	// batchSize is how many dispatches happen between drains of
	// completed units.
	batchSize = 50

	// maxInFlight caps the admission gate regardless of rate, so a burst
	// of slow responses cannot open unbounded concurrent connections.
	maxInFlight = 100
)

// CallFunc performs one logical operation against the system under test
// and reports the resulting HTTP status. Transport-level failures are
// returned as errors. The sequence number lets an operation cycle through
// sub-resources across calls.
type CallFunc func(ctx context.Context, seq int) (status int, err error)

// Operation binds an endpoint identifier to the call that exercises it.
// Which sub-resource a call selects (for example post id (seq mod 100)+1)
// is a property of the operation, not of the scheduler.
type Operation struct {
	Endpoint string
	Method   string
	Call     CallFunc
}

// Scheduler paces calls at a target rate and streams their outcomes into
// a metrics collector.
type Scheduler struct {
	collector *metrics.Collector
	log       *logrus.Entry
}

// New creates a scheduler recording into the given collector.
func New(collector *metrics.Collector) *Scheduler {
	return &Scheduler{
		collector: collector,
		log:       logrus.WithField("component", "loadgen"),
	}
}

// Run issues round(rate * duration) calls paced at the target rate and
// returns the run's summary. Individual call failures are recorded as
// failed outcomes and never abort the run; a run that produces no
// outcomes at all reports 0% success and 100% error rather than failing.
//
// Cancelling the context stops dispatching; units already in flight are
// drained before Run returns.
func (s *Scheduler) Run(ctx context.Context, op Operation, rateRPS int, duration time.Duration) metrics.RunSummary {
	if rateRPS <= 0 || duration <= 0 {
		return metrics.FailedSummary(op.Endpoint, rateRPS, 0)
	}

	interval := time.Duration(float64(time.Second) / float64(rateRPS))
	totalCalls := int(math.Round(float64(rateRPS) * duration.Seconds()))

	capacity := int64(rateRPS * 2)
	if capacity > maxInFlight {
		capacity = maxInFlight
	}
	gate := semaphore.NewWeighted(capacity)

	s.log.WithFields(logrus.Fields{
		"endpoint":    op.Endpoint,
		"rate_rps":    rateRPS,
		"duration":    duration,
		"total_calls": totalCalls,
		"in_flight":   capacity,
	}).Info("starting rate-controlled run")

	s.collector.Start()
	start := time.Now()

	var inFlight sync.WaitGroup

dispatch:
	for i := 0; i < totalCalls; i++ {
		// Fixed-origin pacing: each call's slot is derived from the run
		// start, so a slow call never delays the slots after it.
		target := start.Add(time.Duration(i) * interval)
		if wait := time.Until(target); wait > 0 {
			select {
			case <-ctx.Done():
				break dispatch
			case <-time.After(wait):
			}
		} else if ctx.Err() != nil {
			break dispatch
		}

		inFlight.Add(1)
		go s.dispatchCall(ctx, op, i, gate, &inFlight)

		// Await the outstanding batch before scheduling continues.
		if (i+1)%batchSize == 0 {
			inFlight.Wait()
		}
	}

	// Drain any units still in flight, including after an abort.
	inFlight.Wait()
	s.collector.Stop()

	summary := s.collector.Summarize(op.Endpoint, rateRPS)
	if summary.TotalRequests == 0 {
		return metrics.FailedSummary(op.Endpoint, rateRPS, totalCalls)
	}

	s.log.WithFields(logrus.Fields{
		"endpoint":     op.Endpoint,
		"rate_rps":     rateRPS,
		"actual_rps":   summary.ActualRPS,
		"total":        summary.TotalRequests,
		"success_rate": summary.SuccessRate,
	}).Info("run complete")

	return summary
}

// dispatchCall runs one unit of work: admission, call, outcome recording.
func (s *Scheduler) dispatchCall(ctx context.Context, op Operation, seq int, gate *semaphore.Weighted, inFlight *sync.WaitGroup) {
	defer inFlight.Done()
	defer func() {
		// A unit that blows up past the call boundary is dropped rather
		// than recorded.
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{
				"endpoint": op.Endpoint,
				"sequence": seq,
				"panic":    r,
			}).Debug("dropping panicked unit of work")
		}
	}()

	if err := gate.Acquire(ctx, 1); err != nil {
		// Aborted while waiting for admission.
		s.collector.Record(metrics.NewOutcome(seq, op.Endpoint, op.Method, 0, 0, time.Now(), err))
		return
	}
	defer gate.Release(1)

	issuedAt := time.Now()
	status, err := op.Call(ctx, seq)
	elapsed := time.Since(issuedAt)

	s.collector.Record(metrics.NewOutcome(seq, op.Endpoint, op.Method, status, elapsed, issuedAt, err))
}
