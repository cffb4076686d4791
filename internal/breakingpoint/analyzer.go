package breakingpoint

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studiowebux/apiprobe/internal/config"
)

// ErrConnectivity is returned when the pre-flight health check fails and
// the whole analysis is refused up front.
var ErrConnectivity = errors.New("api connectivity check failed")

// analysisPause separates consecutive endpoint searches so one search's
// tail load cannot contaminate the next one's measurements.
const analysisPause = 2 * time.Second

// defaultAnalysisEndpoints is the fixed set of endpoint identifiers a
// full analysis covers.
var defaultAnalysisEndpoints = []string{"posts", "users", "single_post", "single_user", "create_post"}

// HealthFunc is the connectivity probe consulted before an analysis.
type HealthFunc func(ctx context.Context) bool

// AnalysisReport holds the per-endpoint results of a full analysis.
// Endpoints whose search failed appear in Errors instead of Results.
type AnalysisReport struct {
	Results map[string]*Result `json:"results"`
	Errors  map[string]string  `json:"errors,omitempty"`
}

// Analyzer runs breaking-point searches across a fixed set of endpoints.
type Analyzer struct {
	finder    *Finder
	health    HealthFunc
	configs   map[string]config.EndpointConfig
	endpoints []string
	pause     time.Duration
	log       *logrus.Entry
}

// NewAnalyzer creates an analyzer over the default endpoint set. Nil
// configs fall back to the built-in endpoint configurations.
func NewAnalyzer(finder *Finder, health HealthFunc, configs map[string]config.EndpointConfig) *Analyzer {
	if configs == nil {
		configs = config.DefaultEndpoints()
	}
	return &Analyzer{
		finder:    finder,
		health:    health,
		configs:   configs,
		endpoints: defaultAnalysisEndpoints,
		pause:     analysisPause,
		log:       logrus.WithField("component", "analyzer"),
	}
}

// Run executes the breaking-point search for every configured endpoint.
// The connectivity probe is consulted once up front; if it fails the
// analysis is refused as a whole. After that, each endpoint's search is
// independent: a failing search becomes an error entry and its siblings
// continue. Only context cancellation aborts the remaining searches.
func (a *Analyzer) Run(ctx context.Context) (*AnalysisReport, error) {
	if !a.health(ctx) {
		return nil, ErrConnectivity
	}

	a.log.WithField("endpoints", len(a.endpoints)).Info("starting breaking point analysis")

	report := &AnalysisReport{
		Results: make(map[string]*Result, len(a.endpoints)),
		Errors:  make(map[string]string),
	}

	for i, endpoint := range a.endpoints {
		cfg := config.LookupEndpoint(a.configs, endpoint)

		result, err := a.finder.Find(ctx, cfg)
		switch {
		case err != nil && ctx.Err() != nil:
			return report, ctx.Err()
		case err != nil:
			a.log.WithField("endpoint", endpoint).WithError(err).Error("endpoint search failed")
			report.Errors[endpoint] = err.Error()
		default:
			report.Results[endpoint] = result
		}

		// Brief pause between searches, skipped after the last one.
		if i < len(a.endpoints)-1 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(a.pause):
			}
		}
	}

	return report, nil
}
