package breakingpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/studiowebux/apiprobe/internal/client"
	"github.com/studiowebux/apiprobe/internal/loadgen"
	"github.com/studiowebux/apiprobe/internal/metrics"
	"github.com/studiowebux/apiprobe/internal/testdata"
)

// EndpointProber probes JSONPlaceholder endpoints through the load
// generator. Each probe gets a fresh collector so runs never contaminate
// each other's statistics.
type EndpointProber struct {
	client *client.JSONPlaceholderClient
	gen    *testdata.Generator
}

// NewEndpointProber creates a prober over the given API client. The
// generator supplies bodies for creation operations.
func NewEndpointProber(c *client.JSONPlaceholderClient, gen *testdata.Generator) *EndpointProber {
	return &EndpointProber{client: c, gen: gen}
}

// Healthy reports whether the target API answers at all. Consulted once
// before a full analysis.
func (p *EndpointProber) Healthy(ctx context.Context) bool {
	return p.client.Health(ctx)
}

// Probe runs the endpoint's operation at the candidate rate for the
// given duration and returns the run summary.
func (p *EndpointProber) Probe(ctx context.Context, endpoint string, rateRPS int, duration time.Duration) (metrics.RunSummary, error) {
	scheduler := loadgen.New(metrics.NewCollector())
	return scheduler.Run(ctx, p.operation(endpoint), rateRPS, duration), nil
}

// operation maps an endpoint identifier to the call exercising it.
// Unknown identifiers fall back to the posts listing.
func (p *EndpointProber) operation(endpoint string) loadgen.Operation {
	op := loadgen.Operation{Endpoint: endpoint, Method: http.MethodGet}

	switch endpoint {
	case "users":
		op.Call = func(ctx context.Context, _ int) (int, error) {
			status, _, _, err := p.client.GetUsers(ctx)
			return status, err
		}
	case "comments":
		op.Call = func(ctx context.Context, _ int) (int, error) {
			status, _, _, err := p.client.GetComments(ctx, 0)
			return status, err
		}
	case "single_post":
		// Cycle through posts 1-100.
		op.Call = func(ctx context.Context, seq int) (int, error) {
			status, _, _, err := p.client.GetPost(ctx, (seq%100)+1)
			return status, err
		}
	case "single_user":
		// Cycle through users 1-10.
		op.Call = func(ctx context.Context, seq int) (int, error) {
			status, _, _, err := p.client.GetUser(ctx, (seq%10)+1)
			return status, err
		}
	case "create_post":
		op.Method = http.MethodPost
		op.Call = func(ctx context.Context, _ int) (int, error) {
			status, _, _, err := p.client.CreatePost(ctx, p.gen.Post(0, nil))
			return status, err
		}
	default:
		op.Call = func(ctx context.Context, _ int) (int, error) {
			status, _, _, err := p.client.GetPosts(ctx, 0)
			return status, err
		}
	}

	return op
}
