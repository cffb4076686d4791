package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// EndpointConfig describes the search space for one endpoint's
// breaking-point analysis.
type EndpointConfig struct {
	ID         string `json:"-"`
	TargetRPS  int    `json:"target_rps"`
	FloorRPS   int    `json:"start_rate"`
	CeilingRPS int    `json:"max_test_rate"`
	UseCase    string `json:"use_case"`
	Priority   string `json:"priority"`
}

// DefaultEndpoints returns the built-in endpoint configurations, keyed by
// endpoint identifier. Rates reflect the expected performance
// characteristics of each operation class.
func DefaultEndpoints() map[string]EndpointConfig {
	return map[string]EndpointConfig{
		"posts": {
			ID:         "posts",
			TargetRPS:  100,
			FloorRPS:   20,
			CeilingRPS: 300,
			UseCase:    "Content retrieval",
			Priority:   "HIGH",
		},
		"users": {
			ID:         "users",
			TargetRPS:  50,
			FloorRPS:   10,
			CeilingRPS: 150,
			UseCase:    "User management",
			Priority:   "HIGH",
		},
		"comments": {
			ID:         "comments",
			TargetRPS:  30,
			FloorRPS:   5,
			CeilingRPS: 100,
			UseCase:    "Comment retrieval",
			Priority:   "MEDIUM",
		},
		"create_post": {
			ID:         "create_post",
			TargetRPS:  20,
			FloorRPS:   3,
			CeilingRPS: 60,
			UseCase:    "Data creation",
			Priority:   "MEDIUM",
		},
	}
}

// LookupEndpoint returns the configuration for an endpoint identifier,
// falling back to the posts configuration for identifiers without a
// dedicated entry (single_post, single_user and friends share the posts
// search space).
func LookupEndpoint(configs map[string]EndpointConfig, id string) EndpointConfig {
	if cfg, ok := configs[id]; ok {
		return cfg
	}
	cfg := configs["posts"]
	cfg.ID = id
	return cfg
}

// LoadEndpointsFile loads endpoint configurations from a JSONC file
// (JSON with comments) and validates each entry.
func LoadEndpointsFile(path string) (map[string]EndpointConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file: %w", err)
	}

	var configs map[string]EndpointConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &configs); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints file: %w", err)
	}

	for id, cfg := range configs {
		cfg.ID = id
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", id, err)
		}
		configs[id] = cfg
	}

	return configs, nil
}

// Validate enforces the search-space invariants.
func (c *EndpointConfig) Validate() error {
	if c.TargetRPS <= 0 {
		return fmt.Errorf("target rps must be greater than 0")
	}
	if c.FloorRPS <= 0 {
		return fmt.Errorf("start rate must be greater than 0")
	}
	if c.FloorRPS > c.CeilingRPS {
		return fmt.Errorf("start rate %d exceeds max test rate %d", c.FloorRPS, c.CeilingRPS)
	}
	return nil
}
