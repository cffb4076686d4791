package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DefaultGoRestURL is the public GoRest v2 API.
const DefaultGoRestURL = "https://gorest.co.in/public/v2"

// GoRestClient wraps the GoRest API behind a ReqRes-compatible surface:
// paginated user listing, lookup, create, update and delete.
type GoRestClient struct {
	*Client
}

// NewGoRest creates a GoRest client. The token is sent as a bearer
// Authorization header on every request; supplying it is configuration,
// not an authentication flow.
func NewGoRest(baseURL, token string, opts Options) *GoRestClient {
	if baseURL == "" {
		baseURL = DefaultGoRestURL
	}
	if token != "" {
		if opts.Headers == nil {
			opts.Headers = make(map[string]string)
		}
		opts.Headers["Authorization"] = "Bearer " + token
	}
	return &GoRestClient{Client: New(baseURL, opts)}
}

// GetUsers returns one page of users.
func (c *GoRestClient) GetUsers(ctx context.Context, page, perPage int) (int, any, time.Duration, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 6
	}
	query := url.Values{
		"page":     []string{strconv.Itoa(page)},
		"per_page": []string{strconv.Itoa(perPage)},
	}
	return c.Get(ctx, "/users", query)
}

// GetUser returns one user by id.
func (c *GoRestClient) GetUser(ctx context.Context, id int) (int, any, time.Duration, error) {
	return c.Get(ctx, fmt.Sprintf("/users/%d", id), nil)
}

// CreateUser creates a user.
func (c *GoRestClient) CreateUser(ctx context.Context, user map[string]any) (int, any, time.Duration, error) {
	return c.Post(ctx, "/users", user)
}

// UpdateUser replaces a user.
func (c *GoRestClient) UpdateUser(ctx context.Context, id int, user map[string]any) (int, any, time.Duration, error) {
	return c.Put(ctx, fmt.Sprintf("/users/%d", id), user)
}

// DeleteUser deletes a user.
func (c *GoRestClient) DeleteUser(ctx context.Context, id int) (int, any, time.Duration, error) {
	return c.Delete(ctx, fmt.Sprintf("/users/%d", id))
}
