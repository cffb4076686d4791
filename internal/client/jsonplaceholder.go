package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DefaultJSONPlaceholderURL is the public JSONPlaceholder instance.
const DefaultJSONPlaceholderURL = "https://jsonplaceholder.typicode.com"

// JSONPlaceholderClient wraps the JSONPlaceholder demo API.
type JSONPlaceholderClient struct {
	*Client
}

// NewJSONPlaceholder creates a JSONPlaceholder client. An empty baseURL
// selects the public instance.
func NewJSONPlaceholder(baseURL string, opts Options) *JSONPlaceholderClient {
	if baseURL == "" {
		baseURL = DefaultJSONPlaceholderURL
	}
	return &JSONPlaceholderClient{Client: New(baseURL, opts)}
}

// GetPosts returns all posts, or only the given user's posts when
// userID > 0.
func (c *JSONPlaceholderClient) GetPosts(ctx context.Context, userID int) (int, any, time.Duration, error) {
	var query url.Values
	if userID > 0 {
		query = url.Values{"userId": []string{strconv.Itoa(userID)}}
	}
	return c.Get(ctx, "/posts", query)
}

// GetPost returns one post by id.
func (c *JSONPlaceholderClient) GetPost(ctx context.Context, id int) (int, any, time.Duration, error) {
	return c.Get(ctx, fmt.Sprintf("/posts/%d", id), nil)
}

// CreatePost creates a new post.
func (c *JSONPlaceholderClient) CreatePost(ctx context.Context, post map[string]any) (int, any, time.Duration, error) {
	return c.Post(ctx, "/posts", post)
}

// UpdatePost replaces a post.
func (c *JSONPlaceholderClient) UpdatePost(ctx context.Context, id int, post map[string]any) (int, any, time.Duration, error) {
	return c.Put(ctx, fmt.Sprintf("/posts/%d", id), post)
}

// DeletePost deletes a post.
func (c *JSONPlaceholderClient) DeletePost(ctx context.Context, id int) (int, any, time.Duration, error) {
	return c.Delete(ctx, fmt.Sprintf("/posts/%d", id))
}

// GetUsers returns all users.
func (c *JSONPlaceholderClient) GetUsers(ctx context.Context) (int, any, time.Duration, error) {
	return c.Get(ctx, "/users", nil)
}

// GetUser returns one user by id.
func (c *JSONPlaceholderClient) GetUser(ctx context.Context, id int) (int, any, time.Duration, error) {
	return c.Get(ctx, fmt.Sprintf("/users/%d", id), nil)
}

// GetComments returns all comments, or only one post's comments when
// postID > 0.
func (c *JSONPlaceholderClient) GetComments(ctx context.Context, postID int) (int, any, time.Duration, error) {
	if postID > 0 {
		return c.Get(ctx, fmt.Sprintf("/posts/%d/comments", postID), nil)
	}
	return c.Get(ctx, "/comments", nil)
}
