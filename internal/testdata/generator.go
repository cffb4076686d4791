// Package testdata generates realistic synthetic payloads for the
// functional and load-testing suites, and tracks what a test session has
// created so cleanup can be asserted against.
package testdata

import (
	"fmt"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Generator produces fake users, posts and comments, and remembers
// everything generated in one session.
type Generator struct {
	mu        sync.Mutex
	sessionID string
	faker     *gofakeit.Faker
	users     []map[string]any
	posts     []map[string]any
	comments  []map[string]any
	log       *logrus.Entry
}

// New creates a generator with a fresh session id.
func New() *Generator {
	sessionID := uuid.NewString()
	return &Generator{
		sessionID: sessionID,
		faker:     gofakeit.New(0),
		log:       logrus.WithFields(logrus.Fields{"component": "testdata", "session": sessionID}),
	}
}

// NewSeeded creates a generator producing a deterministic sequence,
// for tests that need reproducible data.
func NewSeeded(seed uint64) *Generator {
	g := New()
	g.faker = gofakeit.New(seed)
	return g
}

// SessionID returns the unique identifier of this test session.
func (g *Generator) SessionID() string {
	return g.sessionID
}

// User generates a JSONPlaceholder-shaped user record. Overrides replace
// generated top-level fields.
func (g *Generator) User(overrides map[string]any) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	user := map[string]any{
		"name":     g.faker.Name(),
		"username": g.faker.Username(),
		"email":    g.faker.Email(),
		"phone":    g.faker.Phone(),
		"website":  g.faker.URL(),
		"company": map[string]any{
			"name":        g.faker.Company(),
			"catchPhrase": g.faker.Slogan(),
			"bs":          g.faker.BuzzWord(),
		},
		"address": map[string]any{
			"street":  g.faker.Street(),
			"suite":   fmt.Sprintf("Suite %d", g.faker.Number(1, 999)),
			"city":    g.faker.City(),
			"zipcode": g.faker.Zip(),
			"geo": map[string]any{
				"lat": fmt.Sprintf("%.4f", g.faker.Latitude()),
				"lng": fmt.Sprintf("%.4f", g.faker.Longitude()),
			},
		},
	}
	applyOverrides(user, overrides)
	g.users = append(g.users, user)
	return user
}

// Post generates a post for the given user. userID 0 picks a random
// existing JSONPlaceholder user (1-10).
func (g *Generator) Post(userID int, overrides map[string]any) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	if userID <= 0 {
		userID = g.faker.Number(1, 10)
	}
	post := map[string]any{
		"title":  g.faker.Sentence(6),
		"body":   g.faker.Paragraph(1, 3, 12, " "),
		"userId": userID,
	}
	applyOverrides(post, overrides)
	g.posts = append(g.posts, post)
	return post
}

// Comment generates a comment for the given post. postID 0 picks a
// random existing JSONPlaceholder post (1-100).
func (g *Generator) Comment(postID int, overrides map[string]any) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	if postID <= 0 {
		postID = g.faker.Number(1, 100)
	}
	comment := map[string]any{
		"name":   g.faker.Sentence(4),
		"email":  g.faker.Email(),
		"body":   g.faker.Paragraph(1, 2, 10, " "),
		"postId": postID,
	}
	applyOverrides(comment, overrides)
	g.comments = append(g.comments, comment)
	return comment
}

// Created returns how many users, posts and comments this session
// generated.
func (g *Generator) Created() (users, posts, comments int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.users), len(g.posts), len(g.comments)
}

// Reset forgets everything generated so far, keeping the session id.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users = nil
	g.posts = nil
	g.comments = nil
	g.log.Debug("cleared generated test data")
}

func applyOverrides(record, overrides map[string]any) {
	for key, value := range overrides {
		record[key] = value
	}
}
