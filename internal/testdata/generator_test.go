package testdata

import (
	"strings"
	"testing"
)

func TestUser_Shape(t *testing.T) {
	g := New()
	user := g.User(nil)

	for _, field := range []string{"name", "username", "email", "phone", "website", "company", "address"} {
		if _, ok := user[field]; !ok {
			t.Errorf("expected field %q", field)
		}
	}

	address, ok := user["address"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested address object, got %T", user["address"])
	}
	geo, ok := address["geo"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested geo object, got %T", address["geo"])
	}
	if geo["lat"] == "" || geo["lng"] == "" {
		t.Errorf("expected coordinates, got %v", geo)
	}
	if !strings.Contains(user["email"].(string), "@") {
		t.Errorf("expected an email address, got %v", user["email"])
	}
}

func TestPost_UserIDHandling(t *testing.T) {
	g := New()

	post := g.Post(7, nil)
	if post["userId"] != 7 {
		t.Errorf("expected explicit user id 7, got %v", post["userId"])
	}

	random := g.Post(0, nil)
	id, ok := random["userId"].(int)
	if !ok || id < 1 || id > 10 {
		t.Errorf("expected a random user id in [1,10], got %v", random["userId"])
	}
}

func TestComment_PostIDHandling(t *testing.T) {
	g := New()

	comment := g.Comment(55, nil)
	if comment["postId"] != 55 {
		t.Errorf("expected explicit post id 55, got %v", comment["postId"])
	}

	random := g.Comment(0, nil)
	id, ok := random["postId"].(int)
	if !ok || id < 1 || id > 100 {
		t.Errorf("expected a random post id in [1,100], got %v", random["postId"])
	}
}

func TestOverrides(t *testing.T) {
	g := New()
	post := g.Post(1, map[string]any{"title": "fixed title", "extra": true})

	if post["title"] != "fixed title" {
		t.Errorf("expected the override to win, got %v", post["title"])
	}
	if post["extra"] != true {
		t.Errorf("expected extra fields to pass through")
	}
	if post["userId"] != 1 {
		t.Errorf("expected untouched fields to remain, got %v", post["userId"])
	}
}

func TestCreatedTrackingAndReset(t *testing.T) {
	g := New()
	g.User(nil)
	g.User(nil)
	g.Post(1, nil)
	g.Comment(1, nil)

	users, posts, comments := g.Created()
	if users != 2 || posts != 1 || comments != 1 {
		t.Errorf("expected 2/1/1, got %d/%d/%d", users, posts, comments)
	}

	session := g.SessionID()
	g.Reset()
	users, posts, comments = g.Created()
	if users != 0 || posts != 0 || comments != 0 {
		t.Errorf("expected empty tracking after reset, got %d/%d/%d", users, posts, comments)
	}
	if g.SessionID() != session {
		t.Errorf("expected the session id to survive a reset")
	}
}

func TestSessionIDs_Unique(t *testing.T) {
	if New().SessionID() == New().SessionID() {
		t.Errorf("expected distinct session ids per generator")
	}
}

func TestNewSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(1)
	b := NewSeeded(1)

	if a.User(nil)["name"] != b.User(nil)["name"] {
		t.Errorf("expected identical sequences for the same seed")
	}
	if a.Post(1, nil)["title"] != b.Post(1, nil)["title"] {
		t.Errorf("expected identical post sequences for the same seed")
	}
}
