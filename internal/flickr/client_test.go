package flickr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func photoListJSON(n int) string {
	var b strings.Builder
	b.WriteString(`{"photos":{"photo":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b,
			`{"title":"photo %d","description":{"_content":"desc %d"},"datetaken":"2018-05-0%d 10:00:00","ownername":"owner %d","owner":"o%d","url_t":"https://t/%d.jpg","url_c":"https://c/%d.jpg"}`,
			i, i, i%9+1, i, i, i, i)
	}
	b.WriteString(`]},"stat":"ok"}`)
	return b.String()
}

func TestFetchInterestingReturnsDistinctSample(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, photoListJSON(120))
	}))
	defer ts.Close()

	c := NewClient("k", ts.URL, 120)
	photos, err := c.FetchInteresting(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchInteresting() error = %v", err)
	}
	if len(photos) != 100 {
		t.Fatalf("len(photos) = %d, want 100", len(photos))
	}

	seen := make(map[string]bool, len(photos))
	for _, p := range photos {
		if seen[p.Title] {
			t.Fatalf("duplicate photo in sample: %q", p.Title)
		}
		seen[p.Title] = true
		if p.OwnerName == "" || p.DateTaken == "" || p.LargeURL == "" {
			t.Fatalf("incomplete projection: %+v", p)
		}
	}

	if got := gotQuery["method"]; len(got) != 1 || got[0] != "flickr.interestingness.getList" {
		t.Fatalf("method = %v, want interestingness list", got)
	}
	if got := gotQuery["nojsoncallback"]; len(got) != 1 || got[0] != "1" {
		t.Fatalf("nojsoncallback = %v, want 1", got)
	}
	if got := gotQuery["per_page"]; len(got) != 1 || got[0] != "120" {
		t.Fatalf("per_page = %v, want 120", got)
	}
	if got := gotQuery["extras"]; len(got) != 1 || !strings.Contains(got[0], "owner_name") {
		t.Fatalf("extras = %v, want owner_name included", got)
	}
}

func TestFetchForUserSendsUserID(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, photoListJSON(10))
	}))
	defer ts.Close()

	c := NewClient("k", ts.URL, 100)
	photos, err := c.FetchForUser(context.Background(), 3, "12345@N00")
	if err != nil {
		t.Fatalf("FetchForUser() error = %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("len(photos) = %d, want 3", len(photos))
	}
	if got := gotQuery["method"]; len(got) != 1 || got[0] != "flickr.people.getPublicPhotos" {
		t.Fatalf("method = %v, want user public photos", got)
	}
	if got := gotQuery["user_id"]; len(got) != 1 || got[0] != "12345@N00" {
		t.Fatalf("user_id = %v, want 12345@N00", got)
	}
}

func TestFetchForUserRejectsEmptyUserID(t *testing.T) {
	c := NewClient("k", "http://unused", 100)
	if _, err := c.FetchForUser(context.Background(), 1, ""); err == nil {
		t.Fatalf("FetchForUser() should reject empty user id")
	}
}

func TestFetchUpstreamStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient("k", ts.URL, 100)
	_, err := c.FetchInteresting(context.Background(), 5)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestFetchMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stat":"fail","code":100,"message":"Invalid API Key"}`)
	}))
	defer ts.Close()

	c := NewClient("bad", ts.URL, 100)
	_, err := c.FetchInteresting(context.Background(), 5)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchInsufficientCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, photoListJSON(4))
	}))
	defer ts.Close()

	c := NewClient("k", ts.URL, 100)
	_, err := c.FetchInteresting(context.Background(), 5)
	if !errors.Is(err, ErrInsufficientCandidates) {
		t.Fatalf("error = %v, want ErrInsufficientCandidates", err)
	}
}

func TestProjectMissingDescription(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"photos":{"photo":[{"title":"bare","datetaken":"2018-01-01 00:00:00","ownername":"o","owner":"oid","url_t":"https://t/x.jpg","url_c":"https://c/x.jpg"}]},"stat":"ok"}`)
	}))
	defer ts.Close()

	c := NewClient("k", ts.URL, 100)
	photos, err := c.FetchInteresting(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchInteresting() error = %v", err)
	}
	if photos[0].Description != "" {
		t.Fatalf("Description = %q, want empty", photos[0].Description)
	}
	if photos[0].Title != "bare" {
		t.Fatalf("Title = %q, want bare", photos[0].Title)
	}
}
