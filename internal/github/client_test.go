package github_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/Entalpic/entaldocs/internal/github"
)

func newTestClient(t *testing.T, handler http.Handler, token string) (*github.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(github.ClientConfig{
		BaseURL:     server.URL,
		Token:       token,
		BackoffBase: time.Millisecond,
	})
	client.WithLimiter(rate.NewLimiter(rate.Inf, 1))
	client.WithSleeper(func(time.Duration) {})
	return client, server
}

func TestFetchTreeStripsPrefixAndSorts(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/repos/acme/boilerplate/contents/boilerplate/docs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("ref = %q, want main", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok_test" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprintf(w, `[
			{"name": "source", "path": "boilerplate/docs/source", "type": "dir"},
			{"name": "Makefile", "path": "boilerplate/docs/Makefile", "type": "file",
			 "download_url": "%s/raw/Makefile"}
		]`, server.URL)
	})
	mux.HandleFunc("/repos/acme/boilerplate/contents/boilerplate/docs/source", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[
			{"name": "conf.py", "path": "boilerplate/docs/source/conf.py", "type": "file",
			 "download_url": "%s/raw/conf.py"}
		]`, server.URL)
	})
	mux.HandleFunc("/raw/Makefile", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "makefile body")
	})
	mux.HandleFunc("/raw/conf.py", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "conf body")
	})

	client, srv := newTestClient(t, mux, "tok_test")
	server = srv

	entries, err := client.FetchTree(context.Background(), "acme/boilerplate", "boilerplate/docs", "main")
	if err != nil {
		t.Fatalf("FetchTree returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("FetchTree returned %d entries, want 2", len(entries))
	}
	if entries[0].Path != "Makefile" || entries[1].Path != "source/conf.py" {
		t.Fatalf("entry paths = %q, %q", entries[0].Path, entries[1].Path)
	}
	if string(entries[1].Body) != "conf body" {
		t.Fatalf("conf.py body = %q", entries[1].Body)
	}
}

func TestFetchTreeNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	client, _ := newTestClient(t, mux, "")

	_, err := client.FetchTree(context.Background(), "acme/missing", "boilerplate/docs", "")
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	if !github.IsNotFound(err) {
		t.Fatalf("IsNotFound = false for %v", err)
	}
}

func TestRequestRetriesOnThrottling(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/boilerplate/contents/docs", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message": "rate limited"}`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	client, _ := newTestClient(t, mux, "")

	entries, err := client.FetchTree(context.Background(), "acme/boilerplate", "docs", "")
	if err != nil {
		t.Fatalf("FetchTree returned error after retries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("FetchTree returned %d entries, want 0", len(entries))
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("server saw %d calls, want 3", got)
	}
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	})

	client, _ := newTestClient(t, mux, "tok_bad")

	_, err := client.FetchTree(context.Background(), "acme/boilerplate", "docs", "")
	if err == nil {
		t.Fatalf("expected authorization error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server saw %d calls, want 1 (no retries on 401)", got)
	}
}

func TestFetchTreeSingleFilePath(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/repos/acme/boilerplate/contents/docs/conf.py", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"name": "conf.py", "path": "docs/conf.py", "type": "file",
			"download_url": "%s/raw/conf.py"}`, server.URL)
	})
	mux.HandleFunc("/raw/conf.py", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "conf body")
	})

	client, srv := newTestClient(t, mux, "")
	server = srv

	entries, err := client.FetchTree(context.Background(), "acme/boilerplate", "docs/conf.py", "")
	if err != nil {
		t.Fatalf("FetchTree returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "conf.py" {
		t.Fatalf("entries = %+v, want single conf.py", entries)
	}
}
