package verse

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func waitDone(t *testing.T, s *Service) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for verse fetch")
	}
}

func TestServiceReady(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		json.NewEncoder(w).Encode(apiResponse{
			Verse:      "Your word is a lamp to my feet and a light to my path.",
			Reference:  "Psalm 119:105",
			Reflection: "Let scripture light the next step.",
		})
	}))
	defer server.Close()

	var states []State
	svc := NewService(Config{URL: server.URL, APIKey: "secret"}, func(st Status) {
		mu.Lock()
		states = append(states, st.State)
		mu.Unlock()
	}, slog.Default())

	if got := svc.Status().State; got != StateLoading {
		t.Fatalf("initial state = %q, want loading", got)
	}

	svc.Start(context.Background())
	waitDone(t, svc)

	st := svc.Status()
	if st.State != StateReady {
		t.Fatalf("state = %q, want ready (error %q)", st.State, st.Error)
	}
	if st.Verse == nil || st.Verse.Reference != "Psalm 119:105" {
		t.Errorf("verse = %+v", st.Verse)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(states) != 1 || states[0] != StateReady {
		t.Errorf("callback states = %v, want [ready]", states)
	}
}

func TestServiceFailedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(Config{URL: server.URL}, nil, slog.Default())
	svc.Start(context.Background())
	waitDone(t, svc)

	st := svc.Status()
	if st.State != StateFailed {
		t.Fatalf("state = %q, want failed", st.State)
	}
	if st.Verse != nil {
		t.Error("failed status should carry no verse")
	}
	if st.Error == "" {
		t.Error("failed status should carry a message")
	}
}

func TestServiceUnreachable(t *testing.T) {
	svc := NewService(Config{URL: "http://127.0.0.1:1", Timeout: time.Second}, nil, slog.Default())
	svc.Start(context.Background())
	waitDone(t, svc)

	if got := svc.Status().State; got != StateFailed {
		t.Errorf("state = %q, want failed", got)
	}
}

func TestServiceIncompletePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"verse":"  ","reference":"John 1:1"}`))
	}))
	defer server.Close()

	svc := NewService(Config{URL: server.URL}, nil, slog.Default())
	if _, err := svc.FetchVerseOfTheDay(context.Background()); err == nil {
		t.Error("expected error for blank verse")
	}
}

func TestServiceFetchesOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte(`{"verse":"v","reference":"r","reflection":""}`))
	}))
	defer server.Close()

	svc := NewService(Config{URL: server.URL}, nil, slog.Default())
	svc.Start(context.Background())
	svc.Start(context.Background())
	waitDone(t, svc)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestServiceNotConfigured(t *testing.T) {
	svc := NewService(Config{}, nil, slog.Default())
	svc.Start(context.Background())
	waitDone(t, svc)

	if got := svc.Status().State; got != StateDisabled {
		t.Errorf("state = %q, want disabled", got)
	}
}
