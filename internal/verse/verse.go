// Package verse fetches the verse of the day shown on the dashboard card.
package verse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/lightfamily/internal/model"
)

// Config holds verse provider configuration from environment variables.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// State is the lifecycle of the one verse fetch.
type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateFailed   State = "failed"
	StateDisabled State = "disabled"
)

// Status is what the verse card renders.
type Status struct {
	State State                `json:"state"`
	Verse *model.VerseOfTheDay `json:"verse,omitempty"`
	Error string               `json:"error,omitempty"`
}

// StatusCallback is called whenever the provider state changes.
type StatusCallback func(Status)

// Service fetches the verse once per process start and remembers the outcome.
type Service struct {
	url      string
	apiKey   string
	client   *http.Client
	callback StatusCallback
	logger   *slog.Logger

	mu     sync.RWMutex
	status Status

	once sync.Once
	done chan struct{}
}

// NewService creates a verse service. With no URL configured it stays disabled.
func NewService(cfg Config, callback StatusCallback, logger *slog.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	s := &Service{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		callback: callback,
		logger:   logger,
		status:   Status{State: StateLoading},
		done:     make(chan struct{}),
	}
	if cfg.URL == "" {
		s.status.State = StateDisabled
	}
	return s
}

// Start launches the single background fetch. Later calls do nothing.
func (s *Service) Start(ctx context.Context) {
	s.once.Do(func() {
		if s.Status().State == StateDisabled {
			close(s.done)
			return
		}
		go func() {
			defer close(s.done)
			s.load(ctx)
		}()
	})
}

// Done is closed once the startup fetch has finished or was skipped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Status returns the current provider state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	if st.Verse != nil {
		v := *st.Verse
		st.Verse = &v
	}
	return st
}

func (s *Service) load(ctx context.Context) {
	v, err := s.FetchVerseOfTheDay(ctx)
	if err != nil {
		s.logger.Warn("verse fetch failed", "error", err)
		s.setStatus(Status{State: StateFailed, Error: "The verse of the day could not be loaded."})
		return
	}
	s.logger.Info("verse loaded", "reference", v.Reference)
	s.setStatus(Status{State: StateReady, Verse: &v})
}

func (s *Service) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()

	if s.callback != nil {
		s.callback(st)
	}
}

type apiResponse struct {
	Verse      string `json:"verse"`
	Reference  string `json:"reference"`
	Reflection string `json:"reflection"`
}

// FetchVerseOfTheDay asks the configured provider for today's verse.
func (s *Service) FetchVerseOfTheDay(ctx context.Context) (model.VerseOfTheDay, error) {
	if s.url == "" {
		return model.VerseOfTheDay{}, errors.New("verse provider not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return model.VerseOfTheDay{}, fmt.Errorf("build verse request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return model.VerseOfTheDay{}, fmt.Errorf("verse API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.VerseOfTheDay{}, fmt.Errorf("verse API returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiResp); err != nil {
		return model.VerseOfTheDay{}, fmt.Errorf("decode verse response: %w", err)
	}

	v := model.VerseOfTheDay{
		Verse:      strings.TrimSpace(apiResp.Verse),
		Reference:  strings.TrimSpace(apiResp.Reference),
		Reflection: strings.TrimSpace(apiResp.Reflection),
	}
	if v.Verse == "" || v.Reference == "" {
		return model.VerseOfTheDay{}, errors.New("verse response missing verse or reference")
	}
	return v, nil
}
