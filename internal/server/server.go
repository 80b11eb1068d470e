package server

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/lightfamily/internal/handler"
	"github.com/dukerupert/lightfamily/internal/metrics"
	"github.com/dukerupert/lightfamily/internal/middleware"
	"github.com/dukerupert/lightfamily/internal/tracker"
	"github.com/dukerupert/lightfamily/internal/verse"
	ws "github.com/dukerupert/lightfamily/internal/websocket"
	"github.com/dukerupert/lightfamily/web"
	"github.com/prometheus/client_golang/prometheus"
)

// Server wires the handlers to routes.
type Server struct {
	hub             *ws.Hub
	familyMemberH   *handler.FamilyMemberHandler
	reflectionH     *handler.ReflectionHandler
	templateHandler *handler.TemplateHandler
	summaryH        http.HandlerFunc
	verseH          http.HandlerFunc
	rateLimiter     *middleware.RateLimiter
	rateLimit       int
	gatherer        prometheus.Gatherer
	logger          *slog.Logger
}

// Config holds the knobs the router needs beyond its collaborators.
type Config struct {
	// Write requests allowed per client per minute.
	RateLimitPerMinute int
	Gatherer           prometheus.Gatherer
}

// New builds a Server around the shared tracker, verse service and hub.
func New(t *tracker.Tracker, verseSvc *verse.Service, hub *ws.Hub, cfg Config, logger *slog.Logger) *Server {
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 60
	}
	return &Server{
		hub:             hub,
		familyMemberH:   handler.NewFamilyMemberHandler(t, logger.With("component", "family_member")),
		reflectionH:     handler.NewReflectionHandler(t),
		templateHandler: handler.NewTemplateHandler(t, verseSvc, logger.With("component", "template")),
		summaryH:        handler.Summary(t),
		verseH:          handler.Verse(verseSvc),
		rateLimiter:     middleware.NewRateLimiter(),
		rateLimit:       cfg.RateLimitPerMinute,
		gatherer:        cfg.Gatherer,
		logger:          logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Router returns the full handler tree wrapped in request logging.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	static, _ := fs.Sub(web.Static, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /health", s.healthHandler)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.gatherer))
	}

	s.registerRoutes(mux)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.rateLimit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	limited := s.rateLimitedHandler

	// Family member API routes
	mux.HandleFunc("GET /api/members", s.familyMemberH.List)
	mux.HandleFunc("POST /api/members", limited(s.familyMemberH.Create))
	mux.HandleFunc("POST /api/members/{id}/days/{day}/toggle", limited(s.familyMemberH.ToggleDay))
	mux.HandleFunc("PUT /api/members/{id}/days/{day}/note", limited(s.familyMemberH.UpdateNote))
	mux.HandleFunc("POST /api/members/{id}/toggle-all", limited(s.familyMemberH.ToggleAll))
	mux.HandleFunc("POST /api/week/reset", limited(s.familyMemberH.ResetWeek))

	// Reflection API routes
	mux.HandleFunc("GET /api/reflections", s.reflectionH.List)
	mux.HandleFunc("POST /api/reflections", limited(s.reflectionH.Create))

	mux.HandleFunc("GET /api/summary", s.summaryH)
	mux.HandleFunc("GET /api/verse", s.verseH)

	// Page route
	mux.HandleFunc("GET /", s.templateHandler.Dashboard)

	// Partials (HTMX)
	mux.HandleFunc("GET /partials/tracker", s.templateHandler.TrackerSection)
	mux.HandleFunc("POST /partials/members", limited(s.templateHandler.MemberCreate))
	mux.HandleFunc("POST /partials/members/{id}/days/{day}/toggle", limited(s.templateHandler.ToggleDay))
	mux.HandleFunc("PUT /partials/members/{id}/days/{day}/note", limited(s.templateHandler.UpdateNote))
	mux.HandleFunc("POST /partials/members/{id}/toggle-all", limited(s.templateHandler.ToggleAll))
	mux.HandleFunc("POST /partials/week/reset", limited(s.templateHandler.ResetWeek))
	mux.HandleFunc("GET /partials/reflections", s.templateHandler.ReflectionFeed)
	mux.HandleFunc("POST /partials/reflections", limited(s.templateHandler.ReflectionCreate))
	mux.HandleFunc("GET /partials/verse", s.templateHandler.VerseCard)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

// ChangeBroadcaster returns a tracker listener that tells open pages which
// collection to reload.
func ChangeBroadcaster(hub *ws.Hub) tracker.Listener {
	return func(c tracker.Change) {
		hub.Broadcast(ws.NewMessage(string(c.Collection), c.Action, c.ID, nil))
	}
}

// PersistFailureBroadcaster tells open pages that a change was not saved.
func PersistFailureBroadcaster(hub *ws.Hub) func(tracker.Collection, error) {
	return func(c tracker.Collection, _ error) {
		hub.Broadcast(ws.NewMessage("persist", "failed", "", map[string]any{"collection": string(c)}))
	}
}

// VerseBroadcaster tells open pages to redraw the verse card.
func VerseBroadcaster(hub *ws.Hub, rec metrics.Recorder) verse.StatusCallback {
	return func(st verse.Status) {
		rec.RecordVerseFetch(string(st.State))
		hub.Broadcast(ws.NewMessage("verse", string(st.State), "", nil))
	}
}
