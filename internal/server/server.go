package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bayitbeseder/bayit/internal/balance"
	"github.com/bayitbeseder/bayit/internal/handler"
	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/push"
	"github.com/bayitbeseder/bayit/internal/scheduler"
	"github.com/bayitbeseder/bayit/internal/store"
)

// Options carries the settings the HTTP layer needs from configuration.
type Options struct {
	Location    *time.Location
	DaysAhead   int
	PushService *push.Service

	// GenerateLimit requests per GenerateWindow are allowed per client on
	// the generate endpoint.
	GenerateLimit  int
	GenerateWindow time.Duration
}

type Server struct {
	db             *sql.DB
	householdStore *store.HouseholdStore
	householdH     *handler.HouseholdHandler
	templateH      *handler.TemplateHandler
	taskH          *handler.TaskHandler
	generateH      *handler.GenerateHandler
	insightsH      *handler.InsightsHandler
	pushH          *handler.PushHandler
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	if opts.GenerateLimit <= 0 {
		opts.GenerateLimit = 10
	}
	if opts.GenerateWindow <= 0 {
		opts.GenerateWindow = time.Minute
	}
	if opts.PushService == nil {
		opts.PushService = push.NewService("", "", "")
	}
	clock := handler.NewClock(opts.Location)

	householdStore := store.NewHouseholdStore(db)
	templateStore := store.NewTemplateStore(db)
	instanceStore := store.NewInstanceStore(db)
	pushStore := store.NewPushStore(db)

	generator := scheduler.NewGenerator(store.NewGeneratorRepository(db), logger.With("component", "generator"))
	insightsH := handler.NewInsightsHandler(templateStore, instanceStore, householdStore,
		balance.FieldClassifier{}, clock, logger.With("component", "insights"))

	return &Server{
		db:             db,
		householdStore: householdStore,
		householdH:     handler.NewHouseholdHandler(householdStore, logger.With("component", "household")),
		templateH:      handler.NewTemplateHandler(templateStore, householdStore, clock, logger.With("component", "template")),
		taskH:          handler.NewTaskHandler(instanceStore, householdStore, clock, logger.With("component", "task")),
		generateH:      handler.NewGenerateHandler(generator, opts.DaysAhead, clock, logger.With("component", "generate")),
		insightsH:      insightsH,
		pushH:          handler.NewPushHandler(pushStore, householdStore, opts.PushService, logger.With("component", "push_handler")),
		rateLimiter:    middleware.NewRateLimiter(opts.GenerateLimit, opts.GenerateWindow),
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	s.registerHouseholdRoutes(mux)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// registerHouseholdRoutes mounts every /api/households/{hid}/... route behind
// the household loader.
func (s *Server) registerHouseholdRoutes(mux *http.ServeMux) {
	requireHousehold := middleware.RequireHousehold(s.householdStore, s.logger.With("component", "http"))
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireHousehold(h))
	}
	rateLimited := middleware.RateLimit(s.rateLimiter, middleware.RealIP)

	handle("GET /api/households/{hid}", s.householdH.Get)
	handle("PUT /api/households/{hid}/settings", s.householdH.UpdateSettings)
	handle("GET /api/households/{hid}/members", s.householdH.ListMembers)
	handle("POST /api/households/{hid}/members", s.householdH.AddMember)

	handle("GET /api/households/{hid}/templates", s.templateH.List)
	handle("POST /api/households/{hid}/templates", s.templateH.Create)
	handle("PUT /api/households/{hid}/templates/{id}", s.templateH.Update)
	handle("DELETE /api/households/{hid}/templates/{id}", s.templateH.Deactivate)

	handle("GET /api/households/{hid}/tasks", s.taskH.List)
	handle("POST /api/households/{hid}/tasks/{id}/complete", s.taskH.Complete)
	handle("POST /api/households/{hid}/tasks/{id}/skip", s.taskH.Skip)

	mux.Handle("POST /api/households/{hid}/generate", rateLimited(requireHousehold(http.HandlerFunc(s.generateH.Generate))))

	handle("GET /api/households/{hid}/health", s.insightsH.Health)
	handle("GET /api/households/{hid}/load", s.insightsH.Load)
	handle("GET /api/households/{hid}/stats", s.insightsH.Stats)

	handle("POST /api/households/{hid}/push/subscribe", s.pushH.Subscribe)
}
