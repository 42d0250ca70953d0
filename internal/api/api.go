// Package api provides HTTP handlers and the main API server logic for CoachPipe.
//
// It exposes endpoints for assessment intake, the pending-review card queue,
// card delivery, client messages, retargeting, and push subscription
// registration. The API wires together the store, card generators,
// dispatcher, retargeting runner, and scheduler modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BalancedBite/CoachPipe/internal/cards"
	"github.com/BalancedBite/CoachPipe/internal/dispatch"
	"github.com/BalancedBite/CoachPipe/internal/genai"
	"github.com/BalancedBite/CoachPipe/internal/notify"
	"github.com/BalancedBite/CoachPipe/internal/retarget"
	"github.com/BalancedBite/CoachPipe/internal/scheduler"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// Default configuration constants
const (
	// DefaultAddr is the default API listen address.
	DefaultAddr = ":8080"
	// DefaultSweepCron runs the retargeting sweep daily at 09:00.
	DefaultSweepCron = "0 9 * * *"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr      string
	DBDriver  string // "sqlite" (default) or "postgres"
	SweepCron string
	UseTwilio bool
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the API listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithDBDriver selects the store backend ("sqlite" or "postgres").
func WithDBDriver(driver string) Option {
	return func(o *Opts) { o.DBDriver = driver }
}

// WithSweepCron sets the cron expression for the retargeting sweep.
func WithSweepCron(expr string) Option {
	return func(o *Opts) { o.SweepCron = expr }
}

// WithTwilioNotifier enables the Twilio SMS notifier instead of the log stub.
func WithTwilioNotifier() Option {
	return func(o *Opts) { o.UseTwilio = true }
}

// Server holds the API dependencies. Handlers are stateless; all state
// lives in the store.
type Server struct {
	st         store.Store
	intake     *cards.Intake
	dietPlans  *cards.DietPlanGenerator
	dispatcher *dispatch.Dispatcher
	retargeter *retarget.Runner
}

// NewServer wires a server from its dependencies.
func NewServer(st store.Store, intake *cards.Intake, dietPlans *cards.DietPlanGenerator, dispatcher *dispatch.Dispatcher, retargeter *retarget.Runner) *Server {
	return &Server{
		st:         st,
		intake:     intake,
		dietPlans:  dietPlans,
		dispatcher: dispatcher,
		retargeter: retargeter,
	}
}

// Handler builds the routed handler with CORS applied uniformly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/assessments/submit", s.submitAssessmentHandler)
	mux.HandleFunc("/cards/pending", s.pendingCardsHandler)
	mux.HandleFunc("/cards/edit", s.editCardHandler)
	mux.HandleFunc("/cards/send", s.sendCardHandler)
	mux.HandleFunc("/plans/diet", s.dietPlanHandler)
	mux.HandleFunc("/messages", s.messagesHandler)
	mux.HandleFunc("/messages/read", s.markMessageReadHandler)
	mux.HandleFunc("/retargeting/run", s.runRetargetingHandler)
	mux.HandleFunc("/push/subscribe", s.pushSubscribeHandler)
	mux.HandleFunc("/healthz", s.healthzHandler)
	return corsMiddleware(mux)
}

// corsMiddleware answers preflight requests uniformly and attaches
// permissive CORS headers; the dashboard and admin console are served from
// separate origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run builds all modules from options and serves the API. It blocks until
// the HTTP server exits.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.SweepCron == "" {
		cfg.SweepCron = DefaultSweepCron
	}

	// Store backend
	var st store.Store
	var err error
	switch cfg.DBDriver {
	case "postgres":
		st, err = store.NewPostgresStore(storeOpts...)
	default:
		st, err = store.NewSQLiteStore(storeOpts...)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	// AI client; nil means the mock fallback for stress/sleep and hard
	// failure for health and diet plans.
	var ai genai.Generator
	if client, err := genai.NewClient(genaiOpts...); err != nil {
		slog.Warn("api.Run: no AI client available, stress/sleep generation will use mock content", "error", err)
	} else {
		ai = client
	}

	// Notification transport
	var notifier notify.Notifier
	if cfg.UseTwilio {
		tn, err := notify.NewTwilioNotifier(st)
		if err != nil {
			slog.Warn("api.Run: Twilio notifier unavailable, falling back to log notifier", "error", err)
			notifier = notify.NewLogNotifier()
		} else {
			notifier = tn
		}
	} else {
		notifier = notify.NewLogNotifier()
	}

	registry := cards.NewRegistry(st, ai)
	intake := cards.NewIntake(st, registry)
	dietPlans := cards.NewDietPlanGenerator(st, ai)
	dispatcher := dispatch.NewDispatcher(st, notifier)
	retargeter := retarget.NewRunner(st)

	server := NewServer(st, intake, dietPlans, dispatcher, retargeter)

	// Periodic retargeting sweep
	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(cfg.SweepCron, func() {
		result := retargeter.Run(context.Background())
		slog.Info("api.Run: scheduled retargeting sweep finished", "total", result.Total, "sent", result.SuccessCount)
	}); err != nil {
		return fmt.Errorf("failed to schedule retargeting sweep: %w", err)
	}

	slog.Info("CoachPipe API running", "addr", cfg.Addr, "sweep_cron", cfg.SweepCron)
	return http.ListenAndServe(cfg.Addr, server.Handler())
}
