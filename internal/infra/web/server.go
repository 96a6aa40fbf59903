package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"directory-pass/internal/config"
	"directory-pass/internal/infra/redis"
	"directory-pass/internal/usecase"
)

// Server exposes the client API, the admin API and the gateway webhook.
type Server struct {
	passUC       usecase.AccessPassUseCase
	purchaseUC   usecase.PurchaseUseCase
	activationUC usecase.ActivationUseCase

	passCfg       config.PassConfig
	apiKey        string
	adminPassword string
	webhookSecret string

	auth  *AuthManager
	dedup *redis.EventDedup
	log   *zerolog.Logger

	guardsMu sync.Mutex
	guards   map[string]*usecase.CaptureGuard
}

type Options struct {
	PassConfig    config.PassConfig
	APIKey        string
	AdminPassword string
	WebhookSecret string
	Auth          *AuthManager
	Dedup         *redis.EventDedup // optional
}

func NewServer(
	passUC usecase.AccessPassUseCase,
	purchaseUC usecase.PurchaseUseCase,
	activationUC usecase.ActivationUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		passUC:        passUC,
		purchaseUC:    purchaseUC,
		activationUC:  activationUC,
		passCfg:       opts.PassConfig,
		apiKey:        opts.APIKey,
		adminPassword: opts.AdminPassword,
		webhookSecret: opts.WebhookSecret,
		auth:          opts.Auth,
		dedup:         opts.Dedup,
		log:           &l,
		guards:        make(map[string]*usecase.CaptureGuard),
	}
}

// Routes builds the chi router for the whole HTTP surface.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute)) // the wait endpoint can block for its poll timeout

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/webhooks/payment", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.serviceKeyMiddleware)
			r.Post("/purchases", s.handleInitiatePurchase)
			r.Get("/purchases/{txid}/wait", s.handleWaitActivation)
			r.Get("/users/{id}/pass", s.handleGetPass)
			r.Post("/capture/report", s.handleCaptureReport)
		})

		r.Post("/admin/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/admin/passes", s.handleAdminGrant)
			r.Delete("/admin/users/{id}/pass", s.handleAdminRevoke)
			r.Get("/admin/users/{id}/passes", s.handleAdminListPasses)
			r.Get("/admin/stats", s.handleAdminStats)
		})
	})

	return r
}

// guardFor returns the viewing-session guard for a user, creating it on
// first report so visibility state survives across reports.
func (s *Server) guardFor(userID string) *usecase.CaptureGuard {
	s.guardsMu.Lock()
	defer s.guardsMu.Unlock()
	g, ok := s.guards[userID]
	if !ok {
		g = usecase.NewCaptureGuard(userID, s.passUC, s.log)
		s.guards[userID] = g
	}
	return g
}

// endGuardSession closes and drops the user's guard. Called whenever a pass
// is granted: the grant starts a fresh viewing session, so a guard blocked by
// an earlier capture must not outlive the pass it revoked. Also the only
// thing keeping the guard map bounded.
func (s *Server) endGuardSession(userID string) {
	s.guardsMu.Lock()
	defer s.guardsMu.Unlock()
	if g, ok := s.guards[userID]; ok {
		g.Close()
		delete(s.guards, userID)
	}
}
