package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/webtemplate/api/controllers"
	"github.com/angelmondragon/webtemplate/api/middleware"
	"github.com/angelmondragon/webtemplate/api/responses"
	"github.com/angelmondragon/webtemplate/internal/authz"
	"github.com/angelmondragon/webtemplate/internal/dashboard"
	"github.com/angelmondragon/webtemplate/internal/security"
	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/db"
	pkgerrors "github.com/angelmondragon/webtemplate/pkg/errors"
	"github.com/angelmondragon/webtemplate/pkg/logger"
	"github.com/angelmondragon/webtemplate/pkg/metrics"
	"github.com/angelmondragon/webtemplate/pkg/redis"
)

// NewAPIRouter builds the backend router. dbP and redisClient are nil when the
// corresponding dependency is not configured.
func NewAPIRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	dashboardService dashboard.Service,
	authzEngine *authz.Engine,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	r.NotFound(notFound(logg))
	r.MethodNotAllowed(methodNotAllowed(logg))

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["database"] = dbP
	}
	// avoid storing a typed nil in the interface maps below
	var limitStore middleware.RateLimitStore
	if redisClient != nil {
		readiness["redis"] = redisClient
		limitStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.Requests).
		TrustProxyHeaders(cfg.RateLimit.TrustProxy)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(apiPolicy, limitStore, logg))

		r.Get("/test", controllers.APITest())

		r.Route("/admin", func(r chi.Router) {
			r.Use(
				security.VerifyAccess(logg),
				authz.Authorize(authzEngine, logg),
			)
			r.Get("/dashboard", controllers.AdminDashboard(dashboardService, logg))
		})
	})

	return r
}

func notFound(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Not Found"))
	}
}

func methodNotAllowed(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "Method Not Allowed").
				WithDetails(map[string]string{"method": r.Method}))
	}
}
