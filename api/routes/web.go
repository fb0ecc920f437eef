package routes

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/webtemplate/api/controllers"
	"github.com/angelmondragon/webtemplate/api/middleware"
	"github.com/angelmondragon/webtemplate/internal/console"
	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/logger"
	"github.com/angelmondragon/webtemplate/pkg/metrics"
)

// NewWebRouter builds the front-end router: static assets, the inert auth routes and
// the API console.
func NewWebRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	apiConsole *console.Console,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.Passthrough(logg),
	)
	r.NotFound(notFound(logg))
	r.MethodNotAllowed(methodNotAllowed(logg))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	staticDir := cfg.Web.StaticDir
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(filepath.Join(staticDir, "images")))))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(staticDir, "favicon.ico"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/logout", controllers.AuthStub())
		// logout is GET-only; chi would otherwise hand POST to the catch-all.
		r.Post("/logout", methodNotAllowed(logg))
		r.Get("/*", controllers.AuthStub())
		r.Post("/*", controllers.AuthStub())
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/console", http.StatusFound)
	})
	r.Route("/console", func(r chi.Router) {
		r.Get("/", controllers.ConsoleSnapshot(apiConsole))
		r.Post("/call", controllers.ConsoleRun(apiConsole, logg))
		r.Post("/{slot}", controllers.ConsoleCall(apiConsole, logg))
	})

	return r
}
