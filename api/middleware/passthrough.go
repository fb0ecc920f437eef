package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/webtemplate/pkg/logger"
)

// excludedPrefixes are asset paths the page middleware never sees.
var excludedPrefixes = []string{"static/", "images/", "favicon.ico"}

// MatchesPage reports whether path falls under the page middleware, i.e. anything
// but static assets, images and the favicon.
func MatchesPage(path string) bool {
	rest := strings.TrimPrefix(path, "/")
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(rest, prefix) {
			return false
		}
	}
	return true
}

// Passthrough is the page middleware of the template. It performs no access control:
// matched requests are noted in the debug log and always forwarded unchanged.
func Passthrough(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg != nil && MatchesPage(r.URL.Path) {
				logg.Debug(r.Context(), "middleware.passthrough")
			}
			next.ServeHTTP(w, r)
		})
	}
}
