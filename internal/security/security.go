// Package security holds the request authentication hooks. Authentication is not part of
// this template: every endpoint is public and these hooks are the place to add one.
package security

import (
	"net/http"

	"github.com/angelmondragon/webtemplate/pkg/logger"
)

// User is the authenticated principal handed to authorization checks.
type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// CurrentUser resolves the caller of r. Always nil: no authentication is configured.
func CurrentUser(r *http.Request) *User {
	return nil
}

// VerifyAccess is the access gate for protected routes. It lets every request through.
func VerifyAccess(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg != nil {
				logg.Debug(r.Context(), "security.verify_access allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}
