// Package authz is the policy hook for protected routes. The engine allows every request.
package authz

import (
	"context"
	"net/http"

	"github.com/angelmondragon/webtemplate/api/responses"
	"github.com/angelmondragon/webtemplate/internal/security"
	pkgerrors "github.com/angelmondragon/webtemplate/pkg/errors"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

// Engine decides whether a user may reach a route.
type Engine struct {
	publicMapPath string
	authzMapPath  string
}

// New builds the engine. The policy map paths are accepted and kept but never loaded.
func New(ctx context.Context, publicMapPath, authzMapPath string, logg *logger.Logger) *Engine {
	if logg != nil {
		logg.Info(ctx, "initializing simplified authorization engine (all requests allowed)")
	}
	return &Engine{publicMapPath: publicMapPath, authzMapPath: authzMapPath}
}

// PolicyPaths returns the map paths the engine was built with.
func (e *Engine) PolicyPaths() (public, authz string) {
	return e.publicMapPath, e.authzMapPath
}

// Check reports whether user may perform r. Always true.
func (e *Engine) Check(r *http.Request, user *security.User, extra map[string]any) bool {
	return true
}

// Authorize rejects requests the engine denies with 403.
func Authorize(engine *Engine, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine != nil && !engine.Check(r, security.CurrentUser(r), nil) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
