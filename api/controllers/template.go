package controllers

import (
	"net/http"

	"github.com/angelmondragon/webtemplate/api/responses"
	"github.com/angelmondragon/webtemplate/internal/dashboard"
	"github.com/angelmondragon/webtemplate/internal/security"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

type TestResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Auth    string `json:"auth"`
}

type DashboardResponse struct {
	Message string           `json:"message"`
	User    *security.User   `json:"user"`
	Stats   []dashboard.Stat `json:"stats"`
}

// APITest is the public smoke endpoint the home page calls.
func APITest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, TestResponse{Message: "Test endpoint reached", Status: "ok", Auth: "none"})
	}
}

// AdminDashboard serves the dashboard stats to the (unauthenticated) admin area.
func AdminDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, DashboardResponse{
			Message: "Admin dashboard",
			User:    security.CurrentUser(r),
			Stats:   stats,
		})
	}
}
