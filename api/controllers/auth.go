package controllers

import (
	"net/http"

	"github.com/angelmondragon/webtemplate/api/responses"
	"github.com/angelmondragon/webtemplate/pkg/types"
)

// AuthRemovedMessage is returned by every route under /api/auth.
const AuthRemovedMessage = "Authentication has been removed from this template. Implement your own auth system as needed."

// AuthStub answers the former auth routes with a fixed 200.
func AuthStub() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, types.MessageResponse{Message: AuthRemovedMessage})
	}
}
