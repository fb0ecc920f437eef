package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/webtemplate/api/responses"
	"github.com/angelmondragon/webtemplate/api/validators"
	"github.com/angelmondragon/webtemplate/internal/console"
	"github.com/angelmondragon/webtemplate/pkg/apiclient"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

const maxEndpointLen = 2048

type ConsoleRunRequest struct {
	Endpoint string          `json:"endpoint" validate:"required,max=2048,startswith=/"`
	Method   string          `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Body     json.RawMessage `json:"body"`
}

type ConsoleRunResponse struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
	Response string `json:"response"`
}

func ConsoleSnapshot(c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, c.Snapshot())
	}
}

// ConsoleCall triggers the call bound to the {slot} URL parameter.
func ConsoleCall(c *console.Console, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := c.Call(r.Context(), chi.URLParam(r, "slot"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, slot)
	}
}

// ConsoleRun performs an ad-hoc call. The outcome, error or not, is rendered into the
// response text the same way slots are.
func ConsoleRun(c *console.Console, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConsoleRunRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		endpoint := validators.SanitizeString(req.Endpoint, maxEndpointLen)
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}
		opts := apiclient.RequestOptions{Method: method}
		if len(req.Body) > 0 && method != http.MethodGet {
			opts.Body = bytes.NewReader(req.Body)
		}

		responses.WriteSuccess(w, ConsoleRunResponse{
			Endpoint: endpoint,
			Method:   method,
			Response: c.Run(r.Context(), endpoint, opts),
		})
	}
}
