package types

// ErrorEnvelope is the body of every non-2xx response. Detail carries the
// human-readable message API clients surface to users.
type ErrorEnvelope struct {
	Detail  string `json:"detail"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// MessageResponse is the shape of the template's informational endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
