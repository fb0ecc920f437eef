package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// FallbackErrorMessage is used when a failed response carries neither a detail nor a status text.
const FallbackErrorMessage = "An API error occurred."

// Error is the single failure kind the client returns. Error() is exactly Message.
type Error struct {
	Message string
	// StatusCode is the HTTP status when a response arrived, 0 otherwise.
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorMessage picks the message for a non-2xx response: the body's detail when the body
// is JSON, the status text when it is not.
func errorMessage(resp *http.Response, body []byte) string {
	if !json.Valid(body) {
		if text := statusText(resp); text != "" {
			return text
		}
		return FallbackErrorMessage
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return FallbackErrorMessage
	}
	if msg := detailMessage(envelope.Detail); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}

// detailMessage renders a detail value. Strings come back as-is; other non-empty values
// are rendered as compact JSON. Falsy values (null, false, 0, "") yield "".
func detailMessage(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		return str
	}

	switch string(trimmed) {
	case "null", "false":
		return ""
	}
	if num, err := strconv.ParseFloat(string(trimmed), 64); err == nil && num == 0 {
		return ""
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// statusText returns the reason phrase of the response status line.
func statusText(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
