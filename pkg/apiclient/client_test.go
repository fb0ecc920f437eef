package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/webtemplate/pkg/config"
)

type recordingDoer struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	respond  func(*http.Request) (*http.Response, error)
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		d.bodies = append(d.bodies, string(b))
	} else {
		d.bodies = append(d.bodies, "")
	}
	d.mu.Unlock()
	return d.respond(req)
}

func jsonResponse(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.ClientConfig{APIURL: srv.URL})
}

func TestDo_DefaultConfigTargetsLocalBackend(t *testing.T) {
	doer := &recordingDoer{respond: jsonResponse(http.StatusOK, `{"ok":true}`)}
	client := New(config.ClientConfig{}, WithHTTPClient(doer))

	got, err := client.Do(context.Background(), "/api/test", RequestOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "http://localhost:8001/api/test", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestURL_ConcatenatesWithoutNormalizing(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.ClientConfig
		endpoint string
		want     string
	}{
		{name: "defaults", cfg: config.ClientConfig{}, endpoint: "/api/test", want: "http://localhost:8001/api/test"},
		{name: "base path", cfg: config.ClientConfig{APIURL: "https://example.com", BasePath: "/backend"}, endpoint: "/api/x", want: "https://example.com/backend/api/x"},
		{name: "duplicate slashes kept", cfg: config.ClientConfig{APIURL: "http://h/", BasePath: "/base/"}, endpoint: "/api", want: "http://h//base//api"},
		{name: "non api endpoint allowed", cfg: config.ClientConfig{APIURL: "http://h"}, endpoint: "/health/live", want: "http://h/health/live"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := New(tc.cfg)
			assert.Equal(t, tc.want, client.URL(tc.endpoint))
		})
	}
}

func TestDo_RequestURLKeepsDuplicateSlashes(t *testing.T) {
	doer := &recordingDoer{respond: jsonResponse(http.StatusOK, `{}`)}
	client := New(config.ClientConfig{APIURL: "http://h/", BasePath: "/base/"}, WithHTTPClient(doer))

	_, err := client.Get(context.Background(), "/api")
	require.NoError(t, err)
	assert.Equal(t, "http://h//base//api", doer.requests[0].URL.String())
}

func TestDo_NoContentYieldsNil(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := client.Do(context.Background(), "/api/empty", RequestOptions{Method: http.MethodDelete})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDo_NoContentIgnoresBody(t *testing.T) {
	doer := &recordingDoer{respond: jsonResponse(http.StatusNoContent, `not json at all`)}
	client := New(config.ClientConfig{}, WithHTTPClient(doer))

	got, err := client.Get(context.Background(), "/api/empty")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDo_SuccessRoundTripsJSON(t *testing.T) {
	payloads := []any{
		map[string]any{"ok": true},
		map[string]any{"message": "hi", "nested": map[string]any{"n": 1.5, "list": []any{"a", nil}}},
		[]any{1.0, 2.0, 3.0},
		"plain string",
		42.0,
		nil,
	}

	for _, payload := range payloads {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)

		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(encoded)
		})

		got, err := client.Get(context.Background(), "/api/test")
		require.NoError(t, err)

		var decoded any
		require.NoError(t, json.Unmarshal(got, &decoded))
		assert.Equal(t, payload, decoded)
	}
}

func TestDo_MalformedSuccessBodyFails(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":`))
	})

	got, err := client.Get(context.Background(), "/api/test")
	assert.Nil(t, got)
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "invalid JSON response")

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestDo_EmptySuccessBodyFails(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Get(context.Background(), "/api/test")
	require.Error(t, err)
}

func TestDo_ErrorUsesDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found"}`))
	})

	got, err := client.Get(context.Background(), "/api/missing")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Equal(t, "not found", err.Error())

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDo_ErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "detail string", status: http.StatusBadRequest, body: `{"detail":"X"}`, want: "X"},
		{name: "detail object", status: http.StatusUnprocessableEntity, body: `{"detail": [ {"loc": ["body"], "msg": "field required"} ]}`, want: `[{"loc":["body"],"msg":"field required"}]`},
		{name: "detail number", status: http.StatusConflict, body: `{"detail":409}`, want: "409"},
		{name: "no detail", status: http.StatusInternalServerError, body: `{"error":"boom"}`, want: FallbackErrorMessage},
		{name: "empty detail", status: http.StatusInternalServerError, body: `{"detail":""}`, want: FallbackErrorMessage},
		{name: "null detail", status: http.StatusInternalServerError, body: `{"detail":null}`, want: FallbackErrorMessage},
		{name: "json array body", status: http.StatusBadGateway, body: `[1,2]`, want: FallbackErrorMessage},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: "Bad Gateway"},
		{name: "empty body", status: http.StatusServiceUnavailable, body: ``, want: "Service Unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.Get(context.Background(), "/api/fail")
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestDo_InvalidBodyWithoutStatusTextUsesFallback(t *testing.T) {
	doer := &recordingDoer{respond: func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 599,
			Body:       io.NopCloser(strings.NewReader("nope")),
		}, nil
	}}
	client := New(config.ClientConfig{}, WithHTTPClient(doer))

	_, err := client.Get(context.Background(), "/api/odd")
	require.Error(t, err)
	assert.Equal(t, FallbackErrorMessage, err.Error())
}

func TestDo_TransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	doer := &recordingDoer{respond: func(*http.Request) (*http.Response, error) {
		return nil, boom
	}}
	client := New(config.ClientConfig{}, WithHTTPClient(doer))

	got, err := client.Get(context.Background(), "/api/test")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Equal(t, "connection refused", err.Error())
	assert.ErrorIs(t, err, boom)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Zero(t, apiErr.StatusCode)
	assert.Len(t, doer.requests, 1, "no retry expected")
}

func TestDo_CanceledContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/api/test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_HeaderMerging(t *testing.T) {
	doer := &recordingDoer{respond: jsonResponse(http.StatusOK, `{}`)}
	client := New(config.ClientConfig{}, WithHTTPClient(doer))

	_, err := client.Do(context.Background(), "/api/test", RequestOptions{
		Header: http.Header{
			"X-Trace":      []string{"abc"},
			"Content-Type": []string{"text/plain"},
		},
	})
	require.NoError(t, err)

	req := doer.requests[0]
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.Len(t, req.Header.Values("Content-Type"), 1)
}

func TestPost_SendsJSONBody(t *testing.T) {
	doer := &recordingDoer{respond: jsonResponse(http.StatusCreated, `{"id":1}`)}
	client := New(config.ClientConfig{APIURL: "http://h", BasePath: "/v"}, WithHTTPClient(doer))

	got, err := client.Post(context.Background(), "/api/items", map[string]string{"name": "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))

	req := doer.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://h/v/api/items", req.URL.String())
	assert.JSONEq(t, `{"name":"a"}`, doer.bodies[0])
}

func TestCall_DecodesIntoType(t *testing.T) {
	type testResponse struct {
		OK bool `json:"ok"`
	}

	doer := &recordingDoer{respond: jsonResponse(http.StatusOK, `{"ok":true}`)}
	client := New(config.ClientConfig{}, WithHTTPClient(doer))

	got, err := Call[testResponse](context.Background(), client, "/api/test", RequestOptions{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.OK)

	doer.respond = jsonResponse(http.StatusNoContent, ``)
	got, err = Call[testResponse](context.Background(), client, "/api/test", RequestOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDo_ConcurrentCallsAreIndependent(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	})

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			endpoint := "/api/" + string(rune('a'+i))
			got, err := client.Get(context.Background(), endpoint)
			if err == nil {
				results[i] = string(got)
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.JSONEq(t, `{"path":"/api/`+string(rune('a'+i))+`"}`, got)
	}
}
