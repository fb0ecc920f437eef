package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

func TestTimeoutsFor(t *testing.T) {
	prod := TimeoutsFor(config.AppConfig{Env: "production"})
	assert.Equal(t, 15*time.Second, prod.Read)
	assert.Equal(t, 30*time.Second, prod.Shutdown)

	dev := TimeoutsFor(config.AppConfig{Env: "development"})
	assert.Zero(t, dev.Write)
	assert.Equal(t, 5*time.Second, dev.Shutdown)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := NewServer(ln.Addr().String(), handler, TimeoutsFor(config.AppConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ln, logger.Nop(), time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunReportsListenErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln.Addr().String(), http.NotFoundHandler(), Timeouts{})
	err = Run(context.Background(), srv, logger.Nop(), time.Second)
	require.Error(t, err)
}
