package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

// Timeouts are the http.Server limits for one environment.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
}

// TimeoutsFor returns the production limits when app runs in production and the
// relaxed development limits otherwise.
func TimeoutsFor(app config.AppConfig) Timeouts {
	if app.IsProd() {
		return Timeouts{
			ReadHeader: 5 * time.Second,
			Read:       15 * time.Second,
			Write:      30 * time.Second,
			Idle:       120 * time.Second,
			Shutdown:   30 * time.Second,
		}
	}
	return Timeouts{
		ReadHeader: 10 * time.Second,
		Idle:       60 * time.Second,
		Shutdown:   5 * time.Second,
	}
}

func NewServer(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: t.ReadHeader,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}

// Run serves srv until ctx is canceled or the listener fails, then shuts it down,
// giving in-flight requests up to shutdownTimeout to finish.
func Run(ctx context.Context, srv *http.Server, logg *logger.Logger, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln, logg, shutdownTimeout)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, logg *logger.Logger, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	logCtx := logg.WithField(ctx, "addr", ln.Addr().String())

	g.Go(func() error {
		logg.Info(logCtx, "http server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "http server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
