package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/vk/flowcalc/internal/server"
)

// Serve listens on the configured address and serves the REST API and the
// socket.io endpoint until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener, which it closes on return.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	ctx = a.Context(ctx)

	srv := server.New(ctx, a.graph)

	httpServer := &http.Server{
		Handler: srv.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting.", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		srv.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error("Server failed unexpectedly.", "error", err)
		return err
	case <-ctx.Done():
	}

	// Sockets are hijacked connections that Shutdown does not wait for.
	srv.Close()
	return a.shutdown(httpServer)
}

func (a *App) shutdown(httpServer *http.Server) error {
	a.logger.Info("Shutting down server...")

	if a.cfg.Server.ShutdownTimeout == 0 {
		return httpServer.Close()
	}

	// The serve context is already cancelled here.
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown failed.", "error", err)
		return err
	}
	a.logger.Debug("Server shut down gracefully.")
	return nil
}
