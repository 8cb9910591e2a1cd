package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalHandler manages graceful shutdown of the HTTP server
type SignalHandler struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) *SignalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalHandler{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Shutdown stops the server, waiting at most shutdownTimeout for
// in-flight requests
func (sh *SignalHandler) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sh.shutdownTimeout)
	defer cancel()

	if err := sh.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	sh.logger.Info("Server gracefully shut down")
	return nil
}

// Run starts the server and blocks until it fails or ctx is done, then
// shuts it down
func (sh *SignalHandler) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		sh.logger.Info("Starting server", "addr", sh.server.Addr)
		if err := sh.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		sh.logger.Info("Initiating graceful shutdown")
		return sh.Shutdown()
	}
}

// HandleSignals runs server until SIGINT or SIGTERM arrives. SIGKILL skips
// shutdown and can leave in-flight scratch files behind.
func HandleSignals(server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewSignalHandler(server, shutdownTimeout, logger).Run(ctx)
}
