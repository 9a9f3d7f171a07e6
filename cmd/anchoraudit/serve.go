package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/server"
	"github.com/dsablic/anchoraudit/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	defer a.logger.Sync()

	tel, err := telemetry.Setup(ctx, a.cfg.Telemetry())
	if err != nil {
		return fmt.Errorf("failed to initialize otel: %w", err)
	}
	if tel != nil {
		a.logger.Info("otel initialized", zap.String("endpoint", a.cfg.OTel.Endpoint))
	} else {
		a.logger.Info("otel disabled (no endpoint configured)")
	}

	// The server only uses the configured token; it never shells out to gh.
	pipeline, err := a.newPipeline(a.cfg.GitHub.Token, a.logger)
	if err != nil {
		return err
	}

	if !a.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := server.Options{CredentialErrorStatus: a.cfg.Server.CredentialErrorStatus}
	if a.cfg.Telemetry().Enabled() {
		opts.ServiceName = a.cfg.OTel.ServiceName
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           server.NewRouter(pipeline, a.logger, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Provider calls routinely take longer than a typical write timeout.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", zap.Int("port", a.cfg.Server.Port), zap.String("env", a.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-quit:
	}

	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("otel shutdown error", zap.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
