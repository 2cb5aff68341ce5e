package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pixgenie/internal/app"
	"pixgenie/internal/server"
	"pixgenie/pkg/config"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web gallery and keyword API",
	Long: `Start the web UI. When GROQ_API_KEY is set the keyword extraction API is
served too, under /api/generate/.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	service, err := app.BuildService(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		NewSession:     service.NewSession,
		Extractor:      service.Extractor(),
		KeywordCount:   cfg.Groq.KeywordCount,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SessionTTL:     cfg.Server.SessionTTL,
		MaxSessions:    cfg.Server.MaxSessions,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", httpServer.Addr, "keyword_api", service.Extractor() != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
