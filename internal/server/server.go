// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/gabaylakad/backend/internal/config"
	"codeberg.org/gabaylakad/backend/internal/database"
	"codeberg.org/gabaylakad/backend/internal/handlers"
	"codeberg.org/gabaylakad/backend/internal/i18n"
	"codeberg.org/gabaylakad/backend/internal/metrics"
	"codeberg.org/gabaylakad/backend/internal/middleware"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
	authsvc "codeberg.org/gabaylakad/backend/internal/services/auth"
	"codeberg.org/gabaylakad/backend/internal/services/email"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"codeberg.org/gabaylakad/backend/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database, migrations run on open
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Redis
	client, err := revocation.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			slog.Error("failed to close redis client", "error", closeErr)
		}
	}()

	deps, err := wire(cfg, db, client)
	if err != nil {
		return err
	}

	e := newEcho(cfg, deps)

	return startWithGracefulShutdown(e, cfg)
}

// dependencies are the long-lived services the routes are built from.
type dependencies struct {
	repo     *repository.Repository
	cache    *revocation.Cache
	auth     *authsvc.Service
	registry *prometheus.Registry
}

func wire(cfg *config.Config, db *sqlx.DB, client *redis.Client) (*dependencies, error) {
	repo := repository.New(db)
	cache := revocation.New(client)

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	var mailer authsvc.Mailer = email.LogSender{}
	if cfg.SMTP.Enabled() {
		svc, mailErr := email.NewService(&cfg.SMTP, cfg.Auth.FrontendURL, cfg.Auth.ResetTokenTTL)
		if mailErr != nil {
			return nil, fmt.Errorf("failed to configure email: %w", mailErr)
		}
		mailer = svc
	} else {
		slog.Warn("no SMTP host configured, emails are logged instead of sent")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auth := authsvc.NewService(repo, &cfg.Auth, authsvc.Deps{
		Issuer:   issuer,
		Sessions: session.NewManager(repo, cache, cfg.Auth.RefreshTokenTTL),
		Cache:    cache,
		Mailer:   mailer,
		Metrics:  metrics.New(registry),
	})

	return &dependencies{repo: repo, cache: cache, auth: auth, registry: registry}, nil
}

func newEcho(cfg *config.Config, deps *dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, deps)
	return e
}

func setupRoutes(e *echo.Echo, deps *dependencies) {
	h := handlers.New(deps.repo, deps.cache)
	authH := handlers.NewAuth(deps.auth)

	a := e.Group("/api/auth")
	a.POST("/login", authH.Login)
	a.POST("/refresh-token", authH.RefreshToken)
	a.POST("/logout", authH.Logout)
	a.POST("/register", authH.Register)
	a.POST("/verify", authH.Verify)
	a.POST("/resend-verification", authH.ResendVerification)
	a.POST("/forgot-password", authH.ForgotPassword)
	a.POST("/reset-password", authH.ResetPassword)

	api := e.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/log", h.Log)

	protected := api.Group("", middleware.RequireAuth(deps.auth))
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/profile", h.Profile)
	protected.PUT("/profile", h.UpdateProfile)
	protected.GET("/history", h.History)
	protected.GET("/location", h.Location)
	protected.GET("/sensor", h.Sensor)
	protected.GET("/battery", h.Battery)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)

	// Answers ACME challenges and redirects to HTTPS
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
