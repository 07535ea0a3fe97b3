package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/backend"
	"gatehouse/internal/config"
	transporthttp "gatehouse/internal/http"
	"gatehouse/internal/platform/logging"
	"gatehouse/internal/turnstile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gatehouse: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendToken,
		backend.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		backend.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to initialize backend client", "error", err)
		os.Exit(1)
	}

	sessions, err := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to initialize session codec", "error", err)
		os.Exit(1)
	}

	authenticator := auth.NewAuthenticator(client, logger)
	bridge := auth.NewBridge(client, logger)

	var oauthHandler *transporthttp.OAuthHandler
	if cfg.GoogleEnabled() {
		google, err := auth.NewGoogleAuthenticator(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			logger.Error("failed to initialize google authenticator", "error", err)
			os.Exit(1)
		}
		oauthHandler = transporthttp.NewOAuthHandler(google, bridge, sessions, cfg.LandingPath, cfg.LoginPath, cfg.Environment, logger)
	} else {
		logger.Warn("google sign-in disabled; OAuth routes are not mounted")
	}

	var verifier *turnstile.Verifier
	if cfg.TurnstileEnabled() {
		verifier = turnstile.New(cfg.TurnstileSecret)
	} else {
		logger.Warn("bot-challenge verification disabled")
	}

	router := transporthttp.NewRouter(cfg, authenticator, oauthHandler, client, sessions, verifier, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Gatehouse listening", "addr", srv.Addr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
