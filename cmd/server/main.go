package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/novamind-ai/novamind-api/internal/api"
	"github.com/novamind-ai/novamind-api/internal/auth"
	"github.com/novamind-ai/novamind-api/internal/config"
	"github.com/novamind-ai/novamind-api/internal/core"
	"github.com/novamind-ai/novamind-api/internal/mail"
	"github.com/novamind-ai/novamind-api/internal/search"
	"github.com/novamind-ai/novamind-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	var zapLogger *zap.Logger
	if cfg.Environment == "production" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	llmService, err := core.NewLLMService(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatalw("failed to initialize LLM service", "error", err)
	}
	defer llmService.Close()

	mailer := mail.NewSMTPMailer(&mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		AppName:  cfg.AppName,
		CodeExp:  cfg.OTPExpiryMinutes,
	})

	searchClient := search.NewPixabayClient(cfg.PixabayAPIKey)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret)

	otpService := core.NewOTPService(dbStore, mailer, time.Duration(cfg.OTPExpiryMinutes)*time.Minute, logger)
	chatService := core.NewChatService(llmService, searchClient, core.NewPDFService(), logger)
	billingService := core.NewBillingService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, dbStore, logger)

	apiHandler := api.NewAPIHandler(otpService, chatService, billingService, dbStore, tokenManager, logger)
	router := api.NewRouter(apiHandler, cfg.CORSAllowedOrigin)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE relay holds the connection open for as
		// long as upstream generation runs.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Infow("starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("server stopped unexpectedly", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("server forced to shutdown", "error", err)
	}

	logger.Info("server exited gracefully")
}
