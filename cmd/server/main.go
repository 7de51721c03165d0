// Package main is the entry point for the buddhai chat server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buddhai/hyundai-chat/internal/adapter"
	"github.com/buddhai/hyundai-chat/internal/config"
	"github.com/buddhai/hyundai-chat/internal/domain"
	"github.com/buddhai/hyundai-chat/internal/handler"
	"github.com/buddhai/hyundai-chat/internal/security"
	"github.com/buddhai/hyundai-chat/internal/ui"
)

func main() {
	// =========================================================================
	// 1. Setup structured logger (JSON format, credentials redacted)
	// =========================================================================
	logger := setupLogger()

	logger.Info("starting buddhai chat server")

	// =========================================================================
	// 2. Load configuration (Singleton)
	// =========================================================================
	cfg, err := config.GetConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("provider", string(cfg.Provider.Type)),
	)

	// =========================================================================
	// 3. Build conversation state: manager + per-session store
	// =========================================================================
	managerOpts := []domain.ConversationManagerOption{}
	if cfg.Chat.SystemPrompt != "" {
		managerOpts = append(managerOpts, domain.WithSystemPrompt(cfg.Chat.SystemPrompt))
	}
	if cfg.Chat.PendingText != "" {
		managerOpts = append(managerOpts, domain.WithPendingText(cfg.Chat.PendingText))
	}
	manager := domain.NewConversationManager(cfg.Chat.Greeting, managerOpts...)

	storeOpts := []domain.SessionStoreOption{domain.WithStoreLogger(logger)}
	if cfg.Chat.SessionTTLMinutes > 0 {
		ttl := time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute
		storeOpts = append(storeOpts, domain.WithSessionTTL(ttl))
	}
	store := domain.NewSessionStore(manager, storeOpts...)

	// =========================================================================
	// 4. Create the provider adapter
	// =========================================================================
	provider := buildProvider(cfg, logger)

	logger.Info("provider adapter initialized",
		slog.String("name", provider.Name()),
		slog.Bool("stateful", provider.Capabilities().Stateful),
	)

	// =========================================================================
	// 5. Create ChatHandler
	// =========================================================================
	renderer := handler.NewRenderer(cfg.Chat.Title)
	chatHandler := handler.NewChatHandler(
		store,
		manager,
		provider,
		renderer,
		handler.WithLogger(logger),
		handler.WithFallbackText(cfg.Chat.FallbackText),
	)

	// =========================================================================
	// 6. Setup Gin router with middleware
	// =========================================================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.SessionMiddleware(cfg.Chat.SessionCookie))
	router.Use(handler.LoggingMiddleware(logger))

	router.GET("/", chatHandler.HandleIndex)
	router.POST("/message", chatHandler.HandleMessage)
	router.GET("/reset", chatHandler.HandleReset)
	router.GET("/health", chatHandler.HandleHealth)

	// =========================================================================
	// 7. Start HTTP server with graceful shutdown
	// =========================================================================
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("address", addr))
		ui.PrintBanner()
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, provider.Name())

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
}

// buildProvider constructs the adapter selected by provider.type.
// Exactly one adapter serves a deployment; there is no per-request switching.
func buildProvider(cfg *config.Configuration, logger *slog.Logger) adapter.ChatProvider {
	opts := []adapter.Option{
		adapter.WithLogger(logger),
		adapter.WithTimeout(time.Duration(cfg.Provider.TimeoutSeconds) * time.Second),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, adapter.WithBaseURL(cfg.Provider.BaseURL))
	}
	if cfg.Chat.FallbackText != "" {
		opts = append(opts, adapter.WithFallbackText(cfg.Chat.FallbackText))
	}

	switch cfg.Provider.Type {
	case domain.ProviderAssistant:
		opts = append(opts, adapter.WithPollInterval(time.Duration(cfg.Provider.PollIntervalMS)*time.Millisecond))
		return adapter.NewAssistantAdapter(cfg.Provider.APIKey, cfg.Provider.AssistantID, opts...)
	case domain.ProviderChat:
		return adapter.NewChatSessionAdapter(cfg.Provider.APIKey, cfg.Provider.Model, opts...)
	default:
		return adapter.NewCompletionAdapter(cfg.Provider.APIKey, cfg.Provider.Model, opts...)
	}
}

// setupLogger creates a structured JSON logger with credential redaction.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo

	if envLevel := os.Getenv("BUDDHAI_LOGGING_LEVEL"); envLevel != "" {
		level = parseLogLevel(envLevel)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	inner := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(security.NewRedactedHandler(inner))

	slog.SetDefault(logger)

	return logger
}

// parseLogLevel maps a level name to its slog level, defaulting to info.
func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
