package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-core/auth"
	httpserver "chat-core/infrastructure/http"
	"chat-core/internal"
	"chat-core/moderation"
	"chat-core/observability"
	"chat-core/repositories"
	"chat-core/runtime"
	"chat-core/runtime/workers"
	"chat-core/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// main is a thin wrapper: call run() and translate the result into an
	// OS exit code, so deferred cleanup always executes.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation
	var bannedWords []string
	if config.CensoredWordsPath != "" {
		bannedWords, err = moderation.LoadWordList(config.CensoredWordsPath)
		if err != nil {
			return exitConfig, fmt.Errorf("loading banned words: %w", err)
		}
	}
	censoredRune := '*'
	if config.CensoredChar != "" {
		censoredRune = []rune(config.CensoredChar)[0]
	}
	moderator, err := moderation.NewModerator(bannedWords, censoredRune)
	if err != nil {
		return exitConfig, fmt.Errorf("building moderator: %w", err)
	}

	// 4. Engine wiring
	metrics := observability.NewMetrics()
	bus := runtime.NewBus(config.EventBufferSize, metrics, logger)
	registry := runtime.NewRegistry()

	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	reactionRepo := repositories.NewReactionRepository(db)

	conversationService := services.NewConversationService(conversationRepo, messageRepo, registry, logger)
	messageService := services.NewMessageService(conversationRepo, messageRepo, moderator, bus, metrics, logger, config.MaxContentLength)
	reactionService := services.NewReactionService(conversationRepo, messageRepo, reactionRepo, bus, logger)
	presenceService := services.NewPresenceService(bus, metrics, logger)
	typingService := services.NewTypingService(conversationRepo, bus, config.TypingTTL, logger)

	sweepInterval := config.TypingSweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Second
	}
	telemetryInterval := config.TelemetryInterval
	if telemetryInterval <= 0 {
		telemetryInterval = 15 * time.Second
	}

	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewEventFanout(logger, bus.Events(), registry, metrics, config.DeliveryTimeout),
		workers.NewTypingSweeper(logger, typingService, metrics, sweepInterval),
		workers.NewTelemetry(logger, metrics, telemetryInterval),
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting workers...")
		supervisor.Run(ctx)
	}()

	// 6. HTTP server
	allowedOrigins := []string{"*"}
	if config.AllowedOrigins != "" {
		allowedOrigins = strings.Split(config.AllowedOrigins, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	}
	server := httpserver.NewServer(
		conversationService,
		messageService,
		reactionService,
		presenceService,
		typingService,
		registry,
		metrics,
		auth.NewVerifier(config.JWTSecret),
		logger,
		httpserver.Options{
			AllowedOrigins:       allowedOrigins,
			ConnectionBufferSize: config.ConnectionBufferSize,
			WriteTimeout:         config.DeliveryTimeout,
			RateRPS:              config.RateRPS,
			RateBurst:            config.RateBurst,
		},
	)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &nethttp.Server{Addr: address, Handler: server.Handler()}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Listening", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		supervisor.Stop()
		return exitRuntime, err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not complete cleanly", "error", err)
	}
	supervisor.Stop()
	return exitOK, nil
}
