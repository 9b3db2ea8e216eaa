package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"market-chat/auth"
	"market-chat/directory"
	"market-chat/infrastructure/httpserver"
	"market-chat/internal"
	"market-chat/projection"
	"market-chat/repositories"
	"market-chat/runtime"
	"market-chat/services"

	env "github.com/Netflix/go-env"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern ensures all 'defer' statements (like database cleanup) run before the program exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.Logger(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Directory (external accounts/listings stand-in)
	dir := directory.NewInMemory()
	if config.DirectorySeedPath != "" {
		if err := dir.LoadFile(config.DirectorySeedPath); err != nil {
			return exitConfig, err
		}
		logger.Info("Directory seeded", "path", config.DirectorySeedPath)
	}

	// 4. Wiring
	chats := repositories.NewChatRepository(db, logger)
	messages := repositories.NewMessageRepository(db, logger)
	registry := runtime.NewRegistry()
	delivery := runtime.NewDelivery(logger, chats, messages, registry, config.PushTimeout)
	inbox := projection.NewInbox(chats, messages, registry, dir)
	service := services.NewChatService(chats, messages, registry, delivery, inbox)
	tokens := auth.NewTokens(config.JWTSecret, config.AuthTokenDuration)
	handler := httpserver.NewHandler(logger, service, tokens, config.ConnectionBufferSize)

	// 5. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    config.Addr(),
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", config.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful Shutdown
	// Active requests get ShutdownTimeout to finish; websocket clients
	// observe the close and reconnect against the next instance.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
