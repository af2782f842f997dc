/*
Package main is the entry point for the ephemeral chat core.

It loads configuration, initializes the global logging system, builds the user
and chat repositories with the session engine on top, and runs the purge
recovery sweep so chats closed before the last restart still get deleted. The
process then waits for an operating system interrupt signal (SIGINT, SIGTERM);
the request-handling layer that drives the engine is embedded here by the
surrounding deployment.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tempchat/internal/app/chat"
	"tempchat/internal/app/session"
	"tempchat/internal/app/user"
	"tempchat/internal/configs"
	"tempchat/internal/pkg/logx"
)

func main() {
	// Load configuration from the optional YAML file and environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("data_dir", cfg.DataDir).
		Dur("purge_delay", cfg.PurgeDelay).
		Float64("invite_rate", cfg.InviteRate).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build repositories and the session engine
	userRepo := user.NewRepository(cfg.DataDir)
	chatRepo := chat.NewRepository(cfg.DataDir, cfg.PurgeDelay)

	// Resume purges scheduled before the last restart
	purged, customErr := chatRepo.RecoverPurges()
	if customErr != nil {
		logx.Fatal(customErr, "Purge recovery failed")
	}
	if purged > 0 {
		logx.Info("Purge recovery completed", "purged_chats", purged)
	}

	session.NewEngine(userRepo, chatRepo, cfg)

	logx.Info("Chat core ready")

	// Wait for interrupt signal to shut down.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Stopping.")
}
