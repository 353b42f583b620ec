package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Neumenon/mathtex/server"
)

// cmdServe runs the HTTP service until interrupted.
func cmdServe(opts options) {
	cfg, renderer, logger := opts.setup()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(server.SettingsFromConfig(cfg),
		server.WithRenderer(renderer),
		server.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		fatal("%v", err)
	}
	<-ctx.Done()

	logger.Printf("serve: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("shutdown: %v", err)
	}
}
