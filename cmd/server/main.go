package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/clicklink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/clicklink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/clicklink/pkg/config"
	"github.com/wadjakorntonsri/clicklink/pkg/core/services"
)

func main() {
	cfg := config.Load()

	// Initialize Repository
	repo, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Initialize Service
	service := services.NewLinkService(repo)

	// Initialize Router
	mux := handler.NewRouter(cfg, service)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	log.Printf("Server starting on port %s (auth enabled: %t)", cfg.Port, cfg.AuthEnabled())
	if err := serve(ctx, server, ln, shutdownTimeout); err != nil {
		log.Printf("Server error: %v", err)
	}
	log.Printf("Server stopped")
}

const shutdownTimeout = 10 * time.Second

// serve blocks until ctx is done and in-flight requests have drained
// (or drain has elapsed).
func serve(ctx context.Context, server *http.Server, ln net.Listener, drain time.Duration) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		done <- server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-done; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
