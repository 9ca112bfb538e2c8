package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
)

func main() {
	configPath := flag.String("config", os.Getenv("STOREFRONT_CONFIG"), "path to a storefront config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("storefront: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := runtimeconfig.Load(configPath)
	if err != nil {
		return err
	}

	module, err := storefront.New(cfg)
	if err != nil {
		return err
	}
	logger := module.Logger()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           module.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront.http_listening", "addr", srv.Addr, "public_url", cfg.HTTP.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = module.Close(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("storefront.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	// pending autosaves are flushed by Close
	return errors.Join(err, module.Close(shutdownCtx))
}
