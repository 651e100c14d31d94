package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"ramen-house/internal/config"
	"ramen-house/internal/logger"
	"ramen-house/internal/menu"
	"ramen-house/internal/messaging"
	"ramen-house/internal/middleware"
	"ramen-house/internal/services/order"
	"ramen-house/internal/services/tools"
	"ramen-house/internal/store"
)

func main() {
	var (
		port     = flag.Int("port", 0, "HTTP port (overrides PORT)")
		menuPath = flag.String("menu", "", "Path to the menu catalog file (overrides MENU_PATH)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if *menuPath != "" {
		cfg.Menu.Path = *menuPath
	}

	log := logger.New("ramen-house")

	log.Info("service_started", "Starting ramen-house", "startup", map[string]interface{}{
		"port":      cfg.HTTP.Port,
		"menu_path": cfg.Menu.Path,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", "startup", nil)
		cancel()
	}()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service_failed", "Service failed", "startup", err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", "startup", nil)
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	menuReader := menu.NewReader(cfg.Menu.Path)

	// The store is selected once and shared for the process lifetime.
	orderStore := store.New(ctx, &cfg.Storage, log)

	var publisher order.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := messaging.New(cfg.RabbitMQ.URL, log)
		if err != nil {
			log.Error("rabbitmq_unavailable", "Continuing without event publishing", "startup", err, nil)
		} else {
			defer conn.Close()
			publisher = messaging.NewPublisher(conn, log)
			log.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", nil)
		}
	}

	orderService := order.NewService(menuReader, orderStore, publisher, log)
	orderHandler := order.NewHandler(orderService, log)

	toolsService := tools.NewService(menuReader, log)
	toolsHandler := tools.NewHandler(toolsService, log)

	router := mux.NewRouter()
	router.Use(middleware.RequestLogging(log))
	orderHandler.Register(router)
	toolsHandler.Register(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("server_listening", fmt.Sprintf("HTTP server listening on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
			"port": cfg.HTTP.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", "startup", err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
