/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the tuition tracker server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config file, apply command-line overrides
  2. Initialize SQLite store (tuition blob + reminder queue)
  3. Create the tracker and load the stored list
  4. Start the billing scheduler (rollover + reminder delivery)
  5. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (default: config.yaml, optional)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides storage.path
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and flush pending writes
  4. Close database connection

EXAMPLES:
  ./server -db="./data/tuition.db"
  ./server -db=":memory:" -port=3000
  ./server -config=/etc/tuition/config.yaml

SEE ALSO:
  - config/config.go: Config file format
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/tuition-engine/api"
	"github.com/warp/tuition-engine/config"
	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/store/sqlite"
	"github.com/warp/tuition-engine/tracker"
)

func main() {
	// Flags
	configPath := flag.String("config", "config.yaml", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize tracker
	tr := tracker.New(store,
		tracker.WithNotifier(store),
		tracker.WithStorageKey(cfg.Storage.Key),
	)
	defer tr.Close()
	list := tr.Load(context.Background())
	log.Printf("Loaded %d tuition(s)", len(list))

	// Background rollover + reminder delivery
	scheduler := api.NewBillingScheduler(tr, &reminder.Dispatcher{Queue: store, Sink: store})
	scheduler.Enabled = cfg.Reminders.Enabled
	scheduler.CheckInterval = cfg.Reminders.CheckInterval
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(api.NewHandler(tr, store), cfg.Server.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("📚 API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
