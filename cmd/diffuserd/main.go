package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/jaehong-maker/Smart-Diffuser-Project/config"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/api"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/db"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/engine"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/notification"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/store"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/voice"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/weather"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := newCLIApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openStore picks the storage backend named by database.driver.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == "bolt" {
		return store.NewBoltStore(cfg.Database.DSN, cfg.Decision.MaxCapacity)
	}
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(gormDB, cfg.Decision.MaxCapacity), nil
}

func regionOverrides(grids map[string]config.GridSpec) map[string]region.Coords {
	overrides := make(map[string]region.Coords, len(grids))
	for name, grid := range grids {
		overrides[name] = region.Coords{NX: grid.NX, NY: grid.NY}
	}
	return overrides
}

func serve(configPath string) error {
	// Setup logger
	logger := log.New(os.Stdout, "diffuser ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	appStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer appStore.Close()
	logger.Printf("data store initialized (%s)", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := region.NewCatalog(regionOverrides(cfg.Regions))
	deps := engine.Deps{
		States:  appStore,
		Mailbox: appStore,
		Catalog: catalog,
		Now:     now,
	}

	if client := weather.NewClient(cfg.Weather); client.Configured() {
		deps.Weather = client
		prefetcher := weather.NewPrefetcher(client, catalog, cfg.Weather.PrefetchRegions, cfg.Weather.PrefetchInterval, now)
		go prefetcher.Run(ctx)
	} else {
		logger.Println("SERVICE_KEY is not set; weather requests other than test regions will fail")
	}

	if cfg.Voice.AudioDir != "" {
		if cfg.Voice.STTEndpoint == "" {
			logger.Println("voice.stt_endpoint is not set; every voice request will report an STT failure")
		}
		deps.Voice = voice.NewService(cfg.Voice, now)
	} else {
		logger.Println("AUDIO_BUCKET is not set; voice requests will fail")
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			return errors.New("VAPID keys must be configured when push is enabled")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		deps.Notifier = pool
	}

	eng := engine.New(engine.PolicyFromConfig(cfg), deps)

	router := api.NewRouter(api.NewHandler(eng, appStore, catalog, webpushOptions), cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Println("Shutdown signal received, stopping services...")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	logger.Println("Server gracefully stopped")
	return nil
}
