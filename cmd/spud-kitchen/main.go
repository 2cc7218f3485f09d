package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/config"
	"github.com/vasiliy-maslov/spud-kitchen/internal/db"
	handler "github.com/vasiliy-maslov/spud-kitchen/internal/handler/http"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/order"
	"github.com/vasiliy-maslov/spud-kitchen/internal/promo"
	"github.com/vasiliy-maslov/spud-kitchen/internal/transport"
)

type storage struct {
	menu   menu.Repository
	promos promo.Repository
	carts  cart.Store
	orders order.Store
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, seed menu.Seed) (*storage, error) {
	if cfg.App.StorageDriver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return &storage{
			menu:   menu.NewMemoryRepository(seed),
			promos: promo.NewMemoryRepository(),
			carts:  cart.NewMemoryStore(),
			orders: order.NewMemoryStore(),
			close:  func() {},
		}, nil
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if err := menu.SeedPostgres(ctx, pg.Pool, seed); err != nil {
		pg.Close()
		return nil, err
	}

	return &storage{
		menu:   menu.NewPostgresRepository(pg.Pool),
		promos: promo.NewPostgresRepository(pg.Pool),
		carts:  cart.NewPostgresStore(pg.Pool),
		orders: order.NewPostgresStore(pg.Pool),
		close:  pg.Close,
	}, nil
}

func loadSeed(path string) (menu.Seed, error) {
	if path == "" {
		return menu.DefaultSeed()
	}
	return menu.LoadSeed(path)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "spud-kitchen").Logger()

	log.Info().Msg("Spud kitchen starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, falling back to debug")
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Str("driver", cfg.App.StorageDriver).Str("port", cfg.App.Port).Msg("Configuration loaded")

	seed, err := loadSeed(cfg.Menu.SeedPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load menu seed")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStorage(startCtx, cfg, seed)
	cancelStart()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}

	menuSvc := menu.NewService(store.menu)
	promoSvc := promo.NewService(store.promos)
	cartSvc := cart.NewService(store.carts, menuSvc)
	orderSvc := order.NewService(store.orders, cartSvc, promoSvc, menuSvc, order.Config{
		Policy:                cfg.Pricing,
		CompletionistCategory: cfg.Loyalty.CompletionistCategory,
		LeaderboardSize:       cfg.Loyalty.LeaderboardSize,
	})

	router := transport.NewRouter(
		handler.NewMenuHandler(menuSvc),
		handler.NewCartHandler(cartSvc),
		handler.NewOrderHandler(orderSvc),
		handler.NewPromoHandler(promoSvc),
	)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	store.close()
	log.Info().Msg("Spud kitchen stopped gracefully")
}
