package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/movie-rental/internal/config"
	"github.com/iliyamo/movie-rental/internal/database"
	"github.com/iliyamo/movie-rental/internal/handler"
	"github.com/iliyamo/movie-rental/internal/logger"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository"
	"github.com/iliyamo/movie-rental/internal/router"
	"github.com/iliyamo/movie-rental/internal/service"
	"github.com/iliyamo/movie-rental/internal/token"
)

const serviceName = "movie-rental"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	lg := logger.Init(serviceName, cfg.Env, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		lg.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		lg.Warn().Msg("redis unavailable; rate limiting and catalogue cache disabled")
	} else {
		defer rdb.Close()
	}

	anon, err := token.NewAnonymousManager(cfg.AnonTokenSecret, cfg.AnonTokenTTL)
	if err != nil {
		lg.Fatal().Err(err).Msg("anonymous token manager")
	}
	issuer, err := token.NewAccessIssuer(token.AccessConfig{
		VideoSecret:   cfg.VideoTokenSecret,
		TrailerSecret: cfg.TrailerTokenSecret,
		VideoTTL:      cfg.VideoTokenTTL,
		TrailerTTL:    cfg.TrailerTokenTTL,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("access token issuer")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	packs := repository.NewPackRepo(db)
	tiers := repository.NewTierRepo(db)
	promos := repository.NewPromoRepo(db)
	rentals := repository.NewRentalRepo(db)

	broker := config.LoadBrokerConfig()
	var publisher service.EventPublisher = service.NoopPublisher{}
	if broker.Enabled {
		publisher = service.NewAMQPPublisher(broker.URL)
		if broker.RunConsumer {
			go func() {
				if err := queue.NewConsumer(broker.URL).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					lg.Error().Err(err).Msg("rental consumer stopped")
				}
			}()
		}
	}

	access := service.NewEntitlementResolver(rentals, packs, nil)
	pricing := service.NewPricingService(movies, tiers, promos, nil)
	rentalSvc := service.NewRentalService(service.RentalDeps{
		Rentals:   rentals,
		Packs:     packs,
		Access:    access,
		Pricing:   pricing,
		Publisher: publisher,
		Duration:  cfg.RentalDuration,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(lg))
	e.Use(echomw.Recover())

	viewer := router.Viewer{
		Resolve: middleware.Viewer(cfg.JWTSecret, anon),
		Limit:   middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:   middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, rentalSvc, anon), viewer.Resolve, cfg.JWTSecret)
	router.RegisterAnonymous(e, handler.NewAnonymousHandler(anon, cfg.Env == "prod"), viewer.Limit)
	router.RegisterCatalogue(e, handler.NewCatalogueHandler(movies, pricing, access), viewer)
	playback := handler.NewPlaybackHandler(movies, access, issuer)
	router.RegisterViewer(e, handler.NewRentalHandler(rentalSvc, access), playback, viewer)
	router.RegisterPlayback(e, playback)
	router.RegisterAdmin(e, handler.NewAdminHandler(tiers, promos, movies), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		lg.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("shutdown")
	}
}
