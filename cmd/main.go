package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhikumar45444/movie-night-decider/config"
	"github.com/abhikumar45444/movie-night-decider/internal/cache"
	"github.com/abhikumar45444/movie-night-decider/internal/hub"
	"github.com/abhikumar45444/movie-night-decider/internal/postgres"
	"github.com/abhikumar45444/movie-night-decider/internal/service"
	"github.com/abhikumar45444/movie-night-decider/internal/tmdb"
	httpx "github.com/abhikumar45444/movie-night-decider/internal/transport/http"
	"github.com/abhikumar45444/movie-night-decider/internal/transport/ws"
	"github.com/abhikumar45444/movie-night-decider/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// --- config ---
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting movie-night-decider",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.Postgres.ConnLifetime(),
		ApplicationName: cfg.Postgres.ApplicationName,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	// --- TMDB client, with optional redis page cache ---
	var pageCache tmdb.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CacheTTL(),
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rc.Close()
		pageCache = rc
	}
	catalog := tmdb.New(tmdb.Config{
		APIKey:  cfg.TMDB.APIKey,
		BaseURL: cfg.TMDB.BaseURL,
		Cache:   pageCache,
	})

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(db.Pool)
	partRepo := postgres.NewParticipantRepository(db.Pool)
	movieRepo := postgres.NewMovieRepository(db.Pool)
	voteRepo := postgres.NewVoteRepository(db.Pool)

	// --- services ---
	roomSvc := service.NewRoomService(roomRepo, movieRepo, partRepo, voteRepo, catalog)
	roomSvc.SetMoviesPerRoom(cfg.Room.MoviesPerRoom)
	memberSvc := service.NewMemberService(roomRepo, partRepo)
	voteSvc := service.NewVoteService(roomRepo, partRepo, movieRepo, voteRepo)
	engine := service.NewEngine(roomSvc, memberSvc, voteSvc)

	// --- room hub & ws gateway ---
	roomHub := hub.New(engine, hub.Options{
		SendBuffer:    cfg.Hub.SendBuffer,
		IdleAfter:     cfg.Hub.IdleTimeout(),
		RetryAttempts: cfg.Hub.RetryAttempts,
		RetryDelay:    cfg.Hub.RetryBackoff(),
	})
	gateway := ws.NewGateway(roomHub, memberSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, roomHub, catalog)
	router := httpx.NewRouter(handler, gateway, cfg.CORS.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	roomHub.Shutdown()
	slog.Info("stopped")
}
