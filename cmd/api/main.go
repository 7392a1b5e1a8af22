package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "review_sentiment/internal/adapters/http_server"
	lruad "review_sentiment/internal/adapters/lru"
	"review_sentiment/internal/adapters/observability"
	redisad "review_sentiment/internal/adapters/redis"
	"review_sentiment/internal/adapters/remote"
	"review_sentiment/internal/app"
	"review_sentiment/internal/domain"
	"review_sentiment/internal/model"
	"review_sentiment/internal/shared"
	"review_sentiment/internal/storage/files"
	mysqlrepo "review_sentiment/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	loc := cfg.Location()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clf := loadClassifier(ctx, cfg)
	log.Info().Str("model", clf.ID()).Interface("classes", clf.Classes()).Msg("classifier ready")

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, batch cache will miss")
		}
		cache = rc
	} else {
		cache = lruad.New(cfg.CacheSize, cfg.CacheTTL)
	}
	p := app.NewPipelineService(clf, cache, cfg.CacheTTL, loc)

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{P: p, MaxUpload: cfg.MaxUploadBytes})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("bye")
}

// loadClassifier builds the classifier once at startup. Any failure is fatal.
func loadClassifier(ctx context.Context, cfg shared.Config) domain.Classifier {
	if cfg.ClassifierURL != "" {
		c, err := remote.New(ctx, cfg.ClassifierURL, cfg.ClassifierKey, cfg.ClassifierRPS, cfg.RequestTimeout)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.ClassifierURL).Msg("remote classifier unavailable")
		}
		return c
	}

	var store domain.ArtifactStore
	switch cfg.ArtifactSource {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		store = mysqlrepo.New(db)
	default:
		store = files.New(cfg.ArtifactDir)
	}

	names := model.Names{Vectorizer: cfg.VectorizerName, Classifier: cfg.ClassifierName, Encoder: cfg.EncoderName}
	m, err := model.Load(ctx, store, names)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.ArtifactSource).Msg("failed to load model artifacts")
	}
	return m
}
