package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/marilozgz/bigfivetrails/internal/adapters/email"
	server "github.com/marilozgz/bigfivetrails/internal/adapters/http_server"
	"github.com/marilozgz/bigfivetrails/internal/adapters/observability"
	redisad "github.com/marilozgz/bigfivetrails/internal/adapters/redis"
	"github.com/marilozgz/bigfivetrails/internal/app"
	"github.com/marilozgz/bigfivetrails/internal/shared"
	mysqlrepo "github.com/marilozgz/bigfivetrails/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	admin := app.NewAdminService(repo, cache)
	seo := app.NewSEOService(cfg.OpenAIKey, cfg.SEOModel)
	mailer := email.New(cfg.ResendKey, cfg.ContactFrom, cfg.ContactTo)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:          q,
		Admin:      admin,
		SEO:        seo,
		Mail:       mailer,
		AdminToken: cfg.AdminToken,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
