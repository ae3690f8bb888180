package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/marilozgz/bigfivetrails/internal/adapters/cms"
	"github.com/marilozgz/bigfivetrails/internal/adapters/observability"
	redisad "github.com/marilozgz/bigfivetrails/internal/adapters/redis"
	"github.com/marilozgz/bigfivetrails/internal/app"
	"github.com/marilozgz/bigfivetrails/internal/shared"
	mysqlrepo "github.com/marilozgz/bigfivetrails/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.CMSBase).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := cms.New(cfg.CMSBase, cfg.CMSToken, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize CMS client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(client, repo, cache)

	docs, err := client.ListSafaris(ctx, app.DefaultLocale)
	if err != nil {
		log.Fatal().Err(err).Msg("list safaris from CMS failed")
	}
	codes := collectCodes(docs)
	log.Info().Int("count", len(codes)).Msg("codes discovered")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, code := range codes {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := ing.SyncSafari(ctx, code); err != nil {
				log.Warn().Str("code", code).Err(err).Msg("sync failed")
				return
			}
			log.Info().Str("code", code).Msg("sync ok")
		}(code)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}

// collectCodes pulls the catalog codes out of the CMS listing, tolerating
// both flat documents and the envelope that nests fields under attributes.
func collectCodes(docs []map[string]any) []string {
	seen := make(map[string]bool, len(docs))
	var out []string
	for _, doc := range docs {
		if attrs, ok := doc["attributes"].(map[string]any); ok {
			doc = attrs
		}
		code, _ := doc["code"].(string)
		if code == "" {
			code, _ = doc["slug"].(string)
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
