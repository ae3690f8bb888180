package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CMSBase     string
	CMSToken    string
	OpenAIKey   string
	SEOModel    string
	ResendKey   string
	ContactTo   string
	ContactFrom string
	AdminToken  string
	Workers     int
	CacheTTL    time.Duration
}

func Load() Config {
	// Local development keeps settings in a .env file; in prod the
	// environment is already populated and the file is absent.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/bigfivetrails?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		CMSBase:     env("CMS_BASE_URL", ""),
		CMSToken:    env("CMS_API_TOKEN", ""),
		OpenAIKey:   env("OPENAI_API_KEY", ""),
		SEOModel:    env("SEO_MODEL", ""),
		ResendKey:   env("RESEND_API_KEY", ""),
		ContactTo:   env("CONTACT_NOTIFY_TO", ""),
		ContactFrom: env("CONTACT_FROM_EMAIL", ""),
		AdminToken:  env("ADMIN_TOKEN", ""),
		Workers:     atoi("INGEST_WORKERS", 8),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is empty, admin endpoints disabled")
	}
	if c.ResendKey == "" {
		log.Warn().Msg("RESEND_API_KEY is empty, contact mail disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
