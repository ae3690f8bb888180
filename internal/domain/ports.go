package domain

import "context"

// RawRow is one safari record as stored: schema families differ between
// hand-entered rows, flat per-locale columns and CMS documents, so the
// storage layer hands back whatever shape it holds and the mapper layer
// normalizes it.
type RawRow = map[string]any

type SafariRepository interface {
	InsertSafari(ctx context.Context, code string, row RawRow) (string, error)
	UpdateSafari(ctx context.Context, id string, row RawRow) error
	DeleteSafari(ctx context.Context, id string) error
	UpsertFromCMS(ctx context.Context, code string, row RawRow) error

	ExistsByCode(ctx context.Context, code string) (bool, error)
	LogMiss(ctx context.Context, code string, status int, reason string) error

	// ListRows returns every safari row ordered popular-first, newest-first.
	ListRows(ctx context.Context) ([]RawRow, error)
	GetRowByCode(ctx context.Context, code string) (RawRow, error)

	GetTravelTipRow(ctx context.Context, country, section string) (RawRow, error)
}

type CMSClient interface {
	ListSafaris(ctx context.Context, locale string) ([]map[string]any, error)
	GetSafari(ctx context.Context, code, locale string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Mailer interface {
	SendContact(ctx context.Context, msg ContactMessage) error
}
