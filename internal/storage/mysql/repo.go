package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/marilozgz/bigfivetrails/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// popularFlag pulls the denormalized ordering column out of the doc.
func popularFlag(row domain.RawRow) bool {
	switch v := row["popular"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	return false
}

func (r *Repo) InsertSafari(ctx context.Context, code string, row domain.RawRow) (string, error) {
	doc, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("mysql: marshal safari doc: %w", err)
	}
	res, err := r.db.ExecContext(ctx, insertSafariSQL, code, string(doc), popularFlag(row))
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (r *Repo) UpdateSafari(ctx context.Context, id string, row domain.RawRow) error {
	doc, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("mysql: marshal safari doc: %w", err)
	}
	_, err = r.db.ExecContext(ctx, updateSafariSQL, string(doc), popularFlag(row), id)
	return err
}

func (r *Repo) DeleteSafari(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteSafariSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) UpsertFromCMS(ctx context.Context, code string, row domain.RawRow) error {
	doc, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("mysql: marshal safari doc: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertFromCMSSQL, code, string(doc), popularFlag(row))
	return err
}

func (r *Repo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, existsByCodeSQL, code).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repo) LogMiss(ctx context.Context, code string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, code, status, reason)
	return err
}

// scanRow rebuilds the stored doc and overlays the identity columns, so
// normalization always sees the row's canonical id and code even when an
// older doc carries stale copies.
func scanRow(id int64, code string, doc []byte) domain.RawRow {
	row := domain.RawRow{}
	_ = json.Unmarshal(doc, &row)
	row["id"] = strconv.FormatInt(id, 10)
	row["code"] = code
	return row
}

func (r *Repo) ListRows(ctx context.Context) ([]domain.RawRow, error) {
	rows, err := r.db.QueryContext(ctx, listRowsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RawRow
	for rows.Next() {
		var (
			id   int64
			code string
			doc  []byte
		)
		if err := rows.Scan(&id, &code, &doc); err != nil {
			return nil, err
		}
		out = append(out, scanRow(id, code, doc))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetRowByCode(ctx context.Context, code string) (domain.RawRow, error) {
	var (
		id  int64
		c   string
		doc []byte
	)
	err := r.db.QueryRowContext(ctx, getRowByCodeSQL, code).Scan(&id, &c, &doc)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return scanRow(id, c, doc), nil
}

func (r *Repo) GetTravelTipRow(ctx context.Context, country, section string) (domain.RawRow, error) {
	var (
		titleEN, titleES       sql.NullString
		introEN, introES       sql.NullString
		itemsEN, itemsES       []byte
		ctaLabelEN, ctaLabelES sql.NullString
		ctaHref                sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getTravelTipSQL, country, section).Scan(
		&titleEN, &titleES,
		&introEN, &introES,
		&itemsEN, &itemsES,
		&ctaLabelEN, &ctaLabelES,
		&ctaHref,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	row := domain.RawRow{}
	putStr := func(key string, v sql.NullString) {
		if v.Valid && v.String != "" {
			row[key] = v.String
		}
	}
	putStr("title_en", titleEN)
	putStr("title_es", titleES)
	putStr("intro_en", introEN)
	putStr("intro_es", introES)
	putStr("cta_label_en", ctaLabelEN)
	putStr("cta_label_es", ctaLabelES)
	putStr("cta_href", ctaHref)
	putItems := func(key string, b []byte) {
		if len(b) == 0 {
			return
		}
		var items []any
		if json.Unmarshal(b, &items) == nil && len(items) > 0 {
			row[key] = items
		}
	}
	putItems("items_en", itemsEN)
	putItems("items_es", itemsES)
	return row, nil
}
