//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/marilozgz/bigfivetrails/internal/domain"
	mysqlrepo "github.com/marilozgz/bigfivetrails/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "migrations"
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("migrations dir %s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=bigfivetrails",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/bigfivetrails?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_SafariLifecycle(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	row := domain.RawRow{
		"title":         map[string]any{"en": "Classic Tanzania", "es": "Tanzania Clásica"},
		"location":      "Tanzania",
		"duration_days": 7,
		"price_from":    2450,
		"popular":       true,
	}

	id, err := repo.InsertSafari(ctx, "tz-classic", row)
	if err != nil {
		t.Fatalf("InsertSafari: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	ok, err := repo.ExistsByCode(ctx, "tz-classic")
	if err != nil || !ok {
		t.Fatalf("ExistsByCode: ok=%v err=%v", ok, err)
	}
	if ok, _ := repo.ExistsByCode(ctx, "nope"); ok {
		t.Fatal("ExistsByCode should be false for unknown code")
	}

	// Duplicate code must surface the MySQL 1062 error text.
	if _, err := repo.InsertSafari(ctx, "tz-classic", row); err == nil {
		t.Fatal("duplicate insert should fail")
	}

	got, err := repo.GetRowByCode(ctx, "tz-classic")
	if err != nil {
		t.Fatalf("GetRowByCode: %v", err)
	}
	if got["id"] != id || got["code"] != "tz-classic" {
		t.Fatalf("identity columns not overlaid: %+v", got)
	}
	if got["location"] != "Tanzania" {
		t.Fatalf("doc not round-tripped: %+v", got)
	}

	// A second, non-popular record lands after the popular one.
	if _, err := repo.InsertSafari(ctx, "ke-masai-mara", domain.RawRow{
		"title":    map[string]any{"en": "Masai Mara"},
		"location": "Kenya",
	}); err != nil {
		t.Fatalf("InsertSafari second: %v", err)
	}

	rows, err := repo.ListRows(ctx)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}
	if len(rows) != 2 || rows[0]["code"] != "tz-classic" {
		t.Fatalf("expected popular record first, got %+v", rows)
	}

	row["location"] = "Tanzania & Zanzibar"
	if err := repo.UpdateSafari(ctx, id, row); err != nil {
		t.Fatalf("UpdateSafari: %v", err)
	}
	got, _ = repo.GetRowByCode(ctx, "tz-classic")
	if got["location"] != "Tanzania & Zanzibar" {
		t.Fatalf("update not applied: %+v", got)
	}

	// CMS upsert replaces the doc for an existing code.
	if err := repo.UpsertFromCMS(ctx, "tz-classic", domain.RawRow{
		"title":    map[string]any{"en": "Classic Tanzania (CMS)"},
		"location": "Tanzania",
	}); err != nil {
		t.Fatalf("UpsertFromCMS: %v", err)
	}

	if err := repo.DeleteSafari(ctx, id); err != nil {
		t.Fatalf("DeleteSafari: %v", err)
	}
	if err := repo.DeleteSafari(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
	if _, err := repo.GetRowByCode(ctx, "tz-classic"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetRowByCode after delete: want ErrNotFound, got %v", err)
	}

	if err := repo.LogMiss(ctx, "gone-trip", 404, "cms:en"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}
	if err := repo.LogMiss(ctx, "gone-trip", 403, "cms:es"); err != nil {
		t.Fatalf("LogMiss upsert: %v", err)
	}
}

func TestRepo_MySQL_TravelTips(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `
INSERT INTO travel_tips (country, section, title_en, title_es, intro_es, items_es, cta_href)
VALUES ('tanzania', 'visa', 'Visa requirements', 'Requisitos de visado', 'Antes de viajar...', '["Pasaporte vigente","Visado electrónico"]', '/contact')`,
	); err != nil {
		t.Fatalf("seed tip: %v", err)
	}

	row, err := repo.GetTravelTipRow(ctx, "tanzania", "visa")
	if err != nil {
		t.Fatalf("GetTravelTipRow: %v", err)
	}
	if row["title_es"] != "Requisitos de visado" || row["title_en"] != "Visa requirements" {
		t.Fatalf("titles: %+v", row)
	}
	items, ok := row["items_es"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items_es: %+v", row["items_es"])
	}
	if _, okKey := row["intro_en"]; okKey {
		t.Fatal("NULL columns must stay absent from the row")
	}

	if _, err := repo.GetTravelTipRow(ctx, "tanzania", "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
