package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marilozgz/bigfivetrails/internal/app"
	"github.com/marilozgz/bigfivetrails/internal/domain"
)

type fakeRepo struct {
	rows   []domain.RawRow
	tipRow domain.RawRow
}

func (f *fakeRepo) InsertSafari(_ context.Context, code string, row domain.RawRow) (string, error) {
	cp := domain.RawRow{"id": "99", "code": code}
	for k, v := range row {
		cp[k] = v
	}
	f.rows = append(f.rows, cp)
	return "99", nil
}

func (f *fakeRepo) UpdateSafari(context.Context, string, domain.RawRow) error   { return nil }
func (f *fakeRepo) DeleteSafari(context.Context, string) error                 { return nil }
func (f *fakeRepo) UpsertFromCMS(context.Context, string, domain.RawRow) error { return nil }

func (f *fakeRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, r := range f.rows {
		if r["code"] == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) LogMiss(context.Context, string, int, string) error { return nil }

func (f *fakeRepo) ListRows(context.Context) ([]domain.RawRow, error) { return f.rows, nil }

func (f *fakeRepo) GetRowByCode(_ context.Context, code string) (domain.RawRow, error) {
	for _, r := range f.rows {
		if r["code"] == code {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetTravelTipRow(context.Context, string, string) (domain.RawRow, error) {
	if f.tipRow == nil {
		return nil, domain.ErrNotFound
	}
	return f.tipRow, nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any, int) error    { return nil }
func (nopCache) Del(context.Context, string) error              { return nil }

type fakeMailer struct {
	sent []domain.ContactMessage
	err  error
}

func (f *fakeMailer) SendContact(_ context.Context, msg domain.ContactMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testRows() []domain.RawRow {
	return []domain.RawRow{
		{
			"id":   "1",
			"code": "tz-classic",
			"title": map[string]any{
				"en": "Classic Tanzania", "es": "Tanzania Clásica",
			},
			"location":         "Tanzania",
			"duration_days":    float64(7),
			"price_from":       float64(2450),
			"experience_types": []any{"lodge"},
			"popular":          true,
		},
		{
			"id":            "2",
			"code":          "ke-masai-mara",
			"title":         map[string]any{"en": "Masai Mara Adventure"},
			"location":      "Kenya",
			"duration_days": float64(4),
			"price_from":    float64(1800),
		},
	}
}

func newTestServer(t *testing.T, repo *fakeRepo, mail domain.Mailer, adminToken string) http.Handler {
	t.Helper()
	q := app.NewQueryService(repo, nopCache{}, 5*time.Minute)
	admin := app.NewAdminService(repo, nopCache{})
	seo := app.NewSEOService("", "")

	srv := New()
	srv.MountHandlers(&Handlers{Q: q, Admin: admin, SEO: seo, Mail: mail, AdminToken: adminToken})
	return srv.Mux()
}

func doJSON(t *testing.T, h http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListSafarisFiltersAndETag(t *testing.T) {
	h := newTestServer(t, &fakeRepo{rows: testRows()}, nil, "")

	rec := doJSON(t, h, http.MethodGet, "/v1/safaris?location=Kenya", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	var page struct {
		Items []struct{ Code, Title string }
		Total int
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Code != "ke-masai-mara" {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d", page.Total)
	}

	rec2 := doJSON(t, h, http.MethodGet, "/v1/safaris?location=Kenya", "", map[string]string{"If-None-Match": etag})
	if rec2.Code != http.StatusNotModified {
		t.Fatalf("conditional request: status = %d", rec2.Code)
	}
	if rec2.Header().Get("ETag") != etag {
		t.Fatal("304 must carry the ETag")
	}
}

func TestListSafarisMalformedBoundIgnored(t *testing.T) {
	h := newTestServer(t, &fakeRepo{rows: testRows()}, nil, "")

	rec := doJSON(t, h, http.MethodGet, "/v1/safaris?dmin=banana&max=-5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct{ Items []any }
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if len(page.Items) != 2 {
		t.Fatalf("malformed bounds must not filter, got %d items", len(page.Items))
	}
}

func TestGetSafariLocaleFromHeader(t *testing.T) {
	h := newTestServer(t, &fakeRepo{rows: testRows()}, nil, "")

	rec := doJSON(t, h, http.MethodGet, "/v1/safaris/tz-classic", "", map[string]string{"Accept-Language": "es-ES,es;q=0.9"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if cl := rec.Header().Get("Content-Language"); cl != "es" {
		t.Fatalf("Content-Language = %q", cl)
	}
	var s struct{ Title string }
	_ = json.Unmarshal(rec.Body.Bytes(), &s)
	if s.Title != "Tanzania Clásica" {
		t.Fatalf("title = %q", s.Title)
	}
}

func TestGetSafariNotFound(t *testing.T) {
	h := newTestServer(t, &fakeRepo{rows: testRows()}, nil, "")

	rec := doJSON(t, h, http.MethodGet, "/v1/safaris/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestListLocations(t *testing.T) {
	h := newTestServer(t, &fakeRepo{rows: testRows()}, nil, "")

	rec := doJSON(t, h, http.MethodGet, "/v1/safaris/locations", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var m map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["Tanzania"] != 1 || m["Kenya"] != 1 {
		t.Fatalf("facets = %v", m)
	}
}

func TestTravelTipRequiresParams(t *testing.T) {
	h := newTestServer(t, &fakeRepo{}, nil, "")

	rec := doJSON(t, h, http.MethodGet, "/v1/travel-tips?country=tanzania", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPostContact(t *testing.T) {
	mail := &fakeMailer{}
	h := newTestServer(t, &fakeRepo{}, mail, "")

	body := `{"firstName":"Ana","email":"ana@example.com","message":"Hola, queremos ir en julio."}`
	rec := doJSON(t, h, http.MethodPost, "/v1/contact", body, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(mail.sent) != 1 || mail.sent[0].FirstName != "Ana" {
		t.Fatalf("mailer got %+v", mail.sent)
	}
}

func TestPostContactValidation(t *testing.T) {
	mail := &fakeMailer{}
	h := newTestServer(t, &fakeRepo{}, mail, "")

	for _, body := range []string{
		`{"email":"a@b.c","message":"hi"}`,
		`{"firstName":"Ana","email":"not-an-email","message":"hi"}`,
		`{"firstName":"Ana","email":"a@b.c"}`,
	} {
		rec := doJSON(t, h, http.MethodPost, "/v1/contact", body, nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("body %s: status = %d", body, rec.Code)
		}
	}
	if len(mail.sent) != 0 {
		t.Fatal("invalid submissions must not reach the mailer")
	}
}

func TestPostContactThrottled(t *testing.T) {
	h := newTestServer(t, &fakeRepo{}, &fakeMailer{}, "")

	body := `{"firstName":"Ana","email":"a@b.c","message":"hola"}`
	var last int
	for i := 0; i < 4; i++ {
		last = doJSON(t, h, http.MethodPost, "/v1/contact", body, nil).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("fourth burst request: status = %d", last)
	}
}

func TestAdminAuth(t *testing.T) {
	h := newTestServer(t, &fakeRepo{}, nil, "secret")

	rec := doJSON(t, h, http.MethodPost, "/v1/admin/safaris", `{}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/admin/safaris", `{}`, map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", rec.Code)
	}
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	h := newTestServer(t, &fakeRepo{}, nil, "")

	rec := doJSON(t, h, http.MethodDelete, "/v1/admin/safaris/1", "", map[string]string{"Authorization": "Bearer anything"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminCreateSafari(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestServer(t, repo, nil, "secret")

	body := `{"title":{"es":"Safari Clásico"},"location":"Tanzania","durationDays":7,"priceFrom":2000}`
	rec := doJSON(t, h, http.MethodPost, "/v1/admin/safaris", body, map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["code"] != "safari-clasico" {
		t.Fatalf("code = %q", out["code"])
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d", len(repo.rows))
	}
}

func TestAdminCreateValidation(t *testing.T) {
	h := newTestServer(t, &fakeRepo{}, nil, "secret")

	rec := doJSON(t, h, http.MethodPost, "/v1/admin/safaris", `{"durationDays":7}`, map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var p struct{ Detail string }
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if !strings.Contains(p.Detail, "title") {
		t.Fatalf("detail = %q", p.Detail)
	}
}

func TestAdminSEOFallback(t *testing.T) {
	h := newTestServer(t, &fakeRepo{}, nil, "secret")

	body := `{"title":"Great Migration","overview":"Follow the herds across the Serengeti.","location":"Tanzania"}`
	rec := doJSON(t, h, http.MethodPost, "/v1/admin/seo", body, map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.Title, "Great Migration") || out.Description == "" {
		t.Fatalf("seo = %+v", out)
	}
}
