package httpserver

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/marilozgz/bigfivetrails/internal/adapters/observability"
	"github.com/marilozgz/bigfivetrails/internal/app"
	"github.com/marilozgz/bigfivetrails/internal/domain"
)

type Handlers struct {
	Q          *app.QueryService
	Admin      *app.AdminService
	SEO        *app.SEOService
	Mail       domain.Mailer
	AdminToken string

	contactLimits ipLimiter
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/safaris", h.listSafaris)
	s.mux.Get("/v1/safaris/locations", h.listLocations)
	s.mux.Get("/v1/safaris/{code}", h.getSafari)
	s.mux.Get("/v1/travel-tips", h.getTravelTip)
	s.mux.Post("/v1/contact", h.postContact)

	s.mux.Route("/v1/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/safaris", h.createSafari)
		r.Put("/safaris/{id}", h.updateSafari)
		r.Delete("/safaris/{id}", h.deleteSafari)
		r.Post("/seo", h.generateSEO)
	})
}

func selectLang(al string) string {
	s := strings.ToLower(al)
	for _, loc := range app.SupportedLocales {
		if strings.HasPrefix(s, loc) {
			return loc
		}
	}
	return app.DefaultLocale
}

func requestLang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return app.NormalizeLocale(lang)
	}
	return selectLang(r.Header.Get("Accept-Language"))
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, lang string, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	if lang != "" {
		w.Header().Set("Content-Language", lang)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// queryInt treats a malformed or negative value the same as an absent one,
// so a broken query string never turns into a filter nobody asked for.
func queryInt(r *http.Request, name string) *int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func queryStrings(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (h *Handlers) listSafaris(w http.ResponseWriter, r *http.Request) {
	lang := requestLang(r)
	spec := domain.FilterSpec{
		SearchText:      r.URL.Query().Get("q"),
		Location:        r.URL.Query().Get("location"),
		ExperienceTypes: queryStrings(r, "t"),
		DurationMin:     queryInt(r, "dmin"),
		DurationMax:     queryInt(r, "dmax"),
		PriceMin:        queryInt(r, "min"),
		PriceMax:        queryInt(r, "max"),
	}
	sortKey := domain.ParseSortKey(r.URL.Query().Get("sort"))

	page, err := h.Q.ListSafaris(r.Context(), lang, spec, sortKey)
	if err != nil {
		log.Error().Err(err).Str("lang", lang).Msg("list safaris failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not load safaris")
		return
	}
	writeCached(w, r, lang, page)
}

func (h *Handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	lang := requestLang(r)
	page, err := h.Q.ListSafaris(r.Context(), lang, domain.FilterSpec{}, domain.SortPopularity)
	if err != nil {
		log.Error().Err(err).Msg("list locations failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not load locations")
		return
	}
	writeCached(w, r, lang, page.Locations)
}

func (h *Handlers) getSafari(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	lang := requestLang(r)

	s, err := h.Q.GetSafari(r.Context(), code, lang)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "safari not found")
			return
		}
		log.Error().Err(err).Str("code", code).Msg("get safari failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not load safari")
		return
	}
	writeCached(w, r, lang, s)
}

func (h *Handlers) getTravelTip(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	section := r.URL.Query().Get("section")
	if country == "" || section == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "country and section are required")
		return
	}
	lang := requestLang(r)

	tip, err := h.Q.GetTravelTip(r.Context(), country, section, lang)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "travel tip not found")
			return
		}
		log.Error().Err(err).Str("country", country).Str("section", section).Msg("get travel tip failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not load travel tip")
		return
	}
	writeCached(w, r, lang, tip)
}

// ---- contact form ----

type contactPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	TripType  string `json:"tripType"`
	Travelers string `json:"travelers"`
	Budget    string `json:"budget"`
	Message   string `json:"message"`
}

type ipLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*rate.Limiter)
	}
	lim, ok := l.m[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(20*time.Second), 3)
		l.m[ip] = lim
	}
	return lim.Allow()
}

func (h *Handlers) postContact(w http.ResponseWriter, r *http.Request) {
	if !h.contactLimits.allow(remoteIP(r)) {
		observability.ObserveContact("throttled")
		writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "slow down and try again")
		return
	}

	var p contactPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&p); err != nil {
		observability.ObserveContact("rejected")
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if detail := validateContact(p); detail != "" {
		observability.ObserveContact("rejected")
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Message", detail)
		return
	}

	msg := domain.ContactMessage{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Email:     strings.TrimSpace(p.Email),
		Phone:     strings.TrimSpace(p.Phone),
		TripType:  strings.TrimSpace(p.TripType),
		Travelers: strings.TrimSpace(p.Travelers),
		Budget:    strings.TrimSpace(p.Budget),
		Message:   strings.TrimSpace(p.Message),
	}
	if h.Mail != nil {
		if err := h.Mail.SendContact(r.Context(), msg); err != nil {
			observability.ObserveContact("failed")
			log.Error().Err(err).Msg("contact mail dispatch failed")
			writeProblem(w, http.StatusBadGateway, "Delivery Failed", "could not deliver message")
			return
		}
	}
	observability.ObserveContact("sent")
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func validateContact(p contactPayload) string {
	if strings.TrimSpace(p.FirstName) == "" {
		return "firstName is required"
	}
	email := strings.TrimSpace(p.Email)
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return "a valid email is required"
	}
	if strings.TrimSpace(p.Message) == "" {
		return "message is required"
	}
	if len(p.Message) > 10_000 {
		return "message is too long"
	}
	return ""
}

// ---- admin ----

func (h *Handlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.AdminToken == "" {
			writeProblem(w, http.StatusNotFound, "Not Found", "")
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.AdminToken)) != 1 {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type draftPayload struct {
	Title          map[string]string `json:"title"`
	Overview       map[string]string `json:"overview"`
	Description    map[string]string `json:"description"`
	Accommodation  map[string]string `json:"accommodation"`
	Transportation map[string]string `json:"transportation"`
	BestTime       map[string]string `json:"bestTime"`
	Difficulty     map[string]string `json:"difficulty"`
	Location       string            `json:"location"`

	DurationDays *int `json:"durationDays"`
	PriceFrom    *int `json:"priceFrom"`
	MaxGroupSize *int `json:"maxGroupSize"`

	ExperienceTypes []string              `json:"experienceTypes"`
	Highlights      []string              `json:"highlights"`
	Route           []string              `json:"route"`
	Itinerary       []domain.ItineraryDay `json:"itinerary"`

	Thumbnail      string   `json:"thumbnail"`
	ThumbnailThumb string   `json:"thumbnailThumb"`
	Images         []string `json:"images"`
	OGImage        string   `json:"ogImage"`

	SEOTitle       string `json:"seoTitle"`
	SEODescription string `json:"seoDescription"`

	Popular bool `json:"popular"`
}

func (p draftPayload) toDraft() domain.SafariDraft {
	return domain.SafariDraft{
		Title:          p.Title,
		Overview:       p.Overview,
		Description:    p.Description,
		Accommodation:  p.Accommodation,
		Transportation: p.Transportation,
		BestTime:       p.BestTime,
		Difficulty:     p.Difficulty,
		Location:       p.Location,

		DurationDays: p.DurationDays,
		PriceFrom:    p.PriceFrom,
		MaxGroupSize: p.MaxGroupSize,

		ExperienceTypes: p.ExperienceTypes,
		Highlights:      p.Highlights,
		Route:           p.Route,
		Itinerary:       p.Itinerary,

		Thumbnail:      p.Thumbnail,
		ThumbnailThumb: p.ThumbnailThumb,
		Images:         p.Images,
		OGImage:        p.OGImage,

		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,

		Popular: p.Popular,
	}
}

func (h *Handlers) createSafari(w http.ResponseWriter, r *http.Request) {
	var p draftPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	code, err := h.Admin.CreateSafari(r.Context(), p.toDraft())
	if err != nil {
		h.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (h *Handlers) updateSafari(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p draftPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.Admin.UpdateSafari(r.Context(), id, p.toDraft()); err != nil {
		h.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) deleteSafari(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Admin.DeleteSafari(r.Context(), id); err != nil {
		h.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeAdminError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Record", verr.Error())
	case errors.Is(err, domain.ErrCodeTaken):
		writeProblem(w, http.StatusConflict, "Conflict", "code already in use")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "safari not found")
	default:
		log.Error().Err(err).Msg("admin operation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "operation failed")
	}
}

type seoPayload struct {
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Location string `json:"location"`
}

func (h *Handlers) generateSEO(w http.ResponseWriter, r *http.Request) {
	var p seoPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(p.Title) == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Record", "title is required")
		return
	}
	writeJSON(w, http.StatusOK, h.SEO.Generate(r.Context(), p.Title, p.Overview, p.Location))
}
