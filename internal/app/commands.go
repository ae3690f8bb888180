package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marilozgz/bigfivetrails/internal/domain"
)

/********** admin writes **********/

type AdminService struct {
	repo  domain.SafariRepository
	cache domain.Cache
}

func NewAdminService(r domain.SafariRepository, cache domain.Cache) *AdminService {
	return &AdminService{repo: r, cache: cache}
}

// CreateSafari validates the draft, derives a unique code from the title
// and persists the row. The returned code is immutable from here on.
func (s *AdminService) CreateSafari(ctx context.Context, d domain.SafariDraft) (string, error) {
	if err := validateDraft(d); err != nil {
		return "", err
	}
	code := GenerateCode(ctx, baseTitle(d), s.repo.ExistsByCode)
	if _, err := s.repo.InsertSafari(ctx, code, draftToRow(d)); err != nil {
		if isDuplicate(err) {
			return "", domain.ErrCodeTaken
		}
		return "", err
	}
	s.invalidateLists(ctx)
	return code, nil
}

// UpdateSafari replaces every field except id and code.
func (s *AdminService) UpdateSafari(ctx context.Context, id string, d domain.SafariDraft) error {
	if err := validateDraft(d); err != nil {
		return err
	}
	if err := s.repo.UpdateSafari(ctx, id, draftToRow(d)); err != nil {
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *AdminService) DeleteSafari(ctx context.Context, id string) error {
	if err := s.repo.DeleteSafari(ctx, id); err != nil {
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *AdminService) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, l := range SupportedLocales {
		_ = s.cache.Del(ctx, "safaris:"+l)
	}
}

// validateDraft is the write-path precondition check. Out-of-range values
// are rejected with a field-level error, never clamped.
func validateDraft(d domain.SafariDraft) error {
	title := firstDraftTitle(d)
	if n := len(strings.TrimSpace(title)); n < 2 || n > 200 {
		return domain.Invalid("title", "must be 2-200 characters in at least one language")
	}
	if d.DurationDays != nil {
		if *d.DurationDays < domain.DurationDaysMin || *d.DurationDays > domain.DurationDaysMax {
			return domain.Invalid("duration_days", fmt.Sprintf("must be between %d and %d", domain.DurationDaysMin, domain.DurationDaysMax))
		}
	}
	if d.PriceFrom != nil {
		if *d.PriceFrom < domain.PriceFromMin || *d.PriceFrom > domain.PriceFromMax {
			return domain.Invalid("price_from", fmt.Sprintf("must be between %d and %d", domain.PriceFromMin, domain.PriceFromMax))
		}
	}
	if d.MaxGroupSize != nil && *d.MaxGroupSize < 1 {
		return domain.Invalid("max_group_size", "must be positive")
	}
	return nil
}

// Editorial source language first, then the rest of the site languages,
// then location as a last resort for the slug base.
func baseTitle(d domain.SafariDraft) string {
	for _, l := range []string{"es", "en", "fr", "it", "de"} {
		if t := strings.TrimSpace(d.Title[l]); t != "" {
			return t
		}
	}
	if d.Location != "" {
		return d.Location
	}
	return "safari"
}

func firstDraftTitle(d domain.SafariDraft) string {
	for _, l := range []string{"es", "en", "fr", "it", "de"} {
		if t := strings.TrimSpace(d.Title[l]); t != "" {
			return t
		}
	}
	return ""
}

// draftToRow emits the canonical localized-object row shape.
func draftToRow(d domain.SafariDraft) domain.RawRow {
	row := domain.RawRow{}
	putDict(row, "title", d.Title)
	putDict(row, "overview", d.Overview)
	putDict(row, "description", d.Description)
	putDict(row, "accommodation", d.Accommodation)
	putDict(row, "transportation", d.Transportation)
	putDict(row, "bestTime", d.BestTime)
	putDict(row, "difficulty", d.Difficulty)
	if d.Location != "" {
		row["location"] = d.Location
	}
	if d.DurationDays != nil {
		row["duration_days"] = *d.DurationDays
	}
	if d.PriceFrom != nil {
		row["price_from"] = *d.PriceFrom
	}
	if d.MaxGroupSize != nil {
		row["maxGroupSize"] = *d.MaxGroupSize
	}
	putStrings(row, "experience_types", d.ExperienceTypes)
	putStrings(row, "highlights", d.Highlights)
	putStrings(row, "route", d.Route)
	putStrings(row, "images", d.Images)
	if len(d.Itinerary) > 0 {
		days := make([]any, 0, len(d.Itinerary))
		for _, day := range d.Itinerary {
			days = append(days, map[string]any{
				"day":           day.Day,
				"title":         day.Title,
				"description":   day.Description,
				"accommodation": day.Accommodation,
				"meals":         anyStrings(day.Meals),
				"activities":    anyStrings(day.Activities),
			})
		}
		row["itinerary"] = days
	}
	for k, v := range map[string]string{
		"thumbnail":       d.Thumbnail,
		"thumbnail_thumb": d.ThumbnailThumb,
		"og_image":        d.OGImage,
		"seo_title":       d.SEOTitle,
		"seo_description": d.SEODescription,
	} {
		if v != "" {
			row[k] = v
		}
	}
	row["popular"] = d.Popular
	return row
}

func putDict(row domain.RawRow, key string, m map[string]string) {
	dict := make(map[string]any, len(m))
	for l, v := range m {
		if strings.TrimSpace(v) != "" {
			dict[l] = v
		}
	}
	if len(dict) > 0 {
		row[key] = dict
	}
}

func putStrings(row domain.RawRow, key string, ss []string) {
	if len(ss) > 0 {
		row[key] = anyStrings(ss)
	}
}

func anyStrings(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isDuplicate(err error) bool {
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "duplicate") || strings.Contains(low, "1062")
}

/********** CMS ingestion **********/

type IngestionService struct {
	cms   domain.CMSClient
	repo  domain.SafariRepository
	cache domain.Cache
}

func NewIngestionService(c domain.CMSClient, r domain.SafariRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{cms: c, repo: r, cache: cache}
}

// SyncSafari pulls one document per locale from the CMS, folds the
// localized fields into a single localized-object row and upserts it.
// Per-locale 404/401/403 are recorded as misses and skipped.
func (s *IngestionService) SyncSafari(ctx context.Context, code string) error {
	row := domain.RawRow{}
	got := 0
	for _, locale := range SupportedLocales {
		doc, err := s.cms.GetSafari(ctx, code, locale)
		if err != nil {
			low := strings.ToLower(err.Error())
			switch {
			case errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found"):
				_ = s.repo.LogMiss(ctx, code, 404, "cms:"+locale)
				continue
			case strings.Contains(low, "401") || strings.Contains(low, "unauthorized") ||
				strings.Contains(low, "403") || strings.Contains(low, "forbidden"):
				_ = s.repo.LogMiss(ctx, code, 403, "cms:"+locale)
				continue
			default:
				return err
			}
		}
		mergeCMSDoc(row, locale, doc)
		got++
	}
	if got == 0 {
		return nil
	}
	if err := s.repo.UpsertFromCMS(ctx, code, row); err != nil {
		return fmt.Errorf("upsert %s failed: %w", code, err)
	}
	s.invalidate(ctx, code)
	return nil
}

func (s *IngestionService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	for _, l := range SupportedLocales {
		_ = s.cache.Del(ctx, "safaris:"+l)
		_ = s.cache.Del(ctx, fmt.Sprintf("safari:%s:%s", code, l))
	}
}

var cmsLocalizedFields = []string{
	"title", "overview", "description", "accommodation",
	"transportation", "bestTime", "difficulty",
}

// mergeCMSDoc folds one locale's flat document into the accumulating
// localized-object row. Scalars and lists are taken from the first locale
// that provides them; text fields accumulate per locale.
func mergeCMSDoc(row domain.RawRow, locale string, doc map[string]any) {
	flat := doc
	if attrs, ok := doc["attributes"].(map[string]any); ok {
		flat = attrs
	}
	for _, field := range cmsLocalizedFields {
		val := ResolveLocalized(flat[field], locale, "")
		if val == "" {
			continue
		}
		dict, ok := row[field].(map[string]any)
		if !ok {
			dict = map[string]any{}
			row[field] = dict
		}
		dict[locale] = val
	}
	for _, key := range []string{
		"id", "code", "location", "durationDays", "duration_days",
		"priceFrom", "price_from", "maxGroupSize", "popular",
		"experienceTypes", "experience_types", "highlights", "route",
		"itinerary", "thumbnail", "thumbnail_thumb", "images", "og_image",
	} {
		if _, have := row[key]; !have && flat[key] != nil {
			row[key] = flat[key]
		}
	}
}
