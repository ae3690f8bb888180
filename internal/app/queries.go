package app

import (
	"context"
	"fmt"
	"time"

	"github.com/marilozgz/bigfivetrails/internal/domain"
)

type QueryService struct {
	repo     domain.SafariRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.SafariRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// ListSafaris returns the filtered, sorted catalog page for one locale,
// plus the location facet counts over the unfiltered set. The normalized
// per-locale slice is what gets cached; filtering is pure and cheap, so
// it runs per request.
func (s *QueryService) ListSafaris(ctx context.Context, locale string, spec domain.FilterSpec, sortKey domain.SortKey) (domain.SafarisPage, error) {
	all, err := s.loadAll(ctx, locale)
	if err != nil {
		return domain.SafarisPage{}, err
	}
	items := ApplyFilters(all, spec, sortKey)
	return domain.SafarisPage{
		Items:     items,
		Total:     len(items),
		Locations: CountByLocation(all),
	}, nil
}

// GetSafari resolves one record by code for a locale.
func (s *QueryService) GetSafari(ctx context.Context, code, locale string) (domain.Safari, error) {
	key := fmt.Sprintf("safari:%s:%s", code, locale)
	var sv domain.Safari
	if ok, _ := s.cache.Get(ctx, key, &sv); ok {
		return sv, nil
	}
	row, err := s.repo.GetRowByCode(ctx, code)
	if err != nil {
		return domain.Safari{}, err
	}
	sv, ok := NormalizeSafari(row, locale)
	if !ok {
		return domain.Safari{}, domain.ErrNotFound
	}
	_ = s.cache.Set(ctx, key, sv, int(s.cacheTTL.Seconds()))
	return sv, nil
}

// GetTravelTip resolves the advice block for one country+section.
func (s *QueryService) GetTravelTip(ctx context.Context, country, section, locale string) (domain.TravelTip, error) {
	key := fmt.Sprintf("tip:%s:%s:%s", country, section, locale)
	var tip domain.TravelTip
	if ok, _ := s.cache.Get(ctx, key, &tip); ok {
		return tip, nil
	}
	row, err := s.repo.GetTravelTipRow(ctx, country, section)
	if err != nil {
		return domain.TravelTip{}, err
	}
	tip, ok := MapTravelTip(row, country, section, locale)
	if !ok {
		return domain.TravelTip{}, domain.ErrNotFound
	}
	_ = s.cache.Set(ctx, key, tip, int(s.cacheTTL.Seconds()))
	return tip, nil
}

func (s *QueryService) loadAll(ctx context.Context, locale string) ([]domain.Safari, error) {
	key := "safaris:" + locale
	var cached []domain.Safari
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	rows, err := s.repo.ListRows(ctx)
	if err != nil {
		return nil, err
	}
	all := NormalizeSafaris(rows, locale)
	_ = s.cache.Set(ctx, key, all, int(s.cacheTTL.Seconds()))
	return all, nil
}
