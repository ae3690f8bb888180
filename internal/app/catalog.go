package app

import (
	"sort"
	"strings"

	"github.com/marilozgz/bigfivetrails/internal/domain"
)

// ApplyFilters runs the AND-combined filter predicates over an already
// normalized record set and returns a stably sorted copy. Inputs are
// never mutated; a constraint without a value is vacuously true.
func ApplyFilters(records []domain.Safari, spec domain.FilterSpec, key domain.SortKey) []domain.Safari {
	out := make([]domain.Safari, 0, len(records))
	for _, s := range records {
		if matches(s, spec) {
			out = append(out, s)
		}
	}
	sortSafaris(out, key)
	return out
}

func matches(s domain.Safari, spec domain.FilterSpec) bool {
	if q := strings.TrimSpace(spec.SearchText); q != "" {
		needle := strings.ToLower(q)
		haystack := strings.ToLower(s.Title + " " + s.Overview + " " + s.Location)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if spec.Location != "" && s.Location != spec.Location {
		return false
	}
	if len(spec.ExperienceTypes) > 0 && !intersects(s.ExperienceTypes, spec.ExperienceTypes) {
		return false
	}
	if !inRange(s.DurationDays, spec.DurationMin, spec.DurationMax) {
		return false
	}
	if !inRange(s.PriceFrom, spec.PriceMin, spec.PriceMax) {
		return false
	}
	return true
}

func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// inRange applies inclusive numeric bounds. A missing value counts as 0
// against the lower bound, but never satisfies an active upper bound: a
// record that truly lacks the number is excluded rather than ranked
// against a real ceiling.
func inRange(v, min, max *int) bool {
	if min != nil {
		val := 0
		if v != nil {
			val = *v
		}
		if val < *min {
			return false
		}
	}
	if max != nil {
		if v == nil {
			return false
		}
		if *v > *max {
			return false
		}
	}
	return true
}

// sortSafaris orders in place. Ties keep their relative input order, and
// the popularity key trusts the upstream order (popular-first, newest
// first) rather than re-deriving it.
func sortSafaris(list []domain.Safari, key domain.SortKey) {
	less := func(a, b domain.Safari) bool { return false }
	switch key {
	case domain.SortPriceAsc:
		less = func(a, b domain.Safari) bool { return intOrZero(a.PriceFrom) < intOrZero(b.PriceFrom) }
	case domain.SortPriceDesc:
		less = func(a, b domain.Safari) bool { return intOrZero(a.PriceFrom) > intOrZero(b.PriceFrom) }
	case domain.SortDurationAsc:
		less = func(a, b domain.Safari) bool { return intOrZero(a.DurationDays) < intOrZero(b.DurationDays) }
	case domain.SortDurationDesc:
		less = func(a, b domain.Safari) bool { return intOrZero(a.DurationDays) > intOrZero(b.DurationDays) }
	case domain.SortPopularity:
		return
	default:
		return
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// CountByLocation produces the facet counts for the filter sidebar.
// Records without a location are grouped under the empty key.
func CountByLocation(records []domain.Safari) map[string]int {
	out := make(map[string]int, 8)
	for _, s := range records {
		out[s.Location]++
	}
	return out
}

// UniqueExperienceTypes lists the distinct tag codes across a record set,
// sorted, for sidebar display.
func UniqueExperienceTypes(records []domain.Safari) []string {
	seen := make(map[string]struct{}, 16)
	for _, s := range records {
		for _, t := range s.ExperienceTypes {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
