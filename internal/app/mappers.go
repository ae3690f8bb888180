package app

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/marilozgz/bigfivetrails/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Each canonical field maps to the column/key spellings observed across
// the three persisted shapes (localized-object rows, flat per-locale
// rows, headless-CMS documents).
var safariAliases = map[string][]string{
	"id":              {"id", "documentId", "document_id", "uuid"},
	"code":            {"code", "slug"},
	"title":           {"title"},
	"overview":        {"overview"},
	"description":     {"description"},
	"accommodation":   {"accommodation", "accomodation"},
	"transportation":  {"transportation"},
	"bestTime":        {"bestTime", "best_time"},
	"difficulty":      {"difficulty"},
	"location":        {"location", "country"},
	"durationDays":    {"duration_days", "durationDays"},
	"priceFrom":       {"price_from", "priceFrom", "price_usd"},
	"maxGroupSize":    {"maxGroupSize", "max_group_size"},
	"experienceTypes": {"experience_types", "experienceTypes"},
	"highlights":      {"highlights"},
	"route":           {"route"},
	"itinerary":       {"itinerary"},
	"thumbnail":       {"thumbnail"},
	"thumbnailThumb":  {"thumbnail_thumb", "thumbnailThumb"},
	"images":          {"images", "gallery"},
	"ogImage":         {"og_image", "ogImage"},
	"seoTitle":        {"seo_title", "seoTitle"},
	"seoDescription":  {"seo_description", "seoDescription"},
	"popular":         {"popular", "featured"},
}

var tipAliases = map[string][]string{
	"title":    {"title"},
	"intro":    {"intro"},
	"items":    {"items"},
	"ctaLabel": {"cta_label"},
	"ctaHref":  {"cta_href", "cta_url"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstStr: first non-empty plain string among the aliases for key.
func firstStr(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// intStrict extracts an int only from genuinely numeric values. String
// coercion belongs to the form-submission boundary, not this layer.
func intStrict(v any) *int {
	switch n := v.(type) {
	case float64:
		x := int(n)
		return &x
	case int:
		x := n
		return &x
	case int64:
		x := int(n)
		return &x
	case json.Number:
		if f, err := n.Float64(); err == nil {
			x := int(f)
			return &x
		}
	}
	return nil
}

// firstIntStrict: intStrict over the alias list for key.
func firstIntStrict(m map[string]any, aliases map[string][]string, key string) *int {
	for _, p := range aliases[key] {
		if v := lookupAny(m, p); v != nil {
			if x := intStrict(v); x != nil {
				return x
			}
		}
	}
	return nil
}

// stringSlice accepts []any / []string holding either strings or
// {url/src/name}-shaped objects, dropping empties and nils.
func stringSlice(v any) []string {
	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			for _, k := range []string{"url", "src", "name"} {
				if s, ok := t[k].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}

// boolFlexible: true from bool or the usual numeric truthiness.
func boolFlexible(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

/********** localized field resolution across shapes **********/

// localizedField resolves one canonical field for the requested locale.
// Flat per-locale columns win (`title_es`, then `title_en`), then the
// bare column is handed to the resolver, which copes with both plain
// strings and locale dictionaries.
func localizedField(row map[string]any, aliases map[string][]string, key, locale string) string {
	for _, base := range aliases[key] {
		if s := lookupStr(row, base+"_"+locale); s != "" {
			return s
		}
		if s := lookupStr(row, base+"_en"); s != "" {
			return s
		}
	}
	for _, base := range aliases[key] {
		if v := lookupAny(row, base); v != nil {
			if s := ResolveLocalized(v, locale, ""); s != "" {
				return s
			}
		}
	}
	return ""
}

/********** tag homogenization **********/

// extractTags flattens a mixed list of bare strings and {name} objects
// into plain identifiers, preserving order and dropping nil entries.
func extractTags(v any, locale string) []string {
	raw, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			out := make([]string, 0, len(ss))
			for _, s := range ss {
				if s != "" {
					out = append(out, s)
				}
			}
			return out
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			if name := ResolveLocalized(t["name"], locale, ""); name != "" {
				out = append(out, name)
			} else if code, ok := t["code"].(string); ok && code != "" {
				out = append(out, code)
			}
		}
	}
	return out
}

/********** itinerary **********/

// parseItinerary tolerates the serialized-text variant: a JSON blob that
// fails to parse degrades to an empty itinerary instead of an error.
func parseItinerary(v any, locale string) []domain.ItineraryDay {
	if s, ok := v.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		v = decoded
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.ItineraryDay, 0, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		d := domain.ItineraryDay{
			Day:           i + 1,
			Title:         localizedField(m, dayAliases, "title", locale),
			Description:   localizedField(m, dayAliases, "description", locale),
			Accommodation: dayAccommodation(m, locale),
			Meals:         stringSlice(m["meals"]),
			Activities:    stringSlice(m["activities"]),
		}
		if n := intStrict(m["day"]); n != nil {
			d.Day = *n
		}
		out = append(out, d)
	}
	return out
}

var dayAliases = map[string][]string{
	"title":       {"title"},
	"description": {"description"},
}

// dayAccommodation copes with the {name, description?} object variant
// alongside plain strings and locale dictionaries.
func dayAccommodation(m map[string]any, locale string) string {
	v := m["accommodation"]
	if v == nil {
		v = m["accomodation"]
	}
	if obj, ok := v.(map[string]any); ok {
		if _, isDict := obj[locale]; !isDict {
			if name := ResolveLocalized(obj["name"], locale, ""); name != "" {
				return name
			}
		}
	}
	return ResolveLocalized(v, locale, "")
}

/********** safari normalizer **********/

// NormalizeSafari maps one persisted raw row, whatever its shape, into
// the canonical record for the requested locale. A row carrying neither
// an identifier nor a code is unusable and reports ok=false.
func NormalizeSafari(raw domain.RawRow, locale string) (domain.Safari, bool) {
	if raw == nil {
		return domain.Safari{}, false
	}

	row := raw
	// Headless-CMS documents wrap fields in "attributes"; hoist them while
	// keeping the outer identifiers visible.
	if attrs, ok := raw["attributes"].(map[string]any); ok {
		row = make(map[string]any, len(attrs)+2)
		for k, v := range attrs {
			row[k] = v
		}
		for _, k := range safariAliases["id"] {
			if _, exists := row[k]; !exists && raw[k] != nil {
				row[k] = raw[k]
			}
		}
	}

	var id string
	for _, p := range safariAliases["id"] {
		if id = idString(lookupAny(row, p)); id != "" {
			break
		}
	}
	code := firstStr(row, safariAliases, "code")
	if id == "" && code == "" {
		return domain.Safari{}, false
	}

	s := domain.Safari{
		ID:             id,
		Code:           code,
		Title:          localizedField(row, safariAliases, "title", locale),
		Overview:       localizedField(row, safariAliases, "overview", locale),
		Description:    localizedField(row, safariAliases, "description", locale),
		Accommodation:  localizedField(row, safariAliases, "accommodation", locale),
		Transportation: localizedField(row, safariAliases, "transportation", locale),
		BestTime:       localizedField(row, safariAliases, "bestTime", locale),
		Difficulty:     localizedField(row, safariAliases, "difficulty", locale),
		Location:       firstStr(row, safariAliases, "location"),
		DurationDays:   firstIntStrict(row, safariAliases, "durationDays"),
		PriceFrom:      firstIntStrict(row, safariAliases, "priceFrom"),
		MaxGroupSize:   firstIntStrict(row, safariAliases, "maxGroupSize"),
		Thumbnail:      firstStr(row, safariAliases, "thumbnail"),
		ThumbnailThumb: firstStr(row, safariAliases, "thumbnailThumb"),
		OGImage:        firstStr(row, safariAliases, "ogImage"),
		SEOTitle:       firstStr(row, safariAliases, "seoTitle"),
		SEODescription: firstStr(row, safariAliases, "seoDescription"),
		Locale:         locale,
	}

	for _, p := range safariAliases["experienceTypes"] {
		if v := lookupAny(row, p); v != nil {
			s.ExperienceTypes = extractTags(v, locale)
			break
		}
	}
	for _, p := range safariAliases["highlights"] {
		if v := lookupAny(row, p); v != nil {
			s.Highlights = extractTags(v, locale)
			break
		}
	}
	for _, p := range safariAliases["route"] {
		if v := lookupAny(row, p); v != nil {
			s.Route = stringSlice(v)
			break
		}
	}
	for _, p := range safariAliases["images"] {
		if v := lookupAny(row, p); v != nil {
			s.Images = stringSlice(v)
			break
		}
	}
	for _, p := range safariAliases["itinerary"] {
		if v := lookupAny(row, p); v != nil {
			s.Itinerary = parseItinerary(v, locale)
			break
		}
	}
	for _, p := range safariAliases["popular"] {
		if v := lookupAny(row, p); v != nil {
			s.Popular = boolFlexible(v)
			break
		}
	}

	return s, true
}

// NormalizeSafaris maps a row set, dropping unusable rows.
func NormalizeSafaris(rows []domain.RawRow, locale string) []domain.Safari {
	out := make([]domain.Safari, 0, len(rows))
	for _, r := range rows {
		if s, ok := NormalizeSafari(r, locale); ok {
			out = append(out, s)
		}
	}
	return out
}

/********** travel tip mapper **********/

// MapTravelTip resolves a travel_tips row (flat per-locale columns with a
// Spanish editorial fallback) for the requested locale.
func MapTravelTip(row domain.RawRow, country, section, locale string) (domain.TravelTip, bool) {
	if row == nil {
		return domain.TravelTip{}, false
	}
	tip := domain.TravelTip{
		Country:  country,
		Section:  section,
		Title:    tipField(row, "title", locale),
		Intro:    tipField(row, "intro", locale),
		CTALabel: tipField(row, "ctaLabel", locale),
		CTAHref:  firstStr(row, tipAliases, "ctaHref"),
		Locale:   locale,
	}
	for _, base := range tipAliases["items"] {
		for _, suffix := range []string{"_" + locale, "_en", "_es", ""} {
			if v := lookupAny(row, base+suffix); v != nil {
				if items := stringSlice(v); len(items) > 0 {
					tip.Items = items
					break
				}
			}
		}
		if len(tip.Items) > 0 {
			break
		}
	}
	if tip.Title == "" && tip.Intro == "" && len(tip.Items) == 0 {
		return domain.TravelTip{}, false
	}
	return tip, true
}

func tipField(row map[string]any, key, locale string) string {
	for _, base := range tipAliases[key] {
		for _, suffix := range []string{"_" + locale, "_en", "_es"} {
			if s := lookupStr(row, base+suffix); s != "" {
				return s
			}
		}
		if s := ResolveLocalized(lookupAny(row, base), locale, ""); s != "" {
			return s
		}
	}
	return ""
}
