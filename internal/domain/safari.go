package domain

// Safari is the canonical in-memory record. Every localizable field has
// already been resolved to a plain string in the requested locale by the
// time a Safari leaves the normalization layer.
type Safari struct {
	ID             string
	Code           string
	Title          string
	Overview       string
	Description    string
	Accommodation  string
	Transportation string
	BestTime       string
	Difficulty     string
	Location       string

	DurationDays *int
	PriceFrom    *int
	MaxGroupSize *int

	ExperienceTypes []string
	Highlights      []string
	Route           []string
	Itinerary       []ItineraryDay

	Thumbnail      string
	ThumbnailThumb string
	Images         []string
	OGImage        string

	SEOTitle       string
	SEODescription string

	Popular bool
	Locale  string
}

type ItineraryDay struct {
	Day           int
	Title         string
	Description   string
	Accommodation string
	Meals         []string
	Activities    []string
}

// SafariDraft is the write-path form state for creating or editing a
// record. Localizable fields arrive as locale→text maps; the code is
// assigned by the slug generator at creation and never replaced.
type SafariDraft struct {
	Title          map[string]string
	Overview       map[string]string
	Description    map[string]string
	Accommodation  map[string]string
	Transportation map[string]string
	BestTime       map[string]string
	Difficulty     map[string]string
	Location       string

	DurationDays *int
	PriceFrom    *int
	MaxGroupSize *int

	ExperienceTypes []string
	Highlights      []string
	Route           []string
	Itinerary       []ItineraryDay

	Thumbnail      string
	ThumbnailThumb string
	Images         []string
	OGImage        string

	SEOTitle       string
	SEODescription string

	Popular bool
}

// Validation bounds for the write path. Out-of-range values are rejected,
// never clamped.
const (
	DurationDaysMin = 1
	DurationDaysMax = 60
	PriceFromMin    = 0
	PriceFromMax    = 999_999
)

type SortKey string

const (
	SortPopularity   SortKey = "popularity"
	SortPriceAsc     SortKey = "priceAsc"
	SortPriceDesc    SortKey = "priceDesc"
	SortDurationAsc  SortKey = "durationAsc"
	SortDurationDesc SortKey = "durationDesc"
)

// ParseSortKey maps an arbitrary string onto a SortKey, defaulting to
// popularity so an unknown value never changes the upstream order.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPriceAsc, SortPriceDesc, SortDurationAsc, SortDurationDesc:
		return SortKey(s)
	default:
		return SortPopularity
	}
}

// FilterSpec carries the catalog constraints. Nil / empty fields mean "no
// constraint from this dimension".
type FilterSpec struct {
	SearchText      string
	Location        string
	ExperienceTypes []string
	DurationMin     *int
	DurationMax     *int
	PriceMin        *int
	PriceMax        *int
}

type SafarisPage struct {
	Items     []Safari
	Total     int
	Locations map[string]int
}
