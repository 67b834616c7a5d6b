package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"salontime-backend/utils"
)

type SortKey string

const (
	SortRating   SortKey = "rating"
	SortName     SortKey = "name"
	SortNewest   SortKey = "newest"
	SortDistance SortKey = "distance"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	maxPage      = 1_000_000
)

// Params is the normalized form of a search request. Nil pointers mean
// "filter not applied".
type Params struct {
	Query       string
	City        string
	Lat         *float64
	Lng         *float64
	MinRating   *float64
	MaxDistance *float64
	MinDistance *float64
	Services    []string
	MinPrice    *float64
	MaxPrice    *float64
	OpenNow     bool
	Featured    bool
	Trending    bool
	New         bool
	Popular     bool
	Sort        SortKey
	Page        int
	Limit       int
}

// first returns the first non-empty value among the given aliases.
func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseNonNegative(s string) *float64 {
	f := parseFloat(s)
	if f == nil || *f < 0 {
		return nil
	}
	return f
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseSort(s string) SortKey {
	switch strings.ToLower(s) {
	case "name":
		return SortName
	case "created_at", "newest":
		return SortNewest
	case "distance":
		return SortDistance
	default:
		return SortRating
	}
}

// splitTerms collects comma separated terms from every alias, repeated
// keys included, lowercased and deduplicated.
func splitTerms(q url.Values, keys ...string) []string {
	seen := map[string]bool{}
	var terms []string
	for _, k := range keys {
		for _, raw := range q[k] {
			for _, t := range strings.Split(raw, ",") {
				t = strings.ToLower(strings.TrimSpace(t))
				if t != "" && !seen[t] {
					seen[t] = true
					terms = append(terms, t)
				}
			}
		}
	}
	return terms
}

// ParseParams maps every accepted alias onto its canonical field. Malformed
// values are dropped rather than rejected.
func ParseParams(q url.Values) Params {
	p := Params{
		Query:       first(q, "q", "search", "query"),
		City:        first(q, "city", "location"),
		Lat:         parseFloat(first(q, "lat", "latitude")),
		Lng:         parseFloat(first(q, "lng", "lon", "longitude")),
		MinRating:   parseFloat(first(q, "min_rating", "rating")),
		MaxDistance: parseNonNegative(first(q, "max_distance", "radius", "distance")),
		MinDistance: parseNonNegative(first(q, "min_distance")),
		Services:    splitTerms(q, "service", "services", "service_type", "category"),
		MinPrice:    parseNonNegative(first(q, "min_price")),
		MaxPrice:    parseNonNegative(first(q, "max_price")),
		OpenNow:     parseBool(first(q, "open_now")),
		Featured:    parseBool(first(q, "featured")),
		Trending:    parseBool(first(q, "trending")),
		New:         parseBool(first(q, "new")),
		Popular:     parseBool(first(q, "popular")),
		Sort:        parseSort(first(q, "sort", "sort_by")),
		Page:        parseInt(first(q, "page"), 1),
		Limit:       parseInt(first(q, "limit", "per_page"), DefaultLimit),
	}

	if p.Lat != nil && (*p.Lat < -90 || *p.Lat > 90) {
		p.Lat = nil
	}
	if p.Lng != nil && (*p.Lng < -180 || *p.Lng > 180) {
		p.Lng = nil
	}
	if p.MaxDistance != nil && *p.MaxDistance == 0 {
		p.MaxDistance = nil
	}
	if p.MinDistance != nil && *p.MinDistance == 0 {
		p.MinDistance = nil
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		p.MinPrice, p.MaxPrice = p.MaxPrice, p.MinPrice
	}

	p.normalizePaging()
	return p
}

func (p *Params) normalizePaging() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// HasCenter reports whether a usable search center was supplied.
func (p Params) HasCenter() bool {
	return p.Lat != nil && p.Lng != nil && utils.ValidCoordinates(*p.Lat, *p.Lng)
}

// HasDistanceRange reports whether results are bounded by distance.
func (p Params) HasDistanceRange() bool {
	return p.HasCenter() && (p.MaxDistance != nil || p.MinDistance != nil)
}

// EffectiveSort resolves a distance sort without a center to rating.
func (p Params) EffectiveSort() SortKey {
	if p.Sort == SortDistance && !p.HasCenter() {
		return SortRating
	}
	return p.Sort
}

// NeedsRefinement reports whether any criterion must be evaluated in memory,
// in which case the database cannot paginate.
func (p Params) NeedsRefinement() bool {
	return p.OpenNow || p.HasDistanceRange() || p.EffectiveSort() == SortDistance
}

func fmtFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// CacheKey derives a stable key from the normalized parameters.
func (p Params) CacheKey() string {
	services := append([]string(nil), p.Services...)
	sort.Strings(services)

	canonical := fmt.Sprintf("q=%s|city=%s|lat=%s|lng=%s|rating=%s|maxd=%s|mind=%s|svc=%s|minp=%s|maxp=%s|open=%t|f=%t|t=%t|n=%t|p=%t|sort=%s|page=%d|limit=%d",
		strings.ToLower(p.Query), strings.ToLower(p.City),
		fmtFloat(p.Lat), fmtFloat(p.Lng), fmtFloat(p.MinRating),
		fmtFloat(p.MaxDistance), fmtFloat(p.MinDistance),
		strings.Join(services, ","), fmtFloat(p.MinPrice), fmtFloat(p.MaxPrice),
		p.OpenNow, p.Featured, p.Trending, p.New, p.Popular,
		p.EffectiveSort(), p.Page, p.Limit)

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
