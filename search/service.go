package search

import (
	"context"
	"log/slog"
	"time"

	"salontime-backend/cache"
	"salontime-backend/models"
	"salontime-backend/obs"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

const DefaultCandidateCap = 1000

// Result is one page of search results.
type Result struct {
	Data       []SalonResult `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

type Service struct {
	DB           *gorm.DB
	Cache        cache.Cache
	Now          func() time.Time
	Location     *time.Location
	CandidateCap int
	CacheTTL     time.Duration
	Log          *slog.Logger
}

func NewService(db *gorm.DB, c cache.Cache, loc *time.Location, candidateCap int, cacheTTL time.Duration) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if candidateCap <= 0 {
		candidateCap = DefaultCandidateCap
	}
	return &Service{
		DB:           db,
		Cache:        c,
		Now:          time.Now,
		Location:     loc,
		CandidateCap: candidateCap,
		CacheTTL:     cacheTTL,
		Log:          slog.Default(),
	}
}

func emptyResult(p Params) Result {
	return Result{Data: []SalonResult{}, Pagination: newPagination(p.Page, p.Limit, 0)}
}

// cacheable excludes open-now queries, whose answer depends on the clock.
func (s *Service) cacheable(p Params) bool {
	return s.CacheTTL > 0 && !p.OpenNow
}

// Search runs the salon search. Sub-queries run sequentially: the relation
// resolvers first, then the main salon fetch.
func (s *Service) Search(ctx context.Context, p Params) (Result, error) {
	ctx, span := obs.Tracer().Start(ctx, "search.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.query", p.Query),
		attribute.Bool("search.has_center", p.HasCenter()),
		attribute.Bool("search.open_now", p.OpenNow),
		attribute.Int("search.services", len(p.Services)),
		attribute.String("search.sort", string(p.EffectiveSort())),
		attribute.Int("search.page", p.Page),
		attribute.Int("search.limit", p.Limit),
	)

	key := cache.KeySearchPrefix + p.CacheKey()
	if s.cacheable(p) {
		var cached Result
		if ok, err := cache.GetJSON(ctx, s.Cache, key, &cached); err == nil && ok {
			span.SetAttributes(attribute.Bool("search.cache_hit", true))
			return cached, nil
		}
	}

	res, err := s.search(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.Log.Error("salon search failed", "error", err, slog.Group("filters", filterAttrs(p)...))
		return Result{}, err
	}
	span.SetAttributes(attribute.Int64("search.total", res.Pagination.Total))

	if s.cacheable(p) {
		if err := cache.SetJSON(ctx, s.Cache, key, res, s.CacheTTL); err != nil {
			s.Log.Warn("search cache write failed", "error", err)
		}
	}
	return res, nil
}

func (s *Service) search(ctx context.Context, p Params) (Result, error) {
	ids, restricted := s.relationalFilter(ctx, p)
	if restricted && len(ids) == 0 {
		return emptyResult(p), nil
	}

	now := s.Now().In(s.Location)
	q := applyFilters(s.DB.WithContext(ctx).Model(&models.Salon{}), p, now.UTC())
	if restricted {
		q = q.Where("salons.id IN ?", ids)
	}
	q = q.Session(&gorm.Session{})

	if !p.NeedsRefinement() {
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return Result{}, err
		}
		if total == 0 {
			return emptyResult(p), nil
		}

		var salons []models.Salon
		if err := applySort(q, p).
			Offset((p.Page - 1) * p.Limit).
			Limit(p.Limit).
			Find(&salons).Error; err != nil {
			return Result{}, err
		}
		return Result{Data: withDistances(salons, p), Pagination: newPagination(p.Page, p.Limit, total)}, nil
	}

	var salons []models.Salon
	if err := applySort(q, p).Limit(s.CandidateCap + 1).Find(&salons).Error; err != nil {
		return Result{}, err
	}
	capped := len(salons) > s.CandidateCap
	if capped {
		salons = salons[:s.CandidateCap]
	}

	refined := refine(withDistances(salons, p), p, now)
	page, pg := paginate(refined, p.Page, p.Limit, capped)
	if page == nil {
		page = []SalonResult{}
	}
	return Result{Data: page, Pagination: pg}, nil
}

// relationalFilter resolves the service and price filters into salon ids.
// restricted reports whether any such filter was requested. A resolver
// failure is logged and counts as "no matches".
func (s *Service) relationalFilter(ctx context.Context, p Params) (ids []uuid.UUID, restricted bool) {
	if len(p.Services) > 0 {
		restricted = true
		matched, err := resolveServiceSalons(ctx, s.DB, p.Services)
		if err != nil {
			s.Log.Warn("service resolver failed, treating as no matches", "error", err, "services", p.Services)
			return nil, true
		}
		ids = matched
		if len(ids) == 0 {
			return nil, true
		}
	}

	if p.MinPrice != nil || p.MaxPrice != nil {
		matched, err := resolvePriceSalons(ctx, s.DB, p.MinPrice, p.MaxPrice)
		if err != nil {
			s.Log.Warn("price resolver failed, treating as no matches", "error", err)
			return nil, true
		}
		if restricted {
			ids = intersect(ids, matched)
		} else {
			ids = matched
		}
		restricted = true
	}
	return ids, restricted
}

func filterAttrs(p Params) []any {
	attrs := []any{
		"query", p.Query,
		"city", p.City,
		"services", p.Services,
		"open_now", p.OpenNow,
		"sort", p.EffectiveSort(),
		"page", p.Page,
		"limit", p.Limit,
	}
	if p.HasCenter() {
		attrs = append(attrs, "lat", *p.Lat, "lng", *p.Lng)
	}
	if p.MaxDistance != nil {
		attrs = append(attrs, "max_distance", *p.MaxDistance)
	}
	if p.MinRating != nil {
		attrs = append(attrs, "min_rating", *p.MinRating)
	}
	return attrs
}
