package search

import (
	"math"
	"strings"
	"time"

	"salontime-backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	newSalonWindow    = 30 * 24 * time.Hour
	popularMinRating  = 4.5
	popularMinReviews = 10
	likeEscapeClause  = ` ESCAPE '\'`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns user input into a case-insensitive substring pattern
// with LIKE wildcards escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// applyFilters adds every SQL-expressible criterion of p to db, which must
// be a query over salons.
func applyFilters(db *gorm.DB, p Params, now time.Time) *gorm.DB {
	db = db.Where("salons.is_active = ?", true)

	if p.Query != "" {
		pattern := likePattern(p.Query)
		db = db.Where(
			"(LOWER(salons.name) LIKE ?"+likeEscapeClause+
				" OR LOWER(salons.description) LIKE ?"+likeEscapeClause+
				" OR LOWER(salons.city) LIKE ?"+likeEscapeClause+
				" OR LOWER(salons.address) LIKE ?"+likeEscapeClause+")",
			pattern, pattern, pattern, pattern)
	}

	if p.City != "" {
		db = db.Where("LOWER(salons.city) LIKE ?"+likeEscapeClause, likePattern(p.City))
	}

	if p.MinRating != nil {
		db = db.Where("salons.rating_average >= ?", *p.MinRating)
	}

	if p.HasCenter() && p.MaxDistance != nil {
		box := utils.BoundingBox(*p.Lat, *p.Lng, *p.MaxDistance)
		db = db.Where("salons.latitude BETWEEN ? AND ? AND salons.longitude BETWEEN ? AND ?",
			box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	} else if p.HasDistanceRange() {
		db = db.Where("salons.latitude IS NOT NULL AND salons.longitude IS NOT NULL")
	}

	if p.Featured {
		db = db.Where("salons.is_featured = ? AND (salons.featured_until IS NULL OR salons.featured_until > ?)", true, now)
	}
	if p.Trending {
		db = db.Where("salons.trending_score > ?", 0)
	}
	if p.New {
		db = db.Where("salons.created_at >= ?", now.Add(-newSalonWindow))
	}
	if p.Popular {
		db = db.Where("salons.rating_average >= ? AND salons.rating_count >= ?", popularMinRating, popularMinReviews)
	}

	return db
}

// applySort orders by the requested key. Distance ordering is finished in
// memory; the database orders by an equirectangular approximation so the
// candidate cap keeps the nearest salons. Salons without coordinates go last.
func applySort(db *gorm.DB, p Params) *gorm.DB {
	switch p.EffectiveSort() {
	case SortDistance:
		lat, lng := *p.Lat, *p.Lng
		k := math.Cos(lat * math.Pi / 180)
		return db.Order(clause.OrderBy{Expression: clause.Expr{
			SQL: "CASE WHEN salons.latitude IS NULL OR salons.longitude IS NULL THEN 1 ELSE 0 END ASC, " +
				"(salons.latitude - ?) * (salons.latitude - ?) + (salons.longitude - ?) * (salons.longitude - ?) * ? ASC, " +
				"salons.id ASC",
			Vars:               []interface{}{lat, lat, lng, lng, k * k},
			WithoutParentheses: true,
		}})
	case SortName:
		db = db.Order("LOWER(salons.name) ASC")
	case SortNewest:
		db = db.Order("salons.created_at DESC")
	default:
		db = db.Order("salons.rating_average DESC").Order("salons.rating_count DESC")
	}
	return db.Order("salons.id ASC")
}
