package search

import (
	"context"
	"strings"

	"salontime-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// resolveServiceSalons expands free-text service or category terms into the
// ids of salons owning at least one matching active service.
func resolveServiceSalons(ctx context.Context, db *gorm.DB, terms []string) ([]uuid.UUID, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var categoryIDs []uuid.UUID
	catClauses, catArgs := termClauses(terms, "service_categories.name", "service_categories.slug")
	if err := db.WithContext(ctx).Model(&models.ServiceCategory{}).
		Where("service_categories.is_active = ?", true).
		Where(catClauses, catArgs...).
		Pluck("service_categories.id", &categoryIDs).Error; err != nil {
		return nil, err
	}

	svcClauses, svcArgs := termClauses(terms, "services.name", "service_categories.name", "service_categories.slug")
	if len(categoryIDs) > 0 {
		svcClauses = "(" + svcClauses + " OR services.category_id IN ?)"
		svcArgs = append(svcArgs, categoryIDs)
	}

	var salonIDs []uuid.UUID
	if err := db.WithContext(ctx).Model(&models.Service{}).
		Joins("LEFT JOIN service_categories ON service_categories.id = services.category_id AND service_categories.deleted_at IS NULL").
		Where("services.is_active = ?", true).
		Where(svcClauses, svcArgs...).
		Pluck("services.salon_id", &salonIDs).Error; err != nil {
		return nil, err
	}

	return dedupe(salonIDs), nil
}

type priceRange struct {
	SalonID  uuid.UUID
	MinPrice float64
	MaxPrice float64
}

// resolvePriceSalons keeps salons whose active service price range overlaps
// [minPrice, maxPrice]. Either bound may be nil.
func resolvePriceSalons(ctx context.Context, db *gorm.DB, minPrice, maxPrice *float64) ([]uuid.UUID, error) {
	q := db.WithContext(ctx).Model(&models.Service{}).
		Select("services.salon_id AS salon_id, MIN(services.price) AS min_price, MAX(services.price) AS max_price").
		Where("services.is_active = ?", true).
		Group("services.salon_id")
	if minPrice != nil {
		q = q.Having("MAX(services.price) >= ?", *minPrice)
	}
	if maxPrice != nil {
		q = q.Having("MIN(services.price) <= ?", *maxPrice)
	}

	var ranges []priceRange
	if err := q.Scan(&ranges).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(ranges))
	for _, r := range ranges {
		ids = append(ids, r.SalonID)
	}
	return ids, nil
}

// termClauses builds "(LOWER(c1) LIKE ? OR LOWER(c2) LIKE ? ...)" over every
// term and column.
func termClauses(terms []string, columns ...string) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, t := range terms {
		pattern := likePattern(t)
		for _, c := range columns {
			parts = append(parts, "LOWER("+c+") LIKE ?"+likeEscapeClause)
			args = append(args, pattern)
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func intersect(a, b []uuid.UUID) []uuid.UUID {
	in := make(map[uuid.UUID]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	var out []uuid.UUID
	for _, id := range a {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}
