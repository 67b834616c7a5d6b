package search

import (
	"testing"
	"time"

	"salontime-backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tuesday 7 January 2025, 10:00 in a fixed UTC+1 zone.
var (
	testZone = time.FixedZone("CET", 3600)
	tuesday  = time.Date(2025, 1, 7, 10, 0, 0, 0, testZone)
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	tables := []string{
		`CREATE TABLE "service_categories" (
			"id" TEXT PRIMARY KEY, "name" TEXT NOT NULL UNIQUE, "slug" TEXT NOT NULL UNIQUE,
			"description" TEXT, "icon" TEXT, "sort_order" INTEGER DEFAULT 0, "is_active" INTEGER DEFAULT 1,
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE "salons" (
			"id" TEXT PRIMARY KEY, "owner_id" TEXT NOT NULL UNIQUE, "name" TEXT NOT NULL,
			"description" TEXT, "phone" TEXT, "email" TEXT, "website" TEXT, "address" TEXT,
			"city" TEXT, "postal_code" TEXT, "country" TEXT, "latitude" REAL, "longitude" REAL,
			"rating_average" REAL DEFAULT 0, "rating_count" INTEGER DEFAULT 0,
			"is_active" INTEGER DEFAULT 1, "is_featured" INTEGER DEFAULT 0, "featured_until" DATETIME,
			"trending_score" REAL DEFAULT 0, "view_count" INTEGER DEFAULT 0,
			"booking_count" INTEGER DEFAULT 0, "favorite_count" INTEGER DEFAULT 0,
			"business_hours" TEXT DEFAULT '{}',
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE "services" (
			"id" TEXT PRIMARY KEY, "salon_id" TEXT NOT NULL, "name" TEXT NOT NULL, "description" TEXT,
			"price" REAL NOT NULL, "duration" INTEGER NOT NULL DEFAULT 30, "category_id" TEXT,
			"is_active" INTEGER DEFAULT 1,
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
	}
	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func newTestService(db *gorm.DB) *Service {
	s := NewService(db, nil, testZone, 1000, 0)
	s.Now = func() time.Time { return tuesday }
	return s
}

func ptr(f float64) *float64 { return &f }

type salonOpt func(*models.Salon)

func at(lat, lng float64) salonOpt {
	return func(s *models.Salon) { s.Latitude, s.Longitude = ptr(lat), ptr(lng) }
}

func rated(avg float64, count int) salonOpt {
	return func(s *models.Salon) { s.RatingAverage, s.RatingCount = avg, count }
}

func hours(h models.BusinessHours) salonOpt {
	return func(s *models.Salon) { s.BusinessHours = h }
}

func inCity(city string) salonOpt {
	return func(s *models.Salon) { s.City = city }
}

func weekdayHours(open, close string) models.BusinessHours {
	h := models.BusinessHours{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		h[d] = models.DayHours{Open: open, Close: close}
	}
	h["saturday"] = models.DayHours{Closed: true}
	h["sunday"] = models.DayHours{Closed: true}
	return h
}

func seedSalon(t *testing.T, db *gorm.DB, name string, opts ...salonOpt) models.Salon {
	t.Helper()
	s := models.Salon{
		OwnerID:   uuid.New(),
		Name:      name,
		CreatedAt: tuesday.UTC().Add(-365 * 24 * time.Hour),
	}
	for _, o := range opts {
		o(&s)
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatal(err)
	}
	return s
}

func seedCategory(t *testing.T, db *gorm.DB, name string, active bool) models.ServiceCategory {
	t.Helper()
	c := models.ServiceCategory{Name: name}
	if err := db.Create(&c).Error; err != nil {
		t.Fatal(err)
	}
	if !active {
		db.Model(&c).Update("is_active", false)
	}
	return c
}

func seedService(t *testing.T, db *gorm.DB, salonID uuid.UUID, name string, price float64, categoryID *uuid.UUID, active bool) models.Service {
	t.Helper()
	svc := models.Service{SalonID: salonID, Name: name, Price: price, Duration: 30, CategoryID: categoryID}
	if err := db.Create(&svc).Error; err != nil {
		t.Fatal(err)
	}
	if !active {
		db.Model(&svc).Update("is_active", false)
	}
	return svc
}

func names(items []SalonResult) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
