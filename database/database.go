package database

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"salontime-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=salontime port=5432 sslmode=disable"

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = defaultDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Ensure PostgreSQL has gen_random_uuid() available (pgcrypto extension).
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.ServiceCategory{},
		&models.Salon{},
		&models.Service{},
		&models.Booking{},
		&models.Favorite{},
		&models.Review{},
	)
}

// DefaultCategories is the reference data seeded on startup.
var DefaultCategories = []models.ServiceCategory{
	{Name: "Hair Salon", Slug: "hair-salon", Icon: "scissors", SortOrder: 1, Description: "Haircuts, colouring and styling"},
	{Name: "Barber", Slug: "barber", Icon: "razor", SortOrder: 2, Description: "Men's cuts and beard care"},
	{Name: "Nail Salon", Slug: "nail-salon", Icon: "nail", SortOrder: 3, Description: "Manicure and pedicure"},
	{Name: "Beauty Salon", Slug: "beauty-salon", Icon: "sparkles", SortOrder: 4, Description: "Facials, waxing and make-up"},
	{Name: "Massage", Slug: "massage", Icon: "hand", SortOrder: 5, Description: "Relaxation and sports massage"},
	{Name: "Spa", Slug: "spa", Icon: "spa", SortOrder: 6, Description: "Wellness and day spa treatments"},
	{Name: "Lashes & Brows", Slug: "lashes-brows", Icon: "eye", SortOrder: 7, Description: "Lash extensions and brow shaping"},
}

// SeedCategories inserts the default categories that do not exist yet.
func SeedCategories(db *gorm.DB) error {
	for _, c := range DefaultCategories {
		var existing models.ServiceCategory
		err := db.Unscoped().Where("slug = ?", c.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		category := c
		if err := db.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Slug, err)
		}
	}
	return nil
}

func CreateDefaultAdmin(db *gorm.DB, adminEmail, adminPassword string) error {
	if adminEmail == "" {
		adminEmail = "admin@salontime.app"
	}

	var existingUser models.User
	result := db.Where("email = ?", adminEmail).First(&existingUser)
	if result.Error == nil {
		// Admin already exists
		return nil
	}

	if adminPassword == "" {
		generated, err := randomPassword()
		if err != nil {
			return err
		}
		adminPassword = generated
		slog.Warn("generated password for default admin, change it after first login", "email", adminEmail, "password", adminPassword)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		Name:     "Admin User",
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	slog.Info("default admin created", "email", adminEmail)
	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
