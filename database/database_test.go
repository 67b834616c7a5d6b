package database

import (
	"testing"

	"salontime-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	// each new connection to :memory: would see an empty database
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	tables := []string{
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY,
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"name" TEXT,
			"phone" TEXT,
			"role" TEXT DEFAULT 'client',
			"is_blocked" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "service_categories" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL UNIQUE,
			"slug" TEXT NOT NULL UNIQUE,
			"description" TEXT,
			"icon" TEXT,
			"sort_order" INTEGER DEFAULT 0,
			"is_active" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
	}

	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestCreateDefaultAdminNew(t *testing.T) {
	db := setupTestDB(t)

	if err := CreateDefaultAdmin(db, "testadmin@test.com", "testpassword123"); err != nil {
		t.Fatal(err)
	}

	var user models.User
	if err := db.Where("email = ?", "testadmin@test.com").First(&user).Error; err != nil {
		t.Fatal("admin user not created")
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role 'admin', got '%s'", user.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("testpassword123")) != nil {
		t.Error("stored password does not match")
	}
}

func TestCreateDefaultAdminAlreadyExists(t *testing.T) {
	db := setupTestDB(t)

	if err := CreateDefaultAdmin(db, "existing@test.com", "password123"); err != nil {
		t.Fatal(err)
	}

	// Second call should skip (no error)
	if err := CreateDefaultAdmin(db, "existing@test.com", "password123"); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", "existing@test.com").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 admin, got %d", count)
	}
}

func TestCreateDefaultAdminRandomPassword(t *testing.T) {
	db := setupTestDB(t)

	if err := CreateDefaultAdmin(db, "random@test.com", ""); err != nil {
		t.Fatal(err)
	}

	var user models.User
	if err := db.Where("email = ?", "random@test.com").First(&user).Error; err != nil {
		t.Fatal("admin not created with random password")
	}
	if user.Password == "" {
		t.Error("expected a hashed password")
	}
}

func TestSeedCategories(t *testing.T) {
	db := setupTestDB(t)

	if err := SeedCategories(db); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.ServiceCategory{}).Count(&count)
	if count != int64(len(DefaultCategories)) {
		t.Errorf("expected %d categories, got %d", len(DefaultCategories), count)
	}

	var hair models.ServiceCategory
	if err := db.Where("slug = ?", "hair-salon").First(&hair).Error; err != nil {
		t.Fatal("hair-salon category not seeded")
	}
	if !hair.IsActive {
		t.Error("seeded category should be active")
	}
}

func TestSeedCategoriesIdempotent(t *testing.T) {
	db := setupTestDB(t)

	SeedCategories(db)
	if err := SeedCategories(db); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.ServiceCategory{}).Count(&count)
	if count != int64(len(DefaultCategories)) {
		t.Errorf("expected %d categories after second seed, got %d", len(DefaultCategories), count)
	}
}
