package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SalonID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"salon_id"`
	Name        string           `gorm:"not null;index" json:"name"`
	Description string           `json:"description"`
	Price       float64          `gorm:"not null" json:"price"`
	Duration    int              `gorm:"not null;default:30" json:"duration"` // minutes
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category    *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsActive    bool             `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
