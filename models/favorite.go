package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_salon" json:"user_id"`
	SalonID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_salon;index" json:"salon_id"`
	Salon     *Salon    `gorm:"foreignKey:SalonID" json:"salon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
