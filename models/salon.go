package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Salon struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Name          string         `gorm:"not null;index" json:"name"`
	Description   string         `json:"description"`
	Phone         string         `json:"phone"`
	Email         string         `json:"email"`
	Website       string         `json:"website"`
	Address       string         `json:"address"`
	City          string         `gorm:"index" json:"city"`
	PostalCode    string         `json:"postal_code"`
	Country       string         `json:"country"`
	Latitude      *float64       `gorm:"index" json:"latitude"`
	Longitude     *float64       `gorm:"index" json:"longitude"`
	RatingAverage float64        `gorm:"default:0;index" json:"rating_average"`
	RatingCount   int            `gorm:"default:0" json:"rating_count"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`
	IsFeatured    bool           `gorm:"default:false" json:"is_featured"`
	FeaturedUntil *time.Time     `json:"featured_until,omitempty"`
	TrendingScore float64        `gorm:"default:0" json:"trending_score"`
	ViewCount     int            `gorm:"default:0" json:"view_count"`
	BookingCount  int            `gorm:"default:0" json:"booking_count"`
	FavoriteCount int            `gorm:"default:0" json:"favorite_count"`
	BusinessHours BusinessHours  `gorm:"type:jsonb;default:'{}'" json:"business_hours"`
	Services      []Service      `gorm:"foreignKey:SalonID" json:"services,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Salon) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// HasCoordinates reports whether the salon was geocoded.
func (s *Salon) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// DayHours is one weekday entry of a salon's business hours. Times are "HH:MM".
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

// BusinessHours is keyed by lowercase English weekday name ("monday").
type BusinessHours map[string]DayHours

// Weekdays lists the valid BusinessHours keys in time.Weekday order.
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DefaultBusinessHours is applied to salons registered without hours.
func DefaultBusinessHours() BusinessHours {
	hours := BusinessHours{}
	for _, day := range Weekdays {
		hours[day] = DayHours{Open: "09:00", Close: "18:00"}
	}
	hours["sunday"] = DayHours{Closed: true}
	return hours
}

func (b BusinessHours) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *BusinessHours) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into BusinessHours", value)
	}
	if len(data) == 0 || string(data) == "null" {
		*b = nil
		return nil
	}
	hours := BusinessHours{}
	if err := json.Unmarshal(data, &hours); err != nil {
		return err
	}
	*b = hours
	return nil
}
