package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salontime-backend/cache"
	"salontime-backend/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Weights of the signals that make up a salon's trending score.
const (
	BookingWeight  = 3.0
	FavoriteWeight = 2.0
)

// TrendingJob recomputes salons.trending_score from recent activity.
// It only updates scores; it never deletes rows. Cached search pages are
// dropped after every successful run.
type TrendingJob struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Window time.Duration
	Now    func() time.Time
}

func NewTrendingJob(db *gorm.DB, c cache.Cache) *TrendingJob {
	return &TrendingJob{DB: db, Cache: c, Window: 7 * 24 * time.Hour, Now: time.Now}
}

type salonCount struct {
	SalonID uuid.UUID
	N       int64
}

// Run recomputes every score and returns how many salons are trending.
func (j *TrendingJob) Run(ctx context.Context) (int, error) {
	since := j.Now().UTC().Add(-j.Window)
	db := j.DB.WithContext(ctx)

	var bookings []salonCount
	if err := db.Model(&models.Booking{}).
		Select("salon_id, COUNT(*) AS n").
		Where("created_at >= ? AND status <> ?", since, models.BookingStatusCancelled).
		Group("salon_id").
		Scan(&bookings).Error; err != nil {
		return 0, err
	}

	var favorites []salonCount
	if err := db.Model(&models.Favorite{}).
		Select("salon_id, COUNT(*) AS n").
		Where("created_at >= ?", since).
		Group("salon_id").
		Scan(&favorites).Error; err != nil {
		return 0, err
	}

	scores := make(map[uuid.UUID]float64)
	for _, b := range bookings {
		scores[b.SalonID] += float64(b.N) * BookingWeight
	}
	for _, f := range favorites {
		scores[f.SalonID] += float64(f.N) * FavoriteWeight
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Salon{}).
			Where("trending_score <> ?", 0).
			UpdateColumn("trending_score", 0).Error; err != nil {
			return err
		}
		for id, score := range scores {
			if err := tx.Model(&models.Salon{}).
				Where("id = ?", id).
				UpdateColumn("trending_score", score).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if j.Cache != nil {
		if err := cache.DeletePrefix(ctx, j.Cache, cache.KeySearchPrefix); err != nil {
			return len(scores), fmt.Errorf("invalidate search cache: %w", err)
		}
	}
	return len(scores), nil
}

// StartScheduler runs job on the given cron spec. Stop the returned cron on shutdown.
func StartScheduler(job *TrendingJob, spec string, log *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		start := time.Now()
		n, err := job.Run(ctx)
		if err != nil {
			log.Error("trending recomputation failed", "error", err)
			return
		}
		log.Info("trending scores recomputed", "salons", n, "duration", time.Since(start))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info("trending scheduler started", "schedule", spec)
	return c, nil
}
