package store

import (
	"context"
	"errors"
	"time"

	"localsphere/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CaptureStore struct{ db *gorm.DB }

func (s *Store) Captures() *CaptureStore { return &CaptureStore{db: s.DB} }

func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(&domain.EmailCapture{})
}

// InsertIfAbsent inserts c unless a capture for (email, variant) already
// exists. The unique index decides; inserted=false means the pair was taken.
// A clash on the verification token index is reported as ErrDuplicateKey so
// the caller can retry with a fresh token.
func (cs *CaptureStore) InsertIfAbsent(ctx context.Context, c *domain.EmailCapture) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx := cs.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}, {Name: "variant"}},
			DoNothing: true,
		}).
		Create(c)
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return false, ErrDuplicateKey
		}
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (cs *CaptureStore) FindByToken(ctx context.Context, token string) (*domain.EmailCapture, error) {
	var out domain.EmailCapture
	if err := cs.db.WithContext(ctx).First(&out, "verification_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (cs *CaptureStore) FindByEmailVariant(ctx context.Context, email, variant string) (*domain.EmailCapture, error) {
	var out domain.EmailCapture
	if err := cs.db.WithContext(ctx).First(&out, "email = ? AND variant = ?", email, variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &out, nil
}

// SetVerified flips verified false -> true for token. The WHERE clause makes
// it a compare-and-swap: only one concurrent caller sees updated=true.
func (cs *CaptureStore) SetVerified(ctx context.Context, token string, at time.Time) (bool, error) {
	tx := cs.db.WithContext(ctx).
		Model(&domain.EmailCapture{}).
		Where("verification_token = ? AND verified = ?", token, false).
		Updates(map[string]any{
			"verified":    true,
			"verified_at": at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (cs *CaptureStore) Stats(ctx context.Context) (*domain.CaptureStats, error) {
	out := &domain.CaptureStats{Variants: map[string]int64{}}
	db := cs.db.WithContext(ctx).Model(&domain.EmailCapture{})

	if err := db.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).Where("verified = ?", true).Count(&out.Verified).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Variant string
		Count   int64
	}
	if err := db.Session(&gorm.Session{}).
		Select("variant, count(*) AS count").
		Group("variant").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.Variants[r.Variant] = r.Count
	}
	return out, nil
}
