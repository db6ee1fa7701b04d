package user

import (
	"context"
	"errors"
	"time"

	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) GetByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("get user", err)
	}
	return &u, nil
}

// UpdateProfile writes the set fields of dto. An empty patch returns the
// user unchanged.
func (s *Service) UpdateProfile(ctx context.Context, id string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	return s.update(ctx, id, dto.columns())
}

// MarkOnboarded sets the onboarding flag to "true".
func (s *Service) MarkOnboarded(ctx context.Context, id string) (*models.UserModel, error) {
	return s.update(ctx, id, map[string]interface{}{"onboarding_completed": models.OnboardingDone})
}

func (s *Service) update(ctx context.Context, id string, cols map[string]interface{}) (*models.UserModel, error) {
	if len(cols) == 0 {
		return s.GetByID(ctx, id)
	}
	cols["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, apperr.Storage("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.GetByID(ctx, id)
}
