package diary

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
	"github.com/daily-reflections/core/internal/pkg/metrics"
	"github.com/daily-reflections/core/internal/pkg/pagination"
	"gorm.io/gorm"
)

const newestFirst = "created_at DESC, id DESC"

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create inserts a placeholder entry. The (user_id, date) unique index makes
// the duplicate check atomic; a losing concurrent insert gets ErrDuplicateDate.
func (s *Service) Create(ctx context.Context, ownerID, content, date string) (*models.DiaryEntryModel, error) {
	entry := &models.DiaryEntryModel{
		UserID:  ownerID,
		Content: content,
		Date:    date,
		Title:   models.PlaceholderTitle,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, apperr.ErrDuplicateDate
		}
		return nil, apperr.Storage("create entry", err)
	}
	metrics.EntryCreated()
	return entry, nil
}

// List returns one page of the owner's entries, newest first.
func (s *Service) List(ctx context.Context, ownerID string, q pagination.Query) ([]models.DiaryEntryModel, error) {
	tx := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order(newestFirst)

	entries := make([]models.DiaryEntryModel, 0, q.Limit)
	if err := pagination.Apply(tx, q, &entries); err != nil {
		return nil, apperr.Storage("list entries", err)
	}
	return entries, nil
}

func (s *Service) GetByDate(ctx context.Context, ownerID, date string) (*models.DiaryEntryModel, error) {
	return s.first(ctx, "get entry by date", s.db.Where("user_id = ? AND date = ?", ownerID, date))
}

func (s *Service) GetByID(ctx context.Context, ownerID string, id uint) (*models.DiaryEntryModel, error) {
	return s.first(ctx, "get entry", s.db.Where("id = ? AND user_id = ?", id, ownerID))
}

func (s *Service) first(ctx context.Context, op string, tx *gorm.DB) (*models.DiaryEntryModel, error) {
	var entry models.DiaryEntryModel
	if err := tx.WithContext(ctx).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage(op, err)
	}
	return &entry, nil
}

// UpdateEntry applies patch to the entry with the given id regardless of
// owner. It is used by the enrichment pipeline.
func (s *Service) UpdateEntry(ctx context.Context, id uint, patch models.EntryPatch) (*models.DiaryEntryModel, error) {
	return s.update(ctx, s.db.Where("id = ?", id), patch)
}

// UpdateOwned applies patch only if the entry belongs to ownerID.
func (s *Service) UpdateOwned(ctx context.Context, ownerID string, id uint, patch models.EntryPatch) (*models.DiaryEntryModel, error) {
	return s.update(ctx, s.db.Where("id = ? AND user_id = ?", id, ownerID), patch)
}

func (s *Service) update(ctx context.Context, scope *gorm.DB, patch models.EntryPatch) (*models.DiaryEntryModel, error) {
	cols := patch.Columns()
	cols["updated_at"] = time.Now().UTC()

	var entry models.DiaryEntryModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.DiaryEntryModel{}).Where(scope).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where(scope).First(&entry).Error
	})
	switch {
	case err == nil:
		return &entry, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.ErrNotFound
	case database.IsDuplicateKey(err):
		return nil, apperr.ErrDuplicateDate
	default:
		return nil, apperr.Storage("update entry", err)
	}
}

// ToggleFavorite flips is_favorite in a single statement.
func (s *Service) ToggleFavorite(ctx context.Context, ownerID string, id uint) (*models.DiaryEntryModel, error) {
	scope := s.db.Where("id = ? AND user_id = ?", id, ownerID)
	var entry models.DiaryEntryModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.DiaryEntryModel{}).Where(scope).Updates(map[string]interface{}{
			"is_favorite": gorm.Expr("NOT is_favorite"),
			"updated_at":  time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where(scope).First(&entry).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Storage("toggle favorite", err)
	}
	return &entry, nil
}

// Search matches query case-insensitively against title, content and mood.
func (s *Service) Search(ctx context.Context, ownerID, query string, q pagination.Query) ([]models.DiaryEntryModel, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	tx := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Where(
			s.db.Where("LOWER(title) LIKE ? ESCAPE '!'", pattern).
				Or("LOWER(content) LIKE ? ESCAPE '!'", pattern).
				Or("LOWER(mood) LIKE ? ESCAPE '!'", pattern),
		).
		Order(newestFirst)

	entries := make([]models.DiaryEntryModel, 0, q.Limit)
	if err := pagination.Apply(tx, q, &entries); err != nil {
		return nil, apperr.Storage("search entries", err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ForEach streams every entry to fn in id order, batchSize rows at a time.
func (s *Service) ForEach(ctx context.Context, batchSize int, fn func(models.DiaryEntryModel) error) error {
	var batch []models.DiaryEntryModel
	res := s.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for _, e := range batch {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
	return apperr.Storage("scan entries", res.Error)
}
