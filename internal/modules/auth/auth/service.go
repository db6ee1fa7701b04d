package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
	sessionpkg "github.com/daily-reflections/core/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// SignUp creates a user with a bcrypt password and opens a session for it.
func (s *Service) SignUp(ctx context.Context, dto *SignUpDTO, ip, ua string) (string, *models.UserModel, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	name := dto.Name
	if name == "" {
		name = strings.SplitN(dto.Email, "@", 2)[0]
	}
	pending := models.OnboardingPending
	u := &models.UserModel{
		Email:               dto.Email,
		Name:                name,
		Timezone:            "UTC",
		OnboardingCompleted: &pending,
		PasswordHash:        string(hash),
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return "", nil, errEmailTaken
		}
		return "", nil, apperr.Storage("create user", err)
	}

	token, _, err := sessionpkg.Issue(s.db.WithContext(ctx), u.ID, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return "", nil, apperr.Storage("issue session", err)
	}
	return token, u, nil
}

// SignIn checks credentials. Unknown emails and wrong passwords both yield
// errBadCredentials.
func (s *Service) SignIn(ctx context.Context, email, password, ip, ua string) (string, *models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Spend the same work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, errBadCredentials
		}
		return "", nil, apperr.Storage("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, errBadCredentials
	}

	token, _, err := sessionpkg.Issue(s.db.WithContext(ctx), u.ID, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return "", nil, apperr.Storage("issue session", err)
	}
	return token, &u, nil
}

func (s *Service) SignOut(ctx context.Context, userID, sessionID string) error {
	err := sessionpkg.Revoke(s.db.WithContext(ctx), userID, sessionID)
	if err != nil && !sessionpkg.IsNotFound(err) {
		return apperr.Storage("revoke session", err)
	}
	return nil
}

// Session returns the user and the active session behind a request identity.
func (s *Service) Session(ctx context.Context, userID, sessionID string) (*models.UserModel, *models.UserSession, error) {
	db := s.db.WithContext(ctx)
	sess, err := sessionpkg.Get(db, userID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrUnauthorized
		}
		return nil, nil, apperr.Storage("load session", err)
	}
	var u models.UserModel
	if err := db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrUnauthorized
		}
		return nil, nil, apperr.Storage("load user", err)
	}
	return &u, sess, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("reflections-placeholder"), bcrypt.MinCost)
