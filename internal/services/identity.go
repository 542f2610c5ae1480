package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nutriscan/internal/apperr"
	"nutriscan/internal/logger"
	"nutriscan/internal/models"
	"nutriscan/internal/session"
	"nutriscan/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxUsernameAttempts = 3

// IdentityService 匿名用户 + bearer token
type IdentityService struct {
	db    *gorm.DB
	store session.Store
	names *utils.NameGenerator
	ttl   time.Duration
}

func NewIdentityService(db *gorm.DB, store session.Store, names *utils.NameGenerator, ttl time.Duration) *IdentityService {
	return &IdentityService{db: db, store: store, names: names, ttl: ttl}
}

// CreateAnonymousUser persists an anonymous user derived from username and issues a token.
func (s *IdentityService) CreateAnonymousUser(ctx context.Context, username string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", apperr.InvalidArgument("username is required")
	}
	if utf8.RuneCountInString(username) > 32 {
		return nil, "", apperr.InvalidArgument("username must be at most 32 characters")
	}

	var user *models.User
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		name, err := s.names.Generate(username)
		if err != nil {
			return nil, "", fmt.Errorf("generate username: %w", err)
		}
		candidate := &models.User{
			Username:    name,
			Avatar:      utils.GetRandomEmoji(),
			IsAnonymous: true,
		}
		err = s.db.WithContext(ctx).Create(candidate).Error
		if err == nil {
			user = candidate
			break
		}
		if !isDuplicateKey(err) {
			return nil, "", fmt.Errorf("create user: %w", err)
		}
		logger.L.Warn("username collision, retrying", zap.String("username", name))
	}
	if user == nil {
		return nil, "", apperr.Conflict("could not allocate a unique username")
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *IdentityService) issueToken(ctx context.Context, userID uint) (string, error) {
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		token := uuid.NewString()
		err := s.store.Save(ctx, session.HashToken(token), userID, s.ttl)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, session.ErrTokenExists) {
			return "", fmt.Errorf("save token: %w", err)
		}
	}
	return "", apperr.Conflict("could not issue a unique token")
}

// ResolveToken maps a bearer token to a user id. It has no side effects.
func (s *IdentityService) ResolveToken(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, apperr.Unauthorized("not authenticated")
	}
	userID, err := s.store.Lookup(ctx, session.HashToken(token))
	if errors.Is(err, session.ErrNotFound) {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	if err != nil {
		return 0, fmt.Errorf("resolve token: %w", err)
	}
	return userID, nil
}

// CurrentUser resolves the token and loads the bound user.
func (s *IdentityService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

func (s *IdentityService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// Logout revokes the token. Unknown tokens are ignored.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	if err := s.store.Revoke(ctx, session.HashToken(token)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
