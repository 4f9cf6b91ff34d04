package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/reserveme/internal/auth"
	"github.com/Leganyst/reserveme/internal/clock"
	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/repository"
)

// Tokens — пара токенов, которую получает клиент после входа.
type Tokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// IdentityService реализует регистрацию, вход, ротацию refresh-токенов
// и проверку access-токена для транспорта.
type IdentityService struct {
	users      repository.UserRepository
	refresh    repository.RefreshTokenRepository
	tx         repository.TxManager
	tokens     *auth.TokenManager
	hasher     *auth.PasswordHasher
	refreshTTL time.Duration
	clock      clock.Clock
	logger     *zap.Logger
}

func NewIdentityService(
	users repository.UserRepository,
	refresh repository.RefreshTokenRepository,
	tx repository.TxManager,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	refreshTTL time.Duration,
	c clock.Clock,
	logger *zap.Logger,
) *IdentityService {
	if c == nil {
		c = clock.NewSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		users:      users,
		refresh:    refresh,
		tx:         tx,
		tokens:     tokens,
		hasher:     hasher,
		refreshTTL: refreshTTL,
		clock:      c,
		logger:     logger.Named("identity"),
	}
}

// Register создаёт пользователя с ролью ROLE_USER и сразу выдаёт токены.
func (s *IdentityService) Register(ctx context.Context, email, password, displayName string) (*model.User, *Tokens, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrEmailRequired
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, storeError("find user", err)
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, storeError("hash password", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    s.clock.Now(),
	}

	var tokens *Tokens
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return storeError("create user", err)
		}
		issued, err := s.issue(ctx, u)
		if err != nil {
			return err
		}
		tokens = issued
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", zap.Stringer("user_id", u.ID), zap.String("email", u.Email))
	return u, tokens, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*model.User, *Tokens, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, storeError("find user", err)
	}
	if u == nil || !s.hasher.Check(u.PasswordHash, password) {
		s.logger.Debug("login rejected", zap.String("email", repository.NormalizeEmail(email)))
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// Refresh меняет refresh-токен на новую пару. Старый токен удаляется в той же транзакции,
// поэтому повторно его использовать нельзя. Просроченный токен удаляется, клиент получает ошибку.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	id, err := uuid.Parse(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, ErrInvalidToken
	}

	var (
		tokens  *Tokens
		expired bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		stored, err := s.refresh.Get(ctx, id)
		if err != nil {
			return storeError("get refresh token", err)
		}
		if stored == nil {
			return ErrInvalidToken
		}

		if err := s.refresh.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidToken
			}
			return storeError("delete refresh token", err)
		}
		if stored.Expired(s.clock.Now()) {
			// удаление должно закоммититься
			expired = true
			return nil
		}

		u, err := s.users.GetByID(ctx, stored.UserID)
		if err != nil {
			return storeError("get user", err)
		}
		if u == nil {
			return ErrInvalidToken
		}

		tokens, err = s.issue(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrRefreshTokenExpired
	}
	return tokens, nil
}

// Authenticate проверяет access-токен и возвращает id пользователя.
// Токен удалённого пользователя не принимается.
func (s *IdentityService) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error) {
	claims, err := s.tokens.Parse(strings.TrimSpace(accessToken))
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return uuid.Nil, storeError("check user", err)
	}
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

func (s *IdentityService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get user", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *IdentityService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

func (s *IdentityService) issue(ctx context.Context, u *model.User) (*Tokens, error) {
	access, accessExp, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rt := &model.RefreshToken{
		Token:     uuid.New(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.refresh.Create(ctx, rt); err != nil {
		return nil, storeError("create refresh token", err)
	}

	return &Tokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rt.Token.String(),
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}
