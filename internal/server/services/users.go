package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/logging"
	"github.com/dmitrijs2005/scholarstream/internal/server/auth"
	"github.com/dmitrijs2005/scholarstream/internal/server/config"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/repomanager"
)

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		log:                         log.With("module", "users"),
	}
}

// TokenValidity is the lifetime of issued tokens and of the cookie carrying them.
func (s *UserService) TokenValidity() time.Duration {
	return s.accessTokenValidityDuration
}

// Register stores a new user with the student role. The second return value
// is false, with a nil user, when the email is already registered.
func (s *UserService) Register(ctx context.Context, user *models.User) (*models.User, bool, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return nil, false, fmt.Errorf("email is required: %w", common.ErrorValidation)
	}
	user.Role = common.RoleStudent

	repo := s.repomanager.Users(s.db)

	created, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "email", created.Email)
	return created, true, nil
}

// IssueToken signs an identity token for email. The role comes from the
// registry when the user is known; unknown users get the student role.
func (s *UserService) IssueToken(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email is required: %w", common.ErrorValidation)
	}

	role := common.RoleStudent
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		role = user.Role
	case errors.Is(err, common.ErrorNotFound):
	default:
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	token, err := auth.GenerateToken(auth.Claims{Email: email, Role: role}, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate verifies a token and returns its claims.
func (s *UserService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	return auth.ParseToken(token, s.jwtSecret)
}
