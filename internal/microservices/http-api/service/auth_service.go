package service

import (
	"context"
	"errors"
	"time"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/validation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrExpiredToken       = errors.New("token has expired")
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgEmailTaken    = "A user with that email already exists."
)

// CodeDeliverer sends a confirmation code to its owner out of band.
type CodeDeliverer interface {
	Deliver(ctx context.Context, user *models.User, code string) error
}

type AuthService interface {
	Signup(ctx context.Context, username, email string) (*models.User, error)
	ExchangeToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	users     repository.UserRepository
	codes     ConfirmationService
	tx        repository.Transactor
	tokens    *TokenIssuer
	deliverer CodeDeliverer
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	codes ConfirmationService,
	tx repository.Transactor,
	tokens *TokenIssuer,
	deliverer CodeDeliverer,
) AuthService {
	return &authService{
		users:     users,
		codes:     codes,
		tx:        tx,
		tokens:    tokens,
		deliverer: deliverer,
		now:       time.Now,
	}
}

// Signup registers username/email and sends them a confirmation code.
// Repeating a signup with an existing exact pair re-issues and resends the code.
func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	existing, err := s.users.FindByUsernameAndEmail(ctx, username, email)
	switch {
	case err == nil:
		return s.resend(ctx, existing)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if verr := validation.Identity(username, email); verr != nil {
		return nil, verr
	}
	if err := checkIdentityAvailable(ctx, s.users, username, email, ""); err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, Role: models.RoleUser}
	var code string
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		issued, err := s.codes.Issue(ctx, user)
		code = issued
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent signup; report which field collided
		if cerr := checkIdentityAvailable(ctx, s.users, username, email, ""); cerr != nil {
			return nil, cerr
		}
		return nil, apperrors.NewValidationError(apperrors.NonFieldErrors, "A user with these credentials already exists.")
	}
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, user, code)
	return user, nil
}

func (s *authService) resend(ctx context.Context, user *models.User) (*models.User, error) {
	code, err := s.codes.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, user, code)
	return user, nil
}

// deliver hands the code to the delivery channel. Failures never undo the signup.
func (s *authService) deliver(ctx context.Context, user *models.User, code string) {
	if err := s.deliverer.Deliver(ctx, user, code); err != nil {
		zap.L().Error("Failed to deliver confirmation code",
			zap.String("user_id", user.ID),
			zap.String("username", user.Username),
			zap.Error(err))
	}
}

// ExchangeToken trades a valid confirmation code for an access token.
// The code is consumed and, because last_login changes, no longer matches the user's state.
func (s *authService) ExchangeToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.NotFound("user")
	}
	if err != nil {
		return "", err
	}

	record, err := s.codes.Verify(ctx, user, code)
	if err != nil {
		return "", err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.codes.Consume(ctx, record, now); err != nil {
			return err
		}
		return s.users.UpdateLastLogin(ctx, user.ID, now)
	})
	if err != nil {
		return "", err
	}
	user.LastLogin = &now

	return s.tokens.Issue(user)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	return s.tokens.Parse(tokenString)
}

// checkIdentityAvailable reports which of username/email already belong to a
// user other than exceptID.
func checkIdentityAvailable(ctx context.Context, users repository.UserRepository, username, email, exceptID string) error {
	verr := &apperrors.ValidationError{}

	if username != "" {
		u, err := users.FindByUsername(ctx, username)
		switch {
		case err == nil && u.ID != exceptID:
			verr.Add("username", msgUsernameTaken)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if email != "" {
		u, err := users.FindByEmail(ctx, email)
		switch {
		case err == nil && u.ID != exceptID:
			verr.Add("email", msgEmailTaken)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	return verr.OrNil()
}
