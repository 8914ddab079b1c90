package service

import (
	"context"
	"errors"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"
	"yamdb/internal/validation"

	"gorm.io/gorm"
)

const nameMaxLength = 150

// UserInput is a full user record as created by an admin.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      models.Role
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService interface {
	List(ctx context.Context, actor *policy.Actor, search string, page, pageSize int) ([]models.User, int64, error)
	Create(ctx context.Context, actor *policy.Actor, in UserInput) (*models.User, error)
	Get(ctx context.Context, actor *policy.Actor, username string) (*models.User, error)
	Update(ctx context.Context, actor *policy.Actor, username string, patch UserPatch) (*models.User, error)
	Delete(ctx context.Context, actor *policy.Actor, username string) error
	Me(ctx context.Context, actor *policy.Actor) (*models.User, error)
	UpdateMe(ctx context.Context, actor *policy.Actor, patch UserPatch) (*models.User, error)
	SetRole(ctx context.Context, username string, role models.Role) (*models.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context, actor *policy.Actor, search string, page, pageSize int) ([]models.User, int64, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindUser, Action: policy.ActionRead}); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, search, page, pageSize)
}

func (s *userService) Create(ctx context.Context, actor *policy.Actor, in UserInput) (*models.User, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindUser, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	verr.Merge(validation.Identity(in.Username, in.Email))
	validateNames(verr, &in.FirstName, &in.LastName)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.IsValid() {
		verr.Add("role", roleMessage(in.Role))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := checkIdentityAvailable(ctx, s.users, in.Username, in.Email, ""); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.uniqueness(ctx, err, user)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, actor *policy.Actor, username string) (*models.User, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindUser, Action: policy.ActionRead}); err != nil {
		return nil, err
	}
	return s.findByUsername(ctx, username)
}

func (s *userService) Update(ctx context.Context, actor *policy.Actor, username string, patch UserPatch) (*models.User, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindUser, Action: policy.ActionUpdate}); err != nil {
		return nil, err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, patch, policy.CanChangeRole(actor))
}

func (s *userService) Delete(ctx context.Context, actor *policy.Actor, username string) error {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindUser, Action: policy.ActionDelete}); err != nil {
		return err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user.ID)
}

func (s *userService) Me(ctx context.Context, actor *policy.Actor) (*models.User, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindProfile, Action: policy.ActionRead}); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, err
}

// UpdateMe applies patch to the caller's own profile. A role change from a
// caller who may not change roles is silently dropped.
func (s *userService) UpdateMe(ctx context.Context, actor *policy.Actor, patch UserPatch) (*models.User, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindProfile, Action: policy.ActionUpdate}); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, patch, policy.CanChangeRole(actor))
}

// SetRole changes a user's role outside of any request, for operator tooling.
func (s *userService) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("role", roleMessage(role))
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) apply(ctx context.Context, user *models.User, patch UserPatch, allowRole bool) (*models.User, error) {
	verr := &apperrors.ValidationError{}
	var newUsername, newEmail string

	if patch.Username != nil && *patch.Username != user.Username {
		if msg := validation.UsernameMessage(*patch.Username); msg != "" {
			verr.Add("username", msg)
		}
		newUsername = *patch.Username
	}
	if patch.Email != nil && *patch.Email != user.Email {
		if msg := validation.EmailMessage(*patch.Email); msg != "" {
			verr.Add("email", msg)
		}
		newEmail = *patch.Email
	}
	validateNames(verr, patch.FirstName, patch.LastName)
	if allowRole && patch.Role != nil && !patch.Role.IsValid() {
		verr.Add("role", roleMessage(*patch.Role))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := checkIdentityAvailable(ctx, s.users, newUsername, newEmail, user.ID); err != nil {
		return nil, err
	}

	if newUsername != "" {
		user.Username = newUsername
	}
	if newEmail != "" {
		user.Email = newEmail
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if allowRole && patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.uniqueness(ctx, err, user)
	}
	return user, nil
}

func (s *userService) findByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user")
	}
	return user, err
}

// uniqueness turns a storage-level duplicate into a field-keyed validation error.
func (s *userService) uniqueness(ctx context.Context, err error, user *models.User) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if cerr := checkIdentityAvailable(ctx, s.users, user.Username, user.Email, user.ID); cerr != nil {
		return cerr
	}
	return apperrors.NewValidationError(apperrors.NonFieldErrors, "A user with these credentials already exists.")
}

func validateNames(verr *apperrors.ValidationError, firstName, lastName *string) {
	if firstName != nil && len(*firstName) > nameMaxLength {
		verr.Add("first_name", "Ensure this field has no more than 150 characters.")
	}
	if lastName != nil && len(*lastName) > nameMaxLength {
		verr.Add("last_name", "Ensure this field has no more than 150 characters.")
	}
}

func roleMessage(r models.Role) string {
	return `"` + string(r) + `" is not a valid choice.`
}
