package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/config"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/repository"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// UserService is the admin surface for accounts.
type UserService struct {
	users       repository.UserRepository
	memberships repository.MembershipRepository
	bcryptCost  int
	logger      *zap.Logger
}

// UserDependencies bundles repositories.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	MembershipRepo repository.MembershipRepository
	Logger         *zap.Logger
}

// UserCreateInput describes an account created by an admin.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserUpdateInput carries optional changes.
type UserUpdateInput struct {
	Name   *string
	Email  *string
	Role   *domain.Role
	Active *bool
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:       deps.UserRepo,
		memberships: deps.MembershipRepo,
		bcryptCost:  cfg.BcryptCost,
		logger:      logger,
	}
}

// CreateUser adds an account of any role.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is
// already registered. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !apperrors.IsNotFound(err) {
		return false, apperrors.MapError(err)
	}
	if _, err := s.CreateUser(ctx, UserCreateInput{Name: "Administrator", Email: email, Password: password, Role: domain.RoleAdmin}); err != nil {
		return false, err
	}
	return true, nil
}

// GetUser returns the account with its group memberships.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := repository.HydrateMemberships(ctx, s.memberships, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser applies the given changes. A role change is refused while the
// user still belongs to groups of the old role.
func (s *UserService) UpdateUser(ctx context.Context, userID string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Role != nil && *input.Role != user.Role {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		if len(user.SupplierGroups) > 0 || len(user.CustomerGroups()) > 0 {
			return nil, apperrors.NewConflict("remove the user from its groups first", map[string]any{"user_id": userID})
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers lists accounts.
func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}
