package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/complaintdesk/complaint-desk/internal/auth"
	"github.com/complaintdesk/complaint-desk/internal/config"
	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// UserService manages dashboard accounts.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, users repository.UserRepository) *UserService {
	return &UserService{users: users, bcryptCost: cfg.Auth.BcryptCost}
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     domain.Role
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateUser adds a staff or QC account. Username and email must both be
// unused.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Role != domain.RoleStaff && input.Role != domain.RoleQC {
		return nil, apperrors.NewValidationError("role must be staff or qc", map[string]any{"role": string(input.Role)})
	}
	return s.create(ctx, input)
}

// CreateAdmin seeds an admin account. It is only reachable from the CLI.
func (s *UserService) CreateAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.create(ctx, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
}

func (s *UserService) create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	missing := map[string]any{}
	if input.Username == "" {
		missing["username"] = "required"
	}
	if input.Email == "" {
		missing["email"] = "required"
	}
	if input.Password == "" {
		missing["password"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", missing)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("username or email already registered",
			map[string]any{"username": input.Username, "email": input.Email})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns every staff and QC account.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.ListByRoles(ctx, domain.RoleStaff, domain.RoleQC)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListQCUsers returns the reviewers a thread can be escalated to.
func (s *UserService) ListQCUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListByRoles(ctx, domain.RoleQC)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return apperrors.NewConflict("cannot delete your own account", map[string]any{"id": id})
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}
