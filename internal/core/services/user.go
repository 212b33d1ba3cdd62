// internal/core/services/user.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// UserService manages accounts
type UserService struct {
	repo       ports.UserRepository
	hasher     ports.PasswordHasher
	roleTokens map[domain.Role]string
	logger     *slog.Logger
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service. roleTokens supplies the
// opaque token stamped on each account of a role.
func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, roleTokens map[domain.Role]string, logger *slog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		hasher:     hasher,
		roleTokens: roleTokens,
		logger:     logger.With(slog.String("service", "user")),
	}
}

// Create adds an account. Only a superadmin may create users; an actor of
// nil is allowed for bootstrap from the seeder.
func (s *UserService) Create(ctx context.Context, actor *domain.Identity, input ports.CreateUserInput) (*domain.User, error) {
	if actor != nil && !actor.HasRole(domain.RoleSuperAdmin) {
		return nil, domain.Forbidden("Only superadmin can create users")
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" {
		return nil, domain.NewValidationError("email", "Email, password, and name are required")
	}

	user := &domain.User{
		Email: input.Email,
		Name:  input.Name,
		Role:  input.Role,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, &domain.ConflictError{Message: "User already exists"}
	}

	if len(input.Permissions) > 0 {
		user.Permissions = domain.PermissionSetFromStrings(input.Permissions)
	} else {
		user.Permissions = domain.DefaultPermissions(user.Role)
	}
	user.Token = s.roleTokens[user.Role]

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.PrepareForStorage()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.InfoContext(ctx, "created user",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))

	return user, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: "User", ID: id.String()}
	}
	return user, nil
}

// List returns users, optionally filtered by role
func (s *UserService) List(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if role != "" && !role.Valid() {
		return nil, domain.NewValidationError("role", "role must be one of superadmin, admin, agent")
	}
	users, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// Update applies a partial update under the role rules:
// anyone may update themselves, a superadmin may update anyone, an admin
// may update agents, and only a superadmin may change role or permissions.
func (s *UserService) Update(ctx context.Context, actor *domain.Identity, id uuid.UUID, patch ports.UserPatch) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeUserUpdate(actor, user, patch); err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email != user.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if other != nil && other.ID != user.ID {
				return nil, &domain.ConflictError{Message: "User already exists"}
			}
		}
		user.Email = email
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Role != nil {
		user.Role = *patch.Role
		user.Token = s.roleTokens[user.Role]
	}
	if patch.Permissions != nil {
		user.Permissions = domain.PermissionSetFromStrings(patch.Permissions)
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if patch.Password != nil && *patch.Password != "" {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.PrepareForStorage()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.InfoContext(ctx, "updated user",
		slog.String("user_id", user.ID.String()),
		slog.String("actor_id", actor.UserID.String()))

	return user, nil
}

func authorizeUserUpdate(actor *domain.Identity, target *domain.User, patch ports.UserPatch) error {
	isSuper := actor.HasRole(domain.RoleSuperAdmin)
	isSelf := actor.UserID == target.ID

	if (patch.Role != nil || patch.Permissions != nil) && !isSuper {
		return domain.Forbidden("Only superadmin can change role or permissions")
	}

	switch {
	case isSuper, isSelf:
		return nil
	case actor.HasRole(domain.RoleAdmin):
		if target.Role == domain.RoleSuperAdmin {
			return domain.Forbidden("Admins cannot modify superadmin users")
		}
		if target.Role != domain.RoleAgent {
			return domain.Forbidden("Admins can only modify agents")
		}
		return nil
	default:
		return domain.Forbidden("You can only update your own profile")
	}
}

// Delete removes an account. Superadmin only, and never itself.
func (s *UserService) Delete(ctx context.Context, actor *domain.Identity, id uuid.UUID) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !actor.HasRole(domain.RoleSuperAdmin) {
		return domain.Forbidden("Only superadmin can delete users")
	}
	if actor.UserID == id {
		return domain.NewValidationError("id", "Cannot delete your own account")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return &domain.NotFoundError{Entity: "User", ID: id.String()}
	}

	s.logger.InfoContext(ctx, "deleted user",
		slog.String("user_id", id.String()),
		slog.String("actor_id", actor.UserID.String()))

	return nil
}
