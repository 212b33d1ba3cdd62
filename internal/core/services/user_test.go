package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/core/services"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

var roleTokens = map[domain.Role]string{
	domain.RoleSuperAdmin: "superadmin-token",
	domain.RoleAdmin:      "admin-token",
	domain.RoleAgent:      "agent-token",
}

func newUserService(t *testing.T) (*services.UserService, *mocks.MockUserRepository, *mocks.MockPasswordHasher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	hasher := mocks.NewMockPasswordHasher(ctrl)
	return services.NewUserService(repo, hasher, roleTokens, helpers.TestLogger()), repo, hasher
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	super := helpers.CreateTestIdentity(domain.RoleSuperAdmin)

	t.Run("superadmin_creates_agent_with_defaults", func(t *testing.T) {
		svc, repo, hasher := newUserService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), "cashier@tajalli.test").Return(nil, nil)
		hasher.EXPECT().Hash("pw-123456").Return("hashed", nil)
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		user, err := svc.Create(ctx, super, ports.CreateUserInput{
			Email:    "Cashier@Tajalli.test",
			Password: "pw-123456",
			Name:     "Cashier",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAgent, user.Role)
		assert.Equal(t, "agent-token", user.Token)
		assert.Equal(t, "hashed", user.PasswordHash)
		assert.True(t, user.Permissions.Has(domain.ModuleSales, domain.OpCreate))
		assert.False(t, user.Permissions.Has(domain.ModuleUsers, domain.OpRead))
	})

	t.Run("explicit_permissions_override_defaults", func(t *testing.T) {
		svc, repo, hasher := newUserService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
		hasher.EXPECT().Hash(gomock.Any()).Return("hashed", nil)
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		user, err := svc.Create(ctx, super, ports.CreateUserInput{
			Email:       "reports@tajalli.test",
			Password:    "pw",
			Name:        "Reports",
			Role:        domain.RoleAdmin,
			Permissions: []string{"reports:read"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, user.Permissions.Len())
		assert.True(t, user.Permissions.Has(domain.ModuleReports, domain.OpRead))
	})

	t.Run("bootstrap_without_actor_is_allowed", func(t *testing.T) {
		svc, repo, hasher := newUserService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
		hasher.EXPECT().Hash(gomock.Any()).Return("hashed", nil)
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		user, err := svc.Create(ctx, nil, ports.CreateUserInput{
			Email: "root@tajalli.test", Password: "pw", Name: "Root", Role: domain.RoleSuperAdmin,
		})
		require.NoError(t, err)
		assert.True(t, user.Permissions.IsAll())
	})

	t.Run("admin_cannot_create_users", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		_, err := svc.Create(ctx, helpers.CreateTestIdentity(domain.RoleAdmin), ports.CreateUserInput{
			Email: "x@tajalli.test", Password: "pw", Name: "X",
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("missing_fields_are_rejected", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		_, err := svc.Create(ctx, super, ports.CreateUserInput{Email: "x@tajalli.test"})
		assert.ErrorContains(t, err, "Email, password, and name are required")
	})

	t.Run("invalid_role_is_rejected", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		_, err := svc.Create(ctx, super, ports.CreateUserInput{
			Email: "x@tajalli.test", Password: "pw", Name: "X", Role: "owner",
		})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "role", validation.Field)
	})

	t.Run("duplicate_email_conflicts", func(t *testing.T) {
		svc, repo, _ := newUserService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), "x@tajalli.test").Return(helpers.CreateTestUser(domain.RoleAgent), nil)

		_, err := svc.Create(ctx, super, ports.CreateUserInput{Email: "x@tajalli.test", Password: "pw", Name: "X"})
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestUserService_UpdateRules(t *testing.T) {
	super := helpers.CreateTestIdentity(domain.RoleSuperAdmin)
	admin := helpers.CreateTestIdentity(domain.RoleAdmin)
	agent := helpers.CreateTestIdentity(domain.RoleAgent)

	name := "Renamed"
	adminRole := domain.RoleAdmin

	tests := []struct {
		name       string
		actor      *domain.Identity
		targetRole domain.Role
		self       bool
		patch      ports.UserPatch
		wantErr    error
	}{
		{name: "superadmin_updates_anyone", actor: super, targetRole: domain.RoleAdmin, patch: ports.UserPatch{Name: &name}},
		{name: "admin_updates_agent", actor: admin, targetRole: domain.RoleAgent, patch: ports.UserPatch{Name: &name}},
		{name: "admin_cannot_update_admin", actor: admin, targetRole: domain.RoleAdmin, patch: ports.UserPatch{Name: &name}, wantErr: domain.ErrForbidden},
		{name: "admin_cannot_update_superadmin", actor: admin, targetRole: domain.RoleSuperAdmin, patch: ports.UserPatch{Name: &name}, wantErr: domain.ErrForbidden},
		{name: "agent_updates_self", actor: agent, targetRole: domain.RoleAgent, self: true, patch: ports.UserPatch{Name: &name}},
		{name: "agent_cannot_update_other_agent", actor: agent, targetRole: domain.RoleAgent, patch: ports.UserPatch{Name: &name}, wantErr: domain.ErrForbidden},
		{name: "self_cannot_change_own_role", actor: agent, targetRole: domain.RoleAgent, self: true, patch: ports.UserPatch{Role: &adminRole}, wantErr: domain.ErrForbidden},
		{name: "admin_cannot_change_permissions", actor: admin, targetRole: domain.RoleAgent, patch: ports.UserPatch{Permissions: []string{"all"}}, wantErr: domain.ErrForbidden},
		{name: "superadmin_promotes_agent", actor: super, targetRole: domain.RoleAgent, patch: ports.UserPatch{Role: &adminRole}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newUserService(t)
			target := helpers.CreateTestUser(tt.targetRole)
			if tt.self {
				target.ID = tt.actor.UserID
			}
			repo.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)
			if tt.wantErr == nil {
				repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			}

			got, err := svc.Update(context.Background(), tt.actor, target.ID, tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.patch.Role != nil {
				assert.Equal(t, *tt.patch.Role, got.Role)
				assert.Equal(t, roleTokens[*tt.patch.Role], got.Token)
			}
		})
	}
}

func TestUserService_UpdatePasswordAndEmail(t *testing.T) {
	svc, repo, hasher := newUserService(t)
	agent := helpers.CreateTestIdentity(domain.RoleAgent)
	target := helpers.CreateTestUser(domain.RoleAgent, func(u *domain.User) { u.ID = agent.UserID })
	email := "NEW@tajalli.test"
	password := "changed"

	repo.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)
	repo.EXPECT().FindByEmail(gomock.Any(), "new@tajalli.test").Return(nil, nil)
	hasher.EXPECT().Hash("changed").Return("rehashed", nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Update(context.Background(), agent, target.ID, ports.UserPatch{Email: &email, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "new@tajalli.test", got.Email)
	assert.Equal(t, "rehashed", got.PasswordHash)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	super := helpers.CreateTestIdentity(domain.RoleSuperAdmin)

	t.Run("superadmin_deletes_user", func(t *testing.T) {
		svc, repo, _ := newUserService(t)
		id := uuid.New()
		repo.EXPECT().Delete(gomock.Any(), id).Return(true, nil)
		assert.NoError(t, svc.Delete(ctx, super, id))
	})

	t.Run("missing_user_is_not_found", func(t *testing.T) {
		svc, repo, _ := newUserService(t)
		id := uuid.New()
		repo.EXPECT().Delete(gomock.Any(), id).Return(false, nil)

		var notFound *domain.NotFoundError
		assert.ErrorAs(t, svc.Delete(ctx, super, id), &notFound)
	})

	t.Run("cannot_delete_self", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		assert.ErrorContains(t, svc.Delete(ctx, super, super.UserID), "Cannot delete your own account")
	})

	t.Run("admin_cannot_delete", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		assert.ErrorIs(t, svc.Delete(ctx, helpers.CreateTestIdentity(domain.RoleAdmin), uuid.New()), domain.ErrForbidden)
	})
}

func TestUserService_ListRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newUserService(t)
	_, err := svc.List(context.Background(), "owner")
	assert.ErrorContains(t, err, "role must be one of")
}
