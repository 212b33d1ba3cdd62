package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

func TestPermissionSet_Has(t *testing.T) {
	tests := []struct {
		name      string
		perms     []string
		module    domain.Module
		operation domain.Operation
		want      bool
	}{
		{
			name:      "exact_match_grants",
			perms:     []string{"products:read"},
			module:    domain.ModuleProducts,
			operation: domain.OpRead,
			want:      true,
		},
		{
			name:      "other_operation_denied",
			perms:     []string{"products:read"},
			module:    domain.ModuleProducts,
			operation: domain.OpCreate,
			want:      false,
		},
		{
			name:      "other_module_denied",
			perms:     []string{"sales:read"},
			module:    domain.ModuleProducts,
			operation: domain.OpRead,
			want:      false,
		},
		{
			name:      "wildcard_anywhere_in_list_grants",
			perms:     []string{"sales:read", "all"},
			module:    domain.ModuleUsers,
			operation: domain.OpDelete,
			want:      true,
		},
		{
			name:      "empty_list_denies",
			perms:     nil,
			module:    domain.ModuleSales,
			operation: domain.OpRead,
			want:      false,
		},
		{
			name:      "prefix_is_not_a_match",
			perms:     []string{"products:readonly", "product:read"},
			module:    domain.ModuleProducts,
			operation: domain.OpRead,
			want:      false,
		},
		{
			name:      "wildcard_substring_is_not_wildcard",
			perms:     []string{"all:read"},
			module:    domain.ModuleProducts,
			operation: domain.OpRead,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := domain.PermissionSetFromStrings(tt.perms)
			assert.Equal(t, tt.want, set.Has(tt.module, tt.operation))
		})
	}
}

func TestPermissionSet_WildcardGrantsEveryPair(t *testing.T) {
	sets := map[string]domain.PermissionSet{
		"constructed": domain.AllPermissions(),
		"parsed":      domain.PermissionSetFromStrings([]string{"reports:read", "all"}),
	}

	for name, set := range sets {
		t.Run(name, func(t *testing.T) {
			require.True(t, set.IsAll())
			for _, m := range domain.AllModules {
				assert.True(t, set.HasModule(m))
				for _, op := range domain.AllOperations {
					assert.True(t, set.Has(m, op), "%s:%s", m, op)
				}
			}
		})
	}
}

func TestPermissionSet_SpecificDeniesEverythingElse(t *testing.T) {
	granted := []string{"sales:create", "sales:read"}
	set := domain.PermissionSetFromStrings(granted)

	for _, m := range domain.AllModules {
		for _, op := range domain.AllOperations {
			p := domain.Permission{Module: m, Operation: op}.String()
			expected := p == "sales:create" || p == "sales:read"
			assert.Equal(t, expected, set.Has(m, op), p)
		}
	}
}

func TestPermissionSet_HasModule(t *testing.T) {
	set := domain.PermissionSetFromStrings([]string{"customers:read", "garbage"})

	assert.True(t, set.HasModule(domain.ModuleCustomers))
	assert.False(t, set.HasModule(domain.ModuleProducts))
	assert.False(t, domain.PermissionSet{}.HasModule(domain.ModuleCustomers))
}

func TestPermissionSet_Require(t *testing.T) {
	set := domain.DefaultPermissions(domain.RoleAgent)

	require.NoError(t, set.Require(domain.ModuleSales, domain.OpCreate))

	err := set.Require(domain.ModuleProducts, domain.OpCreate)
	require.Error(t, err)
	assert.Equal(t, "Permission denied: products:create", err.Error())
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	var permErr *domain.PermissionError
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, domain.ModuleProducts, permErr.Permission.Module)
}

func TestDefaultPermissions(t *testing.T) {
	t.Run("superadmin_gets_wildcard", func(t *testing.T) {
		set := domain.DefaultPermissions(domain.RoleSuperAdmin)
		assert.True(t, set.IsAll())
		assert.Equal(t, []string{"all"}, set.Strings())
	})

	t.Run("admin_grants", func(t *testing.T) {
		set := domain.DefaultPermissions(domain.RoleAdmin)
		assert.Equal(t, 14, set.Len())
		assert.True(t, set.Has(domain.ModuleProducts, domain.OpDelete))
		assert.True(t, set.Has(domain.ModuleSales, domain.OpUpdate))
		assert.False(t, set.Has(domain.ModuleSales, domain.OpDelete))
		assert.True(t, set.Has(domain.ModuleCustomers, domain.OpDelete))
		assert.True(t, set.Has(domain.ModuleInventory, domain.OpUpdate))
		assert.False(t, set.Has(domain.ModuleInventory, domain.OpDelete))
		assert.False(t, set.HasModule(domain.ModuleUsers))
		assert.False(t, set.HasModule(domain.ModuleReports))
	})

	t.Run("agent_grants", func(t *testing.T) {
		set := domain.DefaultPermissions(domain.RoleAgent)
		assert.Equal(t, []string{"customers:read", "products:read", "sales:create", "sales:read"}, set.Strings())
	})

	t.Run("unknown_role_gets_nothing", func(t *testing.T) {
		set := domain.DefaultPermissions(domain.Role("guest"))
		assert.Equal(t, 0, set.Len())
		assert.False(t, set.Has(domain.ModuleSales, domain.OpRead))
	})
}

func TestPermissionSet_JSON(t *testing.T) {
	var set domain.PermissionSet
	require.NoError(t, json.Unmarshal([]byte(`["sales:read","all"]`), &set))
	assert.True(t, set.IsAll())

	data, err := json.Marshal(domain.NewPermissionSet(
		domain.Permission{Module: domain.ModuleSales, Operation: domain.OpRead},
		domain.Permission{Module: domain.ModuleProducts, Operation: domain.OpRead},
	))
	require.NoError(t, err)
	assert.JSONEq(t, `["products:read","sales:read"]`, string(data))
}

func TestAvailablePermissions(t *testing.T) {
	available := domain.AvailablePermissions()

	require.Len(t, available, len(domain.AllModules))
	products := available[domain.ModuleProducts]
	require.Len(t, products, 4)
	assert.Equal(t, "products:create", products[0].Permission)
	assert.Equal(t, "Create Products", products[0].Label)
	assert.Equal(t, "Delete Products", products[3].Label)
}
