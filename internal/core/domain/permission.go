// internal/core/domain/permission.go
package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Module is a permission-scoped area of the application
type Module string

// Module constants
const (
	ModuleUsers     Module = "users"
	ModuleProducts  Module = "products"
	ModuleSales     Module = "sales"
	ModuleCustomers Module = "customers"
	ModuleInventory Module = "inventory"
	ModuleReports   Module = "reports"
)

// Operation is a CRUD verb within a module
type Operation string

// Operation constants
const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// AllModules lists modules in display order
var AllModules = []Module{ModuleUsers, ModuleProducts, ModuleSales, ModuleCustomers, ModuleInventory, ModuleReports}

// AllOperations lists operations in display order
var AllOperations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

// WildcardPermission is the stored form of the all-permissions grant.
const WildcardPermission = "all"

// Permission is a single module:operation grant
type Permission struct {
	Module    Module
	Operation Operation
}

func (p Permission) String() string {
	return string(p.Module) + ":" + string(p.Operation)
}

// ParsePermission splits a "module:operation" string
func ParsePermission(s string) (Permission, bool) {
	module, op, ok := strings.Cut(s, ":")
	if !ok || module == "" || op == "" {
		return Permission{}, false
	}
	return Permission{Module: Module(module), Operation: Operation(op)}, true
}

// PermissionSet is either the wildcard grant or a specific set of
// module:operation strings. The zero value grants nothing.
type PermissionSet struct {
	all      bool
	specific map[string]struct{}
}

// AllPermissions returns the wildcard set
func AllPermissions() PermissionSet {
	return PermissionSet{all: true}
}

// NewPermissionSet builds a specific set from typed permissions
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := PermissionSet{specific: make(map[string]struct{}, len(perms))}
	for _, p := range perms {
		set.specific[p.String()] = struct{}{}
	}
	return set
}

// PermissionSetFromStrings converts a stored permission list. Any
// occurrence of "all" yields the wildcard set. Unknown strings are kept
// verbatim and simply never match.
func PermissionSetFromStrings(perms []string) PermissionSet {
	set := PermissionSet{specific: make(map[string]struct{}, len(perms))}
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == WildcardPermission {
			return AllPermissions()
		}
		if p != "" {
			set.specific[p] = struct{}{}
		}
	}
	return set
}

// IsAll reports whether the set is the wildcard grant
func (s PermissionSet) IsAll() bool {
	return s.all
}

// Has reports whether the set grants operation on module
func (s PermissionSet) Has(module Module, op Operation) bool {
	if s.all {
		return true
	}
	_, ok := s.specific[Permission{Module: module, Operation: op}.String()]
	return ok
}

// HasModule reports whether the set grants any operation on module
func (s PermissionSet) HasModule(module Module) bool {
	if s.all {
		return true
	}
	for p := range s.specific {
		if parsed, ok := ParsePermission(p); ok && parsed.Module == module {
			return true
		}
	}
	return false
}

// Require returns a PermissionError when the grant is missing
func (s PermissionSet) Require(module Module, op Operation) error {
	if s.Has(module, op) {
		return nil
	}
	return &PermissionError{Permission: Permission{Module: module, Operation: op}}
}

// Strings returns the stored representation, sorted for stable output
func (s PermissionSet) Strings() []string {
	if s.all {
		return []string{WildcardPermission}
	}
	out := make([]string, 0, len(s.specific))
	for p := range s.specific {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of specific grants; the wildcard counts as one.
func (s PermissionSet) Len() int {
	if s.all {
		return 1
	}
	return len(s.specific)
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	*s = PermissionSetFromStrings(perms)
	return nil
}

// DefaultPermissions returns the grant a role receives when none is given
func DefaultPermissions(role Role) PermissionSet {
	switch role {
	case RoleSuperAdmin:
		return AllPermissions()
	case RoleAdmin:
		return NewPermissionSet(
			Permission{ModuleProducts, OpCreate},
			Permission{ModuleProducts, OpRead},
			Permission{ModuleProducts, OpUpdate},
			Permission{ModuleProducts, OpDelete},
			Permission{ModuleSales, OpCreate},
			Permission{ModuleSales, OpRead},
			Permission{ModuleSales, OpUpdate},
			Permission{ModuleCustomers, OpCreate},
			Permission{ModuleCustomers, OpRead},
			Permission{ModuleCustomers, OpUpdate},
			Permission{ModuleCustomers, OpDelete},
			Permission{ModuleInventory, OpCreate},
			Permission{ModuleInventory, OpRead},
			Permission{ModuleInventory, OpUpdate},
		)
	case RoleAgent:
		return NewPermissionSet(
			Permission{ModuleSales, OpCreate},
			Permission{ModuleSales, OpRead},
			Permission{ModuleProducts, OpRead},
			Permission{ModuleCustomers, OpRead},
		)
	default:
		return PermissionSet{}
	}
}

// PermissionOption describes one grantable permission for admin UIs
type PermissionOption struct {
	Operation  Operation `json:"operation"`
	Permission string    `json:"permission"`
	Label      string    `json:"label"`
}

// AvailablePermissions lists every module × operation, keyed by module
func AvailablePermissions() map[Module][]PermissionOption {
	out := make(map[Module][]PermissionOption, len(AllModules))
	for _, m := range AllModules {
		opts := make([]PermissionOption, 0, len(AllOperations))
		for _, op := range AllOperations {
			opts = append(opts, PermissionOption{
				Operation:  op,
				Permission: Permission{Module: m, Operation: op}.String(),
				Label:      capitalize(string(op)) + " " + capitalize(string(m)),
			})
		}
		out[m] = opts
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
