// Package rbac is the single source of truth for roles and what they may do.
package rbac

import (
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleAdmin             Role = "admin"
	RoleOperations        Role = "operations"
	RoleOperationsManager Role = "operations_manager"
	RoleAgentManager      Role = "agent_manager"
	RoleTeamLeader        Role = "team_leader"
	RoleAgent             Role = "agent"
	RoleAccountant        Role = "accountant"
)

var AllRoles = []Role{
	RoleAdmin,
	RoleOperations,
	RoleOperationsManager,
	RoleAgentManager,
	RoleTeamLeader,
	RoleAgent,
	RoleAccountant,
}

// ParseRole accepts the display forms used in the UI and spreadsheets
// ("Team Leader", "team-leader") and rejects anything outside the enumeration.
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, r := range AllRoles {
		if string(r) == norm {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil && string(r) == strings.ToLower(string(r))
}

type Permission string

const (
	PermUsersManage           Permission = "users.manage"
	PermUsersView             Permission = "users.view"
	PermCatalogManage         Permission = "catalog.manage"
	PermLeadsView             Permission = "leads.view"
	PermLeadsManage           Permission = "leads.manage"
	PermLeadsDelete           Permission = "leads.delete"
	PermLeadsRefer            Permission = "leads.refer"
	PermLeadsImport           Permission = "leads.import"
	PermPropertiesView        Permission = "properties.view"
	PermPropertiesManage      Permission = "properties.manage"
	PermPropertiesDelete      Permission = "properties.delete"
	PermPropertiesRefer       Permission = "properties.refer"
	PermPropertiesImport      Permission = "properties.import"
	PermViewingsManage        Permission = "viewings.manage"
	PermViewingsEditAnyUpdate Permission = "viewings.edit_any_update"
	PermReportsView           Permission = "reports.view"
	PermReportsExport         Permission = "reports.export"
	PermDocumentsManage       Permission = "documents.manage"
)

type permSet map[Permission]struct{}

func setOf(perms ...Permission) permSet {
	s := make(permSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

var (
	fieldPerms = []Permission{
		PermUsersView,
		PermLeadsView, PermLeadsManage, PermLeadsRefer,
		PermPropertiesView, PermPropertiesManage, PermPropertiesRefer,
		PermViewingsManage,
	}
	officePerms = append([]Permission{
		PermCatalogManage,
		PermLeadsDelete, PermLeadsImport,
		PermPropertiesDelete, PermPropertiesImport,
		PermViewingsEditAnyUpdate,
		PermReportsView, PermReportsExport,
		PermDocumentsManage,
	}, fieldPerms...)
)

var table = map[Role]permSet{
	RoleAdmin:             setOf(append([]Permission{PermUsersManage}, officePerms...)...),
	RoleOperationsManager: setOf(append([]Permission{PermUsersManage}, officePerms...)...),
	RoleOperations:        setOf(officePerms...),
	RoleAgentManager: setOf(append([]Permission{
		PermLeadsImport, PermPropertiesImport,
		PermViewingsEditAnyUpdate,
		PermReportsView, PermReportsExport,
	}, fieldPerms...)...),
	RoleTeamLeader: setOf(fieldPerms...),
	RoleAgent: setOf(
		PermLeadsView, PermLeadsManage, PermLeadsRefer,
		PermPropertiesView, PermPropertiesManage, PermPropertiesRefer,
		PermViewingsManage,
	),
	RoleAccountant: setOf(PermPropertiesView, PermReportsView, PermReportsExport),
}

func Can(role Role, perm Permission) bool {
	_, ok := table[role][perm]
	return ok
}

// Permissions lists the role's permissions in a stable order.
func Permissions(role Role) []Permission {
	perms := make([]Permission, 0, len(table[role]))
	for p := range table[role] {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

func IsManagement(role Role) bool {
	switch role {
	case RoleAdmin, RoleOperations, RoleOperationsManager, RoleAgentManager:
		return true
	}
	return false
}

// CanReceiveReferrals reports whether leads and properties may be handed to this role.
func CanReceiveReferrals(role Role) bool {
	switch role {
	case RoleAgent, RoleTeamLeader, RoleAgentManager:
		return true
	}
	return false
}

type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeTeam Scope = "team"
	ScopeOwn  Scope = "own"
)

// ScopeOf determines which leads, properties and viewings a role sees in lists.
func ScopeOf(role Role) Scope {
	switch role {
	case RoleTeamLeader:
		return ScopeTeam
	case RoleAgent:
		return ScopeOwn
	}
	return ScopeAll
}
