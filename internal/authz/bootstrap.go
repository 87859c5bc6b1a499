package authz

import (
	"fmt"

	"github.com/shopvd/backoffice/internal/constants"
)

// RoleSeed 预置角色
type RoleSeed struct {
	Role     string
	Inherits []string
	Grants   []Grant
}

// BuiltinRoleSeeds admin 全权；staff 负责日常运营，不碰佣金结算与折扣；viewer 只读
func BuiltinRoleSeeds() []RoleSeed {
	all := func(resources ...string) []Grant {
		grants := make([]Grant, 0, len(resources))
		for _, r := range resources {
			grants = append(grants, Grant{Resource: r, Kind: "*"})
		}
		return grants
	}
	return []RoleSeed{
		{
			Role:   constants.RoleViewer,
			Grants: append([]Grant{{Resource: "*", Kind: KindRead}}, all(ResourceAccount)...),
		},
		{
			Role:     constants.RoleStaff,
			Inherits: []string{constants.RoleViewer},
			Grants: all(
				ResourceOrders,
				ResourceProducts,
				ResourceCategories,
				ResourceMaterials,
				ResourceAddress,
				ResourceExports,
				ResourceUploads,
			),
		},
		{
			Role:   constants.RoleAdmin,
			Grants: all("*"),
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link %s to %s failed: %w", role, parentRole, err)
			}
		}
		for _, g := range seed.Grants {
			if err := s.grant(role, g.Resource, g.Kind); err != nil {
				return err
			}
		}
	}
	return nil
}
