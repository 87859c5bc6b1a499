package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
	roleAnchor      = "role:__anchor__"
)

// 授权动作
const (
	KindRead  = "read"
	KindWrite = "write"
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Grant 角色对某类资源的授权
type Grant struct {
	Resource string
	Kind     string
}

// Service Casbin 授权服务
// 主体为角色，资源为业务模块，动作为 read / write
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch", util.KeyMatchFunc)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceRole 按用户角色判定某个 API action 是否放行，未登记的 action 一律拒绝
func (s *Service) EnforceRole(role, action string) (bool, error) {
	perm, ok := Lookup(action)
	if !ok {
		return false, nil
	}
	if perm.Public {
		return true, nil
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, nil
	}
	return s.Enforce(subject, perm.Resource, perm.Kind)
}

// EnsureRole 确保角色存在
func (s *Service) EnsureRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if s == nil || s.enforcer == nil {
		return "", fmt.Errorf("authz service unavailable")
	}
	if normalized == roleAnchor {
		return "", fmt.Errorf("reserved role is not allowed")
	}
	if err := s.anchorRole(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// anchorRole 角色挂到锚点上，ListRoles 依赖该关系
func (s *Service) anchorRole(role string) error {
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
	if err != nil {
		return fmt.Errorf("check role %s failed: %w", role, err)
	}
	if exists {
		return nil
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
		return fmt.Errorf("create role %s failed: %w", role, err)
	}
	return nil
}

// ListRoles 列出已登记角色
func (s *Service) ListRoles() ([]string, error) {
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 0 && rule[0] != roleAnchor {
			roles = append(roles, rule[0])
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予资源权限，kind 取 read / write / *
func (s *Service) GrantRolePolicy(role, resource, kind string) error {
	normalizedRole, err := s.EnsureRole(role)
	if err != nil {
		return err
	}
	return s.grant(normalizedRole, resource, kind)
}

func (s *Service) grant(role, resource, kind string) error {
	act := NormalizeAction(kind)
	if act == "" {
		return fmt.Errorf("kind is required")
	}
	if _, err := s.enforcer.AddPolicy(role, NormalizeObject(resource), act); err != nil {
		return fmt.Errorf("grant %s %s on %s failed: %w", role, act, resource, err)
	}
	return nil
}

// AllowedActions 角色可调用的全部 action（含公开 action），按名称排序
func (s *Service) AllowedActions(role string) ([]string, error) {
	actions := make([]string, 0, len(actionTable))
	for name := range actionTable {
		allowed, err := s.EnforceRole(role, name)
		if err != nil {
			return nil, err
		}
		if allowed {
			actions = append(actions, name)
		}
	}
	sort.Strings(actions)
	return actions, nil
}

// NormalizeRole 统一角色名称
func NormalizeRole(role string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if normalized == "" {
		return "", fmt.Errorf("role is required")
	}
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if !strings.HasPrefix(normalized, rolePrefix) {
		normalized = rolePrefix + normalized
	}
	if len(normalized) <= len(rolePrefix) {
		return "", fmt.Errorf("role is required")
	}
	return normalized, nil
}

// NormalizeObject 统一资源名称
func NormalizeObject(object string) string {
	normalized := strings.ToLower(strings.TrimSpace(object))
	if normalized == "" {
		return "*"
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
