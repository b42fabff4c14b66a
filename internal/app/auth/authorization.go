// Package auth decides which roles may perform privileged actions.
package auth

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Resources and actions referenced by the policy.
const (
	ResourceUsers   = "users"
	ResourceEvents  = "events"
	ResourceSurveys = "surveys"
	ResourcePosts   = "posts"

	ActionList     = "list"
	ActionVerify   = "verify"
	ActionReject   = "reject"
	ActionCreate   = "create"
	ActionManage   = "manage"
	ActionResults  = "results"
	ActionModerate = "moderate"
)

// Authorizer answers role/resource/action questions
type Authorizer interface {
	Can(role models.Role, resource, action string) bool
	Authorize(role models.Role, resource, action string) error
}

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	enforcer *casbin.SyncedEnforcer
}

// NewAuthorizationService builds an enforcer from the embedded role policy
func NewAuthorizationService() (*AuthorizationService, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &AuthorizationService{enforcer: enforcer}, nil
}

// loadPolicy parses policy lines of the form "p, sub, obj, act" and "g, a, b".
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Can reports whether role may perform action on resource. Enforcement
// errors deny.
func (s *AuthorizationService) Can(role models.Role, resource, action string) bool {
	allowed, err := s.enforcer.Enforce(string(role), resource, action)
	return err == nil && allowed
}

// Authorize returns a permission error unless role may perform action on
// resource
func (s *AuthorizationService) Authorize(role models.Role, resource, action string) error {
	if s.Can(role, resource, action) {
		return nil
	}
	return apperrors.NewForbiddenError(fmt.Sprintf("role %s may not %s %s", role, action, resource))
}
