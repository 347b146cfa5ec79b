// Package authorization authenticates bearer API keys against bcrypt
// hashes from config and authorizes requests with a casbin RBAC model.
package authorization

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/railzwaylabs/metertrack/internal/config"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
)

var Module = fx.Module("authorization",
	fx.Provide(New),
)

const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

var (
	ErrUnknownRole   = errors.New("unknown_role")
	ErrInvalidAPIKey = errors.New("invalid_api_key")
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

var policies = [][]string{
	{RoleViewer, "/*", "^(GET|HEAD)$"},
	{RoleOperator, "/*", "^(POST|PUT)$"},
	{RoleAdmin, "/*", "^DELETE$"},
}

var inheritance = [][]string{
	{RoleOperator, RoleViewer},
	{RoleAdmin, RoleOperator},
}

// Principal is an authenticated API key.
type Principal struct {
	Name string
	Role string
}

type Authorizer struct {
	enabled  bool
	keys     []config.APIKey
	enforcer *casbin.Enforcer
}

func New(cfg config.Config) (*Authorizer, error) {
	return NewAuthorizer(cfg.Auth)
}

func NewAuthorizer(cfg config.AuthConfig) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authorization model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authorization enforcer: %w", err)
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("authorization policies: %w", err)
	}
	if _, err := e.AddGroupingPolicies(inheritance); err != nil {
		return nil, fmt.Errorf("authorization roles: %w", err)
	}

	for _, key := range cfg.APIKeys {
		if !knownRole(key.Role) {
			return nil, fmt.Errorf("api key %q: %w %q", key.Name, ErrUnknownRole, key.Role)
		}
		if _, err := bcrypt.Cost([]byte(key.Hash)); err != nil {
			return nil, fmt.Errorf("api key %q: %w", key.Name, err)
		}
	}
	if cfg.Enabled && len(cfg.APIKeys) == 0 {
		return nil, errors.New("auth enabled without api keys")
	}

	return &Authorizer{
		enabled:  cfg.Enabled,
		keys:     cfg.APIKeys,
		enforcer: e,
	}, nil
}

func (a *Authorizer) Enabled() bool {
	return a != nil && a.enabled
}

// Authenticate finds the configured key matching the bearer token.
func (a *Authorizer) Authenticate(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrInvalidAPIKey
	}
	for _, key := range a.keys {
		if bcrypt.CompareHashAndPassword([]byte(key.Hash), []byte(token)) == nil {
			return Principal{Name: key.Name, Role: key.Role}, nil
		}
	}
	return Principal{}, ErrInvalidAPIKey
}

// Authorize reports whether p may perform method on path.
func (a *Authorizer) Authorize(p Principal, path, method string) (bool, error) {
	return a.enforcer.Enforce(p.Role, path, strings.ToUpper(method))
}

// HashKey returns the bcrypt hash to store for a plain API key.
func HashKey(plain string) (string, error) {
	if strings.TrimSpace(plain) == "" {
		return "", ErrInvalidAPIKey
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func knownRole(role string) bool {
	switch role {
	case RoleViewer, RoleOperator, RoleAdmin:
		return true
	}
	return false
}
