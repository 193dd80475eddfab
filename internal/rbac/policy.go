package rbac

import (
	"fmt"
	"regexp"

	"staff-portal/internal/identity"
)

// Validation messages. Multi-error results must carry every violated rule,
// never just the first one, so callers can render the full list in one
// round trip.
const (
	msgUserNotExists     = "user does not exist"
	msgAccountInactive   = "account is deactivated"
	msgNoRoleAssigned    = "no role assigned"
	msgNoPermissions     = "no specific permissions granted"
	msgRoleNotPermitted  = "role not permitted for this action"
	msgPermissionParse   = "malformed permission data"
	msgInsufficientLevel = "insufficient access level"
	msgDepartmentDenied  = "no access to this department"
	msgManagementDenied  = "cannot manage this user"
	msgInvalidUserInfo   = "invalid user information"
)

// AccessResult is the aggregate system-access verdict. Errors block,
// warnings do not.
type AccessResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// CheckResult is a single-rule verdict.
type CheckResult struct {
	IsValid bool
	Error   string
}

func pass() CheckResult           { return CheckResult{IsValid: true} }
func deny(msg string) CheckResult { return CheckResult{Error: msg} }

// PasswordResult reports every violated strength rule plus an informational
// score. The score never gates IsValid.
type PasswordResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	Score   int      `json:"score"`
}

// Engine evaluates access policy over user snapshots. All methods are pure;
// nothing is loaded or cached here.
type Engine struct {
	emailDomain string
	emailRe     *regexp.Regexp
}

// NewEngine builds an engine requiring accounts to use the given corporate
// mail domain, e.g. "org.com".
func NewEngine(emailDomain string) *Engine {
	return &Engine{
		emailDomain: emailDomain,
		emailRe:     regexp.MustCompile(`^[^\s@]+@` + regexp.QuoteMeta(emailDomain) + `$`),
	}
}

// ValidateSystemAccess decides whether the account may use the system at
// all: active, corporate email, role assigned. All blocking violations are
// accumulated. A missing permission set is a warning only.
func (e *Engine) ValidateSystemAccess(u *identity.User) AccessResult {
	res := AccessResult{IsValid: true, Errors: []string{}, Warnings: []string{}}

	if u == nil {
		res.IsValid = false
		res.Errors = append(res.Errors, msgUserNotExists)
		return res
	}

	if !u.IsActive {
		res.IsValid = false
		res.Errors = append(res.Errors, msgAccountInactive)
	}

	if !e.validEmail(u.Email) {
		res.IsValid = false
		res.Errors = append(res.Errors, e.emailDomainError())
	}

	if u.Role == nil {
		res.IsValid = false
		res.Errors = append(res.Errors, msgNoRoleAssigned)
	}

	if perms, err := u.PermissionList(); err != nil || len(perms) == 0 {
		res.Warnings = append(res.Warnings, msgNoPermissions)
	}

	return res
}

// ValidateRole requires the user's role name to be one of requiredRoles.
func (e *Engine) ValidateRole(u *identity.User, requiredRoles ...string) CheckResult {
	if u == nil || u.RoleName() == "" {
		return deny(msgNoRoleAssigned)
	}
	for _, r := range requiredRoles {
		if u.RoleName() == r {
			return pass()
		}
	}
	return deny(msgRoleNotPermitted)
}

// ValidatePermission requires exact membership of requiredPermission in the
// user's normalized permission set. A permission payload that fails to parse
// is a failed check, not a panic.
func (e *Engine) ValidatePermission(u *identity.User, requiredPermission string) CheckResult {
	if u == nil {
		return deny(msgNoPermissions)
	}
	perms, err := u.PermissionList()
	if err != nil {
		return deny(msgPermissionParse)
	}
	if len(perms) == 0 {
		return deny(msgNoPermissions)
	}
	for _, p := range perms {
		if p == requiredPermission {
			return pass()
		}
	}
	return deny(fmt.Sprintf("missing permission: %s", requiredPermission))
}

// ValidateAccessLevel requires the user's derived level to be at least
// requiredLevel.
func (e *Engine) ValidateAccessLevel(u *identity.User, requiredLevel int) CheckResult {
	if u == nil {
		return deny(msgUserNotExists)
	}
	if AccessLevel(u.RoleName()) >= requiredLevel {
		return pass()
	}
	return deny(msgInsufficientLevel)
}

// ValidateDepartmentAccess allows admins everywhere; everyone else only
// within their own department references.
func (e *Engine) ValidateDepartmentAccess(u *identity.User, targetDepartmentID int64) CheckResult {
	if u == nil {
		return deny(msgUserNotExists)
	}
	if IsAdmin(u.RoleName()) {
		return pass()
	}
	for _, id := range u.DepartmentIDs() {
		if id == targetDepartmentID {
			return pass()
		}
	}
	return deny(msgDepartmentDenied)
}

// ValidateUserManagementAccess allows admins to manage anyone; everyone else
// only users strictly below them in the access-level hierarchy.
func (e *Engine) ValidateUserManagementAccess(actor, target *identity.User) CheckResult {
	if actor == nil || target == nil {
		return deny(msgInvalidUserInfo)
	}
	if IsAdmin(actor.RoleName()) {
		return pass()
	}
	if AccessLevel(actor.RoleName()) > AccessLevel(target.RoleName()) {
		return pass()
	}
	return deny(msgManagementDenied)
}

var (
	lowerRe  = regexp.MustCompile(`[a-z]`)
	upperRe  = regexp.MustCompile(`[A-Z]`)
	digitRe  = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[@$!%*?&#]`)
	// Broader punctuation set; matching any of it earns a bonus score point.
	extendedSymbolRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

const minPasswordLength = 12

// ValidatePasswordStrength accumulates every violated rule. The score counts
// satisfied base rules plus bonuses for length >= 16 and extended symbols.
func (e *Engine) ValidatePasswordStrength(password string) PasswordResult {
	res := PasswordResult{IsValid: true, Errors: []string{}}

	if password == "" {
		res.IsValid = false
		res.Errors = append(res.Errors, "password must not be empty")
		return res
	}

	rules := []struct {
		ok  bool
		msg string
	}{
		{len(password) >= minPasswordLength, fmt.Sprintf("password must be at least %d characters", minPasswordLength)},
		{lowerRe.MatchString(password), "password must contain at least one lowercase letter"},
		{upperRe.MatchString(password), "password must contain at least one uppercase letter"},
		{digitRe.MatchString(password), "password must contain at least one digit"},
		{symbolRe.MatchString(password), "password must contain at least one special character (@$!%*?&#)"},
	}
	for _, r := range rules {
		if r.ok {
			res.Score++
			continue
		}
		res.IsValid = false
		res.Errors = append(res.Errors, r.msg)
	}

	if len(password) >= 16 {
		res.Score++
	}
	if extendedSymbolRe.MatchString(password) {
		res.Score++
	}

	return res
}

func (e *Engine) validEmail(email string) bool {
	if email == "" {
		return false
	}
	return e.emailRe.MatchString(email)
}

func (e *Engine) emailDomainError() string {
	return fmt.Sprintf("email must use the @%s domain", e.emailDomain)
}
