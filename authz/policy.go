package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AmmannChristian/go-bearer/oauth2client"
)

// ScopeMatchMode defines how required scopes are matched.
type ScopeMatchMode string

const (
	// ScopeMatchModeAny allows access if any required scope is granted.
	ScopeMatchModeAny ScopeMatchMode = "any"
	// ScopeMatchModeAll allows access only if all required scopes are granted.
	ScopeMatchModeAll ScopeMatchMode = "all"
)

// ScopePolicy configures a scope check against a credential.
//
// The check is disabled when RequiredScopes is empty. MatchMode defaults to
// "all"; unknown match modes are normalized to "all" (fail-closed).
//
// Each required scope is checked with Credential.Matches: a credential granted
// oauth2client.ScopeAll satisfies every requirement, and requiring ScopeAll
// is satisfied by any credential.
type ScopePolicy struct {
	RequiredScopes []oauth2client.Scope
	MatchMode      ScopeMatchMode
}

// ErrPermissionDenied indicates that the credential lacks required scopes.
var ErrPermissionDenied = errors.New("authorization: permission denied")

// ErrNoCredential is returned when there is no credential to check.
var ErrNoCredential = errors.New("authorization: no credential")

// PermissionDeniedError carries the scopes the credential is missing.
type PermissionDeniedError struct {
	MissingScopes []oauth2client.Scope
}

// Error returns a concise authorization error message.
func (e *PermissionDeniedError) Error() string {
	if len(e.MissingScopes) == 0 {
		return ErrPermissionDenied.Error()
	}
	return fmt.Sprintf("authorization: missing required scopes [%s]", oauth2client.NewScopeSet(e.MissingScopes...))
}

// Is enables errors.Is(err, ErrPermissionDenied).
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// Evaluator checks credentials against a ScopePolicy.
type Evaluator struct {
	required  []oauth2client.Scope
	matchMode ScopeMatchMode
}

// NewEvaluator creates a policy evaluator with normalized defaults.
func NewEvaluator(policy ScopePolicy) *Evaluator {
	return &Evaluator{
		required:  normalizeScopes(policy.RequiredScopes),
		matchMode: normalizeScopeMatchMode(policy.MatchMode),
	}
}

// Enabled reports whether this policy performs checks.
func (e *Evaluator) Enabled() bool {
	return e != nil && len(e.required) > 0
}

// Authorize evaluates the policy against the credential's granted scopes.
func (e *Evaluator) Authorize(cred *oauth2client.Credential) error {
	if !e.Enabled() {
		return nil
	}
	if cred == nil {
		return ErrNoCredential
	}

	missing := matchRequired(e.required, cred, e.matchMode)
	if len(missing) == 0 {
		return nil
	}

	return &PermissionDeniedError{MissingScopes: missing}
}

// Evaluate is a convenience function for one-off checks.
func Evaluate(policy ScopePolicy, cred *oauth2client.Credential) error {
	return NewEvaluator(policy).Authorize(cred)
}

func normalizeScopeMatchMode(mode ScopeMatchMode) ScopeMatchMode {
	normalized := strings.ToLower(strings.TrimSpace(string(mode)))
	switch normalized {
	case string(ScopeMatchModeAny):
		return ScopeMatchModeAny
	default:
		return ScopeMatchModeAll
	}
}

// normalizeScopes drops duplicates and keeps canonical order.
func normalizeScopes(scopes []oauth2client.Scope) []oauth2client.Scope {
	if len(scopes) == 0 {
		return nil
	}

	// ScopeSet.Insert(ScopeAll) clears the set, so the wildcard is tracked apart.
	var (
		set     oauth2client.ScopeSet
		withAll bool
	)
	for _, scope := range scopes {
		if scope == oauth2client.ScopeAll {
			withAll = true
			continue
		}
		set.Insert(scope)
	}

	normalized := set.Scopes()
	if withAll {
		normalized = append([]oauth2client.Scope{oauth2client.ScopeAll}, normalized...)
	}
	return normalized
}

func matchRequired(required []oauth2client.Scope, cred *oauth2client.Credential, mode ScopeMatchMode) []oauth2client.Scope {
	if mode == ScopeMatchModeAny {
		for _, scope := range required {
			if cred.Matches(scope) {
				return nil
			}
		}
		missing := make([]oauth2client.Scope, len(required))
		copy(missing, required)
		return missing
	}

	missing := make([]oauth2client.Scope, 0, len(required))
	for _, scope := range required {
		if !cred.Matches(scope) {
			missing = append(missing, scope)
		}
	}

	return missing
}
