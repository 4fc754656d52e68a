package oauth2client

import (
	"fmt"
	"strings"
)

// Scope is a named permission that can be requested during authentication
// and granted on a Credential.
type Scope uint8

// Scopes are declared in the order of their wire names, which makes the
// numeric order the canonical serialization order.
const (
	// ScopeAll grants access to every resource. It satisfies any requested scope.
	ScopeAll Scope = iota
	ScopeAccount
	ScopeCreddits
	ScopeEdit
	ScopeFlair
	ScopeHistory
	ScopeIdentity
	ScopeLiveManage
	ScopeModConfig
	ScopeModContributors
	ScopeModFlair
	ScopeModLog
	ScopeModMail
	ScopeModOthers
	ScopeModPosts
	ScopeModSelf
	ScopeModTraffic
	ScopeModWiki
	ScopeMySubreddits
	ScopePrivateMessages
	ScopeRead
	ScopeReport
	ScopeSave
	ScopeStructuredStyles
	ScopeSubmit
	ScopeSubscribe
	ScopeVote
	ScopeWikiEdit
	ScopeWikiRead

	scopeCount
)

var scopeNames = [scopeCount]string{
	ScopeAll:              "*",
	ScopeAccount:          "account",
	ScopeCreddits:         "creddits",
	ScopeEdit:             "edit",
	ScopeFlair:            "flair",
	ScopeHistory:          "history",
	ScopeIdentity:         "identity",
	ScopeLiveManage:       "livemanage",
	ScopeModConfig:        "modconfig",
	ScopeModContributors:  "modcontributors",
	ScopeModFlair:         "modflair",
	ScopeModLog:           "modlog",
	ScopeModMail:          "modmail",
	ScopeModOthers:        "modothers",
	ScopeModPosts:         "modposts",
	ScopeModSelf:          "modself",
	ScopeModTraffic:       "modtraffic",
	ScopeModWiki:          "modwiki",
	ScopeMySubreddits:     "mysubreddits",
	ScopePrivateMessages:  "privatemessages",
	ScopeRead:             "read",
	ScopeReport:           "report",
	ScopeSave:             "save",
	ScopeStructuredStyles: "structuredstyles",
	ScopeSubmit:           "submit",
	ScopeSubscribe:        "subscribe",
	ScopeVote:             "vote",
	ScopeWikiEdit:         "wikiedit",
	ScopeWikiRead:         "wikiread",
}

var scopesByName = func() map[string]Scope {
	m := make(map[string]Scope, scopeCount)
	for i, name := range scopeNames {
		m[name] = Scope(i)
	}
	return m
}()

// String returns the wire name of the scope.
func (s Scope) String() string {
	if s >= scopeCount {
		return fmt.Sprintf("Scope(%d)", uint8(s))
	}
	return scopeNames[s]
}

// ParseScope converts a wire name into a Scope.
func ParseScope(name string) (Scope, error) {
	scope, ok := scopesByName[name]
	if !ok {
		return 0, fmt.Errorf("oauth2client: unknown scope %q", name)
	}
	return scope, nil
}

// ScopeSet is a set of scopes. The zero value is an empty set.
//
// A set that contains ScopeAll never contains anything else: inserting
// ScopeAll clears the set first.
type ScopeSet uint32

// NewScopeSet returns a set holding the given scopes, inserted in order.
func NewScopeSet(scopes ...Scope) ScopeSet {
	var set ScopeSet
	for _, scope := range scopes {
		set.Insert(scope)
	}
	return set
}

// DefaultScopeSet returns the set requested when the caller asks for nothing
// in particular: {identity}.
func DefaultScopeSet() ScopeSet {
	return NewScopeSet(ScopeIdentity)
}

// Insert adds scope to the set and reports whether it was newly added.
// Inserting ScopeAll always returns true.
func (s *ScopeSet) Insert(scope Scope) bool {
	if scope >= scopeCount {
		return false
	}
	if scope == ScopeAll {
		*s = 0
	} else if s.Contains(ScopeAll) {
		// All already covers everything; keep the invariant.
		return false
	}
	if s.Contains(scope) {
		return false
	}
	*s |= 1 << scope
	return true
}

// Remove deletes scope from the set and reports whether it was present.
func (s *ScopeSet) Remove(scope Scope) bool {
	if !s.Contains(scope) {
		return false
	}
	*s &^= 1 << scope
	return true
}

// Clear removes every scope.
func (s *ScopeSet) Clear() {
	*s = 0
}

// Contains reports whether scope is a member of the set.
func (s ScopeSet) Contains(scope Scope) bool {
	return scope < scopeCount && s&(1<<scope) != 0
}

// Matches reports whether the set grants scope, treating ScopeAll on either
// side as a wildcard.
func (s ScopeSet) Matches(scope Scope) bool {
	return scope == ScopeAll || s.Contains(scope) || s.Contains(ScopeAll)
}

// Len returns the number of scopes in the set.
func (s ScopeSet) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// IsEmpty reports whether the set has no members.
func (s ScopeSet) IsEmpty() bool {
	return s == 0
}

// Equal reports whether both sets have the same members.
func (s ScopeSet) Equal(other ScopeSet) bool {
	return s == other
}

// Scopes returns the members in canonical order.
func (s ScopeSet) Scopes() []Scope {
	scopes := make([]Scope, 0, s.Len())
	for scope := Scope(0); scope < scopeCount; scope++ {
		if s.Contains(scope) {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

// String returns the canonical space-joined form, e.g. "account history identity".
func (s ScopeSet) String() string {
	scopes := s.Scopes()
	names := make([]string, len(scopes))
	for i, scope := range scopes {
		names[i] = scope.String()
	}
	return strings.Join(names, " ")
}

// ParseScopeSet parses a whitespace-separated list of scope names.
// Unknown names are an error.
func ParseScopeSet(value string) (ScopeSet, error) {
	var set ScopeSet
	for _, name := range strings.Fields(value) {
		scope, err := ParseScope(name)
		if err != nil {
			return 0, err
		}
		set.Insert(scope)
	}
	return set, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s ScopeSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ScopeSet) UnmarshalText(text []byte) error {
	set, err := ParseScopeSet(string(text))
	if err != nil {
		return err
	}
	*s = set
	return nil
}
