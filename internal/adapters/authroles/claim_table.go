// Package authroles resolves application roles from identity-service role claims.
package authroles

import (
	"fmt"
	"sort"
	"strings"

	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
)

var _ ports.RoleResolver = (*ClaimTable)(nil)

// ClaimTable is a closed claim-to-role lookup. Every role is reachable by its own
// name; aliases add extra claim strings for existing roles but never new roles.
type ClaimTable struct {
	claims map[string]domainauth.Role
}

// Entry is one claim mapping, used for auditing the table.
type Entry struct {
	Claim string
	Role  domainauth.Role
}

// NewClaimTable builds the table from role names plus aliases (claim -> role name).
func NewClaimTable(aliases map[string]string) (*ClaimTable, error) {
	claims := make(map[string]domainauth.Role, len(aliases)+len(domainauth.Roles()))
	for _, role := range domainauth.Roles() {
		claims[role.String()] = role
	}
	for claim, roleName := range aliases {
		key := normalizeClaim(claim)
		if key == "" {
			return nil, fmt.Errorf("role alias for %q has an empty claim", roleName)
		}
		role, ok := domainauth.ParseRole(roleName)
		if !ok {
			return nil, fmt.Errorf("role alias %q targets unknown role %q", claim, roleName)
		}
		if existing, taken := claims[key]; taken && existing != role {
			return nil, fmt.Errorf("role alias %q conflicts with role %s", claim, existing)
		}
		claims[key] = role
	}
	return &ClaimTable{claims: claims}, nil
}

// Resolve looks up the identity's role claim. Unmatched claims fail closed.
func (t *ClaimTable) Resolve(identity domainauth.Identity) (domainauth.Role, error) {
	if role, ok := t.claims[normalizeClaim(identity.RoleTag)]; ok {
		return role, nil
	}
	return domainauth.RoleUnknown, apperrors.UnknownRole(identity.RoleTag)
}

// Entries returns the table sorted by claim.
func (t *ClaimTable) Entries() []Entry {
	out := make([]Entry, 0, len(t.claims))
	for claim, role := range t.claims {
		out = append(out, Entry{Claim: claim, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Claim < out[j].Claim })
	return out
}

func normalizeClaim(claim string) string {
	return strings.ToLower(strings.TrimSpace(claim))
}
