package access

import (
	"context"
	"strings"
	"sync"
)

// MemoryOracle is a reference AccessOracle implementation for tests and
// local development: an in-process grant table keyed by (principal,
// resource path prefix). It adapts the teacher's LDAPACL.Effective
// accumulation logic (OR-ing every matching grant's bits together)
// without an LDAP directory behind it.
type MemoryOracle struct {
	mu     sync.RWMutex
	grants []grant
}

type grant struct {
	principalID string
	pathPrefix  string
	privilege   Privilege
}

// NewMemoryOracle returns an empty oracle; call Grant to populate it.
func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{}
}

// Grant adds privilege bits for principalID on every resource path
// beneath pathPrefix. Grants accumulate: multiple calls for overlapping
// prefixes OR their bits together, mirroring the teacher's Effective
// accumulation across multiple LDAP group ACLs.
func (o *MemoryOracle) Grant(principalID, pathPrefix string, privilege Privilege) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.grants = append(o.grants, grant{principalID: principalID, pathPrefix: pathPrefix, privilege: privilege})
}

func (o *MemoryOracle) EffectivePrivileges(_ context.Context, principal Principal, resourcePath string) (Privilege, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var eff Privilege
	for _, g := range o.grants {
		if g.principalID != principal.ID && principal.Kind != KindPseudoAll {
			continue
		}
		if !strings.HasPrefix(resourcePath, g.pathPrefix) {
			continue
		}
		eff |= g.privilege
	}
	return eff, nil
}

func (o *MemoryOracle) Check(ctx context.Context, principal Principal, resourcePath string, want Privilege) (Decision, error) {
	eff, err := o.EffectivePrivileges(ctx, principal, resourcePath)
	if err != nil {
		return Deny, err
	}
	if eff.Has(want) {
		return Allow, nil
	}
	return Deny, nil
}

// StaticAuthContext is a reference AuthContext for tests: a fixed
// principal with a fixed group list, no directory lookup.
type StaticAuthContext struct {
	Principal Principal
	Groups    []Principal
}

func (s StaticAuthContext) CurrentPrincipal(context.Context) (Principal, error) {
	return s.Principal, nil
}

func (s StaticAuthContext) GroupsOf(context.Context, Principal) ([]Principal, error) {
	return s.Groups, nil
}
