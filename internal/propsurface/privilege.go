package propsurface

import (
	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/access"
	"github.com/calcore/davcore/internal/webdavxml"
)

// privilegeElementNames maps each access.Privilege bit to the DAV
// privilege element it corresponds to, per RFC 3744 §5.1's base set
// plus RFC 3744 §9.1's acl-specific read-acl/write-acl/read-current-
// user-privilege-set. Grounded on the teacher's internal/acl/
// privileges.go Priv bitmask, which enumerates the same set under
// different names (PrivRead, PrivWrite, PrivBind, ...).
var privilegeElementNames = []struct {
	bit  access.Privilege
	name string
}{
	{access.PrivRead, "read"},
	{access.PrivWriteProperties, "write-properties"},
	{access.PrivWriteContent, "write-content"},
	{access.PrivBind, "bind"},
	{access.PrivUnbind, "unbind"},
	{access.PrivUnlock, "unlock"},
	{access.PrivReadACL, "read-acl"},
	{access.PrivWriteACL, "write-acl"},
	{access.PrivReadCurrentUserPrivilegeSet, "read-current-user-privilege-set"},
}

// privilegeElement builds a single DAV:privilege>DAV:<name/> element.
func privilegeElement(name string) *etree.Element {
	priv := webdavxml.NewElement(webdavxml.NSDAV, "privilege")
	webdavxml.Nest(priv, webdavxml.NSDAV, name)
	return priv
}

// CurrentUserPrivilegeSet builds DAV:current-user-privilege-set (RFC
// 3744 §5.4) from an effective Privilege bitmask, emitting one
// DAV:privilege child per set bit in a fixed, deterministic order.
func CurrentUserPrivilegeSet(eff access.Privilege) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropCurrentUserPrivSet)
	for _, p := range privilegeElementNames {
		if eff.Has(p.bit) {
			el.AddChild(privilegeElement(p.name))
		}
	}
	return el
}

// Grant is one ACE's principal href and granted privilege bits, the
// normalized shape this package renders into a DAV:ace. Grounded on
// the teacher's internal/dav/common/types.go Ace/Grant pair, collapsed
// from a separately-modeled Grant/Deny struct into a single granted-
// privileges field since this server's AccessOracle never exposes
// negative ACEs to the property surface.
type Grant struct {
	PrincipalHref string
	Privileges    access.Privilege
}

// ACL builds DAV:acl (RFC 3744 §5.5) from a list of Grants, one
// DAV:ace per grant with its principal/href and granted privilege set.
func ACL(grants []Grant) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropACL)
	for _, g := range grants {
		ace := webdavxml.Nest(el, webdavxml.NSDAV, "ace")
		principal := webdavxml.Nest(ace, webdavxml.NSDAV, "principal")
		webdavxml.Nest(principal, webdavxml.NSDAV, "href").SetText(g.PrincipalHref)
		grant := webdavxml.Nest(ace, webdavxml.NSDAV, "grant")
		for _, p := range privilegeElementNames {
			if g.Privileges.Has(p.bit) {
				grant.AddChild(privilegeElement(p.name))
			}
		}
	}
	return el
}
