package propsurface

import (
	"time"

	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/access"
	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/webdavxml"
)

// Context carries everything a single PROPFIND target resource might
// need to answer a property request. Nothing in this package queries
// the Store, AccessOracle, or AuthContext itself; the caller (the not-
// yet-built HTTP handler layer) assembles a Context per-resource from
// those collaborators and hands it to Resolve.
//
// Exactly one of Collection or Instance is set for a calendar/
// addressbook-object resource; neither is set for a principal
// resource, signaled by IsPrincipal.
type Context struct {
	Collection  *model.Collection
	Instance    *model.Instance
	IsPrincipal bool

	Href                        string
	OwnerHref                   string
	CurrentUserPrincipalHref    string
	PrincipalCollectionSetHrefs []string
	CalendarHomeSetHref         string
	AddressbookHomeSetHref      string

	ContentType  string
	ETag         string
	LastModified time.Time
	SyncToken    string // collection sync-token/getctag value

	EffectivePrivileges  access.Privilege
	ACL                  []Grant
	SupportedCollations  []string
}

// generator produces a property element for a Context, reporting
// false when the property doesn't apply (e.g. calendar-home-set on a
// non-principal resource).
type generator func(ctx Context) (*etree.Element, bool)

// allPropExcluded holds the DAV properties RFC 4918 §9.1/RFC 3744 §5.4
// exclude from an allprop response unless explicitly named: the ACL
// set and the raw access-control-list are considered expensive/
// sensitive enough that clients must ask for them by name.
var allPropExcluded = map[string]bool{
	PropACL:                true,
	PropCurrentUserPrivSet: true,
	PropSupportedReportSet: true,
}

func registry() map[string]generator {
	return map[string]generator{
		PropResourceType: func(ctx Context) (*etree.Element, bool) {
			switch {
			case ctx.IsPrincipal:
				return ResourceType(ResourceTypePrincipal), true
			case ctx.Collection != nil:
				return ResourceType(collectionResourceType(ctx.Collection.Kind)), true
			default:
				return webdavxml.NewElement(webdavxml.NSDAV, PropResourceType), true // empty: a plain calendar/address object carries no markers
			}
		},
		PropDisplayName: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil {
				return nil, false
			}
			return DisplayName(ctx.Collection.DisplayName), true
		},
		PropGetETag: func(ctx Context) (*etree.Element, bool) {
			if ctx.ETag == "" {
				return nil, false
			}
			return GetETag(ctx.ETag), true
		},
		PropGetContentType: func(ctx Context) (*etree.Element, bool) {
			if ctx.ContentType == "" {
				return nil, false
			}
			return GetContentType(ctx.ContentType), true
		},
		PropGetLastModified: func(ctx Context) (*etree.Element, bool) {
			if ctx.LastModified.IsZero() {
				return nil, false
			}
			return GetLastModified(ctx.LastModified), true
		},
		PropCurrentUserPrincipal: func(ctx Context) (*etree.Element, bool) {
			if ctx.CurrentUserPrincipalHref == "" {
				return nil, false
			}
			return CurrentUserPrincipal(ctx.CurrentUserPrincipalHref), true
		},
		PropPrincipalURL: func(ctx Context) (*etree.Element, bool) {
			if !ctx.IsPrincipal {
				return nil, false
			}
			return PrincipalURL(ctx.Href), true
		},
		PropPrincipalCollectionSet: func(ctx Context) (*etree.Element, bool) {
			if len(ctx.PrincipalCollectionSetHrefs) == 0 {
				return nil, false
			}
			return PrincipalCollectionSet(ctx.PrincipalCollectionSetHrefs), true
		},
		PropOwner: func(ctx Context) (*etree.Element, bool) {
			if ctx.OwnerHref == "" {
				return nil, false
			}
			return Owner(ctx.OwnerHref), true
		},
		PropSyncToken: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.SyncToken == "" {
				return nil, false
			}
			return SyncToken(ctx.SyncToken), true
		},
		PropGetCTag: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.SyncToken == "" {
				return nil, false
			}
			return GetCTag(ctx.SyncToken), true
		},
		PropSupportedReportSet: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil {
				return nil, false
			}
			return SupportedReportSet(ctx.Collection.Kind), true
		},
		PropACL: func(ctx Context) (*etree.Element, bool) {
			if !ctx.EffectivePrivileges.Has(access.PrivReadACL) {
				return nil, false
			}
			return ACL(ctx.ACL), true
		},
		PropCurrentUserPrivSet: func(ctx Context) (*etree.Element, bool) {
			if !ctx.EffectivePrivileges.Has(access.PrivReadCurrentUserPrivilegeSet) {
				return nil, false
			}
			return CurrentUserPrivilegeSet(ctx.EffectivePrivileges), true
		},
		PropCalendarHomeSet: func(ctx Context) (*etree.Element, bool) {
			if !ctx.IsPrincipal || ctx.CalendarHomeSetHref == "" {
				return nil, false
			}
			return CalendarHomeSet(ctx.CalendarHomeSetHref), true
		},
		PropAddressbookHomeSet: func(ctx Context) (*etree.Element, bool) {
			if !ctx.IsPrincipal || ctx.AddressbookHomeSetHref == "" {
				return nil, false
			}
			return AddressbookHomeSet(ctx.AddressbookHomeSetHref), true
		},
		PropSupportedCompSet: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.Collection.Kind != model.CollectionCalendar {
				return nil, false
			}
			return SupportedCalendarComponentSet(ctx.Collection.SupportedComps), true
		},
		PropSupportedCalendarData: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.Collection.Kind != model.CollectionCalendar {
				return nil, false
			}
			return SupportedCalendarData(), true
		},
		PropSupportedAddressData: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.Collection.Kind != model.CollectionAddressbook {
				return nil, false
			}
			return SupportedAddressData(), true
		},
		PropSupportedCollationSet: func(ctx Context) (*etree.Element, bool) {
			if len(ctx.SupportedCollations) == 0 {
				return nil, false
			}
			return SupportedCollationSet(ctx.SupportedCollations), true
		},
		PropCalendarDescription: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.Collection.Description == "" {
				return nil, false
			}
			return CalendarDescription(ctx.Collection.Description), true
		},
		PropCalendarColor: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.Collection.Color == "" {
				return nil, false
			}
			return CalendarColor(ctx.Collection.Color), true
		},
		PropCalendarTimezone: func(ctx Context) (*etree.Element, bool) {
			if ctx.Collection == nil || ctx.Collection.Timezone == "" {
				return nil, false
			}
			return CalendarTimezone(ctx.Collection.Timezone), true
		},
	}
}

// Resolve answers a parsed PROPFIND request against ctx, producing the
// propstat groups internal/webdavxml.AddPropstatResponse embeds under
// one DAV:response. allprop/propname/named-list selection mirrors RFC
// 4918 §9.1, generalized from the teacher's dav/propfind.go switch
// (which only ever built a single fixed Prop struct) into a registry
// lookup so new properties don't require touching the dispatch code.
func Resolve(ctx Context, req *webdavxml.PropfindRequest) []webdavxml.PropstatGroup {
	reg := registry()

	if req.PropName {
		var found []*etree.Element
		for name := range reg {
			if el, ok := reg[name](ctx); ok {
				el.SetText("")
				stripChildren(el)
				found = append(found, el)
			}
		}
		return []webdavxml.PropstatGroup{{Status: webdavxml.StatusOK, Props: found}}
	}

	if req.AllProp {
		var found []*etree.Element
		for name, gen := range reg {
			if allPropExcluded[name] {
				continue
			}
			if el, ok := gen(ctx); ok {
				found = append(found, el)
			}
		}
		return []webdavxml.PropstatGroup{{Status: webdavxml.StatusOK, Props: found}}
	}

	var found, missing []*etree.Element
	for _, want := range req.Props {
		gen, known := reg[want.Tag]
		if known {
			if el, ok := gen(ctx); ok {
				found = append(found, el)
				continue
			}
		}
		missing = append(missing, webdavxml.NewElement(nsForSpace(want.Space), want.Tag))
	}

	groups := []webdavxml.PropstatGroup{{Status: webdavxml.StatusOK, Props: found}}
	if len(missing) > 0 {
		groups = append(groups, webdavxml.PropstatGroup{Status: webdavxml.StatusNotFound, Props: missing})
	}
	return groups
}

// stripChildren empties an element down to its bare tag, for
// DAV:propname responses which must report only property names.
func stripChildren(el *etree.Element) {
	for _, child := range el.ChildElements() {
		el.RemoveChild(child)
	}
}

// nsForSpace maps an incoming request element's namespace prefix back
// to one of this codec's three known full namespace URIs, defaulting
// to DAV: for an unrecognized or empty prefix.
func nsForSpace(space string) string {
	switch space {
	case "C", "CAL", "caldav":
		return webdavxml.NSCalDAV
	case "CARD", "card", "carddav":
		return webdavxml.NSCardDAV
	default:
		return webdavxml.NSDAV
	}
}
