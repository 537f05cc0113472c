// Package propsurface implements the live DAV/CalDAV/CardDAV property
// generators and precondition-error bodies (C11): given a Collection/
// Instance and the caller's effective Privilege, it builds the etree
// elements internal/webdavxml.AddPropstatResponse embeds into a
// PROPFIND multistatus. It never touches net/http, never queries the
// Store itself, and never renders XML bytes directly — that remains
// internal/webdavxml's job.
//
// Grounded on the teacher's internal/dav/common/types.go (the Prop/
// AclProp/Ace/Grant/Priv struct shapes) and internal/dav/props.go
// (the resourcetype/content-type/supported-comp-set constructor
// helpers), adapted from static encoding/xml structs populated ahead of
// time to generator functions driven by a Collection/Instance plus an
// access.Privilege bitmask.
package propsurface

import (
	"time"

	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/webdavxml"
)

// Names of the properties this package knows how to generate. Using
// these constants (rather than bare string literals) at every call
// site keeps Resolver's known-property set and the builder functions'
// element names from drifting apart.
const (
	PropResourceType           = "resourcetype"
	PropDisplayName            = "displayname"
	PropGetETag                = "getetag"
	PropGetContentType         = "getcontenttype"
	PropGetLastModified        = "getlastmodified"
	PropCurrentUserPrincipal   = "current-user-principal"
	PropPrincipalURL           = "principal-URL"
	PropPrincipalCollectionSet = "principal-collection-set"
	PropOwner                  = "owner"
	PropSyncToken              = "sync-token"
	PropGetCTag                = "getctag"
	PropSupportedReportSet     = "supported-report-set"
	PropACL                    = "acl"
	PropCurrentUserPrivSet     = "current-user-privilege-set"
	PropCalendarHomeSet        = "calendar-home-set"
	PropAddressbookHomeSet     = "addressbook-home-set"
	PropSupportedCompSet       = "supported-calendar-component-set"
	PropSupportedCalendarData  = "supported-calendar-data"
	PropSupportedAddressData   = "supported-address-data"
	PropSupportedCollationSet  = "supported-collation-set"
	PropCalendarDescription    = "calendar-description"
	PropCalendarColor          = "calendar-color"
	PropCalendarTimezone       = "calendar-timezone"
)

// ResourceTypeKind selects which RFC 4791/6352/4918 marker elements
// nest inside DAV:resourcetype.
type ResourceTypeKind int

const (
	ResourceTypeCollection ResourceTypeKind = iota
	ResourceTypeCalendar
	ResourceTypeAddressbook
	ResourceTypePrincipal
)

// ResourceType builds DAV:resourcetype, grounded on the teacher's
// makeCalendarResourcetype/makeCollectionResourcetype/
// makePrincipalResourcetype trio in internal/dav/props.go, generalized
// with the addressbook marker dav/props.go never needed.
func ResourceType(kind ResourceTypeKind) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropResourceType)
	switch kind {
	case ResourceTypePrincipal:
		webdavxml.Nest(el, webdavxml.NSDAV, "principal")
	case ResourceTypeCalendar:
		webdavxml.Nest(el, webdavxml.NSDAV, "collection")
		webdavxml.Nest(el, webdavxml.NSCalDAV, "calendar")
	case ResourceTypeAddressbook:
		webdavxml.Nest(el, webdavxml.NSDAV, "collection")
		webdavxml.Nest(el, webdavxml.NSCardDAV, "addressbook")
	default:
		webdavxml.Nest(el, webdavxml.NSDAV, "collection")
	}
	return el
}

// DisplayName builds DAV:displayname.
func DisplayName(name string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropDisplayName)
	el.SetText(name)
	return el
}

// GetETag builds DAV:getetag.
func GetETag(etag string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropGetETag)
	el.SetText(etag)
	return el
}

// GetContentType builds DAV:getcontenttype for an Instance's stored
// content type, the same text/calendar;charset=utf-8 /
// text/vcard;charset=utf-8 values the teacher's calContentType returns.
func GetContentType(contentType string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropGetContentType)
	el.SetText(contentType + "; charset=utf-8")
	return el
}

// GetLastModified builds DAV:getlastmodified in RFC 1123 form, the wire
// format RFC 4918 requires for this property.
func GetLastModified(t time.Time) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropGetLastModified)
	el.SetText(t.UTC().Format(time.RFC1123))
	return el
}

// CurrentUserPrincipal builds DAV:current-user-principal>href.
func CurrentUserPrincipal(href string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropCurrentUserPrincipal)
	webdavxml.Nest(el, webdavxml.NSDAV, "href").SetText(href)
	return el
}

// PrincipalURL builds DAV:principal-URL>href.
func PrincipalURL(href string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropPrincipalURL)
	webdavxml.Nest(el, webdavxml.NSDAV, "href").SetText(href)
	return el
}

// PrincipalCollectionSet builds DAV:principal-collection-set, a flat
// list of href children (RFC 3744 §4.5).
func PrincipalCollectionSet(hrefs []string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropPrincipalCollectionSet)
	for _, h := range hrefs {
		webdavxml.Nest(el, webdavxml.NSDAV, "href").SetText(h)
	}
	return el
}

// Owner builds DAV:owner>href.
func Owner(href string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropOwner)
	webdavxml.Nest(el, webdavxml.NSDAV, "href").SetText(href)
	return el
}

// SyncToken builds DAV:sync-token as a live collection property (RFC
// 6578 §3), distinct from the sync-collection REPORT's closing token
// element internal/webdavxml.MultiStatus.SetSyncToken renders.
func SyncToken(token string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSDAV, PropSyncToken)
	el.SetText(token)
	return el
}

// GetCTag builds the non-standard CalendarServer getctag extension the
// teacher's prop struct also carries, widely relied on by CalDAV
// clients that predate RFC 6578 sync-collection support.
func GetCTag(token string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalendarServer, PropGetCTag)
	el.SetText(token)
	return el
}

// CalendarHomeSet builds CALDAV:calendar-home-set>href.
func CalendarHomeSet(href string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalDAV, PropCalendarHomeSet)
	webdavxml.Nest(el, webdavxml.NSDAV, "href").SetText(href)
	return el
}

// AddressbookHomeSet builds CARDDAV:addressbook-home-set>href, this
// module's CardDAV analogue of the teacher's CalDAV-only home-set
// property.
func AddressbookHomeSet(href string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCardDAV, PropAddressbookHomeSet)
	webdavxml.Nest(el, webdavxml.NSDAV, "href").SetText(href)
	return el
}

// SupportedCalendarComponentSet builds CALDAV:supported-calendar-
// component-set from a Collection's SupportedComps, generalized from
// the teacher's supportedVEVENT (which always hard-codes a single
// VEVENT comp) to the full VEVENT/VTODO/VJOURNAL set spec §3 allows.
func SupportedCalendarComponentSet(comps []string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalDAV, PropSupportedCompSet)
	for _, c := range comps {
		comp := webdavxml.Nest(el, webdavxml.NSCalDAV, "comp")
		comp.CreateAttr("name", c)
	}
	return el
}

// SupportedCalendarData builds CALDAV:supported-calendar-data (RFC 4791
// §5.2.4): this server accepts only iCalendar 2.0.
func SupportedCalendarData() *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalDAV, PropSupportedCalendarData)
	el.CreateAttr("content-type", "text/calendar")
	el.CreateAttr("version", "2.0")
	return el
}

// SupportedAddressData builds CARDDAV:supported-address-data (RFC 6352
// §6.2.2): this server accepts only vCard 4.0 (and 3.0 for
// compatibility, the version split most CardDAV clients still expect).
func SupportedAddressData() *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCardDAV, PropSupportedAddressData)
	for _, v := range []string{"3.0", "4.0"} {
		ad := webdavxml.Nest(el, webdavxml.NSCardDAV, "address-data-type")
		ad.CreateAttr("content-type", "text/vcard")
		ad.CreateAttr("version", v)
	}
	return el
}

// SupportedCollationSet builds CALDAV:supported-collation-set,
// enumerating internal/filter's three implemented collations so a
// client can discover them instead of guessing and hitting 403
// SupportedCollation.
func SupportedCollationSet(collations []string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalDAV, PropSupportedCollationSet)
	for _, c := range collations {
		webdavxml.Nest(el, webdavxml.NSCalDAV, "supported-collation").SetText(c)
	}
	return el
}

// CalendarDescription builds CALDAV:calendar-description.
func CalendarDescription(desc string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalDAV, PropCalendarDescription)
	el.SetText(desc)
	return el
}

// CalendarColor builds the Apple/CalendarServer calendar-color
// extension from a Collection's Color field.
func CalendarColor(color string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalendarServer, PropCalendarColor)
	el.SetText(color)
	return el
}

// CalendarTimezone builds CALDAV:calendar-timezone from a Collection's
// stored VTIMEZONE text.
func CalendarTimezone(vtimezone string) *etree.Element {
	el := webdavxml.NewElement(webdavxml.NSCalDAV, PropCalendarTimezone)
	el.SetText(vtimezone)
	return el
}

// collectionResourceType picks the resourcetype marker for a
// Collection's kind.
func collectionResourceType(kind model.CollectionKind) ResourceTypeKind {
	if kind == model.CollectionAddressbook {
		return ResourceTypeAddressbook
	}
	return ResourceTypeCalendar
}
