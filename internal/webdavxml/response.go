package webdavxml

import (
	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/report"
)

// statusOK/statusNotFound mirror the literal status-line strings the
// teacher's dav/props.go writes into propstat/response Status fields
// (RFC 4918 §14.22 requires the full HTTP-Version SP Status-Code SP
// Reason-Phrase form, not a bare integer).
const (
	statusOK       = "HTTP/1.1 200 OK"
	statusNotFound = "HTTP/1.1 404 Not Found"
)

// ResourceDataKind picks which namespaced element name wraps a
// Resource's inlined body: calendar-data for CalDAV collections,
// address-data for CardDAV ones. REPORT responses only ever need one or
// the other, never both, so the caller (which already knows the
// collection kind) supplies it rather than this codec guessing from
// content sniffing.
type ResourceDataKind int

const (
	ResourceDataCalendar ResourceDataKind = iota
	ResourceDataAddress
)

// MultiStatus builds an RFC 4918 multistatus document incrementally.
// It owns namespace declaration and serialization; callers append
// responses via AddResource/AddNotFound/AddPropstatResponse.
type MultiStatus struct {
	doc  *etree.Document
	root *etree.Element
}

// NewMultiStatus starts an empty multistatus document.
func NewMultiStatus() *MultiStatus {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("multistatus")
	root.Space = nsPrefix[NSDAV]
	declareNamespaces(doc)
	return &MultiStatus{doc: doc, root: root}
}

// AddResource appends a 200 response carrying getetag and, when data is
// non-nil, an inlined calendar-data/address-data element.
func (m *MultiStatus) AddResource(href, etag string, data []byte, kind ResourceDataKind) {
	resp := createNS(m.root, NSDAV, "response")
	createNS(resp, NSDAV, "href").SetText(href)

	propstat := createNS(resp, NSDAV, "propstat")
	prop := createNS(propstat, NSDAV, "prop")
	if etag != "" {
		createNS(prop, NSDAV, "getetag").SetText(etag)
	}
	if data != nil {
		ns, tag := NSCalDAV, "calendar-data"
		if kind == ResourceDataAddress {
			ns, tag = NSCardDAV, "address-data"
		}
		createNS(prop, ns, tag).SetText(string(data))
	}
	createNS(propstat, NSDAV, "status").SetText(statusOK)
}

// AddNotFound appends a tombstoned response per RFC 6578's sync-
// collection delta semantics: a bare 404 response, no propstat.
func (m *MultiStatus) AddNotFound(href string) {
	resp := createNS(m.root, NSDAV, "response")
	createNS(resp, NSDAV, "href").SetText(href)
	createNS(resp, NSDAV, "status").SetText(statusNotFound)
}

// SetSyncToken appends the closing DAV:sync-token element (RFC 6578),
// required on every sync-collection REPORT response.
func (m *MultiStatus) SetSyncToken(token string) {
	createNS(m.root, NSDAV, "sync-token").SetText(token)
}

// PropstatGroup is one <D:propstat> block: the properties that
// resolved at this status (200 for found properties, 404 for requested-
// but-absent ones, per RFC 4918 §9.1's multi-propstat PROPFIND shape).
type PropstatGroup struct {
	Status string
	Props  []*etree.Element
}

// AddPropstatResponse appends a PROPFIND-style response: one or more
// propstat groups carrying arbitrary caller-built property elements
// (internal/propsurface's live property generators), rather than the
// fixed getetag/calendar-data shape AddResource hard-codes for REPORT
// bodies.
func (m *MultiStatus) AddPropstatResponse(href string, groups []PropstatGroup) {
	resp := createNS(m.root, NSDAV, "response")
	createNS(resp, NSDAV, "href").SetText(href)
	for _, g := range groups {
		propstat := createNS(resp, NSDAV, "propstat")
		prop := createNS(propstat, NSDAV, "prop")
		for _, p := range g.Props {
			prop.AddChild(p)
		}
		createNS(propstat, NSDAV, "status").SetText(g.Status)
	}
}

// NewElement creates a namespaced element with no parent yet, for a
// caller (internal/propsurface) to populate and hand back to
// AddPropstatResponse via a PropstatGroup.
func NewElement(ns, tag string) *etree.Element {
	e := etree.NewElement(tag)
	e.Space = nsPrefix[ns]
	return e
}

// Nest creates a namespaced child of an element built via NewElement
// (or Nest itself), for multi-level properties like resourcetype>
// collection or current-user-principal>href.
func Nest(parent *etree.Element, ns, tag string) *etree.Element {
	return createNS(parent, ns, tag)
}

// StatusOK and StatusNotFound are the propstat status-line constants a
// property generator needs to sort its output into "found" vs
// "requested but absent" groups.
const (
	StatusOK       = statusOK
	StatusNotFound = statusNotFound
)

// Bytes serializes the document, indented the way the teacher's
// writeMultiStatus does via enc.Indent, though here via etree's
// equivalent so the wire-format choice (etree vs encoding/xml) doesn't
// also have to relitigate indentation.
func (m *MultiStatus) Bytes() []byte {
	m.doc.Indent(2)
	out, _ := m.doc.WriteToBytes()
	return out
}

// RenderReportResult is the common path every report.Result-returning
// REPORT funnels through: one response per Resource, tombstones as bare
// 404s, live resources with getetag/calendar-data or address-data.
func RenderReportResult(result *report.Result, kind ResourceDataKind) []byte {
	ms := NewMultiStatus()
	for _, res := range result.Resources {
		if res.Deleted {
			ms.AddNotFound(res.Href)
			continue
		}
		ms.AddResource(res.Href, res.ETag, res.Data, kind)
	}
	if result.SyncToken != "" {
		ms.SetSyncToken(result.SyncToken)
	}
	return ms.Bytes()
}
