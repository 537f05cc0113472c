package webdavxml

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/filter"
	"github.com/calcore/davcore/internal/report"
)

// ReportKind names which REPORT a request body decoded to, mirroring
// the root-element dispatch cyp0633-libcaldora's ReportRequest.Parse
// does by switching on doc.Root().Tag.
type ReportKind int

const (
	ReportCalendarQuery ReportKind = iota
	ReportCalendarMultiget
	ReportAddressbookQuery
	ReportAddressbookMultiget
	ReportSyncCollection
	ReportFreeBusyQuery
	ReportExpandProperty
)

// ReportRequest is the decoded form of any REPORT body this server
// supports, carrying only the fields the matching Kind populates.
type ReportRequest struct {
	Kind ReportKind

	Props PropNames
	Hrefs []string

	CalendarFilter filter.CompFilter
	CardFilter     filter.CardFilter

	Expand             *report.ExpandWindow
	LimitRecurrenceSet *report.ExpandWindow

	SyncToken string
	Limit     int

	TimeRangeStart, TimeRangeEnd string // raw wire strings; caller parses with parseICSTime

	// ExpandPropertyWantsDisplayNameOnly is set when the request body's
	// only top-level <D:property> is name="displayname" with no nested
	// sub-properties: the one shape internal/report's expand-property
	// stub supports. The principal this resolves against is the
	// request-URI itself (a routing concern, out of this package's
	// scope), not anything carried in the body.
	ExpandPropertyWantsDisplayNameOnly bool
}

// PropNames is the minimal "what live properties / body did the client
// ask for" signal the REPORT engine and, eventually, C11's property
// generators need. Any requested DAV/CalDAV/CardDAV property beyond
// getetag and calendar-data/address-data is recorded in Other for C11
// to resolve; this package never interprets property semantics itself.
type PropNames struct {
	GetETag      bool
	ResourceData bool // calendar-data (CalDAV) or address-data (CardDAV)
	Other        []etree.Element
}

// ParseReport decodes a REPORT request body. The root element's local
// name determines Kind; namespace prefixes are ignored (etree.Tag is
// already the local name) since a client may reasonably use any prefix
// binding for the CalDAV/CardDAV namespace.
func ParseReport(doc *etree.Document) (*ReportRequest, error) {
	root := doc.Root()
	if root == nil {
		return nil, direrr.New(direrr.MalformedRequest, "empty REPORT body")
	}

	switch root.Tag {
	case "calendar-query":
		return parseCalendarQuery(root)
	case "calendar-multiget":
		return parseMultiget(root, ReportCalendarMultiget)
	case "addressbook-query":
		return parseAddressbookQuery(root)
	case "addressbook-multiget":
		return parseMultiget(root, ReportAddressbookMultiget)
	case "sync-collection":
		return parseSyncCollection(root)
	case "free-busy-query":
		return parseFreeBusyQuery(root)
	case "expand-property":
		return parseExpandProperty(root)
	default:
		return nil, direrr.New(direrr.MethodNotAllowed, "unsupported REPORT: "+root.Tag).
			WithElement("DAV:supported-report")
	}
}

func parsePropNames(propEl *etree.Element) PropNames {
	var p PropNames
	if propEl == nil {
		return p
	}
	for _, child := range propEl.ChildElements() {
		switch child.Tag {
		case "getetag":
			p.GetETag = true
		case "calendar-data", "address-data":
			p.ResourceData = true
		default:
			p.Other = append(p.Other, *child)
		}
	}
	return p
}

// calendarDataModifiers looks for an expand/limit-recurrence-set child
// of the REPORT's calendar-data prop request (RFC 4791 §9.6.4/§9.6.5).
func calendarDataModifiers(propEl *etree.Element) (expand, limit *report.ExpandWindow) {
	if propEl == nil {
		return nil, nil
	}
	cd := findNS(propEl, "calendar-data")
	if cd == nil {
		return nil, nil
	}
	if e := findNS(cd, "expand"); e != nil {
		expand = parseExpandWindow(e)
	}
	if l := findNS(cd, "limit-recurrence-set"); l != nil {
		limit = parseExpandWindow(l)
	}
	return expand, limit
}

func parseExpandWindow(el *etree.Element) *report.ExpandWindow {
	w := &report.ExpandWindow{}
	if start := el.SelectAttrValue("start", ""); start != "" {
		if t, err := parseICSTime(start); err == nil {
			w.Start = t
		}
	}
	if end := el.SelectAttrValue("end", ""); end != "" {
		if t, err := parseICSTime(end); err == nil {
			w.End = t
		}
	}
	return w
}

func parseCalendarQuery(root *etree.Element) (*ReportRequest, error) {
	propEl := findNS(root, "prop")
	req := &ReportRequest{Kind: ReportCalendarQuery, Props: parsePropNames(propEl)}
	req.Expand, req.LimitRecurrenceSet = calendarDataModifiers(propEl)

	filterEl := findNS(root, "filter")
	if filterEl == nil {
		return nil, direrr.New(direrr.MalformedRequest, "calendar-query missing filter")
	}
	compEl := findNS(filterEl, "comp-filter")
	if compEl == nil {
		return nil, direrr.New(direrr.MalformedRequest, "calendar-query filter missing comp-filter")
	}
	parsed, err := ParseCompFilter(compEl)
	if err != nil {
		return nil, err
	}
	req.CalendarFilter = parsed
	return req, nil
}

func parseAddressbookQuery(root *etree.Element) (*ReportRequest, error) {
	propEl := findNS(root, "prop")
	req := &ReportRequest{Kind: ReportAddressbookQuery, Props: parsePropNames(propEl)}

	if limitEl := findNS(root, "limit"); limitEl != nil {
		if n := findNS(limitEl, "nresults"); n != nil {
			if v, err := strconv.Atoi(n.Text()); err == nil {
				req.Limit = v
			}
		}
	}

	if filterEl := findNS(root, "filter"); filterEl != nil {
		parsed, err := ParseCardFilter(filterEl)
		if err != nil {
			return nil, err
		}
		req.CardFilter = parsed
	}
	return req, nil
}

func parseMultiget(root *etree.Element, kind ReportKind) (*ReportRequest, error) {
	propEl := findNS(root, "prop")
	req := &ReportRequest{Kind: kind, Props: parsePropNames(propEl)}
	if kind == ReportCalendarMultiget {
		req.Expand, req.LimitRecurrenceSet = calendarDataModifiers(propEl)
	}
	for _, h := range findAllNS(root, "href") {
		req.Hrefs = append(req.Hrefs, h.Text())
	}
	if len(req.Hrefs) == 0 {
		return nil, direrr.New(direrr.MalformedRequest, "multiget requires at least one href")
	}
	return req, nil
}

func parseSyncCollection(root *etree.Element) (*ReportRequest, error) {
	req := &ReportRequest{Kind: ReportSyncCollection, Props: parsePropNames(findNS(root, "prop"))}
	if tok := findNS(root, "sync-token"); tok != nil {
		req.SyncToken = tok.Text()
	}
	if limitEl := findNS(root, "limit"); limitEl != nil {
		if n := findNS(limitEl, "nresults"); n != nil {
			if v, err := strconv.Atoi(n.Text()); err == nil {
				req.Limit = v
			}
		}
	}
	return req, nil
}

func parseFreeBusyQuery(root *etree.Element) (*ReportRequest, error) {
	req := &ReportRequest{Kind: ReportFreeBusyQuery}
	tr := findNS(root, "time-range")
	if tr == nil {
		return nil, direrr.New(direrr.MalformedRequest, "free-busy-query missing time-range")
	}
	req.TimeRangeStart = tr.SelectAttrValue("start", "")
	req.TimeRangeEnd = tr.SelectAttrValue("end", "")
	return req, nil
}

func parseExpandProperty(root *etree.Element) (*ReportRequest, error) {
	req := &ReportRequest{Kind: ReportExpandProperty}
	props := findAllNS(root, "property")
	if len(props) == 1 && props[0].SelectAttrValue("name", "") == "displayname" && len(props[0].ChildElements()) == 0 {
		req.ExpandPropertyWantsDisplayNameOnly = true
	}
	return req, nil
}
