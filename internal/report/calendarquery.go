package report

import (
	"context"
	"time"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/filter"
	"github.com/calcore/davcore/pkg/ical"
)

// CalendarQueryRequest mirrors CALDAV:calendar-query (spec §4.10), plus
// the two expansion modifiers from §4.10's "Expansion modifiers" table.
type CalendarQueryRequest struct {
	Filter filter.CompFilter
	Props  PropRequest
	Href   HrefFunc

	// Expand, when set, returns each occurrence as a standalone
	// component with its own DTSTART/DTEND/RECURRENCE-ID and RRULE/
	// RDATE/EXDATE stripped.
	Expand *ExpandWindow
	// LimitRecurrenceSet, when set, returns the master plus only the
	// overrides affecting the window, RRULE preserved.
	LimitRecurrenceSet *ExpandWindow
}

// ExpandWindow is the [Start, End) window for the expand/
// limit-recurrence-set modifiers.
type ExpandWindow struct {
	Start, End time.Time
}

// ExecuteCalendarQuery evaluates req.Filter against every instance in
// collectionID, applying the RFC 4791 §9.7.2 comp-filter/prop-filter
// tree via internal/filter, and the expand/limit-recurrence-set
// modifiers when requested.
func (e *Engine) ExecuteCalendarQuery(ctx context.Context, collectionID string, req CalendarQueryRequest) (*Result, error) {
	if err := validateCompFilterSupported(req.Filter); err != nil {
		return nil, err
	}

	insts, err := e.Store.ListInstances(ctx, collectionID)
	if err != nil {
		return nil, direrr.Wrap(err, "list instances")
	}

	var resources []Resource
	for _, inst := range insts {
		ent, err := e.loadEntity(ctx, inst)
		if err != nil {
			return nil, err
		}
		ok, err := e.matchCalendarEntity(ctx, ent, req.Filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		switch {
		case req.Expand != nil:
			rs, err := e.expandedResources(inst, ent, *req.Expand, req.Props, req.Href)
			if err != nil {
				return nil, err
			}
			resources = append(resources, rs...)
		case req.LimitRecurrenceSet != nil:
			data := resourceDataFor(req.Props, ent)
			if req.Props.ResourceData {
				limited, err := limitRecurrenceSet(ent.Canonical, *req.LimitRecurrenceSet)
				if err != nil {
					return nil, err
				}
				data = limited
			}
			resources = append(resources, Resource{Href: req.Href(inst.Slug), ETag: inst.ETag, Data: data})
		default:
			resources = append(resources, Resource{
				Href: req.Href(inst.Slug),
				ETag: inst.ETag,
				Data: resourceDataFor(req.Props, ent),
			})
		}
	}

	sortResourcesByHref(resources)
	return &Result{Resources: resources}, nil
}

// indexedCalComponents names every component type cal_index carries a
// row for, plus VCALENDAR (the query's own implicit root) and VALARM
// (a structural nesting point under VEVENT/VTODO with no prop-filters
// of its own in this evaluator). A comp-filter naming anything else has
// no row to match against.
var indexedCalComponents = map[string]bool{
	ical.CompCalendar: true,
	ical.CompEvent:    true,
	ical.CompToDo:     true,
	ical.CompJournal:  true,
	ical.CompFreeBusy: true,
	ical.CompAlarm:    true,
}

// indexedCalProps names every property cal_index carries a column for
// (model.CalIndex: UID, DTSTART, DTEND, SUMMARY, ORGANIZER, TRANSP,
// STATUS, RRULE, RECURRENCE-ID) — the only properties a prop-filter or
// param-filter can name, per spec §4.9's unsupported-filter policy.
var indexedCalProps = map[string]bool{
	ical.PropUID:            true,
	ical.PropDateTimeStart:  true,
	ical.PropDateTimeEnd:    true,
	ical.PropSummary:        true,
	ical.PropOrganizer:      true,
	ical.PropTranspency:     true,
	ical.PropStatus:         true,
	ical.PropRecurrenceRule: true,
	ical.PropRecurrenceID:   true,
}

// validateCompFilterSupported rejects comp-filter/prop-filter/
// param-filter trees this evaluator cannot index on, per spec §4.9's
// "Unsupported filter policy": a SupportedFilter precondition (403)
// listing the offending element, not a silent empty result.
func validateCompFilterSupported(f filter.CompFilter) error {
	if !indexedCalComponents[f.Name] {
		return unsupportedFilterElement("comp-filter", f.Name)
	}
	for _, p := range f.Props {
		if !indexedCalProps[p.Name] {
			return unsupportedFilterElement("prop-filter", p.Name)
		}
		if p.TextMatch != nil {
			if err := filter.ValidateCollation(p.TextMatch.Collation); err != nil {
				return err
			}
		}
		for _, pf := range p.Params {
			if pf.TextMatch != nil {
				if err := filter.ValidateCollation(pf.TextMatch.Collation); err != nil {
					return err
				}
			}
		}
	}
	for _, sub := range f.Comps {
		if err := validateCompFilterSupported(sub); err != nil {
			return err
		}
	}
	return nil
}

// unsupportedFilterElement builds the CALDAV:supported-filter precondition
// error for an unindexed comp-filter/prop-filter name, kind naming which
// XML element (comp-filter or prop-filter) cites name so the caller can
// render `<CALDAV:supported-filter><CALDAV:<kind> name="...">` per
// Scenario S5.
func unsupportedFilterElement(kind, name string) error {
	return direrr.New(direrr.UnsupportedFilter, kind+" names unindexed element "+name).WithHref(name)
}
