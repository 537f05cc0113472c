package report

import (
	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/pkg/ical"
)

const reportProdID = "-//calcore//davcore//EN"

// expandedResources implements calendar-query's expand(start, end)
// modifier (spec §4.10): each occurrence of ent's recurring master (and
// any RECURRENCE-ID overrides) within window becomes its own standalone
// resource, RRULE/RDATE/EXDATE stripped, carrying its own DTSTART/DTEND
// and a RECURRENCE-ID. Non-VEVENT entities (VTODO/VJOURNAL never recur
// in this server's model, matching spec §4.5's event-only recurrence
// scope) pass through as a single resource unchanged.
func (e *Engine) expandedResources(inst *model.Instance, ent *model.Entity, window ExpandWindow, props PropRequest, href HrefFunc) ([]Resource, error) {
	cal, err := ical.ParseCalendar(ent.Canonical)
	if err != nil {
		return nil, direrr.Wrap(err, "parse calendar for expand")
	}

	events, err := ical.ExtractEvents(cal, ent.Canonical)
	if err != nil || len(events) == 0 {
		return []Resource{{Href: href(inst.Slug), ETag: inst.ETag, Data: resourceDataFor(props, ent)}}, nil
	}

	expander := ical.NewRecurrenceExpander(nil)
	instances, err := expander.ExpandRecurrences(events, window.Start, window.End)
	if err != nil {
		return nil, direrr.Wrap(err, "expand recurrence for calendar-query")
	}

	var out []Resource
	for _, occ := range instances {
		data := resourceDataFor(props, ent)
		if props.ResourceData {
			built, err := ical.CreateEventData(occ, reportProdID)
			if err != nil {
				continue
			}
			data = built
		}
		out = append(out, Resource{
			Href: occurrenceHref(href, inst.Slug, occ),
			ETag: ical.GenerateEventETag(occ),
			Data: data,
		})
	}
	return out, nil
}

// limitRecurrenceSet implements calendar-query's limit-recurrence-set(
// start, end) modifier (spec §4.10): keep the master component (no
// RECURRENCE-ID) plus only the RECURRENCE-ID overrides whose value falls
// in window, dropping overrides outside it. RRULE/RDATE/EXDATE on the
// master are preserved, unlike expand().
func limitRecurrenceSet(canonical []byte, window ExpandWindow) ([]byte, error) {
	cal, err := ical.ParseCalendar(canonical)
	if err != nil {
		return nil, direrr.Wrap(err, "parse calendar for limit-recurrence-set")
	}

	kept := cal.Root.Children[:0]
	for _, ch := range cal.Root.Children {
		if ch.Name != ical.CompEvent && ch.Name != ical.CompToDo && ch.Name != ical.CompJournal {
			kept = append(kept, ch)
			continue
		}
		recID := ch.Get(ical.PropRecurrenceID)
		if recID == nil {
			kept = append(kept, ch)
			continue
		}
		dv, ok := recID.Value.(ical.DateTimeValue)
		if !ok || (!dv.Time.Before(window.End) || dv.Time.Before(window.Start)) {
			continue
		}
		kept = append(kept, ch)
	}
	cal.Root.Children = kept
	return ical.SerializeCalendar(cal), nil
}

// occurrenceHref derives a per-occurrence href by appending the
// occurrence's RECURRENCE-ID form to the master slug, so a client's
// subsequent GET on an expanded entry resolves deterministically.
func occurrenceHref(href HrefFunc, masterSlug string, occ *ical.Event) string {
	slug := masterSlug
	if occ.RecurrenceID != nil {
		slug = masterSlug + "-" + occ.RecurrenceID.UTC().Format("20060102T150405Z")
	}
	return href(slug)
}
