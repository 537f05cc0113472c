package ical

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// RecurrenceExpander expands RRULE/RDATE/EXDATE/RECURRENCE-ID into a
// concrete list of occurrences within a bounded window. The master
// series and each RECURRENCE-ID override share one UID; expansion
// reconciles the generated occurrence set against the overrides so an
// overridden instance is emitted once, with the override's own
// properties, never both the generated and the overridden form.
type RecurrenceExpander struct {
	timeZone *time.Location
}

// NewRecurrenceExpander returns an expander holding tz (nil defaults to
// UTC). Expansion does not consult tz: floating (timezone-less) DTSTART
// values keep the UTC reading ParseDateTime gives them.
func NewRecurrenceExpander(tz *time.Location) *RecurrenceExpander {
	if tz == nil {
		tz = time.UTC
	}
	return &RecurrenceExpander{timeZone: tz}
}

// ExtractEvents decodes every VEVENT in a parsed Calendar into the
// convenience Event representation used by the recurrence engine.
func ExtractEvents(cal *Calendar, rawData []byte) ([]*Event, error) {
	var events []*Event
	for _, comp := range cal.Root.ChildrenNamed(CompEvent) {
		event, err := parseEvent(cal, comp, rawData)
		if err != nil {
			continue // malformed sibling components don't invalidate the rest
		}
		events = append(events, event)
	}
	return events, nil
}

// SerializeEvent renders a single Event back to bytes. With no RawData it
// builds a fresh calendar via CreateEventData. With RawData and a
// RecurrenceID, the first VEVENT in RawData is rewritten from the Event by
// ModifyEventInstance and the calendar is re-serialized. Otherwise RawData
// is returned verbatim.
func SerializeEvent(event *Event) ([]byte, error) {
	if event.RawData != nil {
		if event.RecurrenceID != nil {
			cal, err := ParseCalendar(event.RawData)
			if err != nil {
				return nil, err
			}
			comps := cal.Root.ChildrenNamed(CompEvent)
			if len(comps) == 0 {
				return nil, fmt.Errorf("ical: no VEVENT in RawData")
			}
			ModifyEventInstance(comps[0], event)
			return SerializeCalendar(cal), nil
		}
		return event.RawData, nil
	}
	return CreateEventData(event, "-//calcore//davcore//EN")
}

// ExpandRecurrences expands every recurring event in events against
// [rangeStart, rangeEnd), reconciling RECURRENCE-ID overrides against
// their master's generated occurrence set, and passes non-recurring
// events through unchanged if they overlap the range.
func (re *RecurrenceExpander) ExpandRecurrences(events []*Event, rangeStart, rangeEnd time.Time) ([]*Event, error) {
	masters := make(map[string]*Event)
	overrides := make(map[string][]*Event)
	var standalone []*Event

	for _, ev := range events {
		switch {
		case ev.RecurrenceID != nil:
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		case ev.IsRecurring:
			masters[ev.UID] = ev
		default:
			standalone = append(standalone, ev)
		}
	}

	var out []*Event
	for _, ev := range standalone {
		if re.eventOverlapsRange(ev, rangeStart, rangeEnd) {
			out = append(out, ev)
		}
	}

	for uid, master := range masters {
		instances, err := re.expandEvent(master, rangeStart, rangeEnd)
		if err != nil {
			continue
		}
		overridden := make(map[string]*Event, len(overrides[uid]))
		for _, ov := range overrides[uid] {
			overridden[ov.RecurrenceID.UTC().Format("20060102T150405Z")] = ov
		}
		for _, inst := range instances {
			key := inst.RecurrenceID.UTC().Format("20060102T150405Z")
			if ov, ok := overridden[key]; ok {
				if re.eventOverlapsRange(ov, rangeStart, rangeEnd) {
					out = append(out, ov)
				}
				delete(overridden, key)
				continue
			}
			out = append(out, inst)
		}
		// overrides whose RECURRENCE-ID no longer matches any generated
		// occurrence (e.g. moved outside the RRULE's own cadence) still
		// stand on their own if they fall in range.
		for _, ov := range overridden {
			if re.eventOverlapsRange(ov, rangeStart, rangeEnd) {
				out = append(out, ov)
			}
		}
	}
	// masterless overrides (the master object isn't in this batch, e.g.
	// it was filtered earlier) still participate standalone.
	for uid, ovs := range overrides {
		if _, hasMaster := masters[uid]; hasMaster {
			continue
		}
		for _, ov := range ovs {
			if re.eventOverlapsRange(ov, rangeStart, rangeEnd) {
				out = append(out, ov)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func parseEvent(cal *Calendar, comp *Component, rawData []byte) (*Event, error) {
	event := &Event{}

	uid := comp.Get(PropUID)
	if uid == nil {
		return nil, fmt.Errorf("ical: VEVENT missing UID")
	}
	event.UID = textOf(uid)

	if summary := comp.Get(PropSummary); summary != nil {
		event.Summary = textOf(summary)
	}
	if desc := comp.Get(PropDescription); desc != nil {
		event.Description = textOf(desc)
	}

	dtstart := comp.Get(PropDateTimeStart)
	if dtstart == nil {
		return nil, fmt.Errorf("ical: VEVENT missing DTSTART")
	}
	start, ok := dtstart.Value.(DateTimeValue)
	if !ok {
		return nil, fmt.Errorf("ical: VEVENT has unparsed DTSTART")
	}
	event.TZID = start.TZID
	// Start/End are kept location-aware (not forced to UTC here) so
	// expandEvent can hand rrule-go a DTSTART carrying the same TZID,
	// letting it step the recurrence in local wall-clock time and
	// reproduce DST transitions correctly. Callers that need an absolute
	// instant (storage, filtering) call .UTC() themselves.
	event.Start = ResolveDateTimeValue(cal, start)
	event.IsAllDay = start.IsDateOnly

	if dtend := comp.Get(PropDateTimeEnd); dtend != nil {
		end, ok := dtend.Value.(DateTimeValue)
		if !ok {
			return nil, fmt.Errorf("ical: VEVENT has unparsed DTEND")
		}
		event.End = ResolveDateTimeValue(cal, end)
		event.Duration = event.End.Sub(event.Start)
	} else if durProp := comp.Get(PropDuration); durProp != nil {
		dur, ok := durProp.Value.(DurationValue)
		if !ok {
			return nil, fmt.Errorf("ical: VEVENT has unparsed DURATION")
		}
		event.Duration = dur.AsTimeDuration()
		event.End = event.Start.Add(event.Duration)
	} else if event.IsAllDay {
		event.Duration = 24 * time.Hour
		event.End = event.Start.Add(event.Duration)
	} else {
		event.End = event.Start
	}

	if rr := comp.Get(PropRecurrenceRule); rr != nil {
		if rv, ok := rr.Value.(RecurValue); ok {
			event.RRule = rv.Raw
			event.IsRecurring = true
		}
	}

	for _, rdateProp := range comp.Values(PropRecurrenceDates) {
		dates, err := ParseDateTimeList(rdateProp.Raw, rdateProp.ParamValue(PropTZID))
		if err != nil {
			continue
		}
		for _, d := range dates {
			event.RDates = append(event.RDates, ResolveDateTimeValue(cal, d))
		}
	}
	if len(event.RDates) > 0 {
		event.IsRecurring = true
	}

	for _, exdateProp := range comp.Values(PropExceptionDates) {
		dates, err := ParseDateTimeList(exdateProp.Raw, exdateProp.ParamValue(PropTZID))
		if err != nil {
			continue
		}
		for _, d := range dates {
			event.ExDates = append(event.ExDates, ResolveDateTimeValue(cal, d))
		}
	}

	if recID := comp.Get(PropRecurrenceID); recID != nil {
		if dv, ok := recID.Value.(DateTimeValue); ok {
			t := ResolveDateTimeValue(cal, dv)
			event.RecurrenceID = &t
		}
	}

	if seq := comp.Get(PropSequence); seq != nil {
		if iv, ok := seq.Value.(IntegerValue); ok {
			event.Sequence = int(iv)
		}
	}

	event.Organizer, event.Attendees = ExtractOrganizerAndAttendees(comp)
	event.RawData = rawData
	return event, nil
}

func textOf(p *Property) string {
	if t, ok := p.Value.(TextValue); ok {
		return string(t)
	}
	return UnescapeText(p.Raw)
}

func (re *RecurrenceExpander) expandEvent(event *Event, rangeStart, rangeEnd time.Time) ([]*Event, error) {
	var instances []time.Time

	if event.RRule != "" {
		var rruleStr string
		if event.TZID != "" {
			// DTSTART;TZID=...: rrule-go loads the same *time.Location and
			// steps the recurrence in its wall-clock arithmetic, so DST
			// transitions fall out correctly instead of being collapsed to
			// a fixed UTC offset.
			rruleStr = "DTSTART;TZID=" + event.TZID + ":" + event.Start.Format("20060102T150405") + "\nRRULE:" + event.RRule
		} else {
			rruleStr = "DTSTART:" + event.Start.UTC().Format("20060102T150405Z") + "\nRRULE:" + event.RRule
		}
		rule, err := rrule.StrToRRule(rruleStr)
		if err != nil {
			return nil, fmt.Errorf("ical: invalid RRULE: %w", err)
		}
		extendedEnd := rangeEnd.Add(event.Duration)
		instances = append(instances, rule.Between(rangeStart.Add(-event.Duration), extendedEnd, true)...)
	}
	instances = append(instances, event.RDates...)
	instances = FilterExcludedInstances(instances, event.ExDates)

	var filtered []time.Time
	for _, inst := range instances {
		if re.timeRangeOverlaps(inst, inst.Add(event.Duration), rangeStart, rangeEnd) {
			filtered = append(filtered, inst)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Before(filtered[j]) })

	out := make([]*Event, 0, len(filtered))
	for _, instTime := range filtered {
		t := instTime
		out = append(out, &Event{
			UID:          event.UID,
			Summary:      event.Summary,
			Description:  event.Description,
			Start:        instTime,
			End:          instTime.Add(event.Duration),
			Duration:     event.Duration,
			IsAllDay:     event.IsAllDay,
			IsRecurring:  false,
			RecurrenceID: &t,
			Organizer:    event.Organizer,
			Attendees:    event.Attendees,
			RawData:      event.RawData,
		})
	}
	return out, nil
}

func (re *RecurrenceExpander) eventOverlapsRange(event *Event, rangeStart, rangeEnd time.Time) bool {
	return re.timeRangeOverlaps(event.Start, event.End, rangeStart, rangeEnd)
}

func (re *RecurrenceExpander) timeRangeOverlaps(eventStart, eventEnd, rangeStart, rangeEnd time.Time) bool {
	if eventEnd.Equal(eventStart) {
		return !eventStart.Before(rangeStart) && eventStart.Before(rangeEnd)
	}
	return eventStart.Before(rangeEnd) && eventEnd.After(rangeStart)
}
