package ical

import (
	"fmt"
	"time"
)

// GenerateEventETag derives a quick ETag from an Event's identity fields,
// used by callers that only have the convenience Event struct in hand
// rather than the canonical serialized bytes. Storage code should prefer
// GenerateETag (content-addressed) over this; this exists for the
// in-memory Event helpers below.
func GenerateEventETag(event *Event) string {
	if event.RecurrenceID != nil {
		return event.UID + "-" + event.RecurrenceID.Format("20060102T150405Z")
	}
	return event.UID + "-" + event.Start.Format("20060102T150405Z")
}

// FilterExcludedInstances removes any instance whose start matches an
// EXDATE entry, used by the recurrence engine after RRULE/RDATE
// expansion.
func FilterExcludedInstances(instances, exdates []time.Time) []time.Time {
	if len(exdates) == 0 {
		return instances
	}
	excluded := make(map[string]bool, len(exdates))
	for _, ex := range exdates {
		excluded[ex.UTC().Format("20060102T150405Z")] = true
	}
	filtered := instances[:0]
	for _, inst := range instances {
		if !excluded[inst.UTC().Format("20060102T150405Z")] {
			filtered = append(filtered, inst)
		}
	}
	return filtered
}

// ModifyEventInstance rewrites a VEVENT component's DTSTART/DTEND/UID
// to materialize a single recurrence override (a RECURRENCE-ID'd
// instance detached from its master series), stripping RRULE/RDATE/
// EXDATE since an override does not itself recur.
func ModifyEventInstance(comp *Component, event *Event) {
	layout := "20060102T150405Z"
	dtLayout := func(t time.Time) string {
		if event.IsAllDay {
			return t.Format("20060102")
		}
		return t.Format(layout)
	}

	if dtstart := comp.Get(PropDateTimeStart); dtstart != nil {
		dt, _ := ParseDateTime(dtLayout(event.Start), "")
		dtstart.Value = dt
		dtstart.Raw = dtLayout(event.Start)
	}
	if dtend := comp.Get(PropDateTimeEnd); dtend != nil {
		dt, _ := ParseDateTime(dtLayout(event.End), "")
		dtend.Value = dt
		dtend.Raw = dtLayout(event.End)
	}
	comp.Set(&Property{Name: PropUID, Value: TextValue(event.UID)})

	if event.RecurrenceID != nil {
		comp.Set(&Property{Name: PropRecurrenceID, Value: DateTimeValue{Time: *event.RecurrenceID, IsDateOnly: event.IsAllDay}})
		comp.Del(PropRecurrenceRule)
		comp.Del(PropRecurrenceDates)
		comp.Del(PropExceptionDates)
	}
}

// CreateEventData builds a complete VCALENDAR/VEVENT byte stream from an
// Event convenience struct, used by callers constructing a new entity
// programmatically rather than from a client-submitted PUT body.
func CreateEventData(event *Event, prodID string) ([]byte, error) {
	if event.UID == "" {
		return nil, fmt.Errorf("ical: event has no UID")
	}
	root := &Component{Name: CompCalendar}
	root.Add(&Property{Name: PropVersion, Value: TextValue("2.0")})
	root.Add(&Property{Name: PropProductID, Value: TextValue(prodID)})

	comp := &Component{Name: CompEvent}
	comp.Add(&Property{Name: PropUID, Value: TextValue(event.UID)})
	comp.Add(&Property{Name: PropDateTimeStamp, Value: DateTimeValue{Time: time.Now().UTC()}})
	comp.Add(&Property{Name: PropDateTimeStart, Value: DateTimeValue{Time: event.Start, IsDateOnly: event.IsAllDay}})
	if event.Duration > 0 {
		comp.Add(&Property{Name: PropDateTimeEnd, Value: DateTimeValue{Time: event.End, IsDateOnly: event.IsAllDay}})
	}
	if event.Summary != "" {
		comp.Add(&Property{Name: PropSummary, Value: TextValue(event.Summary)})
	}
	if event.Description != "" {
		comp.Add(&Property{Name: PropDescription, Value: TextValue(event.Description)})
	}
	if event.RecurrenceID != nil {
		comp.Add(&Property{Name: PropRecurrenceID, Value: DateTimeValue{Time: *event.RecurrenceID, IsDateOnly: event.IsAllDay}})
	}
	root.AddChild(comp)

	return SerializeCalendar(&Calendar{Root: root}), nil
}
