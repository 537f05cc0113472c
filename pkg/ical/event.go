package ical

import "time"

type Event struct {
	UID          string
	Summary      string
	Description  string
	Location     string
	Start        time.Time
	End          time.Time
	// TZID is the DTSTART's TZID parameter, if any. expandEvent needs it
	// verbatim (not just the resolved Start instant) to hand rrule-go a
	// DTSTART;TZID=... line so recurrence stepping uses the same zone's
	// wall-clock/DST arithmetic the original event declared.
	TZID         string
	Duration     time.Duration
	IsAllDay     bool
	IsRecurring  bool
	RRule        string
	RDates       []time.Time
	ExDates      []time.Time
	RecurrenceID *time.Time

	// Scheduling properties
	Organizer string            // Email address of organizer
	Attendees []string          // Email addresses of attendees
	Method    string            // iTIP method (REQUEST, REPLY, etc.)
	Sequence  int               // SEQUENCE, for change tracking
	PartStat  map[string]string // Participation status per attendee

	RawData []byte
}

// IsSchedulingEvent determines if this event requires scheduling
func (e *Event) IsSchedulingEvent() bool {
	return e.Organizer != "" && len(e.Attendees) > 0
}

// GetParticipationStatus gets the participation status for a specific attendee
func (e *Event) GetParticipationStatus(attendeeEmail string) string {
	if e.PartStat == nil {
		return PartStatNeedsAction
	}

	if status, exists := e.PartStat[attendeeEmail]; exists {
		return status
	}

	return PartStatNeedsAction
}

// SetParticipationStatus sets the participation status for a specific attendee
func (e *Event) SetParticipationStatus(attendeeEmail, status string) {
	if e.PartStat == nil {
		e.PartStat = make(map[string]string)
	}
	e.PartStat[attendeeEmail] = status
}
