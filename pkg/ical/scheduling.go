package ical

import "strings"

// iTIP method tokens (RFC 5546). The scheduling *protocol* (composing and
// routing REQUEST/REPLY/CANCEL messages) is out of scope for this
// module; these constants and the helpers below exist because the
// METHOD, ORGANIZER, ATTENDEE, and PARTSTAT data still needs to be
// extracted and indexed from stored entities regardless.
const (
	MethodPublish        = "PUBLISH"
	MethodRequest        = "REQUEST"
	MethodReply          = "REPLY"
	MethodAdd            = "ADD"
	MethodCancel         = "CANCEL"
	MethodRefresh        = "REFRESH"
	MethodCounter        = "COUNTER"
	MethodDeclineCounter = "DECLINECOUNTER"
)

// Participation status values (RFC 5545 §3.2.12 PARTSTAT).
const (
	PartStatNeedsAction = "NEEDS-ACTION"
	PartStatAccepted    = "ACCEPTED"
	PartStatDeclined    = "DECLINED"
	PartStatTentative   = "TENTATIVE"
	PartStatDelegated   = "DELEGATED"
)

const ParamParticipationStatus = "PARTSTAT"

// IsSchedulingObject reports whether cal's VCALENDAR carries a METHOD
// (returned as the second value), or any main component carries both an
// ORGANIZER and at least one ATTENDEE.
func IsSchedulingObject(cal *Calendar) (bool, string) {
	if m := cal.Root.Get(PropMethod); m != nil {
		return true, m.Raw
	}
	for _, comp := range cal.MainComponents() {
		if comp.Get(PropOrganizer) != nil && len(comp.Values(PropAttendee)) > 0 {
			return true, ""
		}
	}
	return false, ""
}

// ExtractOrganizerAndAttendees returns comp's ORGANIZER and ATTENDEE
// values with any "mailto:" prefix removed; parseEvent uses it to fill
// Event.Organizer and Event.Attendees.
func ExtractOrganizerAndAttendees(comp *Component) (organizer string, attendees []string) {
	if org := comp.Get(PropOrganizer); org != nil {
		organizer = strings.TrimPrefix(org.Raw, "mailto:")
	}
	for _, att := range comp.Values(PropAttendee) {
		attendees = append(attendees, strings.TrimPrefix(att.Raw, "mailto:"))
	}
	return organizer, attendees
}

// AttendeePartStat returns the PARTSTAT parameter of the ATTENDEE
// property matching email (case-insensitive), or "" if not present.
func AttendeePartStat(comp *Component, email string) string {
	target := "mailto:" + email
	for _, att := range comp.Values(PropAttendee) {
		if strings.EqualFold(att.Raw, target) {
			return att.ParamValue(ParamParticipationStatus)
		}
	}
	return ""
}

// SetAttendeePartStat sets the PARTSTAT parameter on the ATTENDEE
// property matching email, reporting whether any property was changed.
func SetAttendeePartStat(comp *Component, email, partStat string) bool {
	target := "mailto:" + email
	modified := false
	for _, att := range comp.Values(PropAttendee) {
		if strings.EqualFold(att.Raw, target) {
			att.SetParam(ParamParticipationStatus, partStat)
			modified = true
		}
	}
	return modified
}
