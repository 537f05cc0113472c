package ical

import (
	"fmt"
	"time"

	_ "time/tzdata" // embed the IANA database so TZID resolution works without a host zoneinfo install
)

// DisambiguationStatus classifies a floating or local wall-clock time
// against a timezone's DST transitions.
type DisambiguationStatus int

const (
	Unambiguous DisambiguationStatus = iota
	Ambiguous                        // the wall-clock time occurs twice (fall-back)
	NonExistent                      // the wall-clock time is skipped (spring-forward)
)

// ResolveTZID loads a *time.Location for a TZID. VTIMEZONE components
// embedded in the calendar are tried first (ResolveEmbeddedTZID); when
// none matches, this falls back to the IANA database embedded via
// time/tzdata, since the spec requires Olson-named TZIDs to resolve
// even when the sending client omitted the VTIMEZONE block. cal may be
// nil (e.g. a standalone RDATE/EXDATE list parsed outside any VCALENDAR
// context), in which case only the IANA database is consulted.
func ResolveTZID(cal *Calendar, tzid string) (*time.Location, error) {
	if tzid == "" {
		return time.UTC, nil
	}
	if cal != nil {
		if loc, ok := ResolveEmbeddedTZID(cal, tzid); ok {
			return loc, nil
		}
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("ical: unresolvable TZID %q: %w", tzid, err)
	}
	return loc, nil
}

// ResolveEmbeddedTZID builds a fixed-offset *time.Location from the
// VTIMEZONE component matching tzid: the TZOFFSETTO (and TZNAME) of its
// last STANDARD sub-component. DAYLIGHT sub-components and transition
// dates are not read, so the resulting zone has no DST. ResolveTZID uses
// this zone whenever the calendar carries a matching VTIMEZONE; the IANA
// database is consulted only when none matches.
func ResolveEmbeddedTZID(cal *Calendar, tzid string) (*time.Location, bool) {
	for _, vtz := range cal.Timezones() {
		idProp := vtz.Get(PropTZID)
		if idProp == nil || textOf(idProp) != tzid {
			continue
		}
		std := vtz.ChildrenNamed(CompStandard)
		if len(std) == 0 {
			continue
		}
		last := std[len(std)-1]
		offProp := last.Get(PropTZOffsetTo)
		if offProp == nil {
			continue
		}
		off, ok := offProp.Value.(UTCOffsetValue)
		if !ok {
			continue
		}
		name := tzid
		if nameProp := last.Get(PropTZName); nameProp != nil {
			name = textOf(nameProp)
		}
		return time.FixedZone(name, int(off.AsDuration().Seconds())), true
	}
	return nil, false
}

// ResolveDateTimeValue converts dv to its correct absolute instant.
// DATE values and floating (no TZID, no Z) DATE-TIMEs pass through
// unchanged — resolving those against a specific zone is the viewer's
// job, not the store's. A Z-suffixed (UTC) value also passes through:
// its Time is already absolute. Only the TZID-bearing case needs work:
// dv.Time up to here is a naive wall-clock reading (ParseDateTime never
// resolves it), so this loads the TZID's *time.Location (preferring the
// calendar's own VTIMEZONE, then the IANA database) and disambiguates
// the wall clock against it, producing the correct absolute instant a
// caller can then call .UTC() on. If the TZID can't be resolved at all,
// dv.Time is returned unchanged rather than failing the whole entity.
func ResolveDateTimeValue(cal *Calendar, dv DateTimeValue) time.Time {
	if dv.IsDateOnly || dv.IsFloating || dv.TZID == "" {
		return dv.Time
	}
	loc, err := ResolveTZID(cal, dv.TZID)
	if err != nil {
		return dv.Time
	}
	resolved, _ := Disambiguate(dv.Time, loc)
	return resolved
}

// Disambiguate resolves wallClock (a floating local time with no
// TZID/UTC marker) in loc and reports how it relates to loc's DST
// transitions. An ambiguous (fall-back) reading resolves to the earlier
// instant, the offset in force before the transition, which is what
// time.Date returns. A non-existent (spring-forward) reading, which
// time.Date moves backwards, is moved forward across the gap instead:
// 02:30 inside a 02:00-03:00 gap becomes 03:30.
func Disambiguate(wallClock time.Time, loc *time.Location) (time.Time, DisambiguationStatus) {
	naive := time.Date(wallClock.Year(), wallClock.Month(), wallClock.Day(),
		wallClock.Hour(), wallClock.Minute(), wallClock.Second(), wallClock.Nanosecond(), loc)

	// Probe one hour before and after in UTC to see if the local wall
	// clock reading is reproduced zero, one, or two times within that
	// window — a cheap way to detect fold/gap without a full
	// transition-table walk, since Go's runtime already resolves the
	// single in-range instant we actually need.
	before := naive.Add(-time.Hour)
	after := naive.Add(time.Hour)

	_, beforeOff := before.Zone()
	_, naiveOff := naive.Zone()
	_, afterOff := after.Zone()

	if naive.Hour() != wallClock.Hour() || naive.Minute() != wallClock.Minute() {
		// the reading falls in a gap: shift forward by the gap's length
		return naive.Add(time.Duration(afterOff-beforeOff) * time.Second), NonExistent
	}

	switch {
	case beforeOff != naiveOff && afterOff != naiveOff && beforeOff == afterOff:
		// the offset on both sides differs from naive's but matches each
		// other: naive landed exactly on a transition boundary reading
		// that doesn't belong to either side — treat as non-existent.
		return naive, NonExistent
	case beforeOff != afterOff:
		return naive, Ambiguous
	default:
		return naive, Unambiguous
	}
}
