// Package filter implements the comp-filter/prop-filter/param-filter/
// text-match/time-range evaluator (C9) that both the calendar-query and
// addressbook-query REPORTs (C10) drive against a parsed entity. It
// never re-derives recurrence math itself: time-range matching against
// a recurring master consults occurrence windows its caller supplies
// (the REPORT engine expands them from the entity), rather than running
// RRULE expansion here.
package filter

import (
	"time"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/pkg/ical"
)

// TimeRange is the CALDAV:time-range test: [Start, End) in UTC. A zero
// Start or End means "unbounded on that side".
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps applies the canonical RFC 4791 §9.9 overlap rule:
// event_start < range_end AND event_end > range_start.
func (tr TimeRange) Overlaps(start, end time.Time) bool {
	if !tr.End.IsZero() && !start.Before(tr.End) {
		return false
	}
	if !tr.Start.IsZero() && !end.After(tr.Start) {
		return false
	}
	return true
}

// CompFilter mirrors CALDAV:comp-filter: match Name, optionally gated by
// a time-range, with nested component and property filters.
type CompFilter struct {
	Name         string
	IsNotDefined bool
	TimeRange    *TimeRange
	Comps        []CompFilter
	Props        []PropFilter
}

// PropFilter mirrors CALDAV:prop-filter / CARDDAV:prop-filter.
type PropFilter struct {
	Name         string
	IsNotDefined bool
	TimeRange    *TimeRange
	TextMatch    *TextMatch
	Params       []ParamFilter
}

// ParamFilter mirrors CALDAV:param-filter / CARDDAV:param-filter.
type ParamFilter struct {
	Name         string
	IsNotDefined bool
	TextMatch    *TextMatch
}

// Window is one occurrence interval a recurring master component
// expands to, supplied by the caller (the REPORT engine expands them
// from the entity's own recurrence data) so the evaluator never expands
// RRULE itself.
type Window struct {
	Start time.Time
	End   time.Time
}

// MatchComponent evaluates filter against comp. cal is comp's owning
// Calendar, consulted for VTIMEZONE-based TZID resolution whenever a
// DTSTART/DTEND/recurrence-id value carries a TZID parameter; pass the
// same *ical.Calendar the component was parsed from. windows, when
// non-nil, is the precomputed occurrence set to use for filter.TimeRange
// instead of comp's own DTSTART/DTEND (pass nil for a non-recurring
// component; the time-range is then tested against the single window
// derived from comp's own DTSTART/DTEND/DURATION).
func MatchComponent(f CompFilter, cal *ical.Calendar, comp *ical.Component, windows []Window) (bool, error) {
	if comp.Name != f.Name {
		return f.IsNotDefined, nil
	}

	if f.TimeRange != nil {
		ok, err := matchCompTimeRange(*f.TimeRange, cal, comp, windows)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	for _, sub := range f.Comps {
		ok, err := matchChildCompFilter(sub, cal, comp)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	for _, pf := range f.Props {
		ok, err := MatchProp(pf, cal, comp)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// matchChildCompFilter applies sub to every direct child of comp (a
// nested comp-filter scopes to the parent's children, e.g. VALARM under
// VEVENT), succeeding if any child matches or if IsNotDefined and none
// do.
func matchChildCompFilter(sub CompFilter, cal *ical.Calendar, comp *ical.Component) (bool, error) {
	any := false
	for _, child := range comp.Children {
		ok, err := MatchComponent(sub, cal, child, nil)
		if err != nil {
			return false, err
		}
		if ok {
			any = true
		}
	}
	if !any {
		return sub.IsNotDefined, nil
	}
	return true, nil
}

// MatchProp evaluates a prop-filter against comp's properties. Per RFC
// 4791 §9.7.2, when more than one property instance shares this name
// the filter is satisfied if it matches any one instance.
func MatchProp(f PropFilter, cal *ical.Calendar, comp *ical.Component) (bool, error) {
	props := comp.Values(f.Name)
	if len(props) == 0 {
		return f.IsNotDefined, nil
	}
	if f.IsNotDefined {
		return false, nil
	}

	for _, p := range props {
		ok, err := matchOneProp(f, cal, p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func matchOneProp(f PropFilter, cal *ical.Calendar, p *ical.Property) (bool, error) {
	for _, pf := range f.Params {
		if !matchParam(pf, p) {
			return false, nil
		}
	}

	if f.TimeRange != nil {
		return matchPropTimeRange(*f.TimeRange, cal, p)
	}
	if f.TextMatch != nil {
		ok, err := MatchText(*f.TextMatch, propText(p))
		if err != nil {
			return false, err
		}
		return ok, nil
	}
	return true, nil
}

func matchParam(f ParamFilter, p *ical.Property) bool {
	pm := p.Param(f.Name)
	if pm == nil || len(pm.Values) == 0 {
		return f.IsNotDefined
	}
	if f.IsNotDefined {
		return false
	}
	if f.TextMatch != nil {
		ok, err := MatchText(*f.TextMatch, pm.Values[0])
		return err == nil && ok
	}
	return true
}

func propText(p *ical.Property) string {
	if t, ok := p.Value.(ical.TextValue); ok {
		return string(t)
	}
	return ical.UnescapeText(p.Raw)
}

// matchCompTimeRange applies the time-range test against windows if
// supplied (the recurring-master path); otherwise it derives a single
// window from comp's own DTSTART/DTEND/DURATION, per the RFC 4791 §9.9
// end-derivation table.
func matchCompTimeRange(tr TimeRange, cal *ical.Calendar, comp *ical.Component, windows []Window) (bool, error) {
	if len(windows) > 0 {
		for _, w := range windows {
			if tr.Overlaps(w.Start, w.End) {
				return true, nil
			}
		}
		return false, nil
	}

	start, ok := componentStart(cal, comp)
	if !ok {
		return false, nil
	}
	end := componentEnd(cal, comp, start)
	return tr.Overlaps(start, end), nil
}

func componentStart(cal *ical.Calendar, comp *ical.Component) (time.Time, bool) {
	dtstart := comp.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return time.Time{}, false
	}
	dv, ok := dtstart.Value.(ical.DateTimeValue)
	if !ok {
		return time.Time{}, false
	}
	return ical.ResolveDateTimeValue(cal, dv).UTC(), true
}

func componentEnd(cal *ical.Calendar, comp *ical.Component, start time.Time) time.Time {
	if dtend := comp.Get(ical.PropDateTimeEnd); dtend != nil {
		if dv, ok := dtend.Value.(ical.DateTimeValue); ok {
			return ical.ResolveDateTimeValue(cal, dv).UTC()
		}
	}
	allDay := false
	if dtstart := comp.Get(ical.PropDateTimeStart); dtstart != nil {
		if dv, ok := dtstart.Value.(ical.DateTimeValue); ok {
			allDay = dv.IsDateOnly
		}
	}
	if dur := comp.Get(ical.PropDuration); dur != nil {
		if dv, ok := dur.Value.(ical.DurationValue); ok {
			return start.Add(dv.AsTimeDuration())
		}
	}
	if allDay {
		return start.Add(24 * time.Hour)
	}
	return start
}

func matchPropTimeRange(tr TimeRange, cal *ical.Calendar, p *ical.Property) (bool, error) {
	dv, ok := p.Value.(ical.DateTimeValue)
	if !ok {
		return false, nil
	}
	t := ical.ResolveDateTimeValue(cal, dv).UTC()
	return tr.Overlaps(t, t), nil
}

// ValidateCollation returns an UnsupportedCollation error unless name is
// one of the three collations this evaluator implements.
func ValidateCollation(name string) error {
	switch name {
	case "", CollationASCIICasemap, CollationOctet, CollationUnicodeCasemap:
		return nil
	default:
		return direrr.New(direrr.UnsupportedCollation, "unsupported collation "+name)
	}
}
