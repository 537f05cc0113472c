package report

import (
	"context"
	"time"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/pkg/ical"
)

// FreeBusyQueryRequest mirrors CALDAV:free-busy-query (RFC 4791 §7.10),
// carried in SPEC_FULL.md's domain-stack expansion alongside the
// required five reports (the original spec explicitly leaves it to the
// teacher's fuller feature set).
type FreeBusyQueryRequest struct {
	Start, End time.Time
	ProdID     string
}

// ExecuteFreeBusyQuery projects every VEVENT in collectionID overlapping
// [Start, End) into a synthetic VCALENDAR/VFREEBUSY body, expanding
// recurring masters the same way the calendar-query expand() modifier
// does.
func (e *Engine) ExecuteFreeBusyQuery(ctx context.Context, collectionID string, req FreeBusyQueryRequest) ([]byte, error) {
	if !req.End.After(req.Start) {
		return nil, direrr.New(direrr.MalformedRequest, "free-busy-query time-range end must be after start")
	}

	insts, err := e.Store.ListInstances(ctx, collectionID)
	if err != nil {
		return nil, direrr.Wrap(err, "list instances")
	}

	var busy []ical.Interval
	expander := ical.NewRecurrenceExpander(time.UTC)
	for _, inst := range insts {
		ent, err := e.loadEntity(ctx, inst)
		if err != nil {
			return nil, err
		}
		busy = append(busy, freeBusyIntervalsForEntity(ent, expander, req.Start, req.End)...)
	}

	prodID := req.ProdID
	if prodID == "" {
		prodID = reportProdID
	}
	return ical.BuildFreeBusyICS(req.Start, req.End, mergeIntervals(busy), prodID), nil
}

func freeBusyIntervalsForEntity(ent *model.Entity, expander *ical.RecurrenceExpander, start, end time.Time) []ical.Interval {
	cal, err := ical.ParseCalendar(ent.Canonical)
	if err != nil {
		return nil
	}
	events, err := ical.ExtractEvents(cal, ent.Canonical)
	if err != nil || len(events) == 0 {
		return nil
	}
	expanded, err := expander.ExpandRecurrences(events, start, end)
	if err != nil {
		return nil
	}
	var out []ical.Interval
	for _, ev := range expanded {
		if ev.End.After(start) && end.After(ev.Start) {
			s, e := maxTime(ev.Start, start), minTime(ev.End, end)
			if e.After(s) {
				out = append(out, ical.Interval{S: s, E: e})
			}
		}
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// mergeIntervals coalesces overlapping/adjacent busy intervals, the same
// insertion-sort-and-sweep shape the teacher's common package uses for
// its free-busy rollup.
func mergeIntervals(in []ical.Interval) []ical.Interval {
	if len(in) <= 1 {
		return in
	}
	for i := 1; i < len(in); i++ {
		j := i
		for j > 0 && in[j-1].S.After(in[j].S) {
			in[j-1], in[j] = in[j], in[j-1]
			j--
		}
	}
	out := []ical.Interval{in[0]}
	for i := 1; i < len(in); i++ {
		last := &out[len(out)-1]
		if in[i].S.After(last.E) {
			out = append(out, in[i])
		} else if in[i].E.After(last.E) {
			last.E = in[i].E
		}
	}
	return out
}
