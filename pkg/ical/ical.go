package ical

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedComponent is returned by DetectICSComponent when a
// VCALENDAR carries no VEVENT/VTODO/VJOURNAL/VFREEBUSY.
var ErrUnsupportedComponent = errors.New("ical: unsupported main component")

// Interval is a half-open busy interval used by BuildFreeBusyICS.
type Interval struct {
	S, E time.Time
}

// NormalizeICS parses then re-serializes an ICS body, so storage always
// holds the canonical folded form regardless of how the client folded or
// ordered its own output. This is required for the ETag-stability
// invariant: two byte-different but semantically identical PUT bodies
// must canonicalize to the same bytes before hashing.
func NormalizeICS(data []byte) ([]byte, error) {
	cal, err := ParseCalendar(data)
	if err != nil {
		return nil, err
	}
	return SerializeCalendar(cal), nil
}

// DetectICSComponent returns the name of the first scheduling component
// (VEVENT, VTODO, VJOURNAL, or VFREEBUSY) in data.
func DetectICSComponent(data []byte) (string, error) {
	cal, err := ParseCalendar(data)
	if err != nil {
		return "", err
	}
	for _, m := range cal.MainComponents() {
		return m.Name, nil
	}
	return "", ErrUnsupportedComponent
}

// EnsureDTStamp adds a DTSTAMP to every VEVENT/VTODO/VJOURNAL missing
// one, per RFC 5545 §3.8.7.2 (DTSTAMP is REQUIRED). Returns the
// (possibly unchanged) bytes and whether a modification was made.
func EnsureDTStamp(data []byte) ([]byte, bool) {
	cal, err := ParseCalendar(data)
	if err != nil {
		return data, false
	}
	modified := false
	now := time.Now().UTC()
	for _, m := range cal.MainComponents() {
		if m.Name == CompFreeBusy {
			continue
		}
		if m.Get(PropDateTimeStamp) == nil {
			m.Add(&Property{Name: PropDateTimeStamp, Value: DateTimeValue{Time: now}})
			modified = true
		}
	}
	if !modified {
		return data, false
	}
	return SerializeCalendar(cal), true
}

// BuildFreeBusyICS renders a synthetic VCALENDAR/VFREEBUSY object
// describing busy intervals within [start, end), for the
// free-busy-query REPORT.
func BuildFreeBusyICS(start, end time.Time, busyIntervals []Interval, prodID string) []byte {
	root := &Component{Name: CompCalendar}
	root.Add(&Property{Name: PropProductID, Value: TextValue(prodID)})
	root.Add(&Property{Name: PropVersion, Value: TextValue("2.0")})

	fb := &Component{Name: CompFreeBusy}
	fb.Add(&Property{Name: PropDateTimeStamp, Value: DateTimeValue{Time: time.Now().UTC()}})
	fb.Add(&Property{Name: PropDateTimeStart, Value: DateTimeValue{Time: start.UTC()}})
	fb.Add(&Property{Name: PropDateTimeEnd, Value: DateTimeValue{Time: end.UTC()}})
	for _, iv := range busyIntervals {
		p := &Property{
			Name: PropFreeBusy,
			Value: PeriodValue{
				Start:         DateTimeValue{Time: iv.S.UTC()},
				End:           DateTimeValue{Time: iv.E.UTC()},
				IsExplicitEnd: true,
			},
		}
		p.SetParam("FBTYPE", "BUSY")
		fb.Add(p)
	}
	root.AddChild(fb)

	return SerializeCalendar(&Calendar{Root: root})
}

// GenerateETag derives a content-addressed ETag from the canonical
// (normalized) bytes of an entity, so any semantic-preserving
// resubmission of the same content yields the same ETag, and any
// content change yields a different one.
func GenerateETag(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// NewEntityUID generates a fresh UID for entities created without one
// supplied by the client (e.g. server-synthesized VFREEBUSY objects).
func NewEntityUID() string {
	return uuid.NewString()
}
