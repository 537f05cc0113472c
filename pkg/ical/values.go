package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Value is the typed decoded form of a property's value, as distinguished
// by RFC 5545 §3.3. Raw source text is always preserved on Property.Raw
// alongside the typed Value so serialization can round-trip byte-exact
// when nothing about the value changed.
type Value interface {
	// Encode renders the canonical wire text for this value (without
	// folding), used when a property is constructed or modified rather
	// than round-tripped verbatim.
	Encode() string
}

// TextValue is RFC 5545 §3.3.11 TEXT: backslash-escaped commas,
// semicolons, backslashes, and literal newlines (escaped as \n).
type TextValue string

func (v TextValue) Encode() string { return EscapeText(string(v)) }

// EscapeText applies RFC 5545 §3.3.11 TEXT escaping.
func EscapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ';':
			b.WriteString(`\;`)
		case ',':
			b.WriteString(`\,`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UnescapeText is the inverse of EscapeText, applied when decoding a raw
// TEXT value from the wire.
func UnescapeText(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case ';':
				b.WriteByte(';')
				i++
				continue
			case ',':
				b.WriteByte(',')
				i++
				continue
			case 'n', 'N':
				b.WriteByte('\n')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// TextList splits a COMMA-separated multi-value TEXT property (e.g.
// CATEGORIES) into its unescaped components.
func TextList(raw string) []string {
	var out []string
	var cur strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			cur.WriteByte(raw[i])
			cur.WriteByte(raw[i+1])
			i++
			continue
		}
		if raw[i] == ',' {
			out = append(out, UnescapeText(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(raw[i])
	}
	out = append(out, UnescapeText(cur.String()))
	return out
}

// DateTimeValue is RFC 5545 §3.3.5 DATE-TIME. Floating (no TZID, no Z
// suffix) values carry IsFloating=true and Time holds the wall-clock
// reading in UTC; neither ResolveDateTimeValue nor the recurrence
// expander resolves it against another zone.
type DateTimeValue struct {
	Time       time.Time
	IsDateOnly bool // RFC 5545 §3.3.4 DATE rather than DATE-TIME
	IsFloating bool
	TZID       string // empty when UTC (Z suffix) or floating
}

func (v DateTimeValue) Encode() string {
	if v.IsDateOnly {
		return v.Time.Format("20060102")
	}
	layout := "20060102T150405"
	if v.IsFloating || v.TZID != "" {
		return v.Time.Format(layout)
	}
	return v.Time.Format(layout + "Z")
}

// ParseDateTime decodes a DATE or DATE-TIME value per RFC 5545 §3.3.4/5.
// tzid is the property's TZID parameter value, if any.
func ParseDateTime(raw, tzid string) (DateTimeValue, error) {
	switch len(raw) {
	case 8:
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return DateTimeValue{}, fmt.Errorf("ical: bad DATE value %q: %w", raw, err)
		}
		return DateTimeValue{Time: t, IsDateOnly: true}, nil
	case 15:
		t, err := time.Parse("20060102T150405", raw)
		if err != nil {
			return DateTimeValue{}, fmt.Errorf("ical: bad DATE-TIME value %q: %w", raw, err)
		}
		if tzid != "" {
			return DateTimeValue{Time: t, TZID: tzid}, nil
		}
		return DateTimeValue{Time: t, IsFloating: true}, nil
	case 16:
		if raw[15] != 'Z' {
			return DateTimeValue{}, fmt.Errorf("ical: bad DATE-TIME value %q", raw)
		}
		t, err := time.Parse("20060102T150405Z", raw)
		if err != nil {
			return DateTimeValue{}, fmt.Errorf("ical: bad UTC DATE-TIME value %q: %w", raw, err)
		}
		return DateTimeValue{Time: t}, nil
	default:
		return DateTimeValue{}, fmt.Errorf("ical: unrecognized DATE-TIME length in %q", raw)
	}
}

// ParseDateTimeList decodes a COMMA-separated RDATE/EXDATE list of
// DATE-TIME or DATE values sharing one TZID.
func ParseDateTimeList(raw, tzid string) ([]DateTimeValue, error) {
	parts := strings.Split(raw, ",")
	out := make([]DateTimeValue, 0, len(parts))
	for _, p := range parts {
		dt, err := ParseDateTime(strings.TrimSpace(p), tzid)
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}

// DurationValue is RFC 5545 §3.3.6 DURATION: a sign plus weeks, or a
// combination of days/hours/minutes/seconds.
type DurationValue struct {
	Negative bool
	Weeks    int
	Days     int
	Hours    int
	Minutes  int
	Seconds  int
}

// AsTimeDuration converts to a time.Duration (weeks/days/hours/minutes/
// seconds are all exact; iCalendar DURATION never carries months/years).
func (v DurationValue) AsTimeDuration() time.Duration {
	d := time.Duration(v.Weeks)*7*24*time.Hour +
		time.Duration(v.Days)*24*time.Hour +
		time.Duration(v.Hours)*time.Hour +
		time.Duration(v.Minutes)*time.Minute +
		time.Duration(v.Seconds)*time.Second
	if v.Negative {
		d = -d
	}
	return d
}

func (v DurationValue) Encode() string {
	var b strings.Builder
	if v.Negative {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if v.Weeks > 0 {
		fmt.Fprintf(&b, "%dW", v.Weeks)
		return b.String()
	}
	if v.Days > 0 {
		fmt.Fprintf(&b, "%dD", v.Days)
	}
	if v.Hours > 0 || v.Minutes > 0 || v.Seconds > 0 {
		b.WriteByte('T')
		if v.Hours > 0 {
			fmt.Fprintf(&b, "%dH", v.Hours)
		}
		if v.Minutes > 0 {
			fmt.Fprintf(&b, "%dM", v.Minutes)
		}
		if v.Seconds > 0 {
			fmt.Fprintf(&b, "%dS", v.Seconds)
		}
	}
	return b.String()
}

// ParseDuration decodes an RFC 5545 §3.3.6 DURATION value, e.g.
// "P1DT2H3M4S", "-PT15M", "P2W".
func ParseDuration(raw string) (DurationValue, error) {
	s := raw
	var v DurationValue
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		v.Negative = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return DurationValue{}, fmt.Errorf("ical: duration %q missing leading P", raw)
	}
	s = s[1:]

	if strings.HasSuffix(s, "W") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "W"))
		if err != nil {
			return DurationValue{}, fmt.Errorf("ical: bad duration weeks in %q: %w", raw, err)
		}
		v.Weeks = n
		return v, nil
	}

	datePart, timePart, hasTime := strings.Cut(s, "T")
	if datePart != "" {
		n, err := parseDurationField(datePart, 'D')
		if err != nil {
			return DurationValue{}, fmt.Errorf("ical: bad duration days in %q: %w", raw, err)
		}
		v.Days = n
	}
	if hasTime {
		rest := timePart
		if h, r, ok := cutDurationField(rest, 'H'); ok {
			v.Hours = h
			rest = r
		}
		if m, r, ok := cutDurationField(rest, 'M'); ok {
			v.Minutes = m
			rest = r
		}
		if sec, r, ok := cutDurationField(rest, 'S'); ok {
			v.Seconds = sec
			rest = r
		}
		if rest != "" {
			return DurationValue{}, fmt.Errorf("ical: trailing garbage in duration %q", raw)
		}
	}
	return v, nil
}

func parseDurationField(s string, suffix byte) (int, error) {
	if len(s) == 0 || s[len(s)-1] != suffix {
		return 0, fmt.Errorf("expected trailing %c in %q", suffix, s)
	}
	return strconv.Atoi(s[:len(s)-1])
}

func cutDurationField(s string, suffix byte) (int, string, bool) {
	idx := strings.IndexByte(s, suffix)
	if idx < 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:idx])
	if err != nil {
		return 0, s, false
	}
	return n, s[idx+1:], true
}

// PeriodValue is RFC 5545 §3.3.9 PERIOD: either an explicit start/end or
// a start plus duration.
type PeriodValue struct {
	Start    DateTimeValue
	End      DateTimeValue
	Duration DurationValue
	IsExplicitEnd bool
}

func (v PeriodValue) Encode() string {
	if v.IsExplicitEnd {
		return v.Start.Encode() + "/" + v.End.Encode()
	}
	return v.Start.Encode() + "/" + v.Duration.Encode()
}

// ParsePeriod decodes a single PERIOD value ("start/end" or
// "start/duration").
func ParsePeriod(raw, tzid string) (PeriodValue, error) {
	startRaw, rest, ok := strings.Cut(raw, "/")
	if !ok {
		return PeriodValue{}, fmt.Errorf("ical: bad PERIOD value %q", raw)
	}
	start, err := ParseDateTime(startRaw, tzid)
	if err != nil {
		return PeriodValue{}, err
	}
	if len(rest) > 0 && (rest[0] == 'P' || rest[0] == '+' || rest[0] == '-') {
		dur, err := ParseDuration(rest)
		if err != nil {
			return PeriodValue{}, err
		}
		return PeriodValue{Start: start, Duration: dur}, nil
	}
	end, err := ParseDateTime(rest, tzid)
	if err != nil {
		return PeriodValue{}, err
	}
	return PeriodValue{Start: start, End: end, IsExplicitEnd: true}, nil
}

// UTCOffsetValue is RFC 5545 §3.3.14 UTC-OFFSET: "(+|-)HHMM[SS]".
type UTCOffsetValue struct {
	Negative bool
	Hours    int
	Minutes  int
	Seconds  int
}

func (v UTCOffsetValue) Encode() string {
	sign := "+"
	if v.Negative {
		sign = "-"
	}
	if v.Seconds != 0 {
		return fmt.Sprintf("%s%02d%02d%02d", sign, v.Hours, v.Minutes, v.Seconds)
	}
	return fmt.Sprintf("%s%02d%02d", sign, v.Hours, v.Minutes)
}

// AsDuration returns the signed offset as a time.Duration east of UTC.
func (v UTCOffsetValue) AsDuration() time.Duration {
	d := time.Duration(v.Hours)*time.Hour + time.Duration(v.Minutes)*time.Minute + time.Duration(v.Seconds)*time.Second
	if v.Negative {
		d = -d
	}
	return d
}

// ParseUTCOffset decodes a UTC-OFFSET value.
func ParseUTCOffset(raw string) (UTCOffsetValue, error) {
	if len(raw) != 5 && len(raw) != 7 {
		return UTCOffsetValue{}, fmt.Errorf("ical: bad UTC-OFFSET value %q", raw)
	}
	var v UTCOffsetValue
	switch raw[0] {
	case '+':
	case '-':
		v.Negative = true
	default:
		return UTCOffsetValue{}, fmt.Errorf("ical: UTC-OFFSET %q missing sign", raw)
	}
	hh, err := strconv.Atoi(raw[1:3])
	if err != nil {
		return UTCOffsetValue{}, fmt.Errorf("ical: bad UTC-OFFSET hours in %q: %w", raw, err)
	}
	mm, err := strconv.Atoi(raw[3:5])
	if err != nil {
		return UTCOffsetValue{}, fmt.Errorf("ical: bad UTC-OFFSET minutes in %q: %w", raw, err)
	}
	v.Hours, v.Minutes = hh, mm
	if len(raw) == 7 {
		ss, err := strconv.Atoi(raw[5:7])
		if err != nil {
			return UTCOffsetValue{}, fmt.Errorf("ical: bad UTC-OFFSET seconds in %q: %w", raw, err)
		}
		v.Seconds = ss
	}
	return v, nil
}

// RecurValue is RFC 5545 §3.3.10 RECUR, carried as the raw rule text.
// Expansion is the Recurrence Engine's (recurrence.go) job, which parses
// this text through rrule-go; this type only validates gross shape and
// preserves the original text for round-trip.
type RecurValue struct {
	Raw string
}

func (v RecurValue) Encode() string { return v.Raw }

// ParseRecur validates that raw looks like a FREQ=... rule part list and
// wraps it. Deep validation (legal BYxxx combinations per FREQ) happens
// in the recurrence engine, since it needs rrule-go's parser anyway.
func ParseRecur(raw string) (RecurValue, error) {
	if !strings.Contains(raw, "FREQ=") {
		return RecurValue{}, fmt.Errorf("ical: RECUR value %q missing FREQ", raw)
	}
	return RecurValue{Raw: raw}, nil
}

// IntegerValue is RFC 5545 §3.3.8 INTEGER.
type IntegerValue int

func (v IntegerValue) Encode() string { return strconv.Itoa(int(v)) }

// BooleanValue is RFC 5545 §3.3.2 BOOLEAN.
type BooleanValue bool

func (v BooleanValue) Encode() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// BinaryValue is RFC 5545 §3.3.1 BINARY, base64-encoded on the wire;
// Raw keeps the base64 text since re-encoding must be byte-identical.
type BinaryValue struct {
	Raw string
}

func (v BinaryValue) Encode() string { return v.Raw }

// CalAddressValue is RFC 5545 §3.3.3 CAL-ADDRESS, a URI (almost always
// mailto:).
type CalAddressValue string

func (v CalAddressValue) Encode() string { return string(v) }

// FindParam is a small helper returning an Option instead of a bare
// nil/zero-value pair, used by callers that branch on parameter
// presence (the recurrence engine's TZID lookups, the filter evaluator's
// param-filter matching).
func FindParam(p *Property, name string) mo.Option[*Parameter] {
	if p == nil {
		return mo.None[*Parameter]()
	}
	if pm := p.Param(name); pm != nil {
		return mo.Some(pm)
	}
	return mo.None[*Parameter]()
}
