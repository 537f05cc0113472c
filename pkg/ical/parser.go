package ical

import (
	"errors"
	"fmt"

	"github.com/calcore/davcore/internal/wire"
)

// ErrUnbalanced is returned when a BEGIN has no matching END, or an END
// names a component that isn't currently open.
var ErrUnbalanced = errors.New("ical: unbalanced BEGIN/END")

// ParseCalendar parses a complete VCALENDAR object from raw bytes,
// building the full component tree and decoding every property into its
// typed Value. It never discards unrecognized components or properties:
// anything not covered by RFC 5545 §3.6/§3.7/§3.8 is preserved with its
// Raw text only, Value left nil.
func ParseCalendar(data []byte) (*Calendar, error) {
	lines, err := wire.Unfold(data)
	if err != nil {
		return nil, fmt.Errorf("ical: %w", err)
	}

	var root *Component
	var stack []*Component

	for _, raw := range lines {
		name, params, value, err := wire.SplitContentLine(raw)
		if err != nil {
			return nil, fmt.Errorf("ical: %w", err)
		}

		if name == "BEGIN" {
			c := &Component{Name: value}
			if len(stack) > 0 {
				stack[len(stack)-1].AddChild(c)
			} else {
				root = c
			}
			stack = append(stack, c)
			continue
		}
		if name == "END" {
			if len(stack) == 0 || stack[len(stack)-1].Name != value {
				return nil, fmt.Errorf("%w: END:%s", ErrUnbalanced, value)
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if len(stack) == 0 {
			return nil, fmt.Errorf("ical: property %q outside any component", name)
		}
		cur := stack[len(stack)-1]
		prop := decodeProperty(cur, name, params, value)
		cur.Add(prop)
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: %s never closed", ErrUnbalanced, stack[len(stack)-1].Name)
	}
	if root == nil || root.Name != CompCalendar {
		return nil, fmt.Errorf("ical: no VCALENDAR component found")
	}
	return &Calendar{Root: root}, nil
}

func decodeProperty(owner *Component, name string, wireParams []wire.Param, rawValue string) *Property {
	p := &Property{Name: name, Raw: rawValue}
	for _, wp := range wireParams {
		p.Params = append(p.Params, &Parameter{Name: wp.Name, Values: wp.Values})
	}

	tzid := p.ParamValue(PropTZID)
	valueType := p.ParamValue("VALUE")

	var val Value
	var err error
	switch name {
	case PropDateTimeStamp, PropDateTimeStart, PropDateTimeEnd, PropRecurrenceID:
		val, err = ParseDateTime(rawValue, tzid)
	case PropDuration:
		val, err = ParseDuration(rawValue)
	case PropRecurrenceRule:
		val, err = ParseRecur(rawValue)
	case PropTZOffsetFrom, PropTZOffsetTo:
		val, err = ParseUTCOffset(rawValue)
	case PropSequence:
		n, perr := parseIntStrict(rawValue)
		val, err = IntegerValue(n), perr
	case PropUID, PropSummary, PropDescription, PropLocation, PropStatus,
		PropTranspency, PropClass, PropMethod:
		val = TextValue(UnescapeText(rawValue))
	case PropOrganizer, PropAttendee:
		val = CalAddressValue(rawValue)
	case PropCategories:
		// multi-value TEXT; Value left nil, callers use TextList(prop.Raw)
	default:
		if valueType == "DATE" || valueType == "DATE-TIME" {
			val, err = ParseDateTime(rawValue, tzid)
		}
	}
	if err == nil && val != nil {
		p.Value = val
	}
	return p
}

func parseIntStrict(s string) (int, error) {
	n := 0
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, fmt.Errorf("ical: empty integer")
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("ical: bad integer %q", s)
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
