package webdavxml

import (
	"time"

	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/filter"
)

// icsTimeLayout is the wire format RFC 4791 §9.9's time-range start/end
// attributes use, the same layout cyp0633-libcaldora's report.go parses
// against.
const icsTimeLayout = "20060102T150405Z"

func parseICSTime(s string) (time.Time, error) {
	return time.Parse(icsTimeLayout, s)
}

// ParseCompFilter decodes one CALDAV:comp-filter element (and its
// nested comp-filter/prop-filter/param-filter/time-range/text-match
// children) into an internal/filter.CompFilter.
func ParseCompFilter(el *etree.Element) (filter.CompFilter, error) {
	f := filter.CompFilter{Name: el.SelectAttrValue("name", "")}
	if findNS(el, "is-not-defined") != nil {
		f.IsNotDefined = true
		return f, nil
	}

	if tr := findNS(el, "time-range"); tr != nil {
		parsed, err := parseTimeRange(tr)
		if err != nil {
			return f, err
		}
		f.TimeRange = parsed
	}

	for _, sub := range findAllNS(el, "comp-filter") {
		parsed, err := ParseCompFilter(sub)
		if err != nil {
			return f, err
		}
		f.Comps = append(f.Comps, parsed)
	}

	for _, sub := range findAllNS(el, "prop-filter") {
		parsed, err := parsePropFilter(sub)
		if err != nil {
			return f, err
		}
		f.Props = append(f.Props, parsed)
	}

	return f, nil
}

func parseTimeRange(el *etree.Element) (*filter.TimeRange, error) {
	tr := &filter.TimeRange{}
	if start := el.SelectAttrValue("start", ""); start != "" {
		t, err := parseICSTime(start)
		if err != nil {
			return nil, direrr.New(direrr.MalformedRequest, "invalid time-range start: "+start)
		}
		tr.Start = t
	}
	if end := el.SelectAttrValue("end", ""); end != "" {
		t, err := parseICSTime(end)
		if err != nil {
			return nil, direrr.New(direrr.MalformedRequest, "invalid time-range end: "+end)
		}
		tr.End = t
	}
	return tr, nil
}

func parsePropFilter(el *etree.Element) (filter.PropFilter, error) {
	f := filter.PropFilter{Name: el.SelectAttrValue("name", "")}
	if findNS(el, "is-not-defined") != nil {
		f.IsNotDefined = true
		return f, nil
	}
	if tr := findNS(el, "time-range"); tr != nil {
		parsed, err := parseTimeRange(tr)
		if err != nil {
			return f, err
		}
		f.TimeRange = parsed
	}
	if tm := findNS(el, "text-match"); tm != nil {
		f.TextMatch = parseTextMatch(tm)
	}
	for _, pf := range findAllNS(el, "param-filter") {
		parsed := parseParamFilter(pf)
		f.Params = append(f.Params, parsed)
	}
	return f, nil
}

func parseParamFilter(el *etree.Element) filter.ParamFilter {
	f := filter.ParamFilter{Name: el.SelectAttrValue("name", "")}
	if findNS(el, "is-not-defined") != nil {
		f.IsNotDefined = true
		return f
	}
	if tm := findNS(el, "text-match"); tm != nil {
		f.TextMatch = parseTextMatch(tm)
	}
	return f
}

func parseTextMatch(el *etree.Element) *filter.TextMatch {
	tm := &filter.TextMatch{
		Text:      el.Text(),
		Collation: el.SelectAttrValue("collation", ""),
		MatchType: el.SelectAttrValue("match-type", filter.MatchContains),
	}
	if neg := el.SelectAttrValue("negate-condition", "no"); neg == "yes" {
		tm.NegateCondition = true
	}
	return tm
}

// ParseCardFilter decodes one CARDDAV:filter element into an
// internal/filter.CardFilter.
func ParseCardFilter(el *etree.Element) (filter.CardFilter, error) {
	f := filter.CardFilter{Test: filter.Test(el.SelectAttrValue("test", string(filter.TestAnyOf)))}
	for _, pf := range findAllNS(el, "prop-filter") {
		parsed, err := parseCardPropFilter(pf)
		if err != nil {
			return f, err
		}
		f.Props = append(f.Props, parsed)
	}
	return f, nil
}

func parseCardPropFilter(el *etree.Element) (filter.CardPropFilter, error) {
	f := filter.CardPropFilter{
		Name: el.SelectAttrValue("name", ""),
		Test: filter.Test(el.SelectAttrValue("test", string(filter.TestAnyOf))),
	}
	if findNS(el, "is-not-defined") != nil {
		f.IsNotDefined = true
		return f, nil
	}
	for _, tm := range findAllNS(el, "text-match") {
		f.TextMatches = append(f.TextMatches, *parseTextMatch(tm))
	}
	for _, pf := range findAllNS(el, "param-filter") {
		f.Params = append(f.Params, parseParamFilter(pf))
	}
	return f, nil
}
