// Package ical implements the iCalendar (RFC 5545) grammar, data model,
// recurrence expansion, and timezone resolution this server's write path
// and REPORT engine are built on. It replaces a thin wrapper around a
// third-party iCalendar library with the grammar itself: the contract
// between parser, serializer, and every downstream consumer is this
// package's Component/Property/Parameter tree (the AST, C2), never raw
// bytes.
package ical

// Component is one node in the component tree: VCALENDAR, VEVENT, VTODO,
// VJOURNAL, VFREEBUSY, VTIMEZONE, VALARM, STANDARD, DAYLIGHT, or an
// Unknown component preserved verbatim for round-trip.
type Component struct {
	Name     string
	Parent   *Component
	Ordinal  int
	Children []*Component
	Props    []*Property
}

// Unknown reports whether this component kind has no typed handling in
// this package and should be preserved byte-for-byte on serialization.
func (c *Component) Unknown() bool {
	switch c.Name {
	case CompCalendar, CompEvent, CompToDo, CompJournal, CompFreeBusy,
		CompTimezone, CompAlarm, CompStandard, CompDaylight:
		return false
	default:
		return true
	}
}

// Get returns the first property with the given name, or nil.
func (c *Component) Get(name string) *Property {
	for _, p := range c.Props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Values returns every property with the given name, in sibling order.
func (c *Component) Values(name string) []*Property {
	var out []*Property
	for _, p := range c.Props {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Set replaces (or appends, if absent) the first property with this
// name, preserving its original ordinal when replacing.
func (c *Component) Set(p *Property) {
	for i, existing := range c.Props {
		if existing.Name == p.Name {
			p.Ordinal = existing.Ordinal
			c.Props[i] = p
			return
		}
	}
	p.Ordinal = len(c.Props)
	c.Props = append(c.Props, p)
}

// Add appends a property regardless of existing properties of the same
// name (used for repeatable properties like ATTENDEE, RDATE, EXDATE).
func (c *Component) Add(p *Property) {
	p.Ordinal = len(c.Props)
	c.Props = append(c.Props, p)
}

// Del removes every property with the given name.
func (c *Component) Del(name string) {
	out := c.Props[:0]
	for _, p := range c.Props {
		if p.Name != name {
			out = append(out, p)
		}
	}
	c.Props = out
}

// AddChild appends a child component, assigning its ordinal and parent.
func (c *Component) AddChild(child *Component) {
	child.Parent = c
	child.Ordinal = len(c.Children)
	c.Children = append(c.Children, child)
}

// ChildrenNamed returns direct children with the given component name.
func (c *Component) ChildrenNamed(name string) []*Component {
	var out []*Component
	for _, ch := range c.Children {
		if ch.Name == name {
			out = append(out, ch)
		}
	}
	return out
}

// Property is a single NAME;PARAMS:VALUE occurrence. Value holds the
// decoded typed value; Raw holds the exact source text of the value for
// byte round-trip of types this package doesn't model explicitly.
type Property struct {
	Name    string
	Group   string // vCard property-group tag; unused for iCalendar
	Params  []*Parameter
	Raw     string
	Value   Value
	Ordinal int
}

// Param returns the first parameter with the given name, or nil.
func (p *Property) Param(name string) *Parameter {
	for _, pm := range p.Params {
		if pm.Name == name {
			return pm
		}
	}
	return nil
}

// ParamValue returns the first value of the named parameter, or "".
func (p *Property) ParamValue(name string) string {
	if pm := p.Param(name); pm != nil && len(pm.Values) > 0 {
		return pm.Values[0]
	}
	return ""
}

// SetParam replaces (or appends) a single-valued parameter.
func (p *Property) SetParam(name, value string) {
	for _, pm := range p.Params {
		if pm.Name == name {
			pm.Values = []string{value}
			return
		}
	}
	p.Params = append(p.Params, &Parameter{Name: name, Values: []string{value}, Ordinal: len(p.Params)})
}

// Parameter is one NAME=value(,value)* occurrence on a Property.
type Parameter struct {
	Name    string
	Values  []string
	Ordinal int
}

// Calendar is a parsed VCALENDAR object: its root component plus every
// top-level child (VEVENT/VTODO/VJOURNAL/VFREEBUSY/VTIMEZONE).
type Calendar struct {
	Root *Component
}

// MainComponents returns the top-level scheduling components (VEVENT,
// VTODO, VJOURNAL, VFREEBUSY) — the "one main component family" PUT
// enforces (spec §4.8).
func (c *Calendar) MainComponents() []*Component {
	var out []*Component
	for _, ch := range c.Root.Children {
		switch ch.Name {
		case CompEvent, CompToDo, CompJournal, CompFreeBusy:
			out = append(out, ch)
		}
	}
	return out
}

// Timezones returns every VTIMEZONE child.
func (c *Calendar) Timezones() []*Component {
	return c.Root.ChildrenNamed(CompTimezone)
}

// UID returns the logical UID shared by this calendar's main
// components (master + RECURRENCE-ID overrides all share one UID).
func (c *Calendar) UID() string {
	for _, m := range c.MainComponents() {
		if u := m.Get(PropUID); u != nil {
			if t, ok := u.Value.(TextValue); ok {
				return string(t)
			}
			return u.Raw
		}
	}
	return ""
}

// Component name constants (RFC 5545 §3.6).
const (
	CompCalendar = "VCALENDAR"
	CompEvent    = "VEVENT"
	CompToDo     = "VTODO"
	CompJournal  = "VJOURNAL"
	CompFreeBusy = "VFREEBUSY"
	CompTimezone = "VTIMEZONE"
	CompAlarm    = "VALARM"
	CompStandard = "STANDARD"
	CompDaylight = "DAYLIGHT"
)

// Property name constants used by the value typer and store indexer.
const (
	PropVersion         = "VERSION"
	PropProductID       = "PRODID"
	PropCalScale        = "CALSCALE"
	PropUID             = "UID"
	PropDateTimeStamp   = "DTSTAMP"
	PropDateTimeStart   = "DTSTART"
	PropDateTimeEnd     = "DTEND"
	PropDuration        = "DURATION"
	PropSummary         = "SUMMARY"
	PropDescription     = "DESCRIPTION"
	PropLocation        = "LOCATION"
	PropStatus          = "STATUS"
	PropTranspency      = "TRANSP"
	PropOrganizer       = "ORGANIZER"
	PropAttendee        = "ATTENDEE"
	PropRecurrenceRule  = "RRULE"
	PropRecurrenceDates = "RDATE"
	PropExceptionDates  = "EXDATE"
	PropRecurrenceID    = "RECURRENCE-ID"
	PropSequence        = "SEQUENCE"
	PropTZID            = "TZID"
	PropTZOffsetFrom    = "TZOFFSETFROM"
	PropTZOffsetTo      = "TZOFFSETTO"
	PropTZName          = "TZNAME"
	PropFreeBusy        = "FREEBUSY"
	PropAttach          = "ATTACH"
	PropCategories      = "CATEGORIES"
	PropClass           = "CLASS"
	PropMethod          = "METHOD"
)
