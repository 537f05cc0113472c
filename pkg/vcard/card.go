// Package vcard implements the vCard (RFC 6350) grammar: line-level
// parsing via internal/wire, the flat property list model (vCard has no
// nested BEGIN/END component tree beyond the card itself), truncated
// date/time values, structured N/ADR/ORG values, and property-group
// associations (itemN.EMAIL / itemN.X-ABLABEL).
package vcard

// Card is one parsed VCARD object: a flat, ordered property list.
type Card struct {
	Properties []*Property
}

// Get returns the first property with the given name (case-insensitive
// match is the caller's job; names are stored as seen, normalized
// uppercase by the parser), or nil.
func (c *Card) Get(name string) *Property {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Values returns every property with the given name.
func (c *Card) Values(name string) []*Property {
	var out []*Property
	for _, p := range c.Properties {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Set replaces (or appends) the first property with this name,
// preserving its ordinal when replacing.
func (c *Card) Set(p *Property) {
	for i, existing := range c.Properties {
		if existing.Name == p.Name {
			p.Ordinal = existing.Ordinal
			c.Properties[i] = p
			return
		}
	}
	p.Ordinal = len(c.Properties)
	c.Properties = append(c.Properties, p)
}

// Add appends a property regardless of existing properties of the same
// name (EMAIL, TEL, ADR, and X-* properties all repeat).
func (c *Card) Add(p *Property) {
	p.Ordinal = len(c.Properties)
	c.Properties = append(c.Properties, p)
}

// Del removes every property with the given name.
func (c *Card) Del(name string) {
	out := c.Properties[:0]
	for _, p := range c.Properties {
		if p.Name != name {
			out = append(out, p)
		}
	}
	c.Properties = out
}

// GroupMembers returns every property sharing the given property-group
// tag (e.g. "item1"), used to resolve X-ABLABEL associations.
func (c *Card) GroupMembers(group string) []*Property {
	var out []*Property
	for _, p := range c.Properties {
		if p.Group == group {
			out = append(out, p)
		}
	}
	return out
}

// Property is one GROUP.NAME;PARAMS:VALUE occurrence.
type Property struct {
	Group   string
	Name    string
	Params  []*Parameter
	Raw     string
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
	p.Params = append(p.Params, &Parameter{Name: name, Values: []string{value}})
}

// Parameter is one NAME=value(,value)* occurrence on a Property.
type Parameter struct {
	Name   string
	Values []string
}

// Well-known property name constants.
const (
	PropVersion       = "VERSION"
	PropFN            = "FN"
	PropN             = "N"
	PropUID           = "UID"
	PropEmail         = "EMAIL"
	PropTel           = "TEL"
	PropAdr           = "ADR"
	PropOrg           = "ORG"
	PropTitle         = "TITLE"
	PropBirthday      = "BDAY"
	PropRevision      = "REV"
	PropXABLabel      = "X-ABLABEL"
	ParamPreferred    = "PREF"
	ParamType         = "TYPE"
)
