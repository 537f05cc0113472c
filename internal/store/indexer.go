package store

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/pkg/ical"
	"github.com/calcore/davcore/pkg/vcard"
)

func newRowID() string { return uuid.Must(uuid.NewV7()).String() }

// FlattenICalTree walks a parsed Calendar into the persisted Component/
// Property/Parameter row set (C7's "recompute index rows on write"
// persists the tree itself, not just the derived cal_index projection,
// so the filter evaluator never has to re-parse raw bytes).
func FlattenICalTree(cal *ical.Calendar, entityID string) ([]*model.Component, []*model.Property, []*model.Parameter) {
	var comps []*model.Component
	var props []*model.Property
	var params []*model.Parameter
	flattenICalComponent(cal.Root, entityID, nil, &comps, &props, &params)
	return comps, props, params
}

func flattenICalComponent(c *ical.Component, entityID string, parentID *string, comps *[]*model.Component, props *[]*model.Property, params *[]*model.Parameter) {
	id := newRowID()
	*comps = append(*comps, &model.Component{
		ID:       id,
		EntityID: entityID,
		ParentID: parentID,
		Name:     c.Name,
		Ordinal:  c.Ordinal,
	})
	for _, p := range c.Props {
		pid := newRowID()
		*props = append(*props, &model.Property{
			ID:          pid,
			ComponentID: id,
			Name:        p.Name,
			RawValue:    p.Raw,
			Ordinal:     p.Ordinal,
		})
		for _, pm := range p.Params {
			*params = append(*params, &model.Parameter{
				ID:         newRowID(),
				PropertyID: pid,
				Name:       pm.Name,
				Values:     pm.Values,
				Ordinal:    pm.Ordinal,
			})
		}
	}
	for _, child := range c.Children {
		flattenICalComponent(child, entityID, &id, comps, props, params)
	}
}

// FlattenVCard walks a parsed Card into persisted rows under one
// synthetic VCARD "component" row (vCard has no nested tree, so every
// property attaches directly to it).
func FlattenVCard(card *vcard.Card, entityID string) ([]*model.Component, []*model.Property, []*model.Parameter) {
	rootID := newRowID()
	comps := []*model.Component{{ID: rootID, EntityID: entityID, Name: "VCARD", Ordinal: 0}}
	var props []*model.Property
	var params []*model.Parameter
	for _, p := range card.Properties {
		pid := newRowID()
		props = append(props, &model.Property{
			ID:          pid,
			ComponentID: rootID,
			Name:        p.Name,
			Group:       p.Group,
			RawValue:    p.Raw,
			Ordinal:     p.Ordinal,
		})
		for _, pm := range p.Params {
			params = append(params, &model.Parameter{
				ID:         newRowID(),
				PropertyID: pid,
				Name:       pm.Name,
				Values:     pm.Values,
			})
		}
	}
	return comps, props, params
}

// BuildCalIndex produces one CalIndex row per top-level scheduling
// component (master or RECURRENCE-ID override alike — each is its own
// row per spec §4.7), keyed to the Component rows FlattenICalTree
// produced via matching ordinal position.
func BuildCalIndex(cal *ical.Calendar, entityID string, comps []*model.Component) []*model.CalIndex {
	// Map each top-level scheduling component's ordinal (its position
	// among VCALENDAR's direct children) to its persisted Component.ID.
	topLevelIDs := make(map[int]string)
	for _, row := range comps {
		if row.EntityID == entityID && isSchedulingCompName(row.Name) {
			topLevelIDs[row.Ordinal] = row.ID
		}
	}

	var out []*model.CalIndex
	for _, c := range cal.Root.Children {
		if !isSchedulingCompName(c.Name) {
			continue
		}
		idx := &model.CalIndex{
			ID:            newRowID(),
			EntityID:      entityID,
			ComponentID:   topLevelIDs[c.Ordinal],
			ComponentType: c.Name,
		}
		if uid := c.Get(ical.PropUID); uid != nil {
			idx.UID = textValue(uid)
		}
		if recID := c.Get(ical.PropRecurrenceID); recID != nil {
			if dv, ok := recID.Value.(ical.DateTimeValue); ok {
				t := ical.ResolveDateTimeValue(cal, dv).UTC()
				idx.RecurrenceIDUTC = &t
			}
		}
		if dtstart := c.Get(ical.PropDateTimeStart); dtstart != nil {
			if dv, ok := dtstart.Value.(ical.DateTimeValue); ok {
				t := ical.ResolveDateTimeValue(cal, dv).UTC()
				idx.DTStartUTC = &t
				idx.AllDay = dv.IsDateOnly
				idx.TZID = dtstart.ParamValue(ical.PropTZID)
			}
		}
		idx.DTEndUTC = deriveEndUTC(cal, c, idx.DTStartUTC, idx.AllDay)
		if s := c.Get(ical.PropSummary); s != nil {
			idx.Summary = textValue(s)
		}
		if org := c.Get(ical.PropOrganizer); org != nil {
			idx.Organizer = org.Raw
		}
		idx.Transparency = model.TransparencyOpaque
		if tr := c.Get(ical.PropTranspency); tr != nil {
			idx.Transparency = model.Transparency(strings.ToUpper(textValue(tr)))
		}
		if st := c.Get(ical.PropStatus); st != nil {
			idx.Status = model.EventStatus(strings.ToUpper(textValue(st)))
		}
		if rr := c.Get(ical.PropRecurrenceRule); rr != nil {
			idx.RRuleText = rr.Raw
		}
		out = append(out, idx)
	}
	return out
}

func isSchedulingCompName(name string) bool {
	switch name {
	case ical.CompEvent, ical.CompToDo, ical.CompJournal, ical.CompFreeBusy:
		return true
	default:
		return false
	}
}

// deriveEndUTC applies the RFC 4791 §9.9 end-derivation table: DTEND, or
// DTSTART+DURATION, or DTSTART+P1D for all-day, or DTSTART itself for an
// instantaneous component.
func deriveEndUTC(cal *ical.Calendar, c *ical.Component, startUTC *time.Time, allDay bool) *time.Time {
	if dtend := c.Get(ical.PropDateTimeEnd); dtend != nil {
		if dv, ok := dtend.Value.(ical.DateTimeValue); ok {
			t := ical.ResolveDateTimeValue(cal, dv).UTC()
			return &t
		}
	}
	if startUTC == nil {
		return nil
	}
	if dur := c.Get(ical.PropDuration); dur != nil {
		if dv, ok := dur.Value.(ical.DurationValue); ok {
			t := startUTC.Add(dv.AsTimeDuration())
			return &t
		}
	}
	if allDay {
		t := startUTC.Add(24 * time.Hour)
		return &t
	}
	t := *startUTC
	return &t
}

func textValue(p *ical.Property) string {
	if t, ok := p.Value.(ical.TextValue); ok {
		return string(t)
	}
	return ical.UnescapeText(p.Raw)
}

// BuildCalOccurrences expands every recurring/standalone event in cal up
// to [now, now+horizon) and maps each occurrence back to the CalIndex
// row it belongs to (the master's row for a generated occurrence, the
// override's own row when one exists), per spec §4.5/§4.7.
func BuildCalOccurrences(cal *ical.Calendar, entityID string, idx []*model.CalIndex, now time.Time, horizon time.Duration) ([]*model.CalOccurrence, error) {
	events, err := ical.ExtractEvents(cal, nil)
	if err != nil {
		return nil, err
	}

	byUIDRecID := make(map[string]*model.CalIndex)
	masterByUID := make(map[string]*model.CalIndex)
	for _, row := range idx {
		if row.ComponentType != ical.CompEvent && row.ComponentType != ical.CompToDo && row.ComponentType != ical.CompJournal {
			continue
		}
		if row.RecurrenceIDUTC != nil {
			byUIDRecID[row.UID+"|"+row.RecurrenceIDUTC.Format(time.RFC3339Nano)] = row
		} else {
			masterByUID[row.UID] = row
		}
	}

	expander := ical.NewRecurrenceExpander(time.UTC)
	expanded, err := expander.ExpandRecurrences(events, now, now.Add(horizon))
	if err != nil {
		return nil, err
	}

	var out []*model.CalOccurrence
	for _, ev := range expanded {
		row, isOverride := resolveOccurrenceComponent(ev, byUIDRecID, masterByUID)
		if row == nil {
			continue
		}
		out = append(out, &model.CalOccurrence{
			ID:          newRowID(),
			EntityID:    entityID,
			ComponentID: row.ComponentID,
			DTStartUTC:  ev.Start.UTC(),
			DTEndUTC:    ev.End.UTC(),
			IsOverride:  isOverride,
		})
	}
	return out, nil
}

func resolveOccurrenceComponent(ev *ical.Event, byUIDRecID map[string]*model.CalIndex, masterByUID map[string]*model.CalIndex) (*model.CalIndex, bool) {
	if ev.RecurrenceID != nil {
		key := ev.UID + "|" + ev.RecurrenceID.UTC().Format(time.RFC3339Nano)
		if row, ok := byUIDRecID[key]; ok {
			return row, true
		}
	}
	if row, ok := masterByUID[ev.UID]; ok {
		return row, ev.RecurrenceID != nil
	}
	return nil, false
}

// BuildCardIndex produces the card_index/card_email/card_phone rows for
// one vCard entity (spec §4.7 normalization rules: email lowercased,
// phone digits-only, FN case-folded).
func BuildCardIndex(card *vcard.Card, entityID string) (*model.CardIndex, []*model.CardEmail, []*model.CardPhone) {
	idx := &model.CardIndex{ID: newRowID(), EntityID: entityID}
	if fn := card.Get(vcard.PropFN); fn != nil {
		idx.FNRaw = vcard.UnescapeText(fn.Raw)
		idx.FNNormalized = caseFold(idx.FNRaw)
	}
	if n := card.Get(vcard.PropN); n != nil {
		parsed := vcard.ParseName(n.Raw)
		idx.FamilyName = strings.Join(parsed.Family, ",")
		idx.GivenName = strings.Join(parsed.Given, ",")
		idx.AdditionalNames = strings.Join(parsed.Additional, ",")
	}
	if org := card.Get(vcard.PropOrg); org != nil {
		idx.Org = strings.Join(vcard.ParseOrganization(org.Raw), ";")
	}
	if title := card.Get(vcard.PropTitle); title != nil {
		idx.Title = vcard.UnescapeText(title.Raw)
	}

	var emails []*model.CardEmail
	for _, p := range card.Values(vcard.PropEmail) {
		emails = append(emails, &model.CardEmail{
			ID:       newRowID(),
			EntityID: entityID,
			Address:  strings.ToLower(vcard.UnescapeText(p.Raw)),
			Pref:     prefOf(p),
		})
	}
	var phones []*model.CardPhone
	for _, p := range card.Values(vcard.PropTel) {
		phones = append(phones, &model.CardPhone{
			ID:       newRowID(),
			EntityID: entityID,
			Digits:   digitsOnly(p.Raw),
			Pref:     prefOf(p),
		})
	}
	return idx, emails, phones
}

func prefOf(p *vcard.Property) int {
	if v := p.ParamValue(vcard.ParamPreferred); v != "" {
		if v == "1" {
			return 1
		}
	}
	return 0
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func caseFold(s string) string {
	return strings.ToLower(strings.Map(unicode.ToLower, s))
}
