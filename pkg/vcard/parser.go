package vcard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/calcore/davcore/internal/wire"
)

// ErrNoBegin is returned when the content stream has no BEGIN:VCARD line.
var ErrNoBegin = errors.New("vcard: missing BEGIN:VCARD")

// ErrUnbalanced is returned when BEGIN:VCARD has no matching END:VCARD,
// or multiple cards are nested (vCard, unlike iCalendar, never nests).
var ErrUnbalanced = errors.New("vcard: unbalanced BEGIN/END")

// ParseCard parses a single VCARD object from raw bytes. A stream
// containing more than one VCARD (the common case for an addressbook
// export) should be split first with ParseCards.
func ParseCard(data []byte) (*Card, error) {
	cards, err := ParseCards(data)
	if err != nil {
		return nil, err
	}
	if len(cards) != 1 {
		return nil, fmt.Errorf("vcard: expected exactly one VCARD, got %d", len(cards))
	}
	return cards[0], nil
}

// ParseCards parses every VCARD object in a content stream, in order.
func ParseCards(data []byte) ([]*Card, error) {
	lines, err := wire.Unfold(data)
	if err != nil {
		return nil, fmt.Errorf("vcard: %w", err)
	}

	var cards []*Card
	var cur *Card
	open := false

	for _, raw := range lines {
		name, params, value, err := wire.SplitContentLine(raw)
		if err != nil {
			return nil, fmt.Errorf("vcard: %w", err)
		}
		group, bareName := splitGroup(name)

		switch strings.ToUpper(bareName) {
		case "BEGIN":
			if open {
				return nil, fmt.Errorf("%w: nested BEGIN:VCARD", ErrUnbalanced)
			}
			if !strings.EqualFold(value, "VCARD") {
				return nil, fmt.Errorf("vcard: unexpected BEGIN:%s", value)
			}
			cur = &Card{}
			open = true
			continue
		case "END":
			if !open {
				return nil, fmt.Errorf("%w: END with no open VCARD", ErrUnbalanced)
			}
			if !strings.EqualFold(value, "VCARD") {
				return nil, fmt.Errorf("vcard: unexpected END:%s", value)
			}
			cards = append(cards, cur)
			cur = nil
			open = false
			continue
		}

		if !open {
			return nil, fmt.Errorf("%w", ErrNoBegin)
		}
		p := &Property{Group: group, Name: strings.ToUpper(bareName), Raw: value}
		for _, wp := range params {
			p.Params = append(p.Params, &Parameter{Name: wp.Name, Values: wp.Values})
		}
		cur.Add(p)
	}

	if open {
		return nil, fmt.Errorf("%w: VCARD never closed", ErrUnbalanced)
	}
	if len(cards) == 0 {
		return nil, ErrNoBegin
	}
	return cards, nil
}

// splitGroup separates a leading "group." tag (RFC 6350 §3.3) from the
// property name, e.g. "item1.EMAIL" -> ("item1", "EMAIL").
func splitGroup(name string) (group, bareName string) {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}
