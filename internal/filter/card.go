package filter

import "github.com/calcore/davcore/pkg/vcard"

// Test is the CARDDAV:filter / CARDDAV:prop-filter "test" attribute:
// whether member filters combine with AND or OR.
type Test string

const (
	TestAnyOf Test = "anyof"
	TestAllOf Test = "allof"
)

// CardFilter mirrors CARDDAV:filter: a set of prop-filters combined by
// Test (defaulting to anyof per RFC 6352 §10.5.1).
type CardFilter struct {
	Test  Test
	Props []CardPropFilter
}

// CardPropFilter mirrors CARDDAV:prop-filter.
type CardPropFilter struct {
	Name         string
	IsNotDefined bool
	Test         Test
	TextMatches  []TextMatch
	Params       []ParamFilter
}

// MatchCard evaluates f against card.
func MatchCard(f CardFilter, card *vcard.Card) (bool, error) {
	if len(f.Props) == 0 {
		return true, nil
	}
	test := f.Test
	if test == "" {
		test = TestAnyOf
	}

	matched := 0
	for _, pf := range f.Props {
		ok, err := matchCardProp(pf, card)
		if err != nil {
			return false, err
		}
		if ok {
			matched++
			if test == TestAnyOf {
				return true, nil
			}
		} else if test == TestAllOf {
			return false, nil
		}
	}
	if test == TestAllOf {
		return matched == len(f.Props), nil
	}
	return false, nil
}

func matchCardProp(f CardPropFilter, card *vcard.Card) (bool, error) {
	props := card.Values(f.Name)
	if len(props) == 0 {
		return f.IsNotDefined, nil
	}
	if f.IsNotDefined {
		return false, nil
	}

	test := f.Test
	if test == "" {
		test = TestAnyOf
	}

	// A param-filter scopes to a single property instance: of the (possibly
	// repeated) EMAIL/TEL/etc. instances, only those satisfying every
	// param-filter are candidates for the text-match test below.
	var candidates []*vcard.Property
	for _, p := range props {
		ok := true
		for _, pf := range f.Params {
			if !matchCardParam(pf, p) {
				ok = false
				break
			}
		}
		if ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return false, nil
	}

	if len(f.TextMatches) == 0 {
		return true, nil
	}

	matched := 0
	for _, tm := range f.TextMatches {
		any := false
		for _, p := range candidates {
			ok, err := MatchText(tm, vcard.UnescapeText(p.Raw))
			if err != nil {
				return false, err
			}
			if ok {
				any = true
				break
			}
		}
		if any {
			matched++
			if test == TestAnyOf {
				return true, nil
			}
		} else if test == TestAllOf {
			return false, nil
		}
	}
	if test == TestAllOf {
		return matched == len(f.TextMatches), nil
	}
	return false, nil
}

func matchCardParam(f ParamFilter, p *vcard.Property) bool {
	v := p.ParamValue(f.Name)
	if v == "" {
		return f.IsNotDefined
	}
	if f.IsNotDefined {
		return false
	}
	if f.TextMatch != nil {
		ok, _ := MatchText(*f.TextMatch, v)
		return ok
	}
	return true
}
