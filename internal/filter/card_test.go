package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calcore/davcore/pkg/vcard"
)

const sampleVCF = "BEGIN:VCARD\r\n" +
	"VERSION:4.0\r\n" +
	"UID:c1@example.com\r\n" +
	"FN:Jane Doe\r\n" +
	"EMAIL;TYPE=work:jane@example.com\r\n" +
	"EMAIL;TYPE=home:jane.doe@home.example\r\n" +
	"END:VCARD\r\n"

func parseOneCard(t *testing.T, src string) *vcard.Card {
	t.Helper()
	card, err := vcard.ParseCard([]byte(src))
	require.NoError(t, err)
	return card
}

func TestMatchCardNoPropsAlwaysMatches(t *testing.T) {
	card := parseOneCard(t, sampleVCF)
	ok, err := MatchCard(CardFilter{}, card)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchCardAnyOfShortCircuits(t *testing.T) {
	card := parseOneCard(t, sampleVCF)
	f := CardFilter{
		Test: TestAnyOf,
		Props: []CardPropFilter{
			{Name: "NICKNAME"},
			{Name: "FN", TextMatches: []TextMatch{{Text: "jane", MatchType: MatchContains}}},
		},
	}
	ok, err := MatchCard(f, card)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchCardAllOfRequiresEveryProp(t *testing.T) {
	card := parseOneCard(t, sampleVCF)
	f := CardFilter{
		Test: TestAllOf,
		Props: []CardPropFilter{
			{Name: "FN", TextMatches: []TextMatch{{Text: "jane", MatchType: MatchContains}}},
			{Name: "NICKNAME"},
		},
	}
	ok, err := MatchCard(f, card)
	require.NoError(t, err)
	require.False(t, ok, "NICKNAME is absent so allof fails")
}

func TestMatchCardPropIsNotDefined(t *testing.T) {
	card := parseOneCard(t, sampleVCF)
	f := CardFilter{Props: []CardPropFilter{{Name: "NICKNAME", IsNotDefined: true}}}
	ok, err := MatchCard(f, card)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchCardParamFilter(t *testing.T) {
	card := parseOneCard(t, sampleVCF)
	tm := TextMatch{Text: "work", MatchType: MatchEquals}
	f := CardFilter{Props: []CardPropFilter{
		{Name: "EMAIL", Params: []ParamFilter{{Name: "TYPE", TextMatch: &tm}}},
	}}
	ok, err := MatchCard(f, card)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchCardParamFilterNoMatch(t *testing.T) {
	card := parseOneCard(t, sampleVCF)
	tm := TextMatch{Text: "mobile", MatchType: MatchEquals}
	f := CardFilter{Test: TestAllOf, Props: []CardPropFilter{
		{Name: "EMAIL", Params: []ParamFilter{{Name: "TYPE", TextMatch: &tm}}},
	}}
	ok, err := MatchCard(f, card)
	require.NoError(t, err)
	require.False(t, ok, "neither EMAIL instance has TYPE=mobile")
}
