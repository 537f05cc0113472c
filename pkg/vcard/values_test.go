package vcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameRoundTrip(t *testing.T) {
	n := ParseName(`Doe;John;Quincy;Dr.;Jr.`)
	assert.Equal(t, []string{"Doe"}, n.Family)
	assert.Equal(t, []string{"John"}, n.Given)
	assert.Equal(t, "Dr. John Quincy Doe Jr.", n.DisplayName())
	assert.Equal(t, `Doe;John;Quincy;Dr.;Jr.`, n.Encode())
}

func TestParseNameMissingTrailingSlots(t *testing.T) {
	n := ParseName(`Doe;John;;;`)
	assert.Equal(t, []string{"Doe"}, n.Family)
	assert.Nil(t, n.Prefixes)
}

func TestParseAddressRoundTrip(t *testing.T) {
	a := ParseAddress(`;;123 Main St;Springfield;IL;62704;USA`)
	assert.Equal(t, []string{"123 Main St"}, a.Street)
	assert.Equal(t, []string{"Springfield"}, a.Locality)
	assert.Equal(t, `;;123 Main St;Springfield;IL;62704;USA`, a.Encode())
}

func TestParseOrganizationVariableLength(t *testing.T) {
	org := ParseOrganization(`ACME Inc.;Engineering;Platform`)
	assert.Equal(t, Organization{"ACME Inc.", "Engineering", "Platform"}, org)
	assert.Equal(t, `ACME Inc.;Engineering;Platform`, org.Encode())
}

func TestParseDateFullySpecified(t *testing.T) {
	d, err := ParseDate("19850412")
	require.NoError(t, err)
	assert.True(t, d.HasYear && d.HasMonth && d.HasDay)
	assert.Equal(t, 1985, d.Year)
	assert.Equal(t, "19850412", d.Encode())
}

func TestParseDateTruncatedForms(t *testing.T) {
	cases := map[string]DateValue{
		"1985":     {Year: 1985, HasYear: true},
		"1985-04":  {Year: 1985, Month: 4, HasYear: true, HasMonth: true},
		"--0412":   {Month: 4, Day: 12, HasMonth: true, HasDay: true},
		"---12":    {Day: 12, HasDay: true},
	}
	for raw, want := range cases {
		got, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, raw, got.Encode(), raw)
	}
}

func TestParseTimeWithUTCDesignator(t *testing.T) {
	tv, err := ParseTime("T102200Z")
	require.NoError(t, err)
	assert.Equal(t, 10, tv.Hour)
	assert.Equal(t, 22, tv.Minute)
	assert.Equal(t, 0, tv.Second)
	assert.True(t, tv.UTC)
	assert.Equal(t, "102200Z", tv.Encode())
}

func TestParseTimeWithOffset(t *testing.T) {
	tv, err := ParseTime("T1022-0500")
	require.NoError(t, err)
	assert.True(t, tv.HasOffset)
	assert.Equal(t, -1, tv.OffsetSign)
	assert.Equal(t, 5, tv.OffsetHour)
}

func TestSplitTextListUnescapesCommas(t *testing.T) {
	got := SplitTextList(`work\,home,family`)
	assert.Equal(t, []string{"work,home", "family"}, got)
}

func TestEscapeUnescapeTextRoundTrip(t *testing.T) {
	s := "line1\nline2; with, commas \\ backslash"
	assert.Equal(t, s, UnescapeText(EscapeText(s)))
}
