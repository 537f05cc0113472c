package ical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTimeVariants(t *testing.T) {
	d, err := ParseDateTime("20260315", "")
	require.NoError(t, err)
	assert.True(t, d.IsDateOnly)
	assert.Equal(t, "20260315", d.Encode())

	floating, err := ParseDateTime("20260315T093000", "")
	require.NoError(t, err)
	assert.True(t, floating.IsFloating)

	withTZ, err := ParseDateTime("20260315T093000", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", withTZ.TZID)

	utc, err := ParseDateTime("20260315T093000Z", "")
	require.NoError(t, err)
	assert.False(t, utc.IsFloating)
	assert.Equal(t, "20260315T093000Z", utc.Encode())
}

func TestParseDurationVariants(t *testing.T) {
	cases := map[string]time.Duration{
		"PT15M":      15 * time.Minute,
		"P1D":        24 * time.Hour,
		"P1DT2H3M4S": 24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second,
		"-PT1H":      -1 * time.Hour,
		"P2W":        14 * 24 * time.Hour,
	}
	for raw, want := range cases {
		dv, err := ParseDuration(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, dv.AsTimeDuration(), raw)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	dv, err := ParseDuration("P1DT2H3M4S")
	require.NoError(t, err)
	assert.Equal(t, "P1DT2H3M4S", dv.Encode())
}

func TestParseUTCOffset(t *testing.T) {
	v, err := ParseUTCOffset("-0500")
	require.NoError(t, err)
	assert.True(t, v.Negative)
	assert.Equal(t, -5*time.Hour, v.AsDuration())
	assert.Equal(t, "-0500", v.Encode())
}

func TestTextEscaping(t *testing.T) {
	raw := "Line one\nhas a; semicolon, a comma and a \\backslash"
	escaped := EscapeText(raw)
	assert.Equal(t, raw, UnescapeText(escaped))
}

func TestTextListSplitsOnUnescapedComma(t *testing.T) {
	list := TextList(`Work,Personal\,Urgent`)
	assert.Equal(t, []string{"Work", "Personal,Urgent"}, list)
}

func TestParsePeriodExplicitEnd(t *testing.T) {
	p, err := ParsePeriod("20260101T000000Z/20260102T000000Z", "")
	require.NoError(t, err)
	assert.True(t, p.IsExplicitEnd)
	assert.Equal(t, "20260101T000000Z/20260102T000000Z", p.Encode())
}

func TestParsePeriodDuration(t *testing.T) {
	p, err := ParsePeriod("20260101T000000Z/PT1H", "")
	require.NoError(t, err)
	assert.False(t, p.IsExplicitEnd)
	assert.Equal(t, time.Hour, p.Duration.AsTimeDuration())
}

func TestParseRecurRequiresFreq(t *testing.T) {
	_, err := ParseRecur("COUNT=5")
	assert.Error(t, err)

	rv, err := ParseRecur("FREQ=DAILY;COUNT=5")
	require.NoError(t, err)
	assert.Equal(t, "FREQ=DAILY;COUNT=5", rv.Encode())
}
