package ical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTZIDFallsBackToIANA(t *testing.T) {
	cal := &Calendar{Root: &Component{Name: CompCalendar}}
	loc, err := ResolveTZID(cal, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestResolveTZIDEmptyIsUTC(t *testing.T) {
	cal := &Calendar{Root: &Component{Name: CompCalendar}}
	loc, err := ResolveTZID(cal, "")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestResolveTZIDRejectsUnknownZone(t *testing.T) {
	cal := &Calendar{Root: &Component{Name: CompCalendar}}
	_, err := ResolveTZID(cal, "Not/A_Real_Zone")
	assert.Error(t, err)
}

func TestResolveEmbeddedTZIDUsesVTimezoneOffset(t *testing.T) {
	root := &Component{Name: CompCalendar}
	vtz := &Component{Name: CompTimezone}
	vtz.Add(&Property{Name: PropTZID, Value: TextValue("Custom/Zone")})
	std := &Component{Name: CompStandard}
	off, err := ParseUTCOffset("-0300")
	require.NoError(t, err)
	std.Add(&Property{Name: PropTZOffsetTo, Value: off})
	std.Add(&Property{Name: PropTZName, Value: TextValue("CUSTOM")})
	vtz.AddChild(std)
	root.AddChild(vtz)

	cal := &Calendar{Root: root}
	loc, ok := ResolveEmbeddedTZID(cal, "Custom/Zone")
	require.True(t, ok)
	assert.Equal(t, "CUSTOM", loc.String())
}
