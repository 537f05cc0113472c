package ical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEvent = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//calcore//davcore//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1@example.com\r\n" +
	"DTSTAMP:20260301T090000Z\r\n" +
	"DTSTART;TZID=America/New_York:20260315T093000\r\n" +
	"DTEND;TZID=America/New_York:20260315T103000\r\n" +
	"SUMMARY:Team Sync\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseCalendarBuildsTree(t *testing.T) {
	cal, err := ParseCalendar([]byte(sampleEvent))
	require.NoError(t, err)
	assert.Equal(t, CompCalendar, cal.Root.Name)
	require.Len(t, cal.MainComponents(), 1)

	ev := cal.MainComponents()[0]
	assert.Equal(t, CompEvent, ev.Name)
	uid := ev.Get(PropUID)
	require.NotNil(t, uid)
	assert.Equal(t, TextValue("event-1@example.com"), uid.Value)

	dtstart := ev.Get(PropDateTimeStart)
	require.NotNil(t, dtstart)
	dv, ok := dtstart.Value.(DateTimeValue)
	require.True(t, ok)
	assert.Equal(t, "America/New_York", dv.TZID)
}

func TestParseCalendarRejectsUnbalanced(t *testing.T) {
	_, err := ParseCalendar([]byte("BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nEND:VCALENDAR\r\n"))
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestParseCalendarRejectsMissingVCALENDAR(t *testing.T) {
	_, err := ParseCalendar([]byte("BEGIN:VEVENT\r\nUID:x\r\nEND:VEVENT\r\n"))
	assert.Error(t, err)
}

func TestSerializeCalendarRoundTrip(t *testing.T) {
	cal, err := ParseCalendar([]byte(sampleEvent))
	require.NoError(t, err)

	out := SerializeCalendar(cal)
	reparsed, err := ParseCalendar(out)
	require.NoError(t, err)

	assert.Equal(t, cal.UID(), reparsed.UID())
	assert.Equal(t, len(cal.MainComponents()), len(reparsed.MainComponents()))
}

func TestSerializeCalendarIsDeterministic(t *testing.T) {
	cal, err := ParseCalendar([]byte(sampleEvent))
	require.NoError(t, err)

	a := SerializeCalendar(cal)
	cal2, err := ParseCalendar([]byte(sampleEvent))
	require.NoError(t, err)
	b := SerializeCalendar(cal2)

	assert.Equal(t, a, b)
}

func TestNormalizeICSIsIdempotent(t *testing.T) {
	once, err := NormalizeICS([]byte(sampleEvent))
	require.NoError(t, err)
	twice, err := NormalizeICS(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestDetectICSComponent(t *testing.T) {
	name, err := DetectICSComponent([]byte(sampleEvent))
	require.NoError(t, err)
	assert.Equal(t, CompEvent, name)
}

func TestEnsureDTStampAddsWhenMissing(t *testing.T) {
	noStamp := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nBEGIN:VEVENT\r\nUID:x\r\nDTSTART:20260101T000000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"
	out, modified := EnsureDTStamp([]byte(noStamp))
	assert.True(t, modified)

	cal, err := ParseCalendar(out)
	require.NoError(t, err)
	require.NotNil(t, cal.MainComponents()[0].Get(PropDateTimeStamp))
}

func TestEnsureDTStampNoopWhenPresent(t *testing.T) {
	_, modified := EnsureDTStamp([]byte(sampleEvent))
	assert.False(t, modified)
}
