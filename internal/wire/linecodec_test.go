package wire

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnfoldJoinsContinuations(t *testing.T) {
	in := "SUMMARY:Team\r\n Meeting\r\nUID:u1\r\n"
	lines, err := Unfold([]byte(in))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "SUMMARY:TeamMeeting", string(lines[0]))
	assert.Equal(t, "UID:u1", string(lines[1]))
}

func TestUnfoldAcceptsBareLF(t *testing.T) {
	in := "SUMMARY:Foo\n Bar\nUID:u1"
	lines, err := Unfold([]byte(in))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "SUMMARY:FooBar", string(lines[0]))
}

func TestUnfoldStripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("UID:u1\r\n")...)
	lines, err := Unfold(in)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "UID:u1", string(lines[0]))
}

func TestUnfoldRejectsControlOctets(t *testing.T) {
	_, err := Unfold([]byte("UID:u\x01 1\r\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestFoldRoundTrip(t *testing.T) {
	long := "DESCRIPTION:" + string(bytes.Repeat([]byte("a"), 200))
	var buf bytes.Buffer
	Fold(&buf, []byte(long))

	lines, err := Unfold(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, long, string(lines[0]))

	// every physical line must be <=75 octets
	for _, physical := range bytes.Split(bytes.TrimRight(buf.Bytes(), "\r\n"), []byte("\r\n")) {
		assert.LessOrEqual(t, len(physical), maxFoldOctets)
	}
}

func TestFoldDoesNotSplitUTF8Sequence(t *testing.T) {
	// four-byte code point straddling the fold boundary
	prefix := bytes.Repeat([]byte("x"), 65)
	rune4 := []byte{0xF0, 0x9F, 0x98, 0x80} // an emoji, 4 bytes
	line := append([]byte("SUMMARY:"), append(prefix, rune4...)...)

	var buf bytes.Buffer
	Fold(&buf, line)

	for _, physical := range bytes.Split(bytes.TrimRight(buf.Bytes(), "\r\n"), []byte("\r\n")) {
		if len(physical) == 0 {
			continue
		}
		assert.True(t, utf8.Valid(physical), "physical line must not end mid code point")
	}

	lines, err := Unfold(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, line, lines[0])
}

func TestSplitContentLineBasic(t *testing.T) {
	name, params, value, err := SplitContentLine([]byte(`DTSTART;TZID=America/New_York:20260301T093000`))
	require.NoError(t, err)
	assert.Equal(t, "DTSTART", name)
	require.Len(t, params, 1)
	assert.Equal(t, "TZID", params[0].Name)
	assert.Equal(t, []string{"America/New_York"}, params[0].Values)
	assert.Equal(t, "20260301T093000", value)
}

func TestSplitContentLineQuotedParam(t *testing.T) {
	name, params, value, err := SplitContentLine([]byte(`ATTENDEE;CN="Doe, Jane":mailto:jane@example.com`))
	require.NoError(t, err)
	assert.Equal(t, "ATTENDEE", name)
	require.Len(t, params, 1)
	assert.Equal(t, []string{"Doe, Jane"}, params[0].Values)
	assert.Equal(t, "mailto:jane@example.com", value)
}

func TestSplitContentLineUnterminatedQuote(t *testing.T) {
	_, _, _, err := SplitContentLine([]byte(`ATTENDEE;CN="Jane:mailto:jane@example.com`))
	assert.ErrorIs(t, err, ErrMalformedParam)
}

func TestCaretEscaping(t *testing.T) {
	assert.Equal(t, "a^b", UnescapeCaret("a^^b"))
	assert.Equal(t, "a\nb", UnescapeCaret("a^nb"))
	assert.Equal(t, `a"b`, UnescapeCaret("a^'b"))
	assert.Equal(t, "a^^b", EscapeCaret("a^b"))
}
