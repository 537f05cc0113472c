package vcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCard = "BEGIN:VCARD\r\n" +
	"VERSION:4.0\r\n" +
	"FN:John Doe\r\n" +
	"N:Doe;John;;;\r\n" +
	"EMAIL;TYPE=work:john@example.com\r\n" +
	"item1.EMAIL;TYPE=home:john@home.example\r\n" +
	"item1.X-ABLABEL:Personal\r\n" +
	"UID:11111111-1111-1111-1111-111111111111\r\n" +
	"END:VCARD\r\n"

func TestParseCardsBuildsPropertyList(t *testing.T) {
	cards, err := ParseCards([]byte(sampleCard))
	require.NoError(t, err)
	require.Len(t, cards, 1)

	c := cards[0]
	assert.Equal(t, "John Doe", c.Get(PropFN).Raw)
	assert.Equal(t, 2, len(c.Values(PropEmail)))
}

func TestParseCardsGroupTagAssociation(t *testing.T) {
	cards, err := ParseCards([]byte(sampleCard))
	require.NoError(t, err)
	members := cards[0].GroupMembers("item1")
	require.Len(t, members, 2)
	var label *Property
	for _, m := range members {
		if m.Name == PropXABLabel {
			label = m
		}
	}
	require.NotNil(t, label)
	assert.Equal(t, "Personal", label.Raw)
}

func TestParseCardsRejectsMissingBegin(t *testing.T) {
	_, err := ParseCards([]byte("VERSION:4.0\r\nEND:VCARD\r\n"))
	assert.Error(t, err)
}

func TestParseCardsRejectsUnclosed(t *testing.T) {
	_, err := ParseCards([]byte("BEGIN:VCARD\r\nVERSION:4.0\r\n"))
	assert.Error(t, err)
}

func TestParseCardsMultipleCardsInStream(t *testing.T) {
	stream := sampleCard + sampleCard
	cards, err := ParseCards([]byte(stream))
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestSerializeCardRoundTrip(t *testing.T) {
	cards, err := ParseCards([]byte(sampleCard))
	require.NoError(t, err)
	out := SerializeCard(cards[0])

	reparsed, err := ParseCards(out)
	require.NoError(t, err)
	require.Len(t, reparsed, 1)
	assert.Equal(t, "John Doe", reparsed[0].Get(PropFN).Raw)
	assert.Equal(t, 2, len(reparsed[0].Values(PropEmail)))
}

func TestSerializeCardFoldsLongLines(t *testing.T) {
	c := &Card{}
	c.Add(&Property{Name: PropVersion, Raw: "4.0"})
	c.Add(&Property{Name: PropFN, Raw: "Long Name"})
	longNote := ""
	for i := 0; i < 30; i++ {
		longNote += "0123456789"
	}
	c.Add(&Property{Name: "NOTE", Raw: longNote})

	out := SerializeCard(c)
	for _, line := range splitLines(out) {
		assert.LessOrEqual(t, len(line), 75)
	}
}

func splitLines(data []byte) []string {
	var lines []string
	var cur []byte
	for _, b := range data {
		if b == '\n' {
			lines = append(lines, string(cur))
			cur = nil
			continue
		}
		if b == '\r' {
			continue
		}
		cur = append(cur, b)
	}
	return lines
}

func TestCardSetReplacesExisting(t *testing.T) {
	c := &Card{}
	c.Add(&Property{Name: PropFN, Raw: "Old"})
	c.Set(&Property{Name: PropFN, Raw: "New"})
	assert.Len(t, c.Properties, 1)
	assert.Equal(t, "New", c.Get(PropFN).Raw)
}

func TestCardDelRemovesAllMatching(t *testing.T) {
	c := &Card{}
	c.Add(&Property{Name: PropEmail, Raw: "a@example.com"})
	c.Add(&Property{Name: PropEmail, Raw: "b@example.com"})
	c.Del(PropEmail)
	assert.Empty(t, c.Values(PropEmail))
}
