package vcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVCardAcceptsWellFormed(t *testing.T) {
	err := ValidateVCard([]byte(sampleCard))
	assert.NoError(t, err)
}

func TestValidateVCardRejectsEmpty(t *testing.T) {
	assert.Error(t, ValidateVCard(nil))
}

func TestValidateVCardRejectsMissingFN(t *testing.T) {
	raw := "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:x\r\nEND:VCARD\r\n"
	assert.Error(t, ValidateVCard([]byte(raw)))
}

func TestNormalizeVCardGeneratesFNFromN(t *testing.T) {
	raw := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Doe;Jane;;;\r\nEND:VCARD\r\n"
	out, err := NormalizeVCard([]byte(raw), "")
	require.NoError(t, err)

	cards, err := ParseCards(out)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Jane Doe", cards[0].Get(PropFN).Raw)
	assert.NotNil(t, cards[0].Get(PropUID))
}

func TestNormalizeVCardDefaultsVersionTo3(t *testing.T) {
	raw := "BEGIN:VCARD\r\nFN:Jane Doe\r\nEND:VCARD\r\n"
	out, err := NormalizeVCard([]byte(raw), "")
	require.NoError(t, err)

	cards, err := ParseCards(out)
	require.NoError(t, err)
	assert.Equal(t, "3.0", cards[0].Get(PropVersion).Raw)
}

func TestNormalizeVCardUpgradesToV4(t *testing.T) {
	raw := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Jane Doe\r\nTEL;TYPE=CELL:+15551234567\r\nEND:VCARD\r\n"
	out, err := NormalizeVCard([]byte(raw), "4.0")
	require.NoError(t, err)

	cards, err := ParseCards(out)
	require.NoError(t, err)
	assert.Equal(t, "4.0", cards[0].Get(PropVersion).Raw)
	tel := cards[0].Get(PropTel)
	require.NotNil(t, tel)
	assert.Equal(t, "cell", tel.ParamValue(ParamType))
}

func TestNormalizeVCardRejectsUnsupportedVersion(t *testing.T) {
	raw := "BEGIN:VCARD\r\nVERSION:2.1\r\nFN:Jane Doe\r\nEND:VCARD\r\n"
	_, err := NormalizeVCard([]byte(raw), "5.0")
	assert.Error(t, err)
}
