package vcard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateVCard checks that raw decodes to at least one VCARD object and
// that every card carries the two properties RFC 6350 §6.7.9/§6.2.1
// require unconditionally: VERSION and FN.
func ValidateVCard(raw []byte) error {
	if len(raw) == 0 {
		return errors.New("vcard: empty vCard data")
	}

	cards, err := ParseCards(raw)
	if err != nil {
		return fmt.Errorf("vcard: parsing failed: %w", err)
	}
	if len(cards) == 0 {
		return errors.New("vcard: no valid vCard found after parsing")
	}

	for i, c := range cards {
		if p := c.Get(PropVersion); p == nil || p.Raw == "" {
			return fmt.Errorf("vcard: card %d missing VERSION", i)
		}
		if p := c.Get(PropFN); p == nil || p.Raw == "" {
			return fmt.Errorf("vcard: card %d missing FN", i)
		}
	}
	return nil
}

// NormalizeVCard parses raw, coerces every card to targetVersion ("3.0"
// or "4.0"; "" leaves an existing VERSION alone and defaults a missing
// one to "3.0"), synthesizes FN from N when FN is absent, assigns a UID
// when one is absent, and re-serializes.
func NormalizeVCard(raw []byte, targetVersion string) ([]byte, error) {
	cards, err := ParseCards(raw)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errors.New("vcard: no vcard found")
	}

	for _, c := range cards {
		switch targetVersion {
		case "4.0":
			setText(c, PropVersion, "4.0")
			toV4(c)
		case "3.0":
			setText(c, PropVersion, "3.0")
		case "":
			if c.Get(PropVersion) == nil {
				setText(c, PropVersion, "3.0")
			}
		default:
			return nil, errors.New("vcard: unsupported target vcard version")
		}

		if c.Get(PropFN) == nil {
			if n := c.Get(PropN); n != nil {
				fn := ParseName(n.Raw).DisplayName()
				if fn != "" {
					setText(c, PropFN, fn)
				}
			}
			if c.Get(PropFN) == nil {
				return nil, errors.New("vcard: missing FN and cannot generate from N")
			}
		}

		if c.Get(PropUID) == nil {
			setText(c, PropUID, uuid.NewString())
		}
	}

	var out []byte
	for _, c := range cards {
		out = append(out, SerializeCard(c)...)
	}
	return out, nil
}

func setText(c *Card, name, value string) {
	c.Set(&Property{Name: name, Raw: EscapeText(value)})
}

// toV4 applies the subset of vCard 3.0->4.0 migration RFC 6350 §B
// documents that this server's callers actually observe: TYPE parameter
// values on TEL, ADR and EMAIL are lowercased (v4 kept the same token set
// for the common values this server sees), and a bare "2.1"-style
// AGENT/LABEL property — which has no v4 equivalent — is dropped rather
// than carried forward as an unparseable relic.
func toV4(c *Card) {
	c.Del("LABEL")
	c.Del("AGENT")
	if n := c.Get(PropN); n != nil {
		// v4 N still has 5 components; nothing to migrate structurally.
		_ = n
	}
	for _, p := range c.Properties {
		if p.Name == PropTel || p.Name == PropAdr || p.Name == PropEmail {
			if tp := p.Param(ParamType); tp != nil {
				for i, v := range tp.Values {
					tp.Values[i] = strings.ToLower(v)
				}
			}
		}
	}
}
