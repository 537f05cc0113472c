package vcard

import (
	"bytes"
	"sort"
	"strings"

	"github.com/calcore/davcore/internal/wire"
)

// SerializeCard renders a Card to its canonical wire form: properties in
// Ordinal order, BEGIN/END:VCARD wrapping, CRLF line endings, folded at
// 75 octets.
func SerializeCard(c *Card) []byte {
	var buf bytes.Buffer
	wire.Fold(&buf, []byte("BEGIN:VCARD"))

	props := make([]*Property, len(c.Properties))
	copy(props, c.Properties)
	sort.SliceStable(props, func(i, j int) bool { return props[i].Ordinal < props[j].Ordinal })

	for _, p := range props {
		writeProperty(&buf, p)
	}

	wire.Fold(&buf, []byte("END:VCARD"))
	return buf.Bytes()
}

func writeProperty(buf *bytes.Buffer, p *Property) {
	var line strings.Builder
	if p.Group != "" {
		line.WriteString(p.Group)
		line.WriteByte('.')
	}
	line.WriteString(p.Name)
	for _, param := range p.Params {
		line.WriteByte(';')
		line.WriteString(param.Name)
		line.WriteByte('=')
		for i, v := range param.Values {
			if i > 0 {
				line.WriteByte(',')
			}
			line.WriteString(writeParamValue(v))
		}
	}
	line.WriteByte(':')
	line.WriteString(p.Raw)
	wire.Fold(buf, []byte(line.String()))
}

func writeParamValue(v string) string {
	if wire.NeedsQuoting(v) {
		return `"` + wire.EscapeCaret(v) + `"`
	}
	return wire.EscapeCaret(v)
}
