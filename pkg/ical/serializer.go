package ical

import (
	"bytes"

	"github.com/calcore/davcore/internal/wire"
)

// SerializeCalendar renders a Calendar back to wire bytes (CRLF, folded
// at 75 octets), preserving component/property ordinal order. Properties
// whose Value is non-nil are re-encoded from the typed value; properties
// with a nil Value (round-tripped verbatim, or multi-value TEXT like
// CATEGORIES) are emitted from Raw unchanged.
func SerializeCalendar(cal *Calendar) []byte {
	var buf bytes.Buffer
	writeComponent(&buf, cal.Root)
	return buf.Bytes()
}

func writeComponent(buf *bytes.Buffer, c *Component) {
	wire.Fold(buf, []byte("BEGIN:"+c.Name))
	for _, p := range c.Props {
		writeProperty(buf, p)
	}
	for _, ch := range c.Children {
		writeComponent(buf, ch)
	}
	wire.Fold(buf, []byte("END:"+c.Name))
}

func writeProperty(buf *bytes.Buffer, p *Property) {
	var line bytes.Buffer
	line.WriteString(p.Name)
	for _, param := range p.Params {
		line.WriteByte(';')
		line.WriteString(param.Name)
		line.WriteByte('=')
		for i, v := range param.Values {
			if i > 0 {
				line.WriteByte(',')
			}
			writeParamValue(&line, v)
		}
	}
	line.WriteByte(':')
	if p.Value != nil {
		line.WriteString(p.Value.Encode())
	} else {
		line.WriteString(p.Raw)
	}
	wire.Fold(buf, line.Bytes())
}

func writeParamValue(buf *bytes.Buffer, v string) {
	if wire.NeedsQuoting(v) {
		buf.WriteByte('"')
		buf.WriteString(wire.EscapeCaret(v))
		buf.WriteByte('"')
		return
	}
	buf.WriteString(wire.EscapeCaret(v))
}
