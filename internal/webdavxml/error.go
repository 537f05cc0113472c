package webdavxml

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/direrr"
)

// RenderError builds the RFC 4918 §16 <D:error> precondition body for
// a direrr.Error: a namespaced empty element named after the violated
// precondition, the same shape cyp0633-libcaldora's xml.Error.ToElement
// produces, generalized to resolve the element's namespace from its
// "NS:local-name" form instead of a fixed DAV namespace.
func RenderError(err *direrr.Error) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("error")
	root.Space = nsPrefix[NSDAV]
	declareNamespaces(doc)

	ns, local := splitPreconditionElement(err.PreconditionElement())
	el := root.CreateElement(local)
	el.Space = nsPrefix[ns]
	if err.Href != "" {
		hrefEl := el.CreateElement("href")
		hrefEl.Space = nsPrefix[NSDAV]
		hrefEl.SetText(err.Href)
	}

	doc.Indent(2)
	out, _ := doc.WriteToBytes()
	return out
}

// splitPreconditionElement turns direrr's "CALDAV:valid-calendar-data"
// style element names into their namespace URI and local name.
func splitPreconditionElement(name string) (ns, local string) {
	idx := strings.IndexByte(name, ':')
	if idx < 0 {
		return NSDAV, name
	}
	prefix, rest := name[:idx], name[idx+1:]
	switch prefix {
	case "CALDAV":
		return NSCalDAV, rest
	case "CARDDAV":
		return NSCardDAV, rest
	default:
		return NSDAV, rest
	}
}
