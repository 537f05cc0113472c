package webdavxml

import (
	"github.com/beevik/etree"
	"github.com/calcore/davcore/internal/direrr"
)

// ParseDocument reads body into an etree.Document, the entry point
// every REPORT/PROPFIND decoder in this package is handed after the
// caller strips the HTTP envelope. A malformed body surfaces as
// MalformedRequest rather than an opaque parse error, matching spec
// §7's policy that a client-caused failure always carries a
// client-visible Kind.
func ParseDocument(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if len(body) == 0 {
		return nil, direrr.New(direrr.MalformedRequest, "empty request body")
	}
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, direrr.New(direrr.MalformedRequest, "malformed XML: "+err.Error())
	}
	return doc, nil
}
