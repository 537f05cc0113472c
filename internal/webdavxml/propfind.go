package webdavxml

import "github.com/beevik/etree"

// PropfindRequest is the decoded form of a PROPFIND body (RFC 4918
// §9.1): either an explicit named-property list, or one of the
// allprop/propname shortcuts. An empty body (no request entity at all,
// which RFC 4918 treats identically to allprop) decodes to AllProp.
type PropfindRequest struct {
	AllProp  bool
	PropName bool
	// Props holds the raw requested property elements (namespace +
	// local name) for C11's property generators to resolve; this
	// package has no notion of which properties exist.
	Props []etree.Element
}

// ParsePropfind decodes a PROPFIND request body. A nil doc (no body
// sent) is the allprop shortcut per RFC 4918 §9.1.
func ParsePropfind(doc *etree.Document) *PropfindRequest {
	if doc == nil || doc.Root() == nil {
		return &PropfindRequest{AllProp: true}
	}
	root := doc.Root()
	req := &PropfindRequest{}
	if findNS(root, "allprop") != nil {
		req.AllProp = true
		return req
	}
	if findNS(root, "propname") != nil {
		req.PropName = true
		return req
	}
	if propEl := findNS(root, "prop"); propEl != nil {
		for _, child := range propEl.ChildElements() {
			req.Props = append(req.Props, *child)
		}
	}
	return req
}
