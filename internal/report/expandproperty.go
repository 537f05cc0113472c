package report

import (
	"context"

	"github.com/calcore/davcore/internal/direrr"
)

// PrincipalDisplayNameFunc resolves a principal-URL href to a
// displayname. Directory lookups are an external collaborator's
// concern (spec §1's non-goals), so this package never resolves one
// itself; the caller supplies the resolver.
type PrincipalDisplayNameFunc func(ctx context.Context, principalHref string) (string, error)

// ExpandPropertyRequest mirrors DAV:expand-property (RFC 3253 §3.8).
// Only principal-URL -> displayname is implemented, per SPEC_FULL.md's
// Open Question decision; any other requested property tree fails with
// the supported-report precondition rather than a 501.
type ExpandPropertyRequest struct {
	PrincipalHref        string
	WantsOnlyDisplayName bool
	Resolve              PrincipalDisplayNameFunc
}

// ExpandPropertyResult is the resolved displayname for the minimal
// supported case.
type ExpandPropertyResult struct {
	PrincipalHref string
	DisplayName   string
}

// ExecuteExpandProperty resolves req.PrincipalHref's displayname. Any
// request shape beyond the minimal principal-URL/displayname case is
// rejected with a supported-report precondition.
func (e *Engine) ExecuteExpandProperty(ctx context.Context, req ExpandPropertyRequest) (*ExpandPropertyResult, error) {
	if !req.WantsOnlyDisplayName || req.PrincipalHref == "" || req.Resolve == nil {
		return nil, direrr.New(direrr.Forbidden, "expand-property supports only principal-URL/displayname").
			WithElement("DAV:supported-report")
	}
	name, err := req.Resolve(ctx, req.PrincipalHref)
	if err != nil {
		return nil, direrr.Wrap(err, "resolve principal displayname")
	}
	return &ExpandPropertyResult{PrincipalHref: req.PrincipalHref, DisplayName: name}, nil
}
