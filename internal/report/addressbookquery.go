package report

import (
	"context"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/filter"
)

// AddressbookQueryRequest mirrors CARDDAV:addressbook-query (spec
// §4.10). Limit enforces the limit/nresults ceiling (RFC 6352 §8.6):
// when the match set exceeds Limit, the result is truncated and the
// caller renders the 507 number-of-matches-within-limits response for
// the request-URI, per §4.10's "addressbook-query" row.
type AddressbookQueryRequest struct {
	Filter filter.CardFilter
	Props  PropRequest
	Href   HrefFunc
	Limit  int
}

// ExecuteAddressbookQuery evaluates req.Filter against every instance in
// collectionID via internal/filter's test=anyof/allof prop-filter tree.
func (e *Engine) ExecuteAddressbookQuery(ctx context.Context, collectionID string, req AddressbookQueryRequest) (*Result, error) {
	if err := validateCardFilterSupported(req.Filter); err != nil {
		return nil, err
	}

	insts, err := e.Store.ListInstances(ctx, collectionID)
	if err != nil {
		return nil, direrr.Wrap(err, "list instances")
	}

	var resources []Resource
	truncated := false
	for _, inst := range insts {
		ent, err := e.loadEntity(ctx, inst)
		if err != nil {
			return nil, err
		}
		ok, err := e.matchCardEntity(ent, req.Filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if req.Limit > 0 && len(resources) >= req.Limit {
			truncated = true
			break
		}
		resources = append(resources, Resource{
			Href: req.Href(inst.Slug),
			ETag: inst.ETag,
			Data: resourceDataFor(req.Props, ent),
		})
	}

	sortResourcesByHref(resources)
	return &Result{Resources: resources, Truncated: truncated}, nil
}

func validateCardFilterSupported(f filter.CardFilter) error {
	for _, p := range f.Props {
		for _, tm := range p.TextMatches {
			if err := filter.ValidateCollation(tm.Collation); err != nil {
				return err
			}
		}
		for _, pf := range p.Params {
			if pf.TextMatch != nil {
				if err := filter.ValidateCollation(pf.TextMatch.Collation); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
