package report

import (
	"context"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/store"
)

// AddressbookMultigetRequest mirrors CARDDAV:addressbook-multiget (spec
// §4.10).
type AddressbookMultigetRequest struct {
	Slugs []string
	Props PropRequest
	Href  HrefFunc
}

// ExecuteAddressbookMultiget is the vCard analogue of
// ExecuteCalendarMultiget.
func (e *Engine) ExecuteAddressbookMultiget(ctx context.Context, collectionID string, req AddressbookMultigetRequest) (*Result, error) {
	var resources []Resource
	for _, slug := range req.Slugs {
		inst, err := e.Store.GetInstance(ctx, collectionID, slug)
		if err == store.ErrNotFound {
			resources = append(resources, Resource{Href: req.Href(slug), Deleted: true})
			continue
		}
		if err != nil {
			return nil, direrr.Wrap(err, "lookup instance")
		}
		ent, err := e.loadEntity(ctx, inst)
		if err != nil {
			return nil, err
		}
		resources = append(resources, Resource{
			Href: req.Href(slug),
			ETag: inst.ETag,
			Data: resourceDataFor(req.Props, ent),
		})
	}
	return &Result{Resources: resources}, nil
}
