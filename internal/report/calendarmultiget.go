package report

import (
	"context"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/store"
)

// CalendarMultigetRequest mirrors CALDAV:calendar-multiget (spec §4.10):
// fetch a caller-supplied set of slugs, a 404 propstat for any that are
// missing, rather than a filter walk over the whole collection.
type CalendarMultigetRequest struct {
	Slugs []string
	Props PropRequest
	Href  HrefFunc
}

// ExecuteCalendarMultiget looks up each requested slug directly; a slug
// with no live instance yields a Deleted Resource (404 propstat) instead
// of aborting the whole request, per RFC 4791 §7.9.
func (e *Engine) ExecuteCalendarMultiget(ctx context.Context, collectionID string, req CalendarMultigetRequest) (*Result, error) {
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
