package report

import (
	"context"

	"github.com/calcore/davcore/internal/direrr"
)

// SyncCollectionRequest mirrors RFC 6578's sync-collection REPORT (spec
// §4.12). Depth is not modeled here: Depth is implicit 0, and the
// caller (the HTTP layer) is responsible for rejecting any request
// where the client sent a Depth header other than 0/absent, since
// header validation is outside this engine's scope.
type SyncCollectionRequest struct {
	SyncToken string
	Limit     int // 0 means the server default cap applies via DefaultSyncLimit
	Props     PropRequest
	Href      HrefFunc
}

// DefaultSyncLimit is the server-enforced truncation cap (spec §4.12)
// when the client's request carries no limit/nresults.
const DefaultSyncLimit = 1000

// ExecuteSyncCollection returns every Change since req.SyncToken's
// revision, tombstones rendered as 404 propstats, live instances
// rendered per req.Props, truncating at the effective limit and
// re-emitting a partial sync-token so the client resumes correctly.
func (e *Engine) ExecuteSyncCollection(ctx context.Context, collectionID string, req SyncCollectionRequest) (*Result, error) {
	sinceRev, err := DecodeSyncToken(req.SyncToken, collectionID)
	if err != nil {
		return nil, err
	}

	if req.SyncToken != "" {
		floor, err := e.Store.OldestRetainedRevision(ctx, collectionID)
		if err != nil {
			return nil, direrr.Wrap(err, "load retention floor")
		}
		if sinceRev > 0 && sinceRev < floor {
			return nil, direrr.New(direrr.InvalidSyncToken, "sync-token predates the retention window; re-baseline")
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSyncLimit
	}

	changes, currentRev, err := e.Store.ListChangesSince(ctx, collectionID, sinceRev, limit)
	if err != nil {
		return nil, direrr.Wrap(err, "list changes")
	}

	truncated := len(changes) > limit
	if truncated {
		changes = changes[:limit]
	}

	resources := make([]Resource, 0, len(changes))
	highestRev := sinceRev
	for _, ch := range changes {
		if ch.SyncRevision > highestRev {
			highestRev = ch.SyncRevision
		}
		if ch.Deleted {
			resources = append(resources, Resource{Href: req.Href(ch.Slug), Deleted: true})
			continue
		}
		res := Resource{Href: req.Href(ch.Slug), ETag: ""}
		if req.Props.ResourceData || req.Props.GetETag {
			inst, err := e.Store.GetInstance(ctx, collectionID, ch.Slug)
			if err != nil {
				// disappeared between the change listing and this lookup;
				// the next sync-collection call will pick up its tombstone.
				continue
			}
			res.ETag = inst.ETag
			if req.Props.ResourceData {
				ent, err := e.loadEntity(ctx, inst)
				if err != nil {
					return nil, err
				}
				res.Data = ent.Canonical
			}
		}
		resources = append(resources, res)
	}

	closingRev := currentRev
	if truncated {
		closingRev = highestRev
	}

	return &Result{
		Resources: resources,
		Truncated: truncated,
		SyncToken: EncodeSyncToken(collectionID, closingRev),
	}, nil
}
