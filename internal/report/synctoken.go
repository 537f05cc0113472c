package report

import (
	"strconv"
	"strings"

	"github.com/calcore/davcore/internal/direrr"
)

const syncTokenPrefix = "urn:x-sync:"

// EncodeSyncToken renders the opaque token format spec §4.12 names:
// urn:x-sync:<collection-id>:<revision>.
func EncodeSyncToken(collectionID string, revision uint64) string {
	return syncTokenPrefix + collectionID + ":" + strconv.FormatUint(revision, 10)
}

// DecodeSyncToken parses a token previously returned by EncodeSyncToken,
// verifying it names collectionID. An unparseable token, or one for a
// different collection, yields an InvalidSyncToken error so the caller
// re-baselines with an empty token per spec §4.12.
func DecodeSyncToken(token, collectionID string) (uint64, error) {
	if token == "" {
		return 0, nil
	}
	rest := strings.TrimPrefix(token, syncTokenPrefix)
	if rest == token {
		return 0, direrr.New(direrr.InvalidSyncToken, "malformed sync-token")
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return 0, direrr.New(direrr.InvalidSyncToken, "malformed sync-token")
	}
	tokCollection, revStr := rest[:idx], rest[idx+1:]
	if tokCollection != collectionID {
		return 0, direrr.New(direrr.InvalidSyncToken, "sync-token issued for a different collection")
	}
	rev, err := strconv.ParseUint(revStr, 10, 64)
	if err != nil {
		return 0, direrr.New(direrr.InvalidSyncToken, "malformed sync-token revision")
	}
	return rev, nil
}
