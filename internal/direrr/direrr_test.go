package direrr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, 403, New(UnsupportedFilter, "bad filter").Status())
	assert.Equal(t, 409, New(UidConflict, "dup").Status())
	assert.Equal(t, 507, New(Truncated, "too many").Status())
}

func TestPreconditionElementDefaultAndOverride(t *testing.T) {
	e := New(UnsupportedFilter, "x")
	assert.Equal(t, "CALDAV:supported-filter", e.PreconditionElement())

	e.WithElement("CARDDAV:supported-filter")
	assert.Equal(t, "CARDDAV:supported-filter", e.PreconditionElement())
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, "store unavailable")
	assert.Equal(t, Internal, wrapped.Kind)
	assert.Equal(t, 500, wrapped.Status())
	assert.ErrorIs(t, wrapped, cause)
}

func TestWithHrefAttachesPayload(t *testing.T) {
	e := New(UidConflict, "duplicate uid").WithHref("/cal/a.ics")
	assert.Equal(t, "/cal/a.ics", e.Href)
}
