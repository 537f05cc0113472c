package webdavxml

import (
	"testing"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/report"
	"github.com/stretchr/testify/assert"
)

func TestRenderReportResultIncludesLiveAndDeletedResources(t *testing.T) {
	result := &report.Result{
		Resources: []report.Resource{
			{Href: "/cal/event1.ics", ETag: `"e1"`, Data: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")},
			{Href: "/cal/gone.ics", Deleted: true},
		},
		SyncToken: "urn:x-sync:coll1:3",
	}

	out := string(RenderReportResult(result, ResourceDataCalendar))
	assert.Contains(t, out, "/cal/event1.ics")
	assert.Contains(t, out, `"e1"`)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "/cal/gone.ics")
	assert.Contains(t, out, "404")
	assert.Contains(t, out, "urn:x-sync:coll1:3")
}

func TestRenderReportResultAddressData(t *testing.T) {
	result := &report.Result{
		Resources: []report.Resource{
			{Href: "/ab/card1.vcf", ETag: `"e1"`, Data: []byte("BEGIN:VCARD\r\nEND:VCARD\r\n")},
		},
	}
	out := string(RenderReportResult(result, ResourceDataAddress))
	assert.Contains(t, out, "address-data")
	assert.NotContains(t, out, "calendar-data")
}

func TestRenderErrorIncludesPreconditionElement(t *testing.T) {
	err := direrr.New(direrr.UnsupportedCollation, "bad collation")
	out := string(RenderError(err))
	assert.Contains(t, out, "supported-collation")
}

func TestRenderErrorIncludesHref(t *testing.T) {
	err := direrr.New(direrr.UidConflict, "duplicate uid").WithHref("/cal/existing.ics")
	out := string(RenderError(err))
	assert.Contains(t, out, "no-uid-conflict")
	assert.Contains(t, out, "/cal/existing.ics")
}
