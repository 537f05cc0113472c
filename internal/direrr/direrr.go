// Package direrr is the typed error taxonomy every package in this
// module reports through: one Kind enum mapped to an HTTP status plus
// the precondition XML element name the WebDAV codec must emit, so
// internal/store, internal/filter, internal/report, and
// internal/propsurface share one error surface instead of each
// duplicating status-code literals the way the teacher's
// internal/dav/caldav/methods.go calls http.Error ad hoc throughout.
package direrr

import "fmt"

// Kind names one error category from the propagation policy, not a Go
// type — callers compare Kind, not typed errors.
type Kind int

const (
	MalformedRequest Kind = iota
	AuthRequired
	Forbidden
	InvalidCalendarData
	InvalidAddressData
	UnsupportedCalendarComponent
	UnsupportedFilter
	UnsupportedCollation
	InvalidSyncToken
	NotFound
	MethodNotAllowed
	UidConflict
	ParentMissing
	PreconditionFailed
	UnsupportedMediaType
	Truncated
	Internal
)

// httpStatus and element are indexed in lockstep with the Kind enum
// above (spec §7's table).
var httpStatus = [...]int{
	MalformedRequest:             400,
	AuthRequired:                 401,
	Forbidden:                    403,
	InvalidCalendarData:          403,
	InvalidAddressData:           403,
	UnsupportedCalendarComponent: 403,
	UnsupportedFilter:            403,
	UnsupportedCollation:         403,
	InvalidSyncToken:             403,
	NotFound:                     404,
	MethodNotAllowed:             405,
	UidConflict:                  409,
	ParentMissing:                409,
	PreconditionFailed:           412,
	UnsupportedMediaType:         415,
	Truncated:                    507,
	Internal:                     500,
}

var element = [...]string{
	Forbidden:                    "DAV:need-privileges",
	InvalidCalendarData:          "CALDAV:valid-calendar-data",
	InvalidAddressData:           "CARDDAV:valid-address-data",
	UnsupportedCalendarComponent: "CALDAV:supported-calendar-component",
	UnsupportedFilter:            "CALDAV:supported-filter",
	UnsupportedCollation:         "CALDAV:supported-collation",
	InvalidSyncToken:             "DAV:valid-sync-token",
	UidConflict:                  "CALDAV:no-uid-conflict",
	Truncated:                    "DAV:number-of-matches-within-limits",
}

// Error is the one error type every fallible operation in this module
// returns for client-visible failures. Internal faults (storage errors
// that are not precondition failures) should be wrapped with Internal,
// which carries no inline payload and is rendered as an opaque 500.
type Error struct {
	Kind    Kind
	Message string
	// Element overrides the Kind's default precondition element name,
	// used for the CARDDAV variant of UnsupportedFilter/
	// UnsupportedCollation/UidConflict sharing one Kind with CalDAV.
	Element string
	// Href is the inline payload for errors that must cite a specific
	// resource (the conflicting UID's href, the offending filter name).
	Href string
	Err  error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("direrr: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for this error's Kind.
func (e *Error) Status() int { return httpStatus[e.Kind] }

// PreconditionElement returns the RFC precondition element name to
// render in the error body, preferring an explicit override (the
// CARDDAV namespace variants) over the Kind's CalDAV default.
func (e *Error) PreconditionElement() string {
	if e.Element != "" {
		return e.Element
	}
	return element[e.Kind]
}

// New builds an Error of the given Kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Internal Error, attaching err for logging without
// exposing it to the client (propagation policy: database errors that
// are not precondition failures surface as an opaque 500).
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// WithHref attaches the inline conflicting-resource payload (the
// triggering element's href) required for UidConflict and similar
// precondition errors.
func (e *Error) WithHref(href string) *Error {
	e.Href = href
	return e
}

// WithElement overrides the precondition element name, used when the
// same Kind must render under the CARDDAV namespace instead of CALDAV.
func (e *Error) WithElement(name string) *Error {
	e.Element = name
	return e
}

func (k Kind) String() string {
	names := [...]string{
		"MalformedRequest", "AuthRequired", "Forbidden", "InvalidCalendarData",
		"InvalidAddressData", "UnsupportedCalendarComponent", "UnsupportedFilter",
		"UnsupportedCollation", "InvalidSyncToken", "NotFound", "MethodNotAllowed",
		"UidConflict", "ParentMissing", "PreconditionFailed", "UnsupportedMediaType",
		"Truncated", "Internal",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}
