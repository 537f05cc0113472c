// Package model defines the normalized storage entities this server's
// Store, Indexer, and Write Path operate on. Types mirror the teacher's
// internal/storage.Calendar/Object/Contact/Change shapes, generalized
// from one flat "blob per object" row into the Collection/Entity/
// Instance/Component/Property/Parameter tree the filter evaluator and
// REPORT engine need to query into.
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrincipalKind distinguishes the three principal flavors a Collection
// can be owned by or an AccessOracle can reason about.
type PrincipalKind string

const (
	PrincipalUser              PrincipalKind = "user"
	PrincipalGroup             PrincipalKind = "group"
	PrincipalPseudoAll         PrincipalKind = "all"
	PrincipalPseudoAuthed      PrincipalKind = "authenticated"
	PrincipalPseudoUnauthed    PrincipalKind = "unauthenticated"
)

// Principal is an opaque external identity. This module never resolves
// group membership itself; AccessOracle does.
type Principal struct {
	ID   string
	Kind PrincipalKind
}

// CollectionKind is immutable for the life of a Collection.
type CollectionKind string

const (
	CollectionCalendar    CollectionKind = "calendar"
	CollectionAddressbook CollectionKind = "addressbook"
)

// Collection is a calendar or addressbook: a named, owned container of
// Instances with a monotonically increasing sync_revision counter.
type Collection struct {
	ID               string
	OwnerPrincipalID string
	Kind             CollectionKind
	URI              string
	DisplayName      string
	Description      string
	Color            string
	Timezone         string
	SupportedComps   []string // subset of {VEVENT, VTODO, VJOURNAL}; calendars only
	SyncRevision     uint64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// NewCollectionID mints a sortable v7 UUID for a new Collection.
func NewCollectionID() string { return uuid.Must(uuid.NewV7()).String() }

// Entity is the canonical immutable content unit: a parsed component
// tree plus its logical UID. A PUT that replaces content always creates
// a fresh Entity; the replaced Entity is retired (its Components/
// Properties/Parameters/CalIndex/CalOccurrence rows are deleted), per
// SPEC_FULL.md §11 Open Question 1.
type Entity struct {
	ID          string
	LogicalUID  string
	ContentType string // text/calendar or text/vcard
	Canonical   []byte // normalized, re-serialized wire bytes
	CreatedAt   time.Time
}

// NewEntityID mints a sortable v7 UUID for a new Entity.
func NewEntityID() string { return uuid.Must(uuid.NewV7()).String() }

// Instance is a named resource inside a Collection: the (collection,
// slug) -> entity binding that PUT/MOVE/DELETE operate on.
type Instance struct {
	ID           string
	CollectionID string
	Slug         string
	EntityID     string
	LogicalUID   string
	ETag         string
	ContentType  string
	SyncRevision uint64 // collection's sync_revision at which this instance became current
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInstanceID mints a sortable v7 UUID for a new Instance.
func NewInstanceID() string { return uuid.Must(uuid.NewV7()).String() }

// Tombstone records a deleted or renamed-away Instance so
// sync-collection can report it without retaining the content.
type Tombstone struct {
	ID           string
	CollectionID string
	Slug         string
	LogicalUID   string
	SyncRevision uint64
	DeletedAt    time.Time
}

// Component is one node of an Entity's parsed component tree, persisted
// so the filter evaluator and indexer can query into it without
// re-parsing the entity's raw bytes on every REPORT.
type Component struct {
	ID         string
	EntityID   string
	ParentID   *string
	Name       string
	Ordinal    int
}

// Property is one NAME;PARAMS:VALUE occurrence under a Component.
type Property struct {
	ID          string
	ComponentID string
	Name        string
	Group       string // vCard property-group tag (item1, item2, ...); empty for iCalendar
	RawValue    string
	Ordinal     int
}

// Parameter is one NAME=value(,value)* occurrence under a Property.
type Parameter struct {
	ID         string
	PropertyID string
	Name       string
	Values     []string
	Ordinal    int
}

// Transparency mirrors RFC 5545 §3.8.2.7 TRANSP.
type Transparency string

const (
	TransparencyOpaque      Transparency = "OPAQUE"
	TransparencyTransparent Transparency = "TRANSPARENT"
)

// EventStatus mirrors the VEVENT subset of RFC 5545 §3.8.1.11 STATUS.
type EventStatus string

const (
	StatusTentative EventStatus = "TENTATIVE"
	StatusConfirmed EventStatus = "CONFIRMED"
	StatusCancelled EventStatus = "CANCELLED"
)

// CalIndex is the flattened, queryable projection of one top-level
// scheduling component (VEVENT/VTODO/VJOURNAL/VFREEBUSY): a master, or
// a RECURRENCE-ID override with RecurrenceIDUTC set.
type CalIndex struct {
	ID              string
	EntityID        string
	ComponentID     string
	ComponentType   string // VEVENT, VTODO, VJOURNAL, VFREEBUSY
	UID             string
	RecurrenceIDUTC *time.Time
	DTStartUTC      *time.Time
	DTEndUTC        *time.Time
	AllDay          bool
	Summary         string
	Organizer       string
	Transparency    Transparency
	Status          EventStatus
	RRuleText       string
	TZID            string
}

// CalOccurrence is one expanded instance of a recurring (or
// non-recurring) scheduling component, materialized up to the
// configured recurrence horizon.
type CalOccurrence struct {
	ID          string
	EntityID    string
	ComponentID string
	DTStartUTC  time.Time
	DTEndUTC    time.Time
	IsOverride  bool
}

// CardIndex is the flattened, queryable projection of one VCARD entity.
type CardIndex struct {
	ID               string
	EntityID         string
	FNRaw            string
	FNNormalized     string
	FamilyName       string
	GivenName        string
	AdditionalNames  string
	Org              string
	Title            string
}

// CardEmail is one normalized (lowercased) EMAIL row for a vCard entity.
type CardEmail struct {
	ID       string
	EntityID string
	Address  string
	Pref     int
}

// CardPhone is one normalized (digits-only) TEL row for a vCard entity.
type CardPhone struct {
	ID       string
	EntityID string
	Digits   string
	Pref     int
}
