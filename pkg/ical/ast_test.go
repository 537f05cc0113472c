package ical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentSetReplacesExistingOrdinal(t *testing.T) {
	c := &Component{Name: CompEvent}
	c.Add(&Property{Name: PropSummary, Value: TextValue("first")})
	c.Add(&Property{Name: PropUID, Value: TextValue("uid-1")})

	c.Set(&Property{Name: PropSummary, Value: TextValue("second")})

	assert.Len(t, c.Props, 2)
	assert.Equal(t, 0, c.Get(PropSummary).Ordinal)
	assert.Equal(t, TextValue("second"), c.Get(PropSummary).Value)
}

func TestComponentAddChildAssignsParentAndOrdinal(t *testing.T) {
	root := &Component{Name: CompCalendar}
	child := &Component{Name: CompEvent}
	root.AddChild(child)

	assert.Equal(t, root, child.Parent)
	assert.Equal(t, 0, child.Ordinal)
	assert.Len(t, root.ChildrenNamed(CompEvent), 1)
}

func TestComponentDelRemovesAllMatching(t *testing.T) {
	c := &Component{Name: CompEvent}
	c.Add(&Property{Name: PropAttendee, Value: CalAddressValue("mailto:a@example.com")})
	c.Add(&Property{Name: PropAttendee, Value: CalAddressValue("mailto:b@example.com")})
	c.Add(&Property{Name: PropUID, Value: TextValue("uid-1")})

	c.Del(PropAttendee)

	assert.Len(t, c.Values(PropAttendee), 0)
	assert.Len(t, c.Props, 1)
}

func TestUnknownComponentClassification(t *testing.T) {
	c := &Component{Name: "X-CUSTOM-THING"}
	assert.True(t, c.Unknown())

	known := &Component{Name: CompEvent}
	assert.False(t, known.Unknown())
}
