package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOracleGrantAccumulates(t *testing.T) {
	o := NewMemoryOracle()
	o.Grant("user-1", "/cal/owner-1/", PrivRead)
	o.Grant("user-1", "/cal/owner-1/", PrivBind)

	eff, err := o.EffectivePrivileges(context.Background(), Principal{ID: "user-1", Kind: KindUser}, "/cal/owner-1/coll-1/event.ics")
	require.NoError(t, err)
	assert.True(t, eff.Has(PrivRead))
	assert.True(t, eff.Has(PrivBind))
	assert.False(t, eff.Has(PrivWriteContent))
}

func TestMemoryOracleCheckDeniesOutsidePrefix(t *testing.T) {
	o := NewMemoryOracle()
	o.Grant("user-1", "/cal/owner-1/", PrivAll)

	decision, err := o.Check(context.Background(), Principal{ID: "user-1", Kind: KindUser}, "/cal/owner-2/coll-1/event.ics", PrivRead)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestMemoryOraclePseudoAllMatchesAnyPrincipal(t *testing.T) {
	o := NewMemoryOracle()
	o.Grant("anyone", "/cal/shared/", PrivRead)

	decision, err := o.Check(context.Background(), Principal{ID: "someone-else", Kind: KindPseudoAll}, "/cal/shared/coll-1/event.ics", PrivRead)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
}
