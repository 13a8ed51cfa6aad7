package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/battlecore/types"
)

func TestResolve(t *testing.T) {
	c := Context{Owner: 1, Caster: 2, Target: 3}
	tests := []struct {
		who  types.Who
		want types.UnitID
	}{
		{types.WhoOwner, 1},
		{types.WhoCaster, 2},
		{types.WhoTarget, 3},
	}
	for _, tt := range tests {
		got, ok := c.Resolve(tt.who)
		assert.True(t, ok, "Resolve(%v)", tt.who)
		assert.Equal(t, tt.want, got, "Resolve(%v)", tt.who)
	}
}

func TestResolve_Unbound(t *testing.T) {
	c := Context{Owner: 1}
	_, ok := c.Resolve(types.WhoTarget)
	assert.False(t, ok, "unbound target should not resolve")
}

func TestRebind_LeavesOriginal(t *testing.T) {
	orig := ForUnit(1)
	child := orig.Rebind(types.WhoTarget, 9)

	assert.Equal(t, types.UnitID(1), orig.Target)
	assert.Equal(t, types.UnitID(9), child.Target)
	assert.Equal(t, types.UnitID(1), child.Owner)
}

func TestWithVar_CopyOnWrite(t *testing.T) {
	base := ForUnit(1).WithVar("x", types.Num(1))
	a := base.WithVar("x", types.Num(2))
	b := base.WithVar("y", types.Num(3))

	v, _ := base.Var("x")
	assert.Equal(t, 1.0, v.Num)
	v, _ = a.Var("x")
	assert.Equal(t, 2.0, v.Num)
	_, ok := a.Var("y")
	assert.False(t, ok, "sibling var y leaked into a")
	v, _ = b.Var("x")
	assert.Equal(t, 1.0, v.Num)
}

func TestWithEvent(t *testing.T) {
	ev := types.Event{Kind: types.EventStatChanged, Unit: 1, Stat: "hp"}
	c := ForUnit(1).WithEvent(ev)
	ev.Stat = "atk"
	require.NotNil(t, c.Event)
	assert.Equal(t, "hp", c.Event.Stat)
}
