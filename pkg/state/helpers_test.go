package state_test

import (
	"testing"

	entity "github.com/goliatone/go-entities"
	"github.com/stretchr/testify/require"
)

func newCooldown() *entity.StaticObject {
	o := entity.NewStaticObject("Cooldown")
	o.MustAdd("user", entity.NewNaturalNumber(5), entity.Named("User"))
	o.MustAdd("global", entity.NewNaturalNumber(0), entity.Named("Global"))
	return o
}

func cooldownSnapshot(t *testing.T, user, global int) entity.Snapshot {
	t.Helper()
	c := newCooldown()
	child, err := entity.ChildAs[*entity.Value](c, "user")
	require.NoError(t, err)
	require.NoError(t, child.SetValue(user))
	child, err = entity.ChildAs[*entity.Value](c, "global")
	require.NoError(t, err)
	require.NoError(t, child.SetValue(global))
	snapshot, err := c.Export()
	require.NoError(t, err)
	return snapshot
}

func confOf(t *testing.T, e entity.Entity) map[string]any {
	t.Helper()
	conf, ok := e.ToConf().(map[string]any)
	require.True(t, ok, "expected object conf, got %T", e.ToConf())
	return conf
}
