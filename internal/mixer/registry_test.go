package mixer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	one := Func(func(c *Context) error {
		c.Emit(map[string]any{"says": "one " + c.Values().String("x")})
		return nil
	})
	two := Func(func(c *Context) error {
		c.Emit(map[string]any{"says": "two"})
		return nil
	})

	require.NoError(t, reg.Register("one", one))
	require.NoError(t, reg.Register("two", two))
	assert.ErrorIs(t, reg.Register("one", two), ErrDuplicateMixer)

	assert.Equal(t, []string{"one", "two"}, reg.Names())
	assert.Len(t, reg.All(), 2)
	_, ok := reg.Lookup("two")
	assert.True(t, ok)

	out, err := reg.RunAll(context.Background(), map[string]any{"x": "y"})
	require.NoError(t, err)
	assert.Equal(t, []Fragment{{"says": "one y"}, {"says": "two"}}, out)

	reg.SetRevision("1.0.0")
	assert.Equal(t, "1.0.0", reg.Revision())

	reg.Reset()
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Revision())
	_, ok = reg.Lookup("one")
	assert.False(t, ok)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", DirMixer{})
	assert.Panics(t, func() { reg.MustRegister("a", DirMixer{}) })
}
