package livepatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	e, _ := newEngine(t, todoPage, WithDebug(true))

	before := e.Document().String()
	inspection, err := e.Inspect("#app")
	require.NoError(t, err)
	assert.Equal(t, before, e.Document().String())

	require.Len(t, inspection.Scalars, 4)
	assert.Equal(t, "title", inspection.Scalars[0].Path)
	assert.Equal(t, "value", inspection.Scalars[1].Targets[0].Prop)
	assert.Equal(t, "", inspection.Scalars[0].Targets[0].Prop)

	kinds := make(map[string]string)
	for _, info := range inspection.Scalars {
		kinds[info.Path] = info.Targets[0].Kind
	}
	assert.Equal(t, map[string]string{
		"title":     "text",
		"user.name": "string",
		"agree":     "boolean",
		"link":      "string",
	}, kinds)

	require.Len(t, inspection.Collections, 1)
	assert.Equal(t, "todos", inspection.Collections[0].Path)
	assert.Equal(t, 0, inspection.Collections[0].Items)

	require.NoError(t, e.Patch(map[string]any{
		"todos": []any{todo("a", "Milk", false), todo("b", "Eggs", false)},
	}, "#app"))

	inspection, err = e.Inspect("#app")
	require.NoError(t, err)
	assert.Equal(t, 2, inspection.Collections[0].Items)
}

func TestInspectInvalidRoot(t *testing.T) {
	e, _ := newEngine(t, todoPage, WithDebug(true))
	_, err := e.Inspect("#nope")
	assert.ErrorIs(t, err, ErrRootNotFound)
}
