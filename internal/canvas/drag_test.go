package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/canvaid/internal/model"
)

func TestDragLifecycle(t *testing.T) {
	var d Drag
	assert.False(t, d.State().Active())

	require.NoError(t, d.Start(DragCard, "c1", model.Point{X: 10, Y: 10}))
	step, ok := d.Update(model.Point{X: 15, Y: 12})
	require.True(t, ok)
	assert.Equal(t, model.Point{X: 5, Y: 2}, step)

	step, _ = d.Update(model.Point{X: 20, Y: 20})
	assert.Equal(t, model.Point{X: 5, Y: 8}, step)
	assert.Equal(t, model.Point{X: 10, Y: 10}, d.State().Delta())

	last := d.End()
	assert.Equal(t, "c1", last.ID)
	assert.Equal(t, DragCard, last.Kind)
	assert.False(t, d.State().Active())
}

func TestDragIsExclusive(t *testing.T) {
	var d Drag
	require.NoError(t, d.Start(DragSection, "s1", model.Point{}))

	err := d.Start(DragCard, "c1", model.Point{})
	assert.ErrorIs(t, err, ErrDragInProgress)
	assert.Equal(t, "s1", d.State().ID)
}

func TestUpdateWhileIdle(t *testing.T) {
	var d Drag
	_, ok := d.Update(model.Point{X: 1, Y: 1})
	assert.False(t, ok)
}
