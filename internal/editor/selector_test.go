package editor

import (
	"testing"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectSelectionConvertsToSourceSpace(t *testing.T) {
	s := NewRegionSelector()
	require.NoError(t, s.BeginRect(0.5))

	require.NoError(t, s.AddPoint(entity.Point{X: 50, Y: 30}))
	require.NoError(t, s.AddPoint(entity.Point{X: 20, Y: 80}))
	require.NoError(t, s.AddPoint(entity.Point{X: 10, Y: 10}))

	crop, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, entity.RectCrop{Left: 20, Top: 20, Width: 80, Height: 40}, crop)
	assert.Equal(t, SelectionNone, s.Mode())
}

func TestRectResizeHandles(t *testing.T) {
	tests := []struct {
		name   string
		handle Handle
		to     entity.Point
		want   entity.RectCrop
	}{
		{"bottom right", HandleBottomRight, entity.Point{X: 60, Y: 70}, entity.RectCrop{Left: 10, Top: 10, Width: 50, Height: 60}},
		{"top left", HandleTopLeft, entity.Point{X: 0, Y: 5}, entity.RectCrop{Left: 0, Top: 5, Width: 40, Height: 35}},
		{"right edge", HandleRight, entity.Point{X: 100, Y: 999}, entity.RectCrop{Left: 10, Top: 10, Width: 90, Height: 30}},
		{"top edge", HandleTop, entity.Point{X: 999, Y: 0}, entity.RectCrop{Left: 10, Top: 0, Width: 30, Height: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRegionSelector()
			require.NoError(t, s.BeginRect(1))
			require.NoError(t, s.AddPoint(entity.Point{X: 10, Y: 10}))
			require.NoError(t, s.AddPoint(entity.Point{X: 40, Y: 40}))

			require.NoError(t, s.ResizeRect(tt.handle, tt.to))

			crop, err := s.Close()
			require.NoError(t, err)
			assert.Equal(t, tt.want, crop)
		})
	}
}

func TestRectMoveHandle(t *testing.T) {
	s := NewRegionSelector()
	require.NoError(t, s.BeginRect(1))
	require.NoError(t, s.AddPoint(entity.Point{X: 10, Y: 10}))
	require.NoError(t, s.AddPoint(entity.Point{X: 30, Y: 20}))

	s.GrabRect(entity.Point{X: 15, Y: 15})
	require.NoError(t, s.ResizeRect(HandleMove, entity.Point{X: 20, Y: 25}))

	crop, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, entity.RectCrop{Left: 15, Top: 20, Width: 20, Height: 10}, crop)
}

func TestRectWithoutAreaIsDiscarded(t *testing.T) {
	s := NewRegionSelector()
	require.NoError(t, s.BeginRect(1))
	require.NoError(t, s.AddPoint(entity.Point{X: 10, Y: 10}))
	require.NoError(t, s.AddPoint(entity.Point{X: 10, Y: 50}))

	_, err := s.Close()
	var selErr *entity.SelectionError
	require.ErrorAs(t, err, &selErr)
	assert.ErrorIs(t, err, entity.ErrEmptySelection)
}

func TestPolygonSelectionAutoCloses(t *testing.T) {
	s := NewRegionSelector()
	require.NoError(t, s.BeginPolygon(2))

	for _, p := range []entity.Point{{X: 10, Y: 10}, {X: 10, Y: 10}, {X: 50, Y: 10}, {X: 30, Y: 40}} {
		require.NoError(t, s.AddPoint(p))
	}

	crop, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, entity.PolygonCrop{Points: []entity.Point{
		{X: 5, Y: 5}, {X: 25, Y: 5}, {X: 15, Y: 20}, {X: 5, Y: 5},
	}}, crop)
}

func TestPolygonWithTooFewPoints(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		s := NewRegionSelector()
		require.NoError(t, s.BeginPolygon(1))
		for i := 0; i < n; i++ {
			require.NoError(t, s.AddPoint(entity.Point{X: float64(i * 10), Y: 0}))
		}

		crop, err := s.Close()
		assert.Nil(t, crop)
		var selErr *entity.SelectionError
		require.ErrorAs(t, err, &selErr)
		assert.Equal(t, n, selErr.Points)
		assert.ErrorIs(t, err, entity.ErrSelectionTooSmall)
	}
}

func TestSelectorWithoutBegin(t *testing.T) {
	s := NewRegionSelector()
	assert.ErrorIs(t, s.AddPoint(entity.Point{}), entity.ErrNoSelection)
	_, err := s.Close()
	assert.ErrorIs(t, err, entity.ErrNoSelection)
	assert.ErrorIs(t, s.BeginRect(0), entity.ErrInvalidDisplaySize)
}

func TestCancelDropsPoints(t *testing.T) {
	s := NewRegionSelector()
	require.NoError(t, s.BeginPolygon(1))
	require.NoError(t, s.AddPoint(entity.Point{X: 1, Y: 1}))
	s.Cancel()

	assert.Equal(t, SelectionNone, s.Mode())
	assert.Empty(t, s.DisplayPoints())
}
