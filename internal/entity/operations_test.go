package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationStateJSON(t *testing.T) {
	ops := DefaultOperations()
	ops.Brightness = 1.4
	ops.Contrast = 0.8
	ops.Grayscale = true

	data, err := json.Marshal(ops)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"brightness": 1.4,
		"contrast": 0.8,
		"grayscale": true,
		"enhance": false,
		"template": null,
		"crop": null,
		"perspective_correction": false,
		"show_boundaries": true
	}`, string(data))
}

func TestCropVariantsJSON(t *testing.T) {
	tests := []struct {
		name string
		crop Crop
		want string
	}{
		{
			name: "rect",
			crop: RectCrop{Left: 10, Top: 20, Width: 30, Height: 40},
			want: `{"type":"rect","left":10,"top":20,"width":30,"height":40}`,
		},
		{
			name: "polygon",
			crop: PolygonCrop{Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 1}, {X: 1, Y: 2}}},
			want: `{"type":"polygon","points":[{"x":1,"y":2},{"x":3,"y":4},{"x":5,"y":1},{"x":1,"y":2}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := DefaultOperations()
			ops.Crop = tt.crop

			data, err := json.Marshal(ops)
			require.NoError(t, err)

			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &raw))
			assert.JSONEq(t, tt.want, string(raw["crop"]))

			var back OperationState
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.crop, back.Crop)
		})
	}
}

func TestUnmarshalPartialOperationsUsesDefaults(t *testing.T) {
	var ops OperationState
	require.NoError(t, json.Unmarshal([]byte(`{"grayscale":true,"template":"polaroid"}`), &ops))

	assert.Equal(t, 1.0, ops.Brightness)
	assert.Equal(t, 1.0, ops.Contrast)
	assert.True(t, ops.Grayscale)
	assert.True(t, ops.ShowBoundaries)
	assert.Equal(t, "polaroid", ops.Template)
	assert.Equal(t, NoCrop{}, ops.Crop)
}

func TestUnmarshalRejectsUnknownCrop(t *testing.T) {
	var ops OperationState
	err := json.Unmarshal([]byte(`{"crop":{"type":"circle"}}`), &ops)
	assert.Error(t, err)
}

func TestCloneDoesNotSharePolygon(t *testing.T) {
	ops := DefaultOperations()
	ops.Crop = PolygonCrop{Points: []Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 1}, {X: 1, Y: 1}}}

	clone := ops.Clone()
	clone.Crop.(PolygonCrop).Points[0].X = 99

	assert.Equal(t, 1.0, ops.Crop.(PolygonCrop).Points[0].X)
}

func TestPolygonBounds(t *testing.T) {
	poly := PolygonCrop{Points: []Point{{X: 10, Y: 5}, {X: 30, Y: 15}, {X: 20, Y: 40}, {X: 10, Y: 5}}}
	assert.Equal(t, RectCrop{Left: 10, Top: 5, Width: 20, Height: 35}, poly.Bounds())
}

func TestErrorTaxonomy(t *testing.T) {
	notReady := &NotReadyError{SessionID: "s1"}
	assert.True(t, errors.Is(notReady, ErrNotReady))
	assert.False(t, IsProcessorFailure(notReady))

	sel := &SelectionError{Points: 2, Err: ErrSelectionTooSmall}
	assert.True(t, errors.Is(sel, ErrSelectionTooSmall))
	assert.False(t, IsProcessorFailure(sel))

	assert.True(t, IsProcessorFailure(&ProcessingError{Message: "boom"}))
	assert.True(t, IsProcessorFailure(&TransportError{Op: "process", Err: errors.New("refused")}))
	assert.True(t, IsProcessorFailure(&DecodeError{Err: errors.New("bad json")}))
}
