package entity

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── clamp & validate ───────── */

func TestCropBox_ClampThenValidate(t *testing.T) {
	box := BasicCropBox()
	require.NoError(t, box.Validate())
	assert.Less(t, box.Left, box.Right)

	box.Right = 5
	box.Top = -5
	box.X = 1
	box = box.Clamped()
	require.NoError(t, box.Validate())
	assert.Equal(t, 1.0, box.Right)
	assert.Equal(t, 0.0, box.Top)
	assert.Equal(t, 1.0, box.X)

	box.X = 5
	box = box.Clamped()
	err := box.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "crop_box", ve.Field)
}

func TestCropBox_Validate(t *testing.T) {
	tests := []struct {
		name    string
		box     CropBox
		wantErr bool
	}{
		{"basic", BasicCropBox(), false},
		{"focal point on edge", CropBox{0.2, 0.2, 0.8, 0.8, 0.2, 0.8}, false},
		{"left after right", CropBox{0.8, 0, 0.2, 1, 0.5, 0.5}, true},
		{"top after bottom", CropBox{0, 0.9, 1, 0.1, 0.5, 0.5}, true},
		{"zero width", CropBox{0.5, 0, 0.5, 1, 0.5, 0.5}, true},
		{"focal point outside", CropBox{0, 0, 0.5, 0.5, 0.7, 0.2}, true},
		{"value above one", CropBox{0, 0, 1.2, 1, 0.5, 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/* ───────── geometry ───────── */

func TestCropBox_Union(t *testing.T) {
	a := CropBox{Left: 0.1, Top: 0.2, Right: 0.3, Bottom: 0.4, X: 0.2, Y: 0.3}
	b := CropBox{Left: 0.5, Top: 0.1, Right: 0.7, Bottom: 0.3, X: 0.6, Y: 0.2}

	got := a.Union(b)
	want := CropBox{Left: 0.1, Top: 0.1, Right: 0.7, Bottom: 0.4, X: 0.2, Y: 0.3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Union mismatch (-want +got):\n%s", diff)
	}
}

func TestCropBox_Expand(t *testing.T) {
	box := CropBox{Left: 0.4, Top: 0.4, Right: 0.6, Bottom: 0.6, X: 0.5, Y: 0.5}
	got := box.Expand(0.5)
	assert.InDelta(t, 0.3, got.Left, 1e-9)
	assert.InDelta(t, 0.7, got.Bottom, 1e-9)

	full := BasicCropBox().Expand(1)
	assert.Equal(t, BasicCropBox(), full)
}

func TestCropBox_Pixels(t *testing.T) {
	box := CropBox{Left: 0.25, Top: 0, Right: 0.75, Bottom: 0.5, X: 0.5, Y: 0.25}
	assert.Equal(t, image.Rect(50, 0, 150, 50), box.Pixels(200, 100))

	tiny := CropBox{Left: 0.5, Top: 0.5, Right: 0.5001, Bottom: 0.5001}
	r := tiny.Pixels(10, 10)
	assert.Equal(t, 1, r.Dx())
	assert.Equal(t, 1, r.Dy())
}

/* ───────── json ───────── */

func TestCropBox_UnmarshalJSON(t *testing.T) {
	want := CropBox{Left: 0.1, Top: 0.2, Right: 0.9, Bottom: 0.8, X: 0.5, Y: 0.5}
	obj := `{"left":0.1,"top":0.2,"right":0.9,"bottom":0.8,"x":0.5,"y":0.5}`

	var fromObject CropBox
	require.NoError(t, json.Unmarshal([]byte(obj), &fromObject))
	assert.Equal(t, want, fromObject)

	str, err := json.Marshal(obj)
	require.NoError(t, err)
	var fromString CropBox
	require.NoError(t, json.Unmarshal(str, &fromString))
	assert.Equal(t, want, fromString)

	var bad CropBox
	err = json.Unmarshal([]byte(`"not json"`), &bad)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
