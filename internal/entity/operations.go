package entity

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	DefaultBrightness = 1.0
	DefaultContrast   = 1.0
)

// Point is a coordinate in source-image pixel space unless stated otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CropKind string

const (
	CropKindNone    CropKind = "none"
	CropKindRect    CropKind = "rect"
	CropKindPolygon CropKind = "polygon"
)

// Crop is a closed sum type: NoCrop, RectCrop or PolygonCrop. Holding it in a single
// field keeps exactly one representation active at a time.
type Crop interface {
	Kind() CropKind
	isCrop()
}

type NoCrop struct{}

type RectCrop struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PolygonCrop holds a closed outline: the last point repeats the first.
type PolygonCrop struct {
	Points []Point `json:"points"`
}

func (NoCrop) Kind() CropKind      { return CropKindNone }
func (RectCrop) Kind() CropKind    { return CropKindRect }
func (PolygonCrop) Kind() CropKind { return CropKindPolygon }

func (NoCrop) isCrop()      {}
func (RectCrop) isCrop()    {}
func (PolygonCrop) isCrop() {}

// Bounds returns the axis-aligned box around the polygon.
func (p PolygonCrop) Bounds() RectCrop {
	if len(p.Points) == 0 {
		return RectCrop{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Points {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return RectCrop{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// OperationState is the full record of requested edits. It is always applied to the
// original image, never to a previously processed one.
type OperationState struct {
	Brightness            float64
	Contrast              float64
	Grayscale             bool
	Enhance               bool
	Template              string
	Crop                  Crop
	PerspectiveCorrection bool
	ShowBoundaries        bool
}

func DefaultOperations() OperationState {
	return OperationState{
		Brightness:     DefaultBrightness,
		Contrast:       DefaultContrast,
		Crop:           NoCrop{},
		ShowBoundaries: true,
	}
}

// CropOrNone never returns nil.
func (o OperationState) CropOrNone() Crop {
	if o.Crop == nil {
		return NoCrop{}
	}
	return o.Crop
}

// Clone returns a snapshot that shares no memory with o.
func (o OperationState) Clone() OperationState {
	c := o
	if poly, ok := o.Crop.(PolygonCrop); ok {
		pts := make([]Point, len(poly.Points))
		copy(pts, poly.Points)
		c.Crop = PolygonCrop{Points: pts}
	}
	c.Crop = c.CropOrNone()
	return c
}

type operationsJSON struct {
	Brightness            float64         `json:"brightness"`
	Contrast              float64         `json:"contrast"`
	Grayscale             bool            `json:"grayscale"`
	Enhance               bool            `json:"enhance"`
	Template              *string         `json:"template"`
	Crop                  json.RawMessage `json:"crop"`
	PerspectiveCorrection bool            `json:"perspective_correction"`
	ShowBoundaries        bool            `json:"show_boundaries"`
}

type cropJSON struct {
	Type string `json:"type"`
	RectCrop
	Points []Point `json:"points,omitempty"`
}

func (o OperationState) MarshalJSON() ([]byte, error) {
	crop, err := marshalCrop(o.CropOrNone())
	if err != nil {
		return nil, err
	}
	out := operationsJSON{
		Brightness:            o.Brightness,
		Contrast:              o.Contrast,
		Grayscale:             o.Grayscale,
		Enhance:               o.Enhance,
		Crop:                  crop,
		PerspectiveCorrection: o.PerspectiveCorrection,
		ShowBoundaries:        o.ShowBoundaries,
	}
	if o.Template != "" {
		t := o.Template
		out.Template = &t
	}
	return json.Marshal(out)
}

// UnmarshalJSON fills absent scale factors with their defaults, the way the processor reads
// a partial operations record.
func (o *OperationState) UnmarshalJSON(data []byte) error {
	in := operationsJSON{
		Brightness:     DefaultBrightness,
		Contrast:       DefaultContrast,
		ShowBoundaries: true,
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	crop, err := unmarshalCrop(in.Crop)
	if err != nil {
		return err
	}
	*o = OperationState{
		Brightness:            in.Brightness,
		Contrast:              in.Contrast,
		Grayscale:             in.Grayscale,
		Enhance:               in.Enhance,
		Crop:                  crop,
		PerspectiveCorrection: in.PerspectiveCorrection,
		ShowBoundaries:        in.ShowBoundaries,
	}
	if in.Template != nil {
		o.Template = *in.Template
	}
	return nil
}

func marshalCrop(c Crop) (json.RawMessage, error) {
	switch v := c.(type) {
	case NoCrop:
		return json.RawMessage("null"), nil
	case RectCrop:
		return json.Marshal(cropJSON{Type: string(CropKindRect), RectCrop: v})
	case PolygonCrop:
		return json.Marshal(struct {
			Type   string  `json:"type"`
			Points []Point `json:"points"`
		}{Type: string(CropKindPolygon), Points: v.Points})
	default:
		return nil, fmt.Errorf("unknown crop variant %T", c)
	}
}

func unmarshalCrop(raw json.RawMessage) (Crop, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NoCrop{}, nil
	}
	var c cropJSON
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid crop: %w", err)
	}
	switch CropKind(c.Type) {
	case CropKindNone, "":
		return NoCrop{}, nil
	case CropKindRect:
		return c.RectCrop, nil
	case CropKindPolygon:
		return PolygonCrop{Points: c.Points}, nil
	default:
		return nil, fmt.Errorf("invalid crop type %q", c.Type)
	}
}
