package editor

import (
	"math"

	"github.com/ds124wfegd/pagestudio/internal/entity"
)

type SelectionMode int

const (
	SelectionNone SelectionMode = iota
	SelectionRect
	SelectionPolygon
)

func (m SelectionMode) String() string {
	switch m {
	case SelectionRect:
		return "rect"
	case SelectionPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// Handle names a live resize handle of a rectangle selection.
type Handle int

const (
	HandleMove Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

const minPolygonPoints = 3

// RegionSelector captures a rectangle or freehand polygon on the display surface and turns
// it into a crop in source-image pixels. It never touches the operation state itself: Close
// hands the crop back to the controller.
type RegionSelector struct {
	mode  SelectionMode
	scale float64

	// display-space samples; for a rectangle these are the two opposite corners
	points []entity.Point
	last   entity.Point // move origin for HandleMove
}

func NewRegionSelector() *RegionSelector {
	return &RegionSelector{}
}

func (s *RegionSelector) Mode() SelectionMode { return s.mode }

// BeginRect starts a rectangle selection. scale is the ratio of the rendered image width to
// the native image width at the time of selection.
func (s *RegionSelector) BeginRect(scale float64) error {
	return s.begin(SelectionRect, scale)
}

// BeginPolygon starts a freehand polygon selection.
func (s *RegionSelector) BeginPolygon(scale float64) error {
	return s.begin(SelectionPolygon, scale)
}

func (s *RegionSelector) begin(mode SelectionMode, scale float64) error {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return entity.ErrInvalidDisplaySize
	}
	s.mode = mode
	s.scale = scale
	s.points = s.points[:0]
	return nil
}

// AddPoint records a pointer sample in display coordinates. In rectangle mode the first
// sample anchors the box and later samples drag the opposite corner.
func (s *RegionSelector) AddPoint(p entity.Point) error {
	switch s.mode {
	case SelectionRect:
		if len(s.points) < 2 {
			s.points = append(s.points, p)
		} else {
			s.points[1] = p
		}
	case SelectionPolygon:
		if n := len(s.points); n > 0 && s.points[n-1] == p {
			return nil
		}
		s.points = append(s.points, p)
	default:
		return entity.ErrNoSelection
	}
	return nil
}

// ResizeRect drags one handle of the rectangle being selected to p.
func (s *RegionSelector) ResizeRect(h Handle, p entity.Point) error {
	if s.mode != SelectionRect || len(s.points) < 2 {
		return entity.ErrNoSelection
	}
	x0, y0, x1, y1 := s.displayRect()
	switch h {
	case HandleMove:
		dx, dy := p.X-s.last.X, p.Y-s.last.Y
		x0, x1, y0, y1 = x0+dx, x1+dx, y0+dy, y1+dy
	case HandleTopLeft:
		x0, y0 = p.X, p.Y
	case HandleTop:
		y0 = p.Y
	case HandleTopRight:
		x1, y0 = p.X, p.Y
	case HandleRight:
		x1 = p.X
	case HandleBottomRight:
		x1, y1 = p.X, p.Y
	case HandleBottom:
		y1 = p.Y
	case HandleBottomLeft:
		x0, y1 = p.X, p.Y
	case HandleLeft:
		x0 = p.X
	}
	s.points[0] = entity.Point{X: x0, Y: y0}
	s.points[1] = entity.Point{X: x1, Y: y1}
	s.last = p
	return nil
}

// GrabRect sets the origin for a following HandleMove drag.
func (s *RegionSelector) GrabRect(p entity.Point) {
	s.last = p
}

// DisplayPoints returns the captured samples in display space, for drawing the overlay.
func (s *RegionSelector) DisplayPoints() []entity.Point {
	out := make([]entity.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Close finishes the selection and returns the crop in source-image coordinates. A polygon
// with fewer than three points, or a rectangle without area, is discarded with a
// SelectionError. The selector is reset either way.
func (s *RegionSelector) Close() (entity.Crop, error) {
	defer s.Cancel()

	switch s.mode {
	case SelectionRect:
		if len(s.points) < 2 {
			return nil, &entity.SelectionError{Points: len(s.points), Err: entity.ErrEmptySelection}
		}
		x0, y0, x1, y1 := s.displayRect()
		if x1-x0 <= 0 || y1-y0 <= 0 {
			return nil, &entity.SelectionError{Points: len(s.points), Err: entity.ErrEmptySelection}
		}
		return entity.RectCrop{
			Left:   x0 / s.scale,
			Top:    y0 / s.scale,
			Width:  (x1 - x0) / s.scale,
			Height: (y1 - y0) / s.scale,
		}, nil
	case SelectionPolygon:
		if len(s.points) < minPolygonPoints {
			return nil, &entity.SelectionError{Points: len(s.points), Err: entity.ErrSelectionTooSmall}
		}
		pts := make([]entity.Point, 0, len(s.points)+1)
		for _, p := range s.points {
			pts = append(pts, s.toSource(p))
		}
		pts = append(pts, pts[0])
		return entity.PolygonCrop{Points: pts}, nil
	default:
		return nil, entity.ErrNoSelection
	}
}

// Cancel drops the selection in progress.
func (s *RegionSelector) Cancel() {
	s.mode = SelectionNone
	s.points = nil
}

func (s *RegionSelector) toSource(p entity.Point) entity.Point {
	return entity.Point{X: p.X / s.scale, Y: p.Y / s.scale}
}

func (s *RegionSelector) displayRect() (x0, y0, x1, y1 float64) {
	a, b := s.points[0], s.points[1]
	return math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Max(a.X, b.X), math.Max(a.Y, b.Y)
}
