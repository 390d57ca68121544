package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"io"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pagestudio/config"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/sirupsen/logrus"
)

// ImageProcessor applies an operation snapshot to a decoded page.
type ImageProcessor interface {
	Process(ctx context.Context, img image.Image, ops entity.OperationState) (image.Image, error)
	Pages(r io.Reader) ([]image.Image, string, error)
	Templates() []entity.TemplateInfo
}

type imageProcessor struct {
	pageSize      int
	enhanceClip   float64
	boundaryWidth int
	minQuadArea   float64
}

func NewImageProcessor(cfg config.ProcessorConfig) ImageProcessor {
	return &imageProcessor{
		pageSize:      cfg.PageSize,
		enhanceClip:   cfg.EnhanceClip,
		boundaryWidth: cfg.BoundaryWidth,
		minQuadArea:   cfg.MinQuadArea,
	}
}

// Process runs perspective, crop, brightness, contrast, enhance, grayscale and template in that
// order. Every step works on a fresh copy so the input is never modified.
func (p *imageProcessor) Process(ctx context.Context, img image.Image, ops entity.OperationState) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, entity.ErrEmptyImage
	}
	if ops.Template != "" && !HasTemplate(ops.Template) {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownTemplate, ops.Template)
	}

	out := imaging.Clone(img)

	if ops.PerspectiveCorrection {
		if quad, ok := DetectQuad(out, p.minQuadArea); ok {
			if ops.ShowBoundaries {
				out = DrawBoundary(out, quad, p.boundaryWidth)
			} else {
				warped, err := Warp(out, quad)
				if err != nil {
					return nil, fmt.Errorf("perspective warp: %w", err)
				}
				out = warped
			}
		} else {
			logrus.Debug("no document quad found, perspective skipped")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch crop := ops.CropOrNone().(type) {
	case entity.RectCrop:
		out = CropRect(out, crop)
	case entity.PolygonCrop:
		out = CropPolygon(out, crop)
	}
	if out.Bounds().Empty() {
		return nil, fmt.Errorf("crop: %w", entity.ErrEmptyImage)
	}

	if ops.Brightness != 1 {
		out = Brightness(out, ops.Brightness)
	}
	if ops.Contrast != 1 {
		out = Contrast(out, ops.Contrast)
	}
	if ops.Enhance {
		out = Enhance(out, p.enhanceClip)
	}
	if ops.Grayscale {
		out = imaging.Grayscale(out)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ops.Template != "" {
		return ApplyTemplate(out, ops.Template, p.pageSize)
	}
	return out, nil
}

// Pages decodes an upload into pages resized to the square page size. Every GIF frame becomes
// its own page.
func (p *imageProcessor) Pages(r io.Reader) ([]image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", entity.ErrUnsupportedFormat, err)
	}

	var frames []image.Image
	switch format {
	case "gif":
		frames, err = p.gifFrames(data)
	case "png", "jpeg":
		var img image.Image
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		frames = []image.Image{img}
	default:
		return nil, format, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode %s: %w", format, err)
	}

	pages := make([]image.Image, 0, len(frames))
	for _, f := range frames {
		pages = append(pages, imaging.Resize(f, p.pageSize, p.pageSize, imaging.Lanczos))
	}
	return pages, format, nil
}

func (p *imageProcessor) gifFrames(data []byte) ([]image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("no frames in GIF")
	}

	// frames may be partial updates; compose each onto the running canvas
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	canvas := imaging.New(w, h, image.Transparent)
	frames := make([]image.Image, 0, len(g.Image))
	for _, frame := range g.Image {
		canvas = imaging.Overlay(canvas, frame, frame.Bounds().Min, 1.0)
		frames = append(frames, imaging.Clone(canvas))
	}
	return frames, nil
}

func (p *imageProcessor) Templates() []entity.TemplateInfo {
	return TemplateList()
}

// EncodePNG encodes the processed page.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a PNG, JPEG or GIF (first frame) page.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, entity.ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedFormat, err)
	}
	return img, nil
}
