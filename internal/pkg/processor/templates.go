package processor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pagestudio/internal/entity"
)

type template struct {
	info  entity.TemplateInfo
	apply func(img image.Image, size int) *image.NRGBA
}

var templates = []template{
	{entity.TemplateInfo{Name: "minimal", Description: "Clean design with subtle border"}, applyMinimal},
	{entity.TemplateInfo{Name: "gradient", Description: "Modern gradient background"}, applyGradient},
	{entity.TemplateInfo{Name: "polaroid", Description: "Classic Polaroid style"}, applyPolaroid},
	{entity.TemplateInfo{Name: "magazine", Description: "Editorial magazine layout"}, applyMagazine},
}

func TemplateList() []entity.TemplateInfo {
	out := make([]entity.TemplateInfo, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.info)
	}
	return out
}

func HasTemplate(name string) bool {
	_, ok := lookupTemplate(name)
	return ok
}

func lookupTemplate(name string) (template, bool) {
	for _, t := range templates {
		if t.info.Name == name {
			return t, true
		}
	}
	return template{}, false
}

// ApplyTemplate lays img out on a size x size canvas styled by the named template.
func ApplyTemplate(img image.Image, name string, size int) (*image.NRGBA, error) {
	t, ok := lookupTemplate(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownTemplate, name)
	}
	return t.apply(img, size), nil
}

// fitBox resizes img to maxW wide for landscape pages or maxH tall otherwise, keeping aspect.
func fitBox(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return imaging.Resize(img, maxW, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxH, imaging.Lanczos)
}

func centered(canvas, img image.Image) image.Point {
	cb, ib := canvas.Bounds(), img.Bounds()
	return image.Pt((cb.Dx()-ib.Dx())/2, (cb.Dy()-ib.Dy())/2)
}

func applyMinimal(img image.Image, size int) *image.NRGBA {
	border := scaled(40, size)
	canvas := imaging.New(size, size, color.White)
	photo := fitBox(img, size-2*border, size-2*border)
	return imaging.Overlay(canvas, photo, centered(canvas, photo), 1.0)
}

func applyGradient(img image.Image, size int) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		t := float64(y) / float64(size)
		c := color.NRGBA{
			R: clamp8(255 * (1 - t)),
			G: clamp8(200 * (1 - t)),
			B: clamp8(255 * t),
			A: 255,
		}
		for x := 0; x < size; x++ {
			canvas.SetNRGBA(x, y, c)
		}
	}
	photo := fitBox(img, scaled(900, size), scaled(900, size))
	return imaging.Overlay(canvas, photo, centered(canvas, photo), 1.0)
}

func applyPolaroid(img image.Image, size int) *image.NRGBA {
	frameWidth := scaled(60, size)
	bottom := scaled(120, size)
	maxPhoto := scaled(900, size)
	if bottom+2*frameWidth+maxPhoto > size {
		maxPhoto = size - bottom - 2*frameWidth
	}

	photo := fitBox(img, maxPhoto, maxPhoto)
	pb := photo.Bounds()
	frameW := pb.Dx() + 2*frameWidth
	frameH := pb.Dy() + 2*frameWidth + bottom

	frame := imaging.New(frameW, frameH, color.White)
	frame = imaging.Paste(frame, photo, image.Pt(frameWidth, frameWidth))

	canvas := imaging.New(size, size, color.White)
	origin := image.Pt((size-frameW)/2, (size-frameH)/2)

	shadow := imaging.New(frameW, frameH, color.NRGBA{A: 50})
	canvas = imaging.Overlay(canvas, shadow, origin.Add(image.Pt(5, 5)), 1.0)
	return imaging.Paste(canvas, frame, origin)
}

func applyMagazine(img image.Image, size int) *image.NRGBA {
	canvas := imaging.New(size, size, color.Black)
	margin := scaled(40, size)
	rule := scaled(120, size)
	line := 2

	white := imaging.New(1, 1, color.White)
	fill := func(r image.Rectangle) {
		canvas = imaging.Paste(canvas, imaging.Resize(white, r.Dx(), r.Dy(), imaging.NearestNeighbor), r.Min)
	}
	far := size - margin
	fill(image.Rect(margin, margin, far, margin+line))
	fill(image.Rect(margin, far-line, far, far))
	fill(image.Rect(margin, margin, margin+line, far))
	fill(image.Rect(far-line, margin, far, far))
	fill(image.Rect(margin, rule, far, rule+line))

	photo := fitBox(img, scaled(960, size), scaled(880, size))
	x := (size - photo.Bounds().Dx()) / 2
	return imaging.Paste(canvas, photo, image.Pt(x, scaled(160, size)))
}

// scaled maps a length given for a 1080 canvas onto a canvas of size.
func scaled(v, size int) int {
	return v * size / 1080
}
