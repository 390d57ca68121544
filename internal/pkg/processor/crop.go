package processor

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"golang.org/x/image/vector"
)

// CropRect cuts the rectangle out of img, clamped to the image bounds.
func CropRect(img image.Image, c entity.RectCrop) *image.NRGBA {
	r := image.Rect(
		int(math.Floor(c.Left)),
		int(math.Floor(c.Top)),
		int(math.Ceil(c.Left+c.Width)),
		int(math.Ceil(c.Top+c.Height)),
	)
	return imaging.Crop(img, r.Add(img.Bounds().Min))
}

// CropPolygon keeps the pixels inside the outline and cuts the result to the polygon's
// bounding box. Pixels outside the outline are transparent.
func CropPolygon(img image.Image, c entity.PolygonCrop) *image.NRGBA {
	src := imaging.Clone(img)
	b := src.Bounds()

	mask := image.NewAlpha(b)
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	for i, p := range c.Points {
		if i == 0 {
			r.MoveTo(float32(p.X), float32(p.Y))
			continue
		}
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
	r.Draw(mask, b, image.Opaque, image.Point{})

	masked := image.NewNRGBA(b)
	draw.DrawMask(masked, b, src, image.Point{}, mask, image.Point{}, draw.Src)

	return CropRect(masked, c.Bounds())
}
