package processor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/mat"
)

// Quad is a document outline ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]entity.Point

var boundaryColor = color.NRGBA{G: 255, A: 255}

// Area returns the quad's area by the shoelace formula.
func (q Quad) Area() float64 {
	var s float64
	for i := range q {
		a, b := q[i], q[(i+1)%len(q)]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(s) / 2
}

// DetectQuad finds the document outline: pixels brighter than the Otsu threshold are the
// document, and the corners are its extremes along the two diagonals. Quads covering less
// than minArea of the image are rejected.
func DetectQuad(img image.Image, minArea float64) (Quad, bool) {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()

	var hist [256]int
	for i := 0; i < len(gray.Pix); i += 4 {
		hist[gray.Pix[i]]++
	}
	threshold := otsu(hist)

	var (
		q      Quad
		found  bool
		minSum = math.Inf(1)
		maxSum = math.Inf(-1)
		minDif = math.Inf(1)
		maxDif = math.Inf(-1)
	)
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if int(row[x*4]) <= threshold {
				continue
			}
			found = true
			p := entity.Point{X: float64(x), Y: float64(y)}
			sum, dif := p.X+p.Y, p.Y-p.X
			if sum < minSum {
				minSum, q[0] = sum, p
			}
			if sum > maxSum {
				maxSum, q[2] = sum, p
			}
			if dif < minDif {
				minDif, q[1] = dif, p
			}
			if dif > maxDif {
				maxDif, q[3] = dif, p
			}
		}
	}
	if !found {
		return Quad{}, false
	}
	if q.Area() < minArea*float64(b.Dx()*b.Dy()) {
		return Quad{}, false
	}
	return q, true
}

// otsu returns the luminance level that best separates the histogram into two classes.
func otsu(hist [256]int) int {
	var total, sum float64
	for i, n := range hist {
		total += float64(n)
		sum += float64(i * n)
	}

	var sumB, wB, best float64
	threshold := 0
	for t, n := range hist {
		wB += float64(n)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * n)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	return threshold
}

// DrawBoundary strokes the quad outline onto a copy of img.
func DrawBoundary(img image.Image, q Quad, width int) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	half := math.Max(float64(width), 1) / 2
	src := image.NewUniform(boundaryColor)

	r := vector.NewRasterizer(b.Dx(), b.Dy())
	for i := range q {
		a, c := q[i], q[(i+1)%len(q)]
		dx, dy := c.X-a.X, c.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half

		r.Reset(b.Dx(), b.Dy())
		r.MoveTo(float32(a.X+nx), float32(a.Y+ny))
		r.LineTo(float32(c.X+nx), float32(c.Y+ny))
		r.LineTo(float32(c.X-nx), float32(c.Y-ny))
		r.LineTo(float32(a.X-nx), float32(a.Y-ny))
		r.ClosePath()
		r.Draw(out, b, src, image.Point{})
	}
	return out
}

// Warp maps the quad onto the full image rectangle.
func Warp(img image.Image, q Quad) (*image.NRGBA, error) {
	src := imaging.Clone(img)
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	dst := [4]entity.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	hm, err := homography(dst, q)
	if err != nil {
		return nil, err
	}

	out := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			u, v, ok := hm.apply(float64(x)+0.5, float64(y)+0.5)
			if !ok {
				continue
			}
			sx, sy := int(math.Floor(u)), int(math.Floor(v))
			if sx < 0 || sy < 0 || sx >= b.Dx() || sy >= b.Dy() {
				continue
			}
			out.SetNRGBA(x, y, src.NRGBAAt(sx, sy))
		}
	}
	return out, nil
}

type projective [9]float64

func (m projective) apply(x, y float64) (float64, float64, bool) {
	d := m[6]*x + m[7]*y + m[8]
	if d == 0 {
		return 0, 0, false
	}
	return (m[0]*x + m[1]*y + m[2]) / d, (m[3]*x + m[4]*y + m[5]) / d, true
}

// homography solves the projective map taking each from[i] to to[i].
func homography(from, to [4]entity.Point) (projective, error) {
	a := mat.NewDense(8, 8, nil)
	bv := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := from[i].X, from[i].Y
		u, v := to[i].X, to[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		bv.SetVec(2*i, u)
		bv.SetVec(2*i+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(a, bv); err != nil {
		return projective{}, fmt.Errorf("failed to solve homography: %w", err)
	}

	var m projective
	for i := 0; i < 8; i++ {
		m[i] = params.AtVec(i)
	}
	m[8] = 1
	return m, nil
}
