package editor

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ds124wfegd/pagestudio/internal/entity"
)

type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// DecodeImage reads the image header off the caller's goroutine and returns its
// dimensions, or a DecodeError. It returns ctx.Err() if ctx ends first.
func DecodeImage(ctx context.Context, data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, &entity.DecodeError{Err: entity.ErrEmptyImage}
	}

	type result struct {
		info ImageInfo
		err  error
	}
	done := make(chan result, 1)

	go func() {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			done <- result{err: &entity.DecodeError{Err: err}}
			return
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			done <- result{err: &entity.DecodeError{Err: entity.ErrEmptyImage}}
			return
		}
		done <- result{info: ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}}
	}()

	select {
	case <-ctx.Done():
		return ImageInfo{}, ctx.Err()
	case r := <-done:
		return r.info, r.err
	}
}
