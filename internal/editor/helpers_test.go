package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/stretchr/testify/require"
)

// pngBytes encodes a solid w x h image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeCall struct {
	original []byte
	ops      entity.OperationState
}

// fakeProcessor answers with a PNG whose width is brightness*10, so a response can be traced
// back to the request that produced it. Requests for a gated brightness block until released.
type fakeProcessor struct {
	t *testing.T

	mu    sync.Mutex
	calls []fakeCall
	gates map[float64]chan struct{}
	err   error
	raw   []byte
}

func newFakeProcessor(t *testing.T) *fakeProcessor {
	return &fakeProcessor{t: t, gates: make(map[float64]chan struct{})}
}

func (f *fakeProcessor) gate(brightness float64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[brightness] = ch
	return ch
}

func (f *fakeProcessor) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeProcessor) respondRaw(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = data
}

func (f *fakeProcessor) Process(ctx context.Context, original []byte, ops entity.OperationState) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{original: append([]byte(nil), original...), ops: ops})
	gate := f.gates[ops.Brightness]
	err := f.err
	raw := f.raw
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if raw != nil {
		return raw, nil
	}
	return pngBytes(f.t, widthFor(ops), 1), nil
}

func (f *fakeProcessor) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func callOps(calls []fakeCall) []entity.OperationState {
	out := make([]entity.OperationState, len(calls))
	for i, call := range calls {
		out[i] = call.ops
	}
	return out
}

func widthFor(ops entity.OperationState) int {
	return int(math.Round(ops.Brightness * 10))
}

const (
	testTimeout = 5 * time.Second
	testTick    = 5 * time.Millisecond
)

func waitSettled(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func openTestSession(t *testing.T, w, h int, displayWidth float64) *Session {
	t.Helper()
	s, err := Open(context.Background(), pngBytes(t, w, h), displayWidth)
	require.NoError(t, err)
	return s
}
