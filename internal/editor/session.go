package editor

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/google/uuid"
)

// Result is a processed image published by the controller after a successful round trip.
type Result struct {
	Sequence   uint64
	Data       []byte
	Width      int
	Height     int
	Operations entity.OperationState
	At         time.Time
}

// Session is one page opened for editing. The original bytes are set once in Open and never
// change; operations, the display width and the in-flight marker are owned by the Controller
// that wraps the session.
type Session struct {
	ID        string
	CreatedAt time.Time

	original []byte
	info     ImageInfo

	displayWidth float64
	ops          entity.OperationState
	inFlight     uint64
	closed       bool

	last atomic.Pointer[Result]
}

// Open decodes the page and starts a session with default operations.
func Open(ctx context.Context, original []byte, displayWidth float64) (*Session, error) {
	if displayWidth <= 0 || math.IsNaN(displayWidth) || math.IsInf(displayWidth, 0) {
		return nil, entity.ErrInvalidDisplaySize
	}
	info, err := DecodeImage(ctx, original)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(original))
	copy(data, original)

	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now(),
		original:     data,
		info:         info,
		displayWidth: displayWidth,
		ops:          entity.DefaultOperations(),
	}, nil
}

func (s *Session) SessionID() string { return s.ID }

// Original returns a copy of the original image bytes.
func (s *Session) Original() []byte {
	out := make([]byte, len(s.original))
	copy(out, s.original)
	return out
}

func (s *Session) Info() ImageInfo { return s.info }

// LastProcessed returns the latest published result, or nil before the first successful
// round trip. Safe to call from any goroutine.
func (s *Session) LastProcessed() *Result {
	return s.last.Load()
}

func (s *Session) displayScale() float64 {
	return s.displayWidth / float64(s.info.Width)
}

func (s *Session) publish(r *Result) {
	s.last.Store(r)
}
