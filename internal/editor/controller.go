package editor

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/sirupsen/logrus"
)

// Processor turns the original image and a full operation snapshot into new pixels.
type Processor interface {
	Process(ctx context.Context, original []byte, ops entity.OperationState) ([]byte, error)
}

// Notifier shows a processing failure to the user. It is called outside the controller lock.
type Notifier func(sessionID string, err error)

const defaultRequestTimeout = 30 * time.Second

type Option func(*Controller)

func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notify = n } }

// WithRequestTimeout bounds each processing call; zero or less keeps the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUpdateListener registers a callback run after each published result.
func WithUpdateListener(fn func(*Result)) Option { return func(c *Controller) { c.onUpdate = fn } }

// Controller owns a Session's operation state and drives reprocessing. Every mutator ends with
// exactly one reprocess request built from the original image and a full snapshot of the
// current operations. Responses are applied in issue order: only the response to the highest
// sequence number issued so far is published, anything older is dropped.
type Controller struct {
	mu sync.Mutex

	session     *Session
	processor   Processor
	selector    *RegionSelector
	perspective *PerspectiveWorkflow

	issued             uint64
	perspectivePending uint64
	lastErr            error

	notify   Notifier
	onUpdate func(*Result)
	timeout  time.Duration
	log      *logrus.Entry

	// outstanding counts running requests; idle is closed when it drops to zero.
	outstanding int
	idle        chan struct{}
}

func NewController(session *Session, processor Processor, opts ...Option) *Controller {
	c := &Controller{
		session:     session,
		processor:   processor,
		selector:    NewRegionSelector(),
		perspective: NewPerspectiveWorkflow(),
		timeout:     defaultRequestTimeout,
		log:         logrus.WithField("session_id", session.ID),
	}
	c.notify = func(id string, err error) {
		logrus.WithField("session_id", id).Errorf("processing failed: %v", err)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Session() *Session { return c.session }

// Operations returns a snapshot of the current operation state.
func (c *Controller) Operations() entity.OperationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ops.Clone()
}

func (c *Controller) PerspectiveState() PerspectiveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perspective.State()
}

func (c *Controller) SelectionMode() SelectionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selector.Mode()
}

// InFlight returns the sequence number of the request whose response is still awaited, or 0.
func (c *Controller) InFlight() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.inFlight
}

// LastError returns the last failure surfaced to the user, cleared by the next published result.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) SetBrightness(v float64) (uint64, error) {
	if !validFactor(v) {
		return 0, entity.ErrInvalidFactor
	}
	return c.mutate(func(o *entity.OperationState) { o.Brightness = v })
}

func (c *Controller) SetContrast(v float64) (uint64, error) {
	if !validFactor(v) {
		return 0, entity.ErrInvalidFactor
	}
	return c.mutate(func(o *entity.OperationState) { o.Contrast = v })
}

func (c *Controller) ToggleGrayscale() (uint64, error) {
	return c.mutate(func(o *entity.OperationState) { o.Grayscale = !o.Grayscale })
}

func (c *Controller) ToggleEnhance() (uint64, error) {
	return c.mutate(func(o *entity.OperationState) { o.Enhance = !o.Enhance })
}

// SetTemplate selects an overlay; an empty id clears it.
func (c *Controller) SetTemplate(id string) (uint64, error) {
	return c.mutate(func(o *entity.OperationState) { o.Template = id })
}

func (c *Controller) ClearCrop() (uint64, error) {
	return c.mutate(func(o *entity.OperationState) { o.Crop = entity.NoCrop{} })
}

// SetDisplayWidth records the on-screen width of the rendered image. It affects selections
// begun afterwards only.
func (c *Controller) SetDisplayWidth(w float64) error {
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return entity.ErrInvalidDisplaySize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.closed {
		return entity.ErrSessionClosed
	}
	c.session.displayWidth = w
	return nil
}

func (c *Controller) BeginRectSelection() error {
	return c.withSelector(func(s *RegionSelector) error { return s.BeginRect(c.session.displayScale()) })
}

func (c *Controller) BeginPolygonSelection() error {
	return c.withSelector(func(s *RegionSelector) error { return s.BeginPolygon(c.session.displayScale()) })
}

// AddPoint feeds a display-space pointer sample to the active selection.
func (c *Controller) AddPoint(p entity.Point) error {
	return c.withSelector(func(s *RegionSelector) error { return s.AddPoint(p) })
}

// GrabSelection records where a move drag of the rectangle starts.
func (c *Controller) GrabSelection(p entity.Point) error {
	return c.withSelector(func(s *RegionSelector) error {
		if s.Mode() != SelectionRect {
			return entity.ErrNoSelection
		}
		s.GrabRect(p)
		return nil
	})
}

// ResizeSelection drags handle h of the rectangle to p. A HandleMove drag is measured from the
// point given to GrabSelection or from the previous drag sample.
func (c *Controller) ResizeSelection(h Handle, p entity.Point) error {
	return c.withSelector(func(s *RegionSelector) error { return s.ResizeRect(h, p) })
}

func (c *Controller) CancelSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selector.Cancel()
}

// CloseSelection converts the selection to source-image space and replaces the crop with it.
// A discarded selection returns a SelectionError and leaves the operations untouched.
func (c *Controller) CloseSelection() (uint64, error) {
	c.mu.Lock()
	if c.session.closed {
		c.mu.Unlock()
		return 0, entity.ErrSessionClosed
	}
	crop, err := c.selector.Close()
	if err != nil {
		c.mu.Unlock()
		var selErr *entity.SelectionError
		if errors.As(err, &selErr) {
			c.log.WithField("points", selErr.Points).Debug("selection discarded")
		}
		return 0, err
	}
	c.session.ops.Crop = crop
	seq := c.requestReprocessLocked()
	c.mu.Unlock()
	return seq, nil
}

// TogglePerspective advances Off -> Detecting -> Correcting -> Off. The step is refused with
// ErrTransitionInFlight while the request issued by the previous step has not come back.
func (c *Controller) TogglePerspective() (PerspectiveState, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.closed {
		return c.perspective.State(), 0, entity.ErrSessionClosed
	}
	if c.perspectivePending != 0 {
		return c.perspective.State(), 0, entity.ErrTransitionInFlight
	}
	next := c.perspective.Propose()
	if err := c.perspective.Commit(next); err != nil {
		return c.perspective.State(), 0, err
	}
	c.session.ops.PerspectiveCorrection, c.session.ops.ShowBoundaries = next.Flags()

	seq := c.requestReprocessLocked()
	c.perspectivePending = seq
	return next, seq, nil
}

// RequestReprocess issues a fresh request for the current state, for example to retry
// after a failure.
func (c *Controller) RequestReprocess() (uint64, error) {
	return c.mutate(func(*entity.OperationState) {})
}

// Wait blocks until no request is running or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	if c.outstanding == 0 {
		c.mu.Unlock()
		return nil
	}
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session. Requests still running are left to finish; their results are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.closed = true
	c.selector.Cancel()
	c.log.Info("edit session closed")
}

func (c *Controller) withSelector(fn func(*RegionSelector) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.closed {
		return entity.ErrSessionClosed
	}
	return fn(c.selector)
}

func (c *Controller) mutate(fn func(*entity.OperationState)) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.closed {
		return 0, entity.ErrSessionClosed
	}
	fn(&c.session.ops)
	return c.requestReprocessLocked(), nil
}

func (c *Controller) requestReprocessLocked() uint64 {
	c.issued++
	seq := c.issued
	c.session.inFlight = seq

	snapshot := c.session.ops.Clone()
	c.log.WithField("seq", seq).Debug("reprocess requested")

	if c.outstanding == 0 {
		c.idle = make(chan struct{})
	}
	c.outstanding++
	go c.run(seq, c.session.original, snapshot)
	return seq
}

func (c *Controller) run(seq uint64, original []byte, ops entity.OperationState) {
	defer c.finish()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.processor.Process(ctx, original, ops)
	var info ImageInfo
	if err == nil {
		info, err = DecodeImage(ctx, data)
		if err != nil && !entity.IsProcessorFailure(err) {
			err = &entity.TransportError{Op: "decode", Err: err}
		}
	}
	c.complete(seq, ops, data, info, err)
}

func (c *Controller) complete(seq uint64, ops entity.OperationState, data []byte, info ImageInfo, err error) {
	c.mu.Lock()
	if c.perspectivePending == seq {
		c.perspectivePending = 0
	}
	log := c.log.WithField("seq", seq)
	if c.session.closed || seq != c.issued {
		latest := c.issued
		c.mu.Unlock()
		log.WithField("latest", latest).Warn("discarding stale response")
		return
	}
	c.session.inFlight = 0

	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.notify(c.session.ID, err)
		return
	}

	res := &Result{
		Sequence:   seq,
		Data:       data,
		Width:      info.Width,
		Height:     info.Height,
		Operations: ops,
		At:         time.Now(),
	}
	c.session.publish(res)
	c.lastErr = nil
	listener := c.onUpdate
	c.mu.Unlock()

	log.Debug("processed image published")
	if listener != nil {
		listener(res)
	}
}

func (c *Controller) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outstanding--
	if c.outstanding == 0 {
		close(c.idle)
	}
}

func validFactor(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
