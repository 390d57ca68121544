package script

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ds124wfegd/pagestudio/internal/editor"
	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/export"
	"github.com/sirupsen/logrus"
)

type Runner struct {
	processor editor.Processor
	adapter   *export.Adapter
	opts      []editor.Option
}

// NewRunner builds a runner; opts are passed to every session controller it creates.
func NewRunner(processor editor.Processor, adapter *export.Adapter, opts ...editor.Option) *Runner {
	return &Runner{processor: processor, adapter: adapter, opts: opts}
}

// Report summarises a finished run.
type Report struct {
	SessionID  string
	Operations entity.OperationState
	Skipped    int
	Published  int
	Artifact   *entity.Artifact
	Locations  []string
}

// Run opens page as a session, applies every step waiting for the processor after each, and
// delivers the final image to every sink.
func (r *Runner) Run(ctx context.Context, s *Script, page []byte, sinks ...export.Sink) (*Report, error) {
	displayWidth := s.DisplayWidth
	if displayWidth == 0 {
		info, err := editor.DecodeImage(ctx, page)
		if err != nil {
			return nil, err
		}
		displayWidth = float64(info.Width)
	}

	session, err := editor.Open(ctx, page, displayWidth)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("session_id", session.ID)
	report := &Report{SessionID: session.ID}

	var published atomic.Int64
	opts := append([]editor.Option{
		editor.WithNotifier(func(id string, err error) {
			logrus.WithField("session_id", id).Warnf("step failed: %v", err)
		}),
		editor.WithUpdateListener(func(res *editor.Result) {
			published.Add(1)
			log.WithFields(logrus.Fields{
				"seq":    res.Sequence,
				"width":  res.Width,
				"height": res.Height,
			}).Info("result published")
		}),
	}, r.opts...)
	c := editor.NewController(session, r.processor, opts...)
	defer c.Close()

	for i, st := range s.Steps {
		skipped, err := r.apply(ctx, c, st)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if skipped {
			report.Skipped++
			log.WithField("step", i+1).Warn("selection discarded")
		}
		if err := c.Wait(ctx); err != nil {
			return nil, err
		}
	}
	// steps that changed nothing issue no request; export still needs one round trip
	if session.LastProcessed() == nil && c.LastError() == nil {
		if _, err := c.RequestReprocess(); err != nil {
			return nil, err
		}
		if err := c.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := c.LastError(); err != nil {
		return nil, err
	}
	report.Operations = c.Operations()
	report.Published = int(published.Load())

	for _, sink := range sinks {
		artifact, location, err := r.adapter.Export(ctx, session, sink)
		if err != nil {
			return nil, err
		}
		report.Artifact = artifact
		report.Locations = append(report.Locations, location)
	}
	if len(sinks) == 0 {
		artifact, err := r.adapter.ExportCurrent(session)
		if err != nil {
			return nil, err
		}
		report.Artifact = artifact
	}
	return report, nil
}

// apply runs one step. It reports true when a selection was discarded.
func (r *Runner) apply(ctx context.Context, c *editor.Controller, st Step) (bool, error) {
	var err error
	switch {
	case st.Brightness != nil:
		_, err = c.SetBrightness(*st.Brightness)
	case st.Contrast != nil:
		_, err = c.SetContrast(*st.Contrast)
	case st.Grayscale != nil:
		if c.Operations().Grayscale != *st.Grayscale {
			_, err = c.ToggleGrayscale()
		}
	case st.Enhance != nil:
		if c.Operations().Enhance != *st.Enhance {
			_, err = c.ToggleEnhance()
		}
	case st.Template != nil:
		_, err = c.SetTemplate(*st.Template)
	case st.ClearCrop:
		_, err = c.ClearCrop()
	case st.Rect != nil:
		return r.selectRect(c, st.Rect)
	case st.Polygon != nil:
		return r.selectPolygon(c, st.Polygon)
	case st.Perspective > 0:
		for i := 0; i < st.Perspective; i++ {
			if _, _, err := c.TogglePerspective(); err != nil {
				return false, err
			}
			if err := c.Wait(ctx); err != nil {
				return false, err
			}
		}
	}
	return false, err
}

func (r *Runner) selectRect(c *editor.Controller, rect []float64) (bool, error) {
	if err := c.BeginRectSelection(); err != nil {
		return false, err
	}
	if err := c.AddPoint(entity.Point{X: rect[0], Y: rect[1]}); err != nil {
		return false, err
	}
	if err := c.AddPoint(entity.Point{X: rect[2], Y: rect[3]}); err != nil {
		return false, err
	}
	return closeSelection(c)
}

func (r *Runner) selectPolygon(c *editor.Controller, points [][]float64) (bool, error) {
	if err := c.BeginPolygonSelection(); err != nil {
		return false, err
	}
	for _, p := range points {
		if err := c.AddPoint(entity.Point{X: p[0], Y: p[1]}); err != nil {
			return false, err
		}
	}
	return closeSelection(c)
}

func closeSelection(c *editor.Controller) (bool, error) {
	_, err := c.CloseSelection()
	var selErr *entity.SelectionError
	if errors.As(err, &selErr) {
		return true, nil
	}
	return false, err
}
