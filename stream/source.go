/*
DESCRIPTION
  source.go provides Source, a transform aware reader of frames from a live
  video stream with retrying and time bounded read variants.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package stream provides reading of frames from a live video stream.
package stream

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/streamdetect/metrics"
	"github.com/ausocean/streamdetect/retry"
	"github.com/ausocean/streamdetect/transform"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "stream: "

// ErrNoTransform is returned by ReverseTransform if no frame has been read,
// so the frame transforms are not known.
var ErrNoTransform = errors.New("reverse transform before first frame was read")

// Capture is a connection to a video stream.
type Capture interface {
	// Open connects to the stream. Open may be called again after Close to
	// reconnect.
	Open() error

	// Read returns the next frame of the stream. The caller owns the
	// frame and must close it.
	Read() (frame.Frame, error)

	Close() error
}

// Source reads frames from a Capture and transforms them. The transforms are
// set up from the size of the first frame read.
type Source struct {
	capture Capture
	opts    transform.Options
	chain   *transform.Chain
	backoff *retry.Backoff
	log     logging.Logger
}

// NewSource opens c and returns a Source that reads from it. sleep is used
// between retries and may be interrupted to abandon them. If c cannot be
// opened, an error with code exit.StreamConnectError is returned.
func NewSource(c Capture, opts transform.Options, sleep retry.SleepFunc, log logging.Logger) (*Source, error) {
	err := c.Open()
	if err != nil {
		return nil, exit.Wrap(exit.StreamConnectError, err, "unable to connect to stream")
	}
	return &Source{
		capture: c,
		opts:    opts,
		backoff: retry.New(sleep),
		log:     log,
	}, nil
}

// Read makes one attempt to read and transform a frame. ok is false if the
// read failed.
func (s *Source) Read() (f frame.Frame, ok bool) {
	f, err := s.capture.Read()
	if err != nil {
		s.log.Warning(pkg+"failed to read frame", "error", err)
		return nil, false
	}
	if f.Empty() {
		s.log.Warning(pkg + "read empty frame")
		f.Close()
		return nil, false
	}

	if s.chain == nil {
		s.log.Info(pkg+"first frame read, setting up transforms", "size", f.Size())
		s.chain = s.opts.NewChain(f.Size(), s.log)
	}

	err = s.chain.TransformFrame(f)
	if err != nil {
		s.log.Warning(pkg+"failed to transform frame", "error", err)
		f.Close()
		return nil, false
	}
	metrics.FramesRead.Inc()
	return f, true
}

// ReadWithRetry reads a frame, reconnecting and retrying with backoff until
// a read succeeds. The only error returned is that of an interrupted sleep.
func (s *Source) ReadWithRetry() (frame.Frame, error) {
	f, ok := s.Read()
	if ok {
		return f, nil
	}
	err := s.backoff.Forever(func() bool {
		f, ok = s.retryRead()
		return ok
	})
	return f, err
}

// ReadWithTimeout is like ReadWithRetry but gives up after timeout, in which
// case ok is false. A non-positive timeout means there are no retries.
func (s *Source) ReadWithTimeout(timeout time.Duration) (f frame.Frame, ok bool, err error) {
	f, ok = s.Read()
	if ok {
		return f, true, nil
	}
	ok, err = s.backoff.For(timeout, func() bool {
		f, ok = s.retryRead()
		return ok
	})
	return f, ok, err
}

func (s *Source) retryRead() (frame.Frame, bool) {
	metrics.ReadRetries.Inc()
	err := s.reopen()
	if err != nil {
		s.log.Warning(pkg+"failed to reconnect to stream", "error", err)
		return nil, false
	}
	return s.Read()
}

func (s *Source) reopen() error {
	err := s.capture.Close()
	if err != nil {
		s.log.Debug(pkg+"error closing stream before reconnect", "error", err)
	}
	return s.capture.Open()
}

// ReverseTransform maps the locations of tracks from the coordinate space of
// transformed frames back to that of the stream's frames. It returns
// ErrNoTransform if tracks is not empty and no frame has been read.
func (s *Source) ReverseTransform(tracks []detection.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	if s.chain == nil {
		return ErrNoTransform
	}
	for _, t := range tracks {
		for n, l := range t.Locations {
			s.chain.ReverseTransform(&l)
			t.Locations[n] = l
		}
	}
	return nil
}

// FrameSize returns the size of transformed frames, or the zero size if no
// frame has been read.
func (s *Source) FrameSize() image.Point {
	if s.chain == nil {
		return image.Point{}
	}
	return s.chain.OutputSize()
}

// Close closes the underlying capture.
func (s *Source) Close() error {
	err := s.capture.Close()
	if err != nil {
		return fmt.Errorf("could not close capture: %w", err)
	}
	return nil
}
