/*
DESCRIPTION
  handle.go provides Handle, which owns a loaded streaming component and
  converts every failure of the component, returned or panicked, into a
  fatal component error.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package component provides loading of streaming detection components and
// a handle through which they are called.
package component

import (
	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/frame"
)

// Handle owns a StreamingComponent. Every error it returns has code
// exit.ComponentError and names the failing method.
type Handle struct {
	c             detection.StreamingComponent
	detectionType string
}

// NewHandle returns a Handle that owns c.
func NewHandle(c detection.StreamingComponent) *Handle {
	return &Handle{c: c}
}

// DetectionType returns the detection type of the component.
func (h *Handle) DetectionType() (typ string, err error) {
	if h.detectionType != "" {
		return h.detectionType, nil
	}
	defer recoverTo("DetectionType", &err)
	h.detectionType = h.c.DetectionType()
	return h.detectionType, nil
}

// BeginSegment begins a segment.
func (h *Handle) BeginSegment(info detection.SegmentInfo) (err error) {
	defer recoverTo("BeginSegment", &err)
	return wrap("BeginSegment", h.c.BeginSegment(info))
}

// ProcessFrame passes frame n to the component and returns true if the
// component found activity in it.
func (h *Handle) ProcessFrame(f frame.Frame, n int) (activity bool, err error) {
	defer recoverTo("ProcessFrame", &err)
	activity, err = h.c.ProcessFrame(f, n)
	return activity, wrap("ProcessFrame", err)
}

// EndSegment ends the current segment and returns its tracks.
func (h *Handle) EndSegment() (tracks []detection.Track, err error) {
	defer recoverTo("EndSegment", &err)
	tracks, err = h.c.EndSegment()
	if err != nil {
		return nil, wrap("EndSegment", err)
	}
	return tracks, nil
}

// Close closes the component.
func (h *Handle) Close() (err error) {
	defer recoverTo("Close", &err)
	return wrap("Close", h.c.Close())
}

func wrap(method string, err error) error {
	if err == nil {
		return nil
	}
	return exit.Wrap(exit.ComponentError, detection.Classify(err), "component "+method+" failed")
}

// recoverTo recovers a panic of the component and sets *err to the error
// describing it. It must be deferred.
func recoverTo(method string, err *error) {
	v := recover()
	if v == nil {
		return
	}
	*err = exit.Wrap(exit.ComponentError, detection.Classify(v), "component "+method+" panicked")
}
