//go:build withcv
// +build withcv

/*
DESCRIPTION
  capture_cv.go provides a Capture that decodes streams with OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stream

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/utils/logging"
)

// VideoCapture is a Capture backed by an OpenCV VideoCapture.
type VideoCapture struct {
	uri string
	vc  *gocv.VideoCapture
	log logging.Logger
}

// NewCapture returns a Capture for the stream at uri.
func NewCapture(uri string, log logging.Logger) Capture {
	return &VideoCapture{uri: uri, log: log}
}

// Open opens the stream.
func (c *VideoCapture) Open() error {
	vc, err := gocv.OpenVideoCapture(c.uri)
	if err != nil {
		return fmt.Errorf("could not open video capture: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("video capture for %s did not open", c.uri)
	}
	c.log.Info(pkg+"opened video capture", "uri", c.uri)
	c.vc = vc
	return nil
}

// Read reads the next frame as a frame.Mat.
func (c *VideoCapture) Read() (frame.Frame, error) {
	if c.vc == nil {
		return nil, errors.New("video capture not open")
	}
	m := gocv.NewMat()
	if !c.vc.Read(&m) {
		m.Close()
		return nil, errors.New("video capture read failed")
	}
	return frame.NewMat(m), nil
}

// Close closes the stream. It is a no-op if the stream is not open.
func (c *VideoCapture) Close() error {
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}
