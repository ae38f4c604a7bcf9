/*
DESCRIPTION
  frame.go defines Frame, a decoded video frame that supports the geometric
  operations used by the frame transform chain.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides decoded video frames. Image is a pure Go
// implementation; Mat wraps a gocv.Mat and is only available in builds with
// the withcv tag.
package frame

import "image"

// Frame is a decoded video frame. The geometric operations modify the frame
// in place; afterwards Size reports the new dimensions.
type Frame interface {
	// Size returns the width and height of the frame in pixels.
	Size() image.Point

	// Empty returns true if the frame holds no pixel data.
	Empty() bool

	// Rotate rotates the frame clockwise by deg degrees. Only 90, 180 and 270
	// are valid.
	Rotate(deg int) error

	// FlipHorizontal mirrors the frame about its vertical axis.
	FlipHorizontal() error

	// Crop reduces the frame to r, which is clipped to the frame bounds.
	Crop(r image.Rectangle) error

	// Image returns the pixels of the frame as an image.Image. The image may
	// share memory with the frame and must not be used after Close.
	Image() (image.Image, error)

	// Close releases any resources held by the frame.
	Close() error
}
