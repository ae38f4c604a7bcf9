//go:build withcv
// +build withcv

/*
DESCRIPTION
  mat.go provides Mat, a Frame backed by a gocv.Mat as read from an OpenCV
  video capture.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Mat is a Frame backed by a gocv.Mat. It must be closed manually, due to
// gocv using c-go.
type Mat struct {
	mat gocv.Mat
}

// NewMat returns a Mat that takes ownership of m.
func NewMat(m gocv.Mat) *Mat { return &Mat{mat: m} }

// Mat returns the underlying gocv.Mat.
func (m *Mat) Mat() gocv.Mat { return m.mat }

// Size implements Frame.
func (m *Mat) Size() image.Point { return image.Pt(m.mat.Cols(), m.mat.Rows()) }

// Image implements Frame. The returned image is a copy of the pixels.
func (m *Mat) Image() (image.Image, error) {
	img, err := m.mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "could not convert mat to image")
	}
	return img, nil
}

// Empty implements Frame.
func (m *Mat) Empty() bool { return m.mat.Empty() }

// Rotate implements Frame.
func (m *Mat) Rotate(deg int) error {
	var code gocv.RotateFlag
	switch deg {
	case 90:
		code = gocv.Rotate90Clockwise
	case 180:
		code = gocv.Rotate180Clockwise
	case 270:
		code = gocv.Rotate90CounterClockwise
	default:
		return errors.Errorf("invalid rotation of %d degrees", deg)
	}
	dst := gocv.NewMat()
	gocv.Rotate(m.mat, &dst, code)
	return m.replace(dst)
}

// FlipHorizontal implements Frame.
func (m *Mat) FlipHorizontal() error {
	dst := gocv.NewMat()
	gocv.Flip(m.mat, &dst, 1)
	return m.replace(dst)
}

// Crop implements Frame.
func (m *Mat) Crop(r image.Rectangle) error {
	r = r.Intersect(image.Rectangle{Max: m.Size()})
	if r.Empty() {
		return errors.Errorf("crop region %v does not intersect frame", r)
	}
	region := m.mat.Region(r)
	defer region.Close()
	return m.replace(region.Clone())
}

// Close implements Frame.
func (m *Mat) Close() error { return m.mat.Close() }

func (m *Mat) replace(dst gocv.Mat) error {
	err := m.mat.Close()
	m.mat = dst
	if err != nil {
		return errors.Wrap(err, "could not release replaced mat")
	}
	return nil
}
