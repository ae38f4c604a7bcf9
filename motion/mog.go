//go:build withcv
// +build withcv

/*
DESCRIPTION
  mog.go provides a motion detector using OpenCV's Mixture of Gaussians
  background subtractor.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package motion

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/frame"
)

const (
	defaultMOGMinArea   = 25.0
	defaultMOGThreshold = 20.0
	defaultMOGHistory   = 500
)

// MOGDetector is a motion detector using the Mixture of Gaussians method.
type MOGDetector struct {
	area float64                        // The minimum area of a contour of motion.
	bs   *gocv.BackgroundSubtractorMOG2 // Separates the foreground from the background.
	knl  gocv.Mat                       // Kernel for removing noise.
}

// NewMOG returns a MOGDetector configured by the MOTION_MIN_AREA,
// MOTION_THRESHOLD and MOTION_HISTORY properties of props.
func NewMOG(props detection.Properties) (Detector, error) {
	area, err := props.Float(PropMinArea, defaultMOGMinArea)
	if err != nil {
		return nil, err
	}
	thresh, err := props.Float(PropThreshold, defaultMOGThreshold)
	if err != nil {
		return nil, err
	}
	history, err := props.Int(PropHistory, defaultMOGHistory)
	if err != nil {
		return nil, err
	}
	if area <= 0 || thresh <= 0 || history <= 0 {
		return nil, detection.InvalidProperty(PropAlgorithm, MOG, "parameters must be positive")
	}

	bs := gocv.NewBackgroundSubtractorMOG2WithParams(history, thresh, false)
	return &MOGDetector{
		area: area,
		bs:   &bs,
		knl:  gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (m *MOGDetector) Close() error {
	m.bs.Close()
	m.knl.Close()
	return nil
}

// Detect implements Detector. The confidence is the fraction of the frame
// covered by the motion bounds.
func (m *MOGDetector) Detect(f frame.Frame) (image.Rectangle, float64, bool, error) {
	img, release, err := mat(f)
	if err != nil {
		return image.Rectangle{}, 0, false, err
	}
	defer release()

	delta := gocv.NewMat()
	defer delta.Close()

	m.bs.Apply(img, &delta)
	gocv.Threshold(delta, &delta, 25, 255, gocv.ThresholdBinary)

	// Remove noise, then fill small holes.
	gocv.Erode(delta, &delta, m.knl)
	gocv.Dilate(delta, &delta, m.knl)
	gocv.Dilate(delta, &delta, m.knl)
	gocv.Erode(delta, &delta, m.knl)

	contours := gocv.FindContours(delta, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var box image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if gocv.ContourArea(c) > m.area {
			box = box.Union(gocv.BoundingRect(c))
		}
	}
	if box.Empty() {
		return image.Rectangle{}, 0, false, nil
	}
	total := float64(img.Cols() * img.Rows())
	return box, float64(box.Dx()*box.Dy()) / total, true, nil
}

// mat returns f as a gocv.Mat and a function releasing any copy made.
func mat(f frame.Frame) (gocv.Mat, func(), error) {
	if m, ok := f.(*frame.Mat); ok {
		return m.Mat(), func() {}, nil
	}
	img, err := f.Image()
	if err != nil {
		return gocv.Mat{}, nil, err
	}
	m, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, nil, errors.Wrap(err, "could not convert image to mat")
	}
	return m, func() { m.Close() }, nil
}
