/*
DESCRIPTION
  basic.go provides a motion detector using a difference method, comparing
  each pixel with the same pixel of the previous frame.

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
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/frame"
)

const (
	defaultBasicThreshold = 45000
	defaultBasicPixels    = 1000
)

type pixel struct{ r, g, b uint32 }

// row is the motion found in one row of a frame.
type row struct {
	motion     int
	minX, maxX int
}

// BasicDetector detects motion by thresholding the summed RGB difference of
// each pixel and the same pixel of the previous frame.
type BasicDetector struct {
	thresh int
	pix    int
	bg     [][]pixel
	rows   []row
	size   image.Point
}

// NewBasic returns a BasicDetector configured by the MOTION_THRESHOLD and
// MOTION_PIXELS properties of props.
func NewBasic(props detection.Properties) (*BasicDetector, error) {
	thresh, err := props.Int(PropThreshold, defaultBasicThreshold)
	if err != nil {
		return nil, err
	}
	if thresh <= 0 {
		return nil, detection.InvalidProperty(PropThreshold, props[PropThreshold], "must be positive")
	}
	pix, err := props.Int(PropPixels, defaultBasicPixels)
	if err != nil {
		return nil, err
	}
	if pix <= 0 {
		return nil, detection.InvalidProperty(PropPixels, props[PropPixels], "must be positive")
	}
	return &BasicDetector{thresh: thresh, pix: pix}, nil
}

// Close implements Detector.
func (d *BasicDetector) Close() error { return nil }

// Detect implements Detector. The first frame, and the first frame after a
// change of frame size, becomes the background and has no motion.
func (d *BasicDetector) Detect(f frame.Frame) (image.Rectangle, float64, bool, error) {
	img, err := f.Image()
	if err != nil {
		return image.Rectangle{}, 0, false, err
	}
	b := img.Bounds()
	if b.Empty() {
		return image.Rectangle{}, 0, false, errors.New("frame is empty")
	}

	if d.bg == nil || b.Size() != d.size {
		d.reset(img)
		return image.Rectangle{}, 0, false, nil
	}

	// Process bands of rows concurrently.
	workers := runtime.GOMAXPROCS(0)
	band := (d.size.Y + workers - 1) / workers
	var wg sync.WaitGroup
	for y := 0; y < d.size.Y; y += band {
		end := y + band
		if end > d.size.Y {
			end = d.size.Y
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for j := y0; j < y1; j++ {
				d.process(img, j)
			}
		}(y, end)
	}
	wg.Wait()

	var motion int
	box := image.Rectangle{}
	for j, r := range d.rows {
		if r.motion == 0 {
			continue
		}
		motion += r.motion
		box = box.Union(image.Rect(r.minX, j, r.maxX+1, j+1))
	}
	if motion < d.pix {
		return image.Rectangle{}, 0, false, nil
	}
	return box, float64(motion) / float64(d.size.X*d.size.Y), true, nil
}

func (d *BasicDetector) reset(img image.Image) {
	b := img.Bounds()
	d.size = b.Size()
	d.rows = make([]row, d.size.Y)
	d.bg = make([][]pixel, d.size.Y)
	for j := range d.bg {
		d.bg[j] = make([]pixel, d.size.X)
		for i := range d.bg[j] {
			r, g, bl, _ := img.At(b.Min.X+i, b.Min.Y+j).RGBA()
			d.bg[j][i] = pixel{r, g, bl}
		}
	}
}

// process finds the motion in row j of img and updates the background.
func (d *BasicDetector) process(img image.Image, j int) {
	b := img.Bounds()
	res := row{minX: d.size.X, maxX: -1}
	for i := range d.bg[j] {
		r, g, bl, _ := img.At(b.Min.X+i, b.Min.Y+j).RGBA()
		p := &d.bg[j][i]
		diff := absDiff(r, p.r) + absDiff(g, p.g) + absDiff(bl, p.b)
		if diff > d.thresh {
			res.motion++
			if i < res.minX {
				res.minX = i
			}
			if i > res.maxX {
				res.maxX = i
			}
		}
		*p = pixel{r, g, bl}
	}
	d.rows[j] = res
}

// Returns the absolute value of the difference of two uint32 numbers.
func absDiff(a, b uint32) int {
	c := int(a) - int(b)
	if c < 0 {
		return -c
	}
	return c
}
