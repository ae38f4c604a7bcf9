/*
DESCRIPTION
  transform.go provides Chain, an ordered list of reversible geometric frame
  transforms (rotate, flip and crop) built from job and media properties.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package transform provides the frame transform chain. Frames read from a
// stream are rotated, flipped and cropped before being given to a component,
// and the locations the component reports are mapped back into the
// coordinate space of the original frame.
package transform

import (
	"fmt"
	"image"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/utils/logging"
)

// step is a single reversible transform. Apply is given frames of the size
// the step was built for.
type step interface {
	apply(f frame.Frame) error
	reverse(l *detection.Location)
	name() string
}

// Chain applies its steps to frames in order, and reverses them on locations
// in the opposite order. A Chain is immutable once built and may be reused for
// every frame of a job.
type Chain struct {
	steps []step
	in    image.Point
	out   image.Point
}

// NewChain returns the Chain described by o for frames of the given size.
// The steps are rotation, then horizontal flip, then search region crop; each
// is omitted if it would have no effect.
func (o Options) NewChain(size image.Point, log logging.Logger) *Chain {
	c := &Chain{in: size, out: size}

	if o.Rotation != 0 {
		c.steps = append(c.steps, &rotate{deg: o.Rotation, in: c.out})
		if o.Rotation != 180 {
			c.out = image.Pt(c.out.Y, c.out.X)
		}
	}

	if o.Flip {
		c.steps = append(c.steps, &flip{width: c.out.X})
	}

	if o.SearchRegion {
		full := image.Rectangle{Max: c.out}
		r := o.region(c.out)
		switch {
		case r.Empty():
			log.Warning("search region does not intersect frame, using full frame", "region", o.regionString(), "frame", c.out)
		case r == full:
			log.Debug("search region covers full frame, not cropping")
		default:
			c.steps = append(c.steps, &crop{r: r})
			c.out = r.Size()
		}
	}

	for _, s := range c.steps {
		log.Debug("using frame transform", "transform", s.name())
	}
	return c
}

// TransformFrame applies each step to f in order.
func (c *Chain) TransformFrame(f frame.Frame) error {
	if sz := f.Size(); sz != c.in {
		return fmt.Errorf("frame size %v does not match transform input size %v", sz, c.in)
	}
	for _, s := range c.steps {
		err := s.apply(f)
		if err != nil {
			return fmt.Errorf("could not apply %s: %w", s.name(), err)
		}
	}
	return nil
}

// ReverseTransform maps l from the coordinate space of transformed frames to
// that of original frames. Steps are reversed last to first.
func (c *Chain) ReverseTransform(l *detection.Location) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		c.steps[i].reverse(l)
	}
}

// InputSize returns the size of the frames the chain accepts.
func (c *Chain) InputSize() image.Point { return c.in }

// OutputSize returns the size of transformed frames.
func (c *Chain) OutputSize() image.Point { return c.out }

// Len returns the number of steps in the chain.
func (c *Chain) Len() int { return len(c.steps) }

// rotate rotates frames of size in clockwise by deg.
type rotate struct {
	deg int
	in  image.Point
}

func (r *rotate) apply(f frame.Frame) error { return f.Rotate(r.deg) }

func (r *rotate) reverse(l *detection.Location) {
	x, y, w, h := l.X, l.Y, l.Width, l.Height
	switch r.deg {
	case 90:
		l.X, l.Y = y, r.in.Y-x-w
		l.Width, l.Height = h, w
	case 180:
		l.X, l.Y = r.in.X-x-w, r.in.Y-y-h
	case 270:
		l.X, l.Y = r.in.X-y-h, x
		l.Width, l.Height = h, w
	}
}

func (r *rotate) name() string { return fmt.Sprintf("rotate %d", r.deg) }

// flip mirrors frames of the given width horizontally.
type flip struct {
	width int
}

func (fl *flip) apply(f frame.Frame) error { return f.FlipHorizontal() }

func (fl *flip) reverse(l *detection.Location) { l.X = fl.width - l.X - l.Width }

func (fl *flip) name() string { return "horizontal flip" }

// crop reduces frames to r. Reversal translates and does not rescale.
type crop struct {
	r image.Rectangle
}

func (c *crop) apply(f frame.Frame) error { return f.Crop(c.r) }

func (c *crop) reverse(l *detection.Location) {
	l.X += c.r.Min.X
	l.Y += c.r.Min.Y
}

func (c *crop) name() string { return fmt.Sprintf("crop %v", c.r) }
