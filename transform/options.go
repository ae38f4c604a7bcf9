/*
DESCRIPTION
  options.go parses the frame transform options of a job from its job and
  media properties.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package transform

import (
	"fmt"
	"image"

	"github.com/ausocean/streamdetect/detection"
)

// Property keys.
const (
	KeyRotation       = "ROTATION"
	KeyHorizontalFlip = "HORIZONTAL_FLIP"
	KeyAutoRotate     = "AUTO_ROTATE"
	KeyAutoFlip       = "AUTO_FLIP"

	KeySearchRegionEnable       = "SEARCH_REGION_ENABLE_DETECTION"
	KeySearchRegionTopLeftX     = "SEARCH_REGION_TOP_LEFT_X_DETECTION"
	KeySearchRegionTopLeftY     = "SEARCH_REGION_TOP_LEFT_Y_DETECTION"
	KeySearchRegionBottomRightX = "SEARCH_REGION_BOTTOM_RIGHT_X_DETECTION"
	KeySearchRegionBottomRightY = "SEARCH_REGION_BOTTOM_RIGHT_Y_DETECTION"
)

// Options holds the transforms to apply to the frames of a job.
type Options struct {
	Rotation int // Clockwise degrees; one of 0, 90, 180 or 270.
	Flip     bool

	// SearchRegion enables cropping to the region bounded by the top left and
	// (exclusive) bottom right coordinates. A negative coordinate is the frame
	// edge.
	SearchRegion               bool
	TopLeftX, TopLeftY         int
	BottomRightX, BottomRightY int
}

// ParseOptions returns the transform options described by job and media
// properties. If AUTO_ROTATE or AUTO_FLIP is true, ROTATION or
// HORIZONTAL_FLIP is taken from the media properties instead of the job
// properties. A rotation other than 0, 90, 180 or 270 is an error.
func ParseOptions(job, media detection.Properties) (Options, error) {
	var o Options

	autoRotate, err := job.Bool(KeyAutoRotate, false)
	if err != nil {
		return o, err
	}
	src := job
	if autoRotate {
		src = media
	}
	o.Rotation, err = src.Int(KeyRotation, 0)
	if err != nil {
		return o, err
	}
	switch o.Rotation {
	case 0, 90, 180, 270:
	default:
		return o, detection.InvalidProperty(KeyRotation, fmt.Sprint(o.Rotation), "must be one of 0, 90, 180 or 270")
	}

	autoFlip, err := job.Bool(KeyAutoFlip, false)
	if err != nil {
		return o, err
	}
	src = job
	if autoFlip {
		src = media
	}
	o.Flip, err = src.Bool(KeyHorizontalFlip, false)
	if err != nil {
		return o, err
	}

	o.SearchRegion, err = job.Bool(KeySearchRegionEnable, false)
	if err != nil {
		return o, err
	}
	if !o.SearchRegion {
		return o, nil
	}
	for _, v := range []struct {
		key string
		dst *int
	}{
		{KeySearchRegionTopLeftX, &o.TopLeftX},
		{KeySearchRegionTopLeftY, &o.TopLeftY},
		{KeySearchRegionBottomRightX, &o.BottomRightX},
		{KeySearchRegionBottomRightY, &o.BottomRightY},
	} {
		*v.dst, err = job.Int(v.key, -1)
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

// region returns the search region clipped to a frame of the given size.
func (o Options) region(size image.Point) image.Rectangle {
	edge := func(v, def int) int {
		if v < 0 {
			return def
		}
		return v
	}
	// Not image.Rect, which would swap inverted corners.
	r := image.Rectangle{
		Min: image.Pt(edge(o.TopLeftX, 0), edge(o.TopLeftY, 0)),
		Max: image.Pt(edge(o.BottomRightX, size.X), edge(o.BottomRightY, size.Y)),
	}
	if r.Empty() {
		return image.Rectangle{}
	}
	return r.Intersect(image.Rectangle{Max: size})
}

func (o Options) regionString() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", o.TopLeftX, o.TopLeftY, o.BottomRightX, o.BottomRightY)
}
