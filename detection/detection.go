/*
DESCRIPTION
  detection.go provides the data types exchanged between the stream executor
  and detection components: locations, tracks and segment descriptors.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package detection provides the contract between the stream executor and
// detection components, and the data types that cross it.
package detection

import "sort"

// NoConfidence is the confidence of a Location or Track that has not been set.
const NoConfidence = -1.0

// Location is a single detection: an axis aligned box within one frame.
type Location struct {
	X, Y          int
	Width, Height int
	Confidence    float64
	Properties    Properties
}

// NewLocation returns a Location with no confidence and an empty property
// bag.
func NewLocation(x, y, w, h int) Location {
	return Location{X: x, Y: y, Width: w, Height: h, Confidence: NoConfidence, Properties: Properties{}}
}

// Track is one object's detections across the frames of a segment, keyed by
// frame index. StartFrame and StopFrame must equal the smallest and largest
// key of Locations; a Track without locations is invalid.
type Track struct {
	StartFrame int
	StopFrame  int
	Confidence float64
	Locations  map[int]Location
	Properties Properties
}

// NewTrack returns an empty Track spanning start to stop.
func NewTrack(start, stop int) Track {
	return Track{
		StartFrame: start,
		StopFrame:  stop,
		Confidence: NoConfidence,
		Locations:  map[int]Location{},
		Properties: Properties{},
	}
}

// Frames returns the frame indices of t's locations in ascending order.
func (t *Track) Frames() []int {
	frames := make([]int, 0, len(t.Locations))
	for f := range t.Locations {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// Bounds returns the smallest and largest frame index of t's locations. ok is
// false if t has no locations.
func (t *Track) Bounds() (first, last int, ok bool) {
	if len(t.Locations) == 0 {
		return 0, 0, false
	}
	first, last = int(^uint(0)>>1), -1
	for f := range t.Locations {
		if f < first {
			first = f
		}
		if f > last {
			last = f
		}
	}
	return first, last, true
}

// SegmentInfo describes a segment of a stream job. StartFrame and StopFrame
// are inclusive; Width and Height are those of the frames the component is
// given.
type SegmentInfo struct {
	Number     int
	StartFrame int
	StopFrame  int
	Width      int
	Height     int
}

// NewSegmentInfo returns the descriptor of the segment that begins at frame
// start, for segments of size frames.
func NewSegmentInfo(start, size, width, height int) SegmentInfo {
	return SegmentInfo{
		Number:     start / size,
		StartFrame: start,
		StopFrame:  start + size - 1,
		Width:      width,
		Height:     height,
	}
}

// Contains returns true if frame n is within the segment.
func (s SegmentInfo) Contains(n int) bool { return n >= s.StartFrame && n <= s.StopFrame }
