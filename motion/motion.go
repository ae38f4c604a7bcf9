/*
DESCRIPTION
  motion.go provides a streaming detection component that reports motion.
  Runs of consecutive processed frames with motion become tracks, and each
  such frame gets one location bounding the pixels that moved.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package motion provides MOTION, a built-in detection component that finds
// moving regions of a video stream by background subtraction.
package motion

import (
	"image"
	"strings"

	"github.com/ausocean/streamdetect/component"
	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/frame"
)

// Name is the name the component is registered under, and its detection
// type.
const Name = "MOTION"

// Job properties.
const (
	PropAlgorithm = "MOTION_ALGORITHM" // "basic" or "mog".
	PropThreshold = "MOTION_THRESHOLD"
	PropPixels    = "MOTION_PIXELS"
	PropMinArea   = "MOTION_MIN_AREA"
	PropHistory   = "MOTION_HISTORY"
)

// Algorithms.
const (
	Basic = "basic"
	MOG   = "mog"
)

func init() {
	component.Register(Name, New)
}

// Detector finds motion in a frame relative to the frames before it.
type Detector interface {
	// Detect returns the bounds of the motion in f and a confidence in
	// [0, 1]. ok is false if there is no motion.
	Detect(f frame.Frame) (box image.Rectangle, confidence float64, ok bool, err error)
	Close() error
}

// Component is a detection.StreamingComponent reporting motion.
type Component struct {
	det    Detector
	seg    detection.SegmentInfo
	tracks []detection.Track
	cur    int // Index of the track being extended, or -1.
	last   int // Last processed frame.
}

// New returns a motion component for job, using the algorithm named by the
// MOTION_ALGORITHM job property.
func New(job detection.StreamingJob) (detection.StreamingComponent, error) {
	alg := strings.ToLower(job.JobProperties.String(PropAlgorithm, Basic))
	var (
		det Detector
		err error
	)
	switch alg {
	case Basic:
		det, err = NewBasic(job.JobProperties)
	case MOG:
		det, err = NewMOG(job.JobProperties)
	default:
		return nil, detection.InvalidProperty(PropAlgorithm, alg, "is not a known algorithm")
	}
	if err != nil {
		return nil, err
	}
	return NewComponent(det), nil
}

// NewComponent returns a motion component using det.
func NewComponent(det Detector) *Component {
	return &Component{det: det, cur: -1, last: -1}
}

// Init implements detection.StreamingComponent.
func (c *Component) Init() error { return nil }

// Close implements detection.StreamingComponent.
func (c *Component) Close() error { return c.det.Close() }

// DetectionType implements detection.StreamingComponent.
func (c *Component) DetectionType() string { return Name }

// Supports implements detection.StreamingComponent.
func (c *Component) Supports(d detection.DataType) bool { return d == detection.Video }

// BeginSegment implements detection.StreamingComponent.
func (c *Component) BeginSegment(s detection.SegmentInfo) error {
	c.seg = s
	c.tracks = nil
	c.cur = -1
	return nil
}

// ProcessFrame implements detection.StreamingComponent.
func (c *Component) ProcessFrame(f frame.Frame, n int) (bool, error) {
	box, conf, ok, err := c.det.Detect(f)
	if err != nil {
		return false, err
	}
	c.last = n
	if !ok {
		c.cur = -1
		return false, nil
	}

	if c.cur < 0 {
		c.tracks = append(c.tracks, detection.NewTrack(n, n))
		c.cur = len(c.tracks) - 1
	}
	t := &c.tracks[c.cur]
	loc := detection.NewLocation(box.Min.X, box.Min.Y, box.Dx(), box.Dy())
	loc.Confidence = conf
	t.Locations[n] = loc
	t.StopFrame = n
	if conf > t.Confidence {
		t.Confidence = conf
	}
	return true, nil
}

// EndSegment implements detection.StreamingComponent.
func (c *Component) EndSegment() ([]detection.Track, error) {
	tracks := c.tracks
	c.tracks = nil
	c.cur = -1
	return tracks, nil
}
