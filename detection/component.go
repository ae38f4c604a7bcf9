/*
DESCRIPTION
  component.go provides the interface implemented by streaming detection
  components, and the job description a component is constructed with.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detection

import "github.com/ausocean/streamdetect/frame"

// DataType is a kind of media a component may support.
type DataType int

// Data types.
const (
	Unknown DataType = iota
	Video
	Image
	Audio
	Generic
)

func (d DataType) String() string {
	switch d {
	case Video:
		return "VIDEO"
	case Image:
		return "IMAGE"
	case Audio:
		return "AUDIO"
	case Generic:
		return "GENERIC"
	default:
		return "UNKNOWN"
	}
}

// StreamingJob describes the job a component is constructed for.
type StreamingJob struct {
	Name            string
	RunDirectory    string
	JobProperties   Properties
	MediaProperties Properties
}

// StreamingComponent is implemented by detection components that process a
// live stream. The executor calls BeginSegment before any ProcessFrame of a
// segment, and EndSegment after the last one. Any method may fail; failures
// are fatal to the job.
type StreamingComponent interface {
	Init() error
	Close() error

	// DetectionType names what the component detects, e.g. "FACE".
	DetectionType() string

	Supports(DataType) bool

	BeginSegment(SegmentInfo) error

	// ProcessFrame processes frame n of the current segment and returns true
	// if the frame holds activity of interest.
	ProcessFrame(f frame.Frame, n int) (bool, error)

	// EndSegment returns the tracks found in the current segment.
	EndSegment() ([]Track, error)
}

// Factory constructs a StreamingComponent for a job.
type Factory func(job StreamingJob) (StreamingComponent, error)
