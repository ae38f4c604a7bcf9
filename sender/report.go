/*
DESCRIPTION
  report.go provides the summary report message and its protobuf wire
  encoding.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sender

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// SummaryReport is the report of the tracks found in a segment, or in the
// part of a segment processed before the job ended.
type SummaryReport struct {
	JobID             string        `json:"jobId"`
	SegmentNumber     int           `json:"segmentNumber"`
	SegmentStartFrame int           `json:"segmentStartFrame"`
	SegmentStopFrame  int           `json:"segmentStopFrame"`
	DetectionType     string        `json:"detectionType"`
	Error             string        `json:"error,omitempty"`
	Tracks            []TrackReport `json:"tracks"`
}

// TrackReport is a track of a SummaryReport. Times are Unix milliseconds.
type TrackReport struct {
	StartFrame int               `json:"startFrame"`
	StartTime  int64             `json:"startTime"`
	StopFrame  int               `json:"stopFrame"`
	StopTime   int64             `json:"stopTime"`
	Confidence float64           `json:"confidence"`
	Properties map[string]string `json:"properties,omitempty"`
	Detections []DetectionReport `json:"detections"`
}

// DetectionReport is a detection of a TrackReport.
type DetectionReport struct {
	Frame      int               `json:"frame"`
	Time       int64             `json:"time"`
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Confidence float64           `json:"confidence"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Field numbers of the summary report wire format.
const (
	reportJobID         protowire.Number = 1
	reportSegmentNumber protowire.Number = 2
	reportStartFrame    protowire.Number = 3
	reportStopFrame     protowire.Number = 4
	reportDetectionType protowire.Number = 5
	reportError         protowire.Number = 6
	reportTrack         protowire.Number = 7

	trackStartFrame protowire.Number = 1
	trackStartTime  protowire.Number = 2
	trackStopFrame  protowire.Number = 3
	trackStopTime   protowire.Number = 4
	trackConfidence protowire.Number = 5
	trackProperty   protowire.Number = 6
	trackDetection  protowire.Number = 7

	detectionFrame      protowire.Number = 1
	detectionTime       protowire.Number = 2
	detectionX          protowire.Number = 3
	detectionY          protowire.Number = 4
	detectionWidth      protowire.Number = 5
	detectionHeight     protowire.Number = 6
	detectionConfidence protowire.Number = 7
	detectionProperty   protowire.Number = 8

	propertyKey   protowire.Number = 1
	propertyValue protowire.Number = 2
)

// Marshal returns the protobuf wire encoding of r. Properties are encoded as
// map entries in key order, so the encoding of a report is deterministic.
func (r *SummaryReport) Marshal() []byte {
	var b []byte
	b = appendString(b, reportJobID, r.JobID)
	b = appendInt(b, reportSegmentNumber, r.SegmentNumber)
	b = appendInt(b, reportStartFrame, r.SegmentStartFrame)
	b = appendInt(b, reportStopFrame, r.SegmentStopFrame)
	b = appendString(b, reportDetectionType, r.DetectionType)
	b = appendString(b, reportError, r.Error)
	for i := range r.Tracks {
		b = protowire.AppendTag(b, reportTrack, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Tracks[i].marshal())
	}
	return b
}

func (t *TrackReport) marshal() []byte {
	var b []byte
	b = appendInt(b, trackStartFrame, t.StartFrame)
	b = appendInt64(b, trackStartTime, t.StartTime)
	b = appendInt(b, trackStopFrame, t.StopFrame)
	b = appendInt64(b, trackStopTime, t.StopTime)
	b = appendDouble(b, trackConfidence, t.Confidence)
	b = appendProperties(b, trackProperty, t.Properties)
	for i := range t.Detections {
		b = protowire.AppendTag(b, trackDetection, protowire.BytesType)
		b = protowire.AppendBytes(b, t.Detections[i].marshal())
	}
	return b
}

func (d *DetectionReport) marshal() []byte {
	var b []byte
	b = appendInt(b, detectionFrame, d.Frame)
	b = appendInt64(b, detectionTime, d.Time)
	b = appendInt(b, detectionX, d.X)
	b = appendInt(b, detectionY, d.Y)
	b = appendInt(b, detectionWidth, d.Width)
	b = appendInt(b, detectionHeight, d.Height)
	b = appendDouble(b, detectionConfidence, d.Confidence)
	b = appendProperties(b, detectionProperty, d.Properties)
	return b
}

// Integers are zigzag encoded (sint64) since coordinates may be negative.
func appendInt(b []byte, n protowire.Number, v int) []byte {
	return appendInt64(b, n, int64(v))
}

func appendInt64(b []byte, n protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, n, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendDouble(b []byte, n protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, n, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, n protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendProperties(b []byte, n protowire.Number, p map[string]string) []byte {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var e []byte
		e = appendString(e, propertyKey, k)
		e = appendString(e, propertyValue, p[k])
		b = protowire.AppendTag(b, n, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return b
}

// DecodeSummaryReport decodes the protobuf wire encoding of a summary report.
// Unknown fields are skipped.
func DecodeSummaryReport(b []byte) (*SummaryReport, error) {
	r := &SummaryReport{}
	err := decodeFields(b, func(n protowire.Number, v field) error {
		var err error
		switch n {
		case reportJobID:
			r.JobID, err = v.string()
		case reportSegmentNumber:
			r.SegmentNumber, err = v.int()
		case reportStartFrame:
			r.SegmentStartFrame, err = v.int()
		case reportStopFrame:
			r.SegmentStopFrame, err = v.int()
		case reportDetectionType:
			r.DetectionType, err = v.string()
		case reportError:
			r.Error, err = v.string()
		case reportTrack:
			var t TrackReport
			t, err = decodeTrack(v)
			r.Tracks = append(r.Tracks, t)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not decode summary report: %w", err)
	}
	return r, nil
}

func decodeTrack(v field) (TrackReport, error) {
	var t TrackReport
	if v.typ != protowire.BytesType {
		return t, errWireType
	}
	err := decodeFields(v.bytes, func(n protowire.Number, v field) error {
		var err error
		switch n {
		case trackStartFrame:
			t.StartFrame, err = v.int()
		case trackStartTime:
			t.StartTime, err = v.int64()
		case trackStopFrame:
			t.StopFrame, err = v.int()
		case trackStopTime:
			t.StopTime, err = v.int64()
		case trackConfidence:
			t.Confidence, err = v.double()
		case trackProperty:
			if t.Properties == nil {
				t.Properties = map[string]string{}
			}
			err = v.property(t.Properties)
		case trackDetection:
			var d DetectionReport
			d, err = decodeDetection(v)
			t.Detections = append(t.Detections, d)
		}
		return err
	})
	return t, err
}

func decodeDetection(v field) (DetectionReport, error) {
	var d DetectionReport
	if v.typ != protowire.BytesType {
		return d, errWireType
	}
	err := decodeFields(v.bytes, func(n protowire.Number, v field) error {
		var err error
		switch n {
		case detectionFrame:
			d.Frame, err = v.int()
		case detectionTime:
			d.Time, err = v.int64()
		case detectionX:
			d.X, err = v.int()
		case detectionY:
			d.Y, err = v.int()
		case detectionWidth:
			d.Width, err = v.int()
		case detectionHeight:
			d.Height, err = v.int()
		case detectionConfidence:
			d.Confidence, err = v.double()
		case detectionProperty:
			if d.Properties == nil {
				d.Properties = map[string]string{}
			}
			err = v.property(d.Properties)
		}
		return err
	})
	return d, err
}
