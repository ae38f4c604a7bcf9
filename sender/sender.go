/*
DESCRIPTION
  sender.go provides Sender, which sends the job status, alerts and segment
  summary reports of a stream job.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sender provides the outbound messages of a stream job and their
// delivery over AMQP.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/utils/logging"
)

// Job statuses.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusStalled    = "STALLED"
)

// Message content types.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
)

// Message types, carried with each message.
const (
	TypeJobStatus     = "JobStatus"
	TypeActivityAlert = "ActivityAlert"
	TypeSummaryReport = "SummaryReport"
)

// defaultTimeout bounds each send.
const defaultTimeout = 10 * time.Second

// Message is a message to publish.
type Message struct {
	Type        string
	ContentType string
	Body        []byte
}

// Publisher publishes messages to named queues.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
}

// Config holds the job details a Sender needs.
type Config struct {
	JobID              string
	SegmentSize        int
	JobStatusQueue     string
	ActivityAlertQueue string
	SummaryReportQueue string
}

// JobStatus is the body of a job status message.
type JobStatus struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds.
}

// ActivityAlert is the body of an activity alert message.
type ActivityAlert struct {
	JobID     string `json:"jobId"`
	Frame     int    `json:"frameIndex"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds.
}

// Sender sends the messages of a job. Sends do not retry; any error has code
// exit.BrokerError.
type Sender struct {
	pub           Publisher
	cfg           Config
	detectionType string
	timeout       time.Duration
	now           func() time.Time
	log           logging.Logger
}

// New returns a Sender that publishes with pub.
func New(pub Publisher, cfg Config, log logging.Logger) *Sender {
	return &Sender{pub: pub, cfg: cfg, timeout: defaultTimeout, now: time.Now, log: log}
}

// SetDetectionType sets the detection type stamped on summary reports.
func (s *Sender) SetDetectionType(t string) { s.detectionType = t }

// SendJobStatus sends a job status.
func (s *Sender) SendJobStatus(status string) error {
	body, err := json.Marshal(JobStatus{JobID: s.cfg.JobID, Status: status, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return exit.Wrap(exit.BrokerError, err, "could not marshal job status")
	}
	s.log.Info("sending job status", "status", status)
	return s.send(s.cfg.JobStatusQueue, Message{Type: TypeJobStatus, ContentType: ContentTypeJSON, Body: body})
}

// SendStallAlert sends the STALLED job status.
func (s *Sender) SendStallAlert() error { return s.SendJobStatus(StatusStalled) }

// SendInProgressNotification sends the IN_PROGRESS job status.
func (s *Sender) SendInProgressNotification() error { return s.SendJobStatus(StatusInProgress) }

// SendActivityAlert sends an alert of activity found in frame n, which was
// read at ts Unix milliseconds.
func (s *Sender) SendActivityAlert(n int, ts int64) error {
	body, err := json.Marshal(ActivityAlert{JobID: s.cfg.JobID, Frame: n, Timestamp: ts})
	if err != nil {
		return exit.Wrap(exit.BrokerError, err, "could not marshal activity alert")
	}
	s.log.Info("sending activity alert", "frame", n)
	return s.send(s.cfg.ActivityAlertQueue, Message{Type: TypeActivityAlert, ContentType: ContentTypeJSON, Body: body})
}

// SendSummaryReport sends the report of the segment holding frame n, covering
// the segment's frames up to n. timestamps maps frame numbers to read times
// in Unix milliseconds and must hold the start and stop frame of every
// track. errMsg, if not empty, is the error that ended the job.
func (s *Sender) SendSummaryReport(n int, tracks []detection.Track, timestamps map[int]int64, errMsg string) error {
	r := s.NewSummaryReport(n, tracks, timestamps, errMsg)
	s.log.Info("sending summary report", "segment", r.SegmentNumber, "start", r.SegmentStartFrame, "stop", r.SegmentStopFrame, "tracks", len(r.Tracks))
	return s.send(s.cfg.SummaryReportQueue, Message{Type: TypeSummaryReport, ContentType: ContentTypeProtobuf, Body: r.Marshal()})
}

// NewSummaryReport returns the summary report SendSummaryReport sends. It
// panics if a track's start or stop frame has no timestamp, which means
// the caller has lost frame read times.
func (s *Sender) NewSummaryReport(n int, tracks []detection.Track, timestamps map[int]int64, errMsg string) *SummaryReport {
	seg := n / s.cfg.SegmentSize
	r := &SummaryReport{
		JobID:             s.cfg.JobID,
		SegmentNumber:     seg,
		SegmentStartFrame: seg * s.cfg.SegmentSize,
		SegmentStopFrame:  n,
		DetectionType:     s.detectionType,
		Error:             errMsg,
		Tracks:            make([]TrackReport, 0, len(tracks)),
	}

	for i := range tracks {
		t := &tracks[i]
		tr := TrackReport{
			StartFrame: t.StartFrame,
			StartTime:  mustTimestamp(timestamps, t.StartFrame),
			StopFrame:  t.StopFrame,
			StopTime:   mustTimestamp(timestamps, t.StopFrame),
			Confidence: t.Confidence,
			Properties: copyProperties(t.Properties),
			Detections: make([]DetectionReport, 0, len(t.Locations)),
		}
		for _, f := range t.Frames() {
			l := t.Locations[f]
			tr.Detections = append(tr.Detections, DetectionReport{
				Frame:      f,
				Time:       timestamps[f],
				X:          l.X,
				Y:          l.Y,
				Width:      l.Width,
				Height:     l.Height,
				Confidence: l.Confidence,
				Properties: copyProperties(l.Properties),
			})
		}
		r.Tracks = append(r.Tracks, tr)
	}
	return r
}

func mustTimestamp(timestamps map[int]int64, n int) int64 {
	ts, ok := timestamps[n]
	if !ok {
		panic(fmt.Sprintf("sender: no timestamp for frame %d", n))
	}
	return ts
}

func copyProperties(p detection.Properties) map[string]string {
	if len(p) == 0 {
		return nil
	}
	c := make(map[string]string, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

func (s *Sender) send(queue string, msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.pub.Publish(ctx, queue, msg)
	if err != nil {
		return exit.Wrap(exit.BrokerError, err, fmt.Sprintf("could not send %s to queue %s", msg.Type, queue))
	}
	return nil
}
