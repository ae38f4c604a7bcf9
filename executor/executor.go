/*
DESCRIPTION
  executor.go provides Executor, which runs a streaming detection job: it
  reads frames from a stream, passes them segment by segment to a detection
  component, and reports the component's results, until told to quit or a
  fatal error occurs.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package executor provides the streaming executor, which runs one
// detection component over a live video stream.
package executor

import (
	"errors"
	"fmt"
	"image"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/executor/config"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/streamdetect/metrics"
	"github.com/ausocean/streamdetect/quit"
	"github.com/ausocean/streamdetect/retry"
	"github.com/ausocean/utils/logging"
)

// Component is a loaded detection component. Every error it returns is
// fatal to the job. component.Handle implements Component.
type Component interface {
	BeginSegment(detection.SegmentInfo) error
	ProcessFrame(f frame.Frame, n int) (bool, error)
	EndSegment() ([]detection.Track, error)
}

// Source is a source of transformed frames. stream.Source implements
// Source.
type Source interface {
	Read() (frame.Frame, bool)
	ReadWithRetry() (frame.Frame, error)
	ReadWithTimeout(timeout time.Duration) (frame.Frame, bool, error)
	ReverseTransform(tracks []detection.Track) error
	FrameSize() image.Point
}

// Messenger sends the messages of a job. sender.Sender implements
// Messenger.
type Messenger interface {
	SendStallAlert() error
	SendInProgressNotification() error
	SendActivityAlert(n int, ts int64) error
	SendSummaryReport(n int, tracks []detection.Track, timestamps map[int]int64, errMsg string) error
}

// QuitSignal reports whether the job has been told to quit.
// quit.Watcher implements QuitSignal.
type QuitSignal interface {
	QuitReceived() (bool, error)
}

// Executor runs a job. It is not safe for concurrent use.
type Executor struct {
	s    *config.Settings
	src  Source
	comp Component
	msg  Messenger
	quit QuitSignal
	log  logging.Logger
	now  func() time.Time

	frame    int // Number of the last frame read; -1 before the first.
	inFlight int // Number of the frame being read or processed.

	// Read times of the frames of the current segment, in Unix
	// milliseconds. Cleared when the segment's summary is sent.
	timestamps map[int]int64

	seg          detection.SegmentInfo
	segOpen      bool              // BeginSegment called and summary not yet sent.
	ended        bool              // EndSegment called for the open segment.
	tracks       []detection.Track // Fixed tracks of an ended segment not yet reported.
	activitySent bool
	stalled      bool // Stall alert sent and the stream not yet recovered.

	lastRead  time.Time
	intervals []float64 // Seconds between frame reads in the current segment.
}

// New returns an Executor for the job with settings s.
func New(s *config.Settings, src Source, comp Component, msg Messenger, q QuitSignal, log logging.Logger) *Executor {
	return &Executor{
		s:          s,
		src:        src,
		comp:       comp,
		msg:        msg,
		quit:       q,
		log:        log,
		now:        time.Now,
		frame:      -1,
		timestamps: make(map[int]int64),
	}
}

// Run processes frames until a quit is received or a fatal error occurs.
// After a quit, a segment in progress is ended and reported and Run returns
// nil. After a fatal error, a summary report carrying the error is sent and
// the error is returned.
func (e *Executor) Run() error {
	for {
		e.inFlight = e.frame + 1
		q, err := e.quit.QuitReceived()
		if err != nil {
			return e.fail(err)
		}
		if q {
			return e.finish()
		}

		err = e.step()
		switch {
		case err == nil:
		case errors.Is(err, quit.ErrInterrupted):
			e.log.Debug("frame read interrupted")
		default:
			return e.fail(err)
		}
	}
}

// step reads and processes one frame.
func (e *Executor) step() error {
	f, err := e.read()
	if err != nil {
		return err
	}
	defer f.Close()

	e.frame = e.inFlight
	n := e.frame
	e.recordTime(n)

	if n%e.s.SegmentSize == 0 {
		sz := e.src.FrameSize()
		e.seg = detection.NewSegmentInfo(n, e.s.SegmentSize, sz.X, sz.Y)
		e.segOpen, e.ended, e.tracks, e.activitySent = true, false, nil, false
		e.log.Debug("beginning segment", "segment", e.seg.Number, "start", e.seg.StartFrame, "stop", e.seg.StopFrame)
		err = e.comp.BeginSegment(e.seg)
		if err != nil {
			return err
		}
	}

	if n%e.s.FrameInterval == 0 {
		activity, err := e.comp.ProcessFrame(f, n)
		if err != nil {
			return err
		}
		metrics.FramesProcessed.Inc()
		if activity && !e.activitySent {
			err = e.msg.SendActivityAlert(n, e.timestamps[n])
			if err != nil {
				return err
			}
			e.activitySent = true
			metrics.ActivityAlerts.Inc()
		}
	}

	if n == e.seg.StopFrame {
		return e.endSegment(n)
	}
	return nil
}

// read reads a frame by the job's retry strategy.
func (e *Executor) read() (frame.Frame, error) {
	p := e.s.Retry
	var (
		f   frame.Frame
		ok  bool
		err error
	)
	switch p.Strategy {
	case retry.NeverRetry:
		f, ok = e.src.Read()
		if !ok {
			return nil, exit.New(exit.StreamStalled, "stream read failed and retries are disabled")
		}
	case retry.NoAlertNoTimeout:
		f, err = e.src.ReadWithRetry()
		if err != nil {
			return nil, err
		}
	case retry.NoAlertWithTimeout:
		f, ok, err = e.src.ReadWithTimeout(p.StallTimeout)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, exit.Errorf(exit.StreamStalled, "stream stalled for %v", p.StallTimeout)
		}
	case retry.AlertNoTimeout, retry.AlertWithTimeout:
		f, ok, err = e.src.ReadWithTimeout(p.AlertThreshold)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		err = e.stallAlert()
		if err != nil {
			return nil, err
		}
		if p.Strategy == retry.AlertNoTimeout {
			f, err = e.src.ReadWithRetry()
			if err != nil {
				return nil, err
			}
			break
		}
		f, ok, err = e.src.ReadWithTimeout(p.StallTimeout)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, exit.Errorf(exit.StreamStalled, "stream stalled for %v", p.StallTimeout+p.AlertThreshold)
		}
	default:
		panic(fmt.Sprintf("unknown retry strategy %v", p.Strategy))
	}

	if e.stalled {
		e.log.Info("stream recovered")
		e.stalled = false
		err = e.msg.SendInProgressNotification()
		if err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (e *Executor) stallAlert() error {
	if e.stalled {
		return nil
	}
	e.log.Warning("stream stalled, sending alert", "threshold", e.s.Retry.AlertThreshold)
	err := e.msg.SendStallAlert()
	if err != nil {
		return err
	}
	e.stalled = true
	metrics.StallAlerts.Inc()
	return nil
}

func (e *Executor) recordTime(n int) {
	now := e.now()
	e.timestamps[n] = now.UnixMilli()
	if !e.lastRead.IsZero() {
		d := now.Sub(e.lastRead).Seconds()
		e.intervals = append(e.intervals, d)
		metrics.FrameReadInterval.Observe(d)
	}
	e.lastRead = now
}

// endSegment ends the open segment after frame n and reports it.
func (e *Executor) endSegment(n int) error {
	e.ended = true
	tracks, err := e.comp.EndSegment()
	if err != nil {
		return err
	}
	e.tracks, err = FixTracks(tracks, e.seg.StartFrame, n, e.s.ConfidenceThreshold, e.src, e.log)
	if err != nil {
		return err
	}
	return e.report(n, e.tracks, "")
}

// report sends the summary report of the open segment up to frame n.
func (e *Executor) report(n int, tracks []detection.Track, errMsg string) error {
	e.logStats()
	err := e.msg.SendSummaryReport(n, tracks, e.timestamps, errMsg)
	e.segOpen = false
	if err != nil {
		// Tracks and times are kept for the error report.
		metrics.SummaryFailures.Inc()
		return err
	}
	e.tracks = nil
	e.timestamps = make(map[int]int64)
	e.intervals = e.intervals[:0]
	metrics.SegmentsCompleted.Inc()
	metrics.TracksReported.Add(float64(len(tracks)))
	return nil
}

func (e *Executor) logStats() {
	if len(e.intervals) < 2 {
		return
	}
	mean, std := stat.MeanStdDev(e.intervals, nil)
	e.log.Info("segment frame read intervals", "segment", e.seg.Number, "mean", mean, "stddev", std, "frames", len(e.intervals)+1)
}

// finish ends and reports the segment in progress, if any, after a quit.
func (e *Executor) finish() error {
	if !e.segOpen {
		e.log.Info("quit received, no segment in progress")
		return nil
	}
	e.log.Info("quit received, ending segment in progress", "segment", e.seg.Number, "frame", e.frame)

	n := e.frame
	tracks := e.tracks
	if !e.ended {
		e.ended = true
		var err error
		tracks, err = e.comp.EndSegment()
		if err == nil {
			tracks, err = FixTracks(tracks, e.seg.StartFrame, n, e.s.ConfidenceThreshold, e.src, e.log)
		}
		if err != nil {
			e.log.Error("could not end segment after quit", "error", err)
			e.report(n, nil, err.Error())
			return err
		}
	}
	return e.report(n, tracks, "")
}

// fail makes a best effort to report err in a summary report, with what
// tracks can be recovered from the segment in progress, and returns err.
func (e *Executor) fail(err error) error {
	e.log.Error("job failed", "error", err, "frame", e.inFlight)

	n := e.inFlight
	if _, ok := e.timestamps[n]; !ok {
		e.timestamps[n] = e.now().UnixMilli()
	}

	tracks := e.tracks
	if e.segOpen && !e.ended {
		e.ended = true
		t, endErr := e.comp.EndSegment()
		if endErr == nil {
			t, endErr = FixTracks(t, e.seg.StartFrame, e.frame, e.s.ConfidenceThreshold, e.src, e.log)
		}
		if endErr != nil {
			e.log.Warning("could not retrieve tracks of failed segment", "error", endErr)
		} else {
			tracks = t
		}
	}

	sendErr := e.report(n, tracks, err.Error())
	if sendErr != nil {
		e.log.Error("could not send error summary report", "error", sendErr)
	}
	return err
}
