/*
DESCRIPTION
  job.go provides RunJob, which sets up and runs a stream job from its
  settings.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package executor

import (
	"context"
	"io"
	"time"

	"github.com/ausocean/streamdetect/component"
	"github.com/ausocean/streamdetect/executor/config"
	"github.com/ausocean/streamdetect/quit"
	"github.com/ausocean/streamdetect/sender"
	"github.com/ausocean/streamdetect/stream"
	"github.com/ausocean/utils/logging"
)

// RunJob runs the job with settings s until it is told to quit or fails.
// Messages logged for the job are prefixed with its ID. The error returned,
// if any, carries the exit code of the failure.
func RunJob(s *config.Settings, log logging.Logger) error {
	log = JobLogger(log, s.JobID)
	log.Info("starting job", "stream", s.StreamURI, "segmentSize", s.SegmentSize, "retry", s.Retry.Strategy.String())

	broker, err := sender.Dial(s.MessageBrokerURI, []string{s.JobStatusQueue, s.ActivityAlertQueue, s.SummaryReportQueue, s.ControlQueue}, log)
	if err != nil {
		return err
	}
	defer broker.Close()

	msg := sender.New(broker, sender.Config{
		JobID:              s.JobID,
		SegmentSize:        s.SegmentSize,
		JobStatusQueue:     s.JobStatusQueue,
		ActivityAlertQueue: s.ActivityAlertQueue,
		SummaryReportQueue: s.SummaryReportQueue,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ctl io.Reader // Stdin if nil.
	if s.ControlQueue != "" {
		msgs, err := broker.Consume(ctx, s.ControlQueue)
		if err != nil {
			return err
		}
		ctl = quit.QueueReader(msgs)
	}
	q := quit.Process(ctl, log)

	comp, err := component.Load(s.Component(), s.Job(), log)
	if err != nil {
		reportSetupError(msg, err, log)
		return err
	}
	defer func() {
		err := comp.Close()
		if err != nil {
			log.Warning("could not close component", "error", err)
		}
	}()

	typ, err := comp.DetectionType()
	if err != nil {
		reportSetupError(msg, err, log)
		return err
	}
	log.Info("component loaded", "detectionType", typ)
	msg.SetDetectionType(typ)

	src, err := stream.NewSource(stream.NewCapture(s.StreamURI, log), s.Transform, q.InterruptibleSleep, log)
	if err != nil {
		return err
	}
	defer src.Close()

	err = msg.SendInProgressNotification()
	if err != nil {
		return err
	}

	return New(s, src, comp, msg, q, log).Run()
}

// reportSetupError sends a summary report of err for frame 0.
func reportSetupError(msg *sender.Sender, err error, log logging.Logger) {
	sendErr := msg.SendSummaryReport(0, nil, map[int]int64{0: time.Now().UnixMilli()}, err.Error())
	if sendErr != nil {
		log.Error("could not send setup error summary report", "error", sendErr)
	}
}
