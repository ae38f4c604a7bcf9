/*
DESCRIPTION
  config.go provides Settings, the immutable configuration of a stream job,
  and loading of it from a YAML job file.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config provides the settings of a stream job.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ausocean/streamdetect/component"
	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/retry"
	"github.com/ausocean/streamdetect/transform"
	"github.com/ausocean/utils/logging"
)

// Settings holds the configuration of a stream job. Settings are resolved
// once, before the stream is connected, and are not modified after.
type Settings struct {
	JobID     string
	StreamURI string

	// SegmentSize is the number of frames in a segment.
	SegmentSize int

	// ConfidenceThreshold is the confidence below which detections are
	// dropped from summary reports.
	ConfidenceThreshold float64

	// FrameInterval is the interval, in frames, at which frames are passed
	// to the component. Frames in between are read but not processed.
	FrameInterval int

	// StallTimeout is how long to retry a failed stream read before the job
	// fails. Zero means do not retry and a negative duration means retry
	// forever.
	StallTimeout time.Duration

	// StallAlertThreshold is how long to retry a failed stream read before
	// sending a stall alert. A non-positive duration disables stall alerts.
	StallAlertThreshold time.Duration

	ComponentLibraryPath string
	ComponentName        string // Name of a registered component to use in place of the library.

	MessageBrokerURI   string
	JobStatusQueue     string
	ActivityAlertQueue string
	SummaryReportQueue string
	ControlQueue       string // Optional; stdin is the control channel if empty.

	JobProperties   detection.Properties
	MediaProperties detection.Properties

	// Derived from the above.
	Transform transform.Options
	Retry     retry.Policy
}

// File is the layout of a YAML job file.
type File struct {
	Job             map[string]string `yaml:"job"`
	JobProperties   map[string]string `yaml:"jobProperties"`
	MediaProperties map[string]string `yaml:"mediaProperties"`
}

// Load reads the settings of a job from the YAML file at path. Any error has
// code exit.InvalidConfig.
func Load(path string, log logging.Logger) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, exit.Wrap(exit.InvalidConfig, err, "could not read job file")
	}
	return Parse(b, log)
}

// Parse parses the settings of a job from a YAML job file.
func Parse(b []byte, log logging.Logger) (*Settings, error) {
	var f File
	err := yaml.Unmarshal(b, &f)
	if err != nil {
		return nil, exit.Wrap(exit.InvalidConfig, err, "could not parse job file")
	}
	return New(f.Job, f.JobProperties, f.MediaProperties, log)
}

// New returns the settings described by the job variables vars, and the job
// and media properties. Any error has code exit.InvalidConfig.
func New(vars, jobProps, mediaProps map[string]string, log logging.Logger) (*Settings, error) {
	s := &Settings{
		ConfidenceThreshold: defaultConfidenceThreshold,
		FrameInterval:       defaultFrameInterval,
		StallTimeout:        defaultStallTimeout,
		StallAlertThreshold: defaultStallAlertThreshold,
		JobProperties:       detection.Properties(jobProps).Clone(),
		MediaProperties:     detection.Properties(mediaProps).Clone(),
	}

	// Some variables may be given as job properties; job variables win.
	merged := make(map[string]string, len(vars))
	for k, p := range propertyVariables {
		if v, ok := jobProps[p]; ok {
			merged[k] = v
		}
	}
	for k, v := range vars {
		merged[k] = v
	}

	err := s.Update(merged, log)
	if err != nil {
		return nil, err
	}

	err = s.Validate(log)
	if err != nil {
		return nil, err
	}

	s.Transform, err = transform.ParseOptions(s.JobProperties, s.MediaProperties)
	if err != nil {
		return nil, exit.Wrap(exit.InvalidConfig, err, "invalid frame transform properties")
	}
	s.Retry = retry.NewPolicy(s.StallTimeout, s.StallAlertThreshold)
	log.Debug("job settings resolved", "job", s.JobID, "retry", s.Retry.Strategy.String(), "transform", fmt.Sprintf("%+v", s.Transform))
	return s, nil
}

// Update parses vars into s, by the Variables table. Unknown variables are
// logged and ignored.
func (s *Settings) Update(vars map[string]string, log logging.Logger) error {
	known := make(map[string]bool, len(Variables))
	for _, v := range Variables {
		known[v.Name] = true
		val, ok := vars[v.Name]
		if !ok {
			if v.Required {
				return exit.Errorf(exit.InvalidConfig, "missing required job setting %s", v.Name)
			}
			continue
		}
		err := v.Update(s, val)
		if err != nil {
			return exit.Wrap(exit.InvalidConfig, err, "invalid job setting "+v.Name)
		}
	}
	for k := range vars {
		if !known[k] {
			log.Warning("ignoring unknown job setting", "name", k)
		}
	}
	return nil
}

// Validate checks the fields of s.
func (s *Settings) Validate(log logging.Logger) error {
	for _, v := range Variables {
		if v.Validate == nil {
			continue
		}
		err := v.Validate(s, log)
		if err != nil {
			return exit.Wrap(exit.InvalidConfig, err, "invalid job setting "+v.Name)
		}
	}
	if s.ComponentLibraryPath == "" && s.ComponentName == "" {
		return exit.Errorf(exit.InvalidConfig, "one of %s or %s is required", KeyComponentLibraryPath, KeyComponentName)
	}
	return nil
}

// Job returns the description of the job given to the component.
func (s *Settings) Job() detection.StreamingJob {
	return detection.StreamingJob{
		Name:            s.JobID,
		JobProperties:   s.JobProperties.Clone(),
		MediaProperties: s.MediaProperties.Clone(),
	}
}

// Component identifies the component of the job.
func (s *Settings) Component() component.Spec {
	return component.Spec{Name: s.ComponentName, LibraryPath: s.ComponentLibraryPath}
}

// LogInvalidField logs that field name was invalid and has been defaulted.
func LogInvalidField(log logging.Logger, name string, def interface{}) {
	log.Info(name+" bad or unset, defaulting", name, def)
}
