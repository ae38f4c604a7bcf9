/*
DESCRIPTION
  variables.go contains a list of structs that provide a job setting name,
  type in a string format, a function for updating the setting in Settings
  from a string, and a validation function to check the validity of the
  corresponding field value in Settings.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"
)

// Job setting keys.
const (
	KeyJobID                = "JobId"
	KeyStreamURI            = "StreamUri"
	KeySegmentSize          = "SegmentSize"
	KeyConfidenceThreshold  = "ConfidenceThreshold"
	KeyFrameInterval        = "FrameInterval"
	KeyStallTimeout         = "StallTimeout"
	KeyStallAlertThreshold  = "StallAlertThreshold"
	KeyComponentLibraryPath = "ComponentLibraryPath"
	KeyComponentName        = "ComponentName"
	KeyMessageBrokerURI     = "MessageBrokerUri"
	KeyJobStatusQueue       = "JobStatusQueue"
	KeyActivityAlertQueue   = "ActivityAlertQueue"
	KeySummaryReportQueue   = "SummaryReportQueue"
	KeyControlQueue         = "ControlQueue"
)

// Job property keys that may supply a job setting.
const (
	PropFrameInterval       = "FRAME_INTERVAL"
	PropConfidenceThreshold = "CONFIDENCE_THRESHOLD"
)

var propertyVariables = map[string]string{
	KeyFrameInterval:       PropFrameInterval,
	KeyConfidenceThreshold: PropConfidenceThreshold,
}

// Job setting types.
const (
	typeString   = "string"
	typeInt      = "int"
	typeFloat    = "float"
	typeDuration = "duration"
)

// Default setting values.
const (
	defaultConfidenceThreshold = -1.0
	defaultFrameInterval       = 1
	defaultStallTimeout        = -1 // Retry forever.
	defaultStallAlertThreshold = -1 // No alert.
)

// Variables describes the settings of a job. These structs provide the name
// and type of a setting, whether it must be given, a function for updating
// it in Settings and a function for validating its value.
var Variables = []struct {
	Name     string
	Type     string
	Required bool
	Update   func(*Settings, string) error
	Validate func(*Settings, logging.Logger) error
}{
	{
		Name:     KeyJobID,
		Type:     typeString,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseString(&s.JobID, v) },
	},
	{
		Name:     KeyStreamURI,
		Type:     typeString,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseString(&s.StreamURI, v) },
	},
	{
		Name:     KeySegmentSize,
		Type:     typeInt,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseInt(&s.SegmentSize, v) },
		Validate: func(s *Settings, _ logging.Logger) error {
			if s.SegmentSize < 1 {
				return fmt.Errorf("segment size %d is not positive", s.SegmentSize)
			}
			return nil
		},
	},
	{
		Name:   KeyConfidenceThreshold,
		Type:   typeFloat,
		Update: func(s *Settings, v string) error { return parseFloat(&s.ConfidenceThreshold, v) },
	},
	{
		Name:   KeyFrameInterval,
		Type:   typeInt,
		Update: func(s *Settings, v string) error { return parseInt(&s.FrameInterval, v) },
		Validate: func(s *Settings, log logging.Logger) error {
			if s.FrameInterval < 1 {
				LogInvalidField(log, KeyFrameInterval, defaultFrameInterval)
				s.FrameInterval = defaultFrameInterval
			}
			return nil
		},
	},
	{
		Name:   KeyStallTimeout,
		Type:   typeDuration,
		Update: func(s *Settings, v string) error { return parseDuration(&s.StallTimeout, v) },
	},
	{
		Name:   KeyStallAlertThreshold,
		Type:   typeDuration,
		Update: func(s *Settings, v string) error { return parseDuration(&s.StallAlertThreshold, v) },
	},
	{
		Name:   KeyComponentLibraryPath,
		Type:   typeString,
		Update: func(s *Settings, v string) error { s.ComponentLibraryPath = strings.TrimSpace(v); return nil },
	},
	{
		Name:   KeyComponentName,
		Type:   typeString,
		Update: func(s *Settings, v string) error { s.ComponentName = strings.TrimSpace(v); return nil },
	},
	{
		Name:     KeyMessageBrokerURI,
		Type:     typeString,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseString(&s.MessageBrokerURI, v) },
	},
	{
		Name:     KeyJobStatusQueue,
		Type:     typeString,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseString(&s.JobStatusQueue, v) },
	},
	{
		Name:     KeyActivityAlertQueue,
		Type:     typeString,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseString(&s.ActivityAlertQueue, v) },
	},
	{
		Name:     KeySummaryReportQueue,
		Type:     typeString,
		Required: true,
		Update:   func(s *Settings, v string) error { return parseString(&s.SummaryReportQueue, v) },
	},
	{
		Name:   KeyControlQueue,
		Type:   typeString,
		Update: func(s *Settings, v string) error { s.ControlQueue = strings.TrimSpace(v); return nil },
	},
}

var errEmpty = errors.New("value is empty")

func parseString(dst *string, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errEmpty
	}
	*dst = v
	return nil
}

func parseInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("expected integer: %w", err)
	}
	*dst = n
	return nil
}

func parseFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("expected number: %w", err)
	}
	*dst = f
	return nil
}

// parseDuration parses a duration given either in Go duration syntax or as
// an integer number of seconds.
func parseDuration(dst *time.Duration, v string) error {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		*dst = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("expected duration: %w", err)
	}
	*dst = d
	return nil
}
