/*
DESCRIPTION
  logger.go provides a logging.Logger that prefixes messages with the job
  they belong to.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package executor

import "github.com/ausocean/utils/logging"

// JobLogger returns a Logger that prefixes each message logged with
// "[<jobID>] " before passing it to log.
func JobLogger(log logging.Logger, jobID string) logging.Logger {
	return &jobLogger{Logger: log, prefix: "[" + jobID + "] "}
}

type jobLogger struct {
	logging.Logger
	prefix string
}

func (l *jobLogger) Log(lvl int8, msg string, args ...interface{}) {
	l.Logger.Log(lvl, l.prefix+msg, args...)
}
func (l *jobLogger) Debug(msg string, args ...interface{}) { l.Logger.Debug(l.prefix+msg, args...) }
func (l *jobLogger) Info(msg string, args ...interface{})  { l.Logger.Info(l.prefix+msg, args...) }
func (l *jobLogger) Warning(msg string, args ...interface{}) {
	l.Logger.Warning(l.prefix+msg, args...)
}
func (l *jobLogger) Error(msg string, args ...interface{}) { l.Logger.Error(l.prefix+msg, args...) }
func (l *jobLogger) Fatal(msg string, args ...interface{}) { l.Logger.Fatal(l.prefix+msg, args...) }
