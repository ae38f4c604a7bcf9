/*
DESCRIPTION
  streamexec runs one streaming detection job: it loads the job's detection
  component, reads the job's live video stream, and reports detections over
  the job's message broker queues until told to quit on its control channel.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// streamexec runs a streaming detection job.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/coreos/go-systemd/daemon"
	_ "go.uber.org/automaxprocs"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/streamdetect/executor"
	"github.com/ausocean/streamdetect/executor/config"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/metrics"
	_ "github.com/ausocean/streamdetect/motion" // Registers the MOTION component.
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.3.0"

// Used to indicate package in logging.
const pkg = "streamexec: "

// environment holds the process settings, taken from the environment.
type environment struct {
	LogPath      string `env:"STREAMEXEC_LOG_PATH"       envDefault:"/var/log/streamexec/streamexec.log"`
	LogLevel     string `env:"STREAMEXEC_LOG_LEVEL"      envDefault:"info"`
	LogMaxSize   int    `env:"STREAMEXEC_LOG_MAX_SIZE"   envDefault:"500"` // MB
	LogMaxBackup int    `env:"STREAMEXEC_LOG_MAX_BACKUP" envDefault:"10"`
	LogMaxAge    int    `env:"STREAMEXEC_LOG_MAX_AGE"    envDefault:"28"` // days
	LogSuppress  bool   `env:"STREAMEXEC_LOG_SUPPRESS"   envDefault:"true"`
	MetricsAddr  string `env:"STREAMEXEC_METRICS_ADDR"` // Metrics are not served if empty.
}

var logLevels = map[string]int8{
	"debug":   logging.Debug,
	"info":    logging.Info,
	"warning": logging.Warning,
	"error":   logging.Error,
	"fatal":   logging.Fatal,
}

func main() {
	os.Exit(int(run(os.Args[1:], os.Stderr)))
}

func run(args []string, stderr io.Writer) exit.Code {
	fs := flag.NewFlagSet("streamexec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	jobPath := fs.String("job", "", "path of the YAML job file")
	showVersion := fs.Bool("version", false, "show version")
	err := fs.Parse(args)
	if err != nil {
		return exit.InvalidArguments
	}
	if *showVersion {
		fmt.Fprintln(stderr, version)
		return exit.Success
	}
	if *jobPath == "" || fs.NArg() != 0 {
		fmt.Fprintln(stderr, "usage: streamexec -job <job file>")
		return exit.InvalidArguments
	}

	var e environment
	err = env.Parse(&e)
	if err != nil {
		fmt.Fprintln(stderr, pkg+"invalid environment:", err)
		return exit.InvalidArguments
	}
	level, ok := logLevels[strings.ToLower(e.LogLevel)]
	if !ok {
		fmt.Fprintln(stderr, pkg+"invalid log level:", e.LogLevel)
		return exit.InvalidArguments
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   e.LogPath,
		MaxSize:    e.LogMaxSize,
		MaxBackups: e.LogMaxBackup,
		MaxAge:     e.LogMaxAge,
	}
	defer fileLog.Close()

	log := logging.New(level, io.MultiWriter(stderr, fileLog), e.LogSuppress)
	log.Info(pkg+"starting", "version", version, "job", *jobPath)

	s, err := config.Load(*jobPath, log)
	if err != nil {
		log.Error(pkg+"could not load job", "error", err.Error())
		return exit.CodeOf(err)
	}

	if e.MetricsAddr != "" {
		go metrics.Serve(e.MetricsAddr, log)
	}

	notify(daemon.SdNotifyReady, log)
	err = executor.RunJob(s, log)
	notify(daemon.SdNotifyStopping, log)

	code := exit.CodeOf(err)
	if err != nil {
		executor.JobLogger(log, s.JobID).Error(pkg+"job failed", "error", err.Error(), "exitCode", int(code), "reason", code.String())
		return code
	}
	executor.JobLogger(log, s.JobID).Info(pkg + "job finished")
	return code
}

// notify notifies systemd of a state change, if running under systemd.
func notify(state string, log logging.Logger) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warning(pkg+"could not notify systemd", "state", state, "error", err.Error())
		return
	}
	if sent {
		log.Debug(pkg+"notified systemd", "state", state)
	}
}
