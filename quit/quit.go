/*
DESCRIPTION
  quit.go provides Watcher, which listens on a line oriented control channel
  for a quit request, and makes that request visible to the job loop and to
  any sleep in progress.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package quit provides the process wide quit signal of a stream job. The
// signal is delivered out of band on a control channel, which is stdin
// unless a control queue is configured.
package quit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/utils/logging"
)

// Command is the control channel line that requests a quit.
const Command = "quit"

// Used to indicate package in logging.
const pkg = "quit: "

// Errors.
var (
	// ErrInterrupted is returned by InterruptibleSleep when the quit signal
	// ends the sleep early.
	ErrInterrupted = errors.New("sleep interrupted by quit signal")

	// ErrControlChannel is the cause of the error returned by QuitReceived
	// if the control channel ended before a quit was requested.
	ErrControlChannel = errors.New("control channel ended before quit was received")
)

// Watcher watches a control channel for a quit request. It is safe for
// concurrent use.
type Watcher struct {
	log  logging.Logger
	done chan struct{} // Closed on quit or control channel failure.
	stop sync.Once

	quit atomic.Bool
	err  atomic.Pointer[error]
}

// NewWatcher returns a Watcher that reads lines from r in a new goroutine
// until it reads Command, or r fails.
func NewWatcher(r io.Reader, log logging.Logger) *Watcher {
	w := &Watcher{log: log, done: make(chan struct{})}
	go w.watch(r)
	return w
}

func (w *Watcher) watch(r io.Reader) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if strings.EqualFold(line, Command) {
			w.log.Info(pkg + "quit received")
			w.quit.Store(true)
			w.signal()
			return
		}
		w.log.Warning(pkg+"ignoring unrecognized control command", "command", line)
	}

	err := ErrControlChannel
	if s.Err() != nil {
		err = fmt.Errorf("%w: %v", ErrControlChannel, s.Err())
	}
	w.log.Error(pkg+"control channel failed", "error", err)
	w.err.Store(&err)
	w.signal()
}

func (w *Watcher) signal() { w.stop.Do(func() { close(w.done) }) }

// Done returns a channel that is closed when a quit has been requested or the
// control channel has failed.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// QuitReceived returns true if a quit has been requested. If the control
// channel failed first, it returns an error with code exit.ControlChannel.
func (w *Watcher) QuitReceived() (bool, error) {
	if p := w.err.Load(); p != nil {
		return false, exit.Wrap(exit.ControlChannel, *p, "unable to read control channel")
	}
	return w.quit.Load(), nil
}

// InterruptibleSleep sleeps for d, returning ErrInterrupted as soon as the
// watcher is signalled. If it was signalled before the call, ErrInterrupted
// is returned without sleeping.
func (w *Watcher) InterruptibleSleep(d time.Duration) error {
	select {
	case <-w.done:
		return ErrInterrupted
	default:
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.done:
		return ErrInterrupted
	case <-t.C:
		return nil
	}
}

// The process watcher. This is the only process wide mutable state of a job.
var (
	process     *Watcher
	processOnce sync.Once
)

// Process returns the process wide Watcher, creating it on the first call
// with r as its control channel. Later calls return the same Watcher and
// ignore their arguments. If r is nil, os.Stdin is used.
func Process(r io.Reader, log logging.Logger) *Watcher {
	processOnce.Do(func() {
		if r == nil {
			r = os.Stdin
		}
		process = NewWatcher(r, log)
	})
	return process
}
