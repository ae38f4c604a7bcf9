/*
DESCRIPTION
  exit.go provides the process exit codes of the stream executor and a fatal
  error type that carries one of them up to the process boundary.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package exit provides the stable process exit codes of the stream executor
// and a fatal error type that is classified by one of them.
package exit

import (
	"errors"
	"fmt"
)

// Code is a process exit code. Values are stable; external supervisors
// depend on them.
type Code int

// Exit codes.
const (
	Success            Code = 0
	UnexpectedError    Code = 1
	InvalidArguments   Code = 2
	InvalidConfig      Code = 3
	ControlChannel     Code = 4 // Unable to read the control channel.
	BrokerError        Code = 5
	ComponentError     Code = 6
	ComponentLoadError Code = 7
	StreamConnectError Code = 8
	StreamStalled      Code = 9
)

var codeNames = map[Code]string{
	Success:            "Success",
	UnexpectedError:    "UnexpectedError",
	InvalidArguments:   "InvalidArguments",
	InvalidConfig:      "InvalidConfig",
	ControlChannel:     "ControlChannel",
	BrokerError:        "BrokerError",
	ComponentError:     "ComponentError",
	ComponentLoadError: "ComponentLoadError",
	StreamConnectError: "StreamConnectError",
	StreamStalled:      "StreamStalled",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is a fatal error. It terminates the job and is converted into its
// Code at the process boundary.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a fatal error with the given code and message.
func New(c Code, msg string) error { return &Error{Code: c, Msg: msg} }

// Errorf returns a fatal error with the given code and a formatted message.
func Errorf(c Code, format string, args ...interface{}) error {
	return &Error{Code: c, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err with the given code. A nil err returns nil.
func Wrap(c Code, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: c, Msg: msg, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain. A nil error is
// Success; an unclassified error is UnexpectedError.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UnexpectedError
}
