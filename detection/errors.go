/*
DESCRIPTION
  errors.go provides Error, the classified error type of detection
  components.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detection

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindInvalidProperty
	KindMediaLibrary // Failure in the decode or image processing library.
	KindUnsupportedDataType
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidProperty:
		return "invalid property"
	case KindMediaLibrary:
		return "media library error"
	case KindUnsupportedDataType:
		return "unsupported data type"
	case KindOther:
		return "detection error"
	default:
		return "unknown error"
	}
}

// ErrUnsupportedDataType is returned by adapters for media a component does
// not handle.
var ErrUnsupportedDataType = &Error{Kind: KindUnsupportedDataType, Msg: "data type not supported"}

// Error is an error raised by, or on behalf of, a detection component.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind and message, so
// that errors.Is matches the sentinel ErrUnsupportedDataType.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == e.Msg && t.Err == nil
}

// InvalidProperty returns a KindInvalidProperty error for property key.
func InvalidProperty(key, value, reason string) *Error {
	return &Error{Kind: KindInvalidProperty, Msg: fmt.Sprintf("property %s=%q %s", key, value, reason)}
}

// Classify converts v, an error returned or a value panicked by a component,
// into an *Error. Errors already classified keep their kind; other errors are
// KindOther and any other value is KindUnknown.
func Classify(v interface{}) *Error {
	switch v := v.(type) {
	case nil:
		return nil
	case error:
		var e *Error
		if errors.As(v, &e) {
			return e
		}
		return &Error{Kind: KindOther, Err: v}
	case string:
		return &Error{Kind: KindUnknown, Msg: v}
	default:
		return &Error{Kind: KindUnknown, Msg: fmt.Sprintf("%v", v)}
	}
}
