/*
DESCRIPTION
  component_test.go tests Handle and Load with a fake component.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package component

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/utils/logging"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

var _ logging.Logger = (*dumbLogger)(nil)

// fakeComponent fails or panics in the methods named in errs and panics.
type fakeComponent struct {
	errs     map[string]error
	panics   map[string]interface{}
	noVideo  bool
	closed   bool
	segments []detection.SegmentInfo
}

func (c *fakeComponent) fail(method string) error {
	if v, ok := c.panics[method]; ok {
		panic(v)
	}
	return c.errs[method]
}

func (c *fakeComponent) Init() error { return c.fail("Init") }

func (c *fakeComponent) Close() error {
	c.closed = true
	return c.fail("Close")
}

func (c *fakeComponent) DetectionType() string {
	c.fail("DetectionType")
	return "MOTION"
}

func (c *fakeComponent) Supports(d detection.DataType) bool {
	return d == detection.Video && !c.noVideo
}

func (c *fakeComponent) BeginSegment(info detection.SegmentInfo) error {
	c.segments = append(c.segments, info)
	return c.fail("BeginSegment")
}

func (c *fakeComponent) ProcessFrame(f frame.Frame, n int) (bool, error) {
	return n%2 == 0, c.fail("ProcessFrame")
}

func (c *fakeComponent) EndSegment() ([]detection.Track, error) {
	err := c.fail("EndSegment")
	if err != nil {
		return nil, err
	}
	return []detection.Track{detection.NewTrack(0, 0)}, nil
}

func TestHandle(t *testing.T) {
	c := &fakeComponent{}
	h := NewHandle(c)

	typ, err := h.DetectionType()
	if err != nil || typ != "MOTION" {
		t.Errorf("DetectionType: got %q, %v", typ, err)
	}

	info := detection.NewSegmentInfo(10, 10, 4, 3)
	if err := h.BeginSegment(info); err != nil {
		t.Fatalf("BeginSegment: %v", err)
	}
	if diff := cmp.Diff([]detection.SegmentInfo{info}, c.segments); diff != "" {
		t.Errorf("unexpected segments (-want +got):\n%s", diff)
	}

	activity, err := h.ProcessFrame(nil, 12)
	if err != nil || !activity {
		t.Errorf("ProcessFrame: got %v, %v", activity, err)
	}

	tracks, err := h.EndSegment()
	if err != nil || len(tracks) != 1 {
		t.Errorf("EndSegment: got %d tracks, %v", len(tracks), err)
	}

	if err := h.Close(); err != nil || !c.closed {
		t.Errorf("Close: closed=%v, err=%v", c.closed, err)
	}
}

func TestHandleFailures(t *testing.T) {
	errBad := errors.New("bad model")

	tests := []struct {
		name     string
		c        *fakeComponent
		call     func(h *Handle) error
		wantMsg  string
		wantKind detection.ErrorKind
	}{
		{
			name:     "error",
			c:        &fakeComponent{errs: map[string]error{"BeginSegment": errBad}},
			call:     func(h *Handle) error { return h.BeginSegment(detection.SegmentInfo{}) },
			wantMsg:  "BeginSegment",
			wantKind: detection.KindOther,
		},
		{
			name:     "classified error",
			c:        &fakeComponent{errs: map[string]error{"ProcessFrame": detection.InvalidProperty("MIN_SIZE", "x", "is not an integer")}},
			call:     func(h *Handle) error { _, err := h.ProcessFrame(nil, 1); return err },
			wantMsg:  "ProcessFrame",
			wantKind: detection.KindInvalidProperty,
		},
		{
			name:     "panic with error",
			c:        &fakeComponent{panics: map[string]interface{}{"EndSegment": errBad}},
			call:     func(h *Handle) error { _, err := h.EndSegment(); return err },
			wantMsg:  "EndSegment",
			wantKind: detection.KindOther,
		},
		{
			name:     "panic with value",
			c:        &fakeComponent{panics: map[string]interface{}{"ProcessFrame": 42}},
			call:     func(h *Handle) error { _, err := h.ProcessFrame(nil, 1); return err },
			wantMsg:  "ProcessFrame",
			wantKind: detection.KindUnknown,
		},
		{
			name:     "panic in detection type",
			c:        &fakeComponent{panics: map[string]interface{}{"DetectionType": "oops"}},
			call:     func(h *Handle) error { _, err := h.DetectionType(); return err },
			wantMsg:  "DetectionType",
			wantKind: detection.KindUnknown,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.call(NewHandle(test.c))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := exit.CodeOf(err); got != exit.ComponentError {
				t.Errorf("unexpected exit code: got %v, want %v", got, exit.ComponentError)
			}
			if !strings.Contains(err.Error(), test.wantMsg) {
				t.Errorf("error %q does not name method %s", err, test.wantMsg)
			}
			var de *detection.Error
			if !errors.As(err, &de) {
				t.Fatalf("error %v is not a detection error", err)
			}
			if de.Kind != test.wantKind {
				t.Errorf("unexpected kind: got %v, want %v", de.Kind, test.wantKind)
			}
		})
	}
}

func TestLoadRegistered(t *testing.T) {
	var gotJob detection.StreamingJob
	c := &fakeComponent{}
	Register("fake-ok", func(job detection.StreamingJob) (detection.StreamingComponent, error) {
		gotJob = job
		return c, nil
	})

	job := detection.StreamingJob{Name: "job-1", JobProperties: detection.Properties{"A": "1"}}
	h, err := Load(Spec{Name: "fake-ok", LibraryPath: "/does/not/exist.so"}, job, &dumbLogger{})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if h == nil {
		t.Fatal("expected handle")
	}
	if diff := cmp.Diff(job, gotJob); diff != "" {
		t.Errorf("unexpected job (-want +got):\n%s", diff)
	}

	found := false
	for _, n := range Registered() {
		found = found || n == "fake-ok"
	}
	if !found {
		t.Error("registered factory not listed")
	}
}

func TestLoadFailures(t *testing.T) {
	Register("fake-novideo", func(detection.StreamingJob) (detection.StreamingComponent, error) {
		return &fakeComponent{noVideo: true}, nil
	})
	Register("fake-initfail", func(detection.StreamingJob) (detection.StreamingComponent, error) {
		return &fakeComponent{errs: map[string]error{"Init": errors.New("missing model file")}}, nil
	})
	Register("fake-panic", func(detection.StreamingJob) (detection.StreamingComponent, error) {
		panic("constructor exploded")
	})
	Register("fake-nil", func(detection.StreamingJob) (detection.StreamingComponent, error) {
		return nil, nil
	})

	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{name: "unsupported", spec: Spec{Name: "fake-novideo"}, wantErr: detection.ErrUnsupportedDataType},
		{name: "not found", spec: Spec{Name: "nothing"}, wantErr: ErrFactoryNotFound},
		{name: "init fails", spec: Spec{Name: "fake-initfail"}},
		{name: "constructor panics", spec: Spec{Name: "fake-panic"}},
		{name: "nil component", spec: Spec{Name: "fake-nil"}},
		{name: "bad library", spec: Spec{LibraryPath: "/does/not/exist.so"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h, err := Load(test.spec, detection.StreamingJob{}, &dumbLogger{})
			if err == nil {
				t.Fatalf("expected error, got handle %v", h)
			}
			if got := exit.CodeOf(err); got != exit.ComponentLoadError {
				t.Errorf("unexpected exit code: got %v, want %v", got, exit.ComponentLoadError)
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Errorf("expected %v in chain of %v", test.wantErr, err)
			}
		})
	}
}
