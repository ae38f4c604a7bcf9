/*
DESCRIPTION
  executor_test.go tests the Executor frame loop, its stream retry strategy
  handling and its quit and failure protocols, using fake collaborators.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package executor

import (
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/executor/config"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/streamdetect/quit"
	"github.com/ausocean/streamdetect/retry"
	"github.com/ausocean/utils/logging"
)

// testLogger will allow logging to be done by the testing pkg.
type testLogger testing.T

func (tl *testLogger) Debug(msg string, args ...interface{})   { tl.Log(logging.Debug, msg, args...) }
func (tl *testLogger) Info(msg string, args ...interface{})    { tl.Log(logging.Info, msg, args...) }
func (tl *testLogger) Warning(msg string, args ...interface{}) { tl.Log(logging.Warning, msg, args...) }
func (tl *testLogger) Error(msg string, args ...interface{})   { tl.Log(logging.Error, msg, args...) }
func (tl *testLogger) Fatal(msg string, args ...interface{})   { tl.Log(logging.Fatal, msg, args...) }
func (tl *testLogger) SetLevel(lvl int8)                       {}
func (tl *testLogger) Log(lvl int8, msg string, args ...interface{}) {
	((*testing.T)(tl)).Log(append([]interface{}{msg}, args...)...)
}

// fakeSource serves blank frames of 4x3 pixels until frames have
// been served, after which reads fail. The first stalls calls to
// ReadWithTimeout fail without reading.
type fakeSource struct {
	frames    int
	served    int
	stalls    int
	retryErr  error  // Returned by ReadWithRetry once frames are exhausted.
	exhausted func() // Called when ReadWithRetry fails, if not nil.

	calls    []string
	reversed int
}

func (s *fakeSource) next() (frame.Frame, bool) {
	if s.served >= s.frames {
		return nil, false
	}
	s.served++
	return frame.NewImage(image.NewRGBA(image.Rect(0, 0, 4, 3))), true
}

func (s *fakeSource) Read() (frame.Frame, bool) {
	s.calls = append(s.calls, "read")
	return s.next()
}

func (s *fakeSource) ReadWithRetry() (frame.Frame, error) {
	s.calls = append(s.calls, "retry")
	f, ok := s.next()
	if !ok {
		if s.exhausted != nil {
			s.exhausted()
		}
		return nil, s.retryErr
	}
	return f, nil
}

func (s *fakeSource) ReadWithTimeout(d time.Duration) (frame.Frame, bool, error) {
	s.calls = append(s.calls, fmt.Sprintf("timeout %v", d))
	if s.stalls > 0 {
		s.stalls--
		return nil, false, nil
	}
	f, ok := s.next()
	return f, ok, nil
}

func (s *fakeSource) ReverseTransform(tracks []detection.Track) error {
	s.reversed += len(tracks)
	return nil
}

func (s *fakeSource) FrameSize() image.Point { return image.Pt(4, 3) }

// fakeComponent reports activity on the frames in activity and, at the end
// of each segment, one track with a location on every processed frame.
type fakeComponent struct {
	activity  map[int]bool
	failFrame int // ProcessFrame fails on this frame if positive.
	endErr    error

	calls     []string
	processed []int
}

func (c *fakeComponent) BeginSegment(info detection.SegmentInfo) error {
	c.calls = append(c.calls, fmt.Sprintf("begin %d-%d", info.StartFrame, info.StopFrame))
	c.processed = nil
	return nil
}

func (c *fakeComponent) ProcessFrame(f frame.Frame, n int) (bool, error) {
	if n == c.failFrame && n > 0 {
		return false, exit.Wrap(exit.ComponentError, errors.New("model crashed"), "component ProcessFrame failed")
	}
	c.calls = append(c.calls, fmt.Sprintf("process %d", n))
	c.processed = append(c.processed, n)
	return c.activity[n], nil
}

func (c *fakeComponent) EndSegment() ([]detection.Track, error) {
	c.calls = append(c.calls, "end")
	if c.endErr != nil {
		return nil, c.endErr
	}
	if len(c.processed) == 0 {
		return nil, nil
	}
	t := detection.NewTrack(c.processed[0], c.processed[len(c.processed)-1])
	for _, n := range c.processed {
		t.Locations[n] = detection.NewLocation(n, n, 1, 1)
	}
	return []detection.Track{t}, nil
}

type summary struct {
	Frame      int
	TrackCount int
	Frames     []int // Frames of the first track.
	Err        string
}

// fakeMessenger records messages, checking summary report timestamps as
// the sender would.
type fakeMessenger struct {
	t          *testing.T
	activity   []int
	statuses   []string
	summaries  []summary
	summaryErr error
}

func (m *fakeMessenger) SendStallAlert() error {
	m.statuses = append(m.statuses, "STALLED")
	return nil
}

func (m *fakeMessenger) SendInProgressNotification() error {
	m.statuses = append(m.statuses, "IN_PROGRESS")
	return nil
}

func (m *fakeMessenger) SendActivityAlert(n int, ts int64) error {
	m.activity = append(m.activity, n)
	return nil
}

func (m *fakeMessenger) SendSummaryReport(n int, tracks []detection.Track, timestamps map[int]int64, errMsg string) error {
	s := summary{Frame: n, TrackCount: len(tracks), Err: errMsg}
	for i, t := range tracks {
		for _, f := range []int{t.StartFrame, t.StopFrame} {
			if _, ok := timestamps[f]; !ok {
				m.t.Errorf("summary for frame %d: no timestamp for track frame %d", n, f)
			}
		}
		if i == 0 {
			s.Frames = t.Frames()
		}
	}
	m.summaries = append(m.summaries, s)
	return m.summaryErr
}

// fakeQuit requests a quit once frames have been read.
type fakeQuit struct {
	src    *fakeSource
	frames int
	err    error
}

func (q *fakeQuit) QuitReceived() (bool, error) {
	if q.err != nil && q.src.served >= q.frames {
		return false, q.err
	}
	return q.src.served >= q.frames, nil
}

type fixture struct {
	src  *fakeSource
	comp *fakeComponent
	msg  *fakeMessenger
	quit *fakeQuit
	e    *Executor
}

func newFixture(t *testing.T, s *config.Settings, frames, quitAfter int) *fixture {
	f := &fixture{
		src:  &fakeSource{frames: frames, retryErr: quit.ErrInterrupted},
		comp: &fakeComponent{},
		msg:  &fakeMessenger{t: t},
	}
	f.quit = &fakeQuit{src: f.src, frames: quitAfter}
	f.e = New(s, f.src, f.comp, f.msg, f.quit, (*testLogger)(t))
	return f
}

func settings(segmentSize, interval int, p retry.Policy) *config.Settings {
	return &config.Settings{
		JobID:               "job-1",
		SegmentSize:         segmentSize,
		FrameInterval:       interval,
		ConfidenceThreshold: -1,
		Retry:               p,
	}
}

var forever = retry.NewPolicy(-1, -1)

func TestSegments(t *testing.T) {
	f := newFixture(t, settings(4, 2, forever), 9, 9)
	err := f.e.Run()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	wantCalls := []string{
		"begin 0-3", "process 0", "process 2", "end",
		"begin 4-7", "process 4", "process 6", "end",
		"begin 8-11", "process 8", "end",
	}
	if diff := cmp.Diff(wantCalls, f.comp.calls); diff != "" {
		t.Errorf("unexpected component calls (-want +got):\n%s", diff)
	}

	wantSummaries := []summary{
		{Frame: 3, TrackCount: 1, Frames: []int{0, 2}},
		{Frame: 7, TrackCount: 1, Frames: []int{4, 6}},
		{Frame: 8, TrackCount: 1, Frames: []int{8}},
	}
	if diff := cmp.Diff(wantSummaries, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
	if f.src.reversed != 3 {
		t.Errorf("unexpected reverse transformed tracks: got %d, want 3", f.src.reversed)
	}
	if len(f.e.timestamps) != 0 {
		t.Errorf("timestamps not cleared after last summary: %v", f.e.timestamps)
	}
}

func TestActivityAlertOncePerSegment(t *testing.T) {
	f := newFixture(t, settings(10, 3, forever), 20, 20)
	f.comp.activity = map[int]bool{3: true, 6: true, 9: true, 12: true, 15: true}

	err := f.e.Run()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if diff := cmp.Diff([]int{3, 12}, f.msg.activity); diff != "" {
		t.Errorf("unexpected activity alerts (-want +got):\n%s", diff)
	}
}

func TestQuitBeforeSegment(t *testing.T) {
	f := newFixture(t, settings(10, 1, forever), 5, 0)
	err := f.e.Run()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if len(f.msg.summaries) != 0 || len(f.comp.calls) != 0 {
		t.Errorf("expected no activity, got summaries %v, calls %v", f.msg.summaries, f.comp.calls)
	}
}

func TestQuitBetweenSegments(t *testing.T) {
	f := newFixture(t, settings(5, 1, forever), 20, 10)
	err := f.e.Run()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if len(f.msg.summaries) != 2 {
		t.Errorf("expected 2 summaries, got %v", f.msg.summaries)
	}
}

func TestQuitMidSegment(t *testing.T) {
	f := newFixture(t, settings(10, 1, forever), 20, 13)
	err := f.e.Run()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	want := []summary{
		{Frame: 9, TrackCount: 1, Frames: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{Frame: 12, TrackCount: 1, Frames: []int{10, 11, 12}},
	}
	if diff := cmp.Diff(want, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
	if got := f.comp.calls[len(f.comp.calls)-1]; got != "end" {
		t.Errorf("last component call: got %q, want end", got)
	}
}

func TestComponentFailure(t *testing.T) {
	f := newFixture(t, settings(10, 1, forever), 20, 20)
	f.comp.failFrame = 14

	err := f.e.Run()
	if got := exit.CodeOf(err); got != exit.ComponentError {
		t.Fatalf("unexpected exit code: got %v (%v), want %v", got, err, exit.ComponentError)
	}

	want := []summary{
		{Frame: 9, TrackCount: 1, Frames: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{Frame: 14, TrackCount: 1, Frames: []int{10, 11, 12, 13}, Err: err.Error()},
	}
	if diff := cmp.Diff(want, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestComponentFailureEndSegmentFails(t *testing.T) {
	f := newFixture(t, settings(10, 1, forever), 20, 20)
	f.comp.failFrame = 4
	f.comp.endErr = errors.New("end failed too")

	err := f.e.Run()
	if got := exit.CodeOf(err); got != exit.ComponentError {
		t.Fatalf("unexpected exit code: got %v (%v), want %v", got, err, exit.ComponentError)
	}

	want := []summary{{Frame: 4, Err: err.Error()}}
	if diff := cmp.Diff(want, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestEndSegmentFailure(t *testing.T) {
	f := newFixture(t, settings(5, 1, forever), 20, 20)
	f.comp.endErr = errors.New("end failed")

	err := f.e.Run()
	if err == nil {
		t.Fatal("expected error")
	}

	// EndSegment is not called again for the error report.
	ends := 0
	for _, c := range f.comp.calls {
		if c == "end" {
			ends++
		}
	}
	if ends != 1 {
		t.Errorf("unexpected EndSegment calls: got %d, want 1", ends)
	}
	want := []summary{{Frame: 4, Err: err.Error()}}
	if diff := cmp.Diff(want, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestControlChannelFailure(t *testing.T) {
	f := newFixture(t, settings(10, 1, forever), 20, 5)
	f.quit.err = exit.Wrap(exit.ControlChannel, quit.ErrControlChannel, "unable to read control channel")

	err := f.e.Run()
	if got := exit.CodeOf(err); got != exit.ControlChannel {
		t.Fatalf("unexpected exit code: got %v (%v), want %v", got, err, exit.ControlChannel)
	}
	want := []summary{{Frame: 5, TrackCount: 1, Frames: []int{0, 1, 2, 3, 4}, Err: err.Error()}}
	if diff := cmp.Diff(want, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestRetryStrategies(t *testing.T) {
	tests := []struct {
		name       string
		policy     retry.Policy
		frames     int // Frames available before reads fail.
		stalls     int
		wantCalls  []string
		wantStatus []string
		wantCode   exit.Code
	}{
		{
			name:      "never retry",
			policy:    retry.NewPolicy(0, -1),
			frames:    1,
			wantCalls: []string{"read", "read"},
			wantCode:  exit.StreamStalled,
		},
		{
			name:      "timeout",
			policy:    retry.NewPolicy(10*time.Second, -1),
			frames:    1,
			wantCalls: []string{"timeout 10s", "timeout 10s"},
			wantCode:  exit.StreamStalled,
		},
		{
			name:       "alert then recover",
			policy:     retry.NewPolicy(10*time.Second, 6*time.Second),
			frames:     2,
			stalls:     1,
			wantCalls:  []string{"timeout 6s", "timeout 4s", "timeout 6s", "timeout 6s", "timeout 4s"},
			wantStatus: []string{"STALLED", "IN_PROGRESS", "STALLED"},
			wantCode:   exit.StreamStalled,
		},
		{
			name:       "alert then retry forever",
			policy:     retry.NewPolicy(-1, 6*time.Second),
			frames:     1,
			stalls:     1,
			wantCalls:  []string{"timeout 6s", "retry", "timeout 6s", "retry"},
			wantStatus: []string{"STALLED", "IN_PROGRESS", "STALLED"},
			wantCode:   exit.UnexpectedError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t, settings(10, 1, test.policy), test.frames, 100)
			f.src.stalls = test.stalls
			f.src.retryErr = errors.New("gave up")

			err := f.e.Run()
			if got := exit.CodeOf(err); got != test.wantCode {
				t.Errorf("unexpected exit code: got %v (%v), want %v", got, err, test.wantCode)
			}
			if diff := cmp.Diff(test.wantCalls, f.src.calls); diff != "" {
				t.Errorf("unexpected source calls (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantStatus, f.msg.statuses); diff != "" {
				t.Errorf("unexpected statuses (-want +got):\n%s", diff)
			}

			// The open segment is reported once, with the error.
			if len(f.msg.summaries) != 1 || f.msg.summaries[0].Err == "" {
				t.Errorf("expected one error summary, got %v", f.msg.summaries)
			}
		})
	}
}

func TestReadInterrupted(t *testing.T) {
	// Reads are interrupted once frames run out; the quit is then seen at
	// the top of the loop.
	f := newFixture(t, settings(10, 1, forever), 3, 100)
	f.src.exhausted = func() { f.quit.frames = 3 }
	err := f.e.Run()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := []summary{{Frame: 2, TrackCount: 1, Frames: []int{0, 1, 2}}}
	if diff := cmp.Diff([]string{"retry", "retry", "retry", "retry"}, f.src.calls); diff != "" {
		t.Errorf("unexpected source calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.msg.summaries); diff != "" {
		t.Errorf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestJobLogger(t *testing.T) {
	rec := &recordingLogger{}
	log := JobLogger(rec, "job-9")
	log.Info("hello", "k", "v")
	log.Error("bad")
	want := []string{"[job-9] hello", "[job-9] bad"}
	if diff := cmp.Diff(want, rec.msgs); diff != "" {
		t.Errorf("unexpected messages (-want +got):\n%s", diff)
	}
}

type recordingLogger struct{ msgs []string }

func (l *recordingLogger) Log(lvl int8, msg string, args ...interface{}) {
	l.msgs = append(l.msgs, msg)
}
func (l *recordingLogger) SetLevel(lvl int8)                       {}
func (l *recordingLogger) Debug(msg string, args ...interface{})   { l.Log(logging.Debug, msg) }
func (l *recordingLogger) Info(msg string, args ...interface{})    { l.Log(logging.Info, msg) }
func (l *recordingLogger) Warning(msg string, args ...interface{}) { l.Log(logging.Warning, msg) }
func (l *recordingLogger) Error(msg string, args ...interface{})   { l.Log(logging.Error, msg) }
func (l *recordingLogger) Fatal(msg string, args ...interface{})   { l.Log(logging.Fatal, msg) }
