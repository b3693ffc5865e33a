package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/session"
	"github.com/spillmate/support-platform/pkg/logger"
)

type fakeStream struct {
	updates chan string
	once    sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{updates: make(chan string, 8)}
}

func (s *fakeStream) Updates() <-chan string { return s.updates }

func (s *fakeStream) Stop() {
	s.once.Do(func() { close(s.updates) })
}

type fakeRecognizer struct {
	stream *fakeStream
	err    error
}

func (r *fakeRecognizer) Start(ctx context.Context) (TranscriptStream, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.stream, nil
}

type fakeUtterance struct {
	done      chan struct{}
	once      sync.Once
	mu        sync.Mutex
	cancelled bool
}

func newFakeUtterance() *fakeUtterance {
	return &fakeUtterance{done: make(chan struct{})}
}

func (u *fakeUtterance) Done() <-chan struct{} { return u.done }

func (u *fakeUtterance) Cancel() {
	u.once.Do(func() {
		u.mu.Lock()
		u.cancelled = true
		u.mu.Unlock()
		close(u.done)
	})
}

// complete finishes playback without marking the utterance cancelled.
func (u *fakeUtterance) complete() {
	u.once.Do(func() { close(u.done) })
}

func (u *fakeUtterance) wasCancelled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cancelled
}

type fakeSynth struct {
	mu         sync.Mutex
	utterances []*fakeUtterance
}

func (s *fakeSynth) Speak(ctx context.Context, text string) (Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := newFakeUtterance()
	s.utterances = append(s.utterances, u)
	return u, nil
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestAdapter_UnavailableWithoutRecognizer(t *testing.T) {
	a := NewAdapter(nil, session.NewStateMachine(), testLogger())

	assert.False(t, a.Available())
	_, err := a.Start(context.Background())
	assert.ErrorIs(t, err, ErrRecognizerUnavailable)
}

func TestAdapter_PushToTalkSubmitsFinalTranscript(t *testing.T) {
	stream := newFakeStream()
	state := session.NewStateMachine()
	a := NewAdapter(&fakeRecognizer{stream: stream}, state, testLogger())

	capture, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StateListening, state.Current())

	// Cumulative updates: each one replaces the buffered transcript.
	stream.updates <- "I had"
	stream.updates <- "I had a rough"
	stream.updates <- "I had a rough day  "

	var submitted []string
	err = a.StopAndSubmit(context.Background(), capture, func(ctx context.Context, text string) error {
		submitted = append(submitted, text)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, submitted, 1)
	assert.Equal(t, "I had a rough day", submitted[0])
	assert.Equal(t, session.StateIdle, state.Current())
}

func TestAdapter_EmptyTranscriptSubmitsNothing(t *testing.T) {
	stream := newFakeStream()
	state := session.NewStateMachine()
	a := NewAdapter(&fakeRecognizer{stream: stream}, state, testLogger())

	capture, err := a.Start(context.Background())
	require.NoError(t, err)
	stream.updates <- "   "

	called := false
	err = a.StopAndSubmit(context.Background(), capture, func(ctx context.Context, text string) error {
		called = true
		return nil
	})
	require.NoError(t, err)

	assert.False(t, called, "whitespace-only capture must not submit")
	assert.Equal(t, session.StateIdle, state.Current())
}

func TestCapture_SecondStopFails(t *testing.T) {
	stream := newFakeStream()
	a := NewAdapter(&fakeRecognizer{stream: stream}, session.NewStateMachine(), testLogger())

	capture, err := a.Start(context.Background())
	require.NoError(t, err)

	_, err = capture.Stop()
	require.NoError(t, err)
	_, err = capture.Stop()
	assert.ErrorIs(t, err, ErrCaptureStopped)
}

func TestSpeaker_NilSynthIsNoOp(t *testing.T) {
	state := session.NewStateMachine()
	s := NewSpeaker(nil, state, testLogger())

	require.NoError(t, s.Speak(context.Background(), "hello"))
	assert.Equal(t, session.StateIdle, state.Current())
}

func TestSpeaker_SpeakTransitionsAndResets(t *testing.T) {
	synth := &fakeSynth{}
	state := session.NewStateMachine()
	s := NewSpeaker(synth, state, testLogger())

	require.NoError(t, s.Speak(context.Background(), "hello"))
	assert.Equal(t, session.StateSpeaking, state.Current())

	synth.utterances[0].complete()
	assert.Eventually(t, func() bool {
		return state.Current() == session.StateIdle
	}, time.Second, 10*time.Millisecond)
}

func TestSpeaker_NewUtteranceCancelsInFlightOne(t *testing.T) {
	synth := &fakeSynth{}
	state := session.NewStateMachine()
	s := NewSpeaker(synth, state, testLogger())

	require.NoError(t, s.Speak(context.Background(), "first reply"))
	require.NoError(t, s.Speak(context.Background(), "second reply"))

	require.Len(t, synth.utterances, 2)
	assert.True(t, synth.utterances[0].wasCancelled(), "playback must never overlap")
	assert.False(t, synth.utterances[1].wasCancelled())
	assert.Equal(t, session.StateSpeaking, state.Current())
}

func TestSpeaker_CloseCancelsPlayback(t *testing.T) {
	synth := &fakeSynth{}
	state := session.NewStateMachine()
	s := NewSpeaker(synth, state, testLogger())

	require.NoError(t, s.Speak(context.Background(), "hello"))
	s.Close()

	assert.True(t, synth.utterances[0].wasCancelled())
	assert.Equal(t, session.StateIdle, state.Current())
}
