// Package voice bridges event-driven speech capture and synthesis into
// the session layer's push-to-talk and playback semantics.
package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spillmate/support-platform/internal/session"
	"github.com/spillmate/support-platform/pkg/logger"
)

// ErrRecognizerUnavailable is returned by Start when no speech-capture
// capability was provided. Callers degrade to text-only input.
var ErrRecognizerUnavailable = errors.New("speech recognition is unavailable")

// ErrCaptureStopped is returned when a capture handle is stopped twice.
var ErrCaptureStopped = errors.New("capture already stopped")

// Recognizer is a speech-capture capability. Implementations deliver
// cumulative transcript updates until stopped.
type Recognizer interface {
	// Start begins capture and returns a stream of transcript updates.
	Start(ctx context.Context) (TranscriptStream, error)
}

// TranscriptStream is a live capture subscription.
type TranscriptStream interface {
	// Updates delivers the cumulative transcript after each recognition
	// event. The channel closes when the stream terminates.
	Updates() <-chan string

	// Stop terminates capture. Safe to call more than once.
	Stop()
}

// SubmitFunc forwards a captured transcript into the conversation.
type SubmitFunc func(ctx context.Context, text string) error

// Adapter wires a Recognizer into push-to-talk semantics: press to
// start capture, release to stop and submit if the transcript is
// non-empty. A nil Recognizer is tolerated and reported through
// Available rather than failing construction.
type Adapter struct {
	recognizer Recognizer
	state      *session.StateMachine
	logger     *logger.Logger
}

// NewAdapter creates a voice adapter. recognizer may be nil when the
// capability is absent.
func NewAdapter(recognizer Recognizer, state *session.StateMachine, log *logger.Logger) *Adapter {
	return &Adapter{
		recognizer: recognizer,
		state:      state,
		logger:     log,
	}
}

// Available reports whether speech capture can be started.
func (a *Adapter) Available() bool {
	return a.recognizer != nil
}

// Start begins a capture and transitions the bot state to listening.
func (a *Adapter) Start(ctx context.Context) (*Capture, error) {
	if a.recognizer == nil {
		return nil, ErrRecognizerUnavailable
	}

	stream, err := a.recognizer.Start(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.state.Transition(session.StateListening); err != nil {
		stream.Stop()
		return nil, err
	}

	c := &Capture{
		stream: stream,
		state:  a.state,
		done:   make(chan struct{}),
	}
	go c.consume()
	return c, nil
}

// StopAndSubmit releases the capture and forwards the transcript when
// it is non-empty. Stopping with an empty transcript submits nothing.
func (a *Adapter) StopAndSubmit(ctx context.Context, c *Capture, submit SubmitFunc) error {
	text, err := c.Stop()
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return submit(ctx, text)
}

// Capture is one push-to-talk capture in progress.
type Capture struct {
	stream TranscriptStream
	state  *session.StateMachine

	mu         sync.Mutex
	transcript string
	stopped    bool

	done chan struct{}
}

func (c *Capture) consume() {
	defer close(c.done)
	for update := range c.stream.Updates() {
		c.mu.Lock()
		c.transcript = update
		c.mu.Unlock()
	}
}

// Transcript returns the transcript buffered so far.
func (c *Capture) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// Done is closed once the underlying stream has terminated.
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

// Stop terminates capture, returns the bot state to idle, and yields
// the final trimmed transcript.
func (c *Capture) Stop() (string, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return "", ErrCaptureStopped
	}
	c.stopped = true
	c.mu.Unlock()

	c.stream.Stop()
	<-c.done

	if c.state.Current() == session.StateListening {
		c.state.Reset()
	}
	return strings.TrimSpace(c.Transcript()), nil
}

// Synthesizer is a speech-output capability.
type Synthesizer interface {
	// Speak starts synthesizing text and returns a handle for the
	// in-flight utterance.
	Speak(ctx context.Context, text string) (Utterance, error)
}

// Utterance is one in-flight synthesis.
type Utterance interface {
	// Done is closed when playback completes or is cancelled.
	Done() <-chan struct{}

	// Cancel stops playback. Safe to call more than once.
	Cancel()
}

// Speaker serializes access to the single synthesis output. Any
// in-flight utterance is cancelled before a new one starts, and Close
// cancels unconditionally so teardown never leaves audio playing.
type Speaker struct {
	synth  Synthesizer
	state  *session.StateMachine
	logger *logger.Logger

	mu      sync.Mutex
	current Utterance
}

// NewSpeaker creates a speaker. synth may be nil when the capability is
// absent; Speak is then a no-op.
func NewSpeaker(synth Synthesizer, state *session.StateMachine, log *logger.Logger) *Speaker {
	return &Speaker{
		synth:  synth,
		state:  state,
		logger: log,
	}
}

// Speak voices an assistant reply, cancelling any in-flight utterance
// first so playback never overlaps.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if s.synth == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Cancel()
		<-s.current.Done()
		s.current = nil
	}

	utt, err := s.synth.Speak(ctx, text)
	if err != nil {
		return err
	}
	if err := s.state.Transition(session.StateSpeaking); err != nil {
		utt.Cancel()
		return err
	}
	s.current = utt

	go func() {
		<-utt.Done()
		s.mu.Lock()
		stillCurrent := s.current == utt
		if stillCurrent {
			s.current = nil
		}
		s.mu.Unlock()
		// A superseded utterance must not reset the state out from
		// under its replacement.
		if stillCurrent && s.state.Current() == session.StateSpeaking {
			s.state.Reset()
		}
	}()
	return nil
}

// Close cancels any in-flight utterance.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Cancel()
		<-s.current.Done()
		s.current = nil
	}
	if s.state.Current() == session.StateSpeaking {
		s.state.Reset()
	}
	if s.logger != nil {
		s.logger.Debug("speaker closed")
	}
}
