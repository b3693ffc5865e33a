package session

import (
	"fmt"
	"sync"
)

// BotState is the four-valued indicator describing the conversational
// UI's current activity.
type BotState string

const (
	StateIdle      BotState = "idle"
	StateListening BotState = "listening"
	StateThinking  BotState = "thinking"
	StateSpeaking  BotState = "speaking"
)

// legalTransitions encodes the bot-state machine. Listening starts and
// stops around voice capture, thinking brackets the provider round trip,
// speaking brackets synthesis playback.
var legalTransitions = map[BotState][]BotState{
	StateIdle:      {StateListening, StateThinking, StateSpeaking},
	StateListening: {StateIdle, StateThinking},
	StateThinking:  {StateIdle},
	StateSpeaking:  {StateIdle, StateListening},
}

// StateMachine tracks the bot state and rejects illegal transitions.
type StateMachine struct {
	mu    sync.RWMutex
	state BotState
}

// NewStateMachine returns a state machine starting at idle.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateIdle}
}

// Current returns the current state.
func (m *StateMachine) Current() BotState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transition moves to the target state, failing on illegal moves.
// Transitioning to the current state is a no-op.
func (m *StateMachine) Transition(to BotState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == to {
		return nil
	}
	for _, allowed := range legalTransitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal bot state transition %s -> %s", m.state, to)
}

// Reset forces the state back to idle. Used by the unconditional
// post-turn reset and by teardown paths.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
}
