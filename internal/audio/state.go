// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Recorder lifecycle state machine
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

import (
	"sync"
	"time"
)

// State represents the lifecycle state of a Recorder
type State int

const (
	// StateIdle - no session, ready to start
	StateIdle State = iota

	// StateRecording - capture goroutine is reading the device
	StateRecording

	// StateStopping - stop requested, waiting for the capture goroutine
	StateStopping
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// StateChangeListener is called when state changes. It runs while the
// Recorder holds its lock and must not call back into the Recorder.
type StateChangeListener func(oldState, newState State)

// validTransitions lists the allowed targets per state
var validTransitions = map[State][]State{
	StateIdle:      {StateRecording},
	StateRecording: {StateStopping, StateIdle},
	StateStopping:  {StateIdle},
}

// StateMachine manages state transitions
type StateMachine struct {
	mu           sync.RWMutex
	currentState State
	stateTime    time.Time
	listeners    []StateChangeListener
}

// NewStateMachine creates a new state machine in StateIdle
func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateIdle,
		stateTime:    time.Now(),
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// StateDuration returns how long we've been in the current state
func (sm *StateMachine) StateDuration() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.stateTime)
}

// Transition changes to a new state; invalid transitions return false
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.currentState

	if !isValidTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}

	sm.currentState = newState
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}
	return true
}

// AddListener adds a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

func isValidTransition(from, to State) bool {
	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}
