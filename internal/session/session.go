// Package session stores per-user conversation state.
//
// A user has at most one state record at any time; writing a new state
// overwrites the previous one.
package session

import (
	"context"
	"fmt"
)

// State identifies a conversation step.
type State string

const (
	// StateMainMenu indicates the user is at the main menu.
	StateMainMenu State = "main_menu"
	// StateQuestions indicates the user is asking questions about programs.
	StateQuestions State = "questions"
	// StateRecommendation indicates the user is describing themselves to
	// receive a program recommendation.
	StateRecommendation State = "recommendation"
)

// Valid reports whether the state belongs to the known enumeration.
func (s State) Valid() bool {
	switch s {
	case StateMainMenu, StateQuestions, StateRecommendation:
		return true
	}
	return false
}

// FieldState is the hash field holding the state value.
const FieldState = "state"

// Information is the parsed state record of a user.
type Information struct {
	State State
}

// Fields serializes the record into the stored hash representation.
func (i Information) Fields() map[string]string {
	return map[string]string{FieldState: string(i.State)}
}

// Parse decodes a stored hash into state information. An empty record maps
// to nil (brand-new user); an unknown state value is an error.
func Parse(fields map[string]string) (*Information, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	st := State(fields[FieldState])
	if !st.Valid() {
		return nil, fmt.Errorf("unknown session state %q", fields[FieldState])
	}
	return &Information{State: st}, nil
}

// Store persists raw per-user session records.
type Store interface {
	// Get returns the stored record, or an empty map when none exists.
	Get(ctx context.Context, userID int64) (map[string]string, error)
	Set(ctx context.Context, userID int64, fields map[string]string) error
	Delete(ctx context.Context, userID int64) error
}
