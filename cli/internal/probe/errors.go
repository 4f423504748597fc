package probe

import (
	"errors"
	"fmt"
)

var (
	ErrHostLeft         = errors.New("coordinator connection lost")
	ErrAccessDenied     = errors.New("access denied")
	ErrTimeout          = errors.New("timeout")
	ErrUnexpectedSignal = errors.New("unexpected signal")
	ErrChannelNotOpen   = errors.New("channel not open")
	ErrNoPeers          = errors.New("no other members in the meeting")
)

// SessionError describes which step of a session failed.
type SessionError struct {
	Op      string
	Peer    string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Peer != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func NewPeerError(op, peer string, err error) *SessionError {
	return &SessionError{Op: op, Peer: peer, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
