package connection

import (
	"fmt"
	"time"
)

// Status enumerates where a connection is in its lifecycle
type Status int

const (
	// Connecting means a dial is in flight, either the first one or a retry
	Connecting Status = iota

	// Open means the underlying transporter is established and sendable
	Open

	// Reconnecting means the previous transporter died and we are waiting
	// out a backoff delay before dialing again
	Reconnecting

	// Closed is terminal and only ever entered by explicit caller shutdown
	Closed

	// Failed is terminal: a fatal error occurred or the retry budget ran out
	Failed
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Open:
		return "Open"
	case Reconnecting:
		return "Reconnecting"
	case Closed:
		return "Closed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a snapshot of the connection lifecycle. Exactly one State is
// current at any time and every transition is announced exactly once, in
// order, on the socket's event stream.
type State struct {
	Status Status

	// Which retry produced this state. Zero for the first connection and
	// after a successful reconnect; on Reconnecting it counts up from 1.
	Attempt int

	// How long the socket waits before redialing. Only set on Reconnecting.
	Delay time.Duration

	// Why we ended up here. Set on Closed and Failed, and on Reconnecting
	// when the previous connection died with an error.
	Reason error
}

func (s State) String() string {
	switch s.Status {
	case Reconnecting:
		return fmt.Sprintf("%s{attempt: %d, delay: %s}", s.Status, s.Attempt, s.Delay)
	case Closed, Failed:
		if s.Reason != nil {
			return fmt.Sprintf("%s{reason: %s}", s.Status, s.Reason)
		}
		return s.Status.String()
	default:
		return s.Status.String()
	}
}

// Terminal reports whether no further states can follow this one
func (s State) Terminal() bool {
	return s.Status == Closed || s.Status == Failed
}
