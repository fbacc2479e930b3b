package socket

import (
	"github.com/resock/resock/connection"
	"github.com/resock/resock/logger"
)

const eventBuffer = 200

type EventKind int

const (
	// MessageEvent carries a decoded inbound item, or the decode error for
	// the one frame that failed
	MessageEvent EventKind = iota

	// StateEvent announces a connection lifecycle transition
	StateEvent
)

// Event is one entry in the socket's merged output sequence. Message events
// and state events arrive in wall-clock order because a single goroutine
// produces both.
type Event[R any] struct {
	Kind EventKind

	// The decoded item, valid for MessageEvent when Err is nil
	Message R

	// The decode failure for this one frame, valid for MessageEvent.
	// Decode failures never affect the connection state.
	Err error

	// The transition snapshot, valid for StateEvent
	State connection.State
}

// mux funnels decoded messages and state transitions into the single ordered
// channel the caller consumes. When state reporting is disabled only message
// events are forwarded; either way the channel closes exactly once, after
// the terminal state.
type mux[R any] struct {
	logger      *logger.Logger
	stateEvents bool

	out chan Event[R]
}

func newMux[R any](logger *logger.Logger, stateEvents bool) *mux[R] {
	return &mux[R]{
		logger:      logger,
		stateEvents: stateEvents,
		out:         make(chan Event[R], eventBuffer),
	}
}

func (m *mux[R]) Out() <-chan Event[R] {
	return m.out
}

func (m *mux[R]) message(item R, dying <-chan struct{}) {
	select {
	case m.out <- Event[R]{Kind: MessageEvent, Message: item}:
	case <-dying:
		m.logger.Debugf("discarding inbound message received while closing")
	}
}

func (m *mux[R]) decodeFailure(err error, dying <-chan struct{}) {
	select {
	case m.out <- Event[R]{Kind: MessageEvent, Err: err}:
	case <-dying:
		m.logger.Debugf("discarding decode failure received while closing")
	}
}

func (m *mux[R]) state(state connection.State, dying <-chan struct{}) {
	if !m.stateEvents {
		return
	}

	if state.Terminal() {
		// Terminal states are emitted while the socket is already dying, so
		// waiting on the consumer could wedge shutdown
		select {
		case m.out <- Event[R]{Kind: StateEvent, State: state}:
		default:
			m.logger.Errorf("event buffer full, dropping terminal state event %s", state)
		}
		return
	}

	select {
	case m.out <- Event[R]{Kind: StateEvent, State: state}:
	case <-dying:
	}
}

func (m *mux[R]) close() {
	close(m.out)
}
