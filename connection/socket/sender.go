package socket

import (
	"github.com/resock/resock/connection"
)

// Sender is a cheap, copyable handle for submitting outbound items from any
// number of goroutines. Items are encoded at the call site, so encode errors
// come back to the caller that produced the item, then queued for the
// supervisor to forward; items submitted by one goroutine are forwarded in
// the order they were submitted.
//
// A Sender never buffers across reconnects: while the connection is not
// Open, Send fails immediately with connection.ErrNotConnected and the
// caller is expected to retry after observing a subsequent Open state.
type Sender[S any] struct {
	encode func(S) ([]byte, error)
	ready  func() bool
	queue  chan<- []byte
	dead   <-chan struct{}
}

func (s Sender[S]) Send(item S) error {
	frame, err := s.encode(item)
	if err != nil {
		return &connection.EncodeError{Err: err}
	}

	if !s.ready() {
		return connection.ErrNotConnected
	}

	select {
	case s.queue <- frame:
		return nil
	case <-s.dead:
		return connection.ErrNotConnected
	}
}
