/*
The socket package is the top of the connection architecture: a logical
connection that survives the death of any number of physical ones.

A single supervisor goroutine owns the transporter. It watches for the
current physical connection to die, classifies the cause, consults the
backoff policy, waits out the delay, and dials again; callers observe the
whole lifetime as one ordered stream of message and state events and submit
outbound items through the socket or a Sender handle.

Layers of the connection architecture:
 1. Transporter
 2. Codec
 3. Socket <- this is us
*/
package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"gopkg.in/tomb.v2"

	"github.com/resock/resock/connection"
	"github.com/resock/resock/connection/backoff"
	"github.com/resock/resock/connection/codec"
	"github.com/resock/resock/connection/transporter"
	"github.com/resock/resock/logger"
)

const sendQueueBuffer = 50

type Socket[S, R any] struct {
	tmb    tomb.Tomb
	logger *logger.Logger

	// This is our underlying connection where we send and receive frames.
	// The supervisor alone dials and watches it; Reconnect may close it from
	// any goroutine, which the supervisor observes as an ordinary drop.
	client transporter.Transporter

	codec  codec.Codec[S, R]
	policy backoff.Policy

	connUrl *url.URL
	headers http.Header

	// Reports whether an error means retrying is pointless
	fatal func(error) bool

	// How long a connection must stay open before the retry budget resets.
	// Zero resets the budget on every successful dial.
	stableTimeout time.Duration

	// Merged output sequence of message and state events
	events *mux[R]

	// Buffered channel of pre-encoded frames from Sender handles
	sendQueue chan []byte

	// Retries since the last healthy connection
	attempt int

	// When the current physical connection was established
	openedAt time.Time

	stateLock sync.RWMutex
	state     connection.State
}

func (s *Socket[S, R]) Done() <-chan struct{} {
	return s.tmb.Dead()
}

func (s *Socket[S, R]) Err() error {
	return s.tmb.Err()
}

func (s *Socket[S, R]) Ready() bool {
	return s.State().Status == connection.Open
}

func (s *Socket[S, R]) State() connection.State {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()
	return s.state
}

// Events returns the merged, ordered sequence of inbound message events and
// (unless disabled) state-change events. The channel closes only once the
// socket reaches Closed or Failed; consuming it fully is equivalent to
// waiting for final disposition.
func (s *Socket[S, R]) Events() <-chan Event[R] {
	return s.events.Out()
}

// Sender returns a handle for submitting outbound items from other
// goroutines. Safe to copy and to use concurrently.
func (s *Socket[S, R]) Sender() Sender[S] {
	return Sender[S]{
		encode: s.codec.Encode,
		ready:  s.Ready,
		queue:  s.sendQueue,
		dead:   s.tmb.Dead(),
	}
}

// Send encodes item and writes it to the currently active connection. It
// fails fast with connection.ErrNotConnected in any state other than Open;
// a send racing a reconnect may see ErrNotConnected even though the
// connection recovers moments later, in which case the caller retries.
func (s *Socket[S, R]) Send(item S) error {
	frame, err := s.codec.Encode(item)
	if err != nil {
		return &connection.EncodeError{Err: err}
	}

	if !s.Ready() {
		return connection.ErrNotConnected
	}

	if err := s.client.Send(frame); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close shuts the socket down permanently: any pending backoff delay is
// cancelled, the active connection is closed, and the state becomes Closed.
// Blocks until shutdown completes or timeout elapses. Closing twice is a
// no-op.
func (s *Socket[S, R]) Close(reason error, timeout time.Duration) {
	if !s.tmb.Alive() {
		s.logger.Infof("close was called while in a dying state")
		return
	}

	s.logger.Infof("connection closing because: %s", reason)
	s.tmb.Kill(reason)

	select {
	case <-s.tmb.Dead():
	case <-time.After(timeout):
		s.logger.Infof("timed out after %s waiting for connection to close", timeout.String())
	}
}

// Reconnect tears down the current physical connection without closing the
// socket. The supervisor observes the drop and runs the usual retry path, so
// callers see the same Reconnecting/Open sequence as any other outage.
func (s *Socket[S, R]) Reconnect() {
	if !s.tmb.Alive() {
		return
	}

	s.logger.Infof("forcing a reconnect of the underlying connection")
	s.client.Close(errors.New("reconnect requested"))
}

// run is the supervisor loop. It is the only goroutine that touches the
// transporter's lifecycle and the only producer of events, which is what
// gives the merged sequence its ordering guarantee.
func (s *Socket[S, R]) run() error {
	s.logger.Infof("connection supervisor started")
	defer s.logger.Infof("connection supervisor stopped")

	defer s.events.close()

	for {
		select {
		case <-s.tmb.Dying():
			return s.shutdown()

		case <-s.client.Done():
			if err := s.reconnect(s.client.Err()); err != nil {
				return err
			}
			if !s.tmb.Alive() {
				return s.shutdown()
			}

		case frame := <-s.sendQueue:
			if err := s.client.Send(frame); err != nil {
				s.logger.Errorf("failed to send queued message: %s", err)
			}

		case raw := <-s.client.Inbound():
			s.handleInbound(*raw)
		}
	}
}

// shutdown is the caller-initiated exit path: close the active connection,
// announce Closed and stop. Never called for fatal errors, those go through
// Failed inside reconnect.
func (s *Socket[S, R]) shutdown() error {
	reason := s.tmb.Err()

	s.client.Close(fmt.Errorf("connection closing"))
	s.setState(connection.State{Status: connection.Closed, Reason: reason})
	return nil
}

// reconnect drives the retry loop after the physical connection died with
// the given cause. It returns nil once a replacement connection is open (or
// the socket is closing) and the terminal error if the cause was fatal or
// the retry budget ran out.
func (s *Socket[S, R]) reconnect(cause error) error {
	if cause == nil {
		cause = errors.New("connection closed by remote")
	}
	s.logger.Infof("lost connection (%s), reconnecting...", cause)

	if s.fatal(cause) {
		return s.fail(cause)
	}

	// Anything still queued was aimed at the connection that just died;
	// drop it rather than replay it on a connection it was never meant for
	s.drainSendQueue()

	// A connection that proved stable earns a fresh retry budget
	if s.stableTimeout > 0 && time.Since(s.openedAt) >= s.stableTimeout {
		s.attempt = 0
		s.policy.Reset()
	}

	for {
		s.attempt++

		delay, ok := s.policy.Next()
		if !ok {
			return s.fail(fmt.Errorf("%w: giving up after attempt %d: last error: %s", connection.ErrRetriesExhausted, s.attempt-1, cause))
		}

		s.setState(connection.State{
			Status:  connection.Reconnecting,
			Attempt: s.attempt,
			Delay:   delay,
			Reason:  cause,
		})

		select {
		case <-time.After(delay):
		case <-s.tmb.Dying():
			// Close cancels any pending backoff delay
			return nil
		}

		s.logger.Infof("reconnect attempt %d", s.attempt)
		if err := s.dial(context.Background()); err != nil {
			if s.fatal(err) {
				return s.fail(err)
			}

			// Treat a failed dial as another drop, the counter stays
			s.logger.Errorf("reconnect attempt %d failed: %s", s.attempt, err)
			cause = err
			continue
		}

		s.opened()
		return nil
	}
}

// fail is the terminal error path: announce Failed and surface the error to
// the tomb. No further reconnect attempts happen after this.
func (s *Socket[S, R]) fail(err error) error {
	s.logger.Errorf("connection failed permanently: %s", err)
	s.setState(connection.State{Status: connection.Failed, Reason: err})
	return err
}

// opened records a successful dial and announces Open. Without a stable
// timeout the retry budget resets immediately, so the next outage starts
// over at attempt 1.
func (s *Socket[S, R]) opened() {
	s.openedAt = time.Now()

	if s.stableTimeout == 0 {
		s.attempt = 0
		s.policy.Reset()
	}

	s.setState(connection.State{Status: connection.Open, Attempt: s.attempt})
}

// dial performs one connection attempt, tying the transport's own connect
// timeout to our lifetime so a Close during a dial aborts it
func (s *Socket[S, R]) dial(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.tmb.Dying():
			cancel()
		}
	}()

	return s.client.Dial(s.connUrl, s.headers, ctx)
}

func (s *Socket[S, R]) handleInbound(raw []byte) {
	item, err := s.codec.Decode(raw)
	if err != nil {
		// Local to this frame; the connection stays up
		decodeErr := &connection.DecodeError{Err: err, Frame: raw}
		s.logger.Errorf("%s", decodeErr)
		s.events.decodeFailure(decodeErr, s.tmb.Dying())
		return
	}

	s.events.message(item, s.tmb.Dying())
}

func (s *Socket[S, R]) drainSendQueue() {
	for {
		select {
		case frame := <-s.sendQueue:
			s.logger.Errorf("dropping %d byte outbound message queued for a dead connection", len(frame))
		default:
			return
		}
	}
}

// setState records the transition and emits exactly one state event for it
func (s *Socket[S, R]) setState(state connection.State) {
	s.stateLock.Lock()
	s.state = state
	s.stateLock.Unlock()

	s.logger.Infof("connection state: %s", state)
	s.events.state(state, s.tmb.Dying())
}
