package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by send paths while the connection is in
	// any state other than Open. It is transient: the caller may retry once
	// a subsequent Open state is observed.
	ErrNotConnected = errors.New("connection is not open")

	// ErrInvalidURL is fatal and never retried
	ErrInvalidURL = errors.New("invalid connection url")

	// ErrInvalidConfig is fatal and never retried
	ErrInvalidConfig = errors.New("invalid connection config")

	// ErrRetriesExhausted reports that the backoff policy ran out of
	// attempts; the connection transitions to Failed
	ErrRetriesExhausted = errors.New("connection retries exhausted")
)

// EncodeError wraps a codec failure on the outbound path. It is local to the
// one item that failed and never affects the connection lifecycle.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("failed to encode outbound item: %s", e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError wraps a codec failure on the inbound path. It is reported as a
// distinguished event on the stream; the connection stays up and the next
// valid frame is still delivered.
type DecodeError struct {
	Err error

	// The frame that failed to decode, for diagnostics
	Frame []byte
}

func (e *DecodeError) Error() string { return fmt.Sprintf("failed to decode inbound frame: %s", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }
