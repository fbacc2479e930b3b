/*
The connection package defines the shared vocabulary of the connection layer.

Layers of the architecture, lowest first:
 1. Transporter - dials and ferries raw frames (connection/transporter)
 2. Codec - converts frames to and from caller types (connection/codec)
 3. Socket - supervises reconnects and multiplexes events (connection/socket)

The Socket owns exactly one live transporter at a time. When that transporter
dies the Socket consults its backoff policy, waits, and dials a replacement;
callers observe the whole lifetime as a single logical connection.
*/
package connection

import (
	"time"
)

// Connection is the lifecycle surface shared by every connection manager.
// Typed send/receive methods live on the concrete socket types because they
// depend on the caller's message types.
type Connection interface {
	Done() <-chan struct{}
	Err() error
	Ready() bool
	State() State
	Close(reason error, timeout time.Duration)
}
