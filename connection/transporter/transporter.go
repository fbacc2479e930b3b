/*
The transporter package defines the contract for the physical socket under a
logical connection. A Transporter is single-use per dial: Dial establishes
one physical connection, Done closes when that connection dies for any
reason, and Err reports the terminal cause so the layer above can decide
whether the drop is worth retrying. The socket package re-dials the same
Transporter for every reconnect attempt.
*/
package transporter

import (
	"context"
	"net/http"
	"net/url"
)

type Transporter interface {
	// Done closes once the current physical connection is finished, whether
	// by remote close, local Close, or a read error
	Done() <-chan struct{}

	// Err reports why the connection finished. Nil means a clean close.
	Err() error

	// Inbound yields raw frames until the connection dies
	Inbound() <-chan *[]byte

	// Dial establishes the physical connection. Errors are returned to the
	// caller and nothing is retried at this layer.
	Dial(connUrl *url.URL, headers http.Header, ctx context.Context) (err error)

	// Send writes one frame to the live connection
	Send(message []byte) error

	// Close tears the connection down with the given reason. Idempotent.
	Close(reason error)
}
