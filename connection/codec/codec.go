/*
The codec package converts caller-typed items to and from the raw frames the
transporter ferries. Codec failures are per-item: an item that fails to
encode is reported to its sender and an inbound frame that fails to decode is
reported on the event stream, but neither touches the connection lifecycle.
*/
package codec

// Codec converts outbound items of type S into frames and inbound frames
// into items of type R
type Codec[S, R any] interface {
	Encode(item S) ([]byte, error)
	Decode(frame []byte) (R, error)
}
