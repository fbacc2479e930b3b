package codec

import (
	"github.com/fxamacker/cbor/v2"
)

type cborCodec[S, R any] struct{}

// CBOR returns a codec backed by fxamacker/cbor. Must be carried over
// binary frames.
func CBOR[S, R any]() Codec[S, R] {
	return cborCodec[S, R]{}
}

func (cborCodec[S, R]) Encode(item S) ([]byte, error) {
	return cbor.Marshal(item)
}

func (cborCodec[S, R]) Decode(frame []byte) (R, error) {
	var item R
	err := cbor.Unmarshal(frame, &item)
	return item, err
}
