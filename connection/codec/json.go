package codec

import (
	"encoding/json"
)

type jsonCodec[S, R any] struct{}

// JSON returns a codec that marshals outbound items and unmarshals inbound
// frames with encoding/json. Best carried over text frames.
func JSON[S, R any]() Codec[S, R] {
	return jsonCodec[S, R]{}
}

func (jsonCodec[S, R]) Encode(item S) ([]byte, error) {
	return json.Marshal(item)
}

func (jsonCodec[S, R]) Decode(frame []byte) (R, error) {
	var item R
	err := json.Unmarshal(frame, &item)
	return item, err
}
