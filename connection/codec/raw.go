package codec

type rawCodec struct{}

// Raw returns a passthrough codec for callers that want to deal in frames
// directly
func Raw() Codec[[]byte, []byte] {
	return rawCodec{}
}

func (rawCodec) Encode(item []byte) ([]byte, error) {
	return item, nil
}

func (rawCodec) Decode(frame []byte) ([]byte, error) {
	return frame, nil
}
