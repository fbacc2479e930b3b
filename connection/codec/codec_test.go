package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Id   int    `json:"id" cbor:"1,keyasint"`
	Body string `json:"body" cbor:"2,keyasint"`
}

func TestJSONRoundTrip(t *testing.T) {
	c := JSON[note, note]()

	frame, err := c.Encode(note{Id: 7, Body: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"body":"hello"}`, string(frame))

	decoded, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, note{Id: 7, Body: "hello"}, decoded)
}

func TestJSONDecodeFailureIsPerItem(t *testing.T) {
	c := JSON[note, note]()

	_, err := c.Decode([]byte("{nope"))
	assert.Error(t, err)

	// A bad frame doesn't poison the codec
	decoded, err := c.Decode([]byte(`{"id":1,"body":"still fine"}`))
	require.NoError(t, err)
	assert.Equal(t, "still fine", decoded.Body)
}

func TestJSONAsymmetricTypes(t *testing.T) {
	type request struct {
		Op string `json:"op"`
	}
	type response struct {
		Ok bool `json:"ok"`
	}

	c := JSON[request, response]()

	frame, err := c.Encode(request{Op: "ping"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"ping"}`, string(frame))

	decoded, err := c.Decode([]byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.True(t, decoded.Ok)
}

func TestCBORRoundTrip(t *testing.T) {
	c := CBOR[note, note]()

	frame, err := c.Encode(note{Id: 7, Body: "hello"})
	require.NoError(t, err)

	decoded, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, note{Id: 7, Body: "hello"}, decoded)
}

func TestCBORDecodeFailure(t *testing.T) {
	c := CBOR[note, note]()

	_, err := c.Decode([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestRawPassthrough(t *testing.T) {
	c := Raw()
	payload := []byte("as-is")

	frame, err := c.Encode(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, frame)

	decoded, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}
