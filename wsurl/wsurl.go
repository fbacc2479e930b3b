/*
The wsurl package builds and validates websocket URLs. Callers often hold an
http(s) service URL; Parse maps it onto the matching websocket scheme and
rejects anything that could never carry a websocket connection, so that
configuration mistakes fail fast instead of being retried forever.
*/
package wsurl

import (
	"fmt"
	"net/url"

	"github.com/resock/resock/connection"
)

const (
	HttpsOnlyWebsocketScheme = "wss"
	HttpWebsocketScheme      = "ws"
)

// Parse validates rawUrl as a websocket target and encodes params into its
// query. http and https are accepted and mapped to ws and wss. Errors wrap
// connection.ErrInvalidURL and are fatal to a connection attempt.
func Parse(rawUrl string, params url.Values) (*url.URL, error) {
	connUrl, err := url.ParseRequestURI(rawUrl)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %q: %s", connection.ErrInvalidURL, rawUrl, err)
	}

	switch connUrl.Scheme {
	case HttpWebsocketScheme, HttpsOnlyWebsocketScheme:
	case "http":
		connUrl.Scheme = HttpWebsocketScheme
	case "https":
		connUrl.Scheme = HttpsOnlyWebsocketScheme
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", connection.ErrInvalidURL, connUrl.Scheme, rawUrl)
	}

	if connUrl.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", connection.ErrInvalidURL, rawUrl)
	}

	if len(params) > 0 {
		connUrl.RawQuery = params.Encode()
	}

	return connUrl, nil
}
