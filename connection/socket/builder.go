package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/resock/resock/connection"
	"github.com/resock/resock/connection/backoff"
	"github.com/resock/resock/connection/codec"
	"github.com/resock/resock/connection/transporter"
	"github.com/resock/resock/connection/transporter/websocket"
	"github.com/resock/resock/logger"
	"github.com/resock/resock/wsurl"
)

// Builder assembles and opens a Socket. The zero configuration connects
// with a JSON-over-text-frames friendly setup: exponential backoff from
// 100ms to 60s with jitter, unlimited retries, and state events enabled.
type Builder[S, R any] struct {
	url    string
	params url.Values

	headers http.Header
	codec   codec.Codec[S, R]

	policy        backoff.Policy
	backoffConfig backoff.Config

	logger *logger.Logger
	client transporter.Transporter

	frameKind     websocket.FrameKind
	stateEvents   bool
	stableTimeout time.Duration
	fatal         func(error) bool
}

func New[S, R any](rawUrl string, c codec.Codec[S, R]) *Builder[S, R] {
	return &Builder[S, R]{
		url:   rawUrl,
		codec: c,
		backoffConfig: backoff.Config{
			Min:        backoff.DefaultMin,
			Max:        backoff.DefaultMax,
			Jitter:     backoff.DefaultJitter,
			MaxRetries: backoff.DefaultMaxRetries,
		},
		frameKind:   websocket.TextFrames,
		stateEvents: true,
	}
}

// WithBackoff replaces the default backoff configuration
func (b *Builder[S, R]) WithBackoff(config backoff.Config) *Builder[S, R] {
	b.backoffConfig = config
	return b
}

// WithPolicy substitutes a complete backoff policy, e.g. a deterministic
// one in tests. Takes precedence over WithBackoff.
func (b *Builder[S, R]) WithPolicy(policy backoff.Policy) *Builder[S, R] {
	b.policy = policy
	return b
}

func (b *Builder[S, R]) WithLogger(logger *logger.Logger) *Builder[S, R] {
	b.logger = logger
	return b
}

func (b *Builder[S, R]) WithHeaders(headers http.Header) *Builder[S, R] {
	b.headers = headers
	return b
}

func (b *Builder[S, R]) WithParams(params url.Values) *Builder[S, R] {
	b.params = params
	return b
}

// WithStateEvents controls whether lifecycle transitions appear on the
// event stream. When disabled the stream carries message events only and
// state is observable through State() and failing sends.
func (b *Builder[S, R]) WithStateEvents(enabled bool) *Builder[S, R] {
	b.stateEvents = enabled
	return b
}

// WithStableTimeout makes the retry budget reset only once a connection has
// stayed open for the given duration, so a server that accepts and
// immediately drops connections still exhausts the budget. Zero (the
// default) resets the budget on every successful dial.
func (b *Builder[S, R]) WithStableTimeout(d time.Duration) *Builder[S, R] {
	b.stableTimeout = d
	return b
}

// WithFatalClassifier replaces the default test for whether a connection
// error is worth retrying. The default treats invalid URLs and websocket
// handshake rejections as fatal and everything else as retryable.
func (b *Builder[S, R]) WithFatalClassifier(fatal func(error) bool) *Builder[S, R] {
	b.fatal = fatal
	return b
}

// WithTransporter injects the underlying transport, used by tests to
// substitute a mock. The default is the gorilla websocket transporter.
func (b *Builder[S, R]) WithTransporter(client transporter.Transporter) *Builder[S, R] {
	b.client = client
	return b
}

// WithBinaryFrames sends outbound frames as binary websocket messages,
// which binary codecs such as CBOR require
func (b *Builder[S, R]) WithBinaryFrames() *Builder[S, R] {
	b.frameKind = websocket.BinaryFrames
	return b
}

// Open validates the configuration and performs the first connection
// attempt synchronously, so unrecoverable configuration errors (malformed
// URL, bad backoff parameters, rejected handshake) surface here instead of
// being silently retried. On success the returned socket is Open and its
// supervisor is already watching for drops.
func (b *Builder[S, R]) Open(ctx context.Context) (*Socket[S, R], error) {
	if b.codec == nil {
		return nil, fmt.Errorf("%w: a codec is required", connection.ErrInvalidConfig)
	}
	if b.policy == nil {
		if err := validateBackoff(b.backoffConfig); err != nil {
			return nil, err
		}
	}

	connUrl, err := wsurl.Parse(b.url, b.params)
	if err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.GetComponentLogger("Socket")

	policy := b.policy
	if policy == nil {
		policy = backoff.NewExponential(b.backoffConfig)
	}

	client := b.client
	if client == nil {
		client = websocket.New(log.GetComponentLogger("Websocket"), b.frameKind)
	}

	fatal := b.fatal
	if fatal == nil {
		fatal = defaultFatalClassifier
	}

	headers := b.headers
	if headers == nil {
		headers = http.Header{}
	}

	s := &Socket[S, R]{
		logger:        log,
		client:        client,
		codec:         b.codec,
		policy:        policy,
		connUrl:       connUrl,
		headers:       headers,
		fatal:         fatal,
		stableTimeout: b.stableTimeout,
		events:        newMux[R](log, b.stateEvents),
		sendQueue:     make(chan []byte, sendQueueBuffer),
	}

	// The first connect is done here so it fails fast on fatal errors; the
	// same class of error on a later reconnect surfaces as a Failed state
	s.setState(connection.State{Status: connection.Connecting})
	if err := s.dial(ctx); err != nil {
		return nil, err
	}
	s.opened()

	s.tmb.Go(s.run)

	return s, nil
}

func validateBackoff(config backoff.Config) error {
	if config.Min < 0 || config.Max < 0 || config.MaxRetries < 0 {
		return fmt.Errorf("%w: backoff durations and retries must not be negative", connection.ErrInvalidConfig)
	}
	if config.Max > 0 && config.Min > config.Max {
		return fmt.Errorf("%w: backoff min %s exceeds max %s", connection.ErrInvalidConfig, config.Min, config.Max)
	}
	if config.Jitter < 0 || config.Jitter >= 1 {
		return fmt.Errorf("%w: backoff jitter must be in [0, 1)", connection.ErrInvalidConfig)
	}
	return nil
}

func defaultFatalClassifier(err error) bool {
	// A rejected handshake means the server heard us and said no; asking
	// again with the same request tends to get the same answer
	return errors.Is(err, connection.ErrInvalidURL) ||
		errors.Is(err, connection.ErrInvalidConfig) ||
		errors.Is(err, gorilla.ErrBadHandshake)
}
