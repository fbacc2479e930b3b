/*
The websocket package establishes and ferries raw frames across the
underlying websocket connection. It sits at the lowest layer of the
connection architecture: everything above it deals in frames and never
touches the wire. Handshake and framing are delegated entirely to
gorilla/websocket.
*/
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	gorilla "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"gopkg.in/tomb.v2"

	"github.com/resock/resock/connection/transporter"
	"github.com/resock/resock/logger"
)

// FrameKind selects the websocket message type used for outbound frames
type FrameKind int

const (
	TextFrames   FrameKind = gorilla.TextMessage
	BinaryFrames FrameKind = gorilla.BinaryMessage
)

const inboundBuffer = 200

type Websocket struct {
	tmb    tomb.Tomb
	logger *logger.Logger

	frameKind FrameKind

	// Guards client swaps on redial and serializes writes, gorilla allows
	// at most one concurrent writer
	clientLock sync.Mutex
	client     *gorilla.Conn

	// Received frames
	inbound chan *[]byte
}

func New(logger *logger.Logger, frameKind FrameKind) transporter.Transporter {
	return &Websocket{
		logger:    logger,
		frameKind: frameKind,
		inbound:   make(chan *[]byte, inboundBuffer),
	}
}

func (w *Websocket) Done() <-chan struct{} {
	return w.tmb.Dead()
}

func (w *Websocket) Err() error {
	return w.tmb.Err()
}

func (w *Websocket) Inbound() <-chan *[]byte {
	return w.inbound
}

func (w *Websocket) Close(reason error) {
	if !w.tmb.Alive() {
		w.logger.Debugf("close was called while in a dying state")
		return
	}

	w.logger.Infof("websocket connection closing because: %s", reason)

	// Send a close frame so well-behaved servers know this is deliberate,
	// then close the underlying connection to unblock the read pump
	w.clientLock.Lock()
	if w.client != nil {
		closeFrame := gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "")
		w.client.WriteMessage(gorilla.CloseMessage, closeFrame)
		w.client.Close()
	}
	w.clientLock.Unlock()

	w.tmb.Kill(nil)
	w.tmb.Wait()
}

func (w *Websocket) Send(message []byte) error {
	w.clientLock.Lock()
	defer w.clientLock.Unlock()

	if w.client == nil || !w.tmb.Alive() {
		return fmt.Errorf("cannot send message because websocket is closed")
	}
	return w.client.WriteMessage(int(w.frameKind), message)
}

func (w *Websocket) Dial(connUrl *url.URL, headers http.Header, ctx context.Context) (err error) {
	client, _, err := gorilla.DefaultDialer.DialContext(ctx, connUrl.String(), headers)
	if err != nil {
		return fmt.Errorf("error dialing websocket at %s: %w", connUrl, err)
	}

	// Reinitialize our state in case this is a redial post death
	w.clientLock.Lock()
	w.client = client
	w.tmb = tomb.Tomb{}
	w.clientLock.Unlock()

	// Tag this physical connection so reconnects are distinguishable in logs
	connectionId := uuid.New().String()
	w.tmb.Go(func() error {
		return w.receive(connectionId)
	})

	return nil
}

func (w *Websocket) receive(connectionId string) error {
	logger := w.logger.AddField("connectionId", connectionId)
	defer logger.Infof("websocket connection closed")
	logger.Infof("websocket connection started")

	for {
		// Read incoming message
		if _, rawMessage, err := w.client.ReadMessage(); !w.tmb.Alive() {
			return nil
		} else if err != nil {
			// Check if it's a clean exit
			if gorilla.IsCloseError(err, gorilla.CloseNormalClosure) {
				logger.Infof("websocket connection closed normally")
			} else {
				logger.Error(err)
			}
			return err
		} else {
			// Never block a dying connection on a full buffer, Close waits on
			// this goroutine
			select {
			case w.inbound <- &rawMessage:
			case <-w.tmb.Dying():
				return nil
			}
		}
	}
}
