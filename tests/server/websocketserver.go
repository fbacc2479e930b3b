package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/resock/resock/logger"
)

// WebsocketServer echoes every frame back to the sender. Tests use ForceClose
// to sever the live connection without stopping the server, which lets them
// exercise automatic reconnects against the same endpoint.
type WebsocketServer struct {
	logger *logger.Logger

	connLock sync.Mutex
	conn     *websocket.Conn
}

func NewWebsocketServer(logger *logger.Logger) *WebsocketServer {
	return &WebsocketServer{
		logger: logger,
	}
}

func (w *WebsocketServer) Serve(writer http.ResponseWriter, request *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		w.logger.Errorf("failed to upgrade websocket: %s", err)
		return
	}

	w.connLock.Lock()
	w.conn = conn
	w.connLock.Unlock()

	defer conn.Close()

	for {
		if messageType, message, err := conn.ReadMessage(); err != nil {
			w.logger.Errorf("failed to read from websocket connection: %s", err)
			return
		} else if err := conn.WriteMessage(messageType, message); err != nil {
			w.logger.Errorf("failed to write to websocket connection: %s", err)
			return
		}
	}
}

// ForceClose tears down the current connection abruptly, the way a network
// partition or a crashed peer would.
func (w *WebsocketServer) ForceClose() {
	w.connLock.Lock()
	defer w.connLock.Unlock()

	if w.conn != nil {
		w.conn.Close()
	}
}

// Close performs an elegant close handshake with the connected client.
func (w *WebsocketServer) Close() {
	w.connLock.Lock()
	defer w.connLock.Unlock()

	if w.conn != nil {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		w.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	}
}
