package websocket

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/resock/resock/logger"
)

// MockWebsocketServer echoes every frame it receives back to the sender and
// records the received bytes for assertions
type MockWebsocketServer struct {
	logger   *logger.Logger
	listener net.Listener

	connsLock sync.Mutex
	conns     []*websocket.Conn

	Addr          string
	ReceivedBytes chan []byte
}

func NewMockWebsocketServer(logger *logger.Logger) *MockWebsocketServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logger.Errorf("failed to setup listener")
	}

	mockServer := &MockWebsocketServer{
		logger:        logger,
		listener:      listener,
		Addr:          fmt.Sprintf("ws://localhost:%d", listener.Addr().(*net.TCPAddr).Port),
		ReceivedBytes: make(chan []byte, 1),
	}

	go func() {
		http.Serve(mockServer.listener, mockServer)
	}()

	return mockServer
}

// Shutdown stops listening and severs every established connection so
// clients observe an abrupt drop
func (m *MockWebsocketServer) Shutdown() {
	m.listener.Close()

	m.connsLock.Lock()
	defer m.connsLock.Unlock()
	for _, conn := range m.conns {
		conn.Close()
	}
	m.conns = nil
}

func (m *MockWebsocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}

	// Upgrade our raw HTTP connection to a websocket based one
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Errorf("error during connection upgrade: %s", err)
		return
	}
	defer conn.Close()

	m.connsLock.Lock()
	m.conns = append(m.conns, conn)
	m.connsLock.Unlock()

	// The echo loop
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			m.logger.Errorf("error during message reading: %s", err)
			break
		}

		m.ReceivedBytes <- message

		err = conn.WriteMessage(messageType, message)
		if err != nil {
			m.logger.Errorf("error during message writing: %s", err)
			break
		}
	}
}
