// Package tests provides shared helpers for integration tests that run
// sockets against real, in-process websocket servers.
package tests

import (
	"errors"
	"net/http"
	"net/http/httptest"
)

// EndOfTest is the close reason integration tests pass when tearing down a
// connection they opened.
var EndOfTest = errors.New("end of test")

type MockServer struct {
	server *httptest.Server

	Url string
}

type MockHandler struct {
	Endpoint    string
	HandlerFunc http.HandlerFunc
}

func NewMockServer(handlers ...MockHandler) *MockServer {
	mux := http.NewServeMux()

	for _, handler := range handlers {
		mux.HandleFunc(handler.Endpoint, handler.HandlerFunc)
	}

	s := httptest.NewServer(mux)

	return &MockServer{
		server: s,
		Url:    s.URL,
	}
}

func (m *MockServer) Close() {
	m.server.Close()
}
