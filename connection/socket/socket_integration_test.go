package socket

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/resock/resock/connection"
	"github.com/resock/resock/connection/backoff"
	"github.com/resock/resock/connection/codec"
	"github.com/resock/resock/logger"
	"github.com/resock/resock/tests"
	"github.com/resock/resock/tests/server"
)

// These tests run a socket against a real, in-process websocket echo server
// so that the full stack is exercised: codec, supervisor, and the gorilla
// transporter, with genuine network drops instead of mocked ones.
var _ = Describe("Socket Integration", Ordered, func() {
	var sock *Socket[testItem, testItem]
	var websocketServer *server.WebsocketServer
	var mockServer *tests.MockServer
	var err error

	logger := logger.MockLogger(GinkgoWriter)
	testCodec := codec.JSON[testItem, testItem]()

	quickBackoff := backoff.Config{
		Min:    10 * time.Millisecond,
		Max:    50 * time.Millisecond,
		Jitter: 0,
	}

	startEchoServer := func() {
		websocketServer = server.NewWebsocketServer(logger)
		mockServer = tests.NewMockServer(tests.MockHandler{
			Endpoint:    "/feed",
			HandlerFunc: websocketServer.Serve,
		})
	}

	waitForState := func(status connection.Status) connection.State {
		for {
			select {
			case event, ok := <-sock.Events():
				if !ok {
					Fail("event stream ended while waiting for a state event")
				}
				if event.Kind == StateEvent && event.State.Status == status {
					return event.State
				}
			case <-time.After(5 * time.Second):
				Fail("timed out waiting for state " + status.String())
			}
		}
	}

	waitForEcho := func() testItem {
		for {
			select {
			case event, ok := <-sock.Events():
				if !ok {
					Fail("event stream ended while waiting for an echo")
				}
				if event.Kind == MessageEvent {
					return event.Message
				}
			case <-time.After(5 * time.Second):
				Fail("timed out waiting for an echo")
			}
		}
	}

	Context("Happy path", func() {
		When("talking to a live server", func() {
			BeforeAll(func() {
				startEchoServer()
				sock, err = New[testItem, testItem](mockServer.Url+"/feed", testCodec).
					WithLogger(logger).
					WithBackoff(quickBackoff).
					Open(context.Background())
			})

			AfterAll(func() {
				sock.Close(tests.EndOfTest, time.Second)
				mockServer.Close()
			})

			It("connects immediately", func() {
				Expect(err).ToNot(HaveOccurred(), "socket failed to open against a live server")
				Expect(sock.Ready()).To(BeTrue())
			})

			It("round-trips a message through the echo server", func() {
				Expect(waitForState(connection.Open).Attempt).To(Equal(0))

				Expect(sock.Send(testItem{Value: "ping"})).To(Succeed())
				Expect(waitForEcho()).To(Equal(testItem{Value: "ping"}))
			})
		})
	})

	Context("Recovering from a dropped connection", func() {
		When("the server severs the connection but stays up", func() {
			BeforeAll(func() {
				startEchoServer()
				sock, err = New[testItem, testItem](mockServer.Url+"/feed", testCodec).
					WithLogger(logger).
					WithBackoff(quickBackoff).
					Open(context.Background())
				Expect(err).ToNot(HaveOccurred())
			})

			AfterAll(func() {
				sock.Close(tests.EndOfTest, time.Second)
				mockServer.Close()
			})

			It("reconnects on its own and keeps working", func() {
				Expect(waitForState(connection.Open).Attempt).To(Equal(0))

				websocketServer.ForceClose()

				Expect(waitForState(connection.Reconnecting).Attempt).To(Equal(1))
				Expect(waitForState(connection.Open).Attempt).To(Equal(0))

				Eventually(sock.Ready).WithTimeout(5 * time.Second).Should(BeTrue())

				Expect(sock.Send(testItem{Value: "still here"})).To(Succeed())
				Expect(waitForEcho()).To(Equal(testItem{Value: "still here"}))
			})
		})
	})

	Context("Forcing a reconnect", func() {
		When("the caller asks for a fresh physical connection", func() {
			BeforeAll(func() {
				startEchoServer()
				sock, err = New[testItem, testItem](mockServer.Url+"/feed", testCodec).
					WithLogger(logger).
					WithBackoff(quickBackoff).
					Open(context.Background())
				Expect(err).ToNot(HaveOccurred())
			})

			AfterAll(func() {
				sock.Close(tests.EndOfTest, time.Second)
				mockServer.Close()
			})

			It("redials without closing the socket", func() {
				Expect(waitForState(connection.Open).Attempt).To(Equal(0))

				sock.Reconnect()

				Expect(waitForState(connection.Reconnecting).Attempt).To(Equal(1))
				Expect(waitForState(connection.Open).Attempt).To(Equal(0))

				Eventually(sock.Ready).WithTimeout(5 * time.Second).Should(BeTrue())

				Expect(sock.Send(testItem{Value: "fresh wire"})).To(Succeed())
				Expect(waitForEcho()).To(Equal(testItem{Value: "fresh wire"}))
			})
		})
	})

	Context("Exhausting retries", func() {
		When("the server goes away for good", func() {
			BeforeAll(func() {
				startEchoServer()

				limitedBackoff := quickBackoff
				limitedBackoff.MaxRetries = 2

				sock, err = New[testItem, testItem](mockServer.Url+"/feed", testCodec).
					WithLogger(logger).
					WithBackoff(limitedBackoff).
					Open(context.Background())
				Expect(err).ToNot(HaveOccurred())
			})

			It("gives up after the retry budget and reports failure", func() {
				Expect(waitForState(connection.Open).Attempt).To(Equal(0))

				// The listener has to go first so redials fail; the live
				// connection is hijacked and outlives the listener close.
				mockServer.Close()
				websocketServer.ForceClose()

				Expect(waitForState(connection.Reconnecting).Attempt).To(Equal(1))
				Expect(waitForState(connection.Reconnecting).Attempt).To(Equal(2))
				Expect(waitForState(connection.Failed).Reason).To(MatchError(connection.ErrRetriesExhausted))

				Eventually(sock.Done()).WithTimeout(5 * time.Second).Should(BeClosed())
				Expect(sock.Err()).To(MatchError(connection.ErrRetriesExhausted))
			})
		})
	})
})
