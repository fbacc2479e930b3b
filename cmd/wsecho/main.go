// wsecho is a minimal client for exercising the library against an echo
// server: it sends stdin lines over a reconnecting websocket and prints
// every message and state change it gets back.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/resock/resock/connection/backoff"
	"github.com/resock/resock/connection/codec"
	"github.com/resock/resock/connection/socket"
	"github.com/resock/resock/logger"
)

const closeTimeout = 5 * time.Second

func main() {
	url := flag.String("url", "wss://echo.websocket.org", "websocket server to connect to")
	logFile := flag.String("logfile", "", "write diagnostic logs to this file")
	debug := flag.Bool("debug", false, "also write diagnostic logs to stderr")
	maxRetries := flag.Int("max-retries", 0, "reconnect attempts before giving up, 0 for unlimited")
	flag.Parse()

	if err := run(*url, *logFile, *debug, *maxRetries); err != nil {
		fmt.Fprintf(os.Stderr, "wsecho: %s\n", err)
		os.Exit(1)
	}
}

func run(url string, logFile string, debug bool, maxRetries int) error {
	log, err := buildLogger(logFile, debug)
	if err != nil {
		return err
	}

	sock, err := socket.New(url, codec.Raw()).
		WithLogger(log).
		WithBackoff(backoff.Config{
			Min:        backoff.DefaultMin,
			Max:        backoff.DefaultMax,
			Jitter:     backoff.DefaultJitter,
			MaxRetries: maxRetries,
		}).
		Open(context.Background())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		sock.Close(nil, closeTimeout)
	}()

	// Forward stdin lines through the queue handle
	go func() {
		sender := sock.Sender()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := sender.Send([]byte(scanner.Text())); err != nil {
				fmt.Fprintf(os.Stderr, "! send failed: %s\n", err)
			}
		}
	}()

	// The event stream ends only at final disposition
	for event := range sock.Events() {
		switch event.Kind {
		case socket.StateEvent:
			fmt.Printf("* %s\n", event.State)
		case socket.MessageEvent:
			if event.Err != nil {
				fmt.Fprintf(os.Stderr, "! %s\n", event.Err)
				continue
			}
			fmt.Printf("< %s\n", event.Message)
		}
	}

	return sock.Err()
}

func buildLogger(logFile string, debug bool) (*logger.Logger, error) {
	config := &logger.Config{
		LogLevel: logger.Debug,
		FilePath: logFile,
	}
	if debug {
		config.ConsoleWriters = append(config.ConsoleWriters, os.Stderr)
	}

	if config.FilePath == "" && len(config.ConsoleWriters) == 0 {
		return logger.Discard(), nil
	}
	return logger.New(config)
}
