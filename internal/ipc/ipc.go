// Package ipc implements single-instance activation over a unix domain
// socket. The first instance listens; later invocations send the path they
// were asked to open and exit, and the running instance brings that path to
// the foreground.
package ipc

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

// Listener accepts activation requests and forwards the received paths onto
// a channel drained by the game loop.
type Listener struct {
	ln    net.Listener
	paths chan string
}

// Listen binds the activation socket at path. A stale socket left by a
// crashed instance is removed and the bind retried once; a second failure is
// returned to the caller.
func Listen(path string) (*Listener, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			return nil, fmt.Errorf("failed to bind activation socket: %w", err)
		}
		ln, err = net.Listen("unix", path)
		if err != nil {
			return nil, fmt.Errorf("failed to bind activation socket: %w", err)
		}
	}
	return &Listener{
		ln:    ln,
		paths: make(chan string, 8),
	}, nil
}

// Run accepts connections until the listener is closed. Call in its own
// goroutine.
func (l *Listener) Run() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		go l.handle(conn)
	}
}

func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	data, err := io.ReadAll(conn)
	if err != nil {
		return
	}
	path := strings.TrimSpace(string(data))
	if path == "" {
		return
	}
	select {
	case l.paths <- path:
	default:
	}
}

// Paths returns the channel of received activation paths.
func (l *Listener) Paths() <-chan string {
	return l.paths
}

// Close stops accepting and removes the socket file.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Notify sends path to a running instance over its activation socket.
// Returns an error when no instance is listening.
func Notify(socket, path string) error {
	conn, err := net.DialTimeout("unix", socket, time.Second)
	if err != nil {
		return fmt.Errorf("no running instance: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(path)); err != nil {
		return fmt.Errorf("failed to send activation path: %w", err)
	}
	return nil
}
