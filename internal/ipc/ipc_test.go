package ipc

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// Keep the path short; unix socket paths have a low length limit.
	dir, err := os.MkdirTemp("", "fv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestNotifyRoundTrip(t *testing.T) {
	path := socketPath(t)

	l, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()
	go l.Run()

	if err := Notify(path, "/pictures/cat.png"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	select {
	case got := <-l.Paths():
		if got != "/pictures/cat.png" {
			t.Errorf("received %q, want /pictures/cat.png", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no path received")
	}
}

func TestNotifyTrimsWhitespace(t *testing.T) {
	path := socketPath(t)

	l, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()
	go l.Run()

	if err := Notify(path, "  /a/b.png\n"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	select {
	case got := <-l.Paths():
		if got != "/a/b.png" {
			t.Errorf("received %q, want /a/b.png", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no path received")
	}
}

func TestNotifyNoInstance(t *testing.T) {
	if err := Notify(socketPath(t), "/a.png"); err == nil {
		t.Error("expected error with no listener")
	}
}

// A socket file left behind by a crashed instance must not block startup.
func TestListenReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)

	first, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	// Simulate a crash: the listener goes away but the file stays.
	first.ln.Close()
	if _, err := os.Stat(path); err != nil {
		// Close removed the file; recreate the stale state.
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
	}

	second, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen with stale socket failed: %v", err)
	}
	second.Close()
}
