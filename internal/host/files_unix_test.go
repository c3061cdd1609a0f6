//go:build unix

package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ppiankov/hostgate/internal/ipc"
)

func TestBlockedFileReadDoesNotStallHost(t *testing.T) {
	th := newTestHost(t)
	th.Loaded(1, trustedURL)
	fifo := filepath.Join(t.TempDir(), "pipe")
	if err := unix.Mkfifo(fifo, 0o600); err != nil {
		t.Fatal(err)
	}

	// Opening a fifo for reading waits for a writer.
	readDone := make(chan error, 1)
	go func() {
		_, err := th.Call(1, ipc.FsReadFile{Path: fifo})
		readDone <- err
	}()
	time.Sleep(50 * time.Millisecond)

	callDone := make(chan struct{})
	go func() {
		defer close(callDone)
		th.Loaded(2, trustedURL)
		if _, err := th.Call(2, ipc.GetAppName{}); err != nil {
			t.Errorf("getAppName: %v", err)
		}
	}()
	select {
	case <-callDone:
	case <-time.After(3 * time.Second):
		t.Fatal("host stalled behind a blocked file read")
	}

	w, err := os.OpenFile(fifo, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteString("data")
	w.Close()
	select {
	case err := <-readDone:
		if err != nil {
			t.Fatalf("read fifo: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("fifo read never finished")
	}
}
