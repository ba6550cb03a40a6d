package process

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/asciienc/internal/pty"
)

// fakeChannel is a scripted pty.Channel. The child "exits" when exit is
// closed, or when Terminate is called.
type fakeChannel struct {
	out      io.Reader
	sent     bytes.Buffer
	sendErr  error
	code     int
	exit     chan struct{}
	exitOnce sync.Once

	terminates atomic.Int32
	closes     atomic.Int32
	resizes    [][2]int
	mu         sync.Mutex
}

func newFakeChannel(out string, code int) *fakeChannel {
	return &fakeChannel{
		out:  bytes.NewBufferString(out),
		code: code,
		exit: make(chan struct{}),
	}
}

func (f *fakeChannel) Send(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	return f.sent.Write(p)
}

func (f *fakeChannel) Receive(p []byte) (int, error) {
	return f.out.Read(p)
}

func (f *fakeChannel) Resize(cols, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{cols, rows})
	return nil
}

func (f *fakeChannel) Terminate() error {
	f.terminates.Add(1)
	f.finish()
	return nil
}

func (f *fakeChannel) finish() {
	f.exitOnce.Do(func() { close(f.exit) })
}

func (f *fakeChannel) Wait() (int, error) {
	<-f.exit
	return f.code, nil
}

func (f *fakeChannel) Close() error {
	f.closes.Add(1)
	return nil
}

func TestSupervisor_WaitFromManyGoroutines(t *testing.T) {
	ch := newFakeChannel("", 7)
	s := New(ch)
	defer s.Close()

	if s.State() != StateRunning {
		t.Errorf("expected running state, got %v", s.State())
	}

	const waiters = 8
	results := make(chan int, 2*waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Wait()
		}()
	}

	ch.finish()
	wg.Wait()

	// Waiters arriving after the exit see the same code.
	for i := 0; i < waiters; i++ {
		results <- s.Wait()
	}
	close(results)

	for code := range results {
		if code != 7 {
			t.Errorf("Wait() = %d, expected 7", code)
		}
	}
	if !s.Terminated() || s.State() != StateTerminated {
		t.Errorf("expected terminated state, got %v", s.State())
	}
	if code, ok := s.ExitCode(); !ok || code != 7 {
		t.Errorf("ExitCode() = (%d, %v), expected (7, true)", code, ok)
	}
}

func TestSupervisor_TerminatedCallback(t *testing.T) {
	ch := newFakeChannel("", 3)
	var calls atomic.Int32
	var got atomic.Int32

	s := New(ch, WithTerminatedCallback(func(code int) {
		calls.Add(1)
		got.Store(int32(code))
	}))
	defer s.Close()

	ch.finish()
	s.Wait()

	// The callback runs before waiters are released.
	if calls.Load() != 1 || got.Load() != 3 {
		t.Errorf("callback calls=%d code=%d, expected 1 call with 3", calls.Load(), got.Load())
	}
}

func TestSupervisor_CallbackPanicDoesNotBlockWaiters(t *testing.T) {
	ch := newFakeChannel("", 1)
	s := New(ch, WithTerminatedCallback(func(int) { panic("boom") }))
	defer s.Close()

	ch.finish()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("waiters were not released after callback panic")
	}
}

func TestSupervisor_TerminateAfterExitIsNoop(t *testing.T) {
	ch := newFakeChannel("", 0)
	s := New(ch)
	defer s.Close()

	ch.finish()
	s.Wait()

	if err := s.Terminate(); err != nil {
		t.Errorf("Terminate after exit returned %v", err)
	}
	if ch.terminates.Load() != 0 {
		t.Errorf("Terminate reached the channel after exit")
	}
}

func TestSupervisor_ReceiveAndSend(t *testing.T) {
	ch := newFakeChannel("hello", 0)
	s := New(ch)
	defer s.Close()

	buf := make([]byte, 16)
	if n := s.Receive(buf); string(buf[:n]) != "hello" {
		t.Errorf("Receive = %q, expected \"hello\"", buf[:n])
	}
	if n := s.Receive(buf); n != 0 {
		t.Errorf("Receive after EOF = %d, expected 0", n)
	}
	if n := s.Receive(nil); n != 0 {
		t.Errorf("Receive(nil) = %d, expected 0", n)
	}

	if n := s.Send([]byte("abc")); n != 3 {
		t.Errorf("Send = %d, expected 3", n)
	}
	ch.sendErr = errors.New("broken pipe")
	if n := s.Send([]byte("abc")); n != 0 {
		t.Errorf("Send on broken pipe = %d, expected 0", n)
	}
}

func TestSupervisor_ResizeAfterExitIsNoop(t *testing.T) {
	ch := newFakeChannel("", 0)
	s := New(ch)
	defer s.Close()

	if err := s.Resize(100, 40); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	ch.finish()
	s.Wait()
	if err := s.Resize(120, 50); err != nil {
		t.Errorf("Resize after exit returned %v", err)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.resizes) != 1 || ch.resizes[0] != [2]int{100, 40} {
		t.Errorf("channel saw resizes %v", ch.resizes)
	}
}

func TestSupervisor_Recording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.rec")
	ch := newFakeChannel("\x1b[1mbold\x00", 0)
	s := New(ch)
	defer s.Close()

	if err := s.RecordStop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("RecordStop without recording: expected ErrNotRecording, got %v", err)
	}
	if err := s.RecordInput(path); err != nil {
		t.Fatalf("RecordInput failed: %v", err)
	}
	if err := s.RecordInput(path); !errors.Is(err, ErrRecordingActive) {
		t.Errorf("second RecordInput: expected ErrRecordingActive, got %v", err)
	}

	buf := make([]byte, 64)
	for s.Receive(buf) > 0 {
	}

	if err := s.RecordStop(); err != nil {
		t.Fatalf("RecordStop failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading recording: %v", err)
	}
	if string(data) != "\x1b[1mbold\x00" {
		t.Errorf("recording = %q", data)
	}
}

func TestSupervisor_RecordingLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.rec")

	first := New(newFakeChannel("", 0))
	defer first.Close()
	second := New(newFakeChannel("", 0))
	defer second.Close()

	if err := first.RecordInput(path); err != nil {
		t.Fatalf("RecordInput failed: %v", err)
	}
	if runtime.GOOS != "windows" {
		if err := second.RecordInput(path); !errors.Is(err, ErrRecordingLocked) {
			t.Errorf("expected ErrRecordingLocked, got %v", err)
		}
	}
	if err := first.RecordStop(); err != nil {
		t.Fatalf("RecordStop failed: %v", err)
	}
	if err := second.RecordInput(path); err != nil {
		t.Errorf("RecordInput after release failed: %v", err)
	}
}

func TestSupervisor_RecordingOpenFailure(t *testing.T) {
	s := New(newFakeChannel("", 0))
	defer s.Close()

	dir := t.TempDir()
	// A directory cannot be opened for writing.
	if err := s.RecordInput(dir); err == nil {
		t.Error("expected error recording into a directory")
	}
}

func TestSupervisor_CloseTerminatesOnce(t *testing.T) {
	ch := newFakeChannel("", 137)
	s := New(ch)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if ch.terminates.Load() != 1 {
		t.Errorf("Terminate called %d times, expected 1", ch.terminates.Load())
	}
	if ch.closes.Load() != 1 {
		t.Errorf("channel closed %d times, expected 1", ch.closes.Load())
	}
	if code := s.Wait(); code != 137 {
		t.Errorf("Wait() = %d, expected 137", code)
	}
}

func TestSupervisor_IDs(t *testing.T) {
	a := New(newFakeChannel("", 0))
	defer a.Close()
	b := New(newFakeChannel("", 0), WithID("fixed"))
	defer b.Close()

	if a.ID == "" {
		t.Error("expected generated ID")
	}
	if b.ID != "fixed" {
		t.Errorf("ID = %q, expected \"fixed\"", b.ID)
	}
}

var _ pty.Channel = (*fakeChannel)(nil)
