package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/asciienc/internal/asciicodec"
)

// fakeProcess is a Process whose output is fed through a pipe. It exits
// when its output pipe is closed.
type fakeProcess struct {
	outR *io.PipeReader
	outW *io.PipeWriter
	code int

	mu       sync.Mutex
	input    bytes.Buffer
	resizes  [][2]int
	accept   bool
	done     chan struct{}
	exitOnce sync.Once
}

func newFakeProcess(code int) *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{outR: r, outW: w, code: code, accept: true, done: make(chan struct{})}
}

func (f *fakeProcess) Send(p []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.accept {
		return 0
	}
	n, _ := f.input.Write(p)
	return n
}

func (f *fakeProcess) Receive(p []byte) int {
	n, _ := f.outR.Read(p)
	return n
}

func (f *fakeProcess) Resize(cols, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{cols, rows})
	return nil
}

func (f *fakeProcess) Terminate() error {
	f.exit()
	return nil
}

func (f *fakeProcess) Wait() int {
	<-f.done
	return f.code
}

func (f *fakeProcess) exit() {
	f.exitOnce.Do(func() {
		f.outW.Close()
		close(f.done)
	})
}

func (f *fakeProcess) inputBytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.input.Bytes()...)
}

func (f *fakeProcess) resizeList() [][2]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]int(nil), f.resizes...)
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type runResult struct {
	code int
	err  error
}

func runAsync(b *Bridge, ctx context.Context) <-chan runResult {
	ch := make(chan runResult, 1)
	go func() {
		code, err := b.Run(ctx)
		ch <- runResult{code, err}
	}()
	return ch
}

func awaitResult(t *testing.T, ch <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not finish")
		return runResult{}
	}
}

func TestBridge_OutboundEncodes(t *testing.T) {
	proc := newFakeProcess(0)
	inR, inW := io.Pipe()
	defer inW.Close()
	out := &syncBuffer{}

	result := runAsync(New(proc, inR, out), context.Background())

	raw := []byte{0x41, 0x03, 0x60, 0x0a, 0x7f}
	if _, err := proc.outW.Write(raw); err != nil {
		t.Fatalf("write child output: %v", err)
	}
	proc.exit()

	r := awaitResult(t, result)
	if r.err != nil {
		t.Errorf("Run returned error %v", r.err)
	}
	if want := asciicodec.Encode(raw); !bytes.Equal(out.Bytes(), want) {
		t.Errorf("outer channel got %q, expected %q", out.Bytes(), want)
	}
}

func TestBridge_ExitCodeOfChild(t *testing.T) {
	proc := newFakeProcess(42)
	inR, inW := io.Pipe()
	defer inW.Close()

	result := runAsync(New(proc, inR, io.Discard), context.Background())
	proc.exit()

	if r := awaitResult(t, result); r.code != 42 {
		t.Errorf("Run() code = %d, expected 42", r.code)
	}
}

func TestBridge_InboundCarriesSplitEscapes(t *testing.T) {
	proc := newFakeProcess(0)
	inR, inW := io.Pipe()
	defer inW.Close()

	result := runAsync(New(proc, inR, io.Discard), context.Background())

	// Each write is a separate read on the inbound side.
	chunks := []string{"A`", "C``", "`", "J`r1", "20:4", "0;z`", "?"}
	for _, c := range chunks {
		if _, err := inW.Write([]byte(c)); err != nil {
			t.Fatalf("write %q: %v", c, err)
		}
	}

	want := []byte{0x41, 0x03, 0x60, 0x0a, 'z', 0x7f}
	eventually(t, "decoded input", func() bool {
		return bytes.Equal(proc.inputBytes(), want)
	})
	eventually(t, "resize", func() bool {
		return len(proc.resizeList()) == 1
	})
	if got := proc.resizeList()[0]; got != [2]int{120, 40} {
		t.Errorf("resize = %v, expected [120 40]", got)
	}

	proc.exit()
	awaitResult(t, result)
}

func TestBridge_FramingErrorStopsInbound(t *testing.T) {
	proc := newFakeProcess(0)
	inR, inW := io.Pipe()
	defer inW.Close()

	reported := make(chan error, 1)
	b := New(proc, inR, io.Discard, WithErrorHandler(func(err error) { reported <- err }))
	result := runAsync(b, context.Background())

	if _, err := inW.Write([]byte("ok`!bad")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-reported:
		if !errors.Is(err, asciicodec.ErrFraming) {
			t.Errorf("reported %v, expected framing error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("framing error was not reported")
	}

	if got := proc.inputBytes(); string(got) != "ok" {
		t.Errorf("child received %q, expected the prefix \"ok\"", got)
	}

	// The outbound pump keeps running until the child exits.
	select {
	case <-result:
		t.Fatal("bridge ended on inbound error")
	case <-time.After(50 * time.Millisecond):
	}

	proc.exit()
	r := awaitResult(t, result)
	if !errors.Is(r.err, asciicodec.ErrFraming) {
		t.Errorf("Run error = %v, expected framing error", r.err)
	}
}

func TestBridge_OuterEOFDoesNotEndBridge(t *testing.T) {
	proc := newFakeProcess(5)
	out := &syncBuffer{}

	result := runAsync(New(proc, strings.NewReader("hi"), out), context.Background())

	eventually(t, "input", func() bool { return string(proc.inputBytes()) == "hi" })

	select {
	case <-result:
		t.Fatal("bridge ended on outer EOF")
	case <-time.After(50 * time.Millisecond):
	}

	proc.outW.Write([]byte("bye"))
	proc.exit()
	r := awaitResult(t, result)
	if r.code != 5 || r.err != nil {
		t.Errorf("Run = (%d, %v), expected (5, nil)", r.code, r.err)
	}
	if string(out.Bytes()) != "bye" {
		t.Errorf("outer channel got %q", out.Bytes())
	}
}

func TestBridge_ChildRefusesInput(t *testing.T) {
	proc := newFakeProcess(0)
	proc.accept = false

	b := New(proc, strings.NewReader("abc"), io.Discard)
	if err := b.pumpInbound(); err != nil {
		t.Errorf("pumpInbound returned %v, expected nil once the child refuses input", err)
	}
}

func TestBridge_ContextCancelTerminates(t *testing.T) {
	proc := newFakeProcess(137)
	inR, inW := io.Pipe()
	defer inW.Close()

	ctx, cancel := context.WithCancel(context.Background())
	result := runAsync(New(proc, inR, io.Discard), ctx)
	cancel()

	if r := awaitResult(t, result); r.code != 137 {
		t.Errorf("Run() code = %d, expected 137", r.code)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestBridge_OuterWriteFailureTerminates(t *testing.T) {
	proc := newFakeProcess(1)
	inR, inW := io.Pipe()
	defer inW.Close()

	result := runAsync(New(proc, inR, failingWriter{}), context.Background())
	go proc.outW.Write([]byte("data"))

	r := awaitResult(t, result)
	if r.err == nil {
		t.Error("expected write error from Run")
	}
	if r.code != 1 {
		t.Errorf("Run() code = %d, expected 1", r.code)
	}
}

func TestBridge_OnlyOneActive(t *testing.T) {
	proc := newFakeProcess(0)
	inR, inW := io.Pipe()
	defer inW.Close()

	b := New(proc, inR, io.Discard)
	result := runAsync(b, context.Background())
	eventually(t, "activation", func() bool { return Active() == b })

	other := New(newFakeProcess(0), strings.NewReader(""), io.Discard)
	if _, err := other.Run(context.Background()); !errors.Is(err, ErrBridgeActive) {
		t.Errorf("second Run: expected ErrBridgeActive, got %v", err)
	}

	proc.exit()
	awaitResult(t, result)
	if Active() != nil {
		t.Error("bridge still registered after Run returned")
	}
}

func TestNotifyResize(t *testing.T) {
	if err := NotifyResize(); !errors.Is(err, ErrNoActiveBridge) {
		t.Errorf("expected ErrNoActiveBridge, got %v", err)
	}

	proc := newFakeProcess(0)
	inR, inW := io.Pipe()
	defer inW.Close()

	b := New(proc, inR, io.Discard, WithSizeFunc(func() (int, int, error) { return 100, 30, nil }))
	result := runAsync(b, context.Background())
	eventually(t, "activation", func() bool { return Active() == b })

	if err := NotifyResize(); err != nil {
		t.Fatalf("NotifyResize failed: %v", err)
	}
	if got := proc.resizeList(); len(got) != 1 || got[0] != [2]int{100, 30} {
		t.Errorf("resizes = %v, expected [[100 30]]", got)
	}

	proc.exit()
	awaitResult(t, result)
}

func TestHandleResize_Errors(t *testing.T) {
	b := New(newFakeProcess(0), strings.NewReader(""), io.Discard)
	if err := b.HandleResize(); !errors.Is(err, ErrNoSizeSource) {
		t.Errorf("expected ErrNoSizeSource, got %v", err)
	}

	queryErr := errors.New("not a terminal")
	b = New(newFakeProcess(0), strings.NewReader(""), io.Discard,
		WithSizeFunc(func() (int, int, error) { return 0, 0, queryErr }))
	if err := b.HandleResize(); !errors.Is(err, queryErr) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}
