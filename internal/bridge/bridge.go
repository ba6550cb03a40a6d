package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/asciienc/internal/asciicodec"
	"github.com/dshills/asciienc/internal/logging"
)

// DefaultBufferSize is the read size of both pumps.
const DefaultBufferSize = 10240

// Process is the child side of the bridge. *process.Supervisor implements it.
type Process interface {
	Send(p []byte) int
	Receive(p []byte) int
	Resize(cols, rows int) error
	Terminate() error
	Wait() int
}

// SizeFunc reports the current outer terminal size.
type SizeFunc func() (cols, rows int, err error)

// Bridge connects a Process to an outer channel.
type Bridge struct {
	proc Process
	in   io.Reader
	out  io.Writer

	bufSize int
	size    SizeFunc
	onError func(error)
	logger  *logging.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithBufferSize sets the read size of the pumps.
func WithBufferSize(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.bufSize = n
		}
	}
}

// WithSizeFunc sets how the outer terminal size is queried on resize.
func WithSizeFunc(fn SizeFunc) Option {
	return func(b *Bridge) {
		b.size = fn
	}
}

// WithErrorHandler sets a function called as soon as a pump or the resize
// path fails, before Run returns. It may be called from several goroutines.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Bridge) {
		b.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bridge between proc and the outer channel in/out. Input
// read from in is expected to be encoded; output written to out is encoded.
func New(proc Process, in io.Reader, out io.Writer, opts ...Option) *Bridge {
	b := &Bridge{
		proc:    proc,
		in:      in,
		out:     out,
		bufSize: DefaultBufferSize,
		logger:  logging.Null(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent("bridge")
	return b
}

// Run pumps until the child's output ends, then returns the child's exit
// code. Cancelling ctx terminates the child, which ends the bridge the
// same way.
//
// The returned error joins the failures of either pump; the exit code is
// valid regardless. An inbound pump still blocked on the outer channel
// when the child is gone is abandoned, not joined.
func (b *Bridge) Run(ctx context.Context) (int, error) {
	if !activate(b) {
		return -1, ErrBridgeActive
	}
	defer deactivate(b)

	inbound := startTask(b.pumpInbound)
	outbound := startTask(b.pumpOutbound)

	select {
	case <-outbound.Done():
	case <-ctx.Done():
		b.logger.Info("cancelled, terminating child")
		_ = b.proc.Terminate()
		<-outbound.Done()
	}

	code := b.proc.Wait()
	b.logger.Debug("outbound pump finished, child exit code %d", code)

	return code, errors.Join(outbound.Err(), inbound.Err())
}

// pumpOutbound encodes child output onto the outer channel. A zero read
// means the child is gone.
func (b *Bridge) pumpOutbound() error {
	buf := make([]byte, b.bufSize)
	enc := make([]byte, 0, asciicodec.MaxEncodedLen(b.bufSize))

	for {
		n := b.proc.Receive(buf)
		if n == 0 {
			return nil
		}
		enc = asciicodec.AppendEncode(enc[:0], buf[:n])
		if _, err := b.out.Write(enc); err != nil {
			err = fmt.Errorf("writing outer channel: %w", err)
			b.fail(err)
			_ = b.proc.Terminate()
			return err
		}
	}
}

// pumpInbound decodes outer input and forwards it to the child. Bytes of
// an escape cut off by the end of a read stay in the carry buffer.
func (b *Bridge) pumpInbound() error {
	buf := newCarryBuffer(b.bufSize)
	raw := make([]byte, 0, b.bufSize)
	sink := asciicodec.ResizeFunc(b.resizeChild)

	for {
		n, rerr := buf.Fill(b.in)
		if n > 0 {
			var consumed int
			var derr error
			raw, consumed, derr = asciicodec.AppendDecode(raw[:0], buf.Bytes(), sink)
			buf.Consume(consumed)

			if len(raw) > 0 && !b.sendAll(raw) {
				b.logger.Debug("child stopped accepting input")
				return nil
			}
			if derr != nil {
				err := fmt.Errorf("input stream corrupted: %w", derr)
				b.fail(err)
				return err
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				if buf.Len() > 0 {
					b.logger.Warn("outer channel closed with %d undecoded bytes", buf.Len())
				}
				b.logger.Debug("outer channel closed")
				return nil
			}
			err := fmt.Errorf("reading outer channel: %w", rerr)
			b.fail(err)
			return err
		}
	}
}

// sendAll delivers p to the child, looping over short writes. It reports
// false once the child accepts nothing.
func (b *Bridge) sendAll(p []byte) bool {
	for len(p) > 0 {
		n := b.proc.Send(p)
		if n == 0 {
			return false
		}
		p = p[n:]
	}
	return true
}

// resizeChild applies a resize command received in-band.
func (b *Bridge) resizeChild(cols, rows int) {
	if err := b.proc.Resize(cols, rows); err != nil {
		b.logger.Warn("resize to %dx%d failed: %v", cols, rows, err)
	}
}

// HandleResize queries the outer terminal size and forwards it to the child.
func (b *Bridge) HandleResize() error {
	if b.size == nil {
		return ErrNoSizeSource
	}
	cols, rows, err := b.size()
	if err != nil {
		return fmt.Errorf("querying terminal size: %w", err)
	}
	return b.proc.Resize(cols, rows)
}

func (b *Bridge) fail(err error) {
	b.logger.Error("%v", err)
	if b.onError != nil {
		b.onError(err)
	}
}
