package process

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/asciienc/internal/logging"
	"github.com/dshills/asciienc/internal/pty"
)

// Supervisor owns a pty.Channel and tracks the lifecycle of its child.
//
// The monitor goroutine is the only writer of the exit status. Terminate
// merely asks the child to die; the monitor still observes and publishes
// the death like any natural exit.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	// ID identifies this supervisor in logs.
	ID string

	// Started is the time the supervisor took ownership of the channel.
	Started time.Time

	ch     pty.Channel
	exit   *ExitStatus
	logger *logging.Logger

	// monitorDone is closed after the monitor has delivered the exit
	// callback and settled the exit status.
	monitorDone chan struct{}

	onTerminated func(exitCode int)

	recMu sync.Mutex
	rec   *recorder

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID sets the supervisor ID instead of a random UUID.
func WithID(id string) Option {
	return func(s *Supervisor) {
		s.ID = id
	}
}

// WithTerminatedCallback sets a function the monitor calls once with the
// exit code, before any waiter is released.
func WithTerminatedCallback(fn func(exitCode int)) Option {
	return func(s *Supervisor) {
		s.onTerminated = fn
	}
}

// Spawn starts cmd in the given mode and supervises it.
func Spawn(cmd pty.Command, mode pty.Mode, size pty.Size, opts ...Option) (*Supervisor, error) {
	ch, err := pty.Spawn(cmd, mode, size)
	if err != nil {
		return nil, err
	}
	s := New(ch, opts...)
	s.logger.Info("started %s in %s mode", cmd, mode)
	return s, nil
}

// New supervises a freshly spawned channel. The monitor starts immediately.
func New(ch pty.Channel, opts ...Option) *Supervisor {
	s := &Supervisor{
		ID:          uuid.New().String(),
		Started:     time.Now(),
		ch:          ch,
		exit:        NewExitStatus(),
		logger:      logging.Null(),
		monitorDone: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("supervisor").WithField("session", s.ID)

	go s.monitor()

	return s
}

// monitor waits for the child to die and publishes its exit code.
func (s *Supervisor) monitor() {
	defer close(s.monitorDone)

	code, err := s.ch.Wait()
	if err != nil {
		s.logger.Warn("waiting for child: %v", err)
	}
	s.logger.Info("child exited with code %d after %s", code, time.Since(s.Started).Round(time.Millisecond))

	if s.onTerminated != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("terminated callback panicked: %v", r)
				}
			}()
			s.onTerminated(code)
		}()
	}

	s.exit.Settle(code)
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	if _, ok := s.exit.Peek(); ok {
		return StateTerminated
	}
	return StateRunning
}

// Terminated reports whether the child has been observed to exit.
func (s *Supervisor) Terminated() bool {
	return s.State() == StateTerminated
}

// ExitCode returns the exit code and true once the child has exited.
func (s *Supervisor) ExitCode() (int, bool) {
	return s.exit.Peek()
}

// Done returns a channel closed once the child has exited.
func (s *Supervisor) Done() <-chan struct{} {
	return s.exit.Done()
}

// Wait blocks until the child exits and returns its exit code. All callers
// receive the same code.
func (s *Supervisor) Wait() int {
	return s.exit.Wait()
}

// WaitContext is Wait bounded by ctx.
func (s *Supervisor) WaitContext(ctx context.Context) (int, error) {
	return s.exit.WaitContext(ctx)
}

// Terminate requests immediate death of the child and returns without
// waiting. Calling it after the child exited is a no-op.
func (s *Supervisor) Terminate() error {
	if s.Terminated() {
		return nil
	}
	if err := s.ch.Terminate(); err != nil {
		s.logger.Warn("terminate: %v", err)
		return err
	}
	return nil
}

// Send writes p to the child and returns how many bytes were delivered.
// A short count means the child is most likely gone.
func (s *Supervisor) Send(p []byte) int {
	n, err := s.ch.Send(p)
	if err != nil {
		s.logger.Debug("send failed after %d of %d bytes: %v", n, len(p), err)
	}
	return n
}

// Receive blocks until the child produces output and returns the number of
// bytes placed in p. Zero means the output is closed and no further call
// will produce data. An empty p also yields zero.
func (s *Supervisor) Receive(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	n, err := s.ch.Receive(p)
	if n > 0 {
		s.record(p[:n])
	}
	if err != nil && n == 0 {
		s.logger.Debug("receive ended: %v", err)
	}
	return n
}

// Resize forwards new terminal dimensions to the child.
func (s *Supervisor) Resize(cols, rows int) error {
	if s.Terminated() {
		return nil
	}
	if err := s.ch.Resize(cols, rows); err != nil {
		return err
	}
	s.logger.Debug("resized to %dx%d", cols, rows)
	return nil
}

// RecordInput starts mirroring received bytes into the file at path,
// truncating it. Failing to open the file is reported here.
func (s *Supervisor) RecordInput(path string) error {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	if s.rec != nil {
		return ErrRecordingActive
	}
	rec, err := openRecorder(path)
	if err != nil {
		return err
	}
	s.rec = rec
	s.logger.Info("recording output to %s", path)
	return nil
}

// RecordStop closes the active recording.
func (s *Supervisor) RecordStop() error {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	if s.rec == nil {
		return ErrNotRecording
	}
	err := s.rec.close()
	s.rec = nil
	return err
}

// record writes p to the active recording. A write failure stops the
// recording but never the data path.
func (s *Supervisor) record(p []byte) {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	if s.rec == nil {
		return
	}
	if err := s.rec.write(p); err != nil {
		s.logger.Warn("recording to %s failed, stopping: %v", s.rec.path, err)
		_ = s.rec.close()
		s.rec = nil
	}
}

// Close terminates the child, waits until the monitor has delivered the
// exit, closes any recording and releases the channel. Safe to call
// multiple times.
func (s *Supervisor) Close() error {
	s.closeOnce.Do(func() {
		_ = s.Terminate()
		<-s.monitorDone

		s.recMu.Lock()
		if s.rec != nil {
			_ = s.rec.close()
			s.rec = nil
		}
		s.recMu.Unlock()

		s.closeErr = s.ch.Close()
	})
	return s.closeErr
}
