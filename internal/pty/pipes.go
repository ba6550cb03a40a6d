package pty

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/dshills/asciienc/internal/asciicodec"
)

// pipeChannel runs a child over two anonymous pipes. With escape set it is
// the bypass variant: the child decodes the printable-ASCII protocol, so
// backticks are doubled and resize travels in-band.
type pipeChannel struct {
	proc   *execProcess
	stdin  *os.File // our write end of the child's stdin
	stdout *os.File // our read end of the child's stdout and stderr
	escape bool

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func spawnPipes(c Command, escape bool) (Channel, error) {
	cmd := c.execCmd()

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Command: c, Err: fmt.Errorf("create output pipe: %w", err)}
	}
	inR, inW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, &SpawnError{Command: c, Err: fmt.Errorf("create input pipe: %w", err)}
	}

	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = outW

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		inR.Close()
		inW.Close()
		return nil, &SpawnError{Command: c, Err: err}
	}

	// The child owns the far ends now.
	outW.Close()
	inR.Close()

	return &pipeChannel{
		proc:   newExecProcess(cmd),
		stdin:  inW,
		stdout: outR,
		escape: escape,
	}, nil
}

var literalBacktick = []byte{asciicodec.Escape}

func (p *pipeChannel) Send(data []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if !p.escape {
		return p.stdin.Write(data)
	}

	// Each segment ends just after a backtick; the extra backtick written
	// after it makes the far end read a literal rather than an escape.
	sent := 0
	for len(data) > 0 {
		seg := data
		i := bytes.IndexByte(data, asciicodec.Escape)
		if i >= 0 {
			seg = data[:i+1]
		}
		n, err := p.stdin.Write(seg)
		sent += n
		if err != nil {
			return sent, err
		}
		if i >= 0 {
			if _, err := p.stdin.Write(literalBacktick); err != nil {
				return sent, err
			}
		}
		data = data[len(seg):]
	}
	return sent, nil
}

func (p *pipeChannel) Receive(buf []byte) (int, error) {
	return p.stdout.Read(buf)
}

func (p *pipeChannel) Resize(cols, rows int) error {
	if !p.escape {
		return nil
	}
	if err := (Size{Cols: cols, Rows: rows}).Validate(); err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := p.stdin.Write(asciicodec.EncodeResize(cols, rows)); err != nil {
		return fmt.Errorf("send resize: %w", err)
	}
	return nil
}

func (p *pipeChannel) Terminate() error {
	return p.proc.terminate()
}

func (p *pipeChannel) Wait() (int, error) {
	return p.proc.wait()
}

func (p *pipeChannel) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.proc.terminate()
		p.stdin.Close()
		p.stdout.Close()
	})
	return err
}
