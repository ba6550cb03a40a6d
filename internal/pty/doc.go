// Package pty provides the process channel used by the bridge: a child
// process attached either to a native pseudoterminal or to a pair of plain
// pipes, exposed through one synchronous contract.
//
// # Modes
//
//   - ModeNative: a real pseudoterminal (creack/pty on Unix, ConPTY on
//     Windows). Resize is forwarded to the pseudoterminal layer.
//   - ModeBypass: plain pipes to a child that speaks the printable-ASCII
//     protocol itself. Backticks are doubled on the way in and resize is
//     sent in-band as a protocol command.
//   - ModePipe: plain pipes with no escaping and no resize. Useful for
//     children that only need their bytes delivered unchanged.
//
// # Usage
//
//	ch, err := pty.Spawn(pty.Command{Path: "/bin/sh"}, pty.ModeNative, pty.DefaultSize)
//	if err != nil {
//	    return err
//	}
//	defer ch.Close()
//
//	ch.Send([]byte("ls\n"))
//	buf := make([]byte, 4096)
//	n, err := ch.Receive(buf)
//
// # Thread Safety
//
// Send and Receive may run concurrently with each other and with Resize,
// Terminate and Wait. Close releases every resource exactly once.
package pty
