// Package process supervises a child attached to a pty.Channel.
//
// A Supervisor owns one channel for its whole life. A monitor goroutine
// waits for the child to die, whether on its own or because Terminate was
// called, and publishes the exit code exactly once. Any number of
// goroutines may Wait for it, before or after the fact.
//
// # Usage
//
//	sup, err := process.Spawn(pty.Command{Path: "/bin/sh"}, pty.ModeNative, pty.DefaultSize)
//	if err != nil {
//	    return err
//	}
//	defer sup.Close()
//
//	buf := make([]byte, 4096)
//	for {
//	    n := sup.Receive(buf)
//	    if n == 0 {
//	        break
//	    }
//	    os.Stdout.Write(buf[:n])
//	}
//	fmt.Println("exit code", sup.Wait())
//
// # I/O errors
//
// Send and Receive do not return errors. A failed pipe operation almost
// always means the child is gone, so Receive reports it as end of stream
// and Send as a short count; the exit code from Wait is authoritative.
//
// # Recording
//
// RecordInput mirrors every byte returned by Receive into a file until
// RecordStop. The file is locked so two supervisors cannot record into it
// at once.
package process
