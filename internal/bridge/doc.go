// Package bridge pumps bytes between a supervised child and an outer
// channel that only carries printable ASCII.
//
// Two pumps run concurrently:
//
//   - outbound: child output is encoded and written to the outer channel.
//     End of child output ends the bridge.
//   - inbound: outer input is decoded and sent to the child. Commands found
//     in the input (resize) are applied to the child. An escape split
//     across two reads is carried over and decoded once the rest arrives.
//
// Resize notifications from the host reach the bridge through a single
// process-wide slot holding the active bridge, so a signal handler can find
// it without owning it.
package bridge
